package model

import "time"

// Reservation is a temporary hold on one or more concert seats created by
// the reservation service. The order service only consumes reservations:
// it reads held ones and flips them to confirmed when an order is placed.
//
// Fields:
//
//	ID        – primary key identifier.
//	UserID    – user who owns the hold.
//	ConcertID – concert the seats belong to.
//	StatusID  – reference into the reservation status domain.
//	Status    – label resolved from StatusID (held, confirmed, expired).
//	ExpiresAt – instant after which the hold may not be converted.
//	Seats     – seats covered by the hold.
type Reservation struct {
	ID        uint64            // reservations.id
	UserID    uint64            // reservations.user_id
	ConcertID uint64            // reservations.concert_id
	StatusID  uint64            // reservations.status_id
	Status    ReservationStatus // status_codes.label
	ExpiresAt time.Time         // reservations.expires_at
	Seats     []ReservationSeat
}

// Expired reports whether the hold lapsed before now.
func (r *Reservation) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// ConcertSeatIDs returns the concert seat ids covered by the reservation in
// seat order.
func (r *Reservation) ConcertSeatIDs() []uint64 {
	ids := make([]uint64, 0, len(r.Seats))
	for _, s := range r.Seats {
		ids = append(ids, s.ConcertSeatID)
	}
	return ids
}

// SeatIDs returns the physical seat ids covered by the reservation.
func (r *Reservation) SeatIDs() []uint64 {
	ids := make([]uint64, 0, len(r.Seats))
	for _, s := range r.Seats {
		ids = append(ids, s.SeatID)
	}
	return ids
}

// ReservationSeat links a reservation to one seat of the concert.  The
// physical seat details are joined in so callers can derive the section
// and a printable label without a second lookup.
//
// Fields:
//
//	ID            – primary key identifier.
//	ReservationID – owning reservation.
//	SeatID        – physical seat.
//	ConcertSeatID – the per-concert availability row for the seat.
//	SectionID     – section of the physical seat.
//	RowLabel      – row of the physical seat.
//	SeatNumber    – number of the seat within its row.
type ReservationSeat struct {
	ID            uint64 // reservation_seats.id
	ReservationID uint64 // reservation_seats.reservation_id
	SeatID        uint64 // reservation_seats.seat_id
	ConcertSeatID uint64 // reservation_seats.concert_seat_id
	SectionID     uint64 // seats.section_id
	RowLabel      string // seats.row_label
	SeatNumber    uint32 // seats.seat_number
}

// Label renders the seat the way it is printed on a ticket, e.g. "B12".
func (s ReservationSeat) Label() string { return SeatLabel(s.RowLabel, s.SeatNumber) }
