package model

import "strconv"

// Seat describes a physical seat in a venue section.  Seats are uniquely
// identified by their section, row label and seat number.
//
// Fields:
//
//	ID         – primary key identifier.
//	SectionID  – section the seat belongs to; ticket prices are per section.
//	RowLabel   – letter or string designating the row.
//	SeatNumber – number of the seat within the row.
type Seat struct {
	ID         uint64 // seats.id
	SectionID  uint64 // seats.section_id
	RowLabel   string // seats.row_label
	SeatNumber uint32 // seats.seat_number
}

// ConcertSeat tracks availability of one physical seat for one concert.
// It is the contended resource: its status moves free -> held -> in_cart
// -> occupied and is only ever changed by a conditional update.
//
// Fields:
//
//	ID        – primary key identifier.
//	ConcertID – concert this row belongs to.
//	SeatID    – physical seat.
//	StatusID  – reference into the seat status domain.
type ConcertSeat struct {
	ID        uint64 // concert_seats.id
	ConcertID uint64 // concert_seats.concert_id
	SeatID    uint64 // concert_seats.seat_id
	StatusID  uint64 // concert_seats.status_id
}

// SeatLabel joins a row label and seat number into the printed form.
func SeatLabel(row string, number uint32) string {
	return row + strconv.FormatUint(uint64(number), 10)
}
