package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/concert-order-service/internal/model"
)

// ReservationRepo reads reservations produced by the reservation service
// and performs the single state change this service owns: consuming a held
// reservation when an order is created from it.  All timestamp fields are
// assumed to be stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// GetForUserInStatus returns the reservation with the given id when it
// belongs to userID and is currently in statusID.  The reservation's seats
// are loaded with their physical section and label, ordered by the
// reservation_seats primary key so the first seat is stable.  When no such
// reservation exists ErrNotFound is returned.
func (r *ReservationRepo) GetForUserInStatus(ctx context.Context, reservationID, userID, statusID uint64) (*model.Reservation, error) {
	const q = `SELECT r.id, r.user_id, r.concert_id, r.status_id, sc.label, r.expires_at
               FROM reservations r
               JOIN status_codes sc ON sc.id = r.status_id
               WHERE r.id = ? AND r.user_id = ? AND r.status_id = ?`
	var res model.Reservation
	var label string
	err := r.db.QueryRowContext(ctx, q, reservationID, userID, statusID).Scan(
		&res.ID, &res.UserID, &res.ConcertID, &res.StatusID, &label, &res.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	res.Status = model.ReservationStatus(label)
	res.ExpiresAt = res.ExpiresAt.UTC()

	seats, err := r.seats(ctx, res.ID)
	if err != nil {
		return nil, err
	}
	res.Seats = seats
	return &res, nil
}

func (r *ReservationRepo) seats(ctx context.Context, reservationID uint64) ([]model.ReservationSeat, error) {
	const q = `SELECT rs.id, rs.reservation_id, rs.seat_id, rs.concert_seat_id,
                      s.section_id, s.row_label, s.seat_number
               FROM reservation_seats rs
               JOIN seats s ON s.id = rs.seat_id
               WHERE rs.reservation_id = ?
               ORDER BY rs.id`
	rows, err := r.db.QueryContext(ctx, q, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ReservationSeat
	for rows.Next() {
		var s model.ReservationSeat
		if err := rows.Scan(&s.ID, &s.ReservationID, &s.SeatID, &s.ConcertSeatID,
			&s.SectionID, &s.RowLabel, &s.SeatNumber); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// TransitionTx moves a reservation from one status to another inside tx.
// The update is conditional on the current status; if the reservation was
// already moved by a concurrent writer ErrConflict is returned.
func (r *ReservationRepo) TransitionTx(ctx context.Context, tx *sql.Tx, reservationID, from, to uint64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status_id = ? WHERE id = ? AND status_id = ?`,
		to, reservationID, from,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return ErrConflict
	}
	return nil
}
