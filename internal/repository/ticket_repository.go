package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/concert-order-service/internal/model"
)

// TicketRepo persists issued tickets.  tickets.code carries a unique
// index; a colliding insert is reported as ErrDuplicateCode so the caller
// can regenerate the code and retry within the same transaction.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a new TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// CreateTx inserts t inside tx and populates its ID.  A unique-code
// violation only fails the statement, not the surrounding transaction.
func (r *TicketRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.Ticket) error {
	const q = `INSERT INTO tickets (order_id, ticket_type_id, seat_id, code, status_id, created_at)
               VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, t.OrderID, t.TicketTypeID, t.SeatID, t.Code, t.StatusID, time.Now().UTC())
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateCode
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// ListByOrder returns the tickets of an order with the printed seat label
// and section, in issue order.
func (r *TicketRepo) ListByOrder(ctx context.Context, orderID uint64) ([]model.Ticket, error) {
	const q = `SELECT t.id, t.order_id, t.ticket_type_id, t.seat_id, t.code, t.status_id,
                      s.section_id, s.row_label, s.seat_number
               FROM tickets t
               JOIN seats s ON s.id = t.seat_id
               WHERE t.order_id = ?
               ORDER BY t.id`
	rows, err := r.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Ticket{}
	for rows.Next() {
		var t model.Ticket
		var row string
		var num uint32
		if err := rows.Scan(&t.ID, &t.OrderID, &t.TicketTypeID, &t.SeatID, &t.Code, &t.StatusID,
			&t.SectionID, &row, &num); err != nil {
			return nil, err
		}
		t.SeatLabel = model.SeatLabel(row, num)
		out = append(out, t)
	}
	return out, rows.Err()
}

// CountForConcertInStatus counts tickets belonging to orders of concertID
// whose order status is orderStatusID.
func (r *TicketRepo) CountForConcertInStatus(ctx context.Context, concertID, orderStatusID uint64) (int64, error) {
	const q = `SELECT COUNT(*) FROM tickets t
               JOIN orders o ON o.id = t.order_id
               WHERE o.concert_id = ? AND o.status_id = ?`
	var n int64
	err := r.db.QueryRowContext(ctx, q, concertID, orderStatusID).Scan(&n)
	return n, err
}
