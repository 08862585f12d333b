package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/concert-order-service/internal/model"
)

// OrderRepo persists orders together with their single item and the seats
// they cover.  Write methods take the caller's transaction; the caller
// must commit or roll back.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// CreateTx inserts a new order within the scope of an existing
// transaction and populates the generated ID and timestamps on o.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
	now := time.Now().UTC()
	const q = `INSERT INTO orders (user_id, concert_id, reservation_id, status_id, total, created_at, updated_at)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, o.UserID, o.ConcertID, o.ReservationID, o.StatusID, o.Total, now, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	o.CreatedAt = now
	o.UpdatedAt = now
	return nil
}

// CreateItemTx inserts the priced line of an order.
func (r *OrderRepo) CreateItemTx(ctx context.Context, tx *sql.Tx, it *model.OrderItem) error {
	const q = `INSERT INTO order_items (order_id, ticket_type_id, quantity, unit_price, created_at)
               VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, it.OrderID, it.TicketTypeID, it.Quantity, it.UnitPrice, time.Now().UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	it.ID = uint64(id)
	return nil
}

// CreateSeatsBulkTx inserts multiple order_seats rows in a single
// statement.  Passing an empty slice has no effect and returns nil.
func (r *OrderRepo) CreateSeatsBulkTx(ctx context.Context, tx *sql.Tx, seats []model.OrderSeat) error {
	if len(seats) == 0 {
		return nil
	}
	now := time.Now().UTC()
	query := `INSERT INTO order_seats (order_id, seat_id, concert_seat_id, created_at) VALUES `
	args := make([]any, 0, len(seats)*4)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, s.OrderID, s.SeatID, s.ConcertSeatID, now)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// TransitionTx moves an order from one status to another inside tx.  The
// update is conditional on the current status so a concurrent writer that
// got there first makes this call fail with ErrConflict.
func (r *OrderRepo) TransitionTx(ctx context.Context, tx *sql.Tx, orderID, from, to uint64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET status_id = ?, updated_at = ? WHERE id = ? AND status_id = ?`,
		to, time.Now().UTC(), orderID, from,
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

const orderColumns = `o.id, o.user_id, o.concert_id, o.reservation_id, o.status_id, sc.label, o.total, o.created_at, o.updated_at`

func scanOrder(sc interface{ Scan(...any) error }) (model.Order, error) {
	var o model.Order
	var label string
	err := sc.Scan(&o.ID, &o.UserID, &o.ConcertID, &o.ReservationID, &o.StatusID, &label,
		&o.Total, &o.CreatedAt, &o.UpdatedAt)
	o.Status = model.OrderStatus(label)
	return o, err
}

// GetByID returns the order with the given id or ErrNotFound.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (*model.Order, error) {
	q := `SELECT ` + orderColumns + `
          FROM orders o JOIN status_codes sc ON sc.id = o.status_id
          WHERE o.id = ?`
	o, err := scanOrder(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

const itemQuery = `SELECT oi.id, oi.order_id, oi.ticket_type_id, oi.quantity, oi.unit_price, tt.name, tt.price
                   FROM order_items oi
                   JOIN ticket_types tt ON tt.id = oi.ticket_type_id `

// Items returns the items of an order with their ticket type.
func (r *OrderRepo) Items(ctx context.Context, orderID uint64) ([]model.OrderItem, error) {
	byOrder, err := r.ItemsByOrders(ctx, []uint64{orderID})
	if err != nil {
		return nil, err
	}
	return byOrder[orderID], nil
}

// ItemsByOrders returns the items of several orders in one query, keyed by
// order id.  Orders without items are absent from the map.
func (r *OrderRepo) ItemsByOrders(ctx context.Context, orderIDs []uint64) (map[uint64][]model.OrderItem, error) {
	out := make(map[uint64][]model.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}
	args := make([]any, 0, len(orderIDs))
	for _, id := range orderIDs {
		args = append(args, id)
	}
	q := itemQuery + `WHERE oi.order_id IN (` + placeholders(len(orderIDs)) + `) ORDER BY oi.order_id, oi.id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.TicketTypeID, &it.Quantity, &it.UnitPrice,
			&it.TicketTypeName, &it.TicketTypePrice); err != nil {
			return nil, err
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, rows.Err()
}

// Seats returns the seats bought by an order with their section and label.
func (r *OrderRepo) Seats(ctx context.Context, orderID uint64) ([]model.OrderSeat, error) {
	const q = `SELECT os.id, os.order_id, os.seat_id, os.concert_seat_id, s.section_id, s.row_label, s.seat_number
               FROM order_seats os
               JOIN seats s ON s.id = os.seat_id
               WHERE os.order_id = ?
               ORDER BY os.id`
	rows, err := r.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.OrderSeat
	for rows.Next() {
		var s model.OrderSeat
		var row string
		var num uint32
		if err := rows.Scan(&s.ID, &s.OrderID, &s.SeatID, &s.ConcertSeatID, &s.SectionID, &row, &num); err != nil {
			return nil, err
		}
		s.Label = model.SeatLabel(row, num)
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListByUser returns every order placed by userID, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Order, error) {
	return r.list(ctx, `WHERE o.user_id = ?`, userID)
}

// ListAll returns every order, newest first.
func (r *OrderRepo) ListAll(ctx context.Context) ([]model.Order, error) {
	return r.list(ctx, ``)
}

// ListByConcertInStatus returns the orders of a concert that are in
// statusID, newest first.
func (r *OrderRepo) ListByConcertInStatus(ctx context.Context, concertID, statusID uint64) ([]model.Order, error) {
	return r.list(ctx, `WHERE o.concert_id = ? AND o.status_id = ?`, concertID, statusID)
}

func (r *OrderRepo) list(ctx context.Context, where string, args ...any) ([]model.Order, error) {
	q := `SELECT ` + orderColumns + `
          FROM orders o JOIN status_codes sc ON sc.id = o.status_id ` + where + `
          ORDER BY o.created_at DESC, o.id DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
