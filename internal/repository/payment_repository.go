package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/concert-order-service/internal/model"
)

// PaymentRepo persists payment records.  payments.order_id is unique so an
// order can never be paid twice.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// CreateTx inserts p inside tx and populates its ID and timestamp.  A
// second payment for the same order yields ErrConflict.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	now := time.Now().UTC()
	const q = `INSERT INTO payments (order_id, provider, amount, status_id, created_at) VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, p.OrderID, p.Provider, p.Amount, p.StatusID, now)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	p.CreatedAt = now
	return nil
}

// GetByOrder returns the payment of an order or ErrNotFound when the order
// has not been paid.
func (r *PaymentRepo) GetByOrder(ctx context.Context, orderID uint64) (*model.Payment, error) {
	const q = `SELECT p.id, p.order_id, p.provider, p.amount, p.status_id, sc.label, p.created_at
               FROM payments p JOIN status_codes sc ON sc.id = p.status_id
               WHERE p.order_id = ?`
	var p model.Payment
	var label string
	err := r.db.QueryRowContext(ctx, q, orderID).Scan(
		&p.ID, &p.OrderID, &p.Provider, &p.Amount, &p.StatusID, &label, &p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Status = model.PaymentStatus(label)
	return &p, nil
}
