package model

import "time"

// Payment records the captured amount for an order.  There is at most one
// payment per order.
type Payment struct {
	ID        uint64        `json:"id"`         // payments.id
	OrderID   uint64        `json:"order_id"`   // payments.order_id
	Provider  string        `json:"provider"`   // payments.provider
	Amount    int64         `json:"amount"`     // payments.amount
	StatusID  uint64        `json:"-"`          // payments.status_id
	Status    PaymentStatus `json:"status"`     // status_codes.label
	CreatedAt time.Time     `json:"created_at"` // payments.created_at
}
