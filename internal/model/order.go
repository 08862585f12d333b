package model

import "time"

// Order is the purchase created from a reservation.  It is pending until
// payment is confirmed, at which point tickets are issued.
//
// Fields:
//
//	ID            – primary key identifier.
//	UserID        – buyer.
//	ConcertID     – concert being purchased.
//	ReservationID – reservation the order was created from.
//	StatusID      – reference into the order status domain.
//	Status        – label resolved from StatusID.
//	Total         – price * quantity in the smallest currency unit.
//	CreatedAt     – creation timestamp.
//	UpdatedAt     – last update timestamp.
type Order struct {
	ID            uint64      `json:"id"`             // orders.id
	UserID        uint64      `json:"user_id"`        // orders.user_id
	ConcertID     uint64      `json:"concert_id"`     // orders.concert_id
	ReservationID uint64      `json:"reservation_id"` // orders.reservation_id
	StatusID      uint64      `json:"-"`              // orders.status_id
	Status        OrderStatus `json:"status"`         // status_codes.label
	Total         int64       `json:"total"`          // orders.total
	CreatedAt     time.Time   `json:"created_at"`     // orders.created_at
	UpdatedAt     time.Time   `json:"updated_at"`     // orders.updated_at
}

// OrderItem is the single priced line of an order.  TicketTypeName and
// TicketTypePrice are joined from ticket_types on reads; the price there
// may have changed since UnitPrice was charged.
type OrderItem struct {
	ID              uint64 `json:"id"`                // order_items.id
	OrderID         uint64 `json:"order_id"`          // order_items.order_id
	TicketTypeID    uint64 `json:"ticket_type_id"`    // order_items.ticket_type_id
	Quantity        int    `json:"quantity"`          // order_items.quantity
	UnitPrice       int64  `json:"unit_price"`        // order_items.unit_price
	TicketTypeName  string `json:"ticket_type_name"`  // ticket_types.name
	TicketTypePrice int64  `json:"ticket_type_price"` // ticket_types.price
}

// OrderSeat records one physical seat bought by an order.
type OrderSeat struct {
	ID            uint64 `json:"id"`              // order_seats.id
	OrderID       uint64 `json:"order_id"`        // order_seats.order_id
	SeatID        uint64 `json:"seat_id"`         // order_seats.seat_id
	ConcertSeatID uint64 `json:"concert_seat_id"` // order_seats.concert_seat_id
	SectionID     uint64 `json:"section_id"`      // seats.section_id
	Label         string `json:"seat_label"`      // seats.row_label + seats.seat_number
}
