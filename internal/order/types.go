package order

import "github.com/iliyamo/concert-order-service/internal/model"

// TicketTypeSummary is the price category an order was charged at.
type TicketTypeSummary struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// SeatSummary identifies one seat of an order.
type SeatSummary struct {
	SeatID        uint64 `json:"seat_id"`
	ConcertSeatID uint64 `json:"concert_seat_id"`
	SectionID     uint64 `json:"section_id"`
	Label         string `json:"seat_label"`
}

// CreateResult is returned by CreateOrder.
type CreateResult struct {
	Message    string            `json:"message"`
	Order      model.Order       `json:"order"`
	Total      int64             `json:"total"`
	TicketType TicketTypeSummary `json:"ticket_type"`
	Seats      []SeatSummary     `json:"seats"`
}

// TicketSummary is an issued ticket as shown to its buyer.
type TicketSummary struct {
	ID        uint64 `json:"id"`
	Code      string `json:"code"`
	SeatLabel string `json:"seat_label"`
	SectionID uint64 `json:"section_id"`
}

// PaymentSummary is the captured payment of a confirmed order.
type PaymentSummary struct {
	ID       uint64              `json:"id"`
	Provider string              `json:"provider"`
	Amount   int64               `json:"amount"`
	Status   model.PaymentStatus `json:"status"`
}

// ConfirmResult is returned by ConfirmOrder.
type ConfirmResult struct {
	Message string          `json:"message"`
	Order   model.Order     `json:"order"`
	Tickets []TicketSummary `json:"tickets"`
	Payment PaymentSummary  `json:"payment"`
}

// OrderView is the full projection of one order.
type OrderView struct {
	Order   model.Order       `json:"order"`
	Items   []model.OrderItem `json:"items"`
	Seats   []model.OrderSeat `json:"seats"`
	Tickets []model.Ticket    `json:"tickets"`
	Payment *model.Payment    `json:"payment,omitempty"`
}

// OrderSummary is an order as listed: its own columns plus its items.
type OrderSummary struct {
	model.Order
	Items []model.OrderItem `json:"items"`
}

// SalesReport aggregates the confirmed orders of one concert.
type SalesReport struct {
	ConcertID        uint64         `json:"concert_id"`
	TotalOrders      int            `json:"total_orders"`
	TotalTicketsSold int64          `json:"total_tickets_sold"`
	TotalRevenue     int64          `json:"total_revenue"`
	Orders           []OrderSummary `json:"orders"`
}
