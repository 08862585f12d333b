// Package queue defines message payloads exchanged over the message broker
// with the sibling reservation and notification services, together with
// the RabbitMQ publisher and the notifications consumer.
package queue

import "time"

// Queue names shared with the other ticketing services.  Each queue is also
// a claim namespace in the seat claim registry.
const (
	Reservations  = "reserva"
	Cart          = "carrito"
	Notifications = "notifications"
)

// Message actions.
const (
	ActionOrderCreated     = "ORDER_CREATED"
	ActionPaymentCompleted = "PAYMENT_COMPLETED"
)

// Event is a message published through the claim gate.  Seats returned by
// ClaimedSeats are recorded as claimed by ClaimOwner in the target queue's
// namespace before the message is published; events without seats are
// only published.
type Event interface {
	EventAction() string
	ClaimOwner() uint64
	ClaimedSeats() []uint64
}

// OrderCreatedEvent is published to the cart queue when a reservation has
// been turned into a pending order.  The concert seats stay claimed by the
// order until it is confirmed or the claim expires at ExpiresAt.  Field
// names follow the camelCase wire format the sibling services use.
type OrderCreatedEvent struct {
	Action         string    `json:"action"`
	OrderID        uint64    `json:"orderId"`
	UserID         uint64    `json:"userId"`
	ConcertID      uint64    `json:"concertId"`
	ReservationID  uint64    `json:"reservationId"`
	TicketTypeID   uint64    `json:"ticketTypeId"`
	Quantity       int       `json:"quantity"`
	Total          int64     `json:"total"`
	SeatIDs        []uint64  `json:"seatIds"`
	ConcertSeatIDs []uint64  `json:"concertSeatIds"`
	SectionID      uint64    `json:"sectionId"`
	ExpiresAt      time.Time `json:"expiresAt"`
	Timestamp      time.Time `json:"timestamp"`
}

func (e OrderCreatedEvent) EventAction() string    { return ActionOrderCreated }
func (e OrderCreatedEvent) ClaimOwner() uint64     { return e.OrderID }
func (e OrderCreatedEvent) ClaimedSeats() []uint64 { return e.ConcertSeatIDs }

// PaymentCompletedEvent is published to the notifications queue once an
// order is paid and its tickets are issued.
type PaymentCompletedEvent struct {
	Action           string    `json:"action"`
	OrderID          uint64    `json:"orderId"`
	UserID           uint64    `json:"userId"`
	ConcertID        uint64    `json:"concertId"`
	Total            int64     `json:"total"`
	TicketsGenerated int       `json:"ticketsGenerated"`
	TicketCodes      []string  `json:"ticketCodes"`
	Timestamp        time.Time `json:"timestamp"`
}

func (e PaymentCompletedEvent) EventAction() string    { return ActionPaymentCompleted }
func (e PaymentCompletedEvent) ClaimOwner() uint64     { return e.OrderID }
func (e PaymentCompletedEvent) ClaimedSeats() []uint64 { return nil }
