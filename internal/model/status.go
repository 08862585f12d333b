package model

// Domain names a family of status labels stored in the status_codes table.
// Every entity that carries a status_id column points into exactly one
// domain.
type Domain string

const (
	DomainOrder       Domain = "order"
	DomainSeat        Domain = "seat"
	DomainReservation Domain = "reservation"
	DomainTicket      Domain = "ticket"
	DomainPayment     Domain = "payment"
)

// StatusKey is the natural key of a status_codes row.
type StatusKey struct {
	Domain Domain
	Label  string
}

func (k StatusKey) String() string { return string(k.Domain) + "/" + k.Label }

// Status is implemented by the closed per-domain enums below so that code
// asking the registry for an id can only name a state that exists.
type Status interface {
	Key() StatusKey
}

// StatusCode mirrors a row of the status_codes table.
//
// Fields:
//
//	ID     – primary key referenced by the status_id columns.
//	Domain – the family the label belongs to.
//	Label  – the state name, unique within its domain.
type StatusCode struct {
	ID     uint64 // status_codes.id
	Domain Domain // status_codes.domain
	Label  string // status_codes.label
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
)

func (s OrderStatus) Key() StatusKey { return StatusKey{DomainOrder, string(s)} }

// SeatStatus is the availability state of a concert seat.
type SeatStatus string

const (
	SeatFree     SeatStatus = "free"
	SeatHeld     SeatStatus = "held"
	SeatInCart   SeatStatus = "in_cart"
	SeatOccupied SeatStatus = "occupied"
)

func (s SeatStatus) Key() StatusKey { return StatusKey{DomainSeat, string(s)} }

// ReservationStatus is the state of a reservation produced by the
// reservation service.
type ReservationStatus string

const (
	ReservationHeld      ReservationStatus = "held"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationExpired   ReservationStatus = "expired"
)

func (s ReservationStatus) Key() StatusKey { return StatusKey{DomainReservation, string(s)} }

// TicketStatus is the state of an issued ticket.
type TicketStatus string

const TicketIssued TicketStatus = "issued"

func (s TicketStatus) Key() StatusKey { return StatusKey{DomainTicket, string(s)} }

// PaymentStatus is the state of a payment record.
type PaymentStatus string

const PaymentCaptured PaymentStatus = "captured"

func (s PaymentStatus) Key() StatusKey { return StatusKey{DomainPayment, string(s)} }

// AllStatuses lists every state the service knows about. It is used to warm
// the registry cache at startup and to seed test databases.
func AllStatuses() []Status {
	return []Status{
		OrderPending, OrderConfirmed,
		SeatFree, SeatHeld, SeatInCart, SeatOccupied,
		ReservationHeld, ReservationConfirmed, ReservationExpired,
		TicketIssued,
		PaymentCaptured,
	}
}
