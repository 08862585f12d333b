package model

// TicketType prices the seats of one section for one concert.
type TicketType struct {
	ID        uint64 `json:"id"`         // ticket_types.id
	ConcertID uint64 `json:"concert_id"` // ticket_types.concert_id
	SectionID uint64 `json:"section_id"` // ticket_types.section_id
	Name      string `json:"name"`       // ticket_types.name
	Price     int64  `json:"price"`      // ticket_types.price
}

// Ticket is the redeemable proof of purchase for one seat.  Code is
// globally unique and printed as a QR code.
//
// Fields:
//
//	ID           – primary key identifier.
//	OrderID      – order the ticket was issued for.
//	TicketTypeID – price category of the seat.
//	SeatID       – physical seat the ticket admits to.
//	Code         – unique redemption code.
//	StatusID     – reference into the ticket status domain.
//	SeatLabel    – printed seat label, joined from seats.
//	SectionID    – section of the seat, joined from seats.
type Ticket struct {
	ID           uint64 `json:"id"`             // tickets.id
	OrderID      uint64 `json:"order_id"`       // tickets.order_id
	TicketTypeID uint64 `json:"ticket_type_id"` // tickets.ticket_type_id
	SeatID       uint64 `json:"seat_id"`        // tickets.seat_id
	Code         string `json:"code"`           // tickets.code
	StatusID     uint64 `json:"-"`              // tickets.status_id
	SeatLabel    string `json:"seat_label"`
	SectionID    uint64 `json:"section_id"`
}
