package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/concert-order-service/internal/model"
)

// TicketTypeRepo reads the per-section price list of a concert.
type TicketTypeRepo struct {
	db *sql.DB
}

// NewTicketTypeRepo constructs a TicketTypeRepo with the given DB handle.
func NewTicketTypeRepo(db *sql.DB) *TicketTypeRepo { return &TicketTypeRepo{db: db} }

// GetByConcertAndSection returns the ticket type that prices sectionID for
// concertID, or ErrNotFound.
func (r *TicketTypeRepo) GetByConcertAndSection(ctx context.Context, concertID, sectionID uint64) (*model.TicketType, error) {
	const q = `SELECT id, concert_id, section_id, name, price
               FROM ticket_types WHERE concert_id = ? AND section_id = ?`
	var tt model.TicketType
	err := r.db.QueryRowContext(ctx, q, concertID, sectionID).Scan(
		&tt.ID, &tt.ConcertID, &tt.SectionID, &tt.Name, &tt.Price,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tt, nil
}
