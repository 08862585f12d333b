package order

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/iliyamo/concert-order-service/internal/logger"
	"github.com/iliyamo/concert-order-service/internal/model"
	"github.com/iliyamo/concert-order-service/internal/queue"
	"github.com/iliyamo/concert-order-service/internal/repository"
)

// CreateOrder converts the held reservation reservationID of userID into a
// pending order.  Seats move held -> in_cart and the reservation moves
// held -> confirmed in the same transaction as the order insert.  After
// commit the reservation's claims in the "reserva" namespace are released
// and the seats are claimed for the order in "carrito".
func (e *Engine) CreateOrder(ctx context.Context, userID, reservationID uint64) (res *CreateResult, err error) {
	ctx, span := e.tracer.Start(ctx, "order.CreateOrder", trace.WithAttributes(
		attribute.Int64("user.id", int64(userID)),
		attribute.Int64("reservation.id", int64(reservationID)),
	))
	defer func() { e.finish(span, "create", err) }()

	if userID == 0 || reservationID == 0 {
		return nil, validationError("user and reservation are required")
	}
	st, err := e.statusIDs(ctx)
	if err != nil {
		return nil, err
	}

	resv, err := e.reservations.GetForUserInStatus(ctx, reservationID, userID, st.reservationHeld)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFoundError("reservation not found or no longer active")
	}
	if err != nil {
		return nil, errors.Wrap(err, "error creating order: load reservation")
	}
	if resv.Expired(e.now()) {
		return nil, expiredError("reservation expired")
	}
	if len(resv.Seats) == 0 {
		return nil, validationError("reservation has no seats")
	}
	sectionID := resv.Seats[0].SectionID
	for _, s := range resv.Seats[1:] {
		if s.SectionID != sectionID {
			return nil, validationError("reservation spans more than one section")
		}
	}

	tt, err := e.ticketTypes.GetByConcertAndSection(ctx, resv.ConcertID, sectionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFoundError("no ticket type for the reserved section")
	}
	if err != nil {
		return nil, errors.Wrap(err, "error creating order: load ticket type")
	}
	qty := len(resv.Seats)
	total := tt.Price * int64(qty)
	concertSeatIDs := resv.ConcertSeatIDs()

	check, err := e.gate.CheckClaims(ctx, queue.Cart, concertSeatIDs)
	if err != nil {
		return nil, dependencyError("seat claim registry unavailable", err)
	}
	if !check.CanProceed {
		return nil, conflictError("seats already claimed by another order", check.Conflicting...)
	}

	o := model.Order{
		UserID:        userID,
		ConcertID:     resv.ConcertID,
		ReservationID: resv.ID,
		StatusID:      st.orderPending,
		Status:        model.OrderPending,
		Total:         total,
	}
	err = e.inTx(ctx, func(tx *sql.Tx) error {
		if err := e.orders.CreateTx(ctx, tx, &o); err != nil {
			return errors.Wrap(err, "insert order")
		}
		item := model.OrderItem{OrderID: o.ID, TicketTypeID: tt.ID, Quantity: qty, UnitPrice: tt.Price}
		if err := e.orders.CreateItemTx(ctx, tx, &item); err != nil {
			return errors.Wrap(err, "insert order item")
		}
		seats := make([]model.OrderSeat, 0, qty)
		for _, s := range resv.Seats {
			seats = append(seats, model.OrderSeat{OrderID: o.ID, SeatID: s.SeatID, ConcertSeatID: s.ConcertSeatID})
		}
		if err := e.orders.CreateSeatsBulkTx(ctx, tx, seats); err != nil {
			return errors.Wrap(err, "insert order seats")
		}
		n, err := e.seats.TransitionTx(ctx, tx, concertSeatIDs, []uint64{st.seatHeld}, st.seatInCart)
		if err != nil {
			return errors.Wrap(err, "move seats to cart")
		}
		if n != int64(qty) {
			return conflictError("seat no longer available", concertSeatIDs...)
		}
		err = e.reservations.TransitionTx(ctx, tx, resv.ID, st.reservationHeld, st.reservationConfirmed)
		if errors.Is(err, repository.ErrConflict) {
			return conflictError("reservation already used")
		}
		if err != nil {
			return errors.Wrap(err, "confirm reservation")
		}
		return nil
	})
	if err != nil {
		return nil, wrap(err, "error creating order")
	}

	e.metrics.OrdersCreated.Inc()
	logger.Ctx(ctx).Info().
		Uint64("order_id", o.ID).
		Uint64("user_id", userID).
		Uint64("reservation_id", resv.ID).
		Int("seats", qty).
		Int64("total", total).
		Msg("order created")

	now := e.now().UTC()
	ev := queue.OrderCreatedEvent{
		Action:         queue.ActionOrderCreated,
		OrderID:        o.ID,
		UserID:         userID,
		ConcertID:      resv.ConcertID,
		ReservationID:  resv.ID,
		TicketTypeID:   tt.ID,
		Quantity:       qty,
		Total:          total,
		SeatIDs:        resv.SeatIDs(),
		ConcertSeatIDs: concertSeatIDs,
		SectionID:      sectionID,
		ExpiresAt:      now.Add(e.cfg.CartClaimTTL),
		Timestamp:      now,
	}
	e.side.dispatch(ctx, "create", o.ID,
		sideEffect{queue: queue.Reservations, step: "release", run: func(ctx context.Context) error {
			_, err := e.gate.ReleaseClaim(ctx, queue.Reservations, concertSeatIDs, resv.ID)
			return err
		}},
		sideEffect{queue: queue.Cart, step: "claim", run: func(ctx context.Context) error {
			return e.gate.PublishClaim(ctx, queue.Cart, ev)
		}},
	)

	out := &CreateResult{
		Message:    "order created",
		Order:      o,
		Total:      total,
		TicketType: TicketTypeSummary{ID: tt.ID, Name: tt.Name, Price: tt.Price},
		Seats:      make([]SeatSummary, 0, qty),
	}
	for _, s := range resv.Seats {
		out.Seats = append(out.Seats, SeatSummary{
			SeatID:        s.SeatID,
			ConcertSeatID: s.ConcertSeatID,
			SectionID:     s.SectionID,
			Label:         s.Label(),
		})
	}
	return out, nil
}
