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

// ConfirmOrder pays the pending order orderID of userID.  In one
// transaction the order moves pending -> confirmed, its seats move
// in_cart -> occupied, one ticket is issued per seat and a captured mock
// payment for the order total is recorded.  After commit the order's
// claims in "carrito" are released and a payment notification is queued.
func (e *Engine) ConfirmOrder(ctx context.Context, orderID, userID uint64) (res *ConfirmResult, err error) {
	ctx, span := e.tracer.Start(ctx, "order.ConfirmOrder", trace.WithAttributes(
		attribute.Int64("order.id", int64(orderID)),
		attribute.Int64("user.id", int64(userID)),
	))
	defer func() { e.finish(span, "confirm", err) }()

	if orderID == 0 || userID == 0 {
		return nil, validationError("user and order are required")
	}
	st, err := e.statusIDs(ctx)
	if err != nil {
		return nil, err
	}

	o, err := e.orders.GetByID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFoundError("order not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "error confirming order: load order")
	}
	if o.UserID != userID {
		return nil, forbiddenError("order belongs to another user")
	}
	if o.StatusID != st.orderPending {
		return nil, conflictError("order already processed")
	}
	seats, err := e.orders.Seats(ctx, o.ID)
	if err != nil {
		return nil, errors.Wrap(err, "error confirming order: load seats")
	}
	items, err := e.orders.Items(ctx, o.ID)
	if err != nil {
		return nil, errors.Wrap(err, "error confirming order: load items")
	}
	if len(seats) == 0 || len(items) == 0 {
		return nil, errors.Errorf("error confirming order: order %d has no seats or items", o.ID)
	}
	concertSeatIDs := make([]uint64, 0, len(seats))
	for _, s := range seats {
		concertSeatIDs = append(concertSeatIDs, s.ConcertSeatID)
	}

	tickets := make([]model.Ticket, 0, len(seats))
	payment := model.Payment{
		OrderID:  o.ID,
		Provider: "mock",
		Amount:   o.Total,
		StatusID: st.paymentCaptured,
		Status:   model.PaymentCaptured,
	}
	err = e.inTx(ctx, func(tx *sql.Tx) error {
		err := e.orders.TransitionTx(ctx, tx, o.ID, st.orderPending, st.orderConfirmed)
		if errors.Is(err, repository.ErrConflict) {
			return conflictError("order already processed")
		}
		if err != nil {
			return errors.Wrap(err, "confirm order")
		}
		n, err := e.seats.TransitionTx(ctx, tx, concertSeatIDs, []uint64{st.seatInCart}, st.seatOccupied)
		if err != nil {
			return errors.Wrap(err, "occupy seats")
		}
		if n != int64(len(concertSeatIDs)) {
			return conflictError("seat no longer available", concertSeatIDs...)
		}
		for i, s := range seats {
			t := model.Ticket{
				OrderID:      o.ID,
				TicketTypeID: items[0].TicketTypeID,
				SeatID:       s.SeatID,
				StatusID:     st.ticketIssued,
				SeatLabel:    s.Label,
				SectionID:    s.SectionID,
			}
			if err := e.issueTicket(ctx, tx, &t, i+1); err != nil {
				return err
			}
			tickets = append(tickets, t)
		}
		err = e.payments.CreateTx(ctx, tx, &payment)
		if errors.Is(err, repository.ErrConflict) {
			return conflictError("order already paid")
		}
		if err != nil {
			return errors.Wrap(err, "insert payment")
		}
		return nil
	})
	if err != nil {
		return nil, wrap(err, "error confirming order")
	}
	o.StatusID = st.orderConfirmed
	o.Status = model.OrderConfirmed

	e.metrics.OrdersConfirmed.Inc()
	logger.Ctx(ctx).Info().
		Uint64("order_id", o.ID).
		Uint64("user_id", userID).
		Int("tickets", len(tickets)).
		Int64("amount", payment.Amount).
		Msg("order confirmed")

	codes := make([]string, 0, len(tickets))
	out := &ConfirmResult{
		Message: "payment captured, tickets issued",
		Order:   *o,
		Tickets: make([]TicketSummary, 0, len(tickets)),
		Payment: PaymentSummary{ID: payment.ID, Provider: payment.Provider, Amount: payment.Amount, Status: payment.Status},
	}
	for _, t := range tickets {
		codes = append(codes, t.Code)
		out.Tickets = append(out.Tickets, TicketSummary{ID: t.ID, Code: t.Code, SeatLabel: t.SeatLabel, SectionID: t.SectionID})
	}

	ev := queue.PaymentCompletedEvent{
		Action:           queue.ActionPaymentCompleted,
		OrderID:          o.ID,
		UserID:           o.UserID,
		ConcertID:        o.ConcertID,
		Total:            o.Total,
		TicketsGenerated: len(tickets),
		TicketCodes:      codes,
		Timestamp:        e.now().UTC(),
	}
	e.side.dispatch(ctx, "confirm", o.ID,
		sideEffect{queue: queue.Cart, step: "release", run: func(ctx context.Context) error {
			_, err := e.gate.ReleaseClaim(ctx, queue.Cart, concertSeatIDs, o.ID)
			return err
		}},
		sideEffect{queue: queue.Notifications, step: "publish", run: func(ctx context.Context) error {
			return e.gate.PublishClaim(ctx, queue.Notifications, ev)
		}},
	)
	return out, nil
}

// issueTicket inserts t with a fresh code, regenerating the code when it
// collides with an existing one.  After TicketCodeAttempts collisions a
// retryable conflict is returned and the transaction must be abandoned.
func (e *Engine) issueTicket(ctx context.Context, tx *sql.Tx, t *model.Ticket, seq int) error {
	for attempt := 1; ; attempt++ {
		code, err := e.codes(t.OrderID, seq)
		if err != nil {
			return errors.Wrap(err, "generate ticket code")
		}
		t.Code = code
		err = e.tickets.CreateTx(ctx, tx, t)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicateCode) {
			return errors.Wrap(err, "insert ticket")
		}
		e.metrics.CodeCollisions.Inc()
		logger.Ctx(ctx).Debug().Uint64("order_id", t.OrderID).Int("attempt", attempt).Msg("ticket code collision")
		if attempt >= e.cfg.TicketCodeAttempts {
			ce := conflictError("could not allocate a unique ticket code")
			ce.Retryable = true
			return ce
		}
	}
}
