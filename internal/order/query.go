package order

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/iliyamo/concert-order-service/internal/model"
	"github.com/iliyamo/concert-order-service/internal/repository"
)

// GetOrderByID returns the full view of an order.  Only its owner or an
// admin may see it; anyone else gets the same NotFound as for a missing
// order.
func (e *Engine) GetOrderByID(ctx context.Context, orderID, userID uint64, isAdmin bool) (view *OrderView, err error) {
	ctx, span := e.tracer.Start(ctx, "order.GetOrderByID", trace.WithAttributes(attribute.Int64("order.id", int64(orderID))))
	defer func() { e.finish(span, "get", err) }()

	o, err := e.orders.GetByID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFoundError("order not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "error loading order")
	}
	if !isAdmin && o.UserID != userID {
		return nil, notFoundError("order not found")
	}

	view = &OrderView{Order: *o}
	if view.Items, err = e.orders.Items(ctx, o.ID); err != nil {
		return nil, errors.Wrap(err, "error loading order items")
	}
	if view.Seats, err = e.orders.Seats(ctx, o.ID); err != nil {
		return nil, errors.Wrap(err, "error loading order seats")
	}
	if view.Tickets, err = e.tickets.ListByOrder(ctx, o.ID); err != nil {
		return nil, errors.Wrap(err, "error loading tickets")
	}
	p, err := e.payments.GetByOrder(ctx, o.ID)
	switch {
	case err == nil:
		view.Payment = p
	case !errors.Is(err, repository.ErrNotFound):
		return nil, errors.Wrap(err, "error loading payment")
	}
	return view, nil
}

// GetUserOrders returns the orders of userID with their items, newest
// first.
func (e *Engine) GetUserOrders(ctx context.Context, userID uint64) (orders []OrderSummary, err error) {
	ctx, span := e.tracer.Start(ctx, "order.GetUserOrders", trace.WithAttributes(attribute.Int64("user.id", int64(userID))))
	defer func() { e.finish(span, "list_user", err) }()

	rows, err := e.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "error listing user orders")
	}
	return e.withItems(ctx, rows)
}

// GetAllOrders returns every order with its items, newest first.
func (e *Engine) GetAllOrders(ctx context.Context) (orders []OrderSummary, err error) {
	ctx, span := e.tracer.Start(ctx, "order.GetAllOrders")
	defer func() { e.finish(span, "list_all", err) }()

	rows, err := e.orders.ListAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "error listing orders")
	}
	return e.withItems(ctx, rows)
}

// GetSalesByConcert aggregates the confirmed orders of concertID.
func (e *Engine) GetSalesByConcert(ctx context.Context, concertID uint64) (rep *SalesReport, err error) {
	ctx, span := e.tracer.Start(ctx, "order.GetSalesByConcert", trace.WithAttributes(attribute.Int64("concert.id", int64(concertID))))
	defer func() { e.finish(span, "sales", err) }()

	confirmed, err := e.statuses.ID(ctx, model.OrderConfirmed)
	if err != nil {
		return nil, errors.Wrap(err, "error resolving order status")
	}
	rows, err := e.orders.ListByConcertInStatus(ctx, concertID, confirmed)
	if err != nil {
		return nil, errors.Wrap(err, "error listing concert orders")
	}
	orders, err := e.withItems(ctx, rows)
	if err != nil {
		return nil, err
	}
	sold, err := e.tickets.CountForConcertInStatus(ctx, concertID, confirmed)
	if err != nil {
		return nil, errors.Wrap(err, "error counting tickets")
	}
	rep = &SalesReport{
		ConcertID:        concertID,
		TotalOrders:      len(orders),
		TotalTicketsSold: sold,
		Orders:           orders,
	}
	for _, o := range orders {
		rep.TotalRevenue += o.Total
	}
	return rep, nil
}

// withItems attaches the items of every order in rows.
func (e *Engine) withItems(ctx context.Context, rows []model.Order) ([]OrderSummary, error) {
	ids := make([]uint64, len(rows))
	for i, o := range rows {
		ids[i] = o.ID
	}
	items, err := e.orders.ItemsByOrders(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "error loading order items")
	}
	out := make([]OrderSummary, len(rows))
	for i, o := range rows {
		out[i] = OrderSummary{Order: o, Items: items[o.ID]}
	}
	return out, nil
}
