package order

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/concert-order-service/internal/model"
	"github.com/iliyamo/concert-order-service/internal/testdb"
)

func TestGetOrderByID(t *testing.T) {
	h := newHarness(t)
	testdb.AddTicketType(t, h.db, testConcert, testSection, "Floor", 50)
	created, _ := h.pendingOrder(t, testUser, 2)
	id := created.Order.ID

	view, err := h.engine.GetOrderByID(context.Background(), id, testUser, false)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, view.Order.Status)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Quantity)
	assert.Equal(t, "Floor", view.Items[0].TicketTypeName)
	require.Len(t, view.Seats, 2)
	assert.Equal(t, "A1", view.Seats[0].Label)
	assert.Empty(t, view.Tickets)
	assert.Nil(t, view.Payment)

	_, err = h.engine.ConfirmOrder(context.Background(), id, testUser)
	require.NoError(t, err)

	view, err = h.engine.GetOrderByID(context.Background(), id, testUser+1, true)
	require.NoError(t, err)
	assert.Equal(t, model.OrderConfirmed, view.Order.Status)
	assert.Len(t, view.Tickets, 2)
	require.NotNil(t, view.Payment)
	assert.Equal(t, int64(100), view.Payment.Amount)

	_, err = h.engine.GetOrderByID(context.Background(), id, testUser+1, false)
	requireKind(t, err, KindNotFound)

	_, err = h.engine.GetOrderByID(context.Background(), id+100, testUser, false)
	requireKind(t, err, KindNotFound)
}

func TestGetUserOrders(t *testing.T) {
	h := newHarness(t)
	testdb.AddTicketType(t, h.db, testConcert, testSection, "Floor", 50)
	first, _ := h.pendingOrder(t, testUser, 1)
	second, _ := h.pendingOrder(t, testUser, 1)
	other, _ := h.pendingOrder(t, testUser+1, 1)

	orders, err := h.engine.GetUserOrders(context.Background(), testUser)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.Order.ID, orders[0].ID)
	assert.Equal(t, first.Order.ID, orders[1].ID)
	for _, o := range orders {
		require.Len(t, o.Items, 1)
		assert.Equal(t, o.ID, o.Items[0].OrderID)
		assert.Equal(t, 1, o.Items[0].Quantity)
		assert.Equal(t, int64(50), o.Items[0].UnitPrice)
		assert.Equal(t, "Floor", o.Items[0].TicketTypeName)
		assert.Equal(t, int64(50), o.Items[0].TicketTypePrice)
	}

	orders, err = h.engine.GetUserOrders(context.Background(), 999)
	require.NoError(t, err)
	assert.Empty(t, orders)

	all, err := h.engine.GetAllOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, other.Order.ID, all[0].ID)
	require.Len(t, all[0].Items, 1)
}

func TestGetSalesByConcert(t *testing.T) {
	h := newHarness(t)
	testdb.AddTicketType(t, h.db, testConcert, testSection, "Floor", 50)
	paid, _ := h.pendingOrder(t, testUser, 3)
	h.pendingOrder(t, testUser+1, 2)

	_, err := h.engine.ConfirmOrder(context.Background(), paid.Order.ID, testUser)
	require.NoError(t, err)

	rep, err := h.engine.GetSalesByConcert(context.Background(), testConcert)
	require.NoError(t, err)
	assert.Equal(t, testConcert, rep.ConcertID)
	assert.Equal(t, 1, rep.TotalOrders)
	assert.Equal(t, int64(3), rep.TotalTicketsSold)
	assert.Equal(t, int64(150), rep.TotalRevenue)
	require.Len(t, rep.Orders, 1)
	assert.Equal(t, paid.Order.ID, rep.Orders[0].ID)
	require.Len(t, rep.Orders[0].Items, 1)
	assert.Equal(t, 3, rep.Orders[0].Items[0].Quantity)
	assert.Equal(t, "Floor", rep.Orders[0].Items[0].TicketTypeName)

	rep, err = h.engine.GetSalesByConcert(context.Background(), testConcert+1)
	require.NoError(t, err)
	assert.Zero(t, rep.TotalOrders)
	assert.Zero(t, rep.TotalRevenue)
}
