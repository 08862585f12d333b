package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/concert-order-service/internal/model"
	"github.com/iliyamo/concert-order-service/internal/repository"
	"github.com/iliyamo/concert-order-service/internal/testdb"
)

// seedOrder inserts a pending order over n fresh seats and returns it with
// its seats.
func seedOrder(t *testing.T, db *sql.DB, n int) (*model.Order, testdb.Seats, uint64) {
	t.Helper()
	ctx := context.Background()
	ttID := testdb.AddTicketType(t, db, 1, 1, "General", 50)
	seats := testdb.AddSeats(t, db, 1, 1, n, model.SeatInCart)
	resID := testdb.AddReservation(t, db, 9, 1, model.ReservationConfirmed, time.Now().Add(time.Hour), seats)
	pending := testdb.StatusID(t, db, model.OrderPending)

	repo := repository.NewOrderRepo(db)
	o := &model.Order{UserID: 9, ConcertID: 1, ReservationID: resID, StatusID: pending, Total: 50 * int64(n)}
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, repo.CreateTx(ctx, tx, o))
	require.NoError(t, tx.Commit())
	return o, seats, ttID
}

func TestTicketRepo_DuplicateCode(t *testing.T) {
	db := testdb.Open(t)
	repo := repository.NewTicketRepo(db)
	ctx := context.Background()
	o, seats, ttID := seedOrder(t, db, 2)
	issued := testdb.StatusID(t, db, model.TicketIssued)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	first := &model.Ticket{OrderID: o.ID, TicketTypeID: ttID, SeatID: seats.SeatIDs[0], Code: "TKT-SAME", StatusID: issued}
	require.NoError(t, repo.CreateTx(ctx, tx, first))
	assert.NotZero(t, first.ID)

	dup := &model.Ticket{OrderID: o.ID, TicketTypeID: ttID, SeatID: seats.SeatIDs[1], Code: "TKT-SAME", StatusID: issued}
	assert.ErrorIs(t, repo.CreateTx(ctx, tx, dup), repository.ErrDuplicateCode)

	// the failed statement does not poison the transaction
	dup.Code = "TKT-OTHER"
	require.NoError(t, repo.CreateTx(ctx, tx, dup))
	require.NoError(t, tx.Commit())

	tickets, err := repo.ListByOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, "TKT-SAME", tickets[0].Code)
	assert.Equal(t, "A2", tickets[1].SeatLabel)
}

func TestPaymentRepo_OnePerOrder(t *testing.T) {
	db := testdb.Open(t)
	repo := repository.NewPaymentRepo(db)
	ctx := context.Background()
	o, _, _ := seedOrder(t, db, 1)
	captured := testdb.StatusID(t, db, model.PaymentCaptured)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, repo.CreateTx(ctx, tx, &model.Payment{OrderID: o.ID, Provider: "mock", Amount: o.Total, StatusID: captured}))
	assert.ErrorIs(t, repo.CreateTx(ctx, tx, &model.Payment{OrderID: o.ID, Provider: "mock", Amount: 1, StatusID: captured}), repository.ErrConflict)
	require.NoError(t, tx.Commit())

	p, err := repo.GetByOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.Total, p.Amount)
	assert.Equal(t, model.PaymentCaptured, p.Status)

	_, err = repo.GetByOrder(ctx, o.ID+1)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestOrderRepo_TransitionAndList(t *testing.T) {
	db := testdb.Open(t)
	repo := repository.NewOrderRepo(db)
	ctx := context.Background()
	o, _, _ := seedOrder(t, db, 1)
	pending := testdb.StatusID(t, db, model.OrderPending)
	confirmed := testdb.StatusID(t, db, model.OrderConfirmed)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, repo.TransitionTx(ctx, tx, o.ID, pending, confirmed))
	assert.ErrorIs(t, repo.TransitionTx(ctx, tx, o.ID, pending, confirmed), repository.ErrConflict)
	require.NoError(t, tx.Commit())

	got, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderConfirmed, got.Status)

	list, err := repo.ListByConcertInStatus(ctx, 1, confirmed)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, o.ID, list[0].ID)

	mine, err := repo.ListByUser(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, mine)

	_, err = repo.GetByID(ctx, 12345)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
