package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/concert-order-service/internal/model"
	"github.com/iliyamo/concert-order-service/internal/repository"
	"github.com/iliyamo/concert-order-service/internal/testdb"
)

func TestConcertSeatRepo_TransitionTx(t *testing.T) {
	db := testdb.Open(t)
	repo := repository.NewConcertSeatRepo(db)
	ctx := context.Background()

	held := testdb.StatusID(t, db, model.SeatHeld)
	inCart := testdb.StatusID(t, db, model.SeatInCart)

	seats := testdb.AddSeats(t, db, 1, 10, 2, model.SeatHeld)
	other := testdb.AddSeats(t, db, 1, 10, 1, model.SeatOccupied)
	ids := append(append([]uint64{}, seats.ConcertSeatIDs...), other.ConcertSeatIDs...)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	n, err := repo.TransitionTx(ctx, tx, ids, []uint64{held}, inCart)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	// the occupied seat is filtered out by the allowed-from set
	assert.Equal(t, int64(2), n)
	assert.Equal(t, []string{"in_cart", "in_cart", "occupied"}, testdb.SeatLabels(t, db, ids))
}

func TestConcertSeatRepo_TransitionTxDuplicatesAndEmpty(t *testing.T) {
	db := testdb.Open(t)
	repo := repository.NewConcertSeatRepo(db)
	ctx := context.Background()
	occupied := testdb.StatusID(t, db, model.SeatOccupied)
	seats := testdb.AddSeats(t, db, 1, 10, 1, model.SeatInCart)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	n, err := repo.TransitionTx(ctx, tx, nil, nil, occupied)
	require.NoError(t, err)
	assert.Zero(t, n)

	id := seats.ConcertSeatIDs[0]
	n, err = repo.TransitionTx(ctx, tx, []uint64{id, id, id}, nil, occupied)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.StatusesTx(ctx, tx, []uint64{id, 9999})
	require.NoError(t, err)
	assert.Equal(t, map[uint64]uint64{id: occupied}, got)
}

func TestConcertSeatRepo_RollbackLeavesSeatsUntouched(t *testing.T) {
	db := testdb.Open(t)
	repo := repository.NewConcertSeatRepo(db)
	ctx := context.Background()
	seats := testdb.AddSeats(t, db, 1, 10, 2, model.SeatHeld)
	inCart := testdb.StatusID(t, db, model.SeatInCart)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	_, err = repo.TransitionTx(ctx, tx, seats.ConcertSeatIDs, nil, inCart)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	got, err := repo.Statuses(ctx, seats.ConcertSeatIDs)
	require.NoError(t, err)
	held := testdb.StatusID(t, db, model.SeatHeld)
	for _, id := range seats.ConcertSeatIDs {
		assert.Equal(t, held, got[id])
	}
}
