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

func TestStatusRepo_Resolve(t *testing.T) {
	db := testdb.Open(t)
	repo := repository.NewStatusRepo(db)
	ctx := context.Background()

	sc, err := repo.Resolve(ctx, model.DomainSeat, "in_cart")
	require.NoError(t, err)
	assert.Equal(t, testdb.StatusID(t, db, model.SeatInCart), sc.ID)
	assert.Equal(t, model.DomainSeat, sc.Domain)

	// same label in two domains resolves to two codes
	orderConfirmed, err := repo.ID(ctx, model.OrderConfirmed)
	require.NoError(t, err)
	resConfirmed, err := repo.ID(ctx, model.ReservationConfirmed)
	require.NoError(t, err)
	assert.NotEqual(t, orderConfirmed, resConfirmed)
}

func TestStatusRepo_ResolveUnknown(t *testing.T) {
	repo := repository.NewStatusRepo(testdb.Open(t))

	_, err := repo.Resolve(context.Background(), model.DomainOrder, "refunded")
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStatusRepo_CachesResolvedCodes(t *testing.T) {
	db := testdb.Open(t)
	repo := repository.NewStatusRepo(db)
	ctx := context.Background()

	id, err := repo.ID(ctx, model.OrderPending)
	require.NoError(t, err)

	// the registry is immutable, so a cached code survives the row going away
	_, err = db.Exec(`DELETE FROM status_codes WHERE id = ?`, id)
	require.NoError(t, err)

	again, err := repo.ID(ctx, model.OrderPending)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	sc, ok := repo.Label(id)
	require.True(t, ok)
	assert.Equal(t, "pending", sc.Label)
}

func TestStatusRepo_Preload(t *testing.T) {
	db := testdb.Open(t)
	repo := repository.NewStatusRepo(db)
	require.NoError(t, repo.Preload(context.Background()))

	for _, s := range model.AllStatuses() {
		id := testdb.StatusID(t, db, s)
		sc, ok := repo.Label(id)
		require.True(t, ok, s.Key().String())
		assert.Equal(t, s.Key().Label, sc.Label)
	}
}

func TestStatusRepo_PreloadMissingState(t *testing.T) {
	db := testdb.Open(t)
	_, err := db.Exec(`DELETE FROM status_codes WHERE domain = 'payment'`)
	require.NoError(t, err)

	err = repository.NewStatusRepo(db).Preload(context.Background())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
