package order

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/concert-order-service/internal/gate"
	"github.com/iliyamo/concert-order-service/internal/metrics"
	"github.com/iliyamo/concert-order-service/internal/model"
	"github.com/iliyamo/concert-order-service/internal/queue"
	"github.com/iliyamo/concert-order-service/internal/repository"
	"github.com/iliyamo/concert-order-service/internal/testdb"
)

type releaseCall struct {
	queue string
	seats []uint64
	owner uint64
}

type publishCall struct {
	queue string
	ev    queue.Event
}

// fakeGate records gate traffic and can be told to report conflicts or
// fail.
type fakeGate struct {
	mu          sync.Mutex
	conflicting []uint64
	checkErr    error
	releaseErr  error
	publishErr  error
	checks      []string
	released    []releaseCall
	published   []publishCall
}

func (g *fakeGate) CheckClaims(_ context.Context, q string, _ []uint64) (gate.CheckResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.checks = append(g.checks, q)
	if g.checkErr != nil {
		return gate.CheckResult{}, g.checkErr
	}
	return gate.CheckResult{CanProceed: len(g.conflicting) == 0, Conflicting: g.conflicting}, nil
}

func (g *fakeGate) PublishClaim(_ context.Context, q string, ev queue.Event) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.publishErr != nil {
		return g.publishErr
	}
	g.published = append(g.published, publishCall{queue: q, ev: ev})
	return nil
}

func (g *fakeGate) ReleaseClaim(_ context.Context, q string, seats []uint64, owner uint64) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.releaseErr != nil {
		return 0, g.releaseErr
	}
	g.released = append(g.released, releaseCall{queue: q, seats: seats, owner: owner})
	return len(seats), nil
}

const (
	testUser    = uint64(7)
	testConcert = uint64(1)
	testSection = uint64(10)
)

type harness struct {
	db      *sql.DB
	engine  *Engine
	gate    *fakeGate
	metrics *metrics.Metrics
	now     time.Time
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		db:      testdb.Open(t),
		gate:    &fakeGate{},
		metrics: metrics.New(prometheus.NewRegistry()),
		now:     time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC),
	}
	opts = append([]Option{WithClock(func() time.Time { return h.now })}, opts...)
	h.engine = New(h.db, h.gate, h.metrics, Config{SideEffectBackoff: time.Millisecond}, opts...)
	require.NoError(t, h.engine.Preload(context.Background()))
	return h
}

// reservation seeds n held seats under a held reservation of userID that
// expires ten minutes after the harness clock.
func (h *harness) reservation(t *testing.T, userID uint64, n int) (uint64, testdb.Seats) {
	t.Helper()
	seats := testdb.AddSeats(t, h.db, testConcert, testSection, n, model.SeatHeld)
	id := testdb.AddReservation(t, h.db, userID, testConcert, model.ReservationHeld, h.now.Add(10*time.Minute), seats)
	return id, seats
}

func (h *harness) wait(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.engine.Wait(ctx))
}

func requireKind(t *testing.T, err error, kind Kind) *Error {
	t.Helper()
	require.Error(t, err)
	var e *Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, kind, e.Kind, err.Error())
	return e
}

func TestUnregisteredStatusIsInternal(t *testing.T) {
	h := newHarness(t)
	resID, _ := h.reservation(t, testUser, 1)

	_, err := h.db.Exec(`DELETE FROM status_codes WHERE domain = 'payment' AND label = 'captured'`)
	require.NoError(t, err)
	// a fresh engine has an empty registry cache
	e := New(h.db, h.gate, h.metrics, Config{SideEffectBackoff: time.Millisecond}, WithClock(func() time.Time { return h.now }))

	_, err = e.CreateOrder(context.Background(), testUser, resID)
	require.Error(t, err)
	require.Equal(t, KindInternal, KindOf(err))
	require.ErrorIs(t, err, repository.ErrNotFound)
	require.Empty(t, h.gate.checks)
	require.Equal(t, 0, testdb.Count(t, h.db, "orders"))
	require.Error(t, e.Preload(context.Background()))
}
