// Package order is the order lifecycle engine.  It turns a held
// reservation into a pending order and a pending order into a paid order
// with issued tickets.  Each transition is one local database transaction;
// traffic to the cross-service claim gate happens before the transaction
// (pre-check) or after commit on a best-effort side channel.
package order

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/iliyamo/concert-order-service/internal/gate"
	"github.com/iliyamo/concert-order-service/internal/metrics"
	"github.com/iliyamo/concert-order-service/internal/model"
	"github.com/iliyamo/concert-order-service/internal/queue"
	"github.com/iliyamo/concert-order-service/internal/repository"
)

const tracerName = "github.com/iliyamo/concert-order-service/internal/order"

// Gate is the subset of the claim gate the engine talks to.
type Gate interface {
	CheckClaims(ctx context.Context, queueName string, seatIDs []uint64) (gate.CheckResult, error)
	PublishClaim(ctx context.Context, queueName string, ev queue.Event) error
	ReleaseClaim(ctx context.Context, queueName string, seatIDs []uint64, ownerID uint64) (int, error)
}

// Config tunes the engine.  Zero values take the defaults noted per field.
type Config struct {
	// TicketCodeAttempts bounds code regeneration per ticket (5).
	TicketCodeAttempts int
	// CartClaimTTL is advertised as expiresAt on ORDER_CREATED (15m).
	CartClaimTTL time.Duration
	// SideEffectTimeout bounds all post-commit gate work of one operation (30s).
	SideEffectTimeout time.Duration
	// SideEffectAttempts bounds retries of one post-commit gate call (3).
	SideEffectAttempts int
	// SideEffectBackoff is the first retry delay, doubled per attempt (200ms).
	SideEffectBackoff time.Duration
}

func (c Config) withDefaults() Config {
	if c.TicketCodeAttempts <= 0 {
		c.TicketCodeAttempts = 5
	}
	if c.CartClaimTTL <= 0 {
		c.CartClaimTTL = 15 * time.Minute
	}
	if c.SideEffectTimeout <= 0 {
		c.SideEffectTimeout = 30 * time.Second
	}
	if c.SideEffectAttempts <= 0 {
		c.SideEffectAttempts = 3
	}
	if c.SideEffectBackoff <= 0 {
		c.SideEffectBackoff = 200 * time.Millisecond
	}
	return c
}

// Engine runs order operations against one database.
type Engine struct {
	db           *sql.DB
	statuses     *repository.StatusRepo
	seats        *repository.ConcertSeatRepo
	reservations *repository.ReservationRepo
	ticketTypes  *repository.TicketTypeRepo
	orders       *repository.OrderRepo
	tickets      *repository.TicketRepo
	payments     *repository.PaymentRepo

	gate    Gate
	metrics *metrics.Metrics
	tracer  trace.Tracer
	codes   CodeFunc
	now     func() time.Time
	cfg     Config
	side    *dispatcher
}

// Option customises an Engine.
type Option func(*Engine)

// WithCodeFunc replaces the ticket code generator.
func WithCodeFunc(f CodeFunc) Option { return func(e *Engine) { e.codes = f } }

// WithClock replaces the clock used for reservation expiry and event
// timestamps.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// New builds an Engine on db.  All arguments are required.
func New(db *sql.DB, g Gate, m *metrics.Metrics, cfg Config, opts ...Option) *Engine {
	if db == nil || g == nil || m == nil {
		panic("nil dependency passed to order.New")
	}
	cfg = cfg.withDefaults()
	e := &Engine{
		db:           db,
		statuses:     repository.NewStatusRepo(db),
		seats:        repository.NewConcertSeatRepo(db),
		reservations: repository.NewReservationRepo(db),
		ticketTypes:  repository.NewTicketTypeRepo(db),
		orders:       repository.NewOrderRepo(db),
		tickets:      repository.NewTicketRepo(db),
		payments:     repository.NewPaymentRepo(db),
		gate:         g,
		metrics:      m,
		tracer:       otel.Tracer(tracerName),
		codes:        NewTicketCode,
		now:          time.Now,
		cfg:          cfg,
	}
	for _, o := range opts {
		o(e)
	}
	e.side = &dispatcher{
		timeout: cfg.SideEffectTimeout,
		retry:   retryPolicy{attempts: cfg.SideEffectAttempts, base: cfg.SideEffectBackoff, max: 5 * time.Second},
		metrics: m,
		tracer:  e.tracer,
	}
	return e
}

// Preload warms the status registry and fails when a required state is
// not registered.
func (e *Engine) Preload(ctx context.Context) error {
	return e.statuses.Preload(ctx)
}

// Wait blocks until every post-commit side effect started so far has
// finished, or ctx is done.
func (e *Engine) Wait(ctx context.Context) error {
	return e.side.wait(ctx)
}

// statusSet holds the status ids the engine writes or filters on.  They are
// resolved before any transaction starts.
type statusSet struct {
	reservationHeld, reservationConfirmed uint64
	orderPending, orderConfirmed          uint64
	seatHeld, seatInCart, seatOccupied    uint64
	ticketIssued                          uint64
	paymentCaptured                       uint64
}

func (e *Engine) statusIDs(ctx context.Context) (statusSet, error) {
	ids, err := e.statuses.IDs(ctx,
		model.ReservationHeld, model.ReservationConfirmed,
		model.OrderPending, model.OrderConfirmed,
		model.SeatHeld, model.SeatInCart, model.SeatOccupied,
		model.TicketIssued,
		model.PaymentCaptured,
	)
	if err != nil {
		return statusSet{}, errors.Wrap(err, "resolve statuses")
	}
	return statusSet{
		reservationHeld: ids[0], reservationConfirmed: ids[1],
		orderPending: ids[2], orderConfirmed: ids[3],
		seatHeld: ids[4], seatInCart: ids[5], seatOccupied: ids[6],
		ticketIssued:    ids[7],
		paymentCaptured: ids[8],
	}, nil
}

// inTx runs fn inside a transaction that is committed when fn returns nil
// and rolled back otherwise.
func (e *Engine) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	committed = true
	return nil
}

// finish records the outcome of an operation on its span and metrics.
func (e *Engine) finish(span trace.Span, op string, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.metrics.Failures.WithLabelValues(op, KindOf(err).String()).Inc()
	}
	span.End()
}

// wrap passes classified errors through and adds operation context to
// everything else.
func wrap(err error, msg string) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return errors.Wrap(err, msg)
}
