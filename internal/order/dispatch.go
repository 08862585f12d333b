package order

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/concert-order-service/internal/gate"
	"github.com/iliyamo/concert-order-service/internal/logger"
	"github.com/iliyamo/concert-order-service/internal/metrics"
)

// sideEffect is one post-commit gate call.
type sideEffect struct {
	queue string
	step  string
	run   func(ctx context.Context) error
}

// dispatcher runs post-commit gate calls in the background.  The database
// commit is the point of truth: a failed side effect is retried, then
// logged and counted, and never reported to the caller.
type dispatcher struct {
	wg      sync.WaitGroup
	timeout time.Duration
	retry   retryPolicy
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// dispatch starts effects concurrently.  They run on a context detached
// from parent's cancellation, so they outlive the request, but keep its
// values (logger, trace).
func (d *dispatcher) dispatch(parent context.Context, op string, orderID uint64, effects ...sideEffect) {
	ctx := context.WithoutCancel(parent)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()
		ctx, span := d.tracer.Start(ctx, "order.sideEffects",
			trace.WithAttributes(attribute.String("operation", op), attribute.Int64("order.id", int64(orderID))))
		defer span.End()

		var g errgroup.Group
		for _, fx := range effects {
			g.Go(func() error {
				err := d.retry.do(ctx, fx.run)
				result := "ok"
				if err != nil {
					result = "failed"
					span.RecordError(err)
					logger.Ctx(ctx).Warn().Err(err).
						Str("operation", op).
						Uint64("order_id", orderID).
						Str("queue", fx.queue).
						Str("step", fx.step).
						Msg("post-commit gate call failed")
				}
				d.metrics.SideEffects.WithLabelValues(fx.queue, fx.step, result).Inc()
				return nil
			})
		}
		_ = g.Wait()
	}()
}

func (d *dispatcher) wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// retryPolicy is exponential backoff with a ceiling.
type retryPolicy struct {
	attempts int
	base     time.Duration
	max      time.Duration
}

// do runs fn until it succeeds, attempts are exhausted or ctx ends.  A
// seat claimed by someone else is permanent and not retried.
func (p retryPolicy) do(ctx context.Context, fn func(context.Context) error) error {
	var lastErr error
	backoff := p.base
	for attempt := 0; attempt < p.attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if errors.Is(err, gate.ErrClaimed) || ctx.Err() != nil {
			return err
		}
		if attempt < p.attempts-1 {
			select {
			case <-ctx.Done():
				return lastErr
			case <-time.After(backoff):
				backoff *= 2
				if backoff > p.max {
					backoff = p.max
				}
			}
		}
	}
	return lastErr
}
