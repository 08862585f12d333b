// Package gate is the cross-service mutual exclusion gate.  Seats are
// claimed per queue namespace ("reserva", "carrito", ...) in a shared claim
// registry, and every claim is announced on the RabbitMQ queue of the same
// name so the sibling services see the hand-off.
package gate

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/iliyamo/concert-order-service/internal/queue"
)

// Registry records which owner currently claims a seat within a queue
// namespace.
type Registry interface {
	// Claimed returns the subset of seatIDs that currently carry a claim.
	Claimed(ctx context.Context, queueName string, seatIDs []uint64) ([]uint64, error)
	// Claim records ownerID as the claimant of every seat, atomically.
	// When any seat is claimed by a different owner nothing is written and
	// those seats are returned.
	Claim(ctx context.Context, queueName string, ownerID uint64, seatIDs []uint64, ttl time.Duration) ([]uint64, error)
	// Release removes the claims of ownerID on seatIDs and returns how many
	// were removed.  Claims held by other owners are left alone.
	Release(ctx context.Context, queueName string, ownerID uint64, seatIDs []uint64) (int, error)
}

// Publisher durably enqueues an event on a named queue.
type Publisher interface {
	Publish(ctx context.Context, queueName string, ev queue.Event) error
}

// ErrClaimed is returned by PublishClaim when another owner already holds
// one of the seats.  Use errors.As with *ClaimedError to get the seats.
var ErrClaimed = errors.New("seats already claimed")

// ClaimedError lists the seats held by another owner.
type ClaimedError struct {
	Queue string
	Seats []uint64
}

func (e *ClaimedError) Error() string { return "gate: " + e.Queue + ": " + ErrClaimed.Error() }

func (e *ClaimedError) Unwrap() error { return ErrClaimed }

// CheckResult is the outcome of a claim pre-check.
type CheckResult struct {
	CanProceed  bool
	Conflicting []uint64
}

// Options tune a Gate.
type Options struct {
	// ClaimTTL bounds how long a claim survives without being released.
	ClaimTTL time.Duration
	// Timeout bounds every registry or broker call.
	Timeout time.Duration
}

// Gate combines the claim registry with the broker.
type Gate struct {
	registry  Registry
	publisher Publisher
	opts      Options
}

// New returns a Gate.  Zero options fall back to a 15 minute claim TTL and
// a 5 second call timeout.
func New(registry Registry, publisher Publisher, opts Options) *Gate {
	if opts.ClaimTTL <= 0 {
		opts.ClaimTTL = 15 * time.Minute
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	return &Gate{registry: registry, publisher: publisher, opts: opts}
}

// ClaimTTL returns the lifetime given to new claims.
func (g *Gate) ClaimTTL() time.Duration { return g.opts.ClaimTTL }

// CheckClaims reports whether any of seatIDs is claimed in queueName.
func (g *Gate) CheckClaims(ctx context.Context, queueName string, seatIDs []uint64) (CheckResult, error) {
	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	taken, err := g.registry.Claimed(ctx, queueName, seatIDs)
	if err != nil {
		return CheckResult{}, errors.Wrapf(err, "gate: check claims on %s", queueName)
	}
	return CheckResult{CanProceed: len(taken) == 0, Conflicting: taken}, nil
}

// PublishClaim claims the seats carried by ev for its owner in queueName
// and publishes ev to the queue.  Events without seats are only published.
// A seat claimed by someone else yields a *ClaimedError and nothing is
// published.
func (g *Gate) PublishClaim(ctx context.Context, queueName string, ev queue.Event) error {
	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	if seats := ev.ClaimedSeats(); len(seats) > 0 {
		taken, err := g.registry.Claim(ctx, queueName, ev.ClaimOwner(), seats, g.opts.ClaimTTL)
		if err != nil {
			return errors.Wrapf(err, "gate: claim on %s", queueName)
		}
		if len(taken) > 0 {
			return &ClaimedError{Queue: queueName, Seats: taken}
		}
	}
	if err := g.publisher.Publish(ctx, queueName, ev); err != nil {
		return errors.Wrapf(err, "gate: publish %s", ev.EventAction())
	}
	return nil
}

// ReleaseClaim drops the claims ownerID holds on seatIDs in queueName and
// returns how many were removed.
func (g *Gate) ReleaseClaim(ctx context.Context, queueName string, seatIDs []uint64, ownerID uint64) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	n, err := g.registry.Release(ctx, queueName, ownerID, seatIDs)
	if err != nil {
		return 0, errors.Wrapf(err, "gate: release claims on %s", queueName)
	}
	return n, nil
}
