package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/iliyamo/concert-order-service/internal/model"
)

// StatusRepo resolves (domain, label) pairs from the status_codes table to
// their numeric ids.  Rows in status_codes are immutable once referenced,
// so every resolved id is cached for the life of the process.  The cache
// is safe for concurrent use.
type StatusRepo struct {
	db *sql.DB

	mu    sync.RWMutex
	byKey map[model.StatusKey]model.StatusCode
	byID  map[uint64]model.StatusCode
}

// NewStatusRepo returns a new StatusRepo bound to the given database.
func NewStatusRepo(db *sql.DB) *StatusRepo {
	return &StatusRepo{
		db:    db,
		byKey: make(map[model.StatusKey]model.StatusCode),
		byID:  make(map[uint64]model.StatusCode),
	}
}

// Resolve returns the status code registered for domain and label.  An
// unregistered pair yields an error wrapping ErrNotFound.
func (r *StatusRepo) Resolve(ctx context.Context, domain model.Domain, label string) (model.StatusCode, error) {
	key := model.StatusKey{Domain: domain, Label: label}
	r.mu.RLock()
	sc, ok := r.byKey[key]
	r.mu.RUnlock()
	if ok {
		return sc, nil
	}

	const q = `SELECT id, domain, label FROM status_codes WHERE domain = ? AND label = ?`
	var d string
	err := r.db.QueryRowContext(ctx, q, string(domain), label).Scan(&sc.ID, &d, &sc.Label)
	if errors.Is(err, sql.ErrNoRows) {
		return model.StatusCode{}, fmt.Errorf("status %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return model.StatusCode{}, err
	}
	sc.Domain = model.Domain(d)
	r.store(sc)
	return sc, nil
}

// ID resolves a typed status to its numeric id.
func (r *StatusRepo) ID(ctx context.Context, s model.Status) (uint64, error) {
	k := s.Key()
	sc, err := r.Resolve(ctx, k.Domain, k.Label)
	if err != nil {
		return 0, err
	}
	return sc.ID, nil
}

// IDs resolves several typed statuses in order.
func (r *StatusRepo) IDs(ctx context.Context, ss ...model.Status) ([]uint64, error) {
	out := make([]uint64, 0, len(ss))
	for _, s := range ss {
		id, err := r.ID(ctx, s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// Label returns the cached status code for id.  Only codes that have been
// resolved or preloaded are known.
func (r *StatusRepo) Label(id uint64) (model.StatusCode, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sc, ok := r.byID[id]
	return sc, ok
}

// Preload loads every row of status_codes into the cache and verifies that
// each state the service relies on is registered.  It is called once at
// startup so that a missing registry row fails fast instead of on the
// first order.
func (r *StatusRepo) Preload(ctx context.Context) error {
	rows, err := r.db.QueryContext(ctx, `SELECT id, domain, label FROM status_codes`)
	if err != nil {
		return err
	}
	var loaded []model.StatusCode
	for rows.Next() {
		var sc model.StatusCode
		var d string
		if err := rows.Scan(&sc.ID, &d, &sc.Label); err != nil {
			rows.Close()
			return err
		}
		sc.Domain = model.Domain(d)
		loaded = append(loaded, sc)
	}
	if err := rows.Close(); err != nil {
		return err
	}
	for _, sc := range loaded {
		r.store(sc)
	}
	for _, s := range model.AllStatuses() {
		if _, err := r.ID(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (r *StatusRepo) store(sc model.StatusCode) {
	r.mu.Lock()
	r.byKey[model.StatusKey{Domain: sc.Domain, Label: sc.Label}] = sc
	r.byID[sc.ID] = sc
	r.mu.Unlock()
}
