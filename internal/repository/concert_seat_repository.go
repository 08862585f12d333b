package repository

import (
	"context"
	"database/sql"
	"strings"
)

// queryer is satisfied by both *sql.DB and *sql.Tx so read helpers can run
// inside or outside a transaction.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ConcertSeatRepo is the seat availability ledger.  Every change to
// concert_seats.status_id goes through TransitionTx, which only ever runs
// inside a caller-owned transaction so the seat change commits or rolls
// back together with the order or reservation row that caused it.
type ConcertSeatRepo struct {
	db *sql.DB
}

// NewConcertSeatRepo constructs a ConcertSeatRepo given a DB handle.
func NewConcertSeatRepo(db *sql.DB) *ConcertSeatRepo {
	return &ConcertSeatRepo{db: db}
}

// TransitionTx moves the given concert seats to status to.  When
// fromAllowed is non-empty only seats currently in one of those statuses
// are updated.  The number of rows changed is returned; callers compare it
// with the number of seats they expected to move and abort the transaction
// on a mismatch.  Duplicate ids are collapsed so a seat is never counted
// twice.  An empty id list updates nothing and returns 0.
func (r *ConcertSeatRepo) TransitionTx(ctx context.Context, tx *sql.Tx, ids []uint64, fromAllowed []uint64, to uint64) (int64, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, 0, 1+len(ids)+len(fromAllowed))
	args = append(args, to)
	for _, id := range ids {
		args = append(args, id)
	}
	q := `UPDATE concert_seats SET status_id = ? WHERE id IN (` + placeholders(len(ids)) + `)`
	if len(fromAllowed) > 0 {
		q += ` AND status_id IN (` + placeholders(len(fromAllowed)) + `)`
		for _, s := range fromAllowed {
			args = append(args, s)
		}
	}
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Statuses returns the current status id of each requested concert seat,
// keyed by concert seat id.  Unknown ids are absent from the result.
func (r *ConcertSeatRepo) Statuses(ctx context.Context, ids []uint64) (map[uint64]uint64, error) {
	return r.statuses(ctx, r.db, ids)
}

// StatusesTx is Statuses evaluated inside tx.
func (r *ConcertSeatRepo) StatusesTx(ctx context.Context, tx *sql.Tx, ids []uint64) (map[uint64]uint64, error) {
	return r.statuses(ctx, tx, ids)
}

func (r *ConcertSeatRepo) statuses(ctx context.Context, q queryer, ids []uint64) (map[uint64]uint64, error) {
	ids = uniqueIDs(ids)
	out := make(map[uint64]uint64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := q.QueryContext(ctx,
		`SELECT id, status_id FROM concert_seats WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id, status uint64
		if err := rows.Scan(&id, &status); err != nil {
			return nil, err
		}
		out[id] = status
	}
	return out, rows.Err()
}

// placeholders returns "?, ?, ..." with n markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// uniqueIDs drops zero and repeated ids while keeping first-seen order.
func uniqueIDs(ids []uint64) []uint64 {
	out := make([]uint64, 0, len(ids))
	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
