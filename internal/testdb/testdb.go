// Package testdb opens throwaway in-memory SQLite databases carrying the
// order service schema and offers fixture helpers for package tests.
package testdb

import (
	"context"
	"database/sql"
	_ "embed"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/iliyamo/concert-order-service/internal/model"
)

//go:embed schema.sql
var schema string

// Open returns a fresh in-memory database with the schema applied and
// every known status registered.  The pool is pinned to one connection
// because each SQLite in-memory connection is its own database.
func Open(t testing.TB) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	_, err = db.ExecContext(ctx, "PRAGMA foreign_keys=ON")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, schema)
	require.NoError(t, err)
	for _, s := range model.AllStatuses() {
		k := s.Key()
		_, err := db.ExecContext(ctx, `INSERT INTO status_codes (domain, label) VALUES (?, ?)`, string(k.Domain), k.Label)
		require.NoError(t, err)
	}
	return db
}

// StatusID returns the registered id of s.
func StatusID(t testing.TB, db *sql.DB, s model.Status) uint64 {
	t.Helper()
	k := s.Key()
	var id uint64
	err := db.QueryRow(`SELECT id FROM status_codes WHERE domain = ? AND label = ?`, string(k.Domain), k.Label).Scan(&id)
	require.NoError(t, err)
	return id
}

// AddTicketType prices sectionID for concertID.
func AddTicketType(t testing.TB, db *sql.DB, concertID, sectionID uint64, name string, price int64) uint64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO ticket_types (concert_id, section_id, name, price) VALUES (?, ?, ?, ?)`,
		concertID, sectionID, name, price)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return uint64(id)
}

// Seats is a set of physical seats together with their concert rows.
type Seats struct {
	SeatIDs        []uint64
	ConcertSeatIDs []uint64
}

// AddSeats creates n physical seats in row A of sectionID and one
// concert_seats row per seat for concertID in the given status.
func AddSeats(t testing.TB, db *sql.DB, concertID, sectionID uint64, n int, status model.SeatStatus) Seats {
	t.Helper()
	statusID := StatusID(t, db, status)
	var existing int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM seats WHERE section_id = ?`, sectionID).Scan(&existing))
	var out Seats
	for i := 0; i < n; i++ {
		res, err := db.Exec(`INSERT INTO seats (section_id, row_label, seat_number) VALUES (?, 'A', ?)`,
			sectionID, existing+i+1)
		require.NoError(t, err)
		seatID, err := res.LastInsertId()
		require.NoError(t, err)
		res, err = db.Exec(`INSERT INTO concert_seats (concert_id, seat_id, status_id) VALUES (?, ?, ?)`,
			concertID, seatID, statusID)
		require.NoError(t, err)
		csID, err := res.LastInsertId()
		require.NoError(t, err)
		out.SeatIDs = append(out.SeatIDs, uint64(seatID))
		out.ConcertSeatIDs = append(out.ConcertSeatIDs, uint64(csID))
	}
	return out
}

// AddReservation creates a reservation for userID over seats.
func AddReservation(t testing.TB, db *sql.DB, userID, concertID uint64, status model.ReservationStatus, expiresAt time.Time, seats Seats) uint64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO reservations (user_id, concert_id, status_id, expires_at) VALUES (?, ?, ?, ?)`,
		userID, concertID, StatusID(t, db, status), expiresAt.UTC())
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	for i := range seats.SeatIDs {
		_, err := db.Exec(`INSERT INTO reservation_seats (reservation_id, seat_id, concert_seat_id) VALUES (?, ?, ?)`,
			id, seats.SeatIDs[i], seats.ConcertSeatIDs[i])
		require.NoError(t, err)
	}
	return uint64(id)
}

// SeatLabels returns the current status label of each concert seat, in the
// order given.
func SeatLabels(t testing.TB, db *sql.DB, concertSeatIDs []uint64) []string {
	t.Helper()
	out := make([]string, 0, len(concertSeatIDs))
	for _, id := range concertSeatIDs {
		var label string
		err := db.QueryRow(`SELECT sc.label FROM concert_seats cs JOIN status_codes sc ON sc.id = cs.status_id WHERE cs.id = ?`, id).Scan(&label)
		require.NoError(t, err)
		out = append(out, label)
	}
	return out
}

// ReservationLabel returns the current status label of a reservation.
func ReservationLabel(t testing.TB, db *sql.DB, reservationID uint64) string {
	t.Helper()
	var label string
	err := db.QueryRow(`SELECT sc.label FROM reservations r JOIN status_codes sc ON sc.id = r.status_id WHERE r.id = ?`, reservationID).Scan(&label)
	require.NoError(t, err)
	return label
}

// Count returns the number of rows in table.
func Count(t testing.TB, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}
