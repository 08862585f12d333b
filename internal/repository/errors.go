// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow the order engine to tell a
// missing row from a lost race without inspecting driver errors.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup by key matches no row, including
// lookups filtered by owner or status.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a conditional update touched fewer rows
// than expected because another writer changed the state first.
var ErrConflict = errors.New("conflict")

// ErrDuplicateCode is returned when a ticket insert violates the unique
// constraint on tickets.code.
var ErrDuplicateCode = errors.New("duplicate ticket code")

// mysqlDuplicateEntry is the server error number for a unique key
// violation (ER_DUP_ENTRY).
const mysqlDuplicateEntry = 1062

// isDuplicateKey reports whether err is a unique constraint violation.
// MySQL is detected by error number; SQLite, used in tests, only exposes
// the condition through its message.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
