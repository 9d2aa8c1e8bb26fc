// Package repository defines error types that are reused across the
// resource repositories.  These sentinel values let handlers distinguish
// failure scenarios with errors.Is and map them to status codes.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrNotFound is returned when no row matches, including writes that
// affected zero rows.  Handlers translate it into a 404.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write collides with a unique constraint,
// such as a second user with the same email.  Handlers translate it into
// a 409.
var ErrConflict = errors.New("conflict")

// ErrValidation wraps every rejection of caller input: unknown or
// read-only fields, missing required fields, values of the wrong type and
// empty updates.
var ErrValidation = errors.New("invalid input")

// ErrInternal wraps write failures after the transaction was rolled back.
var ErrInternal = errors.New("internal error")

// isDuplicate reports whether err is a unique-key violation on either of
// the supported drivers.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return false
}
