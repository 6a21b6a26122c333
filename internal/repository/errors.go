// Package repository implements raw-SQL persistence for rooms,
// bookings, payments, users and refresh tokens, plus the Store type
// that backs the booking and payment services.  Errors that callers
// need to branch on are surfaced either as the sentinel values below
// or as *booking.Error values carrying a kind.
package repository

import (
    "errors"

    "github.com/go-sql-driver/mysql"

    "github.com/iliyamo/room-reservation/internal/booking"
)

// ErrEmailExists is returned by UserRepo.Create when the normalized
// email already has an account. Handlers translate it to HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// MySQL server error codes that indicate the room row lock could not
// be taken: lock wait timeout and deadlock victim.
const (
    mysqlErrLockWaitTimeout = 1205
    mysqlErrDeadlock        = 1213
)

// mapLockError converts lock acquisition failures into the engine's
// retryable lock-timeout error so handlers can answer 503.  Other
// errors pass through unchanged.
func mapLockError(err error) error {
    var me *mysql.MySQLError
    if errors.As(err, &me) {
        if me.Number == mysqlErrLockWaitTimeout || me.Number == mysqlErrDeadlock {
            return booking.WrapError(booking.KindLockTimeout, "room lock not acquired in time", err)
        }
    }
    return err
}
