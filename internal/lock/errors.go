// Package lock implements time-bounded exclusive holds on seat sets. It is
// the only component allowed to mutate seat state in the ledger; everything
// it does is a sequence of compare-and-set calls with rollback on partial
// failure, so contention is always resolved by an immediate, typed error
// rather than by blocking the caller.
package lock

import (
	"errors"
	"fmt"
	"strings"
)

// ErrHoldExpired is returned when an operation references a hold that has
// expired or was already released. The caller must restart the checkout.
var ErrHoldExpired = errors.New("hold expired or released")

// ErrUnknownSeat is returned when a reserve request names a seat code that
// is not registered for the showtime. This is a request validation failure,
// not seat contention.
var ErrUnknownSeat = errors.New("unknown seat code")

// ErrNoSeats is returned when a reserve request carries no seat codes. A
// hold must cover at least one seat.
var ErrNoSeats = errors.New("no seat codes requested")

// ConflictError reports a failed reservation attempt together with the
// exact seats that were unavailable, so the client can deselect only those
// seats instead of discarding the whole selection.
type ConflictError struct {
	Seats []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("seats unavailable: %s", strings.Join(e.Seats, ", "))
}
