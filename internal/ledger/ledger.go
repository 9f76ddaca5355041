// Package ledger holds the authoritative in-process record of seat state per
// showtime. The only mutation primitive is CompareAndSet; every higher-level
// operation (holding, releasing, promoting seats) is built from CAS call
// sequences in the lock package, so no caller can ever read-then-write a
// seat non-atomically.
package ledger

import "time"

// Status enumerates the three possible states of a seat for a showtime.
type Status uint8

const (
	// Available means the seat can be acquired by a new hold.
	Available Status = iota
	// Held means the seat is claimed by an in-flight checkout until ExpiresAt.
	Held
	// Occupied means a confirmed booking owns the seat permanently.
	Occupied
)

// String returns the wire representation used in API responses.
func (s Status) String() string {
	switch s {
	case Available:
		return "AVAILABLE"
	case Held:
		return "HELD"
	case Occupied:
		return "OCCUPIED"
	}
	return "UNKNOWN"
}

// SeatState is the full state of one seat in one showtime. HolderToken and
// ExpiresAt are only meaningful when Status is Held; BookingID only when
// Status is Occupied.
type SeatState struct {
	Status      Status
	HolderToken string
	ExpiresAt   time.Time
	BookingID   uint64
}

// Equal reports whether two states are the same. Timestamps are compared
// with time.Equal so monotonic-clock readings never affect the outcome of a
// compare-and-set.
func (s SeatState) Equal(o SeatState) bool {
	return s.Status == o.Status &&
		s.HolderToken == o.HolderToken &&
		s.BookingID == o.BookingID &&
		s.ExpiresAt.Equal(o.ExpiresAt)
}

// StateAvailable returns the canonical available state.
func StateAvailable() SeatState { return SeatState{Status: Available} }

// StateHeld returns the state of a seat held by token until expiresAt.
func StateHeld(token string, expiresAt time.Time) SeatState {
	return SeatState{Status: Held, HolderToken: token, ExpiresAt: expiresAt}
}

// StateOccupied returns the state of a seat owned by a confirmed booking.
func StateOccupied(bookingID uint64) SeatState {
	return SeatState{Status: Occupied, BookingID: bookingID}
}
