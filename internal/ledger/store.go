package ledger

import "sync"

// seatKey indexes the ledger: one entry per (showtime, seat code) pair.
type seatKey struct {
	ShowtimeID uint64
	SeatCode   string
}

// Store is the keyed seat-state store. Entries are registered when a
// showtime is published (or rewarmed at startup) and dropped when the
// showtime is retired; they do not need to outlive the process because
// durable occupancy is reconstructed from confirmed bookings.
//
// The mutex keeps critical sections to a single map read or write; no
// caller ever holds it across I/O.
type Store struct {
	mu    sync.RWMutex
	seats map[seatKey]SeatState
}

// NewStore returns an empty ledger store.
func NewStore() *Store {
	return &Store{seats: make(map[seatKey]SeatState)}
}

// Register seeds ledger entries for a showtime's seat codes. Seats that are
// not yet known start Available; already-registered seats keep their current
// state so a rewarm never clobbers live holds.
func (s *Store) Register(showtimeID uint64, seatCodes []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, code := range seatCodes {
		k := seatKey{ShowtimeID: showtimeID, SeatCode: code}
		if _, ok := s.seats[k]; !ok {
			s.seats[k] = StateAvailable()
		}
	}
}

// SetOccupied force-writes occupancy for a seat, bypassing CAS. It exists
// solely for startup rewarming from confirmed bookings, before any request
// traffic is accepted.
func (s *Store) SetOccupied(showtimeID uint64, seatCode string, bookingID uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seats[seatKey{ShowtimeID: showtimeID, SeatCode: seatCode}] = StateOccupied(bookingID)
}

// State returns the current state of a seat and whether the seat is
// registered at all.
func (s *Store) State(showtimeID uint64, seatCode string) (SeatState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.seats[seatKey{ShowtimeID: showtimeID, SeatCode: seatCode}]
	return st, ok
}

// CompareAndSet atomically replaces the seat's state with next if and only
// if the current state equals expected. It returns false when the seat is
// unregistered or the expectation does not hold, leaving the state
// untouched. This is the single synchronization primitive of the whole
// reservation engine.
func (s *Store) CompareAndSet(showtimeID uint64, seatCode string, expected, next SeatState) bool {
	k := seatKey{ShowtimeID: showtimeID, SeatCode: seatCode}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.seats[k]
	if !ok || !cur.Equal(expected) {
		return false
	}
	s.seats[k] = next
	return true
}

// Snapshot returns a copy of every seat state for a showtime. The copy is
// taken under the read lock, so it is internally consistent at a single
// instant.
func (s *Store) Snapshot(showtimeID uint64) map[string]SeatState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]SeatState)
	for k, st := range s.seats {
		if k.ShowtimeID == showtimeID {
			out[k.SeatCode] = st
		}
	}
	return out
}

// Drop removes every entry for a showtime, reclaiming memory once the
// screening is over.
func (s *Store) Drop(showtimeID uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.seats {
		if k.ShowtimeID == showtimeID {
			delete(s.seats, k)
		}
	}
}
