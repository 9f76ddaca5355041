package lock

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cinehall/booking-engine/internal/ledger"
)

// Hold is a time-bounded exclusive claim on a set of seats within one
// showtime. A hold is the sole mechanism by which a seat enters the HELD
// state; it lives until it is released, promoted, or reclaimed by the
// expiry sweeper.
type Hold struct {
	Token        string    // opaque token correlating the hold to a checkout
	ShowtimeID   uint64    // showtime the seats belong to
	SeatCodes    []string  // held seats in lexicographic order
	ExpiresAt    time.Time // instant after which the hold is dead
	RenewedCount int       // how many times the hold was explicitly renewed
	CreatedAt    time.Time // when the hold was acquired
}

// Manager issues, renews, releases and promotes holds against the seat
// ledger. It never blocks a caller on a contended seat: contention surfaces
// immediately as a ConflictError, and retrying is a client decision.
type Manager struct {
	store *ledger.Store
	ttl   time.Duration
	now   func() time.Time

	mu    sync.Mutex
	holds map[string]*Hold
}

// NewManager returns a Manager issuing holds with the given default TTL.
func NewManager(store *ledger.Store, ttl time.Duration) *Manager {
	return NewManagerWithClock(store, ttl, time.Now)
}

// NewManagerWithClock is NewManager with an injectable clock, used by tests
// to advance time instead of sleeping.
func NewManagerWithClock(store *ledger.Store, ttl time.Duration, now func() time.Time) *Manager {
	return &Manager{
		store: store,
		ttl:   ttl,
		now:   now,
		holds: make(map[string]*Hold),
	}
}

// TTL returns the default hold duration.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Reserve attempts to acquire every requested seat for a new hold. Seats
// are acquired by CAS AVAILABLE→HELD in lexicographic order; if any seat is
// not available the whole attempt is rolled back and a ConflictError names
// exactly the seats that were unavailable, leaving the ledger as it was
// before the call. An empty seat set fails with ErrNoSeats and unknown
// seat codes fail with ErrUnknownSeat, in both cases before any seat is
// touched.
func (m *Manager) Reserve(showtimeID uint64, seatCodes []string) (*Hold, error) {
	codes := dedupeSorted(seatCodes)
	if len(codes) == 0 {
		return nil, ErrNoSeats
	}
	for _, code := range codes {
		if _, ok := m.store.State(showtimeID, code); !ok {
			return nil, ErrUnknownSeat
		}
	}

	createdAt := m.now().UTC()
	expiresAt := createdAt.Add(m.ttl)
	token := uuid.NewString()
	heldState := ledger.StateHeld(token, expiresAt)

	acquired := make([]string, 0, len(codes))
	var conflicting []string
	for _, code := range codes {
		if m.store.CompareAndSet(showtimeID, code, ledger.StateAvailable(), heldState) {
			acquired = append(acquired, code)
		} else {
			conflicting = append(conflicting, code)
		}
	}
	if len(conflicting) > 0 {
		// All-or-nothing: put back every seat we flipped in this attempt.
		for _, code := range acquired {
			m.store.CompareAndSet(showtimeID, code, heldState, ledger.StateAvailable())
		}
		return nil, &ConflictError{Seats: conflicting}
	}

	hold := &Hold{
		Token:      token,
		ShowtimeID: showtimeID,
		SeatCodes:  codes,
		ExpiresAt:  expiresAt,
		CreatedAt:  createdAt,
	}
	m.mu.Lock()
	m.holds[token] = hold
	m.mu.Unlock()

	return snapshotHold(hold), nil
}

// Renew extends the hold's expiry by the default TTL from now, for every
// seat under the token. It fails with ErrHoldExpired when the hold has
// already expired or been released; the system never auto-extends a hold.
func (m *Manager) Renew(token string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hold, ok := m.holds[token]
	now := m.now().UTC()
	if !ok || !now.Before(hold.ExpiresAt) {
		return time.Time{}, ErrHoldExpired
	}

	newExpiry := now.Add(m.ttl)
	oldState := ledger.StateHeld(token, hold.ExpiresAt)
	newState := ledger.StateHeld(token, newExpiry)
	for _, code := range hold.SeatCodes {
		m.store.CompareAndSet(hold.ShowtimeID, code, oldState, newState)
	}
	hold.ExpiresAt = newExpiry
	hold.RenewedCount++
	return newExpiry, nil
}

// Release returns every seat under the token to AVAILABLE and destroys the
// hold. Releasing an unknown, expired or already-released token is a no-op,
// not an error.
func (m *Manager) Release(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseLocked(token)
}

// releaseLocked is Release with m.mu already held.
func (m *Manager) releaseLocked(token string) {
	hold, ok := m.holds[token]
	if !ok {
		return
	}
	heldState := ledger.StateHeld(token, hold.ExpiresAt)
	for _, code := range hold.SeatCodes {
		m.store.CompareAndSet(hold.ShowtimeID, code, heldState, ledger.StateAvailable())
	}
	delete(m.holds, token)
}

// Promote converts the hold into permanent occupancy for a confirmed
// booking: CAS HELD→OCCUPIED for every seat under the token. The promotion
// is atomic: when the hold has expired (or a seat slipped away), every
// already-promoted seat is rolled back to HELD and ErrHoldExpired is
// returned, so a booking is never left with a partially-occupied seat set.
func (m *Manager) Promote(token string, bookingID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	hold, ok := m.holds[token]
	if !ok {
		return ErrHoldExpired
	}
	if !m.now().UTC().Before(hold.ExpiresAt) {
		// Dead on arrival: reclaim the seats now rather than waiting for
		// the sweeper, then report the expiry.
		m.releaseLocked(token)
		return ErrHoldExpired
	}

	heldState := ledger.StateHeld(token, hold.ExpiresAt)
	occupied := ledger.StateOccupied(bookingID)
	promoted := make([]string, 0, len(hold.SeatCodes))
	for _, code := range hold.SeatCodes {
		if !m.store.CompareAndSet(hold.ShowtimeID, code, heldState, occupied) {
			for _, done := range promoted {
				m.store.CompareAndSet(hold.ShowtimeID, done, occupied, heldState)
			}
			return ErrHoldExpired
		}
		promoted = append(promoted, code)
	}
	delete(m.holds, token)
	return nil
}

// Vacate returns OCCUPIED seats of a booking to AVAILABLE. It backs the
// explicit admin decision to re-sell seats after a refund; a refund on its
// own never frees seats.
func (m *Manager) Vacate(showtimeID uint64, seatCodes []string, bookingID uint64) {
	occupied := ledger.StateOccupied(bookingID)
	for _, code := range seatCodes {
		m.store.CompareAndSet(showtimeID, code, occupied, ledger.StateAvailable())
	}
}

// Lookup returns a copy of the hold for the token, or false when the token
// is unknown.
func (m *Manager) Lookup(token string) (*Hold, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hold, ok := m.holds[token]
	if !ok {
		return nil, false
	}
	return snapshotHold(hold), true
}

// SweepExpired releases every hold whose expiry has passed and returns
// copies of the reclaimed holds so the caller can transition the owning
// bookings. Seat mutations happen under the manager lock; the caller is
// expected to do its own persistence outside of it.
func (m *Manager) SweepExpired() []*Hold {
	m.mu.Lock()
	now := m.now().UTC()
	var expired []*Hold
	for token, hold := range m.holds {
		if !now.Before(hold.ExpiresAt) {
			expired = append(expired, snapshotHold(hold))
			m.releaseLocked(token)
		}
	}
	m.mu.Unlock()
	return expired
}

// snapshotHold copies a hold so callers never share mutable state with the
// manager's registry.
func snapshotHold(h *Hold) *Hold {
	cp := *h
	cp.SeatCodes = append([]string(nil), h.SeatCodes...)
	return &cp
}

// dedupeSorted returns the unique seat codes in lexicographic order. The
// fixed order is the deadlock-avoidance ordering for multi-seat CAS runs.
func dedupeSorted(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; !ok {
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}
