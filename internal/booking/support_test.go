package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cinehall/booking-engine/internal/ledger"
	"github.com/cinehall/booking-engine/internal/lock"
	"github.com/cinehall/booking-engine/internal/model"
)

// In-memory store fakes. They implement the same contracts as the MySQL
// repositories, including the expected-status semantics of UpdateStatus
// and the unique transaction id of the payment store.

type memBookingStore struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]*model.Booking
}

func newMemBookingStore() *memBookingStore {
	return &memBookingStore{rows: make(map[uint64]*model.Booking)}
}

func cloneBooking(b *model.Booking) *model.Booking {
	cp := *b
	cp.Seats = append([]model.BookingSeat(nil), b.Seats...)
	return &cp
}

func (s *memBookingStore) Create(_ context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	b.ID = s.nextID
	s.rows[b.ID] = cloneBooking(b)
	return nil
}

func (s *memBookingStore) GetByCode(_ context.Context, code string) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.rows {
		if b.Code == code {
			return cloneBooking(b), nil
		}
	}
	return nil, ErrBookingNotFound
}

func (s *memBookingStore) GetByToken(_ context.Context, token string) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.rows {
		if b.HolderToken == token {
			return cloneBooking(b), nil
		}
	}
	return nil, ErrBookingNotFound
}

func (s *memBookingStore) UpdateStatus(_ context.Context, id uint64, from []model.BookingStatus, to model.BookingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rows[id]
	if !ok {
		return ErrBookingNotFound
	}
	for _, st := range from {
		if b.BookingStatus == st {
			b.BookingStatus = to
			b.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return ErrStaleStatus
}

func (s *memBookingStore) SetCheckout(_ context.Context, id uint64, userID *uint64, guestContact, paymentMethod string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rows[id]
	if !ok {
		return ErrBookingNotFound
	}
	b.UserID = userID
	b.GuestContact = guestContact
	b.PaymentMethod = paymentMethod
	return nil
}

func (s *memBookingStore) SetPaymentStatus(_ context.Context, id uint64, status model.PaymentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rows[id]
	if !ok {
		return ErrBookingNotFound
	}
	b.PaymentStatus = status
	return nil
}

func (s *memBookingStore) ListConfirmedSeats(_ context.Context) ([]ConfirmedSeats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ConfirmedSeats
	for _, b := range s.rows {
		if b.BookingStatus == model.BookingConfirmed {
			out = append(out, ConfirmedSeats{
				BookingID:  b.ID,
				ShowtimeID: b.ShowtimeID,
				SeatCodes:  b.SeatCodes(),
			})
		}
	}
	return out, nil
}

// status reads the current lifecycle state bypassing the engine.
func (s *memBookingStore) status(id uint64) model.BookingStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[id].BookingStatus
}

type memPaymentStore struct {
	mu    sync.Mutex
	byTxn map[string]*model.Payment
}

func newMemPaymentStore() *memPaymentStore {
	return &memPaymentStore{byTxn: make(map[string]*model.Payment)}
}

func (s *memPaymentStore) Create(_ context.Context, p *model.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byTxn[p.TransactionID]; ok {
		return ErrDuplicateTransaction
	}
	cp := *p
	cp.ID = uint64(len(s.byTxn) + 1)
	s.byTxn[p.TransactionID] = &cp
	p.ID = cp.ID
	return nil
}

func (s *memPaymentStore) GetByTransactionID(_ context.Context, transactionID string) (*model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byTxn[transactionID]
	if !ok {
		return nil, ErrBookingNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memPaymentStore) MarkRefunded(_ context.Context, bookingID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.byTxn {
		if p.BookingID == bookingID && p.Status == model.PaymentCompleted {
			p.Status = model.PaymentRefunded
			return nil
		}
	}
	return ErrBookingNotFound
}

func (s *memPaymentStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byTxn)
}

type memShowtimes struct {
	rows map[uint64]*model.Showtime
}

func (s *memShowtimes) GetByID(_ context.Context, id uint64) (*model.Showtime, error) {
	show, ok := s.rows[id]
	if !ok {
		return nil, ErrShowtimeNotFound
	}
	return show, nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	codes []string
}

func (n *recordingNotifier) BookingConfirmed(_ context.Context, b *model.Booking) {
	n.mu.Lock()
	n.codes = append(n.codes, b.Code)
	n.mu.Unlock()
}

// fakeClock mirrors the one used in the lock package tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// testRig bundles a fully wired engine over in-memory collaborators with
// showtime 1 holding seats A1/A2 (standard) and A3 (premium).
type testRig struct {
	engine   *Engine
	store    *ledger.Store
	locks    *lock.Manager
	bookings *memBookingStore
	payments *memPaymentStore
	notifier *recordingNotifier
	clock    *fakeClock
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()
	show := &model.Showtime{
		ID:         1,
		MovieTitle: "The Long Intermission",
		Theater:    "Grand Central",
		Auditorium: "Screen 2",
		StartsAt:   time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC),
		Seats: model.SeatMap{
			"A1": {Category: model.CategoryStandard, PriceCents: 1200},
			"A2": {Category: model.CategoryStandard, PriceCents: 1200},
			"A3": {Category: model.CategoryPremium, PriceCents: 1800},
		},
	}
	store := ledger.NewStore()
	store.Register(show.ID, show.Seats.SeatCodes())
	clock := newFakeClock()
	locks := lock.NewManagerWithClock(store, 15*time.Minute, clock.Now)
	bookings := newMemBookingStore()
	payments := newMemPaymentStore()
	notifier := &recordingNotifier{}
	engine := NewEngine(locks, &memShowtimes{rows: map[uint64]*model.Showtime{1: show}}, bookings, payments, notifier)
	return &testRig{
		engine:   engine,
		store:    store,
		locks:    locks,
		bookings: bookings,
		payments: payments,
		notifier: notifier,
		clock:    clock,
	}
}
