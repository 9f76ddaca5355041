package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cinehall/booking-engine/internal/booking"
	"github.com/cinehall/booking-engine/internal/ledger"
	"github.com/cinehall/booking-engine/internal/lock"
	"github.com/cinehall/booking-engine/internal/model"
)

// Minimal in-memory implementations of the engine's storage contracts,
// enough to drive the HTTP layer without a database.

type memBookings struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]*model.Booking
}

func newMemBookings() *memBookings {
	return &memBookings{rows: make(map[uint64]*model.Booking)}
}

func (s *memBookings) Create(_ context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	b.ID = s.nextID
	cp := *b
	cp.Seats = append([]model.BookingSeat(nil), b.Seats...)
	s.rows[b.ID] = &cp
	return nil
}

func (s *memBookings) find(match func(*model.Booking) bool) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.rows {
		if match(b) {
			cp := *b
			cp.Seats = append([]model.BookingSeat(nil), b.Seats...)
			return &cp, nil
		}
	}
	return nil, booking.ErrBookingNotFound
}

func (s *memBookings) GetByCode(_ context.Context, code string) (*model.Booking, error) {
	return s.find(func(b *model.Booking) bool { return b.Code == code })
}

func (s *memBookings) GetByToken(_ context.Context, token string) (*model.Booking, error) {
	return s.find(func(b *model.Booking) bool { return b.HolderToken == token })
}

func (s *memBookings) UpdateStatus(_ context.Context, id uint64, from []model.BookingStatus, to model.BookingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rows[id]
	if !ok {
		return booking.ErrBookingNotFound
	}
	for _, st := range from {
		if b.BookingStatus == st {
			b.BookingStatus = to
			return nil
		}
	}
	return booking.ErrStaleStatus
}

func (s *memBookings) SetCheckout(_ context.Context, id uint64, userID *uint64, guestContact, paymentMethod string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rows[id]
	if !ok {
		return booking.ErrBookingNotFound
	}
	b.UserID = userID
	b.GuestContact = guestContact
	b.PaymentMethod = paymentMethod
	return nil
}

func (s *memBookings) SetPaymentStatus(_ context.Context, id uint64, status model.PaymentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rows[id]
	if !ok {
		return booking.ErrBookingNotFound
	}
	b.PaymentStatus = status
	return nil
}

func (s *memBookings) ListConfirmedSeats(_ context.Context) ([]booking.ConfirmedSeats, error) {
	return nil, nil
}

type memPayments struct {
	mu    sync.Mutex
	byTxn map[string]*model.Payment
}

func newMemPayments() *memPayments {
	return &memPayments{byTxn: make(map[string]*model.Payment)}
}

func (s *memPayments) Create(_ context.Context, p *model.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byTxn[p.TransactionID]; ok {
		return booking.ErrDuplicateTransaction
	}
	cp := *p
	s.byTxn[p.TransactionID] = &cp
	return nil
}

func (s *memPayments) GetByTransactionID(_ context.Context, transactionID string) (*model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byTxn[transactionID]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memPayments) MarkRefunded(_ context.Context, bookingID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.byTxn {
		if p.BookingID == bookingID && p.Status == model.PaymentCompleted {
			p.Status = model.PaymentRefunded
			return nil
		}
	}
	return booking.ErrBookingNotFound
}

type memShows struct {
	rows map[uint64]*model.Showtime
}

func (s *memShows) GetByID(_ context.Context, id uint64) (*model.Showtime, error) {
	show, ok := s.rows[id]
	if !ok {
		return nil, booking.ErrShowtimeNotFound
	}
	return show, nil
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
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

type handlerRig struct {
	engine *booking.Engine
	locks  *lock.Manager
	clock  *fakeClock
	echo   *echo.Echo
}

func newHandlerRig(t *testing.T) *handlerRig {
	t.Helper()
	show := &model.Showtime{
		ID:         1,
		MovieTitle: "Night Train",
		Theater:    "Grand Central",
		Auditorium: "Screen 1",
		StartsAt:   time.Date(2026, 4, 1, 20, 0, 0, 0, time.UTC),
		Seats: model.SeatMap{
			"A1": {Category: model.CategoryStandard, PriceCents: 1200},
			"A2": {Category: model.CategoryStandard, PriceCents: 1200},
			"B7": {Category: model.CategoryVIP, PriceCents: 2500},
		},
	}
	store := ledger.NewStore()
	store.Register(show.ID, show.Seats.SeatCodes())
	clock := &fakeClock{t: time.Date(2026, 4, 1, 18, 0, 0, 0, time.UTC)}
	locks := lock.NewManagerWithClock(store, 15*time.Minute, clock.Now)
	engine := booking.NewEngine(locks,
		&memShows{rows: map[uint64]*model.Showtime{1: show}},
		newMemBookings(), newMemPayments(), nil)
	return &handlerRig{engine: engine, locks: locks, clock: clock, echo: echo.New()}
}

func contextOf(t *testing.T) context.Context {
	t.Helper()
	return context.Background()
}

// jsonRequest builds an echo context around a JSON request, returning it
// with the recorder capturing the response.
func (r *handlerRig) jsonRequest(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return r.echo.NewContext(req, rec), rec
}
