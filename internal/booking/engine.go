package booking

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cinehall/booking-engine/internal/lock"
	"github.com/cinehall/booking-engine/internal/model"
)

// Engine is the booking state machine. It is the only writer of
// Booking.booking_status, and it speaks to seat state exclusively through
// the lock manager; neither side reaches into the other's storage.
type Engine struct {
	locks     *lock.Manager
	showtimes ShowtimeSource
	bookings  BookingStore
	payments  PaymentStore
	notifier  ConfirmationNotifier
	now       func() time.Time
}

// NewEngine wires the state machine to its collaborators. notifier may be
// nil when confirmations need no fan-out (e.g. in tests).
func NewEngine(locks *lock.Manager, showtimes ShowtimeSource, bookings BookingStore, payments PaymentStore, notifier ConfirmationNotifier) *Engine {
	return &Engine{
		locks:     locks,
		showtimes: showtimes,
		bookings:  bookings,
		payments:  payments,
		notifier:  notifier,
		now:       time.Now,
	}
}

// ReserveResult is what a successful reservation hands back to the API:
// the hold for the client to renew or release, and the booking created
// around it.
type ReserveResult struct {
	Hold    *lock.Hold
	Booking *model.Booking
}

// Reserve acquires a hold on the requested seats and creates the owning
// booking. The booking is persisted as initiated and moved to seats_held
// before the result is returned, so the caller never observes a booking
// the store does not know about. On any persistence failure after the hold
// was acquired, the hold is released so no seats leak.
func (e *Engine) Reserve(ctx context.Context, showtimeID uint64, seatCodes []string) (*ReserveResult, error) {
	show, err := e.showtimes.GetByID(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	for _, code := range seatCodes {
		if _, ok := show.Seats[code]; !ok {
			return nil, fmt.Errorf("%w: %s", lock.ErrUnknownSeat, code)
		}
	}

	hold, err := e.locks.Reserve(showtimeID, seatCodes)
	if err != nil {
		return nil, err
	}

	code, err := newBookingCode()
	if err != nil {
		e.locks.Release(hold.Token)
		return nil, err
	}

	seats := make([]model.BookingSeat, 0, len(hold.SeatCodes))
	var total uint32
	for _, sc := range hold.SeatCodes {
		info := show.Seats[sc]
		seats = append(seats, model.BookingSeat{
			SeatCode:   sc,
			Category:   info.Category,
			PriceCents: info.PriceCents,
		})
		total += info.PriceCents
	}

	b := &model.Booking{
		Code:             code,
		ShowtimeID:       showtimeID,
		Seats:            seats,
		TotalAmountCents: total,
		PaymentStatus:    model.PaymentPending,
		BookingStatus:    model.BookingInitiated,
		HolderToken:      hold.Token,
		CreatedAt:        e.now().UTC(),
		UpdatedAt:        e.now().UTC(),
	}
	if err := e.bookings.Create(ctx, b); err != nil {
		e.locks.Release(hold.Token)
		return nil, err
	}
	if err := e.bookings.UpdateStatus(ctx, b.ID,
		[]model.BookingStatus{model.BookingInitiated}, model.BookingSeatsHeld); err != nil {
		e.locks.Release(hold.Token)
		// The row already exists and the sweeper only finds bookings by
		// hold token, so park it in a terminal state instead of leaving
		// it initiated forever.
		_ = e.bookings.UpdateStatus(ctx, b.ID,
			[]model.BookingStatus{model.BookingInitiated}, model.BookingCancelled)
		return nil, err
	}
	b.BookingStatus = model.BookingSeatsHeld
	return &ReserveResult{Hold: hold, Booking: b}, nil
}

// Renew extends the hold behind a reservation.
func (e *Engine) Renew(token string) (time.Time, error) {
	return e.locks.Renew(token)
}

// Checkout attaches the customer and payment method to the booking behind
// the hold and moves it to awaiting_payment. The hold must still be alive.
func (e *Engine) Checkout(ctx context.Context, token string, userID *uint64, guestContact, paymentMethod string) (*model.Booking, error) {
	if _, ok := e.locks.Lookup(token); !ok {
		return nil, lock.ErrHoldExpired
	}
	b, err := e.bookings.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := e.bookings.SetCheckout(ctx, b.ID, userID, guestContact, paymentMethod); err != nil {
		return nil, err
	}
	if err := e.bookings.UpdateStatus(ctx, b.ID,
		[]model.BookingStatus{model.BookingSeatsHeld}, model.BookingAwaitingPayment); err != nil {
		return nil, err
	}
	b.UserID = userID
	b.GuestContact = guestContact
	b.PaymentMethod = paymentMethod
	b.BookingStatus = model.BookingAwaitingPayment
	return b, nil
}

// Cancel is the user-initiated release of a reservation: the booking moves
// to cancelled and the seats return to the pool. Cancelling a reservation
// that already expired or was released is a no-op.
func (e *Engine) Cancel(ctx context.Context, token string) error {
	b, err := e.bookings.GetByToken(ctx, token)
	if err == nil {
		err = e.bookings.UpdateStatus(ctx, b.ID,
			[]model.BookingStatus{model.BookingSeatsHeld, model.BookingAwaitingPayment},
			model.BookingCancelled)
		if err != nil && err != ErrStaleStatus {
			return err
		}
	} else if err != ErrBookingNotFound {
		return err
	}
	e.locks.Release(token)
	return nil
}

// ExpireHold is the sweeper callback: the hold's seats are already back in
// the pool, so the owning booking transitions to expired. Races with a
// concurrent cancel or confirmation lose quietly via the expected-status
// precondition.
func (e *Engine) ExpireHold(hold *lock.Hold) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	b, err := e.bookings.GetByToken(ctx, hold.Token)
	if err != nil {
		log.Printf("booking: expire sweep: lookup hold %s: %v", hold.Token, err)
		return
	}
	err = e.bookings.UpdateStatus(ctx, b.ID,
		[]model.BookingStatus{model.BookingInitiated, model.BookingSeatsHeld, model.BookingAwaitingPayment},
		model.BookingExpired)
	if err != nil && err != ErrStaleStatus {
		log.Printf("booking: expire sweep: booking %s: %v", b.Code, err)
	}
}

// GetByCode fetches a booking for API reads.
func (e *Engine) GetByCode(ctx context.Context, code string) (*model.Booking, error) {
	return e.bookings.GetByCode(ctx, code)
}

// Refund marks a confirmed booking's payment as refunded. Seats stay
// OCCUPIED: whether to re-sell them is a separate admin decision, made via
// ReleaseSeats.
func (e *Engine) Refund(ctx context.Context, bookingCode string) (*model.Booking, error) {
	b, err := e.bookings.GetByCode(ctx, bookingCode)
	if err != nil {
		return nil, err
	}
	if b.BookingStatus != model.BookingConfirmed || b.PaymentStatus != model.PaymentCompleted {
		return nil, ErrStaleStatus
	}
	if err := e.payments.MarkRefunded(ctx, b.ID); err != nil {
		return nil, err
	}
	if err := e.bookings.SetPaymentStatus(ctx, b.ID, model.PaymentRefunded); err != nil {
		return nil, err
	}
	b.PaymentStatus = model.PaymentRefunded
	return b, nil
}

// ReleaseSeats returns a refunded booking's seats to the pool.
func (e *Engine) ReleaseSeats(ctx context.Context, bookingCode string) error {
	b, err := e.bookings.GetByCode(ctx, bookingCode)
	if err != nil {
		return err
	}
	if b.PaymentStatus != model.PaymentRefunded {
		return ErrStaleStatus
	}
	e.locks.Vacate(b.ShowtimeID, b.SeatCodes(), b.ID)
	return nil
}

// RewarmLedger re-marks the seats of every confirmed booking as OCCUPIED.
// Called once at startup, before the HTTP listener accepts traffic.
func (e *Engine) RewarmLedger(ctx context.Context, mark func(showtimeID uint64, seatCode string, bookingID uint64)) error {
	confirmed, err := e.bookings.ListConfirmedSeats(ctx)
	if err != nil {
		return err
	}
	for _, c := range confirmed {
		for _, seat := range c.SeatCodes {
			mark(c.ShowtimeID, seat, c.BookingID)
		}
	}
	return nil
}
