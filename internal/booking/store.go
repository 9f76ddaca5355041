// Package booking owns the booking lifecycle: it creates bookings the
// moment a hold is acquired, drives every status transition from exactly
// one external event (lock manager result, payment callback, sweeper tick,
// user or admin action) and persists each transition before any
// client-observable side effect.
package booking

import (
	"context"
	"errors"

	"github.com/cinehall/booking-engine/internal/model"
)

// ErrBookingNotFound is returned when no booking matches the given code or
// holder token.
var ErrBookingNotFound = errors.New("booking not found")

// ErrStaleStatus is returned by a status update whose expected-status
// precondition no longer holds. It means another event won the race; the
// caller must re-read and decide again.
var ErrStaleStatus = errors.New("booking status changed concurrently")

// ErrDuplicateTransaction is returned when inserting a payment whose
// transaction id was already recorded. The reconciler treats it as a
// replayed callback.
var ErrDuplicateTransaction = errors.New("transaction already processed")

// ErrShowtimeNotFound is returned when a reservation references an unknown
// showtime.
var ErrShowtimeNotFound = errors.New("showtime not found")

// BookingStore persists bookings. Status updates are optimistic: the write
// names the statuses it expects, and ErrStaleStatus reports a lost race.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	GetByCode(ctx context.Context, code string) (*model.Booking, error)
	GetByToken(ctx context.Context, holderToken string) (*model.Booking, error)
	// UpdateStatus moves the booking to the target status iff its current
	// status is one of from. Returns ErrStaleStatus otherwise.
	UpdateStatus(ctx context.Context, id uint64, from []model.BookingStatus, to model.BookingStatus) error
	// SetCheckout attaches customer identity and payment method at checkout.
	SetCheckout(ctx context.Context, id uint64, userID *uint64, guestContact, paymentMethod string) error
	// SetPaymentStatus records the money-side status on the booking row.
	SetPaymentStatus(ctx context.Context, id uint64, status model.PaymentStatus) error
	// ListConfirmedSeats returns showtime id, booking id and seat codes of
	// every confirmed booking, used to rewarm the seat ledger at startup.
	ListConfirmedSeats(ctx context.Context) ([]ConfirmedSeats, error)
}

// ConfirmedSeats is one confirmed booking's claim on its seats, as needed
// for ledger rewarming.
type ConfirmedSeats struct {
	BookingID  uint64
	ShowtimeID uint64
	SeatCodes  []string
}

// PaymentStore persists gateway transactions. TransactionID carries a
// unique constraint; Create returns ErrDuplicateTransaction on replay.
type PaymentStore interface {
	Create(ctx context.Context, p *model.Payment) error
	GetByTransactionID(ctx context.Context, transactionID string) (*model.Payment, error)
	// MarkRefunded flips the recorded payment of a booking to refunded.
	MarkRefunded(ctx context.Context, bookingID uint64) error
}

// ShowtimeSource resolves showtimes for reservation requests. It is
// read-only here; publishing lives in the repository layer.
type ShowtimeSource interface {
	GetByID(ctx context.Context, id uint64) (*model.Showtime, error)
}

// ConfirmationNotifier receives confirmed bookings after the transition is
// persisted, e.g. to publish a broker event that triggers e-ticket
// issuance. Failures are the notifier's problem; the booking is already
// confirmed.
type ConfirmationNotifier interface {
	BookingConfirmed(ctx context.Context, b *model.Booking)
}
