package booking

import (
	"context"
	"log"

	"github.com/cinehall/booking-engine/internal/lock"
	"github.com/cinehall/booking-engine/internal/model"
)

// Gateway callback statuses accepted on the payment webhook.
const (
	CallbackSuccess = "success"
	CallbackFailure = "failure"
)

// CallbackResult reports what the reconciler did with a gateway callback.
// Replayed is true when the transaction id had already been processed and
// the call was a no-op returning the recorded outcome.
type CallbackResult struct {
	BookingCode   string              `json:"booking_code"`
	BookingStatus model.BookingStatus `json:"booking_status"`
	PaymentStatus model.PaymentStatus `json:"payment_status"`
	Replayed      bool                `json:"replayed"`
}

// HandlePaymentCallback translates a gateway callback into booking state
// transitions, idempotently. Gateways retry webhooks, so the same
// transaction id may arrive any number of times; only the first delivery
// has any effect.
//
// Success path: the hold is promoted to permanent occupancy and the
// booking becomes confirmed. When the hold expired exactly at confirmation
// time, promotion fails atomically; the booking then goes to expired with
// its captured payment marked refunded; the client sees a modeled
// outcome, not a 500.
// Failure path: the booking is cancelled and the seats are released so the
// customer can retry with a fresh hold.
func (e *Engine) HandlePaymentCallback(ctx context.Context, transactionID, status, bookingCode, gatewayResponse string) (*CallbackResult, error) {
	if prev, err := e.payments.GetByTransactionID(ctx, transactionID); err == nil {
		return e.replayedResult(ctx, prev, bookingCode)
	}

	b, err := e.bookings.GetByCode(ctx, bookingCode)
	if err != nil {
		return nil, err
	}

	switch status {
	case CallbackSuccess:
		return e.reconcileSuccess(ctx, transactionID, gatewayResponse, b)
	default:
		return e.reconcileFailure(ctx, transactionID, gatewayResponse, b)
	}
}

func (e *Engine) reconcileSuccess(ctx context.Context, transactionID, gatewayResponse string, b *model.Booking) (*CallbackResult, error) {
	// A success callback is only meaningful after checkout. Refusing here
	// keeps the hold intact; promoting first would strand OCCUPIED seats
	// behind a booking that can never confirm.
	if b.BookingStatus != model.BookingAwaitingPayment {
		return nil, ErrStaleStatus
	}

	if err := e.locks.Promote(b.HolderToken, b.ID); err == lock.ErrHoldExpired {
		// The hold died between payment capture and confirmation. Money
		// was taken for seats we can no longer guarantee, so the payment
		// is recorded as refunded and the booking expires.
		log.Printf("booking: promotion failed for %s, refunding txn %s", b.Code, transactionID)
		if err := e.recordPayment(ctx, transactionID, gatewayResponse, b.ID, model.PaymentRefunded); err != nil {
			return e.maybeReplay(ctx, transactionID, b.Code, err)
		}
		_ = e.bookings.SetPaymentStatus(ctx, b.ID, model.PaymentRefunded)
		stErr := e.bookings.UpdateStatus(ctx, b.ID,
			[]model.BookingStatus{model.BookingSeatsHeld, model.BookingAwaitingPayment},
			model.BookingExpired)
		if stErr != nil && stErr != ErrStaleStatus {
			return nil, stErr
		}
		return &CallbackResult{
			BookingCode:   b.Code,
			BookingStatus: model.BookingExpired,
			PaymentStatus: model.PaymentRefunded,
		}, nil
	} else if err != nil {
		return nil, err
	}

	if err := e.bookings.UpdateStatus(ctx, b.ID,
		[]model.BookingStatus{model.BookingAwaitingPayment}, model.BookingConfirmed); err != nil {
		return nil, err
	}
	if err := e.recordPayment(ctx, transactionID, gatewayResponse, b.ID, model.PaymentCompleted); err != nil {
		return e.maybeReplay(ctx, transactionID, b.Code, err)
	}
	_ = e.bookings.SetPaymentStatus(ctx, b.ID, model.PaymentCompleted)

	b.BookingStatus = model.BookingConfirmed
	b.PaymentStatus = model.PaymentCompleted
	if e.notifier != nil {
		e.notifier.BookingConfirmed(ctx, b)
	}
	return &CallbackResult{
		BookingCode:   b.Code,
		BookingStatus: model.BookingConfirmed,
		PaymentStatus: model.PaymentCompleted,
	}, nil
}

func (e *Engine) reconcileFailure(ctx context.Context, transactionID, gatewayResponse string, b *model.Booking) (*CallbackResult, error) {
	// A failure callback can only cancel a booking that is still in
	// flight. A confirmed booking must keep its completed payment and
	// OCCUPIED seats; a stray gateway retry does not unwind it.
	if b.BookingStatus != model.BookingSeatsHeld && b.BookingStatus != model.BookingAwaitingPayment {
		return nil, ErrStaleStatus
	}

	if err := e.recordPayment(ctx, transactionID, gatewayResponse, b.ID, model.PaymentFailed); err != nil {
		return e.maybeReplay(ctx, transactionID, b.Code, err)
	}
	_ = e.bookings.SetPaymentStatus(ctx, b.ID, model.PaymentFailed)
	stErr := e.bookings.UpdateStatus(ctx, b.ID,
		[]model.BookingStatus{model.BookingSeatsHeld, model.BookingAwaitingPayment},
		model.BookingCancelled)
	if stErr != nil && stErr != ErrStaleStatus {
		return nil, stErr
	}
	e.locks.Release(b.HolderToken)
	return &CallbackResult{
		BookingCode:   b.Code,
		BookingStatus: model.BookingCancelled,
		PaymentStatus: model.PaymentFailed,
	}, nil
}

// recordPayment inserts the transaction row that makes this callback
// processed-exactly-once. The unique transaction_id constraint is the
// arbiter when two replays race past the initial lookup.
func (e *Engine) recordPayment(ctx context.Context, transactionID, gatewayResponse string, bookingID uint64, status model.PaymentStatus) error {
	return e.payments.Create(ctx, &model.Payment{
		BookingID:       bookingID,
		TransactionID:   transactionID,
		Status:          status,
		GatewayResponse: gatewayResponse,
		ProcessedAt:     e.now().UTC(),
	})
}

// maybeReplay turns a duplicate-transaction insert race into the replay
// outcome; any other error propagates.
func (e *Engine) maybeReplay(ctx context.Context, transactionID, bookingCode string, err error) (*CallbackResult, error) {
	if err != ErrDuplicateTransaction {
		return nil, err
	}
	prev, getErr := e.payments.GetByTransactionID(ctx, transactionID)
	if getErr != nil {
		return nil, getErr
	}
	return e.replayedResult(ctx, prev, bookingCode)
}

// replayedResult builds the no-op response for an already-processed
// transaction from the stored payment and the booking's current state.
func (e *Engine) replayedResult(ctx context.Context, p *model.Payment, bookingCode string) (*CallbackResult, error) {
	res := &CallbackResult{
		BookingCode:   bookingCode,
		PaymentStatus: p.Status,
		Replayed:      true,
	}
	if b, err := e.bookings.GetByCode(ctx, bookingCode); err == nil {
		res.BookingStatus = b.BookingStatus
		res.PaymentStatus = b.PaymentStatus
	}
	return res, nil
}
