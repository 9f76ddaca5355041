package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cinehall/booking-engine/internal/booking"
	"github.com/cinehall/booking-engine/internal/model"
)

// PaymentRepo persists gateway transactions. The unique key on
// transaction_id is what makes webhook processing idempotent: a replayed
// callback trips the constraint instead of creating a second payment.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// Create inserts a payment row. Returns booking.ErrDuplicateTransaction
// when the transaction id was already recorded.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	const q = `INSERT INTO payments (booking_id, transaction_id, status, gateway_response, processed_at)
               VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		p.BookingID, p.TransactionID, string(p.Status), p.GatewayResponse,
		p.ProcessedAt.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		if isDuplicateEntry(err) {
			return booking.ErrDuplicateTransaction
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByTransactionID loads the payment recorded for a gateway transaction.
// Returns sql.ErrNoRows untouched when the id is unknown; callers only
// test for presence.
func (r *PaymentRepo) GetByTransactionID(ctx context.Context, transactionID string) (*model.Payment, error) {
	const q = `SELECT id, booking_id, transaction_id, status, gateway_response, processed_at
               FROM payments WHERE transaction_id = ?`
	var p model.Payment
	var status string
	err := r.db.QueryRowContext(ctx, q, transactionID).Scan(
		&p.ID, &p.BookingID, &p.TransactionID, &status, &p.GatewayResponse, &p.ProcessedAt)
	if err != nil {
		return nil, err
	}
	p.Status = model.PaymentStatus(status)
	return &p, nil
}

// MarkRefunded flips the booking's recorded payment to refunded.
func (r *PaymentRepo) MarkRefunded(ctx context.Context, bookingID uint64) error {
	const q = `UPDATE payments SET status = ? WHERE booking_id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q,
		string(model.PaymentRefunded), bookingID, string(model.PaymentCompleted))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.New("no completed payment to refund")
	}
	return nil
}

var _ booking.PaymentStore = (*PaymentRepo)(nil)
