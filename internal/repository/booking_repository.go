package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/cinehall/booking-engine/internal/booking"
	"github.com/cinehall/booking-engine/internal/model"
)

// BookingRepo persists bookings and their seat snapshots. Booking rows are
// append-mostly: after creation only the status columns and the checkout
// fields change, and status moves exclusively through the optimistic
// expected-status UPDATE in UpdateStatus.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// Create inserts the booking together with its seat snapshot in one
// transaction and populates the generated ID.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const q = `INSERT INTO bookings
        (code, user_id, guest_contact, showtime_id, total_amount_cents, payment_method, payment_status, booking_status, holder_token)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		b.Code, b.UserID, b.GuestContact, b.ShowtimeID, b.TotalAmountCents,
		b.PaymentMethod, string(b.PaymentStatus), string(b.BookingStatus), b.HolderToken)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)

	if len(b.Seats) > 0 {
		query := `INSERT INTO booking_seats (booking_id, seat_code, category, price_cents) VALUES `
		args := make([]interface{}, 0, len(b.Seats)*4)
		for i, s := range b.Seats {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?, ?)"
			args = append(args, b.ID, s.SeatCode, string(s.Category), s.PriceCents)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByCode loads a booking and its seats by booking code.
func (r *BookingRepo) GetByCode(ctx context.Context, code string) (*model.Booking, error) {
	return r.getWhere(ctx, "code = ?", code)
}

// GetByToken loads a booking and its seats by holder token.
func (r *BookingRepo) GetByToken(ctx context.Context, holderToken string) (*model.Booking, error) {
	return r.getWhere(ctx, "holder_token = ?", holderToken)
}

func (r *BookingRepo) getWhere(ctx context.Context, where string, arg interface{}) (*model.Booking, error) {
	q := `SELECT id, code, user_id, guest_contact, showtime_id, total_amount_cents,
                 payment_method, payment_status, booking_status, holder_token, created_at, updated_at
          FROM bookings WHERE ` + where
	var b model.Booking
	var userID sql.NullInt64
	err := r.db.QueryRowContext(ctx, q, arg).Scan(
		&b.ID, &b.Code, &userID, &b.GuestContact, &b.ShowtimeID, &b.TotalAmountCents,
		&b.PaymentMethod, &b.PaymentStatus, &b.BookingStatus, &b.HolderToken,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		uid := uint64(userID.Int64)
		b.UserID = &uid
	}

	const seatsQ = `SELECT seat_code, category, price_cents FROM booking_seats WHERE booking_id = ? ORDER BY seat_code`
	rows, err := r.db.QueryContext(ctx, seatsQ, b.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var s model.BookingSeat
		var category string
		if err := rows.Scan(&s.SeatCode, &category, &s.PriceCents); err != nil {
			return nil, err
		}
		s.Category = model.SeatCategory(category)
		b.Seats = append(b.Seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &b, nil
}

// UpdateStatus moves the booking to the target status if and only if its
// current status is one of the expected ones. A zero-row update means
// another event already won the race and is reported as ErrStaleStatus.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, from []model.BookingStatus, to model.BookingStatus) error {
	placeholders := make([]string, len(from))
	args := make([]interface{}, 0, len(from)+2)
	args = append(args, string(to), id)
	for i, st := range from {
		placeholders[i] = "?"
		args = append(args, string(st))
	}
	q := `UPDATE bookings SET booking_status = ?, updated_at = UTC_TIMESTAMP()
          WHERE id = ? AND booking_status IN (` + strings.Join(placeholders, ",") + `)`
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return booking.ErrStaleStatus
	}
	return nil
}

// SetCheckout records the customer identity and payment method chosen on
// the checkout form.
func (r *BookingRepo) SetCheckout(ctx context.Context, id uint64, userID *uint64, guestContact, paymentMethod string) error {
	const q = `UPDATE bookings SET user_id = ?, guest_contact = ?, payment_method = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, userID, guestContact, paymentMethod, id)
	return err
}

// SetPaymentStatus records the money-side status on the booking row.
func (r *BookingRepo) SetPaymentStatus(ctx context.Context, id uint64, status model.PaymentStatus) error {
	const q = `UPDATE bookings SET payment_status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, string(status), id)
	return err
}

// ListConfirmedSeats returns the seat claims of every confirmed booking so
// the ledger can be rewarmed after a restart.
func (r *BookingRepo) ListConfirmedSeats(ctx context.Context) ([]booking.ConfirmedSeats, error) {
	const q = `SELECT b.id, b.showtime_id, s.seat_code
               FROM bookings b JOIN booking_seats s ON s.booking_id = b.id
               WHERE b.booking_status = ?
               ORDER BY b.id`
	rows, err := r.db.QueryContext(ctx, q, string(model.BookingConfirmed))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []booking.ConfirmedSeats
	byID := make(map[uint64]int)
	for rows.Next() {
		var id, showtimeID uint64
		var seatCode string
		if err := rows.Scan(&id, &showtimeID, &seatCode); err != nil {
			return nil, err
		}
		idx, ok := byID[id]
		if !ok {
			out = append(out, booking.ConfirmedSeats{BookingID: id, ShowtimeID: showtimeID})
			idx = len(out) - 1
			byID[id] = idx
		}
		out[idx].SeatCodes = append(out[idx].SeatCodes, seatCode)
	}
	return out, rows.Err()
}

var _ booking.BookingStore = (*BookingRepo)(nil)
