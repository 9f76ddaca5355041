package model

import "time"

// BookingStatus tracks where a booking sits in its lifecycle. The status
// only ever moves forward along the transitions driven by the booking
// engine; it is persisted before any client-observable side effect.
type BookingStatus string

const (
	BookingInitiated       BookingStatus = "initiated"
	BookingSeatsHeld       BookingStatus = "seats_held"
	BookingAwaitingPayment BookingStatus = "awaiting_payment"
	BookingConfirmed       BookingStatus = "confirmed"
	BookingExpired         BookingStatus = "expired"
	BookingCancelled       BookingStatus = "cancelled"
)

// PaymentStatus tracks the money side of a booking independently from the
// seat side. A refunded payment does not automatically re-free seats.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// BookingSeat is the immutable snapshot of one seat at booking time. Even
// if a later showtime revises pricing, the snapshot keeps the price the
// customer actually agreed to.
type BookingSeat struct {
	SeatCode   string       `json:"seat_code"`
	Category   SeatCategory `json:"category"`
	PriceCents uint32       `json:"price_cents"`
}

// Booking records a single checkout attempt for a set of seats in one
// showtime. It is created the instant a hold is acquired and terminates in
// confirmed, expired or cancelled; a confirmed booking may additionally see
// its payment refunded.
//
// Fields:
//
//	ID               – primary key identifier.
//	Code             – human-readable unique booking code (e.g. "BK-7GK2QD").
//	UserID           – authenticated customer, nil for guests.
//	GuestContact     – contact address for guest checkouts.
//	ShowtimeID       – showtime being booked.
//	Seats            – seat snapshot taken when the hold was acquired.
//	TotalAmountCents – sum of the seat snapshot prices.
//	PaymentMethod    – method chosen at checkout (e.g. "card").
//	PaymentStatus    – pending/completed/failed/refunded.
//	BookingStatus    – lifecycle state, owned by the booking engine.
//	HolderToken      – the hold that produced this booking.
//	CreatedAt        – creation timestamp.
//	UpdatedAt        – last transition timestamp.
type Booking struct {
	ID               uint64        `json:"id"`
	Code             string        `json:"code"`
	UserID           *uint64       `json:"user_id,omitempty"`
	GuestContact     string        `json:"guest_contact,omitempty"`
	ShowtimeID       uint64        `json:"showtime_id"`
	Seats            []BookingSeat `json:"seats"`
	TotalAmountCents uint32        `json:"total_amount_cents"`
	PaymentMethod    string        `json:"payment_method"`
	PaymentStatus    PaymentStatus `json:"payment_status"`
	BookingStatus    BookingStatus `json:"booking_status"`
	HolderToken      string        `json:"-"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// SeatCodes returns the seat codes of the booking's snapshot.
func (b *Booking) SeatCodes() []string {
	codes := make([]string, 0, len(b.Seats))
	for _, s := range b.Seats {
		codes = append(codes, s.SeatCode)
	}
	return codes
}
