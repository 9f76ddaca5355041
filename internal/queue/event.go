// Package queue defines message payloads exchanged over the message broker
// and the background consumer that turns confirmations into e-tickets.
package queue

// BookingConfirmedEvent is published when a booking reaches confirmed. It
// carries everything downstream consumers need to issue the e-ticket and
// notify the customer without querying the primary database.
type BookingConfirmedEvent struct {
	BookingCode      string   `json:"booking_code"`
	ShowtimeID       uint64   `json:"showtime_id"`
	MovieTitle       string   `json:"movie_title"`
	Theater          string   `json:"theater"`
	Auditorium       string   `json:"auditorium"`
	StartsAt         string   `json:"starts_at"`
	SeatCodes        []string `json:"seats"`
	TotalAmountCents uint32   `json:"total_amount_cents"`
	GuestContact     string   `json:"guest_contact,omitempty"`
	ConfirmedAt      string   `json:"confirmed_at"`
}
