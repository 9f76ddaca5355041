package model

import "time"

// Payment records the outcome of one gateway transaction for a booking.
// TransactionID is the gateway's idempotency key: the reconciler refuses to
// process the same id twice, which is what makes webhook replays safe.
//
// Fields:
//
//	ID              – primary key identifier.
//	BookingID       – booking this transaction belongs to.
//	TransactionID   – unique gateway transaction id (idempotency key).
//	Status          – terminal status recorded for this transaction.
//	GatewayResponse – raw response payload kept for audits and disputes.
//	ProcessedAt     – when the reconciler finished processing the callback.
type Payment struct {
	ID              uint64        `json:"id"`
	BookingID       uint64        `json:"booking_id"`
	TransactionID   string        `json:"transaction_id"`
	Status          PaymentStatus `json:"status"`
	GatewayResponse string        `json:"gateway_response,omitempty"`
	ProcessedAt     time.Time     `json:"processed_at"`
}
