package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinehall/booking-engine/internal/booking"
	"github.com/cinehall/booking-engine/internal/model"
)

// awaitingPayment walks a fresh reservation to awaiting_payment and
// returns its reservation result.
func awaitingPayment(t *testing.T, rig *handlerRig, seats ...string) *booking.ReserveResult {
	t.Helper()
	ctx := contextOf(t)
	res, err := rig.engine.Reserve(ctx, 1, seats)
	require.NoError(t, err)
	_, err = rig.engine.Checkout(ctx, res.Hold.Token, nil, "guest@example.com", "card")
	require.NoError(t, err)
	return res
}

func TestWebhookPaymentSuccess(t *testing.T) {
	rig := newHandlerRig(t)
	h := NewWebhookHandler(rig.engine)
	res := awaitingPayment(t, rig, "A1")

	c, rec := rig.jsonRequest(http.MethodPost, "/v1/webhooks/payment", fmt.Sprintf(
		`{"transaction_id":"txn-w1","status":"success","booking_code":%q,"gateway_response":"{}"}`,
		res.Booking.Code))
	require.NoError(t, h.Payment(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var out booking.CallbackResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, res.Booking.Code, out.BookingCode)
	assert.Equal(t, model.BookingConfirmed, out.BookingStatus)
	assert.Equal(t, model.PaymentCompleted, out.PaymentStatus)
	assert.False(t, out.Replayed)
}

func TestWebhookPaymentReplay(t *testing.T) {
	rig := newHandlerRig(t)
	h := NewWebhookHandler(rig.engine)
	res := awaitingPayment(t, rig, "A1")

	body := fmt.Sprintf(
		`{"transaction_id":"txn-w2","status":"success","booking_code":%q}`, res.Booking.Code)

	c, rec := rig.jsonRequest(http.MethodPost, "/v1/webhooks/payment", body)
	require.NoError(t, h.Payment(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// Gateway retry: same transaction id, same 200, replay flagged.
	c, rec = rig.jsonRequest(http.MethodPost, "/v1/webhooks/payment", body)
	require.NoError(t, h.Payment(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var out booking.CallbackResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, out.Replayed)
	assert.Equal(t, model.BookingConfirmed, out.BookingStatus)
}

func TestWebhookPaymentFailure(t *testing.T) {
	rig := newHandlerRig(t)
	h := NewWebhookHandler(rig.engine)
	res := awaitingPayment(t, rig, "A1", "A2")

	c, rec := rig.jsonRequest(http.MethodPost, "/v1/webhooks/payment", fmt.Sprintf(
		`{"transaction_id":"txn-w3","status":"failure","booking_code":%q}`, res.Booking.Code))
	require.NoError(t, h.Payment(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var out booking.CallbackResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, model.BookingCancelled, out.BookingStatus)
	assert.Equal(t, model.PaymentFailed, out.PaymentStatus)
}

func TestWebhookPaymentValidation(t *testing.T) {
	rig := newHandlerRig(t)
	h := NewWebhookHandler(rig.engine)

	cases := []struct {
		name string
		body string
		code int
	}{
		{"missing transaction id", `{"status":"success","booking_code":"BK-AAAAAA"}`, http.StatusBadRequest},
		{"missing status", `{"transaction_id":"t","booking_code":"BK-AAAAAA"}`, http.StatusBadRequest},
		{"unknown booking", `{"transaction_id":"t","status":"success","booking_code":"BK-AAAAAA"}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := rig.jsonRequest(http.MethodPost, "/v1/webhooks/payment", tc.body)
			require.NoError(t, h.Payment(c))
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestWebhookPaymentBeforeCheckout(t *testing.T) {
	rig := newHandlerRig(t)
	h := NewWebhookHandler(rig.engine)

	res, err := rig.engine.Reserve(contextOf(t), 1, []string{"A1"})
	require.NoError(t, err)

	// Success lands while the booking is still seats_held. The callback is
	// refused with a conflict and the hold stays alive.
	c, rec := rig.jsonRequest(http.MethodPost, "/v1/webhooks/payment", fmt.Sprintf(
		`{"transaction_id":"txn-w4","status":"success","booking_code":%q}`, res.Booking.Code))
	require.NoError(t, h.Payment(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}
