package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cinehall/booking-engine/internal/booking"
)

// WebhookHandler receives payment gateway callbacks. Gateways retry
// deliveries aggressively, so the handler must answer 200 for replays of a
// transaction it already processed. The reconciler guarantees no
// double-confirm or double-refund behind that 200.
type WebhookHandler struct {
	Engine *booking.Engine
}

// NewWebhookHandler constructs a WebhookHandler. The engine must be
// non-nil.
func NewWebhookHandler(engine *booking.Engine) *WebhookHandler {
	if engine == nil {
		panic("nil engine passed to NewWebhookHandler")
	}
	return &WebhookHandler{Engine: engine}
}

// Payment handles POST /v1/webhooks/payment. The body carries the gateway
// transaction id (the idempotency key), the terminal status and the
// booking code the transaction pays for.
func (h *WebhookHandler) Payment(c echo.Context) error {
	var body struct {
		TransactionID   string `json:"transaction_id"`
		Status          string `json:"status"`
		BookingCode     string `json:"booking_code"`
		GatewayResponse string `json:"gateway_response"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.TransactionID == "" || body.Status == "" || body.BookingCode == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "transaction_id, status and booking_code are required"})
	}

	result, err := h.Engine.HandlePaymentCallback(c.Request().Context(),
		body.TransactionID, body.Status, body.BookingCode, body.GatewayResponse)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case errors.Is(err, booking.ErrStaleStatus):
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking state does not accept this callback"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to process callback"})
	}
	return c.JSON(http.StatusOK, result)
}
