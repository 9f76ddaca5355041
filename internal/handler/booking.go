package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/cinehall/booking-engine/internal/booking"
	"github.com/cinehall/booking-engine/internal/lock"
)

// BookingHandler exposes the checkout side of the engine: turning a live
// hold into an awaiting-payment booking, reading a booking back, and the
// admin refund path.
type BookingHandler struct {
	Engine *booking.Engine
}

// NewBookingHandler constructs a BookingHandler. The engine must be
// non-nil.
func NewBookingHandler(engine *booking.Engine) *BookingHandler {
	if engine == nil {
		panic("nil engine passed to NewBookingHandler")
	}
	return &BookingHandler{Engine: engine}
}

// Create handles POST /v1/bookings. The body names the holder token plus
// the customer's contact and payment method; the booking behind the hold
// moves to awaiting_payment and its code is returned for the payment step.
// Guests supply a contact address; authenticated customers are identified
// from the bearer token injected by the identity middleware.
func (h *BookingHandler) Create(c echo.Context) error {
	var body struct {
		HolderToken   string `json:"holder_token"`
		GuestContact  string `json:"guest_contact"`
		PaymentMethod string `json:"payment_method"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.HolderToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "holder_token is required"})
	}
	if body.PaymentMethod == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment_method is required"})
	}

	userID := currentUser(c)
	if userID == nil && body.GuestContact == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "guest_contact is required for guest checkout"})
	}

	b, err := h.Engine.Checkout(c.Request().Context(), body.HolderToken, userID, body.GuestContact, body.PaymentMethod)
	if err != nil {
		switch {
		case errors.Is(err, lock.ErrHoldExpired):
			return c.JSON(http.StatusGone, echo.Map{"error": "hold expired"})
		case errors.Is(err, booking.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no booking for holder token"})
		case errors.Is(err, booking.ErrStaleStatus):
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking already progressed"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create booking"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"booking_code":       b.Code,
		"booking_status":     b.BookingStatus,
		"total_amount_cents": b.TotalAmountCents,
	})
}

// Get handles GET /v1/bookings/:code and returns the full booking record
// including the immutable seat snapshot.
func (h *BookingHandler) Get(c echo.Context) error {
	code := c.Param("code")
	b, err := h.Engine.GetByCode(c.Request().Context(), code)
	if err != nil {
		if errors.Is(err, booking.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch booking"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": b})
}

// Refund handles POST /v1/admin/bookings/:code/refund. It marks the
// payment refunded; the seats stay occupied until an explicit
// release-seats call, so re-selling is a deliberate second decision.
func (h *BookingHandler) Refund(c echo.Context) error {
	code := c.Param("code")
	b, err := h.Engine.Refund(c.Request().Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case errors.Is(err, booking.ErrStaleStatus):
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking is not refundable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to refund booking"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"booking_code":   b.Code,
		"payment_status": b.PaymentStatus,
	})
}

// ReleaseSeats handles POST /v1/admin/bookings/:code/release-seats: the
// second half of the refund flow, returning the refunded booking's seats
// to the pool.
func (h *BookingHandler) ReleaseSeats(c echo.Context) error {
	code := c.Param("code")
	err := h.Engine.ReleaseSeats(c.Request().Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case errors.Is(err, booking.ErrStaleStatus):
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking payment is not refunded"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to release seats"})
	}
	return c.NoContent(http.StatusNoContent)
}

// currentUser extracts the authenticated user id set by the identity
// middleware, or nil for guests.
func currentUser(c echo.Context) *uint64 {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return &t
	case float64:
		u := uint64(t)
		return &u
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return &n
		}
	}
	return nil
}
