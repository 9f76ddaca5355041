package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cinehall/booking-engine/internal/booking"
	"github.com/cinehall/booking-engine/internal/lock"
)

// ReservationHandler exposes the seat-hold lifecycle to the storefront:
// acquiring a hold, renewing it during a slow checkout, and releasing it
// when the customer backs out. Seat contention is an expected, modeled
// outcome here: a conflict produces a 409 naming the exact seats that
// failed so the client can deselect only those.
type ReservationHandler struct {
	Engine *booking.Engine
}

// NewReservationHandler constructs a ReservationHandler. The engine must
// be non-nil.
func NewReservationHandler(engine *booking.Engine) *ReservationHandler {
	if engine == nil {
		panic("nil engine passed to NewReservationHandler")
	}
	return &ReservationHandler{Engine: engine}
}

// Create handles POST /v1/reservations. The body must contain a showtime
// id and a non-empty list of seat codes. On success the seats are held and
// a booking is created around the hold; the response carries the holder
// token the client uses for every subsequent call.
func (h *ReservationHandler) Create(c echo.Context) error {
	var body struct {
		ShowtimeID uint64   `json:"showtime_id"`
		SeatCodes  []string `json:"seat_codes"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.ShowtimeID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "showtime_id is required"})
	}
	if len(body.SeatCodes) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_codes is required"})
	}

	res, err := h.Engine.Reserve(c.Request().Context(), body.ShowtimeID, body.SeatCodes)
	if err != nil {
		var conflict *lock.ConflictError
		switch {
		case errors.As(err, &conflict):
			return c.JSON(http.StatusConflict, echo.Map{
				"error":             "some seats are unavailable",
				"conflicting_seats": conflict.Seats,
			})
		case errors.Is(err, booking.ErrShowtimeNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
		case errors.Is(err, lock.ErrUnknownSeat):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to reserve seats"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"holder_token":       res.Hold.Token,
		"expires_at":         res.Hold.ExpiresAt.Format(time.RFC3339),
		"booking_code":       res.Booking.Code,
		"seat_codes":         res.Hold.SeatCodes,
		"total_amount_cents": res.Booking.TotalAmountCents,
	})
}

// Renew handles POST /v1/reservations/:token/renew. Renewal is always
// explicit; an expired or released hold answers 410 Gone and the client
// must restart seat selection.
func (h *ReservationHandler) Renew(c echo.Context) error {
	token := c.Param("token")
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing holder token"})
	}
	expiresAt, err := h.Engine.Renew(token)
	if err != nil {
		if errors.Is(err, lock.ErrHoldExpired) {
			return c.JSON(http.StatusGone, echo.Map{"error": "hold expired"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to renew hold"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"expires_at": expiresAt.Format(time.RFC3339),
	})
}

// Release handles DELETE /v1/reservations/:token, the explicit "back
// button" path. Releasing an unknown or already-expired token is still a
// 204; the lock manager treats release as idempotent.
func (h *ReservationHandler) Release(c echo.Context) error {
	token := c.Param("token")
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing holder token"})
	}
	if err := h.Engine.Cancel(c.Request().Context(), token); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to release hold"})
	}
	return c.NoContent(http.StatusNoContent)
}
