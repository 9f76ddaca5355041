package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cinehall/booking-engine/internal/booking"
	"github.com/cinehall/booking-engine/internal/ledger"
	"github.com/cinehall/booking-engine/internal/model"
	"github.com/cinehall/booking-engine/internal/repository"
)

// ShowtimeHandler publishes showtimes (admin) and serves the seat
// availability view the storefront re-queries after a conflict. Publishing
// is the one catalog operation the engine needs: without it there is
// nothing to seed the seat ledger from.
type ShowtimeHandler struct {
	Showtimes *repository.ShowtimeRepo
	Ledger    *ledger.Store
}

// NewShowtimeHandler constructs a ShowtimeHandler. Both dependencies must
// be non-nil.
func NewShowtimeHandler(showtimes *repository.ShowtimeRepo, store *ledger.Store) *ShowtimeHandler {
	if showtimes == nil || store == nil {
		panic("nil dependency passed to NewShowtimeHandler")
	}
	return &ShowtimeHandler{Showtimes: showtimes, Ledger: store}
}

// Publish handles POST /v1/admin/showtimes. The seat map is validated
// before anything is written: seat codes, categories and prices are all
// fixed-shape, so nothing downstream ever coerces a loosely-typed blob.
// On success the showtime is persisted and its seats are registered in the
// ledger as AVAILABLE.
func (h *ShowtimeHandler) Publish(c echo.Context) error {
	var body struct {
		MovieTitle string        `json:"movie_title"`
		Theater    string        `json:"theater"`
		Auditorium string        `json:"auditorium"`
		StartsAt   time.Time     `json:"starts_at"`
		Seats      model.SeatMap `json:"seats"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.MovieTitle == "" || body.Theater == "" || body.Auditorium == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "movie_title, theater and auditorium are required"})
	}
	if body.StartsAt.IsZero() || !body.StartsAt.After(time.Now().UTC()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be in the future"})
	}
	if err := body.Seats.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	show := &model.Showtime{
		MovieTitle: body.MovieTitle,
		Theater:    body.Theater,
		Auditorium: body.Auditorium,
		StartsAt:   body.StartsAt.UTC(),
		Seats:      body.Seats,
	}
	if err := h.Showtimes.Create(c.Request().Context(), show); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to publish showtime"})
	}
	h.Ledger.Register(show.ID, show.Seats.SeatCodes())

	return c.JSON(http.StatusCreated, echo.Map{
		"id":         show.ID,
		"seat_count": len(show.Seats),
	})
}

// Seats handles GET /v1/showtimes/:id/seats. It merges the immutable seat
// map with a consistent ledger snapshot so the client sees category, price
// and live availability in one response. Hold tokens are never exposed.
func (h *ShowtimeHandler) Seats(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	show, err := h.Showtimes.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, booking.ErrShowtimeNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch showtime"})
	}

	snapshot := h.Ledger.Snapshot(id)
	type seatView struct {
		SeatCode   string `json:"seat_code"`
		Category   string `json:"category"`
		PriceCents uint32 `json:"price_cents"`
		Status     string `json:"status"`
	}
	seats := make([]seatView, 0, len(show.Seats))
	for _, code := range show.Seats.SeatCodes() {
		info := show.Seats[code]
		status := ledger.Available
		if st, ok := snapshot[code]; ok {
			status = st.Status
		}
		seats = append(seats, seatView{
			SeatCode:   code,
			Category:   string(info.Category),
			PriceCents: info.PriceCents,
			Status:     status.String(),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"showtime_id": id,
		"movie_title": show.MovieTitle,
		"starts_at":   show.StartsAt.Format(time.RFC3339),
		"seats":       seats,
	})
}
