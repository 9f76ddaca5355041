// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/cinehall/booking-engine/internal/config"
	"github.com/cinehall/booking-engine/internal/handler"
	"github.com/cinehall/booking-engine/internal/middleware"
)

// Deps bundles everything the route table needs. All handlers must be
// non-nil; Redis may be nil, which disables rate limiting and caching.
type Deps struct {
	Reservations *handler.ReservationHandler
	Bookings     *handler.BookingHandler
	Webhooks     *handler.WebhookHandler
	Showtimes    *handler.ShowtimeHandler
	Redis        *redis.Client
	JWTSecret    string
}

// Register sets up the full route table:
//
//	customer routes carry optional identity (guests may book) and the
//	reservation token bucket; the seat availability view sits behind the
//	short-TTL Redis cache; admin routes require an ADMIN bearer token;
//	the payment webhook is called by the gateway, not by browsers, and
//	stays outside both identity and rate limiting.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)

	limiter := middleware.RateLimit(config.LoadRateLimitConfig(), d.Redis)
	seatCache := middleware.SeatViewCache(config.LoadCacheConfig(), d.Redis)
	identity := middleware.OptionalIdentity(d.JWTSecret)

	v1 := e.Group("/v1", identity)
	v1.POST("/reservations", d.Reservations.Create, limiter)
	v1.POST("/reservations/:token/renew", d.Reservations.Renew, limiter)
	v1.DELETE("/reservations/:token", d.Reservations.Release)
	v1.POST("/bookings", d.Bookings.Create)
	v1.GET("/bookings/:code", d.Bookings.Get)
	v1.GET("/showtimes/:id/seats", d.Showtimes.Seats, seatCache)

	// Gateway callback: idempotent by transaction id, so replays are safe.
	e.POST("/v1/webhooks/payment", d.Webhooks.Payment)

	admin := e.Group("/v1/admin")
	admin.Use(middleware.JWTAuth(d.JWTSecret))
	admin.Use(middleware.RequireRole("ADMIN"))
	admin.POST("/showtimes", d.Showtimes.Publish)
	admin.POST("/bookings/:code/refund", d.Bookings.Refund)
	admin.POST("/bookings/:code/release-seats", d.Bookings.ReleaseSeats)
}
