package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/cinehall/booking-engine/internal/booking"
	"github.com/cinehall/booking-engine/internal/config"
	"github.com/cinehall/booking-engine/internal/database"
	"github.com/cinehall/booking-engine/internal/handler"
	"github.com/cinehall/booking-engine/internal/ledger"
	"github.com/cinehall/booking-engine/internal/lock"
	"github.com/cinehall/booking-engine/internal/queue"
	"github.com/cinehall/booking-engine/internal/repository"
	"github.com/cinehall/booking-engine/internal/router"
	"github.com/cinehall/booking-engine/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments use the environment
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and seat-view cache disabled")
	}

	showtimeRepo := repository.NewShowtimeRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	paymentRepo := repository.NewPaymentRepo(db)

	store := ledger.NewStore()
	locks := lock.NewManager(store, cfg.HoldTTL)
	notifier := service.NewTicketNotifier(showtimeRepo)
	engine := booking.NewEngine(locks, showtimeRepo, bookingRepo, paymentRepo, notifier)

	// Seed the ledger before accepting traffic: every upcoming showtime's
	// seats start AVAILABLE, then confirmed bookings re-mark theirs
	// OCCUPIED.
	warmCtx, warmCancel := context.WithTimeout(context.Background(), 30*time.Second)
	shows, err := showtimeRepo.ListUpcoming(warmCtx, time.Now())
	if err != nil {
		log.Fatalf("ledger warm: list showtimes: %v", err)
	}
	for _, s := range shows {
		store.Register(s.ID, s.Seats.SeatCodes())
	}
	if err := engine.RewarmLedger(warmCtx, store.SetOccupied); err != nil {
		log.Fatalf("ledger warm: confirmed bookings: %v", err)
	}
	warmCancel()
	log.Printf("ledger warmed: %d upcoming showtimes", len(shows))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeper := lock.NewSweeper(locks, cfg.SweepInterval, engine.ExpireHold)
	go sweeper.Run(ctx)

	go func() {
		if err := queue.StartTicketConsumer(); err != nil {
			log.Printf("ticket consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.Register(e, router.Deps{
		Reservations: handler.NewReservationHandler(engine),
		Bookings:     handler.NewBookingHandler(engine),
		Webhooks:     handler.NewWebhookHandler(engine),
		Showtimes:    handler.NewShowtimeHandler(showtimeRepo, store),
		Redis:        rdb,
		JWTSecret:    cfg.JWTSecret,
	})

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		cancel() // stops the sweeper
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, hold_ttl=%s)", addr, cfg.Env, cfg.HoldTTL)
	if err := e.Start(addr); err != nil {
		log.Printf("server stopped: %v", err)
	}
}
