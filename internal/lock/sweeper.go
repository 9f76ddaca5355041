package lock

import (
	"context"
	"log"
	"time"
)

// ExpiryFunc is invoked for every hold the sweeper reclaims, outside of any
// manager lock. The booking engine uses it to move the owning booking to
// its expired state.
type ExpiryFunc func(hold *Hold)

// Sweeper periodically reclaims expired holds so that seats abandoned
// mid-checkout return to the pool without the client having to call
// anything. It is decoupled from request handling and stops cleanly when
// its context is cancelled.
type Sweeper struct {
	manager  *Manager
	interval time.Duration
	onExpire ExpiryFunc
}

// NewSweeper returns a sweeper over the manager's holds. onExpire may be
// nil when no one cares about reclaimed holds.
func NewSweeper(manager *Manager, interval time.Duration, onExpire ExpiryFunc) *Sweeper {
	return &Sweeper{manager: manager, interval: interval, onExpire: onExpire}
}

// Run loops until ctx is cancelled, sweeping once per interval. It is meant
// to be started as a goroutine from main.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	log.Printf("sweeper: started (interval=%s)", s.interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("sweeper: stopped")
			return
		case <-ticker.C:
			s.SweepOnce()
		}
	}
}

// SweepOnce performs a single reclamation pass. Exposed so tests can drive
// the sweeper with a mock clock instead of waiting on the ticker.
func (s *Sweeper) SweepOnce() int {
	expired := s.manager.SweepExpired()
	for _, hold := range expired {
		log.Printf("sweeper: reclaimed hold %s (showtime=%d seats=%d)",
			hold.Token, hold.ShowtimeID, len(hold.SeatCodes))
		if s.onExpire != nil {
			s.onExpire(hold)
		}
	}
	return len(expired)
}
