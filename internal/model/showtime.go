package model

import (
	"fmt"
	"regexp"
	"sort"
	"time"
)

// SeatCategory classifies a seat within an auditorium. Categories are fixed
// at showtime publication time; a price change requires publishing a new
// showtime.
type SeatCategory string

const (
	CategoryStandard SeatCategory = "STANDARD"
	CategoryPremium  SeatCategory = "PREMIUM"
	CategoryVIP      SeatCategory = "VIP"
)

// validCategories lists every accepted seat category.
var validCategories = map[SeatCategory]bool{
	CategoryStandard: true,
	CategoryPremium:  true,
	CategoryVIP:      true,
}

// SeatInfo describes a single seat in a showtime's seat map: its category
// and its price in cents. Both are immutable once the showtime is published.
type SeatInfo struct {
	Category   SeatCategory `json:"category"`
	PriceCents uint32       `json:"price_cents"`
}

// SeatMap maps a seat code (e.g. "A1", "C12") to its category and price.
// The map is fixed-shape and validated when the showtime is created, so no
// runtime type coercion is ever needed downstream.
type SeatMap map[string]SeatInfo

// seatCodePattern accepts a row letter block followed by a seat number,
// such as "A1" or "AB12".
var seatCodePattern = regexp.MustCompile(`^[A-Z]{1,2}[1-9][0-9]{0,2}$`)

// Validate checks that the seat map is non-empty, that every seat code is
// well-formed, that every category is known and that every price is
// positive. It returns a descriptive error for the first violation found.
func (m SeatMap) Validate() error {
	if len(m) == 0 {
		return fmt.Errorf("seat map must contain at least one seat")
	}
	for code, info := range m {
		if !seatCodePattern.MatchString(code) {
			return fmt.Errorf("invalid seat code %q", code)
		}
		if !validCategories[info.Category] {
			return fmt.Errorf("seat %s: unknown category %q", code, info.Category)
		}
		if info.PriceCents == 0 {
			return fmt.Errorf("seat %s: price must be positive", code)
		}
	}
	return nil
}

// SeatCodes returns every seat code in the map in lexicographic order.
// The fixed ordering is what multi-seat acquisition relies on to avoid
// lock-ordering deadlocks between concurrent requests.
func (m SeatMap) SeatCodes() []string {
	codes := make([]string, 0, len(m))
	for code := range m {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Showtime represents a published screening: a movie in a specific theater
// auditorium at a specific time, together with its seat map. Showtimes are
// immutable once published.
//
// Fields:
//
//	ID         – primary key identifier.
//	MovieTitle – title of the movie being screened.
//	Theater    – name of the cinema location.
//	Auditorium – hall/screen identifier within the theater.
//	StartsAt   – when the screening begins (UTC).
//	Seats      – seat code → category and price; immutable after publish.
//	CreatedAt  – publication timestamp.
type Showtime struct {
	ID         uint64    `json:"id"`
	MovieTitle string    `json:"movie_title"`
	Theater    string    `json:"theater"`
	Auditorium string    `json:"auditorium"`
	StartsAt   time.Time `json:"starts_at"`
	Seats      SeatMap   `json:"seats"`
	CreatedAt  time.Time `json:"created_at"`
}
