package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cinehall/booking-engine/internal/booking"
	"github.com/cinehall/booking-engine/internal/model"
)

// ShowtimeRepo persists published showtimes and their seat maps. A
// showtime row plus its showtime_seats rows are written together in one
// transaction at publish time and never updated afterwards; price or
// category changes require publishing a new showtime.
type ShowtimeRepo struct {
	db *sql.DB
}

// NewShowtimeRepo returns a ShowtimeRepo bound to the given database.
func NewShowtimeRepo(db *sql.DB) *ShowtimeRepo { return &ShowtimeRepo{db: db} }

// Create inserts the showtime and its full seat map atomically. The seat
// map must already be validated; the generated ID is populated on the
// provided showtime.
func (r *ShowtimeRepo) Create(ctx context.Context, s *model.Showtime) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const q = `INSERT INTO showtimes (movie_title, theater, auditorium, starts_at) VALUES (?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		s.MovieTitle, s.Theater, s.Auditorium, s.StartsAt.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)

	query := `INSERT INTO showtime_seats (showtime_id, seat_code, category, price_cents) VALUES `
	args := make([]interface{}, 0, len(s.Seats)*4)
	for i, code := range s.Seats.SeatCodes() {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		info := s.Seats[code]
		args = append(args, s.ID, code, string(info.Category), info.PriceCents)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID loads a showtime together with its seat map. Returns
// booking.ErrShowtimeNotFound when no row exists.
func (r *ShowtimeRepo) GetByID(ctx context.Context, id uint64) (*model.Showtime, error) {
	const q = `SELECT id, movie_title, theater, auditorium, starts_at, created_at FROM showtimes WHERE id = ?`
	var s model.Showtime
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.MovieTitle, &s.Theater, &s.Auditorium, &s.StartsAt, &s.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrShowtimeNotFound
	}
	if err != nil {
		return nil, err
	}
	seats, err := r.loadSeatMap(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	s.Seats = seats
	return &s, nil
}

// loadSeatMap reads the immutable seat rows of one showtime.
func (r *ShowtimeRepo) loadSeatMap(ctx context.Context, showtimeID uint64) (model.SeatMap, error) {
	const q = `SELECT seat_code, category, price_cents FROM showtime_seats WHERE showtime_id = ?`
	rows, err := r.db.QueryContext(ctx, q, showtimeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make(model.SeatMap)
	for rows.Next() {
		var code, category string
		var price uint32
		if err := rows.Scan(&code, &category, &price); err != nil {
			return nil, err
		}
		seats[code] = model.SeatInfo{Category: model.SeatCategory(category), PriceCents: price}
	}
	return seats, rows.Err()
}

// ListUpcoming returns every showtime that has not started yet, seat maps
// included. Used at startup to seed the seat ledger.
func (r *ShowtimeRepo) ListUpcoming(ctx context.Context, now time.Time) ([]*model.Showtime, error) {
	const q = `SELECT id, movie_title, theater, auditorium, starts_at, created_at
               FROM showtimes WHERE starts_at > ?`
	rows, err := r.db.QueryContext(ctx, q, now.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Showtime
	for rows.Next() {
		var s model.Showtime
		if err := rows.Scan(&s.ID, &s.MovieTitle, &s.Theater, &s.Auditorium, &s.StartsAt, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, s := range out {
		seats, err := r.loadSeatMap(ctx, s.ID)
		if err != nil {
			return nil, err
		}
		s.Seats = seats
	}
	return out, nil
}

var _ booking.ShowtimeSource = (*ShowtimeRepo)(nil)
