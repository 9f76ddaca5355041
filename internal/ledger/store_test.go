package ledger

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndState(t *testing.T) {
	s := NewStore()
	s.Register(1, []string{"A1", "A2"})

	st, ok := s.State(1, "A1")
	require.True(t, ok)
	assert.Equal(t, Available, st.Status)

	_, ok = s.State(1, "B1")
	assert.False(t, ok, "unregistered seat must not exist")
	_, ok = s.State(2, "A1")
	assert.False(t, ok, "seat is scoped to its showtime")
}

func TestRegisterKeepsExistingState(t *testing.T) {
	s := NewStore()
	s.Register(1, []string{"A1"})
	exp := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	require.True(t, s.CompareAndSet(1, "A1", StateAvailable(), StateHeld("tok", exp)))

	// A rewarm of the same showtime must not clobber the live hold.
	s.Register(1, []string{"A1", "A2"})
	st, _ := s.State(1, "A1")
	assert.Equal(t, Held, st.Status)
	assert.Equal(t, "tok", st.HolderToken)
}

func TestCompareAndSet(t *testing.T) {
	s := NewStore()
	s.Register(7, []string{"C4"})
	exp := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

	assert.False(t, s.CompareAndSet(7, "C4", StateHeld("x", exp), StateAvailable()),
		"expectation mismatch must fail")
	assert.False(t, s.CompareAndSet(7, "Z9", StateAvailable(), StateHeld("x", exp)),
		"unregistered seat must fail")

	require.True(t, s.CompareAndSet(7, "C4", StateAvailable(), StateHeld("x", exp)))
	st, _ := s.State(7, "C4")
	assert.Equal(t, Held, st.Status)
	assert.Equal(t, "x", st.HolderToken)
	assert.True(t, exp.Equal(st.ExpiresAt))

	require.True(t, s.CompareAndSet(7, "C4", StateHeld("x", exp), StateOccupied(42)))
	st, _ = s.State(7, "C4")
	assert.Equal(t, Occupied, st.Status)
	assert.EqualValues(t, 42, st.BookingID)
}

func TestSeatStateEqualIgnoresMonotonicClock(t *testing.T) {
	wall := time.Now()
	trimmed := wall.Round(0) // strips the monotonic reading
	assert.True(t, StateHeld("t", wall).Equal(StateHeld("t", trimmed)))
}

// TestCompareAndSetMutualExclusion races many goroutines over a single
// seat: exactly one CAS away from Available may succeed.
func TestCompareAndSetMutualExclusion(t *testing.T) {
	s := NewStore()
	s.Register(1, []string{"A1"})
	exp := time.Now().Add(time.Minute)

	const callers = 64
	var wg sync.WaitGroup
	wins := make(chan string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		token := string(rune('a' + i%26))
		go func(tok string) {
			defer wg.Done()
			if s.CompareAndSet(1, "A1", StateAvailable(), StateHeld(tok, exp)) {
				wins <- tok
			}
		}(token)
	}
	wg.Wait()
	close(wins)

	var winners []string
	for w := range wins {
		winners = append(winners, w)
	}
	require.Len(t, winners, 1, "exactly one caller may flip AVAILABLE to HELD")

	st, _ := s.State(1, "A1")
	assert.Equal(t, winners[0], st.HolderToken)
}

func TestSnapshotAndDrop(t *testing.T) {
	s := NewStore()
	s.Register(1, []string{"A1", "A2"})
	s.Register(2, []string{"A1"})

	snap := s.Snapshot(1)
	assert.Len(t, snap, 2)
	assert.NotContains(t, snap, "B1")

	s.Drop(1)
	assert.Empty(t, s.Snapshot(1))
	_, ok := s.State(2, "A1")
	assert.True(t, ok, "dropping one showtime must not touch another")
}
