package daily

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"better-wordle-bot/internal/words"
)

func testSource(t *testing.T) *words.Source {
	t.Helper()
	src, err := words.New([]string{"crane", "slate", "adieu", "roate", "erase", "speed", "pious", "tiger"}, nil)
	require.NoError(t, err)
	return src
}

func TestOrdinal(t *testing.T) {
	tests := []struct {
		name string
		date time.Time
		want int64
	}{
		{"first day", time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC), 1},
		{"unix epoch", time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), 719163},
		{"y2k", time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), 730120},
		{"late in day", time.Date(2000, 1, 1, 23, 59, 59, 0, time.UTC), 730120},
		{"leap day", time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC), 738945},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Ordinal(tt.date))
		})
	}
}

func TestOrdinal_UsesLocalCalendarDay(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	// 2024-03-09 01:00 in Tokyo is still 2024-03-08 in UTC.
	local := time.Date(2024, 3, 9, 1, 0, 0, 0, tokyo)
	assert.Equal(t, Ordinal(time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)), Ordinal(local))
}

func TestDayArithmetic(t *testing.T) {
	today := time.Date(2024, 3, 1, 15, 4, 5, 0, time.UTC)

	assert.Equal(t, "2024-03-01", Key(Date(today)))
	assert.Equal(t, "2024-02-29", Key(Yesterday(today)))
	assert.Equal(t, "2024-02-28", Key(DaysBefore(today, 2)))

	parsed, err := ParseKey("2024-02-29", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, Yesterday(today), parsed)

	_, err = ParseKey("29/02/2024", time.UTC)
	assert.Error(t, err)
}

func TestNewSelector_EmptyPool(t *testing.T) {
	_, err := NewSelector(nil, "")
	var cfgErr *words.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.ErrorIs(t, err, words.ErrNoAnswers)
}

func TestSelect_Stable(t *testing.T) {
	src := testSource(t)
	sel, err := NewSelector(src, "test-salt")
	require.NoError(t, err)

	date := time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)
	first := sel.Select(date)
	assert.Equal(t, first, sel.Select(date))
	assert.Equal(t, first, sel.Select(date.Add(15*time.Hour)), "same calendar day must give same word")

	other, err := NewSelector(src, "test-salt")
	require.NoError(t, err)
	assert.Equal(t, first, other.Select(date), "fresh selector must agree")

	assert.True(t, src.IsAnswer(first))
	p := sel.Puzzle(date)
	assert.Equal(t, first, p.Answer)
	assert.Equal(t, Date(date), p.Date)
}

func TestSelect_CoversMultipleWords(t *testing.T) {
	sel, err := NewSelector(testSource(t), "")
	require.NoError(t, err)

	seen := make(map[string]bool)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 1000; i++ {
		seen[sel.Select(start.AddDate(0, 0, i))] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestSelect_SingleWord(t *testing.T) {
	src, err := words.New([]string{"crane"}, nil)
	require.NoError(t, err)
	sel, err := NewSelector(src, "")
	require.NoError(t, err)

	assert.Equal(t, "crane", sel.Select(time.Now()))
}
