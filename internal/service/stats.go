package service

import (
	"fmt"
	"maps"
	"time"

	"better-wordle-bot/internal/game/daily"
	"better-wordle-bot/internal/model"
)

// Stats aggregates per-player statistics from completed games.
type Stats struct {
	data map[int64]model.UserStats
}

// NewStats wraps data. A nil map starts with no players.
func NewStats(data map[int64]model.UserStats) *Stats {
	if data == nil {
		data = make(map[int64]model.UserStats)
	}
	return &Stats{data: data}
}

// Record folds one completed game into the player's stats.
//
// It must be called at most once per player and day; a second call for the
// same today, or a win with a guess count outside 1..MaxGuesses, panics.
// An empty firstGuess skips opener tracking and elapsedSeconds <= 0 skips
// the play time total.
func (s *Stats) Record(player int64, won bool, guessCount int, firstGuess string, elapsedSeconds int64, today string) model.UserStats {
	st := s.Get(player)
	if st.LastPlayed == today {
		panic(fmt.Sprintf("stats: player %d already recorded for %s", player, today))
	}
	if won && (guessCount < 1 || guessCount > model.MaxGuesses) {
		panic(fmt.Sprintf("stats: winning guess count %d out of range", guessCount))
	}

	st.GamesPlayed++

	if won {
		st.GamesWon++
		st.GuessDistribution[guessCount-1]++
		if st.LastPlayed == "" || st.LastPlayed == previousKey(today) {
			st.CurrentStreak++
		} else {
			st.CurrentStreak = 1
		}
		st.MaxStreak = max(st.MaxStreak, st.CurrentStreak)
	} else {
		st.CurrentStreak = 0
	}

	st.LastPlayed = today

	if firstGuess != "" {
		st.FirstGuesses[firstGuess]++
	}

	if st.GamesWon > 0 {
		weighted := 0
		for i, n := range st.GuessDistribution {
			weighted += (i + 1) * n
		}
		st.AverageGuesses = round(float64(weighted)/float64(st.GamesWon), 2)
	}

	if elapsedSeconds > 0 {
		st.TotalTimeSeconds += elapsedSeconds
	}

	s.data[player] = st
	return s.Get(player)
}

// Get returns a copy of the player's stats, zeroed if unknown.
func (s *Stats) Get(player int64) model.UserStats {
	st, ok := s.data[player]
	if !ok {
		return model.NewUserStats()
	}
	st.FirstGuesses = maps.Clone(st.FirstGuesses)
	if st.FirstGuesses == nil {
		st.FirstGuesses = make(map[string]int)
	}
	return st
}

// Reset deletes the player's stats, returning what was removed.
func (s *Stats) Reset(player int64) (model.UserStats, bool) {
	st, ok := s.data[player]
	if ok {
		delete(s.data, player)
	}
	return st, ok
}

// Players returns every player with stats.
func (s *Stats) Players() []int64 {
	out := make([]int64, 0, len(s.data))
	for id := range s.data {
		out = append(out, id)
	}
	return out
}

// previousKey returns the date key of the day before key.
// An unparseable key has no previous day.
func previousKey(key string) string {
	t, err := daily.ParseKey(key, time.UTC)
	if err != nil {
		return ""
	}
	return daily.Key(daily.Yesterday(t))
}
