// Package model defines the persisted data model for the Wordle bot.
package model

import (
	"fmt"
	"time"
)

// MaxGuesses is the number of guesses a player gets per puzzle.
const MaxGuesses = 6

// CompletionRecord is the result of one finished game.
// At most one exists per (player, community, date).
type CompletionRecord struct {
	Player         int64     `json:"player"`
	Community      int64     `json:"community"`
	Date           string    `json:"date"`
	Username       string    `json:"username"`
	Won            bool      `json:"won"`
	Guesses        int       `json:"guesses"`
	ElapsedSeconds int64     `json:"game_time"`
	ResultString   string    `json:"result_string"`
	CompletedAt    time.Time `json:"completed_at"`
}

// Score returns the shareable score, e.g. "3/6" or "X/6".
func (r CompletionRecord) Score() string {
	if !r.Won {
		return fmt.Sprintf("X/%d", MaxGuesses)
	}
	return fmt.Sprintf("%d/%d", r.Guesses, MaxGuesses)
}

// DayResults maps player ID to that player's record for one day.
type DayResults map[int64]CompletionRecord

// Ledger maps community -> date key -> player -> record.
type Ledger map[int64]map[string]DayResults

// UserStats is the cumulative per-player statistics document.
type UserStats struct {
	GamesPlayed       int             `json:"games_played"`
	GamesWon          int             `json:"games_won"`
	GuessDistribution [MaxGuesses]int `json:"guess_distribution"`
	CurrentStreak     int             `json:"current_streak"`
	MaxStreak         int             `json:"max_streak"`
	TotalTimeSeconds  int64           `json:"total_time"`
	FirstGuesses      map[string]int  `json:"first_guesses"`
	AverageGuesses    float64         `json:"average_guesses"`
	// LastPlayed is a date key; empty means the player has never finished a game.
	LastPlayed string `json:"last_played,omitempty"`
}

// NewUserStats returns zeroed stats with initialised maps.
func NewUserStats() UserStats {
	return UserStats{FirstGuesses: make(map[string]int)}
}

// WinRate returns the win percentage rounded down to an integer.
func (s UserStats) WinRate() int {
	if s.GamesPlayed == 0 {
		return 0
	}
	return s.GamesWon * 100 / s.GamesPlayed
}

// FavoriteOpener returns the most used first guess.
// Ties go to the alphabetically smallest word so the answer is stable.
func (s UserStats) FavoriteOpener() (string, int) {
	var word string
	var count int
	for w, c := range s.FirstGuesses {
		if c > count || (c == count && w < word) {
			word, count = w, c
		}
	}
	return word, count
}

// Achievements returns the fun badges unlocked by the stats.
func (s UserStats) Achievements() []string {
	var out []string
	if s.MaxStreak >= 10 {
		out = append(out, "🔥 consistent goat")
	}
	if s.GamesPlayed >= 30 {
		out = append(out, "🎮 longevity goat")
	}
	if s.GuessDistribution[0] > 0 || s.GuessDistribution[1] > 0 {
		out = append(out, "🎯 speedy goat")
	}
	if s.GamesWon >= 100 {
		out = append(out, "🏆 super goat")
	}
	return out
}

// CommunityState holds the per-community streak and summary settings.
type CommunityState struct {
	StreakCount int `json:"streak_count"`
	// LastStreakDate is a date key; empty means no live streak.
	LastStreakDate string `json:"last_streak_date,omitempty"`
	// ChannelID is the chat daily summaries are posted to; 0 disables them.
	ChannelID int64 `json:"channel_id,omitempty"`
}

// State is the single persisted document: ledger, community settings and user stats.
type State struct {
	DailyResults    Ledger                   `json:"daily_results"`
	GuildSettings   map[int64]CommunityState `json:"guild_settings"`
	UserStats       map[int64]UserStats      `json:"user_stats"`
	LastSummaryDate string                   `json:"last_summary_date,omitempty"`
}

// NewState returns an empty state with all maps initialised.
func NewState() *State {
	return &State{
		DailyResults:  make(Ledger),
		GuildSettings: make(map[int64]CommunityState),
		UserStats:     make(map[int64]UserStats),
	}
}

// Normalize fills in maps left nil by a partial document.
func (s *State) Normalize() {
	if s.DailyResults == nil {
		s.DailyResults = make(Ledger)
	}
	if s.GuildSettings == nil {
		s.GuildSettings = make(map[int64]CommunityState)
	}
	if s.UserStats == nil {
		s.UserStats = make(map[int64]UserStats)
	}
	for id, st := range s.UserStats {
		if st.FirstGuesses == nil {
			st.FirstGuesses = make(map[string]int)
			s.UserStats[id] = st
		}
	}
}
