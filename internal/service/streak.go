package service

import (
	"maps"
	"slices"
	"time"

	"better-wordle-bot/internal/game/daily"
	"better-wordle-bot/internal/model"
)

// Streaks tracks each community's run of consecutive days with at least
// one completed game, along with its summary channel.
type Streaks struct {
	data   map[int64]model.CommunityState
	ledger *Ledger
}

// NewStreaks wraps data, reading completions from ledger.
func NewStreaks(data map[int64]model.CommunityState, ledger *Ledger) *Streaks {
	if data == nil {
		data = make(map[int64]model.CommunityState)
	}
	return &Streaks{data: data, ledger: ledger}
}

// Refresh settles the community streak using only yesterday's results
// relative to today, so repeated or late calls do not double count.
//
// If anyone finished yesterday, the streak grows when it was alive through
// the day before yesterday (or has never started) and restarts at 1
// otherwise. If nobody finished yesterday, a streak alive through the day
// before yesterday is broken; anything else is left alone.
func (s *Streaks) Refresh(community int64, today time.Time) model.CommunityState {
	yesterday := daily.Key(daily.Yesterday(today))
	twoDaysAgo := daily.Key(daily.DaysBefore(today, 2))

	st := s.data[community]
	switch {
	case st.LastStreakDate == yesterday:
		// Already refreshed today.
	case len(s.ledger.Get(community, yesterday)) > 0:
		if st.LastStreakDate == "" || st.LastStreakDate == twoDaysAgo {
			st.StreakCount++
		} else {
			st.StreakCount = 1
		}
		st.LastStreakDate = yesterday
	case st.LastStreakDate == twoDaysAgo:
		st.StreakCount = 0
		st.LastStreakDate = ""
	default:
		return st
	}

	s.data[community] = st
	return st
}

// Get returns the community's state.
func (s *Streaks) Get(community int64) model.CommunityState {
	return s.data[community]
}

// SetChannel sets the chat daily summaries for community are posted to.
// Zero disables summaries.
func (s *Streaks) SetChannel(community, channel int64) {
	st := s.data[community]
	st.ChannelID = channel
	s.data[community] = st
}

// Communities returns every community with settings, sorted.
func (s *Streaks) Communities() []int64 {
	return slices.Sorted(maps.Keys(s.data))
}
