package service

import (
	"cmp"
	"slices"

	"github.com/samber/lo"

	"better-wordle-bot/internal/model"
)

// Leaderboard categories.
const (
	CategoryWinRate = "winrate"
	CategoryStreak  = "streak"
	CategoryGames   = "games"
	CategoryAverage = "average"
)

// DefaultLeaderboardSize is the number of entries shown when no limit is given.
const DefaultLeaderboardSize = 10

// LeaderboardEntry is one ranked player.
type LeaderboardEntry struct {
	Player   int64
	Username string
	Stats    model.UserStats
}

// Leaderboard ranks the players who have finished a game in community.
// Unknown categories fall back to winrate; the resolved category is returned.
func (s *WordleService) Leaderboard(community int64, category string, limit int) (string, []LeaderboardEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	category = normalizeCategory(category)
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}

	names := s.ledger.Usernames(community)
	entries := lo.FilterMap(s.ledger.Players(community), func(player int64, _ int) (LeaderboardEntry, bool) {
		st := s.stats.Get(player)
		if st.GamesPlayed == 0 {
			return LeaderboardEntry{}, false
		}
		if category == CategoryAverage && st.GamesWon == 0 {
			return LeaderboardEntry{}, false
		}
		return LeaderboardEntry{Player: player, Username: names[player], Stats: st}, true
	})

	slices.SortFunc(entries, func(a, b LeaderboardEntry) int {
		return cmp.Or(compareEntries(category, a.Stats, b.Stats), cmp.Compare(a.Player, b.Player))
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return category, entries
}

// compareEntries orders two players for category, best first.
func compareEntries(category string, a, b model.UserStats) int {
	switch category {
	case CategoryStreak:
		return cmp.Or(
			cmp.Compare(b.MaxStreak, a.MaxStreak),
			cmp.Compare(b.CurrentStreak, a.CurrentStreak),
		)
	case CategoryGames:
		return cmp.Compare(b.GamesPlayed, a.GamesPlayed)
	case CategoryAverage:
		return cmp.Compare(a.AverageGuesses, b.AverageGuesses)
	default:
		// Cross-multiplied win ratios avoid float ties.
		return cmp.Or(
			cmp.Compare(b.GamesWon*a.GamesPlayed, a.GamesWon*b.GamesPlayed),
			cmp.Compare(b.GamesPlayed, a.GamesPlayed),
		)
	}
}
