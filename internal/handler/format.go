package handler

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"better-wordle-bot/internal/game/daily"
	"better-wordle-bot/internal/game/wordle"
	"better-wordle-bot/internal/model"
	"better-wordle-bot/internal/service"
)

// Callback data prefixes.
const (
	CallbackPrefix   = "wordle_"
	CallbackGiveUp   = "wordle_giveup"
	CallbackKeyboard = "wordle_keyboard"
)

// GameMarkup returns the buttons shown under a live board.
func GameMarkup() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(
		markup.Data("⌨️ Keyboard", CallbackKeyboard),
		markup.Data("🏳️ Give up", CallbackGiveUp),
	))
	return markup
}

// DisplayName returns the name shown for a Telegram user.
func DisplayName(u *tele.User) string {
	if u == nil {
		return ""
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return fmt.Sprintf("User %d", u.ID)
}

// FormatDuration renders seconds as "45s" or "2m 5s".
func FormatDuration(seconds int64) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}

// RankEmoji returns the marker for position i (zero-based) in a ranking.
func RankEmoji(i int) string {
	switch i {
	case 0:
		return "👑"
	case 1:
		return "🥈"
	case 2:
		return "🥉"
	default:
		return fmt.Sprintf("%d.", i+1)
	}
}

// ScoreEmoji returns the marker for a score group in the daily summary.
func ScoreEmoji(score string) string {
	switch score {
	case "1/6":
		return "👑"
	case "2/6":
		return "🥇"
	case "X/6":
		return "❌"
	default:
		return "✅"
	}
}

// FormatBoard renders a live or finished session.
func FormatBoard(s *wordle.Session, title string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎯 %s %s\n\n", title, daily.Key(s.Date))
	b.WriteString(s.Render())
	if !s.Completed() {
		fmt.Fprintf(&b, "\n\nGuesses left: %d\nSend /guess <word> to play.", s.Remaining())
	}
	return b.String()
}

// FormatKeyboard renders the letter overview for a session.
func FormatKeyboard(s *wordle.Session) string {
	return "⌨️ Letters\n\n" + s.Keyboard()
}

// FormatOutcome renders the reply to a guess or give-up.
func FormatOutcome(out service.GuessOutcome, title string) string {
	s := out.Session
	if !out.Completed {
		return FormatBoard(s, title)
	}

	var b strings.Builder
	switch {
	case s.Won():
		fmt.Fprintf(&b, "🎉 Solved in %d/%d!\n\n", s.GuessCount(), s.MaxGuesses)
	case s.Abandoned:
		fmt.Fprintf(&b, "🏳️ You gave up. The word was %s.\n\n", strings.ToUpper(s.Answer))
	default:
		fmt.Fprintf(&b, "💀 Out of guesses. The word was %s.\n\n", strings.ToUpper(s.Answer))
	}
	b.WriteString(s.Render())
	if out.Record.ResultString != "" {
		b.WriteString("\n\nShare your result:\n\n")
		b.WriteString(out.Record.ResultString)
	}
	return b.String()
}

// FormatAnnouncement renders the group message posted when a player finishes.
func FormatAnnouncement(rec model.CompletionRecord) string {
	name := rec.Username
	if name == "" {
		name = fmt.Sprintf("User %d", rec.Player)
	}
	if rec.Won {
		return fmt.Sprintf("✅ %s finished today's puzzle: %s (%s)\n\n%s",
			name, rec.Score(), FormatDuration(rec.ElapsedSeconds), rec.ResultString)
	}
	return fmt.Sprintf("❌ %s missed today's puzzle: %s\n\n%s", name, rec.Score(), rec.ResultString)
}

// FormatResults renders one day's results for a community.
func FormatResults(date string, records []model.CompletionRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Results for %s\n", date)
	b.WriteString("━━━━━━━━━━━━━━━\n")
	if len(records) == 0 {
		b.WriteString("Nobody has finished yet. Use /wordle to play!")
		return b.String()
	}
	for i, rec := range records {
		name := rec.Username
		if name == "" {
			name = fmt.Sprintf("User %d", rec.Player)
		}
		fmt.Fprintf(&b, "%s %s  %s", RankEmoji(i), name, rec.Score())
		if rec.Won && rec.ElapsedSeconds > 0 {
			fmt.Fprintf(&b, " in %s", FormatDuration(rec.ElapsedSeconds))
		}
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// FormatStats renders a player's cumulative stats.
func FormatStats(name string, st model.UserStats) string {
	if st.GamesPlayed == 0 {
		return fmt.Sprintf("📈 %s has not finished a game yet. Use /wordle to start!", name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📈 Stats for %s\n", name)
	b.WriteString("━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(&b, "🎮 Played: %d\n", st.GamesPlayed)
	fmt.Fprintf(&b, "🏆 Win rate: %d%% (%d/%d)\n", st.WinRate(), st.GamesWon, st.GamesPlayed)
	fmt.Fprintf(&b, "🔥 Streak: %d (best %d)\n", st.CurrentStreak, st.MaxStreak)
	if st.GamesWon > 0 {
		fmt.Fprintf(&b, "🎯 Average guesses: %.2f\n", st.AverageGuesses)
	}
	if st.TotalTimeSeconds > 0 {
		fmt.Fprintf(&b, "⏱ Time played: %s\n", FormatDuration(st.TotalTimeSeconds))
	}
	if word, n := st.FavoriteOpener(); n > 0 {
		fmt.Fprintf(&b, "🚪 Favourite opener: %s (%d×)\n", strings.ToUpper(word), n)
	}

	b.WriteString("\nGuess distribution\n")
	top := 0
	for _, n := range st.GuessDistribution {
		top = max(top, n)
	}
	for i, n := range st.GuessDistribution {
		bar := 0
		if top > 0 {
			bar = n * 10 / top
		}
		fmt.Fprintf(&b, "%d %s %d\n", i+1, strings.Repeat("█", max(bar, 1)), n)
	}

	if badges := st.Achievements(); len(badges) > 0 {
		b.WriteString("\nAchievements: ")
		b.WriteString(strings.Join(badges, ", "))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

var leaderboardTitles = map[string]string{
	service.CategoryWinRate: "📈 Leaderboard - Win Rate",
	service.CategoryStreak:  "🔥 Leaderboard - Best Streaks",
	service.CategoryGames:   "🎮 Leaderboard - Most Active",
	service.CategoryAverage: "🎯 Leaderboard - Best Average",
}

// FormatLeaderboard renders a ranked leaderboard.
func FormatLeaderboard(category string, entries []service.LeaderboardEntry) string {
	var b strings.Builder
	b.WriteString(leaderboardTitles[category])
	b.WriteString("\n━━━━━━━━━━━━━━━\n")
	if len(entries) == 0 {
		b.WriteString("No players have enough data yet!")
		return b.String()
	}
	for i, e := range entries {
		name := e.Username
		if name == "" {
			name = fmt.Sprintf("User %d", e.Player)
		}
		st := e.Stats
		fmt.Fprintf(&b, "%s %s - ", RankEmoji(i), name)
		switch category {
		case service.CategoryStreak:
			fmt.Fprintf(&b, "Best: %d, Current: %d", st.MaxStreak, st.CurrentStreak)
		case service.CategoryGames:
			fmt.Fprintf(&b, "%d games played", st.GamesPlayed)
		case service.CategoryAverage:
			fmt.Fprintf(&b, "%.2f avg guesses", st.AverageGuesses)
		default:
			fmt.Fprintf(&b, "%d%% (%d/%d)", st.WinRate(), st.GamesWon, st.GamesPlayed)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nCategories: winrate, streak, games, average")
	return b.String()
}

// FormatStreak renders a community streak.
func FormatStreak(st model.CommunityState) string {
	if st.StreakCount == 0 {
		return "💔 No active streak. Finish today's puzzle to start one!"
	}
	return fmt.Sprintf("🔥 This group is on a %d-day streak! (last completed %s)", st.StreakCount, st.LastStreakDate)
}

// FormatSummary renders the daily summary post.
func FormatSummary(s service.Summary) string {
	var b strings.Builder
	b.WriteString("📊 Daily Better Wordle Summary\n")
	b.WriteString("━━━━━━━━━━━━━━━\n")

	if s.Empty() {
		b.WriteString("💔 No one completed yesterday's puzzle.\n")
		fmt.Fprintf(&b, "Yesterday's word was: %s\n", strings.ToUpper(s.Word))
		if s.Streak == 0 {
			b.WriteString("Streak broken.\n")
		}
		fmt.Fprintf(&b, "\nDate: %s", s.Date)
		return b.String()
	}

	fmt.Fprintf(&b, "🎯 Yesterday's word: %s\n\n", strings.ToUpper(s.Word))
	if s.Streak > 0 {
		fmt.Fprintf(&b, "🔥 Your group is on a %d-day streak! Here are yesterday's results:\n\n", s.Streak)
	} else {
		b.WriteString("Here's how everyone did:\n\n")
	}

	for _, g := range s.Groups {
		fmt.Fprintf(&b, "%s %s: %s\n", ScoreEmoji(g.Score), g.Score, strings.Join(g.Players, " • "))
	}

	fmt.Fprintf(&b, "\nPlayers: %d | Success rate: %d%%", s.Players, s.SuccessRate)
	if s.AvgGuesses > 0 {
		fmt.Fprintf(&b, " | Avg guesses: %.1f", s.AvgGuesses)
	}
	if s.Fastest != nil {
		name := s.Fastest.Username
		if name == "" {
			name = fmt.Sprintf("User %d", s.Fastest.Player)
		}
		fmt.Fprintf(&b, "\n⚡ Fastest: %s (%s)", name, FormatDuration(s.Fastest.ElapsedSeconds))
	}
	fmt.Fprintf(&b, "\n\nDate: %s • Use /wordle to play today!", s.Date)
	return b.String()
}
