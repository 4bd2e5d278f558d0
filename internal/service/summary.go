package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"better-wordle-bot/internal/game/daily"
	"better-wordle-bot/internal/model"
)

// ScoreGroup lists the players who finished with the same score.
type ScoreGroup struct {
	Score   string
	Players []string
}

// Summary describes one community's results for a finished day.
type Summary struct {
	Community   int64
	ChannelID   int64
	Date        string
	Word        string
	Streak      int
	Groups      []ScoreGroup
	Players     int
	Winners     int
	SuccessRate int
	AvgGuesses  float64
	Fastest     *model.CompletionRecord
}

// Empty reports whether nobody finished the day.
func (s Summary) Empty() bool {
	return s.Players == 0
}

// PostFunc delivers a summary to its channel.
type PostFunc func(ctx context.Context, summary Summary) error

// scoreOrder lists scores best first.
var scoreOrder = []string{"1/6", "2/6", "3/6", "4/6", "5/6", "6/6", "X/6"}

// DailySummary refreshes the community streak and summarises yesterday
// relative to today.
func (s *WordleService) DailySummary(ctx context.Context, community int64, today time.Time) (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := s.summarize(community, today)
	return summary, s.persist(ctx)
}

// RunDailySummaries settles every community's streak for today and posts a
// summary to each community with a channel. It runs at most once per day;
// later calls for the same today return 0 without posting.
// Posting failures are logged and do not stop the run.
func (s *WordleService) RunDailySummaries(ctx context.Context, today time.Time, post PostFunc) (int, error) {
	s.mu.Lock()
	key := daily.Key(today)
	if s.state.LastSummaryDate == key {
		s.mu.Unlock()
		log.Debug().Str("date", key).Msg("Daily summaries already ran")
		return 0, nil
	}

	communities := lo.Uniq(append(s.streaks.Communities(), s.ledger.Communities()...))
	slices.Sort(communities)
	var pending []Summary
	for _, community := range communities {
		summary := s.summarize(community, today)
		if summary.ChannelID != 0 {
			pending = append(pending, summary)
		}
	}
	prev := s.state.LastSummaryDate
	s.state.LastSummaryDate = key
	err := s.persist(ctx)
	if err != nil {
		// Unsaved runs are retried on the next trigger.
		s.state.LastSummaryDate = prev
	}
	s.mu.Unlock()
	if err != nil {
		return 0, err
	}

	posted := 0
	for _, summary := range pending {
		if err := post(ctx, summary); err != nil {
			log.Error().Err(err).
				Int64("chat_id", summary.Community).
				Int64("channel_id", summary.ChannelID).
				Str("date", summary.Date).
				Msg("Failed to post daily summary")
			continue
		}
		posted++
	}

	log.Info().Str("date", key).Int("communities", len(communities)).Int("posted", posted).Msg("Daily summaries done")
	return posted, nil
}

func (s *WordleService) summarize(community int64, today time.Time) Summary {
	yesterday := daily.Yesterday(today)
	st := s.streaks.Refresh(community, today)
	records := sortedResults(s.ledger.Get(community, daily.Key(yesterday)))

	summary := Summary{
		Community: community,
		ChannelID: st.ChannelID,
		Date:      daily.Key(yesterday),
		Word:      s.selector.Select(yesterday),
		Streak:    st.StreakCount,
		Players:   len(records),
	}
	if len(records) == 0 {
		return summary
	}

	byScore := lo.GroupBy(records, func(r model.CompletionRecord) string { return r.Score() })
	for _, score := range scoreOrder {
		if group, ok := byScore[score]; ok {
			summary.Groups = append(summary.Groups, ScoreGroup{
				Score:   score,
				Players: lo.Map(group, func(r model.CompletionRecord, _ int) string { return displayName(r) }),
			})
		}
	}

	winners := lo.Filter(records, func(r model.CompletionRecord, _ int) bool { return r.Won })
	summary.Winners = len(winners)
	summary.SuccessRate = int(round(float64(len(winners))*100/float64(len(records)), 0))
	if len(winners) > 0 {
		total := lo.SumBy(winners, func(r model.CompletionRecord) int { return r.Guesses })
		summary.AvgGuesses = round(float64(total)/float64(len(winners)), 1)
	}

	fast := lo.Filter(winners, func(r model.CompletionRecord, _ int) bool {
		return r.ElapsedSeconds > 0 && r.ElapsedSeconds < fastestCutoff
	})
	if len(fast) > 0 {
		best := slices.MinFunc(fast, compareElapsed)
		summary.Fastest = &best
	}
	return summary
}

func compareElapsed(a, b model.CompletionRecord) int {
	switch {
	case a.ElapsedSeconds < b.ElapsedSeconds:
		return -1
	case a.ElapsedSeconds > b.ElapsedSeconds:
		return 1
	default:
		return compareRecords(a, b)
	}
}

func displayName(r model.CompletionRecord) string {
	if r.Username != "" {
		return r.Username
	}
	return fmt.Sprintf("player %d", r.Player)
}
