package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"better-wordle-bot/internal/config"
	"better-wordle-bot/internal/game/daily"
	"better-wordle-bot/internal/game/wordle"
	"better-wordle-bot/internal/handler"
	"better-wordle-bot/internal/service"
)

// Sender delivers messages to Telegram chats. *tele.Bot implements it.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Jobs is the subset of the game service the scheduler drives.
type Jobs interface {
	ExpireIdle(now time.Time) []*wordle.Session
	RunDailySummaries(ctx context.Context, today time.Time, post service.PostFunc) (int, error)
}

// Scheduler runs the periodic jobs: idle game expiry every tick and the
// daily summary at the configured wall-clock time.
type Scheduler struct {
	jobs        Jobs
	sender      Sender
	summary     config.SummaryConfig
	idleTimeout time.Duration
	loc         *time.Location
	tick        time.Duration
	now         func() time.Time
}

// NewScheduler creates a scheduler for cfg.
func NewScheduler(cfg *config.Config, jobs Jobs, sender Sender) *Scheduler {
	return &Scheduler{
		jobs:        jobs,
		sender:      sender,
		summary:     cfg.Summary,
		idleTimeout: cfg.Game.IdleTimeout,
		loc:         cfg.Location(),
		tick:        time.Minute,
		now:         time.Now,
	}
}

// NextRun returns the first hour:minute strictly after now, in now's location.
func NextRun(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, hour, minute, 0, 0, now.Location())
	}
	return next
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	now := s.now().In(s.loc)
	next := NextRun(now, s.summary.Hour, s.summary.Minute)

	// Catch up when started after today's slot; the run marker stops repeats.
	if s.summary.Enabled && next.Day() != now.Day() {
		s.RunSummaries(ctx, now)
	}

	log.Info().
		Bool("summaries", s.summary.Enabled).
		Time("next_summary", next).
		Dur("idle_timeout", s.idleTimeout).
		Msg("Scheduler started")

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Scheduler stopped")
			return
		case <-ticker.C:
			now := s.now().In(s.loc)
			s.ExpireIdle(now)
			if !now.Before(next) {
				if s.summary.Enabled {
					s.RunSummaries(ctx, now)
				}
				next = NextRun(now, s.summary.Hour, s.summary.Minute)
			}
		}
	}
}

// ExpireIdle discards idle games and tells their players.
func (s *Scheduler) ExpireIdle(now time.Time) int {
	expired := s.jobs.ExpireIdle(now)
	for _, sess := range expired {
		msg := fmt.Sprintf("⌛ Your game was closed after %s without a guess. Use /wordle to start again.", s.idleTimeout)
		if _, err := s.sender.Send(tele.ChatID(sess.Player), msg); err != nil {
			log.Debug().Err(err).Int64("user_id", sess.Player).Msg("Failed to notify idle player")
		}
	}
	return len(expired)
}

// RunSummaries posts the daily summary for the day containing now.
func (s *Scheduler) RunSummaries(ctx context.Context, now time.Time) int {
	posted, err := s.jobs.RunDailySummaries(ctx, daily.Date(now), s.post)
	if err != nil {
		log.Error().Err(err).Msg("Daily summaries failed")
	}
	return posted
}

func (s *Scheduler) post(_ context.Context, summary service.Summary) error {
	_, err := s.sender.Send(tele.ChatID(summary.ChannelID), handler.FormatSummary(summary))
	return err
}
