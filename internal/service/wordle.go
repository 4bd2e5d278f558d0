// Package service coordinates the Wordle engine: live sessions, the results
// ledger, player stats, community streaks and persistence.
package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"better-wordle-bot/internal/game"
	"better-wordle-bot/internal/game/daily"
	"better-wordle-bot/internal/game/wordle"
	"better-wordle-bot/internal/model"
)

// Service errors.
var (
	ErrActiveGame       = errors.New("you already have a game in progress")
	ErrAlreadyCompleted = errors.New("you already finished today's puzzle")
	ErrNoActiveGame     = errors.New("you don't have an active game")
)

// DefaultTitle prefixes shareable result strings.
const DefaultTitle = "Better Wordle"

// fastestCutoff bounds the solve times eligible for the summary's fastest entry.
const fastestCutoff = 300

// StateStore loads and saves the persisted state document.
type StateStore interface {
	Load(ctx context.Context) (*model.State, error)
	Save(ctx context.Context, state *model.State) error
}

// EventSink receives game lifecycle notifications. It is called after the
// service lock is released, so a slow sink only delays the calling player.
type EventSink interface {
	GameStarted(s *wordle.Session, username string)
	GameFinished(s *wordle.Session, rec model.CompletionRecord)
}

type nopSink struct{}

func (nopSink) GameStarted(*wordle.Session, string) {}
func (nopSink) GameFinished(*wordle.Session, model.CompletionRecord) {}

// Options tunes a WordleService. Zero values pick the defaults.
type Options struct {
	Title       string
	IdleTimeout time.Duration
	Location    *time.Location
	Now         func() time.Time
}

// GuessOutcome is the result of a guess or give-up.
type GuessOutcome struct {
	Session   *wordle.Session
	Feedback  wordle.Feedback
	Completed bool
	Record    model.CompletionRecord
}

// WordleService owns all bot state. Every exported method is one serialized
// unit of work and saves the state after mutating it.
type WordleService struct {
	mu sync.Mutex

	state    *model.State
	ledger   *Ledger
	stats    *Stats
	streaks  *Streaks
	sessions *game.Registry
	names    map[int64]string

	selector *daily.Selector
	vocab    wordle.Vocabulary
	store    StateStore
	events   EventSink

	title       string
	idleTimeout time.Duration
	loc         *time.Location
	now         func() time.Time
}

// NewWordleService loads the persisted state from store. A nil store keeps
// state in memory only; a nil sink drops events.
func NewWordleService(
	ctx context.Context,
	selector *daily.Selector,
	vocab wordle.Vocabulary,
	store StateStore,
	sink EventSink,
	opts Options,
) (*WordleService, error) {
	if selector == nil {
		return nil, errors.New("selector is required")
	}

	state := model.NewState()
	if store != nil {
		loaded, err := store.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load state: %w", err)
		}
		if loaded != nil {
			state = loaded
		}
	}
	state.Normalize()

	if sink == nil {
		sink = nopSink{}
	}
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ledger := NewLedger(state.DailyResults)
	return &WordleService{
		state:       state,
		ledger:      ledger,
		stats:       NewStats(state.UserStats),
		streaks:     NewStreaks(state.GuildSettings, ledger),
		sessions:    game.NewRegistry(),
		names:       make(map[int64]string),
		selector:    selector,
		vocab:       vocab,
		store:       store,
		events:      sink,
		title:       opts.Title,
		idleTimeout: opts.IdleTimeout,
		loc:         opts.Location,
		now:         opts.Now,
	}, nil
}

// Today returns the current calendar day in the service's location.
func (s *WordleService) Today() time.Time {
	return daily.Date(s.now().In(s.loc))
}

// Start begins today's puzzle for player in community.
// It returns the live session together with ErrActiveGame if one exists.
// A live session left over from an earlier day is discarded first.
func (s *WordleService) Start(ctx context.Context, player, community int64, username string) (*wordle.Session, error) {
	s.mu.Lock()
	sess, err := s.start(player, community, username)
	s.mu.Unlock()

	if err == nil {
		s.events.GameStarted(sess, username)
	}
	return sess, err
}

func (s *WordleService) start(player, community int64, username string) (*wordle.Session, error) {
	now := s.now().In(s.loc)
	today := daily.Date(now)

	if sess, ok := s.sessions.Get(player); ok {
		if !sess.Date.Before(today) {
			return sess, ErrActiveGame
		}
		s.sessions.Remove(player)
		delete(s.names, player)
		log.Info().
			Int64("user_id", player).
			Int64("chat_id", sess.Community).
			Str("date", daily.Key(sess.Date)).
			Int("guesses", sess.GuessCount()).
			Msg("Stale game discarded")
	}

	if s.ledger.Has(community, daily.Key(today), player) {
		return nil, ErrAlreadyCompleted
	}

	puzzle := s.selector.Puzzle(today)
	sess := wordle.NewSession(player, community, puzzle.Date, puzzle.Answer, s.vocab, now)
	if err := s.sessions.Start(sess); err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	s.names[player] = username

	log.Debug().
		Int64("user_id", player).
		Int64("chat_id", community).
		Str("date", daily.Key(today)).
		Str("session_id", sess.ID.String()).
		Msg("Game started")
	return sess, nil
}

// Guess submits raw to the player's live session. A rejected guess is
// returned as a wordle.RejectReason with the session untouched.
func (s *WordleService) Guess(ctx context.Context, player int64, raw string) (GuessOutcome, error) {
	s.mu.Lock()
	out, recorded, err := s.guess(ctx, player, raw)
	s.mu.Unlock()

	if recorded {
		s.events.GameFinished(out.Session, out.Record)
	}
	return out, err
}

func (s *WordleService) guess(ctx context.Context, player int64, raw string) (GuessOutcome, bool, error) {
	sess, ok := s.sessions.Get(player)
	if !ok {
		return GuessOutcome{}, false, ErrNoActiveGame
	}

	fb, err := sess.SubmitGuess(raw, s.now().In(s.loc))
	if err != nil {
		return GuessOutcome{Session: sess}, false, err
	}

	out := GuessOutcome{Session: sess, Feedback: fb}
	if !sess.Completed() {
		return out, false, nil
	}
	out.Completed = true
	rec, recorded := s.complete(ctx, sess)
	out.Record = rec
	return out, recorded, nil
}

// GiveUp abandons the player's live session. It counts as a loss.
func (s *WordleService) GiveUp(ctx context.Context, player int64) (GuessOutcome, error) {
	s.mu.Lock()
	sess, ok := s.sessions.Get(player)
	if !ok {
		s.mu.Unlock()
		return GuessOutcome{}, ErrNoActiveGame
	}
	sess.Abandon(s.now().In(s.loc))
	rec, recorded := s.complete(ctx, sess)
	s.mu.Unlock()

	if recorded {
		s.events.GameFinished(sess, rec)
	}
	return GuessOutcome{
		Session:   sess,
		Completed: true,
		Record:    rec,
	}, nil
}

// complete writes the record for a finished session, folds it into stats
// the first time the player finishes that day, and retires the session.
// It reports whether the record was written. Events are left to the caller
// so they go out after the lock is released.
func (s *WordleService) complete(ctx context.Context, sess *wordle.Session) (model.CompletionRecord, bool) {
	key := daily.Key(sess.Date)
	rec := model.CompletionRecord{
		Player:         sess.Player,
		Community:      sess.Community,
		Date:           key,
		Username:       s.names[sess.Player],
		Won:            sess.Won(),
		Guesses:        sess.GuessCount(),
		ElapsedSeconds: sess.Elapsed(),
		ResultString:   sess.ResultString(s.title),
		CompletedAt:    sess.EndedAt,
	}

	s.sessions.Remove(sess.Player)
	delete(s.names, sess.Player)

	if err := s.ledger.Append(sess.Community, key, sess.Player, rec); err != nil {
		log.Warn().Err(err).
			Int64("user_id", sess.Player).
			Int64("chat_id", sess.Community).
			Str("date", key).
			Msg("Completion not recorded")
		return rec, false
	}

	if key > s.stats.Get(sess.Player).LastPlayed {
		s.stats.Record(sess.Player, rec.Won, rec.Guesses, sess.FirstGuess(), rec.ElapsedSeconds, key)
	}

	log.Info().
		Int64("user_id", sess.Player).
		Int64("chat_id", sess.Community).
		Str("date", key).
		Str("score", rec.Score()).
		Bool("abandoned", sess.Abandoned).
		Msg("Game finished")

	_ = s.persist(ctx)
	return rec, true
}

// Session returns the player's live session.
func (s *WordleService) Session(player int64) (*wordle.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.Get(player)
}

// ActiveSessions returns the number of live sessions.
func (s *WordleService) ActiveSessions() int {
	return s.sessions.Count()
}

// Record returns the player's record for date in community.
func (s *WordleService) Record(community, player int64, date time.Time) (model.CompletionRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Lookup(community, daily.Key(date), player)
}

// Results returns the community's records for date, best first.
func (s *WordleService) Results(community int64, date time.Time) []model.CompletionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedResults(s.ledger.Get(community, daily.Key(date)))
}

func sortedResults(day map[int64]model.CompletionRecord) []model.CompletionRecord {
	out := lo.Values(day)
	slices.SortFunc(out, compareRecords)
	return out
}

// compareRecords orders wins before losses, then fewer guesses, faster
// solves and finally player ID.
func compareRecords(a, b model.CompletionRecord) int {
	if a.Won != b.Won {
		if a.Won {
			return -1
		}
		return 1
	}
	if a.Won {
		if c := cmp.Compare(a.Guesses, b.Guesses); c != 0 {
			return c
		}
	}
	return cmp.Or(
		cmp.Compare(a.ElapsedSeconds, b.ElapsedSeconds),
		cmp.Compare(a.Player, b.Player),
	)
}

// Stats returns the player's cumulative stats.
func (s *WordleService) Stats(player int64) model.UserStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats.Get(player)
}

// Streak refreshes and returns the community's streak.
func (s *WordleService) Streak(ctx context.Context, community int64) (model.CommunityState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.streaks.Get(community)
	st := s.streaks.Refresh(community, s.Today())
	if st != before {
		if err := s.persist(ctx); err != nil {
			return st, err
		}
	}
	return st, nil
}

// SetChannel makes channel the destination of community's daily summary.
func (s *WordleService) SetChannel(ctx context.Context, community, channel int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.streaks.SetChannel(community, channel)
	log.Info().Int64("chat_id", community).Int64("channel_id", channel).Msg("Summary channel set")
	return s.persist(ctx)
}

// TodayWord reveals today's answer to an admin.
func (s *WordleService) TodayWord(admin int64) string {
	today := s.Today()
	log.Info().
		Int64("admin_id", admin).
		Str("operation", "reveal_word").
		Str("date", daily.Key(today)).
		Msg("Admin operation")
	return s.selector.Select(today)
}

// AdminDeleteResult removes one ledger entry so the player can replay the day.
// Stats already recorded are left alone.
func (s *WordleService) AdminDeleteResult(ctx context.Context, admin, community, player int64, date time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := daily.Key(date)
	removed := s.ledger.Delete(community, key, player)
	log.Info().
		Int64("admin_id", admin).
		Int64("target_id", player).
		Int64("chat_id", community).
		Str("operation", "delete_result").
		Str("date", key).
		Bool("removed", removed).
		Msg("Admin operation")

	if !removed {
		return false, nil
	}
	return true, s.persist(ctx)
}

// AdminResetStats clears the player's cumulative stats.
func (s *WordleService) AdminResetStats(ctx context.Context, admin, player int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, removed := s.stats.Reset(player)
	log.Info().
		Int64("admin_id", admin).
		Int64("target_id", player).
		Str("operation", "reset_stats").
		Int("games_played", prev.GamesPlayed).
		Bool("removed", removed).
		Msg("Admin operation")

	if !removed {
		return false, nil
	}
	return true, s.persist(ctx)
}

// ExpireIdle discards live sessions idle for longer than the configured
// timeout. Discarded sessions leave no record.
func (s *WordleService) ExpireIdle(now time.Time) []*wordle.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	expired := s.sessions.ExpireIdle(now, s.idleTimeout)
	for _, sess := range expired {
		delete(s.names, sess.Player)
		log.Info().
			Int64("user_id", sess.Player).
			Int64("chat_id", sess.Community).
			Int("guesses", sess.GuessCount()).
			Msg("Idle game discarded")
	}
	return expired
}

// Save persists the current state.
func (s *WordleService) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(ctx)
}

func (s *WordleService) persist(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Save(ctx, s.state); err != nil {
		log.Error().Err(err).Msg("Failed to save state")
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

func normalizeCategory(category string) string {
	switch c := strings.ToLower(strings.TrimSpace(category)); c {
	case CategoryStreak, CategoryGames, CategoryAverage:
		return c
	default:
		return CategoryWinRate
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
