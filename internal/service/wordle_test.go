package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"better-wordle-bot/internal/game/daily"
	"better-wordle-bot/internal/game/wordle"
	"better-wordle-bot/internal/model"
	"better-wordle-bot/internal/words"
)

const (
	alice = int64(1)
	bob   = int64(2)
	group = int64(-500)
)

type memStore struct {
	state *model.State
	saves int
	err   error
}

func (m *memStore) Load(context.Context) (*model.State, error) {
	return m.state, nil
}

func (m *memStore) Save(_ context.Context, st *model.State) error {
	m.saves++
	m.state = st
	return m.err
}

type recordingSink struct {
	started  []string
	finished []model.CompletionRecord
}

func (r *recordingSink) GameStarted(_ *wordle.Session, username string) {
	r.started = append(r.started, username)
}

func (r *recordingSink) GameFinished(_ *wordle.Session, rec model.CompletionRecord) {
	r.finished = append(r.finished, rec)
}

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	svc   *WordleService
	store *memStore
	sink  *recordingSink
	clock *clock
}

func newFixture(t *testing.T, state *model.State) *fixture {
	t.Helper()
	src, err := words.New(
		[]string{"erase"},
		[]string{"crane", "speed", "adieu", "roate", "pious", "tiger", "lemon", "pudgy"},
	)
	require.NoError(t, err)
	sel, err := daily.NewSelector(src, "test")
	require.NoError(t, err)

	f := &fixture{
		store: &memStore{state: state},
		sink:  &recordingSink{},
		clock: &clock{t: time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)},
	}
	f.svc, err = NewWordleService(context.Background(), sel, src, f.store, f.sink, Options{
		IdleTimeout: 30 * time.Minute,
		Location:    time.UTC,
		Now:         f.clock.Now,
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) play(t *testing.T, player, community int64, guesses ...string) GuessOutcome {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.Start(ctx, player, community, "p")
	require.NoError(t, err)

	var out GuessOutcome
	for _, g := range guesses {
		f.clock.Advance(10 * time.Second)
		out, err = f.svc.Guess(ctx, player, g)
		require.NoError(t, err)
	}
	return out
}

func TestWordleService_StartTwiceReturnsLiveSession(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, alice, group, "alice")
	require.NoError(t, err)
	assert.Equal(t, "erase", sess.Answer)
	assert.Equal(t, daily.Date(f.clock.t), sess.Date)

	again, err := f.svc.Start(ctx, alice, group+1, "alice")
	assert.ErrorIs(t, err, ErrActiveGame)
	assert.Same(t, sess, again)
	assert.Equal(t, []string{"alice"}, f.sink.started)
}

func TestWordleService_GuessWithoutGame(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.Guess(context.Background(), alice, "crane")
	assert.ErrorIs(t, err, ErrNoActiveGame)

	_, err = f.svc.GiveUp(context.Background(), alice)
	assert.ErrorIs(t, err, ErrNoActiveGame)
}

func TestWordleService_RejectedGuessLeavesSession(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.svc.Start(ctx, alice, group, "alice")
	require.NoError(t, err)

	out, err := f.svc.Guess(ctx, alice, "zzzzz")
	var reason wordle.RejectReason
	require.True(t, errors.As(err, &reason))
	assert.Equal(t, wordle.ErrNotAcceptedWord, reason)
	assert.False(t, out.Completed)
	assert.Zero(t, out.Session.GuessCount())
}

func TestWordleService_WinRecordsResultAndStats(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, alice, group, "alice")
	require.NoError(t, err)
	f.clock.Advance(20 * time.Second)
	out, err := f.svc.Guess(ctx, alice, "crane")
	require.NoError(t, err)
	assert.False(t, out.Completed)
	assert.Zero(t, f.store.saves)

	f.clock.Advance(25 * time.Second)
	out, err = f.svc.Guess(ctx, alice, "ERASE")
	require.NoError(t, err)
	require.True(t, out.Completed)
	assert.True(t, out.Feedback.Solved())

	rec := out.Record
	assert.Equal(t, alice, rec.Player)
	assert.Equal(t, group, rec.Community)
	assert.Equal(t, "2024-03-09", rec.Date)
	assert.Equal(t, "alice", rec.Username)
	assert.True(t, rec.Won)
	assert.Equal(t, 2, rec.Guesses)
	assert.Equal(t, int64(45), rec.ElapsedSeconds)
	assert.Contains(t, rec.ResultString, "Better Wordle 2024-03-09 2/6")

	_, live := f.svc.Session(alice)
	assert.False(t, live)
	assert.Equal(t, 1, f.store.saves)
	assert.Equal(t, []model.CompletionRecord{rec}, f.sink.finished)

	st := f.svc.Stats(alice)
	assert.Equal(t, 1, st.GamesPlayed)
	assert.Equal(t, 1, st.GamesWon)
	assert.Equal(t, 1, st.GuessDistribution[1])
	assert.Equal(t, 1, st.FirstGuesses["crane"])
	assert.Equal(t, "2024-03-09", st.LastPlayed)

	got, ok := f.svc.Record(group, alice, f.clock.t)
	require.True(t, ok)
	assert.Equal(t, rec, got)

	_, err = f.svc.Start(ctx, alice, group, "alice")
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
}

func TestWordleService_StatsRecordedOncePerDay(t *testing.T) {
	f := newFixture(t, nil)

	f.play(t, alice, group, "erase")
	out := f.play(t, alice, group+1, "crane", "erase")

	assert.True(t, out.Record.Won)
	assert.Len(t, f.svc.Results(group+1, f.clock.t), 1)

	st := f.svc.Stats(alice)
	assert.Equal(t, 1, st.GamesPlayed)
	assert.Equal(t, 1, st.GuessDistribution[0])
	assert.Zero(t, st.GuessDistribution[1])
}

func TestWordleService_LossAfterSixGuesses(t *testing.T) {
	f := newFixture(t, nil)
	out := f.play(t, alice, group, "crane", "speed", "adieu", "roate", "pious", "tiger")

	require.True(t, out.Completed)
	assert.False(t, out.Record.Won)
	assert.Equal(t, 6, out.Record.Guesses)
	assert.Equal(t, "X/6", out.Record.Score())
	assert.Equal(t, 0, f.svc.Stats(alice).CurrentStreak)
}

func TestWordleService_GiveUpCountsAsLoss(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.play(t, alice, group, "crane")

	out, err := f.svc.GiveUp(ctx, alice)
	require.NoError(t, err)
	assert.True(t, out.Completed)
	assert.True(t, out.Session.Abandoned)
	assert.Equal(t, "erase", out.Session.Answer)
	assert.False(t, out.Record.Won)
	assert.Equal(t, 1, out.Record.Guesses)

	st := f.svc.Stats(alice)
	assert.Equal(t, 1, st.GamesPlayed)
	assert.Zero(t, st.GamesWon)

	_, err = f.svc.Start(ctx, alice, group, "alice")
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
}

func TestWordleService_ResultsOrdering(t *testing.T) {
	f := newFixture(t, nil)
	f.play(t, alice, group, "crane", "speed", "erase")
	f.play(t, bob, group, "erase")
	f.play(t, 3, group, "crane", "speed", "adieu", "roate", "pious", "tiger")

	results := f.svc.Results(group, f.clock.t)
	require.Len(t, results, 3)
	assert.Equal(t, []int64{bob, alice, 3}, []int64{results[0].Player, results[1].Player, results[2].Player})
}

func TestWordleService_AdminDeleteResultAllowsReplay(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.play(t, alice, group, "erase")

	removed, err := f.svc.AdminDeleteResult(ctx, 99, group, alice, f.clock.t)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Empty(t, f.svc.Results(group, f.clock.t))
	assert.NotContains(t, f.store.state.DailyResults[group], "2024-03-09")

	removed, err = f.svc.AdminDeleteResult(ctx, 99, group, alice, f.clock.t)
	require.NoError(t, err)
	assert.False(t, removed)

	// Replaying does not count twice.
	f.play(t, alice, group, "crane", "erase")
	assert.Equal(t, 1, f.svc.Stats(alice).GamesPlayed)
	assert.Len(t, f.svc.Results(group, f.clock.t), 1)
}

func TestWordleService_AdminResetStats(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.play(t, alice, group, "erase")

	removed, err := f.svc.AdminResetStats(ctx, 99, alice)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Zero(t, f.svc.Stats(alice).GamesPlayed)
	assert.Len(t, f.svc.Results(group, f.clock.t), 1, "ledger is untouched")

	removed, err = f.svc.AdminResetStats(ctx, 99, alice)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestWordleService_TodayWord(t *testing.T) {
	f := newFixture(t, nil)
	assert.Equal(t, "erase", f.svc.TodayWord(99))
}

func TestWordleService_ExpireIdle(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.svc.Start(ctx, alice, group, "alice")
	require.NoError(t, err)
	f.clock.Advance(20 * time.Minute)
	_, err = f.svc.Start(ctx, bob, group, "bob")
	require.NoError(t, err)

	f.clock.Advance(15 * time.Minute)
	expired := f.svc.ExpireIdle(f.clock.t)
	require.Len(t, expired, 1)
	assert.Equal(t, alice, expired[0].Player)
	assert.Equal(t, 1, f.svc.ActiveSessions())

	// An expired game leaves no record and can be restarted.
	assert.Empty(t, f.svc.Results(group, f.clock.t))
	_, err = f.svc.Start(ctx, alice, group, "alice")
	assert.NoError(t, err)
}

func TestWordleService_LoadsPersistedState(t *testing.T) {
	state := model.NewState()
	state.DailyResults[group] = map[string]model.DayResults{
		"2024-03-09": {alice: {Player: alice, Community: group, Date: "2024-03-09", Won: true, Guesses: 3}},
	}
	state.UserStats[alice] = model.UserStats{GamesPlayed: 4, GamesWon: 3, LastPlayed: "2024-03-09"}

	f := newFixture(t, state)
	_, err := f.svc.Start(context.Background(), alice, group, "alice")
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
	assert.Equal(t, 4, f.svc.Stats(alice).GamesPlayed)
	assert.NotNil(t, f.svc.Stats(alice).FirstGuesses)
}

func TestWordleService_SaveErrorsSurfaceOnAdminPaths(t *testing.T) {
	f := newFixture(t, nil)
	f.store.err = errors.New("disk full")

	err := f.svc.SetChannel(context.Background(), group, 123)
	assert.ErrorContains(t, err, "disk full")

	// Game play carries on and keeps the result in memory.
	out := f.play(t, alice, group, "erase")
	assert.True(t, out.Completed)
	assert.Len(t, f.svc.Results(group, f.clock.t), 1)
}

func TestWordleService_Streak(t *testing.T) {
	state := model.NewState()
	state.DailyResults[group] = map[string]model.DayResults{
		"2024-03-08": {alice: {Player: alice, Won: true, Guesses: 3}},
	}
	state.GuildSettings[group] = model.CommunityState{StreakCount: 4, LastStreakDate: "2024-03-07"}
	f := newFixture(t, state)

	st, err := f.svc.Streak(context.Background(), group)
	require.NoError(t, err)
	assert.Equal(t, 5, st.StreakCount)
	assert.Equal(t, "2024-03-08", st.LastStreakDate)
	assert.Equal(t, 1, f.store.saves)

	_, err = f.svc.Streak(context.Background(), group)
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.saves, "unchanged streak is not saved again")
}

func TestNewWordleService_RequiresSelector(t *testing.T) {
	_, err := NewWordleService(context.Background(), nil, nil, nil, nil, Options{})
	assert.Error(t, err)
}

// blockingSink holds every event until release is closed.
type blockingSink struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingSink) GameStarted(*wordle.Session, string) {
	b.entered <- struct{}{}
	<-b.release
}

func (b *blockingSink) GameFinished(*wordle.Session, model.CompletionRecord) {
	b.entered <- struct{}{}
	<-b.release
}

func TestWordleService_SlowEventSinkDoesNotBlockOthers(t *testing.T) {
	f := newFixture(t, nil)
	sink := &blockingSink{entered: make(chan struct{}, 4), release: make(chan struct{})}
	f.svc.events = sink
	ctx := context.Background()

	started := make(chan error, 1)
	go func() {
		_, err := f.svc.Start(ctx, alice, group, "alice")
		started <- err
	}()
	<-sink.entered

	done := make(chan struct{})
	go func() {
		f.svc.Stats(bob)
		f.svc.Results(group, f.svc.Today())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("another player's request waited for the event sink")
	}

	close(sink.release)
	require.NoError(t, <-started)

	_, err := f.svc.GiveUp(ctx, alice)
	require.NoError(t, err)
	<-sink.entered
}

func TestWordleService_StartDiscardsYesterdaysGame(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.clock.t = time.Date(2024, 3, 9, 23, 50, 0, 0, time.UTC)

	old, err := f.svc.Start(ctx, alice, group, "alice")
	require.NoError(t, err)
	f.clock.Advance(10 * time.Second)
	_, err = f.svc.Guess(ctx, alice, "crane")
	require.NoError(t, err)

	// Past midnight but inside the idle timeout.
	f.clock.Advance(15 * time.Minute)
	sess, err := f.svc.Start(ctx, alice, group, "alice")
	require.NoError(t, err)
	assert.NotSame(t, old, sess)
	assert.Equal(t, "2024-03-10", daily.Key(sess.Date))
	assert.Zero(t, sess.GuessCount())

	_, ok := f.svc.Record(group, alice, old.Date)
	assert.False(t, ok, "the discarded game leaves no record")
	assert.Zero(t, f.svc.Stats(alice).GamesPlayed)
	assert.Equal(t, 1, f.svc.ActiveSessions())
}
