package wordle

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"better-wordle-bot/internal/game/daily"
	"better-wordle-bot/internal/model"
	"better-wordle-bot/internal/words"
)

// RejectReason explains why a guess was refused. Rejections never mutate the session.
type RejectReason string

func (r RejectReason) Error() string {
	return string(r)
}

// Guess rejections.
const (
	ErrInvalidLength   RejectReason = "guess must be 5 letters"
	ErrDuplicateGuess  RejectReason = "you already guessed that word"
	ErrNotAcceptedWord RejectReason = "not a valid word"
)

// Status is the session lifecycle state. InProgress is the only non-terminal state.
type Status uint8

const (
	InProgress Status = iota
	Won
	Lost
)

func (s Status) String() string {
	switch s {
	case Won:
		return "won"
	case Lost:
		return "lost"
	default:
		return "in_progress"
	}
}

// Vocabulary decides which words may be guessed.
type Vocabulary interface {
	IsAccepted(word string) bool
}

// Guess is one accepted guess and its feedback.
type Guess struct {
	Word     string
	Feedback Feedback
}

// Session is one player's attempt at one day's puzzle.
// It is owned by a single player and must not be shared between goroutines.
type Session struct {
	ID           uuid.UUID
	Player       int64
	Community    int64
	Date         time.Time
	Answer       string
	Guesses      []Guess
	MaxGuesses   int
	Status       Status
	Abandoned    bool
	StartedAt    time.Time
	EndedAt      time.Time
	LastActivity time.Time

	vocab Vocabulary
}

// NewSession starts a session for answer. vocab may be nil, in which case
// any five-letter a-z word is accepted.
func NewSession(player, community int64, date time.Time, answer string, vocab Vocabulary, now time.Time) *Session {
	return &Session{
		ID:           uuid.New(),
		Player:       player,
		Community:    community,
		Date:         daily.Date(date),
		Answer:       strings.ToLower(answer),
		MaxGuesses:   model.MaxGuesses,
		Status:       InProgress,
		StartedAt:    now,
		LastActivity: now,
		vocab:        vocab,
	}
}

// Normalize trims and lowercases a raw guess.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// SubmitGuess validates raw, then evaluates and records it.
//
// Rejections are checked in order: length, duplicate, vocabulary. A
// successful call appends exactly one guess and may complete the session.
// Calling SubmitGuess on a completed session is a programming error and panics.
func (s *Session) SubmitGuess(raw string, now time.Time) (Feedback, error) {
	if s.Status != InProgress {
		panic(fmt.Sprintf("wordle: guess submitted to %s session %s", s.Status, s.ID))
	}

	guess := Normalize(raw)
	if utf8.RuneCountInString(guess) != words.WordLength {
		return Feedback{}, ErrInvalidLength
	}
	if s.HasGuessed(guess) {
		return Feedback{}, ErrDuplicateGuess
	}
	if !s.accepts(guess) {
		return Feedback{}, ErrNotAcceptedWord
	}

	fb := Evaluate(guess, s.Answer)
	s.Guesses = append(s.Guesses, Guess{Word: guess, Feedback: fb})
	s.LastActivity = now

	switch {
	case guess == s.Answer:
		s.finish(Won, now)
	case len(s.Guesses) >= s.MaxGuesses:
		s.finish(Lost, now)
	}
	return fb, nil
}

// Abandon gives up the session, forcing Lost, and returns the answer.
// A session that is already complete is left unchanged.
func (s *Session) Abandon(now time.Time) string {
	if s.Status == InProgress {
		s.Abandoned = true
		s.finish(Lost, now)
	}
	return s.Answer
}

func (s *Session) finish(st Status, now time.Time) {
	s.Status = st
	s.EndedAt = now
	s.LastActivity = now
}

func (s *Session) accepts(guess string) bool {
	if !words.IsAlpha(guess) {
		return false
	}
	return s.vocab == nil || s.vocab.IsAccepted(guess)
}

// HasGuessed reports whether word was already accepted in this session.
func (s *Session) HasGuessed(word string) bool {
	word = Normalize(word)
	for _, g := range s.Guesses {
		if g.Word == word {
			return true
		}
	}
	return false
}

// Completed reports whether the session reached a terminal state.
func (s *Session) Completed() bool {
	return s.Status != InProgress
}

// Won reports whether the player solved the puzzle.
func (s *Session) Won() bool {
	return s.Status == Won
}

// GuessCount returns the number of accepted guesses.
func (s *Session) GuessCount() int {
	return len(s.Guesses)
}

// Remaining returns how many guesses are left.
func (s *Session) Remaining() int {
	return s.MaxGuesses - len(s.Guesses)
}

// FirstGuess returns the opening word, or "" if nothing was guessed.
func (s *Session) FirstGuess() string {
	if len(s.Guesses) == 0 {
		return ""
	}
	return s.Guesses[0].Word
}

// Elapsed returns the whole seconds between start and completion.
// It is zero while the session is in progress.
func (s *Session) Elapsed() int64 {
	if s.EndedAt.IsZero() {
		return 0
	}
	return int64(math.Round(s.EndedAt.Sub(s.StartedAt).Seconds()))
}

// Score returns "N/6" for a win and "X/6" otherwise.
func (s *Session) Score() string {
	if s.Status == Won {
		return fmt.Sprintf("%d/%d", len(s.Guesses), s.MaxGuesses)
	}
	return fmt.Sprintf("X/%d", s.MaxGuesses)
}

// Render returns the numbered board, padded with empty rows up to MaxGuesses.
func (s *Session) Render() string {
	var b strings.Builder
	for i, g := range s.Guesses {
		fmt.Fprintf(&b, "%d. %s %s\n", i+1, strings.ToUpper(g.Word), g.Feedback)
	}
	for i := len(s.Guesses); i < s.MaxGuesses; i++ {
		fmt.Fprintf(&b, "%d. _____ %s\n", i+1, Feedback{})
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// ResultString returns the shareable result: a title line with the score
// followed by one row of squares per guess. It is empty while in progress.
func (s *Session) ResultString(title string) string {
	if !s.Completed() {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s\n", title, daily.Key(s.Date), s.Score())
	for _, g := range s.Guesses {
		b.WriteString("\n")
		b.WriteString(g.Feedback.String())
	}
	return b.String()
}

var keyboardRows = []string{"QWERTYUIOP", "ASDFGHJKL", "ZXCVBNM"}

// Keyboard returns a QWERTY layout annotated with the best feedback seen
// for each letter. Unused letters get a black square.
func (s *Session) Keyboard() string {
	best := make(map[rune]Mark)
	for _, g := range s.Guesses {
		for i, r := range strings.ToUpper(g.Word) {
			m := g.Feedback[i]
			if cur, ok := best[r]; !ok || m > cur {
				best[r] = m
			}
		}
	}

	var b strings.Builder
	for i, row := range keyboardRows {
		if i > 0 {
			b.WriteString("\n")
		}
		for j, r := range row {
			if j > 0 {
				b.WriteString(" ")
			}
			if m, ok := best[r]; ok {
				b.WriteString(m.Glyph())
			} else {
				b.WriteString("⬛")
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}
