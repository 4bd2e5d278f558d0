// Package daily maps calendar dates to puzzle answers and provides the
// calendar-day arithmetic used by streak bookkeeping.
package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"

	"better-wordle-bot/internal/words"
)

// KeyLayout is the layout of date keys in the ledger, e.g. "2024-03-09".
const KeyLayout = "2006-01-02"

// unixEpochOrdinal is the proleptic-Gregorian ordinal of 1970-01-01.
const unixEpochOrdinal = 719163

// DefaultSalt keys the selection HMAC when none is configured.
const DefaultSalt = "better-wordle"

// Date returns midnight of t's calendar day in t's location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Key returns the ledger key for t's calendar day.
func Key(t time.Time) string {
	return t.Format(KeyLayout)
}

// ParseKey parses a ledger key as midnight in loc.
func ParseKey(key string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(KeyLayout, key, loc)
}

// DaysBefore returns the calendar day n days before t's day.
func DaysBefore(t time.Time, n int) time.Time {
	return Date(t).AddDate(0, 0, -n)
}

// Yesterday returns the calendar day before t's day.
func Yesterday(t time.Time) time.Time {
	return DaysBefore(t, 1)
}

// Ordinal returns the proleptic-Gregorian ordinal of t's calendar day,
// where 0001-01-01 is day 1.
func Ordinal(t time.Time) int64 {
	y, m, d := t.Date()
	days := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
	return days + unixEpochOrdinal
}

// AnswerPool is the ordered answer list a Selector draws from.
type AnswerPool interface {
	AnswerCount() int
	AnswerAt(i int) string
}

// Puzzle is the derived puzzle for one day. It is never persisted.
type Puzzle struct {
	Date   time.Time
	Answer string
}

// Selector deterministically maps a calendar date to an answer.
type Selector struct {
	pool AnswerPool
	salt []byte
}

// NewSelector creates a Selector over pool.
// An empty pool is a configuration error, reported here rather than at selection time.
func NewSelector(pool AnswerPool, salt string) (*Selector, error) {
	if pool == nil || pool.AnswerCount() == 0 {
		return nil, &words.ConfigurationError{Reason: "cannot select daily words", Err: words.ErrNoAnswers}
	}
	if salt == "" {
		salt = DefaultSalt
	}
	return &Selector{pool: pool, salt: []byte(salt)}, nil
}

// Index returns the answer index for the calendar day of date:
// HMAC-SHA256(salt, ordinal) reduced modulo the pool size.
func (s *Selector) Index(date time.Time) int {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(Ordinal(date)))

	h := hmac.New(sha256.New, s.salt)
	h.Write(buf[:])
	sum := h.Sum(nil)

	n := binary.BigEndian.Uint64(sum[:8])
	return int(n % uint64(s.pool.AnswerCount()))
}

// Select returns the answer for the calendar day of date.
func (s *Selector) Select(date time.Time) string {
	return s.pool.AnswerAt(s.Index(date))
}

// Puzzle returns the puzzle for the calendar day of date.
func (s *Selector) Puzzle(date time.Time) Puzzle {
	return Puzzle{Date: Date(date), Answer: s.Select(date)}
}
