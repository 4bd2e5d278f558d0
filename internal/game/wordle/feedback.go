// Package wordle implements the puzzle engine: guess feedback, the
// single-player session state machine and its board projections.
package wordle

import (
	"fmt"
	"strings"

	"better-wordle-bot/internal/words"
)

// Mark is the feedback for one letter of a guess.
type Mark uint8

const (
	// Miss means the letter is not in the answer (or all its occurrences are claimed).
	Miss Mark = iota
	// Present means the letter is in the answer at another position.
	Present
	// Hit means the letter is in the answer at this position.
	Hit
)

// Glyphs used in boards and share strings.
const (
	GlyphHit     = "🟩"
	GlyphPresent = "🟨"
	GlyphMiss    = "⬜"
)

// Glyph returns the square shown for m.
func (m Mark) Glyph() string {
	switch m {
	case Hit:
		return GlyphHit
	case Present:
		return GlyphPresent
	default:
		return GlyphMiss
	}
}

func (m Mark) String() string {
	switch m {
	case Hit:
		return "hit"
	case Present:
		return "present"
	default:
		return "miss"
	}
}

// Feedback is the per-letter result of a guess, aligned with the guess.
type Feedback [words.WordLength]Mark

// String renders the feedback as a row of squares.
func (f Feedback) String() string {
	var b strings.Builder
	for _, m := range f {
		b.WriteString(m.Glyph())
	}
	return b.String()
}

// Solved reports whether every letter is a Hit.
func (f Feedback) Solved() bool {
	for _, m := range f {
		if m != Hit {
			return false
		}
	}
	return true
}

// ParseFeedback parses a row of squares produced by Feedback.String.
func ParseFeedback(s string) (Feedback, error) {
	var f Feedback
	rest := s
	for i := range f {
		switch {
		case strings.HasPrefix(rest, GlyphHit):
			f[i], rest = Hit, rest[len(GlyphHit):]
		case strings.HasPrefix(rest, GlyphPresent):
			f[i], rest = Present, rest[len(GlyphPresent):]
		case strings.HasPrefix(rest, GlyphMiss):
			f[i], rest = Miss, rest[len(GlyphMiss):]
		default:
			return Feedback{}, fmt.Errorf("invalid feedback %q at position %d", s, i)
		}
	}
	if rest != "" {
		return Feedback{}, fmt.Errorf("invalid feedback %q: trailing %q", s, rest)
	}
	return f, nil
}

// Evaluate compares guess against answer.
//
// Pass 1 marks exact matches as Hit and consumes the answer letter.
// Pass 2 marks each remaining guess letter Present if an unconsumed copy
// exists in the answer, consuming it, and Miss otherwise. Each answer letter
// is therefore claimed at most once.
//
// Both words must be WordLength lowercase ASCII letters; callers validate.
func Evaluate(guess, answer string) Feedback {
	var f Feedback
	var remaining [words.WordLength]byte
	var hit [words.WordLength]bool

	for i := 0; i < words.WordLength; i++ {
		if guess[i] == answer[i] {
			f[i] = Hit
			hit[i] = true
		} else {
			remaining[i] = answer[i]
		}
	}

	for i := 0; i < words.WordLength; i++ {
		if hit[i] {
			continue
		}
		f[i] = Miss
		for j := range remaining {
			if remaining[j] != 0 && remaining[j] == guess[i] {
				f[i] = Present
				remaining[j] = 0
				break
			}
		}
	}
	return f
}
