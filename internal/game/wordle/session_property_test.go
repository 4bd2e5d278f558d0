package wordle

import (
	"testing"
	"time"

	"pgregory.net/rapid"
)

// TestSessionInvariantsProperty drives a session with arbitrary input and
// checks the state machine invariants after every step:
//   - the guess list never exceeds MaxGuesses
//   - a rejected guess leaves the guess list untouched
//   - an accepted guess appends exactly one entry
//   - status only moves from InProgress to a terminal state
func TestSessionInvariantsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		answer := rapid.StringMatching(`[abc]{5}`).Draw(t, "answer")
		s := NewSession(1, 1, testDate, answer, nil, testNow)

		steps := rapid.IntRange(1, 20).Draw(t, "steps")
		for i := 0; i < steps && !s.Completed(); i++ {
			raw := rapid.OneOf(
				rapid.StringMatching(`[abc]{5}`),
				rapid.StringMatching(`[abc]{0,7}`),
				rapid.StringMatching(`[ABC1 ]{5}`),
			).Draw(t, "raw")

			before := len(s.Guesses)
			_, err := s.SubmitGuess(raw, testNow.Add(time.Duration(i)*time.Second))

			if err != nil {
				if len(s.Guesses) != before {
					t.Fatalf("rejected guess %q changed guess count %d -> %d", raw, before, len(s.Guesses))
				}
				if s.Status != InProgress {
					t.Fatalf("rejected guess %q changed status to %s", raw, s.Status)
				}
				continue
			}

			if len(s.Guesses) != before+1 {
				t.Fatalf("accepted guess %q changed guess count %d -> %d", raw, before, len(s.Guesses))
			}
			if len(s.Guesses) > s.MaxGuesses {
				t.Fatalf("guess count %d exceeds max %d", len(s.Guesses), s.MaxGuesses)
			}
			last := s.Guesses[len(s.Guesses)-1].Word
			switch {
			case last == answer && s.Status != Won:
				t.Fatalf("guessed the answer but status is %s", s.Status)
			case last != answer && len(s.Guesses) == s.MaxGuesses && s.Status != Lost:
				t.Fatalf("used every guess but status is %s", s.Status)
			case last != answer && len(s.Guesses) < s.MaxGuesses && s.Status != InProgress:
				t.Fatalf("unexpected terminal status %s", s.Status)
			}
		}

		if s.Completed() {
			final := s.Status
			s.Abandon(testNow.Add(time.Hour))
			if s.Status != final {
				t.Fatalf("abandon moved terminal status %s to %s", final, s.Status)
			}
		}
	})
}
