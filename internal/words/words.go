// Package words provides the answer pool and the accepted-guess vocabulary.
//
// Both lists are newline separated files of five-letter words. They are
// normalised to lowercase, and every answer is also an accepted guess.
package words

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// WordLength is the number of letters in every word.
const WordLength = 5

// ConfigurationError reports missing, empty or malformed word lists.
// It is fatal at startup.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("word list configuration: %s: %v", e.Reason, e.Err)
	}
	return "word list configuration: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// ErrNoAnswers is wrapped by the ConfigurationError returned for an empty answer pool.
var ErrNoAnswers = errors.New("answer list is empty")

// Source is an immutable answer pool plus accepted-guess vocabulary.
type Source struct {
	answers  []string
	answer   map[string]struct{}
	accepted map[string]struct{}
}

// New builds a Source from in-memory lists.
// Duplicate answers are dropped, keeping the first occurrence.
func New(answers, allowed []string) (*Source, error) {
	s := &Source{
		answer:   make(map[string]struct{}, len(answers)),
		accepted: make(map[string]struct{}, len(answers)+len(allowed)),
	}

	for _, raw := range answers {
		w, ok, err := normalize(raw)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if _, dup := s.answer[w]; dup {
			continue
		}
		s.answer[w] = struct{}{}
		s.accepted[w] = struct{}{}
		s.answers = append(s.answers, w)
	}
	if len(s.answers) == 0 {
		return nil, &ConfigurationError{Reason: "no answers loaded", Err: ErrNoAnswers}
	}

	for _, raw := range allowed {
		w, ok, err := normalize(raw)
		if err != nil {
			return nil, err
		}
		if ok {
			s.accepted[w] = struct{}{}
		}
	}

	return s, nil
}

// Load reads the answer and allowed-guess files.
func Load(answersPath, allowedPath string) (*Source, error) {
	answers, err := readWordFile(answersPath)
	if err != nil {
		return nil, err
	}
	allowed, err := readWordFile(allowedPath)
	if err != nil {
		return nil, err
	}
	return New(answers, allowed)
}

// Answers returns a copy of the ordered answer pool.
func (s *Source) Answers() []string {
	out := make([]string, len(s.answers))
	copy(out, s.answers)
	return out
}

// AnswerAt returns the answer at index i of the pool.
func (s *Source) AnswerAt(i int) string {
	return s.answers[i]
}

// AnswerCount returns the size of the answer pool.
func (s *Source) AnswerCount() int {
	return len(s.answers)
}

// AcceptedCount returns the size of the accepted-guess vocabulary.
func (s *Source) AcceptedCount() int {
	return len(s.accepted)
}

// IsAccepted reports whether word may be submitted as a guess.
func (s *Source) IsAccepted(word string) bool {
	_, ok := s.accepted[strings.ToLower(strings.TrimSpace(word))]
	return ok
}

// IsAnswer reports whether word is in the answer pool.
func (s *Source) IsAnswer(word string) bool {
	_, ok := s.answer[strings.ToLower(strings.TrimSpace(word))]
	return ok
}

// normalize lowercases and validates one list entry.
// Blank entries report ok=false without an error.
func normalize(raw string) (string, bool, error) {
	w := strings.ToLower(strings.TrimSpace(raw))
	if w == "" {
		return "", false, nil
	}
	if len(w) != WordLength || !IsAlpha(w) {
		return "", false, &ConfigurationError{Reason: fmt.Sprintf("invalid word %q", raw)}
	}
	return w, true, nil
}

// IsAlpha reports whether s consists only of a-z.
func IsAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

func readWordFile(path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &ConfigurationError{Reason: "word list path is empty"}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &ConfigurationError{Reason: "failed to open " + path, Err: err}
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, &ConfigurationError{Reason: "failed to read " + path, Err: err}
	}
	return out, nil
}
