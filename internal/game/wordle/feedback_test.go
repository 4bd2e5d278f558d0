package wordle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name   string
		guess  string
		answer string
		want   Feedback
	}{
		{"exact match", "erase", "erase", Feedback{Hit, Hit, Hit, Hit, Hit}},
		{"nothing shared", "pudgy", "erase", Feedback{Miss, Miss, Miss, Miss, Miss}},
		// Neither e lines up, so both claim one of the answer's two e's.
		{"repeated letter misplaced", "speed", "erase", Feedback{Present, Miss, Present, Present, Miss}},
		{"hits claimed before presents", "eerie", "erase", Feedback{Hit, Miss, Present, Miss, Hit}},
		{"extra copy is a miss", "lolly", "hello", Feedback{Miss, Present, Hit, Hit, Miss}},
		{"duplicate in answer", "abbey", "kebab", Feedback{Present, Present, Hit, Present, Miss}},
		{"anagram", "least", "slate", Feedback{Present, Present, Hit, Present, Present}},
		{"mixed", "crane", "trace", Feedback{Present, Hit, Hit, Miss, Hit}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.guess, tt.answer))
		})
	}
}

func TestFeedback_String(t *testing.T) {
	fb := Feedback{Hit, Present, Miss, Hit, Miss}
	assert.Equal(t, "🟩🟨⬜🟩⬜", fb.String())
	assert.False(t, fb.Solved())
	assert.True(t, Feedback{Hit, Hit, Hit, Hit, Hit}.Solved())
}

func TestParseFeedback(t *testing.T) {
	fb := Feedback{Miss, Present, Hit, Hit, Present}
	parsed, err := ParseFeedback(fb.String())
	require.NoError(t, err)
	assert.Equal(t, fb, parsed)

	for _, bad := range []string{"", "🟩🟩🟩🟩", "🟩🟩🟩🟩🟩🟩", "xxxxx"} {
		_, err := ParseFeedback(bad)
		assert.Error(t, err, bad)
	}
}

func TestMark_String(t *testing.T) {
	assert.Equal(t, "hit", Hit.String())
	assert.Equal(t, "present", Present.String())
	assert.Equal(t, "miss", Miss.String())
}
