package bot

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"

	"better-wordle-bot/internal/config"
)

// fakeContext implements the parts of tele.Context the middleware touches.
type fakeContext struct {
	tele.Context
	chat    *tele.Chat
	sender  *tele.User
	text     string
	callback *tele.Callback
	replies  []string
}

func (f *fakeContext) Chat() *tele.Chat   { return f.chat }
func (f *fakeContext) Sender() *tele.User { return f.sender }
func (f *fakeContext) Text() string       { return f.text }

func (f *fakeContext) Callback() *tele.Callback { return f.callback }

func (f *fakeContext) Reply(what interface{}, _ ...interface{}) error {
	f.replies = append(f.replies, what.(string))
	return nil
}

func groupCtx(chatID, userID int64) *fakeContext {
	return &fakeContext{
		chat:   &tele.Chat{ID: chatID, Type: tele.ChatGroup},
		sender: &tele.User{ID: userID},
	}
}

func privateCtx(userID int64) *fakeContext {
	return &fakeContext{
		chat:   &tele.Chat{ID: userID, Type: tele.ChatPrivate},
		sender: &tele.User{ID: userID},
	}
}

// run passes c through mw and reports whether the next handler ran.
func run(mw tele.MiddlewareFunc, c tele.Context) (bool, error) {
	called := false
	err := mw(func(tele.Context) error {
		called = true
		return nil
	})(c)
	return called, err
}

func TestWhitelistMiddleware(t *testing.T) {
	cfg := &config.Config{
		Whitelist: config.WhitelistConfig{Chats: []int64{-100}},
		Admin:     config.AdminConfig{IDs: []int64{9}},
	}
	access := NewPrivateAccess()
	mw := WhitelistMiddleware(cfg, access)

	called, _ := run(mw, groupCtx(-200, 1))
	assert.False(t, called, "non-whitelisted group")

	called, _ = run(mw, privateCtx(1))
	assert.False(t, called, "private chat before the user was seen in a group")

	called, _ = run(mw, groupCtx(-100, 1))
	assert.True(t, called, "whitelisted group")

	called, _ = run(mw, privateCtx(1))
	assert.True(t, called, "private chat after the user was seen in a group")

	called, _ = run(mw, privateCtx(9))
	assert.True(t, called, "admins may always use private chat")

	called, _ = run(mw, &fakeContext{})
	assert.False(t, called, "updates without chat are dropped")
}

func TestWhitelistMiddleware_EmptyAllowsAll(t *testing.T) {
	mw := WhitelistMiddleware(&config.Config{}, NewPrivateAccess())

	called, _ := run(mw, groupCtx(-1, 1))
	assert.True(t, called)
	called, _ = run(mw, privateCtx(2))
	assert.True(t, called)
}

func TestAdminMiddleware(t *testing.T) {
	mw := AdminMiddleware(&config.Config{Admin: config.AdminConfig{IDs: []int64{9}}})

	c := groupCtx(-100, 1)
	called, err := run(mw, c)
	require.NoError(t, err)
	assert.False(t, called)
	require.Len(t, c.replies, 1)
	assert.Contains(t, c.replies[0], "Permission denied")

	c = groupCtx(-100, 9)
	called, err = run(mw, c)
	require.NoError(t, err)
	assert.True(t, called)
	assert.Empty(t, c.replies)
}

func TestRecoveryMiddleware(t *testing.T) {
	c := groupCtx(-100, 1)
	err := RecoveryMiddleware()(func(tele.Context) error {
		panic("boom")
	})(c)
	require.NoError(t, err)
	require.Len(t, c.replies, 1)
	assert.Contains(t, c.replies[0], "Something went wrong")

	want := errors.New("handler failed")
	err = RecoveryMiddleware()(func(tele.Context) error { return want })(c)
	assert.ErrorIs(t, err, want)
}

func TestLoggingMiddleware_PassesThrough(t *testing.T) {
	called, err := run(LoggingMiddleware(), groupCtx(-100, 1))
	require.NoError(t, err)
	assert.True(t, called)
}

func TestCommandOf(t *testing.T) {
	tests := []struct {
		name string
		c    *fakeContext
		want string
	}{
		{"plain text", &fakeContext{text: "crane"}, ""},
		{"command with args", &fakeContext{text: "/guess crane"}, "/guess"},
		{"command with bot name", &fakeContext{text: "/wordle@better_wordle_bot"}, "/wordle"},
		{"callback", &fakeContext{callback: &tele.Callback{Data: "\fwordle_giveup"}}, "callback:wordle_giveup"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, commandOf(tt.c))
		})
	}
}

func TestChatKind(t *testing.T) {
	assert.Equal(t, "none", chatKind(nil))
	assert.Equal(t, "private", chatKind(&tele.Chat{Type: tele.ChatPrivate}))
	assert.Equal(t, "group", chatKind(&tele.Chat{Type: tele.ChatSuperGroup}))
	assert.Equal(t, "channel", chatKind(&tele.Chat{Type: tele.ChatChannel}))
}

func TestLoggingMiddleware_ReturnsHandlerError(t *testing.T) {
	want := errors.New("send failed")
	err := LoggingMiddleware()(func(tele.Context) error { return want })(groupCtx(-100, 1))
	assert.ErrorIs(t, err, want)
}
