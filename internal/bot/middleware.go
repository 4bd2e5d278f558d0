package bot

import (
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"better-wordle-bot/internal/config"
)

// PrivateAccess tracks users who have used the bot in an allowed group.
// Those users may play in private chat, which is where boards are sent.
type PrivateAccess struct {
	users map[int64]bool
	mu    sync.RWMutex
}

// NewPrivateAccess creates an empty PrivateAccess.
func NewPrivateAccess() *PrivateAccess {
	return &PrivateAccess{users: make(map[int64]bool)}
}

// Allow marks a user as allowed to use private chat.
func (p *PrivateAccess) Allow(userID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users[userID] = true
}

// Allowed checks if a user is allowed to use private chat.
func (p *PrivateAccess) Allowed(userID int64) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.users[userID]
}

// WhitelistMiddleware creates a middleware that checks if the chat is whitelisted.
// Private chats are let through for users already seen in an allowed group,
// or for everyone when the whitelist is empty.
func WhitelistMiddleware(cfg *config.Config, access *PrivateAccess) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chat := c.Chat()
			sender := c.Sender()

			if chat == nil || sender == nil {
				return nil
			}

			if chat.Type == tele.ChatPrivate {
				if access.Allowed(sender.ID) || len(cfg.Whitelist.Chats) == 0 || cfg.IsAdmin(sender.ID) {
					return next(c)
				}

				log.Debug().
					Int64("user_id", sender.ID).
					Msg("Ignoring private chat from user not seen in an allowed group")
				return nil
			}

			if !cfg.IsChatAllowed(chat.ID) {
				log.Debug().
					Int64("chat_id", chat.ID).
					Msg("Ignoring command from non-whitelisted chat")
				return nil
			}

			access.Allow(sender.ID)

			return next(c)
		}
	}
}

// AdminMiddleware creates a middleware that checks if the user is an admin.
func AdminMiddleware(cfg *config.Config) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return nil
			}

			if !cfg.IsAdmin(sender.ID) {
				log.Warn().
					Int64("user_id", sender.ID).
					Str("command", c.Text()).
					Msg("Non-admin attempted admin command")
				return c.Reply("❌ Permission denied: admin only")
			}

			return next(c)
		}
	}
}

// commandOf returns the bot command an update carries, e.g. "/guess", or ""
// for plain text. A "@botname" suffix is dropped.
func commandOf(c tele.Context) string {
	if cb := c.Callback(); cb != nil {
		return "callback:" + strings.TrimPrefix(cb.Data, "\f")
	}
	text := c.Text()
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	cmd, _, _ := strings.Cut(text, " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return cmd
}

// chatKind collapses telegram chat types into private, group or channel.
func chatKind(chat *tele.Chat) string {
	switch {
	case chat == nil:
		return "none"
	case chat.Type == tele.ChatPrivate:
		return "private"
	case chat.Type == tele.ChatChannel || chat.Type == tele.ChatChannelPrivate:
		return "channel"
	default:
		return "group"
	}
}

// LoggingMiddleware logs every update the bot handles. Plain text is logged
// only by length so private guesses stay out of the logs.
func LoggingMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			start := time.Now()
			err := next(c)

			ev := log.Debug()
			if err != nil {
				ev = log.Warn().Err(err)
			}
			if sender := c.Sender(); sender != nil {
				ev = ev.Int64("user_id", sender.ID)
			}
			if chat := c.Chat(); chat != nil {
				ev = ev.Int64("chat_id", chat.ID)
			}
			ev.
				Str("chat_kind", chatKind(c.Chat())).
				Str("command", commandOf(c)).
				Int("text_len", len(c.Text())).
				Dur("took", time.Since(start)).
				Msg("Update handled")
			return err
		}
	}
}

// RecoveryMiddleware turns a panic in a handler into a logged error and a
// short reply, so one bad update cannot stop polling.
func RecoveryMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				ev := log.Error().
					Interface("panic", r).
					Str("command", commandOf(c)).
					Bytes("stack", debug.Stack())
				if sender := c.Sender(); sender != nil {
					ev = ev.Int64("user_id", sender.ID)
				}
				ev.Msg("Handler panicked")
				err = c.Reply("❌ Something went wrong, please try again later.")
			}()
			return next(c)
		}
	}
}
