// Package handler provides Telegram bot command handlers.
package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"better-wordle-bot/internal/game/daily"
	"better-wordle-bot/internal/game/wordle"
	"better-wordle-bot/internal/pkg/lock"
	"better-wordle-bot/internal/service"
	"better-wordle-bot/internal/words"
)

// LockTimeout bounds how long a command waits for the player's previous command.
const LockTimeout = 5 * time.Second

// WordleHandler handles the puzzle commands.
type WordleHandler struct {
	svc   *service.WordleService
	locks *lock.PlayerLock
	title string
}

// NewWordleHandler creates a new WordleHandler.
func NewWordleHandler(svc *service.WordleService, locks *lock.PlayerLock, title string) *WordleHandler {
	if title == "" {
		title = service.DefaultTitle
	}
	return &WordleHandler{
		svc:   svc,
		locks: locks,
		title: title,
	}
}

// HandleWordle handles the /wordle command.
// The board goes to the player's private chat when the bot can reach it.
func (h *WordleHandler) HandleWordle(c tele.Context) error {
	ctx := context.Background()
	sender, chat := c.Sender(), c.Chat()
	if sender == nil || chat == nil {
		return nil
	}
	name := DisplayName(sender)

	var sess *wordle.Session
	err := h.locks.WithLockContext(ctx, sender.ID, LockTimeout, func() error {
		var err error
		sess, err = h.svc.Start(ctx, sender.ID, chat.ID, name)
		return err
	})

	switch {
	case errors.Is(err, service.ErrActiveGame):
		private, err := h.deliver(c, "⚠️ You already have a game in progress.\n\n"+FormatBoard(sess, h.title), GameMarkup())
		if err == nil && private && chat.Type != tele.ChatPrivate {
			return c.Reply("⚠️ You already have a game in progress. I sent your board again privately.")
		}
		return err
	case errors.Is(err, service.ErrAlreadyCompleted):
		if rec, ok := h.svc.Record(chat.ID, sender.ID, h.svc.Today()); ok {
			return c.Reply(fmt.Sprintf("✅ You already finished today's puzzle: %s\n\n%s", rec.Score(), rec.ResultString))
		}
		return c.Reply("✅ You already finished today's puzzle. Come back tomorrow!")
	case errors.Is(err, lock.ErrLockTimeout):
		return c.Reply("⏳ Still working on your last command, try again in a moment.")
	case err != nil:
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to start game")
		return c.Reply("❌ Could not start a game, please try again later.")
	}

	board := FormatBoard(sess, h.title)
	private, err := h.deliver(c, board, GameMarkup())
	if err != nil || chat.Type == tele.ChatPrivate {
		return err
	}
	if !private {
		return c.Send("💡 Start a private chat with me to keep your guesses hidden.")
	}
	return c.Reply(fmt.Sprintf("🎯 %s started %s %s! Check your private messages.", name, h.title, daily.Key(sess.Date)))
}

// HandleGuess handles the /guess <word> command.
func (h *WordleHandler) HandleGuess(c tele.Context) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Reply("Usage: /guess <word>")
	}
	return h.guess(c, args[0])
}

// HandleText treats a bare five-letter message in private chat as a guess
// when the sender has a live game.
func (h *WordleHandler) HandleText(c tele.Context) error {
	sender, chat := c.Sender(), c.Chat()
	if sender == nil || chat == nil || chat.Type != tele.ChatPrivate {
		return nil
	}
	text := wordle.Normalize(c.Text())
	if len(text) != words.WordLength || !words.IsAlpha(text) {
		return nil
	}
	if _, ok := h.svc.Session(sender.ID); !ok {
		return nil
	}
	return h.guess(c, text)
}

func (h *WordleHandler) guess(c tele.Context, raw string) error {
	ctx := context.Background()
	sender, chat := c.Sender(), c.Chat()
	if sender == nil || chat == nil {
		return nil
	}

	var out service.GuessOutcome
	err := h.locks.WithLockContext(ctx, sender.ID, LockTimeout, func() error {
		var err error
		out, err = h.svc.Guess(ctx, sender.ID, raw)
		return err
	})

	var reason wordle.RejectReason
	switch {
	case errors.As(err, &reason):
		return c.Reply("❌ " + capitalize(reason.Error()))
	case errors.Is(err, service.ErrNoActiveGame):
		return c.Reply("You don't have an active game. Use /wordle to start one!")
	case errors.Is(err, lock.ErrLockTimeout):
		return c.Reply("⏳ Still working on your last guess, try again in a moment.")
	case err != nil:
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to process guess")
		return c.Reply("❌ Could not process your guess, please try again later.")
	}

	private, err := h.deliver(c, FormatOutcome(out, h.title), h.markupFor(out))
	if private && chat.Type != tele.ChatPrivate {
		// Keep the guess out of the group once the board went private.
		if delErr := c.Delete(); delErr != nil {
			log.Debug().Err(delErr).Int64("chat_id", chat.ID).Msg("Failed to delete guess message")
		}
	}
	if out.Completed {
		h.announce(c, out, private)
	}
	return err
}

// HandleGiveUp handles the /giveup command.
func (h *WordleHandler) HandleGiveUp(c tele.Context) error {
	out, err := h.giveUp(c)
	if err != nil {
		return c.Reply(err.Error())
	}
	private, err := h.deliver(c, FormatOutcome(out, h.title), nil)
	h.announce(c, out, private)
	return err
}

// HandleCallback routes the inline buttons under a board.
func (h *WordleHandler) HandleCallback(c tele.Context, data string) error {
	switch data {
	case CallbackGiveUp:
		out, err := h.giveUp(c)
		if err != nil {
			return c.Respond(&tele.CallbackResponse{Text: err.Error()})
		}
		_ = c.Respond(&tele.CallbackResponse{Text: "You gave up."})
		h.announce(c, out, true)
		return c.Edit(FormatOutcome(out, h.title))
	case CallbackKeyboard:
		sender := c.Sender()
		if sender == nil {
			return c.Respond()
		}
		sess, ok := h.svc.Session(sender.ID)
		if !ok {
			return c.Respond(&tele.CallbackResponse{Text: "You don't have an active game."})
		}
		_ = c.Respond()
		return c.Send(FormatKeyboard(sess))
	default:
		log.Debug().Str("data", data).Msg("Unknown wordle callback")
		return c.Respond()
	}
}

// HandleBoard handles the /board command.
func (h *WordleHandler) HandleBoard(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	sess, ok := h.svc.Session(sender.ID)
	if !ok {
		return c.Reply("You don't have an active game. Use /wordle to start one!")
	}
	return c.Reply(FormatBoard(sess, h.title)+"\n\n"+FormatKeyboard(sess), GameMarkup())
}

// giveUpError carries a user-facing message.
type giveUpError string

func (e giveUpError) Error() string { return string(e) }

func (h *WordleHandler) giveUp(c tele.Context) (service.GuessOutcome, error) {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return service.GuessOutcome{}, giveUpError("Unknown player.")
	}

	var out service.GuessOutcome
	err := h.locks.WithLockContext(ctx, sender.ID, LockTimeout, func() error {
		var err error
		out, err = h.svc.GiveUp(ctx, sender.ID)
		return err
	})
	switch {
	case errors.Is(err, service.ErrNoActiveGame):
		return out, giveUpError("You don't have an active game.")
	case errors.Is(err, lock.ErrLockTimeout):
		return out, giveUpError("⏳ Still working on your last command, try again in a moment.")
	case err != nil:
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to give up")
		return out, giveUpError("❌ Could not end your game, please try again later.")
	}
	return out, nil
}

// announce posts a finished result to the community the game was started in.
// It is skipped when the reply already landed in that chat.
func (h *WordleHandler) announce(c tele.Context, out service.GuessOutcome, private bool) {
	rec := out.Record
	if chat := c.Chat(); chat != nil && chat.ID == rec.Community && (!private || chat.Type == tele.ChatPrivate) {
		return
	}
	if _, err := c.Bot().Send(tele.ChatID(rec.Community), FormatAnnouncement(rec)); err != nil {
		log.Warn().Err(err).Int64("chat_id", rec.Community).Msg("Failed to announce result")
	}
}

// deliver sends text to the sender's private chat, falling back to a reply
// in the current chat. It reports whether the text went out privately.
func (h *WordleHandler) deliver(c tele.Context, text string, markup *tele.ReplyMarkup) (bool, error) {
	opts := []interface{}{}
	if markup != nil {
		opts = append(opts, markup)
	}

	if chat := c.Chat(); chat != nil && chat.Type == tele.ChatPrivate {
		return true, c.Send(text, opts...)
	}
	if sender := c.Sender(); sender != nil {
		_, err := c.Bot().Send(sender, text, opts...)
		if err == nil {
			return true, nil
		}
		log.Debug().Err(err).Int64("user_id", sender.ID).Msg("Private message not delivered")
	}
	return false, c.Reply(text, opts...)
}

func (h *WordleHandler) markupFor(out service.GuessOutcome) *tele.ReplyMarkup {
	if out.Completed {
		return nil
	}
	return GameMarkup()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
