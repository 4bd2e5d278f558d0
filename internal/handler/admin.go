package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"better-wordle-bot/internal/game/daily"
	"better-wordle-bot/internal/pkg/lock"
	"better-wordle-bot/internal/service"
)

// AdminHandler handles admin maintenance commands.
// Access is checked by the admin middleware before these run.
type AdminHandler struct {
	svc   *service.WordleService
	locks *lock.PlayerLock
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(svc *service.WordleService, locks *lock.PlayerLock) *AdminHandler {
	return &AdminHandler{
		svc:   svc,
		locks: locks,
	}
}

// HandleWord handles the /word command.
// The answer is sent privately so it never lands in a group.
func (h *AdminHandler) HandleWord(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	today := h.svc.Today()
	msg := fmt.Sprintf("🔑 The word for %s is %s", daily.Key(today), strings.ToUpper(h.svc.TodayWord(sender.ID)))
	if _, err := c.Bot().Send(sender, msg); err != nil {
		log.Warn().Err(err).Int64("admin_id", sender.ID).Msg("Failed to send word privately")
		return c.Reply("❌ Start a private chat with me first.")
	}
	if chat := c.Chat(); chat != nil && chat.Type != tele.ChatPrivate {
		return c.Reply("📬 Sent privately.")
	}
	return nil
}

// HandleResetToday handles the /reset_today [user_id] command.
// It removes the player's result for today in this chat so they can replay.
func (h *AdminHandler) HandleResetToday(c tele.Context) error {
	ctx := context.Background()
	sender, chat := c.Sender(), c.Chat()
	if sender == nil || chat == nil {
		return nil
	}

	target, err := h.parseTarget(c, "/reset_today")
	if err != nil {
		return c.Reply(err.Error())
	}

	var removed bool
	err = h.locks.WithLockContext(ctx, target, LockTimeout, func() error {
		var err error
		removed, err = h.svc.AdminDeleteResult(ctx, sender.ID, chat.ID, target, h.svc.Today())
		return err
	})
	if err != nil {
		log.Error().Err(err).Int64("target_id", target).Msg("Failed to reset today's result")
		return c.Reply("❌ Operation failed, please try again later.")
	}
	if !removed {
		return c.Reply(fmt.Sprintf("ℹ️ User %d has no result for today in this chat.", target))
	}
	return c.Reply(fmt.Sprintf("✅ Today's result for user %d removed. They can play again.", target))
}

// HandleClearStats handles the /clearstats [user_id] command.
func (h *AdminHandler) HandleClearStats(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	target, err := h.parseTarget(c, "/clearstats")
	if err != nil {
		return c.Reply(err.Error())
	}

	var removed bool
	err = h.locks.WithLockContext(ctx, target, LockTimeout, func() error {
		var err error
		removed, err = h.svc.AdminResetStats(ctx, sender.ID, target)
		return err
	})
	if err != nil {
		log.Error().Err(err).Int64("target_id", target).Msg("Failed to clear stats")
		return c.Reply("❌ Operation failed, please try again later.")
	}
	if !removed {
		return c.Reply(fmt.Sprintf("ℹ️ User %d has no stats.", target))
	}
	return c.Reply(fmt.Sprintf("✅ Stats for user %d cleared.", target))
}

// parseTarget reads the target user from the first argument or the replied-to message.
func (h *AdminHandler) parseTarget(c tele.Context, command string) (int64, error) {
	if args := c.Args(); len(args) > 0 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("❌ User ID must be a number")
		}
		return id, nil
	}
	if msg := c.Message(); msg != nil && msg.ReplyTo != nil && msg.ReplyTo.Sender != nil {
		return msg.ReplyTo.Sender.ID, nil
	}
	return 0, fmt.Errorf("❌ Usage: %s <user_id> (or reply to the user's message)", command)
}
