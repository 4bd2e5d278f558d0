package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"better-wordle-bot/internal/config"
	"better-wordle-bot/internal/game/daily"
	"better-wordle-bot/internal/service"
)

// StatsHandler handles results, stats, leaderboard and streak commands.
type StatsHandler struct {
	cfg *config.Config
	svc *service.WordleService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(cfg *config.Config, svc *service.WordleService) *StatsHandler {
	return &StatsHandler{
		cfg: cfg,
		svc: svc,
	}
}

// HandleResults handles the /results [YYYY-MM-DD] command.
func (h *StatsHandler) HandleResults(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}

	date := h.svc.Today()
	if args := c.Args(); len(args) > 0 {
		parsed, err := daily.ParseKey(args[0], date.Location())
		if err != nil {
			return c.Reply("Usage: /results [YYYY-MM-DD]")
		}
		date = parsed
	}

	return c.Reply(FormatResults(daily.Key(date), h.svc.Results(chat.ID, date)))
}

// HandleMyStats handles the /mystats command.
func (h *StatsHandler) HandleMyStats(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	return c.Reply(FormatStats(DisplayName(sender), h.svc.Stats(sender.ID)))
}

// HandleLeaderboard handles the /leaderboard [category] command.
func (h *StatsHandler) HandleLeaderboard(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}

	category := ""
	if args := c.Args(); len(args) > 0 {
		category = args[0]
	}
	category, entries := h.svc.Leaderboard(chat.ID, category, service.DefaultLeaderboardSize)
	return c.Reply(FormatLeaderboard(category, entries))
}

// HandleStreak handles the /streak command.
func (h *StatsHandler) HandleStreak(c tele.Context) error {
	ctx := context.Background()
	chat := c.Chat()
	if chat == nil {
		return nil
	}

	st, err := h.svc.Streak(ctx, chat.ID)
	if err != nil {
		log.Warn().Err(err).Int64("chat_id", chat.ID).Msg("Streak refreshed but not saved")
	}
	return c.Reply(FormatStreak(st))
}

// HandleSetChannel handles the /setchannel [chat_id|off] command.
// Without an argument the current chat receives the daily summary.
func (h *StatsHandler) HandleSetChannel(c tele.Context) error {
	ctx := context.Background()
	sender, chat := c.Sender(), c.Chat()
	if sender == nil || chat == nil {
		return nil
	}
	if chat.Type == tele.ChatPrivate {
		return c.Reply("❌ Use /setchannel in the group whose summary you want to route.")
	}
	if !h.canManage(c) {
		return c.Reply("❌ Only group administrators can change the summary channel.")
	}

	channel := chat.ID
	if args := c.Args(); len(args) > 0 {
		switch arg := strings.ToLower(args[0]); arg {
		case "off", "none", "0":
			channel = 0
		default:
			id, err := strconv.ParseInt(arg, 10, 64)
			if err != nil {
				return c.Reply("Usage: /setchannel [chat_id|off]")
			}
			channel = id
		}
	}

	if err := h.svc.SetChannel(ctx, chat.ID, channel); err != nil {
		log.Error().Err(err).Int64("chat_id", chat.ID).Msg("Failed to save summary channel")
		return c.Reply("❌ Could not save the summary channel, please try again later.")
	}
	if channel == 0 {
		return c.Reply("🔕 Daily summaries disabled for this group.")
	}
	if channel == chat.ID {
		return c.Reply("📊 Daily summaries will be posted in this chat.")
	}
	return c.Reply("📊 Daily summaries will be posted in chat " + strconv.FormatInt(channel, 10) + ".")
}

// canManage reports whether the sender is a bot admin or an administrator of the chat.
func (h *StatsHandler) canManage(c tele.Context) bool {
	sender := c.Sender()
	if h.cfg != nil && h.cfg.IsAdmin(sender.ID) {
		return true
	}
	member, err := c.Bot().ChatMemberOf(c.Chat(), sender)
	if err != nil {
		log.Debug().Err(err).Int64("user_id", sender.ID).Msg("Failed to fetch chat member")
		return false
	}
	return member.Role == tele.Administrator || member.Role == tele.Creator
}
