// Package bot provides the Telegram bot initialization and handler registration.
package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"better-wordle-bot/internal/config"
	"better-wordle-bot/internal/handler"
	"better-wordle-bot/internal/pkg/lock"
	"better-wordle-bot/internal/service"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot        *tele.Bot
	cfg        *config.Config
	service    *service.WordleService
	playerLock *lock.PlayerLock
	access     *PrivateAccess
	scheduler  *Scheduler

	// Handlers
	wordleHandler *handler.WordleHandler
	statsHandler  *handler.StatsHandler
	adminHandler  *handler.AdminHandler
}

// Dependencies holds all the dependencies needed by the bot handlers.
type Dependencies struct {
	Config     *config.Config
	Service    *service.WordleService
	PlayerLock *lock.PlayerLock
}

// New creates a new Bot instance with the given dependencies.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}
	if deps.Service == nil {
		return nil, fmt.Errorf("wordle service is required")
	}

	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			log.Error().Err(err).Msg("Handler error")
		},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	playerLock := deps.PlayerLock
	if playerLock == nil {
		playerLock = lock.NewPlayerLock()
	}

	b := &Bot{
		bot:        teleBot,
		cfg:        deps.Config,
		service:    deps.Service,
		playerLock: playerLock,
		access:     NewPrivateAccess(),
	}

	// Initialize handlers
	b.wordleHandler = handler.NewWordleHandler(deps.Service, playerLock, deps.Config.Game.Title)
	b.statsHandler = handler.NewStatsHandler(deps.Config, deps.Service)
	b.adminHandler = handler.NewAdminHandler(deps.Service, playerLock)
	b.scheduler = NewScheduler(deps.Config, deps.Service, teleBot)

	// Register middleware
	b.registerMiddleware()

	// Register handlers
	b.registerHandlers()

	return b, nil
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())

	// Whitelist middleware - check if chat is allowed
	b.bot.Use(WhitelistMiddleware(b.cfg, b.access))

	// Logging middleware
	b.bot.Use(LoggingMiddleware())
}

// registerHandlers registers all command and callback handlers.
func (b *Bot) registerHandlers() {
	b.bot.Handle("/start", b.handleStart)
	b.bot.Handle("/help", b.handleStart)

	// Game handlers
	b.bot.Handle("/wordle", b.wordleHandler.HandleWordle)
	b.bot.Handle("/guess", b.wordleHandler.HandleGuess)
	b.bot.Handle("/giveup", b.wordleHandler.HandleGiveUp)
	b.bot.Handle("/board", b.wordleHandler.HandleBoard)
	b.bot.Handle(tele.OnText, b.wordleHandler.HandleText)

	// Stats handlers
	b.bot.Handle("/results", b.statsHandler.HandleResults)
	b.bot.Handle("/mystats", b.statsHandler.HandleMyStats)
	b.bot.Handle("/leaderboard", b.statsHandler.HandleLeaderboard)
	b.bot.Handle("/streak", b.statsHandler.HandleStreak)
	b.bot.Handle("/setchannel", b.statsHandler.HandleSetChannel)

	// Admin handlers (with admin middleware)
	adminGroup := b.bot.Group()
	adminGroup.Use(AdminMiddleware(b.cfg))
	adminGroup.Handle("/word", b.adminHandler.HandleWord)
	adminGroup.Handle("/reset_today", b.adminHandler.HandleResetToday)
	adminGroup.Handle("/clearstats", b.adminHandler.HandleClearStats)

	b.bot.Handle(tele.OnCallback, b.handleCallback)
}

const helpText = `🎯 %s

/wordle - start today's puzzle (the board is sent privately)
/guess <word> - make a guess, or just send the word in private chat
/giveup - give up today's puzzle
/board - show your board and letters
/results [YYYY-MM-DD] - this chat's results
/mystats - your statistics
/leaderboard [winrate|streak|games|average] - this chat's rankings
/streak - this chat's daily streak
/setchannel [chat_id|off] - where the daily summary is posted`

func (b *Bot) handleStart(c tele.Context) error {
	return c.Send(fmt.Sprintf(helpText, b.cfg.Game.Title))
}

// handleCallback routes callbacks to appropriate handlers
func (b *Bot) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		return nil
	}

	// Telebot v3 prefixes inline button data with \f
	data := strings.TrimPrefix(callback.Data, "\f")
	log.Debug().Str("data", data).Msg("Callback received")

	if strings.HasPrefix(data, handler.CallbackPrefix) {
		return b.wordleHandler.HandleCallback(c, data)
	}
	return c.Respond()
}

// Start starts the bot polling and the scheduler. It blocks until Stop.
func (b *Bot) Start(ctx context.Context) {
	log.Info().Msg("Starting bot...")

	go b.scheduler.Run(ctx)

	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}

// GetBot returns the underlying telebot instance.
func (b *Bot) GetBot() *tele.Bot {
	return b.bot
}
