// Package main is the entry point for the Better Wordle Telegram bot.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"better-wordle-bot/internal/bot"
	"better-wordle-bot/internal/config"
	"better-wordle-bot/internal/game/daily"
	"better-wordle-bot/internal/pkg/events"
	"better-wordle-bot/internal/pkg/lock"
	"better-wordle-bot/internal/repository"
	"better-wordle-bot/internal/service"
	"better-wordle-bot/internal/words"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("Failed to read .env file")
	}

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if level, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	} else {
		log.Warn().Str("level", cfg.Log.Level).Msg("Unknown log level, using info")
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Info().Msg("Configuration loaded successfully")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load word lists
	source, err := words.Load(cfg.Words.AnswersFile, cfg.Words.AllowedFile)
	if err != nil {
		var cfgErr *words.ConfigurationError
		if errors.As(err, &cfgErr) {
			log.Fatal().Err(err).Msg("Word lists are misconfigured")
		}
		log.Fatal().Err(err).Msg("Failed to load word lists")
	}
	log.Info().
		Int("answers", source.AnswerCount()).
		Int("accepted", source.AcceptedCount()).
		Msg("Word lists loaded")

	selector, err := daily.NewSelector(source, cfg.Words.Salt)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create puzzle selector")
	}

	// Open state storage
	store, err := repository.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("Failed to open storage")
	}
	defer store.Close()
	log.Info().Str("driver", cfg.Storage.Driver).Msg("Storage opened")

	// Analytics events (disabled without brokers)
	producer := events.NewProducer(cfg.Events.Brokers, cfg.Events.Topic)
	defer producer.Close()

	svc, err := service.NewWordleService(ctx, selector, source, store, producer, service.Options{
		Title:       cfg.Game.Title,
		IdleTimeout: cfg.Game.IdleTimeout,
		Location:    cfg.Location(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create wordle service")
	}

	// Initialize bot
	telegramBot, err := bot.New(&bot.Dependencies{
		Config:     cfg,
		Service:    svc,
		PlayerLock: lock.NewPlayerLock(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start bot in a goroutine
	go func() {
		log.Info().Str("date", daily.Key(svc.Today())).Msg("Bot is starting...")
		telegramBot.Start(ctx)
	}()

	// Wait for shutdown signal
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	// Graceful shutdown
	cancel()
	telegramBot.Stop()

	saveCtx, saveCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer saveCancel()
	if err := svc.Save(saveCtx); err != nil {
		log.Error().Err(err).Msg("Failed to save state on shutdown")
	}
	log.Info().Msg("Bot stopped gracefully")
}
