// Package events publishes game analytics to Kafka.
package events

import (
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog/log"

	"better-wordle-bot/internal/game/daily"
	"better-wordle-bot/internal/game/wordle"
	"better-wordle-bot/internal/model"
)

// DefaultTopic is used when no topic is configured.
const DefaultTopic = "wordle-events"

// EventType identifies a game event.
type EventType string

const (
	EventGameStart EventType = "game_start"
	EventGameEnd   EventType = "game_end"
)

// GameEvent is the envelope sent for every event.
type GameEvent struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	Player    int64     `json:"player"`
	Community int64     `json:"community"`
	Date      string    `json:"date"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// GameStartData is the payload of a game_start event.
type GameStartData struct {
	Username string `json:"username"`
}

// GameEndData is the payload of a game_end event.
type GameEndData struct {
	Won             bool   `json:"won"`
	Abandoned       bool   `json:"abandoned"`
	Guesses         int    `json:"guesses"`
	FirstGuess      string `json:"first_guess,omitempty"`
	DurationSeconds int64  `json:"duration_seconds"`
	Score           string `json:"score"`
}

// Producer sends game events. A disabled producer drops everything.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
	enabled  bool
}

// NewProducer connects to brokers. With no brokers, or when they cannot be
// reached, it returns a disabled producer rather than an error.
func NewProducer(brokers []string, topic string) *Producer {
	if len(brokers) == 0 {
		log.Info().Msg("Kafka brokers not configured (analytics disabled)")
		return &Producer{}
	}

	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		log.Warn().Err(err).Strs("brokers", brokers).Msg("Kafka producer not available (analytics disabled)")
		return &Producer{}
	}

	log.Info().Strs("brokers", brokers).Str("topic", topicOrDefault(topic)).Msg("Kafka producer connected")
	return NewProducerWith(producer, topic)
}

// NewProducerWith wraps an existing sarama producer.
func NewProducerWith(producer sarama.SyncProducer, topic string) *Producer {
	return &Producer{producer: producer, topic: topicOrDefault(topic), enabled: producer != nil}
}

func topicOrDefault(topic string) string {
	if topic == "" {
		return DefaultTopic
	}
	return topic
}

// GameStarted emits a game_start event for s.
func (p *Producer) GameStarted(s *wordle.Session, username string) {
	if !p.enabled {
		return
	}

	p.send(GameEvent{
		Type:      EventGameStart,
		SessionID: s.ID.String(),
		Player:    s.Player,
		Community: s.Community,
		Date:      daily.Key(s.Date),
		Timestamp: s.StartedAt,
		Data:      GameStartData{Username: username},
	})
}

// GameFinished emits a game_end event for s.
func (p *Producer) GameFinished(s *wordle.Session, rec model.CompletionRecord) {
	if !p.enabled {
		return
	}

	p.send(GameEvent{
		Type:      EventGameEnd,
		SessionID: s.ID.String(),
		Player:    s.Player,
		Community: s.Community,
		Date:      rec.Date,
		Timestamp: s.EndedAt,
		Data: GameEndData{
			Won:             rec.Won,
			Abandoned:       s.Abandoned,
			Guesses:         rec.Guesses,
			FirstGuess:      s.FirstGuess(),
			DurationSeconds: rec.ElapsedSeconds,
			Score:           rec.Score(),
		},
	})
}

func (p *Producer) send(event GameEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("type", string(event.Type)).Msg("Failed to marshal event")
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.SessionID),
		Value: sarama.ByteEncoder(data),
	}

	if _, _, err := p.producer.SendMessage(msg); err != nil {
		log.Error().Err(err).Str("type", string(event.Type)).Msg("Failed to send event to Kafka")
	}
}

// Close closes the underlying producer.
func (p *Producer) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// Enabled reports whether events are being sent.
func (p *Producer) Enabled() bool {
	return p.enabled
}
