// Package events publishes call lifecycle events to Kafka for downstream
// analytics. Publishing is best-effort: when Kafka is disabled or failing,
// events are logged and the call carries on.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/lhawkeye71/ai-phone-agent/internal/observability/metrics"
)

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers         []string
	TurnTopic       string
	CompletionTopic string
	Enabled         bool
}

// TurnEvent records one handled dialogue turn.
type TurnEvent struct {
	EventID       string    `json:"event_id"`
	CallID        string    `json:"call_id"`
	Seq           int       `json:"seq"`
	UserText      string    `json:"user_text"`
	AssistantText string    `json:"assistant_text"`
	At            time.Time `json:"at"`
}

// CompletionEvent records a call producing a complete customer record.
type CompletionEvent struct {
	EventID         string    `json:"event_id"`
	CallID          string    `json:"call_id"`
	CallerAddress   string    `json:"caller_address"`
	Name            string    `json:"name"`
	FavoriteColor   string    `json:"favorite_color"`
	SteakPreference string    `json:"steak_preference"`
	At              time.Time `json:"at"`
}

// Publisher writes call events to separate Kafka topics.
type Publisher struct {
	writerTurns       *kafka.Writer
	writerCompletions *kafka.Writer
	turnTopic         string
	completionTopic   string
	enabled           bool
	metrics           *metrics.Metrics
}

// New creates a Kafka event publisher with separate topics for turns and
// completions. With a nil or disabled config it runs in log-only mode.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("kafka disabled (nil config), using log-only mode")
		return &Publisher{enabled: false, metrics: m}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("kafka disabled, using log-only mode")
		return &Publisher{
			turnTopic:       cfg.TurnTopic,
			completionTopic: cfg.CompletionTopic,
			enabled:         false,
			metrics:         m,
		}
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	writerTurns := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TurnTopic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}
	writerCompletions := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.CompletionTopic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("turn_topic", cfg.TurnTopic).
		Str("completion_topic", cfg.CompletionTopic).
		Msg("kafka publisher initialized")

	return &Publisher{
		writerTurns:       writerTurns,
		writerCompletions: writerCompletions,
		turnTopic:         cfg.TurnTopic,
		completionTopic:   cfg.CompletionTopic,
		enabled:           true,
		metrics:           m,
	}
}

// PublishTurn publishes one handled turn, keyed by call ID so a call's
// turns stay ordered within a partition.
func (p *Publisher) PublishTurn(ctx context.Context, ev TurnEvent) error {
	if p == nil {
		return nil
	}
	if ev.EventID == "" {
		ev.EventID = uuid.New().String()
	}
	return p.publish(ctx, p.writerTurns, p.turnTopic, "turn", ev.CallID, ev)
}

// PublishCompletion publishes a completed-record event.
func (p *Publisher) PublishCompletion(ctx context.Context, ev CompletionEvent) error {
	if p == nil {
		return nil
	}
	if ev.EventID == "" {
		ev.EventID = uuid.New().String()
	}
	return p.publish(ctx, p.writerCompletions, p.completionTopic, "completion", ev.CallID, ev)
}

func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, eventType, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("failed to marshal event")
		return err
	}

	log.Debug().
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("publishing event")

	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, eventType, nil)
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("failed to write to kafka")
		p.metrics.RecordKafkaPublish(topic, eventType, err)
		return err
	}

	p.metrics.RecordKafkaPublish(topic, eventType, nil)
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	var err error
	if p.writerTurns != nil {
		if e := p.writerTurns.Close(); e != nil {
			log.Error().Err(e).Msg("error closing turn writer")
			err = e
		}
	}
	if p.writerCompletions != nil {
		if e := p.writerCompletions.Close(); e != nil {
			log.Error().Err(e).Msg("error closing completion writer")
			err = e
		}
	}
	return err
}
