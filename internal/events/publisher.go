// Package events publishes batch lifecycle events to Kafka. When Kafka is
// not configured the publisher runs in log-only mode; publishing never
// blocks or fails a batch.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/models"
	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/observability/metrics"
)

// Event types emitted during a batch run.
const (
	EventFileCompleted  = "transcription.file.completed"
	EventBatchCompleted = "transcription.batch.completed"
)

// FileCompleted is emitted once per finished batch item.
type FileCompleted struct {
	EventType       string        `json:"eventType"`
	BatchID         string        `json:"batchId"`
	File            string        `json:"file"`
	Status          models.Status `json:"status"`
	ErrorKind       string        `json:"errorKind,omitempty"`
	DurationSeconds float64       `json:"durationSeconds"`
	Completed       int           `json:"completed"`
	Total           int           `json:"total"`
	Timestamp       int64         `json:"timestamp"`
}

// BatchCompleted is emitted when every item of a batch has finished.
type BatchCompleted struct {
	EventType            string  `json:"eventType"`
	BatchID              string  `json:"batchId"`
	FilesProcessed       int     `json:"filesProcessed"`
	FilesFailed          int     `json:"filesFailed"`
	TotalDurationSeconds float64 `json:"totalDurationSeconds"`
	Timestamp            int64   `json:"timestamp"`
}

// Publisher publishes batch events to a Kafka topic.
type Publisher struct {
	writer  *kafka.Writer
	topic   string
	enabled bool
	metrics *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers []string
	Topic   string
	Enabled bool
}

// New creates a Kafka event publisher. A nil or disabled config yields a
// log-only publisher.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil || !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, batch events in log-only mode")
		return &Publisher{enabled: false, metrics: m}
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    &kafka.Transport{Dial: dialer.DialFunc},
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Msg("Kafka batch event publisher initialized")

	return &Publisher{
		writer:  writer,
		topic:   cfg.Topic,
		enabled: true,
		metrics: m,
	}
}

// Enabled reports whether events reach Kafka rather than only the log.
func (p *Publisher) Enabled() bool {
	return p.enabled
}

// PublishFileCompleted emits a per-file completion event, keyed by batch ID.
func (p *Publisher) PublishFileCompleted(ctx context.Context, ev FileCompleted) {
	ev.EventType = EventFileCompleted
	ev.Timestamp = time.Now().UnixMilli()
	p.publish(ctx, EventFileCompleted, ev.BatchID, ev)
}

// PublishBatchCompleted emits the batch summary event.
func (p *Publisher) PublishBatchCompleted(ctx context.Context, ev BatchCompleted) {
	ev.EventType = EventBatchCompleted
	ev.Timestamp = time.Now().UnixMilli()
	p.publish(ctx, EventBatchCompleted, ev.BatchID, ev)
}

// publish writes one event. Errors are logged and counted, never returned:
// event delivery must not affect the batch.
func (p *Publisher) publish(ctx context.Context, eventType, key string, event any) {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("eventType", eventType).Msg("Failed to marshal event")
		return
	}

	log.Debug().
		Str("eventType", eventType).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	if !p.enabled || p.writer == nil {
		p.metrics.RecordKafkaPublish(eventType, nil, time.Since(start).Seconds())
		return
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
		},
	}

	err = p.writer.WriteMessages(ctx, msg)
	if err != nil {
		log.Error().
			Err(err).
			Str("eventType", eventType).
			Str("key", key).
			Msg("Failed to write to Kafka")
	}
	p.metrics.RecordKafkaPublish(eventType, err, time.Since(start).Seconds())
}

// Close closes the Kafka writer.
func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
