package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"statement-ledger-go/internal/models"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Compile-time check: *KafkaPublisher must satisfy Publisher.
var _ Publisher = (*KafkaPublisher)(nil)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events keyed by user id; the hash balancer keeps a
// user's events on one partition and therefore in order.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

func NewKafkaPublisher(cfg models.EventsConfig) (*KafkaPublisher, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("at least one kafka broker is required")
	}

	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	writer := newWriter(cfg)

	zap.L().Info("Kafka publisher configured",
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("topic", topic),
		zap.Duration("batch_timeout", writer.BatchTimeout),
		zap.Int("max_attempts", writer.MaxAttempts))

	return &KafkaPublisher{writer: writer, topic: topic}, nil
}

// newWriter builds a synchronous writer. Each statement is written alone,
// so the batch timeout bounds how long a publish waits before flushing.
func newWriter(cfg models.EventsConfig) *kafka.Writer {
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 10 * time.Millisecond
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.KafkaBrokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		MaxAttempts:            maxAttempts,
		BatchTimeout:           batchTimeout,
		WriteTimeout:           writeTimeout,
		AllowAutoTopicCreation: true,
	}
}

func (p *KafkaPublisher) PublishStatementRecorded(ctx context.Context, event StatementRecorded) error {
	msg, err := p.message(event)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish statement event: %w", err)
	}

	zap.L().Debug("Published statement event",
		zap.String("topic", p.topic),
		zap.String("statement_id", event.StatementId))
	return nil
}

func (p *KafkaPublisher) message(event StatementRecorded) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to encode statement event: %w", err)
	}

	return kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.UserId),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("statement.recorded")},
		},
	}, nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
