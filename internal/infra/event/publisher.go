package event

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"haritsattva/internal/config"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher は注文・決済のイベントをkafkaに流す
type KafkaPublisher struct {
	writer messageWriter
	now    func() time.Time
}

func NewKafkaPublisher(cfg config.Kafka) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w, now: time.Now}
}

type envelope struct {
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// key は同じ注文のイベントを同じパーティションに寄せるために使う
func (p *KafkaPublisher) Publish(ctx context.Context, eventType, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshal event payload")
	}
	value, err := json.Marshal(envelope{Type: eventType, OccurredAt: p.now().UTC(), Data: data})
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrapf(err, "publish %s", eventType)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher はbrokers未設定のとき。ログに残すだけ。
type NoopPublisher struct {
	logger *slog.Logger
}

func NewNoopPublisher(logger *slog.Logger) *NoopPublisher {
	return &NoopPublisher{logger: logger}
}

func (p *NoopPublisher) Publish(ctx context.Context, eventType, key string, _ any) error {
	p.logger.DebugContext(ctx, "event dropped (kafka disabled)", slog.String("type", eventType), slog.String("key", key))
	return nil
}

func (p *NoopPublisher) Close() error { return nil }
