package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"ecshop/internal/domain/event"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

var ErrPublisherClosed = errors.New("publisher closed")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// 注文イベントをKafkaへ送る。keyは注文IDなので同じ注文は同じpartition
type KafkaOrderPublisher struct {
	writer messageWriter
	topic  string
	closed atomic.Bool
}

func NewKafkaOrderPublisher(brokers []string, topic string, log zerolog.Logger) *KafkaOrderPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,

		// 再送はしない
		MaxAttempts: 1,

		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			log.Error().Str("topic", topic).Msgf("kafka writer: "+msg, args...)
		}),
	}
	return newKafkaOrderPublisher(w, topic)
}

func newKafkaOrderPublisher(w messageWriter, topic string) *KafkaOrderPublisher {
	return &KafkaOrderPublisher{writer: w, topic: topic}
}

func encodeOrderEvent(ev event.OrderEvent) (kafka.Message, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(ev.OrderID),
		Value: b,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(ev.Type)},
		},
	}, nil
}

func (p *KafkaOrderPublisher) Publish(ctx context.Context, ev event.OrderEvent) error {
	if p.closed.Load() {
		return ErrPublisherClosed
	}

	msg, err := encodeOrderEvent(ev)
	if err != nil {
		return fmt.Errorf("encode %s: %w", ev.Type, err)
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s to %s: %w", ev.Type, p.topic, err)
	}
	return nil
}

func (p *KafkaOrderPublisher) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}

// KAFKA_BROKERSが空のとき用
type NopOrderPublisher struct{}

func (NopOrderPublisher) Publish(context.Context, event.OrderEvent) error { return nil }
func (NopOrderPublisher) Close() error                                    { return nil }
