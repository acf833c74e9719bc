package notifier

import (
	"context"
	"time"

	"github.com/fhuszti/media-pipeline/internal/logger"
	"github.com/fhuszti/media-pipeline/internal/port"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes events on a Kafka topic, keyed by event name.
type KafkaNotifier struct {
	writer messageWriter
}

var _ port.Notifier = (*KafkaNotifier)(nil)

func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}}
}

func (n *KafkaNotifier) Publish(ctx context.Context, event string, payload any) {
	data, err := encode(event, payload)
	if err != nil {
		logger.Errorf(ctx, "❌  could not encode %s event: %v", event, err)
		return
	}
	msg := kafka.Message{
		Key:   []byte(event),
		Value: data,
		Time:  time.Now(),
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		logger.Errorf(ctx, "❌  could not write %s event to kafka: %v", event, err)
	}
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
