package notifier

import (
	"context"

	"github.com/fhuszti/media-pipeline/internal/config"
	"github.com/fhuszti/media-pipeline/internal/logger"
	"github.com/fhuszti/media-pipeline/internal/port"
	"github.com/redis/go-redis/v9"
)

// FromBackend builds the notifier selected by NOTIFIER_BACKEND. The returned
// close func is never nil. A Redis backend without a client degrades to noop.
func FromBackend(ctx context.Context, backend string, client *redis.Client, brokers []string, topic string) (port.Notifier, func() error) {
	noClose := func() error { return nil }

	switch backend {
	case config.NotifierBackendKafka:
		n := NewKafkaNotifier(brokers, topic)
		logger.Infof(ctx, "✅  Publishing media events to Kafka topic %q", topic)
		return n, n.Close
	case config.NotifierBackendRedis:
		if client == nil {
			logger.Warn(ctx, "⚠️  Redis not configured, media events are dropped")
			return NewNoop(), noClose
		}
		logger.Infof(ctx, "✅  Publishing media events to Redis channel %q", Channel)
		return NewRedisNotifier(client), noClose
	default:
		return NewNoop(), noClose
	}
}
