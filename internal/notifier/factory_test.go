package notifier

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/fhuszti/media-pipeline/internal/config"
	"github.com/redis/go-redis/v9"
)

func TestFromBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	tests := []struct {
		name    string
		backend string
		client  *redis.Client
		want    string
	}{
		{"redis", config.NotifierBackendRedis, client, "*notifier.RedisNotifier"},
		{"redis without client", config.NotifierBackendRedis, nil, "*notifier.NoopNotifier"},
		{"kafka", config.NotifierBackendKafka, nil, "*notifier.KafkaNotifier"},
		{"none", config.NotifierBackendNone, client, "*notifier.NoopNotifier"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			n, closeFn := FromBackend(context.Background(), tc.backend, tc.client, []string{"localhost:9092"}, "media-events")
			if got := typeName(n); got != tc.want {
				t.Errorf("notifier = %s; want %s", got, tc.want)
			}
			if closeFn == nil {
				t.Fatal("close func is nil")
			}
			if err := closeFn(); err != nil {
				t.Errorf("close: %v", err)
			}
		})
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *RedisNotifier:
		return "*notifier.RedisNotifier"
	case *KafkaNotifier:
		return "*notifier.KafkaNotifier"
	case *NoopNotifier:
		return "*notifier.NoopNotifier"
	}
	return "unknown"
}
