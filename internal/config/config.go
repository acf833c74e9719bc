package config

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/fhuszti/media-pipeline/internal/db"
	"github.com/fhuszti/media-pipeline/internal/model"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorageProviderMinio = "minio"
	StorageProviderS3    = "s3"

	NotifierBackendRedis = "redis"
	NotifierBackendKafka = "kafka"
	NotifierBackendNone  = "none"
)

type Settings struct {
	MariaDBDSN      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ServerPort      int
	MetricsPort     int

	Buckets          model.BucketPolicies
	RenditionsBucket string

	StorageProvider string
	MinioEndpoint   string
	MinioAccessKey  string
	MinioSecretKey  string
	MinioUseSSL     bool
	S3Region        string

	RedisAddr      string
	RedisPassword  string
	LocalCacheSize int

	JWTPublicKey string
	JWTIssuer    string
	JWTAudience  string

	FFmpegPath           string
	TranscodeWidths      []int
	TranscodeFPS         int
	TranscodePixelFormat string
	TranscodeFormat      string
	TranscodeTmpDir      string
	WorkerConcurrency    int

	NotifierBackend string
	KafkaBrokers    []string
	KafkaTopic      string
}

func Load() (*Settings, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found; proceeding with OS environment variables")
	}

	viper.AutomaticEnv()

	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: could not read .env file: %v", err)
	}

	viper.SetDefault("STORAGE_PROVIDER", StorageProviderMinio)
	viper.SetDefault("S3_REGION", "us-east-1")
	viper.SetDefault("FFMPEG_PATH", "ffmpeg")
	viper.SetDefault("TRANSCODE_WIDTHS", "160,320,640")
	viper.SetDefault("TRANSCODE_FPS", 10)
	viper.SetDefault("TRANSCODE_PIXEL_FORMAT", "yuv420p")
	viper.SetDefault("TRANSCODE_FORMAT", "webp")
	viper.SetDefault("WORKER_CONCURRENCY", 10)
	viper.SetDefault("NOTIFIER_BACKEND", NotifierBackendRedis)
	viper.SetDefault("KAFKA_TOPIC", "media-events")
	viper.SetDefault("LOCAL_CACHE_SIZE", 1024)
	viper.SetDefault("METRICS_PORT", 9090)
	viper.SetDefault("JWT_ISSUER", "core")
	viper.SetDefault("JWT_AUDIENCE", "media-pipeline")

	required := []string{
		"MARIADB_DSN",
		"MARIADB_MAX_OPEN_CONN",
		"MARIADB_MAX_IDLE_CONNS",
		"MARIADB_CONN_MAX_LIFETIME",
		"SERVER_PORT",
		"MINIO_ENDPOINT",
		"MINIO_ACCESS_KEY",
		"MINIO_SECRET_KEY",
		"BUCKETS",
		"RENDITIONS_BUCKET",
	}
	for _, key := range required {
		if !viper.IsSet(key) {
			return nil, fmt.Errorf("%s is required", key)
		}
	}

	buckets, err := ParseBuckets(viper.GetString("BUCKETS"))
	if err != nil {
		return nil, fmt.Errorf("BUCKETS: %w", err)
	}

	widths, err := parseWidths(viper.GetString("TRANSCODE_WIDTHS"))
	if err != nil {
		return nil, fmt.Errorf("TRANSCODE_WIDTHS: %w", err)
	}

	provider := strings.ToLower(viper.GetString("STORAGE_PROVIDER"))
	if provider != StorageProviderMinio && provider != StorageProviderS3 {
		return nil, fmt.Errorf("STORAGE_PROVIDER must be %q or %q, got %q", StorageProviderMinio, StorageProviderS3, provider)
	}

	notifier := strings.ToLower(viper.GetString("NOTIFIER_BACKEND"))
	switch notifier {
	case NotifierBackendRedis, NotifierBackendNone:
	case NotifierBackendKafka:
		if !viper.IsSet("KAFKA_BROKERS") {
			return nil, fmt.Errorf("KAFKA_BROKERS is required when NOTIFIER_BACKEND is %q", NotifierBackendKafka)
		}
	default:
		return nil, fmt.Errorf("unknown NOTIFIER_BACKEND %q", notifier)
	}

	return &Settings{
		MariaDBDSN:      viper.GetString("MARIADB_DSN"),
		MaxOpenConns:    viper.GetInt("MARIADB_MAX_OPEN_CONN"),
		MaxIdleConns:    viper.GetInt("MARIADB_MAX_IDLE_CONNS"),
		ConnMaxLifetime: time.Duration(viper.GetInt("MARIADB_CONN_MAX_LIFETIME")) * time.Second,
		ServerPort:      viper.GetInt("SERVER_PORT"),
		MetricsPort:     viper.GetInt("METRICS_PORT"),

		Buckets:          buckets,
		RenditionsBucket: viper.GetString("RENDITIONS_BUCKET"),

		StorageProvider: provider,
		MinioEndpoint:   viper.GetString("MINIO_ENDPOINT"),
		MinioAccessKey:  viper.GetString("MINIO_ACCESS_KEY"),
		MinioSecretKey:  viper.GetString("MINIO_SECRET_KEY"),
		MinioUseSSL:     viper.GetBool("MINIO_USE_SSL"),
		S3Region:        viper.GetString("S3_REGION"),

		RedisAddr:      viper.GetString("REDIS_ADDR"),
		RedisPassword:  viper.GetString("REDIS_PASSWORD"),
		LocalCacheSize: viper.GetInt("LOCAL_CACHE_SIZE"),

		JWTPublicKey: viper.GetString("JWT_PUBLIC_KEY"),
		JWTIssuer:    viper.GetString("JWT_ISSUER"),
		JWTAudience:  viper.GetString("JWT_AUDIENCE"),

		FFmpegPath:           viper.GetString("FFMPEG_PATH"),
		TranscodeWidths:      widths,
		TranscodeFPS:         viper.GetInt("TRANSCODE_FPS"),
		TranscodePixelFormat: viper.GetString("TRANSCODE_PIXEL_FORMAT"),
		TranscodeFormat:      viper.GetString("TRANSCODE_FORMAT"),
		TranscodeTmpDir:      viper.GetString("TRANSCODE_TMP_DIR"),
		WorkerConcurrency:    viper.GetInt("WORKER_CONCURRENCY"),

		NotifierBackend: notifier,
		KafkaBrokers:    splitList(viper.GetString("KAFKA_BROKERS")),
		KafkaTopic:      viper.GetString("KAFKA_TOPIC"),
	}, nil
}

// ParseBuckets reads "name:maxBytes[:public]" entries separated by commas.
func ParseBuckets(raw string) (model.BucketPolicies, error) {
	out := model.BucketPolicies{}
	for _, entry := range splitList(raw) {
		parts := strings.Split(entry, ":")
		if len(parts) < 2 || len(parts) > 3 || parts[0] == "" {
			return nil, fmt.Errorf("invalid bucket entry %q, want name:maxBytes[:public]", entry)
		}
		maxSize, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil || maxSize <= 0 {
			return nil, fmt.Errorf("invalid max size for bucket %q: %q", parts[0], parts[1])
		}
		policy := model.BucketPolicy{Name: parts[0], MaxSizeBytes: maxSize}
		if len(parts) == 3 {
			if parts[2] != "public" {
				return nil, fmt.Errorf("invalid flag %q for bucket %q", parts[2], parts[0])
			}
			policy.Public = true
		}
		if _, dup := out[policy.Name]; dup {
			return nil, fmt.Errorf("bucket %q declared twice", policy.Name)
		}
		out[policy.Name] = policy
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("at least one bucket is required")
	}
	return out, nil
}

func parseWidths(raw string) ([]int, error) {
	parts := splitList(raw)
	if len(parts) != len(model.RenditionSuffixes) {
		return nil, fmt.Errorf("expected %d widths, got %d", len(model.RenditionSuffixes), len(parts))
	}
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		w, err := strconv.Atoi(p)
		if err != nil || w <= 0 {
			return nil, fmt.Errorf("invalid width %q", p)
		}
		out = append(out, w)
	}
	return out, nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// MariaDB returns the connection pool settings.
func (s *Settings) MariaDB() db.Config {
	return db.Config{
		DSN:             s.MariaDBDSN,
		MaxOpenConns:    s.MaxOpenConns,
		MaxIdleConns:    s.MaxIdleConns,
		ConnMaxLifetime: s.ConnMaxLifetime,
	}
}
