package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the process configuration, read once at startup.
type Config struct {
	Server      Server
	Database    Database
	Redis       RedisConfig
	Kafka       Kafka
	Ingestion   Ingestion
	Lifecycle   Lifecycle
	Curriculum  Curriculum
	LogLevel    string
	Environment string
	Institution string
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Database configures the Postgres pool. An empty URL selects in-memory stores.
type Database struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	TxTimeout    time.Duration
}

// RedisConfig configures the optional Redis client. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka configures the notification producer. No brokers means log-only dispatch.
type Kafka struct {
	Brokers     []string
	NotifyTopic string
}

// Ingestion tunes the normalization pipeline for this deployment.
type Ingestion struct {
	DuplicatePolicy     string
	Mode                string
	AllowTemporaryIDs   bool
	StrictAreas         bool
	SimilarityThreshold int
	BatchTimeout        time.Duration
	Concurrency         int
	LockTTL             time.Duration
	LockWait            time.Duration
}

// Lifecycle tunes the request orchestrator and its side-effect queue.
type Lifecycle struct {
	EffectQueueSize int
	MaxRetries      int
}

// Curriculum configures the template cache.
type Curriculum struct {
	CacheTTL time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var errs []string
	durationVar := func(key string, def time.Duration) time.Duration {
		v := os.Getenv(key)
		if v == "" {
			return def
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
			return def
		}
		return d
	}
	intVar := func(key string, def int) int {
		v := os.Getenv(key)
		if v == "" {
			return def
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
			return def
		}
		return n
	}
	boolVar := func(key string, def bool) bool {
		v := os.Getenv(key)
		if v == "" {
			return def
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
			return def
		}
		return b
	}

	cfg := Config{
		Server: Server{
			Addr:            stringVar("SIGCERH_ADDR", ":8080"),
			ShutdownTimeout: durationVar("SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Database: Database{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: intVar("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns: intVar("DATABASE_MAX_IDLE_CONNS", 5),
			TxTimeout:    durationVar("DATABASE_TX_TIMEOUT", 5*time.Second),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     intVar("REDIS_POOL_SIZE", 10),
			MinIdleConns: intVar("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  durationVar("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  durationVar("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: durationVar("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers:     splitList(os.Getenv("KAFKA_BROKERS")),
			NotifyTopic: stringVar("KAFKA_NOTIFY_TOPIC", "sigcerh.notifications"),
		},
		Ingestion: Ingestion{
			DuplicatePolicy:     stringVar("INGEST_DUPLICATE_POLICY", "skip"),
			Mode:                stringVar("INGEST_MODE", "best_effort"),
			AllowTemporaryIDs:   boolVar("INGEST_ALLOW_TEMP_IDS", true),
			StrictAreas:         boolVar("INGEST_STRICT_AREAS", false),
			SimilarityThreshold: intVar("INGEST_SIMILARITY_THRESHOLD", 70),
			BatchTimeout:        durationVar("INGEST_BATCH_TIMEOUT", 0),
			Concurrency:         intVar("INGEST_CONCURRENCY", 4),
			LockTTL:             durationVar("INGEST_LOCK_TTL", 2*time.Minute),
			LockWait:            durationVar("INGEST_LOCK_WAIT", 5*time.Second),
		},
		Lifecycle: Lifecycle{
			EffectQueueSize: intVar("EFFECT_QUEUE_SIZE", 256),
			MaxRetries:      intVar("TRANSITION_MAX_RETRIES", 3),
		},
		Curriculum: Curriculum{
			CacheTTL: durationVar("CURRICULUM_CACHE_TTL", 10*time.Minute),
		},
		LogLevel:    stringVar("LOG_LEVEL", "info"),
		Environment: stringVar("ENV", "dev"),
		Institution: stringVar("INSTITUTION_ID", "default"),
	}

	if t := cfg.Ingestion.SimilarityThreshold; t < 1 || t > 100 {
		errs = append(errs, "INGEST_SIMILARITY_THRESHOLD: must be between 1 and 100")
	}
	switch cfg.Ingestion.Mode {
	case "best_effort", "all_or_nothing":
	default:
		errs = append(errs, "INGEST_MODE: must be best_effort or all_or_nothing")
	}
	switch cfg.Ingestion.DuplicatePolicy {
	case "error", "skip", "overwrite":
	default:
		errs = append(errs, "INGEST_DUPLICATE_POLICY: must be error, skip or overwrite")
	}
	if len(errs) > 0 {
		return cfg, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func stringVar(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
