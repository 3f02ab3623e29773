package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Policy fixes every numeric threshold the validation engine and query engine
// enforce. The bounds diverged across historical contract versions; this struct
// is the single canonical set, overridable from the environment but never
// inferred per call site.
type Policy struct {
	MinUnitQuantityML    uint32
	MaxUnitQuantityML    uint32
	MinRequestQuantityML uint32
	MaxRequestQuantityML uint32

	MinShelfLife time.Duration // expiration must be at least this far out
	MaxShelfLife time.Duration // 42 days for whole blood

	LeadTimeCritical time.Duration
	LeadTimeUrgent   time.Duration
	LeadTimeNormal   time.Duration
	MaxRequestWindow time.Duration // required_by may not exceed now + window

	DefaultQueryLimit int
	MaxQueryLimit     int
	MaxBatchSize      int

	// CompletionStage enables the optional Fulfilled -> Completed request stage.
	CompletionStage bool
}

// DefaultPolicy returns the canonical bounds.
func DefaultPolicy() Policy {
	return Policy{
		MinUnitQuantityML:    50,
		MaxUnitQuantityML:    500,
		MinRequestQuantityML: 50,
		MaxRequestQuantityML: 5000,
		MinShelfLife:         24 * time.Hour,
		MaxShelfLife:         42 * 24 * time.Hour,
		LeadTimeCritical:     time.Hour,
		LeadTimeUrgent:       4 * time.Hour,
		LeadTimeNormal:       24 * time.Hour,
		MaxRequestWindow:     30 * 24 * time.Hour,
		DefaultQueryLimit:    50,
		MaxQueryLimit:        200,
		MaxBatchSize:         100,
		CompletionStage:      false,
	}
}

// Server captures process-level configuration.
type Server struct {
	Addr          string
	PostgresDSN   string
	RedisURL      string
	KafkaBrokers  []string
	KafkaTopic    string
	JWTSigningKey string
	Policy        Policy
}

// FromEnv builds a Server config from environment variables so main stays lean.
// Memory backends are used wherever a DSN/URL is left empty.
func FromEnv() Server {
	addr := os.Getenv("LIFELEDGER_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("LIFELEDGER_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	var brokers []string
	if raw := os.Getenv("LIFELEDGER_KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}
	topic := os.Getenv("LIFELEDGER_KAFKA_TOPIC")
	if topic == "" {
		topic = "lifeledger.events"
	}

	policy := DefaultPolicy()
	policy.CompletionStage = os.Getenv("LIFELEDGER_COMPLETION_STAGE") == "true"
	if v, err := strconv.Atoi(os.Getenv("LIFELEDGER_MAX_BATCH_SIZE")); err == nil && v > 0 {
		policy.MaxBatchSize = v
	}

	return Server{
		Addr:          addr,
		PostgresDSN:   os.Getenv("LIFELEDGER_PG_DSN"),
		RedisURL:      os.Getenv("LIFELEDGER_REDIS_URL"),
		KafkaBrokers:  brokers,
		KafkaTopic:    topic,
		JWTSigningKey: jwtSigningKey,
		Policy:        policy,
	}
}

// RedisConfig carries tuning for the shared Redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultRedisConfig returns conservative pool settings for the role registry.
func DefaultRedisConfig(url string) RedisConfig {
	return RedisConfig{
		URL:          url,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}
