package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr          string
	DatabaseURL   string
	JWTSigningKey string
	JWTIssuer     string
	Redis         RedisConfig
	Kafka         KafkaConfig
	Notifier      NotifierConfig
	Redemption    RedemptionConfig
	LogLevel      string
	LogFormat     string
}

// RedisConfig configures the shared redis client. An empty URL disables redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the audit mirror. No brokers disables it.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// NotifierConfig selects and configures invitation delivery.
type NotifierConfig struct {
	Kind         string
	From         string
	SESRegion    string
	ResendAPIKey string
	AppBaseURL   string
}

// RedemptionConfig bounds invitation acceptance attempts per user.
type RedemptionConfig struct {
	Limit  int
	Window time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:          getEnv("FAMILYSHARE_ADDR", ":8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSigningKey: jwtSigningKey,
		JWTIssuer:     getEnv("JWT_ISSUER", "familyshare"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:    splitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: getEnv("KAFKA_AUDIT_TOPIC", "familyshare.audit"),
		},
		Notifier: NotifierConfig{
			Kind:         strings.ToLower(getEnv("NOTIFIER", "log")),
			From:         getEnv("EMAIL_FROM", "noreply@familyshare.local"),
			SESRegion:    getEnv("SES_REGION", "us-east-1"),
			ResendAPIKey: os.Getenv("RESEND_API_KEY"),
			AppBaseURL:   getEnv("APP_BASE_URL", "http://localhost:8080"),
		},
		Redemption: RedemptionConfig{
			Limit:  getInt("INVITE_REDEEM_LIMIT", 10),
			Window: getDuration("INVITE_REDEEM_WINDOW", 15*time.Minute),
		},
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
