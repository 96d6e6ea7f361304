package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration. FromEnv keeps main lean; every
// knob has a development default so the service starts with nothing set.
type Server struct {
	Addr string

	MongoURI      string
	MongoDatabase string

	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	FrontendURL  string

	KafkaBrokers []string
	AuditTopic   string
}

func FromEnv() Server {
	return Server{
		Addr: envOr("RESEARCHMATCH_ADDR", ":8080"),

		MongoURI:      envOr("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: envOr("MONGO_DATABASE", "researchmatch"),

		AccessTokenSecret:  envOr("SECRET_ACCESS_TOKEN", "dev-access-secret-change-in-production"),
		RefreshTokenSecret: envOr("SECRET_REFRESH_TOKEN", "dev-refresh-secret-change-in-production"),
		AccessTokenTTL:     envDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:    envDuration("REFRESH_TOKEN_TTL", 14*24*time.Hour),

		SMTPHost:     envOr("SMTP_HOST", "localhost"),
		SMTPPort:     envInt("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     envOr("SMTP_FROM", "no-reply@researchmatch.local"),
		FrontendURL:  envOr("FRONTEND_URL", "http://localhost:9000"),

		KafkaBrokers: envList("KAFKA_BROKERS"),
		AuditTopic:   envOr("AUDIT_TOPIC", "researchmatch.audit"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
