package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// MemoryURI selects the in-memory stores instead of MongoDB
const MemoryURI = "memory://"

// Config holds process configuration read from the environment
type Config struct {
	MongoURI      string
	MongoDatabase string
	RedisAddr     string
	HTTPPort      string

	JWTSecret     string
	AdminUsername string
	AdminPassword string

	DefaultAccessPIN string
	SessionTTL       time.Duration

	CORSAllowedOrigins string

	LogLevel  string
	LogFormat string

	OTLPEndpoint string

	Analytics *AnalyticsConfig
}

// Load reads an optional .env file and then the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not read .env file", "error", err)
	}

	return &Config{
		MongoURI:           getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:      getEnv("MONGO_DATABASE", "feedbackdesk"),
		RedisAddr:          redisAddr(getEnv("REDIS_URI", "")),
		HTTPPort:           getEnv("PORT", "8080"),
		JWTSecret:          getEnv("JWT_SECRET", "super-secret-key-change-in-production"),
		AdminUsername:      getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:      getEnv("ADMIN_PASSWORD", "password123"),
		DefaultAccessPIN:   getEnv("DEFAULT_ACCESS_PIN", "FCHN2025"),
		SessionTTL:         getDuration("SESSION_TTL", 2*time.Hour),
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
		OTLPEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		Analytics:          DefaultAnalyticsConfig(),
	}
}

// UseMemoryStore reports whether MongoDB should be replaced by in-memory stores.
func (c *Config) UseMemoryStore() bool {
	return c.MongoURI == MemoryURI || c.MongoURI == ""
}

// UseRedis reports whether a Redis address is configured.
func (c *Config) UseRedis() bool {
	return c.RedisAddr != ""
}

// NewLogger builds the process logger from LogLevel and LogFormat.
func (c *Config) NewLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// redisAddr strips a redis:// prefix if present
func redisAddr(uri string) string {
	return strings.TrimPrefix(uri, "redis://")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		slog.Warn("ignoring invalid integer setting", "key", key, "value", v)
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		slog.Warn("ignoring invalid duration setting", "key", key, "value", v)
	}
	return defaultVal
}
