package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Database
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBSSLMode      string
	DBMaxOpenConns int
	DBMaxIdleConns int

	// JWT
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Server
	Port        string
	CORSOrigins string
	AppEnv      string

	// Logging
	LogLevel         string
	LogRetentionDays int

	// Calendar used to decide whether a timeline edit is in the past.
	Timezone string

	// Resolution cache (disabled when RedisAddr is empty)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	GoalsCacheTTL time.Duration

	// Domain events (disabled when KafkaBrokers is empty)
	KafkaBrokers []string
	KafkaTopic   string

	SentryDSN string
}

var defaults = map[string]any{
	"DB_HOST":            "localhost",
	"DB_PORT":            "5432",
	"DB_USER":            "postgres",
	"DB_PASSWORD":        "",
	"DB_NAME":            "goals_db",
	"DB_SSLMODE":         "disable",
	"DB_MAX_OPEN_CONNS":  50,
	"DB_MAX_IDLE_CONNS":  25,
	"JWT_SECRET":         "",
	"JWT_ACCESS_EXPIRY":  "15m",
	"JWT_REFRESH_EXPIRY": "168h",
	"PORT":               "8080",
	"CORS_ORIGINS":       "*",
	"APP_ENV":            "development",
	"LOG_LEVEL":          "info",
	"LOG_RETENTION_DAYS": 30,
	"TIMEZONE":           "UTC",
	"REDIS_ADDR":         "",
	"REDIS_PASSWORD":     "",
	"REDIS_DB":           0,
	"GOALS_CACHE_TTL":    "10m",
	"KAFKA_BROKERS":      "",
	"KAFKA_TOPIC":        "goal-events",
	"SENTRY_DSN":         "",
}

// Load reads configuration from the environment, layered over an optional
// config.yaml found in the working directory or ./configs.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AutomaticEnv()

	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		DBHost:         v.GetString("DB_HOST"),
		DBPort:         v.GetString("DB_PORT"),
		DBUser:         v.GetString("DB_USER"),
		DBPassword:     v.GetString("DB_PASSWORD"),
		DBName:         v.GetString("DB_NAME"),
		DBSSLMode:      v.GetString("DB_SSLMODE"),
		DBMaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		DBMaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),

		JWTSecret:        v.GetString("JWT_SECRET"),
		JWTAccessExpiry:  durationOr(v.GetString("JWT_ACCESS_EXPIRY"), 15*time.Minute),
		JWTRefreshExpiry: durationOr(v.GetString("JWT_REFRESH_EXPIRY"), 168*time.Hour),

		Port:        v.GetString("PORT"),
		CORSOrigins: v.GetString("CORS_ORIGINS"),
		AppEnv:      v.GetString("APP_ENV"),

		LogLevel:         v.GetString("LOG_LEVEL"),
		LogRetentionDays: v.GetInt("LOG_RETENTION_DAYS"),

		Timezone: v.GetString("TIMEZONE"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),
		GoalsCacheTTL: durationOr(v.GetString("GOALS_CACHE_TTL"), 10*time.Minute),

		KafkaBrokers: parseCSV(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:   v.GetString("KAFKA_TOPIC"),

		SentryDSN: v.GetString("SENTRY_DSN"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// Location returns the configured calendar time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func durationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
