package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds environment-based settings
type Config struct {
	Environment    string
	LogLevel       string
	DatabaseURL    string
	MigrationsPath string
	JWTSecret      string
	ServerAddress  string

	RedisAddress  string
	RedisUsername string
	RedisPassword string

	MQTTBrokerURL string
	AnnounceSpec  string

	// CompetitionStart is zero when unset; the caller falls back to the database.
	CompetitionStart time.Time
	Location         *time.Location

	GroupBlue  int
	GroupStaff int
	GroupAdmin int
}

// Load reads an optional .env file, then configuration from environment variables.
func Load() (*Config, error) {
	// a missing .env is fine, the environment may be set directly
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Environment:    getenv("APP_ENV"),
		LogLevel:       withDefault(getenv("LOG_LEVEL"), "info"),
		DatabaseURL:    getenv("DATABASE_URL"),
		JWTSecret:      getenv("JWT_SECRET"),
		ServerAddress:  withDefault(getenv("SERVER_ADDRESS"), ":8080"),
		MigrationsPath: withDefault(getenv("MIGRATIONS_PATH"), "./migrations"),
		RedisAddress:   getenv("REDIS_ADDRESS"),
		RedisUsername:  getenv("REDIS_USERNAME"),
		RedisPassword:  getenv("REDIS_PASSWORD"),
		MQTTBrokerURL:  getenv("MQTT_BROKER_URL"),
		AnnounceSpec:   getenv("ANNOUNCE_SPEC"),
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if raw := getenv("COMPETITION_START"); raw != "" {
		start, err := ParseCompetitionStart(raw)
		if err != nil {
			return nil, fmt.Errorf("COMPETITION_START: %w", err)
		}
		cfg.CompetitionStart = start
	}

	loc, err := time.LoadLocation(withDefault(getenv("TIMEZONE"), "UTC"))
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}
	cfg.Location = loc

	groups := []struct {
		name string
		dst  *int
	}{
		{"GROUP_BLUE", &cfg.GroupBlue},
		{"GROUP_STAFF", &cfg.GroupStaff},
		{"GROUP_ADMIN", &cfg.GroupAdmin},
	}
	for _, g := range groups {
		raw := getenv(g.name)
		if raw == "" {
			return nil, fmt.Errorf("%s is required", g.name)
		}
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%s must be a positive group id, got %q", g.name, raw)
		}
		*g.dst = id
	}

	return cfg, nil
}

// ParseCompetitionStart accepts epoch seconds or an RFC 3339 timestamp.
// Negative epochs are rejected; 0 is the Unix epoch itself.
func ParseCompetitionStart(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if epoch, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if epoch < 0 {
			return time.Time{}, fmt.Errorf("epoch must not be negative, got %d", epoch)
		}
		return time.Unix(epoch, 0), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected epoch seconds or RFC 3339, got %q", raw)
	}
	return t, nil
}

// IsDevelopment reports whether APP_ENV asks for human-readable logs.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
