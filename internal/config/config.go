// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port                 string
	PublicURL            string
	DBPath               string
	LogLevel             slog.Level
	SessionTTL           time.Duration
	SessionSweepInterval time.Duration
	Engine               EngineConfig
	Chat                 ChatConfig
	RedirectDelay        time.Duration
	RegisterDelay        time.Duration
	ContactRelayURL      string
	ContentFile          string // optional YAML override of site copy
	ConversationLog      ConversationLogConfig
}

// EngineConfig points at the answering engine.
type EngineConfig struct {
	Addr           string // empty disables the engine
	ContextVersion int
	Timeout        time.Duration
}

// ChatConfig controls reply pacing.
type ChatConfig struct {
	SpaceDelay   time.Duration
	NewlineDelay time.Duration
}

// ConversationLogConfig controls JSON conversation logging.
type ConversationLogConfig struct {
	Enabled   bool
	Dir       string
	QueueSize int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	level, err := ParseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		PublicURL:            getEnv("PUBLIC_URL", ""),
		DBPath:               getEnv("DB_PATH", "./data/balliq.db"),
		LogLevel:             level,
		SessionTTL:           getEnvDuration("SESSION_TTL", 24*time.Hour),
		SessionSweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL", 10*time.Minute),
		Engine: EngineConfig{
			Addr:           getEnv("ENGINE_ADDR", ""),
			ContextVersion: getEnvInt("ENGINE_CONTEXT_VERSION", 1),
			Timeout:        getEnvDuration("ENGINE_TIMEOUT", 60*time.Second),
		},
		Chat: ChatConfig{
			SpaceDelay:   getEnvDuration("SPACE_DELAY", 50*time.Millisecond),
			NewlineDelay: getEnvDuration("NEWLINE_DELAY", 100*time.Millisecond),
		},
		RedirectDelay:   getEnvDuration("REDIRECT_DELAY", 2*time.Second),
		RegisterDelay:   getEnvDuration("REGISTER_DELAY", 2*time.Second),
		ContactRelayURL: getEnv("CONTACT_RELAY_URL", "https://formsubmit.co/fantasyball.iq@gmail.com"),
		ContentFile:     getEnv("CONTENT_FILE", ""),
		ConversationLog: ConversationLogConfig{
			Enabled:   getEnvBool("CONVERSATION_LOG_ENABLED", true),
			Dir:       getEnv("CONVERSATION_LOG_DIR", "./data/logs/conversations"),
			QueueSize: getEnvInt("CONVERSATION_LOG_QUEUE_SIZE", 1000),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	if c.SessionSweepInterval <= 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL must be > 0")
	}
	if c.Engine.ContextVersion < 0 {
		return fmt.Errorf("ENGINE_CONTEXT_VERSION must be >= 0")
	}
	if c.Engine.Timeout <= 0 {
		return fmt.Errorf("ENGINE_TIMEOUT must be > 0")
	}
	if c.Chat.SpaceDelay < 0 || c.Chat.NewlineDelay < 0 {
		return fmt.Errorf("SPACE_DELAY and NEWLINE_DELAY must be >= 0")
	}
	if c.RedirectDelay < 0 || c.RegisterDelay < 0 {
		return fmt.Errorf("REDIRECT_DELAY and REGISTER_DELAY must be >= 0")
	}
	if u, err := url.Parse(c.ContactRelayURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("CONTACT_RELAY_URL must be an http(s) URL")
	}
	if c.ConversationLog.Enabled && c.ConversationLog.Dir == "" {
		return fmt.Errorf("CONVERSATION_LOG_DIR cannot be empty")
	}
	if c.ConversationLog.QueueSize <= 0 {
		return fmt.Errorf("CONVERSATION_LOG_QUEUE_SIZE must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.PublicURL == "" ||
		strings.Contains(c.PublicURL, "localhost") ||
		strings.Contains(c.PublicURL, "127.0.0.1")
}

// ParseLogLevel maps debug, info, warn and error to slog levels.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
