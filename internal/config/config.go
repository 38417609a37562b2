package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	pkgRetry "github.com/futig/guardrails-agent/internal/pkg/retry"
	"github.com/joho/godotenv"
)

// ErrMissingAPIKey means the model API key is not configured; the process must not start
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY is not set. Please ensure it is defined in your .env file")

// Config holds the application configuration
type Config struct {
	// Model API key, the only required value
	APIKey string `env:"GEMINI_API_KEY"`

	// Server configuration
	ServerAddr string `env:"SERVER_ADDR" envDefault:":8080"`

	// Audit log database, disabled when empty
	DatabaseURL         string        `env:"DATABASE_URL"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"1"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	LLMConnectorCfg LLMConnectorConfig `envPrefix:"LLM_"`

	// Chat input limits
	ChatCfg ChatConfig `envPrefix:"CHAT_"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Prompts and fixed messages (loaded from YAML file)
	AgentsFile string `env:"AGENTS_FILE" envDefault:"internal/config/agents.yaml"`
	Agents     AgentsConfig

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Telegram bot configuration (only required by the telegram binary)
	TelegramCfg TelegramConfig `envPrefix:"TELEGRAM_"`

	// Environment (set from flag, not from env var)
	Environment string
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken           string               `env:"BOT_TOKEN"`
	UpdateTimeout      int                  `env:"UPDATE_TIMEOUT" envDefault:"60"`
	RateLimitPerMinute int                  `env:"RATE_LIMIT_PER_MINUTE" envDefault:"20"`
	RateLimitBurst     int                  `env:"RATE_LIMIT_BURST" envDefault:"5"`
	ShutdownTimeout    int                  `env:"SHUTDOWN_TIMEOUT" envDefault:"30"` // seconds
	SendRetry          pkgRetry.RetryConfig `envPrefix:"SEND_RETRY_"`
}

// ChatConfig limits what a single chat message may carry
type ChatConfig struct {
	MaxMessageChars int `env:"MAX_MESSAGE_CHARS" envDefault:"4000"`
	MaxHistoryTurns int `env:"MAX_HISTORY_TURNS" envDefault:"20"`
}

type LLMConnectorConfig struct {
	HTTPClientConfig
	ChatCompletionsEndpoint string   `env:"CHAT_COMPLETIONS_ENDPOINT" envDefault:"/chat/completions"`
	Model                   string   `env:"MODEL" envDefault:"gemini-2.0-flash"`
	Temperature             *float64 `env:"TEMPERATURE"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"60s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"60s"`
	Url                   string        `env:"SERVICE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta/openai"`
}

// LoadConfig reads .env.<environment>, the process environment and the agents file
func LoadConfig(environment string) (*Config, error) {
	envFile := getEnvFile(environment)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg, err := parseEnv()
	if err != nil {
		return nil, err
	}

	cfg.Environment = environment

	agents, err := LoadAgents(cfg.AgentsFile)
	if err != nil {
		return nil, fmt.Errorf("load agents: %w", err)
	}
	cfg.Agents = *agents

	return cfg, nil
}

func parseEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return ErrMissingAPIKey
	}

	var errs []string

	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("LOG_LEVEL must be one of debug, info, warn, error, got %q", cfg.LogLevel))
	}

	if cfg.LLMConnectorCfg.Url == "" {
		errs = append(errs, "LLM_SERVICE_URL must not be empty")
	}

	if cfg.LLMConnectorCfg.Model == "" {
		errs = append(errs, "LLM_MODEL must not be empty")
	}

	if t := cfg.LLMConnectorCfg.Temperature; t != nil && (*t < 0 || *t > 2) {
		errs = append(errs, fmt.Sprintf("LLM_TEMPERATURE must be between 0 and 2, got %v", *t))
	}

	if cfg.ChatCfg.MaxMessageChars < 1 {
		errs = append(errs, fmt.Sprintf("CHAT_MAX_MESSAGE_CHARS must be positive, got %d", cfg.ChatCfg.MaxMessageChars))
	}

	if cfg.ChatCfg.MaxHistoryTurns < 0 {
		errs = append(errs, fmt.Sprintf("CHAT_MAX_HISTORY_TURNS must not be negative, got %d", cfg.ChatCfg.MaxHistoryTurns))
	}

	if cfg.TelegramCfg.RateLimitPerMinute < 1 || cfg.TelegramCfg.RateLimitPerMinute > 60 {
		errs = append(errs, fmt.Sprintf("TELEGRAM_RATE_LIMIT_PER_MINUTE must be between 1 and 60, got %d", cfg.TelegramCfg.RateLimitPerMinute))
	}

	if cfg.TelegramCfg.RateLimitBurst < 1 || cfg.TelegramCfg.RateLimitBurst > 20 {
		errs = append(errs, fmt.Sprintf("TELEGRAM_RATE_LIMIT_BURST must be between 1 and 20, got %d", cfg.TelegramCfg.RateLimitBurst))
	}

	if cfg.TelegramCfg.ShutdownTimeout < 1 || cfg.TelegramCfg.ShutdownTimeout > 300 {
		errs = append(errs, fmt.Sprintf("TELEGRAM_SHUTDOWN_TIMEOUT must be between 1 and 300 seconds, got %d", cfg.TelegramCfg.ShutdownTimeout))
	}

	if cfg.DatabaseURL != "" {
		if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
			errs = append(errs, fmt.Sprintf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns))
		}
		if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
			errs = append(errs, fmt.Sprintf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development", "":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
