package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config represents the complete application configuration
type Config struct {
	HTTP       HTTPConfig       `json:"http"`
	Logging    LoggingConfig    `json:"logging"`
	Emotion    EmotionConfig    `json:"emotion"`
	Generation GenerationConfig `json:"generation"`
	Memory     MemoryConfig     `json:"memory"`
	Notify     NotifyConfig     `json:"notify"`
	Analytics  AnalyticsConfig  `json:"analytics"`
}

// HTTPConfig holds the API server configuration
type HTTPConfig struct {
	Port            int           `json:"port" env:"HTTP_PORT" default:"8080"`
	ReadTimeout     time.Duration `json:"read_timeout" env:"HTTP_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `json:"write_timeout" env:"HTTP_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
	EnableMetrics   bool          `json:"enable_metrics" env:"HTTP_ENABLE_METRICS" default:"true"`
}

// LoggingConfig controls log output
type LoggingConfig struct {
	Level  string `json:"level" env:"LOG_LEVEL" default:"info"`
	Format string `json:"format" env:"LOG_FORMAT" default:"text"` // text, json
}

// EmotionConfig holds emotion classification settings
type EmotionConfig struct {
	// InferenceURL points at a hosted text-classification endpoint.
	// Empty means classification runs on the local lexicon only.
	InferenceURL string        `json:"inference_url" env:"EMOTION_INFERENCE_URL"`
	APIKey       string        `json:"-" env:"EMOTION_API_KEY"`
	Timeout      time.Duration `json:"timeout" env:"EMOTION_TIMEOUT" default:"10s"`
	MinLength    int           `json:"min_length" env:"EMOTION_MIN_LENGTH" default:"5"`
	MaxLength    int           `json:"max_length" env:"EMOTION_MAX_LENGTH" default:"512"`
}

// GenerationConfig holds generation backend settings
type GenerationConfig struct {
	// Provider selects the backing model: gemini, openai. Empty disables
	// remote generation and every reply comes from the fallback responder.
	Provider     string        `json:"provider" env:"GENERATION_PROVIDER"`
	GeminiAPIKey string        `json:"-" env:"GEMINI_API_KEY"`
	GeminiModel  string        `json:"gemini_model" env:"GEMINI_MODEL" default:"gemini-1.5-flash"`
	OpenAIAPIKey string        `json:"-" env:"OPENAI_API_KEY"`
	OpenAIModel  string        `json:"openai_model" env:"OPENAI_MODEL" default:"gpt-4o-mini"`
	MinInterval  time.Duration `json:"min_interval" env:"GENERATION_MIN_INTERVAL" default:"1s"`
	MaxRetries   int           `json:"max_retries" env:"GENERATION_MAX_RETRIES" default:"3"`
	BackoffBase  float64       `json:"backoff_base" env:"GENERATION_BACKOFF_BASE" default:"2"`
	Timeout      time.Duration `json:"timeout" env:"GENERATION_TIMEOUT" default:"30s"`
}

// MemoryConfig selects and configures the persistence backend
type MemoryConfig struct {
	// Backend: sqlite or sheets
	Backend           string `json:"backend" env:"MEMORY_BACKEND" default:"sqlite"`
	SQLitePath        string `json:"sqlite_path" env:"MEMORY_SQLITE_PATH" default:"empathy_memory.db"`
	SheetsCredsFile   string `json:"sheets_creds_file" env:"GOOGLE_SHEETS_CREDENTIALS"`
	SheetsSpreadsheet string `json:"sheets_spreadsheet" env:"SHEETS_SPREADSHEET_ID"`
	SheetsWorksheet   string `json:"sheets_worksheet" env:"SHEETS_WORKSHEET" default:"emotions"`
	RecentLimit       int    `json:"recent_limit" env:"MEMORY_RECENT_LIMIT" default:"30"`
}

// NotifyConfig configures the outbound notification sink
type NotifyConfig struct {
	// Sink: webhook, amqp or empty (disabled)
	Sink       string        `json:"sink" env:"NOTIFY_SINK"`
	WebhookURL string        `json:"webhook_url" env:"N8N_WEBHOOK_URL"`
	Timeout    time.Duration `json:"timeout" env:"NOTIFY_TIMEOUT" default:"5s"`
	MaxRetries int           `json:"max_retries" env:"NOTIFY_MAX_RETRIES" default:"2"`
	AMQPURL    string        `json:"amqp_url" env:"AMQP_URL"`
	AMQPQueue  string        `json:"amqp_queue" env:"AMQP_QUEUE_NAME" default:"empathy_events"`
}

// AnalyticsConfig controls the pattern reporting window
type AnalyticsConfig struct {
	WindowDays int `json:"window_days" env:"ANALYTICS_WINDOW_DAYS" default:"7"`
}

// Load reads configuration from the environment, loading a .env file first
// when one is present.
func Load(logger *logrus.Logger) (*Config, error) {
	if envFile := findEnvFile(); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			logger.WithError(err).WithField("path", envFile).Warn("Failed to load .env file")
		} else {
			logger.WithField("path", envFile).Info("Loaded .env file")
		}
	} else {
		logger.Debug("No .env file found, using environment variables only")
	}

	cfg := &Config{
		HTTP: HTTPConfig{
			Port:            getEnvInt("HTTP_PORT", 8080),
			ReadTimeout:     getEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
			EnableMetrics:   getEnvBool("HTTP_ENABLE_METRICS", true),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Emotion: EmotionConfig{
			InferenceURL: getEnv("EMOTION_INFERENCE_URL", ""),
			APIKey:       getEnv("EMOTION_API_KEY", ""),
			Timeout:      getEnvDuration("EMOTION_TIMEOUT", 10*time.Second),
			MinLength:    getEnvInt("EMOTION_MIN_LENGTH", 5),
			MaxLength:    getEnvInt("EMOTION_MAX_LENGTH", 512),
		},
		Generation: GenerationConfig{
			Provider:     strings.ToLower(getEnv("GENERATION_PROVIDER", "")),
			GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
			GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			MinInterval:  getEnvDuration("GENERATION_MIN_INTERVAL", time.Second),
			MaxRetries:   getEnvInt("GENERATION_MAX_RETRIES", 3),
			BackoffBase:  getEnvFloat("GENERATION_BACKOFF_BASE", 2),
			Timeout:      getEnvDuration("GENERATION_TIMEOUT", 30*time.Second),
		},
		Memory: MemoryConfig{
			Backend:           strings.ToLower(getEnv("MEMORY_BACKEND", "sqlite")),
			SQLitePath:        getEnv("MEMORY_SQLITE_PATH", "empathy_memory.db"),
			SheetsCredsFile:   getEnv("GOOGLE_SHEETS_CREDENTIALS", ""),
			SheetsSpreadsheet: getEnv("SHEETS_SPREADSHEET_ID", ""),
			SheetsWorksheet:   getEnv("SHEETS_WORKSHEET", "emotions"),
			RecentLimit:       getEnvInt("MEMORY_RECENT_LIMIT", 30),
		},
		Notify: NotifyConfig{
			Sink:       strings.ToLower(getEnv("NOTIFY_SINK", "")),
			WebhookURL: getEnv("N8N_WEBHOOK_URL", ""),
			Timeout:    getEnvDuration("NOTIFY_TIMEOUT", 5*time.Second),
			MaxRetries: getEnvInt("NOTIFY_MAX_RETRIES", 2),
			AMQPURL:    getEnv("AMQP_URL", ""),
			AMQPQueue:  getEnv("AMQP_QUEUE_NAME", "empathy_events"),
		},
		Analytics: AnalyticsConfig{
			WindowDays: getEnvInt("ANALYTICS_WINDOW_DAYS", 7),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration consistency
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTP.Port)
	}

	switch c.Generation.Provider {
	case "", "gemini", "openai":
	default:
		return fmt.Errorf("unknown generation provider: %q", c.Generation.Provider)
	}

	if c.Generation.MaxRetries < 1 {
		return fmt.Errorf("generation max retries must be at least 1, got %d", c.Generation.MaxRetries)
	}
	if c.Generation.MinInterval < 0 {
		return fmt.Errorf("generation min interval must not be negative")
	}
	if c.Generation.BackoffBase < 1 {
		return fmt.Errorf("generation backoff base must be at least 1, got %v", c.Generation.BackoffBase)
	}

	switch c.Memory.Backend {
	case "sqlite", "sheets":
	default:
		return fmt.Errorf("unknown memory backend: %q", c.Memory.Backend)
	}

	switch c.Notify.Sink {
	case "", "webhook", "amqp":
	default:
		return fmt.Errorf("unknown notification sink: %q", c.Notify.Sink)
	}

	if c.Emotion.MinLength < 0 {
		return fmt.Errorf("emotion min length must not be negative")
	}
	if c.Emotion.MaxLength < c.Emotion.MinLength {
		return fmt.Errorf("emotion max length must not be smaller than min length")
	}
	if c.Analytics.WindowDays < 1 {
		return fmt.Errorf("analytics window must be at least 1 day, got %d", c.Analytics.WindowDays)
	}
	if c.Memory.RecentLimit < 1 {
		return fmt.Errorf("memory recent limit must be at least 1, got %d", c.Memory.RecentLimit)
	}

	return nil
}

// SetupLogger applies logging configuration to the given logger
func (c *LoggingConfig) SetupLogger(logger *logrus.Logger) {
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.EqualFold(c.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

func findEnvFile() string {
	candidates := []string{".env", "../.env"}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			abs, err := filepath.Abs(candidate)
			if err != nil {
				return candidate
			}
			return abs
		}
	}
	return ""
}

// Helper function to get a string environment variable with a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// Helper function to get a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	switch strings.ToLower(value) {
	case "true", "yes", "1", "on":
		return true
	case "false", "no", "0", "off":
		return false
	default:
		return defaultValue
	}
}

// Helper function to get an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// Helper function to get a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

// getEnvFloat retrieves an environment variable and converts it to float64
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return floatValue
}
