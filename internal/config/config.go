package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port           string
	Debug          bool
	AnalyzeTimeout time.Duration

	// YouTube Data API
	YouTubeAPIKey   string
	YouTubeBaseURL  string
	FetchPageDelay  time.Duration
	FetchMaxRetries int

	// Enrichment (OpenRouter chat completions)
	OpenRouterAPIKey        string
	OpenRouterBaseURL       string
	OpenRouterModel         string
	EnableEnrichment        bool
	EnrichmentRatePerSecond float64
	EnrichmentBurst         int
	EnrichmentWorkers       int
	EnrichmentMaxComments   int

	// Analysis
	TopWordsLimit int

	// Azure Storage configuration
	StorageAccount   string
	StorageContainer string
	DataDir          string // local fallback when no storage account is set

	// Notification configuration
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string

	// Schedule configuration
	EnableScheduler   bool
	ReanalyzeSchedule string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Debug:          getBoolEnv("DEBUG", false),
		AnalyzeTimeout: getDurationEnv("ANALYZE_TIMEOUT", 10*time.Minute),

		YouTubeAPIKey:   getEnv("YOUTUBE_API_KEY", getEnv("GOOGLE_API_KEY", "")),
		YouTubeBaseURL:  getEnv("YOUTUBE_API_BASE_URL", "https://www.googleapis.com/youtube/v3"),
		FetchPageDelay:  getDurationEnv("FETCH_PAGE_DELAY", 100*time.Millisecond),
		FetchMaxRetries: getIntEnv("FETCH_MAX_RETRIES", 3),

		OpenRouterAPIKey:        getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterBaseURL:       getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterModel:         getEnv("OPENROUTER_MODEL", "gpt-3.5-turbo"),
		EnableEnrichment:        getBoolEnv("ENABLE_ENRICHMENT", false),
		EnrichmentRatePerSecond: getFloatEnv("ENRICHMENT_RATE_PER_SECOND", 5),
		EnrichmentBurst:         getIntEnv("ENRICHMENT_BURST", 5),
		EnrichmentWorkers:       getIntEnv("ENRICHMENT_WORKERS", 4),
		EnrichmentMaxComments:   getIntEnv("ENRICHMENT_MAX_COMMENTS", 500),

		TopWordsLimit: getIntEnv("TOP_WORDS_LIMIT", 20),

		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "comment-analyzer"),
		DataDir:          getEnv("DATA_DIR", ""),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),

		EnableScheduler:   getBoolEnv("ENABLE_SCHEDULER", false),
		ReanalyzeSchedule: getEnv("REANALYZE_SCHEDULE", "0 0 */6 * * *"),
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// EnrichmentActive reports whether comments should be sent to the enrichment service
func (c *Config) EnrichmentActive() bool {
	return c.EnableEnrichment && c.OpenRouterAPIKey != ""
}

func (c *Config) validate() error {
	if c.YouTubeAPIKey == "" {
		return fmt.Errorf("YOUTUBE_API_KEY (or GOOGLE_API_KEY) is required")
	}

	if c.EnableEnrichment && c.OpenRouterAPIKey == "" {
		return fmt.Errorf("OPENROUTER_API_KEY is required when ENABLE_ENRICHMENT is true")
	}

	if c.EnrichmentRatePerSecond <= 0 {
		return fmt.Errorf("ENRICHMENT_RATE_PER_SECOND must be positive")
	}

	if c.EnrichmentWorkers < 1 || c.EnrichmentBurst < 1 {
		return fmt.Errorf("ENRICHMENT_WORKERS and ENRICHMENT_BURST must be at least 1")
	}

	if c.TopWordsLimit < 1 {
		return fmt.Errorf("TOP_WORDS_LIMIT must be at least 1")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	if c.EnableScheduler {
		parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(c.ReanalyzeSchedule); err != nil {
			return fmt.Errorf("REANALYZE_SCHEDULE is not a valid cron expression: %w", err)
		}
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getDurationEnv accepts Go durations ("250ms", "5m") or a bare number of milliseconds
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if parsed, err := time.ParseDuration(value); err == nil {
		return parsed
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}
