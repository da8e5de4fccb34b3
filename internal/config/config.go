package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int
	ShutdownTimeout    time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// Ledger
	SeedFile       string
	LinkedSpending bool
	BudgetAlerts   bool

	// Report cache
	CacheSize int
	CacheTTL  time.Duration

	// AMQP (optional; empty URL disables alert publishing)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Export backend
	ExportBackend string

	// Google Sheets
	GoogleSpreadsheetID   string
	GoogleReportSheet     string
	GoogleAlertSheet      string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string

	// malformed environment values found by Load, reported by Validate
	envErrors []string
}

var (
	validBackends  = []string{"memory", "sheets"}
	validLogLevels = []string{"debug", "info", "warn", "error"}
	validFormats   = []string{"text", "json"}
)

func Load() *Config {
	env := &envReader{}
	cfg := &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: env.int("RATE_LIMIT_PER_MINUTE", 60),
		ShutdownTimeout:    env.duration("SHUTDOWN_TIMEOUT", 30*time.Second),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		SeedFile:       getEnv("SEED_FILE", ""),
		LinkedSpending: env.bool("LINKED_SPENDING", false),
		BudgetAlerts:   env.bool("BUDGET_ALERTS", true),

		CacheSize: env.int("REPORT_CACHE_SIZE", 32),
		CacheTTL:  env.duration("REPORT_CACHE_TTL", 5*time.Minute),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "homebudget"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "budget_alerts"),

		ExportBackend: getEnv("EXPORT_BACKEND", "memory"),

		GoogleSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleReportSheet:     getEnv("GOOGLE_REPORT_SHEET", "Reports"),
		GoogleAlertSheet:      getEnv("GOOGLE_ALERT_SHEET", "Alerts"),
		GoogleCredentialsFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")),
		GoogleCredentialsJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
	}
	cfg.envErrors = env.errs
	return cfg
}

// Validate returns every problem at once rather than stopping at the first.
func (c *Config) Validate() error {
	errors := append([]string(nil), c.envErrors...)

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}
	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	}

	if !oneOf(strings.ToLower(c.LogLevel), validLogLevels) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLogLevels))
	}
	if !oneOf(strings.ToLower(c.LogFormat), validFormats) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validFormats))
	}

	if c.SeedFile != "" {
		if _, err := os.Stat(c.SeedFile); err != nil {
			errors = append(errors, fmt.Sprintf("seed file '%s' is not readable: %v", c.SeedFile, err))
		}
	}

	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid report cache size %d: must be at least 1", c.CacheSize))
	}
	if c.CacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid report cache TTL %v: must be positive", c.CacheTTL))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if !oneOf(c.ExportBackend, validBackends) {
		errors = append(errors, fmt.Sprintf("invalid export backend '%s': must be one of %v", c.ExportBackend, validBackends))
	}
	if c.ExportBackend == "sheets" {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleReportSheet == "" {
			errors = append(errors, "Google report sheet name is required when using sheets backend")
		}
		if c.GoogleCredentialsFile == "" && c.GoogleCredentialsJSON == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for sheets backend")
		}
		if c.GoogleCredentialsFile != "" {
			if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
			}
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// AMQPEnabled reports whether alert publishing is configured.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// envReader parses typed variables and remembers the ones it could not parse.
type envReader struct {
	errs []string
}

func (e *envReader) invalid(key, value, want string) {
	e.errs = append(e.errs, fmt.Sprintf("invalid %s '%s': must be %s", key, value, want))
}

func (e *envReader) int(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		e.invalid(key, value, "an integer")
		return defaultValue
	}
	return i
}

func (e *envReader) bool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		e.invalid(key, value, "true or false")
		return defaultValue
	}
	return b
}

func (e *envReader) duration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		e.invalid(key, value, "a duration such as 30s or 5m")
		return defaultValue
	}
	return d
}
