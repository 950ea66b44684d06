// internal/infrastructure/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion string
	LogLevel   string

	// Server
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// PostgreSQL reconciliation store
	PostgresDSN string

	// MongoDB audit collections
	MongoURI      string
	MongoDB       string
	MongoUser     string
	MongoPassword string

	// AIMS live source
	AIMSEndpoint        string
	AIMSNamespace       string
	AIMSUsername        string
	AIMSPassword        string
	AIMSUsernameFlights string
	AIMSPasswordFlights string
	AIMSTimeout         time.Duration
	AIMSMaxConcurrent   int
	LiveSyncEnabled     bool

	// Sync cadences and retry policy
	CrewSyncInterval      time.Duration
	FlightSyncInterval    time.Duration
	FTLSyncInterval       time.Duration
	ReferenceSyncInterval time.Duration
	QualityCheckInterval  time.Duration
	ProbeInterval         time.Duration
	TaskTimeout           time.Duration
	SyncLookbackDays      int
	SyncLookaheadDays     int
	MaxAttempts           int
	BackoffInitial        time.Duration
	BackoffMax            time.Duration
	FailureThreshold      int

	// FTL compliance
	FTLWarningHours         float64
	FTLCriticalHours        float64
	FTLMinCrewDensity       int
	FTLBestDateLookbackDays int

	// Swap detection
	SwapDelayThresholdMinutes int
	SwapKeywordsFile          string

	// Query surface and quality
	StaleDataThreshold time.Duration
	QueryCacheTTL      time.Duration

	// Gmail export mailbox
	GmailEnabled      bool
	GmailClientID     string
	GmailClientSecret string
	GmailRefreshToken string
	GmailPollInterval time.Duration
	GmailQuery        string

	// Alert webhook
	AlertWebhookURL   string
	AlertWebhookToken string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		AppVersion:   getEnv("APP_VERSION", "1.0.0"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Port:         getEnv("PORT", "8080"),
		ReadTimeout:  time.Duration(getEnvAsInt("READ_TIMEOUT", 30)) * time.Second,
		WriteTimeout: time.Duration(getEnvAsInt("WRITE_TIMEOUT", 30)) * time.Second,

		PostgresDSN: getEnv("POSTGRES_DSN", ""),

		MongoURI:      getEnv("MONGODB_DSN", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "crewsync"),
		MongoUser:     getEnv("MONGO_USER", ""),
		MongoPassword: getEnv("MONGO_PASSWORD", ""),

		AIMSEndpoint:        getEnv("AIMS_ENDPOINT", ""),
		AIMSNamespace:       getEnv("AIMS_NAMESPACE", "http://tempuri.org/"),
		AIMSUsername:        getEnv("AIMS_USERNAME", ""),
		AIMSPassword:        getEnv("AIMS_PASSWORD", ""),
		AIMSUsernameFlights: getEnv("AIMS_USERNAME_FLIGHTS", ""),
		AIMSPasswordFlights: getEnv("AIMS_PASSWORD_FLIGHTS", ""),
		AIMSTimeout:         getEnvAsDuration("AIMS_TIMEOUT", 30*time.Second),
		AIMSMaxConcurrent:   getEnvAsInt("AIMS_MAX_CONCURRENT", 5),
		LiveSyncEnabled:     getEnvAsBool("LIVE_SYNC_ENABLED", true),

		CrewSyncInterval:      getEnvAsDuration("SYNC_CREW_INTERVAL", 5*time.Minute),
		FlightSyncInterval:    getEnvAsDuration("SYNC_FLIGHT_INTERVAL", 5*time.Minute),
		FTLSyncInterval:       getEnvAsDuration("SYNC_FTL_INTERVAL", 15*time.Minute),
		ReferenceSyncInterval: getEnvAsDuration("SYNC_REFERENCE_INTERVAL", 24*time.Hour),
		QualityCheckInterval:  getEnvAsDuration("QUALITY_CHECK_INTERVAL", 24*time.Hour),
		ProbeInterval:         getEnvAsDuration("SYNC_PROBE_INTERVAL", 15*time.Minute),
		TaskTimeout:           getEnvAsDuration("SYNC_TASK_TIMEOUT", 10*time.Minute),
		SyncLookbackDays:      getEnvAsInt("SYNC_LOOKBACK_DAYS", 2),
		SyncLookaheadDays:     getEnvAsInt("SYNC_LOOKAHEAD_DAYS", 1),
		MaxAttempts:           getEnvAsInt("SYNC_MAX_ATTEMPTS", 4),
		BackoffInitial:        getEnvAsDuration("SYNC_BACKOFF_INITIAL", 2*time.Second),
		BackoffMax:            getEnvAsDuration("SYNC_BACKOFF_MAX", time.Minute),
		FailureThreshold:      getEnvAsInt("SYNC_FAILURE_THRESHOLD", 3),

		FTLWarningHours:         getEnvAsFloat("FTL_WARNING_HOURS", 85),
		FTLCriticalHours:        getEnvAsFloat("FTL_CRITICAL_HOURS", 95),
		FTLMinCrewDensity:       getEnvAsInt("FTL_MIN_CREW_DENSITY", 5),
		FTLBestDateLookbackDays: getEnvAsInt("FTL_BEST_DATE_LOOKBACK_DAYS", 7),

		SwapDelayThresholdMinutes: getEnvAsInt("SWAP_DELAY_THRESHOLD_MINUTES", 15),
		SwapKeywordsFile:          getEnv("SWAP_KEYWORDS_FILE", ""),

		StaleDataThreshold: getEnvAsDuration("STALE_DATA_THRESHOLD", 30*time.Minute),
		QueryCacheTTL:      getEnvAsDuration("QUERY_CACHE_TTL", 5*time.Minute),

		GmailEnabled:      getEnvAsBool("GMAIL_ENABLED", false),
		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),
		GmailPollInterval: time.Duration(getEnvAsInt("GMAIL_POLL_INTERVAL", 60)) * time.Second,
		GmailQuery:        getEnv("GMAIL_QUERY", "has:attachment newer_than:2d"),

		AlertWebhookURL:   getEnv("ALERT_WEBHOOK_URL", ""),
		AlertWebhookToken: getEnv("ALERT_WEBHOOK_TOKEN", ""),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks required settings and threshold sanity
func (c *Config) Validate() error {
	var errs []error
	if c.PostgresDSN == "" {
		errs = append(errs, errors.New("POSTGRES_DSN is required"))
	}
	if c.LiveSyncEnabled && c.AIMSEndpoint == "" {
		errs = append(errs, errors.New("AIMS_ENDPOINT is required when live sync is enabled"))
	}
	if c.FTLWarningHours <= 0 || c.FTLWarningHours >= c.FTLCriticalHours {
		errs = append(errs, fmt.Errorf("FTL_WARNING_HOURS (%v) must be positive and below FTL_CRITICAL_HOURS (%v)", c.FTLWarningHours, c.FTLCriticalHours))
	}
	if c.MaxAttempts < 1 {
		errs = append(errs, errors.New("SYNC_MAX_ATTEMPTS must be at least 1"))
	}
	if c.FailureThreshold < 1 {
		errs = append(errs, errors.New("SYNC_FAILURE_THRESHOLD must be at least 1"))
	}
	if c.FTLMinCrewDensity < 0 {
		errs = append(errs, errors.New("FTL_MIN_CREW_DENSITY must not be negative"))
	}
	if c.GmailEnabled && (c.GmailClientID == "" || c.GmailClientSecret == "" || c.GmailRefreshToken == "") {
		errs = append(errs, errors.New("GMAIL_CLIENT_ID, GMAIL_CLIENT_SECRET and GMAIL_REFRESH_TOKEN are required when the mailbox is enabled"))
	}
	return errors.Join(errs...)
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration strings ("90s", "5m") or a bare number of seconds
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
