// internal/infrastructure/config/config.go
package config

import (
	"errors"
	"os"
	"strconv"
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

	// MongoDB
	MongoURI      string
	MongoDB       string
	MongoUser     string
	MongoPassword string

	// Postgres reference data, optional
	PostgresDSN string

	// Amadeus
	AmadeusBaseURL          string
	AmadeusClientID         string
	AmadeusClientSecret     string
	AmadeusTokenEarlyExpiry time.Duration
	ProviderRetryCount      int
	ProviderRetryWait       time.Duration
	ProviderTimeout         time.Duration
	MaxOffers               int

	// Telegram
	TelegramAPIURL        string
	TelegramBotToken      string
	TelegramWebhookSecret string
	TelegramWebhookURL    string

	// AdminToken enables the operator subscription route when set
	AdminToken string

	// Background cycles
	PriceCheckSchedule  string
	FlightCheckSchedule string
	PriceCheckDelay     time.Duration
	FlightCheckDelay    time.Duration

	// Policies
	SignificantDropAmount   float64
	SignificantDropPercent  float64
	ScheduleChangeThreshold time.Duration
	StatusHeartbeat         time.Duration
	BookingHorizonDays      int
	FreeTierMaxAlerts       int
	FreeTierMaxTracks       int
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
		WriteTimeout: time.Duration(getEnvAsInt("WRITE_TIMEOUT", 60)) * time.Second,

		MongoURI:      getEnv("MONGODB_DSN", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "flightwatch"),
		MongoUser:     getEnv("MONGO_USER", ""),
		MongoPassword: getEnv("MONGO_PASSWORD", ""),

		PostgresDSN: getEnv("POSTGRES_DSN", ""),

		AmadeusBaseURL:          getEnv("AMADEUS_BASE_URL", "https://test.api.amadeus.com"),
		AmadeusClientID:         getEnv("AMADEUS_CLIENT_ID", ""),
		AmadeusClientSecret:     getEnv("AMADEUS_CLIENT_SECRET", ""),
		AmadeusTokenEarlyExpiry: getEnvAsDuration("AMADEUS_TOKEN_EARLY_EXPIRY", 5*time.Minute),
		ProviderRetryCount:      getEnvAsInt("PROVIDER_RETRY_COUNT", 3),
		ProviderRetryWait:       getEnvAsDuration("PROVIDER_RETRY_WAIT", time.Second),
		ProviderTimeout:         getEnvAsDuration("PROVIDER_TIMEOUT", 30*time.Second),
		MaxOffers:               getEnvAsInt("MAX_OFFERS", 5),

		TelegramAPIURL:        getEnv("TELEGRAM_API_URL", "https://api.telegram.org"),
		TelegramBotToken:      getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramWebhookSecret: getEnv("TELEGRAM_WEBHOOK_SECRET", ""),
		TelegramWebhookURL:    getEnv("TELEGRAM_WEBHOOK_URL", ""),

		AdminToken: getEnv("ADMIN_TOKEN", ""),

		PriceCheckSchedule:  getEnv("PRICE_CHECK_SCHEDULE", "@every 1h"),
		FlightCheckSchedule: getEnv("FLIGHT_CHECK_SCHEDULE", "@every 15m"),
		PriceCheckDelay:     getEnvAsDuration("PRICE_CHECK_DELAY", 2*time.Second),
		FlightCheckDelay:    getEnvAsDuration("FLIGHT_CHECK_DELAY", time.Second),

		SignificantDropAmount:   getEnvAsFloat("SIGNIFICANT_DROP_AMOUNT", 50),
		SignificantDropPercent:  getEnvAsFloat("SIGNIFICANT_DROP_PERCENT", 20),
		ScheduleChangeThreshold: getEnvAsDuration("SCHEDULE_CHANGE_THRESHOLD", 10*time.Minute),
		StatusHeartbeat:         getEnvAsDuration("STATUS_HEARTBEAT", 24*time.Hour),
		BookingHorizonDays:      getEnvAsInt("BOOKING_HORIZON_DAYS", 330),
		FreeTierMaxAlerts:       getEnvAsInt("FREE_TIER_MAX_ALERTS", 3),
		FreeTierMaxTracks:       getEnvAsInt("FREE_TIER_MAX_TRACKS", 5),
	}

	return config, nil
}

// Validate reports missing credentials and nonsensical policy values
func (c *Config) Validate() error {
	var errs []error
	if c.TelegramBotToken == "" {
		errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN is required"))
	}
	if c.AmadeusClientID == "" || c.AmadeusClientSecret == "" {
		errs = append(errs, errors.New("AMADEUS_CLIENT_ID and AMADEUS_CLIENT_SECRET are required"))
	}
	if c.SignificantDropAmount < 0 || c.SignificantDropPercent < 0 || c.SignificantDropPercent > 100 {
		errs = append(errs, errors.New("significant drop thresholds must be non-negative and percent at most 100"))
	}
	if c.BookingHorizonDays <= 0 {
		errs = append(errs, errors.New("BOOKING_HORIZON_DAYS must be positive"))
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

// getEnvAsDuration accepts Go durations ("90s", "10m") or plain seconds
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	if seconds, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
