package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	BackendFirestore = "firestore"
	BackendMongo     = "mongo"
	BackendPostgres  = "postgres"
	BackendSQLite    = "sqlite"
	BackendAirtable  = "airtable"
	BackendMemory    = "memory"
)

// Notification channels.
const (
	ChannelTelegram  = "telegram"
	ChannelTwilio    = "twilio"
	ChannelTextMagic = "textmagic"
	ChannelNone      = "none"
)

// Config holds all application configuration values
type Config struct {
	Port      string
	GinMode   string
	LogLevel  string
	LogFormat string

	StoreBackend    string
	StoreCollection string
	StoreURL        string
	StoreDatabase   string

	CredentialsFile    string
	FirestoreProjectID string

	AirtableAPIKey string
	AirtableBaseID string

	BotToken         string
	AdminChatID      string
	RestrictStatsCmd bool

	NotifyChannel   string
	NotifyQueueSize int
	AdminPhone      string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string

	TextMagicUsername string
	TextMagicAPIKey   string

	RateLimit       float64
	RateLimitBurst  int
	EnableGzip      bool
	ShutdownTimeout time.Duration
}

// LoadConfig reads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Port:      getEnv("PORT", "3000"),
		GinMode:   getEnv("GIN_MODE", "release"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		StoreBackend:    strings.ToLower(getEnv("STORE_BACKEND", BackendFirestore)),
		StoreCollection: getEnv("STORE_COLLECTION", "userdata"),
		StoreURL:        os.Getenv("STORE_URL"),
		StoreDatabase:   getEnv("STORE_DATABASE", "formintake"),

		CredentialsFile:    getEnv("GOOGLE_APPLICATION_CREDENTIALS", "software.json"),
		FirestoreProjectID: os.Getenv("FIRESTORE_PROJECT_ID"),

		AirtableAPIKey: os.Getenv("AIRTABLE_API_KEY"),
		AirtableBaseID: os.Getenv("AIRTABLE_BASE_ID"),

		BotToken:         os.Getenv("BOT_TOKEN"),
		AdminChatID:      os.Getenv("ADMIN_CHAT_ID"),
		RestrictStatsCmd: getEnvBool("BOT_RESTRICT_STATS", false),

		NotifyChannel:   strings.ToLower(getEnv("NOTIFY_CHANNEL", ChannelTelegram)),
		NotifyQueueSize: getEnvInt("NOTIFY_QUEUE_SIZE", 64),
		AdminPhone:      os.Getenv("ADMIN_PHONE"),

		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFrom:       os.Getenv("TWILIO_FROM"),

		TextMagicUsername: os.Getenv("TEXTMAGIC_USERNAME"),
		TextMagicAPIKey:   os.Getenv("TEXTMAGIC_API_KEY"),

		RateLimit:       getEnvFloat("RATE_LIMIT", 5),
		RateLimitBurst:  getEnvInt("RATE_LIMIT_BURST", 10),
		EnableGzip:      getEnvBool("ENABLE_GZIP", true),
		ShutdownTimeout: time.Duration(getEnvInt("SHUTDOWN_TIMEOUT_SECONDS", 30)) * time.Second,
	}
}

// Validate checks that the settings required by the selected backend and
// notification channel are present.
func (c *Config) Validate() error {
	if c.StoreCollection == "" {
		return fmt.Errorf("STORE_COLLECTION must not be empty")
	}

	switch c.StoreBackend {
	case BackendFirestore:
		if c.CredentialsFile == "" {
			return fmt.Errorf("GOOGLE_APPLICATION_CREDENTIALS is required for the firestore backend")
		}
	case BackendMongo, BackendPostgres, BackendSQLite:
		if c.StoreURL == "" {
			return fmt.Errorf("STORE_URL is required for the %s backend", c.StoreBackend)
		}
	case BackendMemory:
	case BackendAirtable:
		if c.AirtableAPIKey == "" || c.AirtableBaseID == "" {
			return fmt.Errorf("AIRTABLE_API_KEY and AIRTABLE_BASE_ID are required for the airtable backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.NotifyChannel {
	case ChannelTelegram:
		if c.BotToken == "" || c.AdminChatID == "" {
			return fmt.Errorf("BOT_TOKEN and ADMIN_CHAT_ID are required for telegram notifications")
		}
	case ChannelTwilio:
		if c.TwilioAccountSID == "" || c.TwilioAuthToken == "" || c.TwilioFrom == "" || c.AdminPhone == "" {
			return fmt.Errorf("TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN, TWILIO_FROM and ADMIN_PHONE are required for twilio notifications")
		}
	case ChannelTextMagic:
		if c.TextMagicUsername == "" || c.TextMagicAPIKey == "" || c.AdminPhone == "" {
			return fmt.Errorf("TEXTMAGIC_USERNAME, TEXTMAGIC_API_KEY and ADMIN_PHONE are required for textmagic notifications")
		}
	case ChannelNone:
	default:
		return fmt.Errorf("unknown NOTIFY_CHANNEL %q", c.NotifyChannel)
	}

	if c.RestrictStatsCmd && c.AdminChatID == "" {
		return fmt.Errorf("BOT_RESTRICT_STATS requires ADMIN_CHAT_ID")
	}

	if c.RateLimit <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT and RATE_LIMIT_BURST must be positive")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
