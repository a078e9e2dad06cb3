package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Chat platform
	TelegramToken  string
	TelegramAPIURL string
	WebhookSecret  string

	// Admin
	AdminUserIDs []int64

	// Economy
	StartingCoins int
	ReferralBonus int

	// Sessions
	SessionTTL time.Duration

	// Server
	Port string
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "amora_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		TelegramToken:  getEnv("TELEGRAM_TOKEN", ""),
		TelegramAPIURL: getEnv("TELEGRAM_API_URL", "https://api.telegram.org"),
		WebhookSecret:  getEnv("WEBHOOK_SECRET", ""),

		AdminUserIDs: parseIDList(getEnv("ADMIN_USER_IDS", "")),

		StartingCoins: parseInt(getEnv("STARTING_COINS", "100"), 100),
		ReferralBonus: parseInt(getEnv("REFERRAL_BONUS", "50"), 50),

		SessionTTL: parseDuration(getEnv("SESSION_TTL", "30m")),

		Port: getEnv("PORT", "8080"),
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

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 30 * time.Minute
	}
	return d
}

// parseIDList parses a CSV of numeric user ids; malformed entries are skipped.
func parseIDList(s string) []int64 {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed == "" {
			continue
		}
		id, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
