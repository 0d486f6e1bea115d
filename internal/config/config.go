package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Env string

	// Server
	Port string

	// Database
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	AutoMigrate bool

	// JWT issued by the municipal identity provider
	JWTSecret string
	JWTIssuer string

	// Shared key for the payment subsystem callback
	PaymentsAPIKey string

	// Transition events; an empty broker list disables Kafka
	KafkaBrokers []string
	KafkaTopic   string

	// Ledger unit-of-work retries on concurrent modification
	LedgerMaxRetries   int
	LedgerRetryBackoff time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),

		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "erario"),
		DBPassword:  getEnv("DB_PASSWORD", "erario"),
		DBName:      getEnv("DB_NAME", "erario"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),
		AutoMigrate: getEnv("AUTO_MIGRATE", "true") == "true",

		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),
		JWTIssuer: getEnv("JWT_ISSUER", ""),

		PaymentsAPIKey: getEnv("PAYMENTS_API_KEY", ""),

		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "budget.transitions"),
	}

	retriesStr := getEnv("LEDGER_MAX_RETRIES", "5")
	retries, err := strconv.Atoi(retriesStr)
	if err != nil || retries < 1 {
		log.Printf("Warning: invalid LEDGER_MAX_RETRIES value '%s', falling back to 5\n", retriesStr)
		retries = 5
	}
	config.LedgerMaxRetries = retries

	backoffStr := getEnv("LEDGER_RETRY_BACKOFF", "10ms")
	backoff, err := time.ParseDuration(backoffStr)
	if err != nil {
		log.Printf("Warning: invalid LEDGER_RETRY_BACKOFF value '%s', falling back to 10ms\n", backoffStr)
		backoff = 10 * time.Millisecond
	}
	config.LedgerRetryBackoff = backoff

	return config, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// splitList splits a comma separated value, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
