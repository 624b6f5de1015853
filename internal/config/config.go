package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Env string

	// Server
	Port string

	// Database
	DBDriver     string
	DBHost       string
	DBPort       string
	DBUser       string
	DBPassword   string
	DBName       string
	DBSSLMode    string
	DBSQLitePath string

	// Transaction retry policy for atomic units of work
	TxMaxAttempts int
	TxBackoff     time.Duration

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Batch jobs
	PipelineAPIKey    string
	RecurringSchedule string
	BatchConcurrency  int
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),

		DBDriver:     getEnv("DB_DRIVER", "postgres"),
		DBHost:       getEnv("DB_HOST", "localhost"),
		DBPort:       getEnv("DB_PORT", "5432"),
		DBUser:       getEnv("DB_USER", "finance"),
		DBPassword:   getEnv("DB_PASSWORD", "finance"),
		DBName:       getEnv("DB_NAME", "finance"),
		DBSSLMode:    getEnv("DB_SSLMODE", "disable"),
		DBSQLitePath: getEnv("DB_SQLITE_PATH", "finance.db"),

		TxMaxAttempts: getEnvInt("DB_TX_MAX_ATTEMPTS", 3),
		TxBackoff:     getEnvDuration("DB_TX_BACKOFF", 50*time.Millisecond),

		JWTSecret:        getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),
		JWTExpirationDur: getEnvDuration("JWT_EXPIRES_IN", 24*time.Hour),

		PipelineAPIKey:    getEnv("PIPELINE_API_KEY", ""),
		RecurringSchedule: os.Getenv("RECURRING_SCHEDULE"),
		BatchConcurrency:  getEnvInt("BATCH_CONCURRENCY", 8),
	}
	if _, set := os.LookupEnv("RECURRING_SCHEDULE"); !set {
		config.RecurringSchedule = "0 1 * * *"
	}

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, v, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, v, defaultValue)
		return defaultValue
	}
	return d
}
