package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration
type Config struct {
	LogLevel string

	// Dataset source: a local CSV path or an HTTP URL. Path wins when
	// both are set.
	DatasetPath string
	DatasetURL  string

	// ScenarioFile points at the YAML scenario parameter file; empty
	// means compiled-in defaults.
	ScenarioFile string

	// HorizonMonths is the default forecast horizon length.
	HorizonMonths  int
	RequestTimeout int // seconds

	// HTTP API
	ListenAddr string

	// Optional PostgreSQL persistence for forecast runs.
	PersistResults bool
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBSSLMode      string
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	cfg := &Config{
		LogLevel:       getEnvWithDefault("LOG_LEVEL", "info"),
		DatasetPath:    os.Getenv("DATASET_PATH"),
		DatasetURL:     os.Getenv("DATASET_URL"),
		ScenarioFile:   os.Getenv("SCENARIO_FILE"),
		HorizonMonths:  getEnvIntWithDefault("HORIZON_MONTHS", 36),
		RequestTimeout: getEnvIntWithDefault("REQUEST_TIMEOUT", 30),
		ListenAddr:     getEnvWithDefault("LISTEN_ADDR", ":8080"),
		PersistResults: getEnvBoolWithDefault("PERSIST_RESULTS", false),
		DBHost:         getEnvWithDefault("DB_HOST", "localhost"),
		DBPort:         getEnvWithDefault("DB_PORT", "5432"),
		DBUser:         getEnvWithDefault("DB_USER", "postgres"),
		DBPassword:     os.Getenv("DB_PASSWORD"),
		DBName:         getEnvWithDefault("DB_NAME", "fi_forecast"),
		DBSSLMode:      getEnvWithDefault("DB_SSLMODE", "disable"),
	}

	return cfg, nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
