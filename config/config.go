package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// This function will Load the ENVIORNMENT VARIABLES from .env if GO_ENV variable is not set
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	return nil
}

type EnviornmentVariable struct {
	GO_ENV string
	PORT   int
	// Database Configuration
	DB_DRIVER    string // postgres (default) or sqlite
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	SQLITE_PATH  string
	// JWT Configuration
	JWT_SECRET string
	JWT_ISSUER string
	// Redis Configuration
	REDIS_URL string
	// HTTP
	ALLOWED_ORIGINS string
	// Cron
	CRON_ENABLED       bool
	RECONCILE_SCHEDULE string
	// Admin bootstrap
	ADMIN_EMAIL    string
	ADMIN_PASSWORD string
}

func Get() (*EnviornmentVariable, error) {

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8080
	}

	envVariables := &EnviornmentVariable{
		GO_ENV: os.Getenv("GO_ENV"),
		PORT:   port,
		// Database
		DB_DRIVER:    getEnvDefault("DB_DRIVER", "postgres"),
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      getEnvDefault("DB_HOST", "localhost"),
		DB_PORT:      getEnvDefault("DB_PORT", "5432"),
		DB_SSL_MODE:  getEnvDefault("DB_SSL_MODE", "disable"),
		SQLITE_PATH:  getEnvDefault("SQLITE_PATH", "admission.db"),
		// JWT
		JWT_SECRET: os.Getenv("JWT_SECRET"),
		JWT_ISSUER: getEnvDefault("JWT_ISSUER", "admission-api"),
		// Redis
		REDIS_URL: getEnvDefault("REDIS_URL", "redis://localhost:6379/0"),
		// HTTP
		ALLOWED_ORIGINS: getEnvDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"),
		// Cron (default to enabled)
		CRON_ENABLED:       os.Getenv("CRON_ENABLED") != "false",
		RECONCILE_SCHEDULE: os.Getenv("RECONCILE_SCHEDULE"),
		// Admin
		ADMIN_EMAIL:    os.Getenv("ADMIN_EMAIL"),
		ADMIN_PASSWORD: os.Getenv("ADMIN_PASSWORD"),
	}

	return envVariables, nil
}

// IsProduction reports whether GO_ENV is production
func (e *EnviornmentVariable) IsProduction() bool {
	return e.GO_ENV == "production"
}

func getEnvDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
