package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/akeren/waitlist-api/internal/log"
	"github.com/joho/godotenv"
)

const AppEnvKey = "APP_ENV"

func InitializeEnvFile(logger *log.Logger) {
	logger.Info("Initializing environment variables from .env file if present")

	if os.Getenv("SKIP_DOTENV") == "true" {
		logger.Info("Skipping .env file load (SKIP_DOTENV=true)")
		return
	}

	if err := godotenv.Load(); err != nil {
		logger.Warn("No .env file found or failed to load it", "error", err.Error())
		return
	}

	logger.Info("Environment variables loaded from .env file successfully")
}

func GetValueFromEnvironmentVariable(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultValue
}

// GetTrimmedEnvOrDefault treats blank and quoted-blank values as unset.
func GetTrimmedEnvOrDefault(key, defaultValue string) string {
	if v := sanitizeEnv(os.Getenv(key)); v != "" {
		return v
	}

	return defaultValue
}

func GetAppEnv() string {
	return strings.ToLower(strings.TrimSpace(os.Getenv(AppEnvKey)))
}

// GetBoolFromEnv returns defaultValue when the variable is unset or unparseable.
func GetBoolFromEnv(key string, defaultValue bool) bool {
	v := sanitizeEnv(os.Getenv(key))
	if v == "" {
		return defaultValue
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}

	return b
}

// GetDurationFromEnv accepts Go durations ("30s") or a bare number of seconds.
func GetDurationFromEnv(key string, defaultValue time.Duration) time.Duration {
	v := sanitizeEnv(os.Getenv(key))
	if v == "" {
		return defaultValue
	}

	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}

	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}

	return defaultValue
}

func sanitizeEnv(v string) string {
	s := strings.TrimSpace(v)

	if len(s) >= 2 && ((s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'')) {
		s = s[1 : len(s)-1]
	}

	return s
}
