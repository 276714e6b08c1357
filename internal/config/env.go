package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadFromEnv loads configuration from environment variables.
// A .env file in the working directory is read first when present;
// variables already set in the process environment win.
func LoadFromEnv(cfg *Config) {
	_ = godotenv.Load()

	if mode := os.Getenv("PARKBEAT_STORE_MODE"); mode != "" {
		cfg.Store.Mode = mode
	}

	// BUCKET_NAME is what the deployed function has always been configured with
	if bucket := os.Getenv("BUCKET_NAME"); bucket != "" {
		cfg.Store.Bucket = bucket
	}
	if bucket := os.Getenv("PARKBEAT_BUCKET"); bucket != "" {
		cfg.Store.Bucket = bucket
	}

	cfg.Store.Endpoint = GetEnvOrDefault("PARKBEAT_S3_ENDPOINT", cfg.Store.Endpoint)
	cfg.Store.Region = GetEnvOrDefault("PARKBEAT_S3_REGION", cfg.Store.Region)
	cfg.Store.AccessKey = GetEnvOrDefault("PARKBEAT_S3_ACCESS_KEY", cfg.Store.AccessKey)
	cfg.Store.SecretKey = GetEnvOrDefault("PARKBEAT_S3_SECRET_KEY", cfg.Store.SecretKey)
	cfg.Store.LocalPath = GetEnvOrDefault("PARKBEAT_LOCAL_PATH", cfg.Store.LocalPath)

	cfg.Log.Level = GetEnvOrDefault("PARKBEAT_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = GetEnvOrDefault("PARKBEAT_LOG_FORMAT", cfg.Log.Format)

	if attempts := os.Getenv("PARKBEAT_FETCH_ATTEMPTS"); attempts != "" {
		if n, err := strconv.Atoi(attempts); err == nil {
			cfg.Artifacts.FetchAttempts = n
		}
	}

	if enabled := os.Getenv("PARKBEAT_METRICS_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
}

// GetEnvOrDefault returns environment variable or default value
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
