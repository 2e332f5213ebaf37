// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir              string // Base directory for all databases, always absolute
	LogLevel             string
	Timezone             string  // Default IANA timezone for calendar bucketing
	ConsistencyThreshold float64 // Default single-day profit concentration limit (percent)
	Port                 int
	DevMode              bool
	WeekStartsMonday     bool // Locale-derived week anchoring for calendar views
	Backup               *BackupConfig
}

// BackupConfig holds the S3 backup settings. Backups are disabled unless a
// bucket is configured.
type BackupConfig struct {
	Enabled       bool
	Bucket        string
	Region        string
	Prefix        string
	Endpoint      string // Optional custom endpoint (R2 and other S3-compatible stores)
	AccessKeyID   string
	SecretKey     string
	RetentionDays int
	Schedule      string // Cron expression for the backup job
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("DAYBOOK_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:              absDataDir,
		Port:                 getEnvAsInt("PORT", 8420),
		DevMode:              getEnvAsBool("DEV_MODE", false),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		Timezone:             getEnv("DAYBOOK_TIMEZONE", "UTC"),
		ConsistencyThreshold: getEnvAsFloat("CONSISTENCY_THRESHOLD", 30),
		WeekStartsMonday:     getEnvAsBool("WEEK_STARTS_MONDAY", false),
		Backup:               loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is usable
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid DAYBOOK_TIMEZONE %q: %w", c.Timezone, err)
	}
	if c.ConsistencyThreshold <= 0 || c.ConsistencyThreshold > 100 {
		return fmt.Errorf("CONSISTENCY_THRESHOLD must be in (0,100], got %v", c.ConsistencyThreshold)
	}
	return nil
}

// loadBackupConfig loads S3 backup settings. The feature is opt-in: a bucket
// name enables it, everything else has defaults.
func loadBackupConfig() *BackupConfig {
	bucket := getEnv("BACKUP_S3_BUCKET", "")
	return &BackupConfig{
		Enabled:       bucket != "",
		Bucket:        bucket,
		Region:        getEnv("BACKUP_S3_REGION", "auto"),
		Prefix:        getEnv("BACKUP_S3_PREFIX", "daybook-backup-"),
		Endpoint:      getEnv("BACKUP_S3_ENDPOINT", ""),
		AccessKeyID:   getEnv("BACKUP_S3_ACCESS_KEY_ID", ""),
		SecretKey:     getEnv("BACKUP_S3_SECRET_ACCESS_KEY", ""),
		RetentionDays: getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
		Schedule:      getEnv("BACKUP_SCHEDULE", "0 30 3 * * *"), // 03:30 nightly
	}
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
