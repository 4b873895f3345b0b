// Package config reads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const prefix = "SHAADI_"

type S3 struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Prefix    string
}

type Config struct {
	Port      string
	DBPath    string
	BaseURL   string
	LogLevel  string
	LogFormat string
	Couple    string

	PostmarkToken string
	FromEmail     string

	AdminEmail    string
	AdminPassword string

	VAPIDPublicKey  string
	VAPIDPrivateKey string

	S3                   S3
	ArchiveInterval      time.Duration
	ArchiveRetentionDays int

	MetricsEnabled bool
}

// SecureCookies reports whether session cookies should carry the Secure flag.
func (c Config) SecureCookies() bool {
	return strings.HasPrefix(c.BaseURL, "https://")
}

// Load reads an optional .env file from the working directory, then the
// environment. Variables already set in the environment win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv reads SHAADI_* variables with defaults.
func FromEnv() (Config, error) {
	cfg := Config{
		Port:      get("PORT", "8080"),
		DBPath:    get("DB_PATH", "shaadi.db"),
		LogLevel:  get("LOG_LEVEL", "info"),
		LogFormat: get("LOG_FORMAT", "text"),
		Couple:    get("COUPLE", "Priya & Arjun"),

		PostmarkToken: get("POSTMARK_TOKEN", ""),
		FromEmail:     get("FROM_EMAIL", ""),
		AdminEmail:    get("ADMIN_EMAIL", ""),
		AdminPassword: get("ADMIN_PASSWORD", ""),

		VAPIDPublicKey:  get("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey: get("VAPID_PRIVATE_KEY", ""),

		S3: S3{
			Endpoint:  get("S3_ENDPOINT", ""),
			Bucket:    get("S3_BUCKET", ""),
			Region:    get("S3_REGION", "us-east-1"),
			AccessKey: get("S3_ACCESS_KEY", ""),
			SecretKey: get("S3_SECRET_KEY", ""),
			Prefix:    get("S3_PREFIX", "exports/"),
		},
	}
	cfg.BaseURL = strings.TrimRight(get("BASE_URL", "http://localhost:"+cfg.Port), "/")

	var err error
	if cfg.ArchiveInterval, err = time.ParseDuration(get("ARCHIVE_INTERVAL", "24h")); err != nil {
		return Config{}, fmt.Errorf("%sARCHIVE_INTERVAL: %w", prefix, err)
	}
	if cfg.ArchiveRetentionDays, err = strconv.Atoi(get("ARCHIVE_RETENTION_DAYS", "30")); err != nil {
		return Config{}, fmt.Errorf("%sARCHIVE_RETENTION_DAYS: %w", prefix, err)
	}
	if cfg.MetricsEnabled, err = strconv.ParseBool(get("METRICS_ENABLED", "true")); err != nil {
		return Config{}, fmt.Errorf("%sMETRICS_ENABLED: %w", prefix, err)
	}
	if (cfg.AdminEmail == "") != (cfg.AdminPassword == "") {
		return Config{}, fmt.Errorf("%sADMIN_EMAIL and %sADMIN_PASSWORD must be set together", prefix, prefix)
	}
	if (cfg.VAPIDPublicKey == "") != (cfg.VAPIDPrivateKey == "") {
		return Config{}, fmt.Errorf("%sVAPID_PUBLIC_KEY and %sVAPID_PRIVATE_KEY must be set together", prefix, prefix)
	}
	return cfg, nil
}

func get(key, def string) string {
	if v, ok := os.LookupEnv(prefix + key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}
