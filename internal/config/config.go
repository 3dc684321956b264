package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // APP_TIMEZONE must resolve on hosts without a zoneinfo database

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName     string
	AppEnv      string
	AppURL      string
	Port        string
	AppTimezone string
	Location    *time.Location

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret    string
	JWTExpiry    time.Duration
	SupportGroup string // members may use the desk besides superusers

	// Attachments
	MaxAttachmentMB  int
	AllowedMimeTypes []string // empty = any type

	// Storage: "local" or "s3" (S3-compatible: MinIO, AWS S3, Cloudflare R2, etc.)
	StorageDriver string
	StoragePath   string
	S3Region      string
	S3Bucket      string
	S3AccessKey   string
	S3SecretKey   string
	S3Endpoint    string // Optional: for S3-compatible services (MinIO, DO Spaces, R2, etc.)

	// Observability (optional)
	SentryDSN string
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName:     envString("APP_NAME", "Feedback Desk"),
		AppEnv:      envRequired("APP_ENV"), // Required: 'development' or 'production'
		AppURL:      envString("APP_URL", "http://localhost:8090"),
		Port:        envString("PORT", "8090"),
		AppTimezone: envString("APP_TIMEZONE", "America/Fortaleza"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/feedback.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(20000)"),

		// Security
		JWTSecret:    envRequired("JWT_SECRET"),
		JWTExpiry:    envDuration("JWT_EXPIRY", 1*time.Hour),
		SupportGroup: envString("SUPPORT_GROUP", "Suporte"),

		// Attachments
		MaxAttachmentMB:  envInt("MAX_ATTACHMENT_MB", 10),
		AllowedMimeTypes: envList("ALLOWED_MIME_TYPES"),

		// Storage
		StorageDriver: envString("STORAGE_DRIVER", "local"),
		StoragePath:   envString("STORAGE_PATH", "./data/media"),
		S3Region:      envString("S3_REGION", ""),
		S3Bucket:      envString("S3_BUCKET", ""),
		S3AccessKey:   envString("S3_ACCESS_KEY", ""),
		S3SecretKey:   envString("S3_SECRET_KEY", ""),
		S3Endpoint:    envString("S3_ENDPOINT", ""),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),
	}

	loc, err := time.LoadLocation(cfg.AppTimezone)
	if err != nil {
		slog.Error("config invalid timezone", "key", "APP_TIMEZONE", "value", cfg.AppTimezone, "error", err)
		os.Exit(1)
	}
	cfg.Location = loc

	if cfg.StorageDriver == "s3" {
		validateS3(cfg)
	}

	return cfg
}

// validateS3 ensures the bucket settings are present when S3 storage is selected.
func validateS3(cfg *Config) {
	if cfg.S3Region == "" || cfg.S3Bucket == "" {
		slog.Error("s3 storage requires S3_REGION and S3_BUCKET",
			"hint", "set STORAGE_DRIVER=local to keep attachments on disk")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

// envList splits a comma separated value, dropping blanks.
func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) MaxAttachmentBytes() int64 {
	return int64(c.MaxAttachmentMB) << 20
}

// Sanitized returns a copy of the config with only public/safe fields.
// Safe to expose in ctx and templates.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:     c.AppName,
		AppEnv:      c.AppEnv,
		AppURL:      c.AppURL,
		Port:        c.Port,
		AppTimezone: c.AppTimezone,
		Location:    c.Location,

		MaxAttachmentMB: c.MaxAttachmentMB,
	}
}
