package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultServerPort      = 8080
	defaultMaxParticipants = 4
	defaultSubmitLimit     = 5
	defaultSubmitWindow    = 10 * time.Minute
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL string
	ServerPort  int

	RegistrationOpen     bool
	RegistrationDeadline *time.Time
	MaxParticipants      int

	CORSAllowedOrigins []string
	TrustProxyHeaders  bool

	JWTSecretKey      string
	AdminEmail        string
	AdminPasswordHash string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string

	// ExportSchedule is a cron spec (UTC) for periodic exports to R2; empty
	// disables them.
	ExportSchedule string

	RedisURL         string
	SubmitRateLimit  int
	SubmitRateWindow time.Duration

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string
}

// AdminEnabled сообщает, настроен ли вход для организаторов.
func (c *Config) AdminEnabled() bool {
	return c.AdminEmail != "" && c.AdminPasswordHash != ""
}

// R2Enabled сообщает, заданы ли все параметры Cloudflare R2.
func (c *Config) R2Enabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicBaseURL != ""
}

func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		JWTSecretKey:      os.Getenv("JWT_SECRET_KEY"),
		AdminEmail:        strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
		ExportSchedule:    strings.TrimSpace(os.Getenv("EXPORT_SCHEDULE")),
		RedisURL:          os.Getenv("REDIS_URL"),
		SMTPHost:          os.Getenv("SMTP_HOST"),
		SMTPUser:          os.Getenv("SMTP_USER"),
		SMTPPass:          os.Getenv("SMTP_PASS"),
		SMTPFrom:          os.Getenv("SMTP_FROM"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	var err error
	if cfg.ServerPort, err = intFromEnv("SERVER_PORT", defaultServerPort); err != nil {
		return nil, err
	}
	if cfg.ServerPort <= 0 || cfg.ServerPort > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", cfg.ServerPort)
	}

	if cfg.RegistrationOpen, err = boolFromEnv("REGISTRATION_OPEN", false); err != nil {
		return nil, err
	}
	if deadline := os.Getenv("REGISTRATION_DEADLINE"); deadline != "" {
		t, err := time.Parse(time.RFC3339, deadline)
		if err != nil {
			return nil, fmt.Errorf("invalid REGISTRATION_DEADLINE environment variable (want RFC3339): %w", err)
		}
		cfg.RegistrationDeadline = &t
	}

	if cfg.MaxParticipants, err = intFromEnv("MAX_PARTICIPANTS", defaultMaxParticipants); err != nil {
		return nil, err
	}
	if cfg.MaxParticipants < 1 {
		return nil, fmt.Errorf("MAX_PARTICIPANTS must be at least 1, got %d", cfg.MaxParticipants)
	}

	cfg.CORSAllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"http://localhost:5173"}
	}

	if cfg.TrustProxyHeaders, err = boolFromEnv("TRUST_PROXY_HEADERS", false); err != nil {
		return nil, err
	}

	if cfg.AdminEnabled() && cfg.JWTSecretKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set (required when ADMIN_EMAIL is configured)")
	}

	if cfg.ExportSchedule != "" && !cfg.R2Enabled() {
		return nil, fmt.Errorf("EXPORT_SCHEDULE requires the R2_* environment variables")
	}

	if cfg.SubmitRateLimit, err = intFromEnv("SUBMIT_RATE_LIMIT", defaultSubmitLimit); err != nil {
		return nil, err
	}
	if cfg.SubmitRateLimit < 1 {
		return nil, fmt.Errorf("SUBMIT_RATE_LIMIT must be at least 1, got %d", cfg.SubmitRateLimit)
	}
	if cfg.SubmitRateWindow, err = durationFromEnv("SUBMIT_RATE_WINDOW", defaultSubmitWindow); err != nil {
		return nil, err
	}

	if cfg.SMTPPort, err = intFromEnv("SMTP_PORT", 587); err != nil {
		return nil, err
	}

	return cfg, nil
}

func intFromEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func boolFromEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func durationFromEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, v)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
