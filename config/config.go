package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port           string
	DatabaseURL    string
	JWTSecret      string
	JWTExpiresIn   time.Duration
	RedisAddr      string
	RequestTimeout time.Duration
	Location       *time.Location
	LogLevel       slog.Level
	CronEnabled    bool

	SMTP       SMTPConfig
	Cloudinary CloudinaryConfig
}

// SMTPConfig is optional; an empty Host disables outgoing mail.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
}

// CloudinaryConfig is optional; an empty CloudName disables uploads.
type CloudinaryConfig struct {
	CloudName    string
	APIKey       string
	APISecret    string
	UploadPreset string
}

const devJWTSecret = "dev_only_secret_key"

// Load reads .env (when present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables directly")
	}

	cfg := &Config{
		Port:           GetEnv("PORT", "8000"),
		DatabaseURL:    GetEnv("DATABASE_URL"),
		JWTSecret:      GetEnv("JWT_SECRET"),
		JWTExpiresIn:   getDuration("JWT_EXPIRES_IN", 24*time.Hour),
		RedisAddr:      GetEnv("REDIS_ADDR"),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 5*time.Second),
		Location:       getLocation("APP_TIMEZONE"),
		LogLevel:       getLogLevel("LOG_LEVEL"),
		CronEnabled:    getBool("CRON_ENABLED", true),
		SMTP: SMTPConfig{
			Host:     GetEnv("SMTP_HOST"),
			Port:     getInt("SMTP_PORT", 587),
			User:     GetEnv("EMAIL_USER"),
			Password: GetEnv("EMAIL_PASS"),
		},
		Cloudinary: CloudinaryConfig{
			CloudName:    GetEnv("CLOUDINARY_CLOUD_NAME"),
			APIKey:       GetEnv("CLOUDINARY_API_KEY"),
			APISecret:    GetEnv("CLOUDINARY_API_SECRET"),
			UploadPreset: GetEnv("CLOUDINARY_UPLOAD_PRESET"),
		},
	}

	if cfg.JWTSecret == "" {
		slog.Warn("JWT_SECRET is not set, falling back to the development secret")
		cfg.JWTSecret = devJWTSecret
	}
	return cfg
}

// GetEnv returns the variable or the first default when it is unset or blank.
func GetEnv(key string, defaultValue ...string) string {
	value, _ := os.LookupEnv(key)
	value = strings.TrimSpace(value)
	if value == "" && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := GetEnv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("invalid duration, using default", "key", key, "value", raw, "default", def)
		return def
	}
	return d
}

func getInt(key string, def int) int {
	raw := GetEnv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("invalid integer, using default", "key", key, "value", raw, "default", def)
		return def
	}
	return n
}

func getBool(key string, def bool) bool {
	raw := GetEnv(key)
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return b
}

func getLocation(key string) *time.Location {
	name := GetEnv(key, "UTC")
	loc, err := time.LoadLocation(name)
	if err != nil {
		slog.Warn("unknown time zone, falling back to UTC", "key", key, "value", name)
		return time.UTC
	}
	return loc
}

func getLogLevel(key string) slog.Level {
	switch strings.ToLower(GetEnv(key, "info")) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
