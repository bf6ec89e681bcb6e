package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("PORT", "")
		t.Setenv("JWT_SECRET", "")
		t.Setenv("JWT_EXPIRES_IN", "")
		t.Setenv("APP_TIMEZONE", "")
		t.Setenv("LOG_LEVEL", "")
		t.Setenv("CRON_ENABLED", "")

		cfg := Load()

		assert.Equal(t, "8000", cfg.Port)
		assert.Equal(t, devJWTSecret, cfg.JWTSecret)
		assert.Equal(t, 24*time.Hour, cfg.JWTExpiresIn)
		assert.Equal(t, time.UTC, cfg.Location)
		assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
		assert.True(t, cfg.CronEnabled)
	})

	t.Run("explicit values", func(t *testing.T) {
		t.Setenv("PORT", "9000")
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("JWT_EXPIRES_IN", "2h")
		t.Setenv("APP_TIMEZONE", "Asia/Kolkata")
		t.Setenv("LOG_LEVEL", "debug")
		t.Setenv("CRON_ENABLED", "false")
		t.Setenv("SMTP_PORT", "2525")

		cfg := Load()

		assert.Equal(t, "9000", cfg.Port)
		assert.Equal(t, "s3cret", cfg.JWTSecret)
		assert.Equal(t, 2*time.Hour, cfg.JWTExpiresIn)
		assert.Equal(t, "Asia/Kolkata", cfg.Location.String())
		assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
		assert.False(t, cfg.CronEnabled)
		assert.Equal(t, 2525, cfg.SMTP.Port)
	})

	t.Run("invalid values fall back", func(t *testing.T) {
		t.Setenv("JWT_EXPIRES_IN", "soon")
		t.Setenv("APP_TIMEZONE", "Mars/Olympus")
		t.Setenv("SMTP_PORT", "abc")

		cfg := Load()

		assert.Equal(t, 24*time.Hour, cfg.JWTExpiresIn)
		assert.Equal(t, time.UTC, cfg.Location)
		assert.Equal(t, 587, cfg.SMTP.Port)
	})
}
