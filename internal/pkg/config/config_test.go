package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s3cret",
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "whisperbox", cfg.Mongo.Database)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "log", cfg.Mail.Provider)
	assert.False(t, cfg.Moderation.Enabled)
	assert.False(t, cfg.Moderation.FailOpen)
	assert.Equal(t, "20-M", cfg.RateLimit.Auth)
	assert.Equal(t, "30-M", cfg.RateLimit.Messages)
	assert.Equal(t, time.Minute, cfg.Reconcile.Interval)
	assert.Equal(t, 30*time.Second, cfg.Reconcile.Grace)
	assert.Equal(t, 4, cfg.Reconcile.Workers)
	assert.False(t, cfg.IsProduction())
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"ENV":                "production",
		"JWT_SECRET":         "s3cret",
		"JWT_TTL":            "1h",
		"MAIL_PROVIDER":      "resend",
		"MAIL_API_KEY":       "re_123",
		"MODERATION_ENABLED": "true",
		"MODERATION_API_KEY": "mod-key",
		"RECONCILE_INTERVAL": "0s",
		"REDIS_PASSWORD":     "pw",
	}))
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, "resend", cfg.Mail.Provider)
	assert.True(t, cfg.Moderation.Enabled)
	assert.Zero(t, cfg.Reconcile.Interval)
	assert.Equal(t, "pw", cfg.Redis.Password)
}

func TestLoadWith_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing jwt secret", map[string]string{}, "JWT_SECRET is required"},
		{"resend without key", map[string]string{"JWT_SECRET": "x", "MODERATION_ENABLED": "false", "MAIL_PROVIDER": "resend"}, "MAIL_API_KEY"},
		{"unknown provider", map[string]string{"JWT_SECRET": "x", "MODERATION_ENABLED": "false", "MAIL_PROVIDER": "smtp"}, "unknown MAIL_PROVIDER"},
		{"moderation without key", map[string]string{"JWT_SECRET": "x", "MODERATION_ENABLED": "true"}, "MODERATION_API_KEY"},
		{"zero workers", map[string]string{"JWT_SECRET": "x", "MODERATION_ENABLED": "false", "RECONCILE_WORKERS": "0"}, "RECONCILE_WORKERS"},
		{"bad duration", map[string]string{"JWT_SECRET": "x", "JWT_TTL": "soon"}, "invalid duration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadWith(context.Background(), envconfig.MapLookuper(tt.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
