package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, env map[string]string) (*Config, error) {
	t.Helper()
	v := viper.New()
	for k, val := range env {
		v.Set(k, val)
	}
	return fromViper(v)
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := load(t, nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, 168*time.Hour, cfg.Auth.RefreshTTL)
	assert.True(t, cfg.Auth.CookieSecure)
	assert.False(t, cfg.Auth.Disabled)
	assert.Equal(t, "log", cfg.Mail.Transport)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, 5*time.Second, cfg.Dedupe.Window)
	assert.Equal(t, 10000, cfg.Dedupe.MaxEntries)
	assert.Equal(t, []string{"*"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, "postgres://postgres:@localhost:5432/hr_portal?sslmode=disable", cfg.DB.DSN())

	assert.ErrorContains(t, cfg.Validate(), "JWT_SECRET")
}

func TestOverrides(t *testing.T) {
	t.Parallel()

	cfg, err := load(t, map[string]string{
		"JWT_SECRET":       "s3cret",
		"AUTH_DISABLED":    "true",
		"COOKIE_SECURE":    "false",
		"ACCESS_TOKEN_TTL": "5m",
		"KAFKA_BROKERS":    "k1:9092, k2:9092,",
		"DB_PASSWORD":      "p@ss/word",
		"AUTH_RATE_LIMIT":  "2.5",
		"MAIL_TRANSPORT":   "SMTP",
		"SMTP_HOST":        "smtp.local",
	})
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.True(t, cfg.Auth.Disabled)
	assert.False(t, cfg.Auth.CookieSecure)
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.InDelta(t, 2.5, cfg.Auth.RateLimit, 0.001)
	assert.Equal(t, "smtp", cfg.Mail.Transport)
	assert.Contains(t, cfg.DB.DSN(), "p%40ss%2Fword")
}

func TestDatabaseURLWins(t *testing.T) {
	t.Parallel()

	cfg, err := load(t, map[string]string{"DATABASE_URL": "postgres://u:p@db:5432/x", "DB_HOST": "ignored"})
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.DB.DSN())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "bad driver", env: map[string]string{"JWT_SECRET": "x", "DB_DRIVER": "mysql"}, want: "DB_DRIVER"},
		{name: "sqlite needs url", env: map[string]string{"JWT_SECRET": "x", "DB_DRIVER": "sqlite"}, want: "DATABASE_URL"},
		{name: "smtp needs host", env: map[string]string{"JWT_SECRET": "x", "MAIL_TRANSPORT": "smtp"}, want: "SMTP_HOST"},
		{name: "unknown transport", env: map[string]string{"JWT_SECRET": "x", "MAIL_TRANSPORT": "pigeon"}, want: "MAIL_TRANSPORT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := load(t, tt.env)
			require.NoError(t, err)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}

	_, err := load(t, map[string]string{"REFRESH_TOKEN_TTL": "a week"})
	assert.ErrorContains(t, err, "REFRESH_TOKEN_TTL")
}

func TestCSV(t *testing.T) {
	t.Parallel()

	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a", "b"}, CSV(" a ,,b "))
}
