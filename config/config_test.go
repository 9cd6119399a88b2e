package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("JWT_COOKIES_SECRET", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "data.sqlite", cfg.Storage.DSN())
	assert.Equal(t, "dota2_notify", cfg.Storage.MongoDatabase)
	assert.Equal(t, "https://www.dotabuff.com", cfg.API.MatchDetailsURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout())
	assert.True(t, cfg.Checker.Enabled())
	assert.Equal(t, 5*time.Minute, cfg.Checker.Interval())
	assert.Equal(t, ":8080", cfg.Web.Addr)
	assert.False(t, cfg.Web.CookieSecure)
}

func TestLoad_FromEnvironment(t *testing.T) {
	setRequired(t)
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_DSN", "host=db user=bot dbname=dota2")
	t.Setenv("CHECKER_ENABLED", "false")
	t.Setenv("CHECKER_INTERVAL_MINUTES", "15")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "3")
	t.Setenv("PUBLIC_BASE_URL", "https://dota.example/")
	t.Setenv("COOKIE_SECURE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "host=db user=bot dbname=dota2", cfg.Storage.DSN())
	assert.False(t, cfg.Checker.Enabled())
	assert.Equal(t, 15*time.Minute, cfg.Checker.Interval())
	assert.Equal(t, 3*time.Second, cfg.API.Timeout())
	assert.Equal(t, "https://dota.example", cfg.Web.PublicBaseURL)
	assert.True(t, cfg.Web.CookieSecure)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("JWT_COOKIES_SECRET", "secret")

	_, err := Load()
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLoad_StorageValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown driver", env: map[string]string{"STORAGE_DRIVER": "oracle"}},
		{name: "postgres without dsn", env: map[string]string{"STORAGE_DRIVER": "postgres"}},
		{name: "mongo without uri", env: map[string]string{"STORAGE_DRIVER": "mongo"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			_, err := Load()
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestCheckerConfig_Enabled(t *testing.T) {
	assert.True(t, CheckerConfig{EnabledString: "true"}.Enabled())
	assert.True(t, CheckerConfig{EnabledString: "1"}.Enabled())
	assert.False(t, CheckerConfig{EnabledString: "0"}.Enabled())
	assert.True(t, CheckerConfig{EnabledString: "maybe"}.Enabled())
}
