package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/swappy/internal/server/ads"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() Config {
	var c Config
	c.LoadDefaults()
	return c
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()

	assert.Equal(t, ":8443", c.ListenAddr)
	assert.Equal(t, "redis", c.StoreBackend)
	assert.Equal(t, "redis://localhost:6379/0", c.RedisURL)
	assert.Equal(t, 30*time.Minute, c.InitDataMaxAge)
	assert.Equal(t, 7*24*time.Hour, c.EditTokenValidity)
	assert.Equal(t, "retain", c.AdRetention)
	assert.Equal(t, "info", c.LogLevel)
	assert.Empty(t, c.BotToken)
	assert.Empty(t, c.StarSalt)
}

// isolate points every loader at an empty environment.
func isolate(t *testing.T, args ...string) {
	t.Helper()
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = append([]string{"testbin"}, args...)

	origDotenv := dotenvFile
	t.Cleanup(func() { dotenvFile = origDotenv })
	dotenvFile = filepath.Join(t.TempDir(), "missing.env")

	t.Setenv("SWAPPY_CONFIG", "")
	for _, k := range []string{
		"BOT_TOKEN", "BOT_DOMAIN", "APP_DOMAIN", "BOT_MAINTAINER", "LISTEN_ADDR",
		"STORE_BACKEND", "REDIS_URL", "DATABASE_DSN", "INIT_DATA_MAX_AGE", "STAR_SALT",
		"EDIT_TOKEN_SECRET", "EDIT_TOKEN_VALIDITY", "AD_RETENTION", "WEBHOOK_SECRET", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadConfig_DefaultsOnly(t *testing.T) {
	isolate(t)

	c := LoadConfig()
	require.NotNil(t, c)
	assert.Empty(t, cmp.Diff(defaults(), *c))
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := writeTempJSON(t, "", "", map[string]any{
		"bot_token":         "json-token",
		"listen_addr":       ":9000",
		"redis_url":         "redis://json:6379/1",
		"init_data_max_age": "10m",
		"log_level":         "debug",
	})
	isolate(t, "-c", path, "-a", ":7000", "-i", "5")
	t.Setenv("BOT_TOKEN", "env-token")
	t.Setenv("BOT_MAINTAINER", "195125422")
	t.Setenv("LISTEN_ADDR", ":8000")
	t.Setenv("EDIT_TOKEN_VALIDITY", "90m")

	c := LoadConfig()

	want := defaults()
	want.BotToken = "env-token"
	want.MaintainerID = 195125422
	want.ListenAddr = ":7000"
	want.RedisURL = "redis://json:6379/1"
	want.InitDataMaxAge = 5 * time.Minute
	want.EditTokenValidity = 90 * time.Minute
	want.LogLevel = "debug"

	assert.Empty(t, cmp.Diff(want, *c))
}

func TestParseEnv_Dotenv(t *testing.T) {
	isolate(t)
	dotenvFile = filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(dotenvFile, []byte("STAR_SALT=from-dotenv\nAD_RETENTION=retract\n"), 0o600))
	t.Setenv("AD_RETENTION", "retain")
	t.Cleanup(func() { _ = os.Unsetenv("STAR_SALT") })

	c := defaults()
	parseEnv(&c)

	assert.Equal(t, "from-dotenv", c.StarSalt)
	assert.Equal(t, "retain", c.AdRetention, "process environment wins over .env")
}

func TestParseEnv_BadValuePanics(t *testing.T) {
	isolate(t)
	t.Setenv("BOT_MAINTAINER", "not-a-number")

	c := defaults()
	assert.Panics(t, func() { parseEnv(&c) })
}

func TestParseFlags(t *testing.T) {
	isolate(t,
		"-a", "127.0.0.1:9090", "-t", "tok", "-w", "https://bot.example.com",
		"-u", "https://app.example.com/form", "-m", "42", "-b", "postgres",
		"-r", "redis://r", "-d", "db", "-i", "15", "-e", "2", "-k", "retract", "-l", "warn",
		"-c", "ignored.json",
	)

	c := &Config{}
	require.NotPanics(t, func() { parseFlags(c) })

	want := &Config{
		ListenAddr:        "127.0.0.1:9090",
		BotToken:          "tok",
		BotDomain:         "https://bot.example.com",
		AppURL:            "https://app.example.com/form",
		MaintainerID:      42,
		StoreBackend:      "postgres",
		RedisURL:          "redis://r",
		DatabaseDSN:       "db",
		InitDataMaxAge:    15 * time.Minute,
		EditTokenValidity: 2 * time.Hour,
		AdRetention:       "retract",
		LogLevel:          "warn",
	}
	assert.Empty(t, cmp.Diff(want, c))
}

func TestParseFlags_KeepsUnsetDurations(t *testing.T) {
	isolate(t)

	c := &Config{InitDataMaxAge: 90 * time.Second}
	parseFlags(c)
	assert.Equal(t, 90*time.Second, c.InitDataMaxAge)
}

func TestParseFlags_BadValuePanics(t *testing.T) {
	isolate(t, "-m", "nope")

	require.Panics(t, func() { parseFlags(&Config{}) })
}

func valid() Config {
	c := defaults()
	c.BotToken = "123:abc"
	c.MaintainerID = 1
	c.BotDomain = "https://bot.example.com"
	c.AppURL = "https://app.example.com/index.html"
	return c
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"no token", func(c *Config) { c.BotToken = "" }, "bot token is not set"},
		{"no maintainer", func(c *Config) { c.MaintainerID = 0 }, "maintainer id is not set"},
		{"plain http app", func(c *Config) { c.AppURL = "http://app.example.com" }, "app url must be an absolute https url"},
		{"no domain", func(c *Config) { c.BotDomain = "" }, "bot domain is not set"},
		{"zero max age", func(c *Config) { c.InitDataMaxAge = 0 }, "init data max age must be positive"},
		{"bad retention", func(c *Config) { c.AdRetention = "sometimes" }, "unknown ad retention policy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStoreDSNAndRetention(t *testing.T) {
	c := valid()
	assert.Equal(t, c.RedisURL, c.StoreDSN())

	c.StoreBackend = "postgres"
	assert.Equal(t, c.DatabaseDSN, c.StoreDSN())

	c.AdRetention = "retract"
	p, err := c.Retention()
	require.NoError(t, err)
	assert.Equal(t, ads.RetractOnDelete, p)
}
