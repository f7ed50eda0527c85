package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, "es-ES", cfg.Browser.Locale)
	assert.Equal(t, 60*time.Second, cfg.Browser.NavigationTimeout)
	assert.Equal(t, "uploads", cfg.Assets.Dir)
	assert.Equal(t, "/uploads", cfg.Assets.PublicPrefix)
	assert.Equal(t, 5, cfg.Assets.BatchSize)
	assert.Equal(t, 15*time.Second, cfg.Assets.Timeout)
	assert.Equal(t, 256, cfg.Tracking.CacheSize)
	assert.False(t, cfg.Database.Enabled)
	assert.Empty(t, cfg.Telemetry.TraceEndpoint)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("BROWSER_HEADLESS", "false")
	t.Setenv("BROWSER_PROXY", "http://proxy:3128")
	t.Setenv("ASSETS_BATCH_SIZE", "3")
	t.Setenv("PRICES_ITEM_DELAY_MIN", "1s")
	t.Setenv("PRICES_ITEM_DELAY_MAX", "3s")
	t.Setenv("SERVER_ALLOWED_ORIGINS", "https://admin.example, https://shop.example")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.Addr())
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 3, cfg.Assets.BatchSize)
	assert.Equal(t, time.Second, cfg.Prices.ItemDelayMin)
	assert.Equal(t, []string{"https://admin.example", "https://shop.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())

	sc := cfg.SessionConfig()
	assert.False(t, sc.Headless)
	assert.Equal(t, "http://proxy:3128", sc.ProxyServer)
	assert.NoError(t, sc.Validate())
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("SERVER_PORT", "eighty")
	t.Setenv("ASSETS_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Assets.Timeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "SERVER_PORT"},
		{"zero batch", func(c *Config) { c.Assets.BatchSize = 0 }, "ASSETS_BATCH_SIZE"},
		{"empty assets dir", func(c *Config) { c.Assets.Dir = " " }, "ASSETS_DIR"},
		{"inverted delay", func(c *Config) { c.Prices.ItemDelayMin = time.Minute }, "PRICES_ITEM_DELAY_MIN"},
		{"db without name", func(c *Config) { c.Database.Enabled = true; c.Database.Name = "" }, "DB_NAME"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)

			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestLogLevelFallsBackToInfo(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{Level: "verbose"}}
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel())
}

func TestDatabaseConfig(t *testing.T) {
	t.Setenv("DB_NAME", "shop")
	t.Setenv("DB_MAX_CONNS", "4")

	cfg, err := Load()
	require.NoError(t, err)

	dbc := cfg.DatabaseConfig()
	assert.Equal(t, "shop", dbc.Database)
	assert.Equal(t, int32(4), dbc.MaxConns)
}
