package browser

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSessionConfig(t *testing.T) {
	cfg := DefaultSessionConfig()

	assert.True(t, cfg.Headless)
	assert.Equal(t, 60*time.Second, cfg.NavigationTimeout)
	assert.Equal(t, 1920, cfg.ViewportWidth)
	assert.Equal(t, 1080, cfg.ViewportHeight)
	assert.Equal(t, "es-ES", cfg.Locale)
	assert.Equal(t, "Europe/Madrid", cfg.TimezoneID)
	assert.Contains(t, cfg.LaunchArgs, "--disable-blink-features=AutomationControlled")
	assert.Equal(t, "es-ES,es;q=0.9,en;q=0.8", cfg.Headers["Accept-Language"])
	assert.NoError(t, cfg.Validate())
}

func TestSessionConfigWithersDoNotMutate(t *testing.T) {
	base := DefaultSessionConfig()
	argc := len(base.LaunchArgs)

	tracking := base.
		WithLaunchArgs("--disable-web-security").
		WithPreNavigationDelay(500*time.Millisecond, 1500*time.Millisecond).
		WithHeadless(false)

	assert.Len(t, base.LaunchArgs, argc)
	assert.True(t, base.Headless)
	assert.Equal(t, 2500*time.Millisecond, base.PreNavigationDelayMax)

	assert.Len(t, tracking.LaunchArgs, argc+1)
	assert.False(t, tracking.Headless)
	assert.Equal(t, 1500*time.Millisecond, tracking.PreNavigationDelayMax)

	tracking.Headers["X-Test"] = "1"
	_, leaked := base.Headers["X-Test"]
	assert.False(t, leaked)
}

func TestSessionConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SessionConfig)
	}{
		{"missing user agent", func(c *SessionConfig) { c.UserAgent = "" }},
		{"zero viewport", func(c *SessionConfig) { c.ViewportWidth = 0 }},
		{"zero navigation timeout", func(c *SessionConfig) { c.NavigationTimeout = 0 }},
		{"inverted delay", func(c *SessionConfig) { c.PreNavigationDelayMin = 3 * time.Second }},
		{"inverted scroll", func(c *SessionConfig) { c.ScrollMinPx = 900 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSessionConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestStealthScript(t *testing.T) {
	script := DefaultSessionConfig().StealthScript()

	assert.Contains(t, script, "'webdriver', { get: () => false }")
	assert.Contains(t, script, "[1, 2, 3, 4, 5]")
	assert.Contains(t, script, `["es-ES","es","en"]`)
}

func TestExtractionErrorUnwrap(t *testing.T) {
	err := error(&ExtractionError{URL: "https://es.aliexpress.com/item/1.html", Op: "navigate to", Err: context.DeadlineExceeded})

	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Contains(t, err.Error(), "failed to navigate to https://es.aliexpress.com/item/1.html")

	var target *ExtractionError
	require.True(t, errors.As(err, &target))
	assert.Equal(t, "navigate to", target.Op)
}

func TestNewManagerRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultSessionConfig()
	cfg.UserAgent = ""

	_, err := NewManager(cfg, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}

func TestAcquireHonorsCancelledContext(t *testing.T) {
	m, err := NewManager(DefaultSessionConfig(), nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := m.Acquire(ctx, "https://es.aliexpress.com/item/1.html")
	assert.Nil(t, s)

	var ee *ExtractionError
	require.True(t, errors.As(err, &ee))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, m.Close())
}
