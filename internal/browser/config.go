package browser

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"
)

// SessionConfig is the fingerprint and pacing of every session a Manager
// opens. It is a value: the With* methods return modified copies.
type SessionConfig struct {
	Headless       bool
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	Locale         string
	TimezoneID     string
	Languages      []string
	Headers        map[string]string
	LaunchArgs     []string
	ProxyServer    string

	NavigationTimeout time.Duration
	ReadTimeout       time.Duration

	PreNavigationDelayMin time.Duration
	PreNavigationDelayMax time.Duration
	// SettleDelay is waited after load, before the first scroll.
	SettleDelay  time.Duration
	ScrollMinPx  int
	ScrollMaxPx  int
	ScrollPauses []time.Duration
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Headless:       true,
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		Locale:         "es-ES",
		TimezoneID:     "Europe/Madrid",
		Languages:      []string{"es-ES", "es", "en"},
		Headers: map[string]string{
			"Accept-Language":           "es-ES,es;q=0.9,en;q=0.8",
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
			"Referer":                   "https://www.google.com/",
			"Sec-Fetch-Dest":            "document",
			"Sec-Fetch-Mode":            "navigate",
			"Sec-Fetch-Site":            "cross-site",
			"Upgrade-Insecure-Requests": "1",
		},
		LaunchArgs: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
			"--disable-setuid-sandbox",
			"--window-size=1920,1080",
		},
		NavigationTimeout:     60 * time.Second,
		ReadTimeout:           5 * time.Second,
		PreNavigationDelayMin: 500 * time.Millisecond,
		PreNavigationDelayMax: 2500 * time.Millisecond,
		SettleDelay:           4 * time.Second,
		ScrollMinPx:           300,
		ScrollMaxPx:           800,
		ScrollPauses:          []time.Duration{1500 * time.Millisecond, 500 * time.Millisecond},
	}
}

func (c SessionConfig) clone() SessionConfig {
	c.Languages = slices.Clone(c.Languages)
	c.Headers = maps.Clone(c.Headers)
	c.LaunchArgs = slices.Clone(c.LaunchArgs)
	c.ScrollPauses = slices.Clone(c.ScrollPauses)
	return c
}

func (c SessionConfig) WithLaunchArgs(args ...string) SessionConfig {
	out := c.clone()
	out.LaunchArgs = append(out.LaunchArgs, args...)
	return out
}

func (c SessionConfig) WithPreNavigationDelay(min, max time.Duration) SessionConfig {
	out := c.clone()
	out.PreNavigationDelayMin, out.PreNavigationDelayMax = min, max
	return out
}

func (c SessionConfig) WithHeadless(headless bool) SessionConfig {
	out := c.clone()
	out.Headless = headless
	return out
}

func (c SessionConfig) Validate() error {
	switch {
	case c.UserAgent == "":
		return fmt.Errorf("user agent is required")
	case c.ViewportWidth <= 0 || c.ViewportHeight <= 0:
		return fmt.Errorf("invalid viewport %dx%d", c.ViewportWidth, c.ViewportHeight)
	case c.NavigationTimeout <= 0:
		return fmt.Errorf("navigation timeout must be positive")
	case c.PreNavigationDelayMin > c.PreNavigationDelayMax:
		return fmt.Errorf("pre-navigation delay min %s exceeds max %s", c.PreNavigationDelayMin, c.PreNavigationDelayMax)
	case c.ScrollMinPx > c.ScrollMaxPx:
		return fmt.Errorf("scroll min %d exceeds max %d", c.ScrollMinPx, c.ScrollMaxPx)
	}
	return nil
}

// StealthScript overrides the navigator signals bot heuristics look at. It
// runs in every frame before any page script.
func (c SessionConfig) StealthScript() string {
	langs, _ := json.Marshal(c.Languages)
	return fmt.Sprintf(`Object.defineProperty(navigator, 'webdriver', { get: () => false });
Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
Object.defineProperty(navigator, 'languages', { get: () => %s });`, langs)
}
