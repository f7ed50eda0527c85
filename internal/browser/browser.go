package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/maltedev/aliexpress-scraper/internal/dom"
	"github.com/maltedev/aliexpress-scraper/internal/metrics"
	"github.com/maltedev/aliexpress-scraper/internal/ratelimit"
	"github.com/playwright-community/playwright-go"
)

// Manager opens isolated sessions: every Acquire launches its own browser,
// context and page. Only the playwright driver process is shared.
type Manager struct {
	cfg     SessionConfig
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu sync.Mutex
	pw *playwright.Playwright
}

func NewManager(cfg SessionConfig, m *metrics.Metrics, logger *slog.Logger) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session config: %w", err)
	}
	return &Manager{
		cfg:     cfg.clone(),
		logger:  logger.With("component", "browser"),
		metrics: m,
	}, nil
}

func (m *Manager) Config() SessionConfig {
	return m.cfg.clone()
}

func (m *Manager) driver() (*playwright.Playwright, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pw != nil {
		return m.pw, nil
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}
	m.pw = pw
	return pw, nil
}

// Close stops the shared driver. Sessions must be released first.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pw == nil {
		return nil
	}
	err := m.pw.Stop()
	m.pw = nil
	if err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	return nil
}

// Acquire launches a hardened session for targetURL. Failures are returned as
// *ExtractionError with any partially created resources already released.
func (m *Manager) Acquire(ctx context.Context, targetURL string) (*Session, error) {
	s, err := m.acquire(ctx, targetURL)
	m.metrics.SessionOpened(err)
	if err != nil {
		return nil, &ExtractionError{URL: targetURL, Op: "launch browser for", Err: err}
	}
	return s, nil
}

func (m *Manager) acquire(ctx context.Context, targetURL string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, err := m.driver()
	if err != nil {
		return nil, err
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(m.cfg.Headless),
		Args:     append(slices.Clone(m.cfg.LaunchArgs), "--user-agent="+m.cfg.UserAgent),
	}
	if m.cfg.ProxyServer != "" {
		launchOpts.Proxy = &playwright.Proxy{Server: m.cfg.ProxyServer}
	}

	b, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := b.NewContext(playwright.BrowserNewContextOptions{
		UserAgent:         playwright.String(m.cfg.UserAgent),
		AcceptDownloads:   playwright.Bool(false),
		JavaScriptEnabled: playwright.Bool(true),
		Locale:            playwright.String(m.cfg.Locale),
		TimezoneId:        playwright.String(m.cfg.TimezoneID),
		Viewport: &playwright.Size{
			Width:  m.cfg.ViewportWidth,
			Height: m.cfg.ViewportHeight,
		},
		ExtraHttpHeaders: m.cfg.Headers,
	})
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	if err := bctx.AddInitScript(playwright.Script{Content: playwright.String(m.cfg.StealthScript())}); err != nil {
		bctx.Close()
		b.Close()
		return nil, fmt.Errorf("failed to inject stealth script: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		b.Close()
		return nil, fmt.Errorf("failed to create new page: %w", err)
	}
	page.SetDefaultTimeout(float64(m.cfg.ReadTimeout.Milliseconds()))

	return &Session{
		browser:   b,
		context:   bctx,
		page:      page,
		cfg:       m.cfg,
		targetURL: targetURL,
		logger:    m.logger.With("url", targetURL),
		metrics:   m.metrics,
	}, nil
}

// Session is one browser, one context and one page, owned by a single request.
type Session struct {
	browser   playwright.Browser
	context   playwright.BrowserContext
	page      playwright.Page
	cfg       SessionConfig
	targetURL string
	logger    *slog.Logger
	metrics   *metrics.Metrics

	releaseOnce sync.Once
	releaseErr  error
}

func (s *Session) Page() playwright.Page {
	return s.page
}

func (s *Session) URL() string {
	return s.targetURL
}

// Root is the DOM query surface of the live page.
func (s *Session) Root() dom.Node {
	return dom.FromPage(s.page, s.cfg.ReadTimeout)
}

// Navigate waits a randomized pre-navigation delay, then loads the target URL
// until the network is idle.
func (s *Session) Navigate(ctx context.Context) error {
	if err := s.Pause(ctx, ratelimit.Jitter(s.cfg.PreNavigationDelayMin, s.cfg.PreNavigationDelayMax)); err != nil {
		return &ExtractionError{URL: s.targetURL, Op: "navigate to", Err: err}
	}

	s.logger.Info("navigating")
	_, err := s.page.Goto(s.targetURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(float64(s.cfg.NavigationTimeout.Milliseconds())),
	})
	if err != nil {
		return &ExtractionError{URL: s.targetURL, Op: "navigate to", Err: err}
	}
	return nil
}

// Humanize waits for the page to settle, then scrolls once or twice with pauses.
func (s *Session) Humanize(ctx context.Context) error {
	if err := s.Pause(ctx, s.cfg.SettleDelay); err != nil {
		return err
	}
	if len(s.cfg.ScrollPauses) == 0 {
		return nil
	}

	scrolls := 1 + rand.IntN(len(s.cfg.ScrollPauses))
	for i := 0; i < scrolls; i++ {
		if err := s.Scroll(s.cfg.ScrollMinPx, s.cfg.ScrollMaxPx); err != nil {
			s.logger.Debug("scroll failed", "error", err)
		}
		if err := s.Pause(ctx, s.cfg.ScrollPauses[i]); err != nil {
			return err
		}
	}
	return nil
}

// Scroll moves the viewport down by a random amount in [minPx, maxPx).
func (s *Session) Scroll(minPx, maxPx int) error {
	px := minPx
	if maxPx > minPx {
		px += rand.IntN(maxPx - minPx)
	}
	if _, err := s.page.Evaluate(fmt.Sprintf("window.scrollBy(0, %d)", px)); err != nil {
		return fmt.Errorf("failed to scroll: %w", err)
	}
	return nil
}

func (s *Session) Pause(ctx context.Context, d time.Duration) error {
	return ratelimit.Sleep(ctx, d)
}

// ClickFirst clicks the first element of the first selector that matches
// anything and reports which selector it used.
func (s *Session) ClickFirst(selectors []string, timeout time.Duration) (string, bool) {
	for _, selector := range selectors {
		loc := s.page.Locator(selector)
		count, err := loc.Count()
		if err != nil || count == 0 {
			continue
		}

		if err := loc.First().Click(playwright.LocatorClickOptions{
			Timeout: playwright.Float(float64(timeout.Milliseconds())),
		}); err != nil {
			s.logger.Debug("click failed", "selector", selector, "error", err)
			continue
		}
		return selector, true
	}
	return "", false
}

// WaitVisible blocks until the first element matching selector is visible.
func (s *Session) WaitVisible(selector string, timeout time.Duration) error {
	err := s.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("failed waiting for %s: %w", selector, err)
	}
	return nil
}

// Content returns the rendered HTML, for snapshots.
func (s *Session) Content() (string, error) {
	html, err := s.page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	return html, nil
}

// Release closes the page, context and browser. It is safe to call more than once.
func (s *Session) Release() error {
	s.releaseOnce.Do(func() {
		var errs []error

		if s.page != nil {
			if err := s.page.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close page: %w", err))
			}
		}
		if s.context != nil {
			if err := s.context.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close context: %w", err))
			}
		}
		if s.browser != nil {
			if err := s.browser.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
			}
		}

		s.metrics.SessionClosed()
		s.releaseErr = errors.Join(errs...)
		if s.releaseErr != nil {
			s.logger.Warn("session released with errors", "error", s.releaseErr)
		}
	})
	return s.releaseErr
}
