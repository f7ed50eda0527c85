package scraper

import (
	"context"
	"log/slog"
	"time"

	"github.com/maltedev/aliexpress-scraper/internal/browser"
	"github.com/maltedev/aliexpress-scraper/internal/dom"
	"github.com/maltedev/aliexpress-scraper/internal/models"
)

// Session is the part of a browser session the adapters drive.
type Session interface {
	Navigate(ctx context.Context) error
	Humanize(ctx context.Context) error
	Pause(ctx context.Context, d time.Duration) error
	ClickFirst(selectors []string, timeout time.Duration) (string, bool)
	WaitVisible(selector string, timeout time.Duration) error
	Root() dom.Node
	Content() (string, error)
	Release() error
}

// Launcher opens a fresh session for one target URL.
type Launcher func(ctx context.Context, targetURL string) (Session, error)

// FromManager adapts a browser manager to a Launcher.
func FromManager(m *browser.Manager) Launcher {
	return func(ctx context.Context, targetURL string) (Session, error) {
		s, err := m.Acquire(ctx, targetURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Downloader stores remote images locally.
type Downloader interface {
	DownloadAll(ctx context.Context, urls []string, ownerID string) []*models.ImageAsset
}

type ProductPublisher interface {
	PublishProductScraped(ctx context.Context, rec *models.ProductRecord) error
}

type PricePublisher interface {
	PublishPricesUpdated(ctx context.Context, results []models.PriceUpdateResult) error
}

type TrackingPublisher interface {
	PublishTrackingUpdated(ctx context.Context, rec *models.TrackingRecord) error
}

// release tears a session down and logs, never returns, close errors.
func release(s Session, logger *slog.Logger) {
	if err := s.Release(); err != nil {
		logger.Warn("failed to release session", "error", err)
	}
}

// PriceSessionConfig shortens the pre-navigation delay for batch price reads.
func PriceSessionConfig(base browser.SessionConfig) browser.SessionConfig {
	return base.WithPreNavigationDelay(500*time.Millisecond, 1500*time.Millisecond)
}

// TrackingSessionConfig relaxes origin isolation so the consent frame on the
// tracking site can be clicked.
func TrackingSessionConfig(base browser.SessionConfig) browser.SessionConfig {
	return base.WithLaunchArgs("--disable-web-security", "--disable-features=IsolateOrigins,site-per-process")
}
