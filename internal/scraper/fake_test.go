package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/maltedev/aliexpress-scraper/internal/browser"
	"github.com/maltedev/aliexpress-scraper/internal/dom"
	"github.com/maltedev/aliexpress-scraper/internal/models"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSession serves a static HTML page and records what the adapter did.
type fakeSession struct {
	t           *testing.T
	html        string
	navErr      error
	clickable   map[string]bool
	invisible   map[string]bool
	pauses      []time.Duration
	clicked     string
	waited      []string
	released    int
	navigations int
	humanized   int
}

func (s *fakeSession) Navigate(ctx context.Context) error {
	s.navigations++
	return s.navErr
}

func (s *fakeSession) Humanize(ctx context.Context) error {
	s.humanized++
	return nil
}

func (s *fakeSession) Pause(ctx context.Context, d time.Duration) error {
	s.pauses = append(s.pauses, d)
	return nil
}

func (s *fakeSession) ClickFirst(selectors []string, timeout time.Duration) (string, bool) {
	for _, sel := range selectors {
		if s.clickable[sel] {
			s.clicked = sel
			return sel, true
		}
	}
	return "", false
}

func (s *fakeSession) WaitVisible(selector string, timeout time.Duration) error {
	s.waited = append(s.waited, selector)
	if s.invisible[selector] {
		return fmt.Errorf("timeout %s", timeout)
	}
	return nil
}

func (s *fakeSession) Root() dom.Node {
	root, err := dom.ParseString(s.html)
	require.NoError(s.t, err)
	return root
}

func (s *fakeSession) Content() (string, error) { return s.html, nil }

func (s *fakeSession) Release() error {
	s.released++
	return nil
}

// fakeLauncher hands out pre-built sessions keyed by URL.
type fakeLauncher struct {
	mu        sync.Mutex
	sessions  map[string]*fakeSession
	launchErr map[string]error
	opened    []string
}

func (l *fakeLauncher) Launch(ctx context.Context, targetURL string) (Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.opened = append(l.opened, targetURL)
	if err := l.launchErr[targetURL]; err != nil {
		return nil, &browser.ExtractionError{URL: targetURL, Op: "launch browser for", Err: err}
	}
	s, ok := l.sessions[targetURL]
	if !ok {
		return nil, fmt.Errorf("no session for %s", targetURL)
	}
	return s, nil
}

type fakeDownloader struct {
	calls  int
	owner  string
	failAt map[int]bool
}

func (d *fakeDownloader) DownloadAll(ctx context.Context, urls []string, ownerID string) []*models.ImageAsset {
	d.calls++
	d.owner = ownerID
	out := make([]*models.ImageAsset, len(urls))
	for i, u := range urls {
		if d.failAt[i] {
			continue
		}
		name := fmt.Sprintf("%s_%d_abcd1234.jpg", ownerID, i)
		out[i] = &models.ImageAsset{
			OriginalURL: u,
			Filename:    name,
			LocalPath:   "uploads/products/" + name,
			PublicURL:   "/uploads/products/" + name,
		}
	}
	return out
}

type recordingPublisher struct {
	products []*models.ProductRecord
	prices   [][]models.PriceUpdateResult
	tracking []*models.TrackingRecord
}

func (p *recordingPublisher) PublishProductScraped(ctx context.Context, rec *models.ProductRecord) error {
	p.products = append(p.products, rec)
	return nil
}

func (p *recordingPublisher) PublishPricesUpdated(ctx context.Context, results []models.PriceUpdateResult) error {
	p.prices = append(p.prices, results)
	return nil
}

func (p *recordingPublisher) PublishTrackingUpdated(ctx context.Context, rec *models.TrackingRecord) error {
	p.tracking = append(p.tracking, rec)
	return nil
}

const productHTML = `<html><body>
<h1 data-pl="product-title">Lámpara de escritorio LED regulable</h1>
<div class="store-detail--storeName--Lk2FVZ4">Luz Store</div>
<span class="price-default--current--F8OlYIo">19,99€</span>
<span class="price-default--original--CWcHOit">29,99€</span>
<div class="slider--img--kD4mIg7"><img src="https://ae01.alicdn.com/kf/Swhite.jpg_220x220.jpg"></div>
<div class="slider--img--kD4mIg7"><img src="https://ae01.alicdn.com/kf/Sblack.png"></div>
<div class="sku-item--property--HuasaIz">
  <div class="sku-item--title--Z0HLO87">Color:</div>
  <div class="sku-item--skus--StEhULs">
    <div data-sku-col="1-1"><img src="https://ae01.alicdn.com/kf/Swhite.jpg_50x50.jpg" alt="Blanco"></div>
    <div data-sku-col="1-2"><img src="https://ae01.alicdn.com/kf/Sgreen.jpg_50x50.jpg" alt="Verde"></div>
  </div>
</div>
<div class="dynamic-shipping-line">Entrega: 10 - 20 de dic.</div>
</body></html>`

const pricelessHTML = `<html><body><h1>Página no disponible ahora</h1></body></html>`

const trackingHTML = `<html><body>
<div id="parcel-status-info">
  <div class="package-status-header">En tránsito</div>
  <div class="package-status-info-code">LP00123456789012</div>
  <div class="package-status-info-box">El paquete está   en camino</div>
</div>
<ul class="package-info-list">
  <li><div class="package-info-list-title">Servicio de entrega</div>
      <div class="package-info-list-content"><a href="/couriers/cainiao">Cainiao</a></div></li>
</ul>
<div class="package-info-delivery-days-value">12 días</div>
<div class="package-timeline__item package-timeline__item--active">
  <div class="package-timeline__time">18.10.2026 09:12</div>
  <div class="package-timeline__title">Llegó al centro de clasificación</div>
</div>
</body></html>`
