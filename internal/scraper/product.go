package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maltedev/aliexpress-scraper/internal/dom"
	"github.com/maltedev/aliexpress-scraper/internal/extract"
	"github.com/maltedev/aliexpress-scraper/internal/metrics"
	"github.com/maltedev/aliexpress-scraper/internal/models"
	"github.com/maltedev/aliexpress-scraper/internal/normalize"
	"github.com/maltedev/aliexpress-scraper/internal/reconcile"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/maltedev/aliexpress-scraper/internal/scraper"

// DefaultAnchorWait is the extra wait when neither the title nor the price
// has rendered after humanization.
const DefaultAnchorWait = 5 * time.Second

type ProductAdapter struct {
	open       Launcher
	assets     Downloader
	publisher  ProductPublisher
	sink       extract.Sink
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
	now        func() time.Time
	anchorWait time.Duration
}

func NewProductAdapter(open Launcher, assets Downloader, m *metrics.Metrics, logger *slog.Logger) *ProductAdapter {
	logger = logger.With("component", "product_adapter")
	return &ProductAdapter{
		open:       open,
		assets:     assets,
		sink:       extract.MultiSink{extract.NewLogSink(logger), m},
		metrics:    m,
		logger:     logger,
		tracer:     otel.Tracer(tracerName),
		now:        time.Now,
		anchorWait: DefaultAnchorWait,
	}
}

// SetPublisher makes successful scrapes emit a PRODUCT_SCRAPED event.
func (a *ProductAdapter) SetPublisher(p ProductPublisher) {
	a.publisher = p
}

// Scrape loads one product page and returns its validated record with images
// stored locally and variant swatches pointing at the stored copies.
func (a *ProductAdapter) Scrape(ctx context.Context, url string) (rec *models.ProductRecord, err error) {
	start := a.now()
	ctx, span := a.tracer.Start(ctx, "ProductAdapter.Scrape", trace.WithAttributes(attribute.String("url.full", url)))
	defer func() {
		a.metrics.ObserveAdapter("product", err, time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	a.logger.Info("scraping product", "url", url)

	raw, err := a.extract(ctx, url)
	if err != nil {
		return nil, err
	}

	rec, err = normalize.Product(*raw, start)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize product %s: %w", url, err)
	}

	remote := rec.Images
	stored := a.assets.DownloadAll(ctx, remote, rec.ExternalID)

	rec.Images = make([]string, 0, len(stored))
	for _, asset := range stored {
		if asset != nil {
			rec.Images = append(rec.Images, asset.PublicURL)
		}
	}
	rec.Variants = reconcile.Variants(rec.Variants, reconcile.NewLookup(remote, stored))

	span.SetAttributes(
		attribute.String("product.external_id", rec.ExternalID),
		attribute.Int("product.images", len(rec.Images)),
		attribute.Int("product.variant_groups", len(rec.Variants)),
	)
	a.logger.Info("product scraped",
		"externalId", rec.ExternalID,
		"basePrice", rec.BasePrice,
		"images", len(rec.Images),
		"imagesFound", len(remote),
		"variantGroups", len(rec.Variants))

	if a.publisher != nil {
		if err := a.publisher.PublishProductScraped(ctx, rec); err != nil {
			a.logger.Error("failed to publish product event", "externalId", rec.ExternalID, "error", err)
		}
	}
	return rec, nil
}

// extract drives the session and reads every field. The session is released
// before returning so downloads do not hold a browser open.
func (a *ProductAdapter) extract(ctx context.Context, url string) (*normalize.RawProduct, error) {
	sess, err := a.open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer release(sess, a.logger)

	if err := sess.Navigate(ctx); err != nil {
		return nil, err
	}
	if err := sess.Humanize(ctx); err != nil {
		return nil, fmt.Errorf("failed to humanize %s: %w", url, err)
	}

	root := sess.Root()
	hasTitle, hasPrice := extract.PageAnchors(root)
	a.logger.Debug("page anchors", "title", hasTitle, "price", hasPrice)
	if !hasTitle && !hasPrice {
		a.logger.Warn("product anchors missing, waiting longer", "url", url, "wait", a.anchorWait)
		if err := sess.Pause(ctx, a.anchorWait); err != nil {
			return nil, fmt.Errorf("failed waiting for %s: %w", url, err)
		}
	}

	return ReadProduct(root, url, a.sink), nil
}

// ReadProduct runs every product extractor against root. It works on live
// pages and static snapshots alike.
func ReadProduct(root dom.Node, url string, sink extract.Sink) *normalize.RawProduct {
	return &normalize.RawProduct{
		Title:          extract.Title(root, sink),
		Specifications: extract.Specifications(root, sink),
		Price:          extract.Price(root, sink),
		Images:         extract.Images(root, sink),
		Shipping:       extract.Shipping(root, sink),
		Variants:       extract.Variants(root, sink),
		Seller:         extract.Seller(root, sink),
		SourceURL:      url,
	}
}
