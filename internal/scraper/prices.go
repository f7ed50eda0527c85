package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maltedev/aliexpress-scraper/internal/extract"
	"github.com/maltedev/aliexpress-scraper/internal/metrics"
	"github.com/maltedev/aliexpress-scraper/internal/models"
	"github.com/maltedev/aliexpress-scraper/internal/normalize"
	"github.com/maltedev/aliexpress-scraper/internal/ratelimit"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// PriceUpdater re-reads price and delivery window for known products, one
// browser session per product, strictly one after another.
type PriceUpdater struct {
	open      Launcher
	limiter   ratelimit.RateLimiter
	publisher PricePublisher
	sink      extract.Sink
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
}

func NewPriceUpdater(open Launcher, m *metrics.Metrics, logger *slog.Logger) *PriceUpdater {
	logger = logger.With("component", "price_updater")
	return &PriceUpdater{
		open:    open,
		sink:    extract.MultiSink{extract.NewLogSink(logger), m},
		metrics: m,
		logger:  logger,
		tracer:  otel.Tracer(tracerName),
	}
}

// SetRateLimiter spaces consecutive items. Without one, items run back to back.
func (u *PriceUpdater) SetRateLimiter(l ratelimit.RateLimiter) {
	u.limiter = l
}

func (u *PriceUpdater) SetPublisher(p PricePublisher) {
	u.publisher = p
}

// Update processes items in order and always returns one result per item.
// A failed item is reported in its result and never aborts the batch.
func (u *PriceUpdater) Update(ctx context.Context, items []models.PriceUpdateItem) []models.PriceUpdateResult {
	start := time.Now()
	ctx, span := u.tracer.Start(ctx, "PriceUpdater.Update", trace.WithAttributes(attribute.Int("batch.size", len(items))))
	defer span.End()

	u.logger.Info("updating prices", "items", len(items))

	results := make([]models.PriceUpdateResult, 0, len(items))
	failed := 0
	for i, item := range items {
		if i > 0 && u.limiter != nil {
			if err := u.limiter.Wait(ctx); err != nil {
				u.logger.Warn("rate limiter wait interrupted", "error", err)
			}
		}

		update, err := u.updateOne(ctx, item)
		u.metrics.IncPriceItem(err == nil)
		u.recordOutcome(err)

		if err != nil {
			failed++
			u.logger.Error("price update failed", "productId", item.ProductID, "url", item.URL, "error", err)
			results = append(results, models.PriceUpdateResult{
				ProductID: item.ProductID,
				Success:   false,
				Error:     err.Error(),
			})
			continue
		}

		u.logger.Info("price updated",
			"productId", item.ProductID,
			"basePrice", update.BasePrice,
			"originalPrice", update.OriginalPrice,
			"discount", update.Discount)
		results = append(results, models.PriceUpdateResult{
			ProductID:   item.ProductID,
			Success:     true,
			PriceUpdate: update,
		})
	}

	if failed > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d of %d items failed", failed, len(items)))
	}
	u.logger.Info("price batch finished", "items", len(items), "failed", failed, "duration", time.Since(start))

	if u.publisher != nil {
		if err := u.publisher.PublishPricesUpdated(ctx, results); err != nil {
			u.logger.Error("failed to publish price event", "error", err)
		}
	}
	return results
}

func (u *PriceUpdater) updateOne(ctx context.Context, item models.PriceUpdateItem) (update *models.PriceUpdate, err error) {
	start := time.Now()
	defer func() { u.metrics.ObserveAdapter("price_update", err, time.Since(start)) }()

	sess, err := u.open(ctx, item.URL)
	if err != nil {
		return nil, err
	}
	defer release(sess, u.logger)

	if err := sess.Navigate(ctx); err != nil {
		return nil, err
	}
	if err := sess.Humanize(ctx); err != nil {
		return nil, fmt.Errorf("failed to humanize %s: %w", item.URL, err)
	}

	root := sess.Root()
	price := extract.Price(root, u.sink)
	shipping := extract.Shipping(root, u.sink)

	update, err = normalize.PriceUpdate(price, shipping)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize price for %s: %w", item.URL, err)
	}
	return update, nil
}

func (u *PriceUpdater) recordOutcome(err error) {
	adaptive, ok := u.limiter.(*ratelimit.AdaptiveRateLimiter)
	if !ok {
		return
	}
	if err != nil {
		adaptive.RecordError()
		return
	}
	adaptive.RecordSuccess()
}
