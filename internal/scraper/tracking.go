package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/maltedev/aliexpress-scraper/internal/extract"
	"github.com/maltedev/aliexpress-scraper/internal/metrics"
	"github.com/maltedev/aliexpress-scraper/internal/models"
	"github.com/maltedev/aliexpress-scraper/internal/normalize"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const TrackingBaseURL = "https://pkge.net/parcel/"

var consentSelectors = []string{
	`button.fc-button.fc-cta-consent`,
	`button:has-text("Consent")`,
	`.fc-button`,
	`[class*="consent"] button`,
}

// Content that must be visible before the tracking page is read.
var trackingReadySelectors = []string{
	`#parcel-status-info`,
	`.package-timeline__item`,
}

// TrackingTimings are the fixed waits of the tracking flow.
type TrackingTimings struct {
	ConsentClick   time.Duration
	AfterConsent   time.Duration
	WithoutConsent time.Duration
	ReadyTimeout   time.Duration
	BeforeRead     time.Duration
}

func DefaultTrackingTimings() TrackingTimings {
	return TrackingTimings{
		ConsentClick:   5 * time.Second,
		AfterConsent:   8 * time.Second,
		WithoutConsent: 3 * time.Second,
		ReadyTimeout:   30 * time.Second,
		BeforeRead:     3 * time.Second,
	}
}

type TrackingAdapter struct {
	open      Launcher
	timings   TrackingTimings
	cache     *expirable.LRU[string, models.TrackingRecord]
	publisher TrackingPublisher
	sink      extract.Sink
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
}

// NewTrackingAdapter caches results for ttl, keyed by tracking number. A zero
// ttl or size disables the cache.
func NewTrackingAdapter(open Launcher, cacheSize int, ttl time.Duration, m *metrics.Metrics, logger *slog.Logger) *TrackingAdapter {
	logger = logger.With("component", "tracking_adapter")
	a := &TrackingAdapter{
		open:    open,
		timings: DefaultTrackingTimings(),
		sink:    extract.MultiSink{extract.NewLogSink(logger), m},
		metrics: m,
		logger:  logger,
		tracer:  otel.Tracer(tracerName),
	}
	if cacheSize > 0 && ttl > 0 {
		a.cache = expirable.NewLRU[string, models.TrackingRecord](cacheSize, nil, ttl)
	}
	return a
}

func (a *TrackingAdapter) SetPublisher(p TrackingPublisher) {
	a.publisher = p
}

func (a *TrackingAdapter) SetTimings(t TrackingTimings) {
	a.timings = t
}

func TrackingURL(trackingNumber string) string {
	return TrackingBaseURL + url.PathEscape(trackingNumber)
}

// Track returns the parcel status and timeline for trackingNumber.
func (a *TrackingAdapter) Track(ctx context.Context, trackingNumber string) (rec *models.TrackingRecord, err error) {
	start := time.Now()
	ctx, span := a.tracer.Start(ctx, "TrackingAdapter.Track", trace.WithAttributes(attribute.String("tracking.number", trackingNumber)))
	defer func() {
		a.metrics.ObserveAdapter("tracking", err, time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if a.cache != nil {
		cached, ok := a.cache.Get(trackingNumber)
		a.metrics.IncTrackingCache(ok)
		if ok {
			a.logger.Debug("tracking cache hit", "trackingNumber", trackingNumber)
			span.SetAttributes(attribute.Bool("tracking.cached", true))
			return &cached, nil
		}
	}

	target := TrackingURL(trackingNumber)
	a.logger.Info("tracking parcel", "trackingNumber", trackingNumber, "url", target)

	read, err := a.read(ctx, target)
	if err != nil {
		return nil, err
	}

	result := normalize.Tracking(read, trackingNumber, target)
	if a.cache != nil {
		a.cache.Add(trackingNumber, result)
	}

	a.logger.Info("parcel tracked",
		"trackingNumber", result.TrackingNumber,
		"status", result.Status,
		"events", len(result.Timeline),
		"daysOnRoute", result.DaysOnRoute)

	if a.publisher != nil {
		if err := a.publisher.PublishTrackingUpdated(ctx, &result); err != nil {
			a.logger.Error("failed to publish tracking event", "trackingNumber", trackingNumber, "error", err)
		}
	}
	return &result, nil
}

func (a *TrackingAdapter) read(ctx context.Context, target string) (models.TrackingRecord, error) {
	sess, err := a.open(ctx, target)
	if err != nil {
		return models.TrackingRecord{}, err
	}
	defer release(sess, a.logger)

	if err := sess.Navigate(ctx); err != nil {
		return models.TrackingRecord{}, err
	}
	// The consent dialog renders late; let the page settle first.
	if err := sess.Humanize(ctx); err != nil {
		return models.TrackingRecord{}, fmt.Errorf("failed to humanize %s: %w", target, err)
	}

	wait := a.timings.WithoutConsent
	if selector, ok := sess.ClickFirst(consentSelectors, a.timings.ConsentClick); ok {
		a.logger.Debug("consent dismissed", "selector", selector)
		wait = a.timings.AfterConsent
	} else {
		a.logger.Debug("no consent dialog found")
	}
	if err := sess.Pause(ctx, wait); err != nil {
		return models.TrackingRecord{}, fmt.Errorf("failed waiting for %s: %w", target, err)
	}

	// The page is still read when the content never shows up; fields fall
	// back to their defaults.
	for _, selector := range trackingReadySelectors {
		if err := sess.WaitVisible(selector, a.timings.ReadyTimeout); err != nil {
			a.logger.Warn("tracking content not visible", "selector", selector, "error", err)
		}
	}
	if err := sess.Pause(ctx, a.timings.BeforeRead); err != nil {
		return models.TrackingRecord{}, fmt.Errorf("failed waiting for %s: %w", target, err)
	}

	return extract.Tracking(sess.Root(), a.sink), nil
}
