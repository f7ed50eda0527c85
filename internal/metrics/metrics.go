package metrics

import (
	"time"

	"github.com/maltedev/aliexpress-scraper/internal/extract"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the extraction pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry         *prometheus.Registry
	FieldOutcomes    *prometheus.CounterVec
	AdapterDuration  *prometheus.HistogramVec
	SessionsTotal    *prometheus.CounterVec
	SessionsActive   prometheus.Gauge
	DownloadsTotal   *prometheus.CounterVec
	DownloadDuration prometheus.Histogram
	PriceItemsTotal  *prometheus.CounterVec
	TrackingCache    *prometheus.CounterVec
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	fieldOutcomes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extractor_field_outcomes_total",
			Help: "Selector attempts per extracted field by outcome.",
		},
		[]string{"field", "outcome"},
	)
	adapterDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adapter_duration_seconds",
			Help:    "End-to-end duration of adapter runs.",
			Buckets: []float64{1, 2.5, 5, 10, 20, 30, 60, 90, 120},
		},
		[]string{"adapter", "result"},
	)
	sessionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "browser_sessions_total",
			Help: "Browser sessions acquired by result.",
		},
		[]string{"result"},
	)
	sessionsActive := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "browser_sessions_active",
			Help: "Browser sessions currently open.",
		},
	)
	downloadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_downloads_total",
			Help: "Image downloads by result.",
		},
		[]string{"result"},
	)
	downloadDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "asset_download_duration_seconds",
			Help:    "Latency of individual image downloads.",
			Buckets: prometheus.DefBuckets,
		},
	)
	priceItems := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_update_items_total",
			Help: "Price-update batch items by result.",
		},
		[]string{"result"},
	)
	trackingCache := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracking_cache_lookups_total",
			Help: "Tracking result cache lookups by result.",
		},
		[]string{"result"},
	)

	registry.MustRegister(fieldOutcomes, adapterDuration, sessionsTotal, sessionsActive,
		downloadsTotal, downloadDuration, priceItems, trackingCache)

	return &Metrics{
		Registry:         registry,
		FieldOutcomes:    fieldOutcomes,
		AdapterDuration:  adapterDuration,
		SessionsTotal:    sessionsTotal,
		SessionsActive:   sessionsActive,
		DownloadsTotal:   downloadsTotal,
		DownloadDuration: downloadDuration,
		PriceItemsTotal:  priceItems,
		TrackingCache:    trackingCache,
	}
}

// Record implements extract.Sink.
func (m *Metrics) Record(e extract.Event) {
	if m == nil {
		return
	}
	m.FieldOutcomes.WithLabelValues(e.Field, string(e.Outcome)).Inc()
}

func (m *Metrics) ObserveAdapter(adapter string, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.AdapterDuration.WithLabelValues(adapter, resultLabel(err)).Observe(d.Seconds())
}

func (m *Metrics) SessionOpened(err error) {
	if m == nil {
		return
	}
	m.SessionsTotal.WithLabelValues(resultLabel(err)).Inc()
	if err == nil {
		m.SessionsActive.Inc()
	}
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
}

func (m *Metrics) ObserveDownload(err error, d time.Duration) {
	if m == nil {
		return
	}
	m.DownloadsTotal.WithLabelValues(resultLabel(err)).Inc()
	m.DownloadDuration.Observe(d.Seconds())
}

func (m *Metrics) IncPriceItem(success bool) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "failure"
	}
	m.PriceItemsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) IncTrackingCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.TrackingCache.WithLabelValues(result).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
