package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/maltedev/aliexpress-scraper/internal/extract"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecord(t *testing.T) {
	m := New()

	m.Record(extract.Event{Field: "title", Outcome: extract.OutcomeHit})
	m.Record(extract.Event{Field: "title", Outcome: extract.OutcomeHit})
	m.Record(extract.Event{Field: "price.current", Outcome: extract.OutcomeAbsent})

	if got := testutil.ToFloat64(m.FieldOutcomes.WithLabelValues("title", "hit")); got != 2 {
		t.Fatalf("expected 2 title hits, got %v", got)
	}
	if got := testutil.ToFloat64(m.FieldOutcomes.WithLabelValues("price.current", "absent")); got != 1 {
		t.Fatalf("expected 1 absent price, got %v", got)
	}
}

func TestMetricsSessionsAndItems(t *testing.T) {
	m := New()

	m.SessionOpened(nil)
	m.SessionOpened(errors.New("launch failed"))
	m.SessionClosed()
	m.IncPriceItem(true)
	m.IncPriceItem(false)
	m.IncTrackingCache(true)
	m.ObserveDownload(nil, 20*time.Millisecond)

	if got := testutil.ToFloat64(m.SessionsActive); got != 0 {
		t.Fatalf("expected no active sessions, got %v", got)
	}
	if got := testutil.ToFloat64(m.SessionsTotal.WithLabelValues("error")); got != 1 {
		t.Fatalf("expected 1 failed session, got %v", got)
	}
	if got := testutil.ToFloat64(m.PriceItemsTotal.WithLabelValues("failure")); got != 1 {
		t.Fatalf("expected 1 failed price item, got %v", got)
	}
	if got := testutil.ToFloat64(m.DownloadsTotal.WithLabelValues("success")); got != 1 {
		t.Fatalf("expected 1 download, got %v", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.Record(extract.Event{Field: "title"})
	m.ObserveAdapter("product", nil, time.Second)
	m.SessionOpened(nil)
	m.SessionClosed()
	m.ObserveDownload(nil, time.Second)
	m.IncPriceItem(true)
	m.IncTrackingCache(false)
}
