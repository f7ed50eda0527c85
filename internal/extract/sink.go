package extract

import (
	"context"
	"log/slog"
)

type Outcome string

const (
	OutcomeHit      Outcome = "hit"
	OutcomeMiss     Outcome = "miss"
	OutcomeRejected Outcome = "rejected"
	OutcomeError    Outcome = "error"
	OutcomeAbsent   Outcome = "absent"
)

// Event describes one selector attempt for a field.
type Event struct {
	Field    string
	Selector string
	Outcome  Outcome
	Detail   string
}

type Sink interface {
	Record(Event)
}

type SinkFunc func(Event)

func (f SinkFunc) Record(e Event) { f(e) }

// MultiSink forwards every event to each of its sinks.
type MultiSink []Sink

func (m MultiSink) Record(e Event) {
	for _, s := range m {
		if s != nil {
			s.Record(e)
		}
	}
}

var Discard Sink = SinkFunc(func(Event) {})

func orDiscard(s Sink) Sink {
	if s == nil {
		return Discard
	}
	return s
}

// LogSink writes events as structured log records. Fields that end up
// absent are logged at warn, everything else at debug.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger.With("component", "extractor")}
}

func (s *LogSink) Record(e Event) {
	level := slog.LevelDebug
	if e.Outcome == OutcomeAbsent || e.Outcome == OutcomeError {
		level = slog.LevelWarn
	}
	attrs := []any{"field", e.Field, "outcome", string(e.Outcome)}
	if e.Selector != "" {
		attrs = append(attrs, "selector", e.Selector)
	}
	if e.Detail != "" {
		attrs = append(attrs, "detail", e.Detail)
	}
	s.logger.Log(context.Background(), level, "field extraction", attrs...)
}
