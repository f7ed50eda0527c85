// Package extract holds the per-field extraction strategies. Every extractor
// degrades to an absent value instead of failing; outcomes are reported as
// Events through a Sink.
package extract

import (
	"strings"

	"github.com/maltedev/aliexpress-scraper/internal/dom"
)

// Field is the result of one extraction attempt: a value or an absent marker.
type Field[T any] struct {
	Value   T
	Present bool
}

func Found[T any](v T) Field[T] {
	return Field[T]{Value: v, Present: true}
}

func Absent[T any]() Field[T] {
	return Field[T]{}
}

// Or returns the value when present, def otherwise.
func (f Field[T]) Or(def T) T {
	if f.Present {
		return f.Value
	}
	return def
}

// Candidate pairs a selector with the plausibility check applied to its text.
type Candidate[T any] struct {
	Selector string
	Parse    func(text string) (T, bool)
}

// Chain tries its candidates in order and keeps the first plausible value.
type Chain[T any] struct {
	Field      string
	Candidates []Candidate[T]
	// EachMatch inspects every element matched by a selector instead of only the first.
	EachMatch bool
}

func (c Chain[T]) First(root dom.Node, sink Sink) Field[T] {
	sink = orDiscard(sink)

	for _, cand := range c.Candidates {
		nodes, err := root.All(cand.Selector)
		if err != nil {
			sink.Record(Event{Field: c.Field, Selector: cand.Selector, Outcome: OutcomeError, Detail: err.Error()})
			continue
		}
		if len(nodes) == 0 {
			sink.Record(Event{Field: c.Field, Selector: cand.Selector, Outcome: OutcomeMiss})
			continue
		}
		if !c.EachMatch {
			nodes = nodes[:1]
		}

		for _, n := range nodes {
			text, err := n.Text()
			if err != nil {
				continue
			}
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			if v, ok := cand.Parse(text); ok {
				sink.Record(Event{Field: c.Field, Selector: cand.Selector, Outcome: OutcomeHit})
				return Found(v)
			}
		}
		sink.Record(Event{Field: c.Field, Selector: cand.Selector, Outcome: OutcomeRejected})
	}

	sink.Record(Event{Field: c.Field, Outcome: OutcomeAbsent})
	return Absent[T]()
}

// TextCandidates builds string candidates sharing one plausibility check.
func TextCandidates(plausible func(string) bool, selectors ...string) []Candidate[string] {
	out := make([]Candidate[string], 0, len(selectors))
	for _, sel := range selectors {
		out = append(out, Candidate[string]{
			Selector: sel,
			Parse: func(text string) (string, bool) {
				return text, plausible(text)
			},
		})
	}
	return out
}

func NonEmpty(s string) bool {
	return strings.TrimSpace(s) != ""
}
