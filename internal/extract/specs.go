package extract

import (
	"github.com/maltedev/aliexpress-scraper/internal/dom"
	"github.com/maltedev/aliexpress-scraper/internal/models"
)

const (
	specRowSelector   = `.specification--prop--Jh28bKu`
	specTitleSelector = `.specification--title--SfH3sA8 span`
	specValueSelector = `.specification--desc--Dxx6W0W span`
)

// Specifications reads the property table. Rows missing a label or a value are skipped.
func Specifications(root dom.Node, sink Sink) models.SpecificationMap {
	sink = orDiscard(sink)
	specs := models.SpecificationMap{}

	rows, err := root.All(specRowSelector)
	if err != nil {
		sink.Record(Event{Field: "specifications", Selector: specRowSelector, Outcome: OutcomeError, Detail: err.Error()})
		return specs
	}
	if len(rows) == 0 {
		sink.Record(Event{Field: "specifications", Selector: specRowSelector, Outcome: OutcomeAbsent})
		return specs
	}

	for _, row := range rows {
		label := dom.FirstText(row, specTitleSelector)
		value := dom.FirstText(row, specValueSelector)
		if label == "" || value == "" {
			continue
		}
		specs.Add(label, value)
	}

	sink.Record(Event{Field: "specifications", Selector: specRowSelector, Outcome: OutcomeHit})
	return specs
}
