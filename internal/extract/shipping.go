package extract

import (
	"regexp"
	"strconv"

	"github.com/maltedev/aliexpress-scraper/internal/dom"
	"github.com/maltedev/aliexpress-scraper/internal/models"
)

const shippingLineSelector = `.dynamic-shipping-line`

var deliveryWindow = regexp.MustCompile(`(?i)(\d+)\s*-\s*(\d+)\s*de\s*\p{L}+`)

// ParseDeliveryWindow finds "<min> - <max> de <month>" in free text.
func ParseDeliveryWindow(text string) (models.DeliveryWindow, bool) {
	m := deliveryWindow.FindStringSubmatch(text)
	if m == nil {
		return models.DeliveryWindow{}, false
	}
	lo, err := strconv.Atoi(m[1])
	if err != nil {
		return models.DeliveryWindow{}, false
	}
	hi, err := strconv.Atoi(m[2])
	if err != nil {
		return models.DeliveryWindow{}, false
	}
	return models.DeliveryWindow{Min: lo, Max: hi}, true
}

// Shipping returns the fixed shipping cost and the first delivery window found, if any.
func Shipping(root dom.Node, sink Sink) models.ShippingQuote {
	sink = orDiscard(sink)
	quote := models.ShippingQuote{Cost: models.ShippingCost}

	for _, line := range dom.Texts(root, shippingLineSelector) {
		if w, ok := ParseDeliveryWindow(line); ok {
			quote.EstimatedDelivery = models.EstimatedDelivery{Min: &w.Min, Max: &w.Max}
			sink.Record(Event{Field: "shipping.delivery", Selector: shippingLineSelector, Outcome: OutcomeHit})
			return quote
		}
	}

	sink.Record(Event{Field: "shipping.delivery", Selector: shippingLineSelector, Outcome: OutcomeAbsent})
	return quote
}
