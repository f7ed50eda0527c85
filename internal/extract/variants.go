package extract

import (
	"strings"

	"github.com/maltedev/aliexpress-scraper/internal/dom"
	"github.com/maltedev/aliexpress-scraper/internal/models"
)

const (
	variantGroupSelector  = `[class*="sku-item--property"]`
	variantTitleSelector  = `[class*="sku-item--title"]`
	variantOptionSelector = `[class*="sku-item--skus"] div[data-sku-col]`
)

// SwatchSourceURL strips the thumbnail suffix and the avif re-encoding from a swatch image URL.
func SwatchSourceURL(src string) string {
	src = absoluteURL(src)
	if i := strings.Index(src, "_220x220"); i >= 0 {
		src = src[:i]
	}
	src = strings.Replace(src, ".jpg_.avif", ".jpg", 1)
	src = strings.Replace(src, ".webp_.avif", ".webp", 1)
	return src
}

// Variants reads every SKU property group. Options keep their remote swatch in
// SourceImage until reconciliation.
func Variants(root dom.Node, sink Sink) []models.VariantGroup {
	sink = orDiscard(sink)
	groups := []models.VariantGroup{}

	nodes, err := root.All(variantGroupSelector)
	if err != nil {
		sink.Record(Event{Field: "variants", Selector: variantGroupSelector, Outcome: OutcomeError, Detail: err.Error()})
		return groups
	}

	for _, g := range nodes {
		name := strings.TrimSpace(strings.Replace(dom.FirstText(g, variantTitleSelector), ":", "", 1))
		if name == "" {
			continue
		}

		optionNodes, err := g.All(variantOptionSelector)
		if err != nil {
			continue
		}

		options := make([]models.VariantOption, 0, len(optionNodes))
		for _, o := range optionNodes {
			if opt, ok := variantOption(o); ok {
				options = append(options, opt)
			}
		}
		if len(options) == 0 {
			continue
		}

		groups = append(groups, models.VariantGroup{GroupName: name, Options: options})
	}

	outcome := OutcomeHit
	if len(groups) == 0 {
		outcome = OutcomeAbsent
	}
	sink.Record(Event{Field: "variants", Selector: variantGroupSelector, Outcome: outcome})
	return groups
}

func variantOption(n dom.Node) (models.VariantOption, bool) {
	opt := models.VariantOption{}

	if img, ok := dom.First(n, "img"); ok {
		src, _ := img.Attr("src")
		alt, _ := img.Attr("alt")
		opt.SourceImage = SwatchSourceURL(src)
		opt.Value = strings.TrimSpace(alt)
	}
	// Swatches with an empty alt still carry their label as text.
	if opt.Value == "" {
		text, err := n.Text()
		if err != nil {
			return opt, false
		}
		opt.Value = dom.CollapseSpace(text)
	}

	return opt, opt.Value != ""
}
