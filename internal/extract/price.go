package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/maltedev/aliexpress-scraper/internal/dom"
	"github.com/maltedev/aliexpress-scraper/internal/models"
)

var currentPriceSelectors = []string{
	`[class*="--currentPriceText--"]`,
	`[class*="--currentPrice--"]`,
	`[class*="--current--"]`,
	`.price-default--current--F8OlYIo`,
	`.price-default--currentWrap--A_MNgCG span`,
	`[class*="price--current"]`,
	`[class*="current"] span`,
	`[data-spm-anchor-id*="price"]`,
}

var originalPriceSelectors = []string{
	`[class*="--originalPriceText--"]`,
	`[class*="--originalPrice--"]`,
	`[class*="--original--"]`,
	`.price-default--original--CWcHOit`,
	`.price-default--priceExtraFont12--pRHaee0 span`,
	`[class*="price--original"]`,
	`[class*="original"] span`,
	`del span`,
	`s span`,
}

var priceToken = regexp.MustCompile(`\d+(?:[.,]\d+)*`)

// ParsePrice reads the first numeric token of a locale-formatted price.
// A lone comma is a decimal separator; when both separators appear the last
// one is the decimal mark and the other groups thousands.
func ParsePrice(text string) (float64, bool) {
	token := priceToken.FindString(text)
	if token == "" {
		return 0, false
	}

	lastComma := strings.LastIndex(token, ",")
	lastDot := strings.LastIndex(token, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			token = strings.ReplaceAll(token, ".", "")
			token = strings.Replace(token, ",", ".", 1)
		} else {
			token = strings.ReplaceAll(token, ",", "")
		}
	case strings.Count(token, ",") == 1:
		token = strings.Replace(token, ",", ".", 1)
	case strings.Count(token, ",") > 1:
		token = strings.ReplaceAll(token, ",", "")
	case strings.Count(token, ".") > 1:
		token = strings.ReplaceAll(token, ".", "")
	}

	v, err := strconv.ParseFloat(token, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func priceCandidates(selectors []string, accept func(float64) bool) []Candidate[float64] {
	out := make([]Candidate[float64], 0, len(selectors))
	for _, sel := range selectors {
		out = append(out, Candidate[float64]{
			Selector: sel,
			Parse: func(text string) (float64, bool) {
				v, ok := ParsePrice(text)
				if !ok || !accept(v) {
					return 0, false
				}
				return v, true
			},
		})
	}
	return out
}

// Price extracts the current and original prices through independent chains.
// An original equal to the current price is the same node matched twice and is skipped.
func Price(root dom.Node, sink Sink) Field[models.PriceQuote] {
	current := Chain[float64]{
		Field:      "price.current",
		Candidates: priceCandidates(currentPriceSelectors, func(float64) bool { return true }),
		EachMatch:  true,
	}.First(root, sink)
	if !current.Present {
		return Absent[models.PriceQuote]()
	}

	original := Chain[float64]{
		Field: "price.original",
		Candidates: priceCandidates(originalPriceSelectors, func(v float64) bool {
			return v != current.Value
		}),
		EachMatch: true,
	}.First(root, sink)

	return Found(models.PriceQuote{
		Current:  current.Value,
		Original: original.Or(current.Value),
	})
}
