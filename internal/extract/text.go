package extract

import (
	"unicode/utf8"

	"github.com/maltedev/aliexpress-scraper/internal/dom"
	"github.com/maltedev/aliexpress-scraper/internal/models"
)

var titleSelectors = []string{
	`[data-pl="product-title"]`,
	`.title--wrap--UUHae_g h1`,
	`h1[data-pl="product-title"]`,
	`.product-title-text`,
	`h1[class*="Product"]`,
	`h1`,
}

var sellerSelectors = []string{
	`.store-detail--storeName--Lk2FVZ4`,
	`[class*="storeName"]`,
	`[class*="shop-name"]`,
	`[class*="store-name"]`,
}

func plausibleTitle(s string) bool {
	return utf8.RuneCountInString(s) > models.MinPlausibleTitleLn
}

func Title(root dom.Node, sink Sink) Field[string] {
	return Chain[string]{
		Field:      "title",
		Candidates: TextCandidates(plausibleTitle, titleSelectors...),
	}.First(root, sink)
}

func Seller(root dom.Node, sink Sink) Field[string] {
	return Chain[string]{
		Field:      "seller",
		Candidates: TextCandidates(NonEmpty, sellerSelectors...),
	}.First(root, sink)
}

// PageAnchors reports whether the title and price anchors have rendered.
func PageAnchors(root dom.Node) (title, price bool) {
	if nodes, err := root.All(`[data-pl="product-title"]`); err == nil && len(nodes) > 0 {
		title = true
	}
	if nodes, err := root.All(`[class*="price-default--current"]`); err == nil && len(nodes) > 0 {
		price = true
	}
	return title, price
}
