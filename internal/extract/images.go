package extract

import (
	"regexp"
	"strings"

	"github.com/maltedev/aliexpress-scraper/internal/dom"
)

var gallerySelectors = []string{
	`.slider--img--kD4mIg7 img`,
	`.magnifier--image--RM17RL2`,
	`[class*="image"] img[src*="aliexpress"]`,
	`.product-img`,
}

var (
	imageExt        = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|webp|gif|avif)`)
	trailingExt     = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|webp|gif|avif)$`)
	duplicatedExt   = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|webp|gif|avif)\.(jpg|jpeg|png|webp|gif|avif)$`)
	sizeSuffixStart = "_"
)

func absoluteURL(src string) string {
	src = strings.TrimSpace(src)
	if strings.HasPrefix(src, "//") {
		return "https:" + src
	}
	return src
}

// CanonicalImageURL drops the query, cuts the size-variant suffix that the CDN
// appends after the first underscore of the file name, and collapses a
// duplicated extension ("a.jpg.jpg" becomes "a.jpg").
func CanonicalImageURL(src string) string {
	src = absoluteURL(src)
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		src = src[:i]
	}

	dir, file := "", src
	if i := strings.LastIndex(src, "/"); i >= 0 {
		dir, file = src[:i+1], src[i+1:]
	}

	base := file
	if i := strings.Index(file, sizeSuffixStart); i > 0 {
		base = file[:i]
	}
	if !trailingExt.MatchString(base) {
		ext := ".jpg"
		if m := imageExt.FindString(file); m != "" {
			ext = strings.ToLower(m)
		}
		base += ext
	}

	return duplicatedExt.ReplaceAllString(dir+base, ".$1")
}

func acceptImage(src string) bool {
	return strings.Contains(src, "aliexpress") || strings.HasPrefix(src, "http")
}

// Images collects gallery URLs from the first selector that yields any,
// canonicalized and deduplicated in page order.
func Images(root dom.Node, sink Sink) []string {
	sink = orDiscard(sink)

	for _, sel := range gallerySelectors {
		nodes, err := root.All(sel)
		if err != nil {
			sink.Record(Event{Field: "images", Selector: sel, Outcome: OutcomeError, Detail: err.Error()})
			continue
		}

		seen := make(map[string]struct{}, len(nodes))
		var urls []string
		for _, n := range nodes {
			src, err := n.Attr("src")
			if err != nil {
				continue
			}
			src = absoluteURL(src)
			if src == "" || !acceptImage(src) {
				continue
			}
			canonical := CanonicalImageURL(src)
			if _, dup := seen[canonical]; dup {
				continue
			}
			seen[canonical] = struct{}{}
			urls = append(urls, canonical)
		}

		if len(urls) > 0 {
			sink.Record(Event{Field: "images", Selector: sel, Outcome: OutcomeHit})
			return urls
		}
		sink.Record(Event{Field: "images", Selector: sel, Outcome: OutcomeMiss})
	}

	sink.Record(Event{Field: "images", Outcome: OutcomeAbsent})
	return []string{}
}
