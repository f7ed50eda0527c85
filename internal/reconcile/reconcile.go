// Package reconcile matches variant swatches to the gallery images that were
// downloaded for the same product.
package reconcile

import (
	"regexp"
	"strings"

	"github.com/maltedev/aliexpress-scraper/internal/models"
)

var sizeSuffix = regexp.MustCompile(`_\d+x\d+[^/]*$`)

// Canonical reduces an image URL to the key shared by all its size variants.
func Canonical(u string) string {
	u = strings.TrimSpace(u)
	if strings.HasPrefix(u, "//") {
		u = "https:" + u
	}
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	u = strings.Replace(u, ".jpg_.avif", ".jpg", 1)
	u = strings.Replace(u, ".webp_.avif", ".webp", 1)
	return sizeSuffix.ReplaceAllString(u, "")
}

type entry struct {
	key       string
	publicURL string
}

// Lookup maps remote image URLs to local public URLs. Entries keep insertion
// order so the substring fallback is deterministic.
type Lookup struct {
	entries []entry
	exact   map[string]string
}

// NewLookup indexes each downloaded asset under the canonical and raw form of
// the remote URL at the same position. Failed downloads (nil) are skipped.
func NewLookup(images []string, assets []*models.ImageAsset) *Lookup {
	l := &Lookup{exact: make(map[string]string, len(assets)*2)}

	for i, asset := range assets {
		if asset == nil {
			continue
		}
		remote := asset.OriginalURL
		if i < len(images) && images[i] != "" {
			remote = images[i]
		}
		l.add(Canonical(remote), asset.PublicURL)
		l.add(remote, asset.PublicURL)
	}
	return l
}

func (l *Lookup) add(key, publicURL string) {
	if key == "" {
		return
	}
	if _, ok := l.exact[key]; ok {
		return
	}
	l.exact[key] = publicURL
	l.entries = append(l.entries, entry{key: key, publicURL: publicURL})
}

func (l *Lookup) Len() int {
	return len(l.entries)
}

// Resolve finds the local URL for a remote swatch: exact canonical match first,
// then the first key that contains or is contained by it.
func (l *Lookup) Resolve(remote string) (string, bool) {
	if strings.TrimSpace(remote) == "" {
		return "", false
	}
	key := Canonical(remote)
	if key == "" {
		return "", false
	}
	if public, ok := l.exact[key]; ok {
		return public, true
	}
	if public, ok := l.exact[remote]; ok {
		return public, true
	}
	for _, e := range l.entries {
		if strings.Contains(e.key, key) || strings.Contains(key, e.key) {
			return e.publicURL, true
		}
	}
	return "", false
}

// Variants returns a copy of groups with every option's image resolved against
// the lookup, or nil when unmatched. SourceImage is always cleared, so a second
// pass over the result leaves every image nil.
func Variants(groups []models.VariantGroup, lookup *Lookup) []models.VariantGroup {
	out := make([]models.VariantGroup, len(groups))
	for gi, g := range groups {
		options := make([]models.VariantOption, len(g.Options))
		for oi, o := range g.Options {
			o.Image = nil
			if lookup != nil {
				if public, ok := lookup.Resolve(o.SourceImage); ok {
					o.Image = &public
				}
			}
			o.SourceImage = ""
			options[oi] = o
		}
		out[gi] = models.VariantGroup{GroupName: g.GroupName, Options: options}
	}
	return out
}
