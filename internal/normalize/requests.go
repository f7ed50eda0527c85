package normalize

import (
	"net/url"
	"strings"

	"github.com/maltedev/aliexpress-scraper/internal/models"
)

const SupportedDomain = "aliexpress.com"

// ScrapeRequest checks that a product URL addresses the supported site.
func ScrapeRequest(req models.ScrapeRequest) error {
	if err := validSourceURL(req.URL); err != nil {
		return invalid("url", "must be an absolute http(s) URL")
	}
	if !supportedHost(req.URL) {
		return invalid("url", "must be an %s product page", SupportedDomain)
	}
	return nil
}

// supportedHost matches the site's apex domain and its regional subdomains.
func supportedHost(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == SupportedDomain || strings.HasSuffix(host, "."+SupportedDomain)
}

func PriceUpdateRequest(req models.PriceUpdateRequest) error {
	if len(req.Products) == 0 {
		return invalid("products", "at least one product is required")
	}
	for i, p := range req.Products {
		if strings.TrimSpace(p.ProductID) == "" {
			return invalid("products", "item %d has no productId", i)
		}
		if err := validSourceURL(p.URL); err != nil {
			return invalid("products", "item %d has an invalid url", i)
		}
	}
	return nil
}

func TrackingRequest(req models.TrackingRequest) error {
	n := strings.TrimSpace(req.TrackingNumber)
	if n == "" {
		return invalid("trackingNumber", "must not be empty")
	}
	if strings.ContainsAny(n, "/?#% ") {
		return invalid("trackingNumber", "contains characters not allowed in a parcel id")
	}
	return nil
}
