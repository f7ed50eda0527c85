// Package normalize turns raw extraction results into validated records,
// filling defaults for optional fields and rejecting records whose required
// fields are missing.
package normalize

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/maltedev/aliexpress-scraper/internal/extract"
	"github.com/maltedev/aliexpress-scraper/internal/models"
)

// ValidationError reports a required field that is missing or out of range
// after normalization.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(reason, args...)}
}

// RawProduct is everything the product adapter extracted, before defaults.
type RawProduct struct {
	Title          extract.Field[string]
	Seller         extract.Field[string]
	Details        string
	Price          extract.Field[models.PriceQuote]
	Specifications models.SpecificationMap
	Images         []string
	Shipping       models.ShippingQuote
	Variants       []models.VariantGroup
	SourceURL      string
}

var productIDPattern = regexp.MustCompile(`/(\d+)\.html`)

// ExternalID derives the site-prefixed id from the item number in the URL,
// falling back to a millisecond timestamp.
func ExternalID(sourceURL string, now time.Time) string {
	if m := productIDPattern.FindStringSubmatch(sourceURL); m != nil {
		return models.ExternalIDPrefix + m[1]
	}
	return models.ExternalIDPrefix + strconv.FormatInt(now.UnixMilli(), 10)
}

// DeliveryWindow resolves an extracted estimate, defaulting to 15-30 days.
func DeliveryWindow(e models.EstimatedDelivery) models.DeliveryWindow {
	if w, ok := e.Window(); ok {
		return w
	}
	return models.DefaultDeliveryWindow()
}

func Product(raw RawProduct, now time.Time) (*models.ProductRecord, error) {
	if !raw.Price.Present || raw.Price.Value.Current <= 0 {
		return nil, invalid("basePrice", "no positive price was extracted")
	}
	quote := raw.Price.Value
	if quote.Original <= 0 {
		quote.Original = quote.Current
	}

	if err := validSourceURL(raw.SourceURL); err != nil {
		return nil, err
	}

	rec := &models.ProductRecord{
		Title:                raw.Title.Or(models.DefaultTitle),
		Details:              strings.TrimSpace(raw.Details),
		Specifications:       raw.Specifications,
		BasePrice:            quote.Current,
		OriginalPrice:        quote.Original,
		Discount:             quote.Discount(),
		Currency:             models.DefaultCurrency,
		Images:               raw.Images,
		ShippingCost:         models.ShippingCost,
		DeliveryEstimateDays: DeliveryWindow(raw.Shipping.EstimatedDelivery),
		Variants:             raw.Variants,
		SellerName:           raw.Seller.Or(models.DefaultSellerName),
		ExternalID:           ExternalID(raw.SourceURL, now),
		SourceURL:            raw.SourceURL,
	}

	if rec.Details == "" {
		rec.Details = models.DefaultDetails
	}
	if rec.Specifications == nil {
		rec.Specifications = models.SpecificationMap{}
	}
	if rec.Images == nil {
		rec.Images = []string{}
	}
	if rec.Variants == nil {
		rec.Variants = []models.VariantGroup{}
	}

	if err := ValidateProduct(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// ValidateProduct checks the required fields and ranges of a finished record.
func ValidateProduct(rec *models.ProductRecord) error {
	if rec.BasePrice <= 0 {
		return invalid("basePrice", "must be positive, got %v", rec.BasePrice)
	}
	if rec.Discount < 0 || rec.Discount > models.MaxDiscountPercent {
		return invalid("discount", "must be within 0..100, got %d", rec.Discount)
	}
	if strings.TrimSpace(rec.ExternalID) == "" {
		return invalid("externalId", "must not be empty")
	}
	if strings.TrimSpace(rec.Title) == "" {
		return invalid("title", "must not be empty")
	}
	if rec.DeliveryEstimateDays.Min < 0 || rec.DeliveryEstimateDays.Max < 0 {
		return invalid("deliveryEstimateDays", "must not be negative")
	}
	for _, g := range rec.Variants {
		if g.GroupName == "" {
			return invalid("variants", "group name must not be empty")
		}
	}
	return nil
}

// PriceUpdate normalizes the result of a price-only extraction.
func PriceUpdate(price extract.Field[models.PriceQuote], shipping models.ShippingQuote) (*models.PriceUpdate, error) {
	if !price.Present || price.Value.Current <= 0 {
		return nil, invalid("basePrice", "no positive price was extracted")
	}
	quote := price.Value
	if quote.Original <= 0 {
		quote.Original = quote.Current
	}
	return &models.PriceUpdate{
		BasePrice:            quote.Current,
		OriginalPrice:        quote.Original,
		Discount:             quote.Discount(),
		DeliveryEstimateDays: DeliveryWindow(shipping.EstimatedDelivery),
	}, nil
}

// Tracking fills the identifiers the page did not provide.
func Tracking(rec models.TrackingRecord, requested, sourceURL string) models.TrackingRecord {
	if strings.TrimSpace(rec.TrackingNumber) == "" {
		rec.TrackingNumber = requested
	}
	if rec.Couriers == nil {
		rec.Couriers = []string{}
	}
	if rec.Timeline == nil {
		rec.Timeline = []models.TimelineEvent{}
	}
	if rec.DaysOnRoute < 0 {
		rec.DaysOnRoute = 0
	}
	rec.SourceURL = sourceURL
	return rec
}

func validSourceURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return invalid("sourceUrl", "must be an absolute http(s) URL, got %q", raw)
	}
	return nil
}
