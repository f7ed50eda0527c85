package normalize

import (
	"errors"
	"testing"
	"time"

	"github.com/maltedev/aliexpress-scraper/internal/extract"
	"github.com/maltedev/aliexpress-scraper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func TestProductDefaults(t *testing.T) {
	raw := RawProduct{
		Price:     extract.Found(models.PriceQuote{Current: 19.99, Original: 29.99}),
		SourceURL: "https://es.aliexpress.com/item/1005006123456789.html?spm=a2g0o",
	}

	rec, err := Product(raw, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, models.DefaultTitle, rec.Title)
	assert.Equal(t, models.DefaultDetails, rec.Details)
	assert.Equal(t, models.DefaultSellerName, rec.SellerName)
	assert.Equal(t, models.DefaultCurrency, rec.Currency)
	assert.Equal(t, models.ShippingCost, rec.ShippingCost)
	assert.Equal(t, models.DeliveryWindow{Min: 15, Max: 30}, rec.DeliveryEstimateDays)
	assert.Equal(t, "ALI_1005006123456789", rec.ExternalID)
	assert.Equal(t, 33, rec.Discount)
	assert.NotNil(t, rec.Images)
	assert.NotNil(t, rec.Variants)
	assert.NotNil(t, rec.Specifications)
}

func TestProductUsesExtractedValues(t *testing.T) {
	lo, hi := 8, 14
	raw := RawProduct{
		Title:          extract.Found("Auriculares inalámbricos"),
		Seller:         extract.Found("Tienda XYZ"),
		Details:        "  Texto  ",
		Price:          extract.Found(models.PriceQuote{Current: 10}),
		Specifications: models.SpecificationMap{"Color": {"Rojo"}},
		Images:         []string{"/uploads/products/a.jpg"},
		Shipping:       models.ShippingQuote{Cost: models.ShippingCost, EstimatedDelivery: models.EstimatedDelivery{Min: &lo, Max: &hi}},
		SourceURL:      "https://www.aliexpress.com/item/42.html",
	}

	rec, err := Product(raw, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, "Auriculares inalámbricos", rec.Title)
	assert.Equal(t, "Tienda XYZ", rec.SellerName)
	assert.Equal(t, "Texto", rec.Details)
	assert.Equal(t, 10.0, rec.OriginalPrice)
	assert.Equal(t, 0, rec.Discount)
	assert.Equal(t, models.DeliveryWindow{Min: 8, Max: 14}, rec.DeliveryEstimateDays)
	assert.Equal(t, "ALI_42", rec.ExternalID)
}

func TestProductValidation(t *testing.T) {
	tests := []struct {
		name  string
		raw   RawProduct
		field string
	}{
		{
			name:  "missing price",
			raw:   RawProduct{SourceURL: "https://www.aliexpress.com/item/1.html"},
			field: "basePrice",
		},
		{
			name:  "zero price",
			raw:   RawProduct{Price: extract.Found(models.PriceQuote{}), SourceURL: "https://www.aliexpress.com/item/1.html"},
			field: "basePrice",
		},
		{
			name:  "relative source url",
			raw:   RawProduct{Price: extract.Found(models.PriceQuote{Current: 1}), SourceURL: "/item/1.html"},
			field: "sourceUrl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Product(tt.raw, fixedNow)
			assert.Nil(t, rec)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestExternalIDFallback(t *testing.T) {
	assert.Equal(t, "ALI_1792411200000", ExternalID("https://www.aliexpress.com/store/123", fixedNow))
	assert.Equal(t, ExternalID("https://a.aliexpress.com/item/77.html", fixedNow), ExternalID("https://a.aliexpress.com/item/77.html", fixedNow.Add(time.Hour)))
}

func TestPriceUpdate(t *testing.T) {
	t.Run("derives discount and default window", func(t *testing.T) {
		got, err := PriceUpdate(extract.Found(models.PriceQuote{Current: 19.99, Original: 29.99}), models.ShippingQuote{Cost: models.ShippingCost})
		require.NoError(t, err)
		assert.Equal(t, 19.99, got.BasePrice)
		assert.Equal(t, 29.99, got.OriginalPrice)
		assert.Equal(t, 33, got.Discount)
		assert.Equal(t, models.DefaultDeliveryWindow(), got.DeliveryEstimateDays)
	})

	t.Run("absent price is a validation error", func(t *testing.T) {
		_, err := PriceUpdate(extract.Absent[models.PriceQuote](), models.ShippingQuote{})
		var verr *ValidationError
		assert.True(t, errors.As(err, &verr))
	})
}

func TestScrapeRequestHost(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://es.aliexpress.com/item/1005006123456789.html", false},
		{"https://aliexpress.com/item/1.html", false},
		{"https://WWW.AliExpress.com/item/1.html", false},
		{"https://evil.example/x?ref=aliexpress.com", true},
		{"https://aliexpress.com.evil.example/item/1.html", true},
		{"https://notaliexpress.com/item/1.html", true},
		{"https://evil.example/aliexpress.com/item/1.html", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := ScrapeRequest(models.ScrapeRequest{URL: tt.url})
			if tt.wantErr {
				var validationErr *ValidationError
				require.ErrorAs(t, err, &validationErr)
				assert.Equal(t, "url", validationErr.Field)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTracking(t *testing.T) {
	rec := Tracking(models.TrackingRecord{}, "LP1", "https://pkge.net/parcel/LP1")
	assert.Equal(t, "LP1", rec.TrackingNumber)
	assert.Equal(t, "https://pkge.net/parcel/LP1", rec.SourceURL)
	assert.NotNil(t, rec.Couriers)
	assert.NotNil(t, rec.Timeline)

	rec = Tracking(models.TrackingRecord{TrackingNumber: "LP00123"}, "lp00123", "u")
	assert.Equal(t, "LP00123", rec.TrackingNumber)
}

func TestRequests(t *testing.T) {
	assert.NoError(t, ScrapeRequest(models.ScrapeRequest{URL: "https://es.aliexpress.com/item/1.html"}))
	assert.Error(t, ScrapeRequest(models.ScrapeRequest{URL: "https://www.amazon.es/dp/B0"}))
	assert.Error(t, ScrapeRequest(models.ScrapeRequest{URL: "aliexpress.com/item/1.html"}))

	assert.NoError(t, PriceUpdateRequest(models.PriceUpdateRequest{Products: []models.PriceUpdateItem{{ProductID: "p1", URL: "https://www.aliexpress.com/item/1.html"}}}))
	assert.Error(t, PriceUpdateRequest(models.PriceUpdateRequest{}))
	assert.Error(t, PriceUpdateRequest(models.PriceUpdateRequest{Products: []models.PriceUpdateItem{{URL: "https://www.aliexpress.com/item/1.html"}}}))

	assert.NoError(t, TrackingRequest(models.TrackingRequest{TrackingNumber: "LP00123456789"}))
	assert.Error(t, TrackingRequest(models.TrackingRequest{TrackingNumber: "  "}))
	assert.Error(t, TrackingRequest(models.TrackingRequest{TrackingNumber: "../etc"}))
}
