package models

import (
	"encoding/json"
	"fmt"
	"math"
)

// Defaults applied by the normalizer when a field could not be extracted.
const (
	DefaultTitle        = "Producto sin título"
	DefaultDetails      = "Sin descripción disponible"
	DefaultSellerName   = "Vendedor de AliExpress"
	DefaultCurrency     = "EUR"
	ShippingCost        = 1.99
	DefaultDeliveryMin  = 15
	DefaultDeliveryMax  = 30
	ExternalIDPrefix    = "ALI_"
	MaxDiscountPercent  = 100
	MinPlausibleTitleLn = 5
)

type ProductRecord struct {
	Title                string           `json:"title"`
	Details              string           `json:"details"`
	Specifications       SpecificationMap `json:"specifications"`
	BasePrice            float64          `json:"basePrice"`
	OriginalPrice        float64          `json:"originalPrice"`
	Discount             int              `json:"discount"`
	Currency             string           `json:"currency"`
	Images               []string         `json:"images"`
	ShippingCost         float64          `json:"shippingCost"`
	DeliveryEstimateDays DeliveryWindow   `json:"deliveryEstimateDays"`
	Variants             []VariantGroup   `json:"variants"`
	SellerName           string           `json:"sellerName"`
	ExternalID           string           `json:"externalId"`
	SourceURL            string           `json:"sourceUrl"`
}

// PriceQuote holds the selling price and the struck-through price, if any.
// Original equals Current when the page shows no distinct original price.
type PriceQuote struct {
	Current  float64 `json:"current"`
	Original float64 `json:"original"`
}

// Discount is the rounded percentage saved, or 0 when Original does not exceed Current.
func (q PriceQuote) Discount() int {
	if q.Original <= 0 || q.Original <= q.Current {
		return 0
	}
	d := int(math.Round((q.Original - q.Current) / q.Original * 100))
	if d < 0 {
		return 0
	}
	if d > MaxDiscountPercent {
		return MaxDiscountPercent
	}
	return d
}

type DeliveryWindow struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func DefaultDeliveryWindow() DeliveryWindow {
	return DeliveryWindow{Min: DefaultDeliveryMin, Max: DefaultDeliveryMax}
}

// EstimatedDelivery serializes as {min:null,max:null} when no window was found.
type EstimatedDelivery struct {
	Min *int `json:"min"`
	Max *int `json:"max"`
}

func (e EstimatedDelivery) Window() (DeliveryWindow, bool) {
	if e.Min == nil || e.Max == nil {
		return DeliveryWindow{}, false
	}
	return DeliveryWindow{Min: *e.Min, Max: *e.Max}, true
}

type ShippingQuote struct {
	Cost              float64           `json:"cost"`
	EstimatedDelivery EstimatedDelivery `json:"estimatedDelivery"`
}

// SpecValue is one specification value, or several when the label repeats.
type SpecValue []string

func (v SpecValue) MarshalJSON() ([]byte, error) {
	if len(v) == 1 {
		return json.Marshal(v[0])
	}
	return json.Marshal([]string(v))
}

func (v *SpecValue) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*v = SpecValue{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("specification value must be a string or list: %w", err)
	}
	*v = SpecValue(many)
	return nil
}

type SpecificationMap map[string]SpecValue

// Add appends value under label; a repeated label accumulates rather than overwrites.
func (m SpecificationMap) Add(label, value string) {
	m[label] = append(m[label], value)
}

type VariantGroup struct {
	GroupName string          `json:"groupName"`
	Options   []VariantOption `json:"options"`
}

type VariantOption struct {
	Value      string  `json:"value"`
	ExtraPrice float64 `json:"extraPrice"`
	Image      *string `json:"image"`

	// SourceImage is the remote swatch URL seen during extraction. It is
	// cleared by reconciliation and never serialized.
	SourceImage string `json:"-"`
}

type ImageAsset struct {
	OriginalURL string `json:"originalUrl"`
	Filename    string `json:"filename"`
	LocalPath   string `json:"localPath"`
	PublicURL   string `json:"publicUrl"`
}

type ScrapeRequest struct {
	URL string `json:"url"`
}

type PriceUpdateItem struct {
	ProductID string `json:"productId"`
	URL       string `json:"url"`
}

// UnmarshalJSON accepts "id" as an alias of "productId".
func (i *PriceUpdateItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		ProductID string `json:"productId"`
		ID        string `json:"id"`
		URL       string `json:"url"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	i.ProductID = raw.ProductID
	if i.ProductID == "" {
		i.ProductID = raw.ID
	}
	i.URL = raw.URL
	return nil
}

type PriceUpdateRequest struct {
	Products []PriceUpdateItem `json:"products"`
}

type PriceUpdate struct {
	BasePrice            float64        `json:"basePrice"`
	OriginalPrice        float64        `json:"originalPrice"`
	Discount             int            `json:"discount"`
	DeliveryEstimateDays DeliveryWindow `json:"deliveryEstimateDays"`
}

type PriceUpdateResult struct {
	ProductID string `json:"productId"`
	Success   bool   `json:"success"`
	*PriceUpdate
	Error string `json:"error,omitempty"`
}
