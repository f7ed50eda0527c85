package extract

import (
	"testing"

	"github.com/maltedev/aliexpress-scraper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDeliveryWindow(t *testing.T) {
	tests := []struct {
		text  string
		want  models.DeliveryWindow
		found bool
	}{
		{"Entrega: 12 - 25 de nov.", models.DeliveryWindow{Min: 12, Max: 25}, true},
		{"entrega 3-7 DE marzo", models.DeliveryWindow{Min: 3, Max: 7}, true},
		{"Recíbelo 5 - 9 de diciembre o antes", models.DeliveryWindow{Min: 5, Max: 9}, true},
		{"Envío gratis", models.DeliveryWindow{}, false},
		{"Llega el 5 de diciembre", models.DeliveryWindow{}, false},
		{"", models.DeliveryWindow{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := ParseDeliveryWindow(tt.text)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestShipping(t *testing.T) {
	t.Run("first matching line wins", func(t *testing.T) {
		quote := Shipping(parse(t, productPage), nil)
		assert.Equal(t, models.ShippingCost, quote.Cost)

		w, ok := quote.EstimatedDelivery.Window()
		require.True(t, ok)
		assert.Equal(t, models.DeliveryWindow{Min: 12, Max: 25}, w)
	})

	t.Run("no window leaves delivery empty", func(t *testing.T) {
		quote := Shipping(parse(t, `<div class="dynamic-shipping-line">Envío gratis</div>`), nil)
		assert.Equal(t, models.ShippingCost, quote.Cost)
		assert.Nil(t, quote.EstimatedDelivery.Min)
		assert.Nil(t, quote.EstimatedDelivery.Max)
	})
}
