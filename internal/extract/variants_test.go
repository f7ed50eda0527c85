package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwatchSourceURL(t *testing.T) {
	assert.Equal(t, "https://cdn/x.jpg", SwatchSourceURL("https://cdn/x.jpg_220x220.jpg_.avif"))
	assert.Equal(t, "https://cdn/x.webp", SwatchSourceURL("//cdn/x.webp_.avif"))
	assert.Equal(t, "https://cdn/x.png", SwatchSourceURL("https://cdn/x.png"))
}

func TestVariants(t *testing.T) {
	groups := Variants(parse(t, productPage), nil)

	require.Len(t, groups, 2)

	color := groups[0]
	assert.Equal(t, "Color", color.GroupName)
	require.Len(t, color.Options, 2)
	assert.Equal(t, "Rojo", color.Options[0].Value)
	assert.Equal(t, "https://ae01.alicdn.com/kf/Sred.jpg", color.Options[0].SourceImage)
	assert.Equal(t, "Azul", color.Options[1].Value)
	assert.Equal(t, "https://ae01.alicdn.com/kf/Sblue.webp", color.Options[1].SourceImage)
	for _, o := range color.Options {
		assert.Nil(t, o.Image)
		assert.Zero(t, o.ExtraPrice)
	}

	size := groups[1]
	assert.Equal(t, "Talla", size.GroupName)
	require.Len(t, size.Options, 2)
	assert.Equal(t, "S", size.Options[0].Value)
	assert.Equal(t, "M", size.Options[1].Value)
	assert.Empty(t, size.Options[0].SourceImage)
}

func TestVariantsAbsent(t *testing.T) {
	rec := &recorder{}
	groups := Variants(parse(t, `<div></div>`), rec)
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
	assert.Equal(t, []Outcome{OutcomeAbsent}, rec.outcomes("variants"))
}

func TestVariantsFallsBackToTextWhenAltIsEmpty(t *testing.T) {
	page := `<div class="sku-item--property--HuasaIz">
  <div class="sku-item--title--Z0HLO87">Color:</div>
  <div class="sku-item--skus--StEhULs">
    <div data-sku-col="14-10"><img src="https://ae01.alicdn.com/kf/Sred.jpg_220x220.jpg" alt=""><span>Rojo</span></div>
  </div>
</div>`

	groups := Variants(parse(t, page), nil)

	require.Len(t, groups, 1)
	assert.Equal(t, "Color", groups[0].GroupName)
	require.Len(t, groups[0].Options, 1)
	assert.Equal(t, "Rojo", groups[0].Options[0].Value)
	assert.Equal(t, "https://ae01.alicdn.com/kf/Sred.jpg", groups[0].Options[0].SourceImage)
}
