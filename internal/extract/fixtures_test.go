package extract

import (
	"testing"

	"github.com/maltedev/aliexpress-scraper/internal/dom"
	"github.com/stretchr/testify/require"
)

const productPage = `<html><body>
<div class="title--wrap--UUHae_g"><h1 data-pl="product-title">Auriculares inalámbricos Bluetooth 5.3</h1></div>
<div class="store-detail--storeName--Lk2FVZ4"> Tienda Oficial XYZ </div>
<div class="price-default--currentWrap--A_MNgCG"><span class="price-default--current--F8OlYIo">19,99€</span></div>
<div class="price-default--priceExtraFont12--pRHaee0"><span class="price-default--original--CWcHOit">29,99€</span></div>
<div class="slider--wrap">
  <div class="slider--img--kD4mIg7"><img src="https://ae01.alicdn.com/kf/Sabc.jpg_220x220.jpg_.avif"></div>
  <div class="slider--img--kD4mIg7"><img src="//ae01.alicdn.com/kf/Sabc.jpg_50x50.jpg"></div>
  <div class="slider--img--kD4mIg7"><img src="https://ae01.alicdn.com/kf/Sdef.png_220x220.png"></div>
  <div class="slider--img--kD4mIg7"><img src="data:image/gif;base64,R0lGOD"></div>
</div>
<div class="sku-item--property--HuasaIz">
  <div class="sku-item--title--Z0HLO87"><span>Color:</span></div>
  <div class="sku-item--skus--StEhULs">
    <div data-sku-col="14-173"><img src="https://ae01.alicdn.com/kf/Sred.jpg_220x220.jpg_.avif" alt=" Rojo "></div>
    <div data-sku-col="14-174"><img src="//ae01.alicdn.com/kf/Sblue.webp_220x220.webp_.avif" alt="Azul"></div>
  </div>
</div>
<div class="sku-item--property--HuasaIz">
  <div class="sku-item--title--Z0HLO87">Talla:</div>
  <div class="sku-item--skus--StEhULs">
    <div data-sku-col="5-1"><span>S</span></div>
    <div data-sku-col="5-2">M</div>
    <div data-sku-col="5-3">  </div>
  </div>
</div>
<div class="sku-item--property--HuasaIz">
  <div class="sku-item--title--Z0HLO87">Envío desde:</div>
  <div class="sku-item--skus--StEhULs"></div>
</div>
<div class="specification--list">
  <div class="specification--prop--Jh28bKu">
    <div class="specification--title--SfH3sA8"><span> Color </span></div>
    <div class="specification--desc--Dxx6W0W"><span>Rojo</span></div>
  </div>
  <div class="specification--prop--Jh28bKu">
    <div class="specification--title--SfH3sA8"><span>Material</span></div>
    <div class="specification--desc--Dxx6W0W"><span>ABS</span></div>
  </div>
  <div class="specification--prop--Jh28bKu">
    <div class="specification--title--SfH3sA8"><span>Color</span></div>
    <div class="specification--desc--Dxx6W0W"><span>Azul</span></div>
  </div>
  <div class="specification--prop--Jh28bKu">
    <div class="specification--title--SfH3sA8"><span>Vacío</span></div>
    <div class="specification--desc--Dxx6W0W"><span></span></div>
  </div>
</div>
<div class="dynamic-shipping">
  <div class="dynamic-shipping-line">Envío: 1,99€</div>
  <div class="dynamic-shipping-line">Entrega: 12 - 25 de nov.</div>
  <div class="dynamic-shipping-line">Entrega: 2 - 4 de dic.</div>
</div>
</body></html>`

const trackingPage = `<html><body>
<div id="parcel-status-info">
  <div class="package-status-header">  En
     tránsito </div>
  <div class="package-status-info-code">LP00123456789</div>
  <div class="package-status-info-box">El paquete ha salido del
    centro de clasificación</div>
</div>
<ul class="package-info-list">
  <li><div class="package-info-list-title">País del remitente</div><div class="package-info-list-content">China Cambiar</div></li>
  <li><div class="package-info-list-title">País del receptor</div><div class="package-info-list-content">España Cambiar</div></li>
  <li><div class="package-info-list-title">Servicio de entrega</div>
      <div class="package-info-list-content"><a href="/couriers/cainiao">Cainiao</a>, <a href="/couriers/correos"> Correos </a><a href="/help">Ayuda</a></div></li>
  <li><div class="package-info-list-title">Peso</div><div class="package-info-list-content">0.25 kg</div></li>
  <li><div class="package-info-list-title">Otro</div><div class="package-info-list-content"></div></li>
</ul>
<div class="package-info-delivery-days-value">12 días</div>
<div class="package-timeline">
  <div class="package-timeline__item package-timeline__item--active">
    <div class="package-timeline__time">18.10.2026 09:12</div>
    <div class="package-timeline__post"><a href="/couriers/correos">Correos</a></div>
    <div class="package-timeline__title">En reparto</div>
    <div class="package-timeline__description">Madrid</div>
  </div>
  <div class="package-timeline__item">
    <div class="package-timeline__time">12.10.2026 22:40</div>
    <div class="package-timeline__title">Salida del país de origen</div>
  </div>
  <div class="package-timeline__item">
    <div class="package-timeline__title">Sin fecha</div>
  </div>
</div>
</body></html>`

func parse(t *testing.T, html string) dom.Node {
	t.Helper()
	root, err := dom.ParseString(html)
	require.NoError(t, err)
	return root
}

// recorder collects events for assertions.
type recorder struct {
	events []Event
}

func (r *recorder) Record(e Event) { r.events = append(r.events, e) }

func (r *recorder) outcomes(field string) []Outcome {
	var out []Outcome
	for _, e := range r.events {
		if e.Field == field {
			out = append(out, e.Outcome)
		}
	}
	return out
}
