package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/maltedev/aliexpress-scraper/internal/assets"
	"github.com/maltedev/aliexpress-scraper/internal/browser"
	"github.com/maltedev/aliexpress-scraper/internal/models"
	"github.com/maltedev/aliexpress-scraper/internal/normalize"
)

const maxBannerBytes = 10 << 20

type ProductScraper interface {
	Scrape(ctx context.Context, url string) (*models.ProductRecord, error)
}

type PriceUpdater interface {
	Update(ctx context.Context, items []models.PriceUpdateItem) []models.PriceUpdateResult
}

type Tracker interface {
	Track(ctx context.Context, trackingNumber string) (*models.TrackingRecord, error)
}

type AssetStore interface {
	DeleteAll(ownerID string) (int, error)
	DeleteByPublicURL(publicURL string) error
	SaveBanner(content []byte, ext string) (*models.ImageAsset, error)
}

// Backlog reports the outbox queue depth. It is nil when persistence is off.
type Backlog interface {
	Backlog(ctx context.Context) (pending, deadLetter int64, err error)
}

type Handlers struct {
	products ProductScraper
	prices   PriceUpdater
	tracking Tracker
	assets   AssetStore
	backlog  Backlog
	logger   *slog.Logger
}

func NewHandlers(products ProductScraper, prices PriceUpdater, tracking Tracker, assets AssetStore, logger *slog.Logger) *Handlers {
	return &Handlers{
		products: products,
		prices:   prices,
		tracking: tracking,
		assets:   assets,
		logger:   logger.With("component", "api"),
	}
}

func (h *Handlers) SetBacklog(b Backlog) {
	h.backlog = b
}

type PriceUpdateResponse struct {
	Results []models.PriceUpdateResult `json:"results"`
}

type DeleteImagesRequest struct {
	Images []ImageRef `json:"images"`
}

type ImageRef struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type DeleteImagesResponse struct {
	Deleted []string `json:"deleted"`
	Failed  []string `json:"failed"`
}

type DeleteAllImagesResponse struct {
	ProductID string `json:"productId"`
	Deleted   int    `json:"deleted"`
}

// Scrape handles POST /scrape.
func (h *Handlers) Scrape(w http.ResponseWriter, r *http.Request) {
	var req models.ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := normalize.ScrapeRequest(req); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.products.Scrape(r.Context(), req.URL)
	if err != nil {
		h.logger.Error("failed to scrape product", "error", err, "url", req.URL)
		h.respondError(w, statusFor(err), err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, rec)
}

// UpdatePrices handles POST /update-prices. Per-item failures are part of a
// 200 response.
func (h *Handlers) UpdatePrices(w http.ResponseWriter, r *http.Request) {
	var req models.PriceUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := normalize.PriceUpdateRequest(req); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	results := h.prices.Update(r.Context(), req.Products)
	h.respondJSON(w, http.StatusOK, PriceUpdateResponse{Results: results})
}

// Track handles POST /tracking.
func (h *Handlers) Track(w http.ResponseWriter, r *http.Request) {
	var req models.TrackingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := normalize.TrackingRequest(req); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.tracking.Track(r.Context(), req.TrackingNumber)
	if err != nil {
		h.logger.Error("failed to track parcel", "error", err, "trackingNumber", req.TrackingNumber)
		h.respondError(w, statusFor(err), err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, rec)
}

// DeleteImages handles POST /api/products-images/delete.
func (h *Handlers) DeleteImages(w http.ResponseWriter, r *http.Request) {
	var req DeleteImagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Images) == 0 {
		h.respondError(w, http.StatusBadRequest, "images is required")
		return
	}

	resp := DeleteImagesResponse{Deleted: []string{}, Failed: []string{}}
	for _, img := range req.Images {
		if err := h.assets.DeleteByPublicURL(img.URL); err != nil {
			if !errors.Is(err, assets.ErrNotFound) {
				h.logger.Warn("failed to delete image", "error", err, "id", img.ID, "url", img.URL)
			}
			resp.Failed = append(resp.Failed, img.ID)
			continue
		}
		resp.Deleted = append(resp.Deleted, img.ID)
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// DeleteAllImages handles POST /api/products/{id}/images/delete-all. The id is
// the external id the images were downloaded under.
func (h *Handlers) DeleteAllImages(w http.ResponseWriter, r *http.Request) {
	productID := strings.TrimSpace(chi.URLParam(r, "id"))
	if productID == "" {
		h.respondError(w, http.StatusBadRequest, "product id is required")
		return
	}

	deleted, err := h.assets.DeleteAll(productID)
	if err != nil {
		h.logger.Error("failed to delete product images", "error", err, "productId", productID, "deleted", deleted)
		h.respondError(w, http.StatusInternalServerError, "failed to delete product images")
		return
	}

	h.respondJSON(w, http.StatusOK, DeleteAllImagesResponse{ProductID: productID, Deleted: deleted})
}

// UploadBanner handles POST /api/banners with the raw image as body.
func (h *Handlers) UploadBanner(w http.ResponseWriter, r *http.Request) {
	content, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBannerBytes))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid banner body")
		return
	}
	if len(content) == 0 {
		h.respondError(w, http.StatusBadRequest, "banner body is empty")
		return
	}

	asset, err := h.assets.SaveBanner(content, assets.ExtensionFor(r.Header.Get("Content-Type")))
	if err != nil {
		h.logger.Error("failed to save banner", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to save banner")
		return
	}

	h.respondJSON(w, http.StatusCreated, asset)
}

// Health handles GET /health. With persistence enabled it includes the outbox
// backlog and degrades when dead letters pile up.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{"status": "ok"}
	status := http.StatusOK

	if h.backlog != nil {
		pending, deadLetter, err := h.backlog.Backlog(r.Context())
		if err != nil {
			h.logger.Error("failed to read outbox backlog", "error", err)
			health["status"] = "error"
			health["message"] = "outbox unavailable"
			h.respondJSON(w, http.StatusServiceUnavailable, health)
			return
		}

		health["outbox"] = map[string]any{
			"pending":     pending,
			"dead_letter": deadLetter,
		}
		if pending > 1000 {
			health["status"] = "warning"
			health["message"] = "High number of pending outbox events"
		}
		if deadLetter > 100 {
			health["status"] = "error"
			health["message"] = "High number of dead letter events"
			status = http.StatusServiceUnavailable
		}
	}

	h.respondJSON(w, status, health)
}

func statusFor(err error) int {
	var validationErr *normalize.ValidationError
	var extractionErr *browser.ExtractionError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &extractionErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
