package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	// Registry is served at /metrics when set.
	Registry *prometheus.Registry
	// AssetsDir is served under AssetsPrefix when both are set.
	AssetsDir    string
	AssetsPrefix string
}

func NewRouter(h *Handlers, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health)
	if cfg.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))
	}
	if cfg.AssetsDir != "" && cfg.AssetsPrefix != "" {
		prefix := "/" + strings.Trim(cfg.AssetsPrefix, "/")
		files := http.StripPrefix(prefix, http.FileServer(http.Dir(cfg.AssetsDir)))
		r.Get(prefix+"/*", files.ServeHTTP)
	}

	r.Group(func(r chi.Router) {
		if cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(cfg.RequestTimeout))
		}

		r.Post("/scrape", h.Scrape)
		r.Post("/update-prices", h.UpdatePrices)
		r.Post("/tracking", h.Track)

		r.Route("/api", func(r chi.Router) {
			r.Post("/products-images/delete", h.DeleteImages)
			r.Post("/products/{id}/images/delete-all", h.DeleteAllImages)
			r.Post("/banners", h.UploadBanner)
		})
	})

	return r
}
