// Package assets materializes remote images as content-addressed local files.
package assets

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"github.com/maltedev/aliexpress-scraper/internal/metrics"
	"github.com/maltedev/aliexpress-scraper/internal/models"
	"github.com/maltedev/aliexpress-scraper/internal/telemetry"
	"golang.org/x/sync/errgroup"
)

const (
	ProductsDir = "products"
	BannersDir  = "banners"
)

var ErrNotFound = errors.New("asset not found")

type Config struct {
	// Dir is the storage root holding one flat directory per asset category.
	Dir string
	// PublicPrefix is prepended to category/filename to form the public URL.
	PublicPrefix string
	BatchSize    int
	Timeout      time.Duration
	UserAgent    string
	Referer      string
}

func DefaultConfig() Config {
	return Config{
		Dir:          "uploads",
		PublicPrefix: "/uploads",
		BatchSize:    5,
		Timeout:      15 * time.Second,
		UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		Referer:      "https://www.aliexpress.com/",
	}
}

type Store struct {
	client  *resty.Client
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewStore(cfg Config, m *metrics.Metrics, logger *slog.Logger) *Store {
	def := DefaultConfig()
	if cfg.BatchSize < 1 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.Referer == "" {
		cfg.Referer = def.Referer
	}
	cfg.PublicPrefix = strings.TrimSuffix(cfg.PublicPrefix, "/")

	client := resty.New()
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("User-Agent", cfg.UserAgent)
	client.SetHeader("Referer", cfg.Referer)
	telemetry.InstrumentResty(client, "assets/http")

	return &Store{
		client:  client,
		cfg:     cfg,
		logger:  logger.With("component", "assets"),
		metrics: m,
		now:     time.Now,
	}
}

// Client exposes the HTTP client, mainly so tests can mock its transport.
func (s *Store) Client() *resty.Client {
	return s.client
}

func (s *Store) Root() string {
	return s.cfg.Dir
}

func hash8(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])[:8]
}

var unsafeOwner = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func sanitizeOwner(ownerID string) string {
	return unsafeOwner.ReplaceAllString(ownerID, "-")
}

// Filename is {owner}_{index}_{md5(url)[:8]}.{ext}; the same URL, owner and
// index always produce the same name.
func Filename(ownerID string, index int, sourceURL, ext string) string {
	return fmt.Sprintf("%s_%d_%s.%s", sanitizeOwner(ownerID), index, hash8([]byte(sourceURL)), ext)
}

// ExtensionFor maps a response content type to a file extension, defaulting to jpg.
func ExtensionFor(contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "png"):
		return "png"
	case strings.Contains(ct, "webp"):
		return "webp"
	default:
		return "jpg"
	}
}

func (s *Store) publicURL(category, filename string) string {
	return s.cfg.PublicPrefix + "/" + category + "/" + filename
}

// DownloadAll fetches urls in chunks of BatchSize, each chunk in parallel and
// chunks one after another. The result is index-aligned with urls; a failed
// download leaves nil in its slot.
func (s *Store) DownloadAll(ctx context.Context, urls []string, ownerID string) []*models.ImageAsset {
	results := make([]*models.ImageAsset, len(urls))
	if len(urls) == 0 {
		return results
	}

	dir := filepath.Join(s.cfg.Dir, ProductsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.logger.Error("failed to create asset directory", "dir", dir, "error", err)
		return results
	}

	for start := 0; start < len(urls); start += s.cfg.BatchSize {
		if ctx.Err() != nil {
			s.logger.Warn("download cancelled", "owner", ownerID, "remaining", len(urls)-start)
			break
		}
		end := min(start+s.cfg.BatchSize, len(urls))

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				started := time.Now()
				asset, err := s.download(ctx, dir, urls[i], ownerID, i)
				s.metrics.ObserveDownload(err, time.Since(started))
				if err != nil {
					s.logger.Warn("image download failed", "url", urls[i], "index", i, "error", err)
					return nil
				}
				results[i] = asset
				return nil
			})
		}
		_ = g.Wait()
	}

	return results
}

func (s *Store) download(ctx context.Context, dir, sourceURL, ownerID string, index int) (*models.ImageAsset, error) {
	resp, err := s.client.R().SetContext(ctx).Get(sourceURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("failed to fetch image: status %d", resp.StatusCode())
	}
	body := resp.Body()
	if len(body) == 0 {
		return nil, fmt.Errorf("failed to fetch image: empty body")
	}

	name := Filename(ownerID, index, sourceURL, ExtensionFor(resp.Header().Get("Content-Type")))
	path := filepath.Join(dir, name)
	if err := writeFileAtomic(dir, path, body); err != nil {
		return nil, err
	}

	return &models.ImageAsset{
		OriginalURL: sourceURL,
		Filename:    name,
		LocalPath:   path,
		PublicURL:   s.publicURL(ProductsDir, name),
	}, nil
}

func writeFileAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close image: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set image permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to store image: %w", err)
	}
	return nil
}
