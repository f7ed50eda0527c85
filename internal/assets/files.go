package assets

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/maltedev/aliexpress-scraper/internal/models"
)

// DeleteAll removes every product asset owned by ownerID and returns how many were removed.
func (s *Store) DeleteAll(ownerID string) (int, error) {
	dir := filepath.Join(s.cfg.Dir, ProductsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to list assets: %w", err)
	}

	prefix := sanitizeOwner(ownerID) + "_"
	removed := 0
	var errs []error
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}

	s.logger.Info("deleted product assets", "owner", ownerID, "count", removed)
	if len(errs) > 0 {
		return removed, fmt.Errorf("failed to delete %d assets: %v", len(errs), errs)
	}
	return removed, nil
}

// DeleteByPublicURL removes the product asset a public URL points at.
func (s *Store) DeleteByPublicURL(publicURL string) error {
	prefix := s.publicURL(ProductsDir, "")
	if !strings.HasPrefix(publicURL, prefix) {
		return fmt.Errorf("not a product asset url: %q", publicURL)
	}
	name := strings.TrimPrefix(publicURL, prefix)
	if name == "" || name != path.Base(name) || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid asset name: %q", name)
	}

	if err := os.Remove(filepath.Join(s.cfg.Dir, ProductsDir, name)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	return nil
}

// SaveBanner stores banner content as banner_{unixmillis}_{md5(content)[:8]}{ext}.
func (s *Store) SaveBanner(content []byte, ext string) (*models.ImageAsset, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("banner content is empty")
	}
	ext = strings.ToLower(ext)
	if ext == "" {
		ext = ".jpg"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	dir := filepath.Join(s.cfg.Dir, BannersDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create banner directory: %w", err)
	}

	name := "banner_" + strconv.FormatInt(s.now().UnixMilli(), 10) + "_" + hash8(content) + ext
	local := filepath.Join(dir, name)
	if err := writeFileAtomic(dir, local, content); err != nil {
		return nil, err
	}

	return &models.ImageAsset{
		Filename:  name,
		LocalPath: local,
		PublicURL: s.publicURL(BannersDir, name),
	}, nil
}
