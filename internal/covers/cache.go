package covers

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mrlokans/pubshelf/internal/imaging"
	"github.com/mrlokans/pubshelf/internal/publication"
)

// Encoder writes bitmaps in an output format.
type Encoder interface {
	Encode(w io.Writer, img image.Image, format imaging.Format) error
}

// RenderFunc produces a cover bitmap, reporting false when there is none.
type RenderFunc func(ctx context.Context) (image.Image, bool)

// DefaultRenderTimeout bounds a single shared cover render.
const DefaultRenderTimeout = 2 * time.Minute

// Cache handles local caching of rendered cover images.
type Cache struct {
	cacheDir      string
	encoder       Encoder
	renderTimeout time.Duration
	group         singleflight.Group
}

// NewCache creates a new cover cache at the specified directory.
func NewCache(cacheDir string, encoder Encoder) (*Cache, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	return &Cache{
		cacheDir:      cacheDir,
		encoder:       encoder,
		renderTimeout: DefaultRenderTimeout,
	}, nil
}

// SetRenderTimeout replaces the time limit of a shared render (optional).
func (c *Cache) SetRenderTimeout(timeout time.Duration) {
	c.renderTimeout = timeout
}

// GetCover returns the path of the cached cover for a publication, rendering
// and caching it first if needed. A zero size denotes the full-size cover.
//
// Concurrent requests for the same file share a single render. The render is
// detached from the caller that started it, so one caller giving up does not
// fail the others; each caller stops waiting when its own ctx is done.
func (c *Cache) GetCover(ctx context.Context, publicationID uint, size publication.Size, format imaging.Format, render RenderFunc) (string, error) {
	filename := c.coverFilename(publicationID, size, format)
	cachePath := filepath.Join(c.cacheDir, filename)

	if _, err := os.Stat(cachePath); err == nil {
		return cachePath, nil
	}

	ch := c.group.DoChan(filename, func() (any, error) {
		// Another caller may have finished while we waited for the key.
		if _, err := os.Stat(cachePath); err == nil {
			return nil, nil
		}

		renderCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.renderTimeout)
		defer cancel()

		cover, ok := render(renderCtx)
		if !ok {
			if err := renderCtx.Err(); err != nil {
				return nil, fmt.Errorf("render cover %d: %w", publicationID, err)
			}
			return nil, publication.ErrNoCover
		}
		return nil, c.store(cover, format, cachePath)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return cachePath, nil
	}
}

// InvalidateCover removes every cached rendition of a publication cover.
func (c *Cache) InvalidateCover(publicationID uint) error {
	pattern := filepath.Join(c.cacheDir, fmt.Sprintf("cover_%d_*", publicationID))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}

	var errs []error
	for _, match := range matches {
		if err := os.Remove(match); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// coverFilename generates a unique filename from the publication, size and format.
func (c *Cache) coverFilename(publicationID uint, size publication.Size, format imaging.Format) string {
	if !size.Valid() {
		return fmt.Sprintf("cover_%d_full.%s", publicationID, format.Extension())
	}
	return fmt.Sprintf("cover_%d_%dx%d.%s", publicationID, size.Width, size.Height, format.Extension())
}

// store encodes a cover and saves it to the cache.
func (c *Cache) store(cover image.Image, format imaging.Format, cachePath string) error {
	// Create temp file in same directory for atomic write
	tmpFile, err := os.CreateTemp(c.cacheDir, "cover_tmp_")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath) // Clean up if we didn't rename
	}()

	if err := c.encoder.Encode(tmpFile, cover, format); err != nil {
		return fmt.Errorf("encode cover: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	// Atomic rename
	return os.Rename(tmpPath, cachePath)
}

// CacheDir returns the cache directory path.
func (c *Cache) CacheDir() string {
	return c.cacheDir
}
