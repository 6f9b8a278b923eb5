package covers

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/mrlokans/pubshelf/internal/publication"
)

// DefaultOpenLibraryCoversURL is the OpenLibrary covers API.
const DefaultOpenLibraryCoversURL = "https://covers.openlibrary.org"

// OpenLibrary renditions, with the approximate height OpenLibrary serves them at.
var openLibraryRenditions = []struct {
	code   string
	height int
}{
	{code: "S", height: 60},
	{code: "M", height: 270},
	{code: "L", height: 0},
}

// OpenLibraryClient downloads cover images by ISBN from the OpenLibrary covers API.
type OpenLibraryClient struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	rateLimiter *rateLimiter
}

type rateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	interval time.Duration
}

func newRateLimiter(interval time.Duration) *rateLimiter {
	return &rateLimiter{interval: interval}
}

func (r *rateLimiter) wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if since := time.Since(r.lastCall); since < r.interval {
		timer := time.NewTimer(r.interval - since)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	r.lastCall = time.Now()
	return nil
}

// NewOpenLibraryClient creates a new OpenLibrary covers client with rate limiting.
func NewOpenLibraryClient(baseURL string, interval time.Duration) *OpenLibraryClient {
	if baseURL == "" {
		baseURL = DefaultOpenLibraryCoversURL
	}
	return &OpenLibraryClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:     baseURL,
		userAgent:   "Pubshelf/1.0 (https://github.com/mrlokans/pubshelf)",
		rateLimiter: newRateLimiter(interval),
	}
}

// FetchCover downloads the cover for isbn in the given rendition ("S", "M" or "L").
// It returns publication.ErrNoCover when OpenLibrary has no cover for the book.
func (c *OpenLibraryClient) FetchCover(ctx context.Context, isbn, rendition string) ([]byte, error) {
	if err := c.rateLimiter.wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/b/isbn/%s-%s.jpg?default=false", c.baseURL, isbn, rendition)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch cover: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, publication.ErrNoCover
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read cover: %w", err)
	}
	return data, nil
}

// Factory returns a cover service factory backed by OpenLibrary. It declines
// publications without an ISBN, and publications declaring their own cover
// links unless preferRemote is set.
func (c *OpenLibraryClient) Factory(preferRemote bool) publication.CoverServiceFactory {
	return func(ctx publication.ServiceContext) (publication.CoverService, error) {
		isbn := ctx.Manifest.Metadata.ISBN()
		if isbn == "" {
			return nil, nil
		}
		if !preferRemote && len(ctx.Manifest.LinksWithRel(publication.RelCover)) > 0 {
			return nil, nil
		}
		if ctx.Images == nil {
			return nil, fmt.Errorf("openlibrary covers need an image provider")
		}
		return &openLibraryCover{client: c, isbn: isbn, images: ctx.Images}, nil
	}
}

// openLibraryCover serves the cover of one publication.
type openLibraryCover struct {
	client *OpenLibraryClient
	isbn   string
	images publication.ImageProvider
}

func (s *openLibraryCover) Cover(ctx context.Context) (image.Image, error) {
	return s.fetch(ctx, "L")
}

// CoverFitting downloads the smallest rendition tall enough for maxSize, so
// thumbnails never need the large image.
func (s *openLibraryCover) CoverFitting(ctx context.Context, maxSize publication.Size) (image.Image, error) {
	rendition := "L"
	for _, r := range openLibraryRenditions {
		if r.height >= maxSize.Height {
			rendition = r.code
			break
		}
	}

	cover, err := s.fetch(ctx, rendition)
	if err != nil {
		return nil, err
	}
	return s.images.ScaleToFit(cover, maxSize), nil
}

func (s *openLibraryCover) fetch(ctx context.Context, rendition string) (image.Image, error) {
	data, err := s.client.FetchCover(ctx, s.isbn, rendition)
	if err != nil {
		return nil, err
	}
	return s.images.Decode(data)
}

var (
	_ publication.CoverService = (*openLibraryCover)(nil)
	_ publication.CoverFitter  = (*openLibraryCover)(nil)
)
