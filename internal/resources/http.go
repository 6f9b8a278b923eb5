package resources

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/mrlokans/pubshelf/internal/publication"
)

// DefaultUserAgent is sent with every remote resource request.
const DefaultUserAgent = "Pubshelf/1.0"

// HTTPFetcher reads remote resources and keeps a copy of each response body in
// a local cache directory.
type HTTPFetcher struct {
	cacheDir   string
	httpClient *http.Client
	userAgent  string
	maxSize    int64
}

// NewHTTPFetcher creates a fetcher caching into cacheDir. An empty cacheDir
// disables caching.
func NewHTTPFetcher(cacheDir string, timeout time.Duration, maxSize int64) (*HTTPFetcher, error) {
	if cacheDir != "" {
		if err := os.MkdirAll(cacheDir, 0755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}

	return &HTTPFetcher{
		cacheDir: cacheDir,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: DefaultUserAgent,
		maxSize:   maxSize,
	}, nil
}

// SetHTTPClient replaces the HTTP client (optional).
func (f *HTTPFetcher) SetHTTPClient(client *http.Client) {
	f.httpClient = client
}

// SetUserAgent replaces the User-Agent header (optional).
func (f *HTTPFetcher) SetUserAgent(userAgent string) {
	f.userAgent = userAgent
}

// Read returns the body of link.Href, from the cache when present.
func (f *HTTPFetcher) Read(ctx context.Context, link publication.Link) ([]byte, error) {
	cachePath := f.cachePath(link.Href)
	if cachePath != "" {
		if data, err := os.ReadFile(cachePath); err == nil {
			return data, nil
		}
	}

	data, err := f.fetch(ctx, link.Href)
	if err != nil {
		return nil, &publication.FetchError{Href: link.Href, Err: err}
	}

	if cachePath != "" {
		// A failed cache write only costs a refetch.
		_ = f.store(cachePath, data)
	}
	return data, nil
}

// Invalidate removes the cached copy of href.
func (f *HTTPFetcher) Invalidate(href string) error {
	cachePath := f.cachePath(href)
	if cachePath == "" {
		return nil
	}
	if err := os.Remove(cachePath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// cachePath returns a content-addressed file name for href.
func (f *HTTPFetcher) cachePath(href string) string {
	if f.cacheDir == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(href))
	return filepath.Join(f.cacheDir, fmt.Sprintf("res_%x", hash[:12]))
}

func (f *HTTPFetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return nil, publication.ErrResourceNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body := io.Reader(resp.Body)
	if f.maxSize > 0 {
		body = io.LimitReader(resp.Body, f.maxSize+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if f.maxSize > 0 && int64(len(data)) > f.maxSize {
		return nil, errors.New("resource exceeds size limit")
	}
	return data, nil
}

// store writes data through a temp file in the cache directory and renames it
// into place.
func (f *HTTPFetcher) store(cachePath string, data []byte) error {
	tmpFile, err := os.CreateTemp(f.cacheDir, "res_tmp_")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, cachePath)
}

var _ publication.Fetcher = (*HTTPFetcher)(nil)
