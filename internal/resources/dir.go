package resources

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/mrlokans/pubshelf/internal/publication"
)

// ErrOutsideRoot is returned for hrefs escaping the publication directory.
var ErrOutsideRoot = errors.New("href points outside the publication root")

// DirFetcher reads resources from an unpacked publication directory.
type DirFetcher struct {
	root    string
	fsys    fs.FS
	maxSize int64
}

// NewDirFetcher creates a fetcher rooted at dir. Resources larger than
// maxSize bytes are rejected; zero disables the limit.
func NewDirFetcher(dir string, maxSize int64) *DirFetcher {
	return &DirFetcher{
		root:    dir,
		fsys:    os.DirFS(dir),
		maxSize: maxSize,
	}
}

// Root returns the publication directory.
func (f *DirFetcher) Root() string {
	return f.root
}

// Read returns the content of the resource at link.Href.
func (f *DirFetcher) Read(ctx context.Context, link publication.Link) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &publication.FetchError{Href: link.Href, Err: err}
	}

	name, err := resolveHref(link.Href)
	if err != nil {
		return nil, &publication.FetchError{Href: link.Href, Err: err}
	}

	if f.maxSize > 0 {
		info, err := fs.Stat(f.fsys, name)
		if err != nil {
			return nil, &publication.FetchError{Href: link.Href, Err: mapFSError(err)}
		}
		if info.Size() > f.maxSize {
			return nil, &publication.FetchError{
				Href: link.Href,
				Err:  fmt.Errorf("resource is %d bytes, limit is %d", info.Size(), f.maxSize),
			}
		}
	}

	data, err := fs.ReadFile(f.fsys, name)
	if err != nil {
		return nil, &publication.FetchError{Href: link.Href, Err: mapFSError(err)}
	}
	return data, nil
}

// resolveHref turns a manifest href into a clean fs.FS path.
func resolveHref(href string) (string, error) {
	u, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse href: %w", err)
	}
	if u.Scheme != "" || u.Host != "" {
		return "", fmt.Errorf("absolute URL %q cannot be read from a directory", href)
	}

	p := u.Path
	if strings.HasPrefix(p, "/") {
		p = strings.TrimLeft(p, "/")
	}
	if p == "" {
		return "", publication.ErrResourceNotFound
	}
	for _, segment := range strings.Split(p, "/") {
		if segment == ".." {
			return "", ErrOutsideRoot
		}
	}

	name := path.Clean(p)
	if !fs.ValidPath(name) {
		return "", ErrOutsideRoot
	}
	return name, nil
}

func mapFSError(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return publication.ErrResourceNotFound
	}
	return err
}

var _ publication.Fetcher = (*DirFetcher)(nil)
