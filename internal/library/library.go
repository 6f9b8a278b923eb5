// Package library turns stored publications into open publication.Publication
// instances wired with a fetcher, an image provider and cover services.
package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/mrlokans/pubshelf/internal/database/publications"
	"github.com/mrlokans/pubshelf/internal/entities"
	"github.com/mrlokans/pubshelf/internal/publication"
	"github.com/mrlokans/pubshelf/internal/resources"
)

// Store is the subset of the publications repository the library reads from.
type Store interface {
	GetByID(id uint) (*entities.Publication, error)
	ListIDs() ([]uint, error)
}

// Options configures how publications are opened.
type Options struct {
	// RootDir is joined with relative publication root paths.
	RootDir string
	// Remote reads absolute http(s) hrefs. Nil disables remote resources.
	Remote publication.Fetcher
	Images publication.ImageProvider
	Logger *slog.Logger
	// CoverFactory, when set, is registered as the cover capability.
	CoverFactory    publication.CoverServiceFactory
	MaxResourceSize int64
}

// Library keeps at most one open publication per stored ID.
type Library struct {
	store Store
	opts  Options

	mu   sync.Mutex
	open map[uint]*publication.Publication
}

// New creates a library reading records from store.
func New(store Store, opts Options) *Library {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Library{
		store: store,
		opts:  opts,
		open:  make(map[uint]*publication.Publication),
	}
}

// Open returns the publication with the given ID, building it on first use.
// It returns publications.ErrNotFound when no such record exists.
func (l *Library) Open(ctx context.Context, id uint) (*publication.Publication, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	if pub, ok := l.open[id]; ok {
		l.mu.Unlock()
		return pub, nil
	}
	l.mu.Unlock()

	record, err := l.store.GetByID(id)
	if err != nil {
		return nil, err
	}
	manifest, err := publications.ToManifest(record)
	if err != nil {
		return nil, err
	}
	pub := Build(manifest, l.resolveRoot(record.RootPath), l.opts)

	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.open[id]; ok {
		pub.Close()
		return existing, nil
	}
	l.open[id] = pub
	return pub, nil
}

// Evict closes and forgets the open publication with the given ID, if any.
func (l *Library) Evict(id uint) error {
	l.mu.Lock()
	pub, ok := l.open[id]
	delete(l.open, id)
	l.mu.Unlock()

	if !ok {
		return nil
	}
	return pub.Close()
}

// ForEach opens every stored publication in ID order and calls fn with it.
// Records that vanish while iterating are skipped. Iteration stops at the
// first error returned by fn or when ctx is done.
func (l *Library) ForEach(ctx context.Context, fn func(id uint, pub *publication.Publication) error) error {
	ids, err := l.store.ListIDs()
	if err != nil {
		return fmt.Errorf("list publications: %w", err)
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		pub, err := l.Open(ctx, id)
		if errors.Is(err, publications.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("open publication %d: %w", id, err)
		}
		if err := fn(id, pub); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every open publication.
func (l *Library) Close() error {
	l.mu.Lock()
	open := l.open
	l.open = make(map[uint]*publication.Publication)
	l.mu.Unlock()

	var errs []error
	for _, pub := range open {
		if err := pub.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (l *Library) resolveRoot(rootPath string) string {
	if rootPath == "" || filepath.IsAbs(rootPath) || l.opts.RootDir == "" {
		return rootPath
	}
	return filepath.Join(l.opts.RootDir, rootPath)
}

// Build assembles a publication whose relative hrefs resolve against rootDir.
func Build(manifest publication.Manifest, rootDir string, opts Options) *publication.Publication {
	fetcher := &resources.RoutingFetcher{Remote: opts.Remote}
	if rootDir != "" {
		fetcher.Local = resources.NewDirFetcher(rootDir, opts.MaxResourceSize)
	}

	builder := publication.NewBuilder(manifest).
		SetFetcher(fetcher).
		SetImageProvider(opts.Images).
		SetLogger(opts.Logger)
	if opts.CoverFactory != nil {
		builder.Services().SetCoverServiceFactory(opts.CoverFactory)
	}
	return builder.Build()
}
