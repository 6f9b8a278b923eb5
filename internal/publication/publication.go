// Package publication models a digital publication and the optional services
// (capabilities) it exposes.
//
// Services are registered per capability on a ServicesBuilder while the
// publication is assembled, then constructed lazily, at most once, the first
// time they are looked up:
//
//	b := publication.NewBuilder(manifest)
//	b.SetFetcher(fetcher)
//	b.SetImageProvider(imaging.NewProvider(85))
//	b.Services().SetCoverServiceFactory(client.Factory(false))
//	pub := b.Build()
//
//	cover, ok := pub.CoverFitting(ctx, publication.Size{Width: 300, Height: 450})
//
// Capabilities without a registered service fall back to defaults derived
// from the manifest, such as links carrying the "cover" relation.
package publication

import (
	"context"
	"image"
	"io"
	"log/slog"
	"sync"
)

// Fetcher reads the bytes of a linked resource.
type Fetcher interface {
	Read(ctx context.Context, link Link) ([]byte, error)
}

// ImageProvider decodes and scales bitmaps.
type ImageProvider interface {
	Decode(data []byte) (image.Image, error)
	// ScaleToFit returns img scaled to fit within maxSize, preserving its aspect ratio.
	ScaleToFit(img image.Image, maxSize Size) image.Image
}

// Publication is an immutable publication with its lazily resolved services.
// It is safe for concurrent use.
type Publication struct {
	manifest Manifest
	fetcher  Fetcher
	images   ImageProvider
	logger   *slog.Logger
	services *serviceResolver

	closeOnce sync.Once
	closeErr  error
}

// Builder assembles a Publication.
type Builder struct {
	manifest Manifest
	fetcher  Fetcher
	images   ImageProvider
	logger   *slog.Logger
	services *ServicesBuilder
}

// NewBuilder starts a publication from its manifest.
func NewBuilder(manifest Manifest) *Builder {
	return &Builder{
		manifest: manifest,
		services: NewServicesBuilder(),
	}
}

// SetFetcher sets the fetcher used to read linked resources.
func (b *Builder) SetFetcher(fetcher Fetcher) *Builder {
	b.fetcher = fetcher
	return b
}

// SetImageProvider sets the provider used to decode and scale bitmaps.
func (b *Builder) SetImageProvider(images ImageProvider) *Builder {
	b.images = images
	return b
}

// SetLogger sets the logger receiving diagnostic events. Defaults to discarding.
func (b *Builder) SetLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// Services returns the services builder, to register factories before Build.
func (b *Builder) Services() *ServicesBuilder {
	return b.services
}

// SetServices replaces the services builder, for example with a clone shared
// between publications of the same format.
func (b *Builder) SetServices(services *ServicesBuilder) *Builder {
	b.services = services
	return b
}

// Build freezes the services builder and returns the publication.
func (b *Builder) Build() *Publication {
	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With("publication", b.manifest.Metadata.Identifier)

	b.services.Freeze()

	p := &Publication{
		manifest: b.manifest.Clone(),
		fetcher:  b.fetcher,
		images:   b.images,
		logger:   logger,
	}
	p.services = newServiceResolver(
		b.services.factories(),
		ServiceContext{
			Manifest: b.manifest.Clone(),
			Fetcher:  b.fetcher,
			Images:   b.images,
			Logger:   logger,
		},
		logger,
	)
	return p
}

// Manifest returns a copy of the publication manifest.
func (p *Publication) Manifest() Manifest {
	return p.manifest.Clone()
}

// Metadata returns a copy of the publication metadata.
func (p *Publication) Metadata() Metadata {
	return p.manifest.Metadata.Clone()
}

// LinksWithRel returns the manifest links carrying rel.
func (p *Publication) LinksWithRel(rel string) []Link {
	return cloneLinks(p.manifest.LinksWithRel(rel))
}

// Get reads the bytes of a linked resource.
func (p *Publication) Get(ctx context.Context, link Link) ([]byte, error) {
	if p.fetcher == nil {
		return nil, &FetchError{Href: link.Href, Err: ErrResourceNotFound}
	}
	return p.fetcher.Read(ctx, link)
}

// FindService returns the service registered for capability, constructing it
// on first use. The result, including the absence of a service, is cached for
// the lifetime of the publication.
func (p *Publication) FindService(capability Capability) (Service, bool) {
	return p.services.resolve(capability)
}

// FindService returns the service for capability as a T. It reports false when
// no service is available or the service does not implement T.
func FindService[T Service](p *Publication, capability Capability) (T, bool) {
	var zero T
	svc, ok := p.services.resolve(capability)
	if !ok {
		return zero, false
	}
	typed, ok := svc.(T)
	if !ok {
		p.logger.Warn("service does not implement the requested contract",
			"capability", string(capability))
		return zero, false
	}
	return typed, true
}

// Close releases the services that were constructed. It is safe to call more
// than once.
func (p *Publication) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.services.close()
	})
	return p.closeErr
}
