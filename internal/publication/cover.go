package publication

import (
	"context"
	"errors"
	"fmt"
	"image"
)

// Size is a bounding box in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// CoverService provides a bitmap of the publication cover.
//
// Implementations depend on the publication format (a vector cover must be
// rasterized, a PDF needs its first page rendered) or on the application, which
// may pick a cover from an online catalog or one chosen by the user.
type CoverService interface {
	Service

	// Cover returns the cover at its native size. (nil, nil) and ErrNoCover
	// both mean the service cannot produce a cover.
	Cover(ctx context.Context) (image.Image, error)
}

// CoverFitter is implemented by cover services able to produce a scaled cover
// more cheaply than decoding the full-size bitmap.
type CoverFitter interface {
	// CoverFitting returns the cover scaled to fit within maxSize, preserving
	// its aspect ratio.
	CoverFitting(ctx context.Context, maxSize Size) (image.Image, error)
}

// CoverServiceFactory builds a CoverService for one publication, or declines
// with (nil, nil).
type CoverServiceFactory func(ctx ServiceContext) (CoverService, error)

// SetCoverServiceFactory registers factory for CapabilityCover. A nil factory
// removes the registration.
func (b *ServicesBuilder) SetCoverServiceFactory(factory CoverServiceFactory) {
	if factory == nil {
		b.Set(CapabilityCover, nil)
		return
	}
	b.Set(CapabilityCover, func(ctx ServiceContext) (Service, error) {
		svc, err := factory(ctx)
		if err != nil || svc == nil {
			return nil, err
		}
		return svc, nil
	})
}

// FitCover returns the cover of svc scaled to fit within maxSize. Services
// implementing CoverFitter are delegated to; otherwise the full-size cover is
// scaled with images.
func FitCover(ctx context.Context, svc CoverService, images ImageProvider, maxSize Size) (image.Image, error) {
	if fitter, ok := svc.(CoverFitter); ok {
		return fitter.CoverFitting(ctx, maxSize)
	}

	cover, err := svc.Cover(ctx)
	if err != nil {
		return nil, err
	}
	if cover == nil {
		return nil, nil
	}
	if images == nil {
		return nil, ErrNoImageProvider
	}
	return images.ScaleToFit(cover, maxSize), nil
}

// Cover returns the publication cover at its native size.
//
// A registered CoverService is authoritative. Without one, the links with the
// "cover" relation are fetched and decoded in declaration order and the first
// success wins. Failures are logged and never returned.
//
// Cover may block on I/O; call it from a background goroutine rather than one
// serving latency-sensitive work.
func (p *Publication) Cover(ctx context.Context) (image.Image, bool) {
	if svc, ok := FindService[CoverService](p, CapabilityCover); ok {
		cover, err := svc.Cover(ctx)
		return p.coverResult(cover, err)
	}
	return p.coverFromManifest(ctx)
}

// CoverFitting returns the publication cover scaled to fit within maxSize,
// preserving its aspect ratio. It follows the same resolution order as Cover
// and may block on I/O as well.
func (p *Publication) CoverFitting(ctx context.Context, maxSize Size) (image.Image, bool) {
	if !maxSize.Valid() {
		p.logger.Warn("invalid cover size", "max_size", maxSize.String())
		return nil, false
	}

	if svc, ok := FindService[CoverService](p, CapabilityCover); ok {
		cover, err := FitCover(ctx, svc, p.images, maxSize)
		return p.coverResult(cover, err)
	}

	cover, ok := p.coverFromManifest(ctx)
	if !ok {
		return nil, false
	}
	return p.images.ScaleToFit(cover, maxSize), true
}

func (p *Publication) coverResult(cover image.Image, err error) (image.Image, bool) {
	if err != nil {
		if !errors.Is(err, ErrNoCover) {
			p.logger.Warn("cover service failed", "error", err)
		}
		return nil, false
	}
	return cover, cover != nil
}

// coverFromManifest decodes the first readable link with the "cover" relation.
func (p *Publication) coverFromManifest(ctx context.Context) (image.Image, bool) {
	candidates := p.manifest.LinksWithRel(RelCover)
	if len(candidates) == 0 {
		return nil, false
	}
	if p.fetcher == nil || p.images == nil {
		p.logger.Warn("cannot read manifest cover without fetcher and image provider")
		return nil, false
	}

	for _, link := range candidates {
		if err := ctx.Err(); err != nil {
			p.logger.Debug("cover lookup cancelled", "error", err)
			return nil, false
		}

		data, err := p.fetcher.Read(ctx, link)
		if err != nil {
			p.logger.Debug("cover candidate failed",
				"href", link.Href, "stage", "fetch", "error", err)
			continue
		}

		cover, err := p.images.Decode(data)
		if err != nil {
			p.logger.Debug("cover candidate failed",
				"href", link.Href, "stage", "decode", "error", err)
			continue
		}
		if ctx.Err() != nil {
			return nil, false
		}
		return cover, true
	}
	return nil, false
}
