package services

import (
	"context"
	"image"

	"github.com/mrlokans/pubshelf/internal/covers"
	"github.com/mrlokans/pubshelf/internal/imaging"
	"github.com/mrlokans/pubshelf/internal/publication"
)

// CoverRenderer renders publication covers into the on-disk cover cache.
type CoverRenderer struct {
	opener      PublicationOpener
	cache       *covers.Cache
	defaultSize publication.Size
}

// NewCoverRenderer creates a CoverRenderer. Requests without a size are
// rendered at defaultSize, or at full size when defaultSize is not valid.
func NewCoverRenderer(opener PublicationOpener, cache *covers.Cache, defaultSize publication.Size) *CoverRenderer {
	return &CoverRenderer{
		opener:      opener,
		cache:       cache,
		defaultSize: defaultSize,
	}
}

// DefaultSize returns the size used for requests without one.
func (r *CoverRenderer) DefaultSize() publication.Size {
	return r.defaultSize
}

// Render returns the path of the cached cover of a publication, fitted within
// size when size is valid. It returns publication.ErrNoCover when the
// publication has no cover.
func (r *CoverRenderer) Render(ctx context.Context, id uint, size publication.Size, format imaging.Format) (string, error) {
	if !size.Valid() {
		size = r.defaultSize
	}

	pub, err := r.opener.Open(ctx, id)
	if err != nil {
		return "", err
	}

	return r.cache.GetCover(ctx, id, size, format, func(ctx context.Context) (image.Image, bool) {
		if size.Valid() {
			return pub.CoverFitting(ctx, size)
		}
		return pub.Cover(ctx)
	})
}

// InvalidateCover drops every cached rendition of a publication cover.
func (r *CoverRenderer) InvalidateCover(publicationID uint) error {
	return r.cache.InvalidateCover(publicationID)
}
