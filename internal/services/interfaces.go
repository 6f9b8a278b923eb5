package services

import (
	"context"

	"github.com/mrlokans/pubshelf/internal/entities"
	"github.com/mrlokans/pubshelf/internal/publication"
)

// PublicationStore persists imported publications.
type PublicationStore interface {
	Save(manifest publication.Manifest, rootPath string) (*entities.Publication, error)
	GetByID(id uint) (*entities.Publication, error)
	List() ([]entities.Publication, error)
	ListIDs() ([]uint, error)
	Delete(id uint) error
}

// PublicationOpener hands out open publications by stored ID.
type PublicationOpener interface {
	Open(ctx context.Context, id uint) (*publication.Publication, error)
	Evict(id uint) error
}

// CoverInvalidator drops rendered covers of a publication.
type CoverInvalidator interface {
	InvalidateCover(publicationID uint) error
}

// ImportResult contains the outcome of an import operation.
type ImportResult struct {
	Publication *entities.Publication
	Replaced    bool
}
