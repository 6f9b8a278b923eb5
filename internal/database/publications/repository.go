// Package publications provides database operations for imported publications.
//
// # Usage
//
//	repo := publications.NewRepository(db)
//	record, err := repo.Save(manifest, "/library/moby-dick")
//	manifest, err := publications.ToManifest(record)
package publications

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/pubshelf/internal/entities"
	"github.com/mrlokans/pubshelf/internal/publication"
)

// ErrNotFound is returned when no publication matches the query.
var ErrNotFound = errors.New("publication not found")

// Repository handles all publication database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new publications repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Save stores a manifest. A publication with the same non-empty identifier is
// replaced, links included, so re-importing a publication keeps its ID.
func (r *Repository) Save(manifest publication.Manifest, rootPath string) (*entities.Publication, error) {
	record, err := FromManifest(manifest, rootPath)
	if err != nil {
		return nil, err
	}

	err = r.db.Transaction(func(tx *gorm.DB) error {
		if record.Identifier != "" {
			var existing entities.Publication
			result := tx.Where("identifier = ?", record.Identifier).First(&existing)
			switch {
			case result.Error == nil:
				record.ID = existing.ID
				record.CreatedAt = existing.CreatedAt
				if err := tx.Where("publication_id = ?", existing.ID).Delete(&entities.Link{}).Error; err != nil {
					return fmt.Errorf("replace links: %w", err)
				}
				for i := range record.Links {
					record.Links[i].PublicationID = existing.ID
				}
				return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(record).Error
			case !errors.Is(result.Error, gorm.ErrRecordNotFound):
				return result.Error
			}
		}
		return tx.Create(record).Error
	})
	if err != nil {
		return nil, fmt.Errorf("save publication: %w", err)
	}
	return record, nil
}

// GetByID returns a publication with its links in declaration order.
func (r *Repository) GetByID(id uint) (*entities.Publication, error) {
	var record entities.Publication
	err := r.db.Preload("Links", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&record, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns all publications ordered by title, without their links.
func (r *Repository) List() ([]entities.Publication, error) {
	var records []entities.Publication
	err := r.db.Order("title ASC, id ASC").Find(&records).Error
	return records, err
}

// ListIDs returns the IDs of all publications.
func (r *Repository) ListIDs() ([]uint, error) {
	var ids []uint
	err := r.db.Model(&entities.Publication{}).Order("id ASC").Pluck("id", &ids).Error
	return ids, err
}

// Delete removes a publication and its links.
func (r *Repository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("publication_id = ?", id).Delete(&entities.Link{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&entities.Publication{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// FromManifest converts a manifest into a record ready to be saved.
func FromManifest(manifest publication.Manifest, rootPath string) (*entities.Publication, error) {
	metadataJSON, err := json.Marshal(manifest.Metadata)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}

	title, _ := manifest.Metadata.Title.Resolve()
	record := &entities.Publication{
		Identifier:   manifest.Metadata.Identifier,
		Title:        title,
		Language:     manifest.Metadata.PrimaryLanguage(),
		Author:       strings.Join(manifest.Metadata.Authors, ", "),
		RootPath:     rootPath,
		MetadataJSON: string(metadataJSON),
	}

	position := 0
	for _, group := range []struct {
		name  entities.LinkGroup
		links []publication.Link
	}{
		{entities.LinkGroupLinks, manifest.Links},
		{entities.LinkGroupReadingOrder, manifest.ReadingOrder},
		{entities.LinkGroupResources, manifest.Resources},
	} {
		for _, link := range group.links {
			stored := entities.Link{
				Group:    group.name,
				Position: position,
				Href:     link.Href,
				Type:     link.Type,
				Title:    link.Title,
				Width:    link.Width,
				Height:   link.Height,
			}
			if err := stored.SetRels(link.Rels); err != nil {
				return nil, fmt.Errorf("encode rels of %s: %w", link.Href, err)
			}
			record.Links = append(record.Links, stored)
			position++
		}
	}
	return record, nil
}

// ToManifest rebuilds the manifest of a stored publication.
func ToManifest(record *entities.Publication) (publication.Manifest, error) {
	var manifest publication.Manifest
	if record.MetadataJSON != "" {
		if err := json.Unmarshal([]byte(record.MetadataJSON), &manifest.Metadata); err != nil {
			return publication.Manifest{}, fmt.Errorf("decode metadata of publication %d: %w", record.ID, err)
		}
	}

	for _, l := range record.Links {
		rels, err := l.RelList()
		if err != nil {
			return publication.Manifest{}, err
		}
		link := publication.Link{
			Href:   l.Href,
			Type:   l.Type,
			Title:  l.Title,
			Rels:   rels,
			Width:  l.Width,
			Height: l.Height,
		}
		switch l.Group {
		case entities.LinkGroupReadingOrder:
			manifest.ReadingOrder = append(manifest.ReadingOrder, link)
		case entities.LinkGroupResources:
			manifest.Resources = append(manifest.Resources, link)
		default:
			manifest.Links = append(manifest.Links, link)
		}
	}
	return manifest, nil
}
