package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/mrlokans/pubshelf/internal/publication"
)

// ManifestFilename is the manifest looked up in an unpacked publication directory.
const ManifestFilename = "manifest.json"

// ErrInvalidManifest wraps manifests that cannot be parsed or lack required fields.
var ErrInvalidManifest = errors.New("invalid manifest")

// ImportService stores publication manifests and keeps open publications in
// sync with the stored records.
type ImportService struct {
	store  PublicationStore
	opener PublicationOpener
	covers CoverInvalidator

	rootDir string
}

// NewImportService creates a new ImportService. opener and covers may be nil
// when nothing is held open or cached, as in one-shot CLI runs.
func NewImportService(store PublicationStore, opener PublicationOpener, covers CoverInvalidator) *ImportService {
	return &ImportService{
		store:  store,
		opener: opener,
		covers: covers,
	}
}

// SetRootDir sets the directory relative publication paths are read from.
// It must match the library root so stored paths resolve the same way.
func (s *ImportService) SetRootDir(dir string) *ImportService {
	s.rootDir = dir
	return s
}

// ImportDir reads manifest.json from an unpacked publication directory and
// stores it. dir is stored as given; relative paths resolve against the root dir.
func (s *ImportService) ImportDir(ctx context.Context, dir string) (ImportResult, error) {
	path := dir
	if s.rootDir != "" && !filepath.IsAbs(dir) {
		path = filepath.Join(s.rootDir, dir)
	}

	f, err := os.Open(filepath.Join(path, ManifestFilename))
	if err != nil {
		return ImportResult{}, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	manifest, err := publication.ParseManifest(f)
	if err != nil {
		return ImportResult{}, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	return s.ImportManifest(ctx, manifest, dir)
}

// ImportManifest stores manifest with its resources rooted at rootPath.
// Re-importing a publication with a known identifier replaces the stored one.
func (s *ImportService) ImportManifest(ctx context.Context, manifest publication.Manifest, rootPath string) (ImportResult, error) {
	if err := ctx.Err(); err != nil {
		return ImportResult{}, err
	}
	if manifest.Metadata.Title.IsZero() {
		return ImportResult{}, fmt.Errorf("%w: metadata has no title", ErrInvalidManifest)
	}

	record, err := s.store.Save(manifest, rootPath)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to store publication: %w", err)
	}

	replaced := !record.CreatedAt.Equal(record.UpdatedAt)
	if replaced {
		s.forget(record.ID)
	}

	log.Printf("Imported publication %d (%s)", record.ID, record.Title)
	return ImportResult{Publication: record, Replaced: replaced}, nil
}

// Delete removes a stored publication, closes its open instance and drops
// its rendered covers.
func (s *ImportService) Delete(ctx context.Context, id uint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.store.Delete(id); err != nil {
		return err
	}
	s.forget(id)
	log.Printf("Deleted publication %d", id)
	return nil
}

func (s *ImportService) forget(id uint) {
	if s.opener != nil {
		if err := s.opener.Evict(id); err != nil {
			log.Printf("Failed to close open instance of publication %d: %v", id, err)
		}
	}
	if s.covers != nil {
		if err := s.covers.InvalidateCover(id); err != nil {
			log.Printf("Failed to invalidate covers of publication %d: %v", id, err)
		}
	}
}
