package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/pubshelf/internal/database/publications"
	"github.com/mrlokans/pubshelf/internal/entities"
	"github.com/mrlokans/pubshelf/internal/publication"
	"github.com/mrlokans/pubshelf/internal/services"
)

// PublicationsController handles publication import, listing and removal.
type PublicationsController struct {
	store    services.PublicationStore
	importer *services.ImportService
}

// NewPublicationsController creates a new PublicationsController.
func NewPublicationsController(store services.PublicationStore, importer *services.ImportService) *PublicationsController {
	return &PublicationsController{
		store:    store,
		importer: importer,
	}
}

// PublicationSummary is a publication as listed by the API.
type PublicationSummary struct {
	ID         uint      `json:"id"`
	Identifier string    `json:"identifier,omitempty"`
	Title      string    `json:"title"`
	Language   string    `json:"language,omitempty"`
	Author     string    `json:"author,omitempty"`
	CoverURL   string    `json:"cover_url"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PublicationDetail adds the full metadata and the title in a requested language.
type PublicationDetail struct {
	PublicationSummary
	TitleLocalized *string              `json:"title_localized,omitempty"`
	TitleLanguages []string             `json:"title_languages,omitempty"`
	RootPath       string               `json:"root_path"`
	Metadata       publication.Metadata `json:"metadata"`
	CoverLinks     []publication.Link   `json:"cover_links,omitempty"`
}

// ImportRequest imports the manifest in the body, or reads manifest.json
// from RootPath when Manifest is omitted.
type ImportRequest struct {
	RootPath string          `json:"root_path" binding:"required"`
	Manifest json.RawMessage `json:"manifest,omitempty"`
}

func toSummary(record *entities.Publication) PublicationSummary {
	return PublicationSummary{
		ID:         record.ID,
		Identifier: record.Identifier,
		Title:      record.Title,
		Language:   record.Language,
		Author:     record.Author,
		CoverURL:   fmt.Sprintf("/api/publications/%d/cover", record.ID),
		UpdatedAt:  record.UpdatedAt,
	}
}

// List handles GET /api/publications
func (pc *PublicationsController) List(c *gin.Context) {
	records, err := pc.store.List()
	if err != nil {
		respondInternalError(c, err, "list publications")
		return
	}

	summaries := make([]PublicationSummary, 0, len(records))
	for i := range records {
		summaries = append(summaries, toSummary(&records[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"publications": summaries,
		"total":        len(summaries),
	})
}

// Get handles GET /api/publications/:id?lang=xx
// title_localized is present only when the title has a variant for lang.
func (pc *PublicationsController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	record, err := pc.store.GetByID(id)
	if errors.Is(err, publications.ErrNotFound) {
		respondNotFound(c, "publication")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get publication")
		return
	}

	manifest, err := publications.ToManifest(record)
	if err != nil {
		respondInternalError(c, err, "decode publication")
		return
	}

	detail := PublicationDetail{
		PublicationSummary: toSummary(record),
		TitleLanguages:     manifest.Metadata.Title.Languages(),
		RootPath:           record.RootPath,
		Metadata:           manifest.Metadata,
		CoverLinks:         manifest.LinksWithRel(publication.RelCover),
	}
	if lang := c.Query("lang"); lang != "" {
		if title, ok := manifest.Metadata.TitleForLang(lang); ok {
			detail.TitleLocalized = &title
		}
	}
	c.JSON(http.StatusOK, detail)
}

// Create handles POST /api/publications
func (pc *PublicationsController) Create(c *gin.Context) {
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "root_path is required")
		return
	}

	var (
		result services.ImportResult
		err    error
	)
	if len(bytes.TrimSpace(req.Manifest)) == 0 || bytes.Equal(bytes.TrimSpace(req.Manifest), []byte("null")) {
		result, err = pc.importer.ImportDir(c.Request.Context(), req.RootPath)
	} else {
		var manifest publication.Manifest
		if err := json.Unmarshal(req.Manifest, &manifest); err != nil {
			respondBadRequest(c, "invalid manifest: "+err.Error())
			return
		}
		result, err = pc.importer.ImportManifest(c.Request.Context(), manifest, req.RootPath)
	}

	if errors.Is(err, services.ErrInvalidManifest) {
		respondBadRequest(c, err.Error())
		return
	}
	if errors.Is(err, os.ErrNotExist) {
		respondBadRequest(c, "no "+services.ManifestFilename+" in root_path")
		return
	}
	if err != nil {
		respondInternalError(c, err, "import publication")
		return
	}

	status := http.StatusCreated
	if result.Replaced {
		status = http.StatusOK
	}
	c.JSON(status, toSummary(result.Publication))
}

// Delete handles DELETE /api/publications/:id
func (pc *PublicationsController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	err := pc.importer.Delete(c.Request.Context(), id)
	if errors.Is(err, publications.ErrNotFound) {
		respondNotFound(c, "publication")
		return
	}
	if err != nil {
		respondInternalError(c, err, "delete publication")
		return
	}
	respondSuccess(c, "publication deleted")
}
