package http

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/pubshelf/internal/database/publications"
	"github.com/mrlokans/pubshelf/internal/imaging"
	"github.com/mrlokans/pubshelf/internal/publication"
	"github.com/mrlokans/pubshelf/internal/services"
)

// CoversController serves publication covers from the cover cache.
type CoversController struct {
	renderer *services.CoverRenderer
}

// NewCoversController creates a new CoversController.
func NewCoversController(renderer *services.CoverRenderer) *CoversController {
	return &CoversController{renderer: renderer}
}

// GetCover serves a publication cover, fitted within width x height when given.
// GET /api/publications/:id/cover?width=&height=&format=
func (cc *CoversController) GetCover(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	size, ok := parseSizeQuery(c)
	if !ok {
		return
	}

	format := imaging.FormatJPEG
	if name := c.Query("format"); name != "" {
		var err error
		if format, err = imaging.ParseFormat(name); err != nil {
			respondBadRequest(c, err.Error())
			return
		}
	}

	cachePath, err := cc.renderer.Render(c.Request.Context(), id, size, format)
	switch {
	case errors.Is(err, publications.ErrNotFound):
		respondNotFound(c, "publication")
		return
	case errors.Is(err, publication.ErrNoCover):
		respondNotFound(c, "cover")
		return
	case err != nil:
		respondInternalError(c, err, "render cover")
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.Header("Content-Type", format.ContentType())
	c.File(cachePath)
}
