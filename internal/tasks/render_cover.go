package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/pubshelf/internal/database/publications"
	"github.com/mrlokans/pubshelf/internal/imaging"
	"github.com/mrlokans/pubshelf/internal/publication"
)

// CoverRenderer renders a publication cover into the cover cache.
type CoverRenderer interface {
	Render(ctx context.Context, id uint, size publication.Size, format imaging.Format) (string, error)
}

// RenderCoverTask renders one publication cover ahead of the first request.
// A zero Width and Height renders the configured default size.
type RenderCoverTask struct {
	PublicationID uint   `json:"publication_id"`
	Width         int    `json:"width,omitempty"`
	Height        int    `json:"height,omitempty"`
	Format        string `json:"format,omitempty"`
}

// Config returns the queue configuration for cover rendering tasks.
func (t RenderCoverTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "render_cover",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// Size returns the requested bounding box.
func (t RenderCoverTask) Size() publication.Size {
	return publication.Size{Width: t.Width, Height: t.Height}
}

// RenderCoverProcessor creates a processor function for RenderCoverTask.
// Publications without a cover, or deleted since the task was queued, are
// not retried. Renders cut short by a timeout are.
func RenderCoverProcessor(renderer CoverRenderer) backlite.QueueProcessor[RenderCoverTask] {
	return func(ctx context.Context, task RenderCoverTask) error {
		if renderer == nil {
			return fmt.Errorf("cover renderer not configured")
		}

		format := imaging.FormatJPEG
		if task.Format != "" {
			var err error
			if format, err = imaging.ParseFormat(task.Format); err != nil {
				return fmt.Errorf("render cover %d: %w", task.PublicationID, err)
			}
		}

		path, err := renderer.Render(ctx, task.PublicationID, task.Size(), format)
		switch {
		case err != nil && ctx.Err() != nil:
			// Interrupted renders are retried even when they looked coverless.
			return fmt.Errorf("render cover %d: %w", task.PublicationID, ctx.Err())
		case errors.Is(err, publication.ErrNoCover):
			log.Printf("[TASK] Publication %d has no cover", task.PublicationID)
			return nil
		case errors.Is(err, publications.ErrNotFound):
			log.Printf("[TASK] Publication %d no longer exists, skipping cover", task.PublicationID)
			return nil
		case err != nil:
			return fmt.Errorf("render cover %d: %w", task.PublicationID, err)
		}

		log.Printf("[TASK] Rendered cover of publication %d to %s", task.PublicationID, path)
		return nil
	}
}

// NewRenderCoverQueue creates a backlite queue for cover rendering tasks.
func NewRenderCoverQueue(renderer CoverRenderer) backlite.Queue {
	return backlite.NewQueue(RenderCoverProcessor(renderer))
}
