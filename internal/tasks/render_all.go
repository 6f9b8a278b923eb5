package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// PublicationLister lists the IDs of stored publications.
type PublicationLister interface {
	ListIDs() ([]uint, error)
}

// RenderAllCoversTask queues a RenderCoverTask for every stored publication.
type RenderAllCoversTask struct {
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Format string `json:"format,omitempty"`
}

// Config returns the queue configuration for bulk cover rendering tasks.
func (t RenderAllCoversTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "render_all_covers",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     10 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// RenderAllCoversProcessor creates a processor function for RenderAllCoversTask.
func RenderAllCoversProcessor(lister PublicationLister, enqueuer Enqueuer) backlite.QueueProcessor[RenderAllCoversTask] {
	return func(ctx context.Context, task RenderAllCoversTask) error {
		if lister == nil || enqueuer == nil {
			return fmt.Errorf("cover warm-up not configured")
		}

		ids, err := lister.ListIDs()
		if err != nil {
			return fmt.Errorf("list publications: %w", err)
		}
		if len(ids) == 0 {
			log.Println("[TASK] No publications to render covers for")
			return nil
		}

		batch := make([]backlite.Task, 0, len(ids))
		for _, id := range ids {
			batch = append(batch, RenderCoverTask{
				PublicationID: id,
				Width:         task.Width,
				Height:        task.Height,
				Format:        task.Format,
			})
		}

		if _, err := enqueuer.Enqueue(ctx, batch...); err != nil {
			return fmt.Errorf("enqueue cover renders: %w", err)
		}

		log.Printf("[TASK] Queued cover rendering for %d publications", len(ids))
		return nil
	}
}

// NewRenderAllCoversQueue creates a backlite queue for bulk cover rendering tasks.
func NewRenderAllCoversQueue(lister PublicationLister, enqueuer Enqueuer) backlite.Queue {
	return backlite.NewQueue(RenderAllCoversProcessor(lister, enqueuer))
}
