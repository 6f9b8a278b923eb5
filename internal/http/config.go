package http

import (
	"github.com/mrlokans/pubshelf/internal/database"
	"github.com/mrlokans/pubshelf/internal/services"
)

// RouterConfig contains all dependencies needed to create the HTTP router.
type RouterConfig struct {
	Database *database.Database
	Version  string

	Publications services.PublicationStore
	Importer     *services.ImportService
	Covers       *services.CoverRenderer

	// Task queue (optional)
	TaskQueue TaskQueue
	Warmup    WarmupStatus
}
