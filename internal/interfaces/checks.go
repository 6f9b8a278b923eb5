package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/pubshelf/internal/covers"
	"github.com/mrlokans/pubshelf/internal/database/publications"
	"github.com/mrlokans/pubshelf/internal/http"
	"github.com/mrlokans/pubshelf/internal/imaging"
	"github.com/mrlokans/pubshelf/internal/library"
	"github.com/mrlokans/pubshelf/internal/publication"
	"github.com/mrlokans/pubshelf/internal/resources"
	"github.com/mrlokans/pubshelf/internal/scheduler"
	"github.com/mrlokans/pubshelf/internal/services"
	"github.com/mrlokans/pubshelf/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// PublicationStore implementations
var _ services.PublicationStore = (*publications.Repository)(nil)
var _ library.Store = (*publications.Repository)(nil)
var _ tasks.PublicationLister = (*publications.Repository)(nil)

// =============================================================================
// Publications
// =============================================================================

// PublicationOpener implementations
var _ services.PublicationOpener = (*library.Library)(nil)

// Fetcher implementations
var _ publication.Fetcher = (*resources.DirFetcher)(nil)
var _ publication.Fetcher = (*resources.HTTPFetcher)(nil)
var _ publication.Fetcher = (*resources.RoutingFetcher)(nil)

// ImageProvider implementations
var _ publication.ImageProvider = (*imaging.Provider)(nil)

// =============================================================================
// Covers
// =============================================================================

var _ covers.Encoder = (*imaging.Provider)(nil)

// CoverInvalidator implementations
var _ services.CoverInvalidator = (*covers.Cache)(nil)
var _ services.CoverInvalidator = (*services.CoverRenderer)(nil)

// =============================================================================
// Background Tasks
// =============================================================================

var _ tasks.CoverRenderer = (*services.CoverRenderer)(nil)
var _ tasks.Enqueuer = (*tasks.Client)(nil)
var _ http.TaskQueue = (*tasks.Client)(nil)
var _ http.WarmupStatus = (*scheduler.CoverWarmupScheduler)(nil)
