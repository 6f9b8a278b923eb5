// Package interfaces documents the core abstractions used throughout the application.
//
// This package consolidates interface documentation to help understand
// extension points and how to implement new functionality.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - PublicationStore: Persist and look up imported publications (internal/services/interfaces.go)
//   - Store: Read side used when opening publications (internal/library/library.go)
//   - PublicationLister: Publication IDs for bulk tasks (internal/tasks/render_all.go)
//
// ## Publication Interfaces
//
//   - Fetcher: Read resource bytes by link (internal/publication/publication.go)
//   - ImageProvider: Decode and scale bitmaps (internal/publication/publication.go)
//   - CoverService: The cover capability (internal/publication/cover.go)
//   - PublicationOpener: Open publications by stored ID (internal/services/interfaces.go)
//
// ## Background Task Interfaces
//
//   - Enqueuer: Add tasks to the queue (internal/tasks/client.go)
//   - CoverRenderer: Render a cover into the cache (internal/tasks/render_cover.go)
//   - TaskQueue, WarmupStatus: Task endpoints (internal/http/tasks.go)
//
// # Adding a New Cover Source
//
// A cover source is a CoverServiceFactory. It receives the manifest and the
// publication's fetcher, and returns (nil, nil) when it cannot serve the
// publication so that the manifest fallback applies.
//
// Implement the service in internal/covers/:
//
//	type GoogleBooksCover struct {
//		client *GoogleBooksClient
//		isbn   string
//	}
//
//	func (s *GoogleBooksCover) Cover(ctx context.Context) (image.Image, error)
//
//	var _ publication.CoverService = (*GoogleBooksCover)(nil)
//
// Return a factory that declines publications without an ISBN:
//
//	func (c *GoogleBooksClient) Factory() publication.CoverServiceFactory {
//		return func(ctx publication.ServiceContext) (publication.CoverService, error) {
//			isbn := ctx.Manifest.Metadata.ISBN()
//			if isbn == "" {
//				return nil, nil
//			}
//			return &GoogleBooksCover{client: c, isbn: isbn}, nil
//		}
//	}
//
// Then set library.Options.CoverFactory in entrypoint.go.
//
// # Adding a New Capability
//
//  1. Declare the Capability constant and service interface in internal/publication/
//
//  2. Add a typed setter on ServicesBuilder, like SetCoverServiceFactory
//
//  3. Look the service up with publication.FindService[T]
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
