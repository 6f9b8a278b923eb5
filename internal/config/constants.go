package config

const (
	// DefaultDatabasePath is the default path for the application database
	DefaultDatabasePath = "./pubshelf.db"

	// DefaultLibraryRootDir is where relative publication roots are resolved
	DefaultLibraryRootDir = "./library"

	// DefaultMaxResourceSize caps a single fetched resource at 32 MiB
	DefaultMaxResourceSize = 32 << 20
)
