package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Library
		Covers
		Tasks
		CoverWarmup
		Logging
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Library struct {
		RootDir string // Base directory that relative publication roots resolve against
	}
	Covers struct {
		CacheDir           string // Rendered thumbnails
		RemoteCacheDir     string // Resources downloaded from absolute hrefs
		DefaultMaxWidth    int
		DefaultMaxHeight   int
		JPEGQuality        int
		RemoteTimeout      time.Duration
		MaxResourceSize    int64
		OpenLibraryEnabled bool
		OpenLibraryBaseURL string
		OpenLibraryPrefer  bool // Ask Open Library even when the manifest declares a cover
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	CoverWarmup struct {
		Enabled  bool
		Schedule string // Cron format: "30 3 * * *" = daily at 03:30
	}
	Logging struct {
		Level  string // debug, info, warn, error
		Format string // text or json
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("library_root_dir", DefaultLibraryRootDir)

	// Cover defaults
	v.SetDefault("covers_cache_dir", "./covers")
	v.SetDefault("covers_remote_cache_dir", "./covers/remote")
	v.SetDefault("covers_default_max_width", 0)
	v.SetDefault("covers_default_max_height", 0)
	v.SetDefault("covers_jpeg_quality", 85)
	v.SetDefault("covers_remote_timeout", "30s")
	v.SetDefault("covers_max_resource_size", DefaultMaxResourceSize)
	v.SetDefault("openlibrary_enabled", false)
	v.SetDefault("openlibrary_base_url", "https://covers.openlibrary.org")
	v.SetDefault("openlibrary_prefer", false)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	v.SetDefault("cover_warmup_enabled", false)
	v.SetDefault("cover_warmup_schedule", "30 3 * * *") // Daily at 03:30

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Library: Library{
			RootDir: v.GetString("LIBRARY_ROOT_DIR"),
		},
		Covers: Covers{
			CacheDir:           v.GetString("COVERS_CACHE_DIR"),
			RemoteCacheDir:     v.GetString("COVERS_REMOTE_CACHE_DIR"),
			DefaultMaxWidth:    v.GetInt("COVERS_DEFAULT_MAX_WIDTH"),
			DefaultMaxHeight:   v.GetInt("COVERS_DEFAULT_MAX_HEIGHT"),
			JPEGQuality:        v.GetInt("COVERS_JPEG_QUALITY"),
			RemoteTimeout:      v.GetDuration("COVERS_REMOTE_TIMEOUT"),
			MaxResourceSize:    v.GetInt64("COVERS_MAX_RESOURCE_SIZE"),
			OpenLibraryEnabled: v.GetBool("OPENLIBRARY_ENABLED"),
			OpenLibraryBaseURL: v.GetString("OPENLIBRARY_BASE_URL"),
			OpenLibraryPrefer:  v.GetBool("OPENLIBRARY_PREFER"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		CoverWarmup: CoverWarmup{
			Enabled:  v.GetBool("COVER_WARMUP_ENABLED"),
			Schedule: v.GetString("COVER_WARMUP_SCHEDULE"),
		},
		Logging: Logging{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}
}

// DefaultCoverSize returns the configured bounds for cover requests without
// an explicit size. Zero in both dimensions means full size.
func (c Covers) DefaultCoverSize() (width, height int) {
	return c.DefaultMaxWidth, c.DefaultMaxHeight
}
