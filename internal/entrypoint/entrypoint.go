package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/pubshelf/internal/config"
	"github.com/mrlokans/pubshelf/internal/covers"
	"github.com/mrlokans/pubshelf/internal/database"
	"github.com/mrlokans/pubshelf/internal/database/publications"
	http_controllers "github.com/mrlokans/pubshelf/internal/http"
	"github.com/mrlokans/pubshelf/internal/imaging"
	"github.com/mrlokans/pubshelf/internal/library"
	"github.com/mrlokans/pubshelf/internal/logging"
	"github.com/mrlokans/pubshelf/internal/publication"
	"github.com/mrlokans/pubshelf/internal/resources"
	"github.com/mrlokans/pubshelf/internal/scheduler"
	"github.com/mrlokans/pubshelf/internal/services"
	"github.com/mrlokans/pubshelf/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill -2 is syscall.SIGINT, SIGKILL can't be caught
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	// Stop background work once no request can reach it any more.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Pubshelf v%s", version)

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	repo := publications.NewRepository(db.DB)

	remote, err := resources.NewHTTPFetcher(cfg.Covers.RemoteCacheDir, cfg.Covers.RemoteTimeout, cfg.Covers.MaxResourceSize)
	if err != nil {
		log.Fatalf("Failed to initialize remote resource cache: %v", err)
	}

	images := imaging.NewProvider(cfg.Covers.JPEGQuality)

	libOpts := library.Options{
		RootDir:         cfg.Library.RootDir,
		Remote:          remote,
		Images:          images,
		Logger:          logger,
		MaxResourceSize: cfg.Covers.MaxResourceSize,
	}
	if cfg.Covers.OpenLibraryEnabled {
		client := covers.NewOpenLibraryClient(cfg.Covers.OpenLibraryBaseURL, time.Second)
		libOpts.CoverFactory = client.Factory(cfg.Covers.OpenLibraryPrefer)
		log.Printf("Open Library covers enabled (prefer remote: %v)", cfg.Covers.OpenLibraryPrefer)
	}
	lib := library.New(repo, libOpts)
	defer func() {
		if err := lib.Close(); err != nil {
			log.Printf("Error closing publications: %v", err)
		}
	}()

	coverCache, err := covers.NewCache(cfg.Covers.CacheDir, images)
	if err != nil {
		log.Fatalf("Failed to initialize cover cache: %v", err)
	}
	log.Printf("Cover cache initialized at %s", cfg.Covers.CacheDir)

	width, height := cfg.Covers.DefaultCoverSize()
	renderer := services.NewCoverRenderer(lib, coverCache, publication.Size{Width: width, Height: height})
	importer := services.NewImportService(repo, lib, renderer).SetRootDir(cfg.Library.RootDir)

	routerCfg := http_controllers.RouterConfig{
		Database:     db,
		Version:      version,
		Publications: repo,
		Importer:     importer,
		Covers:       renderer,
	}

	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var warmup *scheduler.CoverWarmupScheduler
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			MaxRetries:        cfg.Tasks.MaxRetries,
			RetryDelay:        cfg.Tasks.RetryDelay,
			TaskTimeout:       cfg.Tasks.TaskTimeout,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg, logger)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewRenderCoverQueue(renderer),
			tasks.NewRenderAllCoversQueue(repo, taskClient),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		taskClient.Start(taskCtx)

		warmup = scheduler.NewCoverWarmupScheduler(taskClient, cfg.CoverWarmup, tasks.RenderAllCoversTask{})
		if err := warmup.Start(taskCtx); err != nil {
			log.Printf("WARNING: Cover warm-up disabled: %v", err)
		}

		routerCfg.TaskQueue = taskClient
		routerCfg.Warmup = warmup
	} else if cfg.CoverWarmup.Enabled {
		log.Printf("WARNING: COVER_WARMUP_ENABLED requires TASKS_ENABLED, cover warm-up disabled")
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if warmup != nil {
			warmup.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
