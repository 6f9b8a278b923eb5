package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(SecurityHeadersMiddleware())
	router.Use(StrictTransportSecurityMiddleware())

	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	if cfg.Publications != nil && cfg.Importer != nil {
		publicationsController := NewPublicationsController(cfg.Publications, cfg.Importer)
		router.GET("/api/publications", publicationsController.List)
		router.POST("/api/publications", publicationsController.Create)
		router.GET("/api/publications/:id", publicationsController.Get)
		router.DELETE("/api/publications/:id", publicationsController.Delete)
	}

	if cfg.Covers != nil {
		coversController := NewCoversController(cfg.Covers)
		router.GET("/api/publications/:id/cover", coversController.GetCover)
	}

	if cfg.TaskQueue != nil {
		tasksController := NewTasksController(cfg.TaskQueue, cfg.Warmup)
		router.GET("/api/tasks/types", tasksController.ListTaskTypes)
		router.GET("/api/tasks/:id", tasksController.GetTaskStatus)
		router.POST("/api/tasks/:type/run", tasksController.RunTask)
		router.GET("/api/covers/warmup", tasksController.GetWarmupStatus)
	}

	return router
}
