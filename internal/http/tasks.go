package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/pubshelf/internal/tasks"
)

// TaskQueue enqueues tasks and reports their status.
type TaskQueue interface {
	tasks.Enqueuer
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// WarmupStatus reports the state of the periodic cover warm-up.
type WarmupStatus interface {
	IsRunning() bool
	NextRun() (time.Time, bool)
}

// TasksController handles task queue management endpoints.
type TasksController struct {
	queue  TaskQueue
	warmup WarmupStatus
}

// NewTasksController creates a new TasksController. warmup may be nil.
func NewTasksController(queue TaskQueue, warmup WarmupStatus) *TasksController {
	return &TasksController{queue: queue, warmup: warmup}
}

// TaskTypeInfo describes an available task type.
type TaskTypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Queue       string `json:"queue"`
}

// RunTaskRequest is the request body for running a task.
type RunTaskRequest struct {
	// PublicationID is required for render_cover
	PublicationID uint   `json:"publication_id,omitempty"`
	Width         int    `json:"width,omitempty"`
	Height        int    `json:"height,omitempty"`
	Format        string `json:"format,omitempty"`
}

// ListTaskTypes handles GET /api/tasks/types
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	types := []TaskTypeInfo{
		{
			Type:        "render_cover",
			Description: "Render one publication cover into the cover cache",
			Queue:       tasks.RenderCoverTask{}.Config().Name,
		},
		{
			Type:        "render_all_covers",
			Description: "Render the covers of all publications",
			Queue:       tasks.RenderAllCoversTask{}.Config().Name,
		},
	}
	c.JSON(http.StatusOK, gin.H{"task_types": types})
}

// GetTaskStatus handles GET /api/tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.queue.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
}

// RunTask handles POST /api/tasks/:type/run
func (tc *TasksController) RunTask(c *gin.Context) {
	taskType := c.Param("type")

	var req RunTaskRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body")
			return
		}
	}

	var task backlite.Task
	switch taskType {
	case "render_cover":
		if req.PublicationID == 0 {
			respondBadRequest(c, "publication_id is required for render_cover task")
			return
		}
		task = tasks.RenderCoverTask{
			PublicationID: req.PublicationID,
			Width:         req.Width,
			Height:        req.Height,
			Format:        req.Format,
		}
	case "render_all_covers":
		task = tasks.RenderAllCoversTask{Width: req.Width, Height: req.Height, Format: req.Format}
	default:
		respondBadRequest(c, fmt.Sprintf("unknown task type: %s", taskType))
		return
	}

	ids, err := tc.queue.Enqueue(c.Request.Context(), task)
	if err != nil {
		respondInternalError(c, err, "enqueue "+taskType)
		return
	}

	var taskID string
	if len(ids) > 0 {
		taskID = ids[0]
	}
	respondAccepted(c, "task enqueued", gin.H{"task_id": taskID, "type": taskType})
}

// GetWarmupStatus handles GET /api/covers/warmup
func (tc *TasksController) GetWarmupStatus(c *gin.Context) {
	resp := gin.H{"enabled": false}
	if tc.warmup != nil && tc.warmup.IsRunning() {
		resp["enabled"] = true
		if next, ok := tc.warmup.NextRun(); ok {
			resp["next_run"] = next.Format(time.RFC3339)
		}
	}
	c.JSON(http.StatusOK, resp)
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
