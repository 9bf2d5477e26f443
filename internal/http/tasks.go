package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// TasksController reports background task state.
type TasksController struct {
	tasks TaskStatusReader
}

func NewTasksController(tasks TaskStatusReader) *TasksController {
	return &TasksController{tasks: tasks}
}

// GetTaskStatus handles GET /api/tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		respondBadRequest(c, "task ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.tasks.StatusName(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": status,
	})
}
