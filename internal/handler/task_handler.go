package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"threedays/internal/service/task"
)

type TaskHandler struct {
	taskService *task.Service
	logger      *zap.Logger
}

func NewTaskHandler(taskService *task.Service, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{taskService: taskService, logger: logger}
}

// getUserID reads the authenticated user id set by the auth middleware.
func getUserID(c *gin.Context) (int, bool) {
	userID, ok := c.Get("user_id")
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return 0, false
	}
	return userID.(int), true
}

func taskID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return 0, false
	}
	return id, true
}

// respondErr maps the service error taxonomy onto HTTP statuses.
func (h *TaskHandler) respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, task.ErrValidation),
		errors.Is(err, task.ErrImmutableState),
		errors.Is(err, task.ErrInvalidState):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, task.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
	case errors.Is(err, task.ErrUnavailable):
		h.logger.Error("Dependency unavailable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
	default:
		h.logger.Error("Unhandled task error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// List handles GET /tasks
func (h *TaskHandler) List(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	window, err := h.taskService.List(c.Request.Context(), userID)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": window.Tasks,
		"dates": window.Dates,
	})
}

// Create handles POST /tasks
func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req task.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	t, err := h.taskService.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"task": t})
}

// Update handles PUT /tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}

	var req task.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	t, err := h.taskService.Update(c.Request.Context(), userID, id, req)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": t})
}

// Reorder handles PATCH /tasks/reorder. The body carries the full desired
// id sequence for one bucket; ids arrive as strings from the client.
func (h *TaskHandler) Reorder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req struct {
		TaskIDs []string `json:"taskIds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	ids := make([]int, 0, len(req.TaskIDs))
	for _, raw := range req.TaskIDs {
		id, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id in taskIds"})
			return
		}
		ids = append(ids, id)
	}

	updated, err := h.taskService.Reorder(c.Request.Context(), userID, ids)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// Delete handles DELETE /tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}

	if err := h.taskService.Delete(c.Request.Context(), userID, id); err != nil {
		h.respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// Archive handles POST /tasks/:id/archive
func (h *TaskHandler) Archive(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}

	t, err := h.taskService.Archive(c.Request.Context(), userID, id)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": t})
}

// Restore handles POST /tasks/:id/restore
func (h *TaskHandler) Restore(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}

	t, err := h.taskService.Restore(c.Request.Context(), userID, id)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": t})
}

// ListArchived handles GET /tasks/archived
func (h *TaskHandler) ListArchived(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	tasks, err := h.taskService.ListArchived(c.Request.Context(), userID)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
		"count": len(tasks),
	})
}

// RolloverAll handles POST /tasks/rollover-all, the manual trigger for the
// daily job.
func (h *TaskHandler) RolloverAll(c *gin.Context) {
	if _, ok := getUserID(c); !ok {
		return
	}

	moved, err := h.taskService.RolloverAll(c.Request.Context())
	if err != nil {
		h.respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rolledOverCount": moved})
}
