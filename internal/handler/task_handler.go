package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pomorix/internal/model"
	"pomorix/internal/service"
)

type TaskHandler struct {
	taskService *service.TaskService
}

func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// List accepts sort_by (created_at, updated_at, title) and sort_order
// (asc, desc).
func (h *TaskHandler) List(c *gin.Context) {
	userID, authed := currentUser(c)
	if !authed {
		return
	}

	tasks, apiErr := h.taskService.List(c.Request.Context(), userID, c.Query("sort_by"), c.Query("sort_order"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	ok(c, "Tasks", tasks)
}

func (h *TaskHandler) Create(c *gin.Context) {
	userID, authed := currentUser(c)
	if !authed {
		return
	}
	var req model.CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, apiErr := h.taskService.Create(c.Request.Context(), userID, req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	respond(c, http.StatusCreated, "Task created", task)
}

func (h *TaskHandler) Update(c *gin.Context) {
	userID, authed := currentUser(c)
	if !authed {
		return
	}
	var req model.UpdateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, apiErr := h.taskService.Update(c.Request.Context(), userID, c.Param("id"), req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	ok(c, "Task updated", task)
}

func (h *TaskHandler) Delete(c *gin.Context) {
	userID, authed := currentUser(c)
	if !authed {
		return
	}

	if apiErr := h.taskService.Delete(c.Request.Context(), userID, c.Param("id")); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	ok(c, "Task deleted", nil)
}

func (h *TaskHandler) ToggleActive(c *gin.Context) {
	userID, authed := currentUser(c)
	if !authed {
		return
	}

	task, apiErr := h.taskService.ToggleActive(c.Request.Context(), userID, c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	ok(c, "Task updated", task)
}
