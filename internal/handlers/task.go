package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/tasktrack/apiserver/internal/services"
	"github.com/tasktrack/apiserver/types"
)

// TaskHandler provides HTTP handlers for the caller's own tasks.
type TaskHandler struct {
	tasks  *services.TaskService
	logger *slog.Logger
}

// NewTaskHandler constructs a TaskHandler.
func NewTaskHandler(tasks *services.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger}
}

// TaskRouter registers task routes on the given router. Every route sits
// behind authMiddleware.
func TaskRouter(
	r chi.Router,
	tasks *services.TaskService,
	authMiddleware func(http.Handler) http.Handler,
	logger *slog.Logger,
) {
	handler := NewTaskHandler(tasks, logger)

	r.Use(authMiddleware)
	r.Get("/", handler.ListTasks)
	r.Post("/", handler.CreateTask)
	r.Route("/{taskID}", func(r chi.Router) {
		r.Put("/", handler.UpdateTask)
		r.Delete("/", handler.DeleteTask)
		r.Patch("/complete", handler.CompleteTask)
	})
}

// ListTasks returns the caller's tasks, newest first.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identity(w, r)
	if !ok {
		return
	}

	tasks, err := h.tasks.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to list tasks")
		return
	}

	writeJSON(w, http.StatusOK, TaskListResponse{Tasks: tasks})
}

// CreateTask stores a new Pending task owned by the caller.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := h.tasks.Create(r.Context(), userID, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to create task")
		return
	}

	writeJSON(w, http.StatusCreated, TaskResponse{Task: task})
}

// UpdateTask applies a partial update to one of the caller's tasks.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := h.tasks.Update(r.Context(), userID, taskID(r), types.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to update task")
		return
	}

	writeJSON(w, http.StatusOK, TaskResponse{Task: task})
}

// DeleteTask permanently removes one of the caller's tasks.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identity(w, r)
	if !ok {
		return
	}

	if err := h.tasks.Delete(r.Context(), userID, taskID(r)); err != nil {
		writeServiceError(w, r, h.logger, err, "failed to delete task")
		return
	}

	writeJSON(w, http.StatusOK, DeleteResponse{Success: true})
}

// CompleteTask marks one of the caller's tasks as Completed.
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identity(w, r)
	if !ok {
		return
	}

	task, err := h.tasks.Complete(r.Context(), userID, taskID(r))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to complete task")
		return
	}

	writeJSON(w, http.StatusOK, TaskResponse{Task: task})
}

// CreateTaskRequest is the body of POST /tasks. Owner and status supplied by
// the client are not part of the contract and are ignored.
type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

// UpdateTaskRequest is the body of PUT /tasks/{id}. Absent fields are left
// unchanged.
type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
}

type TaskResponse struct {
	Task types.Task `json:"task"`
}

type TaskListResponse struct {
	Tasks []types.Task `json:"tasks"`
}

type DeleteResponse struct {
	Success bool `json:"success"`
}

func (h *TaskHandler) identity(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, errInvalidCredential.Error())
		return "", false
	}
	return userID, true
}

func taskID(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "taskID"))
}
