package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/taskdock/taskdock/internal/domain"
	"github.com/taskdock/taskdock/internal/service"
	"github.com/taskdock/taskdock/internal/store"
	"github.com/taskdock/taskdock/pkg/httpx"
	"github.com/taskdock/taskdock/pkg/sdk"
	"github.com/taskdock/taskdock/pkg/slogx"
)

// TasksHandler serves the task CRUD endpoints. All routes sit behind the
// authn middleware, so the account id is always present in the context.
type TasksHandler struct {
	TaskService *service.TaskService
}

func (h *TasksHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID := httpx.AccountIDFromContext(ctx)

	var req sdk.TaskCreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, sdk.ErrorCodeInvalidRequest, "Malformed JSON body")
		return
	}

	task, err := h.TaskService.Create(ctx, accountID, service.CreateTaskParams{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
	})
	if err != nil {
		writeTaskError(w, r, err, "failed to create task")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, taskResponse(task))
}

func (h *TasksHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID := httpx.AccountIDFromContext(ctx)

	filter := store.TaskFilter{
		IncludeCompleted: r.URL.Query().Get("include_completed") == "true",
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if offset, err := strconv.Atoi(v); err == nil && offset > 0 {
			filter.Offset = offset
		}
	}

	tasks, err := h.TaskService.List(ctx, accountID, filter)
	if err != nil {
		writeTaskError(w, r, err, "failed to list tasks")
		return
	}

	resp := sdk.TaskListResponse{Tasks: make([]sdk.TaskResponse, 0, len(tasks))}
	for i := range tasks {
		resp.Tasks = append(resp.Tasks, taskResponse(&tasks[i]))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *TasksHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID := httpx.AccountIDFromContext(ctx)

	task, err := h.TaskService.Get(ctx, accountID, r.PathValue("id"))
	if err != nil {
		writeTaskError(w, r, err, "failed to fetch task")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, taskResponse(task))
}

func (h *TasksHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID := httpx.AccountIDFromContext(ctx)

	var req sdk.TaskUpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, sdk.ErrorCodeInvalidRequest, "Malformed JSON body")
		return
	}

	task, err := h.TaskService.Update(ctx, accountID, r.PathValue("id"), service.UpdateTaskParams{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		ClearDue:    req.ClearDue,
	})
	if err != nil {
		writeTaskError(w, r, err, "failed to update task")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, taskResponse(task))
}

func (h *TasksHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID := httpx.AccountIDFromContext(ctx)
	taskID := r.PathValue("id")

	var req sdk.TaskCompleteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, sdk.ErrorCodeInvalidRequest, "Malformed JSON body")
		return
	}

	if err := h.TaskService.SetCompleted(ctx, accountID, taskID, req.Completed); err != nil {
		writeTaskError(w, r, err, "failed to update task completion")
		return
	}

	task, err := h.TaskService.Get(ctx, accountID, taskID)
	if err != nil {
		writeTaskError(w, r, err, "failed to fetch task")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, taskResponse(task))
}

func (h *TasksHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID := httpx.AccountIDFromContext(ctx)

	if err := h.TaskService.Delete(ctx, accountID, r.PathValue("id")); err != nil {
		writeTaskError(w, r, err, "failed to delete task")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeTaskError(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	switch {
	case errors.Is(err, service.ErrTaskNotFound):
		httpx.WriteError(w, http.StatusNotFound, sdk.ErrorCodeNotFound, "Task not found")
	case errors.Is(err, service.ErrInvalidTaskTitle):
		httpx.WriteError(w, http.StatusUnprocessableEntity, sdk.ErrorCodeInvalidRequest, "Task title must be 1 to 200 characters")
	default:
		slogx.FromContext(r.Context()).Error(logMsg, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, sdk.ErrorCodeServerError, "Internal server error")
	}
}

func taskResponse(t *domain.Task) sdk.TaskResponse {
	return sdk.TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
