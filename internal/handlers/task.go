package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"taskpulse-backend/internal/middleware"
	"taskpulse-backend/internal/models"
	"taskpulse-backend/internal/repository"
	"taskpulse-backend/internal/services"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 1000
)

type TaskHandler struct {
	taskRepo *repository.TaskRepo
	clock    services.Clock
}

func NewTaskHandler(taskRepo *repository.TaskRepo, clock services.Clock) *TaskHandler {
	return &TaskHandler{taskRepo: taskRepo, clock: clock}
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if fields := validateTaskFields(req.Title, req.Description, req.Status, req.Priority); len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	task := &models.Task{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
	}
	if task.Status == "" {
		task.Status = models.StatusTodo
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if task.Status == models.StatusDone {
		now := h.clock.Now()
		task.CompletedAt = &now
	}

	if err := h.taskRepo.Create(r.Context(), task); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create task", r))
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	status := r.URL.Query().Get("status")
	sortBy := r.URL.Query().Get("sort")

	if status != "" && !models.ValidStatus(status) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Status must be todo, in_progress, or done", r))
		return
	}

	tasks, err := h.taskRepo.ListByUser(r.Context(), userID, status, sortBy)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list tasks", r))
		return
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": tasks})
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	taskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid task ID", r))
		return
	}

	task, err := h.taskRepo.GetByID(r.Context(), taskID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Task not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load task", r))
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	taskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid task ID", r))
		return
	}

	var req models.UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	task, err := h.taskRepo.GetByID(r.Context(), taskID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Task not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load task", r))
		return
	}

	title := task.Title
	if req.Title != nil {
		title = *req.Title
	}
	status := task.Status
	if req.Status != nil {
		status = *req.Status
	}
	priority := task.Priority
	if req.Priority != nil {
		priority = *req.Priority
	}
	if fields := validateTaskFields(title, req.Description, status, priority); len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	task.Title = title
	task.Priority = priority
	if req.Description != nil {
		task.Description = req.Description
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}

	// Moving into done stamps completed_at once; moving back out clears it.
	if status != task.Status {
		if status == models.StatusDone && task.CompletedAt == nil {
			now := h.clock.Now()
			task.CompletedAt = &now
		}
		if status != models.StatusDone {
			task.CompletedAt = nil
		}
		task.Status = status
	}

	if err := h.taskRepo.Update(r.Context(), task); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update task", r))
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	taskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid task ID", r))
		return
	}

	if _, err := h.taskRepo.GetByID(r.Context(), taskID, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Task not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load task", r))
		return
	}

	if err := h.taskRepo.Delete(r.Context(), taskID, userID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete task", r))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func validateTaskFields(title string, description *string, status, priority string) map[string]string {
	fields := make(map[string]string)

	if title == "" {
		fields["title"] = "Title is required"
	} else if len(title) > maxTitleLen {
		fields["title"] = "Title must be less than 200 characters"
	}
	if description != nil && len(*description) > maxDescriptionLen {
		fields["description"] = "Description must be less than 1000 characters"
	}
	if status != "" && !models.ValidStatus(status) {
		fields["status"] = "Status must be todo, in_progress, or done"
	}
	if priority != "" && !models.ValidPriority(priority) {
		fields["priority"] = "Priority must be low, medium, or high"
	}

	return fields
}
