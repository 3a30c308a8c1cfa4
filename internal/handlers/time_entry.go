package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"taskpulse-backend/internal/middleware"
	"taskpulse-backend/internal/models"
	"taskpulse-backend/internal/services"
)

type TimeEntryHandler struct {
	timers *services.TimerService
	stats  *services.StatsService
}

func NewTimeEntryHandler(timers *services.TimerService, stats *services.StatsService) *TimeEntryHandler {
	return &TimeEntryHandler{timers: timers, stats: stats}
}

func (h *TimeEntryHandler) StartTimer(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	taskID, err := uuid.Parse(chi.URLParam(r, "taskId"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid task ID", r))
		return
	}

	entry, err := h.timers.Start(r.Context(), taskID, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

func (h *TimeEntryHandler) StopTimer(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	taskID, err := uuid.Parse(chi.URLParam(r, "taskId"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid task ID", r))
		return
	}

	entry, err := h.timers.Stop(r.Context(), taskID, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

func (h *TimeEntryHandler) ListForTask(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	taskID, err := uuid.Parse(chi.URLParam(r, "taskId"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid task ID", r))
		return
	}

	entries, err := h.timers.EntriesForTask(r.Context(), taskID, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if entries == nil {
		entries = []*models.TimeEntry{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

// GetActiveTimer writes the running entry, or a JSON null when the pair is
// idle.
func (h *TimeEntryHandler) GetActiveTimer(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	taskID, err := uuid.Parse(chi.URLParam(r, "taskId"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid task ID", r))
		return
	}

	entry, err := h.timers.ActiveTimer(r.Context(), taskID, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

func (h *TimeEntryHandler) GetTotalTime(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	taskID, err := uuid.Parse(chi.URLParam(r, "taskId"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid task ID", r))
		return
	}

	totalSeconds, err := h.timers.TotalTime(r.Context(), taskID, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.TaskTimeTotal{
		TaskID:       taskID,
		TotalSeconds: totalSeconds,
		Formatted:    formatDuration(totalSeconds),
	})
}

func (h *TimeEntryHandler) ListActiveTimers(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	entries, err := h.timers.ActiveTimers(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if entries == nil {
		entries = []*models.TimeEntry{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

func (h *TimeEntryHandler) ProductivityStats(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	stats, err := h.stats.ComputeStats(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// formatDuration renders whole seconds as HH:MM:SS. Hours do not wrap, so
// long totals read as 127:02:45.
func formatDuration(seconds int) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
}
