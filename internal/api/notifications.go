package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/boxgrid/parcel-core/internal/notify"
)

// handleListNotifications returns the pending notification queue along
// with its depth and whether a drain pass is running.
func (s *Server) handleListNotifications(w http.ResponseWriter, _ *http.Request) {
	if s.queue == nil {
		writeJSON(w, http.StatusOK, map[string]any{"notifications": []any{}, "count": 0, "draining": false})
		return
	}

	status := s.queue.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": status.Entries,
		"count":         status.Depth,
		"draining":      status.Draining,
	})
}

// handleGetNotification returns one queued notification by ID.
func (s *Server) handleGetNotification(w http.ResponseWriter, r *http.Request) {
	if s.queue == nil {
		writeNotFound(w, "notification not found")
		return
	}
	id := chi.URLParam(r, "id")

	n, err := s.queue.Status(id)
	if err != nil {
		if errors.Is(err, notify.ErrNotificationNotFound) {
			writeNotFound(w, "notification not found")
			return
		}
		writeInternalError(w, "failed to get notification")
		return
	}

	writeJSON(w, http.StatusOK, n)
}

// handleCancelNotification removes a queued notification before its next
// delivery attempt.
func (s *Server) handleCancelNotification(w http.ResponseWriter, r *http.Request) {
	if s.queue == nil {
		writeNotFound(w, "notification not found")
		return
	}
	id := chi.URLParam(r, "id")

	if err := s.queue.Cancel(id); err != nil {
		if errors.Is(err, notify.ErrNotificationNotFound) {
			writeNotFound(w, "notification not found")
			return
		}
		writeInternalError(w, "failed to cancel notification")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"cancelled": id})
}
