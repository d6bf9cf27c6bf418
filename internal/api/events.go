package api

import (
	"net/http"
	"strconv"
)

// defaultEventLimit bounds event listings when no limit is given.
const defaultEventLimit = 50

// handleListEvents returns recent events, newest first.
//
// Query parameters:
//   - device_id: only events for one box
//   - limit: maximum rows (default 50)
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeJSON(w, http.StatusOK, map[string]any{"events": []any{}, "count": 0})
		return
	}

	limit := defaultEventLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	if deviceID := r.URL.Query().Get("device_id"); deviceID != "" {
		events, err := s.events.ListByDevice(r.Context(), deviceID, limit)
		if err != nil {
			writeInternalError(w, "failed to list events")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
		return
	}

	events, err := s.events.ListRecent(r.Context(), limit)
	if err != nil {
		writeInternalError(w, "failed to list events")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
}
