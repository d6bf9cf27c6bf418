package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/boxgrid/parcel-core/internal/device"
)

// handleListDevices returns all devices, with an optional status filter.
//
// Query parameters:
//   - status: filter by connectivity status (online, offline, unknown)
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		devices, err := s.registry.GetDevicesByStatus(ctx, device.Status(statusStr))
		if err != nil {
			writeInternalError(w, "failed to list devices")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
		return
	}

	devices, err := s.registry.ListDevices(ctx)
	if err != nil {
		writeInternalError(w, "failed to list devices")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// handleGetDevice returns a single device by ID.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	dev, err := s.registry.GetDevice(r.Context(), id)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to get device")
		return
	}

	writeJSON(w, http.StatusOK, dev)
}

// handleUpdateDevice partially updates a device.
//
// Boxes register themselves on first message, so the API never creates
// devices; updates are limited to operator-editable fields like the name.
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := s.registry.GetDevice(r.Context(), id)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to get device")
		return
	}

	// Decode partial update onto the existing record
	if err := json.NewDecoder(r.Body).Decode(existing); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	existing.ID = id // ID cannot be changed

	if err := s.registry.UpdateDevice(r.Context(), existing); err != nil {
		if errors.Is(err, device.ErrInvalidDevice) ||
			errors.Is(err, device.ErrInvalidID) ||
			errors.Is(err, device.ErrInvalidName) {
			writeBadRequest(w, err.Error())
			return
		}
		writeInternalError(w, "failed to update device")
		return
	}

	writeJSON(w, http.StatusOK, existing)
}

// handleDeleteDevice removes a device by ID.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.registry.DeleteDevice(r.Context(), id); err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to delete device")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// handleDeviceStats returns fleet-level connectivity counts.
func (s *Server) handleDeviceStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	online, err := s.registry.GetDevicesByStatus(ctx, device.StatusOnline)
	if err != nil {
		writeInternalError(w, "failed to get device stats")
		return
	}
	offline, err := s.registry.GetDevicesByStatus(ctx, device.StatusOffline)
	if err != nil {
		writeInternalError(w, "failed to get device stats")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total":   s.registry.GetDeviceCount(),
		"online":  len(online),
		"offline": len(offline),
	})
}
