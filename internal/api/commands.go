package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/boxgrid/parcel-core/internal/command"
	"github.com/boxgrid/parcel-core/internal/device"
	"github.com/boxgrid/parcel-core/internal/event"
)

// lampRequest is the body for POST /devices/{id}/lamp.
type lampRequest struct {
	On bool `json:"on"`
}

// lockRequest is the body for POST /devices/{id}/lock. State accepts a
// bool or the semantic strings understood by NormalizeLockState
// (lock/unlock, open/closed, on/off).
type lockRequest struct {
	State any `json:"state"`
}

// buzzerRequest is the body for POST /devices/{id}/buzzer.
type buzzerRequest struct {
	Seconds int `json:"seconds"`
}

// unlockRequest is the body for POST /lock/unlock.
type unlockRequest struct {
	PIN  string `json:"pin"`
	User string `json:"user,omitempty"`
}

// pinRequest is the body for PUT /lock/pin. DeviceID names the box whose
// stored PIN record is updated; the new PIN itself is broadcast to the
// shared lock controller.
type pinRequest struct {
	DeviceID  string `json:"device_id"`
	PIN       string `json:"pin"`
	UpdatedBy string `json:"updated_by,omitempty"`
}

// handleSetLamp switches a box lamp on or off.
func (s *Server) handleSetLamp(w http.ResponseWriter, r *http.Request) {
	if s.commands == nil {
		writeUnavailable(w, "command transport not configured")
		return
	}
	id := chi.URLParam(r, "id")

	var req lampRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.commands.SetLamp(id, req.On); err != nil {
		s.writeCommandError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"device_id": id, "lamp": req.On})
}

// handleSetLock locks or unlocks a box relay and records the transition.
func (s *Server) handleSetLock(w http.ResponseWriter, r *http.Request) {
	if s.commands == nil {
		writeUnavailable(w, "command transport not configured")
		return
	}
	id := chi.URLParam(r, "id")

	var req lockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	locked, err := command.NormalizeLockState(req.State)
	if err != nil {
		writeBadRequest(w, "state must be a bool or lock/unlock, open/closed, on/off")
		return
	}

	if err := s.commands.SetLock(id, locked); err != nil {
		s.writeCommandError(w, err)
		return
	}

	eventType := event.TypeUnlock
	if locked {
		eventType = event.TypeLock
	}
	s.appendEvent(r, eventType, id, map[string]any{"source": "api"})

	writeJSON(w, http.StatusAccepted, map[string]any{"device_id": id, "locked": locked})
}

// handleCapture requests a photo from a box camera.
func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	if s.commands == nil {
		writeUnavailable(w, "command transport not configured")
		return
	}
	id := chi.URLParam(r, "id")

	if err := s.commands.CapturePhoto(id); err != nil {
		s.writeCommandError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"device_id": id, "capture": true})
}

// handleBuzzer sounds a box buzzer for the requested number of seconds.
func (s *Server) handleBuzzer(w http.ResponseWriter, r *http.Request) {
	if s.commands == nil {
		writeUnavailable(w, "command transport not configured")
		return
	}
	id := chi.URLParam(r, "id")

	var req buzzerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.commands.TriggerBuzzer(id, req.Seconds); err != nil {
		s.writeCommandError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"device_id": id, "seconds": req.Seconds})
}

// handleUnlock sends a PIN-carrying unlock request to the shared lock
// controller and records an UNLOCK event.
func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	if s.commands == nil {
		writeUnavailable(w, "command transport not configured")
		return
	}

	var req unlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if err := device.ValidatePIN(req.PIN); err != nil {
		writeBadRequest(w, "pin must be 4-8 digits")
		return
	}

	if err := s.commands.UnlockDoor(req.PIN); err != nil {
		s.writeCommandError(w, err)
		return
	}

	data := map[string]any{"source": "api", "method": "remote"}
	if req.User != "" {
		data["user"] = req.User
	}
	s.appendEvent(r, event.TypeUnlock, "", data)

	writeJSON(w, http.StatusAccepted, map[string]any{"unlock": "requested"})
}

// handleSetPin updates the stored lock PIN for a box and broadcasts the
// new PIN to the lock controller.
func (s *Server) handleSetPin(w http.ResponseWriter, r *http.Request) {
	if s.commands == nil {
		writeUnavailable(w, "command transport not configured")
		return
	}

	var req pinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.DeviceID == "" {
		writeBadRequest(w, "device_id is required")
		return
	}

	if err := s.registry.SetLockPIN(r.Context(), req.DeviceID, req.PIN, req.UpdatedBy); err != nil {
		switch {
		case errors.Is(err, device.ErrDeviceNotFound):
			writeNotFound(w, "device not found")
		case errors.Is(err, device.ErrInvalidPIN):
			writeBadRequest(w, "pin must be 4-8 digits")
		default:
			writeInternalError(w, "failed to update pin")
		}
		return
	}

	if err := s.commands.SyncLockPin(req.PIN); err != nil {
		// PIN is stored but the controller never saw it; surface that so
		// the caller can retry the sync.
		s.writeCommandError(w, err)
		return
	}

	s.appendEvent(r, event.TypePinChanged, req.DeviceID, map[string]any{
		"source":     "api",
		"updated_by": req.UpdatedBy,
	})

	writeJSON(w, http.StatusAccepted, map[string]any{"device_id": req.DeviceID, "pin": "updated"})
}

// writeCommandError maps publisher errors onto HTTP responses.
//
// Publishing is fire-and-forget: a disconnected broker never reaches
// here (the publisher drops and logs), so errors are invalid arguments
// or unexpected transport faults.
func (s *Server) writeCommandError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, command.ErrInvalidDeviceID):
		writeBadRequest(w, "invalid device id")
	case errors.Is(err, command.ErrInvalidRelay),
		errors.Is(err, command.ErrInvalidLockState),
		errors.Is(err, command.ErrInvalidDuration):
		writeBadRequest(w, err.Error())
	default:
		writeInternalError(w, "failed to publish command")
	}
}

// appendEvent records a command-sourced event, best-effort.
func (s *Server) appendEvent(r *http.Request, eventType, deviceID string, data map[string]any) {
	if s.events == nil {
		return
	}

	ev := &event.Event{Type: eventType, Data: data}
	if deviceID != "" {
		ev.DeviceID = &deviceID
	}

	if err := s.events.Append(r.Context(), ev); err != nil {
		s.logger.Warn("command event append failed",
			"type", eventType,
			"device_id", deviceID,
			"error", err,
		)
	}
}
