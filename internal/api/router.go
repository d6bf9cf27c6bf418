package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Device endpoints
		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)
			r.Get("/stats", s.handleDeviceStats)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetDevice)
				r.Patch("/", s.handleUpdateDevice)
				r.Delete("/", s.handleDeleteDevice)

				// Per-box commands (fire-and-forget over MQTT)
				r.Post("/lamp", s.handleSetLamp)
				r.Post("/lock", s.handleSetLock)
				r.Post("/capture", s.handleCapture)
				r.Post("/buzzer", s.handleBuzzer)
			})
		})

		// Shared lock controller endpoints
		r.Route("/lock", func(r chi.Router) {
			r.Post("/unlock", s.handleUnlock)
			r.Put("/pin", s.handleSetPin)
		})

		// Event log
		r.Get("/events", s.handleListEvents)

		// Notification retry queue
		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", s.handleListNotifications)
			r.Get("/{id}", s.handleGetNotification)
			r.Delete("/{id}", s.handleCancelNotification)
		})

		// WebSocket event feed
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
