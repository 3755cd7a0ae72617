package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/vulnscan-ai/vulnscan/internal/core/ports"
)

// HealthHandler reports liveness of the service and its dependencies
type HealthHandler struct {
	Store ports.Storage
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(store ports.Storage) *HealthHandler {
	return &HealthHandler{
		Store: store,
	}
}

// HandleHealth checks the database and reports overall status
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := h.Store.Ping(r.Context()); err != nil {
		log.Printf("Health check failed: %v", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{
			"status":   "degraded",
			"database": "unreachable",
		})
		return
	}

	json.NewEncoder(w).Encode(map[string]string{
		"status":   "ok",
		"database": "ok",
	})
}
