package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vulnscan-ai/vulnscan/internal/core/ports"
)

// VulnerabilityHandler serves stored vulnerability records
type VulnerabilityHandler struct {
	Store ports.Storage
}

// NewVulnerabilityHandler creates a new VulnerabilityHandler
func NewVulnerabilityHandler(store ports.Storage) *VulnerabilityHandler {
	return &VulnerabilityHandler{
		Store: store,
	}
}

// HandleGetVulnerability returns one vulnerability record by its identifier
func (h *VulnerabilityHandler) HandleGetVulnerability(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	rec, err := h.Store.GetVulnerability(r.Context(), id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			http.Error(w, "Vulnerability not found", http.StatusNotFound)
			return
		}
		log.Printf("Vulnerability lookup failed for %s: %v", id, err)
		http.Error(w, "Failed to load vulnerability", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}
