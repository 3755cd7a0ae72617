package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/vulnscan-ai/vulnscan/internal/core/domain"
	"github.com/vulnscan-ai/vulnscan/internal/core/ports"
	"github.com/vulnscan-ai/vulnscan/internal/core/services/match"
)

// Enricher triggers the enrichment run for one scan.
type Enricher interface {
	Enrich(ctx context.Context, scanID string) error
}

// ScanHandler handles scan ingest, retrieval and enrichment triggers
type ScanHandler struct {
	Store    ports.Storage
	Enricher Enricher
}

// NewScanHandler creates a new ScanHandler
func NewScanHandler(store ports.Storage, enricher Enricher) *ScanHandler {
	return &ScanHandler{
		Store:    store,
		Enricher: enricher,
	}
}

type ingestFinding struct {
	Host           string `json:"host"`
	Port           int    `json:"port"`
	ServiceName    string `json:"service_name"`
	ServiceVersion string `json:"service_version"`
}

type ingestRequest struct {
	Target   string          `json:"target"`
	Findings []ingestFinding `json:"findings"`
}

// HandleCreateScan ingests a scan result: one target plus the services
// found on it. Enrichment is a separate, explicit trigger.
func (h *ScanHandler) HandleCreateScan(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB
	r.Body = http.MaxBytesReader(w, r.Body, 1048576)

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	target, err := domain.NormalizeTarget(req.Target)
	if err != nil {
		http.Error(w, "Invalid target: "+err.Error(), http.StatusBadRequest)
		return
	}

	scan := domain.Scan{
		ID:        uuid.NewString(),
		Target:    target.Normalized,
		CreatedAt: time.Now().UTC(),
	}

	findings := make([]domain.Finding, 0, len(req.Findings))
	for _, in := range req.Findings {
		if in.Host == "" || strings.TrimSpace(in.ServiceName) == "" {
			http.Error(w, "Findings need host and service_name", http.StatusBadRequest)
			return
		}
		if in.Port < 0 || in.Port > 65535 {
			http.Error(w, "Invalid port", http.StatusBadRequest)
			return
		}

		name := strings.TrimSpace(in.ServiceName)
		version := strings.TrimSpace(in.ServiceVersion)

		// Scanners that report a raw Server header value ("Apache/2.4.49
		// (Unix)") carry the version inside the name.
		if version == "" {
			if product, v, ok := match.ParseServerHeader(name); ok && v != "" {
				name, version = product, v
			}
		}

		findings = append(findings, domain.Finding{
			ID:             uuid.NewString(),
			ScanID:         scan.ID,
			Host:           in.Host,
			Port:           in.Port,
			ServiceName:    name,
			ServiceVersion: version,
		})
	}

	if err := h.Store.CreateScan(r.Context(), scan); err != nil {
		log.Printf("Scan create failed: %v", err)
		http.Error(w, "Failed to create scan", http.StatusInternalServerError)
		return
	}
	if err := h.Store.CreateFindings(r.Context(), findings); err != nil {
		log.Printf("Finding create failed for scan %s: %v", scan.ID, err)
		http.Error(w, "Failed to store findings", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"scan_id":       scan.ID,
		"target":        target,
		"finding_count": len(findings),
	})
}

// HandleEnrich starts the enrichment run for a scan
func (h *ScanHandler) HandleEnrich(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	scan, err := h.Store.GetScan(r.Context(), id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			http.Error(w, "Scan not found", http.StatusNotFound)
			return
		}
		log.Printf("Scan lookup failed: %v", err)
		http.Error(w, "Failed to load scan", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if scan.EnrichmentComplete {
		json.NewEncoder(w).Encode(map[string]string{"status": "already_complete"})
		return
	}

	// The run outlives the request. Concurrent triggers for the same scan
	// are collapsed by the service itself.
	go func() {
		if err := h.Enricher.Enrich(context.Background(), scan.ID); err != nil {
			log.Printf("Enrichment failed for scan %s: %v", scan.ID, err)
		}
	}()

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "enrichment_started",
		"scan_id": scan.ID,
	})
}

// HandleGetScan returns a scan with its enrichment state
func (h *ScanHandler) HandleGetScan(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	scan, err := h.Store.GetScan(r.Context(), id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			http.Error(w, "Scan not found", http.StatusNotFound)
			return
		}
		log.Printf("Scan lookup failed: %v", err)
		http.Error(w, "Failed to load scan", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(scan)
}

// enrichedFinding pairs a finding with its linked vulnerability record.
type enrichedFinding struct {
	domain.Finding
	Vulnerability *domain.VulnerabilityRecord `json:"vulnerability,omitempty"`
}

// HandleGetFindings returns all findings of a scan, each with the linked
// vulnerability record when enrichment produced one
func (h *ScanHandler) HandleGetFindings(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if _, err := h.Store.GetScan(r.Context(), id); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			http.Error(w, "Scan not found", http.StatusNotFound)
			return
		}
		log.Printf("Scan lookup failed: %v", err)
		http.Error(w, "Failed to load scan", http.StatusInternalServerError)
		return
	}

	findings, err := h.Store.GetFindings(r.Context(), id)
	if err != nil {
		log.Printf("Finding lookup failed for scan %s: %v", id, err)
		http.Error(w, "Failed to load findings", http.StatusInternalServerError)
		return
	}

	out := make([]enrichedFinding, 0, len(findings))
	for _, f := range findings {
		ef := enrichedFinding{Finding: f}
		if f.CVEID != "" {
			rec, err := h.Store.GetVulnerability(r.Context(), f.CVEID)
			if err != nil {
				log.Printf("Vulnerability lookup failed for %s: %v", f.CVEID, err)
			} else {
				ef.Vulnerability = rec
			}
		}
		out = append(out, ef)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"scan_id":  id,
		"findings": out,
		"count":    len(out),
	})
}
