package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vulnscan-ai/vulnscan/internal/adapters/web/middleware"
)

func SetupRoutes(s *Server) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.HealthHandler.HandleHealth).Methods(http.MethodGet)

	// Rate limiters for the mutating routes
	ingestLimiter := middleware.NewRateLimiter(30, 1*time.Minute) // 30 scan submissions per minute
	enrichLimiter := middleware.NewRateLimiter(10, 1*time.Minute) // 10 enrichment triggers per minute

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.LoggingMiddleware)

	api.Handle("/scans",
		middleware.RateLimitMiddleware(ingestLimiter)(http.HandlerFunc(s.ScanHandler.HandleCreateScan))).Methods(http.MethodPost)
	api.Handle("/scans/{id}/enrich",
		middleware.RateLimitMiddleware(enrichLimiter)(http.HandlerFunc(s.ScanHandler.HandleEnrich))).Methods(http.MethodPost)

	api.HandleFunc("/scans/{id}", s.ScanHandler.HandleGetScan).Methods(http.MethodGet)
	api.HandleFunc("/scans/{id}/findings", s.ScanHandler.HandleGetFindings).Methods(http.MethodGet)
	api.HandleFunc("/vulnerabilities/{id}", s.VulnHandler.HandleGetVulnerability).Methods(http.MethodGet)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// WebSocket endpoint for enrichment progress
	r.HandleFunc("/ws", s.WSManager.HandleWebSocket)

	return r
}
