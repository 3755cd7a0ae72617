package server

import (
	"context"
	"log"
	"net/http"

	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/vulnscan-ai/vulnscan/internal/adapters/web/handlers"
	web "github.com/vulnscan-ai/vulnscan/internal/adapters/web/websocket"
	"github.com/vulnscan-ai/vulnscan/internal/core/ports"
)

// Server handles HTTP and WebSocket connections.
type Server struct {
	Addr      string
	Store     ports.Storage
	WSManager *web.WSManager

	HealthHandler *handlers.HealthHandler
	ScanHandler   *handlers.ScanHandler
	VulnHandler   *handlers.VulnerabilityHandler
	srv           *http.Server
}

// NewServer creates a new web server.
func NewServer(addr string, store ports.Storage, enricher handlers.Enricher, wsManager *web.WSManager) *Server {
	return &Server{
		Addr:      addr,
		Store:     store,
		WSManager: wsManager,

		HealthHandler: handlers.NewHealthHandler(store),
		ScanHandler:   handlers.NewScanHandler(store, enricher),
		VulnHandler:   handlers.NewVulnerabilityHandler(store),
	}
}

// Run starts the server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	// Setup Routes
	handler := SetupRoutes(s)

	// Instrument with OpenTelemetry
	// "vulnscan-server" is the name of the operation (span)
	instrumentedHandler := otelhttp.NewHandler(handler, "vulnscan-server")

	s.srv = &http.Server{
		Addr:              s.Addr,
		Handler:           instrumentedHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful Shutdown implementation
	go func() {
		<-ctx.Done()
		log.Println("Web Server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Web Server shutdown error: %v", err)
		}
	}()

	log.Printf("Web server listening on %s", s.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
