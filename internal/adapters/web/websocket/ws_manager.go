package web

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vulnscan-ai/vulnscan/internal/core/domain"
	"github.com/vulnscan-ai/vulnscan/internal/core/ports"
)

// WSMessage is the envelope for every event pushed to clients.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// WSManager broadcasts enrichment progress to connected websocket clients.
// It implements ports.ProgressSink so the enrichment service can publish
// without knowing about websockets.
type WSManager struct {
	allowedOrigins []string
	upgrader       websocket.Upgrader
	Clients        map[*websocket.Conn]struct{}
	mu             sync.Mutex
}

var _ ports.ProgressSink = (*WSManager)(nil)

func NewWSManager(allowedOrigins []string) *WSManager {
	m := &WSManager{
		allowedOrigins: allowedOrigins,
		Clients:        make(map[*websocket.Conn]struct{}),
	}
	m.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     m.checkOrigin,
	}
	return m
}

func (m *WSManager) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	// Allow same-origin (no Origin header)
	if origin == "" {
		return true
	}

	for _, allowed := range m.allowedOrigins {
		if origin == allowed {
			return true
		}
	}

	log.Printf("WebSocket: Rejected origin: %s", origin)
	return false
}

func (m *WSManager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}

	m.mu.Lock()
	m.Clients[conn] = struct{}{}
	m.mu.Unlock()

	log.Printf("WebSocket connected: %s", conn.RemoteAddr())

	// Clean up on disconnect
	go func() {
		defer conn.Close()
		defer func() {
			m.mu.Lock()
			delete(m.Clients, conn)
			m.mu.Unlock()
			log.Printf("WebSocket disconnected: %s", conn.RemoteAddr())
		}()
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				break
			}
		}
	}()
}

// EnrichmentStarted announces the start of an enrichment run.
func (m *WSManager) EnrichmentStarted(scanID string, findingCount int) {
	m.broadcastMessage(WSMessage{
		Type: "enrichment_started",
		Payload: map[string]interface{}{
			"scan_id":       scanID,
			"finding_count": findingCount,
		},
	})
}

// FindingEnriched announces a finding that just got a vulnerability linked.
func (m *WSManager) FindingEnriched(finding domain.Finding) {
	m.broadcastMessage(WSMessage{
		Type: "finding_enriched",
		Payload: map[string]string{
			"finding_id": finding.ID,
			"cve_id":     finding.CVEID,
			"confidence": string(finding.Confidence),
		},
	})
}

// EnrichmentCompleted announces the end of a run with its counters.
func (m *WSManager) EnrichmentCompleted(scanID string, enriched, skipped, failed int) {
	m.broadcastMessage(WSMessage{
		Type: "enrichment_completed",
		Payload: map[string]interface{}{
			"scan_id":  scanID,
			"enriched": enriched,
			"skipped":  skipped,
			"failed":   failed,
		},
	})
}

func (m *WSManager) broadcastMessage(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Println("JSON marshal error:", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for conn := range m.Clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(m.Clients, conn)
		}
	}
}
