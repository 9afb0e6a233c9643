// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	applog "vocalscope/internal/log"
)

// WebSocketTransport broadcasts analysis frames to connected browser
// clients with rate limiting to avoid flooding slow consumers.
//
// Thread Safety:
// - Uses a mutex for client map access
// - Handles concurrent connections safely
type WebSocketTransport struct {
	clients         map[*websocket.Conn]bool
	clientsMutex    sync.Mutex
	upgrader        websocket.Upgrader
	server          *http.Server
	lastSend        time.Time
	minSendInterval time.Duration
}

// NewWebSocketTransport starts an HTTP server on the given port serving
// WebSocket upgrades at /metrics and returns the transport. The server
// runs in its own goroutine; a zero minSendInterval disables rate
// limiting.
func NewWebSocketTransport(port string, minSendInterval time.Duration) *WebSocketTransport {
	t := &WebSocketTransport{
		clients:         make(map[*websocket.Conn]bool),
		minSendInterval: minSendInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // The browser page is served from any origin in development
			},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", t.handleWebSocket)
	t.server = &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	go func() {
		applog.Infof("Transport: WebSocket server listening on port %s", port)
		if err := t.server.ListenAndServe(); err != http.ErrServerClosed {
			applog.Errorf("Transport: WebSocket server error: %v", err)
		}
	}()

	return t
}

// handleWebSocket upgrades HTTP connections, registers the client, and
// removes it again once its read loop fails (disconnect).
func (t *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Errorf("Transport: WebSocket upgrade error: %v", err)
		return
	}

	t.clientsMutex.Lock()
	t.clients[conn] = true
	t.clientsMutex.Unlock()

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				t.clientsMutex.Lock()
				delete(t.clients, conn)
				t.clientsMutex.Unlock()
				conn.Close()
				return
			}
		}
	}()
}

// Send broadcasts one frame as JSON to all connected clients. Frames
// arriving faster than the rate limit are dropped, not queued; clients
// that fail a write are disconnected.
func (t *WebSocketTransport) Send(data any) error {
	now := time.Now()
	if t.minSendInterval > 0 && now.Sub(t.lastSend) < t.minSendInterval {
		return nil // Skip this update
	}
	t.lastSend = now

	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	t.clientsMutex.Lock()
	for client := range t.clients {
		if err := client.WriteMessage(websocket.TextMessage, jsonData); err != nil {
			client.Close()
			delete(t.clients, client)
		}
	}
	t.clientsMutex.Unlock()

	return nil
}

// Close disconnects all clients and shuts down the HTTP server.
// Idempotent.
func (t *WebSocketTransport) Close() error {
	t.clientsMutex.Lock()
	for client := range t.clients {
		client.Close()
		delete(t.clients, client)
	}
	t.clientsMutex.Unlock()

	return t.server.Close()
}

var _ Transport = (*WebSocketTransport)(nil)
