// Package ws pushes live hook delivery results to dashboard clients over WebSocket.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// writeTimeout caps a single client write so one stalled reader cannot hold up the rest.
const writeTimeout = time.Second

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// conn is one dashboard client, optionally scoped to a single project.
type conn struct {
	ws        *websocket.Conn
	cancel    context.CancelFunc
	projectID string
}

// Hub tracks connected clients and fans messages out to them.
type Hub struct {
	mu          sync.RWMutex
	conns       map[*conn]struct{}
	originHosts []string
}

// NewHub creates a hub. originHosts are the allowed Origin patterns; an empty
// list accepts any origin.
func NewHub(originHosts ...string) *Hub {
	return &Hub{
		conns:       make(map[*conn]struct{}),
		originHosts: originHosts,
	}
}

// HandleWS upgrades the request. The optional projectId query parameter
// restricts the client to that project's events.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	opts := &websocket.AcceptOptions{OriginPatterns: h.originHosts}
	if len(h.originHosts) == 0 {
		opts.InsecureSkipVerify = true
	}
	ws, err := websocket.Accept(w, r, opts)
	if err != nil {
		slog.Error("websocket accept failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &conn{ws: ws, cancel: cancel, projectID: r.URL.Query().Get("projectId")}

	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	slog.Info("websocket connected", "remote", r.RemoteAddr, "project_id", c.projectID)

	// Reads only detect disconnects; clients never send anything meaningful.
	go func() {
		defer func() {
			h.remove(c)
			_ = ws.Close(websocket.StatusNormalClosure, "")
		}()
		for {
			if _, _, err := ws.Read(ctx); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends msg to every client.
func (h *Hub) Broadcast(ctx context.Context, msg Message) {
	h.send(ctx, "", msg)
}

// BroadcastToProject sends msg to unscoped clients and clients scoped to projectID.
func (h *Hub) BroadcastToProject(ctx context.Context, projectID string, msg Message) {
	h.send(ctx, projectID, msg)
}

func (h *Hub) send(ctx context.Context, projectID string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("websocket marshal failed", "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*conn, 0, len(h.conns))
	for c := range h.conns {
		if projectID != "" && c.projectID != "" && c.projectID != projectID {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := c.ws.Write(wctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			slog.Debug("websocket write failed", "error", err)
			h.remove(c)
		}
	}
}

// ConnectionCount returns the number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		c.cancel()
		_ = c.ws.Close(websocket.StatusGoingAway, "server shutdown")
		delete(h.conns, c)
	}
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[c]; ok {
		c.cancel()
		delete(h.conns, c)
		slog.Info("websocket disconnected", "project_id", c.projectID)
	}
}
