package server

import (
	"bufio"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Hub manages SSE clients for build-change broadcasts.
type Hub struct {
	mu      sync.RWMutex
	nextID  int
	clients map[int]*hubClient
	closed  bool
	lastID  string
}

type hubClient struct {
	id   int
	ch   chan string
	done chan struct{}
}

// NewHub returns an empty livereload hub.
func NewHub() *Hub {
	return &Hub{clients: map[int]*hubClient{}}
}

// ServeHTTP implements the SSE endpoint at /livereload.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "livereload shutting down", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	client := &hubClient{ch: make(chan string, 8), done: make(chan struct{})}
	h.mu.Lock()
	client.id = h.nextID
	h.nextID++
	h.clients[client.id] = client
	current := h.lastID
	h.mu.Unlock()
	// Covers every exit path; removeClient is a no-op once Broadcast or
	// Shutdown has already dropped the client.
	defer h.removeClient(client.id)

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(": connected\n\n"); err != nil {
		slog.Debug("livereload write", "error", err)
		return
	}
	if current != "" {
		if _, err := bw.WriteString("data: {\"build\":\"" + current + "\"}\n\n"); err != nil {
			slog.Debug("livereload write", "error", err)
			return
		}
	}
	if err := bw.Flush(); err == nil {
		flusher.Flush()
	}

	hb := time.NewTicker(30 * time.Second)
	defer hb.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-client.done:
			return
		case <-hb.C:
			if _, err := bw.WriteString(": ping\n\n"); err != nil {
				slog.Debug("livereload ping write", "error", err)
				return
			}
			_ = bw.Flush()
			flusher.Flush()
		case id := <-client.ch:
			if _, err := bw.WriteString("data: {\"build\":\"" + id + "\"}\n\n"); err != nil {
				slog.Debug("livereload broadcast write", "error", err)
				return
			}
			_ = bw.Flush()
			flusher.Flush()
		}
	}
}

func (h *Hub) removeClient(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.done)
	}
}

// Broadcast sends a new build ID to all clients. Clients whose channels are
// full are dropped.
func (h *Hub) Broadcast(buildID string) {
	h.mu.Lock()
	if h.closed || buildID == "" || buildID == h.lastID {
		h.mu.Unlock()
		return
	}
	h.lastID = buildID
	snapshot := make([]*hubClient, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	dropped := 0
	for _, c := range snapshot {
		select {
		case c.ch <- buildID:
		default:
			dropped++
			h.removeClient(c.id)
		}
	}
	slog.Debug("Livereload broadcast", "build_id", buildID, "clients", len(snapshot), "dropped", dropped)
}

// Clients returns the current client count.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown closes all clients and rejects future connections.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = map[int]*hubClient{}
	h.mu.Unlock()
	for _, c := range clients {
		close(c.done)
	}
}

// reloadScript is injected into served HTML pages; it reloads the page when
// a new build ID arrives.
const reloadScript = `<script>(() => {
  if (window.__SITE_LR__) return;
  window.__SITE_LR__ = true;
  function connect() {
    const es = new EventSource('/livereload');
    let first = true, current = null;
    es.onmessage = (e) => {
      try {
        const p = JSON.parse(e.data);
        if (first) { current = p.build; first = false; return; }
        if (p.build && p.build !== current) location.reload();
      } catch (_) {}
    };
    es.onerror = () => { es.close(); setTimeout(connect, 2000); };
  }
  connect();
})();</script>`
