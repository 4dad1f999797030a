package preview

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/rajesh1993/sitegen/internal/logfields"
)

// Event is pushed to browsers after every rebuild.
type Event struct {
	Build string `json:"build"`
	Error string `json:"error,omitempty"`
}

// Hub manages server-sent event clients for rebuild broadcasts.
type Hub struct {
	mu      sync.RWMutex
	nextID  int
	clients map[int]*lrClient
	closed  bool
	last    []byte

	heartbeat time.Duration
}

type lrClient struct {
	id   int
	ch   chan []byte
	done chan struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{clients: map[int]*lrClient{}, heartbeat: 30 * time.Second}
}

// ServeHTTP implements the SSE endpoint. A client that connects after a
// build immediately receives the latest event.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	client := &lrClient{ch: make(chan []byte, 8), done: make(chan struct{})}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		http.Error(w, "livereload shutting down", http.StatusServiceUnavailable)
		return
	}
	client.id = h.nextID
	h.nextID++
	h.clients[client.id] = client
	current := h.last
	h.mu.Unlock()
	defer h.removeClient(client.id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	bw := bufio.NewWriter(w)
	send := func(s string) bool {
		if _, err := bw.WriteString(s); err != nil {
			slog.Debug("livereload write failed", logfields.Error(err))
			return false
		}
		if err := bw.Flush(); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	initial := ": connected\n\n"
	if current != nil {
		initial += "data: " + string(current) + "\n\n"
	}
	if !send(initial) {
		return
	}

	hb := time.NewTicker(h.heartbeat)
	defer hb.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-client.done:
			return
		case <-hb.C:
			if !send(": ping\n\n") {
				return
			}
		case payload := <-client.ch:
			if !send("data: " + string(payload) + "\n\n") {
				return
			}
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

// Clients returns the number of connected browsers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends ev to every client. Clients that cannot keep up are dropped.
func (h *Hub) Broadcast(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		slog.Error("livereload encode failed", logfields.Error(err))
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.last = payload
	snapshot := make([]*lrClient, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	dropped := 0
	for _, c := range snapshot {
		select {
		case c.ch <- payload:
		default:
			dropped++
			h.removeClient(c.id)
		}
	}
	slog.Debug("livereload broadcast", logfields.BuildID(ev.Build), slog.Int("clients", len(snapshot)), slog.Int("dropped", dropped))
}

// Shutdown disconnects all clients and rejects new ones.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = map[int]*lrClient{}
	h.mu.Unlock()
	for _, c := range clients {
		close(c.done)
	}
}

// Script is served at /__livereload.js. The first event after connecting
// records the current build; later successful builds reload the page and
// failed ones show an overlay.
const Script = `(() => {
  if (window.__SITEGEN_LR__) return;
  window.__SITEGEN_LR__ = true;
  let current = null;
  function overlay(msg) {
    let el = document.getElementById('__sitegen_error');
    if (!msg) { if (el) el.remove(); return; }
    if (!el) {
      el = document.createElement('pre');
      el.id = '__sitegen_error';
      el.style.cssText = 'position:fixed;inset:auto 0 0 0;max-height:40%;overflow:auto;margin:0;padding:1em;background:#300;color:#fdd;z-index:99999;white-space:pre-wrap';
      document.body.appendChild(el);
    }
    el.textContent = 'sitegen: build failed\n\n' + msg;
  }
  function connect() {
    const es = new EventSource('/__livereload');
    es.onmessage = (e) => {
      let p;
      try { p = JSON.parse(e.data); } catch (_) { return; }
      if (p.error) { overlay(p.error); return; }
      if (current === null) { current = p.build; overlay(null); return; }
      if (p.build && p.build !== current) location.reload();
    };
    es.onerror = () => { es.close(); setTimeout(connect, 2000); };
  }
  connect();
})();
`
