// Package hub streams analysis events to browsers and dashboards over
// Server-Sent Events.
//
// Each service.Event becomes one SSE frame whose event name is the event
// type (analysis_completed, analysis_failed, run_deleted,
// assistant_answered) and whose data is the JSON payload, so clients can
// subscribe per type with EventSource.addEventListener. A client may narrow
// the stream with ?types=analysis_completed,run_deleted. Frames carry a
// monotonically increasing id.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"vlanislands/internal/service"
)

// DefaultKeepAlive is the interval between comment frames on idle streams
const DefaultKeepAlive = 30 * time.Second

type frame struct {
	eventType service.EventType
	data      []byte
}

// client is one connected SSE stream
type client struct {
	id     string
	types  map[service.EventType]bool // nil means all
	frames chan []byte
}

func (c *client) wants(t service.EventType) bool {
	return c.types == nil || c.types[t]
}

// Hub manages SSE client connections
type Hub struct {
	mu         sync.RWMutex
	clients    map[*client]struct{}
	register   chan *client
	unregister chan *client
	broadcast  chan service.Event
	seq        uint64
	keepAlive  time.Duration
	logger     *slog.Logger
}

// Option configures a Hub
type Option func(*Hub)

// WithKeepAlive sets the keep-alive interval
func WithKeepAlive(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.keepAlive = d
		}
	}
}

// New creates a new Hub
func New(logger *slog.Logger, opts ...Option) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan service.Event, 256),
		keepAlive:  DefaultKeepAlive,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run starts the hub's event loop and returns when ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.frames)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("event stream opened", "client", c.id, "total", total)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.frames)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("event stream closed", "client", c.id, "total", total)

		case event := <-h.broadcast:
			f, err := h.encode(event)
			if err != nil {
				h.logger.Error("encode event", "type", event.Type, "error", err)
				continue
			}

			h.mu.RLock()
			for c := range h.clients {
				if !c.wants(f.eventType) {
					continue
				}
				select {
				case c.frames <- f.data:
				default:
					h.logger.Warn("event stream client is slow, dropping event", "client", c.id, "type", event.Type)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// encode renders one SSE frame. Only Run calls it, so seq needs no lock.
func (h *Hub) encode(event service.Event) (frame, error) {
	payload := event.Payload
	if payload == nil {
		payload = struct{}{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return frame{}, err
	}
	h.seq++
	return frame{
		eventType: event.Type,
		data:      []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", h.seq, event.Type, data)),
	}, nil
}

// Broadcast queues an event for all interested clients
func (h *Hub) Broadcast(event service.Event) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("event stream backlog full, dropping event", "type", event.Type)
	}
}

// Forward relays every event published on bus until ctx is done
func (h *Hub) Forward(ctx context.Context, bus *service.EventBus) {
	events := make(chan service.Event, 100)
	bus.Subscribe(events)
	defer bus.Unsubscribe(events)

	for {
		select {
		case event := <-events:
			h.Broadcast(event)
		case <-ctx.Done():
			return
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// parseTypes reads the ?types= filter; nil means every type
func parseTypes(raw string) map[service.EventType]bool {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	types := make(map[service.EventType]bool)
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			types[service.EventType(t)] = true
		}
	}
	return types
}

// ServeHTTP handles SSE connections
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	c := &client{
		id:     uuid.NewString(),
		types:  parseTypes(r.URL.Query().Get("types")),
		frames: make(chan []byte, 64),
	}

	select {
	case h.register <- c:
	case <-r.Context().Done():
		return
	}

	defer func() {
		// the hub may already have stopped and closed the channel
		select {
		case h.unregister <- c:
		case <-time.After(time.Second):
		}
	}()

	fmt.Fprintf(w, "retry: %d\n: connected %s\n\n", h.keepAlive.Milliseconds(), c.id)
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-c.frames:
			if !ok {
				return
			}
			if _, err := w.Write(data); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
