package hub

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// queueSize bounds both the broadcast queue and each client's send buffer.
const queueSize = 256

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	name   string
	logger *slog.Logger

	clients    map[*Client]struct{}
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client

	// quit is closed once the hub stops accepting clients.
	quit      chan struct{}
	closeOnce sync.Once

	// mu guards clients for ClientCount; Run is the only writer.
	mu      sync.RWMutex
	running atomic.Bool
	dropped atomic.Int64
}

// New creates a hub. A nil logger uses slog.Default.
func New(name string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		name:       name,
		logger:     logger.With("component", "hub."+name),
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan Message, queueSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
	}
}

// Run is the hub's main loop. It returns when ctx is done or Close is
// called, closing every client's send channel on the way out.
func (h *Hub) Run(ctx context.Context) {
	h.running.Store(true)
	defer func() {
		h.Close()
		h.mu.Lock()
		for c := range h.clients {
			delete(h.clients, c)
			close(c.send)
		}
		h.mu.Unlock()
		h.running.Store(false)
		h.logger.Debug("hub stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.quit:
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("client connected", "clients", count)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("client disconnected", "clients", count)

		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				if !c.wants(msg.Topic) {
					continue
				}
				select {
				case c.send <- msg:
				default:
					// Buffer full: the client is too slow to keep.
					delete(h.clients, c)
					close(c.send)
					h.dropped.Add(1)
					h.logger.Warn("dropped slow client")
				}
			}
			h.mu.Unlock()
		}
	}
}

// Close stops Run. It is safe to call more than once.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.quit) })
}

// Broadcast queues msg for every client. It never blocks; when the queue
// is full or the hub is closed the message is dropped.
func (h *Hub) Broadcast(msg Message) {
	select {
	case <-h.quit:
		return
	default:
	}
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("broadcast queue full, dropping message")
	}
}

// Publish encodes v as JSON and broadcasts it to every client.
func (h *Hub) Publish(v any) error {
	return h.PublishTo("", v)
}

// PublishTo encodes v as JSON and broadcasts it to clients subscribed to
// topic. An empty topic reaches every client.
func (h *Hub) PublishTo(topic string, v any) error {
	msg, err := Encode(v)
	if err != nil {
		return err
	}
	msg.Topic = topic
	h.Broadcast(msg)
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many slow clients have been evicted.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// IsRunning reports whether Run is active.
func (h *Hub) IsRunning() bool {
	return h.running.Load()
}
