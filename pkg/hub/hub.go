package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Name for logging
	name string

	// Registered clients, owned by Run
	clients map[*Client]bool

	// Inbound messages to broadcast
	broadcast chan Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	// Connection status lines
	out io.Writer

	// Last message, replayed to new clients when retain is set
	retain bool
	last   *Message

	count   atomic.Int32
	dropped atomic.Uint64
	running atomic.Bool

	mu sync.Mutex // Guards last
}

// Option configures a Hub
type Option func(*Hub)

// WithRetain replays the latest message to every client that connects,
// so status views are never blank.
func WithRetain() Option {
	return func(h *Hub) { h.retain = true }
}

// WithOutput sends the hub's connection status lines to w instead of stdout.
func WithOutput(w io.Writer) Option {
	return func(h *Hub) {
		if w != nil {
			h.out = w
		}
	}
}

// New creates a new Hub
func New(name string, opts ...Option) *Hub {
	h := &Hub{
		name:       name,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		out:        os.Stdout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run is the hub's main loop. Returns when ctx is done, closing every client.
func (h *Hub) Run(ctx context.Context) {
	h.running.Store(true)
	defer func() {
		h.running.Store(false)
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.remove(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.count.Store(int32(len(h.clients)))
			if last := h.lastMessage(); last != nil {
				client.send <- *last
			}
			fmt.Fprintf(h.out, "🔌 [%s] Client connected (%d total)\n", h.name, len(h.clients))

		case client := <-h.unregister:
			if h.clients[client] {
				h.remove(client)
				fmt.Fprintf(h.out, "🔌 [%s] Client disconnected (%d remaining)\n", h.name, len(h.clients))
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client's buffer is full, they're too slow
					h.remove(client)
					fmt.Fprintf(h.out, "⚠️  [%s] Dropped slow client\n", h.name)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.count.Store(int32(len(h.clients)))
}

func (h *Hub) lastMessage() *Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

// Broadcast sends a message to all connected clients without blocking.
// Returns false when the message was dropped.
func (h *Hub) Broadcast(msg Message) bool {
	if h.retain {
		h.mu.Lock()
		h.last = &msg
		h.mu.Unlock()
	}

	select {
	case h.broadcast <- msg:
		return true
	default:
		h.dropped.Add(1)
		return false
	}
}

// BroadcastJSON encodes and broadcasts a JSON message
func (h *Hub) BroadcastJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(NewJSONMessage(data))
	return nil
}

// BroadcastBinary broadcasts binary data (camera and animation frames)
func (h *Hub) BroadcastBinary(data []byte) {
	h.Broadcast(NewBinaryMessage(data))
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// Dropped returns how many broadcasts were discarded because the queue was full
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// IsRunning returns whether the hub loop is running
func (h *Hub) IsRunning() bool {
	return h.running.Load()
}
