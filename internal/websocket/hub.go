// Package websocket streams collection run events to connected clients.
// The hub follows the register/unregister/broadcast loop shape with one
// reader and one writer goroutine per client.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"ashcli/internal/pipeline"
)

// Message type constants
const (
	TypeConnection = "connection"
	TypeEntity     = "entity"
	TypeProgress   = "progress"
	TypeSummary    = "summary"
)

// Envelope is the wire format for every hub message
type Envelope struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	logger *slog.Logger

	quit    chan struct{}
	running bool
}

// NewHub creates a new Hub instance
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		quit:       make(chan struct{}),
	}
}

// Start starts the hub loop. Calling Start twice is a no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.run()
}

// Stop shuts the hub down and disconnects every client.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()
	close(h.quit)
}

func (h *Hub) run() {
	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()

			h.logger.Info("Client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			if data, err := marshalEnvelope(TypeConnection, map[string]string{
				"status":    "connected",
				"client_id": client.id,
			}); err == nil {
				select {
				case client.send <- data:
				default:
				}
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				count := len(h.clients)
				h.mu.Unlock()
				h.logger.Info("Client unregistered",
					slog.Int("total_clients", count),
					slog.String("client_id", client.id),
					slog.Duration("connection_duration", time.Since(client.connectedAt)))
			} else {
				h.mu.Unlock()
			}

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			for _, client := range clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer, drop it
					h.mu.Lock()
					if _, ok := h.clients[client]; ok {
						close(client.send)
						delete(h.clients, client)
					}
					h.mu.Unlock()
					h.logger.Warn("Client send buffer full, disconnecting",
						slog.String("client_id", client.id))
				}
			}
		}
	}
}

// Broadcast sends a typed message to every connected client.
func (h *Hub) Broadcast(messageType string, data interface{}) {
	payload, err := marshalEnvelope(messageType, data)
	if err != nil {
		h.logger.Error("Failed to marshal broadcast",
			slog.String("type", messageType),
			slog.String("error", err.Error()))
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		h.logger.Warn("Broadcast queue full, dropping message",
			slog.String("type", messageType))
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func marshalEnvelope(messageType string, data interface{}) ([]byte, error) {
	return json.Marshal(Envelope{
		Type:      messageType,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// ProgressSource yields the live tracker of the current run, nil when no
// run is active.
type ProgressSource interface {
	Tracker() *pipeline.Tracker
}

// EventObserver bridges pipeline completion events onto the hub.
type EventObserver struct {
	hub      *Hub
	progress ProgressSource
}

// NewEventObserver creates a pipeline observer broadcasting through hub.
// progress may be nil; entity events are then sent without progress
// snapshots.
func NewEventObserver(hub *Hub, progress ProgressSource) *EventObserver {
	return &EventObserver{hub: hub, progress: progress}
}

// EntityDone broadcasts one security's completion followed by the run's
// current progress snapshot.
func (o *EventObserver) EntityDone(e pipeline.Event) {
	o.hub.Broadcast(TypeEntity, e)
	if o.progress == nil {
		return
	}
	if tracker := o.progress.Tracker(); tracker != nil {
		o.hub.Broadcast(TypeProgress, tracker.Snapshot())
	}
}
