package websocket

import (
	"encoding/json"
	"log"
	"sync"
)

// Hub maintains the set of active stations and relays print signals
type Hub struct {
	// Registered stations map: StationID -> Client
	clients map[string]*Client

	// Register requests
	register chan *Client

	// Unregister requests
	unregister chan *Client

	// Messages relayed to every connected station
	broadcast chan []byte

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		clients:    make(map[string]*Client),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if client.StationID != "" {
				// The identify handshake re-registers the same connection
				// under its real id; drop the key it held before so the
				// map never points at it twice.
				for id, existing := range h.clients {
					if existing == client && id != client.StationID {
						delete(h.clients, id)
					}
				}
				// If another station connection holds this id, close it
				if old, ok := h.clients[client.StationID]; ok && old != client {
					close(old.send)
					delete(h.clients, client.StationID)
				}
				h.clients[client.StationID] = client
				log.Printf("📱 Station connected: %s", client.StationID)
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if client.StationID != "" {
				if _, ok := h.clients[client.StationID]; ok {
					delete(h.clients, client.StationID)
					close(client.send)
					log.Printf("📴 Station disconnected: %s", client.StationID)
				}
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Buffer full or client dead, skip
				}
			}
			h.mu.RUnlock()
		}
	}
}

// SendToStation sends a message to a specific station
func (h *Hub) SendToStation(stationID string, message interface{}) bool {
	h.mu.RLock()
	client, ok := h.clients[stationID]
	h.mu.RUnlock()

	if !ok {
		return false
	}

	jsonMsg, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return false
	}

	select {
	case client.send <- jsonMsg:
		return true
	default:
		// Buffer full or client dead
		return false
	}
}

// Broadcast relays a raw message to every connected station.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		log.Printf("⚠️ Broadcast buffer full, dropping message")
	}
}
