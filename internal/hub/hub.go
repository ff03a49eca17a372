package hub

import (
	"sync"

	"github.com/classcast/classcast/pkg/log"
)

// Hub fans events out to the websocket clients watching each session.
type Hub struct {
	clients    map[string]*Client            // clientID -> client
	sessions   map[string]map[string]*Client // sessionID -> clientID -> client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *SessionMessage
	mu         sync.RWMutex
}

// SessionMessage is one frame addressed to every viewer of a session.
type SessionMessage struct {
	SessionID string
	Message   []byte
	Exclude   string // Client ID to exclude
}

// NewHub creates an empty hub. Call Run in its own goroutine.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		sessions:   make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *SessionMessage, 256),
	}
}

// Run processes register/unregister/broadcast events until the process
// exits.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			log.L().Debug().Str("client_id", client.ID).Msg("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				for sessionID, sessionClients := range h.sessions {
					delete(sessionClients, client.ID)
					if len(sessionClients) == 0 {
						delete(h.sessions, sessionID)
					}
				}
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()
			log.L().Debug().Str("client_id", client.ID).Msg("client unregistered")

		case msg := <-h.broadcast:
			h.mu.RLock()
			if sessionClients, ok := h.sessions[msg.SessionID]; ok {
				for clientID, client := range sessionClients {
					if clientID == msg.Exclude {
						continue
					}
					select {
					case client.Send <- msg.Message:
					default:
						go h.removeClient(client)
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connected client.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister drops a client and its session memberships.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// JoinSession subscribes a client to a session's frames.
func (h *Hub) JoinSession(client *Client, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[sessionID]; !ok {
		h.sessions[sessionID] = make(map[string]*Client)
	}
	h.sessions[sessionID][client.ID] = client
	log.L().Info().Str("client_id", client.ID).Str(log.FieldSessionID, sessionID).Msg("client joined session")
}

// LeaveSession unsubscribes a client from a session.
func (h *Hub) LeaveSession(client *Client, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sessionClients, ok := h.sessions[sessionID]; ok {
		delete(sessionClients, client.ID)
		if len(sessionClients) == 0 {
			delete(h.sessions, sessionID)
		}
	}
}

// Broadcast queues a frame for every viewer of a session.
func (h *Hub) Broadcast(msg *SessionMessage) {
	h.broadcast <- msg
}

// SessionViewerCount returns how many clients are watching a session.
func (h *Hub) SessionViewerCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

// HasSession reports whether any client is watching the session.
func (h *Hub) HasSession(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.sessions[sessionID]
	return ok
}

func (h *Hub) removeClient(client *Client) {
	h.Unregister(client)
}
