package sse

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type FileUpdatedEvent struct {
	FileID     uuid.UUID `json:"file_id"`
	TeamID     uuid.UUID `json:"team_id"`
	Status     string    `json:"status"`
	ChangeType string    `json:"change_type"`
	UpdatedBy  uuid.UUID `json:"updated_by"`
}

type Client struct {
	ID     string
	UserID uuid.UUID
	Teams  map[uuid.UUID]bool
	Send   chan []byte
}

// message is addressed either to one user or to every client watching a team.
type message struct {
	UserID uuid.UUID
	TeamID uuid.UUID
	Event  Event
}

func (m *message) matches(c *Client) bool {
	if m.UserID != uuid.Nil {
		return c.UserID == m.UserID
	}
	return c.Teams[m.TeamID]
}

type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *message
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *message, 256),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Event)
			for _, client := range h.clients {
				if msg.matches(client) {
					select {
					case client.Send <- data:
					default:
						// Client buffer full, skip
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) SubscribeToTeam(clientID string, teamID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		client.Teams[teamID] = true
	}
}

func (h *Hub) UnsubscribeFromTeam(clientID string, teamID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		delete(client.Teams, teamID)
	}
}

// PublishToUser delivers an event to every open stream of one user.
func (h *Hub) PublishToUser(userID uuid.UUID, eventType string, data interface{}) {
	h.broadcast <- &message{
		UserID: userID,
		Event:  Event{Type: eventType, Data: data},
	}
}

func (h *Hub) BroadcastFileUpdate(teamID, fileID, updatedBy uuid.UUID, status, changeType string) {
	h.broadcast <- &message{
		TeamID: teamID,
		Event: Event{
			Type: "file_updated",
			Data: FileUpdatedEvent{
				FileID:     fileID,
				TeamID:     teamID,
				Status:     status,
				ChangeType: changeType,
				UpdatedBy:  updatedBy,
			},
		},
	}
}
