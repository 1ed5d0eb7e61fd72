package handlers

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/dimitrije/dfsim-api/internal/sse"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/websocket"
)

const (
	syncPingInterval = 30 * time.Second
	syncWriteTimeout = 10 * time.Second
	syncReadTimeout  = 60 * time.Second
)

type ClientMessage struct {
	Action string `json:"action"`
	TeamID string `json:"team_id,omitempty"`
}

// SyncHandler is the WebSocket twin of the event stream. Browsers cannot set
// headers on a WebSocket handshake, so the access token comes as ?token=.
type SyncHandler struct {
	hub         LiveHubInterface
	teamService TeamServiceInterface
	jwtService  AccessTokenValidator
}

func NewSyncHandler(hub LiveHubInterface, teamService TeamServiceInterface, jwtService AccessTokenValidator) *SyncHandler {
	return &SyncHandler{
		hub:         hub,
		teamService: teamService,
		jwtService:  jwtService,
	}
}

func (h *SyncHandler) Connect(c *drift.Context) {
	token := c.QueryParam("token")
	if token == "" {
		c.Unauthorized("token is required")
		return
	}

	claims, err := h.jwtService.ValidateAccessToken(token)
	if err != nil {
		c.Unauthorized("invalid token")
		return
	}

	teams, err := h.teamService.GetUserTeams(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, err, "open live connection")
		return
	}

	conn, err := websocket.Upgrade(c)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	clientID := uuid.New().String()
	client := &sse.Client{
		ID:     clientID,
		UserID: claims.UserID,
		Teams:  make(map[uuid.UUID]bool, len(teams)),
		Send:   make(chan []byte, 256),
	}
	for _, t := range teams {
		client.Teams[t.ID] = true
	}

	h.hub.Register(client)

	_ = conn.WriteJSON(map[string]string{
		"type":      "connected",
		"client_id": clientID,
	})

	done := make(chan struct{})

	// Write pump
	go func() {
		ticker := time.NewTicker(syncPingInterval)
		defer ticker.Stop()
		defer func() {
			if err := conn.Close(websocket.CloseNormalClosure, ""); err != nil {
				log.Printf("WebSocket close error: %v", err)
			}
		}()

		for {
			select {
			case msg, ok := <-client.Send:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(syncWriteTimeout))
				if err := conn.WriteText(string(msg)); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.Ping(nil); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	// Read pump (blocks until disconnect)
	defer func() {
		close(done)
		h.hub.Unregister(client)
	}()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(syncReadTimeout))
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		if msgType != websocket.TextMessage {
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = conn.WriteJSON(map[string]string{
				"type":    "error",
				"message": "invalid message format",
			})
			continue
		}

		_ = conn.WriteJSON(h.handleMessage(client, msg))
	}
}

// handleMessage applies one client action and returns the reply frame.
func (h *SyncHandler) handleMessage(client *sse.Client, msg ClientMessage) map[string]string {
	switch msg.Action {
	case "ping":
		return map[string]string{"type": "pong"}

	case "subscribe", "unsubscribe":
		teamID, err := uuid.Parse(msg.TeamID)
		if err != nil {
			return map[string]string{
				"type":       "error",
				"message":    "invalid team_id",
				"ref_action": msg.Action,
			}
		}

		if msg.Action == "unsubscribe" {
			h.hub.UnsubscribeFromTeam(client.ID, teamID)
			return map[string]string{"type": "unsubscribed", "team_id": teamID.String()}
		}

		isMember, err := h.teamService.IsMember(context.Background(), teamID, client.UserID)
		if err != nil || !isMember {
			return map[string]string{
				"type":       "error",
				"message":    "team not found or access denied",
				"ref_action": msg.Action,
			}
		}
		h.hub.SubscribeToTeam(client.ID, teamID)
		return map[string]string{"type": "subscribed", "team_id": teamID.String()}

	default:
		return map[string]string{
			"type":       "error",
			"message":    "unknown action",
			"ref_action": msg.Action,
		}
	}
}
