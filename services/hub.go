package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Outbound event types.
const (
	EventPlayerJoined    = "player_joined"
	EventGameStarted     = "game_started"
	EventAnswerSubmitted = "answer_submitted"
	EventRoundComplete   = "round_complete"
	EventGameComplete    = "game_complete"
	EventGameStatus      = "game_status"
	EventError           = "error"
	EventPong            = "pong"
)

// Message is the envelope for every frame in both directions.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Hub keeps the room registry: which live connections are subscribed to
// which game. It owns no game logic; inbound game events are handed to the
// coordinator, whose results come back through BroadcastToGame.
type Hub struct {
	mu          sync.RWMutex
	rooms       map[string]map[*Client]bool
	coordinator *Coordinator
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Client]bool)}
}

// SetCoordinator wires the inbound-event handler. Called once at startup,
// after the coordinator (which broadcasts through this hub) is constructed.
func (h *Hub) SetCoordinator(c *Coordinator) {
	h.coordinator = c
}

// Attach subscribes a connection to a game room.
func (h *Hub) Attach(gameID string, client *Client) {
	h.mu.Lock()
	if h.rooms[gameID] == nil {
		h.rooms[gameID] = make(map[*Client]bool)
	}
	h.rooms[gameID][client] = true
	h.mu.Unlock()

	log.Info().Str("gameId", gameID).Str("playerId", client.playerID).
		Msg("client attached")
}

// Detach removes a connection from its room. Detaching an absent client is a
// no-op; disconnects never touch session state.
func (h *Hub) Detach(gameID string, client *Client) {
	h.mu.Lock()
	if room, ok := h.rooms[gameID]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, gameID)
		}
	}
	h.mu.Unlock()
}

// Members returns a snapshot of the connections currently in a room.
func (h *Hub) Members(gameID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room := h.rooms[gameID]
	members := make([]*Client, 0, len(room))
	for client := range room {
		members = append(members, client)
	}
	return members
}

// BroadcastToGame serializes the event once and delivers the identical bytes
// to every room member at the moment of the call. Delivery is best-effort:
// a slow or broken client drops the frame, the rest still receive it.
func (h *Hub) BroadcastToGame(gameID string, eventType string, payload any) {
	data, err := json.Marshal(Message{Type: eventType, Payload: payload})
	if err != nil {
		log.Error().Err(err).Str("event", eventType).Msg("failed to marshal broadcast")
		return
	}

	members := h.Members(gameID)
	for _, client := range members {
		select {
		case client.send <- data:
		default:
			log.Warn().Str("gameId", gameID).Str("playerId", client.playerID).
				Str("event", eventType).Msg("send buffer full, dropping frame")
		}
	}

	log.Debug().Str("gameId", gameID).Str("event", eventType).
		Int("clients", len(members)).Msg("broadcast delivered")
}

// Client is one live WebSocket connection bound to a game room.
type Client struct {
	hub      *Hub
	gameID   string
	playerID string
	socket   *websocket.Conn
	send     chan []byte
	done     chan struct{}
}

// RegisterClient attaches an upgraded connection to its room and starts the
// read/write pumps.
func (h *Hub) RegisterClient(conn *websocket.Conn, gameID, playerID string) *Client {
	client := &Client{
		hub:      h,
		gameID:   gameID,
		playerID: playerID,
		socket:   conn,
		send:     make(chan []byte, 256),
		done:     make(chan struct{}),
	}
	h.Attach(gameID, client)

	go client.writePump()
	go client.readPump()

	return client
}

func (c *Client) readPump() {
	// The send channel stays open so a broadcast racing the disconnect can
	// never panic; writePump exits via done instead.
	defer func() {
		c.hub.Detach(c.gameID, c)
		close(c.done)
		c.socket.Close()
	}()

	for {
		_, raw, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("gameId", c.gameID).Msg("websocket read error")
			}
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendError("INVALID_MESSAGE", "message is not a valid event envelope")
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	defer c.socket.Close()

	for {
		select {
		case message := <-c.send:
			if err := c.socket.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-c.done:
			c.socket.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// handleMessage dispatches one inbound event. The event set is closed:
// anything unrecognized is answered with a protocol error rather than
// silently dropped.
func (c *Client) handleMessage(msg inboundMessage) {
	ctx := context.Background()

	switch msg.Type {
	case "ping":
		c.sendMessage(EventPong, "pong")

	case "join_game":
		// Connection-level join: the roster join happened over HTTP; this
		// just re-syncs the client with the current state.
		session, err := c.hub.coordinator.Game(ctx, c.gameID)
		if err != nil {
			c.sendAppError(err)
			return
		}
		c.sendMessage(EventGameStatus, map[string]any{"game": session})

	case "start_game":
		var payload struct {
			GameID string `json:"gameId"`
		}
		if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.GameID == "" {
			c.sendError("INVALID_MESSAGE", "start_game requires a gameId")
			return
		}
		if _, err := c.hub.coordinator.StartGame(ctx, payload.GameID); err != nil {
			c.sendAppError(err)
		}

	case "submit_answer":
		var payload SubmitAnswerRequest
		if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.GameID == "" {
			c.sendError("INVALID_MESSAGE", "submit_answer requires a gameId and guess")
			return
		}
		if err := c.hub.coordinator.SubmitAnswer(ctx, &payload); err != nil {
			c.sendAppError(err)
		}

	default:
		log.Warn().Str("type", msg.Type).Str("gameId", c.gameID).Msg("unknown event")
		c.sendError("PROTOCOL_ERROR", "unknown event type: "+msg.Type)
	}
}

func (c *Client) sendMessage(eventType string, payload any) {
	data, err := json.Marshal(Message{Type: eventType, Payload: payload})
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) sendError(code, message string) {
	c.sendMessage(EventError, errorPayload{Code: code, Message: message})
}

func (c *Client) sendAppError(err error) {
	appErr := AsAppError(err)
	c.sendError(appErr.Code, appErr.Message)
}
