package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/betwise-ng/betwise/internal/domain"
	"github.com/betwise-ng/betwise/internal/service"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tunables
// ──────────────────────────────────────────────────────────────────────────────

const (
	writeDeadline  = 10 * time.Second
	pingInterval   = 30 * time.Second
	pongWait       = 35 * time.Second // must be > pingInterval
	maxMessageSize = 512              // bytes; clients only send pongs
	sendBufferSize = 256              // messages in each client send channel
)

// ──────────────────────────────────────────────────────────────────────────────
// Client
// ──────────────────────────────────────────────────────────────────────────────

// Client represents one connected WebSocket endpoint.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte // buffered outbound message queue
	accountID uuid.UUID   // zero-value = anonymous
}

// ──────────────────────────────────────────────────────────────────────────────
// Hub
// ──────────────────────────────────────────────────────────────────────────────

// Hub maintains the set of active clients and routes broadcast messages.
// Run() must be called in a dedicated goroutine before ServeWs is used.
// Identity, like on the REST surface, is taken from the trusted gateway:
// the X-Account-ID header on the upgrade request binds the connection to an
// account so settlement notices can be delivered to their owner only.
type Hub struct {
	// Registered clients and their concurrency guard.
	mu      sync.RWMutex
	clients map[*Client]bool

	// channels consumed by Run()
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	// upgrader is safe for concurrent use after construction.
	upgrader websocket.Upgrader
}

// NewHub creates a Hub ready to be started with Run().
func NewHub(allowedOrigins []string) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 512),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowedOrigins) == 0 {
					return true // dev mode: allow all
				}
				origin := r.Header.Get("Origin")
				for _, o := range allowedOrigins {
					if o == "*" || o == origin {
						return true
					}
				}
				return false
			},
		},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Run — hub event loop
// ──────────────────────────────────────────────────────────────────────────────

// Run processes registration, unregistration, and broadcast events
// sequentially.  Call it once as a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client's buffer full — drop the message for this client.
					// The writePump will detect a stalled connection separately.
				}
			}
			h.mu.RUnlock()
		}
	}
}

// ConnectedCount returns the current number of connected clients.
func (h *Hub) ConnectedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ──────────────────────────────────────────────────────────────────────────────
// ServeWs — HTTP → WebSocket upgrade
// ──────────────────────────────────────────────────────────────────────────────

// ServeWs upgrades an HTTP request to a WebSocket connection, binds it to
// the account named by the gateway-set X-Account-ID header when present,
// and starts the read/write pumps.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws.ServeWs: upgrade failed: %v", err)
		return
	}

	var accountID uuid.UUID // zero = anonymous
	if raw := r.Header.Get("X-Account-ID"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			accountID = id
		}
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, sendBufferSize),
		accountID: accountID,
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// ──────────────────────────────────────────────────────────────────────────────
// Client pumps
// ──────────────────────────────────────────────────────────────────────────────

// writePump drains the client's send channel and writes messages to the
// WebSocket connection.  It also sends ping frames every pingInterval.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if !ok {
				// Hub closed the channel.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads frames from the WebSocket connection.  Only pong messages
// are handled (they reset the read deadline).  All other inbound messages are
// discarded — this is a server-push-only protocol.  When the connection drops
// the client is unregistered.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ws.readPump: unexpected close for account %s: %v", c.accountID, err)
			}
			return
		}
		// All inbound messages are silently dropped; server is push-only.
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Broadcast helpers — implement the service broadcaster interfaces
// ──────────────────────────────────────────────────────────────────────────────

// BroadcastOddsUpdate satisfies service.OddsBroadcaster.
func (h *Hub) BroadcastOddsUpdate(game *domain.Game) {
	h.broadcastJSON(OddsUpdateMessage{
		Type:      MsgTypeOddsUpdate,
		GameID:    game.ID,
		HomeTeam:  game.HomeTeam,
		AwayTeam:  game.AwayTeam,
		Home:      game.Odds.Home,
		Away:      game.Odds.Away,
		Draw:      game.Odds.Draw,
		StartsAt:  game.StartsAt,
		Timestamp: time.Now().UTC(),
	})
}

// BroadcastGameFinished satisfies part of service.Broadcaster.
func (h *Hub) BroadcastGameFinished(game *domain.Game) {
	if game.Result == nil {
		return
	}
	h.broadcastJSON(GameFinishedMessage{
		Type:      MsgTypeGameFinished,
		GameID:    game.ID,
		HomeTeam:  game.HomeTeam,
		AwayTeam:  game.AwayTeam,
		Result:    *game.Result,
		Timestamp: time.Now().UTC(),
	})
}

// BroadcastGameCancelled satisfies part of service.Broadcaster.
func (h *Hub) BroadcastGameCancelled(game *domain.Game) {
	h.broadcastJSON(GameCancelledMessage{
		Type:      MsgTypeGameCancelled,
		GameID:    game.ID,
		HomeTeam:  game.HomeTeam,
		AwayTeam:  game.AwayTeam,
		Timestamp: time.Now().UTC(),
	})
}

// BroadcastBetSettled delivers a settlement notice to the owning account's
// connections only.
func (h *Hub) BroadcastBetSettled(bet *domain.Bet) {
	data, err := json.Marshal(BetSettledMessage{
		Type:      MsgTypeBetSettled,
		BetID:     bet.ID,
		Status:    bet.Status,
		Payout:    bet.Payout,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if client.accountID != bet.AccountID {
			continue
		}
		select {
		case client.send <- data:
		default:
		}
	}
}

// BroadcastRiskAlert satisfies service.AlertBroadcaster.
func (h *Hub) BroadcastRiskAlert(alert service.RiskAlert) {
	h.broadcastJSON(RiskAlertMessage{
		Type:      MsgTypeRiskAlert,
		GameID:    alert.GameID,
		HomeTeam:  alert.HomeTeam,
		AwayTeam:  alert.AwayTeam,
		WorstCase: alert.WorstCase,
		Threshold: alert.Threshold,
		Timestamp: alert.At,
	})
}

// broadcastJSON is the common marshalling path.
func (h *Hub) broadcastJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("ws.Hub: marshal error: %v", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		log.Printf("ws.Hub: broadcast channel full, message dropped")
	}
}

// SendError writes an error message directly to one client's send channel.
func (h *Hub) SendError(client *Client, code, message string) {
	data, err := json.Marshal(ErrorMessage{
		Type:    MsgTypeError,
		Code:    code,
		Message: message,
	})
	if err != nil {
		return
	}
	select {
	case client.send <- data:
	default:
	}
}
