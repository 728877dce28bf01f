// Package realtime pushes events to authenticated websocket connections.
// Every connection joins the channel of its subject and the channel of its role.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/you/missionlog/domain"
	"github.com/you/missionlog/internal/config"
)

// ErrHubClosed is returned by Accept after the hub shut down
var ErrHubClosed = errors.New("realtime hub is closed")

// Hub tracks live connections by channel and fans events out to them
type Hub struct {
	cfg      config.RealtimeConfig
	logger   *slog.Logger
	upgrader websocket.Upgrader
	now      domain.Clock

	mu       sync.RWMutex
	clients  map[*Client]struct{}
	channels map[string]map[*Client]struct{}
	closed   bool
}

// Client is one live connection
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	id        string
	principal domain.Principal
	channels  []string

	// sendMu guards send against a close racing a publish
	sendMu sync.Mutex
	send   chan []byte
	done   bool
}

// Stats describes the current membership
type Stats struct {
	Connections int            `json:"connections"`
	Channels    map[string]int `json:"channels"`
}

// NewHub creates a hub; origin checks are left to the HTTP layer
func NewHub(cfg config.RealtimeConfig, logger *slog.Logger) *Hub {
	return &Hub{
		cfg:    cfg,
		logger: logger.With("component", "realtime"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		now:      time.Now,
		clients:  make(map[*Client]struct{}),
		channels: make(map[string]map[*Client]struct{}),
	}
}

// Run blocks until ctx is cancelled, then disconnects every client
func (h *Hub) Run(ctx context.Context) error {
	<-ctx.Done()
	h.Close()
	return nil
}

// Accept upgrades an already authenticated request and starts its pumps.
// On upgrade failure gorilla has already written the HTTP error response.
func (h *Hub) Accept(w http.ResponseWriter, r *http.Request, principal *domain.Principal) error {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, ErrHubClosed.Error(), http.StatusServiceUnavailable)
		return ErrHubClosed
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := h.newClient(conn, principal)
	if !h.Register(client) {
		_ = conn.Close()
		return ErrHubClosed
	}

	go client.writePump()
	go client.readPump()
	return nil
}

func (h *Hub) newClient(conn *websocket.Conn, principal *domain.Principal) *Client {
	buffer := h.cfg.SendBuffer
	if buffer <= 0 {
		buffer = 64
	}
	return &Client{
		hub:       h,
		conn:      conn,
		id:        uuid.NewString(),
		principal: *principal,
		channels: []string{
			domain.SubjectChannel(principal.ID),
			domain.RoleChannel(principal.Role),
		},
		send: make(chan []byte, buffer),
	}
}

// Register enrolls the client in its channels. It reports false once the hub is closed.
func (h *Hub) Register(client *Client) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		client.closeSend()
		return false
	}
	h.clients[client] = struct{}{}
	for _, ch := range client.channels {
		members, ok := h.channels[ch]
		if !ok {
			members = make(map[*Client]struct{})
			h.channels[ch] = members
		}
		members[client] = struct{}{}
	}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("client connected", "client_id", client.id, "subject_id", client.principal.ID, "role", client.principal.Role, "clients", count)
	return true
}

// Unregister removes the client from every channel.
// Only the call that actually removes it closes the send queue.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	_, existed := h.clients[client]
	if existed {
		h.removeLocked(client)
	}
	count := len(h.clients)
	h.mu.Unlock()

	if existed {
		client.closeSend()
		h.logger.Debug("client disconnected", "client_id", client.id, "clients", count)
	}
}

func (h *Hub) removeLocked(client *Client) {
	delete(h.clients, client)
	for _, ch := range client.channels {
		members := h.channels[ch]
		delete(members, client)
		if len(members) == 0 {
			delete(h.channels, ch)
		}
	}
}

// Publish implements domain.Notifier. It returns how many clients accepted the event.
func (h *Hub) Publish(channel string, event domain.Event) int {
	if event.Timestamp.IsZero() {
		event.Timestamp = h.now()
	}
	event.Timestamp = event.Timestamp.UTC()

	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal event", "channel", channel, "type", event.Type, "error", err)
		return 0
	}

	// Snapshot members under the read lock, then send without holding it
	h.mu.RLock()
	members := make([]*Client, 0, len(h.channels[channel]))
	for client := range h.channels[channel] {
		members = append(members, client)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, client := range members {
		if client.trySend(data) {
			delivered++
		}
	}
	h.logger.Debug("event published", "channel", channel, "type", event.Type, "members", len(members), "delivered", delivered)
	return delivered
}

// Stats returns connection and per-channel member counts
func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := Stats{Connections: len(h.clients), Channels: make(map[string]int, len(h.channels))}
	for ch, members := range h.channels {
		stats.Channels[ch] = len(members)
	}
	return stats
}

// ChannelNames returns the channels that currently have members, sorted
func (h *Hub) ChannelNames() []string {
	h.mu.RLock()
	names := make([]string, 0, len(h.channels))
	for ch := range h.channels {
		names = append(names, ch)
	}
	h.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Close disconnects every client and rejects new ones
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for client := range h.clients {
		h.removeLocked(client)
		client.closeSend()
		if client.conn != nil {
			_ = client.conn.Close()
		}
	}
	h.logger.Info("realtime hub closed")
}

// trySend queues data without blocking. Full or closed queues are skipped.
func (c *Client) trySend(data []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.done {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// closeSend closes the send queue once; later sends are dropped
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.done {
		return
	}
	c.done = true
	close(c.send)
}

func (c *Client) pingInterval() time.Duration {
	if c.hub.cfg.PingInterval > 0 {
		return c.hub.cfg.PingInterval
	}
	return 30 * time.Second
}

func (c *Client) pongWait() time.Duration {
	if c.hub.cfg.PongTimeout > 0 {
		return c.hub.cfg.PongTimeout
	}
	return 10 * time.Second
}

// readPump discards client messages and detects disconnects
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	if c.hub.cfg.MaxMessageSize > 0 {
		c.conn.SetReadLimit(c.hub.cfg.MaxMessageSize)
	}
	deadline := c.pingInterval() + c.pongWait()
	_ = c.conn.SetReadDeadline(time.Now().Add(deadline))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(deadline))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "client_id", c.id, "error", err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(deadline))
	}
}

// writePump drains the send queue and pings the peer
func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingInterval())
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(time.Second))
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.pongWait()))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				// the read side sees the closed connection and unregisters
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.pongWait()))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var _ domain.Notifier = (*Hub)(nil)
