package presence

import (
	"log"
	"sort"
	"sync"
)

// Outbound event types pushed over live connections.
const (
	EventPresenceSet = "presence-set"
	EventNewMessage  = "new-message"
)

// PresenceSet is the payload broadcast to every connected client on each
// registry change. It always carries the full reachable-user set; there is
// no diffing.
type PresenceSet struct {
	Type    string   `json:"type"`
	UserIDs []string `json:"user_ids"`
}

// Conn is the write side of a live connection handle.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Client binds a user to one live connection handle.
type Client struct {
	UserID string
	conn   Conn
	mu     sync.Mutex // serializes writes to the underlying connection
}

// NewClient creates a new Client for a user's connection.
func NewClient(userID string, conn Conn) *Client {
	return &Client{
		UserID: userID,
		conn:   conn,
	}
}

// Send writes a payload to the client's connection.
func (c *Client) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Hub is the process-wide connection registry: at most one live handle per
// user, rebuilt empty on restart. Every registry change triggers a full
// presence-set broadcast.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client // userID -> current handle
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// Register binds the client as the user's current handle, silently
// replacing any older binding for the same user.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.UserID] = client
	log.Printf("[presence] User %s connected (%d online)", client.UserID, len(h.clients))
	event, targets := h.presenceSnapshotLocked()
	h.mu.Unlock()

	broadcastPresence(event, targets)
}

// Unregister removes the user's binding only if the given client is still
// the currently bound handle. A late disconnect from a superseded
// connection must not evict a newer binding.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	current, ok := h.clients[client.UserID]
	if !ok || current != client {
		h.mu.Unlock()
		return
	}

	delete(h.clients, client.UserID)
	log.Printf("[presence] User %s disconnected (%d online)", client.UserID, len(h.clients))
	event, targets := h.presenceSnapshotLocked()
	h.mu.Unlock()

	broadcastPresence(event, targets)
}

// Lookup returns the user's current handle, if any. Never blocks on I/O.
func (h *Hub) Lookup(userID string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	client, ok := h.clients[userID]
	return client, ok
}

// PushToUser delivers a payload to the user's current handle, best effort.
// Reports whether the user had a handle; write failures are logged, never
// propagated.
func (h *Hub) PushToUser(userID string, payload any) bool {
	client, ok := h.Lookup(userID)
	if !ok {
		return false
	}

	if err := client.Send(payload); err != nil {
		log.Printf("[presence] Failed to push to user %s: %v", userID, err)
	}
	return true
}

// OnlineUserIDs returns the sorted set of currently reachable users.
func (h *Hub) OnlineUserIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.onlineUserIDsLocked()
}

// ClientCount returns the number of connected users.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll closes every connection and empties the registry.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		_ = client.Close()
	}
	h.clients = make(map[string]*Client)
}

// presenceSnapshotLocked builds the full presence-set event and the list
// of handles to push it to. Connection writes must happen after the
// registry lock is released, so a stalled peer never blocks Lookup,
// Register or Unregister.
func (h *Hub) presenceSnapshotLocked() (PresenceSet, []*Client) {
	event := PresenceSet{
		Type:    EventPresenceSet,
		UserIDs: h.onlineUserIDsLocked(),
	}

	targets := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		targets = append(targets, client)
	}
	return event, targets
}

// broadcastPresence pushes the presence set to every snapshotted handle,
// including the one that just changed state. Writes run outside the
// registry lock; Client.mu serializes writes per connection, and
// per-handle failures are isolated so the rest still receive the event.
func broadcastPresence(event PresenceSet, targets []*Client) {
	for _, client := range targets {
		if err := client.Send(event); err != nil {
			log.Printf("[presence] Failed to send presence set to user %s: %v", client.UserID, err)
		}
	}
}

func (h *Hub) onlineUserIDsLocked() []string {
	ids := make([]string, 0, len(h.clients))
	for userID := range h.clients {
		ids = append(ids, userID)
	}
	sort.Strings(ids)
	return ids
}
