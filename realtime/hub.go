package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/netplexflix/what-to-watch/logging"
)

const sendBufferSize = 64

// Conn is the minimal transport the hub writes to. Production wraps a
// websocket connection; tests plug in channel-backed fakes.
type Conn interface {
	WriteMessage(data []byte) error
	Close() error
}

// Client is one registered connection. Writes go through a buffered channel
// drained by a dedicated goroutine, so a stalled socket never blocks a
// publish - it gets dropped instead.
type Client struct {
	conn Conn
	send chan []byte

	// guarded by the hub mutex
	sessionID     string
	participantID string
	closed        bool
}

func (c *Client) writeLoop() {
	for data := range c.send {
		if err := c.conn.WriteMessage(data); err != nil {
			logging.Log.Debugf("HUB: write failed, dropping connection: %v", err)
			break
		}
	}
	_ = c.conn.Close()
}

type presenceKey struct {
	sessionID     string
	participantID string
}

// Hub is the per-session broadcast registry. Each publish delivers at most
// once per live subscriber, in publish order per session. It also keeps the
// presence bookkeeping the tie-break liveness rule reads.
type Hub struct {
	mu        sync.Mutex
	sessions  map[string]map[*Client]bool
	connected map[presenceKey]int
	lastSeen  map[presenceKey]time.Time

	// onDisconnect fires when a participant's last connection goes away.
	onDisconnect func(sessionID, participantID string)
}

func NewHub() *Hub {
	return &Hub{
		sessions:  make(map[string]map[*Client]bool),
		connected: make(map[presenceKey]int),
		lastSeen:  make(map[presenceKey]time.Time),
	}
}

// SetDisconnectHandler wires the engine's liveness re-check. Must be called
// before traffic.
func (h *Hub) SetDisconnectHandler(handler func(sessionID, participantID string)) {
	h.onDisconnect = handler
}

// NewClient registers a connection and starts its writer.
func (h *Hub) NewClient(conn Conn) *Client {
	client := &Client{conn: conn, send: make(chan []byte, sendBufferSize)}
	go client.writeLoop()
	return client
}

// Subscribe attaches the client to a session's fan-out. A client holds at
// most one subscription; subscribing again replaces the previous one.
func (h *Hub) Subscribe(client *Client, sessionID, participantID string) {
	h.mu.Lock()
	if client.closed {
		h.mu.Unlock()
		return
	}

	var disconnected *presenceKey
	if client.sessionID != "" {
		disconnected = h.detachLocked(client)
	}

	client.sessionID = sessionID
	client.participantID = participantID
	if h.sessions[sessionID] == nil {
		h.sessions[sessionID] = make(map[*Client]bool)
	}
	h.sessions[sessionID][client] = true

	key := presenceKey{sessionID, participantID}
	h.connected[key]++
	h.mu.Unlock()

	h.fireDisconnect(disconnected)
}

// Unsubscribe detaches the client but keeps the connection open.
func (h *Hub) Unsubscribe(client *Client) {
	h.mu.Lock()
	disconnected := h.detachLocked(client)
	h.mu.Unlock()

	h.fireDisconnect(disconnected)
}

// Remove tears the client down entirely: detach, close the send channel so
// the writer exits and the transport closes. Safe to call twice.
func (h *Hub) Remove(client *Client) {
	h.mu.Lock()
	if client.closed {
		h.mu.Unlock()
		return
	}
	disconnected := h.detachLocked(client)
	client.closed = true
	close(client.send)
	h.mu.Unlock()

	h.fireDisconnect(disconnected)
}

// detachLocked removes the subscription and updates presence. Returns the
// presence key when this was the participant's last live connection.
func (h *Hub) detachLocked(client *Client) *presenceKey {
	if client.sessionID == "" {
		return nil
	}

	key := presenceKey{client.sessionID, client.participantID}
	delete(h.sessions[client.sessionID], client)
	if len(h.sessions[client.sessionID]) == 0 {
		delete(h.sessions, client.sessionID)
	}
	client.sessionID = ""
	client.participantID = ""

	h.connected[key]--
	if h.connected[key] > 0 {
		return nil
	}
	delete(h.connected, key)
	h.lastSeen[key] = time.Now().UTC()
	return &key
}

func (h *Hub) fireDisconnect(key *presenceKey) {
	if key == nil || h.onDisconnect == nil {
		return
	}
	h.onDisconnect(key.sessionID, key.participantID)
}

// Publish fans an event out to every subscriber of the session.
func (h *Hub) Publish(sessionID, event string, payload any) {
	h.publish(sessionID, event, payload, "")
}

// PublishExcept skips the named participant's connections - for events the
// participant already learned from a synchronous response.
func (h *Hub) PublishExcept(sessionID, event string, payload any, excludeParticipantID string) {
	h.publish(sessionID, event, payload, excludeParticipantID)
}

func (h *Hub) publish(sessionID, event string, payload any, exclude string) {
	data, err := json.Marshal(ServerFrame{
		Type:      FrameTypeEvent,
		SessionID: sessionID,
		Event:     event,
		Data:      payload,
	})
	if err != nil {
		logging.Log.Errorf("HUB: failed to marshal %s event: %v", event, err)
		return
	}

	var dropped []*Client
	h.mu.Lock()
	for client := range h.sessions[sessionID] {
		if client.closed {
			continue
		}
		if exclude != "" && client.participantID == exclude {
			continue
		}
		select {
		case client.send <- data:
		default:
			// Never let one stalled socket hold the session up.
			dropped = append(dropped, client)
		}
	}
	var disconnected []*presenceKey
	for _, client := range dropped {
		logging.Log.Warnf("HUB: subscriber of %s too slow, dropping connection", sessionID)
		disconnected = append(disconnected, h.detachLocked(client))
		client.closed = true
		close(client.send)
	}
	h.mu.Unlock()

	for _, key := range disconnected {
		h.fireDisconnect(key)
	}
}

// Send queues a frame to one client outside any session fan-out (acks,
// pongs, error notices).
func (h *Hub) Send(client *Client, frame ServerFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		logging.Log.Errorf("HUB: failed to marshal %s frame: %v", frame.Type, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if client.closed {
		return
	}
	select {
	case client.send <- data:
	default:
	}
}

// Connected reports whether the participant holds at least one live
// connection subscribed to the session.
func (h *Hub) Connected(sessionID, participantID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.connected[presenceKey{sessionID, participantID}] > 0
}

// DisconnectedSince returns when the participant's last connection went
// away. ok is false if the participant never subscribed.
func (h *Hub) DisconnectedSince(sessionID, participantID string) (time.Time, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	since, ok := h.lastSeen[presenceKey{sessionID, participantID}]
	return since, ok
}

// Subscribers returns the live subscriber count for a session.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions[sessionID])
}
