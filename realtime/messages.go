package realtime

import "encoding/json"

// Frame types sent to clients.
const (
	FrameTypeEvent      = "event"
	FrameTypeSubscribed = "subscribed"
	FrameTypePong       = "pong"
	FrameTypeError      = "error"
)

// Commands accepted from clients.
const (
	CommandSubscribe   = "subscribe"
	CommandUnsubscribe = "unsubscribe"
	CommandPing        = "ping"
)

// ClientCommand is an incoming frame. Subscribe carries the participant
// token issued at join time; the transport layer validates it before the
// hub sees the subscription.
type ClientCommand struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Token     string `json:"token,omitempty"`
}

// ServerFrame is an outgoing frame. Session events use Type "event" with
// the event name and payload; acks and errors use their own types.
type ServerFrame struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Event     string `json:"event,omitempty"`
	Error     string `json:"error,omitempty"`
	Data      any    `json:"data,omitempty"`
}

// ParseCommand decodes one client frame.
func ParseCommand(raw []byte) (*ClientCommand, error) {
	var command ClientCommand
	if err := json.Unmarshal(raw, &command); err != nil {
		return nil, err
	}
	return &command, nil
}
