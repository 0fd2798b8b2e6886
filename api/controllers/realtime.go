package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/netplexflix/what-to-watch/identity"
	"github.com/netplexflix/what-to-watch/logging"
	"github.com/netplexflix/what-to-watch/realtime"
)

const maxCommandBytes = 4096

type RealtimeController struct {
	hub      *realtime.Hub
	tokens   *identity.Tokens
	upgrader websocket.Upgrader
}

func NewRealtimeController(hub *realtime.Hub, tokens *identity.Tokens) *RealtimeController {
	return &RealtimeController{
		hub:    hub,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The API is token-authenticated, not cookie-authenticated, so
			// cross-origin upgrades carry no ambient credentials.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (c *RealtimeController) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/ws", c.serveWebsocket)
}

// serveWebsocket godoc
// @Summary Session event stream
// @Description Upgrades to a websocket. Clients subscribe with their participant token and receive session events in order.
// @Tags realtime
// @Success 101 "Switching Protocols"
// @Router /ws [get]
func (c *RealtimeController) serveWebsocket(g *gin.Context) {
	socket, err := c.upgrader.Upgrade(g.Writer, g.Request, nil)
	if err != nil {
		logging.Log.Errorf("HUB: websocket upgrade failed: %v", err)
		return
	}

	client := c.hub.NewClient(realtime.NewWebsocketConn(socket))
	defer c.hub.Remove(client)

	socket.SetReadLimit(maxCommandBytes)
	for {
		_, raw, err := socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Log.Warnf("HUB: websocket read failed: %v", err)
			}
			return
		}

		command, err := realtime.ParseCommand(raw)
		if err != nil {
			// Malformed frames are dropped, the connection stays up.
			logging.Log.Warnf("HUB: dropping malformed frame: %v", err)
			c.hub.Send(client, realtime.ServerFrame{Type: realtime.FrameTypeError, Error: "malformed frame"})
			continue
		}

		switch command.Type {
		case realtime.CommandSubscribe:
			c.subscribe(client, command)
		case realtime.CommandUnsubscribe:
			c.hub.Unsubscribe(client)
		case realtime.CommandPing:
			c.hub.Send(client, realtime.ServerFrame{Type: realtime.FrameTypePong})
		default:
			c.hub.Send(client, realtime.ServerFrame{Type: realtime.FrameTypeError, Error: "unknown command"})
		}
	}
}

func (c *RealtimeController) subscribe(client *realtime.Client, command *realtime.ClientCommand) {
	claims, err := c.tokens.Parse(command.Token)
	if err != nil {
		c.hub.Send(client, realtime.ServerFrame{Type: realtime.FrameTypeError, Error: "invalid participant token"})
		return
	}
	if command.SessionID != "" && command.SessionID != claims.SessionID {
		c.hub.Send(client, realtime.ServerFrame{Type: realtime.FrameTypeError, Error: "token does not match session"})
		return
	}

	c.hub.Subscribe(client, claims.SessionID, claims.ParticipantID)
	c.hub.Send(client, realtime.ServerFrame{Type: realtime.FrameTypeSubscribed, SessionID: claims.SessionID})
}
