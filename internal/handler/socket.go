package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/openclaw/pairing-relay-go/internal/config"
	"github.com/openclaw/pairing-relay-go/internal/model"
	"github.com/openclaw/pairing-relay-go/internal/notify"
	"github.com/openclaw/pairing-relay-go/internal/service"
)

// Client and server message types on the WebSocket channel.
const (
	msgSubscribe      = "subscribe-to-code"
	msgUnsubscribe    = "unsubscribe"
	msgSubscribed     = "subscribed"
	msgPairingSuccess = "pairing-success"
	msgError          = "error"
)

type clientMessage struct {
	Type string `json:"type"`
	Code string `json:"code"`
}

type serverMessage struct {
	Type    string              `json:"type"`
	Code    string              `json:"code,omitempty"`
	Status  model.PairingStatus `json:"status,omitempty"`
	Message string              `json:"message,omitempty"`
	Data    *model.PairingEvent `json:"data,omitempty"`
}

// SocketHandler upgrades to a WebSocket on which a client can watch any
// number of codes. Closing the socket drops its subscriptions and nothing
// else.
type SocketHandler struct {
	hub      *notify.Hub
	status   *service.StatusService
	upgrader websocket.Upgrader
}

// NewSocketHandler accepts same-origin browsers when allowedOrigins is
// empty. "*" accepts any origin.
func NewSocketHandler(hub *notify.Hub, status *service.StatusService, allowedOrigins []string) *SocketHandler {
	h := &SocketHandler{
		hub:    hub,
		status: status,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	if len(allowedOrigins) > 0 {
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" ||
				slices.Contains(allowedOrigins, "*") ||
				slices.Contains(allowedOrigins, origin)
		}
	}
	return h
}

// GET /ws
func (h *SocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client
		log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	sc := &socketConn{
		handler: h,
		conn:    conn,
		send:    make(chan serverMessage, config.WSSendBuffer),
		done:    make(chan struct{}),
		watches: make(map[string]*watch),
	}

	log.Info().Str("remoteAddr", r.RemoteAddr).Msg("websocket connected")

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		sc.writeLoop()
	}()

	sc.readLoop()

	sc.closeWatches()
	close(sc.done)
	<-writerDone
	_ = conn.Close()

	log.Info().Str("remoteAddr", r.RemoteAddr).Msg("websocket closed")
}

// watch delivers at most one pairing-success for a code, whichever of the
// hub and the catch-up status read gets there first.
type watch struct {
	sub  *notify.Subscription
	once sync.Once
}

type socketConn struct {
	handler *SocketHandler
	conn    *websocket.Conn
	send    chan serverMessage
	done    chan struct{}

	mu      sync.Mutex
	watches map[string]*watch
}

func (c *socketConn) readLoop() {
	c.conn.SetReadLimit(config.WSMaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(config.WSPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(config.WSPongWait))
	})

	for {
		var msg clientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if isDecodeError(err) {
				c.enqueue(serverMessage{Type: msgError, Message: "Invalid message"})
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("websocket read failed")
			}
			return
		}

		switch msg.Type {
		case msgSubscribe:
			c.subscribe(msg.Code)
		case msgUnsubscribe:
			c.unsubscribe(service.NormalizeCode(msg.Code))
		default:
			c.enqueue(serverMessage{Type: msgError, Message: "Unknown message type"})
		}
	}
}

func (c *socketConn) subscribe(raw string) {
	code := service.NormalizeCode(raw)
	if !service.ValidCode(code) {
		c.enqueue(serverMessage{Type: msgError, Code: code, Message: "Invalid pairing code"})
		return
	}

	c.mu.Lock()
	if _, ok := c.watches[code]; ok {
		c.mu.Unlock()
		c.enqueue(serverMessage{Type: msgSubscribed, Code: code, Status: c.handler.status.Lookup(code).Status})
		return
	}
	if len(c.watches) >= config.WSMaxSubscriptions {
		c.mu.Unlock()
		c.enqueue(serverMessage{Type: msgError, Code: code, Message: "Too many subscriptions"})
		return
	}
	wt := &watch{sub: c.handler.hub.Subscribe(code)}
	c.watches[code] = wt
	c.mu.Unlock()

	go c.forward(code, wt)

	view := c.handler.status.Lookup(code)
	c.enqueue(serverMessage{Type: msgSubscribed, Code: code, Status: view.Status})
	if view.Status == model.PairingStatusPaired {
		c.deliver(code, wt, pairingEventFromView(code, view))
	}
}

func (c *socketConn) forward(code string, wt *watch) {
	select {
	case ev := <-wt.sub.Events:
		c.deliver(code, wt, ev)
	case <-wt.sub.Done:
	case <-c.done:
	}
}

func (c *socketConn) deliver(code string, wt *watch, ev model.PairingEvent) {
	wt.once.Do(func() {
		c.enqueue(serverMessage{Type: msgPairingSuccess, Code: code, Data: &ev})
		c.unsubscribe(code)
	})
}

func (c *socketConn) unsubscribe(code string) {
	c.mu.Lock()
	wt, ok := c.watches[code]
	delete(c.watches, code)
	c.mu.Unlock()

	if ok {
		c.handler.hub.Unsubscribe(wt.sub)
	}
}

func (c *socketConn) closeWatches() {
	c.mu.Lock()
	watches := c.watches
	c.watches = make(map[string]*watch)
	c.mu.Unlock()

	for _, wt := range watches {
		c.handler.hub.Unsubscribe(wt.sub)
	}
}

func (c *socketConn) enqueue(msg serverMessage) {
	select {
	case c.send <- msg:
	case <-c.done:
	}
}

// writeLoop is the only writer on the connection.
func (c *socketConn) writeLoop() {
	ping := time.NewTicker(config.WSPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-c.done:
			_ = c.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(config.WSWriteWait),
			)
			return

		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(config.WSWriteWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				log.Debug().Err(err).Msg("websocket write failed")
				_ = c.conn.Close()
				c.drain()
				return
			}

		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(config.WSWriteWait)); err != nil {
				_ = c.conn.Close()
				c.drain()
				return
			}
		}
	}
}

// isDecodeError reports a well-framed message that is not the JSON we expect.
// The connection is still usable after one.
func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

// drain keeps enqueue from blocking until the read loop notices the closed
// connection.
func (c *socketConn) drain() {
	for {
		select {
		case <-c.send:
		case <-c.done:
			return
		}
	}
}
