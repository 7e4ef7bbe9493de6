package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"bakerychat/internal/chat"
	"bakerychat/internal/logging"
	"bakerychat/internal/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	readLimit  = 64 * 1024
)

// newUpgrader accepts same-host pages and the configured CORS origins
func newUpgrader(allowed []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			u, err := url.Parse(origin)
			if err == nil && strings.EqualFold(u.Host, r.Host) {
				return true
			}
			for _, o := range allowed {
				if o == "*" || strings.EqualFold(o, origin) {
					return true
				}
			}
			return false
		},
	}
}

// wsConnection is one live chat socket bound to a visitor session
type wsConnection struct {
	conn    *websocket.Conn
	send    chan []byte
	mu      sync.Mutex
	closed  bool
	server  *Server
	session *session.Session
	logger  logrus.FieldLogger
}

// wsReply is the frame written for every inbound message
type wsReply struct {
	*chat.Turn
	Error string `json:"error,omitempty"`
}

// handleWebSocket upgrades the request and runs the connection until the
// client goes away
func (s *Server) handleWebSocket(c *gin.Context) {
	logger := logging.FromContext(c)
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.WithError(err).Warn("failed to upgrade connection")
		return
	}

	ws := &wsConnection{
		conn:    conn,
		send:    make(chan []byte, 16),
		server:  s,
		session: session.FromContext(c),
		logger:  logger,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go ws.writePump()
	go func() {
		defer cancel()
		ws.readPump(ctx)
	}()
}

// readPump handles inbound frames one at a time so replies keep message order
func (ws *wsConnection) readPump(ctx context.Context) {
	defer ws.close()

	ws.conn.SetReadLimit(readLimit)
	ws.conn.SetReadDeadline(time.Now().Add(pongWait))
	ws.conn.SetPongHandler(func(string) error {
		return ws.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := ws.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				ws.logger.WithError(err).Warn("websocket closed unexpectedly")
			}
			return
		}
		ws.handleMessage(ctx, message)
		ws.conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

// writePump serializes writes and keeps the connection alive with pings
func (ws *wsConnection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ws.conn.Close()
	}()

	for {
		select {
		case message, ok := <-ws.send:
			ws.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				ws.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := ws.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			ws.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (ws *wsConnection) handleMessage(ctx context.Context, message []byte) {
	var req ChatRequest
	if err := json.Unmarshal(message, &req); err != nil {
		ws.reply(wsReply{Error: "invalid message frame"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		ws.reply(wsReply{Error: "message is required"})
		return
	}

	turn, err := ws.server.orchestrator.Handle(ctx, ws.session, req.Message)
	if err != nil {
		msg := err.Error()
		if chat.IsDelegation(err) {
			msg = chat.UnavailableMessage
		}
		ws.reply(wsReply{Error: msg})
		return
	}
	ws.reply(wsReply{Turn: &turn})
}

func (ws *wsConnection) reply(r wsReply) {
	data, err := json.Marshal(r)
	if err != nil {
		ws.logger.WithError(err).Error("failed to marshal reply")
		return
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.closed {
		return
	}
	select {
	case ws.send <- data:
	default:
		ws.logger.Warn("websocket buffer full, dropping reply")
	}
}

func (ws *wsConnection) close() {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if !ws.closed {
		ws.closed = true
		close(ws.send)
	}
}
