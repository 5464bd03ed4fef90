package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Upgrader for HTTP -> WebSocket. /live has no authentication; any origin is accepted.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// pingPeriod must stay below pongWait so a healthy peer always answers in time.
func pingPeriod(pongWait time.Duration) time.Duration {
	return (pongWait * 9) / 10
}

// wsSubscriber adapts a websocket connection to live.Subscriber. gorilla
// allows one concurrent writer, so every write goes through mu.
type wsSubscriber struct {
	conn      *websocket.Conn
	writeWait time.Duration

	mu        sync.Mutex
	closeOnce sync.Once
}

func newWSSubscriber(conn *websocket.Conn, writeWait time.Duration) *wsSubscriber {
	return &wsSubscriber{conn: conn, writeWait: writeWait}
}

// Send writes one text frame. A failed write closes the connection so the
// read loop ends and unregisters the subscriber.
func (s *wsSubscriber) Send(msg []byte) error {
	return s.write(websocket.TextMessage, msg)
}

func (s *wsSubscriber) ping() error {
	return s.write(websocket.PingMessage, nil)
}

func (s *wsSubscriber) write(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeWait))
	if err := s.conn.WriteMessage(messageType, data); err != nil {
		s.close()
		return err
	}
	return nil
}

func (s *wsSubscriber) close() {
	s.closeOnce.Do(func() { _ = s.conn.Close() })
}

// @Summary      Live event feed
// @Description  WebSocket. Every newly created event is pushed as JSON. Client messages are read and discarded.
// @Tags         live
// @Router       /live [get]
func (h *Handler) liveConnect(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}

	sub := newWSSubscriber(conn, h.opts.WriteWait)
	h.hub.Register(sub)
	defer func() {
		h.hub.Unregister(sub)
		sub.close()
	}()

	// Configure read limits and pong handler to extend read deadline.
	conn.SetReadLimit(h.opts.MaxMessageBytes)
	_ = conn.SetReadDeadline(time.Now().Add(h.opts.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.opts.PongWait))
	})

	done := make(chan struct{})
	go h.startReader(conn, done)

	ping := time.NewTicker(pingPeriod(h.opts.PongWait))
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			if err := sub.ping(); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		}
	}
}

// startReader drains incoming messages (keep-alive only) and closes done
// when the peer goes away or the connection breaks.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if h.log != nil {
				h.log.Debugw("ws_read_closed", "err", err)
			}
			return
		}
	}
}
