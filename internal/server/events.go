package server

import (
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/spotlight/pkg/draw"
)

const (
	pingInterval = 30 * time.Second
	pongWait     = time.Minute
	writeWait    = 10 * time.Second
)

// eventConn wraps a websocket carrying draw events.
type eventConn struct {
	socket *websocket.Conn
}

func newEventConn(conn *websocket.Conn) *eventConn {
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	return &eventConn{socket: conn}
}

func (c *eventConn) Write(e draw.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
	return c.socket.WriteMessage(websocket.TextMessage, data)
}

func (c *eventConn) Ping() error {
	_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
	return c.socket.WriteMessage(websocket.PingMessage, nil)
}

// drain reads until the peer goes away; the read side only carries
// control frames.
func (c *eventConn) drain(done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := c.socket.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *eventConn) Close(reason string) {
	_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.socket.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason))
	_ = c.socket.Close()
}

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
}

// checkOrigin allows requests without an Origin header, and any origin
// when no allow-list is configured.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.opts.AllowedOrigins) == 0 {
		return true
	}
	return slices.Contains(s.opts.AllowedOrigins, origin)
}

// handleEvents replays the draw's events so far, then streams new ones
// until the draw ends or the client disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	history, events, cancel, err := s.registry.Subscribe(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer cancel()

	up := s.upgrader()
	ws, err := up.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "id", id, "error", err)
		return
	}
	conn := newEventConn(ws)
	gone := make(chan struct{})
	go conn.drain(gone)

	for _, e := range history {
		if err := conn.Write(e); err != nil {
			conn.Close("write failed")
			return
		}
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case e, ok := <-events:
			if !ok {
				conn.Close("stream ended")
				return
			}
			if err := conn.Write(e); err != nil {
				conn.Close("write failed")
				return
			}
		case <-ticker.C:
			if err := conn.Ping(); err != nil {
				conn.Close("ping failed")
				return
			}
		case <-gone:
			_ = ws.Close()
			return
		case <-r.Context().Done():
			conn.Close("server shutting down")
			return
		}
	}
}
