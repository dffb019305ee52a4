package host

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	streamReadLimit = 512
)

func (s *Server) newUpgrader() *websocket.Upgrader {
	origins := s.allowedOrigins()

	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if len(origin) == 0 {
				return true
			}
			for _, allowed := range origins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			return false
		},
	}
}

// streamHandler pushes every component value to the host over a websocket,
// starting with the current one.
func (s *Server) streamHandler(path string) func(w http.ResponseWriter, r *http.Request) {
	upgrader := s.newUpgrader()

	return func(w http.ResponseWriter, r *http.Request) {
		log := s.log.WithField("path", path)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already replied to the client
			log.WithError(err).Debug("failed to upgrade connection")
			return
		}

		ctx := r.Context()
		pingPeriod := s.conf.streamPingPeriod.Get(ctx)
		writeTimeout := s.conf.streamWriteTimeout.Get(ctx)

		values, unsubscribe := s.channel.Subscribe()
		log.Debug("stream opened")

		go s.readPump(log, conn, pingPeriod+writeTimeout, unsubscribe)
		s.writePump(log, conn, values, pingPeriod, writeTimeout)

		unsubscribe()
		log.Debug("stream closed")
	}
}

// readPump discards anything the host sends and unsubscribes once the
// connection is gone.
func (s *Server) readPump(log *logrus.Entry, conn *websocket.Conn, pongWait time.Duration, unsubscribe func()) {
	defer func() {
		unsubscribe()
		_ = conn.Close()
	}()

	conn.SetReadLimit(streamReadLimit)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Debug("unexpected stream close")
			}
			return
		}
	}
}

func (s *Server) writePump(log *logrus.Entry, conn *websocket.Conn, values <-chan []byte, pingPeriod, writeTimeout time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case value, ok := <-values:
			if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, value); err != nil {
				log.WithError(err).Debug("failed to write component value")
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

