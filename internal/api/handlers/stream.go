package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/fundscope/internal/snapshot"
	"github.com/wonny/fundscope/pkg/logger"
)

const (
	pollInterval = 500 * time.Millisecond
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second
)

// StatusSource read side of the orchestrator
type StatusSource interface {
	Status() snapshot.Status
}

// StatusStream pushes build progress over a websocket
// ⭐ SSOT: 진행 상태 푸시는 이 핸들러에서만 (폴링 → 변경분만 전송)
type StatusStream struct {
	source   StatusSource
	upgrader websocket.Upgrader
	logger   *logger.Logger
	poll     time.Duration
}

// NewStatusStream creates a new status stream handler
func NewStatusStream(source StatusSource, log *logger.Logger) *StatusStream {
	return &StatusStream{
		source: source,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: log,
		poll:   pollInterval,
	}
}

// Serve upgrades the connection and streams status changes
// GET /ws/snapshots/status
func (s *StatusStream) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	done := make(chan struct{})
	go s.readLoop(conn, done)

	poll := time.NewTicker(s.poll)
	defer poll.Stop()
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	last := s.source.Status()
	if err := s.write(conn, last); err != nil {
		return
	}

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait)); err != nil {
				s.logger.WithError(err).Debug("Failed to send ping")
				return
			}
		case <-poll.C:
			cur := s.source.Status()
			if !changed(last, cur) {
				continue
			}
			if err := s.write(conn, cur); err != nil {
				return
			}
			last = cur
		}
	}
}

// readLoop drains client frames so pongs and close frames are processed
func (s *StatusStream) readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *StatusStream) write(conn *websocket.Conn, status snapshot.Status) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(status); err != nil {
		s.logger.WithError(err).Debug("Failed to push status")
		return err
	}
	return nil
}

func changed(a, b snapshot.Status) bool {
	return a.Generation != b.Generation ||
		a.State != b.State ||
		a.Stage != b.Stage ||
		a.Current != b.Current ||
		a.Message != b.Message
}
