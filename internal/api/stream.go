package api

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"stocksense/models"
	"stocksense/observability"
)

const maxClientFrame = 4 * 1024

// StreamConfig holds websocket keepalive settings
type StreamConfig struct {
	WriteWait  time.Duration
	PongWait   time.Duration
	PingPeriod time.Duration
}

// DefaultStreamConfig is used by NewHandler
var DefaultStreamConfig = StreamConfig{
	WriteWait:  5 * time.Second,
	PongWait:   60 * time.Second,
	PingPeriod: 50 * time.Second,
}

// StreamMessage is the envelope pushed to websocket clients
type StreamMessage struct {
	Type string          `json:"type"`
	Data models.Snapshot `json:"data"`
}

// HandleStream upgrades to a websocket and pushes a snapshot on every
// dashboard change until the client goes away or the dashboard shuts down.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		observability.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	snaps, cancel := h.dash.Subscribe(0)
	s := &streamSession{conn: conn, cfg: h.stream}

	observability.Debug("stream client connected", "remote", r.RemoteAddr)
	s.serve(h.dash.Snapshot(), snaps, cancel)
	observability.Debug("stream client disconnected", "remote", r.RemoteAddr)
}

type streamSession struct {
	conn    net.Conn
	cfg     StreamConfig
	writeMu sync.Mutex
}

func (s *streamSession) serve(initial models.Snapshot, snaps <-chan models.Snapshot, cancel func()) {
	defer s.conn.Close()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.readLoop()
	}()

	if err := s.writeSnapshot(initial); err != nil {
		return
	}

	ticker := time.NewTicker(s.cfg.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case snap, ok := <-snaps:
			if !ok {
				s.write(ws.OpClose, ws.NewCloseFrameBody(ws.StatusGoingAway, "server shutting down"))
				return
			}
			if err := s.writeSnapshot(snap); err != nil {
				return
			}
		case <-ticker.C:
			if err := s.write(ws.OpPing, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// readLoop consumes client frames until close or error. Clients only send
// control frames; text frames are ignored.
func (s *streamSession) readLoop() {
	s.conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))

	for {
		header, err := ws.ReadHeader(s.conn)
		if err != nil {
			return
		}
		if header.Length > maxClientFrame || !header.Fin {
			return
		}

		payload := make([]byte, header.Length)
		if _, err := io.ReadFull(s.conn, payload); err != nil {
			return
		}
		if header.Masked {
			ws.Cipher(payload, header.Mask, 0)
		}

		switch header.OpCode {
		case ws.OpClose:
			s.write(ws.OpClose, ws.NewCloseFrameBody(ws.StatusNormalClosure, ""))
			return
		case ws.OpPing:
			if err := s.write(ws.OpPong, payload); err != nil {
				return
			}
		}
		s.conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	}
}

func (s *streamSession) writeSnapshot(snap models.Snapshot) error {
	b, err := json.Marshal(StreamMessage{Type: "snapshot", Data: snap})
	if err != nil {
		observability.Error("failed to encode snapshot", "error", err)
		return err
	}
	return s.write(ws.OpText, b)
}

func (s *streamSession) write(op ws.OpCode, payload []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteWait))
	return wsutil.WriteServerMessage(s.conn, op, payload)
}
