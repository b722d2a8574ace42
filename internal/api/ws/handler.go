package ws

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/taskdock/internal/infrastructure/logging"
	"github.com/GriffinCanCode/taskdock/internal/shared/types"
)

const (
	// DefaultInterval is how often the running list is re-read
	DefaultInterval = 2 * time.Second
	writeTimeout    = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	// The dashboard is served from the device and opened from anywhere on
	// the local network, same as the CORS policy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Source reports the currently running apps
type Source interface {
	ListRunning(ctx context.Context) []types.RunningApp
}

// Message is a server-to-client frame
type Message struct {
	Type      string             `json:"type"`
	Apps      []types.RunningApp `json:"apps,omitempty"`
	Message   string             `json:"message,omitempty"`
	Timestamp int64              `json:"timestamp"`
}

type inbound struct {
	Type string `json:"type"`
}

// Handler pushes the running app list to subscribers whenever it changes
type Handler struct {
	source   Source
	interval time.Duration
	log      *zap.Logger
}

// NewHandler creates a handler polling source every interval
func NewHandler(source Source, interval time.Duration, log *zap.Logger) *Handler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Handler{
		source:   source,
		interval: interval,
		log:      logging.OrNop(log),
	}
}

// HandleConnection upgrades the request and streams until the client leaves
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	s := &stream{conn: conn, log: h.log}
	refresh := make(chan struct{}, 1)
	go h.readLoop(ctx, cancel, s, refresh)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var last []byte
	for {
		apps := h.source.ListRunning(ctx)
		if apps == nil {
			apps = []types.RunningApp{}
		}
		snapshot, err := json.Marshal(apps)
		if err == nil && !bytes.Equal(snapshot, last) {
			if err := s.send(Message{Type: "running", Apps: apps}); err != nil {
				return
			}
			last = snapshot
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-refresh:
			last = nil
		}
	}
}

// readLoop answers pings and refresh requests. A read error ends the stream.
func (h *Handler) readLoop(ctx context.Context, cancel context.CancelFunc, s *stream, refresh chan<- struct{}) {
	defer cancel()
	for {
		var msg inbound
		if err := s.conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug("WebSocket read ended", zap.Error(err))
			}
			return
		}

		switch msg.Type {
		case "ping":
			if s.send(Message{Type: "pong"}) != nil {
				return
			}
		case "refresh":
			select {
			case refresh <- struct{}{}:
			default:
			}
		default:
			if s.send(Message{Type: "error", Message: "unknown message type"}) != nil {
				return
			}
		}

		if ctx.Err() != nil {
			return
		}
	}
}

// stream serialises writes; gorilla connections allow one concurrent writer.
type stream struct {
	mu   sync.Mutex
	conn *websocket.Conn
	log  *zap.Logger
}

func (s *stream) send(msg Message) error {
	msg.Timestamp = time.Now().Unix()

	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := s.conn.WriteJSON(msg); err != nil {
		s.log.Debug("WebSocket write failed", zap.Error(err))
		return err
	}
	return nil
}
