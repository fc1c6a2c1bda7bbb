package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yourusername/reduce-go/internal/domain"
	"go.uber.org/zap"
)

const (
	streamBuffer  = 64
	pingInterval  = 30 * time.Second
	writeDeadline = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	// Loopback only; extension origins vary.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type streamClient struct {
	conn *websocket.Conn
	send chan []byte
}

// DecisionStream pushes classification events to websocket subscribers
type DecisionStream struct {
	logger  *zap.Logger
	clients map[*streamClient]struct{}
	mu      sync.RWMutex
}

// NewDecisionStream creates a new decision stream
func NewDecisionStream(logger *zap.Logger) *DecisionStream {
	return &DecisionStream{
		logger:  logger,
		clients: make(map[*streamClient]struct{}),
	}
}

// Clients returns the number of connected subscribers
func (s *DecisionStream) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Publish sends event to every subscriber. Subscribers that fall behind
// miss events rather than block classification.
func (s *DecisionStream) Publish(event domain.DecisionEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("Failed to marshal decision event", zap.Error(err))
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for client := range s.clients {
		select {
		case client.send <- data:
		default:
			s.logger.Warn("Dropping decision event for slow subscriber")
		}
	}
}

// HandleWebSocket handles GET /decisions/stream
func (s *DecisionStream) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	client := &streamClient{conn: conn, send: make(chan []byte, streamBuffer)}

	s.mu.Lock()
	s.clients[client] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, client)
		s.mu.Unlock()
	}()

	s.logger.Info("Decision subscriber connected", zap.String("remote_addr", c.Request.RemoteAddr))

	// Reads only detect the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case data := <-client.send:
			conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Debug("Failed to send decision event", zap.Error(err))
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			s.logger.Info("Decision subscriber disconnected", zap.String("remote_addr", c.Request.RemoteAddr))
			return
		}
	}
}
