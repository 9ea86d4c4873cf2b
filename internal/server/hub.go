package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jmylchreest/toastify/internal/api"
	"github.com/jmylchreest/toastify/internal/stack"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Hub fans stack changes out to WebSocket clients. Every frame carries
// the full stack so a client that misses frames resynchronizes on the
// next one.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*wsClient]struct{}
	upgrader websocket.Upgrader
	buffer   int
	logger   *slog.Logger

	onConnect    func()
	onDisconnect func()
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *wsClient) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// NewHub creates a hub whose clients buffer up to buffer pending frames.
// A client that falls further behind is disconnected.
func NewHub(buffer int, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[*wsClient]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Renderers may be served from any origin
			},
		},
		buffer: max(buffer, 1),
		logger: logger,
	}
}

// HandleWebSocket upgrades the connection and streams frames until the
// client disconnects. The first frame is the current snapshot.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request, snapshot func() api.Frame) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	c := &wsClient{conn: conn, send: make(chan []byte, h.buffer+1)}

	data, err := json.Marshal(snapshot())
	if err != nil {
		conn.Close()
		return
	}

	// Queue the snapshot before registering so it is always first.
	c.send <- data
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	if h.onConnect != nil {
		h.onConnect()
	}
	h.logger.Debug("websocket client connected", "remote", r.RemoteAddr)

	go h.writePump(c)
	h.readPump(c)

	h.unregister(c)
	h.logger.Debug("websocket client disconnected", "remote", r.RemoteAddr)
}

// readPump discards client messages and returns when the client goes away.
func (h *Hub) readPump(c *wsClient) {
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	c.close()
	if ok && h.onDisconnect != nil {
		h.onDisconnect()
	}
}

// Broadcast sends a frame to every client, dropping clients whose
// buffers are full.
func (h *Hub) Broadcast(frame api.Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		h.logger.Warn("failed to encode websocket frame", "error", err)
		return
	}

	var slow []*wsClient
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("dropping slow websocket client", "remote", c.conn.RemoteAddr())
		h.unregister(c)
	}
}

// Follow subscribes to s and broadcasts its changes until ctx is done or
// s is closed. The subscription is in place when Follow returns.
func (h *Hub) Follow(ctx context.Context, s *stack.Stack) {
	events := s.SubscribeBuffered(h.buffer * 4)
	go func() {
		defer s.Unsubscribe(events)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				h.Broadcast(frameFor(ev))
			}
		}
	}()
}

func frameFor(ev stack.ChangeEvent) api.Frame {
	return api.Frame{
		Type:   api.FrameType(ev.Type.String()),
		ID:     ev.ID,
		Count:  ev.Count,
		Toasts: ev.Snapshot,
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects all clients.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.unregister(c)
	}
}
