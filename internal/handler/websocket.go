package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/ferreteria-inventory/internal/model"
	"github.com/vyrodovalexey/ferreteria-inventory/internal/store"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
	// closeGrace bounds how long shutdown waits for close frames.
	closeGrace = time.Second
)

// Notifier is told about every successful inventory mutation.
type Notifier interface {
	Broadcast(reason string)
}

// viewer is one connected /ws client.
type viewer struct {
	conn *websocket.Conn
	send chan model.WebSocketMessage
	// done is closed to ask the writer to send a close frame and exit.
	done     chan struct{}
	stopOnce sync.Once
	// flushed is closed once the writer has exited.
	flushed chan struct{}
}

func newViewer(conn *websocket.Conn) *viewer {
	return &viewer{
		conn:    conn,
		send:    make(chan model.WebSocketMessage, sendBuffer),
		done:    make(chan struct{}),
		flushed: make(chan struct{}),
	}
}

func (v *viewer) stop() {
	v.stopOnce.Do(func() { close(v.done) })
}

func (v *viewer) addr() zap.Field {
	return zap.String("remote_addr", v.conn.RemoteAddr().String())
}

// WebSocketHandler pushes inventory snapshots to connected viewers. Viewers
// are read-only: anything they send is discarded.
type WebSocketHandler struct {
	upgrader websocket.Upgrader
	store    store.Store
	logger   *zap.Logger

	// mu orders snapshots: they are built and queued while it is held.
	mu      sync.RWMutex
	viewers map[*viewer]struct{}
	closing bool
}

// NewWebSocketHandler returns a handler that snapshots s.
func NewWebSocketHandler(s store.Store, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		store:   s,
		logger:  logger,
		viewers: make(map[*viewer]struct{}),
	}
}

// RegisterRoutes mounts GET /ws.
func (h *WebSocketHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/ws", h.HandleWebSocket).Methods(http.MethodGet)
}

// HandleWebSocket upgrades the request and queues the current snapshot.
// The viewer's goroutines outlive the request. Upgrades are refused once
// CloseAllConnections has started.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.isClosing() {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	v := newViewer(conn)

	h.mu.Lock()
	if h.closing {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	// No broadcast can run between the first snapshot and registration.
	v.send <- h.snapshot(model.SnapshotReasonConnected)
	h.viewers[v] = struct{}{}
	h.mu.Unlock()

	h.logger.Info("websocket viewer connected", v.addr())

	go h.writeLoop(v)
	go h.readLoop(v)
}

// Broadcast queues a fresh snapshot for every viewer. A viewer whose buffer
// is full loses its oldest queued snapshot, so the newest state always
// arrives last.
func (h *WebSocketHandler) Broadcast(reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg := h.snapshot(reason)
	for v := range h.viewers {
		h.enqueue(v, msg)
	}
}

// enqueue must be called with mu held, so it is the only sender on v.send.
func (h *WebSocketHandler) enqueue(v *viewer, msg model.WebSocketMessage) {
	select {
	case v.send <- msg:
		return
	default:
	}

	select {
	case <-v.send:
		h.logger.Debug("websocket viewer lagging, oldest snapshot dropped", zap.String("reason", msg.Reason))
	default:
	}

	select {
	case v.send <- msg:
	default:
	}
}

func (h *WebSocketHandler) isClosing() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.closing
}

// ClientCount returns the number of connected viewers.
func (h *WebSocketHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.viewers)
}

func (h *WebSocketHandler) snapshot(reason string) model.WebSocketMessage {
	page := model.NewInventoryPage("", h.store.List(""))
	return model.NewSnapshotMessage(reason, page)
}

// readLoop discards incoming frames so pongs and close frames get handled.
// It owns the connection teardown.
func (h *WebSocketHandler) readLoop(v *viewer) {
	defer func() {
		v.stop()
		h.forget(v)
		_ = v.conn.Close()
	}()

	v.conn.SetReadLimit(maxMessageSize)
	if err := v.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	v.conn.SetPongHandler(func(string) error {
		return v.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := v.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket read failed", v.addr(), zap.Error(err))
			}
			return
		}
		h.logger.Debug("discarding viewer message", v.addr(), zap.Int("bytes", len(msg)))
	}
}

// writeLoop delivers snapshots and pings until the viewer is stopped or a
// write fails.
func (h *WebSocketHandler) writeLoop(v *viewer) {
	defer close(v.flushed)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		var err error
		select {
		case <-v.done:
			h.writeClose(v)
			return
		case msg := <-v.send:
			err = h.write(v, func() error { return v.conn.WriteJSON(msg) })
		case <-ping.C:
			err = h.write(v, func() error { return v.conn.WriteMessage(websocket.PingMessage, nil) })
		}
		if err != nil {
			h.logger.Debug("websocket write failed", v.addr(), zap.Error(err))
			// Unblocks readLoop, which then tears the viewer down.
			_ = v.conn.Close()
			return
		}
	}
}

func (h *WebSocketHandler) write(v *viewer, send func() error) error {
	if err := v.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return send()
}

func (h *WebSocketHandler) writeClose(v *viewer) {
	frame := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "server shutting down")
	err := h.write(v, func() error { return v.conn.WriteMessage(websocket.CloseMessage, frame) })
	if err != nil {
		h.logger.Debug("websocket close frame not sent", v.addr(), zap.Error(err))
	}
}

func (h *WebSocketHandler) forget(v *viewer) {
	h.mu.Lock()
	_, known := h.viewers[v]
	delete(h.viewers, v)
	h.mu.Unlock()

	if known {
		h.logger.Info("websocket viewer disconnected", v.addr())
	}
}

// CloseAllConnections stops accepting viewers, sends every connected one a
// normal close frame and closes the connections. It returns once all
// viewers are detached.
func (h *WebSocketHandler) CloseAllConnections() {
	h.mu.Lock()
	h.closing = true
	viewers := make([]*viewer, 0, len(h.viewers))
	for v := range h.viewers {
		viewers = append(viewers, v)
	}
	clear(h.viewers)
	h.mu.Unlock()

	for _, v := range viewers {
		v.stop()
	}

	deadline := time.Now().Add(closeGrace)
	for _, v := range viewers {
		select {
		case <-v.flushed:
		case <-time.After(time.Until(deadline)):
		}
		_ = v.conn.Close()
	}

	h.logger.Info("websocket viewers closed", zap.Int("count", len(viewers)))
}
