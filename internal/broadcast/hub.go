// Package broadcast streams deck snapshots to websocket clients for external
// visualizers. Clients only receive; anything they send is discarded.
package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/olivier-w/decks/internal/session"
)

// Path is the websocket endpoint.
const Path = "/ws"

const (
	queueSize    = 8
	writeTimeout = time.Second
)

// conn is the part of *websocket.Conn the hub uses.
type conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// client owns one connection and its send queue. A slow client only drops
// its own snapshots.
type client struct {
	conn conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// Hub fans snapshots out to every connected client.
type Hub struct {
	upgrader websocket.Upgrader
	queue    chan []byte

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewHub returns a hub with no clients. Call Run to start delivery.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		queue:   make(chan []byte, queueSize),
		clients: make(map[*client]struct{}),
	}
}

// Handler serves the websocket endpoint.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(Path, h.handleWebSocket)
	return mux
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("websocket upgrade failed")
		return
	}
	n := h.attach(ws)
	logrus.WithFields(logrus.Fields{"remote": r.RemoteAddr, "clients": n}).Info("visualizer connected")
}

// attach registers conn and starts its reader and writer. It returns the
// new client count.
func (h *Hub) attach(conn conn) int {
	c := &client{
		conn: conn,
		send: make(chan []byte, queueSize),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	go h.write(c)
	// Drain reads so close frames are noticed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.drop(c)
				return
			}
		}
	}()
	return n
}

func (h *Hub) write(c *client) {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logrus.WithError(err).Debug("dropping visualizer client")
				h.drop(c)
				return
			}
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish queues snap for delivery. It never blocks; when the queue is full
// the snapshot is dropped.
func (h *Hub) Publish(snap session.Snapshot) bool {
	data, err := json.Marshal(snap)
	if err != nil {
		logrus.WithError(err).Warn("encode snapshot")
		return false
	}
	select {
	case h.queue <- data:
		return true
	default:
		return false
	}
}

// Run delivers queued snapshots until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case data := <-h.queue:
			h.send(data)
		}
	}
}

// send hands data to every client queue without waiting on any of them.
func (h *Hub) send(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()
	for c := range clients {
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeTimeout))
		c.close()
	}
}

// Serve listens on addr and runs the hub until ctx is done.
func (h *Hub) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: h.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go h.Run(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	logrus.WithField("addr", ln.Addr().String()).Info("visualizer server listening")
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
