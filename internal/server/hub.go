package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/gesture"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Message types sent to websocket clients.
const (
	MessageHello   = "hello"
	MessageGesture = "gesture"
)

// Message is a websocket frame. A hello is sent once on connect with the
// skeleton and vocabulary; gesture frames follow on every change.
type Message struct {
	Type    string          `json:"type"`
	Gesture *gesture.View   `json:"gesture,omitempty"`
	Current *gesture.Entry  `json:"current,omitempty"`
	Bones   [][2]int        `json:"bones,omitempty"`
	Labels  []gesture.Label `json:"labels,omitempty"`
}

// CurrentFunc returns the gesture being reported.
type CurrentFunc func() (gesture.Entry, bool)

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub pushes gesture change events to connected websocket clients. It is a
// sink for the app's event bus.
type Hub struct {
	log     logrus.FieldLogger
	current CurrentFunc

	mu      sync.RWMutex
	clients map[*client]struct{}
	wg      sync.WaitGroup
}

// NewHub creates a Hub. current may be nil.
func NewHub(current CurrentFunc, log logrus.FieldLogger) *Hub {
	return &Hub{
		log:     log.WithField("component", "websocket"),
		current: current,
		clients: make(map[*client]struct{}),
	}
}

func (h *Hub) Name() string { return "websocket" }

// Handle broadcasts e to every client. Clients that cannot keep up are dropped.
func (h *Hub) Handle(_ context.Context, e gesture.Event) error {
	view := gesture.NewView(e)
	data, err := json.Marshal(Message{Type: MessageGesture, Gesture: &view})
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.log.Warn("Dropping slow websocket client")
			delete(h.clients, c)
			c.close()
		}
	}
	return nil
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and streams events until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Debug("Websocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	if hello, err := json.Marshal(h.hello()); err == nil {
		c.send <- hello
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.writePump(c)
	}()
	h.readPump(c)
}

func (h *Hub) hello() Message {
	msg := Message{
		Type:   MessageHello,
		Bones:  gesture.Bones,
		Labels: gesture.Labels,
	}
	if h.current != nil {
		if cur, ok := h.current(); ok {
			msg.Current = &cur
		}
	}
	return msg
}

// readPump discards client messages and notices disconnects.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()

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

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
}

// Close disconnects every client and waits for their writers to finish.
func (h *Hub) Close() {
	h.mu.Lock()
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
	h.wg.Wait()
}
