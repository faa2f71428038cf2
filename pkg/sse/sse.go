package sse

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/gin-gonic/gin"
)

// event is one server-sent message bound for a user's open connections.
type event struct {
	userID string
	name   string
	data   interface{}
}

// client is one open browser connection.
type client struct {
	userID string
	ch     chan []byte
}

// Manager fans server-sent events out to the mini app instances a user
// has open. One user may hold several connections (phone + desktop).
type Manager struct {
	mu         sync.RWMutex
	clients    map[*client]struct{}
	register   chan *client
	unregister chan *client
	events     chan event
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		events:     make(chan event, 64),
	}
}

// Run owns the client set. Call it once, on its own goroutine.
func (m *Manager) Run() {
	for {
		select {
		case c := <-m.register:
			m.mu.Lock()
			m.clients[c] = struct{}{}
			m.mu.Unlock()
		case c := <-m.unregister:
			m.mu.Lock()
			if _, ok := m.clients[c]; ok {
				delete(m.clients, c)
				close(c.ch)
			}
			m.mu.Unlock()
		case ev := <-m.events:
			payload, err := json.Marshal(ev.data)
			if err != nil {
				log.Printf("[SSE] Failed to marshal event %s: %v", ev.name, err)
				continue
			}
			frame := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", ev.name, payload))
			m.mu.RLock()
			for c := range m.clients {
				if ev.userID != "" && c.userID != ev.userID {
					continue
				}
				select {
				case c.ch <- frame:
				default:
					// Slow consumer, drop the frame
				}
			}
			m.mu.RUnlock()
		}
	}
}

// SendToUser queues an event for one user's connections.
func (m *Manager) SendToUser(userID, name string, data interface{}) {
	m.events <- event{userID: userID, name: name, data: data}
}

// Broadcast queues an event for every connected client.
func (m *Manager) Broadcast(name string, data interface{}) {
	m.events <- event{name: name, data: data}
}

// ServeHTTP holds the request open and streams events until the client
// disconnects.
func (m *Manager) ServeHTTP(c *gin.Context, userID string) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	conn := &client{userID: userID, ch: make(chan []byte, 16)}
	m.register <- conn
	defer func() { m.unregister <- conn }()

	c.Writer.Flush()
	for {
		select {
		case frame, ok := <-conn.ch:
			if !ok {
				return
			}
			if _, err := c.Writer.Write(frame); err != nil {
				return
			}
			c.Writer.Flush()
		case <-c.Request.Context().Done():
			return
		}
	}
}
