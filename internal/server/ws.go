package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/signalhand/internal/server/api"
	"github.com/ayusman/signalhand/internal/timing"
)

// DefaultFeedInterval paces the state feed at about 15 messages per second.
const DefaultFeedInterval = 66 * time.Millisecond

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// sliderMessage is an edit sent by a dashboard client.
type sliderMessage struct {
	Channel string `json:"channel"`
	Value   int    `json:"value"`
}

// StateFeed pushes controller snapshots to WebSocket clients, so sliders
// follow gesture adjustments, and accepts slider edits from them.
type StateFeed struct {
	ctrl     api.Controller
	interval time.Duration
	clients  map[*websocket.Conn]*sync.Mutex
	mu       sync.RWMutex
	stop     chan struct{}
	once     sync.Once
}

// NewStateFeed creates a feed and starts its broadcast loop.
func NewStateFeed(ctrl api.Controller, interval time.Duration) *StateFeed {
	if interval <= 0 {
		interval = DefaultFeedInterval
	}
	f := &StateFeed{
		ctrl:     ctrl,
		interval: interval,
		clients:  make(map[*websocket.Conn]*sync.Mutex),
		stop:     make(chan struct{}),
	}
	go f.broadcast()
	return f
}

// ServeHTTP handles WebSocket upgrade requests.
func (f *StateFeed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	writeMu := &sync.Mutex{}
	f.mu.Lock()
	f.clients[conn] = writeMu
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		delete(f.clients, conn)
		f.mu.Unlock()
	}()

	// Send the current state right away.
	f.send(conn, writeMu, f.ctrl.Snapshot())

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		f.handleMessage(data)
	}
}

func (f *StateFeed) handleMessage(data []byte) {
	var msg sliderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("ignored websocket message: %v", err)
		return
	}
	ch, err := timing.ParseChannel(msg.Channel)
	if err != nil {
		log.Printf("ignored websocket message: %v", err)
		return
	}
	if _, err := f.ctrl.SetDuration(ch, msg.Value); err != nil {
		log.Printf("slider edit failed: %v", err)
	}
}

// broadcast sends the snapshot to all clients whenever it changed.
func (f *StateFeed) broadcast() {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	var last time.Time
	for {
		select {
		case <-f.stop:
			return
		case <-ticker.C:
		}

		f.mu.RLock()
		n := len(f.clients)
		f.mu.RUnlock()
		if n == 0 {
			continue
		}

		snap := f.ctrl.Snapshot()
		if snap.UpdatedAt.Equal(last) && !last.IsZero() {
			continue
		}
		last = snap.UpdatedAt

		f.mu.RLock()
		for conn, writeMu := range f.clients {
			f.send(conn, writeMu, snap)
		}
		f.mu.RUnlock()
	}
}

func (f *StateFeed) send(conn *websocket.Conn, writeMu *sync.Mutex, v any) {
	writeMu.Lock()
	defer writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(time.Second))
	if err := conn.WriteJSON(v); err != nil {
		conn.Close()
	}
}

// Clients returns the number of connected clients.
func (f *StateFeed) Clients() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.clients)
}

// Close stops the broadcast loop.
func (f *StateFeed) Close() {
	f.once.Do(func() { close(f.stop) })
}
