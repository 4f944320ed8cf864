package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/skyfield/missionforge/pkg/domain/events"
	"github.com/skyfield/missionforge/pkg/storage"
)

// wsHandler pushes domain events to WebSocket clients, mirroring the SSE
// feed for consumers that need a bidirectional transport.
type wsHandler struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[chan *events.BaseEvent]struct{}
}

func newWSHandler(publisher *storage.InMemoryEventPublisher) *wsHandler {
	h := &wsHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The editor UI is served from arbitrary local origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[chan *events.BaseEvent]struct{}),
	}

	publisher.Subscribe(func(e *events.BaseEvent) error {
		h.mu.RLock()
		defer h.mu.RUnlock()
		for ch := range h.clients {
			select {
			case ch <- e:
			default:
			}
		}
		return nil
	})

	return h
}

func (h *wsHandler) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ch := make(chan *events.BaseEvent, 64)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.clients, ch)
		h.mu.Unlock()
		close(ch)
	}()

	// Drain client frames so pings and close handshakes are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}
