// Package realtime is an in-process fan-out hub for search activity. Every
// completed search is published once and delivered to the live websocket
// sessions, which use it to refresh their recent searches list.
//
// Delivery is best effort: a listener whose buffer is full misses the event,
// so a slow browser never delays a search.
package realtime

import (
	"sync"
	"time"

	"github.com/rubiojr/aurosearch/pkg/filters"
)

// SearchEvent describes one completed search.
type SearchEvent struct {
	Query      string            `json:"query"`
	Selection  filters.Selection `json:"selection"`
	Results    int               `json:"results"`
	SearchedAt time.Time         `json:"searched_at"`
	// Session is the id of the session that ran the search. It is not sent
	// to browsers.
	Session string `json:"-"`
}

// Hub fans out SearchEvents to registered listeners. It is safe for
// concurrent use.
type Hub struct {
	mu        sync.RWMutex
	listeners map[uint64]chan SearchEvent
	nextID    uint64
	bufSize   int
}

// NewHub returns a hub with the given per-listener buffer. A non-positive
// bufSize selects 32.
func NewHub(bufSize int) *Hub {
	if bufSize <= 0 {
		bufSize = 32
	}
	return &Hub{
		listeners: make(map[uint64]chan SearchEvent),
		bufSize:   bufSize,
	}
}

// Register adds a listener. Callers must Unregister the returned id.
func (h *Hub) Register() (uint64, <-chan SearchEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan SearchEvent, h.bufSize)
	h.listeners[id] = ch
	return id, ch
}

// Unregister removes a listener and closes its channel. Unknown ids are
// ignored.
func (h *Hub) Unregister(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.listeners[id]; ok {
		delete(h.listeners, id)
		close(ch)
	}
}

// Publish delivers ev to every listener with room in its buffer.
func (h *Hub) Publish(ev SearchEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.listeners {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Size returns the number of registered listeners.
func (h *Hub) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}
