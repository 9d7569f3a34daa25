// Package broadcast fans timer updates out to in-process listeners.
package broadcast

import (
	"sync"

	"github.com/rs/zerolog"

	"tictask/backend/internal/model"
)

// EventTimerUpdate carries the full TimerState after every mutation.
const EventTimerUpdate = "TIMER_UPDATE"

type Event struct {
	Type  string           `json:"type"`
	State model.TimerState `json:"state"`
}

// Hub delivers events best-effort: a subscriber whose buffer is full misses
// the event, and publishing with no subscribers is not an error.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[int]chan Event
	nextID      int
	logger      zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		subscribers: make(map[int]chan Event),
		logger:      logger,
	}
}

// Subscribe registers a listener. The returned func unregisters it and closes
// the channel; calling it more than once is safe.
func (h *Hub) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subscribers[id] = ch
	count := len(h.subscribers)
	h.mu.Unlock()

	h.logger.Debug().Int("subscriber", id).Int("total", count).Msg("timer listener subscribed")

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, id)
			remaining := len(h.subscribers)
			h.mu.Unlock()
			close(ch)
			h.logger.Debug().Int("subscriber", id).Int("total", remaining).Msg("timer listener unsubscribed")
		})
	}
}

func (h *Hub) Publish(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			h.logger.Debug().Int("subscriber", id).Str("event", event.Type).Msg("listener buffer full, event dropped")
		}
	}
}

func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
