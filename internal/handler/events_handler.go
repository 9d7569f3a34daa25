package handler

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"tictask/backend/internal/broadcast"
	"tictask/backend/internal/model"
)

const (
	eventBuffer       = 16
	heartbeatInterval = 15 * time.Second
)

type Subscriber interface {
	Subscribe(buffer int) (<-chan broadcast.Event, func())
}

// EventsHandler streams TIMER_UPDATE events over server-sent events.
type EventsHandler struct {
	hub   Subscriber
	state func() model.TimerState
}

func NewEventsHandler(hub Subscriber, state func() model.TimerState) *EventsHandler {
	return &EventsHandler{hub: hub, state: state}
}

func (h *EventsHandler) Stream(c *gin.Context) {
	events, unsubscribe := h.hub.Subscribe(eventBuffer)
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	// Clients start from the current state, then follow updates.
	c.SSEvent(broadcast.EventTimerUpdate, h.state())
	c.Writer.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case event, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(event.Type, event.State)
			return true
		case <-heartbeat.C:
			c.SSEvent("heartbeat", gin.H{"time": time.Now().UnixMilli()})
			return true
		}
	})
}
