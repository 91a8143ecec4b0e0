package api

import (
	"bufio"
	"encoding/json"
	"sync"
	"time"

	"commhub/models"
	"commhub/respond"
	"commhub/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

// NotificationHandler relays reconciled push events to the browser over SSE
// and WebSocket. The browser socket is also the return path for read
// receipts: mark_as_read control messages route into the read marker.
type NotificationHandler struct {
	marker      *respond.ReadMarker
	subscribers map[string]chan models.PushEvent
	mu          sync.RWMutex
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(marker *respond.ReadMarker) *NotificationHandler {
	return &NotificationHandler{
		marker:      marker,
		subscribers: make(map[string]chan models.PushEvent),
	}
}

// HandleSSE streams events to one browser tab over Server-Sent Events.
func (h *NotificationHandler) HandleSSE(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")

	subscriberID := uuid.New().String()
	eventChan := make(chan models.PushEvent, 16)

	h.mu.Lock()
	h.subscribers[subscriberID] = eventChan
	h.mu.Unlock()

	utils.Log.Info("SSE subscriber connected: %s", subscriberID)

	ctx := c.Context()
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer h.drop(subscriberID, eventChan)

		// Keep-alive ticker
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case evt := <-eventChan:
				data, _ := json.Marshal(evt)
				w.WriteString("data: " + string(data) + "\n\n")
				if err := w.Flush(); err != nil {
					return
				}

			case <-ticker.C:
				w.WriteString(": keepalive\n\n")
				if err := w.Flush(); err != nil {
					return
				}

			case <-ctx.Done():
				return
			}
		}
	}))

	return nil
}

// HandleWebSocket serves one browser socket: events go out, mark_as_read
// control messages come back in.
func (h *NotificationHandler) HandleWebSocket(c *websocket.Conn) {
	subscriberID := uuid.New().String()
	eventChan := make(chan models.PushEvent, 16)

	h.mu.Lock()
	h.subscribers[subscriberID] = eventChan
	h.mu.Unlock()

	defer func() {
		h.drop(subscriberID, eventChan)
		c.Close()
		utils.Log.Info("WebSocket subscriber disconnected: %s", subscriberID)
	}()

	utils.Log.Info("WebSocket subscriber connected: %s", subscriberID)

	done := make(chan struct{})
	go h.readControls(c, done)

	for {
		select {
		case evt, ok := <-eventChan:
			if !ok {
				return
			}
			if err := c.WriteJSON(evt); err != nil {
				utils.Log.Error("Failed to send WebSocket event: %v", err)
				return
			}
		case <-done:
			return
		}
	}
}

// readControls consumes browser-originated control messages until the socket
// closes.
func (h *NotificationHandler) readControls(c *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			return
		}

		var control models.MarkAsRead
		if err := json.Unmarshal(data, &control); err != nil || control.Type != "mark_as_read" {
			utils.Log.Warn("Ignoring unrecognized control message: %s", string(data))
			continue
		}
		if err := h.marker.MarkRead(control.MessageID); err != nil {
			utils.Log.Warn("Read receipt from socket failed for message %d: %v", control.MessageID, err)
		}
	}
}

// Broadcast fans one reconciled event out to every subscriber. Slow
// subscribers are skipped rather than blocking the event loop.
func (h *NotificationHandler) Broadcast(evt models.PushEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	utils.Log.Debug("Broadcasting %s/%s seq=%d to %d subscribers",
		evt.Collection, evt.Type, evt.Seq, len(h.subscribers))

	for subscriberID, ch := range h.subscribers {
		select {
		case ch <- evt:
			// Sent successfully
		default:
			utils.Log.Warn("Event channel full for subscriber %s", subscriberID)
		}
	}
}

func (h *NotificationHandler) drop(subscriberID string, ch chan models.PushEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subscribers[subscriberID]; !ok {
		return
	}
	delete(h.subscribers, subscriberID)
	close(ch)
}
