package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// EventKind classifies events flowing through the dashboard EventBus.
type EventKind string

const (
	// EventWidgetVisibility is published by widgets that gain or lose content.
	EventWidgetVisibility EventKind = "widget.visibility"
	// EventWidgetConfig is published by widget controls that change their own config.
	EventWidgetConfig EventKind = "widget.config"
	// EventNotification carries a user-facing notification.
	EventNotification EventKind = "notification"
	// EventDashboardChanged is published after the persisted dashboard changed.
	EventDashboardChanged EventKind = "dashboard.changed"
)

// Event is the envelope carried by the EventBus.
type Event struct {
	Kind         EventKind      `json:"kind"`
	WidgetID     string         `json:"widget_id,omitempty"`
	Visible      *bool          `json:"visible,omitempty"`
	Config       map[string]any `json:"config,omitempty"`
	Notification *Notification  `json:"notification,omitempty"`
	Change       *WidgetEvent   `json:"change,omitempty"`
}

// VisibilityEvent builds a widget visibility notification.
func VisibilityEvent(widgetID string, visible bool) Event {
	return Event{Kind: EventWidgetVisibility, WidgetID: widgetID, Visible: &visible}
}

// ConfigEvent builds a widget config-change notification.
func ConfigEvent(widgetID string, config map[string]any) Event {
	return Event{Kind: EventWidgetConfig, WidgetID: widgetID, Config: config}
}

// EventBus fans out dashboard events to in-process subscribers. Publishing
// never blocks; slow subscribers miss events once their buffer is full.
type EventBus struct {
	mu   sync.RWMutex
	subs map[int]chan Event
	next int
}

// NewEventBus creates an event bus.
func NewEventBus() *EventBus {
	return &EventBus{
		subs: make(map[int]chan Event),
	}
}

// Publish delivers the event to every subscriber.
func (b *EventBus) Publish(event Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// WidgetUpdated satisfies the RefreshHook interface and broadcasts the change.
func (b *EventBus) WidgetUpdated(_ context.Context, change WidgetEvent) error {
	b.Publish(Event{Kind: EventDashboardChanged, WidgetID: change.WidgetID, Change: &change})
	return nil
}

// Subscribe returns a channel of events and a cancel func.
func (b *EventBus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan Event, 16)
	b.subs[id] = ch
	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the request and streams events as JSON.
func (b *EventBus) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer conn.Close()

	events, cancel := b.Subscribe()
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}

// ServeSSE provides a Server-Sent Events endpoint for dashboard events.
func (b *EventBus) ServeSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	events, cancel := b.Subscribe()
	defer cancel()

	encoder := json.NewEncoder(w)
	flusher, _ := w.(http.Flusher)

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			w.Write([]byte("data: "))
			if err := encoder.Encode(event); err != nil {
				return
			}
			w.Write([]byte("\n"))
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}
