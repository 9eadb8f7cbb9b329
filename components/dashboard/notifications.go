package dashboard

import "context"

// NotificationLevel ranks user-facing notifications.
type NotificationLevel string

const (
	NotificationInfo    NotificationLevel = "info"
	NotificationSuccess NotificationLevel = "success"
	NotificationError   NotificationLevel = "error"
)

// Notification is a message surfaced to the user (toast, banner).
type Notification struct {
	Level   NotificationLevel `json:"level"`
	Message string            `json:"message"`
}

// Notifier surfaces notifications to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// BusNotifier publishes notifications on an EventBus so UI subscribers can show them.
type BusNotifier struct {
	Bus *EventBus
}

// Notify publishes the notification.
func (n *BusNotifier) Notify(_ context.Context, note Notification) {
	if n == nil || n.Bus == nil {
		return
	}
	n.Bus.Publish(Event{Kind: EventNotification, Notification: &note})
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, Notification) {}
