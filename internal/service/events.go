package service

// Realtime event names pushed to dashboard clients.
const (
	EventTaxStatusChanged = "tax.status_changed"
	EventReminderSent     = "reminder.sent"
)

// Notifier pushes realtime events to connected dashboard clients.
// Implemented by the websocket hub; a nil Notifier disables pushes.
type Notifier interface {
	BroadcastEvent(event string, data interface{})
}
