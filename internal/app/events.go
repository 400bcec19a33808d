// Package app provides the core application service for Wails bindings.
package app

// Event names for frontend communication.
const (
	EventStatus           = "status-update"
	EventListening        = "listening-status"
	EventNotification     = "notification"
	EventControlsDisabled = "controls-disabled"
)

// NotificationEvent is the payload for EventNotification. Dismissed is
// true when the notification is being removed rather than shown.
type NotificationEvent struct {
	ID        string `json:"id"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Dismissed bool   `json:"dismissed"`
}
