// Package speech defines the recognizer interface the wake-word gate
// consumes.
package speech

import (
	"context"

	"go.omifi.dev/companion/internal/types"
)

// EventKind classifies recognizer lifecycle events.
type EventKind string

const (
	// EventSessionEnded means the recognition session terminated
	// (expiry, network loss, remote close). The owner decides whether
	// to restart.
	EventSessionEnded EventKind = "session-ended"
	// EventRecoverable is a transient error (no speech, brief network
	// hiccough); the session keeps running.
	EventRecoverable EventKind = "recoverable"
	// EventPermission means microphone or capture permission was
	// denied; the session cannot continue.
	EventPermission EventKind = "permission"
)

// Event is a recognizer lifecycle notification.
type Event struct {
	Kind    EventKind
	Message string
	Err     error
}

// Recognizer turns microphone audio into finalized utterances. One
// Start/Stop cycle is one session; after EventSessionEnded the
// recognizer must be restarted to produce further utterances.
type Recognizer interface {
	Start(ctx context.Context) error
	Stop() error
	// Utterances delivers finalized transcripts for the current
	// session. Closed when the session ends.
	Utterances() <-chan types.Utterance
	// Events delivers lifecycle events for the current session.
	Events() <-chan Event
}
