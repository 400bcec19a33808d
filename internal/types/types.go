// Package types provides shared type definitions for the application.
package types

import "time"

// ContentRef identifies a capture the assistant service has persisted.
// The filepath is an opaque server-assigned id; the struct is immutable
// once received.
type ContentRef struct {
	Filepath       string `json:"filepath"`
	Filename       string `json:"filename"`
	Timestamp      string `json:"timestamp"`
	ContentPreview string `json:"content_preview,omitempty"`
}

// Status is the assistant state as last reported by the service.
// It is replaced wholesale on every successful poll.
type Status struct {
	Running             bool         `json:"running"`
	MicrophoneAvailable bool         `json:"microphone_available"`
	Screenshots         []ContentRef `json:"screenshots"`
	ClipboardItems      []ContentRef `json:"clipboard_items"`
}

// ToggleResult is the response to a start/stop request.
type ToggleResult struct {
	Running bool   `json:"running"`
	Message string `json:"message,omitempty"`
}

// CaptureResult is the response to a screenshot or clipboard capture.
// Filepath is optional; callers degrade to a full list refresh when it
// is absent.
type CaptureResult struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	Filepath       string `json:"filepath,omitempty"`
	ContentPreview string `json:"content_preview,omitempty"`
	ContentType    string `json:"content_type,omitempty"`
}

// CommandResult is the response to a forwarded free-text command.
type CommandResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Utterance is a finalized speech recognition result.
type Utterance struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"` // 0-1, 0 when the recognizer does not report one
	Timestamp  int64   `json:"timestamp"`  // Unix timestamp in milliseconds
}

// ListeningStatus describes the wake-word gate for the dashboard badge.
type ListeningStatus struct {
	Active         bool   `json:"active"`
	WakeWord       string `json:"wakeWord"`
	Message        string `json:"message"`
	NeedsReconnect bool   `json:"needsReconnect"`
}

// TrainingSample is a locally recorded voice sample for a given phrase.
// Audio stays on disk and is never serialized to the frontend.
type TrainingSample struct {
	ID        string    `json:"id"`
	Phrase    string    `json:"phrase"`
	Timestamp time.Time `json:"timestamp"`
	Audio     []byte    `json:"-"`
	AudioLen  int       `json:"audioLen"`
}

// DetectResult is the outcome of utterance language detection.
type DetectResult struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
