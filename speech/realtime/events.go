package realtime

import "encoding/json"

// Wire event types from the OpenAI Realtime transcription API.
const (
	eventTranscriptionCompleted = "conversation.item.input_audio_transcription.completed"
	eventTranscriptionDelta     = "conversation.item.input_audio_transcription.delta"
	eventSpeechStarted          = "input_audio_buffer.speech_started"
	eventSpeechStopped          = "input_audio_buffer.speech_stopped"
	eventError                  = "error"
)

// Event is a discriminated union for server events. Switch on the
// concrete type.
type Event interface {
	eventType() string
}

// TranscriptEvent carries a finalized utterance transcript.
type TranscriptEvent struct {
	EventID    string `json:"event_id"`
	ItemID     string `json:"item_id"`
	Transcript string `json:"transcript"`
}

func (TranscriptEvent) eventType() string { return eventTranscriptionCompleted }

// TranscriptDeltaEvent is a streaming partial transcript. The gate only
// acts on finalized transcripts; deltas drive the "heard so far" status
// line.
type TranscriptDeltaEvent struct {
	EventID string `json:"event_id"`
	ItemID  string `json:"item_id"`
	Delta   string `json:"delta"`
}

func (TranscriptDeltaEvent) eventType() string { return eventTranscriptionDelta }

// SpeechStartedEvent is emitted when server VAD detects speech.
type SpeechStartedEvent struct {
	EventID string `json:"event_id"`
	ItemID  string `json:"item_id"`
}

func (SpeechStartedEvent) eventType() string { return eventSpeechStarted }

// SpeechStoppedEvent is emitted when server VAD detects silence.
type SpeechStoppedEvent struct {
	EventID string `json:"event_id"`
	ItemID  string `json:"item_id"`
}

func (SpeechStoppedEvent) eventType() string { return eventSpeechStopped }

// ErrorEvent is a server-reported error.
type ErrorEvent struct {
	EventID string `json:"event_id"`
	Error   struct {
		Type    string `json:"type"`
		Code    string `json:"code,omitempty"`
		Message string `json:"message"`
	} `json:"error"`
}

func (ErrorEvent) eventType() string { return eventError }

// Recoverable reports whether the session survives this error. The API
// keeps the session open for input validation problems; only session-
// and connection-level errors are fatal.
func (e ErrorEvent) Recoverable() bool {
	switch e.Error.Code {
	case "session_expired", "token_expired":
		return false
	}
	return e.Error.Type != "session_error"
}

// UnknownEvent holds event types this client does not interpret.
type UnknownEvent struct {
	Type string
	Raw  json.RawMessage
}

func (e UnknownEvent) eventType() string { return e.Type }

// ParseEvent unmarshals a data channel message into its Event type.
func ParseEvent(data []byte) (Event, error) {
	var header struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, err
	}

	var e Event
	switch header.Type {
	case eventTranscriptionCompleted:
		e = &TranscriptEvent{}
	case eventTranscriptionDelta:
		e = &TranscriptDeltaEvent{}
	case eventSpeechStarted:
		e = &SpeechStartedEvent{}
	case eventSpeechStopped:
		e = &SpeechStoppedEvent{}
	case eventError:
		e = &ErrorEvent{}
	default:
		return UnknownEvent{Type: header.Type, Raw: data}, nil
	}
	if err := json.Unmarshal(data, e); err != nil {
		return nil, err
	}
	return e, nil
}
