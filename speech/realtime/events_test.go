package realtime

import "testing"

func TestParseEvent(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{
			name: "transcript completed",
			data: `{"type":"conversation.item.input_audio_transcription.completed","item_id":"item_1","transcript":"hey omifi take a screenshot"}`,
			want: eventTranscriptionCompleted,
		},
		{
			name: "transcript delta",
			data: `{"type":"conversation.item.input_audio_transcription.delta","item_id":"item_1","delta":"hey om"}`,
			want: eventTranscriptionDelta,
		},
		{
			name: "speech started",
			data: `{"type":"input_audio_buffer.speech_started","item_id":"item_2"}`,
			want: eventSpeechStarted,
		},
		{
			name: "error",
			data: `{"type":"error","error":{"type":"invalid_request_error","code":"bad_audio","message":"nope"}}`,
			want: eventError,
		},
		{
			name: "unknown passes through",
			data: `{"type":"session.updated"}`,
			want: "session.updated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := ParseEvent([]byte(tt.data))
			if err != nil {
				t.Fatalf("ParseEvent: %v", err)
			}
			if got := event.eventType(); got != tt.want {
				t.Errorf("eventType = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseTranscriptFields(t *testing.T) {
	event, err := ParseEvent([]byte(`{"type":"conversation.item.input_audio_transcription.completed","item_id":"item_9","transcript":"read clipboard"}`))
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	tr, ok := event.(*TranscriptEvent)
	if !ok {
		t.Fatalf("event type = %T, want *TranscriptEvent", event)
	}
	if tr.Transcript != "read clipboard" || tr.ItemID != "item_9" {
		t.Errorf("transcript = %+v", tr)
	}
}

func TestParseEventInvalidJSON(t *testing.T) {
	if _, err := ParseEvent([]byte(`{broken`)); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestErrorRecoverable(t *testing.T) {
	tests := []struct {
		code    string
		errType string
		want    bool
	}{
		{"bad_audio", "invalid_request_error", true},
		{"session_expired", "invalid_request_error", false},
		{"token_expired", "invalid_request_error", false},
		{"", "session_error", false},
	}
	for _, tt := range tests {
		var e ErrorEvent
		e.Error.Code = tt.code
		e.Error.Type = tt.errType
		if got := e.Recoverable(); got != tt.want {
			t.Errorf("Recoverable(code=%q type=%q) = %v, want %v", tt.code, tt.errType, got, tt.want)
		}
	}
}

func TestEagernessFor(t *testing.T) {
	tests := []struct {
		vigor float64
		want  string
	}{
		{0, "auto"},
		{0.2, "low"},
		{0.5, "medium"},
		{0.9, "high"},
		{1, "high"},
	}
	for _, tt := range tests {
		if got := eagernessFor(tt.vigor); got != tt.want {
			t.Errorf("eagernessFor(%v) = %q, want %q", tt.vigor, got, tt.want)
		}
	}
}

func TestISOLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"en-US", "en"},
		{"de", "de"},
		{"pt_BR", "pt"},
		{"", "en"},
		{"EN-GB", "en"},
	}
	for _, tt := range tests {
		if got := isoLanguage(tt.in); got != tt.want {
			t.Errorf("isoLanguage(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
