package settings

import (
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	s, err := Parse([]byte(`{}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.WakeWord != DefaultWakeWord {
		t.Errorf("WakeWord = %q, want %q", s.WakeWord, DefaultWakeWord)
	}
	if s.Language != DefaultLanguage {
		t.Errorf("Language = %q, want %q", s.Language, DefaultLanguage)
	}
	if s.Sensitivity != DefaultSensitivity {
		t.Errorf("Sensitivity = %v, want %v", s.Sensitivity, DefaultSensitivity)
	}
	if s.PollInterval() != DefaultPollInterval {
		t.Errorf("PollInterval = %v, want %v", s.PollInterval(), DefaultPollInterval)
	}
	if s.RefreshDelay() != DefaultRefreshDelay {
		t.Errorf("RefreshDelay = %v, want %v", s.RefreshDelay(), DefaultRefreshDelay)
	}
}

func TestParseCurrentFormat(t *testing.T) {
	data := []byte(`{
		"language": "de-DE",
		"wake_word": "hallo omifi",
		"sensitivity": 0.8,
		"continual_listening": true,
		"listening_active": true,
		"poll_interval_ms": 10000
	}`)
	s, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.WakeWord != "hallo omifi" {
		t.Errorf("WakeWord = %q", s.WakeWord)
	}
	if !s.ContinualListening || !s.ListeningActive {
		t.Error("boolean fields lost")
	}
	if s.PollInterval() != 10*time.Second {
		t.Errorf("PollInterval = %v, want 10s", s.PollInterval())
	}
	// Unset intervals still fall back.
	if s.WakeCooldown() != DefaultWakeCooldown {
		t.Errorf("WakeCooldown = %v, want default", s.WakeCooldown())
	}
}

func TestParseLegacyDashboardExport(t *testing.T) {
	data := []byte(`{
		"language": "en-GB",
		"wakeWord": "hey computer",
		"sensitivity": 0.3,
		"continualListening": true,
		"voiceRecognitionActive": true
	}`)
	s, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.WakeWord != "hey computer" {
		t.Errorf("WakeWord = %q, want migrated legacy value", s.WakeWord)
	}
	if s.Language != "en-GB" {
		t.Errorf("Language = %q", s.Language)
	}
	if s.Sensitivity != 0.3 {
		t.Errorf("Sensitivity = %v", s.Sensitivity)
	}
	if !s.ContinualListening {
		t.Error("ContinualListening not migrated")
	}
	if !s.ListeningActive {
		t.Error("voiceRecognitionActive not migrated into ListeningActive")
	}
}

func TestParseLegacyPartial(t *testing.T) {
	// A legacy file missing fields still gets defaults merged in.
	s, err := Parse([]byte(`{"wakeWord": "oi omifi"}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.WakeWord != "oi omifi" {
		t.Errorf("WakeWord = %q", s.WakeWord)
	}
	if s.Language != DefaultLanguage {
		t.Errorf("Language = %q, want default", s.Language)
	}
	if s.ListeningActive {
		t.Error("ListeningActive should default to false")
	}
}

func TestParseInvalid(t *testing.T) {
	if _, err := Parse([]byte(`{not json`)); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}
