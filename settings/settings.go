// Package settings handles persisted voice and sync configuration.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	appName          = "omifi"
	settingsFileName = "settings.json"
)

// Defaults. The intervals are tunable because they stand in for
// completion events the platform does not expose.
const (
	DefaultWakeWord    = "hey omifi"
	DefaultLanguage    = "en-US"
	DefaultSensitivity = 0.5

	DefaultPollInterval  = 5 * time.Second
	DefaultWakeCooldown  = 3 * time.Second
	DefaultCommandWindow = 5 * time.Second
	DefaultRecordWindow  = 3 * time.Second
	DefaultRefreshDelay  = 1500 * time.Millisecond
)

// Settings is the persisted application configuration. Interval fields
// are stored as milliseconds; use the accessor methods for durations.
type Settings struct {
	Language           string  `json:"language"`
	WakeWord           string  `json:"wake_word"`
	Sensitivity        float64 `json:"sensitivity"`
	ContinualListening bool    `json:"continual_listening"`
	ListeningActive    bool    `json:"listening_active"`
	ServiceURL         string  `json:"service_url,omitempty"`

	PollIntervalMS  int `json:"poll_interval_ms,omitempty"`
	WakeCooldownMS  int `json:"wake_cooldown_ms,omitempty"`
	CommandWindowMS int `json:"command_window_ms,omitempty"`
	RecordWindowMS  int `json:"record_window_ms,omitempty"`
	RefreshDelayMS  int `json:"refresh_delay_ms,omitempty"`
}

// legacySettings is the camelCase shape the old web dashboard kept in
// its local storage export ("omifiVoiceSettings" plus the separate
// "voiceRecognitionActive" flag).
type legacySettings struct {
	Language           *string  `json:"language"`
	WakeWord           *string  `json:"wakeWord"`
	Sensitivity        *float64 `json:"sensitivity"`
	ContinualListening *bool    `json:"continualListening"`
	VoiceRecognition   *bool    `json:"voiceRecognitionActive"`
}

// Load reads settings from the user config dir, migrating the legacy
// camelCase format in place when found. A missing file yields defaults.
func Load() (*Settings, error) {
	path, err := settingsPath()
	if err != nil {
		return nil, fmt.Errorf("get settings path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read settings: %w", err)
	}
	return Parse(data)
}

// Parse decodes settings from JSON, accepting both the current format
// and the legacy dashboard export, and merges defaults over zero
// fields.
func Parse(data []byte) (*Settings, error) {
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	// Current-format files always carry wake_word; its absence means we
	// are looking at a legacy export.
	if s.WakeWord == "" {
		var legacy legacySettings
		if err := json.Unmarshal(data, &legacy); err != nil {
			return nil, fmt.Errorf("unmarshal legacy settings: %w", err)
		}
		s.applyLegacy(legacy)
	}

	s.applyDefaults()
	return &s, nil
}

// Save persists the settings to disk.
func (s *Settings) Save() error {
	path, err := settingsPath()
	if err != nil {
		return fmt.Errorf("get settings path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Default returns settings with every field at its default.
func Default() *Settings {
	s := &Settings{}
	s.applyDefaults()
	return s
}

func (s *Settings) applyLegacy(legacy legacySettings) {
	if legacy.Language != nil {
		s.Language = *legacy.Language
	}
	if legacy.WakeWord != nil {
		s.WakeWord = *legacy.WakeWord
	}
	if legacy.Sensitivity != nil {
		s.Sensitivity = *legacy.Sensitivity
	}
	if legacy.ContinualListening != nil {
		s.ContinualListening = *legacy.ContinualListening
	}
	if legacy.VoiceRecognition != nil {
		s.ListeningActive = *legacy.VoiceRecognition
	}
}

func (s *Settings) applyDefaults() {
	if s.Language == "" {
		s.Language = DefaultLanguage
	}
	if s.WakeWord == "" {
		s.WakeWord = DefaultWakeWord
	}
	if s.Sensitivity == 0 {
		s.Sensitivity = DefaultSensitivity
	}
}

// PollInterval returns the status poll period.
func (s *Settings) PollInterval() time.Duration {
	return msOrDefault(s.PollIntervalMS, DefaultPollInterval)
}

// WakeCooldown returns the re-detection suppression window after a wake
// word fires.
func (s *Settings) WakeCooldown() time.Duration {
	return msOrDefault(s.WakeCooldownMS, DefaultWakeCooldown)
}

// CommandWindow returns how long the gate waits for a command after a
// bare wake word.
func (s *Settings) CommandWindow() time.Duration {
	return msOrDefault(s.CommandWindowMS, DefaultCommandWindow)
}

// RecordWindow returns the training sample recording length.
func (s *Settings) RecordWindow() time.Duration {
	return msOrDefault(s.RecordWindowMS, DefaultRecordWindow)
}

// RefreshDelay returns the grace period before re-reading content lists
// after a capture.
func (s *Settings) RefreshDelay() time.Duration {
	return msOrDefault(s.RefreshDelayMS, DefaultRefreshDelay)
}

func msOrDefault(ms int, def time.Duration) time.Duration {
	if ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

func settingsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config dir: %w", err)
	}
	return filepath.Join(dir, appName, settingsFileName), nil
}
