// Package hotkey registers global keyboard shortcuts for capture and
// listening actions.
package hotkey

import (
	"log/slog"
	"sync"

	hook "github.com/robotn/gohook"
)

// Default shortcut chords. Ctrl+Shift is used instead of Cmd so the
// same chords work on every desktop.
var (
	screenshotChord = []string{"ctrl", "shift", "s"}
	clipboardChord  = []string{"ctrl", "shift", "c"}
	listenChord     = []string{"ctrl", "shift", "l"}
)

// Manager owns the global event hook and dispatches registered chords
// to their callbacks. Callbacks run on their own goroutine so a slow
// handler never stalls the hook event loop.
type Manager struct {
	mu      sync.Mutex
	running bool
	events  chan hook.Event

	onScreenshot func()
	onClipboard  func()
	onListen     func()

	statusCallback func(granted bool)
}

// NewManager creates a hotkey manager with the given action callbacks.
// Any callback may be nil to leave that chord unbound.
func NewManager(onScreenshot, onClipboard, onListen func()) *Manager {
	return &Manager{
		onScreenshot: onScreenshot,
		onClipboard:  onClipboard,
		onListen:     onListen,
	}
}

// SetStatusCallback registers a callback invoked once the hook has
// started, reporting whether the OS granted input monitoring.
func (m *Manager) SetStatusCallback(cb func(granted bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusCallback = cb
}

// Start registers the chords and begins processing global key events.
// It returns immediately; events are handled on a background goroutine.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil
	}

	if m.onScreenshot != nil {
		hook.Register(hook.KeyDown, screenshotChord, func(hook.Event) {
			go m.onScreenshot()
		})
	}
	if m.onClipboard != nil {
		hook.Register(hook.KeyDown, clipboardChord, func(hook.Event) {
			go m.onClipboard()
		})
	}
	if m.onListen != nil {
		hook.Register(hook.KeyDown, listenChord, func(hook.Event) {
			go m.onListen()
		})
	}

	m.events = hook.Start()
	m.running = true

	cb := m.statusCallback
	go func() {
		if cb != nil {
			cb(true)
		}
		<-hook.Process(m.events)
		slog.Debug("hotkey event loop exited")
	}()

	slog.Info("global hotkeys registered",
		"screenshot", screenshotChord,
		"clipboard", clipboardChord,
		"listen", listenChord)
	return nil
}

// Stop unregisters all chords and ends event processing.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	hook.End()
	m.running = false
}
