// Package wakeword gates command routing behind a wake phrase.
package wakeword

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.omifi.dev/companion/command"
	"go.omifi.dev/companion/internal/types"
	"go.omifi.dev/companion/notify"
	"go.omifi.dev/companion/speech"
)

// State is the gate's listening state.
type State string

const (
	// StateIdle means no recognizer session is running.
	StateIdle State = "idle"
	// StateListening means utterances are being matched against the
	// wake phrase.
	StateListening State = "listening"
	// StateWakeDetected covers the span from a consumed wake event
	// until the cool-down returns the gate to listening.
	StateWakeDetected State = "wake-detected"
)

// Router routes a recognized command utterance.
type Router interface {
	Route(ctx context.Context, utterance string) command.Action
}

// Config holds the gate's tunables.
type Config struct {
	WakeWord  string
	Continual bool
	// Cooldown suppresses re-detection after each consumed wake event.
	Cooldown time.Duration
	// CommandWindow is how long the gate waits for a command utterance
	// after a bare wake phrase.
	CommandWindow time.Duration
}

// Gate owns the recognizer session and the wake-word state machine.
// All session state lives here rather than in package globals so the
// machine is testable against a fake recognizer.
type Gate struct {
	probe    func(ctx context.Context) error
	rec      speech.Recognizer
	router   Router
	center   *notify.Center
	onStatus func(types.ListeningStatus)
	logger   *slog.Logger

	cfg Config

	mu              sync.Mutex
	state           State
	cooling         bool
	awaitingCommand bool
	cooldownTimer   *time.Timer
	commandTimer    *time.Timer
	cancel          context.CancelFunc
	gen             int
}

// New creates a Gate. probe is called before each explicit start to
// fail fast on a dead microphone. onStatus may be nil.
func New(probe func(ctx context.Context) error, rec speech.Recognizer, router Router, center *notify.Center, onStatus func(types.ListeningStatus), cfg Config, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	if onStatus == nil {
		onStatus = func(types.ListeningStatus) {}
	}
	if cfg.WakeWord == "" {
		cfg.WakeWord = "hey omifi"
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 3 * time.Second
	}
	if cfg.CommandWindow <= 0 {
		cfg.CommandWindow = 5 * time.Second
	}
	return &Gate{
		probe:    probe,
		rec:      rec,
		router:   router,
		center:   center,
		onStatus: onStatus,
		cfg:      cfg,
		logger:   logger,
		state:    StateIdle,
	}
}

// State returns the current gate state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Start probes the microphone, then starts a recognizer session and
// begins matching utterances. Returns an error if the gate is already
// running, the probe fails, or the session cannot be established.
func (g *Gate) Start(ctx context.Context) error {
	g.mu.Lock()
	if g.state != StateIdle {
		g.mu.Unlock()
		return fmt.Errorf("already listening")
	}
	g.mu.Unlock()

	// Fresh acquire-and-release so a dead device fails here with a
	// clear error instead of inside the recognizer.
	if err := g.probe(ctx); err != nil {
		if g.center != nil {
			g.center.Danger("Microphone unavailable: " + err.Error())
		}
		return fmt.Errorf("microphone probe: %w", err)
	}

	if err := g.rec.Start(ctx); err != nil {
		if g.center != nil {
			g.center.Danger("Could not start voice recognition")
		}
		return fmt.Errorf("start recognizer: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())

	g.mu.Lock()
	g.state = StateListening
	g.cooling = false
	g.awaitingCommand = false
	g.cancel = cancel
	g.gen++
	gen := g.gen
	g.mu.Unlock()

	go g.run(runCtx, gen)
	g.emitListening()
	return nil
}

// Stop ends listening. This is the explicit user stop: the gate goes
// Idle and no restart is attempted.
func (g *Gate) Stop() error {
	g.mu.Lock()
	if g.state == StateIdle {
		g.mu.Unlock()
		return nil
	}
	g.toIdleLocked()
	g.mu.Unlock()

	err := g.rec.Stop()
	g.onStatus(types.ListeningStatus{Active: false, WakeWord: g.cfg.WakeWord, Message: "Voice recognition stopped"})
	return err
}

// toIdleLocked clears all session state. Callers hold g.mu.
func (g *Gate) toIdleLocked() {
	g.state = StateIdle
	g.cooling = false
	g.awaitingCommand = false
	g.gen++
	if g.cooldownTimer != nil {
		g.cooldownTimer.Stop()
	}
	if g.commandTimer != nil {
		g.commandTimer.Stop()
	}
	if g.cancel != nil {
		g.cancel()
	}
}

func (g *Gate) run(ctx context.Context, gen int) {
	for {
		utterances := g.rec.Utterances()
		events := g.rec.Events()

		ended := false
		for !ended {
			select {
			case <-ctx.Done():
				return
			case u, ok := <-utterances:
				if !ok {
					// Closed channel precedes the session-ended
					// event; keep draining events.
					utterances = nil
					continue
				}
				g.handleUtterance(ctx, u.Text)
			case e := <-events:
				switch e.Kind {
				case speech.EventRecoverable:
					// No state change for no-speech and transient
					// network errors.
					g.logger.Debug("recoverable recognition error", "message", e.Message)
				case speech.EventPermission:
					g.logger.Warn("microphone permission lost", "message", e.Message)
					g.mu.Lock()
					g.toIdleLocked()
					g.mu.Unlock()
					_ = g.rec.Stop()
					if g.center != nil {
						g.center.Danger("Microphone permission denied")
					}
					g.onStatus(types.ListeningStatus{Active: false, WakeWord: g.cfg.WakeWord, Message: "Microphone permission denied"})
					return
				case speech.EventSessionEnded:
					ended = true
				}
			}
		}

		// Session end is a liveness event, not a user stop: with
		// continual listening on, repair it by starting a new session.
		g.mu.Lock()
		if g.gen != gen || g.state == StateIdle {
			g.mu.Unlock()
			return
		}
		if !g.cfg.Continual {
			g.toIdleLocked()
			g.mu.Unlock()
			_ = g.rec.Stop()
			g.onStatus(types.ListeningStatus{Active: false, WakeWord: g.cfg.WakeWord, Message: "Voice recognition ended"})
			return
		}
		g.mu.Unlock()

		if err := g.restart(ctx); err != nil {
			g.logger.Error("recognizer restart failed", "error", err)
			g.mu.Lock()
			g.toIdleLocked()
			g.mu.Unlock()
			if g.center != nil {
				g.center.Warning("Voice recognition disconnected")
			}
			g.onStatus(types.ListeningStatus{
				Active:         false,
				WakeWord:       g.cfg.WakeWord,
				Message:        "Voice recognition disconnected",
				NeedsReconnect: true,
			})
			return
		}
		g.emitListening()
	}
}

func (g *Gate) restart(ctx context.Context) error {
	_ = g.rec.Stop()
	return g.rec.Start(ctx)
}

func (g *Gate) handleUtterance(ctx context.Context, text string) {
	norm := strings.ToLower(strings.TrimSpace(text))
	if norm == "" {
		return
	}

	g.mu.Lock()
	switch {
	case g.awaitingCommand:
		// The wake phrase came bare; this utterance is the command.
		g.awaitingCommand = false
		if g.commandTimer != nil {
			g.commandTimer.Stop()
		}
		g.beginCooldownLocked()
		g.mu.Unlock()
		g.router.Route(ctx, norm)

	case g.cooling:
		// Re-detections are suppressed for the cool-down.
		g.mu.Unlock()
		g.logger.Debug("utterance ignored during cool-down", "text", norm)

	case strings.Contains(norm, g.cfg.WakeWord):
		g.state = StateWakeDetected
		trailing := trailingCommand(norm, g.cfg.WakeWord)
		if trailing != "" {
			// Command rode along with the wake phrase; route it in the
			// same cycle.
			g.beginCooldownLocked()
			g.mu.Unlock()
			g.onStatus(types.ListeningStatus{Active: true, WakeWord: g.cfg.WakeWord, Message: "Wake word detected"})
			g.router.Route(ctx, trailing)
			return
		}
		g.awaitingCommand = true
		gen := g.gen
		g.commandTimer = time.AfterFunc(g.cfg.CommandWindow, func() { g.commandWindowExpired(gen) })
		g.mu.Unlock()
		g.onStatus(types.ListeningStatus{Active: true, WakeWord: g.cfg.WakeWord, Message: "Listening for command..."})

	default:
		g.mu.Unlock()
	}
}

// beginCooldownLocked arms the single revert back to listening. Callers
// hold g.mu.
func (g *Gate) beginCooldownLocked() {
	g.state = StateWakeDetected
	g.cooling = true
	gen := g.gen
	g.cooldownTimer = time.AfterFunc(g.cfg.Cooldown, func() { g.cooldownElapsed(gen) })
}

// cooldownElapsed reverts to listening. The generation check makes the
// revert fire at most once per wake event even if timers overlap a
// stop/start.
func (g *Gate) cooldownElapsed(gen int) {
	g.mu.Lock()
	if g.gen != gen || !g.cooling {
		g.mu.Unlock()
		return
	}
	g.cooling = false
	g.state = StateListening
	g.mu.Unlock()
	g.emitListening()
}

func (g *Gate) commandWindowExpired(gen int) {
	g.mu.Lock()
	if g.gen != gen || !g.awaitingCommand {
		g.mu.Unlock()
		return
	}
	g.awaitingCommand = false
	g.state = StateListening
	g.mu.Unlock()
	g.emitListening()
}

func (g *Gate) emitListening() {
	g.onStatus(types.ListeningStatus{
		Active:   true,
		WakeWord: g.cfg.WakeWord,
		Message:  fmt.Sprintf("Listening for wake word %q", g.cfg.WakeWord),
	})
}

// trailingCommand extracts the command text following the wake phrase,
// if any.
func trailingCommand(text, wakeWord string) string {
	i := strings.Index(text, wakeWord)
	if i < 0 {
		return ""
	}
	rest := text[i+len(wakeWord):]
	return strings.Trim(rest, " ,.!?")
}
