package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.omifi.dev/companion/internal/types"
	"go.omifi.dev/companion/mic"
	"go.omifi.dev/companion/speech"
)

// expiryMargin is how long before token expiry the session is wound
// down, leaving headroom for a clean restart.
const expiryMargin = 30 * time.Second

// Recognizer implements speech.Recognizer over the Realtime
// transcription API. Each Start mints a fresh ephemeral session.
type Recognizer struct {
	apiKey string
	cfg    SessionConfig
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	client  *Client
	capture *mic.Capture
	cancel  context.CancelFunc

	utterances chan types.Utterance
	events     chan speech.Event

	endOnce *sync.Once
}

// NewRecognizer creates a recognizer. cfg.Prompt should carry the wake
// phrase so transcription is biased toward it.
func NewRecognizer(apiKey string, cfg SessionConfig, logger *slog.Logger) *Recognizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recognizer{apiKey: apiKey, cfg: cfg, logger: logger}
}

// Start opens a transcription session and begins streaming microphone
// audio. The microphone must be free; acquisition failure is returned
// as an error rather than an event.
func (r *Recognizer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("recognizer already running")
	}

	client := NewClient(r.apiKey, r.cfg)
	if err := client.Connect(ctx); err != nil {
		client.Close()
		return fmt.Errorf("connect realtime client: %w", err)
	}

	capture := mic.New(mic.Config{SampleRate: sampleRate})
	capture.OnAudio(func(samples []float32) {
		if err := client.SendAudio(samples); err != nil && err != ErrClosed {
			r.logger.Debug("send audio failed", "error", err)
		}
	})
	if err := capture.Start(); err != nil {
		client.Close()
		return fmt.Errorf("start microphone: %w", err)
	}

	sessionCtx, cancel := context.WithCancel(context.Background())

	r.client = client
	r.capture = capture
	r.cancel = cancel
	r.running = true
	r.utterances = make(chan types.Utterance, 16)
	r.events = make(chan speech.Event, 16)
	r.endOnce = &sync.Once{}

	go r.pump(sessionCtx, client, r.utterances, r.events, r.endOnce)
	return nil
}

// Stop ends the session without emitting a session-ended event; the
// caller asked for it.
func (r *Recognizer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return nil
	}
	r.running = false
	r.cancel()
	err := r.capture.Stop()
	_ = r.client.Close()
	return err
}

// Utterances delivers finalized transcripts. Closed when the session
// ends.
func (r *Recognizer) Utterances() <-chan types.Utterance {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.utterances
}

// Events delivers lifecycle events for the current session.
func (r *Recognizer) Events() <-chan speech.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events
}

func (r *Recognizer) pump(ctx context.Context, client *Client, utterances chan types.Utterance, events chan speech.Event, endOnce *sync.Once) {
	defer close(utterances)

	end := func(msg string, err error) {
		endOnce.Do(func() {
			select {
			case events <- speech.Event{Kind: speech.EventSessionEnded, Message: msg, Err: err}:
			default:
			}
		})
	}

	// Sessions lapse with the ephemeral token; end a little early so
	// the restart does not race the server closing the call.
	expiry := time.NewTimer(time.Until(client.ExpiresAt().Add(-expiryMargin)))
	defer expiry.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-expiry.C:
			r.logger.Info("transcription session expiring, ending")
			end("session expired", nil)
			return
		case err := <-client.Errors():
			r.logger.Warn("realtime connection lost", "error", err)
			end("connection lost", err)
			return
		case <-client.Done():
			end("session closed", nil)
			return
		case event := <-client.Messages():
			switch e := event.(type) {
			case *TranscriptEvent:
				if e.Transcript == "" {
					continue
				}
				select {
				case utterances <- types.Utterance{
					Text:      e.Transcript,
					Timestamp: time.Now().UnixMilli(),
				}:
				case <-ctx.Done():
					return
				}
			case *ErrorEvent:
				err := fmt.Errorf("api error: %s (%s)", e.Error.Message, e.Error.Code)
				if e.Recoverable() {
					r.logger.Debug("recoverable api error", "code", e.Error.Code)
					select {
					case events <- speech.Event{Kind: speech.EventRecoverable, Message: e.Error.Message, Err: err}:
					default:
					}
					continue
				}
				end(e.Error.Message, err)
				return
			}
		}
	}
}
