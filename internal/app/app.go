// Package app provides the core application service for Wails bindings.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"go.omifi.dev/companion/assistant"
	"go.omifi.dev/companion/cache"
	"go.omifi.dev/companion/capture"
	"go.omifi.dev/companion/clipboard"
	"go.omifi.dev/companion/command"
	"go.omifi.dev/companion/hotkey"
	"go.omifi.dev/companion/internal/types"
	"go.omifi.dev/companion/langdetect"
	"go.omifi.dev/companion/mic"
	"go.omifi.dev/companion/notify"
	"go.omifi.dev/companion/screenshot"
	"go.omifi.dev/companion/settings"
	"go.omifi.dev/companion/speech/realtime"
	"go.omifi.dev/companion/statussync"
	"go.omifi.dev/companion/training"
	"go.omifi.dev/companion/wakeword"

	"github.com/wailsapp/wails/v3/pkg/application"
)

// ErrToggleInFlight is returned when a start/stop toggle is requested
// while a previous one is still waiting on the assistant service.
var ErrToggleInFlight = errors.New("assistant toggle already in progress")

// Service provides application functionality bound to Wails.
// This struct focuses on orchestration; business logic lives in sub-components.
type Service struct {
	cfg    *settings.Settings
	cache  *cache.Cache
	hotkey *hotkey.Manager

	client     *assistant.Client
	center     *notify.Center
	poller     *statussync.Poller
	dispatcher *capture.Dispatcher
	router     *command.Router
	trainer    *training.Trainer

	// UI references - set via Init
	app    *application.App
	window application.Window

	mu         sync.Mutex
	gate       *wakeword.Gate
	pollCancel context.CancelFunc
	toggling   atomic.Bool

	// emitHook replaces app event emission in tests.
	emitHook func(name string, data any)

	apiKey string

	// Version info (set by caller)
	version string
}

// New creates a new Service. Call Init() after Wails app is created.
func New(version string) *Service {
	return &Service{version: version}
}

// GetVersion returns the application version.
func (s *Service) GetVersion() string {
	return s.version
}

// Init initializes the service with app and window references.
// Must be called after Wails application is created.
func (s *Service) Init(app *application.App, window application.Window) {
	s.app = app
	s.window = window
	s.apiKey = os.Getenv("OPENAI_API_KEY")

	cfg, err := settings.Load()
	if err != nil {
		slog.Error("load settings", "error", err)
		cfg = settings.Default()
	}
	s.cfg = cfg

	baseURL := cfg.ServiceURL
	if baseURL == "" {
		baseURL = assistant.DefaultBaseURL
	}
	s.client = assistant.New(baseURL)

	s.center = notify.NewCenter(notify.DefaultTTL)
	s.center.Subscribe(func(n notify.Notification, dismissed bool) {
		s.emit(EventNotification, NotificationEvent{
			ID:        n.ID,
			Level:     string(n.Level),
			Message:   n.Message,
			Dismissed: dismissed,
		})
	})

	s.setupCache()
	if s.cache != nil {
		s.trainer = training.New(mic.Record, s.cache, cfg.RecordWindow())
	}

	s.poller = statussync.New(s.client, cfg.PollInterval(), cfg.RefreshDelay(), func(u statussync.Update) {
		s.emit(EventStatus, u)
	}, slog.Default())

	pollCtx, cancel := context.WithCancel(context.Background())
	s.pollCancel = cancel
	go s.poller.Run(pollCtx)

	s.dispatcher = capture.NewDispatcher(s.client, screenshot.New(), clipboard.New(),
		s.center, s.poller.RefreshSoon, slog.Default())
	s.router = command.NewRouter(s.dispatcher, s.client, s.center, slog.Default())

	s.setupHotkey()

	if cfg.ListeningActive {
		if err := s.StartListening(); err != nil {
			slog.Warn("resume listening", "error", err)
		}
	}
}

// Shutdown cleans up resources.
func (s *Service) Shutdown() {
	if s.hotkey != nil {
		s.hotkey.Stop()
	}
	s.mu.Lock()
	gate := s.gate
	cancel := s.pollCancel
	s.mu.Unlock()
	if gate != nil {
		_ = gate.Stop()
	}
	if cancel != nil {
		cancel()
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			slog.Error("close cache", "error", err)
		}
	}
}

func (s *Service) setupCache() {
	configDir, err := os.UserConfigDir()
	if err != nil {
		slog.Error("get config dir for cache", "error", err)
		return
	}

	cachePath := filepath.Join(configDir, "omifi", "cache")
	c, err := cache.Open(cachePath, cache.DefaultTTL)
	if err != nil {
		slog.Error("init cache", "error", err)
		return
	}
	s.cache = c
	slog.Info("cache initialized", "path", cachePath)
}

func (s *Service) setupHotkey() {
	s.hotkey = hotkey.NewManager(
		func() {
			if _, err := s.TakeScreenshot(); err != nil {
				slog.Error("hotkey screenshot", "error", err)
			}
		},
		func() {
			if _, err := s.SenseClipboard(); err != nil {
				slog.Error("hotkey clipboard", "error", err)
			}
		},
		func() { s.toggleListening() },
	)

	s.hotkey.SetStatusCallback(func(granted bool) {
		if granted {
			slog.Info("input monitoring permission granted")
		} else {
			slog.Warn("input monitoring permission denied")
		}
	})

	if err := s.hotkey.Start(); err != nil {
		slog.Error("start hotkey", "error", err)
	}
}

// ShowWindow brings the dashboard window to the front.
func (s *Service) ShowWindow() {
	if s.window != nil {
		s.window.Show()
		s.window.Focus()
	}
}

// emit is a safe wrapper around app.Event.Emit
func (s *Service) emit(name string, data any) {
	if s.emitHook != nil {
		s.emitHook(name, data)
		return
	}
	if s.app != nil {
		s.app.Event.Emit(name, data)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Assistant Status & Control
// ─────────────────────────────────────────────────────────────────────────────

// GetStatus returns the last known assistant status and whether the
// service is reachable.
func (s *Service) GetStatus() statussync.Update {
	st, connected := s.poller.Status()
	return statussync.Update{Status: st, Connected: connected}
}

// RefreshStatus requests an immediate status poll.
func (s *Service) RefreshStatus() {
	s.poller.Refresh()
}

// SetAssistantRunning starts or stops the assistant service. Controls
// are disabled for the duration of the call and re-enabled on every
// exit path; a second toggle while one is in flight is rejected.
func (s *Service) SetAssistantRunning(running bool) (types.ToggleResult, error) {
	if !s.toggling.CompareAndSwap(false, true) {
		return types.ToggleResult{}, ErrToggleInFlight
	}
	s.emit(EventControlsDisabled, true)
	defer func() {
		s.toggling.Store(false)
		s.emit(EventControlsDisabled, false)
	}()

	ctx := context.Background()
	var res types.ToggleResult
	var err error
	if running {
		res, err = s.client.Start(ctx)
	} else {
		res, err = s.client.Stop(ctx)
	}
	if err != nil {
		s.center.Danger("Could not reach the assistant service")
		return types.ToggleResult{}, fmt.Errorf("toggle assistant: %w", err)
	}

	if res.Running {
		s.center.Success("Assistant started")
	} else {
		s.center.Info("Assistant stopped")
	}
	s.poller.Refresh()
	return res, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Capture & Commands
// ─────────────────────────────────────────────────────────────────────────────

// TakeScreenshot captures the screen, locally when possible.
func (s *Service) TakeScreenshot() (types.CaptureResult, error) {
	return s.dispatcher.CaptureScreenshot(context.Background())
}

// SenseClipboard captures the clipboard, locally when possible.
func (s *Service) SenseClipboard() (types.CaptureResult, error) {
	return s.dispatcher.CaptureClipboard(context.Background())
}

// SendCommand routes a typed or spoken command phrase and returns the
// matched action name.
func (s *Service) SendCommand(text string) string {
	return string(s.router.Route(context.Background(), text))
}

// ─────────────────────────────────────────────────────────────────────────────
// Voice Listening
// ─────────────────────────────────────────────────────────────────────────────

// sessionConfigFor maps settings onto a transcription session. The
// wake phrase rides along as the prompt to bias transcription toward
// it.
func sessionConfigFor(cfg *settings.Settings) realtime.SessionConfig {
	return realtime.SessionConfig{
		Language: cfg.Language,
		Prompt:   cfg.WakeWord,
		Vigor:    cfg.Sensitivity,
	}
}

// StartListening builds a fresh recognition session from the current
// settings and starts the wake-word gate.
func (s *Service) StartListening() error {
	if s.apiKey == "" {
		s.center.Danger("Voice recognition needs an OpenAI API key")
		return fmt.Errorf("start listening: OPENAI_API_KEY not set")
	}

	s.mu.Lock()
	if s.gate != nil && s.gate.State() != wakeword.StateIdle {
		s.mu.Unlock()
		return nil
	}

	rec := realtime.NewRecognizer(s.apiKey, sessionConfigFor(s.cfg), slog.Default())

	gate := wakeword.New(mic.Probe, rec, s.router, s.center, func(ls types.ListeningStatus) {
		s.emit(EventListening, ls)
	}, wakeword.Config{
		WakeWord:      s.cfg.WakeWord,
		Continual:     s.cfg.ContinualListening,
		Cooldown:      s.cfg.WakeCooldown(),
		CommandWindow: s.cfg.CommandWindow(),
	}, slog.Default())
	s.gate = gate
	s.mu.Unlock()

	if err := gate.Start(context.Background()); err != nil {
		return fmt.Errorf("start listening: %w", err)
	}

	s.cfg.ListeningActive = true
	if err := s.cfg.Save(); err != nil {
		slog.Warn("save settings", "error", err)
	}
	return nil
}

// StopListening stops the wake-word gate if it is running.
func (s *Service) StopListening() error {
	s.mu.Lock()
	gate := s.gate
	s.mu.Unlock()
	if gate == nil {
		return nil
	}
	if err := gate.Stop(); err != nil {
		return err
	}

	s.cfg.ListeningActive = false
	if err := s.cfg.Save(); err != nil {
		slog.Warn("save settings", "error", err)
	}
	return nil
}

// GetListeningStatus reports the current gate state.
func (s *Service) GetListeningStatus() types.ListeningStatus {
	s.mu.Lock()
	gate := s.gate
	s.mu.Unlock()

	st := types.ListeningStatus{WakeWord: s.cfg.WakeWord}
	if gate != nil && gate.State() != wakeword.StateIdle {
		st.Active = true
		st.Message = fmt.Sprintf("Listening for '%s'", s.cfg.WakeWord)
	}
	return st
}

func (s *Service) toggleListening() {
	s.mu.Lock()
	active := s.gate != nil && s.gate.State() != wakeword.StateIdle
	s.mu.Unlock()

	var err error
	if active {
		err = s.StopListening()
	} else {
		err = s.StartListening()
	}
	if err != nil {
		slog.Error("toggle listening", "error", err)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Content Preview
// ─────────────────────────────────────────────────────────────────────────────

// ContentPayload is a fetched screenshot or clipboard item ready for
// display.
type ContentPayload struct {
	Data []byte `json:"data"`
	MIME string `json:"mime"`
}

// FetchContent retrieves a content item by kind ("screenshot" or
// "clipboard") and id, consulting the cache before the service.
func (s *Service) FetchContent(kind, id string) (ContentPayload, error) {
	key := cache.GenerateKey(kind, id)
	if s.cache != nil {
		if entry, err := s.cache.GetContent(key); err == nil {
			return ContentPayload{Data: entry.Data, MIME: entry.MIME}, nil
		}
	}

	ctx := context.Background()
	var data []byte
	var mime string
	var err error
	switch kind {
	case "screenshot":
		data, mime, err = s.client.FetchScreenshot(ctx, id)
	case "clipboard":
		data, mime, err = s.client.FetchClipboard(ctx, id)
	default:
		return ContentPayload{}, fmt.Errorf("fetch content: unknown kind %q", kind)
	}
	if err != nil {
		return ContentPayload{}, fmt.Errorf("fetch content: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetContent(key, data, mime); err != nil {
			slog.Warn("cache content", "error", err)
		}
	}
	return ContentPayload{Data: data, MIME: mime}, nil
}

// QRCodeURL returns the service URL for a content item's QR code.
func (s *Service) QRCodeURL(kind, id string) string {
	return s.client.QRURL(kind, id)
}

// ─────────────────────────────────────────────────────────────────────────────
// Settings
// ─────────────────────────────────────────────────────────────────────────────

// GetSettings returns a copy of the current settings.
func (s *Service) GetSettings() settings.Settings {
	return *s.cfg
}

// SaveSettings persists new settings. Interval changes take effect on
// the next listening session or poller restart.
func (s *Service) SaveSettings(cfg settings.Settings) error {
	*s.cfg = cfg
	return s.cfg.Save()
}

// ─────────────────────────────────────────────────────────────────────────────
// Voice Training
// ─────────────────────────────────────────────────────────────────────────────

// errNoTrainer is returned when the sample store failed to open.
var errNoTrainer = errors.New("training store unavailable")

// RecordTrainingSample records a short voice sample for the phrase.
func (s *Service) RecordTrainingSample(phrase string) (types.TrainingSample, error) {
	if s.trainer == nil {
		return types.TrainingSample{}, errNoTrainer
	}
	return s.trainer.Record(context.Background(), phrase)
}

// GetTrainingSamples lists recorded samples, newest first.
func (s *Service) GetTrainingSamples() ([]types.TrainingSample, error) {
	if s.trainer == nil {
		return nil, errNoTrainer
	}
	return s.trainer.Samples()
}

// DeleteTrainingSample removes a recorded sample.
func (s *Service) DeleteTrainingSample(id string) error {
	if s.trainer == nil {
		return errNoTrainer
	}
	return s.trainer.Delete(id)
}

// UploadTrainingSamples submits recorded samples to the assistant
// service. The service exposes no endpoint for this yet.
func (s *Service) UploadTrainingSamples() error {
	if s.trainer == nil {
		return errNoTrainer
	}
	err := s.trainer.Upload(context.Background())
	if errors.Is(err, training.ErrNoUploadEndpoint) {
		s.center.Warning("Training upload is not available yet")
	}
	return err
}

// ─────────────────────────────────────────────────────────────────────────────
// Misc
// ─────────────────────────────────────────────────────────────────────────────

// DetectLanguage detects the language of the given text.
func (s *Service) DetectLanguage(text string) types.DetectResult {
	code, name := langdetect.Detect(text)
	return types.DetectResult{Code: code, Name: name}
}

// GetNotifications returns notifications that have not been dismissed.
func (s *Service) GetNotifications() []notify.Notification {
	return s.center.Active()
}

// DismissNotification removes a notification before its timeout.
func (s *Service) DismissNotification(id string) {
	s.center.Dismiss(id)
}
