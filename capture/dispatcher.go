// Package capture performs screenshot and clipboard captures, preferring
// local hardware access and falling back to server-mediated capture.
package capture

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.omifi.dev/companion/internal/types"
	"go.omifi.dev/companion/notify"
)

// API is the subset of the assistant client the dispatcher needs.
type API interface {
	UploadScreenshot(ctx context.Context, image []byte, filename string) (types.CaptureResult, error)
	ServerScreenshot(ctx context.Context) (types.CaptureResult, error)
	UploadClipboard(ctx context.Context, data []byte, contentType, mimeType, filename string) (types.CaptureResult, error)
	ServerClipboard(ctx context.Context) (types.CaptureResult, error)
}

// ScreenSource captures the local screen.
type ScreenSource interface {
	// Available reports whether local screen capture can be attempted
	// at all (capability probe, not a permission check).
	Available() bool
	// Capture returns a PNG-encoded screenshot. Permission denial is
	// an error like any other.
	Capture(ctx context.Context) ([]byte, error)
}

// ClipboardSource reads the local clipboard.
type ClipboardSource interface {
	Available() bool
	// ReadRich enumerates non-text clipboard items (images, files,
	// documents) and returns the first payload with its MIME type.
	// Returns an error or empty data when nothing rich is present.
	ReadRich(ctx context.Context) ([]byte, string, error)
	// ReadText returns the plain-text clipboard contents, which may be
	// empty.
	ReadText(ctx context.Context) (string, error)
}

// Dispatcher routes capture requests through the local-first fallback
// chain and surfaces outcomes as notifications.
type Dispatcher struct {
	api     API
	screen  ScreenSource
	clip    ClipboardSource
	center  *notify.Center
	refresh func()
	logger  *slog.Logger
}

// NewDispatcher wires a Dispatcher. refresh is invoked after any
// successful capture so content lists re-sync; it must be safe to call
// from any goroutine.
func NewDispatcher(api API, screen ScreenSource, clip ClipboardSource, center *notify.Center, refresh func(), logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if refresh == nil {
		refresh = func() {}
	}
	return &Dispatcher{
		api:     api,
		screen:  screen,
		clip:    clip,
		center:  center,
		refresh: refresh,
		logger:  logger,
	}
}

// CaptureScreenshot captures the screen, locally when a capture source
// exists and falling back to the service otherwise or on any local
// failure. Exactly one strategy produces the stored capture.
func (d *Dispatcher) CaptureScreenshot(ctx context.Context) (types.CaptureResult, error) {
	if d.screen != nil && d.screen.Available() {
		img, err := d.screen.Capture(ctx)
		if err == nil {
			name := fmt.Sprintf("screenshot_%d.png", time.Now().UnixMilli())
			res, err := d.api.UploadScreenshot(ctx, img, name)
			return d.finish("screenshot", res, err)
		}
		d.logger.Warn("local screenshot failed, using server capture", "error", err)
	}
	res, err := d.api.ServerScreenshot(ctx)
	return d.finish("screenshot", res, err)
}

// CaptureClipboard captures clipboard content through the three-tier
// chain: rich content, then plain text, then a single server-side
// fallback. Each tier runs only when the previous one yielded nothing.
func (d *Dispatcher) CaptureClipboard(ctx context.Context) (types.CaptureResult, error) {
	if d.clip != nil && d.clip.Available() {
		if data, mimeType, err := d.clip.ReadRich(ctx); err == nil && len(data) > 0 {
			name := "clipboard" + ExtensionForMIME(mimeType)
			res, err := d.api.UploadClipboard(ctx, data, kindForMIME(mimeType), mimeType, name)
			return d.finish("clipboard", res, err)
		} else if err != nil {
			d.logger.Debug("rich clipboard read failed", "error", err)
		}

		if text, err := d.clip.ReadText(ctx); err == nil && text != "" {
			res, err := d.api.UploadClipboard(ctx, []byte(text), "text", "text/plain", "clipboard.txt")
			return d.finish("clipboard", res, err)
		} else if err != nil {
			d.logger.Debug("text clipboard read failed", "error", err)
		}
	}
	res, err := d.api.ServerClipboard(ctx)
	return d.finish("clipboard", res, err)
}

// finish applies the shared outcome handling: notification plus a list
// refresh. The server response is never assumed complete; a missing
// filepath still refreshes the whole list.
func (d *Dispatcher) finish(what string, res types.CaptureResult, err error) (types.CaptureResult, error) {
	if err != nil {
		d.logger.Error("capture failed", "what", what, "error", err)
		if d.center != nil {
			d.center.Danger("Failed to capture " + what)
		}
		return types.CaptureResult{}, err
	}
	if !res.Success {
		if d.center != nil {
			msg := res.Message
			if msg == "" {
				msg = "Failed to capture " + what
			}
			d.center.Warning(msg)
		}
		return res, nil
	}
	if d.center != nil {
		msg := res.Message
		if msg == "" {
			msg = "Captured " + what
		}
		d.center.Success(msg)
	}
	d.refresh()
	return res, nil
}
