// Package assistant provides the HTTP client for the assistant service.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.omifi.dev/companion/internal/types"
)

// DefaultBaseURL is the local assistant service address.
const DefaultBaseURL = "http://127.0.0.1:5000"

const defaultTimeout = 10 * time.Second

// Client talks to the assistant service over HTTP.
type Client struct {
	http    *http.Client
	baseURL string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a Client for the given base URL. An empty baseURL uses
// DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		http:    &http.Client{Timeout: defaultTimeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Status fetches the current assistant state.
func (c *Client) Status(ctx context.Context) (types.Status, error) {
	var st types.Status
	if err := c.getJSON(ctx, "/status", &st); err != nil {
		return types.Status{}, err
	}
	return st, nil
}

// Start asks the service to start the assistant. Idempotent.
func (c *Client) Start(ctx context.Context) (types.ToggleResult, error) {
	return c.toggle(ctx, "/start")
}

// Stop asks the service to stop the assistant. Idempotent.
func (c *Client) Stop(ctx context.Context) (types.ToggleResult, error) {
	return c.toggle(ctx, "/stop")
}

func (c *Client) toggle(ctx context.Context, path string) (types.ToggleResult, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, nil)
	if err != nil {
		return types.ToggleResult{}, fmt.Errorf("create request: %w", err)
	}
	var res types.ToggleResult
	if err := c.do(req, &res); err != nil {
		return types.ToggleResult{}, err
	}
	return res, nil
}

// UploadScreenshot submits a locally captured screenshot as a multipart
// image blob.
func (c *Client) UploadScreenshot(ctx context.Context, image []byte, filename string) (types.CaptureResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("screenshot", filename)
	if err != nil {
		return types.CaptureResult{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return types.CaptureResult{}, fmt.Errorf("write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return types.CaptureResult{}, fmt.Errorf("close multipart: %w", err)
	}
	return c.capture(ctx, "/take-screenshot", &buf, w.FormDataContentType())
}

// ServerScreenshot asks the service to capture the screen on its side.
// Used when no local capture capability exists or local capture failed.
func (c *Client) ServerScreenshot(ctx context.Context) (types.CaptureResult, error) {
	return c.capture(ctx, "/take-screenshot", nil, "")
}

// UploadClipboard submits locally read clipboard content as multipart
// form data. contentType is the coarse kind ("text", "image", "file");
// mimeType and filename describe the payload.
func (c *Client) UploadClipboard(ctx context.Context, data []byte, contentType, mimeType, filename string) (types.CaptureResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("type", contentType); err != nil {
		return types.CaptureResult{}, fmt.Errorf("write field: %w", err)
	}
	if mimeType != "" {
		if err := w.WriteField("mime_type", mimeType); err != nil {
			return types.CaptureResult{}, fmt.Errorf("write field: %w", err)
		}
	}
	part, err := w.CreateFormFile("content", filename)
	if err != nil {
		return types.CaptureResult{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return types.CaptureResult{}, fmt.Errorf("write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return types.CaptureResult{}, fmt.Errorf("close multipart: %w", err)
	}
	return c.capture(ctx, "/sense-clipboard", &buf, w.FormDataContentType())
}

// ServerClipboard asks the service to read its own system clipboard.
// This is the last fallback tier and is invoked at most once per
// capture attempt.
func (c *Client) ServerClipboard(ctx context.Context) (types.CaptureResult, error) {
	body := strings.NewReader(`{"fallback": true, "use_system_clipboard": true}`)
	return c.capture(ctx, "/sense-clipboard", body, "application/json")
}

func (c *Client) capture(ctx context.Context, path string, body io.Reader, contentType string) (types.CaptureResult, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, body)
	if err != nil {
		return types.CaptureResult{}, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	var res types.CaptureResult
	if err := c.do(req, &res); err != nil {
		return types.CaptureResult{}, err
	}
	return res, nil
}

// Command forwards a free-text command. The service decides what to do
// with utterances the local router did not recognize.
func (c *Client) Command(ctx context.Context, text string) (types.CommandResult, error) {
	form := url.Values{"command": {text}}
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/command",
		strings.NewReader(form.Encode()))
	if err != nil {
		return types.CommandResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var res types.CommandResult
	if err := c.do(req, &res); err != nil {
		return types.CommandResult{}, err
	}
	return res, nil
}

// FetchScreenshot downloads a stored screenshot by its opaque id.
func (c *Client) FetchScreenshot(ctx context.Context, id string) ([]byte, string, error) {
	return c.fetch(ctx, c.ScreenshotURL(id))
}

// FetchClipboard downloads a stored clipboard snapshot by its opaque id.
func (c *Client) FetchClipboard(ctx context.Context, id string) ([]byte, string, error) {
	return c.fetch(ctx, c.ClipboardURL(id))
}

// ScreenshotURL returns the download URL for a stored screenshot.
func (c *Client) ScreenshotURL(id string) string {
	return c.baseURL + "/screenshot/" + url.PathEscape(id)
}

// ClipboardURL returns the download URL for a stored clipboard snapshot.
func (c *Client) ClipboardURL(id string) string {
	return c.baseURL + "/clipboard/" + url.PathEscape(id)
}

// QRURL returns the QR-code image URL for a stored capture. kind is
// "screenshot" or "clipboard".
func (c *Client) QRURL(kind, id string) string {
	return c.baseURL + "/qr/" + url.PathEscape(kind) + "/" + url.PathEscape(id)
}

func (c *Client) fetch(ctx context.Context, u string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("api error: %d - %s", resp.StatusCode, string(body))
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("api error: %d - %s", resp.StatusCode, string(body))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
