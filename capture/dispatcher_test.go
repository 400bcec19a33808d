package capture

import (
	"context"
	"errors"
	"testing"

	"go.omifi.dev/companion/internal/types"
)

type fakeAPI struct {
	uploadShots   int
	serverShots   int
	uploadClips   int
	serverClips   int
	lastMIME      string
	lastFilename  string
	lastKind      string
	serverClipErr error
}

func (f *fakeAPI) UploadScreenshot(ctx context.Context, image []byte, filename string) (types.CaptureResult, error) {
	f.uploadShots++
	f.lastFilename = filename
	return types.CaptureResult{Success: true, Message: "uploaded", Filepath: "shots/1"}, nil
}

func (f *fakeAPI) ServerScreenshot(ctx context.Context) (types.CaptureResult, error) {
	f.serverShots++
	return types.CaptureResult{Success: true, Message: "captured"}, nil
}

func (f *fakeAPI) UploadClipboard(ctx context.Context, data []byte, contentType, mimeType, filename string) (types.CaptureResult, error) {
	f.uploadClips++
	f.lastKind = contentType
	f.lastMIME = mimeType
	f.lastFilename = filename
	return types.CaptureResult{Success: true, Message: "saved", Filepath: "clips/1"}, nil
}

func (f *fakeAPI) ServerClipboard(ctx context.Context) (types.CaptureResult, error) {
	f.serverClips++
	if f.serverClipErr != nil {
		return types.CaptureResult{}, f.serverClipErr
	}
	return types.CaptureResult{Success: true, Message: "sensed"}, nil
}

type fakeScreen struct {
	available bool
	data      []byte
	err       error
}

func (f *fakeScreen) Available() bool { return f.available }
func (f *fakeScreen) Capture(ctx context.Context) ([]byte, error) {
	return f.data, f.err
}

type fakeClip struct {
	available bool
	richData  []byte
	richMIME  string
	richErr   error
	text      string
	textErr   error
}

func (f *fakeClip) Available() bool { return f.available }
func (f *fakeClip) ReadRich(ctx context.Context) ([]byte, string, error) {
	return f.richData, f.richMIME, f.richErr
}
func (f *fakeClip) ReadText(ctx context.Context) (string, error) {
	return f.text, f.textErr
}

func TestScreenshotLocalPreferred(t *testing.T) {
	api := &fakeAPI{}
	d := NewDispatcher(api, &fakeScreen{available: true, data: []byte{1}}, nil, nil, nil, nil)

	res, err := d.CaptureScreenshot(context.Background())
	if err != nil {
		t.Fatalf("CaptureScreenshot: %v", err)
	}
	if api.uploadShots != 1 || api.serverShots != 0 {
		t.Errorf("uploads = %d, server = %d; want 1, 0", api.uploadShots, api.serverShots)
	}
	if res.Filepath != "shots/1" {
		t.Errorf("Filepath = %q", res.Filepath)
	}
}

func TestScreenshotFallsBackOnLocalError(t *testing.T) {
	api := &fakeAPI{}
	d := NewDispatcher(api, &fakeScreen{available: true, err: errors.New("denied")}, nil, nil, nil, nil)

	if _, err := d.CaptureScreenshot(context.Background()); err != nil {
		t.Fatalf("CaptureScreenshot: %v", err)
	}
	if api.uploadShots != 0 || api.serverShots != 1 {
		t.Errorf("uploads = %d, server = %d; want 0, 1", api.uploadShots, api.serverShots)
	}
}

func TestScreenshotServerWhenUnavailable(t *testing.T) {
	api := &fakeAPI{}
	d := NewDispatcher(api, &fakeScreen{available: false}, nil, nil, nil, nil)

	if _, err := d.CaptureScreenshot(context.Background()); err != nil {
		t.Fatalf("CaptureScreenshot: %v", err)
	}
	if api.serverShots != 1 {
		t.Errorf("serverShots = %d, want 1", api.serverShots)
	}
}

func TestClipboardRichWins(t *testing.T) {
	api := &fakeAPI{}
	clip := &fakeClip{available: true, richData: []byte{1, 2}, richMIME: "image/png", text: "ignored"}
	d := NewDispatcher(api, nil, clip, nil, nil, nil)

	if _, err := d.CaptureClipboard(context.Background()); err != nil {
		t.Fatalf("CaptureClipboard: %v", err)
	}
	if api.uploadClips != 1 || api.serverClips != 0 {
		t.Errorf("uploads = %d, server = %d; want 1, 0", api.uploadClips, api.serverClips)
	}
	if api.lastKind != "image" || api.lastMIME != "image/png" {
		t.Errorf("kind = %q, mime = %q", api.lastKind, api.lastMIME)
	}
	if api.lastFilename != "clipboard.png" {
		t.Errorf("filename = %q, want clipboard.png", api.lastFilename)
	}
}

func TestClipboardTextSecondTier(t *testing.T) {
	api := &fakeAPI{}
	clip := &fakeClip{available: true, richErr: errors.New("no rich items"), text: "hello"}
	d := NewDispatcher(api, nil, clip, nil, nil, nil)

	if _, err := d.CaptureClipboard(context.Background()); err != nil {
		t.Fatalf("CaptureClipboard: %v", err)
	}
	if api.uploadClips != 1 || api.serverClips != 0 {
		t.Errorf("uploads = %d, server = %d; want 1, 0", api.uploadClips, api.serverClips)
	}
	if api.lastMIME != "text/plain" {
		t.Errorf("mime = %q, want text/plain", api.lastMIME)
	}
}

func TestClipboardServerFallbackExactlyOnce(t *testing.T) {
	api := &fakeAPI{}
	clip := &fakeClip{available: true, richErr: errors.New("read denied"), text: ""}
	d := NewDispatcher(api, nil, clip, nil, nil, nil)

	if _, err := d.CaptureClipboard(context.Background()); err != nil {
		t.Fatalf("CaptureClipboard: %v", err)
	}
	if api.serverClips != 1 {
		t.Errorf("serverClips = %d, want exactly 1", api.serverClips)
	}
	if api.uploadClips != 0 {
		t.Errorf("uploadClips = %d, want 0", api.uploadClips)
	}
}

func TestClipboardRefreshOnSuccess(t *testing.T) {
	refreshed := 0
	api := &fakeAPI{}
	clip := &fakeClip{available: true, text: "hi"}
	d := NewDispatcher(api, nil, clip, nil, func() { refreshed++ }, nil)

	if _, err := d.CaptureClipboard(context.Background()); err != nil {
		t.Fatalf("CaptureClipboard: %v", err)
	}
	if refreshed != 1 {
		t.Errorf("refreshed = %d, want 1", refreshed)
	}
}

func TestExtensionForMIMETotal(t *testing.T) {
	for mimeType, want := range extByMIME {
		if got := ExtensionForMIME(mimeType); got != want {
			t.Errorf("ExtensionForMIME(%q) = %q, want %q", mimeType, got, want)
		}
		if got := ExtensionForMIME(mimeType); got == "" {
			t.Errorf("ExtensionForMIME(%q) returned empty extension", mimeType)
		}
	}

	tests := []struct {
		in   string
		want string
	}{
		{"application/x-never-seen", ".bin"},
		{"", ".bin"},
		{"IMAGE/PNG", ".png"},
		{"text/plain; charset=utf-8", ".txt"},
		{"garbage", ".bin"},
	}
	for _, tt := range tests {
		if got := ExtensionForMIME(tt.in); got != tt.want {
			t.Errorf("ExtensionForMIME(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
