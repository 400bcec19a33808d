//go:build darwin

package screenshot

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework CoreGraphics -framework Foundation
#import <CoreGraphics/CoreGraphics.h>
#import <Foundation/Foundation.h>

bool hasScreenRecordingPermission() {
    if (@available(macOS 11.0, *)) {
        return CGPreflightScreenCaptureAccess();
    }
    return true;
}

void requestScreenRecordingPermission() {
    if (@available(macOS 11.0, *)) {
        CGRequestScreenCaptureAccess();
    }
}
*/
import "C"
import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

func available() bool { return true }

// hasPermission checks screen recording permission without prompting.
func hasPermission() bool {
	return bool(C.hasScreenRecordingPermission())
}

// RequestPermission triggers the system screen recording prompt.
func RequestPermission() {
	C.requestScreenRecordingPermission()
}

// capture grabs the full screen silently via screencapture and returns
// the PNG bytes. Permission denial surfaces as an error so the caller
// can fall back to server-side capture.
func capture(ctx context.Context) ([]byte, error) {
	if !hasPermission() {
		RequestPermission()
		return nil, ErrPermission
	}

	path := filepath.Join(os.TempDir(), fmt.Sprintf("omifi_screenshot_%d.png", time.Now().UnixNano()))
	defer os.Remove(path)

	// -x: no sound. No -i: the assistant captures the whole screen
	// without user interaction.
	cmd := exec.CommandContext(ctx, "screencapture", "-x", path)
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("screencapture: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read screenshot: %w", err)
	}
	return data, nil
}
