// Package screenshot captures the local screen where the platform
// allows it.
package screenshot

import (
	"context"
	"errors"
)

// ErrUnavailable is returned on platforms without local screen capture.
var ErrUnavailable = errors.New("screen capture unavailable")

// ErrPermission is returned when screen recording permission is denied.
// The system prompt is triggered as a side effect so the user can grant
// it for next time.
var ErrPermission = errors.New("screen recording permission denied")

// Source captures the local screen. It implements the capture
// dispatcher's ScreenSource.
type Source struct{}

// New returns the platform screenshot source.
func New() *Source {
	return &Source{}
}

// Available reports whether local screen capture can be attempted.
func (s *Source) Available() bool {
	return available()
}

// Capture returns a PNG of the full screen.
func (s *Source) Capture(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return capture(ctx)
}
