// Package clipboard reads the local system clipboard, including rich
// (non-text) payloads where the platform supports enumeration.
package clipboard

import (
	"context"
	"errors"
)

// ErrUnavailable is returned on platforms without local clipboard
// access; callers fall back to server-side capture.
var ErrUnavailable = errors.New("clipboard access unavailable")

// ErrEmpty is returned when the clipboard holds no matching content.
var ErrEmpty = errors.New("clipboard empty")

// Source reads the system clipboard. It implements the capture
// dispatcher's ClipboardSource.
type Source struct{}

// New returns the platform clipboard source.
func New() *Source {
	return &Source{}
}

// Available reports whether local clipboard access exists on this
// platform. Capability probe only; a denied read still surfaces as an
// error from the read methods.
func (s *Source) Available() bool {
	return available()
}

// ReadRich returns the first non-text clipboard payload (image or
// document) with its MIME type. ErrEmpty when only text or nothing is
// present.
func (s *Source) ReadRich(ctx context.Context) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	return readRich()
}

// ReadText returns the plain-text clipboard contents, possibly empty.
func (s *Source) ReadText(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return readText()
}
