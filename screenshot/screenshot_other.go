//go:build !darwin

package screenshot

import "context"

func available() bool { return false }

// RequestPermission is a no-op where no local capture path exists.
func RequestPermission() {}

func capture(ctx context.Context) ([]byte, error) {
	return nil, ErrUnavailable
}
