//go:build !darwin

package clipboard

func available() bool { return false }

func readText() (string, error) {
	return "", ErrUnavailable
}

func readRich() ([]byte, string, error) {
	return nil, "", ErrUnavailable
}
