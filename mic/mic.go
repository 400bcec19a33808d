// Package mic captures microphone audio through PortAudio.
package mic

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNotCapturing is returned when trying to get audio while not capturing.
var ErrNotCapturing = errors.New("not capturing audio")

// ErrAlreadyCapturing is returned when trying to start capture while already capturing.
var ErrAlreadyCapturing = errors.New("already capturing audio")

// captureImpl is the device-level capture implementation. Split out so
// tests can run without an audio device.
type captureImpl interface {
	start(sampleRate int, callback func(samples []float32)) error
	stop() error
}

// Config holds configuration for microphone capture.
type Config struct {
	SampleRate int           // default 16000 Hz
	BufferSize time.Duration // ring buffer length, default 30 seconds
}

// DefaultConfig returns the default capture configuration.
func DefaultConfig() Config {
	return Config{
		SampleRate: 16000,
		BufferSize: 30 * time.Second,
	}
}

// Capture reads the default input device and fans samples out to
// registered callbacks, keeping a rolling window in a ring buffer.
type Capture struct {
	mu sync.RWMutex

	capturing  bool
	startTime  time.Time
	sampleRate int

	buffer  *RingBuffer
	onAudio []func(samples []float32)

	impl captureImpl
}

// New creates a microphone capture instance.
func New(cfg Config) *Capture {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 16000
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = 30 * time.Second
	}
	samples := int(cfg.BufferSize.Seconds()) * cfg.SampleRate

	return &Capture{
		sampleRate: cfg.SampleRate,
		buffer:     NewRingBuffer(samples),
		impl:       &portaudioImpl{},
	}
}

// Start opens the input device and begins capturing.
func (c *Capture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capturing {
		return ErrAlreadyCapturing
	}
	if err := c.impl.start(c.sampleRate, c.handleAudio); err != nil {
		return fmt.Errorf("start capture: %w", err)
	}
	c.capturing = true
	c.startTime = time.Now()
	return nil
}

// Stop releases the input device. Stopping an idle capture is a no-op.
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.capturing {
		return nil
	}
	c.capturing = false
	return c.impl.stop()
}

// IsCapturing reports whether the device is currently held.
func (c *Capture) IsCapturing() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.capturing
}

// Duration returns how long capture has been running.
func (c *Capture) Duration() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.capturing {
		return 0
	}
	return time.Since(c.startTime)
}

// OnAudio registers a callback for captured samples in [-1, 1].
func (c *Capture) OnAudio(callback func(samples []float32)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onAudio = append(c.onAudio, callback)
}

// Buffered returns the most recent duration of buffered audio.
func (c *Capture) Buffered(duration time.Duration) []float32 {
	n := int(duration.Seconds() * float64(c.sampleRate))
	return c.buffer.Read(n)
}

// SampleRate returns the configured sample rate.
func (c *Capture) SampleRate() int {
	return c.sampleRate
}

func (c *Capture) handleAudio(samples []float32) {
	c.mu.RLock()
	callbacks := c.onAudio
	c.mu.RUnlock()

	c.buffer.Write(samples)
	for _, cb := range callbacks {
		cb(samples)
	}
}

// Probe verifies the microphone can be acquired by opening and
// immediately releasing the default input stream. It never holds the
// device past its return.
func Probe(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		done <- probeDevice()
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
