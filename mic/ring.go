package mic

import "sync"

// RingBuffer is a thread-safe circular buffer for audio samples.
type RingBuffer struct {
	mu       sync.RWMutex
	data     []float32
	writePos int
	filled   int
}

// NewRingBuffer creates a ring buffer holding size samples.
func NewRingBuffer(size int) *RingBuffer {
	return &RingBuffer{data: make([]float32, size)}
}

// Write appends samples, overwriting the oldest data when full.
func (rb *RingBuffer) Write(samples []float32) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	size := len(rb.data)
	// Only the last size samples matter.
	if len(samples) > size {
		samples = samples[len(samples)-size:]
	}
	n := copy(rb.data[rb.writePos:], samples)
	if n < len(samples) {
		copy(rb.data, samples[n:])
	}
	rb.writePos = (rb.writePos + len(samples)) % size
	rb.filled += len(samples)
	if rb.filled > size {
		rb.filled = size
	}
}

// Read returns the most recent n samples, fewer if the buffer holds
// less.
func (rb *RingBuffer) Read(n int) []float32 {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if n > rb.filled {
		n = rb.filled
	}
	if n == 0 {
		return nil
	}

	size := len(rb.data)
	start := (rb.writePos - n + size) % size
	out := make([]float32, n)
	m := copy(out, rb.data[start:min(start+n, size)])
	if m < n {
		copy(out[m:], rb.data[:n-m])
	}
	return out
}

// Clear empties the buffer.
func (rb *RingBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.writePos = 0
	rb.filled = 0
}

// Len returns the number of buffered samples.
func (rb *RingBuffer) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.filled
}
