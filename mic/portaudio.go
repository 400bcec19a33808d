package mic

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

// frameLen is the per-callback frame length: 20ms of samples. Opus only
// encodes 2.5/5/10/20/40/60ms frames, so the length must track the rate
// (320 at 16kHz, 960 at 48kHz).
func frameLen(sampleRate int) int {
	return sampleRate / 50
}

// PortAudio wants a single Initialize/Terminate pair per process;
// refcount so concurrent streams share it.
var (
	paMu   sync.Mutex
	paRefs int
)

func paAcquire() error {
	paMu.Lock()
	defer paMu.Unlock()
	if paRefs == 0 {
		if err := portaudio.Initialize(); err != nil {
			return fmt.Errorf("initialize portaudio: %w", err)
		}
	}
	paRefs++
	return nil
}

func paRelease() {
	paMu.Lock()
	defer paMu.Unlock()
	paRefs--
	if paRefs == 0 {
		portaudio.Terminate()
	}
}

type portaudioImpl struct {
	stream *portaudio.Stream
	quit   chan struct{}
	done   chan struct{}
}

func (p *portaudioImpl) start(sampleRate int, callback func(samples []float32)) error {
	if err := paAcquire(); err != nil {
		return err
	}

	buf := make([]float32, frameLen(sampleRate))
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(sampleRate), len(buf), buf)
	if err != nil {
		paRelease()
		return fmt.Errorf("open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		paRelease()
		return fmt.Errorf("start input stream: %w", err)
	}

	p.stream = stream
	p.quit = make(chan struct{})
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)
		for {
			select {
			case <-p.quit:
				return
			default:
			}
			if err := stream.Read(); err != nil {
				return
			}
			out := make([]float32, len(buf))
			copy(out, buf)
			callback(out)
		}
	}()
	return nil
}

func (p *portaudioImpl) stop() error {
	close(p.quit)
	err := p.stream.Stop()
	<-p.done
	if cerr := p.stream.Close(); err == nil {
		err = cerr
	}
	paRelease()
	return err
}

// probeDevice opens the default input stream and releases it right
// away. Success means a recognizer session can claim the device.
func probeDevice() error {
	if err := paAcquire(); err != nil {
		return err
	}
	defer paRelease()

	buf := make([]float32, frameLen(16000))
	stream, err := portaudio.OpenDefaultStream(1, 0, 16000, len(buf), buf)
	if err != nil {
		return fmt.Errorf("open input stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("start input stream: %w", err)
	}
	return stream.Stop()
}

// Record captures a fixed window of audio from the default input
// device. Used for training samples; it owns the device for the whole
// window.
func Record(ctx context.Context, window time.Duration) ([]float32, error) {
	if err := paAcquire(); err != nil {
		return nil, err
	}
	defer paRelease()

	const sampleRate = 16000
	buf := make([]float32, frameLen(sampleRate))

	stream, err := portaudio.OpenDefaultStream(1, 0, sampleRate, len(buf), buf)
	if err != nil {
		return nil, fmt.Errorf("open input stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("start input stream: %w", err)
	}
	defer stream.Stop()

	deadline := time.Now().Add(window)
	out := make([]float32, 0, int(float64(sampleRate)*window.Seconds()))
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		default:
		}
		if err := stream.Read(); err != nil {
			return out, fmt.Errorf("read input stream: %w", err)
		}
		out = append(out, buf...)
	}
	return out, nil
}
