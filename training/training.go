// Package training records local voice samples for the wake phrase.
//
// Samples never leave the machine: the assistant service exposes no
// training upload route. Upload returns ErrNoUploadEndpoint so the gap
// is visible to callers instead of samples silently vanishing.
package training

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"go.omifi.dev/companion/internal/types"
)

// ErrNoUploadEndpoint is returned by Upload: no backend accepts
// training samples yet.
var ErrNoUploadEndpoint = errors.New("training: no upload endpoint exists")

const keyPrefix = "training/"

// Recorder captures a fixed window of audio. mic.Record satisfies it.
type Recorder func(ctx context.Context, window time.Duration) ([]float32, error)

// Store persists training samples locally.
type Store interface {
	Set(key string, val []byte) error
	Get(key string) ([]byte, error)
	Delete(key string) error
	Keys(prefix string) ([]string, error)
}

// Trainer records and stores wake-phrase samples.
type Trainer struct {
	record Recorder
	store  Store
	window time.Duration
}

// New creates a Trainer. window is the fixed recording length per
// sample.
func New(record Recorder, store Store, window time.Duration) *Trainer {
	if window <= 0 {
		window = 3 * time.Second
	}
	return &Trainer{record: record, store: store, window: window}
}

// stored is the on-disk sample representation. Audio is encoded as raw
// little-endian float32 via JSON base64 of its byte view; samples are
// small (a few seconds) so JSON is fine.
type stored struct {
	ID        string    `json:"id"`
	Phrase    string    `json:"phrase"`
	Timestamp time.Time `json:"timestamp"`
	Audio     []byte    `json:"audio"`
}

// Record captures one sample for phrase and persists it.
func (t *Trainer) Record(ctx context.Context, phrase string) (types.TrainingSample, error) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return types.TrainingSample{}, fmt.Errorf("phrase required")
	}

	samples, err := t.record(ctx, t.window)
	if err != nil {
		return types.TrainingSample{}, fmt.Errorf("record sample: %w", err)
	}

	s := stored{
		ID:        uuid.NewString(),
		Phrase:    phrase,
		Timestamp: time.Now(),
		Audio:     encodeAudio(samples),
	}
	data, err := json.Marshal(s)
	if err != nil {
		return types.TrainingSample{}, fmt.Errorf("marshal sample: %w", err)
	}
	if err := t.store.Set(keyPrefix+s.ID, data); err != nil {
		return types.TrainingSample{}, fmt.Errorf("store sample: %w", err)
	}
	return toSample(s), nil
}

// Samples lists stored samples, newest first.
func (t *Trainer) Samples() ([]types.TrainingSample, error) {
	keys, err := t.store.Keys(keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list samples: %w", err)
	}

	out := make([]types.TrainingSample, 0, len(keys))
	for _, key := range keys {
		data, err := t.store.Get(key)
		if err != nil {
			continue
		}
		var s stored
		if err := json.Unmarshal(data, &s); err != nil {
			continue
		}
		out = append(out, toSample(s))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

// Delete removes a sample by id.
func (t *Trainer) Delete(id string) error {
	return t.store.Delete(keyPrefix + id)
}

// Upload would transmit samples for recognizer tuning. The assistant
// service has no such route; callers must surface this rather than
// pretend samples were used.
func (t *Trainer) Upload(ctx context.Context) error {
	return ErrNoUploadEndpoint
}

func toSample(s stored) types.TrainingSample {
	return types.TrainingSample{
		ID:        s.ID,
		Phrase:    s.Phrase,
		Timestamp: s.Timestamp,
		Audio:     s.Audio,
		AudioLen:  len(s.Audio),
	}
}

// encodeAudio packs float32 samples into little-endian bytes.
func encodeAudio(samples []float32) []byte {
	out := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(s))
	}
	return out
}
