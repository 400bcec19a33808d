package statussync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.omifi.dev/companion/internal/types"
)

type fakeFetcher struct {
	mu    sync.Mutex
	resps []func() (types.Status, error)
	calls int
}

func (f *fakeFetcher) Status(ctx context.Context) (types.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls >= len(f.resps) {
		return types.Status{}, errors.New("no more responses")
	}
	fn := f.resps[f.calls]
	f.calls++
	return fn()
}

func ok(n int) func() (types.Status, error) {
	return func() (types.Status, error) {
		return types.Status{Running: true, Screenshots: make([]types.ContentRef, n)}, nil
	}
}

func TestOutOfOrderResponsesDiscarded(t *testing.T) {
	p := New(&fakeFetcher{}, time.Hour, 0, nil, nil)

	// A newer poll lands first; the older in-flight response must not
	// overwrite it.
	p.apply(2, types.Status{Running: true})
	p.apply(1, types.Status{Running: false})

	st, connected := p.Status()
	if !connected {
		t.Fatal("connected = false, want true")
	}
	if !st.Running {
		t.Error("older response overwrote newer snapshot")
	}
}

func TestStaleFailureDoesNotDisconnect(t *testing.T) {
	p := New(&fakeFetcher{}, time.Hour, 0, nil, nil)

	p.apply(2, types.Status{Running: true})
	p.applyFailure(1)

	if _, connected := p.Status(); !connected {
		t.Error("stale failure flipped connection state")
	}
}

func TestDisconnectNotifiedOnce(t *testing.T) {
	var mu sync.Mutex
	var updates []Update
	notify := func(u Update) {
		mu.Lock()
		updates = append(updates, u)
		mu.Unlock()
	}
	p := New(&fakeFetcher{}, time.Hour, 0, notify, nil)

	p.apply(1, types.Status{Running: true})
	p.applyFailure(2)
	p.applyFailure(3)

	mu.Lock()
	defer mu.Unlock()
	if len(updates) != 2 {
		t.Fatalf("got %d updates, want 2 (one snapshot, one disconnect)", len(updates))
	}
	if updates[1].Connected {
		t.Error("second update should report disconnected")
	}
}

func TestRunPollsImmediately(t *testing.T) {
	done := make(chan Update, 1)
	f := &fakeFetcher{resps: []func() (types.Status, error){ok(3)}}
	p := New(f, time.Hour, 0, func(u Update) { done <- u }, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	select {
	case u := <-done:
		if len(u.Status.Screenshots) != 3 {
			t.Errorf("screenshots = %d, want 3", len(u.Status.Screenshots))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no update from initial poll")
	}
}

func TestRefreshCoalesces(t *testing.T) {
	p := New(&fakeFetcher{}, time.Hour, 0, nil, nil)

	p.Refresh()
	p.Refresh()
	p.Refresh()

	if len(p.kick) != 1 {
		t.Errorf("kick queue length = %d, want 1", len(p.kick))
	}
}
