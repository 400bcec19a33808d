// Package statussync keeps a local copy of the assistant status fresh.
package statussync

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.omifi.dev/companion/internal/types"
)

// Fetcher retrieves the current assistant status.
type Fetcher interface {
	Status(ctx context.Context) (types.Status, error)
}

// Update is delivered to the poller's subscriber on every applied poll
// and on connection-state changes.
type Update struct {
	Status    types.Status
	Connected bool
}

// Poller polls the assistant service on a fixed interval and publishes
// fresh status snapshots. Responses carry the sequence number of the
// request that produced them; a response is applied only if its
// sequence is higher than the last applied one, so a slow in-flight
// poll can never overwrite a newer snapshot.
type Poller struct {
	fetcher  Fetcher
	interval time.Duration
	delay    time.Duration
	logger   *slog.Logger

	seq atomic.Uint64

	mu          sync.Mutex
	lastApplied uint64
	status      types.Status
	connected   bool

	notify func(Update)

	// kick wakes the loop for an immediate poll; capacity 1 so
	// repeated requests coalesce.
	kick chan struct{}
}

// New creates a Poller. interval is the steady polling period and
// delay the grace period used by RefreshSoon, which gives the service
// time to finish persisting a capture before the list is re-read.
func New(fetcher Fetcher, interval, delay time.Duration, notify func(Update), logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		fetcher:  fetcher,
		interval: interval,
		delay:    delay,
		logger:   logger,
		notify:   notify,
		kick:     make(chan struct{}, 1),
	}
}

// Run polls until ctx is canceled. It performs one poll immediately.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		case <-p.kick:
			p.poll(ctx)
		}
	}
}

// Refresh requests an immediate poll.
func (p *Poller) Refresh() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// RefreshSoon requests a poll after the configured grace delay.
func (p *Poller) RefreshSoon() {
	time.AfterFunc(p.delay, p.Refresh)
}

// Status returns the last applied snapshot and whether the service is
// currently reachable.
func (p *Poller) Status() (types.Status, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status, p.connected
}

func (p *Poller) poll(ctx context.Context) {
	seq := p.seq.Add(1)

	st, err := p.fetcher.Status(ctx)
	if err != nil {
		p.logger.Warn("status poll failed", "seq", seq, "error", err)
		p.applyFailure(seq)
		return
	}
	p.apply(seq, st)
}

// apply installs a snapshot if no newer response has landed first.
func (p *Poller) apply(seq uint64, st types.Status) {
	p.mu.Lock()
	if seq <= p.lastApplied {
		p.mu.Unlock()
		p.logger.Debug("discarding superseded poll", "seq", seq, "lastApplied", p.lastApplied)
		return
	}
	p.lastApplied = seq
	p.status = st
	p.connected = true
	notify := p.notify
	p.mu.Unlock()

	if notify != nil {
		notify(Update{Status: st, Connected: true})
	}
}

func (p *Poller) applyFailure(seq uint64) {
	p.mu.Lock()
	if seq <= p.lastApplied {
		p.mu.Unlock()
		return
	}
	p.lastApplied = seq
	wasConnected := p.connected
	p.connected = false
	st := p.status
	notify := p.notify
	p.mu.Unlock()

	// Only a transition to disconnected is worth an event; the stale
	// snapshot itself stays visible.
	if wasConnected && notify != nil {
		notify(Update{Status: st, Connected: false})
	}
}
