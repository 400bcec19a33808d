// Package notify delivers transient, auto-dismissing user notifications.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level categorizes a notification by severity.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelDanger  Level = "danger"
)

// DefaultTTL is how long a notification stays visible before
// auto-dismissal.
const DefaultTTL = 5 * time.Second

// Notification is a single transient message.
type Notification struct {
	ID      string    `json:"id"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Posted  time.Time `json:"posted"`
}

// Subscriber receives posted notifications and, when dismissed is true,
// their expirations.
type Subscriber func(n Notification, dismissed bool)

// Center fans notifications out to subscribers. Posting never blocks
// the caller; delivery happens on a fresh goroutine per event.
type Center struct {
	mu   sync.Mutex
	subs map[string]Subscriber
	ttl  time.Duration

	active map[string]Notification
}

// NewCenter creates a Center with the given auto-dismiss TTL. A zero
// ttl uses DefaultTTL.
func NewCenter(ttl time.Duration) *Center {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Center{
		subs:   make(map[string]Subscriber),
		active: make(map[string]Notification),
		ttl:    ttl,
	}
}

// Subscribe registers a subscriber and returns an unsubscribe func.
func (c *Center) Subscribe(sub Subscriber) func() {
	id := uuid.NewString()
	c.mu.Lock()
	c.subs[id] = sub
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Post publishes a notification and schedules its auto-dismissal.
func (c *Center) Post(level Level, message string) Notification {
	n := Notification{
		ID:      uuid.NewString(),
		Level:   level,
		Message: message,
		Posted:  time.Now(),
	}

	c.mu.Lock()
	c.active[n.ID] = n
	subs := make([]Subscriber, 0, len(c.subs))
	for _, s := range c.subs {
		subs = append(subs, s)
	}
	c.mu.Unlock()

	for _, s := range subs {
		go s(n, false)
	}
	time.AfterFunc(c.ttl, func() { c.Dismiss(n.ID) })
	return n
}

// Dismiss removes a notification and informs subscribers. Dismissing
// an unknown or already-dismissed id is a no-op.
func (c *Center) Dismiss(id string) {
	c.mu.Lock()
	n, ok := c.active[id]
	if !ok {
		c.mu.Unlock()
		return
	}
	delete(c.active, id)
	subs := make([]Subscriber, 0, len(c.subs))
	for _, s := range c.subs {
		subs = append(subs, s)
	}
	c.mu.Unlock()

	for _, s := range subs {
		go s(n, true)
	}
}

// Active returns the notifications that have not yet been dismissed.
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, 0, len(c.active))
	for _, n := range c.active {
		out = append(out, n)
	}
	return out
}

// Info posts an info-level notification.
func (c *Center) Info(message string) Notification { return c.Post(LevelInfo, message) }

// Success posts a success-level notification.
func (c *Center) Success(message string) Notification { return c.Post(LevelSuccess, message) }

// Warning posts a warning-level notification.
func (c *Center) Warning(message string) Notification { return c.Post(LevelWarning, message) }

// Danger posts a danger-level notification.
func (c *Center) Danger(message string) Notification { return c.Post(LevelDanger, message) }
