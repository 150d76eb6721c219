// Package notify keeps the short-lived user notifications shown by the dashboard.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"stocksense/models"
	"stocksense/observability"
)

// Defaults for the notification lifecycle
const (
	DefaultDisplay    = 3 * time.Second
	DefaultTransition = 300 * time.Millisecond
	DefaultHistory    = 20
)

// NoTransition disables the exit transition; a zero Transition means the default
const NoTransition time.Duration = -1

// Config holds Center settings
type Config struct {
	Display    time.Duration
	Transition time.Duration
	History    int
	Now        func() time.Time
	Metrics    *observability.Metrics
}

// Center stores notifications until their exit transition completes
type Center struct {
	mu    sync.Mutex
	items []models.Notification
	cfg   Config
}

// NewCenter creates a Center, filling in defaults for zero values
func NewCenter(cfg Config) *Center {
	if cfg.Display <= 0 {
		cfg.Display = DefaultDisplay
	}
	switch {
	case cfg.Transition < 0:
		cfg.Transition = 0
	case cfg.Transition == 0:
		cfg.Transition = DefaultTransition
	}
	if cfg.History <= 0 {
		cfg.History = DefaultHistory
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Center{cfg: cfg}
}

// Push records a notification and returns it
func (c *Center) Push(severity models.Severity, message string) models.Notification {
	now := c.cfg.Now()
	n := models.Notification{
		ID:        uuid.New(),
		Severity:  severity,
		Message:   message,
		CreatedAt: now,
		DismissAt: now.Add(c.cfg.Display),
		RemoveAt:  now.Add(c.cfg.Display + c.cfg.Transition),
	}

	c.mu.Lock()
	c.pruneLocked(now)
	c.items = append(c.items, n)
	if over := len(c.items) - c.cfg.History; over > 0 {
		c.items = append([]models.Notification(nil), c.items[over:]...)
	}
	c.mu.Unlock()

	c.cfg.Metrics.RecordNotification(string(severity))
	observability.Debug("notification pushed", "severity", severity, "message", message)
	return n
}

// Active returns notifications that have not finished their exit
// transition, oldest first
func (c *Center) Active() []models.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pruneLocked(c.cfg.Now())
	out := make([]models.Notification, len(c.items))
	copy(out, c.items)
	return out
}

// Dismiss starts the exit transition of a notification immediately.
// It reports whether the notification was found.
func (c *Center) Dismiss(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.cfg.Now()
	for i := range c.items {
		if c.items[i].ID != id {
			continue
		}
		if now.Before(c.items[i].DismissAt) {
			c.items[i].DismissAt = now
			c.items[i].RemoveAt = now.Add(c.cfg.Transition)
		}
		return true
	}
	return false
}

// Len returns the number of stored notifications, including expired ones
// not yet pruned
func (c *Center) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Center) pruneLocked(now time.Time) {
	kept := c.items[:0]
	for _, n := range c.items {
		if now.Before(n.RemoveAt) {
			kept = append(kept, n)
		}
	}
	clear(c.items[len(kept):])
	c.items = kept
}
