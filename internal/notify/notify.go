// Package notify provides transient, auto-dismissing user
// notifications for the dashboard. Notifications never block;
// they expire on a timer and are read back as a snapshot.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/florawatch/florawatch/internal/sched"
)

// DefaultDismissAfter is how long a notification stays active.
const DefaultDismissAfter = 5 * time.Second

// Severity categorizes a notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Notification is one transient message shown to the user.
type Notification struct {
	ID        string    `json:"id"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// CenterConfig holds configuration for the notification center.
type CenterConfig struct {
	// Scheduler drives the dismissal timers.
	Scheduler sched.Scheduler

	// Logger for notification events.
	Logger zerolog.Logger

	// DismissAfter overrides the default dismissal delay.
	DismissAfter time.Duration
}

// Center holds the currently active notifications.
type Center struct {
	scheduler    sched.Scheduler
	logger       zerolog.Logger
	dismissAfter time.Duration

	mu      sync.Mutex
	active  []Notification
	cancels map[string]sched.CancelFunc
}

// NewCenter creates a notification center.
func NewCenter(cfg CenterConfig) *Center {
	dismissAfter := cfg.DismissAfter
	if dismissAfter == 0 {
		dismissAfter = DefaultDismissAfter
	}

	return &Center{
		scheduler:    cfg.Scheduler,
		logger:       cfg.Logger,
		dismissAfter: dismissAfter,
		cancels:      make(map[string]sched.CancelFunc),
	}
}

// Push adds a notification and schedules its dismissal.
func (c *Center) Push(severity Severity, message string) Notification {
	n := Notification{
		ID:        uuid.New().String(),
		Severity:  severity,
		Message:   message,
		CreatedAt: c.scheduler.Now(),
	}

	c.mu.Lock()
	c.active = append(c.active, n)
	c.cancels[n.ID] = c.scheduler.After(c.dismissAfter, func() {
		c.Dismiss(n.ID)
	})
	c.mu.Unlock()

	c.logger.Debug().
		Str("severity", string(severity)).
		Str("message", message).
		Msg("notification pushed")

	return n
}

// Success pushes a success notification.
func (c *Center) Success(message string) { c.Push(SeveritySuccess, message) }

// Error pushes an error notification.
func (c *Center) Error(message string) { c.Push(SeverityError, message) }

// Warning pushes a warning notification.
func (c *Center) Warning(message string) { c.Push(SeverityWarning, message) }

// Info pushes an info notification.
func (c *Center) Info(message string) { c.Push(SeverityInfo, message) }

// Dismiss removes a notification by ID. Dismissing an unknown ID is a
// no-op.
func (c *Center) Dismiss(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cancel, ok := c.cancels[id]; ok {
		cancel()
		delete(c.cancels, id)
	}

	for i, n := range c.active {
		if n.ID == id {
			c.active = append(c.active[:i], c.active[i+1:]...)
			break
		}
	}
}

// Active returns a snapshot of the active notifications in push order.
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.active))
	copy(out, c.active)
	return out
}

// Clear dismisses every active notification.
func (c *Center) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, cancel := range c.cancels {
		cancel()
		delete(c.cancels, id)
	}
	c.active = nil
}
