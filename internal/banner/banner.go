// Package banner drives the transient suggestion surface: it holds the
// current questions and counts down until they auto-dismiss.
package banner

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultDuration is how long a suggestion stays visible.
	DefaultDuration = 30 * time.Second
	// DefaultTickInterval refreshes the countdown at 10 Hz.
	DefaultTickInterval = 100 * time.Millisecond
)

// Option is a functional option for configuring a [Controller].
type Option func(*Controller)

// WithDuration overrides how long a suggestion stays visible.
func WithDuration(d time.Duration) Option {
	return func(c *Controller) {
		c.duration = d
	}
}

// WithTickInterval overrides the countdown refresh rate.
func WithTickInterval(d time.Duration) Option {
	return func(c *Controller) {
		c.tick = d
	}
}

// WithClock overrides the time source. Tests inject a fake clock.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// OnHide registers a callback invoked exactly once each time the banner
// goes from visible to hidden, whether by timeout or explicit dismissal.
func OnHide(fn func()) Option {
	return func(c *Controller) {
		c.onHide = fn
	}
}

// State is a point-in-time snapshot of the banner.
type State struct {
	Visible   bool     `json:"visible"`
	Questions []string `json:"questions,omitempty"`
	// Progress is the remaining fraction of the countdown as a percentage,
	// rounded up. 100 right after Show, 0 when hidden.
	Progress int `json:"progress"`
}

// Controller owns the banner state machine: hidden, then visible with a
// deadline, then hidden again. Showing while visible restarts the countdown
// with the new questions; the prior ticker is cancelled so timers never
// stack. Safe for concurrent use.
type Controller struct {
	duration time.Duration
	tick     time.Duration
	now      func() time.Time
	onHide   func()

	mu        sync.Mutex
	visible   bool
	questions []string
	shownAt   time.Time
	deadline  time.Time
	gen       uint64
	cancel    context.CancelFunc
}

// New returns a hidden banner controller.
func New(opts ...Option) *Controller {
	c := &Controller{
		duration: DefaultDuration,
		tick:     DefaultTickInterval,
		now:      time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Show makes the banner visible with the given questions and starts the
// countdown. If the banner is already visible the running countdown is
// cancelled first, then restarted from full.
func (c *Controller) Show(ctx context.Context, questions []string) {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
	gen := c.gen
	c.visible = true
	c.questions = append([]string(nil), questions...)
	c.shownAt = c.now()
	c.deadline = c.shownAt.Add(c.duration)

	ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	go c.countdown(ctx, gen)
}

// Dismiss hides the banner immediately. It is a no-op when already hidden.
func (c *Controller) Dismiss() {
	c.hide(0)
}

// Snapshot returns the current banner state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.visible {
		return State{}
	}
	return State{
		Visible:   true,
		Questions: append([]string(nil), c.questions...),
		Progress:  c.progressLocked(),
	}
}

// progressLocked computes ceil(remaining/total*100), clamped to [0, 100].
func (c *Controller) progressLocked() int {
	remaining := c.deadline.Sub(c.now())
	if remaining <= 0 {
		return 0
	}
	p := int((remaining*100 + c.duration - 1) / c.duration)
	if p > 100 {
		p = 100
	}
	return p
}

func (c *Controller) countdown(ctx context.Context, gen uint64) {
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			expired := c.visible && c.gen == gen && !c.now().Before(c.deadline)
			c.mu.Unlock()
			if expired {
				c.hide(gen)
				return
			}
		}
	}
}

// hide transitions to hidden and fires onHide once. gen 0 means
// unconditional (explicit dismissal); otherwise the transition only applies
// if the generation still matches, so a stale countdown cannot hide a newer
// showing.
func (c *Controller) hide(gen uint64) {
	c.mu.Lock()
	if !c.visible || (gen != 0 && c.gen != gen) {
		c.mu.Unlock()
		return
	}
	c.visible = false
	c.questions = nil
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	onHide := c.onHide
	c.mu.Unlock()

	if onHide != nil {
		onHide()
	}
}
