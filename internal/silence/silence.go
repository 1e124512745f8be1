// Package silence watches for gaps in the conversation and fires a callback
// when nobody has spoken for too long.
package silence

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultThreshold is how long the room must stay quiet before the
	// monitor fires.
	DefaultThreshold = 8 * time.Second
	// DefaultTickInterval is how often the monitor checks the clock.
	DefaultTickInterval = time.Second

	// latchHorizon pushes the last-speech mark far into the future after a
	// fire, so the monitor stays quiet until real speech resets it.
	latchHorizon = 100 * 365 * 24 * time.Hour
)

// Option is a functional option for configuring a [Monitor].
type Option func(*Monitor)

// WithThreshold overrides the silence duration that triggers a fire.
func WithThreshold(d time.Duration) Option {
	return func(m *Monitor) {
		m.threshold = d
	}
}

// WithTickInterval overrides how often the monitor polls. Tests shrink this
// to keep runs fast.
func WithTickInterval(d time.Duration) Option {
	return func(m *Monitor) {
		m.tick = d
	}
}

// WithClock overrides the time source. Tests inject a fake clock for
// determinism.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		m.now = now
	}
}

// Monitor fires onSilence once per quiet stretch. It never fires before the
// first speech of a session, and after firing it latches until NoteSpeech is
// called again. Arm and Disarm are idempotent; all methods are safe for
// concurrent use.
type Monitor struct {
	threshold time.Duration
	tick      time.Duration
	now       func() time.Time
	onSilence func()

	mu         sync.Mutex
	armed      bool
	hasSpeech  bool
	lastSpeech time.Time
	cancel     context.CancelFunc
	done       chan struct{}
}

// New returns a monitor that calls onSilence from its polling goroutine
// whenever the quiet threshold is crossed.
func New(onSilence func(), opts ...Option) *Monitor {
	m := &Monitor{
		threshold: DefaultThreshold,
		tick:      DefaultTickInterval,
		now:       time.Now,
		onSilence: onSilence,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Arm starts the polling loop. Calling Arm on an armed monitor is a no-op.
func (m *Monitor) Arm(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.armed {
		return
	}
	m.armed = true
	m.hasSpeech = false

	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	go m.run(ctx, m.done)
}

// Disarm stops the polling loop and waits for it to exit. Calling Disarm on
// a disarmed monitor is a no-op.
func (m *Monitor) Disarm() {
	m.mu.Lock()
	if !m.armed {
		m.mu.Unlock()
		return
	}
	m.armed = false
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	cancel()
	<-done
}

// NoteSpeech records that speech just happened, resetting the quiet clock
// and clearing any latch from a previous fire.
func (m *Monitor) NoteSpeech() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hasSpeech = true
	m.lastSpeech = m.now()
}

func (m *Monitor) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if m.check() {
				m.onSilence()
			}
		}
	}
}

// check reports whether the monitor should fire now, latching if so.
func (m *Monitor) check() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.armed || !m.hasSpeech {
		return false
	}
	if m.now().Sub(m.lastSpeech) < m.threshold {
		return false
	}
	// Latch: pretend speech happened far in the future so the monitor
	// cannot fire again until NoteSpeech overwrites the mark.
	m.lastSpeech = m.now().Add(latchHorizon)
	return true
}
