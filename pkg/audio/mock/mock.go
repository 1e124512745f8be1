// Package mock provides a mock audio recorder for testing.
package mock

import (
	"sync"

	"github.com/vhallgren/lyssna/pkg/audio"
)

// Compile-time interface check.
var _ audio.Recorder = (*Recorder)(nil)

// Recorder records Write calls in memory and returns a configurable Reference
// from Stop.
type Recorder struct {
	mu sync.Mutex

	// Ref is returned by Stop.
	Ref audio.Reference
	// StopErr, if set, is returned by Stop.
	StopErr error

	frames  []audio.Frame
	stopped bool
}

// Write implements audio.Recorder.
func (r *Recorder) Write(frame audio.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, frame)
	return nil
}

// Stop implements audio.Recorder.
func (r *Recorder) Stop() (audio.Reference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	if r.StopErr != nil {
		return audio.Reference{}, r.StopErr
	}
	return r.Ref, nil
}

// Frames returns a snapshot of all recorded frames.
func (r *Recorder) Frames() []audio.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]audio.Frame, len(r.frames))
	copy(out, r.frames)
	return out
}

// Stopped reports whether Stop was called.
func (r *Recorder) Stopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped
}
