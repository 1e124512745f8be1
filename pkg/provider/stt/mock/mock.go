// Package mock provides test doubles for the stt package interfaces.
//
// Use Provider to verify that the caller starts sessions with the expected
// StreamConfig. Use Session to feed controlled Transcript values and inspect
// which audio chunks were delivered.
//
// Example:
//
//	sess := mock.NewSession()
//	p := &mock.Provider{Session: sess}
//	handle, _ := p.StartStream(ctx, cfg)
//	sess.EmitFinal("the user pain point is onboarding")
package mock

import (
	"context"
	"sync"

	"github.com/vhallgren/lyssna/pkg/provider/stt"
)

// StartStreamCall records a single invocation of Provider.StartStream.
type StartStreamCall struct {
	// Ctx is the context passed to StartStream.
	Ctx context.Context
	// Cfg is the StreamConfig passed to StartStream.
	Cfg stt.StreamConfig
}

// Provider is a mock implementation of stt.Provider.
type Provider struct {
	mu sync.Mutex

	// Session is the SessionHandle returned by StartStream. If nil,
	// StartStream returns a new default Session.
	Session stt.SessionHandle

	// StartStreamErr, if non-nil, is returned as the error from StartStream.
	StartStreamErr error

	// StartStreamCalls records every call to StartStream.
	StartStreamCalls []StartStreamCall

	// Sessions records every *Session handed out by StartStream, in order.
	Sessions []*Session
}

// Ensure Provider implements stt.Provider at compile time.
var _ stt.Provider = (*Provider)(nil)

// StartStream records the call and returns Session, StartStreamErr.
func (p *Provider) StartStream(ctx context.Context, cfg stt.StreamConfig) (stt.SessionHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.StartStreamCalls = append(p.StartStreamCalls, StartStreamCall{Ctx: ctx, Cfg: cfg})
	if p.StartStreamErr != nil {
		return nil, p.StartStreamErr
	}
	if p.Session != nil {
		if s, ok := p.Session.(*Session); ok {
			p.Sessions = append(p.Sessions, s)
		}
		return p.Session, nil
	}
	s := NewSession()
	p.Sessions = append(p.Sessions, s)
	return s, nil
}

// LastSession returns the most recently handed-out *Session, or nil when
// StartStream has not produced one yet. Thread-safe.
func (p *Provider) LastSession() *Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Sessions) == 0 {
		return nil
	}
	return p.Sessions[len(p.Sessions)-1]
}

// Calls returns a copy of the recorded StartStream calls. Thread-safe.
func (p *Provider) Calls() []StartStreamCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]StartStreamCall, len(p.StartStreamCalls))
	copy(out, p.StartStreamCalls)
	return out
}

// Session is a mock implementation of stt.SessionHandle. Feed transcripts to
// the consumer with EmitPartial and EmitFinal; Close closes both channels and
// makes further SendAudio calls fail.
type Session struct {
	mu sync.Mutex

	partials chan stt.Transcript
	finals   chan stt.Transcript

	// SendAudioCalls records the audio chunks passed to SendAudio.
	SendAudioCalls [][]byte

	// SendAudioErr, if non-nil, is returned from SendAudio.
	SendAudioErr error

	closed bool
}

// Ensure Session implements stt.SessionHandle at compile time.
var _ stt.SessionHandle = (*Session)(nil)

// NewSession returns a Session with buffered transcript channels.
func NewSession() *Session {
	return &Session{
		partials: make(chan stt.Transcript, 16),
		finals:   make(chan stt.Transcript, 16),
	}
}

// SendAudio records the chunk. Returns SendAudioErr if set, or an error after Close.
func (s *Session) SendAudio(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}
	if s.SendAudioErr != nil {
		return s.SendAudioErr
	}
	c := make([]byte, len(chunk))
	copy(c, chunk)
	s.SendAudioCalls = append(s.SendAudioCalls, c)
	return nil
}

// Partials returns the interim transcript channel.
func (s *Session) Partials() <-chan stt.Transcript { return s.partials }

// Finals returns the final transcript channel.
func (s *Session) Finals() <-chan stt.Transcript { return s.finals }

// EmitPartial delivers an interim transcript with the given text.
// No-op after Close.
func (s *Session) EmitPartial(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.partials <- stt.Transcript{Text: text, IsFinal: false}
}

// EmitFinal delivers a final transcript with the given text.
// No-op after Close.
func (s *Session) EmitFinal(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.finals <- stt.Transcript{Text: text, IsFinal: true, Confidence: 1}
}

// Close closes both transcript channels. Safe to call multiple times.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.partials)
	close(s.finals)
	return nil
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

var errClosed = &closedError{}

type closedError struct{}

func (*closedError) Error() string { return "mock: session is closed" }
