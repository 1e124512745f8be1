// Package stt defines the Provider interface for speech-recognition backends.
//
// An STT provider wraps a real-time transcription service (e.g., Deepgram) and
// exposes a uniform streaming interface. The central abstraction is
// SessionHandle: once opened, a session accepts raw PCM audio frames and emits
// two streams of Transcript values — low-latency interim results for live
// captions and authoritative finals for the interview transcript.
//
// Implementations must be safe for concurrent use. Audio input and transcript
// output channels are goroutine-safe by construction.
package stt

import "context"

// StreamConfig describes the audio format and recognition hints for a new
// recognition session.
type StreamConfig struct {
	// SampleRate is the audio sample rate in Hz. Common value: 16000.
	SampleRate int

	// Channels is the number of audio channels. 1 = mono (required by most
	// STT providers).
	Channels int

	// Language is the BCP-47 language tag for recognition (e.g., "en-US",
	// "sv-SE"). An empty string lets the provider auto-detect, if supported.
	Language string

	// Keywords is a list of vocabulary hints that increase recognition
	// probability for domain terms (e.g., the interview lexicon's trigger
	// vocabulary).
	Keywords []KeywordBoost
}

// SessionHandle represents an open recognition session. It is an interface so
// that test code can provide mock implementations without a live provider
// connection.
//
// Callers must call Close when the session is no longer needed. All methods
// must be safe for concurrent use.
type SessionHandle interface {
	// SendAudio delivers a chunk of raw PCM audio bytes to the provider.
	// Calling SendAudio after Close returns an error.
	SendAudio(chunk []byte) error

	// Partials returns a read-only channel of interim Transcript values.
	// These drive the live caption only and must never be written to the
	// interview transcript. The channel is closed when the session ends.
	Partials() <-chan Transcript

	// Finals returns a read-only channel of authoritative Transcript values.
	// These are the values logged to the transcript and fed to analysis.
	// The channel is closed when the session ends.
	Finals() <-chan Transcript

	// Close terminates the session, flushes pending audio, and releases all
	// associated resources. After Close returns, the Partials and Finals
	// channels will be closed. Calling Close more than once is safe and
	// returns nil.
	Close() error
}

// Provider is the abstraction over any speech-recognition backend.
//
// Implementations must be safe for concurrent use. The session controller
// opens a fresh session every time recording starts or the language changes.
type Provider interface {
	// StartStream opens a new streaming recognition session with the given
	// configuration. The returned SessionHandle is ready to accept audio
	// immediately.
	//
	// Returns an error if the provider cannot establish the session. The
	// caller owns the SessionHandle and must call Close when done.
	StartStream(ctx context.Context, cfg StreamConfig) (SessionHandle, error)
}
