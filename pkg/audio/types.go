package audio

import "time"

// Frame represents a single frame of PCM audio captured from an input stream.
// Frames are the atomic unit of audio transport between capture and the
// recorder and the speech-to-text session.
type Frame struct {
	// PCM audio data, little-endian int16 samples.
	Data []byte

	// SampleRate in Hz (e.g., 16000 for STT input).
	SampleRate int

	// Channels: 1 for mono, 2 for stereo.
	Channels int

	// Timestamp marks when this frame was captured, relative to stream start.
	Timestamp time.Duration
}

// Reference points at a finished recording on disk.
type Reference struct {
	// Path to the recorded file.
	Path string

	// Duration of the recorded audio.
	Duration time.Duration

	SampleRate int
	Channels   int
}
