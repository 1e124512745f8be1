package audio

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Recorder persists captured audio so a finished interview can point at its
// recording. Write may be called from the capture goroutine; Stop finalizes
// the file and returns a Reference to it.
type Recorder interface {
	// Write appends one frame of PCM audio to the recording.
	Write(frame Frame) error

	// Stop finalizes the recording and returns a reference to it.
	// The recorder must not be used after Stop.
	Stop() (Reference, error)
}

// Compile-time interface check.
var _ Recorder = (*WAVRecorder)(nil)

// WAVRecorder writes int16 PCM frames to a WAV file. The RIFF header is
// written with placeholder sizes and patched on Stop.
type WAVRecorder struct {
	mu         sync.Mutex
	f          *os.File
	path       string
	sampleRate int
	channels   int
	dataBytes  int
	stopped    bool
}

const wavHeaderSize = 44

// NewWAVRecorder creates a WAV file under dir named <name>.wav and returns a
// recorder writing to it. The directory is created if it does not exist.
func NewWAVRecorder(dir, name string, sampleRate, channels int) (*WAVRecorder, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("audio: sample rate must be positive, got %d", sampleRate)
	}
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("audio: channels must be 1 or 2, got %d", channels)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("audio: create recording dir: %w", err)
	}

	path := filepath.Join(dir, name+".wav")
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("audio: create recording file: %w", err)
	}

	r := &WAVRecorder{
		f:          f,
		path:       path,
		sampleRate: sampleRate,
		channels:   channels,
	}
	if err := r.writeHeader(0); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	return r, nil
}

// Path returns the path of the file being recorded.
func (r *WAVRecorder) Path() string {
	return r.path
}

// Write implements Recorder.
func (r *WAVRecorder) Write(frame Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return fmt.Errorf("audio: write after Stop")
	}
	if len(frame.Data) == 0 {
		return nil
	}
	if len(frame.Data)%2 != 0 {
		return fmt.Errorf("audio: odd byte count in PCM data: %d", len(frame.Data))
	}
	n, err := r.f.Write(frame.Data)
	r.dataBytes += n
	if err != nil {
		return fmt.Errorf("audio: write frame: %w", err)
	}
	return nil
}

// Stop implements Recorder. It patches the RIFF header with the final data
// size, flushes and closes the file.
func (r *WAVRecorder) Stop() (Reference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return Reference{}, fmt.Errorf("audio: recorder already stopped")
	}
	r.stopped = true

	if err := r.writeHeader(r.dataBytes); err != nil {
		r.f.Close()
		return Reference{}, err
	}
	if err := r.f.Close(); err != nil {
		return Reference{}, fmt.Errorf("audio: close recording: %w", err)
	}

	bytesPerSecond := r.sampleRate * r.channels * 2
	dur := time.Duration(r.dataBytes) * time.Second / time.Duration(bytesPerSecond)
	return Reference{
		Path:       r.path,
		Duration:   dur,
		SampleRate: r.sampleRate,
		Channels:   r.channels,
	}, nil
}

// writeHeader writes the 44-byte canonical PCM WAV header at offset 0.
func (r *WAVRecorder) writeHeader(dataBytes int) error {
	var h [wavHeaderSize]byte
	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[4:8], uint32(36+dataBytes))
	copy(h[8:12], "WAVE")
	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16) // fmt chunk size
	binary.LittleEndian.PutUint16(h[20:22], 1)  // PCM
	binary.LittleEndian.PutUint16(h[22:24], uint16(r.channels))
	binary.LittleEndian.PutUint32(h[24:28], uint32(r.sampleRate))
	byteRate := r.sampleRate * r.channels * 2
	binary.LittleEndian.PutUint32(h[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(h[32:34], uint16(r.channels*2)) // block align
	binary.LittleEndian.PutUint16(h[34:36], 16)                   // bits per sample
	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[40:44], uint32(dataBytes))

	if _, err := r.f.WriteAt(h[:], 0); err != nil {
		return fmt.Errorf("audio: write wav header: %w", err)
	}
	// Position the write cursor past the header for subsequent frame writes.
	if _, err := r.f.Seek(int64(wavHeaderSize+dataBytes), 0); err != nil {
		return fmt.Errorf("audio: seek past header: %w", err)
	}
	return nil
}
