package audio

import (
	"encoding/binary"
	"os"
	"testing"
	"time"
)

func TestWAVRecorder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r, err := NewWAVRecorder(dir, "interview-1", 16000, 1)
	if err != nil {
		t.Fatalf("NewWAVRecorder: %v", err)
	}

	// One second of silence at 16 kHz mono int16.
	frame := Frame{Data: make([]byte, 32000), SampleRate: 16000, Channels: 1}
	if err := r.Write(frame); err != nil {
		t.Fatalf("Write: %v", err)
	}

	ref, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if ref.Duration != time.Second {
		t.Errorf("Duration = %v, want 1s", ref.Duration)
	}
	if ref.SampleRate != 16000 || ref.Channels != 1 {
		t.Errorf("format = %d/%d, want 16000/1", ref.SampleRate, ref.Channels)
	}

	data, err := os.ReadFile(ref.Path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got, want := len(data), wavHeaderSize+32000; got != want {
		t.Fatalf("file size = %d, want %d", got, want)
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE magic")
	}
	if got := binary.LittleEndian.Uint32(data[40:44]); got != 32000 {
		t.Errorf("data chunk size = %d, want 32000", got)
	}
	if got := binary.LittleEndian.Uint32(data[24:28]); got != 16000 {
		t.Errorf("header sample rate = %d, want 16000", got)
	}
}

func TestWAVRecorderValidation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	if _, err := NewWAVRecorder(dir, "bad", 0, 1); err == nil {
		t.Error("expected error for zero sample rate")
	}
	if _, err := NewWAVRecorder(dir, "bad", 16000, 3); err == nil {
		t.Error("expected error for 3 channels")
	}

	r, err := NewWAVRecorder(dir, "ok", 16000, 1)
	if err != nil {
		t.Fatalf("NewWAVRecorder: %v", err)
	}
	if err := r.Write(Frame{Data: []byte{0x01}}); err == nil {
		t.Error("expected error for odd byte count")
	}
	if _, err := r.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := r.Write(Frame{Data: make([]byte, 2)}); err == nil {
		t.Error("expected error for write after stop")
	}
	if _, err := r.Stop(); err == nil {
		t.Error("expected error for double stop")
	}
}
