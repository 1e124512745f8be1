package resilience

import (
	"context"
	"errors"
	"testing"

	"github.com/vhallgren/lyssna/pkg/provider/stt"
	sttmock "github.com/vhallgren/lyssna/pkg/provider/stt/mock"
)

func TestSTTFallback_PrimarySuccess(t *testing.T) {
	primary := &sttmock.Provider{}
	secondary := &sttmock.Provider{}

	f := NewSTTFallback(primary, "primary", FallbackConfig{})
	f.AddFallback("secondary", secondary)

	sess, err := f.StartStream(context.Background(), stt.StreamConfig{Language: "en-US"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess == nil {
		t.Fatal("nil session")
	}
	if len(primary.Calls()) != 1 || len(secondary.Calls()) != 0 {
		t.Errorf("calls: primary=%d secondary=%d", len(primary.Calls()), len(secondary.Calls()))
	}
}

func TestSTTFallback_FailoverToSecondary(t *testing.T) {
	primary := &sttmock.Provider{StartStreamErr: errors.New("websocket refused")}
	secondary := &sttmock.Provider{}

	f := NewSTTFallback(primary, "primary", FallbackConfig{})
	f.AddFallback("secondary", secondary)

	sess, err := f.StartStream(context.Background(), stt.StreamConfig{Language: "en-US"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess == nil {
		t.Fatal("nil session")
	}
	if len(secondary.Calls()) != 1 {
		t.Errorf("secondary calls = %d, want 1", len(secondary.Calls()))
	}
	if got := secondary.Calls()[0].Cfg.Language; got != "en-US" {
		t.Errorf("fallback stream language = %q", got)
	}
}

func TestSTTFallback_AllFail(t *testing.T) {
	primary := &sttmock.Provider{StartStreamErr: errors.New("down")}

	f := NewSTTFallback(primary, "primary", FallbackConfig{})

	_, err := f.StartStream(context.Background(), stt.StreamConfig{})
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("error = %v, want ErrAllFailed", err)
	}
}
