package deepgram

import (
	"strings"
	"testing"
	"time"

	"github.com/vhallgren/lyssna/pkg/provider/stt"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	t.Parallel()

	if _, err := New(""); err == nil {
		t.Fatal("expected error for empty API key")
	}
}

func TestBuildURL_Defaults(t *testing.T) {
	t.Parallel()

	p, err := New("key")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	u, err := p.buildURL(stt.StreamConfig{})
	if err != nil {
		t.Fatalf("buildURL: %v", err)
	}

	for _, want := range []string{
		"model=nova-3",
		"language=en-US",
		"sample_rate=16000",
		"interim_results=true",
		"punctuate=true",
	} {
		if !strings.Contains(u, want) {
			t.Errorf("URL %q missing %q", u, want)
		}
	}
}

func TestBuildURL_ConfigOverridesAndKeywords(t *testing.T) {
	t.Parallel()

	p, err := New("key", WithModel("base"), WithLanguage("en-GB"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	u, err := p.buildURL(stt.StreamConfig{
		Language:   "sv-SE",
		SampleRate: 48000,
		Channels:   1,
		Keywords: []stt.KeywordBoost{
			{Keyword: "stakeholder", Boost: 3},
		},
	})
	if err != nil {
		t.Fatalf("buildURL: %v", err)
	}

	for _, want := range []string{
		"model=base",
		"language=sv-SE",
		"sample_rate=48000",
		"channels=1",
		"keywords=stakeholder%3A3",
	} {
		if !strings.Contains(u, want) {
			t.Errorf("URL %q missing %q", u, want)
		}
	}
}

func TestParseDeepgramResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		wantOK    bool
		wantText  string
		wantFinal bool
	}{
		{
			name:      "final result",
			input:     `{"type":"Results","is_final":true,"start":1.5,"duration":2.0,"channel":{"alternatives":[{"transcript":"hello world","confidence":0.98}]}}`,
			wantOK:    true,
			wantText:  "hello world",
			wantFinal: true,
		},
		{
			name:      "interim result",
			input:     `{"type":"Results","is_final":false,"channel":{"alternatives":[{"transcript":"hel","confidence":0.5}]}}`,
			wantOK:    true,
			wantText:  "hel",
			wantFinal: false,
		},
		{
			name:   "metadata message ignored",
			input:  `{"type":"Metadata"}`,
			wantOK: false,
		},
		{
			name:   "empty transcript dropped",
			input:  `{"type":"Results","is_final":true,"channel":{"alternatives":[{"transcript":"","confidence":0}]}}`,
			wantOK: false,
		},
		{
			name:   "malformed json ignored",
			input:  `{not json`,
			wantOK: false,
		},
		{
			name:   "no alternatives ignored",
			input:  `{"type":"Results","channel":{"alternatives":[]}}`,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := parseDeepgramResponse([]byte(tt.input))
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", got.Text, tt.wantText)
			}
			if got.IsFinal != tt.wantFinal {
				t.Errorf("IsFinal = %v, want %v", got.IsFinal, tt.wantFinal)
			}
		})
	}
}

func TestParseDeepgramResponse_Timing(t *testing.T) {
	t.Parallel()

	input := `{"type":"Results","is_final":true,"start":1.5,"duration":0.5,"channel":{"alternatives":[{"transcript":"hi","confidence":1}]}}`
	got, ok := parseDeepgramResponse([]byte(input))
	if !ok {
		t.Fatal("expected parseable response")
	}
	if got.Timestamp != 1500*time.Millisecond {
		t.Errorf("Timestamp = %v, want 1.5s", got.Timestamp)
	}
	if got.Duration != 500*time.Millisecond {
		t.Errorf("Duration = %v, want 0.5s", got.Duration)
	}
}
