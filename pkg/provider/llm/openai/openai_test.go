package openai

import (
	"testing"

	"github.com/vhallgren/lyssna/pkg/provider/llm"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		apiKey  string
		model   string
		wantErr bool
	}{
		{name: "valid", apiKey: "sk-test", model: "gpt-4o-mini", wantErr: false},
		{name: "missing api key", apiKey: "", model: "gpt-4o-mini", wantErr: true},
		{name: "missing model", apiKey: "sk-test", model: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := New(tt.apiKey, tt.model)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p == nil {
				t.Fatal("expected provider, got nil")
			}
		})
	}
}

func TestBuildParams(t *testing.T) {
	t.Parallel()

	p, err := New("sk-test", "gpt-4o-mini")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	req := llm.CompletionRequest{
		SystemPrompt: "You are an interview assistant.",
		Messages: []llm.Message{
			{Role: "user", Content: "Summarize the transcript."},
			{Role: "assistant", Content: "Here is the summary."},
			{Role: "user", Content: "Shorten it."},
		},
		Temperature: 0.3,
		MaxTokens:   500,
	}

	params := p.buildParams(req)

	if got, want := string(params.Model), "gpt-4o-mini"; got != want {
		t.Errorf("Model = %q, want %q", got, want)
	}
	// System prompt plus three conversation messages.
	if got, want := len(params.Messages), 4; got != want {
		t.Fatalf("len(Messages) = %d, want %d", got, want)
	}
	if !params.Temperature.Valid() {
		t.Error("Temperature should be set")
	} else if got := params.Temperature.Value; got != 0.3 {
		t.Errorf("Temperature = %v, want 0.3", got)
	}
	if !params.MaxCompletionTokens.Valid() {
		t.Error("MaxCompletionTokens should be set")
	} else if got := params.MaxCompletionTokens.Value; got != 500 {
		t.Errorf("MaxCompletionTokens = %d, want 500", got)
	}
}

func TestBuildParamsDefaults(t *testing.T) {
	t.Parallel()

	p, err := New("sk-test", "gpt-4o-mini")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	params := p.buildParams(llm.CompletionRequest{
		Messages: []llm.Message{{Role: "user", Content: "hello"}},
	})

	if got, want := len(params.Messages), 1; got != want {
		t.Fatalf("len(Messages) = %d, want %d", got, want)
	}
	if params.Temperature.Valid() {
		t.Error("Temperature should be unset when zero")
	}
	if params.MaxCompletionTokens.Valid() {
		t.Error("MaxCompletionTokens should be unset when zero")
	}
}
