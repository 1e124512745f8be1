// Package mock provides a mock LLM provider for testing.
package mock

import (
	"context"
	"sync"

	"github.com/vhallgren/lyssna/pkg/provider/llm"
)

// Compile-time interface check.
var _ llm.Provider = (*Provider)(nil)

// Provider is a configurable mock implementation of llm.Provider.
type Provider struct {
	mu sync.Mutex

	// Response is returned by Complete when Err is nil.
	Response *llm.CompletionResponse
	// Err, if set, is returned by Complete.
	Err error
	// CompleteFunc, if set, overrides Response/Err entirely.
	CompleteFunc func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)

	calls []llm.CompletionRequest
}

// New returns a mock provider that answers every completion with content.
func New(content string) *Provider {
	return &Provider{
		Response: &llm.CompletionResponse{Content: content},
	}
}

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	p.calls = append(p.calls, req)
	fn := p.CompleteFunc
	resp, err := p.Response, p.Err
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return &llm.CompletionResponse{}, nil
	}
	return resp, nil
}

// Calls returns a snapshot of all recorded completion requests.
func (p *Provider) Calls() []llm.CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]llm.CompletionRequest, len(p.calls))
	copy(out, p.calls)
	return out
}
