package llm

import (
	"context"
	"sync"
)

// Static returns a canned response and records every prompt it receives.
type Static struct {
	Response string
	Err      error

	mu      sync.Mutex
	prompts []string
}

var _ Provider = (*Static)(nil)

func (s *Static) Name() string { return "static" }

func (s *Static) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, opts Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()
	return s.Response, s.Err
}

// Prompts returns the prompts seen so far.
func (s *Static) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}
