package llm_test

import (
	"context"
	"errors"
	"sync"

	"github.com/aretw0/becas/pkg/adapters/llm"
)

// fakeGenerator answers with canned outputs in order and records requests.
type fakeGenerator struct {
	mu       sync.Mutex
	answers  []string
	err      error
	requests []llm.Request
}

func (f *fakeGenerator) Generate(ctx context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	if len(f.answers) == 0 {
		return "", errors.New("no canned answer")
	}
	out := f.answers[0]
	f.answers = f.answers[1:]
	return out, nil
}

func (f *fakeGenerator) Model() string { return "fake" }

func answering(answers ...string) *fakeGenerator {
	return &fakeGenerator{answers: answers}
}
