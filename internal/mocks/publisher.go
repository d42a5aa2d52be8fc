package mocks

import (
	"context"
	"fmt"
	"sync"
)

// Publisher is a recording implementation of the reconciler's VideoPublisher.
// By default it returns a deterministic durable URL derived from the base
// name; Err or per-URL FailURLs script failures.
type Publisher struct {
	mu sync.Mutex

	// BaseURL prefixes every returned durable URL.
	BaseURL string

	// Err, when set, fails every Republish call.
	Err error

	// FailURLs fails Republish for specific source URLs.
	FailURLs map[string]error

	// Calls records (sourceURL, baseName) pairs in order.
	Calls [][2]string
}

// NewPublisher creates a Publisher with a default base URL.
func NewPublisher() *Publisher {
	return &Publisher{
		BaseURL:  "https://blobs.example.com/output_video",
		FailURLs: make(map[string]error),
	}
}

// Republish implements service.VideoPublisher.
func (p *Publisher) Republish(_ context.Context, sourceURL, baseName string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Calls = append(p.Calls, [2]string{sourceURL, baseName})

	if p.Err != nil {
		return "", p.Err
	}
	if err, ok := p.FailURLs[sourceURL]; ok {
		return "", err
	}

	return fmt.Sprintf("%s/%s.mp4", p.BaseURL, baseName), nil
}
