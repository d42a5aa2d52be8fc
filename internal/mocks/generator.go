package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/reeldeck/reeldeck-api/internal/generation"
)

// Generator is a scriptable implementation of generation.VideoGenerator.
//
// Submissions return sequential task IDs ("task-1", "task-2", ...) unless
// SubmitErrs scripts per-call errors. Statuses come from the Statuses map,
// falling back to StatusErr or a processing state.
type Generator struct {
	mu sync.Mutex

	// SubmitErrs scripts the error returned by each successive Submit call;
	// a nil entry means success. Calls beyond the slice succeed.
	SubmitErrs []error

	// SubmitCalls records every submission request in order.
	SubmitCalls []generation.SubmissionRequest

	// Statuses maps task IDs to the status QueryStatus returns for them.
	Statuses map[string]*generation.TaskStatus

	// StatusErrs maps task IDs to errors returned instead of a status.
	StatusErrs map[string]error

	// QueryCalls records every queried task ID in order.
	QueryCalls []string

	submitCount int
}

// NewGenerator creates an empty scriptable generator.
func NewGenerator() *Generator {
	return &Generator{
		Statuses:   make(map[string]*generation.TaskStatus),
		StatusErrs: make(map[string]error),
	}
}

// Submit implements generation.VideoGenerator.
func (g *Generator) Submit(_ context.Context, req generation.SubmissionRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	call := g.submitCount
	g.submitCount++
	g.SubmitCalls = append(g.SubmitCalls, req)

	if call < len(g.SubmitErrs) && g.SubmitErrs[call] != nil {
		return "", g.SubmitErrs[call]
	}

	return fmt.Sprintf("task-%d", len(g.SubmitCalls)), nil
}

// QueryStatus implements generation.VideoGenerator.
func (g *Generator) QueryStatus(_ context.Context, taskID string) (*generation.TaskStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.QueryCalls = append(g.QueryCalls, taskID)

	if err, ok := g.StatusErrs[taskID]; ok {
		return nil, err
	}
	if status, ok := g.Statuses[taskID]; ok {
		return status, nil
	}
	return &generation.TaskStatus{State: generation.TaskStateProcessing}, nil
}

// SubmitCount returns how many submissions were attempted.
func (g *Generator) SubmitCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.submitCount
}
