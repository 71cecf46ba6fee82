// Package testutil provides test utilities for code that depends on
// llm.Generator.
package testutil

import (
	"context"
	"sync"

	"github.com/c360studio/specparse/llm"
)

// Call records one GenerateText invocation.
type Call struct {
	Prompt  string
	Options llm.GenerateOptions
}

// MockGenerator is a thread-safe llm.Generator for tests. It returns the
// configured responses in sequence and records every call.
//
// Usage:
//
//	// Single response mock
//	mock := &MockGenerator{
//	    Responses: []string{`{"title": "Spec", "confidence": 90}`},
//	}
//
//	// Error response
//	mock := &MockGenerator{
//	    Err: errors.New("connection failed"),
//	}
type MockGenerator struct {
	mu              sync.Mutex
	capturedContext context.Context
	calls           []Call
	responseIndex   int

	// Responses are returned in order; the last one repeats once exhausted.
	Responses []string

	// Err is returned instead of a response when set.
	Err error
}

// NewMockGenerator returns a mock that answers every call with the given
// responses in order.
func NewMockGenerator(responses ...string) *MockGenerator {
	return &MockGenerator{Responses: responses}
}

// GenerateText implements llm.Generator.
func (m *MockGenerator) GenerateText(ctx context.Context, prompt string, opts llm.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.capturedContext = ctx
	m.calls = append(m.calls, Call{Prompt: prompt, Options: opts})

	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", nil
	}

	idx := m.responseIndex
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	} else {
		m.responseIndex++
	}
	return m.Responses[idx], nil
}

// GetCapturedContext returns the last context passed to GenerateText.
func (m *MockGenerator) GetCapturedContext() context.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.capturedContext
}

// GetCallCount returns the number of GenerateText calls.
func (m *MockGenerator) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Calls returns a copy of the recorded calls.
func (m *MockGenerator) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// LastCall returns the most recent call, or false when none was made.
func (m *MockGenerator) LastCall() (Call, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return Call{}, false
	}
	return m.calls[len(m.calls)-1], true
}

// Reset clears recorded calls and rewinds the response sequence.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.responseIndex = 0
	m.capturedContext = nil
}
