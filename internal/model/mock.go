package model

import (
	"context"
	"sync"
)

// MockChat is a scriptable Chat for tests. Responses are returned in order;
// once exhausted, the last response repeats. A non-nil Err is returned on
// every call instead.
type MockChat struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	calls     int
	Requests  []Request
}

// Name returns "mock".
func (m *MockChat) Name() string {
	return "mock"
}

// Complete returns the next scripted response and records the request.
func (m *MockChat) Complete(_ context.Context, req Request) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, req)

	if m.Err != nil {
		return Response{}, m.Err
	}

	if len(m.Responses) == 0 {
		return Response{}, nil
	}

	idx := m.calls
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}
	m.calls++

	return Response{Text: m.Responses[idx], Tokens: 1}, nil
}

// Calls reports how many completions have been requested.
func (m *MockChat) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
