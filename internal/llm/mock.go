package llm

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
)

// MockResponse is a canned response for the MockProvider.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockProvider is a deterministic Provider for testing.
// It returns canned responses in FIFO order and records all requests.
// Streaming calls split the canned content into fragments so consumers
// exercise their accumulation paths.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse

	// FragmentSize controls how streaming splits canned content.
	// Zero means the whole content arrives as a single fragment.
	FragmentSize int

	Calls       []Request
	StreamCalls []Request
}

// NewMockProvider creates a MockProvider with the given canned responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

// Generate returns the next canned response or ErrProviderUnavailable if
// the queue is empty.
func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	resp, err := m.next()
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// GenerateStream returns the next canned response, delivering its content
// through fn in FragmentSize-byte pieces first.
func (m *MockProvider) GenerateStream(_ context.Context, req Request, fn StreamFunc) (*Response, error) {
	m.mu.Lock()
	m.StreamCalls = append(m.StreamCalls, req)
	resp, err := m.next()
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	content := string(resp.Content)
	size := m.FragmentSize
	if size <= 0 {
		size = len(content)
	}
	for len(content) > 0 {
		n := min(size, len(content))
		if err := fn(content[:n]); err != nil {
			return nil, err
		}
		content = content[n:]
	}

	return resp, nil
}

// ModelID returns "mock".
func (m *MockProvider) ModelID() string {
	return "mock"
}

// AddResponse appends a canned response to the queue.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CallCount returns the number of Generate calls made (streaming included).
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls) + len(m.StreamCalls)
}

// LastPrompt returns the user message of the most recent call, or "".
func (m *MockProvider) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := append(append([]Request{}, m.Calls...), m.StreamCalls...)
	if len(all) == 0 {
		return ""
	}
	var parts []string
	for _, msg := range all[len(all)-1].Messages {
		parts = append(parts, msg.Content)
	}
	return strings.Join(parts, "\n")
}

// next pops the head of the response queue. Callers must hold mu.
func (m *MockProvider) next() (*Response, error) {
	if len(m.responses) == 0 {
		return nil, &ErrProviderUnavailable{Err: nil}
	}

	resp := m.responses[0]
	m.responses = m.responses[1:]

	if resp.Err != nil {
		return nil, resp.Err
	}

	return &Response{
		Content:    resp.Content,
		Usage:      resp.Usage,
		Model:      "mock",
		StopReason: "end",
	}, nil
}
