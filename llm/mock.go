package llm

import (
	"context"
	"strings"
	"sync"
)

// MockModel is a deterministic model for tests. Responses are matched by
// substring against the prompt, in registration order; unmatched prompts get
// the Default response (or an echo of the prompt when Default is empty).
type MockModel struct {
	mu sync.Mutex

	rules   []mockRule
	Default string

	// Err, when set, is returned by every call.
	Err error
	// FailAfter, when > 0, makes the call numbered FailAfter (1-based) and
	// all later calls return FailErr.
	FailAfter int
	FailErr   error

	calls   int
	prompts []string
}

type mockRule struct {
	substr   string
	response string
}

// NewMockModel creates a mock with a fixed default response.
func NewMockModel(defaultResponse string) *MockModel {
	return &MockModel{Default: defaultResponse}
}

// Respond registers a canned response for prompts containing substr.
func (m *MockModel) Respond(substr, response string) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{substr: substr, response: response})
	return m
}

// Generate returns the first matching canned response.
func (m *MockModel) Generate(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.prompts = append(m.prompts, prompt)

	if m.Err != nil {
		return "", m.Err
	}
	if m.FailAfter > 0 && m.calls >= m.FailAfter {
		return "", m.FailErr
	}

	for _, r := range m.rules {
		if strings.Contains(prompt, r.substr) {
			return r.response, nil
		}
	}
	if m.Default != "" {
		return m.Default, nil
	}
	return prompt, nil
}

// Calls returns how many times Generate was invoked.
func (m *MockModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Prompts returns a copy of all prompts seen so far.
func (m *MockModel) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}
