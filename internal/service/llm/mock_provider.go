package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"

	"foodatlas-backend/internal/domain"
)

// MockProvider provides a simple mock implementation for testing and development
type MockProvider struct {
	available bool
	calls     atomic.Int64

	// Response overrides the canned completion when set.
	Response string
	// Err is returned from Complete when set.
	Err error
}

// NewMockProvider creates a new mock LLM provider
func NewMockProvider() *MockProvider {
	return &MockProvider{
		available: true,
	}
}

// IsAvailable returns whether the mock provider is available
func (m *MockProvider) IsAvailable() bool {
	return m.available
}

// SetAvailable controls whether the mock provider is available (for testing)
func (m *MockProvider) SetAvailable(available bool) {
	m.available = available
}

// Calls returns how many completions have been requested (for testing
// that the store path never touches the provider).
func (m *MockProvider) Calls() int64 {
	return m.calls.Load()
}

// Complete returns a canned item payload for the food name embedded in the
// prompt, wrapped in a little prose to exercise payload extraction.
func (m *MockProvider) Complete(ctx context.Context, prompt string, options CompletionOptions) (string, error) {
	m.calls.Add(1)

	if !m.available {
		return "", fmt.Errorf("mock provider is not available")
	}
	if m.Err != nil {
		return "", m.Err
	}
	if m.Response != "" {
		return m.Response, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	item := domain.GeneratedItem{
		Name:        extractQuotedTerm(prompt),
		Category:    "General",
		Subcategory: "Specialties",
		Vendors: []domain.Vendor{
			{Name: "Example Kitchen", URL: "https://example.com"},
		},
	}
	payload, err := json.Marshal(item)
	if err != nil {
		return "", err
	}
	return "Here is the item you asked about:\n```json\n" + string(payload) + "\n```", nil
}

// extractQuotedTerm pulls the search term back out of the item prompt.
func extractQuotedTerm(prompt string) string {
	start := strings.Index(prompt, `"`)
	if start == -1 {
		return ""
	}
	end := strings.Index(prompt[start+1:], `"`)
	if end == -1 {
		return ""
	}
	return prompt[start+1 : start+1+end]
}
