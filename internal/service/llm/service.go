// Package llm provides the generation provider capability: AI-powered
// lookup of food items that are missing from the store.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"foodatlas-backend/internal/domain"
	appErrors "foodatlas-backend/pkg/errors"
)

// Provider defines the interface for LLM providers (DeepSeek, OpenAI, etc.)
type Provider interface {
	Complete(ctx context.Context, prompt string, options CompletionOptions) (string, error)
	IsAvailable() bool
}

// CompletionOptions configures LLM completion requests
type CompletionOptions struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// Service turns free-text food names into structured taxonomy payloads
// using the injected provider.
type Service struct {
	provider Provider
}

// NewService creates a new LLM service with the specified provider
func NewService(provider Provider) *Service {
	return &Service{
		provider: provider,
	}
}

// IsAvailable returns true if the LLM service is available
func (s *Service) IsAvailable() bool {
	return s.provider != nil && s.provider.IsAvailable()
}

// GenerateItem asks the provider about a food name and extracts the one
// embedded JSON payload from its free-form answer. The returned item is
// validated; a malformed or missing payload never leaves this boundary.
func (s *Service) GenerateItem(ctx context.Context, term string) (*domain.GeneratedItem, error) {
	if !s.IsAvailable() {
		return nil, appErrors.NewGeneration("generation provider is not available", nil)
	}

	prompt := buildItemPrompt(term)

	response, err := s.provider.Complete(ctx, prompt, CompletionOptions{
		Temperature: 0.2, // Lower for more consistent structured output
		MaxTokens:   500,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, appErrors.NewProviderTimeout("generation provider timed out", err)
		}
		return nil, appErrors.NewGeneration("provider completion failed", err)
	}

	item, err := parseItemResponse(response)
	if err != nil {
		return nil, err
	}

	// The provider may rename the dish; keep the caller's term so a later
	// save round-trips with the searched name.
	if item.Name == "" {
		item.Name = term
	}
	return item, nil
}

// buildItemPrompt creates a prompt that requests exactly one JSON object.
func buildItemPrompt(term string) string {
	return fmt.Sprintf(`Return ONLY valid JSON for the food item "%s".
{
 "name": "",
 "category": "",
 "subcategory": "",
 "vendors": [
   {"name":"", "url":""}
 ]
}

Rules:
1. "category" is a broad food group, "subcategory" a narrower one
2. Suggest up to 3 vendors or restaurants with valid website URLs
3. Do not include any text outside the JSON object
`, term)
}

// parseItemResponse extracts and validates the embedded JSON payload.
func parseItemResponse(response string) (*domain.GeneratedItem, error) {
	payload, ok := extractJSONObject(response)
	if !ok {
		return nil, appErrors.NewGeneration("provider response contains no JSON payload", nil)
	}

	var item domain.GeneratedItem
	if err := json.Unmarshal([]byte(payload), &item); err != nil {
		return nil, appErrors.NewGeneration("failed to parse provider JSON payload", err)
	}

	if item.Category == "" || item.Subcategory == "" {
		return nil, appErrors.NewGeneration("provider payload is missing category or subcategory", nil)
	}
	return &item, nil
}

// extractJSONObject pulls the first top-level {...} block out of a
// completion, tolerating markdown fences and surrounding prose.
func extractJSONObject(response string) (string, bool) {
	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```json")
		response = strings.TrimPrefix(response, "```")
		response = strings.TrimSuffix(response, "```")
		response = strings.TrimSpace(response)
	}

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return response[start : end+1], true
}
