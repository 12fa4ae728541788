package cmd

// This file contains mock implementations used across different test files
// within the cmd package, but which need to be accessible from outside
// _test.go files (e.g., for integration tests).

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/karolswdev/promptforge/internal/llm"
	"github.com/karolswdev/promptforge/internal/schema"
)

// MockLLMClient is a mock implementation of the llm.Client interface.
// Exported for use in integration tests.
type MockLLMClient struct {
	mock.Mock
}

// SuggestFields matches llm.Client interface
func (m *MockLLMClient) SuggestFields(ctx context.Context, idea, systemPrompt string, fields []schema.Field) (llm.Suggestion, error) {
	args := m.Called(ctx, idea, systemPrompt, fields)
	var s llm.Suggestion
	if v := args.Get(0); v != nil {
		s = v.(llm.Suggestion)
	}
	return s, args.Error(1)
}
