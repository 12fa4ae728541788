package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/karolswdev/promptforge/internal/schema"
)

// Client fills prompt fields from a short idea.
type Client interface {
	// SuggestFields asks the model to fill fields for idea and returns the
	// values that fit the schema.
	SuggestFields(ctx context.Context, idea, systemPrompt string, fields []schema.Field) (Suggestion, error)
}

// suggestTemperature keeps field picks close to the listed options.
const suggestTemperature = 0.4

// OpenAIClient is a Client backed by an OpenAI-compatible chat completion API.
type OpenAIClient struct {
	client    *openai.Client
	modelName string
}

// NewOpenAIClient wraps a configured go-openai client. An empty model name
// falls back to gpt-4o.
func NewOpenAIClient(client *openai.Client, modelName string) (*OpenAIClient, error) {
	if client == nil {
		return nil, ErrLLMClientNil
	}
	if modelName == "" {
		log.Warn().Msg("modelName is empty for OpenAIClient, defaulting to gpt-4o")
		modelName = openai.GPT4o
	}
	return &OpenAIClient{client: client, modelName: modelName}, nil
}

// completionRequest puts the system prompt in its own message and asks for a
// JSON object reply.
func (o *OpenAIClient) completionRequest(idea, systemPrompt string, fields []schema.Field) openai.ChatCompletionRequest {
	var messages []openai.ChatCompletionMessage
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: ConstructPrompt(idea, fields),
	})
	return openai.ChatCompletionRequest{
		Model:          o.modelName,
		Messages:       messages,
		Temperature:    suggestTemperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}
}

// SuggestFields sends one chat completion and parses the reply against fields.
func (o *OpenAIClient) SuggestFields(ctx context.Context, idea, systemPrompt string, fields []schema.Field) (Suggestion, error) {
	if o.client == nil {
		return Suggestion{}, ErrLLMClientNil
	}
	if idea == "" {
		return Suggestion{}, ErrLLMPromptEmpty
	}
	req := o.completionRequest(idea, systemPrompt, fields)
	log.Debug().Str("model", o.modelName).Int("messages", len(req.Messages)).Int("fields", len(fields)).Msg("Sending chat completion request")

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		log.Error().Err(err).Msg("OpenAI API call failed")
		return Suggestion{}, fmt.Errorf("%w: %w", ErrLLMCompletion, err)
	}
	if len(resp.Choices) == 0 {
		log.Error().Msg("Received an empty response (no choices) from OpenAI")
		return Suggestion{}, ErrLLMEmptyResponse
	}
	raw := resp.Choices[0].Message.Content
	log.Debug().Str("raw_response", raw).Str("finish_reason", string(resp.Choices[0].FinishReason)).Msg("Received completion")

	suggestion, err := ParseSuggestion(raw, fields)
	if err != nil {
		return Suggestion{}, fmt.Errorf("failed to parse LLM response: %w", err)
	}
	log.Info().Int("fields", len(suggestion.Values)).Int("dropped", len(suggestion.Dropped)).Msg("Received field suggestions")
	return suggestion, nil
}
