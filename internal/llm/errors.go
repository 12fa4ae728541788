package llm

import "errors"

// Sentinel errors for LLM client and parsing operations.

// ErrLLMClientNil indicates the LLM client (e.g., OpenAI client) was nil when used.
var ErrLLMClientNil = errors.New("LLM client cannot be nil")

// ErrLLMPromptEmpty indicates the idea passed to the LLM was empty.
var ErrLLMPromptEmpty = errors.New("prompt cannot be empty")

// ErrLLMCompletion indicates an error occurred during the LLM API call (e.g., network error, API error).
// The underlying error from the LLM SDK is wrapped.
var ErrLLMCompletion = errors.New("failed to create LLM completion")

// ErrLLMEmptyResponse indicates the LLM returned a response with no choices.
var ErrLLMEmptyResponse = errors.New("received an empty response from LLM")

// ErrLLMResponseJSONFind indicates the expected JSON object could not be found in the LLM response.
var ErrLLMResponseJSONFind = errors.New("failed to find JSON object in LLM response")

// ErrLLMResponseJSONUnmarshal indicates an error occurred while unmarshaling the JSON from the LLM response.
var ErrLLMResponseJSONUnmarshal = errors.New("failed to unmarshal LLM response JSON")

// ErrLLMResponseMissingField indicates the parsed response filled no usable field.
var ErrLLMResponseMissingField = errors.New("LLM response filled no known field")
