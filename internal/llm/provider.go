package llm

import (
	"context"
	"encoding/json"
)

// Provider is the core abstraction for LLM interaction. The question
// pipeline talks to every model backend through this contract, streaming
// or not, with or without a response schema.
type Provider interface {
	// Generate sends a prompt to the LLM and returns the complete response.
	// When the request carries a Schema, the provider uses its native
	// structured-output mechanism and the response Content is the validated
	// JSON. When WebSearch is set, providers that support grounding may
	// cite live web results; providers that don't simply ignore the flag.
	Generate(ctx context.Context, req Request) (*Response, error)

	// GenerateStream sends a prompt and forwards incremental text fragments
	// to fn in the order the backend produces them. The returned Response
	// carries the concatenated text. Grounding is not available while
	// streaming; a streaming request with WebSearch set drops the flag
	// rather than failing.
	GenerateStream(ctx context.Context, req Request, fn StreamFunc) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// StreamFunc receives one incremental text fragment per call. Returning an
// error aborts the stream and surfaces the error to the caller.
type StreamFunc func(fragment string) error

// Request describes what to send to the LLM.
type Request struct {
	// System is the system prompt. Sets the LLM's role and constraints.
	System string

	// Messages is the conversation history. Generation and validation are
	// single-turn, so this usually contains one user message.
	Messages []Message

	// Schema is the JSON Schema the response must conform to.
	// When set, the provider uses its native structured output mechanism.
	// When nil, the response Content is raw text as json.RawMessage.
	Schema *Schema

	// MaxTokens is the maximum number of tokens in the response.
	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	Temperature float64

	// WebSearch asks the provider to ground the response with live web
	// results. Only honored for non-streaming Gemini requests; everywhere
	// else it is silently dropped.
	WebSearch bool
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the LLM.
type Schema struct {
	// Name identifies this schema (used as tool name for Anthropic,
	// schema name for OpenAI). Kebab-case, e.g. "question-batch".
	Name string

	// Description is a human-readable description of what this schema
	// represents. Sent to the LLM to guide generation.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the LLM's output.
type Response struct {
	// Content is the generated output. When a Schema was provided in a
	// non-streaming request, this is the validated JSON. For streaming
	// requests it is the concatenation of all fragments, unvalidated;
	// parsing is the caller's job.
	Content json.RawMessage

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason indicates why generation stopped.
	// Normalized to: "end", "max_tokens", "error"
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
