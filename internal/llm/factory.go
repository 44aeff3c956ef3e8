package llm

import (
	"context"
	"fmt"
)

// NewProvider creates a Provider from configuration, wrapped with event
// logging when events is non-nil.
//
// No retry middleware is installed: a provider error is terminal for the
// call, and the generation loop isolates it to the affected set.
func NewProvider(ctx context.Context, cfg Config, events EventSink) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		base = NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	if events != nil {
		return WithLogging(base, events), nil
	}
	return base, nil
}
