package llm

import "context"

// RequestEvent captures one model request/response for auditing.
type RequestEvent struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// EventSink persists request events. The store's event repo implements
// it; the logging middleware is its only caller.
type EventSink interface {
	AppendLLMRequest(ctx context.Context, ev RequestEvent) error
}
