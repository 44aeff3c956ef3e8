package llm

import "context"

// Purpose labels for the pipeline stages that call the LLM. Every request
// is tagged with one of these so the event log can be filtered and
// aggregated by stage.
const (
	PurposeGeneration = "question-gen"
	PurposeCritique   = "question-critique"
	PurposeCorrection = "question-correction"
)

type contextKey string

const purposeKey contextKey = "llm_purpose"

// WithPurpose tags the context with a purpose label. The logging
// middleware records it on every LLM event made under this context.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

// PurposeFrom returns the purpose label carried by ctx, or "unknown"
// for untagged requests.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok {
		return v
	}
	return "unknown"
}
