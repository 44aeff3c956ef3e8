// Package validator runs a two-phase correction pass over a freshly
// generated question batch: a streamed free-text critique, then a
// schema-constrained corrective rewrite. Local structural checks and
// duplicate removal run first so the model never sees obviously broken
// questions.
//
// The validator never fails its caller over model trouble. Any provider
// error, empty response, or malformed correction falls back to the batch
// as it stood before the failing phase.
package validator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/abhisek/quizforge/internal/llm"
	"github.com/abhisek/quizforge/internal/question"
	"github.com/abhisek/quizforge/internal/similarity"
)

const contextPreviewLen = 500

// Options control which phases run.
type Options struct {
	// SkipAPI stops after the local checks; no model calls are made.
	SkipAPI bool
}

// Validator corrects question batches using an LLM plus local checks.
type Validator struct {
	provider llm.Provider
	engine   *similarity.Engine
	config   Config
}

// Config carries the tunable knobs of the validation pass.
type Config struct {
	// DupThreshold is the cosine score at or above which two questions
	// are considered duplicates during the local phase.
	DupThreshold float64

	// MaxTokens caps the critique and correction responses.
	MaxTokens int

	// Temperature for both model calls.
	Temperature float64
}

// DefaultConfig returns the standard validation settings.
func DefaultConfig() Config {
	return Config{
		DupThreshold: similarity.DefaultDuplicateThreshold,
		MaxTokens:    8192,
		Temperature:  0.7,
	}
}

// New creates a Validator.
func New(provider llm.Provider, engine *similarity.Engine, cfg Config) *Validator {
	return &Validator{provider: provider, engine: engine, config: cfg}
}

// ValidateBatchStream validates batch in phases, forwarding human-readable
// progress and raw critique fragments through emit (which may be nil).
// It returns the final batch, the accumulated critique text, and an error
// only for malformed input; model failures degrade to the input batch.
func (v *Validator) ValidateBatchStream(ctx context.Context, batch []question.Question, topic, content string, opts Options, emit llm.StreamFunc) ([]question.Question, string, error) {
	if len(batch) == 0 {
		return nil, "", nil
	}

	slog.Info("validating question batch", "questions", len(batch), "topic", topic)

	batch = v.localCheck(ctx, batch, emit)
	if len(batch) == 0 {
		emitLine(emit, "No questions survived local validation.\n")
		return nil, "", nil
	}

	if opts.SkipAPI {
		return batch, "", nil
	}

	critique, err := v.critique(ctx, batch, topic, content, emit)
	if err != nil {
		// A dead provider won't serve the correction call either; keep
		// the batch as it stands.
		return batch, critique, nil
	}
	corrected := v.correct(ctx, batch, critique)
	return corrected, critique, nil
}

// localCheck drops structurally invalid questions and semantic duplicates.
// It is skipped entirely when the embedding backend is down, matching the
// rest of the local tooling.
func (v *Validator) localCheck(ctx context.Context, batch []question.Question, emit llm.StreamFunc) []question.Question {
	if !v.engine.Available(ctx) {
		return batch
	}

	kept, report := question.BatchCheck(batch)
	emitLine(emit, fmt.Sprintf("Local validation: %d/%d questions passed structural checks.\n", len(kept), len(batch)))
	for _, line := range report {
		emitLine(emit, line+"\n")
	}

	deduped := v.engine.RemoveDuplicateQuestions(ctx, kept, v.config.DupThreshold)
	if removed := len(kept) - len(deduped); removed > 0 {
		emitLine(emit, fmt.Sprintf("Removed %d duplicate question(s).\n", removed))
	}
	return deduped
}

// critique streams a free-text review of the batch. The text is advisory
// narrative for the caller; nothing is parsed out of it. On provider
// failure it returns whatever accumulated so far along with the error.
func (v *Validator) critique(ctx context.Context, batch []question.Question, topic, content string, emit llm.StreamFunc) (string, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeCritique)

	req := llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildCritiquePrompt(batch, topic, content)},
		},
		MaxTokens:   v.config.MaxTokens,
		Temperature: v.config.Temperature,
	}

	var critique strings.Builder
	_, err := v.provider.GenerateStream(ctx, req, func(fragment string) error {
		critique.WriteString(fragment)
		if emit != nil {
			return emit(fragment)
		}
		return nil
	})
	if err != nil {
		slog.Error("critique phase failed, keeping uncorrected batch", "error", err)
	}
	return critique.String(), err
}

// correct asks for a schema-constrained rewrite of the batch guided by the
// critique. Anything short of a well-formed question array falls back to
// the input batch unchanged.
func (v *Validator) correct(ctx context.Context, batch []question.Question, critique string) []question.Question {
	ctx = llm.WithPurpose(ctx, llm.PurposeCorrection)

	req := llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildCorrectionPrompt(batch, critique)},
		},
		Schema:      question.BatchSchema,
		MaxTokens:   v.config.MaxTokens,
		Temperature: v.config.Temperature,
	}

	resp, err := v.provider.Generate(ctx, req)
	if err != nil {
		slog.Error("correction phase failed, keeping uncorrected batch", "error", err)
		return batch
	}
	if len(resp.Content) == 0 {
		slog.Warn("correction returned empty response, keeping uncorrected batch")
		return batch
	}

	corrected, err := question.ParseBatch(resp.Content)
	if err != nil {
		slog.Warn("correction output malformed, keeping uncorrected batch", "error", err)
		return batch
	}

	slog.Info("validation complete", "input", len(batch), "output", len(corrected))
	return corrected
}

func emitLine(emit llm.StreamFunc, line string) {
	if emit == nil {
		return
	}
	if err := emit(line); err != nil {
		slog.Warn("validation progress dropped", "error", err)
	}
}

func buildCritiquePrompt(batch []question.Question, topic, content string) string {
	contextPreview := "General knowledge"
	if content != "" {
		contextPreview = content
		if len(contextPreview) > contextPreviewLen {
			contextPreview = contextPreview[:contextPreviewLen]
		}
	}

	var b strings.Builder
	b.WriteString("You are an expert academic editor and fact-checker.\n")
	fmt.Fprintf(&b, "Your task is to validate the following Multiple Choice Questions (MCQs) on the topic: %q.\n\n", topic)
	fmt.Fprintf(&b, "Context provided to the generator:\n%s\n\n", contextPreview)
	fmt.Fprintf(&b, "Input Questions (JSON):\n%s\n\n", mustIndentJSON(batch))
	b.WriteString(`Validate each question by checking:
1. **Relevance**: Is the question strictly related to the topic?
2. **Correctness**: Is the 'answer' field definitely correct?
3. **Clarity**: Is the question phrased clearly?
4. **Options Quality**: Are all options plausible but only one correct?

For each question, provide detailed analysis:
- State the question number
- Evaluate relevance, correctness, clarity, and options
- Note any issues found
- Recommend whether to KEEP, FIX, or REMOVE

Format your validation as a detailed report, examining each question systematically.`)
	return b.String()
}

func buildCorrectionPrompt(batch []question.Question, critique string) string {
	var b strings.Builder
	b.WriteString("Here are the original questions:\n\n")
	b.WriteString(mustIndentJSON(batch))
	if critique != "" {
		b.WriteString("\n\nValidation analysis of these questions:\n\n")
		b.WriteString(critique)
	}
	b.WriteString(`

Apply the necessary corrections:
- Keep valid questions as is
- Fix minor errors (typos, wrong answer key if obvious)
- Remove or replace completely incorrect questions

Return ONLY the corrected JSON array of questions.`)
	return b.String()
}

func mustIndentJSON(batch []question.Question) string {
	data, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		// Question marshals from plain value fields; this cannot fail.
		return "[]"
	}
	return string(data)
}
