package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/abhisek/quizforge/internal/llm"
	"github.com/abhisek/quizforge/internal/question"
	"github.com/abhisek/quizforge/internal/store"
	"github.com/abhisek/quizforge/internal/validator"
)

// ProgressReporter receives coarse progress updates during a batch run.
// store.SessionReporter implements it against a generation session row.
type ProgressReporter interface {
	Report(ctx context.Context, progress int, step string) error
}

// NopReporter discards progress updates.
type NopReporter struct{}

// Report implements ProgressReporter.
func (NopReporter) Report(context.Context, int, string) error { return nil }

// BatchParams describe a multi-set streaming run.
type BatchParams struct {
	Params

	// NumSets is how many independent question sets to produce.
	NumSets int

	// OwnerID and SessionID are recorded on persisted sets.
	OwnerID   int64
	SessionID string

	// SkipAPIValidation limits validation to the local checks.
	SkipAPIValidation bool
}

// StreamBatch generates NumSets sets sequentially and returns a channel of
// event frames. The channel is closed after the complete frame. One set's
// failure produces an error frame and the run continues; cancellation of
// ctx stops the stream between frames.
func (g *Generator) StreamBatch(ctx context.Context, p BatchParams) <-chan Event {
	p.applyDefaults()
	if p.NumSets <= 0 {
		p.NumSets = 1
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		g.runBatch(ctx, p, out)
	}()
	return out
}

func (g *Generator) runBatch(ctx context.Context, p BatchParams, out chan<- Event) {
	send := func(ev Event) bool {
		if ctx.Err() != nil {
			return false
		}
		select {
		case out <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if !send(Event{Type: EventStart, TotalSets: p.NumSets}) {
		return
	}

	p.Content = g.optimizeContent(ctx, p.Topic, p.Content)

	for i := 1; i <= p.NumSets; i++ {
		if err := g.reporter.Report(ctx, 100*(i-1)/p.NumSets, fmt.Sprintf("Generating set %d/%d", i, p.NumSets)); err != nil {
			slog.Warn("progress report failed", "error", err)
		}
		if !send(Event{
			Type:     EventProgress,
			Message:  fmt.Sprintf("Generating set %d/%d...", i, p.NumSets),
			Step:     "generating",
			SetIndex: i,
		}) {
			return
		}

		batch, ok := g.streamSet(ctx, p, i, send)
		if !ok {
			if ctx.Err() != nil {
				return
			}
			continue
		}

		if !send(Event{
			Type:     EventProgress,
			Message:  fmt.Sprintf("Validating set %d/%d...", i, p.NumSets),
			Step:     "validating",
			SetIndex: i,
		}) {
			return
		}

		validated, critique := g.validateSet(ctx, p, i, batch, send)
		if ctx.Err() != nil {
			return
		}

		setID := g.persistSet(ctx, p, i, validated, critique, send)
		if !send(Event{Type: EventResult, SetIndex: i, Data: validated, SetID: setID}) {
			return
		}
	}

	if err := g.reporter.Report(ctx, 100, "Completed"); err != nil {
		slog.Warn("progress report failed", "error", err)
	}
	send(Event{Type: EventComplete})
}

// streamSet runs one streamed generation call, forwarding raw fragments as
// thinking frames. Returns (batch, true) on success; on failure an error
// frame has already been emitted.
func (g *Generator) streamSet(ctx context.Context, p BatchParams, setIndex int, send func(Event) bool) ([]question.Question, bool) {
	genCtx := llm.WithPurpose(ctx, llm.PurposeGeneration)

	var full strings.Builder
	_, err := g.provider.GenerateStream(genCtx, g.batchRequest(p.Params, p.NumQuestions), func(fragment string) error {
		full.WriteString(fragment)
		if !send(Event{Type: EventThinking, Text: fragment, SetIndex: setIndex}) {
			return ctx.Err()
		}
		return nil
	})
	if err != nil {
		slog.Error("set generation failed", "set", setIndex, "error", err)
		send(Event{Type: EventError, Message: fmt.Sprintf("Failed to generate questions for set %d: %s", setIndex, err), SetIndex: setIndex})
		return nil, false
	}
	if full.Len() == 0 {
		send(Event{Type: EventError, Message: fmt.Sprintf("Failed to generate questions for set %d", setIndex), SetIndex: setIndex})
		return nil, false
	}

	batch, err := question.ParseBatch([]byte(full.String()))
	if err != nil {
		slog.Error("set output malformed", "set", setIndex, "error", err)
		send(Event{Type: EventError, Message: fmt.Sprintf("Failed to generate questions for set %d: %s", setIndex, err), SetIndex: setIndex})
		return nil, false
	}

	if len(batch) > p.NumQuestions {
		slog.Info("model over-delivered, truncating", "set", setIndex, "got", len(batch), "want", p.NumQuestions)
		batch = batch[:p.NumQuestions]
	}
	return batch, true
}

// validateSet forwards critique fragments as validating frames. The
// validator owns all fallbacks, so the input batch comes back on any
// model trouble.
func (g *Generator) validateSet(ctx context.Context, p BatchParams, setIndex int, batch []question.Question, send func(Event) bool) ([]question.Question, string) {
	if g.validator == nil {
		return batch, ""
	}

	opts := validator.Options{SkipAPI: p.SkipAPIValidation}
	validated, critique, err := g.validator.ValidateBatchStream(ctx, batch, p.Topic, p.Content, opts, func(fragment string) error {
		if !send(Event{Type: EventValidating, Text: fragment, SetIndex: setIndex}) {
			return ctx.Err()
		}
		return nil
	})
	if err != nil {
		slog.Error("set validation failed", "set", setIndex, "error", err)
		return batch, ""
	}
	return validated, critique
}

// persistSet saves the set best effort and attaches the assigned IDs to
// the batch in place. Returns the set ID, zero when persistence was
// skipped or failed. Failure emits an error frame; the result frame still
// follows so the caller gets the data even when storage lost it.
func (g *Generator) persistSet(ctx context.Context, p BatchParams, setIndex int, batch []question.Question, critique string, send func(Event) bool) int64 {
	if g.questions == nil || len(batch) == 0 {
		return 0
	}

	saved, err := g.questions.SaveSet(ctx, store.SetRecord{
		Topic:          p.Topic,
		Difficulty:     p.Difficulty,
		QuestionType:   p.QuestionType,
		ValidationText: critique,
		OwnerID:        p.OwnerID,
		SessionID:      p.SessionID,
	}, batch)
	if err != nil {
		slog.Error("error saving question set", "set", setIndex, "error", err)
		send(Event{Type: EventError, Message: "Error saving results to database.", SetIndex: setIndex})
		return 0
	}

	for idx := range batch {
		if idx < len(saved.QuestionIDs) {
			batch[idx].ID = saved.QuestionIDs[idx]
		}
		batch[idx].SetID = saved.SetID
	}
	return saved.SetID
}
