// Package generator orchestrates question bank generation: cache lookups,
// content optimization, chunked model calls, duplicate removal, validation,
// and persistence. StreamBatch exposes the whole pipeline as a stream of
// tagged event frames.
package generator

import (
	"context"
	"log/slog"

	"github.com/abhisek/quizforge/internal/chunker"
	"github.com/abhisek/quizforge/internal/llm"
	"github.com/abhisek/quizforge/internal/qcache"
	"github.com/abhisek/quizforge/internal/question"
	"github.com/abhisek/quizforge/internal/similarity"
	"github.com/abhisek/quizforge/internal/store"
	"github.com/abhisek/quizforge/internal/validator"
)

// Config carries the orchestration limits and thresholds.
type Config struct {
	// MaxPerCall caps how many questions one model call may request.
	// Larger orders are split into sequential calls.
	MaxPerCall int

	// OptimizeThreshold is the content length above which source text is
	// chunked and reduced to its most topic-relevant chunk.
	OptimizeThreshold int

	// MaxChunkSize bounds each content chunk.
	MaxChunkSize int

	// DupThreshold is the cosine score at or above which two questions
	// count as duplicates.
	DupThreshold float64

	// CacheSimilarityThreshold gates cross-topic cache lookups.
	CacheSimilarityThreshold float64

	// Temperature and MaxTokens apply to every generation call.
	Temperature float64
	MaxTokens   int
}

// DefaultConfig returns the standard orchestration settings.
func DefaultConfig() Config {
	return Config{
		MaxPerCall:               25,
		OptimizeThreshold:        3000,
		MaxChunkSize:             chunker.DefaultMaxChunkSize,
		DupThreshold:             similarity.DefaultDuplicateThreshold,
		CacheSimilarityThreshold: 0.7,
		Temperature:              0.7,
		MaxTokens:                8192,
	}
}

// Params describe one generation order.
type Params struct {
	Topic        string
	Content      string
	NumQuestions int
	Difficulty   string
	QuestionType string

	// UserContext is free-form instructions appended to the prompt.
	UserContext string

	// UseCache enables the content-addressed question cache.
	UseCache bool

	// UseWebSearch asks the provider for web grounding. Grounded results
	// bypass the cache entirely so stale data never masks live answers.
	UseWebSearch bool
}

func (p *Params) applyDefaults() {
	if p.NumQuestions <= 0 {
		p.NumQuestions = 5
	}
	if p.Difficulty == "" {
		p.Difficulty = "medium"
	}
	if p.QuestionType == "" {
		p.QuestionType = "multiple_choice"
	}
}

// Generator is the top-level orchestrator. The cache, question repo, and
// reporter are optional; a nil collaborator disables that concern.
type Generator struct {
	provider  llm.Provider
	validator *validator.Validator
	engine    *similarity.Engine
	cache     *qcache.Cache
	questions store.QuestionRepo
	reporter  ProgressReporter
	config    Config
}

// New creates a Generator.
func New(provider llm.Provider, val *validator.Validator, engine *similarity.Engine, cache *qcache.Cache, questions store.QuestionRepo, reporter ProgressReporter, cfg Config) *Generator {
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &Generator{
		provider:  provider,
		validator: val,
		engine:    engine,
		cache:     cache,
		questions: questions,
		reporter:  reporter,
		config:    cfg,
	}
}

// GenerateQuestions produces at most p.NumQuestions questions. The model
// may under-deliver; the result is never longer than requested.
func (g *Generator) GenerateQuestions(ctx context.Context, p Params) ([]question.Question, error) {
	p.applyDefaults()

	key := qcache.Key(p.Topic, p.Content, p.Difficulty, p.QuestionType)
	if cached, ok := g.cacheLookup(ctx, p, key); ok {
		return cached, nil
	}

	p.Content = g.optimizeContent(ctx, p.Topic, p.Content)

	var all []question.Question
	remaining := p.NumQuestions
	for remaining > 0 {
		count := min(remaining, g.config.MaxPerCall)
		slog.Info("generating question chunk", "count", count, "remaining", remaining)

		batch := g.generateSingleBatch(ctx, p, count)
		if len(batch) > count {
			slog.Info("model over-delivered, truncating", "got", len(batch), "want", count)
			batch = batch[:count]
		}
		all = append(all, batch...)
		remaining -= count
	}

	if g.engine != nil {
		all = g.engine.RemoveDuplicateQuestions(ctx, all, g.config.DupThreshold)
	}
	if len(all) > p.NumQuestions {
		all = all[:p.NumQuestions]
	}
	all = g.supplementFromCache(ctx, p, all)

	if p.UseCache && g.cache != nil && len(all) > 0 {
		g.cache.Put(key, qcache.Entry{
			Topic:        p.Topic,
			Difficulty:   p.Difficulty,
			QuestionType: p.QuestionType,
			Questions:    all,
		})
	}
	return all, nil
}

// cacheLookup short-circuits generation when the cache holds enough
// questions for this exact parameter tuple. Web-grounded requests never
// read the cache.
func (g *Generator) cacheLookup(ctx context.Context, p Params, key string) ([]question.Question, bool) {
	if !p.UseCache || p.UseWebSearch || g.cache == nil {
		return nil, false
	}

	cached, ok := g.cache.Get(key)
	if !ok || len(cached) < p.NumQuestions {
		return nil, false
	}

	if g.engine != nil {
		cached = g.engine.RemoveDuplicateQuestions(ctx, cached, g.config.DupThreshold)
	}
	if len(cached) > p.NumQuestions {
		cached = cached[:p.NumQuestions]
	}
	slog.Info("serving questions from cache", "topic", p.Topic, "questions", len(cached))
	return cached, true
}

// supplementFromCache tops up an under-delivered result with cached
// questions semantically close to the topic. Same gating as cacheLookup:
// web-grounded requests never touch the cache.
func (g *Generator) supplementFromCache(ctx context.Context, p Params, batch []question.Question) []question.Question {
	if !p.UseCache || p.UseWebSearch || g.cache == nil || len(batch) >= p.NumQuestions {
		return batch
	}

	missing := p.NumQuestions - len(batch)
	scored := g.cache.FindSimilar(ctx, p.Topic, missing, g.config.CacheSimilarityThreshold)
	if len(scored) == 0 {
		return batch
	}
	slog.Info("supplementing from cache", "missing", missing, "found", len(scored))

	for _, s := range scored {
		batch = append(batch, s.Question)
	}
	if g.engine != nil {
		batch = g.engine.RemoveDuplicateQuestions(ctx, batch, g.config.DupThreshold)
	}
	if len(batch) > p.NumQuestions {
		batch = batch[:p.NumQuestions]
	}
	return batch
}

// optimizeContent reduces oversized source text to its single most
// topic-relevant chunk before any model call.
func (g *Generator) optimizeContent(ctx context.Context, topic, content string) string {
	if len(content) <= g.config.OptimizeThreshold {
		return content
	}

	chunks := chunker.Split(content, g.config.MaxChunkSize)
	slog.Info("content over threshold, selecting best chunk",
		"length", len(content), "chunks", len(chunks))
	if g.engine == nil {
		return chunks[0]
	}
	return chunker.BestChunk(ctx, g.engine, chunks, topic)
}

// generateSingleBatch issues one schema-constrained model call. All
// failures degrade to an empty batch; the caller's loop continues.
func (g *Generator) generateSingleBatch(ctx context.Context, p Params, count int) []question.Question {
	ctx = llm.WithPurpose(ctx, llm.PurposeGeneration)

	resp, err := g.provider.Generate(ctx, g.batchRequest(p, count))
	if err != nil {
		slog.Error("question generation call failed", "error", err)
		return nil
	}
	if len(resp.Content) == 0 {
		slog.Error("received empty response from LLM")
		return nil
	}

	batch, err := question.ParseBatch(resp.Content)
	if err != nil {
		slog.Error("failed to decode question batch", "error", err)
		return nil
	}
	slog.Info("generated questions", "count", len(batch))
	return batch
}

func (g *Generator) batchRequest(p Params, count int) llm.Request {
	return llm.Request{
		System: generationSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildGenerationPrompt(p, count)},
		},
		Schema:      question.BatchSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
		WebSearch:   p.UseWebSearch,
	}
}
