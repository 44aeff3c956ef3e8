// Package similarity compares texts by cosine similarity over embedding
// vectors. It backs duplicate detection, cache relevance lookups, and
// content-chunk ranking.
package similarity

import (
	"context"
	"log/slog"
	"math"

	"github.com/abhisek/quizforge/internal/question"
)

// DefaultDuplicateThreshold is the cosine score at or above which two
// question descriptions are considered duplicates.
const DefaultDuplicateThreshold = 0.85

// Embedder is the capability the engine needs from the embedding layer.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedMany(ctx context.Context, texts []string) ([][]float64, error)
	Available(ctx context.Context) bool
}

// Pair records two batch indices whose similarity reached the threshold.
// I < J always.
type Pair struct {
	I     int
	J     int
	Score float64
}

// Engine computes similarity over an injected embedder.
type Engine struct {
	emb Embedder
}

// NewEngine creates an Engine.
func NewEngine(emb Embedder) *Engine {
	return &Engine{emb: emb}
}

// Available reports whether the underlying embedder can serve requests.
func (e *Engine) Available(ctx context.Context) bool {
	return e.emb.Available(ctx)
}

// Cosine returns the cosine similarity of two vectors. A zero-norm vector
// or a length mismatch yields 0.0 with a warning; division by zero is a
// defined failure here, not a crash.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) {
		slog.Warn("cosine similarity called with mismatched vector lengths",
			"lenA", len(a), "lenB", len(b))
		return 0
	}
	normA := norm(a)
	normB := norm(b)
	if normA == 0 || normB == 0 {
		slog.Warn("cosine similarity called with zero-norm vector")
		return 0
	}
	dot := 0.0
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot / (normA * normB)
}

// DuplicatePairs scans all unordered index pairs of texts and reports
// those whose similarity is at or above threshold. Pairs are discovered in
// ascending (i, j) lexicographic order. Returns nil when the embedder is
// unavailable or the batch embeds with an error.
func (e *Engine) DuplicatePairs(ctx context.Context, texts []string, threshold float64) []Pair {
	if len(texts) < 2 || !e.emb.Available(ctx) {
		return nil
	}

	vecs, err := e.emb.EmbedMany(ctx, texts)
	if err != nil {
		slog.Error("embedding batch for duplicate scan failed", "error", err)
		return nil
	}

	var pairs []Pair
	for i := 0; i < len(vecs); i++ {
		for j := i + 1; j < len(vecs); j++ {
			score := Cosine(vecs[i], vecs[j])
			if score >= threshold {
				pairs = append(pairs, Pair{I: i, J: j, Score: score})
			}
		}
	}
	return pairs
}

// RemoveDuplicateQuestions drops semantically duplicate questions, keeping
// the first occurrence (the higher index of each pair is removed). The
// operation is idempotent.
func (e *Engine) RemoveDuplicateQuestions(ctx context.Context, batch []question.Question, threshold float64) []question.Question {
	pairs := e.DuplicatePairs(ctx, question.Descriptions(batch), threshold)
	if len(pairs) == 0 {
		return batch
	}

	remove := make(map[int]struct{})
	for _, p := range pairs {
		if _, seen := remove[p.J]; !seen {
			slog.Info("removing duplicate question",
				"index", p.J, "duplicateOf", p.I, "score", p.Score)
		}
		remove[p.J] = struct{}{}
	}

	kept := make([]question.Question, 0, len(batch)-len(remove))
	for idx, q := range batch {
		if _, drop := remove[idx]; !drop {
			kept = append(kept, q)
		}
	}
	return kept
}

// ScoreAll embeds the query once and every text once, and returns each
// text's cosine similarity to the query, index-aligned with texts. Returns
// nil when the embedder is unavailable or embedding fails.
func (e *Engine) ScoreAll(ctx context.Context, texts []string, query string) []float64 {
	if len(texts) == 0 || !e.emb.Available(ctx) {
		return nil
	}

	queryVec, err := e.emb.Embed(ctx, query)
	if err != nil {
		slog.Error("embedding query for similarity scoring failed", "error", err)
		return nil
	}
	vecs, err := e.emb.EmbedMany(ctx, texts)
	if err != nil {
		slog.Error("embedding texts for similarity scoring failed", "error", err)
		return nil
	}

	scores := make([]float64, len(vecs))
	for idx, vec := range vecs {
		scores[idx] = Cosine(queryVec, vec)
	}
	return scores
}

// MostRelevant embeds the query once and every candidate once, and returns
// the index and score of the candidate most similar to the query. Ties keep
// the first-seen candidate (strict > comparison). Returns (0, 0) when the
// embedder is unavailable, candidates are empty, or embedding fails.
func (e *Engine) MostRelevant(ctx context.Context, candidates []string, query string) (int, float64) {
	if len(candidates) == 0 || !e.emb.Available(ctx) {
		return 0, 0
	}

	queryVec, err := e.emb.Embed(ctx, query)
	if err != nil {
		slog.Error("embedding query for relevance ranking failed", "error", err)
		return 0, 0
	}
	vecs, err := e.emb.EmbedMany(ctx, candidates)
	if err != nil {
		slog.Error("embedding candidates for relevance ranking failed", "error", err)
		return 0, 0
	}

	bestIdx := 0
	bestScore := -1.0
	for idx, vec := range vecs {
		if score := Cosine(queryVec, vec); score > bestScore {
			bestScore = score
			bestIdx = idx
		}
	}
	return bestIdx, bestScore
}

func norm(v []float64) float64 {
	sum := 0.0
	for _, val := range v {
		sum += val * val
	}
	return math.Sqrt(sum)
}
