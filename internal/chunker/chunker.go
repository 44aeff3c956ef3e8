// Package chunker splits oversized source content into paragraph-aligned
// chunks and picks the chunk most relevant to a topic, so model calls only
// carry the content that matters.
package chunker

import (
	"context"
	"log/slog"
	"strings"

	"github.com/abhisek/quizforge/internal/similarity"
)

// DefaultMaxChunkSize bounds one chunk when content is split before a
// model call.
const DefaultMaxChunkSize = 2500

// Split breaks text into chunks of at most maxSize characters, never
// cutting inside a paragraph. Text at or under maxSize is returned as a
// single chunk. A single paragraph longer than maxSize is emitted whole,
// exceeding the nominal bound; that relaxation is deliberate.
func Split(text string, maxSize int) []string {
	if len(text) <= maxSize {
		return []string{text}
	}

	paragraphs := strings.Split(text, "\n\n")
	var chunks []string
	var current strings.Builder

	for _, para := range paragraphs {
		if current.Len()+len(para) <= maxSize {
			current.WriteString(para)
			current.WriteString("\n\n")
			continue
		}
		if current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
		current.WriteString(para)
		current.WriteString("\n\n")
	}

	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}

	return chunks
}

// BestChunk returns the chunk most relevant to topic according to the
// similarity engine. With zero or one chunks, or with embeddings
// unavailable, it falls back to the first chunk.
func BestChunk(ctx context.Context, engine *similarity.Engine, chunks []string, topic string) string {
	if len(chunks) == 0 {
		return ""
	}
	if len(chunks) == 1 || !engine.Available(ctx) {
		return chunks[0]
	}

	idx, score := engine.MostRelevant(ctx, chunks, topic)
	slog.Info("selected most relevant content chunk",
		"chunk", idx+1, "total", len(chunks), "score", score)
	return chunks[idx]
}
