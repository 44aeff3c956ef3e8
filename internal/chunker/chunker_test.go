package chunker

import (
	"context"
	"strings"
	"testing"

	"github.com/abhisek/quizforge/internal/similarity"
)

func TestSplit_UnderLimit(t *testing.T) {
	chunks := Split("short text", 100)
	if len(chunks) != 1 || chunks[0] != "short text" {
		t.Fatalf("expected single unchanged chunk, got %v", chunks)
	}
}

func TestSplit_ParagraphPerChunk(t *testing.T) {
	chunks := Split("A\n\nB\n\nC", 3)
	want := []string{"A", "B", "C"}
	if len(chunks) != len(want) {
		t.Fatalf("got %v, want %v", chunks, want)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, chunks[i], want[i])
		}
	}
}

func TestSplit_GreedyAccumulation(t *testing.T) {
	text := "aaaa\n\nbbbb\n\ncccc\n\ndddd"
	chunks := Split(text, 12)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %v", chunks)
	}
	if !strings.Contains(chunks[0], "aaaa") || !strings.Contains(chunks[0], "bbbb") {
		t.Errorf("first chunk should hold two paragraphs: %q", chunks[0])
	}
}

func TestSplit_ConcatenationReproducesText(t *testing.T) {
	text := "First paragraph here.\n\nSecond paragraph comes next.\n\nThird one closes the document."
	chunks := Split(text, 30)

	joined := strings.Join(chunks, "")
	stripWS := func(s string) string {
		return strings.Map(func(r rune) rune {
			if r == ' ' || r == '\n' {
				return -1
			}
			return r
		}, s)
	}
	if stripWS(joined) != stripWS(text) {
		t.Errorf("chunks lost content:\n%q\nvs\n%q", joined, text)
	}
}

func TestSplit_OversizeParagraphEmittedWhole(t *testing.T) {
	huge := strings.Repeat("x", 50)
	text := "small\n\n" + huge + "\n\ntiny"
	chunks := Split(text, 20)

	found := false
	for _, c := range chunks {
		if strings.Contains(c, huge) {
			found = true
			if len(c) < len(huge) {
				t.Error("oversize paragraph was cut")
			}
		}
	}
	if !found {
		t.Fatal("oversize paragraph missing from output")
	}
}

type axisEmbedder struct {
	vecs map[string][]float64
	down bool
}

func (s *axisEmbedder) get(text string) []float64 {
	if v, ok := s.vecs[text]; ok {
		return v
	}
	if s.vecs == nil {
		s.vecs = make(map[string][]float64)
	}
	vec := make([]float64, 16)
	vec[len(s.vecs)%16] = 1
	s.vecs[text] = vec
	return vec
}

func (s *axisEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	return s.get(text), nil
}

func (s *axisEmbedder) EmbedMany(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = s.get(t)
	}
	return out, nil
}

func (s *axisEmbedder) Available(context.Context) bool { return !s.down }

func TestBestChunk_PicksMostRelevant(t *testing.T) {
	emb := &axisEmbedder{vecs: map[string][]float64{
		"the ocean":            {1, 0, 0},
		"deserts are dry":      {0, 1, 0},
		"oceans cover the sea": {0.9, 0.1, 0},
	}}
	engine := similarity.NewEngine(emb)

	got := BestChunk(context.Background(), engine, []string{"deserts are dry", "oceans cover the sea"}, "the ocean")
	if got != "oceans cover the sea" {
		t.Errorf("BestChunk = %q", got)
	}
}

func TestBestChunk_FallsBackWhenUnavailable(t *testing.T) {
	engine := similarity.NewEngine(&axisEmbedder{down: true})
	got := BestChunk(context.Background(), engine, []string{"first", "second"}, "topic")
	if got != "first" {
		t.Errorf("expected first chunk fallback, got %q", got)
	}
}

func TestBestChunk_Empty(t *testing.T) {
	engine := similarity.NewEngine(&axisEmbedder{})
	if got := BestChunk(context.Background(), engine, nil, "topic"); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}
