package qcache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/abhisek/quizforge/internal/question"
	"github.com/abhisek/quizforge/internal/similarity"
)

type stubEmbedder struct {
	vecs map[string][]float64
	down bool
}

func newStub() *stubEmbedder {
	return &stubEmbedder{vecs: make(map[string][]float64)}
}

func (s *stubEmbedder) pin(text string, vec []float64) {
	s.vecs[text] = vec
}

func (s *stubEmbedder) vecFor(text string) []float64 {
	if v, ok := s.vecs[text]; ok {
		return v
	}
	vec := make([]float64, 64)
	vec[len(s.vecs)%64] = 1
	s.vecs[text] = vec
	return vec
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	return s.vecFor(text), nil
}

func (s *stubEmbedder) EmbedMany(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = s.vecFor(t)
	}
	return out, nil
}

func (s *stubEmbedder) Available(context.Context) bool {
	return !s.down
}

func sampleBatch() []question.Question {
	return []question.Question{
		{
			Description: "What is the powerhouse of the cell?",
			Options:     []string{"Mitochondria", "Nucleus", "Ribosome", "Golgi"},
			Answer:      "Mitochondria",
			Explanation: "Mitochondria produce ATP.",
		},
		{
			Description: "Which organelle contains the genome?",
			Options:     []string{"Nucleus", "Lysosome"},
			Answer:      "Nucleus",
		},
	}
}

func TestKey_DeterministicAndShort(t *testing.T) {
	k1 := Key("biology", "cells and organelles", "medium", "multiple_choice")
	k2 := Key("biology", "cells and organelles", "medium", "multiple_choice")
	if k1 != k2 {
		t.Errorf("key is not deterministic: %q vs %q", k1, k2)
	}
	if len(k1) != 16 {
		t.Errorf("key length = %d, want 16", len(k1))
	}
	if k1 == Key("biology", "cells and organelles", "hard", "multiple_choice") {
		t.Error("difficulty change must change the key")
	}
}

func TestKey_IgnoresContentBeyondPrefix(t *testing.T) {
	base := make([]byte, 500)
	for i := range base {
		base[i] = 'x'
	}
	a := Key("t", string(base)+"AAAA", "easy", "mcq")
	b := Key("t", string(base)+"BBBB", "easy", "mcq")
	if a != b {
		t.Error("content beyond the first 500 characters must not affect the key")
	}
}

func TestCache_RoundTrip(t *testing.T) {
	c := New(t.TempDir(), similarity.NewEngine(newStub()))
	key := Key("biology", "cells", "medium", "multiple_choice")

	if _, ok := c.Get(key); ok {
		t.Fatal("unexpected hit on empty cache")
	}

	c.Put(key, Entry{
		Topic:        "biology",
		Difficulty:   "medium",
		QuestionType: "multiple_choice",
		Questions:    sampleBatch(),
	})

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected hit after Put")
	}
	want := sampleBatch()
	if len(got) != len(want) {
		t.Fatalf("got %d questions, want %d", len(got), len(want))
	}
	if got[0].Description != want[0].Description || got[0].Answer != want[0].Answer {
		t.Errorf("round trip mangled question: %+v", got[0])
	}
	if len(got[0].Options) != 4 {
		t.Errorf("options length = %d, want 4", len(got[0].Options))
	}
}

func TestCache_GetCorruptFileIsMiss(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, similarity.NewEngine(newStub()))
	key := Key("t", "c", "easy", "mcq")
	if err := os.WriteFile(filepath.Join(dir, key+".json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(key); ok {
		t.Error("corrupt entry must read as a miss")
	}
}

func TestFindSimilar(t *testing.T) {
	stub := newStub()
	stub.pin("photosynthesis basics", []float64{1, 0, 0})
	stub.pin("What pigment drives photosynthesis?", []float64{1, 0.1, 0})
	stub.pin("Which organelle contains the genome?", []float64{0, 0, 1})

	c := New(t.TempDir(), similarity.NewEngine(stub))
	c.Put(Key("plants", "x", "easy", "mcq"), Entry{
		Topic: "plants",
		Questions: []question.Question{
			{Description: "What pigment drives photosynthesis?", Options: []string{"Chlorophyll", "Keratin"}, Answer: "Chlorophyll"},
			{Description: "Which organelle contains the genome?", Options: []string{"Nucleus", "Lysosome"}, Answer: "Nucleus"},
		},
	})

	got := c.FindSimilar(context.Background(), "photosynthesis basics", 10, 0.7)
	if len(got) != 1 {
		t.Fatalf("expected 1 similar question, got %d", len(got))
	}
	if got[0].Question.Description != "What pigment drives photosynthesis?" {
		t.Errorf("wrong question ranked similar: %q", got[0].Question.Description)
	}
	if got[0].SourceTopic != "plants" {
		t.Errorf("source topic = %q, want %q", got[0].SourceTopic, "plants")
	}
	if got[0].Score < 0.7 {
		t.Errorf("score %v below threshold", got[0].Score)
	}
}

func TestFindSimilar_LimitAndOrder(t *testing.T) {
	stub := newStub()
	stub.pin("topic", []float64{1, 0, 0})
	stub.pin("q close", []float64{1, 0.05, 0})
	stub.pin("q closer", []float64{1, 0.01, 0})
	stub.pin("q far", []float64{0.8, 0.6, 0})

	c := New(t.TempDir(), similarity.NewEngine(stub))
	c.Put("aaaaaaaaaaaaaaaa", Entry{Topic: "a", Questions: []question.Question{
		{Description: "q close", Options: []string{"x", "y"}, Answer: "x"},
		{Description: "q closer", Options: []string{"x", "y"}, Answer: "x"},
		{Description: "q far", Options: []string{"x", "y"}, Answer: "x"},
	}})

	got := c.FindSimilar(context.Background(), "topic", 2, 0.0)
	if len(got) != 2 {
		t.Fatalf("expected limit of 2 results, got %d", len(got))
	}
	if got[0].Score < got[1].Score {
		t.Errorf("results not sorted best first: %v then %v", got[0].Score, got[1].Score)
	}
	if got[0].Question.Description != "q closer" {
		t.Errorf("best result = %q, want %q", got[0].Question.Description, "q closer")
	}
}

func TestFindSimilar_EmbedderDown(t *testing.T) {
	stub := newStub()
	stub.down = true
	c := New(t.TempDir(), similarity.NewEngine(stub))
	c.Put("bbbbbbbbbbbbbbbb", Entry{Topic: "t", Questions: sampleBatch()})
	if got := c.FindSimilar(context.Background(), "t", 10, 0.7); got != nil {
		t.Errorf("expected nil when embedder is down, got %v", got)
	}
}

func TestFindSimilar_EmptyCache(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "never-created"), similarity.NewEngine(newStub()))
	if got := c.FindSimilar(context.Background(), "t", 10, 0.7); got != nil {
		t.Errorf("expected nil on missing cache directory, got %v", got)
	}
}
