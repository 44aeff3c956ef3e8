package similarity

import (
	"context"
	"math"
	"testing"

	"github.com/abhisek/quizforge/internal/question"
)

// stubEmbedder assigns each distinct text its own orthogonal axis, so
// identical texts score 1.0 and distinct texts 0.0. Explicit vectors can
// be pinned per text.
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

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1.0},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0.0},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1.0},
		{"zero norm left", []float64{0, 0}, []float64{1, 0}, 0.0},
		{"zero norm right", []float64{1, 0}, []float64{0, 0}, 0.0},
		{"length mismatch", []float64{1, 0}, []float64{1, 0, 0}, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cosine(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDuplicatePairs(t *testing.T) {
	stub := newStub()
	v := []float64{1, 0, 0}
	w := []float64{0.2, 0.98, 0}
	stub.pin("same one", v)
	stub.pin("same two", v)
	stub.pin("different", w)

	e := NewEngine(stub)
	pairs := e.DuplicatePairs(context.Background(), []string{"same one", "same two", "different"}, 0.85)

	if len(pairs) != 1 {
		t.Fatalf("expected exactly one pair, got %v", pairs)
	}
	p := pairs[0]
	if p.I != 0 || p.J != 1 {
		t.Errorf("expected pair (0,1), got (%d,%d)", p.I, p.J)
	}
	if math.Abs(p.Score-1.0) > 1e-9 {
		t.Errorf("expected score 1.0, got %v", p.Score)
	}
}

func TestDuplicatePairs_AscendingOrder(t *testing.T) {
	stub := newStub()
	v := []float64{1, 0}
	for _, text := range []string{"a", "b", "c"} {
		stub.pin(text, v)
	}

	e := NewEngine(stub)
	pairs := e.DuplicatePairs(context.Background(), []string{"a", "b", "c"}, 0.85)

	want := []Pair{{0, 1, 1}, {0, 2, 1}, {1, 2, 1}}
	if len(pairs) != len(want) {
		t.Fatalf("got %v", pairs)
	}
	for i, p := range pairs {
		if p.I != want[i].I || p.J != want[i].J {
			t.Errorf("pair %d = (%d,%d), want (%d,%d)", i, p.I, p.J, want[i].I, want[i].J)
		}
	}
}

func TestDuplicatePairs_EmbedderDown(t *testing.T) {
	stub := newStub()
	stub.down = true
	e := NewEngine(stub)
	if pairs := e.DuplicatePairs(context.Background(), []string{"a", "a"}, 0.85); pairs != nil {
		t.Errorf("expected nil with embedder down, got %v", pairs)
	}
}

func dupBatch() []question.Question {
	return []question.Question{
		{Description: "What is photosynthesis and how does it work?", Options: []string{"A", "B"}, Answer: "A"},
		{Description: "What is photosynthesis and how does it work?", Options: []string{"C", "D"}, Answer: "C"},
		{Description: "Which gas do plants absorb from the atmosphere?", Options: []string{"E", "F"}, Answer: "E"},
	}
}

func TestRemoveDuplicateQuestions_KeepsFirstOccurrence(t *testing.T) {
	e := NewEngine(newStub())
	out := e.RemoveDuplicateQuestions(context.Background(), dupBatch(), 0.85)

	if len(out) != 2 {
		t.Fatalf("expected 2 questions after dedup, got %d", len(out))
	}
	if out[0].Answer != "A" {
		t.Error("dedup must keep the first occurrence")
	}
	if out[1].Answer != "E" {
		t.Error("non-duplicate question lost")
	}
}

func TestRemoveDuplicateQuestions_Idempotent(t *testing.T) {
	e := NewEngine(newStub())
	once := e.RemoveDuplicateQuestions(context.Background(), dupBatch(), 0.85)
	twice := e.RemoveDuplicateQuestions(context.Background(), once, 0.85)

	if len(once) != len(twice) {
		t.Fatalf("dedup not idempotent: %d then %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].Description != twice[i].Description {
			t.Errorf("question %d changed on second pass", i)
		}
	}
}

func TestMostRelevant(t *testing.T) {
	stub := newStub()
	stub.pin("query", []float64{1, 0, 0})
	stub.pin("close", []float64{0.9, 0.1, 0})
	stub.pin("far", []float64{0, 1, 0})
	stub.pin("farther", []float64{0, 0, 1})

	e := NewEngine(stub)
	idx, score := e.MostRelevant(context.Background(), []string{"far", "close", "farther"}, "query")
	if idx != 1 {
		t.Errorf("expected index 1, got %d", idx)
	}
	if score <= 0.9 {
		t.Errorf("unexpected score %v", score)
	}
}

func TestMostRelevant_TieKeepsFirst(t *testing.T) {
	stub := newStub()
	v := []float64{1, 0}
	stub.pin("query", v)
	stub.pin("tie one", v)
	stub.pin("tie two", v)

	e := NewEngine(stub)
	idx, _ := e.MostRelevant(context.Background(), []string{"tie one", "tie two"}, "query")
	if idx != 0 {
		t.Errorf("tie must resolve to the first candidate, got %d", idx)
	}
}

func TestMostRelevant_EmbedderDown(t *testing.T) {
	stub := newStub()
	stub.down = true
	e := NewEngine(stub)
	idx, score := e.MostRelevant(context.Background(), []string{"a", "b"}, "query")
	if idx != 0 || score != 0 {
		t.Errorf("expected (0, 0) fallback, got (%d, %v)", idx, score)
	}
}

func TestScoreAll(t *testing.T) {
	stub := newStub()
	stub.pin("query", []float64{1, 0, 0})
	stub.pin("match", []float64{1, 0, 0})
	stub.pin("partial", []float64{1, 1, 0})
	stub.pin("unrelated", []float64{0, 0, 1})

	e := NewEngine(stub)
	scores := e.ScoreAll(context.Background(), []string{"match", "partial", "unrelated"}, "query")
	if len(scores) != 3 {
		t.Fatalf("expected 3 scores, got %d", len(scores))
	}
	if math.Abs(scores[0]-1.0) > 1e-9 {
		t.Errorf("match score = %v, want 1.0", scores[0])
	}
	if scores[1] <= scores[2] {
		t.Errorf("partial (%v) must outrank unrelated (%v)", scores[1], scores[2])
	}
	if math.Abs(scores[2]) > 1e-9 {
		t.Errorf("unrelated score = %v, want 0.0", scores[2])
	}
}

func TestScoreAll_EmbedderDown(t *testing.T) {
	stub := newStub()
	stub.down = true
	e := NewEngine(stub)
	if scores := e.ScoreAll(context.Background(), []string{"a"}, "query"); scores != nil {
		t.Errorf("expected nil when embedder is down, got %v", scores)
	}
}
