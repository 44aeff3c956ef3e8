package question

import (
	"strings"
	"testing"
)

func validQuestion() Question {
	return Question{
		Description: "Which planet is known as the Red Planet?",
		Options:     []string{"Venus", "Mars", "Jupiter", "Saturn"},
		Answer:      "Mars",
		Explanation: "Mars appears red due to iron oxide on its surface.",
	}
}

func TestCheck_Valid(t *testing.T) {
	res := Check(validQuestion())
	if !res.Valid {
		t.Fatalf("expected valid, got issues: %v", res.Issues)
	}
	if len(res.Issues) != 0 {
		t.Errorf("expected no issues, got %v", res.Issues)
	}
}

func TestCheck_ShortDescription(t *testing.T) {
	q := validQuestion()
	q.Description = "Short?"
	res := Check(q)
	if res.Valid {
		t.Fatal("expected invalid")
	}
	if res.Issues[0] != "Question description is too short or empty" {
		t.Errorf("unexpected issue: %q", res.Issues[0])
	}
}

func TestCheck_AnswerNotInOptions(t *testing.T) {
	q := validQuestion()
	q.Answer = "Pluto"
	res := Check(q)
	if res.Valid {
		t.Fatal("expected invalid whenever answer is not among options")
	}
	found := false
	for _, issue := range res.Issues {
		if issue == "Answer 'Pluto' not found in options" {
			found = true
		}
	}
	if !found {
		t.Errorf("missing answer issue, got %v", res.Issues)
	}
}

func TestCheck_DuplicateOptions(t *testing.T) {
	q := Question{
		Description: "X marks the spot on this map",
		Options:     []string{"A", "A"},
		Answer:      "A",
	}
	res := Check(q)
	if res.Valid {
		t.Fatal("expected invalid")
	}
	found := false
	for _, issue := range res.Issues {
		if issue == "Duplicate options detected" {
			found = true
		}
	}
	if !found {
		t.Errorf("missing duplicate issue, got %v", res.Issues)
	}
}

func TestCheck_TooFewOptions(t *testing.T) {
	q := validQuestion()
	q.Options = []string{"Mars"}
	res := Check(q)
	if res.Valid {
		t.Fatal("expected invalid")
	}
}

func TestCheck_TooManyOptionsIsWarningOnly(t *testing.T) {
	q := validQuestion()
	q.Options = []string{"Mars", "Venus", "Jupiter", "Saturn", "Mercury", "Neptune", "Uranus"}
	res := Check(q)
	if !res.Valid {
		t.Fatalf("over-long option list should warn, not invalidate: %v", res.Issues)
	}
	if len(res.Issues) != 1 || res.Issues[0] != "Too many options (maximum 6 recommended)" {
		t.Errorf("unexpected issues: %v", res.Issues)
	}
}

func TestCheck_EmptyOptionReportedOnce(t *testing.T) {
	q := validQuestion()
	q.Options = []string{"Mars", " ", "", "Venus"}
	res := Check(q)
	if res.Valid {
		t.Fatal("expected invalid")
	}
	count := 0
	for _, issue := range res.Issues {
		if issue == "Empty or very short option detected" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("empty-option issue reported %d times, want 1", count)
	}
}

func TestCheck_CollectsAllIssues(t *testing.T) {
	q := Question{
		Description: "Short",
		Options:     []string{"A"},
		Answer:      "B",
	}
	res := Check(q)
	if len(res.Issues) != 3 {
		t.Errorf("expected 3 issues (description, option count, answer), got %v", res.Issues)
	}
}

func TestBatchCheck(t *testing.T) {
	good := validQuestion()
	bad := Question{Description: "X", Options: []string{"A", "A"}, Answer: "A"}

	valid, issues := BatchCheck([]Question{good, bad, good})

	if len(valid) != 2 {
		t.Fatalf("expected 2 valid questions, got %d", len(valid))
	}
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue line, got %v", issues)
	}
	if !strings.HasPrefix(issues[0], "Q2: ") {
		t.Errorf("issue line should be 1-based indexed, got %q", issues[0])
	}
	if !strings.Contains(issues[0], "Duplicate options detected") {
		t.Errorf("issue line missing reason: %q", issues[0])
	}
}

func TestBatchCheck_PreservesOrder(t *testing.T) {
	a := validQuestion()
	a.Description = "First question about the solar system"
	b := validQuestion()
	b.Description = "Second question about the solar system"

	valid, _ := BatchCheck([]Question{a, b})
	if valid[0].Description != a.Description || valid[1].Description != b.Description {
		t.Error("retained questions must keep their original order")
	}
}
