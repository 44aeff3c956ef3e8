package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/abhisek/quizforge/internal/llm"
	"github.com/abhisek/quizforge/internal/question"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleBatch() []question.Question {
	return []question.Question{
		{
			Description: "Which gas do plants absorb during photosynthesis?",
			Options:     []string{"Carbon dioxide", "Oxygen", "Nitrogen"},
			Answer:      "Carbon dioxide",
			Explanation: "CO2 is fixed into sugars.",
		},
		{
			Description: "What pigment captures light energy?",
			Options:     []string{"Chlorophyll", "Melanin"},
			Answer:      "Chlorophyll",
		},
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		if err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got); err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestSaveSetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	repo := s.QuestionRepo()
	ctx := context.Background()

	saved, err := repo.SaveSet(ctx, SetRecord{
		Topic:          "biology",
		Difficulty:     "medium",
		QuestionType:   "multiple_choice",
		ValidationText: "all questions kept",
		OwnerID:        1,
	}, sampleBatch())
	if err != nil {
		t.Fatalf("SaveSet: %v", err)
	}
	if saved.SetID == 0 {
		t.Error("expected a non-zero set ID")
	}
	if len(saved.QuestionIDs) != 2 {
		t.Fatalf("expected 2 question IDs, got %d", len(saved.QuestionIDs))
	}

	got, err := repo.GetSet(ctx, saved.SetID)
	if err != nil {
		t.Fatalf("GetSet: %v", err)
	}
	want := sampleBatch()
	if len(got) != len(want) {
		t.Fatalf("got %d questions, want %d", len(got), len(want))
	}
	for i := range got {
		if got[i].Description != want[i].Description {
			t.Errorf("question %d out of order: %q", i, got[i].Description)
		}
		if got[i].Answer != want[i].Answer {
			t.Errorf("question %d answer = %q, want %q", i, got[i].Answer, want[i].Answer)
		}
		if got[i].ID != saved.QuestionIDs[i] {
			t.Errorf("question %d ID = %d, want %d", i, got[i].ID, saved.QuestionIDs[i])
		}
		if got[i].SetID != saved.SetID {
			t.Errorf("question %d SetID = %d, want %d", i, got[i].SetID, saved.SetID)
		}
	}
	if len(got[0].Options) != 3 {
		t.Errorf("options not preserved: %v", got[0].Options)
	}
}

func TestListSets(t *testing.T) {
	s := openTestStore(t)
	repo := s.QuestionRepo()
	ctx := context.Background()

	for _, topic := range []string{"first", "second", "third"} {
		if _, err := repo.SaveSet(ctx, SetRecord{
			Topic: topic, Difficulty: "easy", QuestionType: "multiple_choice",
		}, sampleBatch()); err != nil {
			t.Fatalf("SaveSet(%s): %v", topic, err)
		}
	}

	sets, err := repo.ListSets(ctx, 2)
	if err != nil {
		t.Fatalf("ListSets: %v", err)
	}
	if len(sets) != 2 {
		t.Fatalf("expected 2 sets with limit, got %d", len(sets))
	}
	if sets[0].Topic != "third" || sets[1].Topic != "second" {
		t.Errorf("sets not newest first: %q, %q", sets[0].Topic, sets[1].Topic)
	}
	if sets[0].QuestionCount != 2 {
		t.Errorf("question count = %d, want 2", sets[0].QuestionCount)
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := openTestStore(t)
	repo := s.SessionRepo()
	ctx := context.Background()

	sess, err := repo.Create(ctx, 1, "chemistry", 3)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.ID == "" {
		t.Fatal("expected a session ID")
	}
	if sess.Status != SessionPending {
		t.Errorf("new session status = %q, want %q", sess.Status, SessionPending)
	}

	if err := repo.UpdateProgress(ctx, sess.ID, 33, "Generating set 1/3"); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	got, err := repo.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Progress != 33 || got.CurrentStep != "Generating set 1/3" {
		t.Errorf("progress = %d/%q", got.Progress, got.CurrentStep)
	}
	if got.Status != SessionRunning {
		t.Errorf("status after progress = %q, want %q", got.Status, SessionRunning)
	}

	if err := repo.Finish(ctx, sess.ID, SessionCompleted); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	got, err = repo.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != SessionCompleted || got.Progress != 100 {
		t.Errorf("finished session = %q/%d, want %q/100", got.Status, got.Progress, SessionCompleted)
	}
}

func TestSessionGetMissing(t *testing.T) {
	s := openTestStore(t)
	got, err := s.SessionRepo().Get(context.Background(), "no-such-id")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing session, got %+v", got)
	}
}

func TestLLMEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []llm.RequestEvent{
		{Provider: "gemini", Model: "gemini-flash", Purpose: "question-gen",
			InputTokens: 100, OutputTokens: 50, LatencyMs: 900, Success: true,
			RequestBody: "[user] generate", ResponseBody: `[{"description":"..."}]`},
		{Provider: "gemini", Model: "gemini-flash", Purpose: "question-critique",
			InputTokens: 200, OutputTokens: 80, LatencyMs: 1100, Success: true},
		{Provider: "gemini", Model: "gemini-flash", Purpose: "question-gen",
			InputTokens: 120, OutputTokens: 0, LatencyMs: 300, Success: false,
			ErrorMessage: "rate limited"},
	}
	for _, e := range events {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("AppendLLMRequest: %v", err)
		}
	}

	listed, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 2})
	if err != nil {
		t.Fatalf("QueryLLMEvents: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 events with limit, got %d", len(listed))
	}
	if listed[0].Purpose != "question-gen" || listed[0].Success {
		t.Errorf("events not newest first: %+v", listed[0])
	}

	got, err := repo.GetLLMEvent(ctx, listed[1].ID)
	if err != nil {
		t.Fatalf("GetLLMEvent: %v", err)
	}
	if got == nil || got.Purpose != "question-critique" {
		t.Errorf("GetLLMEvent = %+v", got)
	}

	missing, err := repo.GetLLMEvent(ctx, 9999)
	if err != nil {
		t.Fatalf("GetLLMEvent missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing event, got %+v", missing)
	}
}

func TestLLMUsageAggregation(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	seed := []llm.RequestEvent{
		{Provider: "gemini", Model: "gemini-flash", Purpose: "question-gen",
			InputTokens: 100, OutputTokens: 40, LatencyMs: 1000, Success: true},
		{Provider: "gemini", Model: "gemini-flash", Purpose: "question-gen",
			InputTokens: 300, OutputTokens: 60, LatencyMs: 2000, Success: true},
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "question-correction",
			InputTokens: 50, OutputTokens: 20, LatencyMs: 500, Success: true},
	}
	for _, e := range seed {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("AppendLLMRequest: %v", err)
		}
	}

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("LLMUsageByPurpose: %v", err)
	}
	if len(byPurpose) != 2 {
		t.Fatalf("expected 2 purpose rows, got %d", len(byPurpose))
	}
	for _, st := range byPurpose {
		if st.Purpose == "question-gen" {
			if st.Calls != 2 || st.InputTokens != 400 || st.OutputTokens != 100 {
				t.Errorf("question-gen usage = %+v", st)
			}
			if st.AvgLatencyMs != 1500 {
				t.Errorf("avg latency = %d, want 1500", st.AvgLatencyMs)
			}
		}
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("LLMUsageByModel: %v", err)
	}
	if len(byModel) != 2 {
		t.Fatalf("expected 2 model rows, got %d", len(byModel))
	}
	for _, mu := range byModel {
		if mu.Model == "gemini-flash" && mu.Calls != 2 {
			t.Errorf("gemini-flash calls = %d, want 2", mu.Calls)
		}
	}
}

func TestSaveSetLinksSession(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sess, err := s.SessionRepo().Create(ctx, 1, "physics", 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	saved, err := s.QuestionRepo().SaveSet(ctx, SetRecord{
		Topic: "physics", Difficulty: "hard", QuestionType: "multiple_choice",
		SessionID: sess.ID,
	}, sampleBatch())
	if err != nil {
		t.Fatalf("SaveSet: %v", err)
	}

	var linked string
	err = s.DB().QueryRow(`SELECT session_id FROM question_sets WHERE id = ?`, saved.SetID).Scan(&linked)
	if err != nil {
		t.Fatalf("query session link: %v", err)
	}
	if linked != sess.ID {
		t.Errorf("session_id = %q, want %q", linked, sess.ID)
	}
}
