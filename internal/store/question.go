package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/abhisek/quizforge/internal/question"
)

// SetRecord describes a question set to persist.
type SetRecord struct {
	Topic          string
	Difficulty     string
	QuestionType   string
	ValidationText string
	OwnerID        int64
	SessionID      string // empty when the set is not tied to a session
}

// SavedSet reports the identifiers assigned during persistence.
type SavedSet struct {
	SetID       int64
	QuestionIDs []int64
}

// SetSummary is a listing row for persisted question sets.
type SetSummary struct {
	ID            int64
	Topic         string
	Difficulty    string
	QuestionType  string
	QuestionCount int
	CreatedAt     time.Time
}

// QuestionRepo persists question sets and their questions.
type QuestionRepo interface {
	// SaveSet stores the set record and its questions in one transaction
	// and returns the assigned identifiers. Question order is preserved
	// through order_index.
	SaveSet(ctx context.Context, rec SetRecord, batch []question.Question) (*SavedSet, error)

	// GetSet loads the questions of a set in their original order.
	GetSet(ctx context.Context, setID int64) ([]question.Question, error)

	// ListSets returns recent set summaries, newest first.
	ListSets(ctx context.Context, limit int) ([]SetSummary, error)
}

type questionRepo struct {
	db *sql.DB
}

func (r *questionRepo) SaveSet(ctx context.Context, rec SetRecord, batch []question.Question) (*SavedSet, error) {
	saved := &SavedSet{}

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var sessionID any
		if rec.SessionID != "" {
			sessionID = rec.SessionID
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO question_sets
				(topic, difficulty, question_type, validation_text, question_count, owner_id, session_id, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.Topic, rec.Difficulty, rec.QuestionType, rec.ValidationText,
			len(batch), rec.OwnerID, sessionID, time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("insert question set: %w", err)
		}
		saved.SetID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("set id: %w", err)
		}

		for idx, q := range batch {
			opts, err := json.Marshal(q.Options)
			if err != nil {
				return fmt.Errorf("marshal options: %w", err)
			}
			res, err := tx.ExecContext(ctx,
				`INSERT INTO questions
					(description, options, answer, explanation, question_set_id, order_index)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				q.Description, string(opts), q.Answer, q.Explanation, saved.SetID, idx,
			)
			if err != nil {
				return fmt.Errorf("insert question %d: %w", idx, err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("question id: %w", err)
			}
			saved.QuestionIDs = append(saved.QuestionIDs, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *questionRepo) GetSet(ctx context.Context, setID int64) ([]question.Question, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description, options, answer, explanation
		   FROM questions WHERE question_set_id = ? ORDER BY order_index`,
		setID,
	)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var batch []question.Question
	for rows.Next() {
		var q question.Question
		var opts string
		if err := rows.Scan(&q.ID, &q.Description, &opts, &q.Answer, &q.Explanation); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal([]byte(opts), &q.Options); err != nil {
			return nil, fmt.Errorf("decode options: %w", err)
		}
		q.SetID = setID
		batch = append(batch, q)
	}
	return batch, rows.Err()
}

func (r *questionRepo) ListSets(ctx context.Context, limit int) ([]SetSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, topic, difficulty, question_type, question_count, created_at
		   FROM question_sets ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query sets: %w", err)
	}
	defer rows.Close()

	var out []SetSummary
	for rows.Next() {
		var s SetSummary
		if err := rows.Scan(&s.ID, &s.Topic, &s.Difficulty, &s.QuestionType, &s.QuestionCount, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan set: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
