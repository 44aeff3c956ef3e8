package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session status values.
const (
	SessionPending   = "pending"
	SessionRunning   = "running"
	SessionCompleted = "completed"
	SessionFailed    = "failed"
)

// Session tracks one multi-set generation run.
type Session struct {
	ID          string
	OwnerID     int64
	Topic       string
	TotalSets   int
	Progress    int // 0-100
	CurrentStep string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SessionRepo persists generation sessions. The generator never touches a
// session row directly; it reports progress through a reporter port that
// this repo backs.
type SessionRepo interface {
	Create(ctx context.Context, ownerID int64, topic string, totalSets int) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	UpdateProgress(ctx context.Context, id string, progress int, step string) error
	Finish(ctx context.Context, id string, status string) error
}

type sessionRepo struct {
	db *sql.DB
}

func (r *sessionRepo) Create(ctx context.Context, ownerID int64, topic string, totalSets int) (*Session, error) {
	now := time.Now().UTC()
	s := &Session{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Topic:     topic,
		TotalSets: totalSets,
		Status:    SessionPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO generation_sessions
			(id, owner_id, topic, total_sets, progress, current_step, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 0, '', ?, ?, ?)`,
		s.ID, s.OwnerID, s.Topic, s.TotalSets, s.Status, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return s, nil
}

func (r *sessionRepo) Get(ctx context.Context, id string) (*Session, error) {
	var s Session
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, topic, total_sets, progress, current_step, status, created_at, updated_at
		   FROM generation_sessions WHERE id = ?`,
		id,
	).Scan(&s.ID, &s.OwnerID, &s.Topic, &s.TotalSets, &s.Progress, &s.CurrentStep, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	return &s, nil
}

func (r *sessionRepo) UpdateProgress(ctx context.Context, id string, progress int, step string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE generation_sessions
		    SET progress = ?, current_step = ?, status = ?, updated_at = ?
		  WHERE id = ?`,
		progress, step, SessionRunning, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update session progress: %w", err)
	}
	return nil
}

func (r *sessionRepo) Finish(ctx context.Context, id string, status string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE generation_sessions SET status = ?, progress = 100, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	return nil
}

// SessionReporter adapts a SessionRepo to the generator's progress port
// for one session.
type SessionReporter struct {
	Repo      SessionRepo
	SessionID string
}

// Report writes the progress percentage and step label to the session row.
func (r *SessionReporter) Report(ctx context.Context, progress int, step string) error {
	return r.Repo.UpdateProgress(ctx, r.SessionID, progress, step)
}
