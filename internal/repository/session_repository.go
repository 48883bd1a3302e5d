package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/talentwerk/workshop-planner/internal/models"
)

// SessionRepository persists the event session grid produced by the
// timetable builder.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// ListAll returns every session ordered by slot then room.
func (r *SessionRepository) ListAll(ctx context.Context) ([]models.EventSession, error) {
	const query = `SELECT id, event_id, room_name, slot, created_at FROM event_sessions ORDER BY slot ASC, room_name ASC`
	var sessions []models.EventSession
	if err := r.db.SelectContext(ctx, &sessions, query); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// ListByEvent returns the sessions of one event ordered by slot.
func (r *SessionRepository) ListByEvent(ctx context.Context, eventID int64) ([]models.EventSession, error) {
	const query = `SELECT id, event_id, room_name, slot, created_at FROM event_sessions WHERE event_id = $1 ORDER BY slot ASC`
	var sessions []models.EventSession
	if err := r.db.SelectContext(ctx, &sessions, query, eventID); err != nil {
		return nil, fmt.Errorf("list sessions by event: %w", err)
	}
	return sessions, nil
}

// ReplaceAll overwrites the stored session grid using the given executor.
func (r *SessionRepository) ReplaceAll(ctx context.Context, exec sqlx.ExtContext, sessions []models.EventSession) error {
	if _, err := exec.ExecContext(ctx, `DELETE FROM event_sessions`); err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}
	now := time.Now().UTC()
	for i := range sessions {
		payload := sessions[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, exec, `INSERT INTO event_sessions (id, event_id, room_name, slot, created_at) VALUES (:id, :event_id, :room_name, :slot, :created_at)`, &payload); err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		sessions[i] = payload
	}
	return nil
}
