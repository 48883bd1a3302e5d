package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/talentwerk/workshop-planner/internal/models"
)

// AssignmentRepository persists per-student assignment rows. Assignments are
// the only entity mutated in place; the conflict resolver's batch updates go
// through an externally managed transaction.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository creates a new assignment repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// ListAll returns every assignment row ordered by student identity then slot.
func (r *AssignmentRepository) ListAll(ctx context.Context) ([]models.StudentAssignment, error) {
	const query = `SELECT id, class_ref, first_name, last_name, event_id, slot, room_name, choice_no, updated_at FROM student_assignments ORDER BY class_ref ASC, last_name ASC, first_name ASC, slot ASC NULLS LAST`
	var assignments []models.StudentAssignment
	if err := r.db.SelectContext(ctx, &assignments, query); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// ListBySlot returns the resolved assignments of one time slot.
func (r *AssignmentRepository) ListBySlot(ctx context.Context, slot string) ([]models.StudentAssignment, error) {
	const query = `SELECT id, class_ref, first_name, last_name, event_id, slot, room_name, choice_no, updated_at FROM student_assignments WHERE slot = $1 ORDER BY room_name ASC, last_name ASC`
	var assignments []models.StudentAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, slot); err != nil {
		return nil, fmt.Errorf("list assignments by slot: %w", err)
	}
	return assignments, nil
}

// ReplaceAll overwrites the full assignment set using the given executor.
// Used by the full run, which rebuilds the schedule from scratch.
func (r *AssignmentRepository) ReplaceAll(ctx context.Context, exec sqlx.ExtContext, assignments []models.StudentAssignment) error {
	if _, err := exec.ExecContext(ctx, `DELETE FROM student_assignments`); err != nil {
		return fmt.Errorf("clear assignments: %w", err)
	}
	return r.insertBatch(ctx, exec, assignments)
}

// InsertBatch inserts new rows using the given executor.
func (r *AssignmentRepository) InsertBatch(ctx context.Context, exec sqlx.ExtContext, assignments []models.StudentAssignment) error {
	return r.insertBatch(ctx, exec, assignments)
}

// UpdateBatch rewrites the mutable fields of existing rows using the given
// executor. The conflict resolver commits all repairs together or not at all.
func (r *AssignmentRepository) UpdateBatch(ctx context.Context, exec sqlx.ExtContext, assignments []models.StudentAssignment) error {
	now := time.Now().UTC()
	for i := range assignments {
		payload := assignments[i]
		payload.UpdatedAt = now
		if _, err := sqlx.NamedExecContext(ctx, exec, `UPDATE student_assignments SET event_id = :event_id, slot = :slot, room_name = :room_name, choice_no = :choice_no, updated_at = :updated_at WHERE id = :id`, &payload); err != nil {
			return fmt.Errorf("update assignment: %w", err)
		}
		assignments[i] = payload
	}
	return nil
}

func (r *AssignmentRepository) insertBatch(ctx context.Context, exec sqlx.ExtContext, assignments []models.StudentAssignment) error {
	now := time.Now().UTC()
	for i := range assignments {
		payload := assignments[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		payload.UpdatedAt = now
		if _, err := sqlx.NamedExecContext(ctx, exec, `INSERT INTO student_assignments (id, class_ref, first_name, last_name, event_id, slot, room_name, choice_no, updated_at) VALUES (:id, :class_ref, :first_name, :last_name, :event_id, :slot, :room_name, :choice_no, :updated_at)`, &payload); err != nil {
			return fmt.Errorf("insert assignment: %w", err)
		}
		assignments[i] = payload
	}
	return nil
}
