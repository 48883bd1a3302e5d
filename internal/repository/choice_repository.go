package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/talentwerk/workshop-planner/internal/models"
)

// ChoiceRepository provides persistence for student choice rows.
type ChoiceRepository struct {
	db *sqlx.DB
}

// NewChoiceRepository creates a new choice repository.
func NewChoiceRepository(db *sqlx.DB) *ChoiceRepository {
	return &ChoiceRepository{db: db}
}

// ListAll returns every choice row ordered by id. Insertion order mirrors
// the import file order, which is the engine's only tie-break.
func (r *ChoiceRepository) ListAll(ctx context.Context) ([]models.Choice, error) {
	const query = `SELECT id, class_ref, first_name, last_name, choice1, choice2, choice3, choice4, choice5, choice6, created_at FROM choices ORDER BY id ASC`
	var choices []models.Choice
	if err := r.db.SelectContext(ctx, &choices, query); err != nil {
		return nil, fmt.Errorf("list choices: %w", err)
	}
	return choices, nil
}

// Count returns the number of imported students.
func (r *ChoiceRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM choices`); err != nil {
		return 0, fmt.Errorf("count choices: %w", err)
	}
	return total, nil
}

// Create stores a single choice row.
func (r *ChoiceRepository) Create(ctx context.Context, choice *models.Choice) error {
	if choice.CreatedAt.IsZero() {
		choice.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO choices (class_ref, first_name, last_name, choice1, choice2, choice3, choice4, choice5, choice6, created_at) VALUES (:class_ref, :first_name, :last_name, :choice1, :choice2, :choice3, :choice4, :choice5, :choice6, :created_at) RETURNING id`
	rows, err := r.db.NamedQueryContext(ctx, query, choice)
	if err != nil {
		return fmt.Errorf("create choice: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&choice.ID); err != nil {
			return fmt.Errorf("scan choice id: %w", err)
		}
	}
	return nil
}

// BulkCreate inserts many choice rows within a transaction, preserving the
// order of the payload.
func (r *ChoiceRepository) BulkCreate(ctx context.Context, choices []models.Choice) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk create choices: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	for i := range choices {
		payload := choices[i]
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		if _, err = sqlx.NamedExecContext(ctx, tx, `INSERT INTO choices (class_ref, first_name, last_name, choice1, choice2, choice3, choice4, choice5, choice6, created_at) VALUES (:class_ref, :first_name, :last_name, :choice1, :choice2, :choice3, :choice4, :choice5, :choice6, :created_at)`, &payload); err != nil {
			return fmt.Errorf("bulk insert choice: %w", err)
		}
		choices[i] = payload
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk create choices: %w", err)
	}
	return nil
}
