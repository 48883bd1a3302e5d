package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/talentwerk/workshop-planner/internal/models"
)

// DemandRepository persists derived per-event demand counts.
type DemandRepository struct {
	db *sqlx.DB
}

// NewDemandRepository creates a new demand repository.
func NewDemandRepository(db *sqlx.DB) *DemandRepository {
	return &DemandRepository{db: db}
}

// ListAll returns demand counts ordered by event id.
func (r *DemandRepository) ListAll(ctx context.Context) ([]models.WorkshopDemand, error) {
	const query = `SELECT event_id, company, demand FROM workshop_demands ORDER BY event_id ASC`
	var demands []models.WorkshopDemand
	if err := r.db.SelectContext(ctx, &demands, query); err != nil {
		return nil, fmt.Errorf("list demands: %w", err)
	}
	return demands, nil
}

// ReplaceAll overwrites the stored demand counts using the given executor.
// Demand is derived state; recomputation always replaces, never appends.
func (r *DemandRepository) ReplaceAll(ctx context.Context, exec sqlx.ExtContext, demands []models.WorkshopDemand) error {
	if _, err := exec.ExecContext(ctx, `DELETE FROM workshop_demands`); err != nil {
		return fmt.Errorf("clear demands: %w", err)
	}
	for i := range demands {
		if _, err := sqlx.NamedExecContext(ctx, exec, `INSERT INTO workshop_demands (event_id, company, demand) VALUES (:event_id, :company, :demand)`, &demands[i]); err != nil {
			return fmt.Errorf("insert demand: %w", err)
		}
	}
	return nil
}
