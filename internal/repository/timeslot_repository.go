package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/talentwerk/workshop-planner/internal/models"
)

// TimeSlotRepository provides read access to the fixed five-slot day.
type TimeSlotRepository struct {
	db *sqlx.DB
}

// NewTimeSlotRepository creates a new time slot repository.
func NewTimeSlotRepository(db *sqlx.DB) *TimeSlotRepository {
	return &TimeSlotRepository{db: db}
}

// ListAll returns the time slots in chronological (label) order.
func (r *TimeSlotRepository) ListAll(ctx context.Context) ([]models.TimeSlot, error) {
	const query = `SELECT slot, start_time, end_time FROM time_slots ORDER BY slot ASC`
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query); err != nil {
		return nil, fmt.Errorf("list time slots: %w", err)
	}
	return slots, nil
}

// SeedDefaults inserts the five fixed slots if the table is empty. The guard
// makes startup seeding idempotent; the rows are never mutated afterwards.
func (r *TimeSlotRepository) SeedDefaults(ctx context.Context) (err error) {
	var total int
	if err = r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM time_slots`); err != nil {
		return fmt.Errorf("count time slots: %w", err)
	}
	if total > 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed time slots: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, slot := range models.DefaultTimeSlots() {
		if _, err = sqlx.NamedExecContext(ctx, tx, `INSERT INTO time_slots (slot, start_time, end_time) VALUES (:slot, :start_time, :end_time)`, &slot); err != nil {
			return fmt.Errorf("seed time slot: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit seed time slots: %w", err)
	}
	return nil
}
