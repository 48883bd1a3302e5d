package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/talentwerk/workshop-planner/internal/models"
)

// EventRepository provides persistence for workshop events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates a new event repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// List returns events with optional filtering and pagination.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	base := "FROM events WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Company != "" {
		conditions = append(conditions, fmt.Sprintf("company = $%d", len(args)+1))
		args = append(args, filter.Company)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(company ILIKE $%d OR subject ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"id":               true,
		"company":          true,
		"max_participants": true,
		"created_at":       true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "id"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, company, subject, max_participants, min_participants, earliest_start, created_at %s ORDER BY %s %s LIMIT %d OFFSET %d", base, sortBy, order, size, offset)
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	return events, total, nil
}

// ListAll returns every event ordered by id. The engine loads the full set
// up front for a planning run.
func (r *EventRepository) ListAll(ctx context.Context) ([]models.Event, error) {
	const query = `SELECT id, company, subject, max_participants, min_participants, earliest_start, created_at FROM events ORDER BY id ASC`
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query); err != nil {
		return nil, fmt.Errorf("list all events: %w", err)
	}
	return events, nil
}

// FindByID loads an event by id.
func (r *EventRepository) FindByID(ctx context.Context, id int64) (*models.Event, error) {
	const query = `SELECT id, company, subject, max_participants, min_participants, earliest_start, created_at FROM events WHERE id = $1`
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// Create stores a new event record.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO events (id, company, subject, max_participants, min_participants, earliest_start, created_at) VALUES (:id, :company, :subject, :max_participants, :min_participants, :earliest_start, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// BulkCreate inserts many events within a transaction. Used by the import
// endpoint to load a full workshop catalogue in one call.
func (r *EventRepository) BulkCreate(ctx context.Context, events []models.Event) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk create events: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	for i := range events {
		payload := events[i]
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		if _, err = sqlx.NamedExecContext(ctx, tx, `INSERT INTO events (id, company, subject, max_participants, min_participants, earliest_start, created_at) VALUES (:id, :company, :subject, :max_participants, :min_participants, :earliest_start, :created_at)`, &payload); err != nil {
			return fmt.Errorf("bulk insert event: %w", err)
		}
		events[i] = payload
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk create events: %w", err)
	}
	return nil
}
