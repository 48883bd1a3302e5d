package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/talentwerk/workshop-planner/internal/dto"
	"github.com/talentwerk/workshop-planner/internal/models"
	appErrors "github.com/talentwerk/workshop-planner/pkg/errors"
)

type plannerEventRepo interface {
	ListAll(ctx context.Context) ([]models.Event, error)
}

type plannerRoomRepo interface {
	ListAll(ctx context.Context) ([]models.Room, error)
}

type plannerChoiceRepo interface {
	ListAll(ctx context.Context) ([]models.Choice, error)
}

type plannerSlotRepo interface {
	ListAll(ctx context.Context) ([]models.TimeSlot, error)
}

type plannerDemandRepo interface {
	ListAll(ctx context.Context) ([]models.WorkshopDemand, error)
	ReplaceAll(ctx context.Context, exec sqlx.ExtContext, demands []models.WorkshopDemand) error
}

type plannerSessionRepo interface {
	ListAll(ctx context.Context) ([]models.EventSession, error)
	ReplaceAll(ctx context.Context, exec sqlx.ExtContext, sessions []models.EventSession) error
}

type plannerAssignmentRepo interface {
	ListAll(ctx context.Context) ([]models.StudentAssignment, error)
	ReplaceAll(ctx context.Context, exec sqlx.ExtContext, assignments []models.StudentAssignment) error
	InsertBatch(ctx context.Context, exec sqlx.ExtContext, assignments []models.StudentAssignment) error
	UpdateBatch(ctx context.Context, exec sqlx.ExtContext, assignments []models.StudentAssignment) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type timetableCache interface {
	GetTimetable(ctx context.Context) ([]dto.TimetableEntry, bool)
	SetTimetable(ctx context.Context, entries []dto.TimetableEntry)
	Invalidate(ctx context.Context)
}

type plannerMetrics interface {
	ObservePlannerRun(phase string, duration time.Duration, unresolved int)
}

// PlannerService orchestrates the four engine phases as a single-threaded
// batch: demand estimation, initial assignment, timetable building and
// conflict resolution. One run processes the full population sequentially;
// later phases depend on the completed state of earlier ones.
type PlannerService struct {
	events      plannerEventRepo
	rooms       plannerRoomRepo
	choices     plannerChoiceRepo
	slots       plannerSlotRepo
	demands     plannerDemandRepo
	sessions    plannerSessionRepo
	assignments plannerAssignmentRepo
	tx          txProvider
	cache       timetableCache
	metrics     plannerMetrics

	demandSvc    *DemandService
	placementSvc *PlacementService
	timetableSvc *TimetableService
	conflictSvc  *ConflictService

	logger *zap.Logger
}

// NewPlannerService wires the engine phases and their collaborators.
func NewPlannerService(
	events plannerEventRepo,
	rooms plannerRoomRepo,
	choices plannerChoiceRepo,
	slots plannerSlotRepo,
	demands plannerDemandRepo,
	sessions plannerSessionRepo,
	assignments plannerAssignmentRepo,
	tx txProvider,
	cache timetableCache,
	metrics plannerMetrics,
	logger *zap.Logger,
) *PlannerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlannerService{
		events:       events,
		rooms:        rooms,
		choices:      choices,
		slots:        slots,
		demands:      demands,
		sessions:     sessions,
		assignments:  assignments,
		tx:           tx,
		cache:        cache,
		metrics:      metrics,
		demandSvc:    NewDemandService(logger),
		placementSvc: NewPlacementService(logger),
		timetableSvc: NewTimetableService(logger),
		conflictSvc:  NewConflictService(logger),
		logger:       logger,
	}
}

type plannerInput struct {
	events  []models.Event
	rooms   []models.Room
	choices []models.Choice
	slots   []models.TimeSlot
}

func (s *PlannerService) loadInput(ctx context.Context) (*plannerInput, error) {
	events, err := s.events.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load events")
	}
	rooms, err := s.rooms.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	choices, err := s.choices.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load choices")
	}
	slots, err := s.slots.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time slots")
	}
	if len(slots) != len(models.SlotLabels) {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "time slots are not seeded")
	}
	if len(events) == 0 || len(choices) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "events and choices must be imported before planning")
	}
	return &plannerInput{events: events, rooms: rooms, choices: choices, slots: slots}, nil
}

// RunFullAssignment executes all four phases in order and persists the
// resulting schedule in one transaction. Data-quality and capacity problems
// are accumulated as diagnostics; only persistence failures abort, rolling
// the whole batch back.
func (s *PlannerService) RunFullAssignment(ctx context.Context) (*models.RunSummary, error) {
	start := time.Now()

	input, err := s.loadInput(ctx)
	if err != nil {
		return nil, err
	}

	demands, demandDiags := s.demandSvc.ComputeDemand(input.events, input.choices)
	plan := s.demandSvc.PlanSessions(input.events, demands)

	sessions, timetableDiags := s.timetableSvc.Build(input.events, input.rooms, input.slots, plan)

	raw, placementDiags := s.placementSvc.Assign(input.events, input.choices)
	s.placementSvc.Reconcile(raw, sessions, input.events, input.rooms)

	// Rows need identities before the resolver so its repairs merge back by id.
	for i := range raw {
		raw[i].ID = uuid.NewString()
	}
	outcome := s.conflictSvc.Resolve(input.events, input.rooms, sessions, input.choices, raw)
	final := rebuildRows(raw, outcome)
	finalDemands := s.conflictSvc.RecomputeDemands(input.events, final)

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin planner transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.demands.ReplaceAll(ctx, tx, finalDemands); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist demands")
	}
	if err = s.sessions.ReplaceAll(ctx, tx, sessions); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist sessions")
	}
	if err = s.assignments.ReplaceAll(ctx, tx, final); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist assignments")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit planner transaction")
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}

	diagnostics := append(append(demandDiags, timetableDiags...), placementDiags...)
	diagnostics = append(diagnostics, outcome.Diagnostics...)
	forced := lo.CountBy(final, func(r models.StudentAssignment) bool { return r.ChoiceNo == 0 && r.Resolved() })
	summary := &models.RunSummary{
		Students:           len(input.choices),
		Events:             len(input.events),
		SessionsPlanned:    len(sessions),
		AssignmentsCreated: len(final),
		AssignmentsForced:  forced,
		StudentsRepaired:   outcome.Repaired,
		Unresolved:         countUnresolvedStudents(outcome.Diagnostics),
		Diagnostics:        diagnostics,
		FinishedAt:         time.Now().UTC(),
	}

	if s.metrics != nil {
		s.metrics.ObservePlannerRun("full_run", time.Since(start), summary.Unresolved)
	}
	s.logger.Info("full assignment run finished",
		zap.Int("students", summary.Students),
		zap.Int("sessions", summary.SessionsPlanned),
		zap.Int("assignments", summary.AssignmentsCreated),
		zap.Int("repaired", summary.StudentsRepaired),
		zap.Int("unresolved", summary.Unresolved),
		zap.Duration("took", time.Since(start)))

	return summary, nil
}

// ResolveConflicts runs only the conflict resolver against the persisted
// schedule. All repaired rows are committed together or not at all, so a
// failed write never leaves the stored schedule half-mutated.
func (s *PlannerService) ResolveConflicts(ctx context.Context) (*models.RunSummary, error) {
	start := time.Now()

	input, err := s.loadInput(ctx)
	if err != nil {
		return nil, err
	}
	sessions, err := s.sessions.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sessions")
	}
	assignments, err := s.assignments.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}

	outcome := s.conflictSvc.Resolve(input.events, input.rooms, sessions, input.choices, assignments)

	final := rebuildRows(assignments, outcome)
	demands := s.conflictSvc.RecomputeDemands(input.events, final)

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin resolver transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.assignments.UpdateBatch(ctx, tx, outcome.Updated); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist repaired assignments")
	}
	if err = s.assignments.InsertBatch(ctx, tx, outcome.Created); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist forced assignments")
	}
	if err = s.demands.ReplaceAll(ctx, tx, demands); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist recomputed demands")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit resolver transaction")
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}

	unresolved := countUnresolvedStudents(outcome.Diagnostics)
	forced := lo.CountBy(final, func(r models.StudentAssignment) bool { return r.ChoiceNo == 0 && r.Resolved() })

	summary := &models.RunSummary{
		Students:          len(input.choices),
		Events:            len(input.events),
		SessionsPlanned:   len(sessions),
		StudentsRepaired:  outcome.Repaired,
		AssignmentsForced: forced,
		Unresolved:        unresolved,
		Diagnostics:       outcome.Diagnostics,
		FinishedAt:        time.Now().UTC(),
	}

	if s.metrics != nil {
		s.metrics.ObservePlannerRun("resolve_conflicts", time.Since(start), unresolved)
	}
	s.logger.Info("conflict resolution finished",
		zap.Int("repaired", outcome.Repaired),
		zap.Int("unresolved", unresolved),
		zap.Duration("took", time.Since(start)))

	return summary, nil
}

// VerifySchedules is the read-only diagnostic over the persisted schedule.
func (s *PlannerService) VerifySchedules(ctx context.Context) (*dto.VerifyResponse, error) {
	choices, err := s.choices.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load choices")
	}
	assignments, err := s.assignments.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}
	violations := s.conflictSvc.Verify(choices, assignments)
	return &dto.VerifyResponse{Violations: violations, Checked: len(choices)}, nil
}

// Demands returns the persisted per-event demand counts.
func (s *PlannerService) Demands(ctx context.Context) ([]models.WorkshopDemand, error) {
	demands, err := s.demands.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load demands")
	}
	return demands, nil
}

// Timetable returns the session grid enriched for display, cached until the
// next run rewrites the schedule.
func (s *PlannerService) Timetable(ctx context.Context) ([]dto.TimetableEntry, error) {
	if s.cache != nil {
		if entries, ok := s.cache.GetTimetable(ctx); ok {
			return entries, nil
		}
	}

	events, err := s.events.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load events")
	}
	rooms, err := s.rooms.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	slots, err := s.slots.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time slots")
	}
	sessions, err := s.sessions.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sessions")
	}
	assignments, err := s.assignments.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}

	entries := buildTimetableEntries(events, rooms, slots, sessions, assignments)

	if s.cache != nil {
		s.cache.SetTimetable(ctx, entries)
	}
	return entries, nil
}

func buildTimetableEntries(
	events []models.Event,
	rooms []models.Room,
	slots []models.TimeSlot,
	sessions []models.EventSession,
	assignments []models.StudentAssignment,
) []dto.TimetableEntry {
	eventsByID := lo.SliceToMap(events, func(e models.Event) (int64, models.Event) { return e.ID, e })
	roomsByName := lo.SliceToMap(rooms, func(r models.Room) (string, models.Room) { return r.Name, r })
	slotsByLabel := lo.SliceToMap(slots, func(s models.TimeSlot) (string, models.TimeSlot) { return s.Slot, s })

	headcount := make(map[string]int, len(sessions))
	for _, row := range assignments {
		if row.Resolved() {
			headcount[occKey(*row.RoomName, *row.Slot)]++
		}
	}

	entries := make([]dto.TimetableEntry, 0, len(sessions))
	for _, session := range sessions {
		event := eventsByID[session.EventID]
		slot := slotsByLabel[session.Slot]
		entries = append(entries, dto.TimetableEntry{
			Slot:      session.Slot,
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
			RoomName:  session.RoomName,
			EventID:   session.EventID,
			Company:   event.Company,
			Subject:   event.Subject,
			Headcount: headcount[occKey(session.RoomName, session.Slot)],
			Capacity:  roomsByName[session.RoomName].Capacity,
		})
	}
	return entries
}

// countUnresolvedStudents counts the distinct students behind unresolved
// diagnostics. One student can fail both a row repair and the top-up and must
// still count once.
func countUnresolvedStudents(diagnostics []models.Diagnostic) int {
	seen := make(map[string]bool)
	for _, d := range diagnostics {
		if d.Kind != models.DiagnosticUnresolvedStudent || d.Student == nil {
			continue
		}
		seen[d.Student.Key()] = true
	}
	return len(seen)
}

// rebuildRows merges resolver mutations back into the loaded row set for
// demand recomputation.
func rebuildRows(rows []models.StudentAssignment, outcome ResolveOutcome) []models.StudentAssignment {
	updated := lo.SliceToMap(outcome.Updated, func(r models.StudentAssignment) (string, models.StudentAssignment) { return r.ID, r })

	final := make([]models.StudentAssignment, 0, len(rows)+len(outcome.Created))
	for _, row := range rows {
		if repl, ok := updated[row.ID]; ok {
			final = append(final, repl)
			continue
		}
		final = append(final, row)
	}
	final = append(final, outcome.Created...)
	return final
}
