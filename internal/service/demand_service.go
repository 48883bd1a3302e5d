package service

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/talentwerk/workshop-planner/internal/models"
)

var eventRefPattern = regexp.MustCompile(`\d+`)

// parseEventRef extracts the numeric event identifier embedded in a raw
// choice token. The import data carries free text like "12 - Robotics Lab";
// the first numeric token is the reference.
func parseEventRef(raw string) (int64, bool) {
	token := eventRefPattern.FindString(raw)
	if token == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// DemandService counts per-event demand and derives how many parallel
// sessions each workshop needs.
type DemandService struct {
	logger *zap.Logger
}

// NewDemandService constructs the demand estimator.
func NewDemandService(logger *zap.Logger) *DemandService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DemandService{logger: logger}
}

// ComputeDemand counts, per event, how many students listed the event at any
// priority. Demand is priority-agnostic. Malformed or dangling choice tokens
// are reported as diagnostics and skipped; they never abort the run. The
// result covers every event, including those with zero demand.
func (s *DemandService) ComputeDemand(events []models.Event, choices []models.Choice) ([]models.WorkshopDemand, []models.Diagnostic) {
	known := lo.SliceToMap(events, func(e models.Event) (int64, models.Event) { return e.ID, e })
	counts := make(map[int64]int, len(events))

	var diagnostics []models.Diagnostic
	for _, choice := range choices {
		for priority := 1; priority <= models.ChoiceCount; priority++ {
			raw := choice.ChoiceAt(priority)
			if raw == "" {
				continue
			}
			id, ok := parseEventRef(raw)
			if !ok {
				student := choice.Student()
				s.logger.Warn("unparsable choice token",
					zap.String("student", student.String()),
					zap.Int("priority", priority),
					zap.String("token", raw))
				diagnostics = append(diagnostics, models.Diagnostic{
					Kind:    models.DiagnosticInvalidChoice,
					Message: fmt.Sprintf("choice %d of %s has no event reference: %q", priority, student.String(), raw),
					Student: &student,
				})
				continue
			}
			if _, exists := known[id]; !exists {
				student := choice.Student()
				diagnostics = append(diagnostics, models.Diagnostic{
					Kind:    models.DiagnosticInvalidChoice,
					Message: fmt.Sprintf("choice %d of %s references unknown event %d", priority, student.String(), id),
					EventID: id,
					Student: &student,
				})
				continue
			}
			counts[id]++
		}
	}

	demands := lo.Map(events, func(e models.Event, _ int) models.WorkshopDemand {
		return models.WorkshopDemand{EventID: e.ID, Company: e.Company, Demand: counts[e.ID]}
	})
	return demands, diagnostics
}

// SessionsNeeded converts demand and per-session capacity into the number of
// parallel repetitions a workshop requires. The first session exists as soon
// as there is any capacity; further sessions are added only once the previous
// one is provably full. Ceiling division, not a bin-packing optimum.
func (s *DemandService) SessionsNeeded(demand, capacity int) int {
	if capacity <= 0 {
		return 0
	}
	if demand <= capacity {
		return 1
	}
	rest := demand - capacity
	return (rest+capacity-1)/capacity + 1
}

// PlanSessions maps every event to its required session count. Events
// nobody chose get a count of zero and are skipped by the timetable builder.
func (s *DemandService) PlanSessions(events []models.Event, demands []models.WorkshopDemand) map[int64]int {
	byEvent := lo.SliceToMap(demands, func(d models.WorkshopDemand) (int64, int) { return d.EventID, d.Demand })

	plan := make(map[int64]int, len(events))
	for _, event := range events {
		demand := byEvent[event.ID]
		if demand == 0 {
			plan[event.ID] = 0
			continue
		}
		plan[event.ID] = s.SessionsNeeded(demand, event.MaxParticipants)
	}
	return plan
}
