package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/stridelog/internal/domain"
	"github.com/pkordes/stridelog/internal/repo"
)

// GoalInput is the user-supplied part of a new goal.
type GoalInput struct {
	Title       string
	Description string
	Type        domain.GoalType
	TargetValue float64
	Period      domain.GoalPeriod
}

// GoalService implements goal creation, listing and progress.
type GoalService struct {
	goals      repo.GoalRepo
	activities repo.ActivityRepo
	now        Clock
}

// NewGoalService constructs a GoalService. The activity repo is used to
// recompute progress.
func NewGoalService(goals repo.GoalRepo, activities repo.ActivityRepo) *GoalService {
	return &GoalService{goals: goals, activities: activities, now: utcNow}
}

// Create starts a goal today; the end date follows from the period.
func (s *GoalService) Create(ctx context.Context, userID uuid.UUID, in GoalInput) (domain.Goal, error) {
	if blank(in.Title) {
		return domain.Goal{}, invalid("title is required")
	}
	switch in.Type {
	case domain.GoalDistance, domain.GoalActivities, domain.GoalTime:
	default:
		return domain.Goal{}, invalid("goal_type must be one of distance, activities, time")
	}
	if !(in.TargetValue > 0) {
		return domain.Goal{}, invalid("target_value must be greater than 0")
	}

	start := today(s.now())
	end, ok := in.Period.EndDate(start)
	if !ok {
		return domain.Goal{}, invalid("period must be one of weekly, monthly, yearly")
	}

	g, err := s.goals.Create(ctx, domain.Goal{
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		Type:        in.Type,
		TargetValue: in.TargetValue,
		Period:      in.Period,
		StartDate:   start,
		EndDate:     end,
		IsActive:    true,
	})
	if err != nil {
		return domain.Goal{}, fmt.Errorf("service.GoalService.Create: %w", err)
	}
	return g, nil
}

// List returns the user's active goals, newest first.
func (s *GoalService) List(ctx context.Context, userID uuid.UUID) ([]domain.Goal, error) {
	goals, err := s.goals.ListActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.GoalService.List: %w", err)
	}
	return nonNil(goals), nil
}

// Delete removes one of the user's goals.
func (s *GoalService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.goals.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("service.GoalService.Delete: %w", err)
	}
	return nil
}

// Progress summarises the user's active goals.
func (s *GoalService) Progress(ctx context.Context, userID uuid.UUID) (domain.GoalSummary, error) {
	goals, err := s.goals.ListActive(ctx, userID)
	if err != nil {
		return domain.GoalSummary{}, fmt.Errorf("service.GoalService.Progress: %w", err)
	}
	return Summarize(goals), nil
}

// Summarize counts goals, completed goals and the mean progress percentage.
func Summarize(goals []domain.Goal) domain.GoalSummary {
	sum := domain.GoalSummary{Total: len(goals)}
	if len(goals) == 0 {
		return sum
	}
	var total float64
	for _, g := range goals {
		if g.Completed() {
			sum.Completed++
		}
		total += g.Progress()
	}
	sum.AverageProgress = total / float64(len(goals))
	return sum
}

// Refresh recomputes a goal's current value from the activities that started
// between its start and end dates, both inclusive.
func (s *GoalService) Refresh(ctx context.Context, userID, id uuid.UUID) (domain.Goal, error) {
	g, err := s.goals.GetByID(ctx, userID, id)
	if err != nil {
		return domain.Goal{}, fmt.Errorf("service.GoalService.Refresh: %w", err)
	}

	activities, err := s.activities.ListBetween(ctx, userID, g.StartDate, g.EndDate.AddDate(0, 0, 1))
	if err != nil {
		return domain.Goal{}, fmt.Errorf("service.GoalService.Refresh: %w", err)
	}

	updated, err := s.goals.SetCurrentValue(ctx, userID, id, measure(g.Type, activities))
	if err != nil {
		return domain.Goal{}, fmt.Errorf("service.GoalService.Refresh: %w", err)
	}
	return updated, nil
}

// measure converts activities into goal units: kilometres, hours or a count.
func measure(t domain.GoalType, activities []domain.Activity) float64 {
	var v float64
	for _, a := range activities {
		switch t {
		case domain.GoalDistance:
			v += a.Distance / 1000
		case domain.GoalTime:
			v += float64(a.Duration) / 3600
		case domain.GoalActivities:
			v++
		}
	}
	return v
}
