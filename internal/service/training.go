package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/stridelog/internal/domain"
	"github.com/pkordes/stridelog/internal/repo"
)

// PlanInput is the user-supplied part of a new training plan.
type PlanInput struct {
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	GoalType    domain.PlanGoalType
	GoalValue   *float64
}

// WorkoutInput is the user-supplied part of a new workout.
type WorkoutInput struct {
	Title         string
	Description   string
	ScheduledDate time.Time
}

// TrainingService implements training plans and their workouts.
type TrainingService struct {
	repo repo.TrainingRepo
}

// NewTrainingService constructs a TrainingService backed by the provided repo.
func NewTrainingService(r repo.TrainingRepo) *TrainingService {
	return &TrainingService{repo: r}
}

// CreatePlan validates and persists a plan.
//   - Name must be non-empty.
//   - EndDate must not be before StartDate; a one-day plan is valid.
//   - GoalValue, if set, must be positive.
func (s *TrainingService) CreatePlan(ctx context.Context, userID uuid.UUID, in PlanInput) (domain.TrainingPlan, error) {
	if blank(in.Name) {
		return domain.TrainingPlan{}, invalid("name is required")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return domain.TrainingPlan{}, invalid("start_date and end_date are required")
	}
	if in.EndDate.Before(in.StartDate) {
		return domain.TrainingPlan{}, invalid("end_date must not be before start_date")
	}
	switch in.GoalType {
	case domain.PlanGoalDistance, domain.PlanGoalTime, domain.PlanGoalRace:
	default:
		return domain.TrainingPlan{}, invalid("goal_type must be one of distance, time, race")
	}
	if in.GoalValue != nil && !(*in.GoalValue > 0) {
		return domain.TrainingPlan{}, invalid("goal_value must be greater than 0")
	}

	plan, err := s.repo.CreatePlan(ctx, domain.TrainingPlan{
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		GoalType:    in.GoalType,
		GoalValue:   in.GoalValue,
		IsActive:    true,
	})
	if err != nil {
		return domain.TrainingPlan{}, fmt.Errorf("service.TrainingService.CreatePlan: %w", err)
	}
	return plan, nil
}

// ListPlans returns the user's plans.
func (s *TrainingService) ListPlans(ctx context.Context, userID uuid.UUID) ([]domain.TrainingPlan, error) {
	plans, err := s.repo.ListPlans(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.TrainingService.ListPlans: %w", err)
	}
	return nonNil(plans), nil
}

// DeletePlan removes a plan and its workouts.
func (s *TrainingService) DeletePlan(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.DeletePlan(ctx, userID, id); err != nil {
		return fmt.Errorf("service.TrainingService.DeletePlan: %w", err)
	}
	return nil
}

// AddWorkout schedules a workout inside one of the user's plans.
// The date must fall within the plan's range.
func (s *TrainingService) AddWorkout(ctx context.Context, userID, planID uuid.UUID, in WorkoutInput) (domain.Workout, error) {
	plan, err := s.repo.GetPlan(ctx, userID, planID)
	if err != nil {
		return domain.Workout{}, fmt.Errorf("service.TrainingService.AddWorkout: %w", err)
	}
	if blank(in.Title) {
		return domain.Workout{}, invalid("title is required")
	}
	if in.ScheduledDate.Before(plan.StartDate) || in.ScheduledDate.After(plan.EndDate) {
		return domain.Workout{}, invalid("scheduled_date must be between %s and %s",
			plan.StartDate.Format(time.DateOnly), plan.EndDate.Format(time.DateOnly))
	}

	w, err := s.repo.CreateWorkout(ctx, domain.Workout{
		PlanID:        plan.ID,
		Title:         in.Title,
		Description:   in.Description,
		ScheduledDate: in.ScheduledDate,
	})
	if err != nil {
		return domain.Workout{}, fmt.Errorf("service.TrainingService.AddWorkout: %w", err)
	}
	return w, nil
}

// Upcoming returns incomplete workouts across the user's plans, soonest first.
func (s *TrainingService) Upcoming(ctx context.Context, userID uuid.UUID) ([]domain.Workout, error) {
	workouts, err := s.repo.ListUpcoming(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.TrainingService.Upcoming: %w", err)
	}
	return nonNil(workouts), nil
}

// Complete marks one of the user's workouts as done.
func (s *TrainingService) Complete(ctx context.Context, userID, workoutID uuid.UUID) (domain.Workout, error) {
	w, err := s.repo.CompleteWorkout(ctx, userID, workoutID)
	if err != nil {
		return domain.Workout{}, fmt.Errorf("service.TrainingService.Complete: %w", err)
	}
	return w, nil
}
