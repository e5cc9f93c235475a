package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/stridelog/internal/domain"
	"github.com/pkordes/stridelog/internal/service"
)

var goalNow = time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)

func newGoalService(goals *mockGoalRepo, activities *mockActivityRepo) *service.GoalService {
	svc := service.NewGoalService(goals, activities)
	svc.SetClock(fixedClock(goalNow))
	return svc
}

func echoGoalRepo() *mockGoalRepo {
	return &mockGoalRepo{
		create: func(_ context.Context, g domain.Goal) (domain.Goal, error) { return g, nil },
	}
}

func TestGoalService_Create_EndDateFollowsPeriod(t *testing.T) {
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		period domain.GoalPeriod
		want   time.Time
	}{
		{domain.PeriodWeekly, time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC)},
		{domain.PeriodMonthly, time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)},
		{domain.PeriodYearly, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			svc := newGoalService(echoGoalRepo(), nil)

			got, err := svc.Create(context.Background(), uuid.New(), service.GoalInput{
				Title: "Run more", Type: domain.GoalDistance, TargetValue: 50, Period: tt.period,
			})

			require.NoError(t, err)
			assert.Equal(t, start, got.StartDate)
			assert.Equal(t, tt.want, got.EndDate)
			assert.True(t, got.IsActive)
			assert.Zero(t, got.CurrentValue)
		})
	}
}

func TestGoalService_Create_Validation(t *testing.T) {
	valid := service.GoalInput{Title: "x", Type: domain.GoalTime, TargetValue: 5, Period: domain.PeriodWeekly}
	tests := []struct {
		name   string
		mutate func(*service.GoalInput)
	}{
		{"blank title", func(in *service.GoalInput) { in.Title = "  " }},
		{"unknown type", func(in *service.GoalInput) { in.Type = "pace" }},
		{"zero target", func(in *service.GoalInput) { in.TargetValue = 0 }},
		{"negative target", func(in *service.GoalInput) { in.TargetValue = -3 }},
		{"unknown period", func(in *service.GoalInput) { in.Period = "daily" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			// create is unset: a repo call would panic.
			svc := newGoalService(&mockGoalRepo{}, nil)

			_, err := svc.Create(context.Background(), uuid.New(), in)

			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestSummarize(t *testing.T) {
	t.Run("no goals", func(t *testing.T) {
		got := service.Summarize(nil)
		assert.Equal(t, domain.GoalSummary{}, got)
	})

	t.Run("mixed", func(t *testing.T) {
		got := service.Summarize([]domain.Goal{
			{TargetValue: 100, CurrentValue: 100},
			{TargetValue: 10, CurrentValue: 5},
			{TargetValue: 4, CurrentValue: 6},
		})
		assert.Equal(t, 3, got.Total)
		assert.Equal(t, 2, got.Completed)
		assert.InDelta(t, (100.0+50+150)/3, got.AverageProgress, 1e-9)
	})
}

func TestGoalService_Refresh_Measures(t *testing.T) {
	activities := []domain.Activity{
		{Distance: 5000, Duration: 1800},
		{Distance: 10500, Duration: 3600},
	}
	tests := []struct {
		goalType domain.GoalType
		want     float64
	}{
		{domain.GoalDistance, 15.5},
		{domain.GoalTime, 1.5},
		{domain.GoalActivities, 2},
	}
	for _, tt := range tests {
		t.Run(string(tt.goalType), func(t *testing.T) {
			userID, goalID := uuid.New(), uuid.New()
			start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
			end := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

			var from, to time.Time
			var stored float64
			goals := &mockGoalRepo{
				getByID: func(_ context.Context, _, _ uuid.UUID) (domain.Goal, error) {
					return domain.Goal{ID: goalID, Type: tt.goalType, StartDate: start, EndDate: end}, nil
				},
				setCurrentValue: func(_ context.Context, _, _ uuid.UUID, v float64) (domain.Goal, error) {
					stored = v
					return domain.Goal{ID: goalID, CurrentValue: v}, nil
				},
			}
			acts := &mockActivityRepo{
				listBetween: func(_ context.Context, _ uuid.UUID, f, t time.Time) ([]domain.Activity, error) {
					from, to = f, t
					return activities, nil
				},
			}

			got, err := newGoalService(goals, acts).Refresh(context.Background(), userID, goalID)

			require.NoError(t, err)
			assert.InDelta(t, tt.want, stored, 1e-9)
			assert.InDelta(t, tt.want, got.CurrentValue, 1e-9)
			assert.Equal(t, start, from)
			assert.Equal(t, end.AddDate(0, 0, 1), to, "end date is inclusive")
		})
	}
}

func TestGoalService_Refresh_NotFound(t *testing.T) {
	goals := &mockGoalRepo{
		getByID: func(_ context.Context, _, _ uuid.UUID) (domain.Goal, error) {
			return domain.Goal{}, domain.ErrNotFound
		},
	}

	_, err := newGoalService(goals, nil).Refresh(context.Background(), uuid.New(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGoalService_List_EmptyIsNotNil(t *testing.T) {
	goals := &mockGoalRepo{
		listActive: func(_ context.Context, _ uuid.UUID) ([]domain.Goal, error) { return nil, nil },
	}

	got, err := newGoalService(goals, nil).List(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGoalService_Progress_RepoError(t *testing.T) {
	boom := errors.New("db down")
	goals := &mockGoalRepo{
		listActive: func(_ context.Context, _ uuid.UUID) ([]domain.Goal, error) { return nil, boom },
	}

	_, err := newGoalService(goals, nil).Progress(context.Background(), uuid.New())

	assert.ErrorIs(t, err, boom)
}
