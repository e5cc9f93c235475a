package domain

import (
	"time"

	"github.com/google/uuid"
)

// PlanGoalType is what a training plan builds towards.
type PlanGoalType string

const (
	PlanGoalDistance PlanGoalType = "distance"
	PlanGoalTime     PlanGoalType = "time"
	PlanGoalRace     PlanGoalType = "race"
)

// TrainingPlan groups scheduled workouts between two dates.
type TrainingPlan struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	GoalType    PlanGoalType
	GoalValue   *float64
	IsActive    bool
	CreatedAt   time.Time
}

// Workout is one scheduled session inside a training plan.
// PlanName is populated by listing queries that join the parent plan.
type Workout struct {
	ID            uuid.UUID
	PlanID        uuid.UUID
	PlanName      string
	Title         string
	Description   string
	ScheduledDate time.Time
	IsCompleted   bool
	CreatedAt     time.Time
}
