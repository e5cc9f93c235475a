package domain

import (
	"time"

	"github.com/google/uuid"
)

// GoalType selects what a goal measures.
type GoalType string

const (
	GoalDistance   GoalType = "distance"   // kilometres
	GoalActivities GoalType = "activities" // count
	GoalTime       GoalType = "time"       // hours
)

// GoalPeriod is the window a goal runs over, starting on the creation day.
type GoalPeriod string

const (
	PeriodWeekly  GoalPeriod = "weekly"
	PeriodMonthly GoalPeriod = "monthly"
	PeriodYearly  GoalPeriod = "yearly"
)

// EndDate returns the last day of a goal that starts on start.
func (p GoalPeriod) EndDate(start time.Time) (time.Time, bool) {
	switch p {
	case PeriodWeekly:
		return start.AddDate(0, 0, 7), true
	case PeriodMonthly:
		return start.AddDate(0, 1, 0), true
	case PeriodYearly:
		return start.AddDate(1, 0, 0), true
	}
	return time.Time{}, false
}

// Goal is a user target such as "run 50 km this month".
type Goal struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Title        string
	Description  string
	Type         GoalType
	TargetValue  float64
	CurrentValue float64
	Period       GoalPeriod
	StartDate    time.Time
	EndDate      time.Time
	IsActive     bool
	CreatedAt    time.Time
}

// Progress returns CurrentValue as a percentage of TargetValue.
func (g Goal) Progress() float64 {
	if g.TargetValue <= 0 {
		return 0
	}
	return g.CurrentValue / g.TargetValue * 100
}

// Completed reports whether the target has been reached.
func (g Goal) Completed() bool {
	return g.CurrentValue >= g.TargetValue
}

// GoalSummary is the headline numbers shown above the goal list.
type GoalSummary struct {
	Total           int
	Completed       int
	AverageProgress float64
}
