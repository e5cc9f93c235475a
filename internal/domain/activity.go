// Package domain contains the core data types for the Stridelog API.
// This package depends only on uuid and is imported by every other
// internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActivityType is the coarse sport classification used across the dashboard.
type ActivityType string

const (
	ActivityRun   ActivityType = "run"
	ActivityRide  ActivityType = "ride"
	ActivitySwim  ActivityType = "swim"
	ActivityOther ActivityType = "other"
)

// Valid reports whether t is one of the known activity types.
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityRun, ActivityRide, ActivitySwim, ActivityOther:
		return true
	}
	return false
}

// Activity is a single recorded workout, usually synced from Strava.
// Optional metrics are nil when the source did not report them.
type Activity struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	StravaID         *int64
	ExternalSource   string
	Title            string
	Type             ActivityType
	Distance         float64 // meters
	Duration         int     // moving time, seconds
	ElevationGain    *float64
	AverageSpeed     *float64 // m/s
	MaxSpeed         *float64
	AverageHeartRate *float64
	MaxHeartRate     *float64
	Calories         *float64
	StartDate        time.Time
	Polyline         string
	CreatedAt        time.Time
}

// ActivityPatch carries the fields a sync event supplied. Nil fields are
// left untouched on update and stored as NULL/zero on insert.
type ActivityPatch struct {
	Title            *string
	Type             *ActivityType
	Distance         *float64
	Duration         *int
	ElevationGain    *float64
	AverageSpeed     *float64
	MaxSpeed         *float64
	AverageHeartRate *float64
	MaxHeartRate     *float64
	Calories         *float64
	StartDate        *time.Time
	Polyline         *string
}

// ActivityStats aggregates a user's activities over a window.
type ActivityStats struct {
	Since         time.Time
	Count         int
	Distance      float64 // meters
	Duration      int     // seconds
	ElevationGain float64
	Calories      float64

	// Heart rate over the activities that recorded it; nil when none did.
	AverageHeartRate *float64
	MaxHeartRate     *float64
}
