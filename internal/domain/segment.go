package domain

import (
	"time"

	"github.com/google/uuid"
)

// Segment is a predefined stretch of road or trail that efforts are timed on.
type Segment struct {
	ID            uuid.UUID
	Name          string
	Type          ActivityType
	Distance      float64
	ElevationGain float64
	CreatedAt     time.Time
}

// SegmentEffort is one timed attempt at a segment.
type SegmentEffort struct {
	ID               uuid.UUID
	SegmentID        uuid.UUID
	UserID           uuid.UUID
	AthleteName      string
	ElapsedTime      int // seconds
	AverageHeartRate *float64
	MaxHeartRate     *float64
	StartDate        time.Time
}

// SegmentStats is a user's best effort on a segment plus the total number
// of efforts anyone has recorded. Best is nil when the user has none.
type SegmentStats struct {
	Best         *SegmentEffort
	TotalEfforts int
}
