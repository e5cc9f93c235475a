package domain

import (
	"time"

	"github.com/google/uuid"
)

// Route is a saved, user-drawn path.
// AuthorName is only populated by the public listing.
type Route struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Name          string
	Description   string
	Type          ActivityType
	Distance      float64 // meters
	ElevationGain *float64
	Polyline      string
	IsPublic      bool
	AuthorName    string
	CreatedAt     time.Time
}
