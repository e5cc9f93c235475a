package handler

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/stridelog/internal/domain"
	"github.com/pkordes/stridelog/internal/geo"
	"github.com/pkordes/stridelog/internal/routeeditor"
	"github.com/pkordes/stridelog/internal/service"
)

// Wire types for request and response bodies. Field names follow the
// snake_case JSON used by the dashboard.

// Pagination describes one page of a list response.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// ---- activities -------------------------------------------------------------

// Activity is the JSON form of domain.Activity.
type Activity struct {
	ID               uuid.UUID           `json:"id"`
	StravaID         *int64              `json:"strava_id,omitempty"`
	ExternalSource   string              `json:"external_source,omitempty"`
	Title            string              `json:"title"`
	ActivityType     domain.ActivityType `json:"activity_type"`
	Distance         float64             `json:"distance"`
	Duration         int                 `json:"duration"`
	ElevationGain    *float64            `json:"elevation_gain,omitempty"`
	AverageSpeed     *float64            `json:"average_speed,omitempty"`
	MaxSpeed         *float64            `json:"max_speed,omitempty"`
	AverageHeartRate *float64            `json:"average_heart_rate,omitempty"`
	MaxHeartRate     *float64            `json:"max_heart_rate,omitempty"`
	Calories         *float64            `json:"calories,omitempty"`
	StartDate        time.Time           `json:"start_date"`
	Polyline         string              `json:"polyline,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
}

// ActivityDetail adds the decoded route to an Activity.
type ActivityDetail struct {
	Activity
	Waypoints    []geo.Point `json:"waypoints"`
	PathDistance float64     `json:"path_distance"`
}

// ActivityList is one page of activities.
type ActivityList struct {
	Data       []Activity `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// ActivityStats is the dashboard overview.
type ActivityStats struct {
	Since         time.Time `json:"since"`
	Count         int       `json:"count"`
	Distance      float64   `json:"distance"`
	Duration      int       `json:"duration"`
	ElevationGain float64   `json:"elevation_gain"`
	Calories      float64   `json:"calories"`

	AverageHeartRate *float64 `json:"avg_heart_rate"`
	MaxHeartRate     *float64 `json:"max_heart_rate"`
}

func activityToResponse(a domain.Activity) Activity {
	return Activity{
		ID:               a.ID,
		StravaID:         a.StravaID,
		ExternalSource:   a.ExternalSource,
		Title:            a.Title,
		ActivityType:     a.Type,
		Distance:         a.Distance,
		Duration:         a.Duration,
		ElevationGain:    a.ElevationGain,
		AverageSpeed:     a.AverageSpeed,
		MaxSpeed:         a.MaxSpeed,
		AverageHeartRate: a.AverageHeartRate,
		MaxHeartRate:     a.MaxHeartRate,
		Calories:         a.Calories,
		StartDate:        a.StartDate,
		Polyline:         a.Polyline,
		CreatedAt:        a.CreatedAt,
	}
}

func activityDetailToResponse(d service.ActivityDetail) ActivityDetail {
	return ActivityDetail{
		Activity:     activityToResponse(d.Activity),
		Waypoints:    d.Waypoints,
		PathDistance: d.PathDistance,
	}
}

// ---- goals ------------------------------------------------------------------

// CreateGoalRequest is the body of POST /api/goals.
type CreateGoalRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	GoalType    domain.GoalType   `json:"goal_type"`
	TargetValue float64           `json:"target_value"`
	Period      domain.GoalPeriod `json:"period"`
}

// Goal is the JSON form of domain.Goal.
type Goal struct {
	ID           uuid.UUID          `json:"id"`
	Title        string             `json:"title"`
	Description  string             `json:"description,omitempty"`
	GoalType     domain.GoalType    `json:"goal_type"`
	TargetValue  float64            `json:"target_value"`
	CurrentValue float64            `json:"current_value"`
	Progress     float64            `json:"progress"`
	Period       domain.GoalPeriod  `json:"period"`
	StartDate    openapi_types.Date `json:"start_date"`
	EndDate      openapi_types.Date `json:"end_date"`
	IsActive     bool               `json:"is_active"`
	CreatedAt    time.Time          `json:"created_at"`
}

// GoalProgress is the summary above the goal list.
type GoalProgress struct {
	Total           int     `json:"total"`
	Completed       int     `json:"completed"`
	AverageProgress float64 `json:"average_progress"`
}

func goalToResponse(g domain.Goal) Goal {
	return Goal{
		ID:           g.ID,
		Title:        g.Title,
		Description:  g.Description,
		GoalType:     g.Type,
		TargetValue:  g.TargetValue,
		CurrentValue: g.CurrentValue,
		Progress:     g.Progress(),
		Period:       g.Period,
		StartDate:    openapi_types.Date{Time: g.StartDate},
		EndDate:      openapi_types.Date{Time: g.EndDate},
		IsActive:     g.IsActive,
		CreatedAt:    g.CreatedAt,
	}
}

// ---- training ---------------------------------------------------------------

// CreatePlanRequest is the body of POST /api/training-plans.
type CreatePlanRequest struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	StartDate   openapi_types.Date  `json:"start_date"`
	EndDate     openapi_types.Date  `json:"end_date"`
	GoalType    domain.PlanGoalType `json:"goal_type"`
	GoalValue   *float64            `json:"goal_value"`
}

// TrainingPlan is the JSON form of domain.TrainingPlan.
type TrainingPlan struct {
	ID          uuid.UUID           `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	StartDate   openapi_types.Date  `json:"start_date"`
	EndDate     openapi_types.Date  `json:"end_date"`
	GoalType    domain.PlanGoalType `json:"goal_type"`
	GoalValue   *float64            `json:"goal_value,omitempty"`
	IsActive    bool                `json:"is_active"`
	CreatedAt   time.Time           `json:"created_at"`
}

// CreateWorkoutRequest is the body of POST /api/training-plans/{id}/workouts.
type CreateWorkoutRequest struct {
	Title         string             `json:"title"`
	Description   string             `json:"description"`
	ScheduledDate openapi_types.Date `json:"scheduled_date"`
}

// Workout is the JSON form of domain.Workout.
type Workout struct {
	ID            uuid.UUID          `json:"id"`
	PlanID        uuid.UUID          `json:"plan_id"`
	PlanName      string             `json:"plan_name,omitempty"`
	Title         string             `json:"title"`
	Description   string             `json:"description,omitempty"`
	ScheduledDate openapi_types.Date `json:"scheduled_date"`
	IsCompleted   bool               `json:"is_completed"`
	CreatedAt     time.Time          `json:"created_at"`
}

func planToResponse(p domain.TrainingPlan) TrainingPlan {
	return TrainingPlan{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		StartDate:   openapi_types.Date{Time: p.StartDate},
		EndDate:     openapi_types.Date{Time: p.EndDate},
		GoalType:    p.GoalType,
		GoalValue:   p.GoalValue,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
	}
}

func workoutToResponse(w domain.Workout) Workout {
	return Workout{
		ID:            w.ID,
		PlanID:        w.PlanID,
		PlanName:      w.PlanName,
		Title:         w.Title,
		Description:   w.Description,
		ScheduledDate: openapi_types.Date{Time: w.ScheduledDate},
		IsCompleted:   w.IsCompleted,
		CreatedAt:     w.CreatedAt,
	}
}

// ---- segments ---------------------------------------------------------------

// Segment is the JSON form of domain.Segment.
type Segment struct {
	ID            uuid.UUID           `json:"id"`
	Name          string              `json:"name"`
	ActivityType  domain.ActivityType `json:"activity_type"`
	Distance      float64             `json:"distance"`
	ElevationGain float64             `json:"elevation_gain"`
	CreatedAt     time.Time           `json:"created_at"`
}

// SegmentEffort is the JSON form of domain.SegmentEffort.
type SegmentEffort struct {
	ID               uuid.UUID `json:"id"`
	UserID           uuid.UUID `json:"user_id"`
	AthleteName      string    `json:"athlete_name,omitempty"`
	ElapsedTime      int       `json:"elapsed_time"`
	AverageHeartRate *float64  `json:"average_heart_rate,omitempty"`
	MaxHeartRate     *float64  `json:"max_heart_rate,omitempty"`
	StartDate        time.Time `json:"start_date"`
}

// SegmentStats is the caller's best effort and the segment's effort count.
type SegmentStats struct {
	BestEffort   *SegmentEffort `json:"best_effort"`
	TotalEfforts int            `json:"total_efforts"`
}

func segmentToResponse(s domain.Segment) Segment {
	return Segment{
		ID:            s.ID,
		Name:          s.Name,
		ActivityType:  s.Type,
		Distance:      s.Distance,
		ElevationGain: s.ElevationGain,
		CreatedAt:     s.CreatedAt,
	}
}

func effortToResponse(e domain.SegmentEffort) SegmentEffort {
	return SegmentEffort{
		ID:               e.ID,
		UserID:           e.UserID,
		AthleteName:      e.AthleteName,
		ElapsedTime:      e.ElapsedTime,
		AverageHeartRate: e.AverageHeartRate,
		MaxHeartRate:     e.MaxHeartRate,
		StartDate:        e.StartDate,
	}
}

// ---- routes -----------------------------------------------------------------

// CreateRouteRequest is the body of POST /api/routes.
type CreateRouteRequest struct {
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	ActivityType  domain.ActivityType `json:"activity_type"`
	ElevationGain *float64            `json:"elevation_gain"`
	IsPublic      bool                `json:"is_public"`
	Waypoints     []geo.Point         `json:"waypoints"`
	Polyline      string              `json:"polyline"`
}

// Route is the JSON form of domain.Route.
type Route struct {
	ID            uuid.UUID           `json:"id"`
	UserID        uuid.UUID           `json:"user_id"`
	Name          string              `json:"name"`
	Description   string              `json:"description,omitempty"`
	ActivityType  domain.ActivityType `json:"activity_type"`
	Distance      float64             `json:"distance"`
	ElevationGain *float64            `json:"elevation_gain,omitempty"`
	Polyline      string              `json:"polyline"`
	IsPublic      bool                `json:"is_public"`
	AuthorName    string              `json:"author_name,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// WaypointsRequest carries a list of waypoints (route preview).
type WaypointsRequest struct {
	Waypoints []geo.Point `json:"waypoints"`
}

// WaypointsResponse is the decoded polyline of a route.
type WaypointsResponse struct {
	Waypoints []geo.Point `json:"waypoints"`
}

func routeToResponse(r domain.Route) Route {
	return Route{
		ID:            r.ID,
		UserID:        r.UserID,
		Name:          r.Name,
		Description:   r.Description,
		ActivityType:  r.Type,
		Distance:      r.Distance,
		ElevationGain: r.ElevationGain,
		Polyline:      r.Polyline,
		IsPublic:      r.IsPublic,
		AuthorName:    r.AuthorName,
		CreatedAt:     r.CreatedAt,
	}
}

// ---- drafts -----------------------------------------------------------------

// Draft is a route draft's id and editor state.
type Draft struct {
	ID        uuid.UUID   `json:"id"`
	Waypoints []geo.Point `json:"waypoints"`
	Distance  float64     `json:"distance"`
	Polyline  string      `json:"polyline"`
}

// SaveDraftRequest is the body of POST /api/route-drafts/{id}/save.
type SaveDraftRequest struct {
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	ActivityType  domain.ActivityType `json:"activity_type"`
	ElevationGain *float64            `json:"elevation_gain"`
	IsPublic      bool                `json:"is_public"`
}

// Preview is the stateless distance and polyline of some waypoints.
type Preview struct {
	Distance float64 `json:"distance"`
	Polyline string  `json:"polyline"`
}

func draftToResponse(v service.DraftView) Draft {
	return Draft{ID: v.ID, Waypoints: v.Waypoints, Distance: v.Distance, Polyline: v.Polyline}
}

func previewToResponse(s routeeditor.Snapshot) Preview {
	return Preview{Distance: s.Distance, Polyline: s.Polyline}
}

// ---- strava -----------------------------------------------------------------

// StravaConnection is the JSON form of domain.StravaConnection. Tokens are
// never serialised.
type StravaConnection struct {
	AthleteID      int64      `json:"strava_athlete_id"`
	IsActive       bool       `json:"is_active"`
	ConnectedAt    time.Time  `json:"connected_at"`
	LastSyncAt     *time.Time `json:"last_sync_at,omitempty"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty"`
}

// SyncRun is the JSON form of domain.SyncRun.
type SyncRun struct {
	ID           uuid.UUID         `json:"id"`
	SyncType     string            `json:"sync_type"`
	Status       domain.SyncStatus `json:"status"`
	ItemsSynced  int               `json:"items_synced"`
	ErrorMessage string            `json:"error_message,omitempty"`
	StartedAt    time.Time         `json:"started_at"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
}

// WebhookLog is the JSON form of domain.WebhookLog.
type WebhookLog struct {
	ID           uuid.UUID            `json:"id"`
	WebhookType  string               `json:"webhook_type"`
	Payload      json.RawMessage      `json:"payload"`
	Status       domain.WebhookStatus `json:"status"`
	ErrorMessage string               `json:"error_message,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	ProcessedAt  *time.Time           `json:"processed_at,omitempty"`
}

func connectionToResponse(c domain.StravaConnection) StravaConnection {
	return StravaConnection{
		AthleteID:      c.AthleteID,
		IsActive:       c.IsActive,
		ConnectedAt:    c.ConnectedAt,
		LastSyncAt:     c.LastSyncAt,
		TokenExpiresAt: c.TokenExpiresAt,
	}
}

func webhookLogToResponse(l domain.WebhookLog) WebhookLog {
	var payload json.RawMessage
	if json.Valid(l.Payload) {
		payload = l.Payload
	}
	return WebhookLog{
		ID:           l.ID,
		WebhookType:  l.WebhookType,
		Payload:      payload,
		Status:       l.Status,
		ErrorMessage: l.ErrorMessage,
		CreatedAt:    l.CreatedAt,
		ProcessedAt:  l.ProcessedAt,
	}
}

// WebhookAck is the body of a processed webhook delivery.
type WebhookAck struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func syncRunToResponse(r domain.SyncRun) SyncRun {
	return SyncRun{
		ID:           r.ID,
		SyncType:     r.SyncType,
		Status:       r.Status,
		ItemsSynced:  r.ItemsSynced,
		ErrorMessage: r.ErrorMessage,
		StartedAt:    r.StartedAt,
		CompletedAt:  r.CompletedAt,
	}
}

// mapSlice converts every element of in with f. The result is never nil so
// empty lists encode as [].
func mapSlice[T, U any](in []T, f func(T) U) []U {
	out := make([]U, len(in))
	for i, v := range in {
		out[i] = f(v)
	}
	return out
}
