// Package handler implements the HTTP handlers for the Stridelog API.
// All handlers are methods on Server and are mounted by Server.Routes.
// Methods are split into domain-specific files (health.go, goal.go, etc.) but
// all share the same Server struct so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/stridelog/internal/domain"
	"github.com/pkordes/stridelog/internal/geo"
	"github.com/pkordes/stridelog/internal/middleware"
	"github.com/pkordes/stridelog/internal/routeeditor"
	"github.com/pkordes/stridelog/internal/service"
	"github.com/pkordes/stridelog/internal/strava"
)

// Servicer interfaces are declared here, in the consumer package, so handler
// tests can inject mocks without touching the database or service layer.

// ActivityServicer is the activity surface of the API.
type ActivityServicer interface {
	List(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Activity, int64, error)
	Get(ctx context.Context, userID, id uuid.UUID) (service.ActivityDetail, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	Stats(ctx context.Context, userID uuid.UUID) (domain.ActivityStats, error)
	Export(ctx context.Context, userID uuid.UUID) ([]domain.Activity, error)
}

// GoalServicer is the goal surface of the API.
type GoalServicer interface {
	Create(ctx context.Context, userID uuid.UUID, in service.GoalInput) (domain.Goal, error)
	List(ctx context.Context, userID uuid.UUID) ([]domain.Goal, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	Progress(ctx context.Context, userID uuid.UUID) (domain.GoalSummary, error)
	Refresh(ctx context.Context, userID, id uuid.UUID) (domain.Goal, error)
}

// TrainingServicer is the training plan surface of the API.
type TrainingServicer interface {
	CreatePlan(ctx context.Context, userID uuid.UUID, in service.PlanInput) (domain.TrainingPlan, error)
	ListPlans(ctx context.Context, userID uuid.UUID) ([]domain.TrainingPlan, error)
	DeletePlan(ctx context.Context, userID, id uuid.UUID) error
	AddWorkout(ctx context.Context, userID, planID uuid.UUID, in service.WorkoutInput) (domain.Workout, error)
	Upcoming(ctx context.Context, userID uuid.UUID) ([]domain.Workout, error)
	Complete(ctx context.Context, userID, workoutID uuid.UUID) (domain.Workout, error)
}

// SegmentServicer is the segment surface of the API.
type SegmentServicer interface {
	List(ctx context.Context) ([]domain.Segment, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Segment, error)
	Leaderboard(ctx context.Context, id uuid.UUID) ([]domain.SegmentEffort, error)
	Stats(ctx context.Context, userID, id uuid.UUID) (domain.SegmentStats, error)
}

// RouteServicer is the saved route surface of the API.
type RouteServicer interface {
	Create(ctx context.Context, userID uuid.UUID, in service.RouteInput) (domain.Route, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]domain.Route, error)
	ListPublic(ctx context.Context) ([]domain.Route, error)
	Get(ctx context.Context, userID, id uuid.UUID) (domain.Route, error)
	Waypoints(ctx context.Context, userID, id uuid.UUID) ([]geo.Point, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	Preview(points []geo.Point) (routeeditor.Snapshot, error)
}

// DraftServicer is the route draft surface of the API.
type DraftServicer interface {
	Create(userID uuid.UUID) (service.DraftView, error)
	Get(userID, id uuid.UUID) (service.DraftView, error)
	AddPoint(userID, id uuid.UUID, p geo.Point) (service.DraftView, error)
	DragPoint(userID, id uuid.UUID, index int, p geo.Point) (service.DraftView, error)
	Undo(userID, id uuid.UUID) (service.DraftView, error)
	Clear(userID, id uuid.UUID) (service.DraftView, error)
	Save(ctx context.Context, userID, id uuid.UUID, in service.SaveDraftInput) (domain.Route, error)
	Discard(userID, id uuid.UUID) error
}

// ConnectServicer is the Strava connection surface of the API.
type ConnectServicer interface {
	BeginAuth(redirect string) (service.AuthStart, error)
	Callback(ctx context.Context, in service.CallbackInput) (service.Redirect, error)
	Connection(ctx context.Context, userID uuid.UUID) (domain.StravaConnection, error)
	Disconnect(ctx context.Context, userID uuid.UUID) error
	SyncHistory(ctx context.Context, userID uuid.UUID) ([]domain.SyncRun, error)
}

// WebhookServicer is the webhook surface of the API.
type WebhookServicer interface {
	VerifySubscription(mode, token, challenge string) (string, bool)
	Authenticate(secret string) bool
	Handle(ctx context.Context, body []byte) (strava.Event, error)
	Logs(ctx context.Context) ([]domain.WebhookLog, error)
}

// Options carries the Server's dependencies. Nil services leave their
// routes mounted but any call to them panics, which Recoverer turns into 500.
type Options struct {
	Activities ActivityServicer
	Goals      GoalServicer
	Training   TrainingServicer
	Segments   SegmentServicer
	Routes     RouteServicer
	Drafts     DraftServicer
	Connect    ConnectServicer
	Webhooks   WebhookServicer

	// AppURL is the dashboard origin OAuth redirects resolve against.
	AppURL string
	// UserIDHeader names the header NewUserIdentity reads.
	UserIDHeader string
	// CookieSecure sets Secure on the OAuth cookies.
	CookieSecure bool
	// WebhookLimiter, when set, wraps POST /api/webhooks/strava.
	WebhookLimiter func(http.Handler) http.Handler
	// OpenAPI is served at /openapi.yaml.
	OpenAPI []byte

	Logger *slog.Logger
}

// Server implements every API endpoint.
// Methods are in domain-specific files but all operate on this struct.
type Server struct {
	opts Options
	log  *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(opts Options) *Server {
	if opts.UserIDHeader == "" {
		opts.UserIDHeader = "X-User-ID"
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Server{opts: opts, log: log}
}

// Routes returns a chi router with every endpoint mounted.
// Webhook and OAuth routes do not require a user id; every other /api
// route does.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.NewUserIdentity(s.opts.UserIDHeader))

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)
	r.Get("/docs", s.GetDocs)

	r.Route("/api", func(r chi.Router) {
		r.Get("/webhooks/strava", s.VerifyWebhook)
		webhook := http.Handler(http.HandlerFunc(s.ReceiveWebhook))
		if s.opts.WebhookLimiter != nil {
			webhook = s.opts.WebhookLimiter(webhook)
		}
		r.Method(http.MethodPost, "/webhooks/strava", webhook)
		r.Get("/strava/auth", s.StravaAuth)
		r.Get("/strava/callback", s.StravaCallback)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser)

			r.Get("/activities", s.ListActivities)
			r.Get("/activities/stats", s.GetActivityStats)
			r.Get("/activities/export", s.ExportActivities)
			r.Get("/activities/{id}", s.GetActivity)
			r.Delete("/activities/{id}", s.DeleteActivity)

			r.Post("/goals", s.CreateGoal)
			r.Get("/goals", s.ListGoals)
			r.Get("/goals/progress", s.GetGoalProgress)
			r.Delete("/goals/{id}", s.DeleteGoal)
			r.Post("/goals/{id}/refresh", s.RefreshGoal)

			r.Post("/training-plans", s.CreatePlan)
			r.Get("/training-plans", s.ListPlans)
			r.Delete("/training-plans/{id}", s.DeletePlan)
			r.Post("/training-plans/{id}/workouts", s.AddWorkout)
			r.Get("/workouts/upcoming", s.ListUpcomingWorkouts)
			r.Post("/workouts/{id}/complete", s.CompleteWorkout)

			r.Get("/segments", s.ListSegments)
			r.Get("/segments/{id}", s.GetSegment)
			r.Get("/segments/{id}/leaderboard", s.GetLeaderboard)
			r.Get("/segments/{id}/stats", s.GetSegmentStats)

			r.Post("/routes", s.CreateRoute)
			r.Get("/routes", s.ListRoutes)
			r.Get("/routes/public", s.ListPublicRoutes)
			r.Post("/routes/preview", s.PreviewRoute)
			r.Get("/routes/{id}", s.GetRoute)
			r.Get("/routes/{id}/waypoints", s.GetRouteWaypoints)
			r.Delete("/routes/{id}", s.DeleteRoute)

			r.Post("/route-drafts", s.CreateDraft)
			r.Get("/route-drafts/{id}", s.GetDraft)
			r.Post("/route-drafts/{id}/points", s.AddDraftPoint)
			r.Put("/route-drafts/{id}/points/{index}", s.DragDraftPoint)
			r.Post("/route-drafts/{id}/undo", s.UndoDraft)
			r.Post("/route-drafts/{id}/clear", s.ClearDraft)
			r.Post("/route-drafts/{id}/save", s.SaveDraft)
			r.Delete("/route-drafts/{id}", s.DiscardDraft)

			r.Get("/strava/connection", s.GetStravaConnection)
			r.Delete("/strava/connection", s.DisconnectStrava)
			r.Get("/strava/sync-history", s.GetSyncHistory)
			r.Get("/webhooks/logs", s.ListWebhookLogs)
		})
	})
	return r
}
