package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/stridelog/internal/domain"
	"github.com/pkordes/stridelog/internal/geo"
	"github.com/pkordes/stridelog/internal/handler"
	"github.com/pkordes/stridelog/internal/routeeditor"
	"github.com/pkordes/stridelog/internal/service"
	"github.com/pkordes/stridelog/internal/strava"
)

// Test doubles for the servicer interfaces. Set only the method fields your
// test needs; an unset field panics, which surfaces as a 500.

type mockActivityServicer struct {
	list   func(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Activity, int64, error)
	get    func(ctx context.Context, userID, id uuid.UUID) (service.ActivityDetail, error)
	delete func(ctx context.Context, userID, id uuid.UUID) error
	stats  func(ctx context.Context, userID uuid.UUID) (domain.ActivityStats, error)
	export func(ctx context.Context, userID uuid.UUID) ([]domain.Activity, error)
}

func (m *mockActivityServicer) List(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Activity, int64, error) {
	return m.list(ctx, userID, p)
}
func (m *mockActivityServicer) Get(ctx context.Context, userID, id uuid.UUID) (service.ActivityDetail, error) {
	return m.get(ctx, userID, id)
}
func (m *mockActivityServicer) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.delete(ctx, userID, id)
}
func (m *mockActivityServicer) Stats(ctx context.Context, userID uuid.UUID) (domain.ActivityStats, error) {
	return m.stats(ctx, userID)
}
func (m *mockActivityServicer) Export(ctx context.Context, userID uuid.UUID) ([]domain.Activity, error) {
	return m.export(ctx, userID)
}

var _ handler.ActivityServicer = (*mockActivityServicer)(nil)

type mockGoalServicer struct {
	create   func(ctx context.Context, userID uuid.UUID, in service.GoalInput) (domain.Goal, error)
	list     func(ctx context.Context, userID uuid.UUID) ([]domain.Goal, error)
	delete   func(ctx context.Context, userID, id uuid.UUID) error
	progress func(ctx context.Context, userID uuid.UUID) (domain.GoalSummary, error)
	refresh  func(ctx context.Context, userID, id uuid.UUID) (domain.Goal, error)
}

func (m *mockGoalServicer) Create(ctx context.Context, userID uuid.UUID, in service.GoalInput) (domain.Goal, error) {
	return m.create(ctx, userID, in)
}
func (m *mockGoalServicer) List(ctx context.Context, userID uuid.UUID) ([]domain.Goal, error) {
	return m.list(ctx, userID)
}
func (m *mockGoalServicer) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.delete(ctx, userID, id)
}
func (m *mockGoalServicer) Progress(ctx context.Context, userID uuid.UUID) (domain.GoalSummary, error) {
	return m.progress(ctx, userID)
}
func (m *mockGoalServicer) Refresh(ctx context.Context, userID, id uuid.UUID) (domain.Goal, error) {
	return m.refresh(ctx, userID, id)
}

var _ handler.GoalServicer = (*mockGoalServicer)(nil)

type mockTrainingServicer struct {
	createPlan func(ctx context.Context, userID uuid.UUID, in service.PlanInput) (domain.TrainingPlan, error)
	listPlans  func(ctx context.Context, userID uuid.UUID) ([]domain.TrainingPlan, error)
	deletePlan func(ctx context.Context, userID, id uuid.UUID) error
	addWorkout func(ctx context.Context, userID, planID uuid.UUID, in service.WorkoutInput) (domain.Workout, error)
	upcoming   func(ctx context.Context, userID uuid.UUID) ([]domain.Workout, error)
	complete   func(ctx context.Context, userID, workoutID uuid.UUID) (domain.Workout, error)
}

func (m *mockTrainingServicer) CreatePlan(ctx context.Context, userID uuid.UUID, in service.PlanInput) (domain.TrainingPlan, error) {
	return m.createPlan(ctx, userID, in)
}
func (m *mockTrainingServicer) ListPlans(ctx context.Context, userID uuid.UUID) ([]domain.TrainingPlan, error) {
	return m.listPlans(ctx, userID)
}
func (m *mockTrainingServicer) DeletePlan(ctx context.Context, userID, id uuid.UUID) error {
	return m.deletePlan(ctx, userID, id)
}
func (m *mockTrainingServicer) AddWorkout(ctx context.Context, userID, planID uuid.UUID, in service.WorkoutInput) (domain.Workout, error) {
	return m.addWorkout(ctx, userID, planID, in)
}
func (m *mockTrainingServicer) Upcoming(ctx context.Context, userID uuid.UUID) ([]domain.Workout, error) {
	return m.upcoming(ctx, userID)
}
func (m *mockTrainingServicer) Complete(ctx context.Context, userID, workoutID uuid.UUID) (domain.Workout, error) {
	return m.complete(ctx, userID, workoutID)
}

var _ handler.TrainingServicer = (*mockTrainingServicer)(nil)

type mockSegmentServicer struct {
	list        func(ctx context.Context) ([]domain.Segment, error)
	get         func(ctx context.Context, id uuid.UUID) (domain.Segment, error)
	leaderboard func(ctx context.Context, id uuid.UUID) ([]domain.SegmentEffort, error)
	stats       func(ctx context.Context, userID, id uuid.UUID) (domain.SegmentStats, error)
}

func (m *mockSegmentServicer) List(ctx context.Context) ([]domain.Segment, error) {
	return m.list(ctx)
}
func (m *mockSegmentServicer) Get(ctx context.Context, id uuid.UUID) (domain.Segment, error) {
	return m.get(ctx, id)
}
func (m *mockSegmentServicer) Leaderboard(ctx context.Context, id uuid.UUID) ([]domain.SegmentEffort, error) {
	return m.leaderboard(ctx, id)
}
func (m *mockSegmentServicer) Stats(ctx context.Context, userID, id uuid.UUID) (domain.SegmentStats, error) {
	return m.stats(ctx, userID, id)
}

var _ handler.SegmentServicer = (*mockSegmentServicer)(nil)

type mockRouteServicer struct {
	create     func(ctx context.Context, userID uuid.UUID, in service.RouteInput) (domain.Route, error)
	listMine   func(ctx context.Context, userID uuid.UUID) ([]domain.Route, error)
	listPublic func(ctx context.Context) ([]domain.Route, error)
	get        func(ctx context.Context, userID, id uuid.UUID) (domain.Route, error)
	waypoints  func(ctx context.Context, userID, id uuid.UUID) ([]geo.Point, error)
	delete     func(ctx context.Context, userID, id uuid.UUID) error
	preview    func(points []geo.Point) (routeeditor.Snapshot, error)
}

func (m *mockRouteServicer) Create(ctx context.Context, userID uuid.UUID, in service.RouteInput) (domain.Route, error) {
	return m.create(ctx, userID, in)
}
func (m *mockRouteServicer) ListMine(ctx context.Context, userID uuid.UUID) ([]domain.Route, error) {
	return m.listMine(ctx, userID)
}
func (m *mockRouteServicer) ListPublic(ctx context.Context) ([]domain.Route, error) {
	return m.listPublic(ctx)
}
func (m *mockRouteServicer) Get(ctx context.Context, userID, id uuid.UUID) (domain.Route, error) {
	return m.get(ctx, userID, id)
}
func (m *mockRouteServicer) Waypoints(ctx context.Context, userID, id uuid.UUID) ([]geo.Point, error) {
	return m.waypoints(ctx, userID, id)
}
func (m *mockRouteServicer) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.delete(ctx, userID, id)
}
func (m *mockRouteServicer) Preview(points []geo.Point) (routeeditor.Snapshot, error) {
	return m.preview(points)
}

var _ handler.RouteServicer = (*mockRouteServicer)(nil)

type mockDraftServicer struct {
	create    func(userID uuid.UUID) (service.DraftView, error)
	get       func(userID, id uuid.UUID) (service.DraftView, error)
	addPoint  func(userID, id uuid.UUID, p geo.Point) (service.DraftView, error)
	dragPoint func(userID, id uuid.UUID, index int, p geo.Point) (service.DraftView, error)
	undo      func(userID, id uuid.UUID) (service.DraftView, error)
	clear     func(userID, id uuid.UUID) (service.DraftView, error)
	save      func(ctx context.Context, userID, id uuid.UUID, in service.SaveDraftInput) (domain.Route, error)
	discard   func(userID, id uuid.UUID) error
}

func (m *mockDraftServicer) Create(userID uuid.UUID) (service.DraftView, error) {
	return m.create(userID)
}
func (m *mockDraftServicer) Get(userID, id uuid.UUID) (service.DraftView, error) {
	return m.get(userID, id)
}
func (m *mockDraftServicer) AddPoint(userID, id uuid.UUID, p geo.Point) (service.DraftView, error) {
	return m.addPoint(userID, id, p)
}
func (m *mockDraftServicer) DragPoint(userID, id uuid.UUID, index int, p geo.Point) (service.DraftView, error) {
	return m.dragPoint(userID, id, index, p)
}
func (m *mockDraftServicer) Undo(userID, id uuid.UUID) (service.DraftView, error) {
	return m.undo(userID, id)
}
func (m *mockDraftServicer) Clear(userID, id uuid.UUID) (service.DraftView, error) {
	return m.clear(userID, id)
}
func (m *mockDraftServicer) Save(ctx context.Context, userID, id uuid.UUID, in service.SaveDraftInput) (domain.Route, error) {
	return m.save(ctx, userID, id, in)
}
func (m *mockDraftServicer) Discard(userID, id uuid.UUID) error {
	return m.discard(userID, id)
}

var _ handler.DraftServicer = (*mockDraftServicer)(nil)

type mockConnectServicer struct {
	beginAuth   func(redirect string) (service.AuthStart, error)
	callback    func(ctx context.Context, in service.CallbackInput) (service.Redirect, error)
	connection  func(ctx context.Context, userID uuid.UUID) (domain.StravaConnection, error)
	disconnect  func(ctx context.Context, userID uuid.UUID) error
	syncHistory func(ctx context.Context, userID uuid.UUID) ([]domain.SyncRun, error)
}

func (m *mockConnectServicer) BeginAuth(redirect string) (service.AuthStart, error) {
	return m.beginAuth(redirect)
}
func (m *mockConnectServicer) Callback(ctx context.Context, in service.CallbackInput) (service.Redirect, error) {
	return m.callback(ctx, in)
}
func (m *mockConnectServicer) Connection(ctx context.Context, userID uuid.UUID) (domain.StravaConnection, error) {
	return m.connection(ctx, userID)
}
func (m *mockConnectServicer) Disconnect(ctx context.Context, userID uuid.UUID) error {
	return m.disconnect(ctx, userID)
}
func (m *mockConnectServicer) SyncHistory(ctx context.Context, userID uuid.UUID) ([]domain.SyncRun, error) {
	return m.syncHistory(ctx, userID)
}

var _ handler.ConnectServicer = (*mockConnectServicer)(nil)

type mockWebhookServicer struct {
	verify       func(mode, token, challenge string) (string, bool)
	authenticate func(secret string) bool
	handle       func(ctx context.Context, body []byte) (strava.Event, error)
	logs         func(ctx context.Context) ([]domain.WebhookLog, error)
}

func (m *mockWebhookServicer) VerifySubscription(mode, token, challenge string) (string, bool) {
	return m.verify(mode, token, challenge)
}
func (m *mockWebhookServicer) Authenticate(secret string) bool {
	return m.authenticate(secret)
}
func (m *mockWebhookServicer) Handle(ctx context.Context, body []byte) (strava.Event, error) {
	return m.handle(ctx, body)
}
func (m *mockWebhookServicer) Logs(ctx context.Context) ([]domain.WebhookLog, error) {
	return m.logs(ctx)
}

var _ handler.WebhookServicer = (*mockWebhookServicer)(nil)

// ---- helpers ---------------------------------------------------------------

// testUser is the caller id sent on every authenticated request.
var testUser = uuid.MustParse("3f2b8c1e-7d4a-4e4b-9a61-2c5d8e9f0a11")

// newHTTPHandler wires a Server the way main.go does, minus the outer
// middleware stack.
func newHTTPHandler(opts handler.Options) http.Handler {
	opts.Logger = slog.New(slog.DiscardHandler)
	return handler.NewServer(opts).Routes()
}

// serve sends one request as testUser. A nil body sends none.
func serve(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, jsonBody(t, body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-User-ID", testUser.String())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	switch b := v.(type) {
	case nil:
		return nil
	case string:
		return bytes.NewBufferString(b)
	}
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(raw)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[handler.ErrorResponse](t, rec).Error.Code
}

func ptr[T any](v T) *T { return &v }

// newRequest builds a request with no user header.
func newRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

func record(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
