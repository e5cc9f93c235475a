package service_test

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/stridelog/internal/cache"
	"github.com/pkordes/stridelog/internal/domain"
	"github.com/pkordes/stridelog/internal/repo"
	"github.com/pkordes/stridelog/internal/service"
	"github.com/pkordes/stridelog/internal/strava"
)

// Hand-written test doubles. Each method is a function field; set only the
// ones a test needs. Calling an unset field panics, which flags an
// unexpected repo call.

var discardLog = slog.New(slog.DiscardHandler)

func fixedClock(t time.Time) service.Clock { return func() time.Time { return t } }

// ---- ActivityRepo -----------------------------------------------------------

type mockActivityRepo struct {
	listPaged        func(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Activity, int64, error)
	listBetween      func(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.Activity, error)
	getByID          func(ctx context.Context, userID, id uuid.UUID) (domain.Activity, error)
	delete           func(ctx context.Context, userID, id uuid.UUID) error
	stats            func(ctx context.Context, userID uuid.UUID, since time.Time) (domain.ActivityStats, error)
	upsertStrava     func(ctx context.Context, userID uuid.UUID, stravaID int64, patch domain.ActivityPatch) (domain.Activity, bool, error)
	patchStrava      func(ctx context.Context, userID uuid.UUID, stravaID int64, patch domain.ActivityPatch) (domain.Activity, error)
	deleteByStravaID func(ctx context.Context, stravaID int64) error
}

func (m *mockActivityRepo) ListPaged(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Activity, int64, error) {
	return m.listPaged(ctx, userID, p)
}
func (m *mockActivityRepo) ListBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.Activity, error) {
	return m.listBetween(ctx, userID, from, to)
}
func (m *mockActivityRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (domain.Activity, error) {
	return m.getByID(ctx, userID, id)
}
func (m *mockActivityRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.delete(ctx, userID, id)
}
func (m *mockActivityRepo) Stats(ctx context.Context, userID uuid.UUID, since time.Time) (domain.ActivityStats, error) {
	return m.stats(ctx, userID, since)
}
func (m *mockActivityRepo) UpsertStrava(ctx context.Context, userID uuid.UUID, stravaID int64, patch domain.ActivityPatch) (domain.Activity, bool, error) {
	return m.upsertStrava(ctx, userID, stravaID, patch)
}
func (m *mockActivityRepo) PatchStrava(ctx context.Context, userID uuid.UUID, stravaID int64, patch domain.ActivityPatch) (domain.Activity, error) {
	return m.patchStrava(ctx, userID, stravaID, patch)
}
func (m *mockActivityRepo) DeleteByStravaID(ctx context.Context, stravaID int64) error {
	return m.deleteByStravaID(ctx, stravaID)
}

var _ repo.ActivityRepo = (*mockActivityRepo)(nil)

// ---- GoalRepo ---------------------------------------------------------------

type mockGoalRepo struct {
	create          func(ctx context.Context, g domain.Goal) (domain.Goal, error)
	listActive      func(ctx context.Context, userID uuid.UUID) ([]domain.Goal, error)
	getByID         func(ctx context.Context, userID, id uuid.UUID) (domain.Goal, error)
	setCurrentValue func(ctx context.Context, userID, id uuid.UUID, value float64) (domain.Goal, error)
	delete          func(ctx context.Context, userID, id uuid.UUID) error
}

func (m *mockGoalRepo) Create(ctx context.Context, g domain.Goal) (domain.Goal, error) {
	return m.create(ctx, g)
}
func (m *mockGoalRepo) ListActive(ctx context.Context, userID uuid.UUID) ([]domain.Goal, error) {
	return m.listActive(ctx, userID)
}
func (m *mockGoalRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (domain.Goal, error) {
	return m.getByID(ctx, userID, id)
}
func (m *mockGoalRepo) SetCurrentValue(ctx context.Context, userID, id uuid.UUID, value float64) (domain.Goal, error) {
	return m.setCurrentValue(ctx, userID, id, value)
}
func (m *mockGoalRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.delete(ctx, userID, id)
}

var _ repo.GoalRepo = (*mockGoalRepo)(nil)

// ---- TrainingRepo -----------------------------------------------------------

type mockTrainingRepo struct {
	createPlan      func(ctx context.Context, p domain.TrainingPlan) (domain.TrainingPlan, error)
	listPlans       func(ctx context.Context, userID uuid.UUID) ([]domain.TrainingPlan, error)
	getPlan         func(ctx context.Context, userID, id uuid.UUID) (domain.TrainingPlan, error)
	deletePlan      func(ctx context.Context, userID, id uuid.UUID) error
	createWorkout   func(ctx context.Context, w domain.Workout) (domain.Workout, error)
	listUpcoming    func(ctx context.Context, userID uuid.UUID) ([]domain.Workout, error)
	completeWorkout func(ctx context.Context, userID, workoutID uuid.UUID) (domain.Workout, error)
}

func (m *mockTrainingRepo) CreatePlan(ctx context.Context, p domain.TrainingPlan) (domain.TrainingPlan, error) {
	return m.createPlan(ctx, p)
}
func (m *mockTrainingRepo) ListPlans(ctx context.Context, userID uuid.UUID) ([]domain.TrainingPlan, error) {
	return m.listPlans(ctx, userID)
}
func (m *mockTrainingRepo) GetPlan(ctx context.Context, userID, id uuid.UUID) (domain.TrainingPlan, error) {
	return m.getPlan(ctx, userID, id)
}
func (m *mockTrainingRepo) DeletePlan(ctx context.Context, userID, id uuid.UUID) error {
	return m.deletePlan(ctx, userID, id)
}
func (m *mockTrainingRepo) CreateWorkout(ctx context.Context, w domain.Workout) (domain.Workout, error) {
	return m.createWorkout(ctx, w)
}
func (m *mockTrainingRepo) ListUpcoming(ctx context.Context, userID uuid.UUID) ([]domain.Workout, error) {
	return m.listUpcoming(ctx, userID)
}
func (m *mockTrainingRepo) CompleteWorkout(ctx context.Context, userID, workoutID uuid.UUID) (domain.Workout, error) {
	return m.completeWorkout(ctx, userID, workoutID)
}

var _ repo.TrainingRepo = (*mockTrainingRepo)(nil)

// ---- RouteRepo --------------------------------------------------------------

type mockRouteRepo struct {
	create     func(ctx context.Context, r domain.Route) (domain.Route, error)
	listByUser func(ctx context.Context, userID uuid.UUID) ([]domain.Route, error)
	listPublic func(ctx context.Context, limit int) ([]domain.Route, error)
	getVisible func(ctx context.Context, userID, id uuid.UUID) (domain.Route, error)
	delete     func(ctx context.Context, userID, id uuid.UUID) error
}

func (m *mockRouteRepo) Create(ctx context.Context, r domain.Route) (domain.Route, error) {
	return m.create(ctx, r)
}
func (m *mockRouteRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Route, error) {
	return m.listByUser(ctx, userID)
}
func (m *mockRouteRepo) ListPublic(ctx context.Context, limit int) ([]domain.Route, error) {
	return m.listPublic(ctx, limit)
}
func (m *mockRouteRepo) GetVisible(ctx context.Context, userID, id uuid.UUID) (domain.Route, error) {
	return m.getVisible(ctx, userID, id)
}
func (m *mockRouteRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.delete(ctx, userID, id)
}

var _ repo.RouteRepo = (*mockRouteRepo)(nil)

func echoRouteRepo() *mockRouteRepo {
	return &mockRouteRepo{
		create: func(_ context.Context, r domain.Route) (domain.Route, error) {
			r.ID = uuid.New()
			return r, nil
		},
	}
}

// ---- SegmentRepo ------------------------------------------------------------

type mockSegmentRepo struct {
	list         func(ctx context.Context) ([]domain.Segment, error)
	getByID      func(ctx context.Context, id uuid.UUID) (domain.Segment, error)
	leaderboard  func(ctx context.Context, segmentID uuid.UUID, limit int) ([]domain.SegmentEffort, error)
	bestEffort   func(ctx context.Context, segmentID, userID uuid.UUID) (domain.SegmentEffort, error)
	countEfforts func(ctx context.Context, segmentID uuid.UUID) (int, error)
}

func (m *mockSegmentRepo) List(ctx context.Context) ([]domain.Segment, error) {
	return m.list(ctx)
}
func (m *mockSegmentRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Segment, error) {
	return m.getByID(ctx, id)
}
func (m *mockSegmentRepo) Leaderboard(ctx context.Context, segmentID uuid.UUID, limit int) ([]domain.SegmentEffort, error) {
	return m.leaderboard(ctx, segmentID, limit)
}
func (m *mockSegmentRepo) BestEffort(ctx context.Context, segmentID, userID uuid.UUID) (domain.SegmentEffort, error) {
	return m.bestEffort(ctx, segmentID, userID)
}
func (m *mockSegmentRepo) CountEfforts(ctx context.Context, segmentID uuid.UUID) (int, error) {
	return m.countEfforts(ctx, segmentID)
}

var _ repo.SegmentRepo = (*mockSegmentRepo)(nil)

// ---- ConnectionRepo ---------------------------------------------------------

type mockConnectionRepo struct {
	upsert              func(ctx context.Context, c domain.StravaConnection) (domain.StravaConnection, error)
	getByUser           func(ctx context.Context, userID uuid.UUID) (domain.StravaConnection, error)
	getActiveByAthlete  func(ctx context.Context, athleteID int64) (domain.StravaConnection, error)
	deactivateByAthlete func(ctx context.Context, athleteID int64) error
	touchLastSync       func(ctx context.Context, userID uuid.UUID, at time.Time) error
	delete              func(ctx context.Context, userID uuid.UUID) error
}

func (m *mockConnectionRepo) Upsert(ctx context.Context, c domain.StravaConnection) (domain.StravaConnection, error) {
	return m.upsert(ctx, c)
}
func (m *mockConnectionRepo) GetByUser(ctx context.Context, userID uuid.UUID) (domain.StravaConnection, error) {
	return m.getByUser(ctx, userID)
}
func (m *mockConnectionRepo) GetActiveByAthlete(ctx context.Context, athleteID int64) (domain.StravaConnection, error) {
	return m.getActiveByAthlete(ctx, athleteID)
}
func (m *mockConnectionRepo) DeactivateByAthlete(ctx context.Context, athleteID int64) error {
	return m.deactivateByAthlete(ctx, athleteID)
}
func (m *mockConnectionRepo) TouchLastSync(ctx context.Context, userID uuid.UUID, at time.Time) error {
	return m.touchLastSync(ctx, userID, at)
}
func (m *mockConnectionRepo) Delete(ctx context.Context, userID uuid.UUID) error {
	return m.delete(ctx, userID)
}

var _ repo.ConnectionRepo = (*mockConnectionRepo)(nil)

// ---- AuditRepo --------------------------------------------------------------

// recordingAuditRepo is a working in-memory AuditRepo that keeps every
// status transition so tests can assert on the lifecycle.
type recordingAuditRepo struct {
	webhookStatuses []domain.WebhookStatus
	webhookErr      string
	webhookTypes    []string
	syncStatuses    []domain.SyncStatus
	syncTypes       []string
	syncItems       int
	createErr       error
}

func (r *recordingAuditRepo) CreateWebhookLog(_ context.Context, webhookType string, _ []byte) (domain.WebhookLog, error) {
	if r.createErr != nil {
		return domain.WebhookLog{}, r.createErr
	}
	r.webhookTypes = append(r.webhookTypes, webhookType)
	r.webhookStatuses = append(r.webhookStatuses, domain.WebhookReceived)
	return domain.WebhookLog{ID: uuid.New(), WebhookType: webhookType, Status: domain.WebhookReceived}, nil
}
func (r *recordingAuditRepo) SetWebhookStatus(_ context.Context, _ uuid.UUID, status domain.WebhookStatus, errMsg string) error {
	r.webhookStatuses = append(r.webhookStatuses, status)
	r.webhookErr = errMsg
	return nil
}
func (r *recordingAuditRepo) ListWebhookLogs(_ context.Context, limit int) ([]domain.WebhookLog, error) {
	return nil, nil
}
func (r *recordingAuditRepo) StartSyncRun(_ context.Context, userID uuid.UUID, syncType string) (domain.SyncRun, error) {
	r.syncTypes = append(r.syncTypes, syncType)
	r.syncStatuses = append(r.syncStatuses, domain.SyncInProgress)
	return domain.SyncRun{ID: uuid.New(), UserID: userID, SyncType: syncType, Status: domain.SyncInProgress}, nil
}
func (r *recordingAuditRepo) FinishSyncRun(_ context.Context, _ uuid.UUID, status domain.SyncStatus, items int, _ string) error {
	r.syncStatuses = append(r.syncStatuses, status)
	r.syncItems = items
	return nil
}
func (r *recordingAuditRepo) ListSyncRuns(_ context.Context, _ uuid.UUID, _ int) ([]domain.SyncRun, error) {
	return nil, nil
}

var _ repo.AuditRepo = (*recordingAuditRepo)(nil)

// ---- Strava -----------------------------------------------------------------

type fakeOAuth struct {
	exchange func(ctx context.Context, code string) (strava.Grant, error)
}

func (f *fakeOAuth) AuthCodeURL(state string) string {
	return "https://www.strava.com/oauth/authorize?state=" + state
}
func (f *fakeOAuth) Exchange(ctx context.Context, code string) (strava.Grant, error) {
	return f.exchange(ctx, code)
}

var _ service.OAuthExchanger = (*fakeOAuth)(nil)

type fakeFetcher struct {
	fetch func(ctx context.Context, token string, id int64) (strava.ActivityData, error)
	calls int
}

func (f *fakeFetcher) FetchActivity(ctx context.Context, token string, id int64) (strava.ActivityData, error) {
	f.calls++
	return f.fetch(ctx, token, id)
}

var _ service.ActivityFetcher = (*fakeFetcher)(nil)

// ---- DraftStore -------------------------------------------------------------

// memDraftStore is a map-backed DraftStore that counts writes.
type memDraftStore struct {
	drafts map[uuid.UUID]cache.Draft
	puts   int
}

func newMemDraftStore() *memDraftStore {
	return &memDraftStore{drafts: map[uuid.UUID]cache.Draft{}}
}

func (s *memDraftStore) Get(id uuid.UUID) (cache.Draft, error) {
	d, ok := s.drafts[id]
	if !ok {
		return cache.Draft{}, domain.ErrNotFound
	}
	return d, nil
}
func (s *memDraftStore) Put(d cache.Draft) error {
	s.puts++
	s.drafts[d.ID] = d
	return nil
}
func (s *memDraftStore) Delete(id uuid.UUID) bool {
	_, ok := s.drafts[id]
	delete(s.drafts, id)
	return ok
}

var _ service.DraftStore = (*memDraftStore)(nil)
