package report_test

import (
	"context"
	"errors"
	"gurimarket/backend/internal/analysis"
	"gurimarket/backend/internal/config"
	"gurimarket/backend/internal/models"
	"gurimarket/backend/internal/report"
	"gurimarket/backend/internal/storage"
	"gurimarket/backend/internal/storage/storagetest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingCache struct {
	marked  map[string]time.Time
	cleared []string
}

func (c *recordingCache) MarkSuspended(_ context.Context, uid string, until time.Time) error {
	if c.marked == nil {
		c.marked = make(map[string]time.Time)
	}
	c.marked[uid] = until
	return nil
}

func (c *recordingCache) ClearSuspended(_ context.Context, uid string) error {
	c.cleared = append(c.cleared, uid)
	return nil
}

type MockReviews struct {
	mock.Mock
}

func (m *MockReviews) Open(ctx context.Context, review *models.AdminReview) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

type MockAlerts struct {
	mock.Mock
}

func (m *MockAlerts) NotifyFlagged(ctx context.Context, review models.AdminReview) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

type recordingFeed struct {
	events []models.ModerationEvent
}

func (f *recordingFeed) PublishModeration(_ context.Context, ev models.ModerationEvent) error {
	f.events = append(f.events, ev)
	return nil
}

var baseTime = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

func newMemoryService(now time.Time) (*report.Service, *storage.MemoryStore) {
	store := storage.NewMemoryStore()
	svc := report.NewService(store, zap.NewNop().Sugar())
	svc.Now = func() time.Time { return now }
	return svc, store
}

// fileReport stores a report at t and runs the handler with the clock at t.
func fileReport(t *testing.T, svc *report.Service, store *storage.MemoryStore, uid string, at time.Time) {
	t.Helper()
	r := models.Report{ReporterID: "someone", ReporteeID: uid, Category: "spam", CreatedAt: at}
	store.AddReport(r)
	svc.Now = func() time.Time { return at }
	require.NoError(t, svc.OnReportCreated(context.Background(), r))
}

func TestOnReportCreated_IgnoresEmptyAndUnknownReportee(t *testing.T) {
	storageMock := new(storagetest.MockStorage)
	svc := report.NewService(storageMock, zap.NewNop().Sugar())
	storageMock.On("GetUser", mock.Anything, "ghost").Return(nil, storage.ErrNotFound)

	assert.NoError(t, svc.OnReportCreated(context.Background(), models.Report{}))
	assert.NoError(t, svc.OnReportCreated(context.Background(), models.Report{ReporteeID: "ghost"}))

	storageMock.AssertNumberOfCalls(t, "GetUser", 1)
	storageMock.AssertNotCalled(t, "CountReportsSince", mock.Anything, mock.Anything, mock.Anything)
}

func TestOnReportCreated_CountFailureIsReturned(t *testing.T) {
	storageMock := new(storagetest.MockStorage)
	svc := report.NewService(storageMock, zap.NewNop().Sugar())
	storageMock.On("GetUser", mock.Anything, "u1").Return(&models.User{ID: "u1"}, nil)
	storageMock.On("CountReportsSince", mock.Anything, "u1", mock.Anything).Return(0, errors.New("deadline exceeded"))

	err := svc.OnReportCreated(context.Background(), models.Report{ReporteeID: "u1"})

	assert.ErrorContains(t, err, "deadline exceeded")
	storageMock.AssertNotCalled(t, "UpdateUserTrust", mock.Anything, mock.Anything, mock.Anything)
}

func TestOnReportCreated_CascadeFailureIsReturned(t *testing.T) {
	storageMock := new(storagetest.MockStorage)
	svc := report.NewService(storageMock, zap.NewNop().Sugar())
	storageMock.On("GetUser", mock.Anything, "u1").Return(&models.User{ID: "u1"}, nil)
	storageMock.On("CountReportsSince", mock.Anything, "u1", mock.Anything).Return(3, nil)
	storageMock.On("UpdateUserTrust", mock.Anything, "u1", mock.Anything).
		Return(models.TrustRecord{}, 0, errors.New("transaction aborted"))

	err := svc.OnReportCreated(context.Background(), models.Report{ReporteeID: "u1"})

	assert.ErrorContains(t, err, "transaction aborted")
}

func TestOnReportCreated_BelowThresholdOnlyCounts(t *testing.T) {
	svc, store := newMemoryService(baseTime)
	store.PutUser(models.User{ID: "u1"})
	store.PutPost(models.BoardsCollection, models.Post{ID: "p1", AuthorID: "u1", Status: config.PostStatusActive})

	fileReport(t, svc, store, "u1", baseTime)
	fileReport(t, svc, store, "u1", baseTime.Add(time.Hour))

	u, _ := store.GetUser(context.Background(), "u1")
	assert.Equal(t, 2, u.Report.Total)
	assert.Equal(t, 2, u.Report.Recent30Days)
	assert.Nil(t, u.Report.SuspendUntil)
	p, _ := store.Post(models.BoardsCollection, "p1")
	assert.Equal(t, config.PostStatusActive, p.Status)
}

func TestOnReportCreated_ThirdReportIn7DaysSuspends(t *testing.T) {
	svc, store := newMemoryService(baseTime)
	cache := &recordingCache{}
	feed := &recordingFeed{}
	svc.Suspensions = cache
	svc.Feed = feed
	store.PutUser(models.User{ID: "u1"})
	store.PutPost(models.BoardsCollection, models.Post{ID: "p1", AuthorID: "u1", Status: config.PostStatusActive})
	store.PutPost(models.CommunitiesCollection, models.Post{ID: "c1", AuthorID: "u1", Status: config.PostStatusActive})

	third := baseTime.Add(48 * time.Hour)
	fileReport(t, svc, store, "u1", baseTime)
	fileReport(t, svc, store, "u1", baseTime.Add(24*time.Hour))
	fileReport(t, svc, store, "u1", third)

	u, _ := store.GetUser(context.Background(), "u1")
	require.NotNil(t, u.Report.SuspendUntil)
	assert.Equal(t, analysis.NextMidnight(third, config.ShortSuspensionDays), *u.Report.SuspendUntil)
	assert.False(t, u.Report.NeedsAdminReview)
	assert.Equal(t, 3, u.Report.Total)

	for _, ref := range []struct{ coll, id string }{{models.BoardsCollection, "p1"}, {models.CommunitiesCollection, "c1"}} {
		p, _ := store.Post(ref.coll, ref.id)
		assert.Equal(t, config.PostStatusHidden, p.Status, ref.id)
	}
	assert.Equal(t, *u.Report.SuspendUntil, cache.marked["u1"])
	require.Len(t, feed.events, 1)
	assert.Equal(t, models.ModerationSuspended, feed.events[0].Type)
	assert.Equal(t, 2, feed.events[0].Posts)
}

func TestOnReportCreated_SeventhReportIn30DaysFlagsForReview(t *testing.T) {
	svc, store := newMemoryService(baseTime)
	reviews := new(MockReviews)
	alerts := new(MockAlerts)
	svc.Reviews = reviews
	svc.Alerts = alerts
	store.PutUser(models.User{ID: "u1"})

	reviews.On("Open", mock.Anything, mock.MatchedBy(func(r *models.AdminReview) bool {
		return r.UserID == "u1" && r.Recent30Days == 7
	})).Return(nil).Once()
	alerts.On("NotifyFlagged", mock.Anything, mock.MatchedBy(func(r models.AdminReview) bool {
		return r.UserID == "u1" && len(r.Categories) == 1 && r.Categories[0] == "spam"
	})).Return(nil).Once()

	// Four days apart, so no 7-day window ever holds three reports.
	var last time.Time
	for i := 0; i < 7; i++ {
		last = baseTime.Add(time.Duration(i) * 4 * 24 * time.Hour)
		fileReport(t, svc, store, "u1", last)
	}

	u, _ := store.GetUser(context.Background(), "u1")
	require.NotNil(t, u.Report.SuspendUntil)
	assert.Equal(t, analysis.NextMidnight(last, config.LongSuspensionDays), *u.Report.SuspendUntil)
	assert.True(t, u.Report.NeedsAdminReview)
	reviews.AssertExpectations(t)
	alerts.AssertExpectations(t)
}

func TestOnReportCreated_30DayRuleWinsOverBoth(t *testing.T) {
	svc, store := newMemoryService(baseTime)
	store.PutUser(models.User{ID: "u1"})

	var last time.Time
	for i := 0; i < 7; i++ {
		last = baseTime.Add(time.Duration(i) * time.Hour)
		fileReport(t, svc, store, "u1", last)
	}

	u, _ := store.GetUser(context.Background(), "u1")
	assert.Equal(t, analysis.NextMidnight(last, config.LongSuspensionDays), *u.Report.SuspendUntil)
	assert.True(t, u.Report.NeedsAdminReview)
}

func TestOnReportCreated_DeadlineNeverShrinks(t *testing.T) {
	svc, store := newMemoryService(baseTime)
	long := analysis.NextMidnight(baseTime, config.LongSuspensionDays)
	store.PutUser(models.User{ID: "u1", Report: models.TrustRecord{Total: 9, SuspendUntil: &long}})
	feed := &recordingFeed{}
	svc.Feed = feed

	for i := 0; i < 3; i++ {
		fileReport(t, svc, store, "u1", baseTime.Add(time.Duration(i)*time.Hour))
	}

	u, _ := store.GetUser(context.Background(), "u1")
	assert.Equal(t, long, *u.Report.SuspendUntil, "a 7-day candidate never replaces a later deadline")
	assert.Equal(t, 12, u.Report.Total)
	assert.Empty(t, feed.events, "nothing was extended")
}

func TestOnReportCreated_SideEffectFailuresAreSwallowed(t *testing.T) {
	svc, store := newMemoryService(baseTime)
	reviews := new(MockReviews)
	alerts := new(MockAlerts)
	svc.Reviews = reviews
	svc.Alerts = alerts
	reviews.On("Open", mock.Anything, mock.Anything).Return(errors.New("postgres down"))
	alerts.On("NotifyFlagged", mock.Anything, mock.Anything).Return(errors.New("telegram down"))
	store.PutUser(models.User{ID: "u1"})
	for i := 0; i < 6; i++ {
		store.AddReport(models.Report{ReporteeID: "u1", CreatedAt: baseTime})
	}

	fileReport(t, svc, store, "u1", baseTime)

	u, _ := store.GetUser(context.Background(), "u1")
	assert.True(t, u.Report.NeedsAdminReview)
}

func TestRestoreUserPostsAfterSuspension(t *testing.T) {
	svc, store := newMemoryService(baseTime)
	cache := &recordingCache{}
	feed := &recordingFeed{}
	svc.Suspensions = cache
	svc.Feed = feed
	store.PutPost(models.BoardsCollection, models.Post{ID: "p1", AuthorID: "u1", Status: config.PostStatusHidden})
	store.PutPost(models.BoardsCollection, models.Post{ID: "p2", AuthorID: "u1", Status: config.PostStatusDone})

	n, err := svc.RestoreUserPostsAfterSuspension(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	p, _ := store.Post(models.BoardsCollection, "p1")
	assert.Equal(t, config.PostStatusActive, p.Status)
	assert.Equal(t, []string{"u1"}, cache.cleared)
	require.Len(t, feed.events, 1)
	assert.Equal(t, models.ModerationRestored, feed.events[0].Type)

	_, err = svc.RestoreUserPostsAfterSuspension(context.Background(), " ")
	assert.Error(t, err)
}

func TestRestoreUserPostsAfterSuspension_StoreFailure(t *testing.T) {
	storageMock := new(storagetest.MockStorage)
	svc := report.NewService(storageMock, zap.NewNop().Sugar())
	storageMock.On("RestoreUserPosts", mock.Anything, "u1").Return(0, errors.New("boom"))

	_, err := svc.RestoreUserPostsAfterSuspension(context.Background(), "u1")

	assert.ErrorContains(t, err, "boom")
}
