package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecocheck/ecocheck/app/models"
	"github.com/ecocheck/ecocheck/app/repository"
	"github.com/ecocheck/ecocheck/internal/pkg/database"
	"github.com/ecocheck/ecocheck/internal/pkg/notify"
)

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []notify.Message
	err  error
}

func (r *recordingNotifier) Notify(_ context.Context, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return r.err
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

type engineFixture struct {
	engine   *Engine
	repos    *repository.Repositories
	notifier *recordingNotifier
	clock    time.Time
}

func (f *engineFixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	db, err := database.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	f := &engineFixture{
		repos:    repository.NewRepositories(db),
		notifier: &recordingNotifier{},
		clock:    testNow,
	}
	f.engine = NewEngine(f.repos, f.notifier, Config{})
	f.engine.SetClock(func() time.Time { return f.clock })

	ctx := context.Background()
	for _, u := range []models.User{
		{ID: owner.ID, FirstName: "Juan", LastName: "Cruz", Email: "juan@example.com", ContactNumber: "09171234567", Role: models.ROLE_USER, Status: models.STATUS_ACTIVE, Location: owner.Location},
		{ID: stranger.ID, Role: models.ROLE_USER, Status: models.STATUS_ACTIVE, Location: stranger.Location},
	} {
		u := u
		require.NoError(t, f.repos.User.Create(ctx, &u))
	}
	return f
}

func (f *engineFixture) points(t *testing.T, userID string) int {
	t.Helper()
	u, err := f.repos.User.GetByID(context.Background(), userID)
	require.NoError(t, err)
	return u.Points
}

func (f *engineFixture) create(t *testing.T, actor Actor, in CreateReportInput) *models.Report {
	t.Helper()
	if in.PhotoURL == "" {
		in.PhotoURL = "/uploads/before.jpg"
	}
	if in.DisplayLocation == "" {
		in.DisplayLocation = "Rizal St."
	}
	r, err := f.engine.CreateReport(context.Background(), actor, in)
	require.NoError(t, err)
	return r
}

func TestEngine_CreateReport(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	r := f.create(t, owner, CreateReportInput{FirstName: "Juan", MiddleName: "D", LastName: "Cruz", Contact: "0917", Description: "trash"})
	assert.Equal(t, models.ReportStatusPending, r.Status)
	assert.Equal(t, owner.ID, r.ReporterID)
	assert.Equal(t, "Batangas", r.UserLocation, "falls back to the profile location")
	require.NotNil(t, r.DisplayName)
	assert.Equal(t, "Juan D Cruz", *r.DisplayName)

	explicit := f.create(t, owner, CreateReportInput{UserLocation: "Laguna"})
	assert.Equal(t, "Laguna", explicit.UserLocation, "explicit location overrides the profile")

	_, err := f.engine.CreateReport(ctx, owner, CreateReportInput{DisplayLocation: "x"})
	assert.ErrorIs(t, err, ErrValidation, "photo is required")

	noLoc := Actor{ID: "u-noloc", Role: models.ROLE_USER, Active: true}
	_, err = f.engine.CreateReport(ctx, noLoc, CreateReportInput{DisplayLocation: "x", PhotoURL: "/p.jpg"})
	assert.ErrorIs(t, err, ErrValidation, "no explicit and no profile location")
}

func TestEngine_ScenarioConfirm(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	r := f.create(t, owner, CreateReportInput{FirstName: "Juan", Contact: "0917", Description: "trash"})

	_, err := f.engine.SetStatus(ctx, adminA, r.ID, models.ReportStatusOnGoing, "")
	require.NoError(t, err)

	pending, err := f.engine.SetStatus(ctx, adminA, r.ID, models.ReportStatusPendingConfirmation, "/uploads/after.jpg")
	require.NoError(t, err)
	assert.False(t, pending.HasPII())
	require.NotNil(t, pending.PendingConfirmationSince)

	require.Equal(t, 1, f.notifier.count())
	msg := f.notifier.msgs[0]
	assert.Equal(t, notify.KindResolutionPending, msg.Kind)
	assert.Equal(t, "juan@example.com", msg.Recipient.Email)
	assert.Equal(t, "/uploads/after.jpg", msg.PhotoURL)

	stored, err := f.engine.GetReport(ctx, owner, r.ID)
	require.NoError(t, err)
	assert.False(t, stored.HasPII())

	resolved, err := f.engine.Confirm(ctx, owner, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusResolved, resolved.Status)
	assert.Nil(t, resolved.PendingConfirmationSince)
	assert.Equal(t, 10, f.points(t, owner.ID))

	_, err = f.engine.Confirm(ctx, owner, r.ID)
	assert.ErrorIs(t, err, ErrStateConflict)
	assert.Equal(t, 10, f.points(t, owner.ID), "no second award")
}

func TestEngine_ScenarioReject(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	r := f.create(t, owner, CreateReportInput{FirstName: "Juan"})

	_, err := f.engine.SetStatus(ctx, adminA, r.ID, models.ReportStatusPendingConfirmation, "")
	require.NoError(t, err)

	_, err = f.engine.Reject(ctx, owner, r.ID, "")
	assert.ErrorIs(t, err, ErrValidation)

	reopened, err := f.engine.Reject(ctx, owner, r.ID, "still present")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusOnGoing, reopened.Status)
	require.NotNil(t, reopened.RejectionReason)
	assert.Equal(t, "still present", *reopened.RejectionReason)
	assert.Nil(t, reopened.PendingConfirmationSince)
	assert.False(t, reopened.HasPII())
	assert.Equal(t, 0, f.points(t, owner.ID))
}

func TestEngine_ScenarioForeignConfirmForbidden(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	r := f.create(t, owner, CreateReportInput{})
	_, err := f.engine.SetStatus(ctx, adminA, r.ID, models.ReportStatusPendingConfirmation, "")
	require.NoError(t, err)

	_, err = f.engine.Confirm(ctx, stranger, r.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.engine.Reject(ctx, stranger, r.ID, "not fixed")
	assert.ErrorIs(t, err, ErrForbidden)

	stored, err := f.repos.Report.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusPendingConfirmation, stored.Status)
}

func TestEngine_NotFoundBeforeForbidden(t *testing.T) {
	f := newEngineFixture(t)
	_, err := f.engine.Confirm(context.Background(), stranger, "does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.engine.GetReport(context.Background(), stranger, "does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEngine_ListVisibility(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	f.create(t, owner, CreateReportInput{UserLocation: "Batangas", DisplayLocation: "Laguna Market"})
	f.create(t, owner, CreateReportInput{UserLocation: "Batangas"})
	f.create(t, stranger, CreateReportInput{UserLocation: "Laguna", DisplayLocation: "Batangas Port"})

	got, err := f.engine.ListReports(ctx, adminA, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	for _, r := range got {
		assert.Equal(t, "Batangas", r.UserLocation)
	}

	got, err = f.engine.ListReports(ctx, superAdmin, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = f.engine.ListReports(ctx, stranger, ListOptions{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, stranger.ID, got[0].ReporterID)

	_, err = f.engine.ListReports(ctx, adminNoLoc, ListOptions{})
	assert.ErrorIs(t, err, ErrForbidden, "admin without location gets an error, not an empty list")
}

func TestEngine_GetReportScope(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	r := f.create(t, owner, CreateReportInput{})

	_, err := f.engine.GetReport(ctx, adminB, r.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.engine.GetReport(ctx, stranger, r.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.engine.GetReport(ctx, adminA, r.ID)
	assert.NoError(t, err)
}

func TestEngine_NotifierFailureDoesNotFailTransition(t *testing.T) {
	f := newEngineFixture(t)
	f.notifier.err = errors.New("smtp unreachable")
	ctx := context.Background()
	r := f.create(t, owner, CreateReportInput{})

	out, err := f.engine.SetStatus(ctx, adminA, r.ID, models.ReportStatusPendingConfirmation, "")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusPendingConfirmation, out.Status)
	assert.Equal(t, 1, f.notifier.count())
}

type countingCache struct {
	mu    sync.Mutex
	drops int
}

func (c *countingCache) Invalidate(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ctx.Err() == nil {
		c.drops++
	}
}

func TestEngine_InvalidatesCachesAfterCommit(t *testing.T) {
	f := newEngineFixture(t)
	cache := &countingCache{}
	f.engine.InvalidateOnWrite(cache)

	r := f.create(t, owner, CreateReportInput{})
	assert.Equal(t, 1, cache.drops)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := f.engine.SetStatus(ctx, adminA, r.ID, models.ReportStatusPendingConfirmation, "")
	cancel()
	require.NoError(t, err)
	assert.Equal(t, 2, cache.drops)

	// Rejected and no-op operations write nothing.
	_, err = f.engine.SetStatus(context.Background(), adminA, r.ID, models.ReportStatusPendingConfirmation, "")
	assert.ErrorIs(t, err, ErrStateConflict)
	_, err = f.engine.Confirm(context.Background(), stranger, r.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, 2, cache.drops)
}

func TestEngine_DispatchSurvivesCancelledRequest(t *testing.T) {
	f := newEngineFixture(t)
	r := f.create(t, owner, CreateReportInput{})

	var deadlineOK bool
	f.engine.notifier = notify.Func(func(ctx context.Context, _ notify.Message) error {
		deadlineOK = ctx.Err() == nil
		_, hasDeadline := ctx.Deadline()
		deadlineOK = deadlineOK && hasDeadline
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	out, err := f.engine.SetStatus(ctx, adminA, r.ID, models.ReportStatusPendingConfirmation, "")
	cancel()
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusPendingConfirmation, out.Status)
	assert.True(t, deadlineOK)
}

func TestEngine_ConcurrentConfirmAwardsOnce(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	r := f.create(t, owner, CreateReportInput{})
	_, err := f.engine.SetStatus(ctx, adminA, r.ID, models.ReportStatusPendingConfirmation, "")
	require.NoError(t, err)

	const n = 5
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.engine.Confirm(ctx, owner, r.ID); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, ErrStateConflict)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, 10, f.points(t, owner.ID))
}

func TestEngine_RedactResolvedBackfill(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	legacy := &models.Report{
		ID: uuid.NewString(), ReporterID: owner.ID, Status: models.ReportStatusResolved,
		DisplayName: models.StringPtr("Old Name"), Contact: models.StringPtr("0917"),
		DisplayLocation: "x", UserLocation: "Batangas", PhotoURL: "/p.jpg",
	}
	require.NoError(t, f.repos.Report.Create(ctx, legacy))
	clean := &models.Report{
		ID: uuid.NewString(), ReporterID: owner.ID, Status: models.ReportStatusResolved,
		DisplayLocation: "y", UserLocation: "Batangas", PhotoURL: "/p.jpg",
	}
	require.NoError(t, f.repos.Report.Create(ctx, clean))
	f.create(t, owner, CreateReportInput{FirstName: "Still", Contact: "pending"})

	_, err := f.engine.RedactResolvedBackfill(ctx, adminA)
	assert.ErrorIs(t, err, ErrForbidden)

	res, err := f.engine.RedactResolvedBackfill(ctx, superAdmin)
	require.NoError(t, err)
	assert.Equal(t, BackfillResult{Total: 2, Updated: 1, Skipped: 1}, res)

	stored, err := f.repos.Report.GetByID(ctx, legacy.ID)
	require.NoError(t, err)
	assert.False(t, stored.HasPII())
	assert.NotNil(t, stored.PIIRedactedAt)

	res, err = f.engine.RedactResolvedBackfill(ctx, superAdmin)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Updated)
	assert.Equal(t, 2, res.Skipped)
}
