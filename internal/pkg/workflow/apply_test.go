package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecocheck/ecocheck/app/models"
	"github.com/ecocheck/ecocheck/internal/pkg/notify"
)

var (
	testNow    = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	owner      = Actor{ID: "u-owner", Role: models.ROLE_USER, Location: "Batangas", Active: true}
	stranger   = Actor{ID: "u-other", Role: models.ROLE_USER, Location: "Batangas", Active: true}
	adminA     = Actor{ID: "a-1", Role: models.ROLE_ADMIN, Location: "Batangas", Active: true}
	adminB     = Actor{ID: "a-2", Role: models.ROLE_ADMIN, Location: "Laguna", Active: true}
	adminNoLoc = Actor{ID: "a-3", Role: models.ROLE_ADMIN, Active: true}
	superAdmin = Actor{ID: "s-1", Role: models.ROLE_SUPERADMIN, Active: true}
)

func newReport(status models.ReportStatus) *models.Report {
	r := &models.Report{
		ID:              "r-1",
		ReporterID:      owner.ID,
		Status:          status,
		DisplayName:     models.StringPtr("Juan D Cruz"),
		FirstName:       models.StringPtr("Juan"),
		MiddleName:      models.StringPtr("D"),
		LastName:        models.StringPtr("Cruz"),
		Contact:         models.StringPtr("09171234567"),
		Description:     models.StringPtr("Garbage pile near the creek"),
		DisplayLocation: "Rizal St., Poblacion",
		UserLocation:    "Batangas",
		PhotoURL:        "/uploads/before.jpg",
	}
	if status == models.ReportStatusPendingConfirmation {
		since := testNow.Add(-time.Hour)
		r.PendingConfirmationSince = &since
		RedactPII(r, since)
	}
	return r
}

func TestApply_SetStatusTransitions(t *testing.T) {
	tests := []struct {
		name     string
		from     models.ReportStatus
		target   models.ReportStatus
		actor    Actor
		wantErr  error
		wantNoOp bool
		want     models.ReportStatus
	}{
		{"admin pending to on going", models.ReportStatusPending, models.ReportStatusOnGoing, adminA, nil, false, models.ReportStatusOnGoing},
		{"owner pending to on going", models.ReportStatusPending, models.ReportStatusOnGoing, owner, nil, false, models.ReportStatusOnGoing},
		{"admin on going to pending confirmation", models.ReportStatusOnGoing, models.ReportStatusPendingConfirmation, adminA, nil, false, models.ReportStatusPendingConfirmation},
		{"admin pending to pending confirmation", models.ReportStatusPending, models.ReportStatusPendingConfirmation, adminA, nil, false, models.ReportStatusPendingConfirmation},
		{"superadmin resolves directly", models.ReportStatusOnGoing, models.ReportStatusResolved, superAdmin, nil, false, models.ReportStatusResolved},
		{"on going again is a no-op", models.ReportStatusOnGoing, models.ReportStatusOnGoing, adminA, nil, true, models.ReportStatusOnGoing},
		{"resolved again is a no-op", models.ReportStatusResolved, models.ReportStatusResolved, adminA, nil, true, models.ReportStatusResolved},
		{"pending confirmation twice conflicts", models.ReportStatusPendingConfirmation, models.ReportStatusPendingConfirmation, adminA, ErrStateConflict, false, ""},
		{"reopen awaiting confirmation conflicts", models.ReportStatusPendingConfirmation, models.ReportStatusOnGoing, adminA, ErrStateConflict, false, ""},
		{"resolved is terminal", models.ReportStatusResolved, models.ReportStatusOnGoing, superAdmin, ErrStateConflict, false, ""},
		{"back to pending conflicts", models.ReportStatusOnGoing, models.ReportStatusPending, adminA, ErrStateConflict, false, ""},
		{"owner may not resolve", models.ReportStatusOnGoing, models.ReportStatusPendingConfirmation, owner, ErrForbidden, false, ""},
		{"stranger may not touch", models.ReportStatusPending, models.ReportStatusOnGoing, stranger, ErrForbidden, false, ""},
		{"admin outside location", models.ReportStatusPending, models.ReportStatusOnGoing, adminB, ErrForbidden, false, ""},
		{"admin without location", models.ReportStatusPending, models.ReportStatusOnGoing, adminNoLoc, ErrForbidden, false, ""},
		{"unknown status", models.ReportStatusPending, models.ReportStatus("Closed"), adminA, ErrValidation, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := newReport(tt.from)
			out, err := Apply(report, SetStatus{Target: tt.target}, tt.actor, testNow)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantNoOp, out.NoOp)
			assert.Equal(t, tt.want, out.Report.Status)
			assert.Equal(t, tt.from, out.From)
			assert.Equal(t, report.Version, out.FromVersion)
			if !out.NoOp {
				assert.Equal(t, report.Version+1, out.Report.Version)
			}
		})
	}
}

func TestApply_OwnerReopenPointsToReject(t *testing.T) {
	report := newReport(models.ReportStatusPendingConfirmation)

	_, err := Apply(report, SetStatus{Target: models.ReportStatusOnGoing}, owner, testNow)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStateConflict)
	assert.Contains(t, err.Error(), "use reject")
	assert.NotContains(t, err.Error(), "only the reporter")
}

func TestApply_PendingConfirmationRedactsAndNotifies(t *testing.T) {
	report := newReport(models.ReportStatusOnGoing)

	out, err := Apply(report, SetStatus{Target: models.ReportStatusPendingConfirmation, ResolutionPhotoURL: "/uploads/after.jpg"}, adminA, testNow)
	require.NoError(t, err)

	next := out.Report
	assert.False(t, next.HasPII())
	require.NotNil(t, next.PIIRedactedAt)
	require.NotNil(t, next.PendingConfirmationSince)
	assert.True(t, next.PendingConfirmationSince.Equal(testNow))
	require.NotNil(t, next.ResolutionPhotoURL)
	assert.Equal(t, "/uploads/after.jpg", *next.ResolutionPhotoURL)
	assert.Equal(t, "Batangas", next.UserLocation)
	assert.Equal(t, "Rizal St., Poblacion", next.DisplayLocation)
	assert.Equal(t, notify.KindResolutionPending, out.Notify)
	assert.False(t, out.AwardPoints)

	// The input is untouched.
	assert.True(t, report.HasPII())
	assert.Equal(t, models.ReportStatusOnGoing, report.Status)
}

func TestApply_ResolutionPhotoOnlyWhenResolving(t *testing.T) {
	_, err := Apply(newReport(models.ReportStatusPending), SetStatus{Target: models.ReportStatusOnGoing, ResolutionPhotoURL: "/x.jpg"}, adminA, testNow)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestApply_DirectResolveAwardsAndRedacts(t *testing.T) {
	out, err := Apply(newReport(models.ReportStatusOnGoing), SetStatus{Target: models.ReportStatusResolved}, superAdmin, testNow)
	require.NoError(t, err)
	assert.True(t, out.AwardPoints)
	assert.False(t, out.Report.HasPII())
	assert.Nil(t, out.Report.PendingConfirmationSince)
	require.NotNil(t, out.Report.ResolvedAt)
}

func TestApply_Confirm(t *testing.T) {
	out, err := Apply(newReport(models.ReportStatusPendingConfirmation), Confirm{}, owner, testNow)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusResolved, out.Report.Status)
	assert.True(t, out.AwardPoints)
	assert.Nil(t, out.Report.PendingConfirmationSince)
	assert.False(t, out.Report.HasPII())

	_, err = Apply(out.Report, Confirm{}, owner, testNow)
	assert.ErrorIs(t, err, ErrStateConflict, "second confirm must conflict, not award again")

	_, err = Apply(newReport(models.ReportStatusPendingConfirmation), Confirm{}, stranger, testNow)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = Apply(newReport(models.ReportStatusPendingConfirmation), Confirm{}, adminA, testNow)
	assert.ErrorIs(t, err, ErrForbidden, "admins cannot confirm on behalf of reporters")
}

func TestApply_Reject(t *testing.T) {
	report := newReport(models.ReportStatusPendingConfirmation)

	_, err := Apply(report, Reject{Reason: "   "}, owner, testNow)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = Apply(report, Reject{Reason: "still present"}, stranger, testNow)
	assert.ErrorIs(t, err, ErrForbidden, "authorization is checked before validation")

	_, err = Apply(report, Reject{}, stranger, testNow)
	assert.ErrorIs(t, err, ErrForbidden)

	out, err := Apply(report, Reject{Reason: " still present "}, owner, testNow)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusOnGoing, out.Report.Status)
	require.NotNil(t, out.Report.RejectionReason)
	assert.Equal(t, "still present", *out.Report.RejectionReason)
	assert.Nil(t, out.Report.PendingConfirmationSince)
	assert.False(t, out.AwardPoints)
	assert.False(t, out.Report.HasPII(), "rejecting keeps PII redacted")

	_, err = Apply(newReport(models.ReportStatusOnGoing), Reject{Reason: "x"}, owner, testNow)
	assert.ErrorIs(t, err, ErrStateConflict)
}

func TestApply_AutoResolve(t *testing.T) {
	window := 72 * time.Hour
	report := newReport(models.ReportStatusPendingConfirmation)
	since := testNow.Add(-window - time.Minute)
	report.PendingConfirmationSince = &since

	_, err := Apply(report, AutoResolve{Window: window}, adminA, testNow)
	assert.ErrorIs(t, err, ErrForbidden)

	out, err := Apply(report, AutoResolve{Window: window}, SystemActor, testNow)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusResolved, out.Report.Status)
	assert.True(t, out.AwardPoints)
	assert.Equal(t, notify.KindReportResolved, out.Notify)

	fresh := newReport(models.ReportStatusPendingConfirmation)
	_, err = Apply(fresh, AutoResolve{Window: window}, SystemActor, testNow)
	assert.ErrorIs(t, err, ErrStateConflict)

	_, err = Apply(out.Report, AutoResolve{Window: window}, SystemActor, testNow)
	assert.ErrorIs(t, err, ErrStateConflict)
}

func TestApply_InactiveActorForbidden(t *testing.T) {
	inactive := adminA
	inactive.Active = false
	_, err := Apply(newReport(models.ReportStatusPending), SetStatus{Target: models.ReportStatusOnGoing}, inactive, testNow)
	assert.ErrorIs(t, err, ErrForbidden)
}

// Walks every event from every status and checks the result stays inside
// the known set and never regains PII once redacted.
func TestApply_StatusClosureAndMonotonicRedaction(t *testing.T) {
	events := []struct {
		ev    Event
		actor Actor
	}{
		{SetStatus{Target: models.ReportStatusPending}, adminA},
		{SetStatus{Target: models.ReportStatusOnGoing}, adminA},
		{SetStatus{Target: models.ReportStatusOnGoing}, owner},
		{SetStatus{Target: models.ReportStatusPendingConfirmation}, adminA},
		{SetStatus{Target: models.ReportStatusResolved}, superAdmin},
		{Confirm{}, owner},
		{Reject{Reason: "nope"}, owner},
		{AutoResolve{Window: 0}, SystemActor},
	}
	known := map[models.ReportStatus]bool{}
	for _, s := range models.AllReportStatuses {
		known[s] = true
	}

	for _, from := range models.AllReportStatuses {
		for _, e := range events {
			report := newReport(from)
			wasRedacted := report.PIIRedactedAt != nil
			out, err := Apply(report, e.ev, e.actor, testNow)
			if err != nil {
				continue
			}
			assert.True(t, known[out.Report.Status], "status %q reached from %q", out.Report.Status, from)
			if wasRedacted {
				assert.False(t, out.Report.HasPII(), "PII came back after %T from %q", e.ev, from)
			}
			if out.AwardPoints {
				assert.NotEqual(t, models.ReportStatusResolved, from, "points awarded for a report already resolved")
				assert.Equal(t, models.ReportStatusResolved, out.Report.Status)
			}
		}
	}
}
