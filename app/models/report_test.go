package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReportStatus(t *testing.T) {
	tests := []struct {
		in   string
		want ReportStatus
		ok   bool
	}{
		{"Pending", ReportStatusPending, true},
		{"On Going", ReportStatusOnGoing, true},
		{"OnGoing", ReportStatusOnGoing, true},
		{"on_going", ReportStatusOnGoing, true},
		{"Pending Confirmation", ReportStatusPendingConfirmation, true},
		{"PendingConfirmation", ReportStatusPendingConfirmation, true},
		{" resolved ", ReportStatusResolved, true},
		{"Closed", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseReportStatus(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildDisplayName(t *testing.T) {
	assert.Equal(t, "Juan D Cruz", BuildDisplayName("Juan", "D", "Cruz", "ignored"))
	assert.Equal(t, "Juan Cruz", BuildDisplayName(" Juan ", "", "Cruz", ""))
	assert.Equal(t, "Anonymous Fan", BuildDisplayName("", "", "", "Anonymous Fan"))
	assert.Equal(t, "", BuildDisplayName("", " ", "", ""))
}

func TestReportCloneIsDeep(t *testing.T) {
	now := time.Now()
	orig := &Report{
		ID:                       "r1",
		DisplayName:              StringPtr("Juan"),
		Description:              StringPtr("trash pile"),
		PendingConfirmationSince: &now,
	}

	c := orig.Clone()
	require.NotNil(t, c)
	*c.DisplayName = "changed"
	c.Description = nil
	later := now.Add(time.Hour)
	c.PendingConfirmationSince = &later

	assert.Equal(t, "Juan", *orig.DisplayName)
	assert.Equal(t, "trash pile", *orig.Description)
	assert.True(t, orig.PendingConfirmationSince.Equal(now))
}

func TestReportHasPII(t *testing.T) {
	r := &Report{}
	assert.False(t, r.HasPII())
	r.Contact = StringPtr("0917")
	assert.True(t, r.HasPII())
}

func TestUserFullNameAndValidate(t *testing.T) {
	u := &User{ID: "u1", FirstName: "Maria", MiddleInitial: "L", LastName: "Santos", Role: ROLE_USER, Status: STATUS_ACTIVE}
	assert.Equal(t, "Maria L. Santos", u.FullName())
	assert.NoError(t, u.Validate())
	assert.True(t, u.IsActive())

	u.Role = "owner"
	assert.Error(t, u.Validate())
}
