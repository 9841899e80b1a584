package models

import (
	"strings"
	"time"
)

// ReportStatus is the lifecycle state of a report. Values match the strings
// the mobile client sends and displays.
type ReportStatus string

const (
	ReportStatusPending             ReportStatus = "Pending"
	ReportStatusOnGoing             ReportStatus = "On Going"
	ReportStatusPendingConfirmation ReportStatus = "Pending Confirmation"
	ReportStatusResolved            ReportStatus = "Resolved"
)

// AllReportStatuses lists the statuses in lifecycle order.
var AllReportStatuses = []ReportStatus{
	ReportStatusPending,
	ReportStatusOnGoing,
	ReportStatusPendingConfirmation,
	ReportStatusResolved,
}

// ParseReportStatus accepts the display form ("On Going") as well as compact
// forms ("OnGoing", "on_going"). Matching ignores case.
func ParseReportStatus(s string) (ReportStatus, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(key)
	switch key {
	case "pending":
		return ReportStatusPending, true
	case "ongoing":
		return ReportStatusOnGoing, true
	case "pendingconfirmation":
		return ReportStatusPendingConfirmation, true
	case "resolved":
		return ReportStatusResolved, true
	}
	return "", false
}

// IsTerminal reports whether no further transitions are allowed.
func (s ReportStatus) IsTerminal() bool {
	return s == ReportStatusResolved
}

func (s ReportStatus) String() string {
	return string(s)
}

// Report is a citizen submitted environmental issue.
//
// DisplayName, FirstName, MiddleName, LastName, Contact and Description are
// personally identifying and get cleared once the report reaches resolution.
// UserLocation is the reporter's region used for admin scoping and is never
// cleared. Version increases with every workflow write and guards the next
// one.
type Report struct {
	ID                       string       `gorm:"primaryKey;type:varchar(36)" json:"id" bson:"_id"`
	ReporterID               string       `gorm:"type:varchar(36);index;not null" json:"reporterId" bson:"reporter_id"`
	Status                   ReportStatus `gorm:"type:varchar(32);index;not null;default:'Pending'" json:"status" bson:"status"`
	DisplayName              *string      `gorm:"type:varchar(255)" json:"displayName" bson:"display_name"`
	FirstName                *string      `gorm:"type:varchar(100)" json:"firstName" bson:"first_name"`
	MiddleName               *string      `gorm:"type:varchar(100)" json:"middleName" bson:"middle_name"`
	LastName                 *string      `gorm:"type:varchar(100)" json:"lastName" bson:"last_name"`
	Contact                  *string      `gorm:"type:varchar(50)" json:"contact" bson:"contact"`
	Description              *string      `gorm:"type:text" json:"description" bson:"description"`
	DisplayLocation          string       `gorm:"type:varchar(255);not null" json:"displayLocation" bson:"display_location"`
	UserLocation             string       `gorm:"type:varchar(100);index;not null" json:"userLocation" bson:"user_location"`
	Landmark                 string       `gorm:"type:varchar(255)" json:"landmark" bson:"landmark"`
	Latitude                 *float64     `json:"latitude,omitempty" bson:"latitude,omitempty"`
	Longitude                *float64     `json:"longitude,omitempty" bson:"longitude,omitempty"`
	PhotoURL                 string       `gorm:"type:varchar(512);not null" json:"photoUrl" bson:"photo_url"`
	ResolutionPhotoURL       *string      `gorm:"type:varchar(512)" json:"resolutionPhotoUrl,omitempty" bson:"resolution_photo_url,omitempty"`
	RejectionReason          *string      `gorm:"type:text" json:"rejectionReason,omitempty" bson:"rejection_reason,omitempty"`
	PendingConfirmationSince *time.Time   `gorm:"index" json:"pendingConfirmationSince,omitempty" bson:"pending_confirmation_since,omitempty"`
	PIIRedactedAt            *time.Time   `json:"piiRedactedAt,omitempty" bson:"pii_redacted_at,omitempty"`
	ResolvedAt               *time.Time   `json:"resolvedAt,omitempty" bson:"resolved_at,omitempty"`
	Version                  int64        `gorm:"not null;default:0" json:"version" bson:"version"`
	CreatedAt                time.Time    `gorm:"autoCreateTime" json:"createdAt" bson:"created_at"`
	UpdatedAt                time.Time    `gorm:"autoUpdateTime" json:"updatedAt" bson:"updated_at"`
}

// HasPII reports whether any identifying field still carries a value.
func (r *Report) HasPII() bool {
	for _, f := range []*string{r.DisplayName, r.FirstName, r.MiddleName, r.LastName, r.Contact, r.Description} {
		if f != nil {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can derive a next state without
// touching the original.
func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}
	c := *r
	c.DisplayName = cloneString(r.DisplayName)
	c.FirstName = cloneString(r.FirstName)
	c.MiddleName = cloneString(r.MiddleName)
	c.LastName = cloneString(r.LastName)
	c.Contact = cloneString(r.Contact)
	c.Description = cloneString(r.Description)
	c.ResolutionPhotoURL = cloneString(r.ResolutionPhotoURL)
	c.RejectionReason = cloneString(r.RejectionReason)
	c.Latitude = cloneFloat(r.Latitude)
	c.Longitude = cloneFloat(r.Longitude)
	c.PendingConfirmationSince = cloneTime(r.PendingConfirmationSince)
	c.PIIRedactedAt = cloneTime(r.PIIRedactedAt)
	c.ResolvedAt = cloneTime(r.ResolvedAt)
	return &c
}

// BuildDisplayName joins the non-empty name parts with single spaces and
// falls back to name when all parts are empty.
func BuildDisplayName(first, middle, last, name string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{first, middle, last} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return strings.TrimSpace(name)
	}
	return strings.Join(parts, " ")
}

// StringPtr returns nil for blank input.
func StringPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
