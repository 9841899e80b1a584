package workflow

import (
	"time"

	"github.com/ecocheck/ecocheck/app/models"
)

// RoleSystem is held only by the scheduler's actor.
const RoleSystem = "system"

// Actor is a verified identity acting on reports.
type Actor struct {
	ID       string
	Role     string
	Location string
	Active   bool
}

// SystemActor is the identity the auto-resolve sweep acts as.
var SystemActor = Actor{ID: "system", Role: RoleSystem, Active: true}

func (a Actor) IsSuperAdmin() bool { return a.Role == models.ROLE_SUPERADMIN }
func (a Actor) IsAdmin() bool      { return a.Role == models.ROLE_ADMIN }
func (a Actor) IsStaff() bool      { return a.IsAdmin() || a.IsSuperAdmin() }
func (a Actor) IsSystem() bool     { return a.Role == RoleSystem }

// Action is something an actor attempts on a report.
type Action string

const (
	ActionView        Action = "view"
	ActionSetStatus   Action = "set_status"
	ActionConfirm     Action = "confirm"
	ActionReject      Action = "reject"
	ActionAutoResolve Action = "auto_resolve"
	ActionBackfill    Action = "redact_backfill"
)

// Authorize is the single access rule for report operations. report may be
// nil for actions that are not tied to one report.
//
//   - inactive actors may do nothing
//   - superadmins manage every report
//   - admins manage reports whose userLocation equals their own location;
//     an admin without a location manages nothing
//   - reporters view their own reports, move them to On Going, and are the
//     only ones who may confirm or reject a resolution
//   - the system actor may only auto-resolve
func Authorize(action Action, actor Actor, report *models.Report) error {
	op := string(action)
	id := ""
	if report != nil {
		id = report.ID
	}

	if !actor.Active {
		return newError(ErrForbidden, op, id, "account is not active")
	}

	if actor.IsSystem() {
		if action == ActionAutoResolve {
			return nil
		}
		return newError(ErrForbidden, op, id, "system actor may only auto-resolve")
	}
	if action == ActionAutoResolve {
		return newError(ErrForbidden, op, id, "only the scheduler may auto-resolve")
	}

	if action == ActionBackfill {
		if actor.IsSuperAdmin() {
			return nil
		}
		return newError(ErrForbidden, op, id, "superadmin role required")
	}

	if report == nil {
		return newError(ErrForbidden, op, id, "no report given")
	}
	owner := actor.ID != "" && actor.ID == report.ReporterID

	switch action {
	case ActionConfirm, ActionReject:
		if owner {
			return nil
		}
		return newError(ErrForbidden, op, id, "only the reporter may %s a resolution", action)
	case ActionView, ActionSetStatus:
		if owner || canManage(actor, report) {
			return nil
		}
		if actor.IsAdmin() && actor.Location == "" {
			return newError(ErrForbidden, op, id, "admin has no assigned location")
		}
		return newError(ErrForbidden, op, id, "report is outside your scope")
	}
	return newError(ErrForbidden, op, id, "unknown action")
}

func canManage(actor Actor, report *models.Report) bool {
	if actor.IsSuperAdmin() {
		return true
	}
	return actor.IsAdmin() && actor.Location != "" && actor.Location == report.UserLocation
}

// RedactPII clears every identifying field and stamps the redaction time.
// Calling it again on a redacted report changes nothing.
func RedactPII(r *models.Report, now time.Time) {
	if r.PIIRedactedAt != nil && !r.HasPII() {
		return
	}
	r.DisplayName = nil
	r.FirstName = nil
	r.MiddleName = nil
	r.LastName = nil
	r.Contact = nil
	r.Description = nil
	if r.PIIRedactedAt == nil {
		t := now
		r.PIIRedactedAt = &t
	}
}
