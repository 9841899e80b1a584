package workflow

import (
	"strings"
	"time"

	"github.com/ecocheck/ecocheck/app/models"
	"github.com/ecocheck/ecocheck/internal/pkg/notify"
)

// Event is a requested change to a report.
type Event interface {
	action() Action
}

// SetStatus moves a report to Target. ResolutionPhotoURL is attached when
// the target is Pending Confirmation or Resolved.
type SetStatus struct {
	Target             models.ReportStatus
	ResolutionPhotoURL string
}

// Confirm is the reporter accepting a resolution.
type Confirm struct{}

// Reject is the reporter disputing a resolution.
type Reject struct {
	Reason string
}

// AutoResolve closes a resolution the reporter did not answer within Window.
type AutoResolve struct {
	Window time.Duration
}

func (SetStatus) action() Action   { return ActionSetStatus }
func (Confirm) action() Action     { return ActionConfirm }
func (Reject) action() Action      { return ActionReject }
func (AutoResolve) action() Action { return ActionAutoResolve }

// Outcome is the result of applying an event. When NoOp is set nothing needs
// to be written and Report is the unchanged input.
type Outcome struct {
	Report *models.Report
	// From and FromVersion are what the write must still find in storage.
	From        models.ReportStatus
	FromVersion int64
	AwardPoints bool
	Notify      notify.Kind
	NoOp        bool
}

// Apply computes the next state of report for event. It performs no I/O
// and does not modify report.
//
// Checks run in a fixed order: authorization, then input validation, then
// the state machine.
func Apply(report *models.Report, event Event, actor Actor, now time.Time) (Outcome, error) {
	op := string(event.action())
	if err := Authorize(event.action(), actor, report); err != nil {
		return Outcome{}, err
	}

	current := report.Status
	next := report.Clone()
	next.UpdatedAt = now
	next.Version = report.Version + 1
	out := Outcome{Report: next, From: current, FromVersion: report.Version}

	switch ev := event.(type) {
	case SetStatus:
		target := ev.Target
		if !canManage(actor, report) && target != models.ReportStatusOnGoing {
			return Outcome{}, newError(ErrForbidden, op, report.ID, "reporters may only mark their report as %s", models.ReportStatusOnGoing)
		}
		if parsed, ok := models.ParseReportStatus(string(target)); !ok || parsed != target {
			return Outcome{}, newError(ErrValidation, op, report.ID, "invalid status %q", target)
		}
		photo := strings.TrimSpace(ev.ResolutionPhotoURL)
		if photo != "" && target != models.ReportStatusPendingConfirmation && target != models.ReportStatusResolved {
			return Outcome{}, newError(ErrValidation, op, report.ID, "a resolution photo only applies when resolving")
		}

		if target == current {
			if current == models.ReportStatusPendingConfirmation {
				return Outcome{}, newError(ErrStateConflict, op, report.ID, "report is already awaiting confirmation")
			}
			return Outcome{Report: report, From: current, FromVersion: report.Version, NoOp: true}, nil
		}
		if current.IsTerminal() {
			return Outcome{}, newError(ErrStateConflict, op, report.ID, "report is already %s", current)
		}

		switch target {
		case models.ReportStatusPending:
			return Outcome{}, newError(ErrStateConflict, op, report.ID, "cannot move a report back to %s", target)
		case models.ReportStatusOnGoing:
			if current == models.ReportStatusPendingConfirmation {
				return Outcome{}, newError(ErrStateConflict, op, report.ID, "use reject with a reason to reopen a report awaiting confirmation")
			}
			next.Status = models.ReportStatusOnGoing
		case models.ReportStatusPendingConfirmation:
			next.Status = models.ReportStatusPendingConfirmation
			since := now
			next.PendingConfirmationSince = &since
			if photo != "" {
				next.ResolutionPhotoURL = &photo
			}
			RedactPII(next, now)
			out.Notify = notify.KindResolutionPending
		case models.ReportStatusResolved:
			if photo != "" {
				next.ResolutionPhotoURL = &photo
			}
			resolve(next, now)
			out.AwardPoints = true
			out.Notify = notify.KindReportResolved
		}

	case Confirm:
		if current != models.ReportStatusPendingConfirmation {
			return Outcome{}, newError(ErrStateConflict, op, report.ID, "report is %s, not awaiting confirmation", current)
		}
		resolve(next, now)
		out.AwardPoints = true

	case Reject:
		reason := strings.TrimSpace(ev.Reason)
		if reason == "" {
			return Outcome{}, newError(ErrValidation, op, report.ID, "a rejection reason is required")
		}
		if current != models.ReportStatusPendingConfirmation {
			return Outcome{}, newError(ErrStateConflict, op, report.ID, "report is %s, not awaiting confirmation", current)
		}
		next.Status = models.ReportStatusOnGoing
		next.RejectionReason = &reason
		next.PendingConfirmationSince = nil

	case AutoResolve:
		if current != models.ReportStatusPendingConfirmation {
			return Outcome{}, newError(ErrStateConflict, op, report.ID, "report is %s, not awaiting confirmation", current)
		}
		since := report.PendingConfirmationSince
		if since == nil || now.Sub(*since) < ev.Window {
			return Outcome{}, newError(ErrStateConflict, op, report.ID, "confirmation window has not elapsed")
		}
		resolve(next, now)
		out.AwardPoints = true
		out.Notify = notify.KindReportResolved

	default:
		return Outcome{}, newError(ErrValidation, op, report.ID, "unsupported event")
	}

	return out, nil
}

// resolve moves next into Resolved. Redaction is repeated so a report
// resolved directly from On Going loses its PII too.
func resolve(next *models.Report, now time.Time) {
	next.Status = models.ReportStatusResolved
	next.PendingConfirmationSince = nil
	resolvedAt := now
	next.ResolvedAt = &resolvedAt
	RedactPII(next, now)
}
