package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/ecocheck/ecocheck/app/models"
	"github.com/ecocheck/ecocheck/app/repository"
	"github.com/ecocheck/ecocheck/internal/pkg/notify"
)

const (
	DefaultPointsPerResolution = 10
	DefaultAutoResolveWindow   = 72 * time.Hour
	DefaultNotifyTimeout       = 10 * time.Second
)

// Config tunes the engine. Zero values fall back to the defaults.
type Config struct {
	PointsPerResolution int
	AutoResolveWindow   time.Duration
	NotifyTimeout       time.Duration
}

func (c Config) withDefaults() Config {
	if c.PointsPerResolution <= 0 {
		c.PointsPerResolution = DefaultPointsPerResolution
	}
	if c.AutoResolveWindow <= 0 {
		c.AutoResolveWindow = DefaultAutoResolveWindow
	}
	if c.NotifyTimeout <= 0 {
		c.NotifyTimeout = DefaultNotifyTimeout
	}
	return c
}

// Engine runs report operations: it loads the report, applies the event,
// persists the outcome with a status guard and dispatches notifications
// after the write.
type Engine struct {
	reports  repository.ReportRepository
	users    repository.UserRepository
	notifier notify.Notifier
	caches   []Invalidator
	cfg      Config
	now      func() time.Time
}

// Invalidator drops data derived from the report table.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// NewEngine creates an engine. A nil notifier only logs.
func NewEngine(repos *repository.Repositories, notifier notify.Notifier, cfg Config) *Engine {
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	return &Engine{
		reports:  repos.Report,
		users:    repos.User,
		notifier: notify.WithFallback(notifier, notify.LogNotifier{}),
		cfg:      cfg.withDefaults(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// InvalidateOnWrite registers caches to drop after every committed write.
func (e *Engine) InvalidateOnWrite(caches ...Invalidator) {
	e.caches = append(e.caches, caches...)
}

// SetClock replaces the time source.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// CreateReportInput is the reporter supplied part of a new report.
type CreateReportInput struct {
	Name            string
	FirstName       string
	MiddleName      string
	LastName        string
	Contact         string
	Description     string
	DisplayLocation string
	UserLocation    string
	Landmark        string
	Latitude        *float64
	Longitude       *float64
	PhotoURL        string
}

// CreateReport stores a new Pending report owned by actor. An empty
// UserLocation falls back to the actor's profile location.
func (e *Engine) CreateReport(ctx context.Context, actor Actor, in CreateReportInput) (*models.Report, error) {
	const op = "create"
	if !actor.Active || actor.IsSystem() || actor.ID == "" {
		return nil, newError(ErrForbidden, op, "", "account may not submit reports")
	}
	if strings.TrimSpace(in.PhotoURL) == "" {
		return nil, newError(ErrValidation, op, "", "a photo is required")
	}
	displayLocation := strings.TrimSpace(in.DisplayLocation)
	if displayLocation == "" {
		return nil, newError(ErrValidation, op, "", "location is required")
	}
	userLocation := strings.TrimSpace(in.UserLocation)
	if userLocation == "" {
		userLocation = strings.TrimSpace(actor.Location)
	}
	if userLocation == "" {
		return nil, newError(ErrValidation, op, "", "user location is required when the profile has none")
	}

	now := e.now()
	report := &models.Report{
		ID:              uuid.NewString(),
		ReporterID:      actor.ID,
		Status:          models.ReportStatusPending,
		DisplayName:     models.StringPtr(models.BuildDisplayName(in.FirstName, in.MiddleName, in.LastName, in.Name)),
		FirstName:       models.StringPtr(in.FirstName),
		MiddleName:      models.StringPtr(in.MiddleName),
		LastName:        models.StringPtr(in.LastName),
		Contact:         models.StringPtr(in.Contact),
		Description:     models.StringPtr(in.Description),
		DisplayLocation: displayLocation,
		UserLocation:    userLocation,
		Landmark:        strings.TrimSpace(in.Landmark),
		Latitude:        in.Latitude,
		Longitude:       in.Longitude,
		PhotoURL:        strings.TrimSpace(in.PhotoURL),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := e.reports.Create(ctx, report); err != nil {
		return nil, err
	}
	log.Infof("[Workflow] Report %s created by %s in %s", report.ID, actor.ID, userLocation)
	e.invalidate(ctx)
	return report, nil
}

// ListOptions narrows ListReports beyond the visibility scope.
type ListOptions struct {
	Status models.ReportStatus
	Limit  int
	Offset int
}

// ListReports returns the reports actor may see.
func (e *Engine) ListReports(ctx context.Context, actor Actor, opts ListOptions) ([]models.Report, error) {
	const op = "list"
	if !actor.Active {
		return nil, newError(ErrForbidden, op, "", "account is not active")
	}
	filter := repository.ReportFilter{Status: opts.Status, Limit: opts.Limit, Offset: opts.Offset}
	switch {
	case actor.IsSuperAdmin():
	case actor.IsAdmin():
		if actor.Location == "" {
			return nil, newError(ErrForbidden, op, "", "admin has no assigned location")
		}
		filter.UserLocation = actor.Location
	case actor.IsSystem():
		return nil, newError(ErrForbidden, op, "", "system actor may not list reports")
	default:
		filter.ReporterID = actor.ID
	}
	return e.reports.List(ctx, filter)
}

// GetReport returns one report if actor may see it.
func (e *Engine) GetReport(ctx context.Context, actor Actor, id string) (*models.Report, error) {
	report, err := e.load(ctx, "get", id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(ActionView, actor, report); err != nil {
		return nil, err
	}
	return report, nil
}

// SetStatus moves a report to target on behalf of actor.
func (e *Engine) SetStatus(ctx context.Context, actor Actor, id string, target models.ReportStatus, resolutionPhotoURL string) (*models.Report, error) {
	return e.transition(ctx, actor, id, SetStatus{Target: target, ResolutionPhotoURL: resolutionPhotoURL})
}

// Confirm accepts a resolution and credits the reporter.
func (e *Engine) Confirm(ctx context.Context, actor Actor, id string) (*models.Report, error) {
	return e.transition(ctx, actor, id, Confirm{})
}

// Reject reopens a resolution with the reporter's reason.
func (e *Engine) Reject(ctx context.Context, actor Actor, id, reason string) (*models.Report, error) {
	return e.transition(ctx, actor, id, Reject{Reason: reason})
}

// AutoResolve closes one report whose confirmation window elapsed.
func (e *Engine) AutoResolve(ctx context.Context, id string) (*models.Report, error) {
	return e.transition(ctx, SystemActor, id, AutoResolve{Window: e.cfg.AutoResolveWindow})
}

func (e *Engine) transition(ctx context.Context, actor Actor, id string, ev Event) (*models.Report, error) {
	op := string(ev.action())
	report, err := e.load(ctx, op, id)
	if err != nil {
		return nil, err
	}

	out, err := Apply(report, ev, actor, e.now())
	if err != nil {
		return nil, err
	}
	if out.NoOp {
		return report, nil
	}

	award := 0
	if out.AwardPoints {
		award = e.cfg.PointsPerResolution
	}
	if err := e.reports.ApplyTransition(ctx, repository.Guard{Status: out.From, Version: out.FromVersion}, out.Report, award); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, newError(ErrStateConflict, op, id, "report changed while being updated")
		}
		return nil, fmt.Errorf("%s report %s: %w", op, id, err)
	}

	log.Infof("[Workflow] Report %s: %s -> %s by %s (%s), points=%d",
		id, out.From, out.Report.Status, actor.ID, actor.Role, award)
	e.invalidate(ctx)

	if out.Notify != "" {
		e.dispatch(ctx, out.Notify, out.Report)
	}
	return out.Report, nil
}

func (e *Engine) load(ctx context.Context, op, id string) (*models.Report, error) {
	if strings.TrimSpace(id) == "" {
		return nil, newError(ErrNotFound, op, id, "no report id given")
	}
	report, err := e.reports.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, op, id, "report does not exist")
		}
		return nil, err
	}
	return report, nil
}

func (e *Engine) invalidate(ctx context.Context) {
	ictx := context.WithoutCancel(ctx)
	for _, c := range e.caches {
		c.Invalidate(ictx)
	}
}

// dispatch sends a notification after a committed transition. It is bounded
// by the notify timeout and survives the request context being cancelled.
// Failures end up with the log notifier.
func (e *Engine) dispatch(ctx context.Context, kind notify.Kind, report *models.Report) {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cfg.NotifyTimeout)
	defer cancel()

	reporter, err := e.users.GetByID(nctx, report.ReporterID)
	if err != nil {
		log.Warnf("[Workflow] Could not load reporter %s for report %s: %v", report.ReporterID, report.ID, err)
		reporter = nil
	}

	_ = e.notifier.Notify(nctx, buildMessage(kind, report, reporter))
}

// BackfillResult summarises a redaction backfill.
type BackfillResult struct {
	Total   int `json:"total"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// RedactResolvedBackfill clears PII left on Resolved reports that predate
// redaction on resolution. Superadmin only.
func (e *Engine) RedactResolvedBackfill(ctx context.Context, actor Actor) (BackfillResult, error) {
	var result BackfillResult
	if err := Authorize(ActionBackfill, actor, nil); err != nil {
		return result, err
	}

	reports, err := e.reports.List(ctx, repository.ReportFilter{Status: models.ReportStatusResolved})
	if err != nil {
		return result, err
	}
	result.Total = len(reports)

	now := e.now()
	for i := range reports {
		r := &reports[i]
		if !r.HasPII() {
			result.Skipped++
			continue
		}
		RedactPII(r, now)
		if err := e.reports.SaveRedaction(ctx, r); err != nil {
			log.Errorf("[Workflow] Redaction backfill failed for report %s: %v", r.ID, err)
			result.Failed++
			continue
		}
		result.Updated++
	}

	log.Infof("[Workflow] Redaction backfill: total=%d updated=%d skipped=%d failed=%d",
		result.Total, result.Updated, result.Skipped, result.Failed)
	return result, nil
}
