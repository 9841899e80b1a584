package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ecocheck/ecocheck/app/models"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrStaleStatus is returned by conditional writes when the stored status
	// no longer matches the expected one.
	ErrStaleStatus = errors.New("report status changed concurrently")
)

// ReportFilter narrows List. Empty fields are ignored.
type ReportFilter struct {
	ReporterID   string
	UserLocation string
	Status       models.ReportStatus
	Limit        int
	Offset       int
}

// Guard is the stored state a transition was computed from. The version
// changes on every write, so a snapshot from an earlier confirmation round
// no longer matches even when the status is the same again.
type Guard struct {
	Status  models.ReportStatus
	Version int64
}

// ReportRepository defines the interface for report persistence
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id string) (*models.Report, error)
	List(ctx context.Context, filter ReportFilter) ([]models.Report, error)
	// ListAwaitingConfirmation returns reports in PendingConfirmation whose
	// pending timestamp is at or before cutoff.
	ListAwaitingConfirmation(ctx context.Context, cutoff time.Time) ([]models.Report, error)
	// ApplyTransition writes next only if the stored status and version
	// equal expected. A positive award is added to the reporter's points in
	// the same unit of work. Returns ErrStaleStatus when the guard does not
	// match.
	ApplyTransition(ctx context.Context, expected Guard, next *models.Report, award int) error
	// SaveRedaction persists cleared PII fields guarded on the current status.
	SaveRedaction(ctx context.Context, report *models.Report) error
	CountByStatus(ctx context.Context) (map[models.ReportStatus]int64, error)
}

// UserRepository defines the interface for the actor directory
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// NotificationRepository defines the interface for in-app notifications
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Notification, error)
}
