package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ecocheck/ecocheck/app/models"
)

// reportRepository implements the ReportRepository interface
type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new report repository instance
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

// Create inserts a new report
func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

// GetByID retrieves a report by its ID
func (r *reportRepository) GetByID(ctx context.Context, id string) (*models.Report, error) {
	var report models.Report
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load report %s: %w", id, err)
	}
	return &report, nil
}

// List returns reports matching the filter, newest first
func (r *reportRepository) List(ctx context.Context, filter ReportFilter) ([]models.Report, error) {
	query := r.db.WithContext(ctx).Model(&models.Report{})
	if filter.ReporterID != "" {
		query = query.Where("reporter_id = ?", filter.ReporterID)
	}
	if filter.UserLocation != "" {
		query = query.Where("user_location = ?", filter.UserLocation)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var reports []models.Report
	if err := query.Order("created_at DESC").Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

// ListAwaitingConfirmation returns stale reports waiting for the reporter
func (r *reportRepository) ListAwaitingConfirmation(ctx context.Context, cutoff time.Time) ([]models.Report, error) {
	var reports []models.Report
	err := r.db.WithContext(ctx).
		Where("status = ? AND pending_confirmation_since IS NOT NULL AND pending_confirmation_since <= ?",
			models.ReportStatusPendingConfirmation, cutoff).
		Order("pending_confirmation_since ASC").
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reports awaiting confirmation: %w", err)
	}
	return reports, nil
}

// ApplyTransition performs the compare-and-swap status write and point credit
func (r *reportRepository) ApplyTransition(ctx context.Context, expected Guard, next *models.Report, award int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Report{}).
			Where("id = ? AND status = ? AND version = ?", next.ID, expected.Status, expected.Version).
			Updates(transitionColumns(next))
		if res.Error != nil {
			return fmt.Errorf("failed to update report %s: %w", next.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrStaleStatus
		}

		if award <= 0 {
			return nil
		}
		res = tx.Model(&models.User{}).
			Where("id = ?", next.ReporterID).
			UpdateColumn("points", gorm.Expr("points + ?", award))
		if res.Error != nil {
			return fmt.Errorf("failed to credit points to %s: %w", next.ReporterID, res.Error)
		}
		if res.RowsAffected == 0 {
			log.Warnf("[ReportRepository] Reporter %s of report %s not found, no points credited", next.ReporterID, next.ID)
		}
		return nil
	})
}

// SaveRedaction clears PII columns while the status is unchanged
func (r *reportRepository) SaveRedaction(ctx context.Context, report *models.Report) error {
	res := r.db.WithContext(ctx).Model(&models.Report{}).
		Where("id = ? AND status = ?", report.ID, report.Status).
		Updates(map[string]interface{}{
			"display_name":    report.DisplayName,
			"first_name":      report.FirstName,
			"middle_name":     report.MiddleName,
			"last_name":       report.LastName,
			"contact":         report.Contact,
			"description":     report.Description,
			"pii_redacted_at": report.PIIRedactedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to redact report %s: %w", report.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}

// CountByStatus returns the number of reports per status
func (r *reportRepository) CountByStatus(ctx context.Context) (map[models.ReportStatus]int64, error) {
	var rows []struct {
		Status models.ReportStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&models.Report{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count reports: %w", err)
	}

	counts := make(map[models.ReportStatus]int64, len(models.AllReportStatuses))
	for _, s := range models.AllReportStatuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// transitionColumns lists every column a workflow transition may touch.
// Nil pointers are written as NULL.
func transitionColumns(next *models.Report) map[string]interface{} {
	return map[string]interface{}{
		"status":                     next.Status,
		"display_name":               next.DisplayName,
		"first_name":                 next.FirstName,
		"middle_name":                next.MiddleName,
		"last_name":                  next.LastName,
		"contact":                    next.Contact,
		"description":                next.Description,
		"resolution_photo_url":       next.ResolutionPhotoURL,
		"rejection_reason":           next.RejectionReason,
		"pending_confirmation_since": next.PendingConfirmationSince,
		"pii_redacted_at":            next.PIIRedactedAt,
		"resolved_at":                next.ResolvedAt,
		"updated_at":                 next.UpdatedAt,
		"version":                    next.Version,
	}
}
