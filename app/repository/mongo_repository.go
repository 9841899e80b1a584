package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ecocheck/ecocheck/app/models"
)

const (
	ReportsCollection       = "reports"
	UsersCollection         = "users"
	NotificationsCollection = "notifications"
)

// mongoReportRepository stores reports as documents. Status guards use a
// filtered update, so a concurrent writer that already moved the report
// makes the update match nothing.
type mongoReportRepository struct {
	reports *mongo.Collection
	users   *mongo.Collection
}

// NewMongoReportRepository creates a report repository backed by MongoDB
func NewMongoReportRepository(db *mongo.Database) ReportRepository {
	return &mongoReportRepository{
		reports: db.Collection(ReportsCollection),
		users:   db.Collection(UsersCollection),
	}
}

func (r *mongoReportRepository) Create(ctx context.Context, report *models.Report) error {
	now := time.Now().UTC()
	if report.CreatedAt.IsZero() {
		report.CreatedAt = now
	}
	if report.UpdatedAt.IsZero() {
		report.UpdatedAt = now
	}
	if _, err := r.reports.InsertOne(ctx, report); err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

func (r *mongoReportRepository) GetByID(ctx context.Context, id string) (*models.Report, error) {
	var report models.Report
	err := r.reports.FindOne(ctx, bson.M{"_id": id}).Decode(&report)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load report %s: %w", id, err)
	}
	return &report, nil
}

func (r *mongoReportRepository) List(ctx context.Context, filter ReportFilter) ([]models.Report, error) {
	query := bson.M{}
	if filter.ReporterID != "" {
		query["reporter_id"] = filter.ReporterID
	}
	if filter.UserLocation != "" {
		query["user_location"] = filter.UserLocation
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}
	return r.find(ctx, query, opts)
}

func (r *mongoReportRepository) ListAwaitingConfirmation(ctx context.Context, cutoff time.Time) ([]models.Report, error) {
	query := bson.M{
		"status":                     models.ReportStatusPendingConfirmation,
		"pending_confirmation_since": bson.M{"$ne": nil, "$lte": cutoff},
	}
	opts := options.Find().SetSort(bson.D{{Key: "pending_confirmation_since", Value: 1}})
	return r.find(ctx, query, opts)
}

// ApplyTransition runs the guarded update and then the point increment. The
// two writes are not in one transaction because standalone servers do not
// support them; the guard still ensures only one caller reaches the
// increment.
func (r *mongoReportRepository) ApplyTransition(ctx context.Context, expected Guard, next *models.Report, award int) error {
	set := bson.M{}
	for k, v := range transitionColumns(next) {
		set[k] = v
	}
	res, err := r.reports.UpdateOne(ctx,
		bson.M{"_id": next.ID, "status": expected.Status, "version": versionFilter(expected.Version)},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("failed to update report %s: %w", next.ID, err)
	}
	if res.MatchedCount == 0 {
		return ErrStaleStatus
	}

	if award <= 0 {
		return nil
	}
	ures, err := r.users.UpdateOne(ctx, bson.M{"_id": next.ReporterID}, bson.M{"$inc": bson.M{"points": award}})
	if err != nil {
		return fmt.Errorf("failed to credit points to %s: %w", next.ReporterID, err)
	}
	if ures.MatchedCount == 0 {
		log.Warnf("[ReportRepository] Reporter %s of report %s not found, no points credited", next.ReporterID, next.ID)
	}
	return nil
}

func (r *mongoReportRepository) SaveRedaction(ctx context.Context, report *models.Report) error {
	res, err := r.reports.UpdateOne(ctx,
		bson.M{"_id": report.ID, "status": report.Status},
		bson.M{"$set": bson.M{
			"display_name":    report.DisplayName,
			"first_name":      report.FirstName,
			"middle_name":     report.MiddleName,
			"last_name":       report.LastName,
			"contact":         report.Contact,
			"description":     report.Description,
			"pii_redacted_at": report.PIIRedactedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to redact report %s: %w", report.ID, err)
	}
	if res.MatchedCount == 0 {
		return ErrStaleStatus
	}
	return nil
}

func (r *mongoReportRepository) CountByStatus(ctx context.Context) (map[models.ReportStatus]int64, error) {
	cur, err := r.reports.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$status"}, {Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count reports: %w", err)
	}
	defer cur.Close(ctx)

	counts := make(map[models.ReportStatus]int64, len(models.AllReportStatuses))
	for _, s := range models.AllReportStatuses {
		counts[s] = 0
	}
	for cur.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			Count  int64  `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode report count: %w", err)
		}
		counts[models.ReportStatus(row.Status)] = row.Count
	}
	return counts, cur.Err()
}

func (r *mongoReportRepository) find(ctx context.Context, query bson.M, opts *options.FindOptions) ([]models.Report, error) {
	cur, err := r.reports.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer cur.Close(ctx)

	reports := []models.Report{}
	if err := cur.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("failed to decode reports: %w", err)
	}
	return reports, nil
}

type mongoUserRepository struct {
	users *mongo.Collection
}

// NewMongoUserRepository creates a user repository backed by MongoDB
func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{users: db.Collection(UsersCollection)}
}

func (r *mongoUserRepository) Create(ctx context.Context, user *models.User) error {
	_, err := r.users.InsertOne(ctx, user)
	return err
}

func (r *mongoUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user %s: %w", id, err)
	}
	return &user, nil
}

type mongoNotificationRepository struct {
	notifications *mongo.Collection
}

// NewMongoNotificationRepository creates a notification repository backed by MongoDB
func NewMongoNotificationRepository(db *mongo.Database) NotificationRepository {
	return &mongoNotificationRepository{notifications: db.Collection(NotificationsCollection)}
}

func (r *mongoNotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
		notification.UpdatedAt = notification.CreatedAt
	}
	_, err := r.notifications.InsertOne(ctx, notification)
	return err
}

func (r *mongoNotificationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := r.notifications.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var notifications []models.Notification
	err = cur.All(ctx, &notifications)
	return notifications, err
}

// versionFilter matches version 0 on documents written before the field
// existed.
func versionFilter(v int64) interface{} {
	if v == 0 {
		return bson.M{"$in": bson.A{int64(0), nil}}
	}
	return v
}
