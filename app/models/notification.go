package models

import "time"

const (
	NotificationTypeResolutionPending = "resolution_pending"
	NotificationTypeReportResolved    = "report_resolved"
)

// Notification is an in-app inbox entry shown to the reporter.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id" bson:"-"`
	UserID    string    `gorm:"type:varchar(36);index" json:"userId" bson:"user_id"`
	Type      string    `gorm:"type:varchar(50)" json:"type" bson:"type" validate:"oneof=resolution_pending report_resolved"`
	Title     string    `gorm:"type:varchar(255)" json:"title" bson:"title"`
	Content   string    `gorm:"type:text" json:"content" bson:"content"`
	PhotoURL  string    `gorm:"type:varchar(512)" json:"photoUrl,omitempty" bson:"photo_url,omitempty"`
	ReportID  string    `gorm:"type:varchar(36);index" json:"reportId" bson:"report_id"`
	IsRead    bool      `gorm:"default:false" json:"isRead" bson:"is_read"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt" bson:"updated_at"`
}
