package repository

import (
	"sync"

	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Repositories groups every repository the application uses
type Repositories struct {
	Report       ReportRepository
	User         UserRepository
	Notification NotificationRepository
}

// NewRepositories creates GORM backed repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Report:       NewReportRepository(db),
		User:         NewUserRepository(db),
		Notification: NewNotificationRepository(db),
	}
}

// NewMongoRepositories creates MongoDB backed repositories
func NewMongoRepositories(db *mongo.Database) *Repositories {
	return &Repositories{
		Report:       NewMongoReportRepository(db),
		User:         NewMongoUserRepository(db),
		Notification: NewMongoNotificationRepository(db),
	}
}

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	build func() *Repositories
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a repository factory over a relational database
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		build: func() *Repositories { return NewRepositories(db) },
	}
}

// NewMongoFactory creates a repository factory over a document database
func NewMongoFactory(db *mongo.Database) *Factory {
	return &Factory{
		build: func() *Repositories { return NewMongoRepositories(db) },
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = f.build()
	})
	return f.repos
}
