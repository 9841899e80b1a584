package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ecocheck/ecocheck/app/models"
	"github.com/ecocheck/ecocheck/internal/pkg/env"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

var DB *gorm.DB

// GetDB returns the relational connection, nil when running on MongoDB.
func GetDB() *gorm.DB {
	return DB
}

// Driver returns the configured storage backend.
func Driver() string {
	return env.GetEnv("DB_DRIVER", DriverMySQL)
}

// SetupDatabase connects the backend selected by DB_DRIVER.
func SetupDatabase() {
	switch Driver() {
	case DriverMongo:
		if err := SetupMongo(context.Background()); err != nil {
			panic(err)
		}
	case DriverSQLite:
		db, err := OpenSQLite(env.GetEnv("DB_PATH", "ecocheck.db"))
		if err != nil {
			panic(err)
		}
		DB = db
	default:
		setupMySQL()
	}
}

func setupMySQL() {
	var err error
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		env.GetEnv("DB_USER", ""),
		env.GetEnv("DB_PASSWORD", ""),
		env.GetEnv("DB_HOST", "127.0.0.1"),
		env.GetEnv("DB_PORT", "3306"),
		env.GetEnv("DB_NAME", ""),
	)

	for i := 0; i < maxRetries; i++ {
		DB, err = gorm.Open(mysql.New(mysql.Config{
			DSN:                       dsn,
			DefaultStringSize:         256,
			DisableDatetimePrecision:  true,
			DontSupportRenameIndex:    true,
			DontSupportRenameColumn:   true,
			SkipInitializeWithVersion: false,
		}), &gorm.Config{Logger: gormLogger()})
		if err == nil {
			if merr := Migrate(DB); merr != nil {
				log.Printf("Auto migration failed: %v", merr)
			}
			return
		}

		log.Printf("Failed to connect to database (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			log.Printf("Retrying in %v...", retryDelay)
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		panic(err)
	}
}

// OpenSQLite opens a SQLite database and migrates the schema. Pass a
// "file:name?mode=memory&cache=shared" DSN for throwaway databases.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormLogger()})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", dsn, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite serialises writers; a single connection avoids "database is locked".
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the tables for all models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Report{},
		&models.Notification{},
	)
}

func gormLogger() logger.Interface {
	if env.IsDev() {
		return logger.Default.LogMode(logger.Info)
	}
	return logger.Default.LogMode(logger.Warn)
}
