package main

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ecocheck/ecocheck/app/controllers"
	"github.com/ecocheck/ecocheck/app/repository"
	"github.com/ecocheck/ecocheck/internal/pkg/blobstore"
	"github.com/ecocheck/ecocheck/internal/pkg/cache"
	"github.com/ecocheck/ecocheck/internal/pkg/config"
	"github.com/ecocheck/ecocheck/internal/pkg/database"
	"github.com/ecocheck/ecocheck/internal/pkg/jobqueue"
	"github.com/ecocheck/ecocheck/internal/pkg/mail"
	"github.com/ecocheck/ecocheck/internal/pkg/notify"
	"github.com/ecocheck/ecocheck/internal/pkg/router"
	"github.com/ecocheck/ecocheck/internal/pkg/statistics"
	"github.com/ecocheck/ecocheck/internal/pkg/workflow"
)

// Services is everything the HTTP app and the background jobs share.
type Services struct {
	Repos            *repository.Repositories
	Engine           *workflow.Engine
	Manager          *jobqueue.Manager
	Store            blobstore.Store
	RateLimitStorage fiber.Storage
}

func NewServices(ctx context.Context, cfg config.Config) (*Services, error) {
	database.SetupDatabase()
	cache.SetupCache()

	var factory *repository.Factory
	if cfg.DBDriver == database.DriverMongo {
		factory = repository.NewMongoFactory(database.GetMongoDB())
	} else {
		factory = repository.NewFactory(database.GetDB())
	}
	repos := factory.GetRepositories()

	store, err := blobstore.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("blob store: %w", err)
	}

	manager := jobqueue.GetManager()
	engine := workflow.NewEngine(repos, buildNotifier(cfg, repos, manager.GetQueue()), workflow.Config{
		PointsPerResolution: cfg.PointsPerResolution,
		AutoResolveWindow:   cfg.AutoResolveWindow,
		NotifyTimeout:       cfg.NotifyTimeout,
	})
	stats := statistics.NewDefaultService(repos.Report)
	engine.InvalidateOnWrite(stats)
	if cfg.AutoResolveEnabled {
		manager.SetAutoResolve(workflow.NewSweeper(engine), jobqueue.AutoResolveSchedule{
			InitialDelay: cfg.AutoResolveInitialDelay,
			Interval:     cfg.AutoResolveInterval,
		})
	} else {
		log.Warn("[Startup] Auto-resolve is disabled")
	}

	controllers.InitializeControllers(
		controllers.NewReportController(engine, store, controllers.PhotoOptions{
			MaxBytes:     cfg.PhotoMaxBytes,
			MaxDimension: cfg.PhotoMaxDimension,
		}),
		controllers.NewAdminReportController(engine, stats),
		controllers.NewNotificationController(repos.Notification),
	)

	return &Services{
		Repos:            repos,
		Engine:           engine,
		Manager:          manager,
		Store:            store,
		RateLimitStorage: router.NewRateLimitStorage(cfg.CachePassword),
	}, nil
}

// buildNotifier fans out to every configured channel. With NotifyViaQueue
// the channels run on the job queue workers instead of the request.
func buildNotifier(cfg config.Config, repos *repository.Repositories, queue *jobqueue.Queue) notify.Notifier {
	channels := notify.Multi{notify.NewInboxNotifier(repos.Notification)}
	if mail.Configured() {
		channels = append(channels, notify.NewMailNotifier())
	} else {
		log.Warn("[Startup] SMTP is not configured, email notifications are off")
	}
	if cfg.SMSAPIKey != "" {
		sms := notify.NewSMSNotifier(cfg.SMSAPIKey, cfg.SMSSenderName)
		sms.Endpoint = cfg.SMSEndpoint
		channels = append(channels, sms)
	} else {
		log.Warn("[Startup] SEMAPHORE_API_KEY is not set, SMS notifications are off")
	}

	if cfg.NotifyViaQueue {
		queue.SetDeliverer(channels)
		return jobqueue.NewQueueNotifier(queue)
	}
	return channels
}

func (s *Services) Close() {
	if s.RateLimitStorage != nil {
		_ = s.RateLimitStorage.Close()
	}
	if err := database.DisconnectMongo(context.Background()); err != nil {
		log.Warnf("[Shutdown] Mongo disconnect: %v", err)
	}
}
