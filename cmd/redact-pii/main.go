package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/ecocheck/ecocheck/app/repository"
	"github.com/ecocheck/ecocheck/internal/pkg/config"
	"github.com/ecocheck/ecocheck/internal/pkg/database"
	"github.com/ecocheck/ecocheck/internal/pkg/env"
	"github.com/ecocheck/ecocheck/internal/pkg/notify"
	"github.com/ecocheck/ecocheck/internal/pkg/workflow"
)

// redact-pii clears personal data left on Resolved reports. It runs as an
// existing superadmin so the same authorization applies as over HTTP.
func main() {
	as := flag.String("as", os.Getenv("ECOCHECK_SUPERADMIN_ID"), "id of the superadmin running the backfill")
	flag.Parse()
	if *as == "" {
		log.Fatal("usage: redact-pii -as <superadmin user id>")
	}

	env.SetupEnvFile()
	cfg := config.Load()
	database.SetupDatabase()
	defer func() { _ = database.DisconnectMongo(context.Background()) }()

	var repos *repository.Repositories
	if cfg.DBDriver == database.DriverMongo {
		repos = repository.NewMongoRepositories(database.GetMongoDB())
	} else {
		repos = repository.NewRepositories(database.GetDB())
	}

	ctx := context.Background()
	user, err := repos.User.GetByID(ctx, *as)
	if err != nil {
		log.Fatalf("loading user %s: %v", *as, err)
	}

	engine := workflow.NewEngine(repos, notify.LogNotifier{}, workflow.Config{})
	actor := workflow.Actor{ID: user.ID, Role: user.Role, Location: user.Location, Active: user.IsActive()}
	result, err := engine.RedactResolvedBackfill(ctx, actor)
	if err != nil {
		log.Fatalf("redaction backfill: %v", err)
	}
	log.Printf("PII removal from resolved reports completed: total=%d updated=%d skipped=%d failed=%d",
		result.Total, result.Updated, result.Skipped, result.Failed)
	if result.Failed > 0 {
		os.Exit(1)
	}
}
