package main

import (
	"crypto/subtle"
	"os"
	"strings"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/crypto/bcrypt"

	"github.com/ecocheck/ecocheck/internal/pkg/config"
	"github.com/ecocheck/ecocheck/internal/pkg/env"
	"github.com/ecocheck/ecocheck/internal/pkg/router"
)

const openAPIFile = "internal/api/v1/openapi.yml"

func NewApplication(cfg config.Config, svc *Services) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: cfg.AppName,
		// Photos plus form fields; the photo limit itself is enforced per file
		BodyLimit: int(cfg.PhotoMaxBytes)*2 + 1<<20,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Authorizer: metricsAuthorizer(
			env.GetEnv("METRICS_USER", "admin"),
			env.GetEnv("METRICS_PASSWORD_HASH", ""),
			env.GetEnv("METRICS_PASSWORD", "admin"),
		),
	}), monitor.New(monitor.Config{Title: cfg.AppName + " Metrics"}))

	// evidence photos when stored on local disk
	if cfg.BlobStore != "s3" && strings.HasPrefix(cfg.PublicBaseURL, "/") {
		app.Static(cfg.PublicBaseURL, cfg.UploadDir, fiber.Static{
			CacheDuration: 10 * time.Second,
			Compress:      false,
			MaxAge:        604800, // 7 days
		})
	}

	// SWAGGER / OPENAPI
	if path := findProjectFile(openAPIFile); path != "" {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/docs/api/",
			FilePath: path,
			Path:     "v1",
			Title:    cfg.AppName + " API",
		}))
	}

	// ROUTER
	router.InstallRouter(app, router.Options{
		JWTSecret:        cfg.JWTSecret,
		Users:            svc.Repos.User,
		RateLimitStorage: svc.RateLimitStorage,
	})

	return app
}

// findProjectFile resolves rel from the working directory or the project
// root when started from cmd/ecocheck.
func findProjectFile(rel string) string {
	for _, base := range []string{"./", "../../", "../../../"} {
		if _, err := os.Stat(base + rel); err == nil {
			return base + rel
		}
	}
	return ""
}

// metricsAuthorizer checks against a bcrypt hash when one is configured and
// falls back to the plain development password otherwise.
func metricsAuthorizer(user, passwordHash, password string) func(string, string) bool {
	return func(u, p string) bool {
		if subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 {
			return false
		}
		if passwordHash != "" {
			return bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(p)) == nil
		}
		return subtle.ConstantTimeCompare([]byte(p), []byte(password)) == 1
	}
}
