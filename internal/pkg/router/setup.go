package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ecocheck/ecocheck/app/repository"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Options carries what the routes need from startup.
type Options struct {
	JWTSecret string
	Users     repository.UserRepository
	// RateLimitStorage is shared between instances; nil means per process.
	RateLimitStorage fiber.Storage
}

func InstallRouter(app *fiber.App, opts Options) {
	setup(app, NewApiRouter(opts.JWTSecret, opts.Users, opts.RateLimitStorage))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
