package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ecocheck/ecocheck/app/repository"
	apiv1 "github.com/ecocheck/ecocheck/internal/api/v1"
	"github.com/ecocheck/ecocheck/internal/pkg/middleware"
)

const (
	defaultRateLimit  = 120
	defaultRateWindow = time.Minute
)

type ApiRouter struct {
	jwtSecret string
	users     repository.UserRepository
	storage   fiber.Storage
	max       int
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:          h.max,
		Expiration:   defaultRateWindow,
		KeyGenerator: ClientIP,
		Storage:      h.storage,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "too_many_requests",
				"message": "Too many requests, slow down",
			})
		},
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes
	v1 := api.Group("/v1")
	apiServer := apiv1.NewAPIServer()
	apiv1.RegisterHandlers(v1, apiServer, apiv1.Middlewares{
		Auth:  []fiber.Handler{middleware.JWTAuth(h.jwtSecret, h.users)},
		Admin: []fiber.Handler{middleware.RequireSuperAdmin},
	})
}

// NewApiRouter builds the API router. A nil storage keeps rate limit
// counters in process memory.
func NewApiRouter(jwtSecret string, users repository.UserRepository, storage fiber.Storage) *ApiRouter {
	return &ApiRouter{jwtSecret: jwtSecret, users: users, storage: storage, max: defaultRateLimit}
}
