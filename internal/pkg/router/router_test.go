package router

import (
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecocheck/ecocheck/app/repository"
	"github.com/ecocheck/ecocheck/internal/pkg/database"
)

func newTestUsers(t *testing.T) repository.UserRepository {
	t.Helper()
	db, err := database.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	return repository.NewRepositories(db).User
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"cloudflare wins", map[string]string{"CF-Connecting-IP": "203.0.113.7", "X-Forwarded-For": "198.51.100.1"}, "203.0.113.7"},
		{"first forwarded entry", map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.1"}, "198.51.100.1"},
		{"real ip header", map[string]string{"X-Real-IP": "2001:db8::1"}, "2001:db8::1"},
		{"socket address", nil, "0.0.0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return c.SendString(ClientIP(c)) })

			req := httptest.NewRequest(fiber.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			buf := make([]byte, 64)
			n, _ := resp.Body.Read(buf)
			assert.Equal(t, tt.want, string(buf[:n]))
		})
	}
}

func TestInstallRouter(t *testing.T) {
	app := fiber.New()
	InstallRouter(app, Options{JWTSecret: "router-test", Users: newTestUsers(t)})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/reports", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestApiRouter_RateLimit(t *testing.T) {
	app := fiber.New()
	r := ApiRouter{jwtSecret: "router-test", users: newTestUsers(t), max: 2}
	r.InstallRouter(app)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(fiber.MethodGet, "/api/v1/ping", nil)
		req.Header.Set("X-Forwarded-For", "198.51.100.9")
		resp, err := app.Test(req)
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{fiber.StatusOK, fiber.StatusOK, fiber.StatusTooManyRequests}, codes)

	// Another client has its own budget
	req := httptest.NewRequest(fiber.MethodGet, "/api/v1/ping", nil)
	req.Header.Set("X-Forwarded-For", "198.51.100.10")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
