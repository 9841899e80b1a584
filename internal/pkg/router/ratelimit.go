package router

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/storage/redis"

	"github.com/ecocheck/ecocheck/internal/pkg/cache"
)

// rateLimitDatabase keeps limiter counters away from the cache keys in DB 0.
const rateLimitDatabase = 2

// NewRateLimitStorage returns Redis backed limiter storage using the cache
// connection settings, or nil when Redis is not reachable.
func NewRateLimitStorage(password string) fiber.Storage {
	client := cache.GetClient()
	if client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warnf("[RateLimit] Redis unavailable, counting per process: %v", err)
		return nil
	}

	host := "localhost"
	port := 6379
	addr := client.Options().Addr
	if h, p, err := net.SplitHostPort(addr); err == nil {
		host = h
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}
	if p := client.Options().Password; p != "" {
		password = p
	}

	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: rateLimitDatabase,
		Reset:    false,
	})
}

// ClientIP picks the originating address behind Cloudflare or a proxy.
func ClientIP(c *fiber.Ctx) string {
	if ip := strings.TrimSpace(c.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}
	if xff := c.Get(fiber.HeaderXForwardedFor); xff != "" {
		// The first entry is the original client
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(c.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return strings.TrimPrefix(c.IP(), "::ffff:")
}
