package config

import (
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ecocheck/ecocheck/internal/pkg/env"
)

// Config is the application configuration, read from env once at startup.
type Config struct {
	AppName string
	AppHost string
	AppPort string

	DBDriver  string
	JWTSecret string

	CacheHost     string
	CachePort     string
	CachePassword string

	PointsPerResolution     int
	AutoResolveWindow       time.Duration
	AutoResolveInterval     time.Duration
	AutoResolveInitialDelay time.Duration
	AutoResolveEnabled      bool
	NotifyTimeout           time.Duration
	NotifyViaQueue          bool

	SMSAPIKey     string
	SMSSenderName string
	SMSEndpoint   string

	BlobStore         string
	UploadDir         string
	PublicBaseURL     string
	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3PublicBaseURL   string

	PhotoMaxDimension int
	PhotoMaxBytes     int64
}

const defaultJWTSecret = "ecocheck-dev-secret"

var (
	current Config
	once    sync.Once
)

// Load reads the configuration. Subsequent calls return the first result.
func Load() Config {
	once.Do(func() {
		current = FromEnv()
	})
	return current
}

// FromEnv builds a Config from the current environment without caching it.
func FromEnv() Config {
	c := Config{
		AppName:  env.GetEnv("APP_NAME", "EcoCheck"),
		AppHost:  env.GetEnv("APP_HOST", "0.0.0.0"),
		AppPort:  env.GetEnv("APP_PORT", "4000"),
		DBDriver: strings.ToLower(env.GetEnv("DB_DRIVER", "mysql")),

		JWTSecret: env.GetEnv("JWT_SECRET", ""),

		CacheHost:     env.GetEnv("CACHE_HOST", "localhost"),
		CachePort:     env.GetEnv("CACHE_PORT", "6379"),
		CachePassword: env.GetEnv("CACHE_PASSWORD", ""),

		PointsPerResolution:     env.GetInt("POINTS_PER_RESOLUTION", 10),
		AutoResolveWindow:       env.GetDuration("AUTO_RESOLVE_WINDOW", 72*time.Hour),
		AutoResolveInterval:     env.GetDuration("AUTO_RESOLVE_INTERVAL", 6*time.Hour),
		AutoResolveInitialDelay: env.GetDuration("AUTO_RESOLVE_INITIAL_DELAY", 30*time.Second),
		AutoResolveEnabled:      env.GetBool("AUTO_RESOLVE_ENABLED", true),
		NotifyTimeout:           env.GetDuration("NOTIFY_TIMEOUT", 10*time.Second),
		NotifyViaQueue:          env.GetBool("NOTIFY_VIA_QUEUE", false),

		SMSAPIKey:     env.GetEnv("SEMAPHORE_API_KEY", ""),
		SMSSenderName: env.GetEnv("SEMAPHORE_SENDER_NAME", "EcoCheck"),
		SMSEndpoint:   env.GetEnv("SEMAPHORE_ENDPOINT", "https://api.semaphore.co/api/v4/messages"),

		BlobStore:         strings.ToLower(env.GetEnv("BLOB_STORE", "local")),
		UploadDir:         env.GetEnv("UPLOAD_DIR", "./uploads"),
		PublicBaseURL:     env.GetEnv("PUBLIC_BASE_URL", "/uploads"),
		S3Bucket:          env.GetEnv("S3_BUCKET_NAME", ""),
		S3Region:          env.GetEnv("S3_REGION", "us-east-1"),
		S3Endpoint:        env.GetEnv("S3_ENDPOINT_URL", ""),
		S3AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		S3PublicBaseURL:   env.GetEnv("S3_PUBLIC_BASE_URL", ""),

		PhotoMaxDimension: env.GetInt("PHOTO_MAX_DIMENSION", 2048),
		PhotoMaxBytes:     int64(env.GetInt("PHOTO_MAX_BYTES", 10<<20)),
	}

	if c.JWTSecret == "" {
		c.JWTSecret = defaultJWTSecret
		log.Warn("[Config] JWT_SECRET is not set, using the development secret")
	}
	if c.PointsPerResolution <= 0 {
		log.Warnf("[Config] POINTS_PER_RESOLUTION=%d is not positive, using 10", c.PointsPerResolution)
		c.PointsPerResolution = 10
	}
	return c
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return c.AppHost + ":" + c.AppPort
}

// S3Configured reports whether enough S3 settings exist to build a client.
func (c Config) S3Configured() bool {
	return c.S3Bucket != "" && c.S3AccessKeyID != "" && c.S3SecretAccessKey != ""
}
