package statistics

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/ecocheck/ecocheck/app/models"
	"github.com/ecocheck/ecocheck/app/repository"
	"github.com/ecocheck/ecocheck/internal/pkg/cache"
)

const (
	CacheKeyReportStats = "statistics:reports:by_status"
	CacheExpiration     = 5 * time.Minute
)

// ReportStats counts reports per lifecycle status.
type ReportStats struct {
	Total       int64                         `json:"total"`
	ByStatus    map[models.ReportStatus]int64 `json:"byStatus"`
	GeneratedAt time.Time                     `json:"generatedAt"`
	Cached      bool                          `json:"cached"`
}

// Service serves report statistics from Redis, recomputing them from the
// repository when the cached copy is missing or expired.
type Service struct {
	reports repository.ReportRepository
	client  *redis.Client
	ttl     time.Duration
	now     func() time.Time
}

// NewService uses the shared cache client. A nil client disables caching.
func NewService(reports repository.ReportRepository, client *redis.Client) *Service {
	return &Service{
		reports: reports,
		client:  client,
		ttl:     CacheExpiration,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// NewDefaultService wires the service to the global cache client.
func NewDefaultService(reports repository.ReportRepository) *Service {
	return NewService(reports, cache.GetClient())
}

// ReportStats returns the counts. Cache failures are logged and the counts
// are computed directly.
func (s *Service) ReportStats(ctx context.Context) (*ReportStats, error) {
	if stats := s.cached(ctx); stats != nil {
		return stats, nil
	}

	counts, err := s.reports.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	stats := &ReportStats{ByStatus: counts, GeneratedAt: s.now()}
	for _, n := range counts {
		stats.Total += n
	}

	if s.client != nil {
		if data, err := json.Marshal(stats); err == nil {
			if err := s.client.Set(ctx, CacheKeyReportStats, data, s.ttl).Err(); err != nil {
				log.Warnf("[Statistics] Could not cache report stats: %v", err)
			}
		}
	}
	return stats, nil
}

// Invalidate drops the cached counts.
func (s *Service) Invalidate(ctx context.Context) {
	if s.client == nil {
		return
	}
	if err := s.client.Del(ctx, CacheKeyReportStats).Err(); err != nil {
		log.Warnf("[Statistics] Could not invalidate report stats: %v", err)
	}
}

func (s *Service) cached(ctx context.Context) *ReportStats {
	if s.client == nil {
		return nil
	}
	raw, err := s.client.Get(ctx, CacheKeyReportStats).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warnf("[Statistics] Cache read failed: %v", err)
		}
		return nil
	}
	var stats ReportStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		log.Warnf("[Statistics] Discarding unreadable cached stats: %v", err)
		return nil
	}
	stats.Cached = true
	return &stats
}
