package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/talentwerk/workshop-planner/internal/dto"
)

const timetableCacheKey = "planner:timetable"

// CacheService keeps the rendered timetable in Redis between schedule
// rewrites. The cache degrades to a no-op when Redis is absent; a failed
// lookup or write never fails the request.
type CacheService struct {
	client  *redis.Client
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
}

// NewCacheService constructs the timetable cache. A nil client disables it.
func NewCacheService(client *redis.Client, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *CacheService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{client: client, metrics: metrics, ttl: ttl, logger: logger}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.client != nil
}

// GetTimetable returns the cached timetable and whether the cache was hit.
func (s *CacheService) GetTimetable(ctx context.Context) ([]dto.TimetableEntry, bool) {
	if !s.Enabled() {
		return nil, false
	}
	start := time.Now()
	raw, err := s.client.Get(ctx, timetableCacheKey).Bytes()
	duration := time.Since(start)
	if err != nil {
		s.metrics.RecordCacheOperation(false, duration)
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("timetable cache get failed", zap.Error(err))
		}
		return nil, false
	}

	var entries []dto.TimetableEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		s.metrics.RecordCacheOperation(false, duration)
		s.logger.Warn("timetable cache payload corrupt", zap.Error(err))
		return nil, false
	}
	s.metrics.RecordCacheOperation(true, duration)
	return entries, true
}

// SetTimetable stores the rendered timetable until the next invalidation.
func (s *CacheService) SetTimetable(ctx context.Context, entries []dto.TimetableEntry) {
	if !s.Enabled() {
		return
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		s.logger.Warn("timetable cache marshal failed", zap.Error(err))
		return
	}
	start := time.Now()
	if err := s.client.Set(ctx, timetableCacheKey, raw, s.ttl).Err(); err != nil {
		s.logger.Warn("timetable cache set failed", zap.Error(err))
	}
	s.metrics.ObserveCacheWrite(time.Since(start))
}

// Invalidate drops the cached timetable after a run rewrites the schedule.
func (s *CacheService) Invalidate(ctx context.Context) {
	if !s.Enabled() {
		return
	}
	if err := s.client.Del(ctx, timetableCacheKey).Err(); err != nil {
		s.logger.Warn("timetable cache invalidate failed", zap.Error(err))
	}
}
