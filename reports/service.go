// Package reports implements the cache-key-scoped query, aggregation and
// caching layer behind the earnings dashboard. Every report is a plain
// function of (date range or period token, affiliation filter); HTTP routes
// only call these and serialize the result.
package reports

import (
	"context"
	"time"

	"bitbucket.org/gigdash/earnings_backend/models"
	"github.com/sirupsen/logrus"
)

// Cache TTLs. Summary payloads turn over hourly; the per-period joined
// activity tables are much larger and are kept for a month.
const (
	statsCacheTTL = time.Hour
	tableCacheTTL = 30 * 24 * time.Hour
)

// Store is the read interface over the activity schema. Empty result sets are
// not errors; store failures propagate to the caller untouched (no retry at
// this layer).
type Store interface {
	FetchActivities(ctx context.Context, activityType models.ActivityType, start, end time.Time) ([]models.ActivityRecord, error)
	FetchPayColumns(ctx context.Context, activityType models.ActivityType, start, end time.Time, limit int) ([]models.ActivityRecord, error)
	FetchMonthlyPayRows(ctx context.Context, limit int) ([]models.ActivityRecord, error)
	FetchDurations(ctx context.Context, activityType models.ActivityType) ([]float64, error)
	FetchUserMetaData(ctx context.Context) ([]models.UserMetaData, error)
}

// Cache is a best-effort key-value side channel. Both operations are fallible
// and every failure is recoverable: a broken cache only costs latency.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// QueryParams are the request-level filter parameters shared by the report
// operations. Explicit StartDate/EndDate (both set, YYYY-MM-DD) win over
// DateFilter.
type QueryParams struct {
	DateFilter  string
	StartDate   string
	EndDate     string
	Affiliation string
}

type Service struct {
	store Store
	cache Cache
	log   *logrus.Logger
	now   func() time.Time
}

func NewService(store Store, cache Cache, logger *logrus.Logger) *Service {
	return &Service{
		store: store,
		cache: cache,
		log:   logger,
		now:   time.Now,
	}
}

// WithClock replaces the evaluation-time clock used for period resolution.
// Tests inject a fixed clock here.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}
