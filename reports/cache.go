package reports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisCache is the production Cache. A nil client degrades to permanent
// misses so the service keeps working while Redis is down or not yet
// connected.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c.client == nil {
		return nil, false, nil
	}
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}
	return c.client.Set(ctx, key, value, ttl).Err()
}

// dateDescriptor is the date part of a cache key: the period token when the
// range came from one, otherwise the literal start/end pair.
func dateDescriptor(dateFilter, startDate, endDate string) string {
	if startDate != "" && endDate != "" {
		return startDate + "_" + endDate
	}
	if _, ok := periodDays[dateFilter]; ok {
		return dateFilter
	}
	return DefaultPeriod
}

// cacheKey is deterministic per (operation, date descriptor, affiliation):
// two semantically equal queries share one entry.
func cacheKey(op, descriptor, affiliation string) string {
	if affiliation == "" {
		affiliation = AffiliationAll
	}
	return op + ":" + descriptor + ":" + affiliation
}

// getOrCompute is the cache-aside path shared by every report: read the key,
// fall through to compute on a miss or on any cache failure, then write back
// best-effort. Concurrent misses for one key may both compute and both write;
// last write wins, which is acceptable because values are functions of
// immutable history within the TTL window.
func getOrCompute[T any](ctx context.Context, s *Service, key string, ttl time.Duration, compute func() (T, error)) (T, error) {
	var zero T
	started := time.Now()

	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.WithFields(logrus.Fields{"key": key}).Warn("cache read failed; recomputing: " + err.Error())
	} else if ok {
		var value T
		if uerr := json.Unmarshal(raw, &value); uerr != nil {
			s.log.WithFields(logrus.Fields{"key": key}).Warn("cache entry undecodable; recomputing: " + uerr.Error())
		} else {
			s.log.WithFields(logrus.Fields{
				"key":     key,
				"seconds": time.Since(started).Seconds(),
			}).Info("cache hit")
			return value, nil
		}
	} else {
		s.log.WithFields(logrus.Fields{"key": key}).Info("cache miss; querying database")
	}

	value, err := compute()
	if err != nil {
		return zero, err
	}

	if raw, err := json.Marshal(value); err == nil {
		if err := s.cache.Set(ctx, key, raw, ttl); err != nil {
			s.log.WithFields(logrus.Fields{"key": key}).Warn("cache write failed: " + err.Error())
		}
	}
	s.log.WithFields(logrus.Fields{
		"key":     key,
		"seconds": time.Since(started).Seconds(),
	}).Info("computed and cached")
	return value, nil
}
