package reports

import (
	"context"
	"io"
	"time"

	"bitbucket.org/gigdash/earnings_backend/models"
	"github.com/sirupsen/logrus"
)

// fakeStore serves canned rows and counts how often the activity tables are
// hit, so tests can assert that cached paths skip the store.
type fakeStore struct {
	activities map[models.ActivityType][]models.ActivityRecord
	meta       []models.UserMetaData
	durations  []float64
	monthly    []models.ActivityRecord
	err        error

	activityCalls int
	metaCalls     int
}

func (f *fakeStore) FetchActivities(ctx context.Context, activityType models.ActivityType, start, end time.Time) ([]models.ActivityRecord, error) {
	f.activityCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.activities[activityType], nil
}

func (f *fakeStore) FetchPayColumns(ctx context.Context, activityType models.ActivityType, start, end time.Time, limit int) ([]models.ActivityRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.activities[activityType], nil
}

func (f *fakeStore) FetchMonthlyPayRows(ctx context.Context, limit int) ([]models.ActivityRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.monthly, nil
}

func (f *fakeStore) FetchDurations(ctx context.Context, activityType models.ActivityType) ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.durations, nil
}

func (f *fakeStore) FetchUserMetaData(ctx context.Context) ([]models.UserMetaData, error) {
	f.metaCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.meta, nil
}

// fakeCache is an in-memory Cache with injectable failures.
type fakeCache struct {
	entries map[string][]byte
	getErr  error
	setErr  error
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (f *fakeCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	raw, ok := f.entries[key]
	return raw, ok, nil
}

func (f *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	f.entries[key] = value
	return nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestService(store Store, cache Cache) *Service {
	svc := NewService(store, cache, testLogger())
	return svc.WithClock(func() time.Time {
		return time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC)
	})
}
