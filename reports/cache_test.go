package reports

import (
	"context"
	"errors"
	"testing"

	"bitbucket.org/gigdash/earnings_backend/models"
)

func TestDateDescriptor(t *testing.T) {
	tests := []struct {
		dateFilter string
		startDate  string
		endDate    string
		want       string
	}{
		{"7d", "", "", "7d"},
		{"1y", "", "", "1y"},
		{"", "", "", "7d"},
		{"bogus", "", "", "7d"},
		{"1y", "2023-01-01", "2023-02-01", "2023-01-01_2023-02-01"},
		{"", "2023-01-01", "", "7d"},
	}
	for _, tc := range tests {
		if got := dateDescriptor(tc.dateFilter, tc.startDate, tc.endDate); got != tc.want {
			t.Fatalf("dateDescriptor(%q, %q, %q) = %q, want %q", tc.dateFilter, tc.startDate, tc.endDate, got, tc.want)
		}
	}
}

func TestCacheKey(t *testing.T) {
	if got := cacheKey("rideshare_data", "7d", "DU"); got != "rideshare_data:7d:DU" {
		t.Fatalf("cacheKey = %q", got)
	}
	// Empty affiliation and All share one entry.
	if cacheKey("rideshare_data", "7d", "") != cacheKey("rideshare_data", "7d", "All") {
		t.Fatal("empty affiliation and All should map to the same key")
	}
	// Different slices never collide.
	if cacheKey("rideshare_data", "7d", "DU") == cacheKey("delivery_data", "7d", "DU") {
		t.Fatal("operations should not share keys")
	}
	if cacheKey("rideshare_data", "7d", "DU") == cacheKey("rideshare_data", "1m", "DU") {
		t.Fatal("date descriptors should not share keys")
	}
}

func TestActivityDataCachesResult(t *testing.T) {
	store := &fakeStore{
		activities: map[models.ActivityType][]models.ActivityRecord{
			models.ActivityTypeRideshare: {{ID: "a1", Account: "acct-1"}},
		},
	}
	cache := newFakeCache()
	svc := newTestService(store, cache)
	params := QueryParams{DateFilter: "7d"}

	rows, err := svc.RideshareData(context.Background(), params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if store.activityCalls != 1 {
		t.Fatalf("store queried %d times, want 1", store.activityCalls)
	}

	// Second identical request is served from cache.
	rows, err = svc.RideshareData(context.Background(), params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows from cache, want 1", len(rows))
	}
	if store.activityCalls != 1 {
		t.Fatalf("store queried %d times after cached request, want 1", store.activityCalls)
	}
}

func TestActivityDataCacheReadFailureRecomputes(t *testing.T) {
	store := &fakeStore{
		activities: map[models.ActivityType][]models.ActivityRecord{
			models.ActivityTypeRideshare: {{ID: "a1", Account: "acct-1"}},
		},
	}
	cache := newFakeCache()
	cache.getErr = errors.New("connection refused")
	svc := newTestService(store, cache)

	rows, err := svc.RideshareData(context.Background(), QueryParams{DateFilter: "7d"})
	if err != nil {
		t.Fatalf("cache failure should not surface: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
}

func TestActivityDataCacheWriteFailureIgnored(t *testing.T) {
	store := &fakeStore{
		activities: map[models.ActivityType][]models.ActivityRecord{
			models.ActivityTypeRideshare: {{ID: "a1", Account: "acct-1"}},
		},
	}
	cache := newFakeCache()
	cache.setErr = errors.New("read-only replica")
	svc := newTestService(store, cache)

	if _, err := svc.RideshareData(context.Background(), QueryParams{DateFilter: "7d"}); err != nil {
		t.Fatalf("cache write failure should not surface: %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("cache.Set called %d times, want 1", cache.sets)
	}
}

func TestActivityDataUndecodableEntryRecomputes(t *testing.T) {
	store := &fakeStore{
		activities: map[models.ActivityType][]models.ActivityRecord{
			models.ActivityTypeRideshare: {{ID: "a1", Account: "acct-1"}},
		},
	}
	cache := newFakeCache()
	cache.entries["rideshare_data:7d:All"] = []byte("{corrupt")
	svc := newTestService(store, cache)

	rows, err := svc.RideshareData(context.Background(), QueryParams{DateFilter: "7d"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if store.activityCalls != 1 {
		t.Fatalf("store queried %d times, want 1", store.activityCalls)
	}
}

func TestActivityDataStoreFailurePropagates(t *testing.T) {
	store := &fakeStore{err: errors.New("relation does not exist")}
	cache := newFakeCache()
	svc := newTestService(store, cache)

	if _, err := svc.RideshareData(context.Background(), QueryParams{DateFilter: "7d"}); err == nil {
		t.Fatal("store failure should propagate")
	}
	if cache.sets != 0 {
		t.Fatal("failed computation must not be cached")
	}
}
