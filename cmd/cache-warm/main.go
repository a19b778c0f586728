// cache-warm materializes the per-period joined activity tables plus the
// slow unbounded widgets so dashboard views after a deploy or cache flush
// start warm.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_NAME=... REDIS_ADDRESS=... go run ./cmd/cache-warm
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"bitbucket.org/gigdash/earnings_backend/config"
	"bitbucket.org/gigdash/earnings_backend/reports"
	"github.com/bsm/redislock"
)

var warmPeriods = []string{"7d", "1m", "3m", "6m", "1y"}

func main() {
	ctx := context.Background()
	logger := config.GetLogger()

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	// Only one warm run at a time; overlapping runs would just hammer the
	// store to write the same keys.
	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(ctx, "lock:cache-warm", 10*time.Minute, nil)
		if err == redislock.ErrNotObtained {
			fmt.Fprintln(os.Stderr, "another cache-warm run holds the lock; exiting")
			os.Exit(0)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not obtain cache-warm lock: %v; continuing without it\n", err)
		} else {
			defer lock.Release(ctx)
		}
	}

	svc := reports.NewService(
		reports.NewGormStore(db),
		reports.NewRedisCache(config.GetRedisDB()),
		logger,
	)

	var failed bool
	for _, period := range warmPeriods {
		params := reports.QueryParams{DateFilter: period}
		if _, err := svc.RideshareData(ctx, params); err != nil {
			fmt.Fprintf(os.Stderr, "warm rideshare %s: %v\n", period, err)
			failed = true
		}
		if _, err := svc.DeliveryData(ctx, params); err != nil {
			fmt.Fprintf(os.Stderr, "warm delivery %s: %v\n", period, err)
			failed = true
		}
	}
	if _, err := svc.MonthlyPay(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "warm monthly pay: %v\n", err)
		failed = true
	}
	if _, err := svc.AverageTripDuration(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "warm trip duration: %v\n", err)
		failed = true
	}

	if failed {
		os.Exit(1)
	}
	fmt.Println("cache warm complete")
}
