package reports

import (
	"context"
	"encoding/json"
	"testing"

	"bitbucket.org/gigdash/earnings_backend/models"
	"github.com/shopspring/decimal"
)

// statsStore builds a store where delivery orders carry the given
// (tips, fees, total) triples. income_total_charge is derived as fees+total.
func statsStore(delivery, rideshare []models.ActivityRecord) *fakeStore {
	return &fakeStore{
		activities: map[models.ActivityType][]models.ActivityRecord{
			models.ActivityTypeDelivery:  delivery,
			models.ActivityTypeRideshare: rideshare,
		},
	}
}

func TestAverageTipsZeroChargeHandling(t *testing.T) {
	// Two delivery orders: one with a $10 tip on a $100 charge, one with no
	// tip and no charge. The tip value mean covers both rows (5.0); the tip
	// percentage mean covers only the charged row (10%).
	delivery := []models.ActivityRecord{
		{ID: "d1", Account: "acct-1", IncomeTips: decimal.NewFromInt(10), IncomeTotal: decimal.NewFromInt(100)},
		{ID: "d2", Account: "acct-1"},
	}
	svc := newTestService(statsStore(delivery, nil), newFakeCache())

	stats, err := svc.AverageTips(context.Background(), QueryParams{DateFilter: "7d"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.AggregateTipValueDelivery != 5 {
		t.Fatalf("aggregate tip value = %v, want 5", stats.AggregateTipValueDelivery)
	}
	if stats.AggregateTipPercentageDelivery != 10 {
		t.Fatalf("aggregate tip percentage = %v, want 10", stats.AggregateTipPercentageDelivery)
	}
	// The per-slice widgets only see the charged row.
	if stats.AverageTipValuePerDeliveryOrder != 10 {
		t.Fatalf("per-order tip value = %v, want 10", stats.AverageTipValuePerDeliveryOrder)
	}
	if stats.AverageTipPercentagePerDeliveryOrder != 10 {
		t.Fatalf("per-order tip percentage = %v, want 10", stats.AverageTipPercentagePerDeliveryOrder)
	}
}

func TestAverageTipsEmptyDataset(t *testing.T) {
	svc := newTestService(statsStore(nil, nil), newFakeCache())

	stats, err := svc.AverageTips(context.Background(), QueryParams{DateFilter: "7d"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Everything is zero, never NaN.
	raw, err := json.Marshal(stats)
	if err != nil {
		t.Fatalf("payload not serializable: %v", err)
	}
	var decoded map[string]float64
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for field, v := range decoded {
		if v != 0 {
			t.Fatalf("%s = %v, want 0 for empty dataset", field, v)
		}
	}
}

func TestAveragePayPerMinuteDurationGuard(t *testing.T) {
	// One 30 minute trip earning $30 total, one zero-duration row that must
	// not poison the mean.
	rideshare := []models.ActivityRecord{
		{ID: "r1", Account: "acct-1", Duration: 1800, IncomeTotal: decimal.NewFromInt(30)},
		{ID: "r2", Account: "acct-1", Duration: 0, IncomeTotal: decimal.NewFromInt(99)},
	}
	svc := newTestService(statsStore(nil, rideshare), newFakeCache())

	stats, err := svc.AveragePayPerMinute(context.Background(), QueryParams{DateFilter: "7d"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.AveragePayPerMinuteRideshare != 1 {
		t.Fatalf("average pay per minute = %v, want 1", stats.AveragePayPerMinuteRideshare)
	}
	if stats.AveragePayPerMinuteDelivery != 0 {
		t.Fatalf("delivery pay per minute = %v, want 0 for empty slice", stats.AveragePayPerMinuteDelivery)
	}
}

func TestAggregateStatsIgnoreAffiliationFilter(t *testing.T) {
	// Aggregates are always computed over the full dataset even when the
	// request carries an affiliation filter.
	delivery := []models.ActivityRecord{
		{ID: "d1", Account: "acct-du", IncomeTips: decimal.NewFromInt(10), IncomeTotal: decimal.NewFromInt(100)},
		{ID: "d2", Account: "acct-other", IncomeTips: decimal.NewFromInt(20), IncomeTotal: decimal.NewFromInt(100)},
	}
	store := statsStore(delivery, nil)
	store.meta = []models.UserMetaData{
		{ArgyleAccount: "acct-du", RawUserMetaData: json.RawMessage(`{"affiliation": ["Drivers Union"]}`)},
	}
	svc := newTestService(store, newFakeCache())

	stats, err := svc.AverageTips(context.Background(), QueryParams{DateFilter: "7d", Affiliation: "DU"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Per-slice: only the DU row ($10 tip).
	if stats.AverageTipValuePerDeliveryOrder != 10 {
		t.Fatalf("per-order tip value = %v, want 10", stats.AverageTipValuePerDeliveryOrder)
	}
	// Aggregate: both rows ($15 mean).
	if stats.AggregateTipValueDelivery != 15 {
		t.Fatalf("aggregate tip value = %v, want 15", stats.AggregateTipValueDelivery)
	}
}
