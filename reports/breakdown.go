package reports

import (
	"context"
	"sort"

	"bitbucket.org/gigdash/earnings_backend/models"
	"bitbucket.org/gigdash/earnings_backend/utils"
)

const (
	opPayBreakdown    = "pay_breakdown"
	opMonthlyPay      = "monthly_pay"
	opAvgTripDuration = "avg_trip_duration"

	payBreakdownRowLimit = 10000
	monthlyPayRowLimit   = 2000
)

type PayComponent struct {
	Type   string  `json:"type"`
	Amount float64 `json:"amount"`
}

type PayBreakdownGroup struct {
	Name string         `json:"name"`
	Pay  []PayComponent `json:"pay"`
}

// PayBreakdown averages each income component per activity type. The
// dashboard defaults to the 7 day view; the source scan is capped at 10000
// rows per type.
func (s *Service) PayBreakdown(ctx context.Context, params QueryParams) ([]PayBreakdownGroup, error) {
	start, end, err := ResolvePeriod(params.DateFilter, params.StartDate, params.EndDate, s.now())
	if err != nil {
		return nil, err
	}
	key := cacheKey(opPayBreakdown, dateDescriptor(params.DateFilter, params.StartDate, params.EndDate), AffiliationAll)
	return getOrCompute(ctx, s, key, statsCacheTTL, func() ([]PayBreakdownGroup, error) {
		groups := make([]PayBreakdownGroup, 0, 2)
		for _, group := range []struct {
			name         string
			activityType models.ActivityType
		}{
			{"Rideshare", models.ActivityTypeRideshare},
			{"Delivery", models.ActivityTypeDelivery},
		} {
			records, err := s.store.FetchPayColumns(ctx, group.activityType, start, end, payBreakdownRowLimit)
			if err != nil {
				return nil, err
			}
			fees := make([]float64, 0, len(records))
			pay := make([]float64, 0, len(records))
			tips := make([]float64, 0, len(records))
			bonus := make([]float64, 0, len(records))
			for _, record := range records {
				fees = append(fees, record.IncomeFees.InexactFloat64())
				pay = append(pay, record.IncomePay.InexactFloat64())
				tips = append(tips, record.IncomeTips.InexactFloat64())
				bonus = append(bonus, record.IncomeBonus.InexactFloat64())
			}
			groups = append(groups, PayBreakdownGroup{
				Name: group.name,
				Pay: []PayComponent{
					{Type: "income_pay", Amount: utils.Mean(pay)},
					{Type: "income_tips", Amount: utils.Mean(tips)},
					{Type: "income_bonus", Amount: utils.Mean(bonus)},
					{Type: "income_fees", Amount: utils.Mean(fees)},
				},
			})
		}
		return groups, nil
	})
}

type MonthlyPay struct {
	YearMonth  string  `json:"year_month"`
	CurrentPay float64 `json:"current_pay"`
}

// MonthlyPay averages current pay (tips excluded) per calendar month over
// rideshare trips. Mirrors the dashboard widget: first 2000 rows by id,
// cached for an hour.
func (s *Service) MonthlyPay(ctx context.Context) ([]MonthlyPay, error) {
	key := cacheKey(opMonthlyPay, "all", AffiliationAll)
	return getOrCompute(ctx, s, key, statsCacheTTL, func() ([]MonthlyPay, error) {
		records, err := s.store.FetchMonthlyPayRows(ctx, monthlyPayRowLimit)
		if err != nil {
			return nil, err
		}
		byMonth := make(map[string][]float64)
		for _, record := range records {
			month := record.StartDatetime.Format("2006-01")
			currentPay := record.IncomePay.Add(record.IncomeBonus).InexactFloat64()
			byMonth[month] = append(byMonth[month], currentPay)
		}
		months := make([]MonthlyPay, 0, len(byMonth))
		for month, values := range byMonth {
			months = append(months, MonthlyPay{YearMonth: month, CurrentPay: utils.Mean(values)})
		}
		sort.Slice(months, func(i, j int) bool {
			return months[i].YearMonth < months[j].YearMonth
		})
		return months, nil
	})
}

// AverageTripDuration is the mean trip duration in seconds over every
// rideshare trip on record, cached for an hour.
func (s *Service) AverageTripDuration(ctx context.Context) (float64, error) {
	key := cacheKey(opAvgTripDuration, "all", AffiliationAll)
	return getOrCompute(ctx, s, key, statsCacheTTL, func() (float64, error) {
		durations, err := s.store.FetchDurations(ctx, models.ActivityTypeRideshare)
		if err != nil {
			return 0, err
		}
		return utils.Mean(durations), nil
	})
}
