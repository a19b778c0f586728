package reports

import (
	"context"

	"bitbucket.org/gigdash/earnings_backend/models"
)

const (
	opRideshareData = "rideshare_data"
	opDeliveryData  = "delivery_data"
)

// ActivityRow is an ActivityRecord extended with the derived reporting
// columns. Rows only live inside responses and cache entries, never in the
// store.
//
// pay_per_mile is nil when the distance is missing (zero or null in the
// store); it serializes as JSON null.
type ActivityRow struct {
	models.ActivityRecord
	CurrentPay  float64  `json:"current_pay"`
	PayPerMile  *float64 `json:"pay_per_mile"`
	Affiliation string   `json:"affiliation"`
}

// RideshareData returns the derived rideshare table for the requested slice,
// cache-gated per (date descriptor, affiliation).
func (s *Service) RideshareData(ctx context.Context, params QueryParams) ([]ActivityRow, error) {
	return s.activityData(ctx, opRideshareData, models.ActivityTypeRideshare, params)
}

// DeliveryData is RideshareData for delivery tasks.
func (s *Service) DeliveryData(ctx context.Context, params QueryParams) ([]ActivityRow, error) {
	return s.activityData(ctx, opDeliveryData, models.ActivityTypeDelivery, params)
}

func (s *Service) activityData(ctx context.Context, op string, activityType models.ActivityType, params QueryParams) ([]ActivityRow, error) {
	// Validate the filter before touching cache or store; unknown values fail
	// loudly instead of defaulting.
	filterToken, err := canonicalFilter(params.Affiliation)
	if err != nil {
		return nil, err
	}
	start, end, err := ResolvePeriod(params.DateFilter, params.StartDate, params.EndDate, s.now())
	if err != nil {
		return nil, err
	}

	key := cacheKey(op, dateDescriptor(params.DateFilter, params.StartDate, params.EndDate), params.Affiliation)
	return getOrCompute(ctx, s, key, tableCacheTTL, func() ([]ActivityRow, error) {
		records, err := s.store.FetchActivities(ctx, activityType, start, end)
		if err != nil {
			return nil, err
		}
		affiliations, err := s.LoadAffiliations(ctx)
		if err != nil {
			return nil, err
		}
		return preprocess(records, affiliations, filterToken), nil
	})
}

// preprocess computes the derived columns and left-joins affiliations.
// A distance of exactly zero is treated as missing so pay_per_mile is
// undefined rather than a division by zero. Accounts absent from the metadata
// table entirely are treated as unaffiliated, consistent with accounts whose
// metadata carries no affiliation.
func preprocess(records []models.ActivityRecord, affiliations map[string]string, filterToken string) []ActivityRow {
	rows := make([]ActivityRow, 0, len(records))
	for _, record := range records {
		if record.Distance != nil && *record.Distance == 0 {
			record.Distance = nil
		}
		record.IncomeTotalCharge = record.IncomeFees.Add(record.IncomeTotal)

		// Current pay excludes tips.
		currentPay := record.IncomePay.Add(record.IncomeBonus).InexactFloat64()

		var payPerMile *float64
		if record.Distance != nil {
			v := currentPay / *record.Distance
			payPerMile = &v
		}

		affiliation, ok := affiliations[record.Account]
		if !ok {
			affiliation = Unaffiliated
		}
		if filterToken != "" && affiliation != filterToken {
			continue
		}

		rows = append(rows, ActivityRow{
			ActivityRecord: record,
			CurrentPay:     currentPay,
			PayPerMile:     payPerMile,
			Affiliation:    affiliation,
		})
	}
	return rows
}

type SignUps struct {
	TotalSignUps int    `json:"total_sign_ups"`
	LastUpdated  string `json:"last_updated"`
}

// SignUps counts distinct accounts in the requested slice. The dashboard
// defaults to the 3 month view.
func (s *Service) SignUps(ctx context.Context, activityType models.ActivityType, params QueryParams) (SignUps, error) {
	if params.DateFilter == "" && params.StartDate == "" {
		params.DateFilter = "3m"
	}

	var rows []ActivityRow
	var err error
	if activityType == models.ActivityTypeDelivery {
		rows, err = s.DeliveryData(ctx, params)
	} else {
		rows, err = s.RideshareData(ctx, params)
	}
	if err != nil {
		return SignUps{}, err
	}

	accounts := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		accounts[row.Account] = struct{}{}
	}
	return SignUps{
		TotalSignUps: len(accounts),
		LastUpdated:  s.now().UTC().Format("01/02/06"),
	}, nil
}
