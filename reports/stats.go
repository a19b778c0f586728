package reports

import (
	"context"
	"math"

	"bitbucket.org/gigdash/earnings_backend/utils"
)

const (
	opAverageTips      = "average_tips_per_delivery"
	opAveragePayPerMin = "average_pay_per_min"
	opAggregateStats   = "aggregate_stats"
)

// AggregateStats are the cross-affiliation summary numbers, always computed
// over the full dataset (affiliation All) regardless of the request's filter.
type AggregateStats struct {
	AggregateTipValueDelivery       float64 `json:"aggregate_tip_value_delivery"`
	AggregateTipPercentageDelivery  float64 `json:"aggregate_tip_percentage_delivery"`
	AggregateTipValueRideshare      float64 `json:"aggregate_tip_value_rideshare"`
	AggregateTipPercentageRideshare float64 `json:"aggregate_tip_percentage_rideshare"`
	AggregatePayPerMinuteDelivery   float64 `json:"aggregate_pay_per_minute_delivery"`
	AggregatePayPerMinuteRideshare  float64 `json:"aggregate_pay_per_minute_rideshare"`
}

// AggregateStatsFor computes the summary block keyed by the explicit
// start/end pair, cache-gated with a 1 hour TTL.
func (s *Service) AggregateStatsFor(ctx context.Context, startDate, endDate string) (AggregateStats, error) {
	params := QueryParams{StartDate: startDate, EndDate: endDate, Affiliation: AffiliationAll}
	key := cacheKey(opAggregateStats, dateDescriptor("", startDate, endDate), AffiliationAll)
	return getOrCompute(ctx, s, key, statsCacheTTL, func() (AggregateStats, error) {
		deliveryRows, err := s.DeliveryData(ctx, params)
		if err != nil {
			return AggregateStats{}, err
		}
		rideshareRows, err := s.RideshareData(ctx, params)
		if err != nil {
			return AggregateStats{}, err
		}
		return AggregateStats{
			AggregateTipValueDelivery:       aggregateTipValue(deliveryRows),
			AggregateTipPercentageDelivery:  aggregateTipPercentage(deliveryRows),
			AggregateTipValueRideshare:      aggregateTipValue(rideshareRows),
			AggregateTipPercentageRideshare: aggregateTipPercentage(rideshareRows),
			AggregatePayPerMinuteDelivery:   aggregatePayPerMinute(deliveryRows),
			AggregatePayPerMinuteRideshare:  aggregatePayPerMinute(rideshareRows),
		}, nil
	})
}

// Tip value is the mean over every row; rows with a zero total charge still
// count here (their tip is a real observation of 0).
func aggregateTipValue(rows []ActivityRow) float64 {
	values := make([]float64, 0, len(rows))
	for _, row := range rows {
		values = append(values, row.IncomeTips.InexactFloat64())
	}
	return utils.Mean(values)
}

// Tip percentage is computed only over rows with a non-zero total charge:
// zero-charge rows would divide by zero, so they are excluded from the
// percentage mean (but not from the value mean above).
func aggregateTipPercentage(rows []ActivityRow) float64 {
	var percentages []float64
	for _, row := range rows {
		charge := row.IncomeTotalCharge.InexactFloat64()
		if charge == 0 {
			continue
		}
		percentages = append(percentages, row.IncomeTips.InexactFloat64()/charge*100)
	}
	v := utils.Mean(percentages)
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// Pay per minute is computed only over rows with a positive duration.
func aggregatePayPerMinute(rows []ActivityRow) float64 {
	var values []float64
	for _, row := range rows {
		if row.Duration <= 0 {
			continue
		}
		pay := row.IncomePay.Add(row.IncomeTotal).InexactFloat64()
		values = append(values, pay/(row.Duration/60))
	}
	return utils.Mean(values)
}

// TipStats is the /average-tips-per-delivery payload: per-slice averages for
// the requested affiliation plus the unfiltered aggregate block.
type TipStats struct {
	AverageTipValuePerDeliveryOrder       float64 `json:"average_tip_value_per_delivery_order"`
	AverageTipPercentagePerDeliveryOrder  float64 `json:"average_tip_percentage_per_delivery_order"`
	AverageTipValuePerRideshareOrder      float64 `json:"average_tip_value_per_rideshare_order"`
	AverageTipPercentagePerRideshareOrder float64 `json:"average_tip_percentage_per_rideshare_order"`

	AggregateTipValueDelivery       float64 `json:"aggregate_tip_value_delivery"`
	AggregateTipPercentageDelivery  float64 `json:"aggregate_tip_percentage_delivery"`
	AggregateTipValueRideshare      float64 `json:"aggregate_tip_value_rideshare"`
	AggregateTipPercentageRideshare float64 `json:"aggregate_tip_percentage_rideshare"`
}

func (s *Service) AverageTips(ctx context.Context, params QueryParams) (TipStats, error) {
	if _, err := canonicalFilter(params.Affiliation); err != nil {
		return TipStats{}, err
	}
	key := cacheKey(opAverageTips, dateDescriptor(params.DateFilter, params.StartDate, params.EndDate), params.Affiliation)
	return getOrCompute(ctx, s, key, statsCacheTTL, func() (TipStats, error) {
		deliveryRows, err := s.DeliveryData(ctx, params)
		if err != nil {
			return TipStats{}, err
		}
		rideshareRows, err := s.RideshareData(ctx, params)
		if err != nil {
			return TipStats{}, err
		}

		// The per-slice widgets only consider rows with a real charge.
		validDelivery := withCharge(deliveryRows)
		validRideshare := withCharge(rideshareRows)

		aggregate, err := s.AggregateStatsFor(ctx, params.StartDate, params.EndDate)
		if err != nil {
			return TipStats{}, err
		}

		return TipStats{
			AverageTipValuePerDeliveryOrder:       averageTip(validDelivery),
			AverageTipPercentagePerDeliveryOrder:  tipPercentage(validDelivery),
			AverageTipValuePerRideshareOrder:      averageTip(validRideshare),
			AverageTipPercentagePerRideshareOrder: tipPercentage(validRideshare),

			AggregateTipValueDelivery:       utils.Round(aggregate.AggregateTipValueDelivery, 2),
			AggregateTipPercentageDelivery:  roundWhole(aggregate.AggregateTipPercentageDelivery),
			AggregateTipValueRideshare:      utils.Round(aggregate.AggregateTipValueRideshare, 2),
			AggregateTipPercentageRideshare: roundWhole(aggregate.AggregateTipPercentageRideshare),
		}, nil
	})
}

func withCharge(rows []ActivityRow) []ActivityRow {
	valid := make([]ActivityRow, 0, len(rows))
	for _, row := range rows {
		if !row.IncomeTotalCharge.IsZero() {
			valid = append(valid, row)
		}
	}
	return valid
}

func averageTip(rows []ActivityRow) float64 {
	if len(rows) == 0 {
		return 0
	}
	var sum float64
	for _, row := range rows {
		sum += row.IncomeTips.InexactFloat64()
	}
	return utils.Round(sum/float64(len(rows)), 2)
}

func tipPercentage(rows []ActivityRow) float64 {
	if len(rows) == 0 {
		return 0
	}
	percentages := make([]float64, 0, len(rows))
	for _, row := range rows {
		charge := row.IncomeTotalCharge.InexactFloat64()
		if charge == 0 {
			continue
		}
		percentages = append(percentages, row.IncomeTips.InexactFloat64()/charge*100)
	}
	return roundWhole(utils.Mean(percentages))
}

func roundWhole(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Round(v)
}

// PayPerMinuteStats is the /average-pay-per-min payload.
type PayPerMinuteStats struct {
	AveragePayPerMinuteDelivery  float64 `json:"average_pay_per_minute_delivery"`
	AveragePayPerMinuteRideshare float64 `json:"average_pay_per_minute_rideshare"`

	AggregatePayPerMinuteDelivery  float64 `json:"aggregate_pay_per_minute_delivery"`
	AggregatePayPerMinuteRideshare float64 `json:"aggregate_pay_per_minute_rideshare"`
}

func (s *Service) AveragePayPerMinute(ctx context.Context, params QueryParams) (PayPerMinuteStats, error) {
	if _, err := canonicalFilter(params.Affiliation); err != nil {
		return PayPerMinuteStats{}, err
	}
	key := cacheKey(opAveragePayPerMin, dateDescriptor(params.DateFilter, params.StartDate, params.EndDate), params.Affiliation)
	return getOrCompute(ctx, s, key, statsCacheTTL, func() (PayPerMinuteStats, error) {
		deliveryRows, err := s.DeliveryData(ctx, params)
		if err != nil {
			return PayPerMinuteStats{}, err
		}
		rideshareRows, err := s.RideshareData(ctx, params)
		if err != nil {
			return PayPerMinuteStats{}, err
		}

		aggregate, err := s.AggregateStatsFor(ctx, params.StartDate, params.EndDate)
		if err != nil {
			return PayPerMinuteStats{}, err
		}

		return PayPerMinuteStats{
			AveragePayPerMinuteDelivery:    payPerMinute(deliveryRows),
			AveragePayPerMinuteRideshare:   payPerMinute(rideshareRows),
			AggregatePayPerMinuteDelivery:  aggregate.AggregatePayPerMinuteDelivery,
			AggregatePayPerMinuteRideshare: aggregate.AggregatePayPerMinuteRideshare,
		}, nil
	})
}

// Per-slice pay per minute: income_total over minutes, rows with zero or
// negative duration excluded.
func payPerMinute(rows []ActivityRow) float64 {
	var values []float64
	for _, row := range rows {
		if row.Duration <= 0 {
			continue
		}
		values = append(values, row.IncomeTotal.InexactFloat64()/(row.Duration/60))
	}
	if len(values) == 0 {
		return 0
	}
	return utils.Round(utils.Mean(values), 2)
}
