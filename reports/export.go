package reports

import (
	"context"
	"time"

	"github.com/xuri/excelize/v2"
)

var exportHeader = []any{
	"id", "account", "employer", "user", "type", "start_datetime", "end_datetime",
	"duration", "distance", "distance_unit", "income_currency",
	"income_total_charge", "income_fees", "income_total", "income_pay",
	"income_tips", "income_bonus", "income_other", "current_pay",
	"pay_per_mile", "affiliation",
}

// Export renders the derived activity tables as an xlsx workbook, one sheet
// per activity type. The rows come from the same cache-gated pipeline as the
// JSON endpoints, so an export right after a dashboard view is a cache hit.
func (s *Service) Export(ctx context.Context, params QueryParams) (*excelize.File, error) {
	f := excelize.NewFile()

	sheets := []struct {
		name  string
		fetch func(context.Context, QueryParams) ([]ActivityRow, error)
	}{
		{"Rideshare", s.RideshareData},
		{"Delivery", s.DeliveryData},
	}
	for i, sheet := range sheets {
		rows, err := sheet.fetch(ctx, params)
		if err != nil {
			f.Close()
			return nil, err
		}

		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.name); err != nil {
				f.Close()
				return nil, err
			}
		} else {
			if _, err := f.NewSheet(sheet.name); err != nil {
				f.Close()
				return nil, err
			}
		}

		if err := f.SetSheetRow(sheet.name, "A1", &exportHeader); err != nil {
			f.Close()
			return nil, err
		}
		for r, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				f.Close()
				return nil, err
			}
			values := exportRow(row)
			if err := f.SetSheetRow(sheet.name, cell, &values); err != nil {
				f.Close()
				return nil, err
			}
		}
	}
	return f, nil
}

func exportRow(row ActivityRow) []any {
	var endDatetime any
	if row.EndDatetime != nil {
		endDatetime = row.EndDatetime.Format(time.RFC3339)
	}
	var distance any
	if row.Distance != nil {
		distance = *row.Distance
	}
	var payPerMile any
	if row.PayPerMile != nil {
		payPerMile = *row.PayPerMile
	}
	return []any{
		row.ID,
		row.Account,
		row.Employer,
		row.User,
		string(row.Type),
		row.StartDatetime.Format(time.RFC3339),
		endDatetime,
		row.Duration,
		distance,
		row.DistanceUnit,
		row.IncomeCurrency,
		row.IncomeTotalCharge.InexactFloat64(),
		row.IncomeFees.InexactFloat64(),
		row.IncomeTotal.InexactFloat64(),
		row.IncomePay.InexactFloat64(),
		row.IncomeTips.InexactFloat64(),
		row.IncomeBonus.InexactFloat64(),
		row.IncomeOther.InexactFloat64(),
		row.CurrentPay,
		payPerMile,
		row.Affiliation,
	}
}
