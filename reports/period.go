package reports

import (
	"fmt"
	"time"
)

const DefaultPeriod = "7d"

// Day counts for the named period tokens.
var periodDays = map[string]int{
	"7d": 7,
	"1m": 30,
	"3m": 91,
	"6m": 182,
	"1y": 365,
}

// ResolvePeriod maps a date-filter token or explicit bounds to a concrete
// range. When both startDate and endDate are given (YYYY-MM-DD) they are used
// directly; the end bound is inclusive, queries compare
// start_datetime <= end. Otherwise the token is resolved counting back from
// now; an unrecognized or empty token silently falls back to the 7d default.
func ResolvePeriod(dateFilter, startDate, endDate string, now time.Time) (time.Time, time.Time, error) {
	if startDate != "" && endDate != "" {
		start, err := time.Parse("2006-01-02", startDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date %q: %w", startDate, err)
		}
		end, err := time.Parse("2006-01-02", endDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end_date %q: %w", endDate, err)
		}
		return start, end, nil
	}

	days, ok := periodDays[dateFilter]
	if !ok {
		days = periodDays[DefaultPeriod]
	}
	end := now
	start := end.Add(-time.Duration(days) * 24 * time.Hour)
	return start, end, nil
}
