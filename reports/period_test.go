package reports

import (
	"testing"
	"time"
)

func TestResolvePeriodTokens(t *testing.T) {
	now := time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		dateFilter string
		wantDays   int
	}{
		{"7d", 7},
		{"1m", 30},
		{"3m", 91},
		{"6m", 182},
		{"1y", 365},
		{"", 7},
		{"bogus", 7},
		{"30d", 7},
	}
	for _, tc := range tests {
		start, end, err := ResolvePeriod(tc.dateFilter, "", "", now)
		if err != nil {
			t.Fatalf("ResolvePeriod(%q): unexpected error: %v", tc.dateFilter, err)
		}
		if !end.Equal(now) {
			t.Fatalf("ResolvePeriod(%q): end = %v, want %v", tc.dateFilter, end, now)
		}
		if got := end.Sub(start); got != time.Duration(tc.wantDays)*24*time.Hour {
			t.Fatalf("ResolvePeriod(%q): span = %v, want %d days", tc.dateFilter, got, tc.wantDays)
		}
	}
}

func TestResolvePeriodExplicitDates(t *testing.T) {
	now := time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC)

	// Explicit bounds win over the token.
	start, end, err := ResolvePeriod("1y", "2023-01-01", "2023-02-01", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Fatalf("start = %v, want %v", start, want)
	}
	if want := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC); !end.Equal(want) {
		t.Fatalf("end = %v, want %v", end, want)
	}
}

func TestResolvePeriodMalformedDates(t *testing.T) {
	now := time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC)

	if _, _, err := ResolvePeriod("", "01/01/2023", "2023-02-01", now); err == nil {
		t.Fatal("malformed start_date accepted")
	}
	if _, _, err := ResolvePeriod("", "2023-01-01", "not-a-date", now); err == nil {
		t.Fatal("malformed end_date accepted")
	}
}

func TestResolvePeriodOnlyOneExplicitBound(t *testing.T) {
	now := time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC)

	// A lone start_date does not activate explicit mode; the token applies.
	start, end, err := ResolvePeriod("1m", "2023-01-01", "", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !end.Equal(now) {
		t.Fatalf("end = %v, want %v", end, now)
	}
	if got := end.Sub(start); got != 30*24*time.Hour {
		t.Fatalf("span = %v, want 30 days", got)
	}
}
