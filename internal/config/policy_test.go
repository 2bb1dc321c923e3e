package config

import (
	"strings"
	"testing"
	"time"
)

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		doc     string
		wantErr string
		check   func(t *testing.T, days []time.Weekday, periods int, min, max int)
	}{
		{
			name: "empty document keeps defaults",
			doc:  "{}",
			check: func(t *testing.T, days []time.Weekday, periods, min, max int) {
				if len(days) != 5 || periods != 8 || min != 3 || max != 5 {
					t.Fatalf("expected default grid, got days=%v periods=%d range=%d-%d", days, periods, min, max)
				}
			},
		},
		{
			name: "mixed period forms",
			doc:  "days: [Saturday]\nperiods:\n  - 09:00-09:45\n  - {start: \"10:00\", end: \"10:45\"}\nmin_periods: 1\nmax_periods: 1\n",
			check: func(t *testing.T, days []time.Weekday, periods, min, max int) {
				if len(days) != 1 || days[0] != time.Saturday || periods != 2 || min != 1 || max != 1 {
					t.Fatalf("unexpected policy days=%v periods=%d range=%d-%d", days, periods, min, max)
				}
			},
		},
		{
			name:    "unknown key",
			doc:     "weeks: 2\n",
			wantErr: "decode policy",
		},
		{
			name:    "bad day name",
			doc:     "days: [Funday]\n",
			wantErr: "Funday",
		},
		{
			name:    "malformed period",
			doc:     "periods: [\"0900\"]\n",
			wantErr: "HH:MM-HH:MM",
		},
		{
			name:    "overlapping periods",
			doc:     "periods: [\"09:00-10:00\", \"09:30-10:30\"]\n",
			wantErr: "overlaps",
		},
		{
			name:    "inverted range",
			doc:     "min_periods: 4\nmax_periods: 2\n",
			wantErr: "max_periods",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			policy, err := ParsePolicy([]byte(tc.doc))
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePolicy returned error: %v", err)
			}
			tc.check(t, policy.Days, len(policy.Periods), policy.MinPeriods, policy.MaxPeriods)
		})
	}
}
