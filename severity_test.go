package scanrules

import "testing"

func TestSeverityMatchesOverride(t *testing.T) {
	t.Parallel()
	tt := []struct {
		Value     float64
		Threshold float64
		Want      bool
	}{
		// Positive thresholds are greater-or-equal comparisons.
		{Value: 7.5, Threshold: 7.0, Want: true},
		{Value: 7.0, Threshold: 7.0, Want: true},
		{Value: 6.9, Threshold: 7.0, Want: false},
		{Value: 10.0, Threshold: 0.1, Want: true},

		// Non-positive thresholds are sentinels requiring exact equality.
		{Value: 0, Threshold: 0, Want: true},
		{Value: 5, Threshold: 0, Want: false},
		{Value: -1, Threshold: -1, Want: true},
		{Value: 5, Threshold: -1, Want: false},
		{Value: 0, Threshold: -1, Want: false},
		{Value: -1, Threshold: 0, Want: false},
	}
	for _, tc := range tt {
		if got := SeverityMatchesOverride(tc.Value, tc.Threshold); got != tc.Want {
			t.Errorf("SeverityMatchesOverride(%v, %v): got %v, want %v",
				tc.Value, tc.Threshold, got, tc.Want)
		}
	}
}
