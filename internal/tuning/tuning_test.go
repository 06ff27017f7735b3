package tuning

import "testing"

func TestDefault_Valid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default table should validate: %v", err)
	}
}

func TestDefault_Adjustments(t *testing.T) {
	d := Default()
	if d.VolatileAdjust.Momentum != 1.3 || d.VolatileAdjust.Frequency != 0.8 {
		t.Errorf("Unexpected volatile adjustment: %+v", d.VolatileAdjust)
	}
	if d.StableAdjust.Frequency != 1.2 || d.StableAdjust.Momentum != 0.85 {
		t.Errorf("Unexpected stable adjustment: %+v", d.StableAdjust)
	}
	// factors not named by an adjustment stay neutral
	if d.VolatileAdjust.Companion != 1 || d.StableAdjust.Stability != 1 {
		t.Errorf("Untouched factors should be 1")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *Table)
	}{
		{"zero decay", func(t *Table) { t.RecencyDecay = 0 }},
		{"zones too narrow", func(t *Table) { t.ZoneWidth = 9 }},
		{"zero recent window", func(t *Table) { t.MomentumRecentWindow = 0 }},
		{"hot set too large", func(t *Table) { t.HotSetSize = 51 }},
		{"percentiles inverted", func(t *Table) { t.ColdPercentile = 0.7 }},
		{"meta window too small", func(t *Table) { t.MetaWindow = 1 }},
		{"timing lookback below window", func(t *Table) { t.TimingLookback = 20 }},
		{"thresholds inverted", func(t *Table) { t.StableThreshold = 0.6 }},
		{"zero shift window", func(t *Table) { t.ShiftWindow = 0 }},
		{"coupon pool too large", func(t *Table) { t.CouponPool = 51 }},
		{"zero coupons", func(t *Table) { t.CouponCount = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := Default()
			tt.mutate(&table)
			if err := table.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
