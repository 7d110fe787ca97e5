package utils

import "testing"

func TestRound2(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"already two places", 94.40, 94.40},
		{"rounds down", 3.14159, 3.14},
		{"rounds up", 2.718, 2.72},
		{"half to even down", 0.125, 0.12},
		{"half to even up", 0.875, 0.88},
		{"whole number", 118, 118},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Round2(tc.in); got != tc.want {
				t.Errorf("Round2(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestComputeFeeBreakdown(t *testing.T) {
	tests := []struct {
		name       string
		rate       float64
		feePct     float64
		gstPct     float64
		wantBase   float64
		wantGST    float64
		wantTotal  float64
	}{
		{"standard lead fee", 400, 25, 18, 100, 18, 118},
		{"low rate", 150, 25, 18, 37.5, 6.75, 44.25},
		{"fractional rate", 333, 25, 18, 83.25, 14.99, 98.24},
		{"zero gst", 400, 25, 0, 100, 0, 100},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fee := ComputeFeeBreakdown(tc.rate, tc.feePct, tc.gstPct)
			if fee.HourlyRate != tc.rate {
				t.Errorf("HourlyRate = %v, want %v", fee.HourlyRate, tc.rate)
			}
			if fee.BaseFee != tc.wantBase {
				t.Errorf("BaseFee = %v, want %v", fee.BaseFee, tc.wantBase)
			}
			if fee.GSTAmount != tc.wantGST {
				t.Errorf("GSTAmount = %v, want %v", fee.GSTAmount, tc.wantGST)
			}
			if fee.TotalFee != tc.wantTotal {
				t.Errorf("TotalFee = %v, want %v", fee.TotalFee, tc.wantTotal)
			}
		})
	}
}

func TestMinimumBalanceRequired(t *testing.T) {
	if got := MinimumBalanceRequired(400, 25, 18); got != 118 {
		t.Errorf("MinimumBalanceRequired(400, 25, 18) = %v, want 118", got)
	}
	if got := MinimumBalanceRequired(0, 25, 18); got != 0 {
		t.Errorf("MinimumBalanceRequired(0, 25, 18) = %v, want 0", got)
	}
}
