package utils

import (
	"math"

	"workerlly/models"
)

// Round2 rounds to two decimal places using banker's rounding (round half
// to even), matching how historical fee records were produced.
func Round2(v float64) float64 {
	scaled := v * 100
	floor := math.Floor(scaled)
	diff := scaled - floor

	const eps = 1e-9
	switch {
	case diff > 0.5+eps:
		floor++
	case diff < 0.5-eps:
		// keep floor
	default:
		if math.Mod(floor, 2) != 0 {
			floor++
		}
	}
	return floor / 100
}

// ComputeFeeBreakdown computes the platform lead fee for a job at the
// given hourly rate. Intermediate values are rounded before the next step
// so the stored breakdown always reconciles with itself.
func ComputeFeeBreakdown(hourlyRate, feePct, gstPct float64) models.FeeBreakdown {
	baseFee := Round2(hourlyRate * feePct / 100)
	gstAmount := Round2(baseFee * gstPct / 100)
	return models.FeeBreakdown{
		HourlyRate: hourlyRate,
		BaseFee:    baseFee,
		GSTAmount:  gstAmount,
		TotalFee:   baseFee + gstAmount,
	}
}

// MinimumBalanceRequired is the wallet floor for a seeker to go online:
// the lead fee they would owe on a job at the category/city minimum rate.
func MinimumBalanceRequired(minHourlyRate, feePct, gstPct float64) float64 {
	platformFee := feePct / 100 * minHourlyRate
	gst := gstPct / 100 * platformFee
	return Round2(platformFee + gst)
}
