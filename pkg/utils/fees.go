package utils

import "math"

// Platform fee percentage applied to every donation.
const PlatformFeePercent = 10

// PlatformFee returns the platform's cut of an amount in øre.
func PlatformFee(amountMinor int64) int64 {
	return int64(math.Round(float64(amountMinor) * PlatformFeePercent / 100))
}
