package services

import "math"

// Platform commission tiers. Higher-priced sessions keep a smaller
// platform share; the rate always stays inside the 10%-20% band.
//
//	price < 100 TTD          -> 20%
//	100 TTD <= price < 250   -> 15%
//	price >= 250 TTD         -> 10%
const (
	commissionRateLow  = 0.20
	commissionRateMid  = 0.15
	commissionRateHigh = 0.10

	commissionMidThresholdTTD  = 100.0
	commissionHighThresholdTTD = 250.0
)

// noShowChargeFraction is the share of the original price billed when
// the student never joins.
const noShowChargeFraction = 0.5

// CommissionRate returns the platform's tier rate for a session price.
func CommissionRate(priceTTD float64) float64 {
	switch {
	case priceTTD >= commissionHighThresholdTTD:
		return commissionRateHigh
	case priceTTD >= commissionMidThresholdTTD:
		return commissionRateMid
	default:
		return commissionRateLow
	}
}

// RoundTTD rounds a TTD amount half away from zero to cents. This is
// the single currency rounding rule for every charge computation.
func RoundTTD(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// SplitCharge computes the fee split for a charge amount. The tier is
// chosen from the original session price, not the (possibly reduced)
// charge, so a no-show reduction keeps the agreed tier. The payout is
// derived by subtraction so fee + payout always equals the charge.
func SplitCharge(priceTTD, chargeTTD float64) (platformFee, tutorPayout float64) {
	platformFee = RoundTTD(chargeTTD * CommissionRate(priceTTD))
	tutorPayout = RoundTTD(chargeTTD - platformFee)
	return platformFee, tutorPayout
}

// NoShowCharge returns the reduced charge for a student no-show.
func NoShowCharge(priceTTD float64) float64 {
	return RoundTTD(priceTTD * noShowChargeFraction)
}
