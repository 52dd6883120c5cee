// Package pricing computes the fare for a completed ride.
package pricing

import "math"

const (
	// StartFee is the flat unlock fee charged on every ride.
	StartFee = 30
	// RatePerMs is 2.5 currency units per minute expressed per millisecond.
	RatePerMs = 2.5 / 60000

	zoneToZoneDiscount = 10
	outOfZoneSurcharge = 20
	returnToZoneReward = 20
)

// Fare prices a ride from its zone classification and elapsed duration.
// Riders who leave a bike outside a parking zone pay a surcharge; riders who
// bring a free-roaming bike back to a zone get a reward. The result is floored
// to whole currency units and never negative.
func Fare(startInZone, endInZone bool, durationMs int64) int {
	cost := StartFee + RatePerMs*float64(durationMs)

	switch {
	case startInZone && endInZone:
		cost -= zoneToZoneDiscount
	case !startInZone && endInZone:
		cost -= returnToZoneReward
	default:
		// Ride ended in free parking.
		cost += outOfZoneSurcharge
	}

	if cost <= 0 {
		return 0
	}
	return int(math.Floor(cost))
}
