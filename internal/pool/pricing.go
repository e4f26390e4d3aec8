package pool

import "math"

// soloFare is ceil(total_km * rate_per_km), floored at rate_per_km so a
// sub-1km route never charges less than the base per-km rate.
func soloFare(totalKm, ratePerKm float64) float64 {
	return math.Max(math.Ceil(totalKm*ratePerKm), ratePerKm)
}

// pooledFare applies the pooling discount once per join event: a solo
// waiter pays full fare, the first pairing discounts that fare by one
// factor, each later join compounds the discount again, and so on. This is the "peer-anchored"
// resolution chosen for this matcher's pricing-anchor question: every occupant's
// fare is recomputed against the fare the trip held immediately before this
// join, not against the original solo fare of the first rider.
//
// fareBeforeJoin is the fare_each every current occupant is paying right
// now (== soloFare for a brand-new pairing's first member).
func pooledFare(fareBeforeJoin, discountFactor float64) float64 {
	return math.Ceil(fareBeforeJoin * (1 - discountFactor))
}

// FareForJoin computes the new shared fare_each after a candidate joins an
// entry/trip currently charging currentFareEach.
func FareForJoin(currentFareEach, discountFactor float64) float64 {
	return pooledFare(currentFareEach, discountFactor)
}
