package engine

import "math"

// Params holds the tunable constants of the price, acceptance and belief
// models. The source values (steepness 0.5/0.5, sigma 3.0) have no
// documented derivation, so they are carried as configuration rather than
// literals.
type Params struct {
	Sigma           float64 // Gaussian likelihood width for belief updates
	BuyerSteepness  float64 // logistic steepness on the buyer side
	SellerSteepness float64 // logistic steepness on the seller side
	NoiseRange      float64 // price noise drawn uniform in ±NoiseRange
	MinPrice        float64 // hard floor; a price is never ≤ 0
	MeanGap         float64 // mean inter-arrival gap for the Poisson policy
	Particles       int     // particle count for ParticleBelief agents
	ResampleRatio   float64 // ESS/N threshold that triggers resampling
}

// DefaultParams returns the standard model constants.
func DefaultParams() Params {
	return Params{
		Sigma:           3.0,
		BuyerSteepness:  0.5,
		SellerSteepness: 0.5,
		NoiseRange:      2.0,
		MinPrice:        1.0,
		MeanGap:         5.0,
		Particles:       256,
		ResampleRatio:   0.5,
	}
}

// Side identifies which side of a trade an agent is on.
type Side uint8

const (
	SideBuyer  Side = 0
	SideSeller Side = 1
)

// String returns "buyer" or "seller".
func (s Side) String() string {
	if s == SideBuyer {
		return "buyer"
	}
	return "seller"
}

// Logistic computes 1 / (1 + e^-x).
func Logistic(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// ProposePrice returns the candidate clearing price: the average of the two
// parties' expected values plus a bounded noise perturbation, floored at
// minPrice.
func ProposePrice(buyerEV, sellerEV, noise, minPrice float64) float64 {
	price := (buyerEV+sellerEV)/2 + noise
	if price < minPrice {
		price = minPrice
	}
	return price
}

// AcceptProbability maps the signed gap between expected value and price to
// an acceptance probability in (0, 1). Sellers grow more willing as price
// rises above their valuation, buyers as it falls below; both sides share
// the same logistic shape with a sign flip. The logistic saturates to 0 or 1
// in float64 at large gaps, so the result is clamped one step inside the
// open interval.
func AcceptProbability(ev, price float64, side Side, steepness float64) float64 {
	gap := price - ev
	if side == SideBuyer {
		gap = -gap
	}
	p := Logistic(steepness * gap)
	if p <= 0 {
		return math.SmallestNonzeroFloat64
	}
	if p >= 1 {
		return math.Nextafter(1, 0)
	}
	return p
}
