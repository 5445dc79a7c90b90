package engine

import "math"

// Belief is an agent's posterior distribution over which suit is the goal
// suit. Two interchangeable implementations exist: ExactBelief (closed-form
// Bayesian updates) and ParticleBelief (a resampled particle filter). Both
// start from the uniform prior and keep their mass normalized to 1 after
// every observation.
type Belief interface {
	// ExpectedValue returns the probability-weighted valuation of a card
	// of suit s under the current posterior.
	ExpectedValue(s Suit) float64

	// Observe folds a public (suit, price) trade observation into the
	// posterior via a Gaussian price likelihood.
	Observe(s Suit, price float64)

	// Distribution returns the posterior as a normalized mapping over the
	// four candidate suits.
	Distribution() [NumSuits]float64
}

// uniformDist returns the uniform prior over the four candidate suits.
func uniformDist() [NumSuits]float64 {
	var d [NumSuits]float64
	for i := range d {
		d[i] = 1.0 / NumSuits
	}
	return d
}

// expectedValue computes the belief-weighted valuation of a card of suit s.
func expectedValue(dist [NumSuits]float64, s Suit) float64 {
	ev := 0.0
	for h := Suit(0); h < NumSuits; h++ {
		ev += dist[h] * Valuation(s, h)
	}
	return ev
}

// likelihood is the Gaussian price likelihood of observing a trade of suit s
// at the given price under the hypothesis hyp.
func likelihood(s Suit, price, sigma float64, hyp Suit) float64 {
	d := price - Valuation(s, hyp)
	return math.Exp(-d * d / (2 * sigma * sigma))
}

// ---------------------------------------------------------------------------
// ExactBelief — closed-form discrete posterior
// ---------------------------------------------------------------------------

// ExactBelief holds the exact discrete posterior over the four candidate
// goal suits, updated by Bayesian multiplication.
type ExactBelief struct {
	dist  [NumSuits]float64
	sigma float64
}

// NewExactBelief returns an exact belief initialized to the uniform prior.
// Sigma is the Gaussian likelihood width used for updates.
func NewExactBelief(sigma float64) *ExactBelief {
	return &ExactBelief{dist: uniformDist(), sigma: sigma}
}

// ExpectedValue implements Belief.
func (b *ExactBelief) ExpectedValue(s Suit) float64 {
	return expectedValue(b.dist, s)
}

// Observe implements Belief. If every hypothesis underflows to zero
// likelihood the posterior resets to the uniform prior; this is a defined
// recovery path, not an error.
func (b *ExactBelief) Observe(s Suit, price float64) {
	total := 0.0
	for h := Suit(0); h < NumSuits; h++ {
		b.dist[h] *= likelihood(s, price, b.sigma, h)
		total += b.dist[h]
	}
	if total == 0 {
		b.dist = uniformDist()
		return
	}
	for h := range b.dist {
		b.dist[h] /= total
	}
}

// Distribution implements Belief.
func (b *ExactBelief) Distribution() [NumSuits]float64 {
	return b.dist
}
