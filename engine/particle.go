package engine

// ParticleBelief approximates the goal-suit posterior with a fixed-size
// population of weighted suit hypotheses. Its weighted empirical
// distribution tracks the same posterior as ExactBelief; effective sample
// size guards against particle degeneracy.
type ParticleBelief struct {
	hyp           []Suit
	weights       []float64
	sigma         float64
	resampleRatio float64
	rng           uint64
}

// NewParticleBelief creates a particle filter with n particles, Gaussian
// likelihood width sigma, and an ESS resampling threshold of
// resampleRatio*n. Hypotheses are assigned round-robin across the four
// suits so the initial distribution is exactly uniform.
func NewParticleBelief(n int, sigma, resampleRatio float64, seed uint64) *ParticleBelief {
	b := &ParticleBelief{
		hyp:           make([]Suit, n),
		weights:       make([]float64, n),
		sigma:         sigma,
		resampleRatio: resampleRatio,
		rng:           seedOrOne(seed),
	}
	b.reset()
	return b
}

// reset restores the uniform prior: round-robin hypotheses, equal weights.
func (b *ParticleBelief) reset() {
	n := len(b.hyp)
	w := 1.0 / float64(n)
	for i := range b.hyp {
		b.hyp[i] = Suit(i % NumSuits)
		b.weights[i] = w
	}
}

// ExpectedValue implements Belief.
func (b *ParticleBelief) ExpectedValue(s Suit) float64 {
	return expectedValue(b.Distribution(), s)
}

// Observe implements Belief: reweight by the Gaussian likelihood,
// renormalize, and resample when the effective sample size collapses below
// the threshold.
func (b *ParticleBelief) Observe(s Suit, price float64) {
	total := 0.0
	for i := range b.weights {
		b.weights[i] *= likelihood(s, price, b.sigma, b.hyp[i])
		total += b.weights[i]
	}
	if total == 0 {
		// All hypotheses underflowed; recover to the uniform prior.
		b.reset()
		return
	}

	sumSq := 0.0
	for i := range b.weights {
		b.weights[i] /= total
		sumSq += b.weights[i] * b.weights[i]
	}

	ess := 1.0 / sumSq
	if ess < b.resampleRatio*float64(len(b.weights)) {
		b.resample()
	}
}

// resample draws n particles with replacement proportional to weight and
// resets all weights to uniform.
func (b *ParticleBelief) resample() {
	n := len(b.hyp)
	cum := make([]float64, n)
	acc := 0.0
	for i, w := range b.weights {
		acc += w
		cum[i] = acc
	}

	fresh := make([]Suit, n)
	for i := range fresh {
		u := randFloat(&b.rng) * acc
		// Linear scan; n is small and cum is monotone.
		j := 0
		for j < n-1 && cum[j] < u {
			j++
		}
		fresh[i] = b.hyp[j]
	}

	b.hyp = fresh
	w := 1.0 / float64(n)
	for i := range b.weights {
		b.weights[i] = w
	}
}

// Distribution implements Belief: particle weights aggregated by hypothesis
// suit into the same normalized mapping the exact form uses.
func (b *ParticleBelief) Distribution() [NumSuits]float64 {
	var dist [NumSuits]float64
	total := 0.0
	for i, w := range b.weights {
		dist[b.hyp[i]] += w
		total += w
	}
	if total > 0 {
		for i := range dist {
			dist[i] /= total
		}
	}
	return dist
}
