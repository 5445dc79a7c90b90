package engine

import "math"

// ---------------------------------------------------------------------------
// xorshift64 RNG — inline, no interface. Market and ParticleBelief each own
// a stream so a round replays identically from its seed.
// ---------------------------------------------------------------------------

// seedOrOne maps a zero seed to 1; xorshift can't start at 0.
func seedOrOne(seed uint64) uint64 {
	if seed == 0 {
		return 1
	}
	return seed
}

func nextRand(state *uint64) uint64 {
	x := *state
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	*state = x
	return x
}

// randN returns a random number in [0, n).
func randN(state *uint64, n uint64) uint64 {
	return nextRand(state) % n
}

// randFloat returns a uniform float64 in [0, 1) using 53 bits.
func randFloat(state *uint64) float64 {
	return float64(nextRand(state)>>11) / float64(1<<53)
}

// uniformRange returns a uniform float64 in [lo, hi).
func uniformRange(state *uint64, lo, hi float64) float64 {
	return lo + (hi-lo)*randFloat(state)
}

// expovariate returns an exponentially distributed draw with the given mean.
func expovariate(state *uint64, mean float64) float64 {
	return -mean * math.Log(1-randFloat(state))
}
