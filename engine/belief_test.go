package engine

import (
	"math"
	"testing"
)

const normTolerance = 1e-9

// checkNormalized asserts the belief mass sums to 1 within tolerance.
func checkNormalized(t *testing.T, b Belief) {
	t.Helper()
	sum := 0.0
	for _, p := range b.Distribution() {
		if p < 0 {
			t.Fatalf("negative belief mass %v", p)
		}
		sum += p
	}
	if math.Abs(sum-1) > normTolerance {
		t.Fatalf("belief mass sums to %v, want 1 within %v", sum, normTolerance)
	}
}

// TestExactBeliefStartsUniform: prior is 1/4 on each suit.
func TestExactBeliefStartsUniform(t *testing.T) {
	b := NewExactBelief(3.0)
	for s, p := range b.Distribution() {
		if math.Abs(p-0.25) > normTolerance {
			t.Errorf("prior[%v] = %v, want 0.25", Suit(s), p)
		}
	}
}

// TestExactBeliefExpectedValue: uniform prior gives the plain average of
// the valuations, e.g. (30+20+10+10)/4 = 17.5 for any suit.
func TestExactBeliefExpectedValue(t *testing.T) {
	b := NewExactBelief(3.0)
	for s := Suit(0); s < NumSuits; s++ {
		if ev := b.ExpectedValue(s); math.Abs(ev-17.5) > normTolerance {
			t.Errorf("ExpectedValue(%v) = %v, want 17.5 under uniform prior", s, ev)
		}
	}
}

// TestExactBeliefSpadesObservation: one Spades trade at 30 pulls mass onto
// Spades, pushes Hearts and Diamonds strictly below the prior, and leaves
// Clubs ahead of both red suits (same color group as the goal).
func TestExactBeliefSpadesObservation(t *testing.T) {
	b := NewExactBelief(3.0)
	b.Observe(SuitSpades, 30)
	checkNormalized(t, b)

	d := b.Distribution()
	if d[SuitSpades] <= 0.25 {
		t.Errorf("Spades mass %v should rise above the 0.25 prior", d[SuitSpades])
	}
	if d[SuitHearts] >= 0.25 || d[SuitDiamonds] >= 0.25 {
		t.Errorf("red suit mass should fall strictly below prior, got H=%v D=%v", d[SuitHearts], d[SuitDiamonds])
	}
	if d[SuitClubs] <= d[SuitHearts] || d[SuitClubs] <= d[SuitDiamonds] {
		t.Errorf("Clubs (goal color partner) should hold more mass than the red suits, got %v", d)
	}
}

// TestExactBeliefNormalizedAfterManyUpdates: mass stays within 1e-9 of 1
// across a long mixed observation sequence.
func TestExactBeliefNormalizedAfterManyUpdates(t *testing.T) {
	b := NewExactBelief(3.0)
	prices := []float64{30, 12, 22, 17, 28, 9, 31, 20}
	for i := 0; i < 100; i++ {
		b.Observe(Suit(i%NumSuits), prices[i%len(prices)])
		checkNormalized(t, b)
	}
}

// TestExactBeliefUnderflowReset: when every hypothesis's likelihood
// underflows to zero the posterior resets to the uniform prior. This is the
// defined recovery path, not an error.
func TestExactBeliefUnderflowReset(t *testing.T) {
	b := NewExactBelief(0.1)
	// With sigma 0.1 a price hundreds away from every valuation underflows
	// all four likelihoods.
	b.Observe(SuitSpades, 1e6)
	checkNormalized(t, b)
	for s, p := range b.Distribution() {
		if math.Abs(p-0.25) > normTolerance {
			t.Errorf("post-reset mass[%v] = %v, want uniform 0.25", Suit(s), p)
		}
	}
}

// TestExactBeliefConcentrates: repeated goal-consistent observations drive
// the posterior toward certainty on the goal suit.
func TestExactBeliefConcentrates(t *testing.T) {
	b := NewExactBelief(3.0)
	for i := 0; i < 20; i++ {
		b.Observe(SuitSpades, 30)
	}
	checkNormalized(t, b)
	if d := b.Distribution(); d[SuitSpades] < 0.99 {
		t.Errorf("Spades mass %v after 20 consistent observations, want > 0.99", d[SuitSpades])
	}
}
