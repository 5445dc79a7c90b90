package engine

// Baseline card valuations under a goal-suit hypothesis.
const (
	ValueGoal      = 30.0 // card is in the hypothesised goal suit
	ValueGoalColor = 20.0 // card shares the goal suit's color group
	ValueOffColor  = 10.0 // everything else
)

// Valuation returns the baseline value of a card of suit s under the
// hypothesis that hyp is the goal suit. Pure and total over all sixteen
// (s, hyp) pairs; this is the single valuation primitive every other
// component composes.
func Valuation(s, hyp Suit) float64 {
	switch {
	case s == hyp:
		return ValueGoal
	case SameColor(s, hyp):
		return ValueGoalColor
	default:
		return ValueOffColor
	}
}
