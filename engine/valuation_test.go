package engine

import "testing"

// TestValuationExhaustive checks all sixteen (card, hypothesis) pairs:
// 30 on the goal suit, 20 on its color partner, 10 otherwise.
func TestValuationExhaustive(t *testing.T) {
	for s := Suit(0); s < NumSuits; s++ {
		for hyp := Suit(0); hyp < NumSuits; hyp++ {
			got := Valuation(s, hyp)
			var want float64
			switch {
			case s == hyp:
				want = 30
			case SameColor(s, hyp):
				want = 20
			default:
				want = 10
			}
			if got != want {
				t.Errorf("Valuation(%v, %v) = %v, want %v", s, hyp, got, want)
			}
		}
	}
}

// TestValuationPartners spot-checks the color pairings.
func TestValuationPartners(t *testing.T) {
	if Valuation(SuitSpades, SuitClubs) != 20 {
		t.Error("Spades under Clubs hypothesis should be 20")
	}
	if Valuation(SuitHearts, SuitDiamonds) != 20 {
		t.Error("Hearts under Diamonds hypothesis should be 20")
	}
	if Valuation(SuitSpades, SuitHearts) != 10 {
		t.Error("Spades under Hearts hypothesis should be 10")
	}
}
