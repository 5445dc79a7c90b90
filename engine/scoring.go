package engine

// GoalCounts returns, per agent, the number of cards whose suit equals the
// goal suit.
func (m *Market) GoalCounts() []int {
	counts := make([]int, len(m.Agents))
	for i, a := range m.Agents {
		counts[i] = a.CountSuit(m.Goal)
	}
	return counts
}

// Result summarizes the round outcome after the pot was awarded.
type Result struct {
	GoalSuit           Suit
	RevealedTwelveSuit Suit
	Counts             []int     // goal-suit card counts, by agent index
	Winners            []string  // agents holding the maximum count
	Share              float64   // pot share each winner received
	FinalCash          []float64 // balances after the pot award, by agent index
}

// Finalize tallies goal-suit holdings, splits the pot equally among the
// agents with the maximum count (ties split evenly), and freezes the market.
// Subsequent calls return the same Result.
func (m *Market) Finalize() Result {
	if m.result != nil {
		return *m.result
	}

	counts := m.GoalCounts()
	max := 0
	for _, c := range counts {
		if c > max {
			max = c
		}
	}

	var winners []string
	for i, c := range counts {
		if c == max {
			winners = append(winners, m.Agents[i].Name)
		}
	}

	share := m.Pot / float64(len(winners))
	for i, c := range counts {
		if c == max {
			m.Agents[i].Cash += share
		}
	}

	final := make([]float64, len(m.Agents))
	for i, a := range m.Agents {
		final[i] = a.Cash
	}

	m.result = &Result{
		GoalSuit:           m.Goal,
		RevealedTwelveSuit: m.Distribution.TwelveSuit(),
		Counts:             counts,
		Winners:            winners,
		Share:              share,
		FinalCash:          final,
	}
	return *m.result
}
