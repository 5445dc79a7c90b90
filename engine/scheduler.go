package engine

import "errors"

// The engine is single-threaded and cooperative: exactly one negotiation
// attempt is in flight at a time, and each attempt runs to completion before
// the scheduler advances. A blocking human decision suspends the scheduler,
// not the attempt.

// ---------------------------------------------------------------------------
// Continuous-time policy
// ---------------------------------------------------------------------------

// RunContinuous drives the round as a Poisson arrival process: exponential
// inter-arrival gaps advance the simulated clock, and each arrival pairs a
// random eligible seller with a random buyer for one negotiation attempt.
// Returns when the clock reaches duration.
func (m *Market) RunContinuous(duration float64) {
	for m.Clock < duration {
		dt := expovariate(&m.rng, m.Params.MeanGap)
		m.Clock += dt
		if m.Clock >= duration {
			break
		}

		sellerIdx, ok := m.randomSeller()
		if !ok {
			m.emitAttempt(Attempt{Outcome: OutcomeAborted, Reason: ReasonNoSeller, Time: m.Clock})
			break
		}
		seller := m.Agents[sellerIdx]
		card := seller.Hand[randN(&m.rng, uint64(len(seller.Hand)))]

		buyerIdx, ok := m.randomBuyer(sellerIdx)
		if !ok {
			m.emitAttempt(Attempt{Outcome: OutcomeAborted, Reason: ReasonNoBuyer, Time: m.Clock, Seller: seller.Name})
			continue
		}

		m.Negotiate(sellerIdx, buyerIdx, card)
	}
}

// randomSeller picks a uniformly random agent with a non-empty hand.
func (m *Market) randomSeller() (int, bool) {
	eligible := make([]int, 0, len(m.Agents))
	for i, a := range m.Agents {
		if len(a.Hand) > 0 {
			eligible = append(eligible, i)
		}
	}
	if len(eligible) == 0 {
		return 0, false
	}
	return eligible[randN(&m.rng, uint64(len(eligible)))], true
}

// randomBuyer picks a uniformly random agent other than the seller.
func (m *Market) randomBuyer(sellerIdx int) (int, bool) {
	if len(m.Agents) < 2 {
		return 0, false
	}
	k := int(randN(&m.rng, uint64(len(m.Agents)-1)))
	if k >= sellerIdx {
		k++
	}
	return k, true
}

// ---------------------------------------------------------------------------
// Turn-based policy
// ---------------------------------------------------------------------------

// RunTurns drives the round as a fixed number of turns. Within each turn,
// every interactive agent is offered one negotiation opportunity against
// each other agent (via the DecisionProvider), then every bot attempts one
// negotiation against every other bot. Iteration is in agent-index order so
// a seeded round replays identically. Returns early when the provider
// signals ErrEndRound.
func (m *Market) RunTurns(turns int) {
	for t := 1; t <= turns; t++ {
		m.Turn = t

		for i, a := range m.Agents {
			if !a.Human {
				continue
			}
			if stop := m.humanTurn(i); stop {
				return
			}
		}

		// Bot-to-bot pass: each bot sells one random card to every other bot.
		for i, seller := range m.Agents {
			if seller.Human {
				continue
			}
			for j, buyer := range m.Agents {
				if i == j || buyer.Human {
					continue
				}
				if len(seller.Hand) == 0 {
					m.emitAttempt(Attempt{
						Outcome: OutcomeAborted, Reason: ReasonNoSeller,
						Turn: t, Seller: seller.Name, Buyer: buyer.Name,
					})
					continue
				}
				card := seller.Hand[randN(&m.rng, uint64(len(seller.Hand)))]
				m.Negotiate(i, j, card)
			}
		}
	}
}

// humanTurn offers the interactive agent at idx one proposal opportunity
// against each other agent. Reports whether the round should stop.
func (m *Market) humanTurn(idx int) bool {
	if m.decider == nil {
		return false
	}
	actor := m.Agents[idx]
	for j, opp := range m.Agents {
		if j == idx {
			continue
		}
		prop, ok, err := m.decider.Propose(actor.Name, opp.Name)
		if errors.Is(err, ErrEndRound) {
			return true
		}
		if err != nil || !ok {
			// Malformed or absent input cancels this attempt only.
			continue
		}
		m.negotiateProposal(idx, j, prop)
	}
	return false
}
