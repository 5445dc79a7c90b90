package engine

import (
	"math"
	"testing"
)

// captureSink records every attempt and belief update for assertions.
type captureSink struct {
	attempts []Attempt
	updates  int
}

func (s *captureSink) OnAttempt(a Attempt)                      { s.attempts = append(s.attempts, a) }
func (s *captureSink) OnBeliefUpdate(string, [NumSuits]float64) { s.updates++ }

// TestNegotiateConservation: card and cash totals are invariant under any
// attempt outcome.
func TestNegotiateConservation(t *testing.T) {
	m, err := NewMarket(demoConfig(t, 42))
	if err != nil {
		t.Fatalf("NewMarket: %v", err)
	}
	cardsBefore := m.TotalCards()
	cashBefore := m.TotalCash()

	for i := 0; i < 200; i++ {
		sellerIdx := i % len(m.Agents)
		buyerIdx := (i + 1) % len(m.Agents)
		seller := m.Agents[sellerIdx]
		if len(seller.Hand) == 0 {
			continue
		}
		card := seller.Hand[0]
		m.Negotiate(sellerIdx, buyerIdx, card)

		if got := m.TotalCards(); got != cardsBefore {
			t.Fatalf("attempt %d: card total %d, want %d", i, got, cardsBefore)
		}
		if got := m.TotalCash(); math.Abs(got-cashBefore) > 1e-9 {
			t.Fatalf("attempt %d: cash total %v, want %v", i, got, cashBefore)
		}
	}
}

// TestNegotiateInsufficientFunds: a buyer who cannot afford the price
// aborts the attempt for every seed; acceptance is never granted.
func TestNegotiateInsufficientFunds(t *testing.T) {
	for seed := uint64(1); seed <= 50; seed++ {
		cfg := demoConfig(t, seed)
		cfg.InitialCash = 0
		m, err := NewMarket(cfg)
		if err != nil {
			t.Fatalf("NewMarket: %v", err)
		}
		sink := &captureSink{}
		m.SetSink(sink)

		att := m.Negotiate(0, 1, m.Agents[0].Hand[0])
		if att.Outcome != OutcomeAborted || att.Reason != ReasonInsufficientFunds {
			t.Fatalf("seed %d: outcome %v/%v, want aborted/insufficient_funds", seed, att.Outcome, att.Reason)
		}
		if len(m.Trades) != 0 {
			t.Fatalf("seed %d: trade settled despite empty wallet", seed)
		}
		if sink.updates != 0 {
			t.Fatalf("seed %d: aborted attempt must not update beliefs", seed)
		}
	}
}

// TestNegotiateAbortedWithoutCard: selling a card the seller does not hold
// aborts with no state change.
func TestNegotiateAbortedWithoutCard(t *testing.T) {
	m, err := NewMarket(demoConfig(t, 9))
	if err != nil {
		t.Fatalf("NewMarket: %v", err)
	}
	// P1 never holds D8 in the fixed deal.
	card, _ := ParseCard("D8")
	att := m.Negotiate(0, 1, card)
	if att.Outcome != OutcomeAborted || att.Reason != ReasonNoSeller {
		t.Errorf("outcome %v/%v, want aborted/no_seller", att.Outcome, att.Reason)
	}
	if len(m.Trades) != 0 {
		t.Error("aborted attempt must not settle")
	}
}

// TestSettleBroadcastsToAllAgents: a settled trade updates every agent's
// posterior, counterparties included, and moves exactly the traded card and
// price.
func TestSettleBroadcastsToAllAgents(t *testing.T) {
	m, err := NewMarket(demoConfig(t, 1))
	if err != nil {
		t.Fatalf("NewMarket: %v", err)
	}
	sink := &captureSink{}
	m.SetSink(sink)

	priors := make([][NumSuits]float64, len(m.Agents))
	for i, a := range m.Agents {
		priors[i] = a.Belief.Distribution()
	}

	card := m.Agents[0].Hand[0] // S1
	m.settle(0, 1, card, 30)

	if sink.updates != len(m.Agents) {
		t.Errorf("%d belief updates, want %d", sink.updates, len(m.Agents))
	}
	if len(m.Trades) != 1 {
		t.Fatalf("trade log has %d events, want 1", len(m.Trades))
	}
	ev := m.Trades[0]
	if ev.Index != 1 || ev.Buyer != "P2" || ev.Seller != "P1" || ev.Card != card || ev.Price != 30 {
		t.Errorf("unexpected trade event %+v", ev)
	}
	if m.Agents[0].Cash != 380 || m.Agents[1].Cash != 320 {
		t.Errorf("cash after settle: seller %v buyer %v, want 380/320", m.Agents[0].Cash, m.Agents[1].Cash)
	}
	if m.Agents[0].indexOfCard(card) >= 0 {
		t.Error("card still in seller hand after settle")
	}
	if m.Agents[1].indexOfCard(card) < 0 {
		t.Error("card missing from buyer hand after settle")
	}

	for i, a := range m.Agents {
		if a.Belief.Distribution() == priors[i] {
			t.Errorf("agent %s posterior unchanged by public trade", a.Name)
		}
	}
}

// TestForcedSpadesTradeShiftsBeliefs: one forced trade
// of a Spades card at 30 moves every agent's mass toward Spades, strictly
// off Hearts and Diamonds, with Clubs held above both red suits.
func TestForcedSpadesTradeShiftsBeliefs(t *testing.T) {
	m, err := NewMarket(demoConfig(t, 4))
	if err != nil {
		t.Fatalf("NewMarket: %v", err)
	}
	m.settle(0, 1, m.Agents[0].Hand[0], 30) // S1 at 30

	for _, a := range m.Agents {
		d := a.Belief.Distribution()
		if d[SuitSpades] <= 0.25 {
			t.Errorf("%s: Spades mass %v should exceed the prior", a.Name, d[SuitSpades])
		}
		if d[SuitHearts] >= 0.25 || d[SuitDiamonds] >= 0.25 {
			t.Errorf("%s: red suit mass should fall, got H=%v D=%v", a.Name, d[SuitHearts], d[SuitDiamonds])
		}
		if d[SuitClubs] <= d[SuitHearts] || d[SuitClubs] <= d[SuitDiamonds] {
			t.Errorf("%s: Clubs should outrank the red suits, got %v", a.Name, d)
		}
	}
}

// TestRejectedAttemptMutatesNothing: with a decision provider that always
// declines, human attempts resolve as rejections with no belief update.
type rejectAllProvider struct{}

func (rejectAllProvider) Decide(string, Side, Card, float64) (bool, error) {
	return false, nil
}
func (rejectAllProvider) Propose(string, string) (Proposal, bool, error) {
	return Proposal{}, false, nil
}

func TestRejectedAttemptMutatesNothing(t *testing.T) {
	cfg := demoConfig(t, 2)
	cfg.Humans = []bool{false, true, false, false}
	m, err := NewMarket(cfg)
	if err != nil {
		t.Fatalf("NewMarket: %v", err)
	}
	m.SetDecisionProvider(rejectAllProvider{})
	sink := &captureSink{}
	m.SetSink(sink)

	att := m.Negotiate(0, 1, m.Agents[0].Hand[0])
	if att.Outcome != OutcomeRejected {
		t.Fatalf("outcome %v, want rejected", att.Outcome)
	}
	if len(m.Trades) != 0 || sink.updates != 0 {
		t.Error("rejected attempt must not settle or update beliefs")
	}
	if m.Agents[0].Cash != 350 || m.Agents[1].Cash != 350 {
		t.Error("rejected attempt must not move cash")
	}
}

// TestHumanWithoutProviderDecidesAsBot: when no decision provider is
// installed, offers to a human seat resolve through the logistic roll like
// any bot's, so trades with that seat still settle.
func TestHumanWithoutProviderDecidesAsBot(t *testing.T) {
	cfg := demoConfig(t, 9)
	cfg.Humans = []bool{true, false, false, false}
	m, err := NewMarket(cfg)
	if err != nil {
		t.Fatalf("NewMarket: %v", err)
	}

	accepted := 0
	for i := 0; i < 100 && len(m.Agents[1].Hand) > 0; i++ {
		if att := m.Negotiate(1, 0, m.Agents[1].Hand[0]); att.Outcome == OutcomeAccepted {
			accepted++
		}
	}
	if accepted == 0 {
		t.Error("human buyer with no provider never traded; offers should roll on the bot policy")
	}
}
