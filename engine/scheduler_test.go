package engine

import (
	"math"
	"testing"
)

// TestRunContinuousDeterminism: the end-to-end scenario — same config, same
// seed, identical ordered trade log and final balances.
func TestRunContinuousDeterminism(t *testing.T) {
	run := func() ([]TradeEvent, []float64) {
		m, err := NewMarket(demoConfig(t, 42))
		if err != nil {
			t.Fatalf("NewMarket: %v", err)
		}
		m.RunContinuous(60)
		res := m.Finalize()
		return m.Trades, res.FinalCash
	}

	trades1, cash1 := run()
	trades2, cash2 := run()

	if len(trades1) != len(trades2) {
		t.Fatalf("trade counts differ: %d vs %d", len(trades1), len(trades2))
	}
	for i := range trades1 {
		if trades1[i] != trades2[i] {
			t.Fatalf("trade %d differs: %+v vs %+v", i, trades1[i], trades2[i])
		}
	}
	for i := range cash1 {
		if cash1[i] != cash2[i] {
			t.Fatalf("final cash differs for agent %d: %v vs %v", i, cash1[i], cash2[i])
		}
	}
}

// TestRunContinuousConservation: after a full round, all 40 cards remain in
// hands and total cash grew by exactly the pot.
func TestRunContinuousConservation(t *testing.T) {
	m, err := NewMarket(demoConfig(t, 42))
	if err != nil {
		t.Fatalf("NewMarket: %v", err)
	}
	m.RunContinuous(60)
	if got := m.TotalCards(); got != DeckTotal {
		t.Errorf("TotalCards() = %d after round, want %d", got, DeckTotal)
	}
	if got := m.TotalCash(); math.Abs(got-1400) > 1e-6 {
		t.Errorf("TotalCash() = %v before pot, want 1400", got)
	}
	m.Finalize()
	if got := m.TotalCash(); math.Abs(got-1500) > 1e-6 {
		t.Errorf("TotalCash() = %v after pot, want 1500", got)
	}
}

// TestRunContinuousProducesTrades: a 60-second round at mean gap 5 settles
// at least one trade under the demo beliefs.
func TestRunContinuousProducesTrades(t *testing.T) {
	m, err := NewMarket(demoConfig(t, 42))
	if err != nil {
		t.Fatalf("NewMarket: %v", err)
	}
	sink := &captureSink{}
	m.SetSink(sink)
	m.RunContinuous(60)

	if len(m.Trades) == 0 {
		t.Error("expected at least one settled trade")
	}
	if len(sink.attempts) < len(m.Trades) {
		t.Errorf("sink saw %d attempts but %d trades settled", len(sink.attempts), len(m.Trades))
	}
	for i, ev := range m.Trades {
		if ev.Index != i+1 {
			t.Errorf("trade %d has index %d, want %d", i, ev.Index, i+1)
		}
		if ev.Price <= 0 {
			t.Errorf("trade %d has non-positive price %v", i, ev.Price)
		}
	}
}

// TestRunTurnsBotPass: a turn-based round among bots runs the full budget
// and conserves cards.
func TestRunTurnsBotPass(t *testing.T) {
	cfg := demoConfig(t, 17)
	cfg.Duration = 0
	cfg.Turns = 5
	m, err := NewMarket(cfg)
	if err != nil {
		t.Fatalf("NewMarket: %v", err)
	}
	m.RunTurns(5)

	if m.Turn != 5 {
		t.Errorf("final turn %d, want 5", m.Turn)
	}
	if got := m.TotalCards(); got != DeckTotal {
		t.Errorf("TotalCards() = %d, want %d", got, DeckTotal)
	}
	for _, ev := range m.Trades {
		if ev.Turn < 1 || ev.Turn > 5 {
			t.Errorf("trade carries turn %d outside the budget", ev.Turn)
		}
	}
}

// scriptedProvider drives a human agent from a fixed list of proposals.
type scriptedProvider struct {
	proposals []Proposal
	i         int
	endAfter  int // stop via ErrEndRound once i reaches this, if > 0
}

func (p *scriptedProvider) Decide(string, Side, Card, float64) (bool, error) {
	return true, nil
}

func (p *scriptedProvider) Propose(string, string) (Proposal, bool, error) {
	if p.endAfter > 0 && p.i >= p.endAfter {
		return Proposal{}, false, ErrEndRound
	}
	if p.i >= len(p.proposals) {
		return Proposal{}, false, nil
	}
	prop := p.proposals[p.i]
	p.i++
	return prop, true, nil
}

// TestRunTurnsHumanProposal: a scripted human buy settles against a bot
// seller when the price is attractive to that seller.
func TestRunTurnsHumanProposal(t *testing.T) {
	cfg := demoConfig(t, 21)
	cfg.Duration = 0
	cfg.Turns = 1
	cfg.Humans = []bool{true, false, false, false}
	m, err := NewMarket(cfg)
	if err != nil {
		t.Fatalf("NewMarket: %v", err)
	}
	// Buying Hearts at 100: the seller's logistic acceptance at a price far
	// above any valuation is effectively certain.
	m.SetDecisionProvider(&scriptedProvider{
		proposals: []Proposal{{Buy: true, Suit: SuitHearts, Price: 100}},
	})
	m.RunTurns(1)

	if len(m.Trades) == 0 {
		t.Fatal("expected the scripted buy to settle")
	}
	first := m.Trades[0]
	if first.Buyer != "P1" || first.Suit != SuitHearts || first.Price != 100 {
		t.Errorf("unexpected first trade %+v", first)
	}
}

// TestRunTurnsEarlyTermination: ErrEndRound from the provider stops the
// round immediately.
func TestRunTurnsEarlyTermination(t *testing.T) {
	cfg := demoConfig(t, 23)
	cfg.Duration = 0
	cfg.Turns = 50
	cfg.Humans = []bool{true, false, false, false}
	m, err := NewMarket(cfg)
	if err != nil {
		t.Fatalf("NewMarket: %v", err)
	}
	m.SetDecisionProvider(&scriptedProvider{endAfter: 0, proposals: nil})
	// No proposals and no end signal: the round runs all 50 turns.
	m.RunTurns(50)
	if m.Turn != 50 {
		t.Fatalf("expected full run, stopped at turn %d", m.Turn)
	}

	m2, err := NewMarket(cfg)
	if err != nil {
		t.Fatalf("NewMarket: %v", err)
	}
	m2.SetDecisionProvider(&scriptedProvider{endAfter: 1, proposals: []Proposal{{Buy: true, Suit: SuitSpades, Price: 5}}})
	m2.RunTurns(50)
	if m2.Turn >= 50 {
		t.Errorf("expected early termination, ran to turn %d", m2.Turn)
	}
}

// TestRandomBuyerNeverSeller: buyer selection excludes the seller across
// many draws.
func TestRandomBuyerNeverSeller(t *testing.T) {
	m, err := NewMarket(demoConfig(t, 13))
	if err != nil {
		t.Fatalf("NewMarket: %v", err)
	}
	for i := 0; i < 1000; i++ {
		sellerIdx := i % len(m.Agents)
		buyerIdx, ok := m.randomBuyer(sellerIdx)
		if !ok || buyerIdx == sellerIdx || buyerIdx >= len(m.Agents) {
			t.Fatalf("randomBuyer(%d) = %d, %v", sellerIdx, buyerIdx, ok)
		}
	}
}
