package engine

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig marks configuration invariant violations that are fatal
// at round initialization.
var ErrInvalidConfig = errors.New("invalid market config")

// ErrEndRound is returned by a DecisionProvider to terminate a turn-based
// round early.
var ErrEndRound = errors.New("end round")

// Agent is one market participant: a hand of cards, a cash balance, and a
// belief over the hidden goal suit. The hand and balance are owned
// exclusively by the agent; only trade settlement mutates them.
type Agent struct {
	Name   string
	Hand   []Card
	Cash   float64
	Belief Belief
	Human  bool
}

// CountSuit returns how many cards of suit s the agent holds.
func (a *Agent) CountSuit(s Suit) int {
	n := 0
	for _, c := range a.Hand {
		if c.Suit() == s {
			n++
		}
	}
	return n
}

// indexOfCard returns the hand index of card c, or -1.
func (a *Agent) indexOfCard(c Card) int {
	for i, h := range a.Hand {
		if h == c {
			return i
		}
	}
	return -1
}

// TradeEvent is the immutable record of one settled transaction. The
// ordered sequence of TradeEvents is the round's audit log.
type TradeEvent struct {
	Index  int     // 1-based sequence index
	Time   float64 // simulated time (continuous policy)
	Turn   int     // turn number (turn-based policy)
	Buyer  string
	Seller string
	Card   Card
	Suit   Suit
	Price  float64
}

// BeliefKind selects the posterior representation used by bot agents.
type BeliefKind uint8

const (
	BeliefExact    BeliefKind = 0
	BeliefParticle BeliefKind = 1
)

// Config describes one round: the deck, the hidden goal suit, the agents and
// their endowments, and the model parameters. All fields are immutable once
// the Market is constructed.
type Config struct {
	Distribution Distribution
	GoalSuit     Suit
	Names        []string
	Humans       []bool   // optional; marks interactive agents
	Deal         [][]Card // optional fixed deal; nil shuffles and deals round-robin
	InitialCash  float64
	Pot          float64
	Duration     float64 // continuous policy budget (simulated seconds)
	Turns        int     // turn-based policy budget
	Belief       BeliefKind
	Seed         uint64
	Params       Params
}

// Market is the aggregate state of one Figgie round: all agents, the hidden
// goal suit, the simulated clock, and the trade log. It is created once at
// round start, mutated only through negotiation settlements and scheduler
// time advancement, and becomes read-only after Finalize.
type Market struct {
	Agents       []*Agent
	Distribution Distribution
	Goal         Suit
	Pot          float64
	Clock        float64
	Turn         int
	Trades       []TradeEvent
	Params       Params

	rng     uint64
	sink    Sink
	decider DecisionProvider
	result  *Result
}

// NewMarket validates cfg and builds the round's starting state. Invariant
// violations are fatal here: the engine refuses to start rather than run
// with a corrupt market.
func NewMarket(cfg Config) (*Market, error) {
	if len(cfg.Names) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 agents, got %d", ErrInvalidConfig, len(cfg.Names))
	}
	if cfg.InitialCash < 0 {
		return nil, fmt.Errorf("%w: initial cash %.2f is negative", ErrInvalidConfig, cfg.InitialCash)
	}
	if cfg.Duration <= 0 && cfg.Turns <= 0 {
		return nil, fmt.Errorf("%w: round needs a positive duration or turn count", ErrInvalidConfig)
	}
	if cfg.Pot < 0 {
		return nil, fmt.Errorf("%w: pot %.2f is negative", ErrInvalidConfig, cfg.Pot)
	}
	if cfg.GoalSuit >= NumSuits {
		return nil, fmt.Errorf("%w: unknown goal suit", ErrInvalidConfig)
	}
	if err := cfg.Distribution.Validate(); err != nil {
		return nil, err
	}
	if cfg.Humans != nil && len(cfg.Humans) != len(cfg.Names) {
		return nil, fmt.Errorf("%w: humans list length %d does not match %d agents", ErrInvalidConfig, len(cfg.Humans), len(cfg.Names))
	}
	if cfg.Deal != nil {
		if len(cfg.Deal) != len(cfg.Names) {
			return nil, fmt.Errorf("%w: deal has %d hands for %d agents", ErrInvalidConfig, len(cfg.Deal), len(cfg.Names))
		}
		var dealt Distribution
		for _, hand := range cfg.Deal {
			for _, c := range hand {
				if c.Suit() >= NumSuits {
					return nil, fmt.Errorf("%w: dealt card with unknown suit", ErrInvalidConfig)
				}
				dealt[c.Suit()]++
			}
		}
		if dealt != cfg.Distribution {
			return nil, fmt.Errorf("%w: dealt hands %v do not match deck distribution %v", ErrInvalidConfig, dealt, cfg.Distribution)
		}
	}

	p := cfg.Params
	if p == (Params{}) {
		p = DefaultParams()
	}
	if p.Sigma <= 0 || p.MinPrice <= 0 || p.MeanGap <= 0 {
		return nil, fmt.Errorf("%w: sigma, min price and mean gap must be positive", ErrInvalidConfig)
	}
	if cfg.Belief == BeliefParticle && p.Particles < NumSuits {
		return nil, fmt.Errorf("%w: particle count %d is too small", ErrInvalidConfig, p.Particles)
	}

	m := &Market{
		Distribution: cfg.Distribution,
		Goal:         cfg.GoalSuit,
		Pot:          cfg.Pot,
		Params:       p,
		rng:          seedOrOne(cfg.Seed),
	}

	m.Agents = make([]*Agent, len(cfg.Names))
	for i, name := range cfg.Names {
		a := &Agent{Name: name, Cash: cfg.InitialCash}
		if cfg.Humans != nil {
			a.Human = cfg.Humans[i]
		}
		switch cfg.Belief {
		case BeliefParticle:
			a.Belief = NewParticleBelief(p.Particles, p.Sigma, p.ResampleRatio, nextRand(&m.rng))
		default:
			a.Belief = NewExactBelief(p.Sigma)
		}
		m.Agents[i] = a
	}

	if cfg.Deal != nil {
		for i, hand := range cfg.Deal {
			m.Agents[i].Hand = append([]Card(nil), hand...)
		}
	} else {
		m.deal()
	}

	return m, nil
}

// deal shuffles the full deck and distributes it round-robin.
func (m *Market) deal() {
	deck := m.Distribution.Deck()

	// Fisher-Yates shuffle.
	for i := len(deck) - 1; i > 0; i-- {
		j := int(randN(&m.rng, uint64(i+1)))
		deck[i], deck[j] = deck[j], deck[i]
	}

	for i, c := range deck {
		a := m.Agents[i%len(m.Agents)]
		a.Hand = append(a.Hand, c)
	}
}

// SetSink installs the observation sink. A nil sink is valid; the engine
// then runs silently.
func (m *Market) SetSink(s Sink) { m.sink = s }

// SetDecisionProvider installs the interactive decision callback used for
// human-controlled agents. Without one, human agents never initiate
// proposals and resolve offers through the bot logistic roll.
func (m *Market) SetDecisionProvider(d DecisionProvider) { m.decider = d }

// Finalized reports whether the round has ended and the pot was awarded.
func (m *Market) Finalized() bool { return m.result != nil }

// ---------------------------------------------------------------------------
// Query methods
// ---------------------------------------------------------------------------

// TotalCards returns the number of cards across all hands.
func (m *Market) TotalCards() int {
	n := 0
	for _, a := range m.Agents {
		n += len(a.Hand)
	}
	return n
}

// TotalCash returns the summed cash across all agents.
func (m *Market) TotalCash() float64 {
	t := 0.0
	for _, a := range m.Agents {
		t += a.Cash
	}
	return t
}

// ---------------------------------------------------------------------------
// Snapshot export
// ---------------------------------------------------------------------------

// AgentSnapshot is a read-only copy of one agent's public and private state.
type AgentSnapshot struct {
	Name   string
	Hand   []Card
	Cash   float64
	Belief [NumSuits]float64
	Human  bool
}

// Snapshot is a read-only copy of the market for external serialization.
// The engine never serializes itself.
type Snapshot struct {
	GoalSuit  Suit
	Clock     float64
	Turn      int
	Agents    []AgentSnapshot
	Trades    []TradeEvent
	Finalized bool
}

// Snapshot exports a read-only copy of the current market state.
func (m *Market) Snapshot() Snapshot {
	snap := Snapshot{
		GoalSuit:  m.Goal,
		Clock:     m.Clock,
		Turn:      m.Turn,
		Trades:    append([]TradeEvent(nil), m.Trades...),
		Finalized: m.Finalized(),
	}
	for _, a := range m.Agents {
		snap.Agents = append(snap.Agents, AgentSnapshot{
			Name:   a.Name,
			Hand:   append([]Card(nil), a.Hand...),
			Cash:   a.Cash,
			Belief: a.Belief.Distribution(),
			Human:  a.Human,
		})
	}
	return snap
}
