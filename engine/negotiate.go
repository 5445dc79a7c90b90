package engine

// Outcome is the terminal state of one negotiation attempt.
type Outcome uint8

const (
	OutcomeAborted  Outcome = 0 // precondition failed; no belief update
	OutcomeRejected Outcome = 1 // one or both sides declined
	OutcomeAccepted Outcome = 2 // settled
)

// String returns "aborted", "rejected" or "accepted".
func (o Outcome) String() string {
	switch o {
	case OutcomeAborted:
		return "aborted"
	case OutcomeRejected:
		return "rejected"
	default:
		return "accepted"
	}
}

// AbortReason explains why an attempt never reached the acceptance stage.
type AbortReason uint8

const (
	ReasonNone              AbortReason = 0
	ReasonNoSeller          AbortReason = 1 // empty hand / no card of the wanted suit
	ReasonNoBuyer           AbortReason = 2
	ReasonInsufficientFunds AbortReason = 3
)

// String returns the reason label for event reporting.
func (r AbortReason) String() string {
	switch r {
	case ReasonNoSeller:
		return "no_seller"
	case ReasonNoBuyer:
		return "no_buyer"
	case ReasonInsufficientFunds:
		return "insufficient_funds"
	default:
		return ""
	}
}

// Attempt is the immutable record of one negotiation attempt, whatever its
// outcome.
type Attempt struct {
	Outcome    Outcome
	Reason     AbortReason
	Time       float64
	Turn       int
	Seller     string
	Buyer      string
	Card       Card
	Suit       Suit
	Price      float64
	BuyerProb  float64
	SellerProb float64
}

// Sink receives structured engine events. Implementations must not mutate
// market state; the engine functions identically with a nil sink.
type Sink interface {
	// OnAttempt is called once per negotiation attempt, after it resolved.
	OnAttempt(a Attempt)

	// OnBeliefUpdate is called after an agent's posterior changed.
	OnBeliefUpdate(agent string, dist [NumSuits]float64)
}

// Proposal is a player-initiated trade intent: buy or sell one card of the
// given suit at the given price.
type Proposal struct {
	Buy   bool
	Suit  Suit
	Price float64
}

// DecisionProvider supplies decisions for human-controlled agents. The
// engine blocks on these calls and otherwise behaves identically to the bot
// path. An error return is an implicit rejection of that attempt, except
// ErrEndRound which terminates a turn-based round.
type DecisionProvider interface {
	// Decide asks whether agent accepts the offered trade on the given side.
	Decide(agent string, side Side, card Card, price float64) (bool, error)

	// Propose asks agent to initiate a trade against opponent during its
	// turn. ok=false passes without an attempt.
	Propose(agent, opponent string) (p Proposal, ok bool, err error)
}

// ---------------------------------------------------------------------------
// Negotiation attempt
// ---------------------------------------------------------------------------

// Negotiate runs one trade attempt: the seller offers card to the buyer at a
// price derived from both parties' beliefs, and both sides independently
// accept or reject. Settlement is atomic: the card move, both cash
// transfers, the TradeEvent append and the public belief broadcast happen as
// one logical unit or not at all.
func (m *Market) Negotiate(sellerIdx, buyerIdx int, card Card) Attempt {
	seller := m.Agents[sellerIdx]
	buyer := m.Agents[buyerIdx]

	att := Attempt{
		Time:   m.Clock,
		Turn:   m.Turn,
		Seller: seller.Name,
		Buyer:  buyer.Name,
		Card:   card,
		Suit:   card.Suit(),
	}

	if sellerIdx == buyerIdx || seller.indexOfCard(card) < 0 {
		att.Outcome = OutcomeAborted
		att.Reason = ReasonNoSeller
		m.emitAttempt(att)
		return att
	}

	suit := card.Suit()
	buyerEV := buyer.Belief.ExpectedValue(suit)
	sellerEV := seller.Belief.ExpectedValue(suit)
	noise := uniformRange(&m.rng, -m.Params.NoiseRange, m.Params.NoiseRange)
	att.Price = ProposePrice(buyerEV, sellerEV, noise, m.Params.MinPrice)

	// Hard precondition, not a probabilistic outcome.
	if buyer.Cash < att.Price {
		att.Outcome = OutcomeAborted
		att.Reason = ReasonInsufficientFunds
		m.emitAttempt(att)
		return att
	}

	att.BuyerProb = AcceptProbability(buyerEV, att.Price, SideBuyer, m.Params.BuyerSteepness)
	att.SellerProb = AcceptProbability(sellerEV, att.Price, SideSeller, m.Params.SellerSteepness)

	// Two independent rolls; rejection by either side kills the trade.
	buyerAccepts := m.decide(buyer, SideBuyer, card, att.Price, att.BuyerProb)
	sellerAccepts := m.decide(seller, SideSeller, card, att.Price, att.SellerProb)

	if buyerAccepts && sellerAccepts {
		att.Outcome = OutcomeAccepted
		m.settle(sellerIdx, buyerIdx, card, att.Price)
	} else {
		att.Outcome = OutcomeRejected
	}
	m.emitAttempt(att)
	return att
}

// negotiateProposal runs a player-initiated attempt from a Proposal: the
// proposer auto-accepts, the counterparty decides normally. The card is
// drawn uniformly from the seller's holdings of the proposed suit.
func (m *Market) negotiateProposal(actorIdx, oppIdx int, prop Proposal) Attempt {
	sellerIdx, buyerIdx := actorIdx, oppIdx
	if prop.Buy {
		sellerIdx, buyerIdx = oppIdx, actorIdx
	}
	seller := m.Agents[sellerIdx]
	buyer := m.Agents[buyerIdx]

	att := Attempt{
		Time:   m.Clock,
		Turn:   m.Turn,
		Seller: seller.Name,
		Buyer:  buyer.Name,
		Suit:   prop.Suit,
	}

	card, ok := m.randomCardOfSuit(seller, prop.Suit)
	if !ok {
		att.Outcome = OutcomeAborted
		att.Reason = ReasonNoSeller
		m.emitAttempt(att)
		return att
	}
	att.Card = card

	att.Price = prop.Price
	if att.Price < m.Params.MinPrice {
		att.Price = m.Params.MinPrice
	}
	if buyer.Cash < att.Price {
		att.Outcome = OutcomeAborted
		att.Reason = ReasonInsufficientFunds
		m.emitAttempt(att)
		return att
	}

	// The proposing side has already committed; only the counterparty rolls.
	accepted := false
	if prop.Buy {
		att.BuyerProb = 1
		att.SellerProb = AcceptProbability(seller.Belief.ExpectedValue(prop.Suit), att.Price, SideSeller, m.Params.SellerSteepness)
		accepted = m.decide(seller, SideSeller, card, att.Price, att.SellerProb)
	} else {
		att.SellerProb = 1
		att.BuyerProb = AcceptProbability(buyer.Belief.ExpectedValue(prop.Suit), att.Price, SideBuyer, m.Params.BuyerSteepness)
		accepted = m.decide(buyer, SideBuyer, card, att.Price, att.BuyerProb)
	}

	if accepted {
		att.Outcome = OutcomeAccepted
		m.settle(sellerIdx, buyerIdx, card, att.Price)
	} else {
		att.Outcome = OutcomeRejected
	}
	m.emitAttempt(att)
	return att
}

// decide resolves one side's acceptance: a logistic roll for bots, the
// injected callback for humans. A callback error is an implicit rejection.
func (m *Market) decide(a *Agent, side Side, card Card, price, prob float64) bool {
	if a.Human && m.decider != nil {
		ok, err := m.decider.Decide(a.Name, side, card, price)
		if err != nil {
			return false
		}
		return ok
	}
	return randFloat(&m.rng) < prob
}

// settle applies an accepted trade atomically: card transfer, both cash
// transfers, trade log append, then the public (suit, price) broadcast to
// every agent's belief — counterparties included, since an executed trade
// is public information.
func (m *Market) settle(sellerIdx, buyerIdx int, card Card, price float64) {
	seller := m.Agents[sellerIdx]
	buyer := m.Agents[buyerIdx]

	i := seller.indexOfCard(card)
	seller.Hand = append(seller.Hand[:i], seller.Hand[i+1:]...)
	buyer.Hand = append(buyer.Hand, card)
	buyer.Cash -= price
	seller.Cash += price

	m.Trades = append(m.Trades, TradeEvent{
		Index:  len(m.Trades) + 1,
		Time:   m.Clock,
		Turn:   m.Turn,
		Buyer:  buyer.Name,
		Seller: seller.Name,
		Card:   card,
		Suit:   card.Suit(),
		Price:  price,
	})

	for _, a := range m.Agents {
		a.Belief.Observe(card.Suit(), price)
		if m.sink != nil {
			m.sink.OnBeliefUpdate(a.Name, a.Belief.Distribution())
		}
	}
}

// randomCardOfSuit picks a uniformly random card of suit s from the agent's
// hand.
func (m *Market) randomCardOfSuit(a *Agent, s Suit) (Card, bool) {
	n := a.CountSuit(s)
	if n == 0 {
		return 0, false
	}
	k := int(randN(&m.rng, uint64(n)))
	for _, c := range a.Hand {
		if c.Suit() == s {
			if k == 0 {
				return c, true
			}
			k--
		}
	}
	return 0, false
}

func (m *Market) emitAttempt(a Attempt) {
	if m.sink != nil {
		m.sink.OnAttempt(a)
	}
}
