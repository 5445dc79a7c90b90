// Package game orchestrates one Figgie round: it owns the engine market,
// translates engine observations into broadcastable events, and drives the
// configured scheduling variant to completion.
package game

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/spaghetti-software-inc/openfiggie/engine"
	"github.com/spaghetti-software-inc/openfiggie/internal/config"
)

// GameEventType represents the type of a round event fanned out to
// broadcast targets (WebSocket hub, Redis bus, stores).
type GameEventType string

const (
	EventRoundStart    GameEventType = "round_start"    // Public: round began; deal sizes and pot.
	EventTradeExecuted GameEventType = "trade_executed" // Public: a trade settled.
	EventTradeRejected GameEventType = "trade_rejected" // Public: one or both sides declined.
	EventTradeAborted  GameEventType = "trade_aborted"  // Public: attempt failed a precondition.
	EventBeliefUpdate  GameEventType = "belief_update"  // Public: an agent's posterior changed.
	EventRoundEnd      GameEventType = "round_end"      // Public: round ended, includes results.
)

// GameEvent is the standard structure for broadcasting round progress.
type GameEvent struct {
	Type    GameEventType `json:"type"`
	RoundID uuid.UUID     `json:"round_id"`

	TradeIndex int     `json:"trade_index,omitempty"`
	T          float64 `json:"t,omitempty"`
	Turn       int     `json:"turn,omitempty"`
	Buyer      string  `json:"buyer,omitempty"`
	Seller     string  `json:"seller,omitempty"`
	Suit       string  `json:"suit,omitempty"`
	Card       string  `json:"card,omitempty"`
	Price      float64 `json:"price,omitempty"`
	Reason     string  `json:"reason,omitempty"`

	Agent  string    `json:"agent,omitempty"`
	Belief []float64 `json:"belief,omitempty"`

	Result *ResultPayload `json:"result,omitempty"`
}

// ResultPayload carries the round outcome inside a round_end event.
type ResultPayload struct {
	GoalSuit           string             `json:"goal_suit"`
	Revealed12CardSuit string             `json:"revealed_12_card_suit"`
	Winners            []string           `json:"winners"`
	Share              float64            `json:"share"`
	FinalBank          map[string]float64 `json:"final_bank"`
}

// BroadcastFn sends an event to all connected consumers.
type BroadcastFn func(ev GameEvent)

// Round binds an engine market to the service layer for one play-through.
type Round struct {
	ID     uuid.UUID
	Config *config.Config
	Market *engine.Market

	// BroadcastFn fans events out to connected consumers. Nil is valid; the
	// round then runs silently apart from logging.
	BroadcastFn BroadcastFn

	log *logrus.Entry
}

// NewRound validates cfg, builds the market and wires the round as the
// engine's observation sink.
func NewRound(cfg *config.Config, log *logrus.Logger) (*Round, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ecfg, err := cfg.ToEngine()
	if err != nil {
		return nil, fmt.Errorf("translate config: %w", err)
	}
	m, err := engine.NewMarket(ecfg)
	if err != nil {
		return nil, fmt.Errorf("build market: %w", err)
	}

	id := uuid.New()
	if log == nil {
		log = logrus.New()
	}
	r := &Round{
		ID:     id,
		Config: cfg,
		Market: m,
		log:    log.WithField("round_id", id),
	}
	m.SetSink(r)
	return r, nil
}

// SetDecisionProvider forwards an interactive decision source to the engine.
func (r *Round) SetDecisionProvider(d engine.DecisionProvider) {
	r.Market.SetDecisionProvider(d)
}

// Run plays the round to completion under the configured variant and returns
// the finalized result.
func (r *Round) Run() engine.Result {
	r.log.WithFields(logrus.Fields{
		"variant": r.Config.Game.GameVariant,
		"players": len(r.Market.Agents),
		"pot":     r.Market.Pot,
	}).Info("round started")
	r.fire(GameEvent{Type: EventRoundStart, RoundID: r.ID})

	if r.Config.Game.GameVariant == config.VariantTurnBased {
		r.Market.RunTurns(r.Config.Game.Turns)
	} else {
		r.Market.RunContinuous(r.Config.Game.GameDuration)
	}

	res := r.Market.Finalize()

	payload := &ResultPayload{
		GoalSuit:           res.GoalSuit.String(),
		Revealed12CardSuit: res.RevealedTwelveSuit.String(),
		Winners:            res.Winners,
		Share:              res.Share,
		FinalBank:          make(map[string]float64, len(r.Market.Agents)),
	}
	for i, a := range r.Market.Agents {
		payload.FinalBank[a.Name] = res.FinalCash[i]
	}

	r.log.WithFields(logrus.Fields{
		"goal_suit": res.GoalSuit.String(),
		"winners":   res.Winners,
		"share":     res.Share,
		"trades":    len(r.Market.Trades),
	}).Info("round ended")
	r.fire(GameEvent{Type: EventRoundEnd, RoundID: r.ID, Result: payload})

	return res
}

// OnAttempt implements engine.Sink.
func (r *Round) OnAttempt(a engine.Attempt) {
	ev := GameEvent{
		RoundID: r.ID,
		T:       a.Time,
		Turn:    a.Turn,
		Buyer:   a.Buyer,
		Seller:  a.Seller,
		Suit:    a.Suit.String(),
		Price:   a.Price,
	}
	if a.Card != 0 {
		ev.Card = a.Card.Label()
	}

	switch a.Outcome {
	case engine.OutcomeAccepted:
		ev.Type = EventTradeExecuted
		ev.TradeIndex = len(r.Market.Trades)
		r.log.WithFields(logrus.Fields{
			"trade_index": ev.TradeIndex,
			"buyer":       a.Buyer,
			"seller":      a.Seller,
			"card":        ev.Card,
			"price":       a.Price,
		}).Info("trade executed")
	case engine.OutcomeRejected:
		ev.Type = EventTradeRejected
		r.log.WithFields(logrus.Fields{
			"buyer":  a.Buyer,
			"seller": a.Seller,
			"suit":   ev.Suit,
			"price":  a.Price,
		}).Debug("trade rejected")
	default:
		ev.Type = EventTradeAborted
		ev.Reason = a.Reason.String()
		r.log.WithFields(logrus.Fields{
			"buyer":  a.Buyer,
			"seller": a.Seller,
			"reason": ev.Reason,
		}).Debug("trade aborted")
	}
	r.fire(ev)
}

// OnBeliefUpdate implements engine.Sink.
func (r *Round) OnBeliefUpdate(agent string, dist [engine.NumSuits]float64) {
	belief := make([]float64, engine.NumSuits)
	copy(belief, dist[:])
	r.fire(GameEvent{
		Type:    EventBeliefUpdate,
		RoundID: r.ID,
		Agent:   agent,
		Belief:  belief,
	})
}

// fire broadcasts an event via the BroadcastFn callback, if one is set.
func (r *Round) fire(ev GameEvent) {
	if r.BroadcastFn != nil {
		r.BroadcastFn(ev)
	}
}
