// Package pfn renders a finished round as Portable Figgie Notation: a TOML
// document with FiggieGame, DeckSetup, Deal, Trades and Result sections. A
// PFN file doubles as a round configuration, so a recorded round can be fed
// back to the simulator for replay.
package pfn

import (
	"io"
	"math"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/spaghetti-software-inc/openfiggie/engine"
	"github.com/spaghetti-software-inc/openfiggie/internal/config"
)

// GameSection is the PFN [FiggieGame] header.
type GameSection struct {
	Title        string  `toml:"Title"`
	GameID       string  `toml:"GameID"`
	Players      int     `toml:"Players"`
	Date         string  `toml:"Date"`
	GameDuration float64 `toml:"GameDuration"`
	Turns        int     `toml:"Turns,omitempty"`
	GameVariant  string  `toml:"GameVariant"`
}

// DeckSection is the PFN [DeckSetup] header.
type DeckSection struct {
	GoalSuitColor string         `toml:"GoalSuitColor"`
	GoalSuit      string         `toml:"GoalSuit"`
	Distribution  map[string]int `toml:"Distribution"`
}

// TradeRecord is one settled trade in the [[Trades]] log.
type TradeRecord struct {
	TradeIndex int     `toml:"TradeIndex"`
	T          float64 `toml:"T"`
	Turn       int     `toml:"Turn,omitempty"`
	Buyer      string  `toml:"Buyer"`
	Seller     string  `toml:"Seller"`
	Suit       string  `toml:"Suit"`
	Card       string  `toml:"Card"`
	Price      float64 `toml:"Price"`
}

// Document is a complete PFN round record.
type Document struct {
	FiggieGame GameSection       `toml:"FiggieGame"`
	DeckSetup  DeckSection       `toml:"DeckSetup"`
	Deal       map[string]string `toml:"Deal"`
	Trades     []TradeRecord     `toml:"Trades"`
	Result     map[string]any    `toml:"Result"`
}

// Build assembles a Document from the round configuration, the initial deal,
// the ordered trade log and the finalized result. Timestamps and prices are
// rounded to cents, final banks to whole units.
func Build(cfg *config.Config, deal map[string]string, trades []engine.TradeEvent, res engine.Result) Document {
	doc := Document{
		FiggieGame: GameSection{
			Title:        cfg.Game.Title,
			GameID:       cfg.Game.GameID,
			Players:      cfg.Game.Players,
			Date:         cfg.Game.Date,
			GameDuration: cfg.Game.GameDuration,
			GameVariant:  cfg.Game.GameVariant,
		},
		DeckSetup: DeckSection{
			GoalSuitColor: res.GoalSuit.Color().String(),
			GoalSuit:      res.GoalSuit.String(),
			Distribution:  cfg.Deck.Distribution,
		},
		Deal: deal,
	}
	if cfg.Game.GameVariant == config.VariantTurnBased {
		doc.FiggieGame.Turns = cfg.Game.Turns
	}

	doc.Trades = make([]TradeRecord, 0, len(trades))
	for _, ev := range trades {
		doc.Trades = append(doc.Trades, TradeRecord{
			TradeIndex: ev.Index,
			T:          round2(ev.Time),
			Turn:       ev.Turn,
			Buyer:      ev.Buyer,
			Seller:     ev.Seller,
			Suit:       ev.Suit.String(),
			Card:       ev.Card.Label(),
			Price:      round2(ev.Price),
		})
	}

	names := cfg.PlayerNames()
	result := map[string]any{
		"Revealed12CardSuit": res.RevealedTwelveSuit.String(),
		"GoalSuit":           res.GoalSuit.String(),
		"Winners":            res.Winners,
	}
	for i, name := range names {
		if i < len(res.FinalCash) {
			result[name+"_FinalBank"] = int(math.Round(res.FinalCash[i]))
		}
	}
	doc.Result = result

	return doc
}

// DealStrings converts a market snapshot's hands into the comma-separated
// PFN [Deal] form.
func DealStrings(snap engine.Snapshot) map[string]string {
	deal := make(map[string]string, len(snap.Agents))
	for _, a := range snap.Agents {
		labels := make([]string, len(a.Hand))
		for i, c := range a.Hand {
			labels[i] = c.Label()
		}
		deal[a.Name] = strings.Join(labels, ",")
	}
	return deal
}

// Encode writes the Document as TOML.
func (d Document) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(d)
}

// Decode parses a PFN document.
func Decode(r io.Reader) (Document, error) {
	var d Document
	_, err := toml.NewDecoder(r).Decode(&d)
	return d, err
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
