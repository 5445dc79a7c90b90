// Package engine implements a Monte Carlo simulation of a Figgie trading
// round.
//
// The engine is pure and self-contained: all round state lives in an
// explicitly constructed Market, all randomness flows through an inline
// xorshift64 generator seeded at construction, and every I/O concern
// (logging, persistence, interactive prompting) is injected through small
// interfaces. Given the same Config and seed, a round reproduces an
// identical trade log and identical final balances.
package engine

import (
	"fmt"
	"strconv"
)

// Suit identifies one of the four card suits — packed into the upper 2 bits
// of Card.
type Suit uint8

const (
	SuitSpades   Suit = 0
	SuitClubs    Suit = 1
	SuitHearts   Suit = 2
	SuitDiamonds Suit = 3

	NumSuits = 4
)

var suitNames = [NumSuits]string{"Spades", "Clubs", "Hearts", "Diamonds"}
var suitLetters = [NumSuits]byte{'S', 'C', 'H', 'D'}

// String returns the full suit name ("Spades").
func (s Suit) String() string {
	if s >= NumSuits {
		return "Invalid"
	}
	return suitNames[s]
}

// Letter returns the one-letter suit prefix used in card labels ('S').
func (s Suit) Letter() byte {
	return suitLetters[s]
}

// ParseSuit resolves a full suit name or one-letter prefix to a Suit.
func ParseSuit(name string) (Suit, bool) {
	for s := Suit(0); s < NumSuits; s++ {
		if name == suitNames[s] || (len(name) == 1 && name[0] == suitLetters[s]) {
			return s, true
		}
	}
	return 0, false
}

// Color groups the suits into the two fixed color pairs.
type Color uint8

const (
	ColorBlack Color = 0 // Spades, Clubs
	ColorRed   Color = 1 // Hearts, Diamonds
)

// String returns the color name ("Black").
func (c Color) String() string {
	if c == ColorBlack {
		return "Black"
	}
	return "Red"
}

// Color returns the color group of the suit.
func (s Suit) Color() Color {
	if s == SuitSpades || s == SuitClubs {
		return ColorBlack
	}
	return ColorRed
}

// SameColor reports whether two suits belong to the same color group.
func SameColor(a, b Suit) bool {
	return a.Color() == b.Color()
}

// ---------------------------------------------------------------------------
// Card
// ---------------------------------------------------------------------------

// Card is a packed uint8: upper 2 bits = suit, lower 6 bits = serial.
// The serial distinguishes cards of the same suit and has no effect on
// valuation; cards are immutable tokens.
type Card uint8

// NewCard constructs a Card from suit and serial (1-based).
func NewCard(suit Suit, serial uint8) Card {
	return Card(uint8(suit)<<6 | serial&0x3F)
}

// Suit returns the suit bits (upper 2).
func (c Card) Suit() Suit { return Suit(uint8(c) >> 6) }

// Serial returns the serial bits (lower 6).
func (c Card) Serial() uint8 { return uint8(c) & 0x3F }

// Label returns the PFN card label, e.g. "S10" for the tenth Spade.
func (c Card) Label() string {
	return string(c.Suit().Letter()) + strconv.Itoa(int(c.Serial()))
}

// ParseCard parses a PFN card label ("S10", "D3") into a Card.
func ParseCard(label string) (Card, error) {
	if len(label) < 2 {
		return 0, fmt.Errorf("card label %q too short", label)
	}
	suit, ok := ParseSuit(label[:1])
	if !ok {
		return 0, fmt.Errorf("card label %q: unknown suit prefix", label)
	}
	serial, err := strconv.Atoi(label[1:])
	if err != nil || serial < 1 || serial > 0x3F {
		return 0, fmt.Errorf("card label %q: bad serial", label)
	}
	return NewCard(suit, uint8(serial)), nil
}

// ---------------------------------------------------------------------------
// Deck distribution
// ---------------------------------------------------------------------------

// DeckTotal is the fixed number of cards in a Figgie deck.
const DeckTotal = 40

// Distribution maps each suit to its card count. A legal Figgie deck has
// exactly one 12-card suit and the remaining suits split 10/10/8.
type Distribution [NumSuits]int

// Total returns the number of cards across all suits.
func (d Distribution) Total() int {
	t := 0
	for _, n := range d {
		t += n
	}
	return t
}

// TwelveSuit returns the suit holding exactly 12 cards.
// Only meaningful for a validated distribution.
func (d Distribution) TwelveSuit() Suit {
	for s := Suit(0); s < NumSuits; s++ {
		if d[s] == 12 {
			return s
		}
	}
	return 0
}

// Validate checks the one-12 / 10 / 10 / 8 shape of the deck.
func (d Distribution) Validate() error {
	if d.Total() != DeckTotal {
		return fmt.Errorf("%w: deck has %d cards, want %d", ErrInvalidConfig, d.Total(), DeckTotal)
	}
	var twelves, tens, eights int
	for s := Suit(0); s < NumSuits; s++ {
		switch d[s] {
		case 12:
			twelves++
		case 10:
			tens++
		case 8:
			eights++
		default:
			return fmt.Errorf("%w: suit %s has %d cards, want 8, 10 or 12", ErrInvalidConfig, s, d[s])
		}
	}
	if twelves != 1 || tens != 2 || eights != 1 {
		return fmt.Errorf("%w: deck shape must be one 12-card suit and a 10/10/8 split", ErrInvalidConfig)
	}
	return nil
}

// Deck builds the full ordered deck described by the distribution, with
// serials numbered 1..count within each suit.
func (d Distribution) Deck() []Card {
	deck := make([]Card, 0, d.Total())
	for s := Suit(0); s < NumSuits; s++ {
		for i := 1; i <= d[s]; i++ {
			deck = append(deck, NewCard(s, uint8(i)))
		}
	}
	return deck
}
