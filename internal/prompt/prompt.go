// Package prompt implements an interactive terminal decision source for
// human-controlled seats. The engine blocks on these calls during the
// human's turn and when the human is a counterparty to a bot offer.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spaghetti-software-inc/openfiggie/engine"
)

// Terminal reads decisions line by line. It implements
// engine.DecisionProvider.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

// New wraps an input/output pair, typically os.Stdin and os.Stdout.
func New(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

// Decide presents an offered trade and reads y/n. EOF or unreadable input
// counts as a rejection.
func (t *Terminal) Decide(agent string, side engine.Side, card engine.Card, price float64) (bool, error) {
	verb := "buy"
	if side == engine.SideSeller {
		verb = "sell"
	}
	fmt.Fprintf(t.out, "%s: %s %s at %.2f? [y/n] ", agent, verb, card.Label(), price)

	for {
		line, err := t.in.ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		switch answer {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("read decision: %w", err)
		}
		fmt.Fprintf(t.out, "please answer y or n: ")
	}
}

// Propose asks the agent to act against one opponent. Accepted forms:
//
//	buy <suit> <price>    propose buying one card of the suit
//	sell <suit> <price>   propose selling one card of the suit
//	pass                  skip this opponent
//	quit                  end the round
//
// Suits may be full names or one-letter prefixes. EOF ends the round.
func (t *Terminal) Propose(agent, opponent string) (engine.Proposal, bool, error) {
	fmt.Fprintf(t.out, "%s vs %s> ", agent, opponent)

	for {
		line, err := t.in.ReadString('\n')
		input := strings.TrimSpace(line)
		if input != "" {
			prop, ok, perr := parseProposal(input)
			if perr == nil {
				return prop, ok, perr
			}
			if perr == engine.ErrEndRound {
				return engine.Proposal{}, false, perr
			}
			fmt.Fprintf(t.out, "%v\n%s vs %s> ", perr, agent, opponent)
		}
		if err != nil {
			return engine.Proposal{}, false, engine.ErrEndRound
		}
	}
}

// parseProposal interprets one command line.
func parseProposal(input string) (engine.Proposal, bool, error) {
	fields := strings.Fields(strings.ToLower(input))
	switch fields[0] {
	case "pass", "p":
		return engine.Proposal{}, false, nil
	case "quit", "q", "exit":
		return engine.Proposal{}, false, engine.ErrEndRound
	case "buy", "b", "sell", "s":
		if len(fields) != 3 {
			return engine.Proposal{}, false, fmt.Errorf("usage: %s <suit> <price>", fields[0])
		}
		suit, ok := engine.ParseSuit(normalizeSuit(fields[1]))
		if !ok {
			return engine.Proposal{}, false, fmt.Errorf("unknown suit %q", fields[1])
		}
		price, err := strconv.ParseFloat(fields[2], 64)
		if err != nil || price <= 0 {
			return engine.Proposal{}, false, fmt.Errorf("bad price %q", fields[2])
		}
		buy := fields[0] == "buy" || fields[0] == "b"
		return engine.Proposal{Buy: buy, Suit: suit, Price: price}, true, nil
	default:
		return engine.Proposal{}, false, fmt.Errorf("unknown command %q (buy, sell, pass, quit)", fields[0])
	}
}

// normalizeSuit upper-cases a one-letter prefix and title-cases a full name
// so ParseSuit accepts relaxed input.
func normalizeSuit(s string) string {
	if len(s) == 1 {
		return strings.ToUpper(s)
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
