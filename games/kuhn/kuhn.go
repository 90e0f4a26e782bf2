// Package kuhn implements three-card Kuhn poker as a cfr.Game: a chance
// deal of two of three cards to the two players, one ante each, at most one
// bet and one call/fold per player, 12 information sets.
package kuhn

import (
	"fmt"

	"github.com/lox/cfrsolve/sdk/cfr"
)

// Card ranks, highest wins at showdown.
const (
	Jack int = iota
	Queen
	King
)

// Decision-node action indices. The same two indices are reused at every
// decision node in the tree (always exactly two legal actions); their
// meaning (check/bet vs. fold/call) is determined by the node's history,
// matching how the other running examples in this repo key actions
// positionally rather than by a single shared enum.
const (
	actionPassOrFold int = iota // check (no bet outstanding) or fold (facing a bet)
	actionBetOrCall             // bet (no bet outstanding) or call (facing a bet)
)

const numActions = 2

var deals = [6][2]int{
	{Jack, Queen}, {Jack, King},
	{Queen, Jack}, {Queen, King},
	{King, Jack}, {King, Queen},
}

// Game is the Kuhn poker instance. No parameters: deck and ante are fixed.
type Game struct{}

// New returns the Kuhn poker game.
func New() *Game { return &Game{} }

func (Game) Root() cfr.State { return State{p0Card: -1, p1Card: -1} }
func (Game) Players() []int  { return []int{0, 1} }
func (Game) NumPlayers() int { return 2 }
func (Game) ActionMax() int  { return len(deals) } // chance has the widest fan-out
func (Game) Opponent(p int) int {
	if p == 0 {
		return 1
	}
	return 0
}

// GetStrategy normalizes every visited row (every Kuhn infoset has exactly
// two legal actions) and fills unvisited infosets with uniform.
func (g Game) GetStrategy(rows map[cfr.InfoSetKey][]float64) *cfr.Strategy {
	out := make(map[cfr.InfoSetKey][]float64, len(rows))
	for key, row := range rows {
		out[key] = normalizeOrUniform(row)
	}
	return cfr.NewStrategy(out)
}

func normalizeOrUniform(row []float64) []float64 {
	out := make([]float64, numActions)
	var sum float64
	for _, v := range row {
		sum += v
	}
	if sum <= 1e-9 {
		out[0], out[1] = 0.5, 0.5
		return out
	}
	for i := range out {
		if i < len(row) {
			out[i] = row[i] / sum
		}
	}
	return out
}

// State is a node of the Kuhn tree. Before the deal (p0Card == -1) it is the
// chance node; afterwards history records the action sequence so far as a
// string of 'c' (check, or call when facing a bet), 'b' (bet), 'f' (fold).
type State struct {
	p0Card, p1Card int
	history        string
}

func (s State) Kind() cfr.Kind {
	if s.p0Card == -1 {
		return cfr.Chance
	}
	switch s.history {
	case "cc", "cbf", "cbc", "bf", "bc":
		return cfr.Terminal
	default:
		return cfr.Decision
	}
}

func (s State) CurrentPlayer() int {
	switch len(s.history) {
	case 0, 2:
		return 0
	default:
		return 1
	}
}

func (s State) InfoSet() cfr.InfoSetKey {
	card := s.p0Card
	if s.CurrentPlayer() == 1 {
		card = s.p1Card
	}
	return cfr.InfoSetKey(fmt.Sprintf("%d|%s", card, s.history))
}

func (s State) NumActions() int {
	if s.p0Card == -1 {
		return len(deals)
	}
	return numActions
}

func (s State) Actions() []int {
	if s.p0Card == -1 {
		out := make([]int, len(deals))
		for i := range out {
			out[i] = i
		}
		return out
	}
	return []int{actionPassOrFold, actionBetOrCall}
}

func (State) ActionProbs() []float64 {
	probs := make([]float64, len(deals))
	for i := range probs {
		probs[i] = 1.0 / float64(len(deals))
	}
	return probs
}

func (s State) Step(i int) cfr.State {
	if s.p0Card == -1 {
		deal := deals[i]
		return State{p0Card: deal[0], p1Card: deal[1], history: ""}
	}
	var next byte
	switch s.history {
	case "", "c":
		if i == actionPassOrFold {
			next = 'c'
		} else {
			next = 'b'
		}
	case "cb", "b":
		if i == actionPassOrFold {
			next = 'f'
		} else {
			next = 'c'
		}
	}
	return State{p0Card: s.p0Card, p1Card: s.p1Card, history: s.history + string(next)}
}

func (s State) Utility(player int) float64 {
	winner := 1 // player index with the higher card
	if s.p0Card > s.p1Card {
		winner = 0
	}

	var amount float64
	switch s.history {
	case "cc":
		amount = 1
	case "cbf":
		if player == 0 {
			return -1
		}
		return 1
	case "cbc":
		amount = 2
	case "bf":
		if player == 0 {
			return 1
		}
		return -1
	case "bc":
		amount = 2
	default:
		panic(fmt.Sprintf("kuhn: Utility called on non-terminal history %q", s.history))
	}

	if player == winner {
		return amount
	}
	return -amount
}
