// Package rps implements Rock-Paper-Scissors as a cfr.Game: two decision
// nodes (one per player, played simultaneously — P2 moves without seeing
// P1's action, so P2's single infoset is genuinely hidden information, not
// just sequential play), three actions each, no chance node.
package rps

import "github.com/lox/cfrsolve/sdk/cfr"

const (
	Rock int = iota
	Paper
	Scissors
)

const numActions = 3

// Game is the RPS instance. It has no parameters: actions and payoffs are
// fixed.
type Game struct{}

// New returns the RPS game.
func New() *Game { return &Game{} }

func (Game) Root() cfr.State               { return State{p1Move: -1, p2Move: -1} }
func (Game) Players() []int                { return []int{0, 1} }
func (Game) NumPlayers() int                { return 2 }
func (Game) ActionMax() int                 { return numActions }
func (Game) Opponent(p int) int {
	if p == 0 {
		return 1
	}
	return 0
}

// GetStrategy normalizes the two infosets' raw rows (keyed "0" for P1's
// opening move, "1" for P2's move), replacing all-zero rows with uniform —
// mirrors the original RPS::get_strategy.
func (g Game) GetStrategy(rows map[cfr.InfoSetKey][]float64) *cfr.Strategy {
	out := make(map[cfr.InfoSetKey][]float64, 2)
	for _, key := range []cfr.InfoSetKey{"0", "1"} {
		row, ok := rows[key]
		if !ok {
			row = nil
		}
		out[key] = normalizeOrUniform(row, numActions)
	}
	return cfr.NewStrategy(out)
}

func normalizeOrUniform(row []float64, n int) []float64 {
	out := make([]float64, n)
	var sum float64
	for _, v := range row {
		sum += v
	}
	if sum <= 1e-9 {
		u := 1.0 / float64(n)
		for i := range out {
			out[i] = u
		}
		return out
	}
	for i := range out {
		if i < len(row) {
			out[i] = row[i] / sum
		}
	}
	return out
}

// State is a node of the RPS tree: p1Move/p2Move are -1 until played.
type State struct {
	p1Move int
	p2Move int
}

func (s State) Kind() cfr.Kind {
	if s.p1Move != -1 && s.p2Move != -1 {
		return cfr.Terminal
	}
	return cfr.Decision
}

func (s State) CurrentPlayer() int {
	if s.p1Move == -1 {
		return 0
	}
	return 1
}

// InfoSet returns "0" before P1 has moved, "1" once P1 has moved and P2 is
// to act — P2 never observes P1's move, so this single key covers every
// one of P2's three possible opponent-move histories.
func (s State) InfoSet() cfr.InfoSetKey {
	if s.p1Move == -1 {
		return "0"
	}
	return "1"
}

func (State) NumActions() int          { return numActions }
func (State) Actions() []int           { return []int{Rock, Paper, Scissors} }
func (State) ActionProbs() []float64   { panic("rps: ActionProbs called on a non-chance node") }

func (s State) Step(i int) cfr.State {
	if s.p1Move == -1 {
		return State{p1Move: i, p2Move: -1}
	}
	return State{p1Move: s.p1Move, p2Move: i}
}

func (s State) Utility(player int) float64 {
	if s.p1Move == s.p2Move {
		return 0
	}
	p1Wins := (s.p2Move+1)%3 == s.p1Move
	if player == 0 {
		if p1Wins {
			return 1
		}
		return -1
	}
	if p1Wins {
		return -1
	}
	return 1
}
