// Package ptt implements Phantom Tic-Tac-Toe: two players alternate placing
// marks on their own private 3x3 grid, never seeing the opponent's board.
// A move at a cell the mover doesn't yet know is occupied either succeeds
// (placing the mover's mark) or fails and reveals that the cell belongs to
// the opponent — either way the turn passes. A player wins by completing
// three in a row with their own successfully-placed marks; the game ties if
// a mover runs out of cells they don't already know are occupied.
//
// This is the full game (board size and win condition unreduced), unlike
// the reduced Leduc variant elsewhere in this repo. A node has at most 9
// actions. Because a failed attempt also passes the turn, a game is not
// bounded by 9 plies: each ply adds one cell to the mover's observation
// mask, so a game lasts at most 17 plies. Infosets are keyed by whose turn
// it is and the mover's 9-bit observation mask (512 possible masks per
// player).
package ptt

import (
	"fmt"
	"math/bits"

	"github.com/lox/cfrsolve/sdk/cfr"
)

const (
	gridSize = 3
	numCells = gridSize * gridSize
	allCells = (1 << numCells) - 1
)

var winMasks = computeWinMasks()

func computeWinMasks() []uint16 {
	lines := [][3]int{
		{0, 1, 2}, {3, 4, 5}, {6, 7, 8}, // rows
		{0, 3, 6}, {1, 4, 7}, {2, 5, 8}, // columns
		{0, 4, 8}, {2, 4, 6}, // diagonals
	}
	var masks []uint16
	for _, l := range lines {
		masks = append(masks, 1<<l[0]|1<<l[1]|1<<l[2])
	}
	return masks
}

func isWin(occupied uint16) bool {
	for _, m := range winMasks {
		if occupied&m == m {
			return true
		}
	}
	return false
}

// Game is the Phantom Tic-Tac-Toe instance; it has no parameters.
type Game struct{}

// New returns the Phantom Tic-Tac-Toe game.
func New() *Game { return &Game{} }

func (Game) Root() cfr.State { return State{mover: 0} }
func (Game) Players() []int  { return []int{0, 1} }
func (Game) NumPlayers() int { return 2 }
func (Game) ActionMax() int  { return numCells }

func (Game) Opponent(p int) int {
	if p == 0 {
		return 1
	}
	return 0
}

// GetStrategy normalizes every visited row against however many legal
// actions that infoset's observation mask admits, uniform-over-legal
// otherwise. The legal count is recovered from the infoset key itself
// (it's encoded there), so no tree walk is needed.
func (g Game) GetStrategy(rows map[cfr.InfoSetKey][]float64) *cfr.Strategy {
	out := make(map[cfr.InfoSetKey][]float64, len(rows))
	for key, row := range rows {
		n := legalCountFromKey(key)
		norm := make([]float64, n)
		var sum float64
		for _, v := range row {
			sum += v
		}
		if sum <= 1e-9 {
			u := 1.0 / float64(n)
			for i := range norm {
				norm[i] = u
			}
		} else {
			for i := range norm {
				if i < len(row) {
					norm[i] = row[i] / sum
				}
			}
		}
		out[key] = norm
	}
	return cfr.NewStrategy(out)
}

func legalCountFromKey(key cfr.InfoSetKey) int {
	var mover int
	var obs uint16
	fmt.Sscanf(string(key), "%d:%x", &mover, &obs)
	return bits.OnesCount16(validMask(obs))
}

func validMask(obs uint16) uint16 { return ^obs & allCells }

// State is a node of the Phantom Tic-Tac-Toe tree. obs[p] is the set of
// cells player p currently knows to be occupied (by either player);
// occupied[p] is the set of cells player p has successfully placed a mark
// on (used only for the win check, since a mover never confuses a
// successful placement with a blocked attempt).
type State struct {
	obs      [2]uint16
	occupied [2]uint16
	mover    int
	done     bool
	tie      bool
	winner   int
}

func (s State) Kind() cfr.Kind {
	if s.done {
		return cfr.Terminal
	}
	return cfr.Decision
}

func (s State) CurrentPlayer() int { return s.mover }

func (s State) InfoSet() cfr.InfoSetKey {
	return cfr.InfoSetKey(fmt.Sprintf("%d:%x", s.mover, s.obs[s.mover]))
}

func (s State) NumActions() int { return len(s.Actions()) }

// Actions returns the mover's unknown cells as cell indices, ascending.
// Ascending bit order makes the order depend only on obs[mover], which is
// exactly the infoset — satisfying the action-ordering invariant.
func (s State) Actions() []int {
	mask := validMask(s.obs[s.mover])
	out := make([]int, 0, bits.OnesCount16(mask))
	for mask != 0 {
		cell := bits.TrailingZeros16(mask)
		out = append(out, cell)
		mask &^= 1 << cell
	}
	return out
}

func (State) ActionProbs() []float64 {
	panic("ptt: ActionProbs called on a decision node (PTTT has no chance nodes)")
}

func (s State) Step(i int) cfr.State {
	cell := s.Actions()[i]
	mover := s.mover
	opp := 1 - mover
	bit := uint16(1) << cell

	next := s
	if next.obs[opp]&bit != 0 {
		// The opponent already holds this cell; the mover finds out but
		// does not place a mark.
		next.obs[mover] |= bit
	} else {
		next.obs[mover] |= bit
		next.occupied[mover] |= bit
	}

	if isWin(next.occupied[mover]) {
		next.done = true
		next.winner = mover
	} else if validMask(next.obs[mover]) == 0 {
		// The mover who just moved has no unknown cells left for their
		// next turn.
		next.done = true
		next.tie = true
	}
	next.mover = opp
	return next
}

func (s State) Utility(player int) float64 {
	if s.tie {
		return 0
	}
	if s.winner == player {
		return 1
	}
	return -1
}
