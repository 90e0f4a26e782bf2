// Package cfr implements the equilibrium-computation engine: a per-infoset
// regret minimizer, Monte-Carlo CFR samplers (outcome and external sampling),
// a strategy object, and two best-response evaluators (full history tree and
// per-player treeplex). The engine is polymorphic over any two-player
// zero-sum extensive-form game that implements the State/Game contract in
// this file; it never references a specific game's board mechanics.
package cfr

// Kind classifies a node in an extensive-form game tree.
type Kind uint8

const (
	// Decision nodes are where one of the players acts.
	Decision Kind = iota
	// Chance nodes resolve by a fixed, state-known probability distribution.
	Chance
	// Terminal nodes carry a utility for each player and no further actions.
	Terminal
)

func (k Kind) String() string {
	switch k {
	case Decision:
		return "decision"
	case Chance:
		return "chance"
	case Terminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// InfoSetKey identifies the information set a decision node belongs to: the
// set of histories indistinguishable to the acting player. Games that already
// enumerate a dense index space may use the decimal string of that index;
// games with an unbounded or sparse key space may use any stable string.
type InfoSetKey string

// State is a single, value-copyable node in a game tree. Implementations
// should be small structs copied by value; Step returns the child state
// without mutating the receiver.
//
// Action-ordering invariant: for a fixed InfoSet, the order in which Actions
// returns legal actions must be identical across every State that belongs to
// that infoset. The full-tree evaluator (Eval) sums per-action utility across
// every history sharing an infoset and relies on action index i meaning the
// same action under every such history.
type State interface {
	Kind() Kind

	// CurrentPlayer is valid only for Decision nodes.
	CurrentPlayer() int
	// InfoSet is valid only for Decision nodes.
	InfoSet() InfoSetKey

	// NumActions is the number of legal actions at this node. Valid for
	// Decision and Chance nodes.
	NumActions() int
	// Actions returns the legal action indices, in infoset-invariant order.
	Actions() []int
	// ActionProbs returns the chance distribution over Actions(); valid only
	// for Chance nodes, len(ActionProbs()) == NumActions().
	ActionProbs() []float64

	// Step returns the child reached by playing the i-th legal action
	// (an index into Actions(), not an action id).
	Step(i int) State

	// Utility is valid only for Terminal nodes.
	Utility(player int) float64
}

// Game is the static description of an extensive-form game: its root, player
// set, and the action-space upper bound used as the checkpoint row width.
type Game interface {
	Root() State
	Players() []int
	NumPlayers() int
	// ActionMax bounds NumActions() over every reachable node; it sizes
	// the persisted array width, not a hard per-node cap.
	ActionMax() int
	// GetStrategy builds a normalized Strategy from raw per-infoset weight
	// rows (as accumulated by the regret minimizer table), replacing
	// all-zero ("never visited") rows with uniform-over-legal using whatever
	// legal-action mask the game can derive for that infoset.
	GetStrategy(rows map[InfoSetKey][]float64) *Strategy
}

// TwoPlayerZeroSum is implemented by games for which Nash-gap / exploitability
// is defined (spec §1 Non-goals: exploitability is defined only for two-player
// zero-sum games).
type TwoPlayerZeroSum interface {
	Game
	// Opponent returns the other player of p in a two-player game.
	Opponent(p int) int
}
