package cfr

// tpKind distinguishes the two layers of a treeplex.
type tpKind uint8

const (
	tpObservation tpKind = iota
	tpDecision
)

// tpNode is one node of a player-subjective treeplex. OBSERVATION nodes
// collapse every contiguous run of opponent/chance/terminal nodes the player
// cannot distinguish between; DECISION nodes are the player's own choice
// points, one per infoset, shared across every history that reaches it —
// the treeplex is smaller than the full history tree precisely because
// those histories collapse onto the same DECISION node (spec §4.6).
type tpNode struct {
	kind tpKind

	// OBSERVATION: accumulated terminal-utility contribution from every
	// terminal reachable without passing through another decision, plus
	// (after BestResponse) the summed value of its decision children.
	// DECISION: the infoset's legal actions and one OBSERVATION child per
	// action (population deferred: the mover's own policy is not applied
	// here, only at best-response selection).
	value   float64
	infoSet InfoSetKey
	actions []int
	children []*tpNode

	// decisionChildren attaches DECISION nodes reachable from this
	// OBSERVATION node, keyed by infoset so that every arrival at the same
	// infoset (via whatever chance/opponent path) shares one node.
	decisionChildren map[InfoSetKey]*tpNode

	computed bool // memoizes BestResponse's recursion (a node may have multiple parents)
}

// Treeplex is one player's compacted decision tree against a fixed opponent
// strategy, built fresh for each best-response computation (spec §4.6
// "build once per strategy").
type Treeplex struct {
	player    int
	root      *tpNode
	decisions map[InfoSetKey]*tpNode
}

// BuildTreeplex constructs player's treeplex against strategy (used for the
// other player's and chance's action probabilities).
func BuildTreeplex(game TwoPlayerZeroSum, player int, strategy *Strategy) *Treeplex {
	t := &Treeplex{
		player:    player,
		decisions: make(map[InfoSetKey]*tpNode),
	}
	t.root = &tpNode{kind: tpObservation, decisionChildren: make(map[InfoSetKey]*tpNode)}
	t.collapse(t.root, game.Root(), 1, strategy)
	return t
}

func (t *Treeplex) collapse(obs *tpNode, st State, pReach float64, strategy *Strategy) {
	switch st.Kind() {
	case Terminal:
		obs.value += st.Utility(t.player) * pReach
		return

	case Chance:
		probs := st.ActionProbs()
		for i, p := range probs {
			t.collapse(obs, st.Step(i), pReach*p, strategy)
		}
		return

	default: // Decision
		if st.CurrentPlayer() != t.player {
			actions := st.Actions()
			row := rowOrUniform(strategy, st.InfoSet(), len(actions))
			for i := range actions {
				t.collapse(obs, st.Step(i), pReach*row[i], strategy)
			}
			return
		}

		key := st.InfoSet()
		d, ok := t.decisions[key]
		if !ok {
			actions := st.Actions()
			d = &tpNode{kind: tpDecision, infoSet: key, actions: actions, children: make([]*tpNode, len(actions))}
			for i := range actions {
				d.children[i] = &tpNode{kind: tpObservation, decisionChildren: make(map[InfoSetKey]*tpNode)}
			}
			t.decisions[key] = d
		}
		obs.decisionChildren[key] = d

		for i := range d.actions {
			// p_reach is not multiplied by the mover's own policy here;
			// that factor is deferred to best-response action selection.
			t.collapse(d.children[i], st.Step(i), pReach, strategy)
		}
	}
}

// BestResponse computes the exact best response within this treeplex and
// returns the one-hot rows for t.player together with the root value — the
// best-response payoff to t.player against the strategy the treeplex was
// built with (spec §4.6 best_response_rec).
func (t *Treeplex) BestResponse() (*Strategy, float64) {
	rows := make(map[InfoSetKey][]float64)
	value := t.brRec(t.root, rows)
	return NewStrategy(rows), value
}

func (t *Treeplex) brRec(n *tpNode, rows map[InfoSetKey][]float64) float64 {
	if n.computed {
		return n.value
	}
	n.computed = true

	switch n.kind {
	case tpObservation:
		total := n.value
		for _, d := range n.decisionChildren {
			total += t.brRec(d, rows)
		}
		n.value = total
		return total

	default: // Decision
		vals := make([]float64, len(n.children))
		best := 0
		for i, child := range n.children {
			vals[i] = t.brRec(child, rows)
			if vals[i] > vals[best] {
				best = i
			}
		}
		row := make([]float64, len(n.children))
		row[best] = 1
		rows[n.infoSet] = row
		n.value = vals[best]
		return n.value
	}
}

// EvalFast computes the two-player Nash gap via treeplex compaction instead
// of the full history tree: root_value_p1 + root_value_p2, zero-sum
// cancellation taking the place of the Tree-based subtraction (spec §4.6).
func EvalFast(game TwoPlayerZeroSum, strategy *Strategy, p1, p2 int) float64 {
	_, v1 := BuildTreeplex(game, p1, strategy).BestResponse()
	_, v2 := BuildTreeplex(game, p2, strategy).BestResponse()
	return v1 + v2
}
