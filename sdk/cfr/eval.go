package cfr

// node is a single arena-owned entry in the full history tree. Decision
// nodes carry an infoset key and scratch fields (value, pReachOthers) reset
// on every BestResponse call; the infoset table holds index-based
// back-references into this arena rather than owning nodes itself, so the
// tree has a single owner and no cyclic references.
type node struct {
	state    State
	kind     Kind
	player   int // valid for Decision only
	infoSet  InfoSetKey
	actions  []int
	children []int // indices into Tree.nodes, one per Actions() entry

	value        float64
	pReachOthers float64
}

type infosetEntry struct {
	histories []int // node indices sharing this infoset
	visited   bool
}

// Tree is the full, materialized history tree of a game, built once and
// reused across BestResponse/EvalFor calls (spec §4.5 "built once... scratch
// fields reset each call").
type Tree struct {
	game  TwoPlayerZeroSum
	nodes []node
	root  int
	infos map[InfoSetKey]*infosetEntry
}

// BuildTree depth-first constructs the full history tree from game's root.
// This materializes the entire game tree in memory; it is only suitable for
// games small enough to enumerate (RPS, Kuhn, small Leduc variants, bounded
// PTTT boards) — spec's Non-goals exclude requiring this for PTTT at full
// scale.
func BuildTree(game TwoPlayerZeroSum) *Tree {
	t := &Tree{game: game, infos: make(map[InfoSetKey]*infosetEntry)}
	t.root = t.build(game.Root())
	return t
}

func (t *Tree) build(st State) int {
	idx := len(t.nodes)
	t.nodes = append(t.nodes, node{state: st, kind: st.Kind()})

	switch st.Kind() {
	case Terminal:
		return idx
	case Chance:
		actions := st.Actions()
		children := make([]int, len(actions))
		for i := range actions {
			children[i] = t.build(st.Step(i))
		}
		t.nodes[idx].actions = actions
		t.nodes[idx].children = children
		return idx
	default: // Decision
		actions := st.Actions()
		children := make([]int, len(actions))
		for i := range actions {
			children[i] = t.build(st.Step(i))
		}
		key := st.InfoSet()
		t.nodes[idx].actions = actions
		t.nodes[idx].children = children
		t.nodes[idx].player = st.CurrentPlayer()
		t.nodes[idx].infoSet = key
		entry, ok := t.infos[key]
		if !ok {
			entry = &infosetEntry{}
			t.infos[key] = entry
		}
		entry.histories = append(entry.histories, idx)
		return idx
	}
}

// BestResponse computes the exact best response to strategy for player p and
// returns a new Strategy equal to strategy except that p's rows are replaced
// by the best-responding one-hot rows (spec §4.5 best_response).
func (t *Tree) BestResponse(strategy *Strategy, p int) *Strategy {
	for _, e := range t.infos {
		e.visited = false
	}
	t.computeReachOthers(t.root, strategy, p, 1)

	br := strategy.Clone()
	t.bestResponseRec(t.root, strategy, br, p)
	return br
}

// computeReachOthers is the first pass of best_response: it records, at
// every node, the reach probability contributed by everyone except p
// (opponent policy and chance), treating p's own actions as reach-neutral.
func (t *Tree) computeReachOthers(idx int, strategy *Strategy, p int, reachIn float64) {
	n := &t.nodes[idx]
	n.pReachOthers = reachIn

	switch n.kind {
	case Terminal:
		return
	case Chance:
		probs := n.state.ActionProbs()
		for i, child := range n.children {
			t.computeReachOthers(child, strategy, p, reachIn*probs[i])
		}
	default: // Decision
		if n.player == p {
			for _, child := range n.children {
				t.computeReachOthers(child, strategy, p, reachIn)
			}
			return
		}
		row := t.strategyRow(strategy, n)
		for i, child := range n.children {
			t.computeReachOthers(child, strategy, p, reachIn*row[i])
		}
	}
}

// bestResponseRec is the second pass: it returns the best-response value at
// idx and, at p's decision nodes, commits the argmax action to br the first
// time each infoset is visited — and only then, per the "visit once per
// infoset, touch every history" discipline spec §4.5 requires.
func (t *Tree) bestResponseRec(idx int, strategy, br *Strategy, p int) float64 {
	n := &t.nodes[idx]

	switch n.kind {
	case Terminal:
		return n.state.Utility(p) * n.pReachOthers

	case Chance:
		// Terminal values already carry pReachOthers, so chance and
		// opponent probabilities are not applied a second time here.
		var value float64
		for _, child := range n.children {
			value += t.bestResponseRec(child, strategy, br, p)
		}
		return value

	default: // Decision
		if n.player != p {
			var value float64
			for _, child := range n.children {
				value += t.bestResponseRec(child, strategy, br, p)
			}
			return value
		}

		entry := t.infos[n.infoSet]
		if entry.visited {
			return n.value
		}
		entry.visited = true

		numActions := len(n.actions)
		childVals := make([][]float64, len(entry.histories))
		vals := make([]float64, numActions)
		for hi, histIdx := range entry.histories {
			hist := &t.nodes[histIdx]
			row := make([]float64, numActions)
			for i, child := range hist.children {
				row[i] = t.bestResponseRec(child, strategy, br, p)
			}
			childVals[hi] = row
			for i, v := range row {
				vals[i] += v
			}
		}

		best := 0
		for i := 1; i < numActions; i++ {
			if vals[i] > vals[best] {
				best = i
			}
		}

		oneHot := make([]float64, numActions)
		oneHot[best] = 1
		br.SetRow(n.infoSet, oneHot)

		for hi, histIdx := range entry.histories {
			t.nodes[histIdx].value = childVals[hi][best]
		}
		return n.value
	}
}

func (t *Tree) strategyRow(strategy *Strategy, n *node) []float64 {
	return rowOrUniform(strategy, n.infoSet, len(n.actions))
}

// EvalFor returns the expected utility to player p when every player and
// chance node plays strategy: a plain top-down expectation with no reach
// accumulator, since each level's weighting already folds player, opponent,
// and chance probabilities uniformly into the recursion (spec §4.5
// eval_for).
func (t *Tree) EvalFor(strategy *Strategy, p int) float64 {
	return t.evalForRec(t.root, strategy, p)
}

func (t *Tree) evalForRec(idx int, strategy *Strategy, p int) float64 {
	n := &t.nodes[idx]
	switch n.kind {
	case Terminal:
		return n.state.Utility(p)
	case Chance:
		probs := n.state.ActionProbs()
		var value float64
		for i, child := range n.children {
			value += probs[i] * t.evalForRec(child, strategy, p)
		}
		return value
	default:
		row := t.strategyRow(strategy, n)
		var value float64
		for i, child := range n.children {
			value += row[i] * t.evalForRec(child, strategy, p)
		}
		return value
	}
}

// NashGap computes the two-player zero-sum exploitability of strategy:
// the sum of each player's best-response payoff against the other's current
// play, measured from player 0's perspective (spec §4.5).
func NashGap(t *Tree, strategy *Strategy, p1, p2 int) float64 {
	br1 := t.BestResponse(strategy, p1)
	br2 := t.BestResponse(strategy, p2)
	return t.EvalFor(br1, p1) - t.EvalFor(br2, p1)
}
