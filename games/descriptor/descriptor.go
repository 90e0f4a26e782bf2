// Package descriptor implements a generic cfr.Game driven by the
// line-oriented descriptor text grammar:
//
//	node <path> chance 0 <act>=<prob> ...
//	node <path> terminal 0 <player>=<utility> ...
//	node <path> player <name> 0 <act> <act> ...
//	infoset <name> 0 <path> <path> ...
//
// Any two-player zero-sum extensive-form game can be expressed this way;
// Leduc poker (games/descriptor/leduc.go) is generated into this format
// rather than hand-authored node-by-node.
package descriptor

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/lox/cfrsolve/sdk/cfr"
)

type nodeKind uint8

const (
	kindChance nodeKind = iota
	kindTerminal
	kindPlayer
)

type nodeRecord struct {
	path       string
	kind       nodeKind
	playerName string
	actions    []string           // fixed order: sorted action name for chance, declaration order for player
	probs      map[string]float64 // chance only
	payoffs    map[string]float64 // terminal only, keyed by player name
	infoset    string             // player nodes only; "" until assigned
}

type infosetRecord struct {
	name    string
	nodes   []string
	actions []string
}

// Descriptor is a fully parsed game description: every reachable node and
// every declared infoset.
type Descriptor struct {
	nodes      map[string]*nodeRecord
	infosets   map[string]*infosetRecord
	playerIdx  map[string]int
	playerName []string
}

// Parse reads the descriptor grammar from r.
func Parse(r io.Reader) (*Descriptor, error) {
	d := &Descriptor{
		nodes:     make(map[string]*nodeRecord),
		infosets:  make(map[string]*infosetRecord),
		playerIdx: make(map[string]int),
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		words := strings.Fields(line)
		switch words[0] {
		case "node":
			if err := d.parseNode(words, lineNo); err != nil {
				return nil, err
			}
		case "infoset":
			if err := d.parseInfoset(words, lineNo); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("descriptor: line %d: unknown directive %q", lineNo, words[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	for path, n := range d.nodes {
		if n.kind == kindPlayer && n.infoset == "" {
			return nil, fmt.Errorf("descriptor: player node %q was never assigned to an infoset", path)
		}
	}
	sort.Strings(d.playerName)
	for i, name := range d.playerName {
		d.playerIdx[name] = i
	}
	return d, nil
}

func (d *Descriptor) parseNode(words []string, lineNo int) error {
	if len(words) < 3 {
		return fmt.Errorf("descriptor: line %d: malformed node directive", lineNo)
	}
	path := words[1]
	n := &nodeRecord{path: path}

	switch words[2] {
	case "chance":
		n.kind = kindChance
		pairs, err := readDict(words[4:])
		if err != nil {
			return fmt.Errorf("descriptor: line %d: %w", lineNo, err)
		}
		n.probs = pairs
		for a := range pairs {
			n.actions = append(n.actions, a)
		}
		sort.Strings(n.actions)

	case "terminal":
		n.kind = kindTerminal
		pairs, err := readDict(words[4:])
		if err != nil {
			return fmt.Errorf("descriptor: line %d: %w", lineNo, err)
		}
		n.payoffs = pairs
		for name := range pairs {
			d.notePlayer(name)
		}

	case "player":
		if len(words) < 5 {
			return fmt.Errorf("descriptor: line %d: malformed player node", lineNo)
		}
		n.kind = kindPlayer
		n.playerName = words[3]
		d.notePlayer(n.playerName)
		n.actions = append([]string(nil), words[5:]...)

	default:
		return fmt.Errorf("descriptor: line %d: unknown node type %q", lineNo, words[2])
	}

	d.nodes[path] = n
	return nil
}

func (d *Descriptor) notePlayer(name string) {
	if _, ok := d.playerIdx[name]; ok {
		return
	}
	for _, p := range d.playerName {
		if p == name {
			return
		}
	}
	d.playerName = append(d.playerName, name)
}

func (d *Descriptor) parseInfoset(words []string, lineNo int) error {
	if len(words) < 4 {
		return fmt.Errorf("descriptor: line %d: malformed infoset directive", lineNo)
	}
	name := words[1]
	info := &infosetRecord{name: name, nodes: words[3:]}
	for _, path := range info.nodes {
		n, ok := d.nodes[path]
		if !ok {
			return fmt.Errorf("descriptor: line %d: infoset %q references unknown node %q", lineNo, name, path)
		}
		n.infoset = name
		if info.actions == nil {
			info.actions = n.actions
		} else if len(info.actions) != len(n.actions) {
			return fmt.Errorf("descriptor: infoset %q has nodes with differing action counts", name)
		}
	}
	d.infosets[name] = info
	return nil
}

func readDict(words []string) (map[string]float64, error) {
	out := make(map[string]float64, len(words))
	for _, w := range words {
		eq := strings.IndexByte(w, '=')
		if eq < 0 {
			return nil, fmt.Errorf("malformed key=value pair %q", w)
		}
		v, err := strconv.ParseFloat(w[eq+1:], 64)
		if err != nil {
			return nil, fmt.Errorf("malformed value in %q: %w", w, err)
		}
		out[w[:eq]] = v
	}
	return out, nil
}

// Game adapts a parsed Descriptor to cfr.Game / cfr.TwoPlayerZeroSum.
type Game struct {
	d         *Descriptor
	actionMax int
}

// Load parses text and wraps it as a cfr.Game.
func Load(text string) (*Game, error) {
	d, err := Parse(strings.NewReader(text))
	if err != nil {
		return nil, err
	}
	max := 0
	for _, n := range d.nodes {
		if len(n.actions) > max {
			max = len(n.actions)
		}
	}
	return &Game{d: d, actionMax: max}, nil
}

const rootPath = "/"

func (g *Game) Root() cfr.State {
	if _, ok := g.d.nodes[rootPath]; !ok {
		panic(fmt.Sprintf("descriptor: root node %q not present", rootPath))
	}
	return State{g: g, path: rootPath}
}

func (g *Game) Players() []int {
	out := make([]int, len(g.d.playerName))
	for i := range out {
		out[i] = i
	}
	return out
}

func (g *Game) NumPlayers() int { return len(g.d.playerName) }
func (g *Game) ActionMax() int  { return g.actionMax }

func (g *Game) Opponent(p int) int {
	if p == 0 {
		return 1
	}
	return 0
}

// GetStrategy normalizes every visited row against the infoset's declared
// action count, uniform-over-legal otherwise (spec §6.1 get_strategy).
func (g *Game) GetStrategy(rows map[cfr.InfoSetKey][]float64) *cfr.Strategy {
	out := make(map[cfr.InfoSetKey][]float64, len(g.d.infosets))
	for name, info := range g.d.infosets {
		n := len(info.actions)
		row := rows[cfr.InfoSetKey(name)]
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
		out[cfr.InfoSetKey(name)] = norm
	}
	return cfr.NewStrategy(out)
}

// State is a node of a descriptor-driven game tree, identified by its path
// string.
type State struct {
	g    *Game
	path string
}

func (s State) node() *nodeRecord { return s.g.d.nodes[s.path] }

func (s State) Kind() cfr.Kind {
	switch s.node().kind {
	case kindChance:
		return cfr.Chance
	case kindTerminal:
		return cfr.Terminal
	default:
		return cfr.Decision
	}
}

func (s State) CurrentPlayer() int {
	n := s.node()
	return s.g.d.playerIdx[n.playerName]
}

func (s State) InfoSet() cfr.InfoSetKey {
	return cfr.InfoSetKey(s.node().infoset)
}

func (s State) NumActions() int { return len(s.node().actions) }

func (s State) Actions() []int {
	n := s.node()
	out := make([]int, len(n.actions))
	for i := range out {
		out[i] = i
	}
	return out
}

func (s State) ActionProbs() []float64 {
	n := s.node()
	out := make([]float64, len(n.actions))
	for i, a := range n.actions {
		out[i] = n.probs[a]
	}
	return out
}

func (s State) Step(i int) cfr.State {
	n := s.node()
	action := n.actions[i]
	var actor string
	if n.kind == kindChance {
		actor = "C"
	} else {
		actor = "P" + n.playerName
	}
	return State{g: s.g, path: s.path + actor + ":" + action + "/"}
}

func (s State) Utility(player int) float64 {
	n := s.node()
	return n.payoffs[s.g.d.playerName[player]]
}
