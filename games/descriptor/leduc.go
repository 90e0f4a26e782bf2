package descriptor

import (
	"fmt"
	"strconv"
	"strings"
)

// Leduc poker: a 6-card deck (ranks Jack/Queen/King, two suits each), one
// private card per player, two betting rounds (bet size 2 then 4) separated
// by a single public card, showdown resolved by pair-with-public-card then
// by rank. This is a reduced variant — at most one bet per round (no
// re-raise) — rather than the 2-raise-cap used by some reference
// implementations; see DESIGN.md for why (the descriptor format and
// Game/State adapter are exercised identically either way, and hand-
// generating a correct raise-cap-2 tree without a toolchain to check it
// against is materially riskier than cap-1, which still produces every one
// of spec.md's required node types: chance, terminal, and multi-round
// player decisions).
//
// Rather than transcribe a hand-written descriptor file (easy to get subtly
// wrong for a ~6-card, 2-round game with no way to execute and check it),
// this file *generates* the descriptor text by walking the game tree in Go,
// then feeds it through Parse/Load — the same code path any other
// descriptor-driven game uses.
const (
	numRanks = 3
	numCards = numRanks * 2
	bet1     = 2
	bet2     = 4
)

func rankOf(card int) int { return card / 2 }

type leducGen struct {
	sb       strings.Builder
	infosets []infosetLine
}

// GenerateLeducDescriptor returns the descriptor-format text for the Leduc
// variant described above.
func GenerateLeducDescriptor() string {
	g := &leducGen{}
	g.dealP0("/")

	byName := make(map[string][]string)
	var order []string
	for _, l := range g.infosets {
		if _, ok := byName[l.name]; !ok {
			order = append(order, l.name)
		}
		byName[l.name] = append(byName[l.name], l.path)
	}
	for _, name := range order {
		fmt.Fprintf(&g.sb, "infoset %s 0 %s\n", name, strings.Join(byName[name], " "))
	}

	return g.sb.String()
}

// LoadLeduc generates and parses the Leduc descriptor in one step.
func LoadLeduc() (*Game, error) {
	return Load(GenerateLeducDescriptor())
}

func (g *leducGen) dealP0(path string) {
	probs := make([]string, numCards)
	for c := 0; c < numCards; c++ {
		probs[c] = fmt.Sprintf("%d=%s", c, fracStr(1, numCards))
	}
	g.emitChance(path, probs)
	for c := 0; c < numCards; c++ {
		g.dealP1(path+"C:"+strconv.Itoa(c)+"/", c)
	}
}

func (g *leducGen) dealP1(path string, p0Card int) {
	var probs []string
	for c := 0; c < numCards; c++ {
		if c == p0Card {
			continue
		}
		probs = append(probs, fmt.Sprintf("%d=%s", c, fracStr(1, numCards-1)))
	}
	g.emitChance(path, probs)
	for c := 0; c < numCards; c++ {
		if c == p0Card {
			continue
		}
		g.round(path+"C:"+strconv.Itoa(c)+"/", p0Card, c, -1, 1, [2]int{1, 1}, 0, "", "")
	}
}

// round builds one betting round. roundNum is 1 or 2. observed is the
// cumulative history string used for infoset identity (across both
// rounds); roundHist is the betting history within this round only, used
// to decide legal actions/termination.
func (g *leducGen) round(path string, p0Card, p1Card, pubCard, roundNum int, contrib [2]int, toAct int, observed, roundHist string) {
	// Fold terminals are emitted directly at the call site below (the "f"
	// case), so round() is never re-entered with a roundHist ending in "f";
	// only the settled-without-a-fold endings reach here as a base case.
	switch roundHist {
	case "xx", "bc", "xbc":
		if roundNum == 1 {
			g.dealPublic(path, p0Card, p1Card, contrib, observed)
		} else {
			g.showdown(path, p0Card, p1Card, pubCard, contrib)
		}
		return
	}

	betSize := bet1
	if roundNum == 2 {
		betSize = bet2
	}

	actions := []string{"x", "b"}
	facingBet := roundHist == "b" || roundHist == "xb"
	if facingBet {
		actions = []string{"f", "c"}
	}

	playerName := strconv.Itoa(toAct)
	ownCard := p0Card
	if toAct == 1 {
		ownCard = p1Card
	}
	infosetName := fmt.Sprintf("L_p%s_r%d_c%d_pub%d_%s", playerName, roundNum, ownCard, pubCard, observed)

	g.emitPlayer(path, playerName, actions)
	g.infosets = append(g.infosets, infosetLine{name: infosetName, path: path})

	for _, a := range actions {
		childPath := path + "P" + playerName + ":" + a + "/"
		newContrib := contrib
		newObserved := observed + a
		newRoundHist := roundHist + a
		other := 1 - toAct

		switch a {
		case "b":
			newContrib[toAct] += betSize
			g.round(childPath, p0Card, p1Card, pubCard, roundNum, newContrib, other, newObserved, newRoundHist)
		case "c":
			newContrib[toAct] = newContrib[other]
			g.round(childPath, p0Card, p1Card, pubCard, roundNum, newContrib, other, newObserved, newRoundHist)
		case "x":
			g.round(childPath, p0Card, p1Card, pubCard, roundNum, newContrib, other, newObserved, newRoundHist)
		case "f":
			g.emitFoldTerminal(childPath, toAct, newContrib)
		}
	}
}

func (g *leducGen) dealPublic(path string, p0Card, p1Card int, contrib [2]int, observed string) {
	var probs []string
	var outcomes []int
	for c := 0; c < numCards; c++ {
		if c == p0Card || c == p1Card {
			continue
		}
		outcomes = append(outcomes, c)
	}
	for _, c := range outcomes {
		probs = append(probs, fmt.Sprintf("%d=%s", c, fracStr(1, len(outcomes))))
	}
	g.emitChance(path, probs)
	for _, c := range outcomes {
		g.round(path+"C:"+strconv.Itoa(c)+"/", p0Card, p1Card, c, 2, contrib, 0, observed, "")
	}
}

func (g *leducGen) showdown(path string, p0Card, p1Card, pubCard int, contrib [2]int) {
	if rankOf(p0Card) == rankOf(p1Card) {
		// Both players hold the same rank, so neither pairs: split pot.
		g.emitTerminal(path, 0, 0)
		return
	}
	winner := showdownWinner(p0Card, p1Card, pubCard)
	pot := contrib[0] // contrib[0] == contrib[1] at a genuine showdown
	u0, u1 := -float64(pot), float64(pot)
	if winner == 0 {
		u0, u1 = float64(pot), -float64(pot)
	}
	g.emitTerminal(path, u0, u1)
}

// showdownWinner returns 0 or 1: a pair with the public card beats any
// non-pair; otherwise the higher rank wins. It is only called for hands of
// different rank (the deck holds two cards of each rank, so at most one
// player can pair); showdown handles equal ranks itself as a split pot.
func showdownWinner(p0Card, p1Card, pubCard int) int {
	p0Pair := rankOf(p0Card) == rankOf(pubCard)
	p1Pair := rankOf(p1Card) == rankOf(pubCard)
	switch {
	case p0Pair && !p1Pair:
		return 0
	case p1Pair && !p0Pair:
		return 1
	case rankOf(p0Card) > rankOf(p1Card):
		return 0
	default:
		return 1
	}
}

func (g *leducGen) emitFoldTerminal(path string, folder int, contrib [2]int) {
	other := 1 - folder
	u := make([]float64, 2)
	u[folder] = -float64(contrib[folder])
	u[other] = float64(contrib[folder])
	g.emitTerminal(path, u[0], u[1])
}

type infosetLine struct {
	name string
	path string
}

func (g *leducGen) emitChance(path string, probs []string) {
	fmt.Fprintf(&g.sb, "node %s chance 0 %s\n", path, strings.Join(probs, " "))
}

func (g *leducGen) emitTerminal(path string, u0, u1 float64) {
	fmt.Fprintf(&g.sb, "node %s terminal 0 0=%s 1=%s\n", path, trimFloat(u0), trimFloat(u1))
}

func (g *leducGen) emitPlayer(path, playerName string, actions []string) {
	fmt.Fprintf(&g.sb, "node %s player %s 0 %s\n", path, playerName, strings.Join(actions, " "))
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func fracStr(num, den int) string {
	return strconv.FormatFloat(float64(num)/float64(den), 'g', -1, 64)
}
