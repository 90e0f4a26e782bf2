package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/cfrsolve/sdk/cfr"
)

// A minimal hand-written game: chance picks one of two worlds, then player 0
// picks one of two actions without seeing the chance outcome (one infoset),
// and the game ends.
const toyDescriptor = `
node / chance 0 heads=0.5 tails=0.5
node /C:heads/ player 0 0 a b
node /C:tails/ player 0 0 a b
node /C:heads/P0:a/ terminal 0 0=1 1=-1
node /C:heads/P0:b/ terminal 0 0=-1 1=1
node /C:tails/P0:a/ terminal 0 0=2 1=-2
node /C:tails/P0:b/ terminal 0 0=-2 1=2
infoset I0 0 /C:heads/ /C:tails/
`

func TestToyDescriptorStructure(t *testing.T) {
	g, err := Load(toyDescriptor)
	require.NoError(t, err)

	root := g.Root()
	require.Equal(t, cfr.Chance, root.Kind())
	assert.Equal(t, []float64{0.5, 0.5}, root.ActionProbs())

	heads := root.Step(0) // "heads" sorts before "tails"
	require.Equal(t, cfr.Decision, heads.Kind())
	assert.Equal(t, 0, heads.CurrentPlayer())
	assert.Equal(t, cfr.InfoSetKey("I0"), heads.InfoSet())

	tails := root.Step(1)
	assert.Equal(t, heads.InfoSet(), tails.InfoSet())
	assert.Equal(t, heads.Actions(), tails.Actions())

	leaf := heads.Step(0)
	require.Equal(t, cfr.Terminal, leaf.Kind())
	assert.Equal(t, 1.0, leaf.Utility(0))
	assert.Equal(t, -1.0, leaf.Utility(1))
}

func TestUnknownDirectiveErrors(t *testing.T) {
	_, err := Load("bogus / chance 0 a=1\n")
	assert.Error(t, err)
}
