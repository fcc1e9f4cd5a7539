package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPorts() []Info {
	return []Info{
		NewOutput().Info(),
		{Kind: KindVCO, Inputs: []string{"a", "b", "c"}, Outputs: []string{"out"}},
		{Kind: KindLFO, Inputs: []string{"a"}, Outputs: []string{"out", "inv"}},
	}
}

func TestTableDuplicates(t *testing.T) {
	tab := NewTable(testPorts())
	c := edge(1, 0, 2, 0)
	require.NoError(t, tab.Add(c))
	assert.Equal(t, 1, tab.Len())
	err := tab.Add(c)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Equal(t, 1, tab.Len())
}

func TestTableDisconnectSymmetry(t *testing.T) {
	tab := NewTable(testPorts())
	require.NoError(t, tab.Add(edge(2, 1, 1, 2)))
	require.NoError(t, tab.Add(edge(2, 0, 0, 0)))
	before := tab.List()

	require.NoError(t, tab.Add(edge(1, 0, 2, 0)))
	require.NoError(t, tab.Remove(edge(1, 0, 2, 0)))
	assert.Equal(t, before, tab.List())

	assert.ErrorIs(t, tab.Remove(edge(1, 0, 2, 0)), ErrNotConnected)
}

func TestTableValidate(t *testing.T) {
	tab := NewTable(testPorts())
	for _, c := range []struct {
		c    Connection
		want error
	}{
		{edge(0, 0, 1, 0), ErrBadModule},
		{edge(3, 0, 1, 0), ErrBadModule},
		{edge(-1, 0, 1, 0), ErrBadModule},
		{edge(1, 0, 3, 0), ErrBadModule},
		{edge(1, 1, 2, 0), ErrBadOutput},
		{edge(2, 2, 1, 0), ErrBadOutput},
		{edge(2, 0, 1, 3), ErrBadInput},
		{edge(1, 0, 0, 1), ErrBadInput},
		{edge(1, 0, 1, 2), nil},
		{edge(2, 1, 0, 0), nil},
	} {
		err := tab.Add(c.c)
		if c.want == nil {
			assert.NoError(t, err, "%v", c.c)
		} else {
			assert.ErrorIs(t, err, c.want, "%v", c.c)
		}
	}
	assert.Equal(t, 2, tab.Len())
}

func TestTableSnapshotIsStable(t *testing.T) {
	tab := NewTable(testPorts())
	require.NoError(t, tab.Add(edge(1, 0, 2, 0)))
	snap := tab.Snapshot()
	require.NoError(t, tab.Add(edge(2, 0, 0, 0)))
	require.NoError(t, tab.Remove(edge(1, 0, 2, 0)))
	assert.Equal(t, []Connection{edge(1, 0, 2, 0)}, snap)
	assert.Equal(t, []Connection{edge(2, 0, 0, 0)}, tab.List())

	list := tab.List()
	list[0] = edge(1, 0, 1, 0)
	assert.Equal(t, []Connection{edge(2, 0, 0, 0)}, tab.List())

	tab.Clear()
	assert.Equal(t, 0, tab.Len())
	assert.Empty(t, tab.List())
}

func TestConnectionString(t *testing.T) {
	assert.Equal(t, "1:0 -> 0:0", edge(1, 0, 0, 0).String())
}
