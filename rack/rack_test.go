package rack

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfcm/synth"
	"github.com/pfcm/synth/note"
)

var quiet = synth.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

func TestBuildEveryKind(t *testing.T) {
	for _, k := range synth.Kinds() {
		if k == synth.KindOutput {
			continue
		}
		m, err := NewModule(k, Options{SampleRate: 8000})
		require.NoError(t, err, "%v", k)
		assert.Equal(t, k, m.Info().Kind)
	}
	_, err := NewModule(synth.Kind(200), Options{})
	assert.Error(t, err)
	_, err = NewModule(synth.KindOutput, Options{})
	assert.Error(t, err)
}

func TestBuildSkipsOutput(t *testing.T) {
	mods, err := Build([]synth.Kind{synth.KindMCO, synth.KindChorus, synth.KindOutput}, Options{})
	require.NoError(t, err)
	require.Len(t, mods, 2)
	assert.Equal(t, synth.KindMCO, mods[0].Info().Kind)
	assert.Equal(t, synth.KindChorus, mods[1].Info().Kind)
}

func TestPlayThroughChorus(t *testing.T) {
	c, err := New(
		[]synth.Kind{synth.KindMCO, synth.KindChorus, synth.KindOutput},
		DefaultEdges(),
		Options{SampleRate: 44100},
		quiet,
	)
	require.NoError(t, err)
	require.NoError(t, c.Play(note.A4))

	for range 64 {
		c.Tick()
	}
	var peak float64
	for range 44100 / 4 {
		s := c.Tick()
		require.LessOrEqual(t, math.Abs(s), 1.0)
		peak = max(peak, math.Abs(s))
	}
	assert.Greater(t, peak, 0.01)
}

func TestDefault(t *testing.T) {
	c, err := New(Default(), DefaultEdges(), Options{Polyphony: 3}, quiet)
	require.NoError(t, err)
	infos := c.Modules()
	require.Len(t, infos, 4)
	assert.Equal(t, synth.KindOutput, infos[0].Kind)
	assert.Equal(t, synth.KindLFO, infos[3].Kind)
	assert.Equal(t, DefaultEdges(), c.Connections())
	assert.Equal(t, synth.DefaultVolume, c.Volume())

	for _, n := range []note.Note{note.C4, note.D4, note.E4} {
		require.NoError(t, c.Play(n))
	}
	assert.ErrorIs(t, c.Play(note.F4), synth.ErrNoFreeVoice)
}

func TestBadEdges(t *testing.T) {
	_, err := New(Default(), []synth.Connection{{SrcModule: 9}}, Options{}, quiet)
	assert.ErrorIs(t, err, synth.ErrBadModule)
}
