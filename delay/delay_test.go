package delay

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfcm/synth"
)

const sr = 100

func next(m synth.Module) float64 {
	return m.GetSamples(nil)[0].Value
}

func TestEchoRepeats(t *testing.T) {
	e := NewEcho(sr)
	assert.Equal(t, 5*sr, e.rb.Len())

	require.NoError(t, e.RecvSamples(AudioIn, []float64{1}))
	first := next(e)
	assert.InDelta(t, math.Tanh(1)*0.5, first, 1e-9)

	require.NoError(t, e.RecvSamples(AudioIn, []float64{0}))
	for range e.rb.Len() - 1 {
		next(e)
	}
	// back round to the first slot, at full decay volume.
	assert.InDelta(t, first*0.5, next(e), 1e-9)
}

func TestEchoBounded(t *testing.T) {
	e := NewEcho(sr)
	require.NoError(t, e.RecvSamples(SpeedIn, []float64{0.3}))
	require.NoError(t, e.RecvSamples(DecayIn, []float64{10}))
	require.NoError(t, e.RecvSamples(AudioIn, []float64{10}))
	for range 10 * sr {
		v := next(e)
		require.LessOrEqual(t, math.Abs(v), 1.0)
	}
}

func TestDelay(t *testing.T) {
	d := NewDelay(sr)
	assert.Equal(t, sr, d.rb.Len())
	assert.Equal(t, int(DefaultSpeed*sr), d.step)

	require.NoError(t, d.RecvSamples(AudioIn, []float64{1}))
	assert.InDelta(t, math.Tanh(math.Tanh(1)), next(d), 1e-9)
	require.NoError(t, d.RecvSamples(AudioIn, []float64{0}))

	// the first sample was written step slots ahead of where it was read.
	var got []float64
	for range d.step {
		got = append(got, next(d))
	}
	for _, v := range got[:len(got)-1] {
		assert.Zero(t, v)
	}
	assert.NotZero(t, got[len(got)-1])
}

func TestDelaySpeedInput(t *testing.T) {
	d := NewDelay(sr)
	require.NoError(t, d.RecvSamples(SpeedIn, []float64{0}))
	assert.Equal(t, sr/2, d.step)
	require.NoError(t, d.Set("speed", 0))
	assert.Zero(t, d.step)
}

func TestChorusBounded(t *testing.T) {
	c := NewChorus(44100)
	require.NoError(t, c.Set("depth", 1))
	require.NoError(t, c.Set("speed", 1))
	var nonzero bool
	for i := range 44100 {
		require.NoError(t, c.RecvSamples(AudioIn, []float64{math.Sin(float64(i) * 0.05)}))
		v := next(c)
		require.LessOrEqual(t, math.Abs(v), 1.0)
		nonzero = nonzero || v != 0
	}
	assert.True(t, nonzero)
}

func TestChorusDryMix(t *testing.T) {
	c := NewChorus(sr * 100)
	require.NoError(t, c.Set("mix", 0))
	require.NoError(t, c.RecvSamples(AudioIn, []float64{0.5}))
	assert.InDelta(t, math.Tanh(math.Tanh(0.5)), next(c), 1e-9)
}

func TestBadInputsAndParams(t *testing.T) {
	for _, m := range []interface {
		synth.Module
		synth.Tunable
	}{NewEcho(sr), NewDelay(sr), NewChorus(sr)} {
		assert.ErrorIs(t, m.RecvSamples(3, []float64{1}), synth.ErrBadInput, "%v", m.Info().Kind)
		assert.ErrorIs(t, m.Set("nope", 1), synth.ErrUnknownParam, "%v", m.Info().Kind)
		for _, p := range m.Params() {
			assert.NoError(t, m.Set(p, 0.5), "%v %s", m.Info().Kind, p)
		}
	}
}
