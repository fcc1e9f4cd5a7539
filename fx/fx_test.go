package fx

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfcm/synth"
)

func next(m synth.Module) float64 {
	return m.GetSamples(nil)[0].Value
}

func TestOverdrive(t *testing.T) {
	for _, tc := range []struct {
		name string
		gain []float64 // nil for the default
		in   float64
		want float64
	}{
		{"silence", nil, 0, 0},
		{"default", nil, 0.1, math.Tanh(0.1 * DefaultGain)},
		{"gain input", []float64{0.4, 0.5}, 0.1, math.Tanh(0.1 * math.Pow(2, 4))},
		{"clips", nil, 100, math.Tanh(100 * DefaultGain)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			o := NewOverdrive()
			if tc.gain != nil {
				require.NoError(t, o.RecvSamples(GainIn, tc.gain))
			}
			require.NoError(t, o.RecvSamples(AudioIn, []float64{tc.in}))
			assert.InDelta(t, tc.want, next(o), 1e-9)
		})
	}
}

func TestOverdriveSet(t *testing.T) {
	o := NewOverdrive()
	require.NoError(t, o.Set("gain", 0))
	assert.Equal(t, 1.0, o.Gain())
	require.NoError(t, o.Set("gain", 2))
	assert.InDelta(t, maxGain, o.Gain(), 1e-9)
	assert.ErrorIs(t, o.Set("volume", 1), synth.ErrUnknownParam)
	assert.ErrorIs(t, o.RecvSamples(2, nil), synth.ErrBadInput)
}

func TestReverbTail(t *testing.T) {
	r := NewReverb(44100)
	require.NoError(t, r.RecvSamples(AudioIn, []float64{1}))
	next(r)
	require.NoError(t, r.RecvSamples(AudioIn, []float64{0}))

	var tail, late float64
	for i := range 44100 {
		v := next(r)
		require.LessOrEqual(t, math.Abs(v), 1.0)
		if i < 4410 {
			tail += math.Abs(v)
		} else if i >= 44100-4410 {
			late += math.Abs(v)
		}
	}
	assert.Greater(t, tail, 0.0, "an impulse rings on")
	assert.Less(t, late, tail, "and dies away")
}

func TestReverbDry(t *testing.T) {
	r := NewReverb(44100)
	require.NoError(t, r.Set("gain", 0))
	require.NoError(t, r.RecvSamples(AudioIn, []float64{0.3}))
	for range 3000 {
		assert.InDelta(t, math.Tanh(0.3), next(r), 1e-9)
	}
}

func TestReverbInputs(t *testing.T) {
	r := NewReverb(8000)
	require.NoError(t, r.RecvSamples(DecayIn, []float64{1}))
	assert.Equal(t, 1.0, r.decay)
	require.NoError(t, r.RecvSamples(GainIn, []float64{-3}))
	assert.Zero(t, r.gain)
	assert.ErrorIs(t, r.RecvSamples(3, nil), synth.ErrBadInput)
	for _, p := range r.Params() {
		assert.NoError(t, r.Set(p, 0.2))
	}
}
