package ctl

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNorm(t *testing.T) {
	for _, tc := range []struct {
		v    uint8
		want float64
	}{
		{0, 0},
		{127, 1},
		{255, 1},
		{64, 64.0 / 127},
	} {
		assert.InDelta(t, tc.want, MIDI.Norm(tc.v), 1e-12, "%d", tc.v)
	}
	assert.Equal(t, 1.0, ADC12.Norm(4095))
	assert.Zero(t, Slider[int]{}.Norm(3))
	assert.Zero(t, Slider[int]{Max: 10}.Norm(-3))
}

func TestBipolar(t *testing.T) {
	assert.Equal(t, -1.0, Bend.Bipolar(0))
	assert.Equal(t, 1.0, Bend.Bipolar(16383))
	assert.InDelta(t, 0, Bend.Bipolar(8192), 1e-3)
	assert.Equal(t, 1.0, Bend.Bipolar(20000))
}

func TestClamps(t *testing.T) {
	assert.Equal(t, 0.0, Unit(-2.0))
	assert.Equal(t, float32(1), Unit(float32(3)))
	assert.Equal(t, 0.0, Unit(math.NaN()))
	assert.Equal(t, -1.0, Signed(-2.0))
	assert.Equal(t, 0.5, Signed(0.5))
	assert.Equal(t, 0.0, Signed(math.NaN()))
}

func TestKnob(t *testing.T) {
	k := Knob{Step: 0.01}
	for _, tc := range []struct {
		in      float64
		want    float64
		changed bool
	}{
		{0.5, 0.5, true},
		{0.505, 0.5, false},
		{0.495, 0.5, false},
		{0.52, 0.52, true},
		{0, 0, true},
	} {
		got, changed := k.Update(tc.in)
		assert.Equal(t, tc.want, got, "%v", tc.in)
		assert.Equal(t, tc.changed, changed, "%v", tc.in)
	}
}
