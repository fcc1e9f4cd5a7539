// package ctl turns raw controller readings into normalised control values.
package ctl

import (
	"math"

	"golang.org/x/exp/constraints"

	"github.com/pfcm/synth/interp"
)

// Slider describes a control whose raw readings run from 0 to Max.
type Slider[T constraints.Integer] struct {
	Max T
}

// The sliders the synth knows about.
var (
	MIDI  = Slider[uint8]{Max: 127}    // 7 bit controller values
	Bend  = Slider[uint16]{Max: 16383} // 14 bit pitch bend
	ADC12 = Slider[uint16]{Max: 4095}  // 12 bit pots
)

// Norm maps v onto [0, 1]. Readings past Max are clamped.
func (s Slider[T]) Norm(v T) float64 {
	if s.Max <= 0 {
		return 0
	}
	return interp.Clamp(float64(v)/float64(s.Max), 0, 1)
}

// Bipolar maps v onto [-1, 1] with the centre of the range at 0.
func (s Slider[T]) Bipolar(v T) float64 {
	if s.Max <= 0 {
		return 0
	}
	half := float64(s.Max) / 2
	return interp.Clamp((float64(v)-half)/half, -1, 1)
}

// Unit clamps v to [0, 1], mapping NaN to 0.
func Unit[T constraints.Float](v T) T {
	if v != v {
		return 0
	}
	return interp.Clamp(v, 0, 1)
}

// Signed clamps v to [-1, 1], mapping NaN to 0.
func Signed[T constraints.Float](v T) T {
	if v != v {
		return 0
	}
	return interp.Clamp(v, -1, 1)
}

// Knob reports changes in a noisy reading. It holds the last value it
// reported and only reports again once a reading moves further than Step
// from it.
type Knob struct {
	Step float64

	last  float64
	valid bool
}

// Update takes a normalised reading and returns it with true if it should be
// acted on.
func (k *Knob) Update(v float64) (float64, bool) {
	if k.valid && math.Abs(v-k.last) <= k.Step {
		return k.last, false
	}
	k.last, k.valid = v, true
	return v, true
}
