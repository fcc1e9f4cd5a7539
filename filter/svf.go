// package filter provides filters.
package filter

import (
	"fmt"
	"math"

	"github.com/pfcm/synth/interp"
)

// Cutoff and resonance ranges for normalised control values.
const (
	MinCutoff = 20
	MaxCutoff = 20000
	MinQ      = 0.5
	MaxQ      = 10
)

// SVF is a topology preserving transform state variable filter, as in
// Andrew Simper's "Linear Trapezoidal Integrated SVF".
type SVF struct {
	samplerate float64
	cutoff, q  float64

	// coefficients
	k, a1, a2, a3 float64
	// integrator state
	ic1, ic2 float64
}

// NewSVF makes a filter with its cutoff and resonance half way up their
// ranges.
func NewSVF(samplerate float64) *SVF {
	s := &SVF{samplerate: samplerate}
	s.SetCutoff(CutoffFromControl(0.5))
	s.SetQ(QFromControl(0.5))
	return s
}

func (s *SVF) String() string { return fmt.Sprintf("SVF(%.1fHz, Q%.2f)", s.cutoff, s.q) }

// CutoffFromControl maps [0, 1] onto MinCutoff to MaxCutoff, exponentially.
func CutoffFromControl(v float64) float64 {
	v = interp.Clamp(v, 0, 1)
	return MinCutoff * math.Pow(MaxCutoff/MinCutoff, v)
}

// QFromControl maps [0, 1] onto MinQ to MaxQ.
func QFromControl(v float64) float64 {
	return interp.L(MinQ, MaxQ, interp.Clamp(v, 0, 1))
}

func (s *SVF) Cutoff() float64 { return s.cutoff }
func (s *SVF) Q() float64      { return s.q }

// SetCutoff sets the cutoff in Hz. It is kept below Nyquist.
func (s *SVF) SetCutoff(hz float64) {
	s.cutoff = max(hz, 0)
	s.update()
}

// SetQ sets the resonance. Tiny values are clamped to keep k finite.
func (s *SVF) SetQ(q float64) {
	s.q = max(q, 1e-6)
	s.update()
}

func (s *SVF) update() {
	g := math.Tan(math.Pi * min(0.499, s.cutoff/s.samplerate))
	s.k = 1 / s.q
	s.a1 = 1 / (1 + g*(g+s.k))
	s.a2 = g * s.a1
	s.a3 = g * s.a2
}

// Next filters one sample, returning the lowpass, bandpass and highpass
// outputs.
func (s *SVF) Next(x float64) (lp, bp, hp float64) {
	v3 := x - s.ic2
	v1 := s.a1*s.ic1 + s.a2*v3
	v2 := s.ic2 + s.a2*s.ic1 + s.a3*v3
	s.ic1 = 2*v1 - s.ic1
	s.ic2 = 2*v2 - s.ic2
	return v2, v1, x - s.k*v1 - v2
}

// Lowpass filters one sample and returns only the lowpass output.
func (s *SVF) Lowpass(x float64) float64 {
	lp, _, _ := s.Next(x)
	return lp
}

// Reset clears the integrators.
func (s *SVF) Reset() { s.ic1, s.ic2 = 0, 0 }
