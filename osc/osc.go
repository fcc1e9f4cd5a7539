// package osc provides oscillators.
package osc

import (
	"fmt"
	"math"
	"strings"

	"github.com/pfcm/synth/interp"
)

// Waveform selects the table an oscillator plays.
type Waveform byte

const (
	Sine Waveform = iota
	Square
	Triangle
	Saw
)

var waveNames = []string{
	Sine:     "sine",
	Square:   "square",
	Triangle: "triangle",
	Saw:      "saw",
}

func (w Waveform) String() string {
	if int(w) < len(waveNames) {
		return waveNames[w]
	}
	return fmt.Sprintf("Waveform(%d)", w)
}

// ParseWaveform accepts the waveform names and the short forms sin, squ,
// tri and sawtooth.
func ParseWaveform(s string) (Waveform, error) {
	switch strings.ToLower(s) {
	case "sine", "sin":
		return Sine, nil
	case "square", "squ":
		return Square, nil
	case "triangle", "tri":
		return Triangle, nil
	case "saw", "sawtooth", "saw-tooth":
		return Saw, nil
	}
	return 0, fmt.Errorf("unknown waveform %q", s)
}

// WaveformFromControl maps a control value in [0, 1] onto the waveforms in
// declaration order.
func WaveformFromControl(v float64) Waveform {
	return Waveform(math.Round(interp.Clamp(v, 0, 1) * float64(len(waveNames)-1)))
}

// BendRange is the frequency ratio of a full pitch bend: two semitones.
var BendRange = math.Pow(2, 2.0/12)

const tableSize = 256

// table is one cycle of a waveform. Tables flagged nn are read without
// interpolation to keep their edges sharp.
type table struct {
	tab []float64
	nn  bool
}

var tables = func() []table {
	ts := make([]table, len(waveNames))
	sine := make([]float64, tableSize)
	tri := make([]float64, tableSize)
	saw := make([]float64, tableSize)
	for i := range sine {
		p := float64(i) / tableSize
		sine[i] = math.Sin(2 * math.Pi * p)
		switch {
		case p < 0.25:
			tri[i] = 4 * p
		case p < 0.75:
			tri[i] = 2 - 4*p
		default:
			tri[i] = 4*p - 4
		}
		saw[i] = 2*p - 1
	}
	ts[Sine] = table{tab: sine}
	ts[Square] = table{tab: []float64{1, -1}, nn: true}
	ts[Triangle] = table{tab: tri}
	ts[Saw] = table{tab: saw, nn: true}
	return ts
}()

// Osc is a wavetable oscillator. Its phase is kept in cycles so that changing
// waveform does not jump.
type Osc struct {
	samplerate float64
	wave       Waveform
	phase      float64
	freq       float64
	bend       float64
	step       float64
}

// New makes a sine oscillator at A4.
func New(samplerate float64) *Osc {
	o := &Osc{samplerate: samplerate, bend: 1}
	o.SetFrequency(440)
	return o
}

func (o *Osc) Waveform() Waveform { return o.wave }

func (o *Osc) SetWaveform(w Waveform) {
	if int(w) < len(tables) {
		o.wave = w
	}
}

func (o *Osc) Frequency() float64 { return o.freq }

// SetFrequency sets the frequency in Hz. Values that are not positive and
// finite are ignored; values above Nyquist are clamped to it.
func (o *Osc) SetFrequency(hz float64) {
	if !(hz > 0) || math.IsInf(hz, 0) {
		return
	}
	o.freq = min(hz, o.samplerate/2)
	o.update()
}

// SetBend bends the pitch by up to BendRange either way, b is in [-1, 1].
func (o *Osc) SetBend(b float64) {
	o.bend = math.Pow(BendRange, interp.Clamp(b, -1, 1))
	o.update()
}

func (o *Osc) update() {
	o.step = o.freq * o.bend / o.samplerate
}

// Next returns the current sample and advances the phase.
func (o *Osc) Next() float64 {
	s := o.At(o.phase)
	o.phase += o.step
	o.phase -= math.Floor(o.phase)
	return s
}

// At reads the current waveform at a phase in cycles.
func (o *Osc) At(phase float64) float64 {
	t := tables[o.wave]
	n := float64(len(t.tab))
	pos := (phase - math.Floor(phase)) * n
	j := int(pos) % len(t.tab)
	if t.nn {
		return t.tab[j]
	}
	k := (j + 1) % len(t.tab)
	return interp.L(t.tab[j], t.tab[k], pos-math.Floor(pos))
}

// Phase returns the phase in cycles, in [0, 1).
func (o *Osc) Phase() float64 { return o.phase }
