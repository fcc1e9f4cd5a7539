// package fx provides the distortion and reverb modules.
package fx

import (
	"math"
	"sync"

	"github.com/pfcm/synth"
	"github.com/pfcm/synth/interp"
)

const (
	AudioIn = iota
	GainIn
	DecayIn
)

// Overdrive soft clips its input after a gain stage.
type Overdrive struct {
	mu   sync.Mutex
	gain float64
	in   float64
}

var (
	_ synth.Module  = &Overdrive{}
	_ synth.Tunable = &Overdrive{}
)

// DefaultGain is the gain of a new Overdrive.
const DefaultGain = 2.1 * 2.1

// Most gain an overdrive can be set to.
const maxGain = 2.1 * 2.1 * 2.1 * 2.1

func NewOverdrive() *Overdrive { return &Overdrive{gain: DefaultGain} }

func (*Overdrive) Info() synth.Info {
	return synth.Info{
		Kind:    synth.KindOverdrive,
		Inputs:  []string{"Audio In", "Gain"},
		Outputs: []string{"Audio Out"},
	}
}

func (o *Overdrive) RecvSamples(input int, samples []float64) error {
	s := synth.Sum(samples)
	o.mu.Lock()
	defer o.mu.Unlock()
	switch input {
	case AudioIn:
		o.in = s
	case GainIn:
		o.gain = math.Pow(s+1.1, 4)
	default:
		return synth.BadInput(synth.KindOverdrive, input)
	}
	return nil
}

func (o *Overdrive) GetSamples(dst []synth.Sample) []synth.Sample {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append(dst, synth.Sample{Output: 0, Value: math.Tanh(o.in * o.gain)})
}

func (o *Overdrive) Gain() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.gain
}

func (*Overdrive) Params() []string { return []string{"gain"} }

// Set maps gain in [0, 1] onto 1 to the gain an input of 1 would give.
func (o *Overdrive) Set(param string, v float64) error {
	if param != "gain" {
		return synth.UnknownParam(synth.KindOverdrive, param)
	}
	o.mu.Lock()
	o.gain = interp.L(1, maxGain, interp.Clamp(v, 0, 1))
	o.mu.Unlock()
	return nil
}
