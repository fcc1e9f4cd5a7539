package synth

import (
	"math"
	"sync"

	"github.com/pfcm/synth/interp"
)

// DefaultVolume is the volume of a new Output.
const DefaultVolume = 0.5

// Output is the sink at module id 0. It soft clips whatever reaches its
// single input and scales it by the volume.
type Output struct {
	mu     sync.Mutex
	volume float64
	sample float64
}

var (
	_ Module  = &Output{}
	_ Tunable = &Output{}
)

func NewOutput() *Output {
	return &Output{volume: DefaultVolume}
}

func (*Output) Info() Info {
	return Info{Kind: KindOutput, Inputs: []string{"Audio In"}}
}

func (o *Output) RecvSamples(input int, samples []float64) error {
	if input != 0 {
		return BadInput(KindOutput, input)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sample = math.Tanh(Sum(samples)) * o.volume
	return nil
}

// GetSamples appends nothing, the sink has no outputs.
func (*Output) GetSamples(dst []Sample) []Sample { return dst }

// Take returns the sample delivered this tick and resets it, so a tick with
// nothing routed to the sink is silent.
func (o *Output) Take() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := o.sample
	o.sample = 0
	return s
}

// SetVolume sets the output volume, clamped to [0, 1].
func (o *Output) SetVolume(v float64) {
	o.mu.Lock()
	o.volume = interp.Clamp(v, 0, 1)
	o.mu.Unlock()
}

func (o *Output) Volume() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.volume
}

func (*Output) Params() []string { return []string{"volume"} }

func (o *Output) Set(param string, v float64) error {
	if param != "volume" {
		return UnknownParam(KindOutput, param)
	}
	o.SetVolume(v)
	return nil
}
