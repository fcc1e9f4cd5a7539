package delay

import (
	"math"
	"sync"

	"github.com/pfcm/synth"
	"github.com/pfcm/synth/interp"
	"github.com/pfcm/synth/internal/buffer"
	"github.com/pfcm/synth/osc"
)

// Chorus ranges, in seconds and Hz.
const (
	ChorusBase     = 0.015
	ChorusMaxDepth = 0.01
	ChorusMinRate  = 0.05
	ChorusMaxRate  = 5
)

// Chorus mixes the input with a copy read back from a delay line whose
// length is swept by a sine LFO.
type Chorus struct {
	samplerate float64

	mu    sync.Mutex
	rb    *buffer.Ring
	lfo   *osc.Osc
	depth float64 // seconds
	mix   float64
	in    float64
}

var (
	_ synth.Module  = &Chorus{}
	_ synth.Tunable = &Chorus{}
)

func NewChorus(samplerate float64) *Chorus {
	c := &Chorus{
		samplerate: samplerate,
		rb:         buffer.NewRing(int((ChorusBase+ChorusMaxDepth)*samplerate) + 2),
		lfo:        osc.New(samplerate),
		depth:      0.004,
		mix:        0.5,
	}
	c.lfo.SetFrequency(0.8)
	return c
}

func (*Chorus) Info() synth.Info {
	return synth.Info{
		Kind:    synth.KindChorus,
		Inputs:  []string{"Audio In", "Speed", "Depth"},
		Outputs: []string{"Audio Out"},
	}
}

func (c *Chorus) RecvSamples(input int, samples []float64) error {
	s := math.Tanh(synth.Sum(samples))
	c.mu.Lock()
	defer c.mu.Unlock()
	switch input {
	case AudioIn:
		c.in = s
	case SpeedIn:
		c.setRate((s + 1) * 0.5)
	case DecayIn:
		c.depth = (s + 1) * 0.5 * ChorusMaxDepth
	default:
		return synth.BadInput(synth.KindChorus, input)
	}
	return nil
}

func (c *Chorus) setRate(v float64) {
	c.lfo.SetFrequency(interp.L(ChorusMinRate, ChorusMaxRate, v))
}

func (c *Chorus) GetSamples(dst []synth.Sample) []synth.Sample {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rb.Write(c.in)
	d := (ChorusBase + c.depth*0.5*(1+c.lfo.Next())) * c.samplerate
	wet := c.rb.ReadBack(d)
	out := math.Tanh(interp.L(c.in, wet, c.mix))
	return append(dst, synth.Sample{Output: 0, Value: out})
}

func (*Chorus) Params() []string { return []string{"speed", "depth", "mix"} }

func (c *Chorus) Set(param string, v float64) error {
	v = interp.Clamp(v, 0, 1)
	c.mu.Lock()
	defer c.mu.Unlock()
	switch param {
	case "speed":
		c.setRate(v)
	case "depth":
		c.depth = v * ChorusMaxDepth
	case "mix":
		c.mix = v
	default:
		return synth.UnknownParam(synth.KindChorus, param)
	}
	return nil
}
