package fx

import (
	"math"
	"sync"

	"github.com/pfcm/synth"
	"github.com/pfcm/synth/interp"
	"github.com/pfcm/synth/internal/buffer"
)

// Delay line lengths in samples at 44.1kHz, scaled for other rates.
var (
	combLengths    = [...]float64{1116, 1188, 1277, 1356}
	allpassLengths = [...]float64{556, 441}
)

// Reverb defaults.
const (
	DefaultDiffusion = 0.75
	DefaultDecay     = 0.5
)

// comb is a feedback comb filter.
type comb struct {
	rb *buffer.Ring
	d  float64
}

func newComb(d float64) comb {
	return comb{rb: buffer.NewRing(int(d) + 2), d: d}
}

func (c *comb) next(x, feedback float64) float64 {
	y := x + feedback*c.rb.ReadBack(c.d)
	c.rb.Write(y)
	return y
}

// allpass is a Schroeder allpass diffuser.
type allpass struct {
	comb
}

func (a *allpass) next(x, g float64) float64 {
	d := a.rb.ReadBack(a.d)
	v := x + g*d
	a.rb.Write(v)
	return d - g*v
}

// Reverb is a Schroeder reverb: parallel combs into a chain of allpass
// diffusers, mixed with the dry signal at the gain.
type Reverb struct {
	mu        sync.Mutex
	combs     [len(combLengths)]comb
	allpasses [len(allpassLengths)]allpass
	diffusion float64
	decay     float64
	gain      float64
	in        float64
}

var (
	_ synth.Module  = &Reverb{}
	_ synth.Tunable = &Reverb{}
)

func NewReverb(samplerate float64) *Reverb {
	r := &Reverb{
		diffusion: DefaultDiffusion,
		decay:     DefaultDecay,
		gain:      1,
	}
	scale := samplerate / 44100
	for i, l := range combLengths {
		r.combs[i] = newComb(max(l*scale, 1))
	}
	for i, l := range allpassLengths {
		r.allpasses[i] = allpass{newComb(max(l*scale, 1))}
	}
	return r
}

func (*Reverb) Info() synth.Info {
	return synth.Info{
		Kind:    synth.KindReverb,
		Inputs:  []string{"Audio In", "Gain", "Decay"},
		Outputs: []string{"Audio Out"},
	}
}

func (r *Reverb) RecvSamples(input int, samples []float64) error {
	s := synth.Sum(samples)
	r.mu.Lock()
	defer r.mu.Unlock()
	switch input {
	case AudioIn:
		r.in = s
	case GainIn:
		r.gain = interp.Clamp(s, 0, 1)
	case DecayIn:
		r.decay = interp.Clamp((s+1)*0.5, 0, 1)
	default:
		return synth.BadInput(synth.KindReverb, input)
	}
	return nil
}

func (r *Reverb) GetSamples(dst []synth.Sample) []synth.Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	fb := 0.7 + 0.28*r.decay
	var wet float64
	for i := range r.combs {
		wet += r.combs[i].next(r.in, fb)
	}
	wet /= float64(len(r.combs))
	for i := range r.allpasses {
		wet = r.allpasses[i].next(wet, r.diffusion)
	}
	return append(dst, synth.Sample{Output: 0, Value: math.Tanh(r.in + r.gain*wet)})
}

func (*Reverb) Params() []string { return []string{"gain", "decay", "diffusion"} }

func (r *Reverb) Set(param string, v float64) error {
	v = interp.Clamp(v, 0, 1)
	r.mu.Lock()
	defer r.mu.Unlock()
	switch param {
	case "gain":
		r.gain = v
	case "decay":
		r.decay = v
	case "diffusion":
		// past 0.9 the diffusers ring
		r.diffusion = v * 0.9
	default:
		return synth.UnknownParam(synth.KindReverb, param)
	}
	return nil
}
