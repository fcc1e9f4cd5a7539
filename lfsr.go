package synth

import (
	"fmt"
	"math"
	"sync"

	"github.com/pfcm/synth/interp"
)

// Noise is a module that uses a 16 bit linear-feedback shift register to make
// white noise. Its one input scales the output.
type Noise struct {
	mu     sync.Mutex
	state  uint16
	taps   uint16
	volume float64
}

const defaultTaps uint16 = 0xd008

var (
	_ Module  = &Noise{}
	_ Tunable = &Noise{}
)

func NewNoise() *Noise {
	return &Noise{
		state:  0xffff,
		taps:   defaultTaps,
		volume: 0.5,
	}
}

func (l *Noise) String() string { return fmt.Sprintf("LFSR(%4x)", l.taps) }

func (*Noise) Info() Info {
	return Info{Kind: KindNoise, Inputs: []string{"Volume"}, Outputs: []string{"Noise"}}
}

func (l *Noise) RecvSamples(input int, samples []float64) error {
	if input != 0 {
		return BadInput(KindNoise, input)
	}
	l.mu.Lock()
	l.volume = (math.Tanh(Sum(samples)) + 1) * 0.5
	l.mu.Unlock()
	return nil
}

func (l *Noise) GetSamples(dst []Sample) []Sample {
	l.mu.Lock()
	defer l.mu.Unlock()
	fb := l.state & 1
	l.state >>= 1
	if fb == 1 {
		l.state ^= l.taps
	}
	v := float64(l.state)/float64(math.MaxUint16)*2 - 1
	return append(dst, Sample{0, v * l.volume})
}

func (*Noise) Params() []string { return []string{"volume"} }

func (l *Noise) Set(param string, v float64) error {
	if param != "volume" {
		return UnknownParam(KindNoise, param)
	}
	l.mu.Lock()
	l.volume = interp.Clamp(v, 0, 1)
	l.mu.Unlock()
	return nil
}
