package osc

import (
	"math"
	"sync"

	"github.com/pfcm/synth"
	"github.com/pfcm/synth/interp"
)

// LFO inputs.
const (
	LFOPitchIn = iota
	LFOVolumeIn
	LFOTypeIn
)

// LFO frequency range, in Hz, for speed values 0 and 1.
const (
	MinLFO = 0.1
	MaxLFO = 20
)

// LFO is a low frequency oscillator with a normal and an inverted output.
type LFO struct {
	mu     sync.Mutex
	osc    *Osc
	volume float64
}

var (
	_ synth.Module  = &LFO{}
	_ synth.Tunable = &LFO{}
)

// NewLFO makes a 2.5Hz sine LFO at half depth.
func NewLFO(samplerate float64) *LFO {
	l := &LFO{osc: New(samplerate), volume: 0.5}
	l.osc.SetFrequency(2.5)
	return l
}

func (*LFO) Info() synth.Info {
	return synth.Info{
		Kind:    synth.KindLFO,
		Inputs:  []string{"Pitch", "Volume", "Osc Type"},
		Outputs: []string{"Out", "Inverted Out"},
	}
}

func (l *LFO) RecvSamples(input int, samples []float64) error {
	s := synth.Sum(samples)
	l.mu.Lock()
	defer l.mu.Unlock()
	switch input {
	case LFOPitchIn:
		l.setSpeed((math.Tanh(s) + 1) * 0.5)
	case LFOVolumeIn:
		l.volume = (math.Tanh(s) + 1) * 0.5
	case LFOTypeIn:
		l.osc.SetWaveform(WaveformFromControl((interp.Clamp(s, -1, 1) + 1) * 0.5))
	default:
		return synth.BadInput(synth.KindLFO, input)
	}
	return nil
}

func (l *LFO) GetSamples(dst []synth.Sample) []synth.Sample {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.osc.Next() * l.volume
	return append(dst, synth.Sample{Output: 0, Value: s}, synth.Sample{Output: 1, Value: -s})
}

func (l *LFO) setSpeed(v float64) {
	l.osc.SetFrequency(interp.L(MinLFO, MaxLFO, interp.Clamp(v, 0, 1)))
}

func (l *LFO) Frequency() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.osc.Frequency()
}

func (*LFO) Params() []string { return []string{"speed", "depth", "wave"} }

func (l *LFO) Set(param string, v float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch param {
	case "speed":
		l.setSpeed(v)
	case "depth":
		l.volume = interp.Clamp(v, 0, 1)
	case "wave":
		l.osc.SetWaveform(WaveformFromControl(v))
	default:
		return synth.UnknownParam(synth.KindLFO, param)
	}
	return nil
}
