package osc

import (
	"math"
	"sync"

	"github.com/pfcm/synth"
	"github.com/pfcm/synth/interp"
	"github.com/pfcm/synth/note"
)

// VCO inputs.
const (
	VolumeIn = iota
	PitchIn
	PitchBendIn
)

// VCO is a voltage controlled oscillator module. The pitch input transposes
// the current note by up to an octave either way.
type VCO struct {
	mu        sync.Mutex
	osc       *Osc
	note      note.Note
	volume    float64
	transpose float64
	overtones bool
}

var (
	_ synth.Module  = &VCO{}
	_ synth.Tunable = &VCO{}
)

func NewVCO(samplerate float64) *VCO {
	v := &VCO{
		osc:    New(samplerate),
		note:   note.A4,
		volume: 1,
	}
	v.retune()
	return v
}

func (*VCO) Info() synth.Info {
	return synth.Info{
		Kind:    synth.KindVCO,
		Inputs:  []string{"Volume", "Pitch", "Pitch Bend"},
		Outputs: []string{"Audio Out"},
	}
}

func (v *VCO) RecvSamples(input int, samples []float64) error {
	s := math.Tanh(synth.Sum(samples))
	v.mu.Lock()
	defer v.mu.Unlock()
	switch input {
	case VolumeIn:
		v.volume = s*0.5 + 0.5
	case PitchIn:
		v.transpose = s
		v.retune()
	case PitchBendIn:
		v.osc.SetBend(s)
	default:
		return synth.BadInput(synth.KindVCO, input)
	}
	return nil
}

func (v *VCO) GetSamples(dst []synth.Sample) []synth.Sample {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append(dst, synth.Sample{Output: 0, Value: v.next()})
}

// next is the volume scaled sample, mixing in the second and third
// harmonics when overtones are on.
func (v *VCO) next() float64 {
	if !v.overtones {
		return v.osc.Next() * v.volume
	}
	p := v.osc.Phase()
	s := v.osc.Next() + 0.5*v.osc.At(2*p) + 0.25*v.osc.At(3*p)
	return s / 1.75 * v.volume
}

// SetNote tunes the oscillator to n.
func (v *VCO) SetNote(n note.Note) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.note = n
	v.retune()
}

func (v *VCO) Note() note.Note {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.note
}

func (v *VCO) Frequency() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.osc.Frequency()
}

func (v *VCO) retune() {
	v.osc.SetFrequency(v.note.Frequency() * math.Pow(2, v.transpose))
}

func (v *VCO) Waveform() Waveform {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.osc.Waveform()
}

// SetWaveform changes the waveform.
func (v *VCO) SetWaveform(w Waveform) {
	v.mu.Lock()
	v.osc.SetWaveform(w)
	v.mu.Unlock()
}

func (*VCO) Params() []string { return []string{"volume", "wave", "overtones", "bend"} }

func (v *VCO) Set(param string, x float64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	switch param {
	case "volume":
		v.volume = interp.Clamp(x, 0, 1)
	case "wave":
		v.osc.SetWaveform(WaveformFromControl(x))
	case "overtones":
		v.overtones = x >= 0.5
	case "bend":
		v.osc.SetBend(x)
	default:
		return synth.UnknownParam(synth.KindVCO, param)
	}
	return nil
}
