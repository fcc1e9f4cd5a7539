// package poly provides the polyphonic oscillator bank played from MIDI.
package poly

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/pfcm/synth"
	"github.com/pfcm/synth/env"
	"github.com/pfcm/synth/filter"
	"github.com/pfcm/synth/interp"
	"github.com/pfcm/synth/note"
	"github.com/pfcm/synth/osc"
)

// DefaultPolyphony is the number of voices in a new MCO.
const DefaultPolyphony = 10

// MaxPolyphony bounds SetPolyphony.
const MaxPolyphony = 64

// MCO inputs past the envelope filter ones, which are forwarded to every
// voice.
const (
	VolumeIn    = 7
	PitchBendIn = 8
)

// voice is one oscillator through its own envelope and lowpass.
type voice struct {
	vco  *osc.VCO
	env  *env.Filter
	lp   *filter.SVF
	note note.Note
	held bool
}

// MCO is a bank of voices that notes are assigned to as they are played.
type MCO struct {
	samplerate float64

	mu      sync.Mutex
	voices  []*voice
	params  map[string]float64
	scratch []synth.Sample
}

var (
	_ synth.Module  = &MCO{}
	_ synth.Player  = &MCO{}
	_ synth.Tunable = &MCO{}
)

// New makes an MCO with n voices.
func New(n int, samplerate float64) *MCO {
	m := &MCO{
		samplerate: samplerate,
		params:     make(map[string]float64),
	}
	m.resize(n)
	return m
}

var inputs = append(env.NewFilter(1).Info().Inputs, "Volume", "Pitch Bend")

func (*MCO) Info() synth.Info {
	return synth.Info{
		Kind:    synth.KindMCO,
		Inputs:  slices.Clone(inputs),
		Outputs: []string{"Audio Out"},
	}
}

func (m *MCO) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fmt.Sprintf("MCO(%d/%d)", len(m.held()), len(m.voices))
}

func (m *MCO) RecvSamples(input int, samples []float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var vin int
	switch {
	case input >= 0 && input < VolumeIn:
		for _, v := range m.voices {
			if err := v.env.RecvSamples(input, samples); err != nil {
				return err
			}
		}
		return nil
	case input == VolumeIn:
		vin = osc.VolumeIn
	case input == PitchBendIn:
		vin = osc.PitchBendIn
	default:
		return synth.BadInput(synth.KindMCO, input)
	}
	for _, v := range m.voices {
		if err := v.vco.RecvSamples(vin, samples); err != nil {
			return err
		}
	}
	return nil
}

func (m *MCO) GetSamples(dst []synth.Sample) []synth.Sample {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum float64
	for _, v := range m.voices {
		m.scratch = v.vco.GetSamples(m.scratch[:0])
		var s float64
		for _, x := range m.scratch {
			s += x.Value
		}
		sum += v.lp.Lowpass(v.env.Feed(s))
	}
	return append(dst, synth.Sample{Output: 0, Value: math.Tanh(sum)})
}

// Play assigns n to the first free voice and opens its envelope.
func (m *MCO) Play(n note.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.find(n) >= 0 {
		return fmt.Errorf("%v: %w", n, synth.ErrAlreadyPlaying)
	}
	for _, v := range m.voices {
		if v.held {
			continue
		}
		v.held = true
		v.note = n
		v.vco.SetNote(n)
		v.env.Open(true)
		return nil
	}
	return fmt.Errorf("%v: %w", n, synth.ErrNoFreeVoice)
}

// Stop releases the voice playing n. The voice is free straight away, its
// envelope carries on through the release.
func (m *MCO) Stop(n note.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(n)
	if i < 0 {
		return fmt.Errorf("%v: %w", n, synth.ErrNotPlaying)
	}
	m.voices[i].held = false
	m.voices[i].env.Open(false)
	return nil
}

func (m *MCO) find(n note.Note) int {
	return slices.IndexFunc(m.voices, func(v *voice) bool { return v.held && v.note == n })
}

// Notes returns the notes being held, in voice order.
func (m *MCO) Notes() []note.Note {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held()
}

func (m *MCO) held() []note.Note {
	var ns []note.Note
	for _, v := range m.voices {
		if v.held {
			ns = append(ns, v.note)
		}
	}
	return ns
}

func (m *MCO) Polyphony() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.voices)
}

// SetPolyphony changes the number of voices, clamped to [1, MaxPolyphony].
// New voices pick up the current settings. Shrinking drops the last voices
// along with any notes they were playing.
func (m *MCO) SetPolyphony(n int) {
	m.mu.Lock()
	m.resize(n)
	m.mu.Unlock()
}

func (m *MCO) resize(n int) {
	n = interp.Clamp(n, 1, MaxPolyphony)
	if n <= len(m.voices) {
		clear(m.voices[n:])
		m.voices = m.voices[:n]
		return
	}
	for len(m.voices) < n {
		v := &voice{
			vco: osc.NewVCO(m.samplerate),
			env: env.NewFilter(m.samplerate),
			lp:  filter.NewSVF(m.samplerate),
		}
		for _, p := range m.Params() {
			if x, ok := m.params[p]; ok {
				_ = v.set(p, x)
			}
		}
		m.voices = append(m.voices, v)
	}
}

// Params are applied to new voices in this order, so env comes before the
// envelope times it would otherwise reset.
func (*MCO) Params() []string {
	return []string{
		"volume", "wave", "overtones", "bend",
		"env", "attack", "decay", "sustain", "break", "decay2",
		"cutoff", "resonance",
	}
}

// Set applies a parameter to every voice. Envelope parameters that the
// current envelope type lacks are ignored, bend is in [-1, 1] and the rest
// are in [0, 1].
func (m *MCO) Set(param string, x float64) error {
	if !slices.Contains(m.Params(), param) {
		return synth.UnknownParam(synth.KindMCO, param)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.params[param] = x
	var errs []error
	for _, v := range m.voices {
		errs = append(errs, v.set(param, x))
	}
	return errors.Join(errs...)
}

func (v *voice) set(param string, x float64) error {
	switch param {
	case "volume", "wave", "overtones", "bend":
		return v.vco.Set(param, x)
	case "env":
		return v.env.Set("type", x)
	case "attack", "decay", "sustain", "break", "decay2":
		if err := v.env.Set(param, x); err != nil && !errors.Is(err, synth.ErrUnknownParam) {
			return err
		}
	case "cutoff":
		v.lp.SetCutoff(filter.CutoffFromControl(x))
	case "resonance":
		v.lp.SetQ(filter.QFromControl(x))
	}
	return nil
}

// SetWaveform sets the waveform of every voice.
func (m *MCO) SetWaveform(w osc.Waveform) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.params["wave"] = float64(w) / float64(osc.Saw)
	for _, v := range m.voices {
		v.vco.SetWaveform(w)
	}
}

// SetEnvelope sets the envelope type of every voice.
func (m *MCO) SetEnvelope(t env.Type) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.params["env"] = float64(t-env.TypeNone) / 4
	for _, v := range m.voices {
		v.env.SetType(t)
	}
}
