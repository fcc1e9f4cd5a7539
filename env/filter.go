package env

import (
	"fmt"
	"math"
	"sync"

	"github.com/pfcm/synth"
	"github.com/pfcm/synth/interp"
)

// Type selects the envelope of a Filter. The values are the codes sent to
// the filter select input.
type Type byte

const (
	TypeNone  Type = 1
	TypeADBDR Type = 2
	TypeADSR  Type = 3
	TypeOC    Type = 4
	TypeAD    Type = 5
)

var typeNames = map[Type]string{
	TypeNone:  "none",
	TypeADBDR: "adbdr",
	TypeADSR:  "adsr",
	TypeOC:    "oc",
	TypeAD:    "ad",
}

func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("Type(%d)", t)
}

// ParseType looks an envelope type up by name.
func ParseType(s string) (Type, error) {
	for t, n := range typeNames {
		if n == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown envelope type %q", s)
}

// TypeFromCode reads a filter select value: [1, 2) is none, [2, 3) ADBDR and
// so on up to [5, 6) for AD.
func TypeFromCode(v float64) (Type, bool) {
	if !(v >= 1 && v < 6) {
		return 0, false
	}
	return Type(math.Floor(v)), true
}

// New makes an envelope of type t.
func New(t Type, samplerate float64) Envelope {
	switch t {
	case TypeADSR:
		return NewADSR(samplerate)
	case TypeOC:
		return &OC{}
	case TypeAD:
		return AttackDecay(samplerate)
	case TypeNone:
		return None{}
	}
	return NewADBDR(samplerate)
}

// Filter inputs. Inputs 3 to 6 are passed to the envelope's parameters 0 to
// 3.
const (
	FilterSelectIn = iota
	AudioIn
	FilterOpenIn
	ParamIn
)

// Filter is the envelope filter module: an envelope applied to an audio
// input.
type Filter struct {
	samplerate float64

	mu  sync.Mutex
	typ Type
	env Envelope
	in  float64
}

var (
	_ synth.Module  = &Filter{}
	_ synth.Tunable = &Filter{}
)

// NewFilter makes a filter with an ADBDR envelope.
func NewFilter(samplerate float64) *Filter {
	return &Filter{
		samplerate: samplerate,
		typ:        TypeADBDR,
		env:        NewADBDR(samplerate),
	}
}

func (*Filter) Info() synth.Info {
	return synth.Info{
		Kind: synth.KindEnvFilter,
		Inputs: []string{
			"Filter Select", "Audio In", "Filter Open",
			"Attack", "Decay", "Sustain/Break", "Decay 2",
		},
		Outputs: []string{"Audio Out"},
	}
}

func (f *Filter) RecvSamples(input int, samples []float64) error {
	s := synth.Sum(samples)
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case input == FilterSelectIn:
		// the code is read as is, tanh would keep it below 1.
		if t, ok := TypeFromCode(s); ok {
			f.setType(t)
		}
	case input == AudioIn:
		f.in = math.Tanh(s)
	case input == FilterOpenIn:
		f.env.Gate(math.Tanh(s))
	case input >= ParamIn && input < ParamIn+4:
		// not every envelope has every parameter.
		_ = f.env.Take(input-ParamIn, math.Tanh(s))
	default:
		return synth.BadInput(synth.KindEnvFilter, input)
	}
	return nil
}

func (f *Filter) GetSamples(dst []synth.Sample) []synth.Sample {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append(dst, synth.Sample{Output: 0, Value: f.in * f.env.Step()})
}

// Feed sets the audio input and returns the enveloped sample in one go, for
// modules that own their filters.
func (f *Filter) Feed(in float64) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.in = math.Tanh(in)
	return f.in * f.env.Step()
}

// Open opens or closes the gate.
func (f *Filter) Open(open bool) {
	g := 0.0
	if open {
		g = 1
	}
	f.mu.Lock()
	f.env.Gate(g)
	f.mu.Unlock()
}

// Active reports whether the envelope is still sounding.
func (f *Filter) Active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.env.Active()
}

func (f *Filter) Type() Type {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.typ
}

// SetType swaps in a new envelope of type t.
func (f *Filter) SetType(t Type) {
	f.mu.Lock()
	f.setType(t)
	f.mu.Unlock()
}

// setType keeps the current envelope when the type does not change, so a
// held select input does not restart it every tick.
func (f *Filter) setType(t Type) {
	if t == f.typ {
		return
	}
	f.typ = t
	f.env = New(t, f.samplerate)
}

// Longest stage times, in seconds, for time parameters at 1.
const (
	MaxStage  = 2
	MaxDecay2 = 30
)

func (*Filter) Params() []string {
	return []string{"type", "attack", "decay", "sustain", "break", "decay2"}
}

// Set writes a normalised parameter. type picks none, adbdr, adsr, oc, ad
// across [0, 1]. sustain and break both set the level parameter of
// envelopes that have one.
func (f *Filter) Set(param string, v float64) error {
	v = interp.Clamp(v, 0, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	var err error
	switch param {
	case "type":
		f.setType(TypeNone + Type(math.Round(v*4)))
	case "attack":
		err = f.env.Take(0, v*MaxStage)
	case "decay":
		err = f.env.Take(1, v*MaxStage)
	case "sustain", "break":
		err = f.env.Take(2, v)
	case "decay2":
		err = f.env.Take(3, v*MaxDecay2)
	default:
		return synth.UnknownParam(synth.KindEnvFilter, param)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", synth.ErrUnknownParam, err)
	}
	return nil
}
