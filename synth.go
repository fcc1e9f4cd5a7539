// package synth is a modular synthesizer. Modules are wired together by a
// routing table and driven one sample at a time by a scheduler that is paced
// by the audio output.
package synth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pfcm/synth/note"
)

var (
	ErrDuplicate      = errors.New("connection already exists")
	ErrNotConnected   = errors.New("no such connection")
	ErrBadModule      = errors.New("no such module")
	ErrBadOutput      = errors.New("no such output")
	ErrBadInput       = errors.New("no such input")
	ErrAlreadyPlaying = errors.New("note already playing")
	ErrNoFreeVoice    = errors.New("no free oscillators")
	ErrNotPlaying     = errors.New("note not playing")
	ErrNoPlayer       = errors.New("no module can play notes")
	ErrUnknownParam   = errors.New("unknown parameter")
)

// Kind is the type of a module.
type Kind byte

const (
	KindOutput Kind = iota
	KindVCO
	KindLFO
	KindEcho
	KindEnvFilter
	KindChorus
	KindDelay
	KindOverdrive
	KindReverb
	KindMCO
	KindNoise
	KindClock
	KindConst
)

var kindNames = []string{
	KindOutput:    "output",
	KindVCO:       "vco",
	KindLFO:       "lfo",
	KindEcho:      "echo",
	KindEnvFilter: "envfilter",
	KindChorus:    "chorus",
	KindDelay:     "delay",
	KindOverdrive: "overdrive",
	KindReverb:    "reverb",
	KindMCO:       "mco",
	KindNoise:     "noise",
	KindClock:     "clock",
	KindConst:     "const",
}

var kindAliases = map[string]Kind{
	"env": KindEnvFilter,
	"od":  KindOverdrive,
	"osc": KindVCO,
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Kinds lists every module kind in declaration order.
func Kinds() []Kind {
	ks := make([]Kind, len(kindNames))
	for i := range ks {
		ks[i] = Kind(i)
	}
	return ks
}

// ParseKind looks a kind up by name. Case is ignored.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range kindNames {
		if n == s {
			return Kind(i), nil
		}
	}
	if k, ok := kindAliases[s]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("unknown module kind %q", s)
}

func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Info is the static description of a module: its kind and the names of its
// inputs and outputs. The number of names is the number of ports.
type Info struct {
	Kind    Kind
	Inputs  []string
	Outputs []string
}

// Sample is one value produced on one output during a tick.
type Sample struct {
	Output int
	Value  float64
}

// Module is a unit of signal processing. Once per tick the scheduler calls
// GetSamples, then calls RecvSamples once for every input that has at least
// one connection. A module never sees the values delivered in a tick until the
// following GetSamples.
type Module interface {
	// Info describes the ports of the module. It must not change.
	Info() Info
	// RecvSamples delivers the values routed to an input this tick. An
	// unknown input returns an error wrapping ErrBadInput.
	RecvSamples(input int, samples []float64) error
	// GetSamples appends this tick's output values to dst. Silent outputs
	// may be left out.
	GetSamples(dst []Sample) []Sample
}

// Player is a module that can play notes.
type Player interface {
	Play(note.Note) error
	Stop(note.Note) error
}

// Tunable is a module with named parameters. Values are normalised, usually
// to [0, 1] and to [-1, 1] for bipolar parameters, and are clamped by the
// module.
type Tunable interface {
	Params() []string
	Set(param string, v float64) error
}

// Sum adds up samples.
func Sum(samples []float64) float64 {
	var s float64
	for _, v := range samples {
		s += v
	}
	return s
}

// BadInput returns the error a module reports for an unknown input.
func BadInput(k Kind, input int) error {
	return fmt.Errorf("%v input %d: %w", k, input, ErrBadInput)
}

// UnknownParam returns the error a module reports for an unknown parameter.
func UnknownParam(k Kind, param string) error {
	return fmt.Errorf("%v parameter %q: %w", k, param, ErrUnknownParam)
}
