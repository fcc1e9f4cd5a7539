// package rack builds module graphs from lists of kinds.
package rack

import (
	"fmt"
	"time"

	"github.com/pfcm/synth"
	"github.com/pfcm/synth/delay"
	"github.com/pfcm/synth/env"
	"github.com/pfcm/synth/fx"
	"github.com/pfcm/synth/osc"
	"github.com/pfcm/synth/poly"
)

// Options for the modules in a rack.
type Options struct {
	SampleRate float64
	Polyphony  int
	// Period of Clock modules.
	ClockPeriod time.Duration
}

func (o Options) withDefaults() Options {
	if o.SampleRate <= 0 {
		o.SampleRate = 44100
	}
	if o.Polyphony <= 0 {
		o.Polyphony = poly.DefaultPolyphony
	}
	if o.ClockPeriod <= 0 {
		o.ClockPeriod = 500 * time.Millisecond
	}
	return o
}

// NewModule makes a single module of kind k.
func NewModule(k synth.Kind, o Options) (synth.Module, error) {
	o = o.withDefaults()
	sr := o.SampleRate
	switch k {
	case synth.KindVCO:
		return osc.NewVCO(sr), nil
	case synth.KindLFO:
		return osc.NewLFO(sr), nil
	case synth.KindEcho:
		return delay.NewEcho(sr), nil
	case synth.KindEnvFilter:
		return env.NewFilter(sr), nil
	case synth.KindChorus:
		return delay.NewChorus(sr), nil
	case synth.KindDelay:
		return delay.NewDelay(sr), nil
	case synth.KindOverdrive:
		return fx.NewOverdrive(), nil
	case synth.KindReverb:
		return fx.NewReverb(sr), nil
	case synth.KindMCO:
		return poly.New(o.Polyphony, sr), nil
	case synth.KindNoise:
		return synth.NewNoise(), nil
	case synth.KindClock:
		return synth.Every(o.ClockPeriod, sr), nil
	case synth.KindConst:
		return synth.NewConst(0), nil
	}
	return nil, fmt.Errorf("can not build a module of kind %v", k)
}

// Build makes the modules for kinds in order, so the first gets id 1. Output
// entries refer to the controller's built in sink at id 0 and are skipped;
// the ids of later modules are not shifted by them.
func Build(kinds []synth.Kind, o Options) ([]synth.Module, error) {
	var mods []synth.Module
	for i, k := range kinds {
		if k == synth.KindOutput {
			continue
		}
		m, err := NewModule(k, o)
		if err != nil {
			return nil, fmt.Errorf("module %d: %w", i+1, err)
		}
		mods = append(mods, m)
	}
	return mods, nil
}

// Default is the rack the synth starts with.
func Default() []synth.Kind {
	return []synth.Kind{synth.KindMCO, synth.KindChorus, synth.KindLFO}
}

// DefaultEdges patch the MCO through the chorus to the output.
func DefaultEdges() []synth.Connection {
	return []synth.Connection{
		{SrcModule: 1, SrcOutput: 0, DestModule: 2, DestInput: delay.AudioIn},
		{SrcModule: 2, SrcOutput: 0, DestModule: 0, DestInput: 0},
	}
}

// New builds a controller for kinds and connects edges.
func New(kinds []synth.Kind, edges []synth.Connection, o Options, opts ...synth.Option) (*synth.Controller, error) {
	mods, err := Build(kinds, o)
	if err != nil {
		return nil, err
	}
	c := synth.NewController(mods, opts...)
	for _, e := range edges {
		if err := c.Connect(e.SrcModule, e.SrcOutput, e.DestModule, e.DestInput); err != nil {
			return nil, err
		}
	}
	return c, nil
}
