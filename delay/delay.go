// package delay provides some delay lines.
package delay

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/pfcm/synth"
	"github.com/pfcm/synth/interp"
	"github.com/pfcm/synth/internal/buffer"
)

// Inputs shared by every module in the package.
const (
	AudioIn = iota
	SpeedIn
	DecayIn
)

// Buffer lengths.
const (
	EchoTime  = 5 * time.Second
	DelayTime = time.Second
)

// line is a feedback delay line with a read index that walks the buffer and
// a step, in samples, that sets how far ahead of it the feedback lands.
type line struct {
	rb     *buffer.Ring
	i      int
	step   int
	volume float64
}

func newLine(length time.Duration, samplerate float64) line {
	return line{rb: buffer.NewRing(int(length.Seconds() * samplerate))}
}

// setSpeed sets the step as a fraction of a second of samples.
func (l *line) setSpeed(speed, samplerate float64) {
	l.step = int(max(speed, 0) * samplerate)
}

// Echo is a tape-style echo with a five second loop. The feedback is
// averaged with the input, so repeats die away at the decay volume.
type Echo struct {
	samplerate float64

	mu sync.Mutex
	line
	in float64
}

var (
	_ synth.Module  = &Echo{}
	_ synth.Tunable = &Echo{}
)

func NewEcho(samplerate float64) *Echo {
	e := &Echo{samplerate: samplerate, line: newLine(EchoTime, samplerate)}
	e.volume = 1
	return e
}

func (e *Echo) String() string { return fmt.Sprintf("Echo(%d)", e.rb.Len()) }

func (*Echo) Info() synth.Info {
	return synth.Info{
		Kind:    synth.KindEcho,
		Inputs:  []string{"Audio In", "Speed", "Decay"},
		Outputs: []string{"Audio Out"},
	}
}

func (e *Echo) RecvSamples(input int, samples []float64) error {
	s := math.Tanh(synth.Sum(samples))
	e.mu.Lock()
	defer e.mu.Unlock()
	switch input {
	case AudioIn:
		e.in = s
	case SpeedIn:
		e.setSpeed(s, e.samplerate)
	case DecayIn:
		e.volume = s
	default:
		return synth.BadInput(synth.KindEcho, input)
	}
	return nil
}

func (e *Echo) GetSamples(dst []synth.Sample) []synth.Sample {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := (e.rb.At(e.i)*e.volume + e.in) * 0.5
	e.rb.Set(e.i, out)
	e.i = (e.i + 1 + e.step) % e.rb.Len()
	return append(dst, synth.Sample{Output: 0, Value: out})
}

func (*Echo) Params() []string { return []string{"speed", "decay"} }

func (e *Echo) Set(param string, v float64) error {
	v = interp.Clamp(v, 0, 1)
	e.mu.Lock()
	defer e.mu.Unlock()
	switch param {
	case "speed":
		e.setSpeed(v, e.samplerate)
	case "decay":
		e.volume = v
	default:
		return synth.UnknownParam(synth.KindEcho, param)
	}
	return nil
}

// Delay is a one second feedback delay. Its output is soft clipped and
// written back ahead of the read index, so the speed sets the delay time.
type Delay struct {
	samplerate float64

	mu sync.Mutex
	line
	in float64
}

var (
	_ synth.Module  = &Delay{}
	_ synth.Tunable = &Delay{}
)

// Defaults for a new Delay.
const (
	DefaultSpeed  = 0.65
	DefaultVolume = 0.75
)

func NewDelay(samplerate float64) *Delay {
	d := &Delay{samplerate: samplerate, line: newLine(DelayTime, samplerate)}
	d.volume = DefaultVolume
	d.setSpeed(DefaultSpeed, samplerate)
	return d
}

func (d *Delay) String() string { return fmt.Sprintf("Delay(%d)", d.rb.Len()) }

func (*Delay) Info() synth.Info {
	return synth.Info{
		Kind:    synth.KindDelay,
		Inputs:  []string{"Audio In", "Speed", "Decay"},
		Outputs: []string{"Audio Out"},
	}
}

func (d *Delay) RecvSamples(input int, samples []float64) error {
	s := math.Tanh(synth.Sum(samples))
	d.mu.Lock()
	defer d.mu.Unlock()
	switch input {
	case AudioIn:
		d.in = s
	case SpeedIn:
		// bipolar control onto [0, 1]
		d.setSpeed((s+1)*0.5, d.samplerate)
	case DecayIn:
		d.volume = s
	default:
		return synth.BadInput(synth.KindDelay, input)
	}
	return nil
}

func (d *Delay) GetSamples(dst []synth.Sample) []synth.Sample {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := math.Tanh(d.rb.At(d.i)*d.volume + d.in)
	d.rb.Set(d.i+d.step, out)
	d.i = (d.i + 1) % d.rb.Len()
	return append(dst, synth.Sample{Output: 0, Value: out})
}

func (*Delay) Params() []string { return []string{"speed", "decay"} }

func (d *Delay) Set(param string, v float64) error {
	v = interp.Clamp(v, 0, 1)
	d.mu.Lock()
	defer d.mu.Unlock()
	switch param {
	case "speed":
		d.setSpeed(v, d.samplerate)
	case "decay":
		d.volume = v
	default:
		return synth.UnknownParam(synth.KindDelay, param)
	}
	return nil
}
