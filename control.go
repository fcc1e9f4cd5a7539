package synth

import (
	"fmt"
	"sync"
	"time"

	"github.com/pfcm/synth/interp"
)

// Const is a module that always outputs the same value. It is handy for
// holding an input at a level, such as an envelope filter's type select.
type Const struct {
	mu  sync.Mutex
	val float64
}

var (
	_ Module  = &Const{}
	_ Tunable = &Const{}
)

func NewConst(v float64) *Const { return &Const{val: v} }

func (c *Const) String() string { return fmt.Sprintf("Const(%v)", c.val) }

func (*Const) Info() Info {
	return Info{Kind: KindConst, Outputs: []string{"Out"}}
}

func (*Const) RecvSamples(input int, _ []float64) error { return BadInput(KindConst, input) }

func (c *Const) GetSamples(dst []Sample) []Sample {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append(dst, Sample{0, c.val})
}

func (*Const) Params() []string { return []string{"value"} }

// Set sets the value directly, it is not normalised.
func (c *Const) Set(param string, v float64) error {
	if param != "value" {
		return UnknownParam(KindConst, param)
	}
	c.mu.Lock()
	c.val = v
	c.mu.Unlock()
	return nil
}

// Clock outputs a gate: 1 for the first half of every period and 0 for the
// rest. Connected to an envelope filter's open input it retriggers the
// envelope at a steady rate.
type Clock struct {
	samplerate float64

	mu      sync.Mutex
	period  int
	counter int
}

// Clock rates, in Hz, for rate parameter values 0 and 1.
const (
	MinClockRate = 0.1
	MaxClockRate = 20
)

var (
	_ Module  = &Clock{}
	_ Tunable = &Clock{}
)

// Every creates a Clock with the given period.
func Every(dur time.Duration, samplerate float64) *Clock {
	return &Clock{
		samplerate: samplerate,
		period:     max(2, int(samplerate*dur.Seconds())),
	}
}

func (c *Clock) String() string { return fmt.Sprintf("Clock(%d)", c.period) }

func (*Clock) Info() Info {
	return Info{Kind: KindClock, Inputs: []string{"Rate"}, Outputs: []string{"Gate"}}
}

// RecvSamples sets the rate from a bipolar control signal.
func (c *Clock) RecvSamples(input int, samples []float64) error {
	if input != 0 {
		return BadInput(KindClock, input)
	}
	c.setRate((interp.Clamp(Sum(samples), -1, 1) + 1) * 0.5)
	return nil
}

func (c *Clock) GetSamples(dst []Sample) []Sample {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := 0.0
	if c.counter < c.period/2 {
		v = 1
	}
	c.counter++
	if c.counter >= c.period {
		c.counter = 0
	}
	return append(dst, Sample{0, v})
}

func (*Clock) Params() []string { return []string{"rate"} }

func (c *Clock) Set(param string, v float64) error {
	if param != "rate" {
		return UnknownParam(KindClock, param)
	}
	c.setRate(v)
	return nil
}

// setRate maps v in [0, 1] onto MinClockRate..MaxClockRate.
func (c *Clock) setRate(v float64) {
	hz := interp.L(MinClockRate, MaxClockRate, interp.Clamp(v, 0, 1))
	c.mu.Lock()
	defer c.mu.Unlock()
	c.period = max(2, int(c.samplerate/hz))
	if c.counter >= c.period {
		c.counter = 0
	}
}
