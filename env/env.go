// package env provides envelope generators.
package env

import (
	"fmt"

	"github.com/pfcm/synth/interp"
)

// GateThreshold is the level at which a gate opens an envelope.
const GateThreshold = 0.75

// Shortest stage, in seconds. Stage times are clamped to at least this to
// keep the per-sample steps finite.
const minStage = 0.0001

type envState byte

const (
	idle envState = iota
	attack
	decay
	decay2
	sustain
	release
)

func (e envState) String() string {
	return []string{
		idle:    "x",
		attack:  "A",
		decay:   "D",
		decay2:  "B",
		sustain: "S",
		release: "R",
	}[e]
}

// Envelope is a gain curve that advances one sample at a time.
type Envelope interface {
	// Step advances by one sample and returns the new level.
	Step() float64
	// Gate opens the envelope when g is at or above GateThreshold and
	// releases it when g falls below it.
	Gate(g float64)
	// Take sets the envelope specific parameter i. Times are in seconds.
	Take(i int, v float64) error
	// Active reports whether the envelope is doing anything.
	Active() bool
	fmt.Stringer
}

// ramp is the state shared by the stepping envelopes: a level that moves by
// a per-sample increment that depends on the current state.
type ramp struct {
	samplerate float64
	state      envState
	level      float64
	pressed    bool
}

func (r *ramp) enter(state envState) { r.state = state }

func (r *ramp) Active() bool { return r.state != idle }

// rate is the per-sample increment that covers span in secs seconds.
func (r *ramp) rate(span, secs float64) float64 {
	return span / (r.samplerate * max(secs, minStage))
}

func badParam(e Envelope, i int) error {
	return fmt.Errorf("%v has no parameter %d", e, i)
}

// ADSR is an attack-decay-sustain-release envelope. Opening the gate ramps to
// 1 over the attack time then decays to the sustain level, where it holds
// until the gate closes.
type ADSR struct {
	ramp
	Attack, Decay, Release float64 // seconds
	Sustain                float64
}

var _ Envelope = &ADSR{}

func NewADSR(samplerate float64) *ADSR {
	return &ADSR{
		ramp:    ramp{samplerate: samplerate},
		Attack:  0.01,
		Decay:   0.1,
		Sustain: 0.9,
		Release: 0.0001,
	}
}

func (a *ADSR) String() string {
	return fmt.Sprintf("ADSR(%v,%v,%v,%v)%v", a.Attack, a.Decay, a.Sustain, a.Release, a.state)
}

func (a *ADSR) Step() float64 {
	switch a.state {
	case attack:
		a.level += a.rate(1, a.Attack)
		if a.level >= 1 {
			a.level = 1
			a.enter(decay)
		}
	case decay:
		a.level -= a.rate(1, a.Decay)
		if a.level <= a.Sustain {
			a.level = a.Sustain
			a.enter(sustain)
		}
	case release:
		a.level -= a.rate(1, a.Release)
		if a.level <= 0 {
			a.level = 0
			a.enter(idle)
		}
	}
	return a.level
}

func (a *ADSR) Gate(g float64) {
	switch {
	case a.pressed && g < GateThreshold:
		a.pressed = false
		a.enter(release)
	case !a.pressed && a.state == idle && g >= GateThreshold:
		a.pressed = true
		a.enter(attack)
	}
}

// Take sets 0: attack, 1: decay, 2: sustain level.
func (a *ADSR) Take(i int, v float64) error {
	switch i {
	case 0:
		a.Attack = v
	case 1:
		a.Decay = v
	case 2:
		a.Sustain = interp.Clamp(v, 0, 1)
	default:
		return badParam(a, i)
	}
	return nil
}

// AD is a simple attack-decay envelope. Opening the gate ramps to 1 over
// the attack time and straight back down over the decay time, a closed gate
// cuts the envelope short with a quick release.
type AD struct {
	ramp
	Attack, Decay float64 // seconds
}

var _ Envelope = &AD{}

// AD release time, in seconds.
const adRelease = 0.05

func AttackDecay(samplerate float64) *AD {
	return &AD{
		ramp:   ramp{samplerate: samplerate},
		Attack: 0.5,
		Decay:  0.5,
	}
}

func (a *AD) String() string { return fmt.Sprintf("AD(%v,%v)%v", a.Attack, a.Decay, a.state) }

func (a *AD) Step() float64 {
	switch a.state {
	case attack:
		a.level += a.rate(1, a.Attack)
		if a.level >= 1 {
			a.level = 1
			a.enter(decay)
		}
	case decay, release:
		secs := a.Decay
		if a.state == release {
			secs = adRelease
		}
		a.level -= a.rate(1, secs)
		if a.level <= 0 {
			a.level = 0
			a.enter(idle)
		}
	}
	return a.level
}

func (a *AD) Gate(g float64) {
	switch {
	case a.pressed && g < GateThreshold:
		a.pressed = false
		if a.state != idle {
			a.enter(release)
		}
	case !a.pressed && a.state == idle && g >= GateThreshold:
		a.pressed = true
		a.enter(attack)
	}
}

// Take sets 0: attack, 1: decay.
func (a *AD) Take(i int, v float64) error {
	switch i {
	case 0:
		a.Attack = v
	case 1:
		a.Decay = v
	default:
		return badParam(a, i)
	}
	return nil
}

// ADBDR is an attack-decay-break-decay-release envelope: after the attack it
// decays quickly to the break level, then slowly towards silence while the
// gate stays open.
type ADBDR struct {
	ramp
	Attack, Decay1, Decay2, Release float64 // seconds
	Break                           float64
}

var _ Envelope = &ADBDR{}

// Level at which the second decay gives way to release.
const releaseThreshold = 0.05

func NewADBDR(samplerate float64) *ADBDR {
	return &ADBDR{
		ramp:    ramp{samplerate: samplerate},
		Attack:  0.0001,
		Decay1:  0.1,
		Break:   0.9,
		Decay2:  15,
		Release: 0.01,
	}
}

func (a *ADBDR) String() string {
	return fmt.Sprintf("ADBDR(%v,%v,%v,%v,%v)%v", a.Attack, a.Decay1, a.Break, a.Decay2, a.Release, a.state)
}

func (a *ADBDR) Step() float64 {
	switch a.state {
	case attack:
		a.level += a.rate(1, a.Attack)
		if a.level >= 1 {
			a.level = 1
			a.enter(decay)
		}
	case decay:
		a.level -= a.rate(1-a.Break, a.Decay1)
		if a.level <= a.Break {
			a.enter(decay2)
		}
	case decay2:
		a.level -= a.rate(a.Break-releaseThreshold, a.Decay2)
		if a.level <= releaseThreshold {
			a.enter(release)
		}
	case release:
		a.level -= a.rate(1, a.Release)
		if a.level <= 0 {
			a.level = 0
			a.enter(idle)
		}
	}
	return a.level
}

func (a *ADBDR) Gate(g float64) {
	switch {
	case a.state != idle && a.pressed && g < GateThreshold:
		a.pressed = false
		a.enter(release)
	case a.state == idle && g >= GateThreshold:
		a.pressed = true
		a.enter(attack)
	}
}

// Take sets 0: attack, 1: first decay, 2: break level, 3: second decay.
func (a *ADBDR) Take(i int, v float64) error {
	switch i {
	case 0:
		a.Attack = v
	case 1:
		a.Decay1 = v
	case 2:
		a.Break = interp.Clamp(v, releaseThreshold, 1)
	case 3:
		a.Decay2 = v
	default:
		return badParam(a, i)
	}
	return nil
}

// OC is a plain gate: fully open or fully closed.
type OC struct {
	open bool
}

var _ Envelope = &OC{}

func (o *OC) String() string { return fmt.Sprintf("OC(%v)", o.open) }

func (o *OC) Step() float64 {
	if o.open {
		return 1
	}
	return 0
}

func (o *OC) Gate(g float64)              { o.open = g >= GateThreshold }
func (o *OC) Take(i int, _ float64) error { return badParam(o, i) }
func (o *OC) Active() bool                { return o.open }

// None passes audio through untouched.
type None struct{}

var _ Envelope = None{}

func (None) String() string                { return "None" }
func (None) Step() float64                 { return 1 }
func (None) Gate(float64)                  {}
func (n None) Take(i int, _ float64) error { return badParam(n, i) }
func (None) Active() bool                  { return false }
