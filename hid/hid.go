// package hid handles human interface devices. Or IO that uses the same protocols,
// like MIDI.
package hid

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/pfcm/synth"
	"github.com/pfcm/synth/ctl"
	"github.com/pfcm/synth/midi"
	"github.com/pfcm/synth/note"
)

// Controls is the part of a synth.Controller that a control surface drives.
type Controls interface {
	Play(note.Note) error
	Stop(note.Note) error
	PitchBend(v float64) error
	SetAll(k synth.Kind, param string, v float64) error
	SetVolume(v float64)
}

var _ Controls = &synth.Controller{}

// Target is a parameter of every module of a kind.
type Target struct {
	Kind  synth.Kind
	Param string
}

func (t Target) String() string { return fmt.Sprintf("%v.%s", t.Kind, t.Param) }

// ParseTarget parses "kind.param", for example "mco.cutoff".
func ParseTarget(s string) (Target, error) {
	k, p, ok := strings.Cut(s, ".")
	if !ok || p == "" {
		return Target{}, fmt.Errorf("target %q is not kind.param", s)
	}
	kind, err := synth.ParseKind(k)
	if err != nil {
		return Target{}, fmt.Errorf("target %q: %w", s, err)
	}
	return Target{Kind: kind, Param: p}, nil
}

// ParseCCMap parses a map of controller numbers to targets.
func ParseCCMap(m map[uint8]string) (map[uint8]Target, error) {
	out := make(map[uint8]Target, len(m))
	for cc, s := range m {
		if cc > 127 {
			return nil, fmt.Errorf("controller number %d out of range", cc)
		}
		t, err := ParseTarget(s)
		if err != nil {
			return nil, fmt.Errorf("cc %d: %w", cc, err)
		}
		out[cc] = t
	}
	return out, nil
}

// SustainCC is the sustain pedal controller.
const SustainCC = 64

// MIDI plays a synth from MIDI messages: notes go to Play and Stop, pitch
// bend to PitchBend, and mapped controllers to parameters. While the sustain
// pedal is down note offs are held back until it is released.
type MIDI struct {
	c   Controls
	cc  map[uint8]Target
	log *slog.Logger

	mu      sync.Mutex
	sustain bool
	pending []note.Note
}

func NewMIDI(c Controls, cc map[uint8]Target, log *slog.Logger) *MIDI {
	if log == nil {
		log = slog.Default()
	}
	return &MIDI{c: c, cc: cc, log: log}
}

// Run handles messages until msgs is closed or ctx is done.
func (m *MIDI) Run(ctx context.Context, msgs <-chan midi.Message) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			m.Handle(msg)
		}
	}
}

// Handle acts on one message. Failures are logged, a missed note is not
// worth stopping for.
func (m *MIDI) Handle(msg midi.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case msg.NoteOn():
		m.pending = remove(m.pending, note.Note(msg.Note))
		m.check("play", m.c.Play(note.Note(msg.Note)))
	case msg.NoteOff():
		if m.sustain {
			m.pending = append(m.pending, note.Note(msg.Note))
			return
		}
		m.check("stop", m.c.Stop(note.Note(msg.Note)))
	case msg.CV1Type == midi.CV1PitchBend:
		m.check("bend", m.c.PitchBend(ctl.Bend.Bipolar(msg.PitchBend)))
	case msg.CV1Type == midi.CV1ControlChange:
		m.control(msg.Note, msg.Velocity)
	}
}

func (m *MIDI) control(cc, value byte) {
	if cc == SustainCC {
		m.setSustain(value >= 64)
		return
	}
	t, ok := m.cc[cc]
	if !ok {
		m.log.Debug("unmapped controller", slog.Int("cc", int(cc)), slog.Int("value", int(value)))
		return
	}
	v := ctl.MIDI.Norm(value)
	if t.Kind == synth.KindOutput && t.Param == "volume" {
		m.c.SetVolume(v)
		return
	}
	m.check(t.String(), m.c.SetAll(t.Kind, t.Param, v))
}

func (m *MIDI) setSustain(on bool) {
	m.sustain = on
	if on {
		return
	}
	for _, n := range m.pending {
		m.check("stop", m.c.Stop(n))
	}
	m.pending = m.pending[:0]
}

func (m *MIDI) check(op string, err error) {
	if err != nil {
		m.log.Debug("midi "+op+" failed", slog.Any("err", err))
	}
}

func remove(ns []note.Note, n note.Note) []note.Note {
	out := ns[:0]
	for _, x := range ns {
		if x != n {
			out = append(out, x)
		}
	}
	return out
}
