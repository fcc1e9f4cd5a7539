package hid

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfcm/synth"
	"github.com/pfcm/synth/midi"
	"github.com/pfcm/synth/note"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// recorder is a Controls that writes down every call.
type recorder struct {
	calls  []string
	volume float64
	bend   float64
	set    map[Target]float64
}

func newRecorder() *recorder { return &recorder{set: make(map[Target]float64)} }

func (r *recorder) Play(n note.Note) error {
	r.calls = append(r.calls, "play "+n.String())
	return nil
}

func (r *recorder) Stop(n note.Note) error {
	r.calls = append(r.calls, "stop "+n.String())
	return nil
}

func (r *recorder) PitchBend(v float64) error {
	r.bend = v
	return nil
}

func (r *recorder) SetAll(k synth.Kind, p string, v float64) error {
	r.set[Target{k, p}] = v
	return nil
}

func (r *recorder) SetVolume(v float64) { r.volume = v }

func msg(b ...byte) midi.Message {
	w, ok := midi.FromBytes(b)
	if !ok {
		panic(b)
	}
	m, _, err := midi.ParseMessage([]uint32{w})
	if err != nil {
		panic(err)
	}
	return m
}

func TestParseTarget(t *testing.T) {
	got, err := ParseTarget("mco.cutoff")
	require.NoError(t, err)
	assert.Equal(t, Target{synth.KindMCO, "cutoff"}, got)
	assert.Equal(t, "mco.cutoff", got.String())

	for _, s := range []string{"mco", "mco.", "kazoo.volume", ""} {
		_, err := ParseTarget(s)
		assert.Error(t, err, s)
	}

	m, err := ParseCCMap(map[uint8]string{1: "reverb.decay", 7: "output.volume"})
	require.NoError(t, err)
	assert.Equal(t, Target{synth.KindReverb, "decay"}, m[1])
	_, err = ParseCCMap(map[uint8]string{200: "mco.cutoff"})
	assert.Error(t, err)
}

func TestMIDINotes(t *testing.T) {
	r := newRecorder()
	m := NewMIDI(r, nil, quiet)
	m.Handle(msg(0x90, 69, 100))
	m.Handle(msg(0x90, 60, 0)) // zero velocity is a note off
	m.Handle(msg(0x80, 69, 0))
	assert.Equal(t, []string{"play A4", "stop C4", "stop A4"}, r.calls)
}

func TestMIDIControls(t *testing.T) {
	r := newRecorder()
	m := NewMIDI(r, map[uint8]Target{
		7:  {synth.KindOutput, "volume"},
		74: {synth.KindMCO, "cutoff"},
	}, quiet)
	m.Handle(msg(0xB0, 7, 127))
	m.Handle(msg(0xB0, 74, 0))
	m.Handle(msg(0xB0, 20, 5)) // unmapped
	m.Handle(msg(0xE0, 0x7F, 0x7F))

	assert.Equal(t, 1.0, r.volume)
	assert.Equal(t, map[Target]float64{{synth.KindMCO, "cutoff"}: 0}, r.set)
	assert.Equal(t, 1.0, r.bend)
}

func TestSustainPedal(t *testing.T) {
	r := newRecorder()
	m := NewMIDI(r, nil, quiet)
	m.Handle(msg(0xB0, SustainCC, 127))
	m.Handle(msg(0x90, 60, 100))
	m.Handle(msg(0x90, 64, 100))
	m.Handle(msg(0x80, 60, 0))
	m.Handle(msg(0x80, 64, 0))
	m.Handle(msg(0x90, 64, 100)) // replayed while held back
	assert.Equal(t, []string{"play C4", "play E4", "play E4"}, r.calls)

	m.Handle(msg(0xB0, SustainCC, 0))
	assert.Equal(t, []string{"play C4", "play E4", "play E4", "stop C4"}, r.calls)
}

func TestMIDIRun(t *testing.T) {
	r := newRecorder()
	m := NewMIDI(r, nil, quiet)
	c := make(chan midi.Message, 2)
	c <- msg(0x90, 69, 1)
	c <- msg(0x80, 69, 1)
	close(c)
	require.NoError(t, m.Run(context.Background(), c))
	assert.Len(t, r.calls, 2)
}

func TestAgainstController(t *testing.T) {
	c := synth.NewController(nil, synth.WithLogger(quiet))
	m := NewMIDI(c, map[uint8]Target{7: {synth.KindOutput, "volume"}}, quiet)
	m.Handle(msg(0xB0, 7, 0))
	assert.Zero(t, c.Volume())
	// no players here, the failure is only logged
	m.Handle(msg(0x90, 69, 100))
}

func TestKeyboardNotes(t *testing.T) {
	k := NewKeyboard(nil, quiet)
	for _, tc := range []struct {
		key  byte
		want note.Note
		ok   bool
	}{
		{'a', note.C4, true},
		{'w', note.C4 + 1, true},
		{'j', note.B4, true},
		{'k', note.C5, true},
		{'1', 0, false},
	} {
		got, ok := k.Note(tc.key)
		assert.Equal(t, tc.ok, ok, "%q", tc.key)
		if tc.ok {
			assert.Equal(t, tc.want, got, "%q", tc.key)
		}
	}
}

func TestKeyboardRun(t *testing.T) {
	r := newRecorder()
	k := NewKeyboard(r, quiet)
	err := k.Run(context.Background(), strings.NewReader("aa dxa z1zzzzzzzzza"))
	require.NoError(t, err)
	require.Len(t, r.calls, 8)
	assert.Equal(t, []string{"play C4", "stop C4", "play E4", "play C5"}, r.calls[:4])
	assert.ElementsMatch(t, []string{"stop E4", "stop C5"}, r.calls[4:6], "space stops everything")
	assert.Equal(t, []string{"play C0", "stop C0"}, r.calls[6:], "octaves stop at 0, EOF stops everything")
}

func TestKeyboardQuit(t *testing.T) {
	r := newRecorder()
	k := NewKeyboard(r, quiet)
	err := k.Run(context.Background(), strings.NewReader("aqs"))
	assert.ErrorIs(t, err, ErrQuit)
	assert.Equal(t, []string{"play C4", "stop C4"}, r.calls)
}
