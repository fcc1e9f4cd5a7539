package script

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfcm/synth"
	"github.com/pfcm/synth/note"
	"github.com/pfcm/synth/rack"
)

type recorder struct {
	calls  []string
	volume float64
	fail   error
}

func (r *recorder) log(format string, args ...any) error {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
	return r.fail
}

func (r *recorder) Connect(a, b, c, d int) error    { return r.log("connect %d %d %d %d", a, b, c, d) }
func (r *recorder) Disconnect(a, b, c, d int) error { return r.log("disconnect %d %d %d %d", a, b, c, d) }
func (r *recorder) Play(n note.Note) error          { return r.log("play %v", n) }
func (r *recorder) Stop(n note.Note) error          { return r.log("stop %v", n) }
func (r *recorder) PitchBend(v float64) error       { return r.log("bend %g", v) }
func (r *recorder) SetVolume(v float64)             { r.volume = v }

func (r *recorder) Set(id int, p string, v float64) error {
	return r.log("set %d %s %g", id, p, v)
}

func (r *recorder) SetAll(k synth.Kind, p string, v float64) error {
	return r.log("set_all %v %s %g", k, p, v)
}

func (r *recorder) Modules() []synth.Info {
	return []synth.Info{{Kind: synth.KindOutput}, {Kind: synth.KindMCO}, {Kind: synth.KindChorus}}
}

func TestGlobals(t *testing.T) {
	r := &recorder{}
	s := New(r)
	defer s.Close()

	require.NoError(t, s.Run(`
		connect(1, 0, 2, 0)
		disconnect(1, 0, 2, 0)
		play("A4")
		stop(69)
		set(2, "mix", 0.25)
		set_all("mco", "cutoff", 0.5)
		bend(-1)
		volume(0.3)
	`))
	assert.Equal(t, []string{
		"connect 1 0 2 0",
		"disconnect 1 0 2 0",
		"play A4",
		"stop A4",
		"set 2 mix 0.25",
		"set_all mco cutoff 0.5",
		"bend -1",
	}, r.calls)
	assert.Equal(t, 0.3, r.volume)
}

func TestModules(t *testing.T) {
	s := New(&recorder{})
	defer s.Close()
	require.NoError(t, s.Run(`
		local m = modules()
		assert(m[0] == "output", m[0])
		assert(m[1] == "mco", m[1])
		assert(m[2] == "chorus", m[2])
	`))
}

func TestErrors(t *testing.T) {
	for _, src := range []string{
		`play("H4")`,
		`play(200)`,
		`play(60.5)`,
		`play({})`,
		`set_all("kazoo", "volume", 1)`,
		`connect(1, 2)`,
		`at(-1, function() end)`,
		`at(1, 2)`,
	} {
		t.Run(src, func(t *testing.T) {
			r := &recorder{}
			s := New(r)
			defer s.Close()
			assert.Error(t, s.Run(src))
			assert.Empty(t, r.calls)
		})
	}
}

func TestControllerErrorsRaise(t *testing.T) {
	r := &recorder{fail: synth.ErrNoFreeVoice}
	s := New(r)
	defer s.Close()
	err := s.Run(`play("C4")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), synth.ErrNoFreeVoice.Error())

	// pcall sees the same error and the script carries on.
	require.NoError(t, s.Run(`
		local ok = pcall(play, "C4")
		assert(not ok)
		volume(1)
	`))
	assert.Equal(t, 1.0, r.volume)
}

func TestAt(t *testing.T) {
	r := &recorder{}
	s := New(r)
	defer s.Close()
	require.NoError(t, s.RunFile("testdata/arpeggio.lua"))
	assert.Equal(t, 0.8, r.volume)
	assert.Equal(t, 8, s.Pending())
	next, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, time.Duration(0), next)

	require.NoError(t, s.Advance(0))
	assert.Equal(t, []string{"play C4"}, r.calls)

	require.NoError(t, s.Advance(150*time.Millisecond))
	assert.Equal(t, []string{"play C4", "stop C4", "play E4"}, r.calls)

	require.NoError(t, s.Advance(time.Second))
	assert.Equal(t, []string{
		"play C4", "stop C4", "play E4", "stop E4", "play G4", "stop G4", "play C5", "stop C5",
	}, r.calls)
	assert.Zero(t, s.Pending())
	_, ok = s.Next()
	assert.False(t, ok)
}

func TestAtKeepsOrderForEqualTimes(t *testing.T) {
	r := &recorder{}
	s := New(r)
	defer s.Close()
	require.NoError(t, s.Run(`
		at(1, function() play("C4") end)
		at(0.5, function() play("D4") end)
		at(1, function() play("E4") end)
	`))
	require.NoError(t, s.Advance(time.Second))
	assert.Equal(t, []string{"play D4", "play C4", "play E4"}, r.calls)
}

func TestAdvanceStopsAtError(t *testing.T) {
	r := &recorder{}
	s := New(r)
	defer s.Close()
	require.NoError(t, s.Run(`
		at(0, function() error("boom") end)
		at(0, function() play("C4") end)
	`))
	err := s.Advance(0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, 1, s.Pending())
	require.NoError(t, s.Advance(0))
	assert.Equal(t, []string{"play C4"}, r.calls)
}

func TestRunFileMissing(t *testing.T) {
	s := New(&recorder{})
	defer s.Close()
	assert.Error(t, s.RunFile("testdata/nope.lua"))
}

func TestAgainstRack(t *testing.T) {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := rack.New(rack.Default(), nil, rack.Options{SampleRate: 8000}, synth.WithLogger(quiet))
	require.NoError(t, err)
	s := New(c)
	defer s.Close()

	require.NoError(t, s.Run(`
		connect(1, 0, 2, 0)
		connect(2, 0, 0, 0)
		play("A4")
		set_all("chorus", "mix", 0.2)
	`))
	assert.Len(t, c.Connections(), 2)

	var peak float64
	for range 2000 {
		peak = max(peak, c.Tick())
	}
	assert.Greater(t, peak, 0.0)

	err = s.Run(`connect(2, 0, 0, 0)`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), synth.ErrDuplicate.Error())
}
