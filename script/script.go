// package script runs Lua control scripts against a synth.
//
// Scripts get these globals:
//
//	connect(src, out, dest, in)     disconnect(src, out, dest, in)
//	play(note)                      stop(note)
//	set(id, param, v)               set_all(kind, param, v)
//	volume(v)                       bend(v)
//	modules()                       at(seconds, fn)
//
// Notes are names such as "A4" or MIDI note numbers. modules returns a table
// of kind names indexed by module id. at schedules fn to run once the synth
// has been playing for the given number of seconds. Errors from the synth are
// raised as Lua errors.
package script

import (
	"fmt"
	"slices"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/pfcm/synth"
	"github.com/pfcm/synth/note"
)

// Controls is what a script can do to a synth.
type Controls interface {
	Connect(src, srcOut, dest, destIn int) error
	Disconnect(src, srcOut, dest, destIn int) error
	Play(note.Note) error
	Stop(note.Note) error
	Set(id int, param string, v float64) error
	SetAll(k synth.Kind, param string, v float64) error
	SetVolume(v float64)
	PitchBend(v float64) error
	Modules() []synth.Info
}

var _ Controls = &synth.Controller{}

type event struct {
	at time.Duration
	fn *lua.LFunction
}

// Script is a Lua state bound to a synth. It is safe for concurrent use.
type Script struct {
	c Controls

	mu     sync.Mutex
	L      *lua.LState
	events []event
}

func New(c Controls) *Script {
	s := &Script{c: c, L: lua.NewState()}
	for name, f := range map[string]lua.LGFunction{
		"connect":    s.connect,
		"disconnect": s.disconnect,
		"play":       s.play,
		"stop":       s.stop,
		"set":        s.set,
		"set_all":    s.setAll,
		"volume":     s.volume,
		"bend":       s.bend,
		"modules":    s.modules,
		"at":         s.at,
	} {
		s.L.SetGlobal(name, s.L.NewFunction(f))
	}
	return s
}

// Close releases the Lua state.
func (s *Script) Close() {
	s.mu.Lock()
	s.L.Close()
	s.mu.Unlock()
}

// Run executes a chunk of Lua.
func (s *Script) Run(src string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.L.DoString(src)
}

// RunFile executes the Lua file at path.
func (s *Script) RunFile(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.L.DoFile(path); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Advance runs, in order, every scheduled function that is due by now. It
// stops at the first one that fails.
func (s *Script) Advance(now time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.events) > 0 && s.events[0].at <= now {
		e := s.events[0]
		s.events = s.events[1:]
		if err := s.L.CallByParam(lua.P{Fn: e.fn, NRet: 0, Protect: true}); err != nil {
			return fmt.Errorf("at %v: %w", e.at, err)
		}
	}
	return nil
}

// Pending is the number of scheduled functions still to run.
func (s *Script) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// Next is the time of the next scheduled function.
func (s *Script) Next() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		return 0, false
	}
	return s.events[0].at, true
}

func check(L *lua.LState, err error) int {
	if err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

func edge(L *lua.LState) (int, int, int, int) {
	return L.CheckInt(1), L.CheckInt(2), L.CheckInt(3), L.CheckInt(4)
}

func (s *Script) connect(L *lua.LState) int {
	return check(L, s.c.Connect(edge(L)))
}

func (s *Script) disconnect(L *lua.LState) int {
	return check(L, s.c.Disconnect(edge(L)))
}

func checkNote(L *lua.LState, n int) note.Note {
	switch v := L.Get(n).(type) {
	case lua.LNumber:
		x := note.Note(v)
		if float64(v) != float64(x) || !x.Valid() {
			L.ArgError(n, fmt.Sprintf("%v is not a note", v))
		}
		return x
	case lua.LString:
		x, err := note.Parse(string(v))
		if err != nil {
			L.ArgError(n, err.Error())
		}
		return x
	}
	L.TypeError(n, lua.LTString)
	return 0
}

func (s *Script) play(L *lua.LState) int {
	return check(L, s.c.Play(checkNote(L, 1)))
}

func (s *Script) stop(L *lua.LState) int {
	return check(L, s.c.Stop(checkNote(L, 1)))
}

func (s *Script) set(L *lua.LState) int {
	return check(L, s.c.Set(L.CheckInt(1), L.CheckString(2), float64(L.CheckNumber(3))))
}

func (s *Script) setAll(L *lua.LState) int {
	k, err := synth.ParseKind(L.CheckString(1))
	if err != nil {
		L.ArgError(1, err.Error())
	}
	return check(L, s.c.SetAll(k, L.CheckString(2), float64(L.CheckNumber(3))))
}

func (s *Script) volume(L *lua.LState) int {
	s.c.SetVolume(float64(L.CheckNumber(1)))
	return 0
}

func (s *Script) bend(L *lua.LState) int {
	return check(L, s.c.PitchBend(float64(L.CheckNumber(1))))
}

func (s *Script) modules(L *lua.LState) int {
	t := L.NewTable()
	for id, info := range s.c.Modules() {
		t.RawSetInt(id, lua.LString(info.Kind.String()))
	}
	L.Push(t)
	return 1
}

func (s *Script) at(L *lua.LState) int {
	secs := float64(L.CheckNumber(1))
	fn := L.CheckFunction(2)
	if secs < 0 {
		L.ArgError(1, "time must not be negative")
	}
	e := event{at: time.Duration(secs * float64(time.Second)), fn: fn}
	i, _ := slices.BinarySearchFunc(s.events, e.at, func(e event, t time.Duration) int {
		if e.at <= t {
			return -1
		}
		return 1
	})
	s.events = slices.Insert(s.events, i, e)
	return 0
}
