package hid

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/term"

	"github.com/pfcm/synth/note"
)

// Row of keys, in semitones up from C, laid out like a piano across a
// qwerty keyboard.
const pianoKeys = "awsedftgyhujkolp;"

// Keyboard plays notes from a terminal. Terminals only report key presses,
// so each key toggles its note. z and x move down and up an octave, space
// stops everything, and q or ctrl-c quits.
type Keyboard struct {
	c   Controls
	log *slog.Logger

	octave int
	held   map[note.Note]bool
}

// ErrQuit is returned by Run when the quit key is pressed.
var ErrQuit = errors.New("quit")

func NewKeyboard(c Controls, log *slog.Logger) *Keyboard {
	if log == nil {
		log = slog.Default()
	}
	return &Keyboard{c: c, log: log, octave: 4, held: make(map[note.Note]bool)}
}

// Note maps a key to a note in the current octave.
func (k *Keyboard) Note(key byte) (note.Note, bool) {
	i := strings.IndexByte(pianoKeys, key)
	if i < 0 {
		return 0, false
	}
	n := note.Note(12*(k.octave+1) + i)
	return n, n.Valid()
}

// Key handles one key press. It returns ErrQuit for the quit keys.
func (k *Keyboard) Key(key byte) error {
	switch key {
	case 'q', 3: // ctrl-c
		k.stopAll()
		return ErrQuit
	case ' ':
		k.stopAll()
		return nil
	case 'z':
		k.octave = max(k.octave-1, 0)
		return nil
	case 'x':
		k.octave = min(k.octave+1, 8)
		return nil
	}
	n, ok := k.Note(key)
	if !ok {
		return nil
	}
	var err error
	if k.held[n] {
		err = k.c.Stop(n)
		delete(k.held, n)
	} else if err = k.c.Play(n); err == nil {
		k.held[n] = true
	}
	if err != nil {
		k.log.Debug("key", slog.String("note", n.String()), slog.Any("err", err))
	}
	return nil
}

func (k *Keyboard) stopAll() {
	for n := range k.held {
		_ = k.c.Stop(n)
		delete(k.held, n)
	}
}

// Run reads key presses from r until it is exhausted, the quit key is
// pressed, or ctx is done. Quitting returns ErrQuit.
func (k *Keyboard) Run(ctx context.Context, r io.Reader) error {
	keys := make(chan byte)
	errc := make(chan error, 1)
	go func() {
		br := bufio.NewReader(r)
		for {
			b, err := br.ReadByte()
			if err != nil {
				errc <- err
				return
			}
			select {
			case keys <- b:
			case <-ctx.Done():
				return
			}
		}
	}()
	for {
		select {
		case <-ctx.Done():
			k.stopAll()
			return nil
		case err := <-errc:
			k.stopAll()
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		case b := <-keys:
			if err := k.Key(b); err != nil {
				return err
			}
		}
	}
}

// Raw puts the terminal on fd into raw mode, so key presses arrive one at a
// time. The returned function restores it.
func Raw(fd int) (func() error, error) {
	if !term.IsTerminal(fd) {
		return nil, errors.New("not a terminal")
	}
	old, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return func() error { return term.Restore(fd, old) }, nil
}
