// package note names the notes a synth can play.
package note

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Note is a MIDI note number. Only C0 through B8 are playable.
type Note uint8

const (
	C0 Note = 12
	C1 Note = 24
	C2 Note = 36
	C3 Note = 48
	C4 Note = 60
	D4 Note = 62
	E4 Note = 64
	F4 Note = 65
	G4 Note = 67
	A4 Note = 69
	B4 Note = 71
	C5 Note = 72
	C8 Note = 108
	B8 Note = 119
)

// Lowest and Highest bound the playable range.
const (
	Lowest  = C0
	Highest = B8
)

var names = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// semitones within an octave for each natural.
var naturals = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// Valid reports whether n is inside the playable range.
func (n Note) Valid() bool { return n >= Lowest && n <= Highest }

// Frequency returns the equal tempered frequency of n in Hz, with A4 at 440.
func (n Note) Frequency() float64 {
	return 440 * math.Pow(2, (float64(n)-float64(A4))/12)
}

// Octave returns the scientific pitch octave, C4 being middle C.
func (n Note) Octave() int { return int(n)/12 - 1 }

func (n Note) String() string {
	return fmt.Sprintf("%s%d", names[int(n)%12], n.Octave())
}

// Parse reads a note name such as "A4", "C#3", "Db5" or "f♯2". Flats and
// sharps may be written with ASCII or with the unicode accidentals, and full
// width letters and digits are read as their ASCII forms.
func Parse(s string) (Note, error) {
	orig := s
	s = norm.NFKC.String(strings.TrimSpace(s))
	s = strings.NewReplacer("♯", "#", "♭", "b").Replace(s)
	if len(s) < 2 {
		return 0, fmt.Errorf("note %q: too short", orig)
	}
	semi, ok := naturals[strings.ToUpper(s[:1])[0]]
	if !ok {
		return 0, fmt.Errorf("note %q: unknown letter %q", orig, s[:1])
	}
	s = s[1:]
	switch s[0] {
	case '#':
		semi++
		s = s[1:]
	case 'b':
		semi--
		s = s[1:]
	}
	oct, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("note %q: bad octave: %w", orig, err)
	}
	v := (oct+1)*12 + semi
	if v < int(Lowest) || v > int(Highest) {
		return 0, fmt.Errorf("note %q: out of range %v..%v", orig, Lowest, Highest)
	}
	return Note(v), nil
}
