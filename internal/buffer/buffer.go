// package buffer provides some audio buffer primitives.
package buffer

import (
	"math"

	"github.com/pfcm/synth/interp"
)

// Ring is an interpolating ring buffer of float samples.
type Ring struct {
	Buf    []float64
	Writep int
}

// NewRing allocates a new ring buffer with the given number of samples. At
// least one sample is always allocated.
func NewRing(size int) *Ring {
	return &Ring{
		Buf: make([]float64, max(size, 1)),
	}
}

func (r *Ring) Len() int { return len(r.Buf) }

// Write stores a sample at the write head and advances it.
func (r *Ring) Write(s float64) {
	r.Buf[r.Writep] = s
	r.Writep++
	if r.Writep == len(r.Buf) {
		r.Writep = 0
	}
}

// At returns the sample in slot i, wrapping i into range.
func (r *Ring) At(i int) float64 { return r.Buf[r.wrap(i)] }

// Set overwrites slot i, wrapping i into range.
func (r *Ring) Set(i int, s float64) { r.Buf[r.wrap(i)] = s }

// ReadBack returns the sample written d samples ago, linearly interpolating
// between neighbours for fractional delays. d is clamped to [1, Len()-1].
func (r *Ring) ReadBack(d float64) float64 {
	n := float64(len(r.Buf))
	d = interp.Clamp(d, 1, max(n-1, 1))
	pos := float64(r.Writep) - d
	if pos < 0 {
		pos += n
	}
	j := int(pos)
	c := pos - math.Floor(pos)
	return interp.L(r.At(j), r.At(j+1), c)
}

// Reset zeroes the buffer and moves the head back to the start.
func (r *Ring) Reset() {
	clear(r.Buf)
	r.Writep = 0
}

func (r *Ring) wrap(i int) int {
	i %= len(r.Buf)
	if i < 0 {
		i += len(r.Buf)
	}
	return i
}
