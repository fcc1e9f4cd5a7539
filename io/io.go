// package io moves samples between a synth and the outside world: WAV files
// here, sound cards in io/device.
package io

import (
	"encoding/binary"
	"errors"
	stdio "io"
	"math"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Source produces mono audio.
type Source interface {
	// Fill overwrites buf with the next len(buf) samples.
	Fill(buf []float32)
}

// SourceFunc makes a Source from a function returning one sample per call.
type SourceFunc func() float64

func (f SourceFunc) Fill(buf []float32) {
	for i := range buf {
		buf[i] = float32(f())
	}
}

// PutFloats writes buf into b as little endian 32 bit floats and returns the
// number of bytes written.
func PutFloats(b []byte, buf []float32) int {
	n := min(len(b)/4, len(buf))
	for i, f := range buf[:n] {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
	}
	return n * 4
}

const bitDepth = 16

func toPCM(dst []int, buf []float32) []int {
	const scale = 1<<(bitDepth-1) - 1
	for _, f := range buf {
		f = max(-1, min(1, f))
		dst = append(dst, int(math.Round(float64(f)*scale)))
	}
	return dst
}

// Recorder is a Source that copies everything it produces into a 16 bit
// mono WAV file. Write errors are kept and returned by Close.
type Recorder struct {
	src Source

	mu  sync.Mutex
	enc *wav.Encoder
	buf *audio.IntBuffer
	err error
}

var _ Source = &Recorder{}

func NewRecorder(w stdio.WriteSeeker, samplerate int, src Source) *Recorder {
	return &Recorder{
		src: src,
		enc: wav.NewEncoder(w, samplerate, bitDepth, 1, 1),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 1, SampleRate: samplerate},
			SourceBitDepth: bitDepth,
		},
	}
}

func (r *Recorder) Fill(buf []float32) {
	r.src.Fill(buf)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return
	}
	r.buf.Data = toPCM(r.buf.Data[:0], buf)
	r.err = r.enc.Write(r.buf)
}

// Close finishes the WAV header. It does not close the underlying writer.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return errors.Join(r.err, r.enc.Close())
}

// Frames is how many samples RenderWAV asks for at a time.
const Frames = 512

// RenderWAV writes n samples from src to w as a 16 bit mono WAV file.
func RenderWAV(w stdio.WriteSeeker, samplerate, n int, src Source) error {
	r := NewRecorder(w, samplerate, src)
	buf := make([]float32, Frames)
	for n > 0 {
		k := min(n, len(buf))
		r.Fill(buf[:k])
		n -= k
	}
	return r.Close()
}
