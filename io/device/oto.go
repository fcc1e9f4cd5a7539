package device

import (
	"context"
	"fmt"

	"github.com/ebitengine/oto/v3"

	"github.com/pfcm/synth/io"
)

// reader adapts a Source to the io.Reader oto pulls from.
type reader struct {
	src io.Source
	buf []float32
}

func (r *reader) Read(p []byte) (int, error) {
	n := len(p) / 4
	if n > len(r.buf) {
		r.buf = make([]float32, n)
	}
	b := r.buf[:n]
	r.src.Fill(b)
	return io.PutFloats(p, b), nil
}

// Oto plays src through oto. There is only ever one oto context per
// process, so Oto can only be called once.
func Oto(ctx context.Context, src io.Source, o Options) error {
	o = o.withDefaults()
	octx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   o.SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return fmt.Errorf("oto: %w", err)
	}
	<-ready

	p := octx.NewPlayer(&reader{src: src})
	if o.Frames > 0 {
		p.SetBufferSize(o.Frames * 4)
	}
	p.Play()
	<-ctx.Done()
	if err := p.Close(); err != nil {
		return fmt.Errorf("oto: %w", err)
	}
	return nil
}
