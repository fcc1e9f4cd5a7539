// package device plays a synth through the sound card.
package device

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pfcm/synth/io"
)

// Options configure an output device.
type Options struct {
	SampleRate int
	// Frames is the buffer size to ask the driver for. Zero lets the
	// backend choose.
	Frames int
	Log    *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.SampleRate == 0 {
		o.SampleRate = 44100
	}
	if o.Log == nil {
		o.Log = slog.Default()
	}
	return o
}

// Func plays src on an output device until ctx is done.
type Func func(ctx context.Context, src io.Source, o Options) error

var backends = map[string]Func{
	"malgo":     Malgo,
	"oto":       Oto,
	"portaudio": PortAudio,
}

// Play runs src on the named backend until ctx is done.
func Play(ctx context.Context, backend string, src io.Source, o Options) error {
	f, ok := backends[backend]
	if !ok {
		return fmt.Errorf("unknown audio backend %q", backend)
	}
	o = o.withDefaults()
	o.Log.Info("starting audio", slog.String("backend", backend), slog.Int("sample_rate", o.SampleRate))
	return f(ctx, src, o)
}
