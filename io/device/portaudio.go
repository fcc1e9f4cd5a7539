package device

import (
	"context"
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"

	"github.com/pfcm/synth/io"
)

// PortAudio plays src on portaudio's default output stream.
func PortAudio(ctx context.Context, src io.Source, o Options) (err error) {
	o = o.withDefaults()
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio: %w", err)
	}
	defer func() {
		err = errors.Join(err, portaudio.Terminate())
	}()
	frames := o.Frames
	if frames == 0 {
		frames = portaudio.FramesPerBufferUnspecified
	}
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(o.SampleRate), frames, src.Fill)
	if err != nil {
		return fmt.Errorf("portaudio: %w", err)
	}
	defer stream.Close()
	if err := stream.Start(); err != nil {
		return fmt.Errorf("portaudio: %w", err)
	}

	<-ctx.Done()
	return stream.Stop()
}
