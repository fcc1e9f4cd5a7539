package device

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gen2brain/malgo"

	"github.com/pfcm/synth/io"
)

// Malgo plays src on the default miniaudio playback device.
func Malgo(ctx context.Context, src io.Source, o Options) error {
	o = o.withDefaults()
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(msg string) {
		o.Log.Debug("malgo", slog.String("msg", strings.TrimSpace(msg)))
	})
	if err != nil {
		return fmt.Errorf("malgo: %w", err)
	}
	defer func() {
		mctx.Uninit()
		mctx.Free()
	}()
	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatF32
	cfg.Playback.Channels = 1
	cfg.SampleRate = uint32(o.SampleRate)
	if o.Frames > 0 {
		cfg.PeriodSizeInFrames = uint32(o.Frames)
	}

	// TODO: do we know the size ahead of the first callback?
	buf := make([]float32, 4096)
	send := func(out, _ []byte, framecount uint32) {
		if int(framecount) > len(buf) {
			buf = make([]float32, framecount)
		}
		b := buf[:framecount]
		src.Fill(b)
		io.PutFloats(out, b)
	}

	device, err := malgo.InitDevice(mctx.Context, cfg, malgo.DeviceCallbacks{
		Data: send,
	})
	if err != nil {
		return fmt.Errorf("malgo: %w", err)
	}
	defer device.Uninit()
	if err := device.Start(); err != nil {
		return fmt.Errorf("malgo: %w", err)
	}

	<-ctx.Done()
	return nil
}
