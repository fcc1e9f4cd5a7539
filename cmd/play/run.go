package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pfcm/synth"
	"github.com/pfcm/synth/config"
	"github.com/pfcm/synth/hid"
	"github.com/pfcm/synth/io"
	"github.com/pfcm/synth/io/device"
	"github.com/pfcm/synth/midi"
	"github.com/pfcm/synth/midi/gomidi"
	"github.com/pfcm/synth/script"
)

type runOptions struct {
	*rootOptions
	backend string
	port    string
	noMIDI  bool
	keys    bool
	script  string
	write   bool
}

func newRunCommand(root *rootOptions) *cobra.Command {
	opts := &runOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Play the synth live",
		Long: `Play the synth live on the sound card.

Notes come from the MIDI input, the computer keyboard (--keys) and a Lua
script (--script). Without a MIDI device the synth keeps running.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.backend, "backend", "", "audio backend, one of malgo, oto or portaudio")
	cmd.Flags().StringVar(&opts.port, "midi", "", "MIDI input port, the first one if empty")
	cmd.Flags().BoolVar(&opts.noMIDI, "no-midi", false, "run without MIDI input")
	cmd.Flags().BoolVar(&opts.keys, "keys", false, "play notes from the terminal")
	cmd.Flags().StringVar(&opts.script, "script", "", "Lua script to run")
	cmd.Flags().BoolVar(&opts.write, "write", false, "also write the output to a wav file in the current directory")
	return cmd
}

func run(ctx context.Context, opts *runOptions) error {
	l, err := prepare(opts)
	if err != nil {
		return err
	}
	defer l.close()
	return l.play(ctx)
}

// live is everything a run needs, set up before anything starts playing so
// that a failure leaves nothing running.
type live struct {
	cfg    config.Config
	log    *slog.Logger
	c      *synth.Controller
	src    io.Source
	script *script.Script
	midi   *hid.MIDI
	keys   bool

	closers []func()
}

func prepare(opts *runOptions) (_ *live, err error) {
	cfg, log, err := opts.load()
	if err != nil {
		return nil, err
	}
	if opts.backend != "" {
		cfg.Backend = opts.backend
	}
	if opts.port != "" {
		cfg.MIDI.Port = opts.port
	}
	cfg.MIDI.Disabled = cfg.MIDI.Disabled || opts.noMIDI
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c, err := newSynth(cfg, log)
	if err != nil {
		return nil, err
	}
	l := &live{cfg: cfg, log: log, c: c, src: c.Stream(cfg.Timeout), keys: opts.keys}
	defer func() {
		if err != nil {
			l.close()
		}
	}()

	if !cfg.MIDI.Disabled {
		cc, err := hid.ParseCCMap(cfg.MIDI.CC)
		if err != nil {
			return nil, fmt.Errorf("midi cc map: %w", err)
		}
		l.midi = hid.NewMIDI(c, cc, log)
	}
	if opts.script != "" {
		l.script = script.New(c)
		l.closers = append(l.closers, l.script.Close)
		if err := l.script.RunFile(opts.script); err != nil {
			return nil, err
		}
	}
	if opts.write {
		name := fmt.Sprintf("out-%d.wav", time.Now().Unix())
		f, err := os.Create(name)
		if err != nil {
			return nil, err
		}
		rec := io.NewRecorder(f, cfg.SampleRate, l.src)
		l.closers = append(l.closers, func() {
			if err := errors.Join(rec.Close(), f.Close()); err != nil {
				log.Error("finishing wav file", slog.String("file", name), slog.Any("err", err))
			}
		})
		log.Info("writing output", slog.String("file", name))
		l.src = rec
	}
	return l, nil
}

// close releases what prepare and play set up, most recent first.
func (l *live) close() {
	for i := len(l.closers) - 1; i >= 0; i-- {
		l.closers[i]()
	}
	l.closers = nil
}

// play runs until ctx is done, the keyboard quits or the audio device fails.
func (l *live) play(ctx context.Context) error {
	if l.keys {
		restore, err := hid.Raw(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("keyboard: %w", err)
		}
		l.closers = append(l.closers, func() { _ = restore() })
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return l.c.Run(ctx) })
	g.Go(func() error {
		return device.Play(ctx, l.cfg.Backend, l.src, device.Options{SampleRate: l.cfg.SampleRate, Log: l.log})
	})
	if l.midi != nil {
		l.closers = append(l.closers, gomidi.Close)
		startMIDI(ctx, g, l.midi, l.cfg.MIDI.Port, l.log)
	}
	if l.keys {
		g.Go(func() error { return hid.NewKeyboard(l.c, l.log).Run(ctx, os.Stdin) })
	}
	if l.script != nil {
		g.Go(func() error { return follow(ctx, l.script, l.log) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, hid.ErrQuit) {
		return err
	}
	return nil
}

// startMIDI routes the MIDI input on port to m. A missing or failing device is
// logged and otherwise ignored.
func startMIDI(ctx context.Context, g *errgroup.Group, m *hid.MIDI, port string, log *slog.Logger) {
	d := midi.Listen(ctx, gomidi.Listener(port), log)
	msgs := d.Subscribe(midi.OnlyCV1Types(
		midi.CV1NoteOn, midi.CV1NoteOff, midi.CV1PitchBend, midi.CV1ControlChange,
	))
	g.Go(func() error { return m.Run(ctx, msgs) })
	g.Go(func() error {
		if err := d.Wait(); err != nil {
			log.Warn("no midi input, carrying on without it", slog.Any("err", err))
		}
		if n := d.Dropped(); n > 0 {
			log.Warn("dropped midi messages", slog.Int64("count", n))
		}
		return nil
	})
}

// follow runs the script's scheduled functions against the wall clock.
func follow(ctx context.Context, s *script.Script, log *slog.Logger) error {
	start := time.Now()
	t := time.NewTicker(5 * time.Millisecond)
	defer t.Stop()
	for s.Pending() > 0 {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
		if err := s.Advance(time.Since(start)); err != nil {
			log.Warn("script", slog.Any("err", err))
		}
	}
	return nil
}
