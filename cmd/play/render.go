package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfcm/synth/io"
	"github.com/pfcm/synth/script"
)

type renderOptions struct {
	*rootOptions
	seconds float64
	out     string
	script  string
}

func newRenderCommand(root *rootOptions) *cobra.Command {
	opts := &renderOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the synth to a wav file",
		Long: `Render the synth offline to a 16 bit mono wav file.

The rack ticks as fast as it can. Scheduled functions in the script run at
sample time rather than wall clock time. For example:

  play render --seconds 4 --script arpeggio.lua --out arpeggio.wav`,
		Args: cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return render(opts)
		},
	}
	cmd.Flags().Float64Var(&opts.seconds, "seconds", 5, "length of the output")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "out.wav", "file to write")
	cmd.Flags().StringVar(&opts.script, "script", "", "Lua script to run")
	return cmd
}

func render(opts *renderOptions) (err error) {
	if opts.seconds <= 0 {
		return fmt.Errorf("--seconds must be positive, not %v", opts.seconds)
	}
	cfg, log, err := opts.load()
	if err != nil {
		return err
	}
	c, err := newSynth(cfg, log)
	if err != nil {
		return err
	}

	src := io.SourceFunc(c.Tick)
	var serr error
	if opts.script != "" {
		s := script.New(c)
		defer s.Close()
		if err := s.RunFile(opts.script); err != nil {
			return err
		}
		var i int
		sr := time.Duration(cfg.SampleRate)
		src = func() float64 {
			if serr == nil {
				serr = s.Advance(time.Duration(i) * time.Second / sr)
			}
			i++
			return c.Tick()
		}
	}

	f, err := os.Create(opts.out)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	n := int(opts.seconds * float64(cfg.SampleRate))
	start := time.Now()
	if err := io.RenderWAV(f, cfg.SampleRate, n, src); err != nil {
		return fmt.Errorf("writing %s: %w", opts.out, err)
	}
	if serr != nil {
		return serr
	}
	log.Info("rendered",
		slog.String("file", opts.out),
		slog.Int("samples", n),
		slog.Duration("took", time.Since(start)))
	return nil
}
