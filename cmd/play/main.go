// command play runs the synth.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"

	"github.com/spf13/cobra"

	"github.com/pfcm/synth"
	"github.com/pfcm/synth/config"
	"github.com/pfcm/synth/rack"
)

type rootOptions struct {
	config   string
	logLevel string
	profile  bool
}

func main() {
	if err := newRootCommand().ExecuteContext(interruptContext()); err != nil {
		log.Fatal(err)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	var finish func() error

	cmd := &cobra.Command{
		Use:           "play",
		Short:         "A modular synthesiser",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if !opts.profile {
				return nil
			}
			var err error
			finish, err = startProfiles()
			if err != nil {
				return fmt.Errorf("starting profiling: %w", err)
			}
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if finish == nil {
				return nil
			}
			if err := finish(); err != nil {
				return fmt.Errorf("finishing profiles: %w", err)
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.config, "config", "c", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "overrides the config's log level")
	cmd.PersistentFlags().BoolVar(&opts.profile, "profile", false, "write pprof profiles to the current working directory")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newRenderCommand(opts))
	cmd.AddCommand(newModulesCommand(opts))
	cmd.AddCommand(newGraphCommand(opts))
	cmd.AddCommand(newPortsCommand())
	return cmd
}

// load reads the config and makes the logger it asks for.
func (o *rootOptions) load() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.config)
	if err != nil {
		return cfg, nil, err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	lvl, err := cfg.Level()
	if err != nil {
		return cfg, nil, err
	}
	return cfg, slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

// newSynth builds the configured rack.
func newSynth(cfg config.Config, log *slog.Logger) (*synth.Controller, error) {
	c, err := rack.New(cfg.Rack, cfg.Edges, cfg.Options(), synth.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("building rack: %w", err)
	}
	c.SetVolume(cfg.Volume)
	return c, nil
}

func interruptContext() context.Context {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ctx
}

func startProfiles() (func() error, error) {
	cpu, err := os.Create("cpu.pprof")
	if err != nil {
		return nil, err
	}
	if err := pprof.StartCPUProfile(cpu); err != nil {
		return nil, fmt.Errorf("starting cpu profile: %w", err)
	}

	mem, err := os.Create("mem.pprof")
	if err != nil {
		return nil, err
	}
	return func() error {
		pprof.StopCPUProfile()
		if err := cpu.Close(); err != nil {
			return err
		}
		runtime.GC()
		if err := pprof.WriteHeapProfile(mem); err != nil {
			return err
		}
		return mem.Close()
	}, nil
}
