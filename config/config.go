// package config loads the synth's YAML configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pfcm/synth"
	"github.com/pfcm/synth/rack"
)

// Config is the synth configuration. Fields left out of a file keep their
// defaults.
type Config struct {
	// SampleRate of the audio device and every module.
	SampleRate int `yaml:"sample_rate"`

	// Backend is the audio output: malgo, oto or portaudio.
	Backend string `yaml:"backend"`

	// Polyphony is the number of voices in each MCO.
	Polyphony int `yaml:"polyphony"`

	// Volume of the output sink, in [0, 1].
	Volume float64 `yaml:"volume"`

	// Timeout is how long the audio callback waits for each sample.
	Timeout time.Duration `yaml:"timeout"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	// Rack lists the module kinds, the first gets id 1.
	Rack []synth.Kind `yaml:"rack"`

	// Edges are connected at startup.
	Edges []synth.Connection `yaml:"edges"`

	MIDI MIDI `yaml:"midi"`
}

// MIDI configures the MIDI input.
type MIDI struct {
	// Port is the input port name, empty for the first port. Set Disabled to
	// run without MIDI.
	Port     string `yaml:"port,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty"`

	// CC maps controller numbers to "kind.param" targets such as
	// "mco.cutoff" or "output.volume".
	CC map[uint8]string `yaml:"cc,omitempty"`
}

// Backends that can be named in a config.
var Backends = []string{"malgo", "oto", "portaudio"}

// Default returns the configuration used when there is no file.
func Default() Config {
	return Config{
		SampleRate: 44100,
		Backend:    "malgo",
		Polyphony:  10,
		Volume:     synth.DefaultVolume,
		Timeout:    synth.DefaultTimeout,
		LogLevel:   "info",
		Rack:       rack.Default(),
		Edges:      rack.DefaultEdges(),
		MIDI: MIDI{
			CC: map[uint8]string{
				7:  "output.volume",
				74: "mco.cutoff",
				71: "mco.resonance",
				73: "mco.attack",
				72: "mco.decay",
			},
		},
	}
}

// Load reads the file at path over the defaults. An empty path returns the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	if err := Parse(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes b into cfg and validates the result. Unknown fields are an
// error.
func Parse(b []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return cfg.Validate()
}

// Validate checks the values that would otherwise fail much later.
func (c Config) Validate() error {
	var errs []error
	if c.SampleRate < 8000 || c.SampleRate > 192000 {
		errs = append(errs, fmt.Errorf("sample rate %d out of range", c.SampleRate))
	}
	if !slices.Contains(Backends, c.Backend) {
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Backend))
	}
	if c.Polyphony < 1 {
		errs = append(errs, fmt.Errorf("polyphony %d must be positive", c.Polyphony))
	}
	if c.Volume < 0 || c.Volume > 1 {
		errs = append(errs, fmt.Errorf("volume %v not in [0, 1]", c.Volume))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}
	return l, nil
}

// Options is the rack configuration.
func (c Config) Options() rack.Options {
	return rack.Options{
		SampleRate: float64(c.SampleRate),
		Polyphony:  c.Polyphony,
	}
}

// Marshal encodes c as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
