package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfcm/synth"
)

func TestDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 44100, cfg.SampleRate)
	assert.Equal(t, "malgo", cfg.Backend)
	assert.Equal(t, 10*time.Millisecond, cfg.Timeout)
	assert.Equal(t, []synth.Kind{synth.KindMCO, synth.KindChorus, synth.KindLFO}, cfg.Rack)
	assert.Len(t, cfg.Edges, 2)
}

func TestLoad(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "small.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 48000, cfg.SampleRate)
	assert.Equal(t, "oto", cfg.Backend)
	assert.Equal(t, 4, cfg.Polyphony)
	assert.Equal(t, 20*time.Millisecond, cfg.Timeout)
	assert.Equal(t, synth.DefaultVolume, cfg.Volume, "left out, so the default")
	assert.Equal(t, []synth.Kind{synth.KindMCO, synth.KindEnvFilter, synth.KindReverb, synth.KindOutput}, cfg.Rack)
	assert.Equal(t, synth.Connection{SrcModule: 1, DestModule: 2, DestInput: 1}, cfg.Edges[0])
	assert.Equal(t, "Keystation", cfg.MIDI.Port)
	assert.Equal(t, "reverb.decay", cfg.MIDI.CC[1])
	assert.Equal(t, "mco.cutoff", cfg.MIDI.CC[74], "defaults are kept")

	l, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l)
	assert.Equal(t, 48000.0, cfg.Options().SampleRate)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "nope.yaml"))
	assert.Error(t, err)
}

func TestParseErrors(t *testing.T) {
	for name, doc := range map[string]string{
		"unknown field": "sample_rat: 1",
		"unknown kind":  "rack: [mco, kazoo]",
		"sample rate":   "sample_rate: 10",
		"backend":       "backend: alsa",
		"polyphony":     "polyphony: 0",
		"volume":        "volume: 2",
		"log level":     "log_level: loud",
		"not yaml":      "rack: [",
	} {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			assert.Error(t, Parse([]byte(doc), &cfg))
		})
	}
}

func TestEmptyDocument(t *testing.T) {
	cfg := Default()
	require.NoError(t, Parse(nil, &cfg))
	assert.Equal(t, Default().Backend, cfg.Backend)
}

func TestRoundTrip(t *testing.T) {
	b, err := Default().Marshal()
	require.NoError(t, err)
	var cfg Config
	require.NoError(t, Parse(b, &cfg))
	assert.Equal(t, Default(), cfg)
}
