package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestPrepareFailsBeforePlaying(t *testing.T) {
	for name, opts := range map[string]*runOptions{
		"bad cc map": {rootOptions: &rootOptions{
			config: writeFile(t, "synth.yaml", "midi:\n  cc:\n    1: kazoo.volume\n"),
		}},
		"bad script": {
			rootOptions: &rootOptions{},
			noMIDI:      true,
			script:      writeFile(t, "bad.lua", "play(\"H9\")\n"),
		},
		"bad backend": {rootOptions: &rootOptions{}, backend: "jack"},
	} {
		t.Run(name, func(t *testing.T) {
			l, err := prepare(opts)
			assert.Error(t, err)
			assert.Nil(t, l)
		})
	}
}

func TestPrepare(t *testing.T) {
	opts := &runOptions{
		rootOptions: &rootOptions{logLevel: "error"},
		script:      writeFile(t, "ok.lua", "at(1, function() play(\"C4\") end)\n"),
	}
	l, err := prepare(opts)
	require.NoError(t, err)
	defer l.close()
	assert.NotNil(t, l.midi)
	require.NotNil(t, l.script)
	assert.Equal(t, 1, l.script.Pending())
	assert.Len(t, l.closers, 1)

	l.close()
	assert.Empty(t, l.closers)

	opts.noMIDI = true
	l, err = prepare(opts)
	require.NoError(t, err)
	defer l.close()
	assert.Nil(t, l.midi)
}
