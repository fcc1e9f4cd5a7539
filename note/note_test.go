package note

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrequency(t *testing.T) {
	for _, c := range []struct {
		n    Note
		want float64
	}{
		{A4, 440},
		{A4 + 12, 880},
		{C0, 16.3516},
		{C4, 261.6256},
	} {
		assert.InDelta(t, c.want, c.n.Frequency(), 0.001, "%v", c.n)
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "A4", A4.String())
	assert.Equal(t, "C#4", (C4 + 1).String())
	assert.Equal(t, "C0", C0.String())
	assert.Equal(t, "B8", B8.String())
}

func TestParse(t *testing.T) {
	for _, c := range []struct {
		in   string
		want Note
	}{
		{"A4", A4},
		{"a4", A4},
		{"C#4", C4 + 1},
		{"Db4", C4 + 1},
		{"f♯2", 42},
		{"B♭3", 58},
		{"C0", C0},
		{"B8", B8},
		{" G4 ", G4},
		{"Ａ４", A4},
		{"ｃ♯５", C5 + 1},
	} {
		got, err := Parse(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", "H4", "C", "C#x", "Cb0", "C9", "A-1"} {
		_, err := Parse(in)
		assert.Error(t, err, in)
	}
}

func TestRoundTrip(t *testing.T) {
	for n := Lowest; n <= Highest; n++ {
		got, err := Parse(n.String())
		require.NoError(t, err)
		assert.Equal(t, n, got)
	}
}
