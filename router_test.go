package synth

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func edge(sm, so, dm, di int) Connection {
	return Connection{SrcModule: sm, SrcOutput: so, DestModule: dm, DestInput: di}
}

func TestFanInSums(t *testing.T) {
	a, b, dst := newStub(0, 1), newStub(0, 1), newStub(1, 0)
	a.out = []Sample{{0, 0.3}}
	b.out = []Sample{{0, -0.1}}
	r := NewRouter([]Module{NewOutput(), a, b, dst}, nil)

	r.Tick([]Connection{edge(1, 0, 3, 0), edge(2, 0, 3, 0)})

	require.Len(t, dst.got[0], 1)
	assert.InDelta(t, 0.2, dst.got[0][0], 1e-12)
	assert.Equal(t, 1, dst.calls[0])
}

func TestRepeatedOutputAccumulates(t *testing.T) {
	a, dst := newStub(0, 1), newStub(1, 0)
	a.out = []Sample{{0, 0.25}, {0, 0.5}}
	r := NewRouter([]Module{NewOutput(), a, dst}, nil)
	r.Tick([]Connection{edge(1, 0, 2, 0)})
	assert.Equal(t, []float64{0.75}, dst.got[0])
}

func TestOneTickDelay(t *testing.T) {
	for _, c := range []struct {
		name     string
		src, dst int
	}{
		{"source first", 1, 2},
		{"source last", 2, 1},
	} {
		t.Run(c.name, func(t *testing.T) {
			src := newStub(0, 1)
			e := &echo{}
			mods := []Module{NewOutput(), nil, nil}
			mods[c.src], mods[c.dst] = src, e
			r := NewRouter(mods, nil)
			edges := []Connection{edge(c.src, 0, c.dst, 0)}

			for tick := range 6 {
				if tick == 3 {
					src.out = []Sample{{0, 1}}
				}
				r.Tick(edges)
			}
			// the echo sees the step at tick 3 no earlier than tick 4.
			assert.Equal(t, []float64{0, 0, 0, 0, 1, 1}, e.seen)
		})
	}
}

func TestCycle(t *testing.T) {
	a, b := &echo{last: 1}, &echo{}
	r := NewRouter([]Module{NewOutput(), a, b}, nil)
	edges := []Connection{edge(1, 0, 2, 0), edge(2, 0, 1, 0)}
	for range 4 {
		r.Tick(edges)
	}
	assert.Equal(t, []float64{1, 0, 1, 0}, a.seen)
	assert.Equal(t, []float64{0, 1, 0, 1}, b.seen)
}

func TestSilenceByOmission(t *testing.T) {
	src, dst := newStub(0, 1), newStub(3, 0)
	src.out = []Sample{{0, 0.5}}
	r := NewRouter([]Module{NewOutput(), src, dst}, nil)
	for range 5 {
		r.Tick([]Connection{edge(1, 0, 2, 1)})
	}
	assert.Equal(t, 0, dst.calls[0])
	assert.Equal(t, 5, dst.calls[1])
	assert.Equal(t, 0, dst.calls[2])
}

func TestSilentOutputStillDelivers(t *testing.T) {
	// absent, not zero: nothing is added, but the edge still exists.
	src, dst := newStub(0, 2), newStub(1, 0)
	src.out = []Sample{{0, 0.5}}
	r := NewRouter([]Module{NewOutput(), src, dst}, nil)
	r.Tick([]Connection{edge(1, 1, 2, 0)})
	assert.Equal(t, []float64{0}, dst.got[0])
}

func TestAnomaliesDoNotStopTheTick(t *testing.T) {
	src, bad, good := newStub(0, 1), newStub(1, 0), newStub(1, 0)
	src.out = []Sample{{0, 0.5}, {7, 1}}
	bad.fail = true
	r := NewRouter([]Module{NewOutput(), src, bad, good}, nil)
	edges := []Connection{
		edge(1, 0, 2, 0),
		edge(1, 0, 9, 0),
		edge(1, 0, 3, 0),
	}
	r.Tick(edges)
	r.Tick(edges)
	assert.Equal(t, 0, bad.calls[0])
	assert.Equal(t, []float64{0.5, 0.5}, good.got[0])
}

func TestSinkReceives(t *testing.T) {
	out := NewOutput()
	src := newStub(0, 1)
	src.out = []Sample{{0, 0.4}}
	r := NewRouter([]Module{out, src}, nil)
	r.Tick([]Connection{edge(1, 0, 0, 0), edge(1, 0, 0, 0)})
	assert.InDelta(t, math.Tanh(0.8)*DefaultVolume, out.Take(), 1e-12)
	assert.Equal(t, 0.0, out.Take())
}
