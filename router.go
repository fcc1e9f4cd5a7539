package synth

import (
	"context"
	"log/slog"
)

type port struct {
	module, index int
}

// Router runs the per-tick algorithm over a fixed set of modules. Module 0 is
// the output sink. Every output is collected before anything is delivered, so
// each edge has exactly one tick of delay and cycles are harmless.
//
// A Router is not safe for concurrent use; the Controller serialises ticks.
type Router struct {
	log  *slog.Logger
	mods []Module

	// scratch, indexed by module id then port.
	src  [][]float64
	dest [][]float64
	seen [][]bool

	touched  []port
	samples  []Sample
	one      [1]float64
	reported map[anomalyKey]bool
}

type anomalyKey struct {
	port
	output bool
}

// NewRouter sizes the scratch buffers to the port counts of mods.
func NewRouter(mods []Module, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	r := &Router{
		log:      log,
		mods:     mods,
		src:      make([][]float64, len(mods)),
		dest:     make([][]float64, len(mods)),
		seen:     make([][]bool, len(mods)),
		reported: make(map[anomalyKey]bool),
	}
	for i, m := range mods {
		info := m.Info()
		r.src[i] = make([]float64, len(info.Outputs))
		r.dest[i] = make([]float64, len(info.Inputs))
		r.seen[i] = make([]bool, len(info.Inputs))
	}
	return r
}

// Tick runs once over edges. edges must only be read by the caller until
// Tick returns.
func (r *Router) Tick(edges []Connection) {
	// collect
	for id, m := range r.mods {
		clear(r.src[id])
		r.samples = m.GetSamples(r.samples[:0])
		for _, s := range r.samples {
			if s.Output < 0 || s.Output >= len(r.src[id]) {
				r.anomaly(anomalyKey{port{id, s.Output}, true}, "module produced an unknown output",
					slog.Int("module", id), slog.Int("output", s.Output))
				continue
			}
			r.src[id][s.Output] += s.Value
		}
	}

	// fan out
	r.touched = r.touched[:0]
	for _, e := range edges {
		if !r.inRange(e) {
			r.anomaly(anomalyKey{port: port{e.DestModule, e.DestInput}}, "dropping edge outside the rack",
				slog.String("edge", e.String()))
			continue
		}
		r.dest[e.DestModule][e.DestInput] += r.src[e.SrcModule][e.SrcOutput]
		if !r.seen[e.DestModule][e.DestInput] {
			r.seen[e.DestModule][e.DestInput] = true
			r.touched = append(r.touched, port{e.DestModule, e.DestInput})
		}
	}

	// deliver
	for _, p := range r.touched {
		r.one[0] = r.dest[p.module][p.index]
		if err := r.mods[p.module].RecvSamples(p.index, r.one[:]); err != nil {
			r.anomaly(anomalyKey{port: p}, "delivery rejected",
				slog.Int("module", p.module), slog.Int("input", p.index), slog.Any("err", err))
		}
		r.dest[p.module][p.index] = 0
		r.seen[p.module][p.index] = false
	}
}

func (r *Router) inRange(e Connection) bool {
	return e.SrcModule >= 0 && e.SrcModule < len(r.src) &&
		e.SrcOutput >= 0 && e.SrcOutput < len(r.src[e.SrcModule]) &&
		e.DestModule >= 0 && e.DestModule < len(r.dest) &&
		e.DestInput >= 0 && e.DestInput < len(r.dest[e.DestModule])
}

// anomaly logs a per-tick problem the first time it is seen at k, since the
// same one will repeat every sample.
func (r *Router) anomaly(k anomalyKey, msg string, attrs ...slog.Attr) {
	if r.reported[k] {
		return
	}
	r.reported[k] = true
	r.log.LogAttrs(context.Background(), slog.LevelWarn, msg, attrs...)
}
