package synth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pfcm/synth/note"
)

// Controller owns a rack of modules, the routing table and the output sink,
// and is the control surface for all of them. The modules, the table and the
// sink each have their own lock; a tick holds the first two for its duration
// and never while waiting for demand.
type Controller struct {
	log *slog.Logger

	mods struct {
		sync.Mutex
		list   []Module // list[0] is out
		router *Router
	}
	conns *Table
	out   *Output

	demand  chan uint64
	reply   chan reply
	running atomic.Bool
}

type Option func(*Controller)

// WithLogger sets the logger used for rejected operations and per-tick
// anomalies. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// NewController makes a controller for the given modules, which get ids 1
// through len(modules) in order. Id 0 is the output sink.
func NewController(modules []Module, opts ...Option) *Controller {
	c := &Controller{
		log:    slog.Default(),
		out:    NewOutput(),
		demand: make(chan uint64),
		reply:  make(chan reply, 1),
	}
	for _, o := range opts {
		o(c)
	}
	list := append([]Module{c.out}, modules...)
	ports := make([]Info, len(list))
	for i, m := range list {
		ports[i] = m.Info()
	}
	c.mods.list = list
	c.mods.router = NewRouter(list, c.log)
	c.conns = NewTable(ports)
	return c
}

// Output returns the sink at id 0.
func (c *Controller) Output() *Output { return c.out }

// Modules describes every module, indexed by id.
func (c *Controller) Modules() []Info {
	c.mods.Lock()
	defer c.mods.Unlock()
	infos := make([]Info, len(c.mods.list))
	for i, m := range c.mods.list {
		infos[i] = m.Info()
	}
	return infos
}

// Module returns the module with the given id.
func (c *Controller) Module(id int) (Module, error) {
	c.mods.Lock()
	defer c.mods.Unlock()
	return c.module(id)
}

func (c *Controller) module(id int) (Module, error) {
	if id < 0 || id >= len(c.mods.list) {
		return nil, fmt.Errorf("module %d: %w", id, ErrBadModule)
	}
	return c.mods.list[id], nil
}

// Connect routes output srcOut of module src to input destIn of module dest.
func (c *Controller) Connect(src, srcOut, dest, destIn int) error {
	conn := Connection{SrcModule: src, SrcOutput: srcOut, DestModule: dest, DestInput: destIn}
	err := c.checkLive(conn)
	if err == nil {
		err = c.conns.Add(conn)
	}
	if err != nil {
		c.log.Warn("connect rejected", slog.String("edge", conn.String()), slog.Any("err", err))
		return err
	}
	c.log.Info("connected", slog.String("edge", conn.String()))
	return nil
}

// Disconnect removes an edge added by Connect.
func (c *Controller) Disconnect(src, srcOut, dest, destIn int) error {
	conn := Connection{SrcModule: src, SrcOutput: srcOut, DestModule: dest, DestInput: destIn}
	if err := c.conns.Remove(conn); err != nil {
		c.log.Warn("disconnect rejected", slog.String("edge", conn.String()), slog.Any("err", err))
		return err
	}
	c.log.Info("disconnected", slog.String("edge", conn.String()))
	return nil
}

// DisconnectAll removes every edge.
func (c *Controller) DisconnectAll() {
	c.conns.Clear()
	c.log.Info("disconnected everything")
}

// Connections returns a copy of the routing table.
func (c *Controller) Connections() []Connection { return c.conns.List() }

// checkLive validates conn against the modules' current metadata.
func (c *Controller) checkLive(conn Connection) error {
	c.mods.Lock()
	defer c.mods.Unlock()
	ports := make([]Info, len(c.mods.list))
	for _, id := range []int{conn.SrcModule, conn.DestModule} {
		if id >= 0 && id < len(ports) {
			ports[id] = c.mods.list[id].Info()
		}
	}
	return validate(ports, conn)
}

// Play starts n on every module that plays notes.
func (c *Controller) Play(n note.Note) error {
	return c.eachPlayer("play", n, Player.Play)
}

// Stop releases n on every module that plays notes.
func (c *Controller) Stop(n note.Note) error {
	return c.eachPlayer("stop", n, Player.Stop)
}

func (c *Controller) eachPlayer(op string, n note.Note, f func(Player, note.Note) error) error {
	c.mods.Lock()
	defer c.mods.Unlock()
	var (
		errs  []error
		found bool
	)
	for id, m := range c.mods.list {
		p, ok := m.(Player)
		if !ok {
			continue
		}
		found = true
		if err := f(p, n); err != nil {
			errs = append(errs, fmt.Errorf("module %d: %w", id, err))
		}
	}
	err := errors.Join(errs...)
	if !found {
		err = fmt.Errorf("%s %v: %w", op, n, ErrNoPlayer)
	}
	if err != nil {
		c.log.Warn(op+" rejected", slog.String("note", n.String()), slog.Any("err", err))
	}
	return err
}

// Set writes a parameter of one module.
func (c *Controller) Set(id int, param string, v float64) error {
	c.mods.Lock()
	defer c.mods.Unlock()
	m, err := c.module(id)
	if err == nil {
		err = set(m, param, v)
	}
	if err != nil {
		c.log.Warn("set rejected", slog.Int("module", id), slog.String("param", param), slog.Any("err", err))
	}
	return err
}

// SetAll writes a parameter of every module of a kind.
func (c *Controller) SetAll(k Kind, param string, v float64) error {
	c.mods.Lock()
	defer c.mods.Unlock()
	var (
		errs  []error
		found bool
	)
	for id, m := range c.mods.list {
		if m.Info().Kind != k {
			continue
		}
		found = true
		if err := set(m, param, v); err != nil {
			errs = append(errs, fmt.Errorf("module %d: %w", id, err))
		}
	}
	err := errors.Join(errs...)
	if !found {
		err = fmt.Errorf("no %v in the rack: %w", k, ErrBadModule)
	}
	if err != nil {
		c.log.Warn("set rejected", slog.String("kind", k.String()), slog.String("param", param), slog.Any("err", err))
	}
	return err
}

func set(m Module, param string, v float64) error {
	t, ok := m.(Tunable)
	if !ok {
		return UnknownParam(m.Info().Kind, param)
	}
	return t.Set(param, v)
}

// PitchBend bends every polyphonic oscillator, v is in [-1, 1].
func (c *Controller) PitchBend(v float64) error {
	return c.SetAll(KindMCO, "bend", v)
}

// SetVolume sets the output volume, clamped to [0, 1].
func (c *Controller) SetVolume(v float64) { c.out.SetVolume(v) }

func (c *Controller) Volume() float64 { return c.out.Volume() }

// Tick runs the routing algorithm once and returns the sample that reached
// the output sink, or 0 if nothing did.
func (c *Controller) Tick() float64 {
	c.mods.Lock()
	c.mods.router.Tick(c.conns.Snapshot())
	c.mods.Unlock()
	return c.out.Take()
}

// Run is the scheduler loop: it waits for demand from a Stream, ticks, and
// replies with the sample. It returns nil once ctx is done, after which
// Streams only produce silence. Run may only be called once.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return errors.New("controller is already running")
	}
	defer close(c.reply)
	for {
		var seq uint64
		select {
		case <-ctx.Done():
			return nil
		case seq = <-c.demand:
		}
		r := reply{seq: seq, v: c.Tick()}
		select {
		case c.reply <- r:
			continue
		default:
		}
		// the stream gave up on the reply still buffered, replace it.
		select {
		case <-c.reply:
		default:
		}
		select {
		case c.reply <- r:
		default:
		}
	}
}

// Stream returns an adapter that pulls one sample per call from Run, waiting
// at most timeout for each.
func (c *Controller) Stream(timeout time.Duration) *Stream {
	return newStream(c.demand, c.reply, timeout)
}
