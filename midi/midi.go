// package midi handles midi.
package midi

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// ChannelMask has bit n set for channel n.
type ChannelMask uint16

const AllChannels ChannelMask = 0xFFFF

// Channels makes a mask of the given channels, 0 to 15.
func Channels(chs ...byte) ChannelMask {
	var m ChannelMask
	for _, c := range chs {
		m |= 1 << (c & 0xF)
	}
	return m
}

// Listener is function that blocks until its context is done, calling a
// provided callback with UMP midi messages.
type Listener func(context.Context, func([]uint32)) error

type sub struct {
	f filter
	c chan Message
}

// Dispatcher routes MIDI messages to a set of channels.
type Dispatcher struct {
	log     *slog.Logger
	done    chan struct{}
	err     error
	dropped atomic.Int64

	mu     sync.Mutex
	subs   []sub
	closed bool
}

// Listen starts listening for MIDI messages in the background with the provided
// Listener. It returns a Dispatcher whose Subscribe message can be used to get
// a channel on which to receive Messages. Malformed messages are logged and
// skipped. When the listener returns, every subscription is closed and Wait
// returns the listener's error.
func Listen(ctx context.Context, l Listener, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	d := &Dispatcher{log: log, done: make(chan struct{})}

	go func() {
		defer close(d.done)
		defer d.close()
		d.err = l(ctx, func(raw []uint32) {
			msgs, err := ParseMessages(raw)
			if err != nil {
				d.log.Warn("bad midi message", slog.Any("err", err))
			}
			for _, m := range msgs {
				d.dispatch(m)
			}
		})
	}()

	return d
}

// Wait blocks until the listener has returned, then returns its error.
func (d *Dispatcher) Wait() error {
	<-d.done
	return d.err
}

// Dropped counts the messages thrown away because a subscriber was not
// keeping up.
func (d *Dispatcher) Dropped() int64 { return d.dropped.Load() }

func (d *Dispatcher) dispatch(msg Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.subs {
		if !s.f.match(msg) {
			continue
		}
		select {
		case s.c <- msg:
		default:
			d.dropped.Add(1)
		}
	}
}

func (d *Dispatcher) close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.subs {
		close(s.c)
	}
	d.subs = d.subs[:0]
	d.closed = true
}

// Subscribe returns a channel of the messages that pass the filters. It is
// closed when the listener returns; subscribing after that returns a closed
// channel.
func (d *Dispatcher) Subscribe(opts ...SubscriptionFilter) <-chan Message {
	f := defaultFilter()
	for _, o := range opts {
		o(&f)
	}

	c := make(chan Message, 100)
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		close(c)
		return c
	}
	d.subs = append(d.subs, sub{f: f, c: c})
	return c
}

type filter struct {
	channels ChannelMask
	cv1Types [7]bool
}

func defaultFilter() filter {
	f := filter{
		channels: AllChannels,
	}
	for i := range f.cv1Types {
		f.cv1Types[i] = true
	}
	return f
}

func (f *filter) match(msg Message) bool {
	if f.channels&(1<<(msg.Channel&0xF)) == 0 {
		return false
	}
	return f.cv1Types[int(msg.CV1Type&0x7)]
}

type SubscriptionFilter func(f *filter)

func WithChannelMask(cm ChannelMask) SubscriptionFilter {
	return func(f *filter) { f.channels = cm }
}

func WithoutCV1Type(t CV1MessageType) SubscriptionFilter {
	return func(f *filter) {
		f.cv1Types[int(t&0x7)] = false
	}
}

// OnlyCV1Types drops every message type but ts.
func OnlyCV1Types(ts ...CV1MessageType) SubscriptionFilter {
	return func(f *filter) {
		clear(f.cv1Types[:])
		for _, t := range ts {
			f.cv1Types[int(t&0x7)] = true
		}
	}
}
