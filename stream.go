package synth

import "time"

// DefaultTimeout is how long a Stream waits for each tick.
const DefaultTimeout = 10 * time.Millisecond

// Stream adapts the scheduler to a pull based audio API: every call to Next
// asks for one tick and waits for its sample. A Stream substitutes silence
// when the scheduler is late or gone, it never blocks for longer than its
// timeout per call. Each demand carries a sequence number and replies to
// earlier demands are thrown away, so a late sample is never played. A
// Stream is used by one audio callback at a time.
type Stream struct {
	demand  chan<- uint64
	reply   <-chan reply
	seq     uint64
	timeout time.Duration
	timer   *time.Timer
	closed  bool
}

// reply is the sample computed for demand seq.
type reply struct {
	seq uint64
	v   float64
}

func newStream(demand chan<- uint64, replies <-chan reply, timeout time.Duration) *Stream {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	t := time.NewTimer(timeout)
	if !t.Stop() {
		<-t.C
	}
	return &Stream{
		demand:  demand,
		reply:   replies,
		timeout: timeout,
		timer:   t,
	}
}

// Next returns the next sample, or 0 if none arrives in time.
func (s *Stream) Next() float64 {
	if s.closed {
		return 0
	}
	// a reply to a demand we gave up on.
	select {
	case _, ok := <-s.reply:
		if !ok {
			s.closed = true
			return 0
		}
	default:
	}
	s.seq++
	s.reset()
	select {
	case s.demand <- s.seq:
	case <-s.timer.C:
		return 0
	}
	for {
		select {
		case r, ok := <-s.reply:
			if !ok {
				s.closed = true
				return 0
			}
			if r.seq == s.seq {
				return r.v
			}
		case <-s.timer.C:
			return 0
		}
	}
}

// Fill writes consecutive samples into buf.
func (s *Stream) Fill(buf []float32) {
	for i := range buf {
		buf[i] = float32(s.Next())
	}
}

func (s *Stream) reset() {
	if !s.timer.Stop() {
		select {
		case <-s.timer.C:
		default:
		}
	}
	s.timer.Reset(s.timeout)
}
