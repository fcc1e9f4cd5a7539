package midi

import (
	"errors"
	"fmt"
)

// MessageType is a UMP message type, a group of types of message.
type MessageType byte

const (
	MTUtility       MessageType = 0x0
	MTSystem        MessageType = 0x1
	MTChannelVoice1 MessageType = 0x2
	MTData          MessageType = 0x3
	MTChannelVoice2 MessageType = 0x4
	MTLongData      MessageType = 0x5
	// several reserved.
	MTFlexData MessageType = 0xD
	// 0xE is reserved
	MTUMPStream MessageType = 0xF
)

// messageTypeSizes is size in uint32s of each type of message.
var messageTypeSizes = []int{
	MTUtility:       1,
	MTSystem:        1,
	MTChannelVoice1: 1,
	MTData:          2,
	MTChannelVoice2: 2,
	MTLongData:      4,
	MTFlexData:      4,
	MTUMPStream:     4,
}

type Message struct {
	Type  MessageType
	Group byte
	// fields for 1.0 Channel Voice messages.
	CV1Type CV1MessageType
	Channel byte
	// MIDI note for note on/note off/poly pressure, but also
	// index for control change and program for program change.
	Note      byte
	Velocity  byte // for note {on, off}, {poly,channel} pressure.
	PitchBend uint16
}

// CV1MessageType is the type of a 1.0 Channel Voice message. Also the high 4
// bits of the first actual message byte (and the high 4 bits of the classic
// format, as they all have the first bit set).
type CV1MessageType byte

const (
	CV1NoteOff = CV1MessageType(0x8 | byte(iota))
	CV1NoteOn
	CV1PolyPressure
	CV1ControlChange
	CV1ProgramChange
	CV1ChannelPressure
	CV1PitchBend
)

func parseChannelVoice1(raw []uint32) (Message, []uint32, error) {
	// This message is only 32 bits.
	p, raw := raw[0], raw[1:]
	// Group is second-most significant set of 4 bits.
	g := byte(p>>24) & 0xF
	// The remaining 3 bytes are more or less the traditional bytes from the
	// old format.
	msg := Message{
		Type:    MTChannelVoice1,
		Group:   g,
		CV1Type: CV1MessageType((p >> 20) & 0xF),
		Channel: byte((p >> 16) & 0xF),
	}
	switch msg.CV1Type {
	case CV1NoteOff, CV1NoteOn, CV1PolyPressure, CV1ControlChange:
		// a byte of note, and a byte of velocity. High bit
		// _should_ be zero.
		msg.Note = byte(p>>8) & 0x7F
		msg.Velocity = byte(p) & 0x7F
	case CV1ProgramChange:
		msg.Note = byte(p>>8) & 0x7F
	case CV1ChannelPressure:
		msg.Velocity = byte(p>>8) & 0x7F
	case CV1PitchBend:
		low := uint16(p>>8) & 0x7F
		high := uint16(p) & 0x7F
		msg.PitchBend = (high << 7) | low
	default:
		return msg, nil, fmt.Errorf("invalid 1.0 Channel Voice message type: %d", msg.CV1Type)
	}
	return msg, raw, nil
}

// ErrUnsupported is returned for message types that are skipped rather than
// parsed.
var ErrUnsupported = errors.New("unsupported message type")

// ParseMessage parses a single (possibly variable-length) UMP message from a
// slice of raw data. Returns the original slice, advanced to the start of the
// next message (or the end). The slice is advanced past unsupported messages
// too, along with an error wrapping ErrUnsupported.
func ParseMessage(raw []uint32) (Message, []uint32, error) {
	if len(raw) == 0 {
		return Message{}, nil, errors.New("no input")
	}
	// The type is always the most significant 4 bits.
	t := MessageType(raw[0] >> 28)
	switch t {
	case MTChannelVoice1:
		return parseChannelVoice1(raw)
	}
	n := 1
	if int(t) < len(messageTypeSizes) && messageTypeSizes[t] > 0 {
		n = messageTypeSizes[t]
	}
	if n > len(raw) {
		return Message{Type: t}, nil, fmt.Errorf("%v message needs %d words, have %d", t, n, len(raw))
	}
	return Message{Type: t}, raw[n:], fmt.Errorf("%v: %w", t, ErrUnsupported)
}

// ParseMessages calls ParseMesage until the input is exhausted. Unsupported
// messages are skipped quietly, the first other error is returned along with
// the messages before it.
func ParseMessages(raw []uint32) ([]Message, error) {
	var messages []Message
	for len(raw) > 0 {
		msg, next, err := ParseMessage(raw)
		switch {
		case errors.Is(err, ErrUnsupported):
		case err != nil:
			return messages, err
		default:
			messages = append(messages, msg)
		}
		raw = next
	}
	return messages, nil
}

// FromBytes packs a MIDI 1.0 channel voice message, status byte first, into
// a group 0 UMP word. Missing data bytes are zero.
func FromBytes(b []byte) (uint32, bool) {
	if len(b) == 0 || b[0] < 0x80 || b[0] >= 0xF0 {
		return 0, false
	}
	w := uint32(MTChannelVoice1)<<28 | uint32(b[0])<<16
	if len(b) > 1 {
		w |= uint32(b[1]&0x7F) << 8
	}
	if len(b) > 2 {
		w |= uint32(b[2] & 0x7F)
	}
	return w, true
}

// NoteOn reports whether msg starts a note. A note on with zero velocity is a
// note off.
func (m Message) NoteOn() bool {
	return m.Type == MTChannelVoice1 && m.CV1Type == CV1NoteOn && m.Velocity > 0
}

// NoteOff reports whether msg ends a note.
func (m Message) NoteOff() bool {
	return m.Type == MTChannelVoice1 &&
		(m.CV1Type == CV1NoteOff || (m.CV1Type == CV1NoteOn && m.Velocity == 0))
}

func (m Message) String() string {
	switch m.CV1Type {
	case CV1NoteOn, CV1NoteOff, CV1PolyPressure:
		return fmt.Sprintf("%v ch%d note %d vel %d", m.CV1Type, m.Channel, m.Note, m.Velocity)
	case CV1ControlChange:
		return fmt.Sprintf("%v ch%d cc %d = %d", m.CV1Type, m.Channel, m.Note, m.Velocity)
	case CV1ProgramChange:
		return fmt.Sprintf("%v ch%d program %d", m.CV1Type, m.Channel, m.Note)
	case CV1ChannelPressure:
		return fmt.Sprintf("%v ch%d pressure %d", m.CV1Type, m.Channel, m.Velocity)
	case CV1PitchBend:
		return fmt.Sprintf("%v ch%d bend %d", m.CV1Type, m.Channel, m.PitchBend)
	}
	return fmt.Sprintf("%v group %d", m.Type, m.Group)
}

var messageTypeNames = map[MessageType]string{
	MTUtility:       "Utility",
	MTSystem:        "System",
	MTChannelVoice1: "ChannelVoice1",
	MTData:          "Data",
	MTChannelVoice2: "ChannelVoice2",
	MTLongData:      "LongData",
	MTFlexData:      "FlexData",
	MTUMPStream:     "UMPStream",
}

func (t MessageType) String() string {
	if n, ok := messageTypeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("MessageType(%#x)", byte(t))
}

var cv1Names = []string{
	"NoteOff", "NoteOn", "PolyPressure", "ControlChange",
	"ProgramChange", "ChannelPressure", "PitchBend",
}

func (t CV1MessageType) String() string {
	if t >= CV1NoteOff && t <= CV1PitchBend {
		return cv1Names[t-CV1NoteOff]
	}
	return fmt.Sprintf("CV1MessageType(%#x)", byte(t))
}
