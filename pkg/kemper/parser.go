package kemper

import (
	log "github.com/sirupsen/logrus"
	"gitlab.com/gomidi/midi/v2"

	"github.com/speters/ampctl/pkg/stream"
)

// classify returns the frame length announced by a status byte. SysEx frames
// announce their maximum size and end early on StatusSysExEnd.
func classify(status byte) stream.Verdict {
	switch status {
	case StatusControlChange:
		return stream.Expect(3)
	case StatusProgramChange:
		return stream.Expect(2)
	case StatusSysEx:
		return stream.Expect(SysExSize)
	}
	return stream.Rejected
}

// Parser reassembles MIDI control change, program change and SysEx frames
// sent by the KPA, one byte at a time.
//
// Data bytes arriving while no frame is open are ignored. Status bytes the
// KPA driver does not handle (realtime, note on, ...) are ignored as well and
// leave an open frame untouched, while B0, C0 and F0 always start a new
// frame.
type Parser struct {
	buf    *stream.Accumulator
	expect int
	sysex  bool

	Stats stream.Stats
}

// NewParser returns an idle Parser
func NewParser() *Parser {
	return &Parser{buf: stream.NewAccumulator(SysExSize)}
}

// Collecting reports whether a frame is open
func (p *Parser) Collecting() bool { return !p.buf.IsEmpty() }

// Reset drops any partially received frame
func (p *Parser) Reset() {
	p.buf.Clear()
	p.expect = 0
	p.sysex = false
}

// Feed consumes one byte and returns the decoded event when it completes a
// frame.
func (p *Parser) Feed(b byte) (stream.Event, bool) {
	if b >= 0x80 {
		return p.status(b)
	}

	if !p.Collecting() {
		p.Stats.Ignored++
		return nil, false
	}
	if !p.buf.Push(b) {
		p.overflow()
		return nil, false
	}
	if !p.sysex && p.buf.Len() == p.expect {
		return p.complete()
	}
	return nil, false
}

func (p *Parser) status(b byte) (stream.Event, bool) {
	if b == StatusSysExEnd {
		if !p.sysex {
			p.Stats.Ignored++
			return nil, false
		}
		if !p.buf.Push(b) {
			p.overflow()
			return nil, false
		}
		return p.complete()
	}

	v := classify(b)
	if v.Reject {
		p.Stats.Ignored++
		return nil, false
	}

	if p.Collecting() {
		log.Debugf("kemper: status %#02x cuts frame '% x'", b, p.buf.Bytes())
		p.Stats.Rejected++
		p.Reset()
	}
	p.buf.Push(b)
	p.expect = v.Expect
	p.sysex = b == StatusSysEx
	return nil, false
}

func (p *Parser) overflow() {
	log.Debugf("kemper: frame exceeds %d bytes, dropped", p.buf.Cap())
	p.Stats.Overflows++
	p.Reset()
}

func (p *Parser) complete() (stream.Event, bool) {
	defer p.Reset()
	p.Stats.Frames++

	ev := decode(p.buf)
	if ev == nil {
		log.Debugf("kemper: could not decode '% x'", p.buf.Bytes())
		p.Stats.Rejected++
		return nil, false
	}
	p.Stats.Events++
	return ev, true
}

func decode(buf *stream.Accumulator) stream.Event {
	msg := midi.Message(buf.Bytes())
	var ch, a, b uint8

	switch buf.At(0) {
	case StatusControlChange:
		if msg.GetControlChange(&ch, &a, &b) {
			return ControlChange{Number: a, Value: b}
		}
	case StatusProgramChange:
		if msg.GetProgramChange(&ch, &a) {
			return ProgramChange{Number: a}
		}
	case StatusSysEx:
		return decodeSysEx(buf.Copy())
	}
	return nil
}

// decodeSysEx turns a complete F0 ... F7 frame into a parameter answer, or a
// plain SysEx event when it is none of the known answers.
func decodeSysEx(raw []byte) stream.Event {
	if len(raw) < minParamFrame {
		return SysEx{Data: raw}
	}

	page, param := raw[offPage], raw[offParam]
	switch raw[offFunction] {
	case FnReturnParam:
		return ParamSingle{Page: page, Param: param, MSB: raw[offValue], LSB: raw[offValue+1], Raw: raw}
	case FnReturnString:
		return ParamString{Page: page, Param: param, Value: cString(raw[offValue : len(raw)-1]), Raw: raw}
	}
	return SysEx{Data: raw}
}

// cString returns b up to its first zero byte. The scan never leaves b, which
// is bounded by the frame.
func cString(b []byte) []byte {
	for i, c := range b {
		if c == 0x00 {
			return b[:i:i]
		}
	}
	return b
}
