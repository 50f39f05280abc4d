package vox

import (
	log "github.com/sirupsen/logrus"
	"gitlab.com/gomidi/midi/v2"

	"github.com/speters/ampctl/pkg/stream"
)

const maxFrame = 3

// statusRealtime is the first MIDI realtime status byte
const statusRealtime = 0xF8

func classify(status byte) stream.Verdict {
	switch status {
	case StatusTuner, StatusControl, StatusReset, StatusDelay:
		return stream.Expect(3)
	case StatusProgram, StatusSilent:
		return stream.Expect(2)
	}
	return stream.Rejected
}

// Parser reassembles the 2 and 3 byte frames sent by the amp. Realtime bytes
// (0xF8 and up) are ignored and leave the open frame untouched. Any other
// status byte ends the open frame: a known one starts the next frame, any
// other leaves the parser idle.
type Parser struct {
	buf    *stream.Accumulator
	expect int

	Stats stream.Stats
}

func NewParser() *Parser {
	return &Parser{buf: stream.NewAccumulator(maxFrame)}
}

// Collecting reports whether a frame is open
func (p *Parser) Collecting() bool { return !p.buf.IsEmpty() }

// Reset drops any partially received frame
func (p *Parser) Reset() {
	p.buf.Clear()
	p.expect = 0
}

// Feed consumes one byte and returns the decoded event when it completes a
// frame
func (p *Parser) Feed(b byte) (stream.Event, bool) {
	if b >= statusRealtime {
		p.Stats.Ignored++
		return nil, false
	}
	if b >= 0x80 {
		if p.Collecting() {
			log.Debugf("vox: status %#02x cuts frame '% x'", b, p.buf.Bytes())
			p.Stats.Rejected++
			p.Reset()
		}
		v := classify(b)
		if v.Reject {
			p.Stats.Ignored++
			return nil, false
		}
		p.buf.Push(b)
		p.expect = v.Expect
		return nil, false
	}

	if !p.Collecting() {
		p.Stats.Ignored++
		return nil, false
	}
	if !p.buf.Push(b) {
		log.Debugf("vox: frame exceeds %d bytes, dropped", p.buf.Cap())
		p.Stats.Overflows++
		p.Reset()
		return nil, false
	}
	if p.buf.Len() == p.expect {
		return p.complete()
	}
	return nil, false
}

func (p *Parser) complete() (stream.Event, bool) {
	defer p.Reset()
	p.Stats.Frames++

	ev := decode(p.buf.Bytes())
	if ev == nil {
		p.Stats.Ignored++
		return nil, false
	}
	p.Stats.Events++
	return ev, true
}

func decode(f []byte) stream.Event {
	msg := midi.Message(f)
	var ch, a, b uint8

	switch f[0] {
	case StatusReset:
		if f[1] == ccResetAllControllers {
			return Reset{}
		}
	case StatusProgram:
		if msg.GetProgramChange(&ch, &a) {
			return ProgramChanged{Program: a}
		}
	case StatusControl:
		if msg.GetControlChange(&ch, &a, &b) && a == CCStomp {
			return stompFromBits(b)
		}
	case StatusTuner:
		if f[1] == 0x00 {
			return TunerOnOff{Value: f[2]}
		}
		return TunerValue{Note: f[1], Cents: f[2]}
	case StatusSilent:
		if f[1] == 0x7F {
			return TunerSilent{}
		}
	case StatusDelay:
		return DelayTime{Ms: int(f[1]) + int(f[2])*128}
	}
	return nil
}
