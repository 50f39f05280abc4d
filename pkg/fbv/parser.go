package fbv

import (
	log "github.com/sirupsen/logrus"

	"github.com/speters/ampctl/pkg/stream"
)

// classify validates the header of a frame as it grows. The length is known
// once the command byte (third byte) has been checked.
func classify(h []byte) stream.Verdict {
	if len(h) == 0 || h[0] != frameStart {
		return stream.Rejected
	}
	if len(h) < 2 {
		return stream.NeedMore
	}

	var want int
	switch h[1] {
	case catHeartbeat:
		want = heartbeatLen
	case catControl:
		want = controlLen
	default:
		return stream.Rejected
	}
	if len(h) < 3 {
		return stream.NeedMore
	}

	switch {
	case want == heartbeatLen && (h[2] == cmdHeartbeat1 || h[2] == cmdHeartbeat2):
	case want == controlLen && (h[2] == cmdSwitch || h[2] == cmdPedal):
	default:
		return stream.Rejected
	}
	return stream.Expect(want)
}

// Parser reassembles the fixed size frames sent by the board. Any byte that
// does not fit the header drops the partial frame; when that byte is itself
// a frame start a new frame begins with it.
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
// frame. KeyReleased.WasHeld is always false here, the Board fills it in.
func (p *Parser) Feed(b byte) (stream.Event, bool) {
	if !p.Collecting() && b != frameStart {
		p.Stats.Ignored++
		return nil, false
	}
	if !p.buf.Push(b) {
		log.Debugf("fbv: frame exceeds %d bytes, dropped", p.buf.Cap())
		p.Stats.Overflows++
		p.Reset()
		return nil, false
	}

	if p.expect == 0 {
		v := classify(p.buf.Bytes())
		if v.Reject {
			log.Debugf("fbv: dropped header '% x'", p.buf.Bytes())
			p.Stats.Rejected++
			p.Reset()
			if b == frameStart {
				p.buf.Push(b)
			}
			return nil, false
		}
		p.expect = v.Expect
	}

	if p.expect > 0 && p.buf.Len() == p.expect {
		return p.complete()
	}
	return nil, false
}

func (p *Parser) complete() (stream.Event, bool) {
	defer p.Reset()
	p.Stats.Frames++

	ev := decode(p.buf.Bytes())
	if ev == nil {
		log.Debugf("fbv: ignored frame '% x'", p.buf.Bytes())
		p.Stats.Ignored++
		return nil, false
	}
	p.Stats.Events++
	return ev, true
}

func decode(f []byte) stream.Event {
	if len(f) == heartbeatLen {
		return Heartbeat{Code: f[2], Value: f[3]}
	}

	switch f[2] {
	case cmdPedal:
		return CtrlChanged{Pedal: f[3], Value: f[4]}
	case cmdSwitch:
		switch f[4] {
		case 0x01:
			return KeyPressed{Key: Key(f[3])}
		case 0x00:
			return KeyReleased{Key: Key(f[3])}
		}
	}
	return nil
}
