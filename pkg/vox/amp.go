// Package vox controls a Vox AD60VT amplifier through its foot controller
// port, the way a VC-12 pedal would.
package vox

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/speters/ampctl/pkg/link"
	"github.com/speters/ampctl/pkg/stream"
)

// Baud is the line speed of the foot controller port
const Baud = 31250

// Status bytes, all on channel 1 except StatusReset
const (
	StatusTuner   byte = 0xA0
	StatusControl byte = 0xB0
	StatusReset   byte = 0xBF
	StatusProgram byte = 0xC0
	StatusSilent  byte = 0xD0
	StatusDelay   byte = 0xE0
)

// Controllers
const (
	CCWah    byte = 0x01
	CCVolume byte = 0x0B
	CCStomp  byte = 0x5F

	ccAllSoundOff         byte = 0x78
	ccResetAllControllers byte = 0x79
	ccAllNotesOff         byte = 0x7B
)

const (
	stompPedal  byte = 0x01
	stompMod    byte = 0x02
	stompDelay  byte = 0x04
	stompReverb byte = 0x08
	stompMarker byte = 0x70
)

// Programs is the number of programs the amp stores
const Programs = 32

// Amp is an AD60VT attached to a Transport
type Amp struct {
	t      link.Transport
	parser *Parser
	events *stream.Dispatcher
}

func New(t link.Transport) *Amp {
	return &Amp{
		t:      t,
		parser: NewParser(),
		events: stream.NewDispatcher(),
	}
}

// Handle registers h for events of kind k, replacing a previous handler
func (a *Amp) Handle(kind stream.Kind, h stream.Handler) {
	a.events.Register(kind, h)
}

func (a *Amp) HandleReset(cb func()) {
	a.Handle(KindReset, func(stream.Event) { cb() })
}

func (a *Amp) HandleProgramChanged(cb func(ProgramChanged)) {
	a.Handle(KindProgramChanged, func(ev stream.Event) { cb(ev.(ProgramChanged)) })
}

func (a *Amp) HandleStomp(cb func(Stomp)) {
	a.Handle(KindStomp, func(ev stream.Event) { cb(ev.(Stomp)) })
}

func (a *Amp) HandleTunerOnOff(cb func(TunerOnOff)) {
	a.Handle(KindTunerOnOff, func(ev stream.Event) { cb(ev.(TunerOnOff)) })
}

func (a *Amp) HandleTunerValue(cb func(TunerValue)) {
	a.Handle(KindTunerValue, func(ev stream.Event) { cb(ev.(TunerValue)) })
}

func (a *Amp) HandleTunerSilent(cb func()) {
	a.Handle(KindTunerSilent, func(stream.Event) { cb() })
}

func (a *Amp) HandleDelayTime(cb func(DelayTime)) {
	a.Handle(KindDelayTime, func(ev stream.Event) { cb(ev.(DelayTime)) })
}

// Stats returns the parser counters
func (a *Amp) Stats() stream.Stats { return a.parser.Stats }

// Read drains all bytes currently available on the transport and dispatches
// the decoded events. It never waits for input.
func (a *Amp) Read() (int, error) {
	n := 0
	for a.t.Available() > 0 {
		b, err := a.t.ReadByte()
		if err != nil {
			if errors.Is(err, link.ErrNoData) {
				break
			}
			return n, fmt.Errorf("vox: read: %w", err)
		}
		n++
		a.feed(b)
	}
	return n, nil
}

// Decode feeds a batch of bytes as if they were read from the transport
func (a *Amp) Decode(b []byte) {
	for _, c := range b {
		a.feed(c)
	}
}

func (a *Amp) feed(b byte) {
	ev, ok := a.parser.Feed(b)
	if !ok {
		return
	}
	if !a.events.Dispatch(ev) {
		log.Debugf("vox: no handler for %T", ev)
		a.parser.Stats.Unhandled++
	}
}
