// Package fbv drives a Line6 FBV foot controller (FBV Express, Shortboard,
// Longboard) over its RS485 link: switch, pedal and heartbeat frames in,
// LED and display frames out.
package fbv

import (
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/speters/ampctl/pkg/link"
	"github.com/speters/ampctl/pkg/stream"
)

// Baud is the line speed of the board
const Baud = 31250

var ErrUnknownKey = errors.New("fbv: unknown key")

// slot is the state of one switch and/or LED
type slot struct {
	key Key

	// LED
	isOn    bool
	setOn   bool
	setOff  bool
	flash   bool
	onTime  time.Duration
	offTime time.Duration
	wait    time.Duration
	last    time.Time

	// switch
	holdTime  time.Duration
	pressed   bool
	held      bool
	pressedAt time.Time
}

// Board is an FBV attached to a Transport. All methods are meant to be
// called from one polling loop.
type Board struct {
	t      link.Transport
	parser *Parser
	events *stream.Dispatcher

	slots     [len(slotKeys)]slot
	flashTime time.Duration

	display displayState

	lastFrame time.Time
	connected bool
}

// New returns a Board using t. The board counts as disconnected until its
// first frame arrives.
func New(t link.Transport) *Board {
	b := &Board{
		t:         t,
		parser:    NewParser(),
		events:    stream.NewDispatcher(),
		flashTime: DefaultFlashTime,
	}
	for i, k := range slotKeys {
		b.slots[i] = slot{key: k, holdTime: DefaultHoldTime}
	}
	b.display.content = BlankDisplay()
	return b
}

func (b *Board) slot(k Key) *slot {
	for i := range b.slots {
		if b.slots[i].key == k {
			return &b.slots[i]
		}
	}
	return nil
}

// Handle registers h for events of kind k, replacing a previous handler
func (b *Board) Handle(kind stream.Kind, h stream.Handler) {
	b.events.Register(kind, h)
}

func (b *Board) HandleKeyPressed(cb func(KeyPressed)) {
	b.Handle(KindKeyPressed, func(ev stream.Event) { cb(ev.(KeyPressed)) })
}

func (b *Board) HandleKeyReleased(cb func(KeyReleased)) {
	b.Handle(KindKeyReleased, func(ev stream.Event) { cb(ev.(KeyReleased)) })
}

func (b *Board) HandleKeyHeld(cb func(KeyHeld)) {
	b.Handle(KindKeyHeld, func(ev stream.Event) { cb(ev.(KeyHeld)) })
}

func (b *Board) HandleCtrlChanged(cb func(CtrlChanged)) {
	b.Handle(KindCtrlChanged, func(ev stream.Event) { cb(ev.(CtrlChanged)) })
}

func (b *Board) HandleHeartbeat(cb func(Heartbeat)) {
	b.Handle(KindHeartbeat, func(ev stream.Event) { cb(ev.(Heartbeat)) })
}

func (b *Board) HandleDisconnected(cb func()) {
	b.Handle(KindDisconnected, func(stream.Event) { cb() })
}

func (b *Board) HandleConnected(cb func()) {
	b.Handle(KindConnected, func(stream.Event) { cb() })
}

// Stats returns the parser counters
func (b *Board) Stats() stream.Stats { return b.parser.Stats }

// Connected reports whether a frame arrived within ConnectionLostTime
func (b *Board) Connected() bool { return b.connected }

// SetHoldTime sets the hold time of one switch
func (b *Board) SetHoldTime(k Key, d time.Duration) error {
	s := b.slot(k)
	if s == nil {
		return fmt.Errorf("%w %v", ErrUnknownKey, k)
	}
	s.holdTime = d
	return nil
}

// SetDefaultHoldTime sets the hold time of every switch
func (b *Board) SetDefaultHoldTime(d time.Duration) {
	for i := range b.slots {
		b.slots[i].holdTime = d
	}
}

// Read drains the bytes available on the transport, dispatches the decoded
// events and then checks hold times and the connection at now. It never
// waits for input.
func (b *Board) Read(now time.Time) (int, error) {
	n := 0
	var err error
	for b.t.Available() > 0 {
		c, rerr := b.t.ReadByte()
		if rerr != nil {
			if !errors.Is(rerr, link.ErrNoData) {
				err = fmt.Errorf("fbv: read: %w", rerr)
			}
			break
		}
		n++
		b.feed(c, now)
	}

	b.checkHold(now)
	b.checkConnection(now)
	return n, err
}

// Decode feeds bytes received at now as if they were read from the transport
func (b *Board) Decode(p []byte, now time.Time) {
	for _, c := range p {
		b.feed(c, now)
	}
}

func (b *Board) feed(c byte, now time.Time) {
	frames := b.parser.Stats.Frames
	ev, ok := b.parser.Feed(c)
	if b.parser.Stats.Frames != frames {
		b.frameSeen(now)
	}
	if !ok {
		return
	}

	switch e := ev.(type) {
	case KeyPressed:
		b.startHold(e.Key, now)
	case KeyReleased:
		e.WasHeld = b.stopHold(e.Key)
		ev = e
	case Heartbeat:
		if err := b.RequestBoardType(); err != nil {
			log.Warnf("fbv: %v", err)
		}
	}
	b.dispatch(ev)
}

func (b *Board) dispatch(ev stream.Event) {
	if !b.events.Dispatch(ev) {
		b.parser.Stats.Unhandled++
	}
}

func (b *Board) frameSeen(now time.Time) {
	b.lastFrame = now
	if !b.connected {
		b.connected = true
		log.Info("fbv: connected")
		b.dispatch(Connected{})
	}
}

func (b *Board) checkConnection(now time.Time) {
	if b.connected && now.Sub(b.lastFrame) >= ConnectionLostTime {
		b.connected = false
		log.Warnf("fbv: no frame since %v, disconnected", b.lastFrame.Format(time.StampMilli))
		b.dispatch(Disconnected{})
	}
}

func (b *Board) startHold(k Key, now time.Time) {
	if s := b.slot(k); s != nil {
		s.pressed = true
		s.held = false
		s.pressedAt = now
	}
}

// stopHold returns whether the switch was held
func (b *Board) stopHold(k Key) bool {
	s := b.slot(k)
	if s == nil {
		return false
	}
	held := s.held
	s.pressed = false
	s.held = false
	return held
}

func (b *Board) checkHold(now time.Time) {
	for i := range b.slots {
		s := &b.slots[i]
		if s.pressed && !s.held && now.Sub(s.pressedAt) >= s.holdTime {
			s.held = true
			b.dispatch(KeyHeld{Key: s.key})
		}
	}
}

// RequestBoardType asks the board to identify itself
func (b *Board) RequestBoardType() error {
	return b.write(requestBoardType)
}

// RequestPedalPos asks the board to report both pedal positions
func (b *Board) RequestPedalPos() error {
	return b.write(requestPedalPos)
}

func (b *Board) write(p []byte) error {
	if _, err := b.t.Write(p); err != nil {
		return fmt.Errorf("fbv: write: %w", err)
	}
	return nil
}
