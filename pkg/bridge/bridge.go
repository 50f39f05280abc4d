// Package bridge turns an FBV foot controller into a pedal board for a
// Kemper or Vox amplifier: foot switches and pedals become amp commands and
// the amp's state is mirrored on the board's LEDs and display.
package bridge

import (
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/speters/ampctl/pkg/fbv"
	"github.com/speters/ampctl/pkg/stream"
)

// Modes
const (
	ModeKemper = "kemper"
	ModeVox    = "vox"
)

type gesture uint8

const (
	pressed gesture = iota
	released
	releasedHeld
	held
)

func (g gesture) String() string {
	switch g {
	case pressed:
		return "pressed"
	case released, releasedHeld:
		return "released"
	case held:
		return "held"
	}
	return fmt.Sprintf("gesture(%d)", uint8(g))
}

// amp is one amplifier driver seen from the board
type amp interface {
	start(now time.Time) error
	poll(now time.Time) error
	selectProgram(n uint) error
	key(k fbv.Key, g gesture, now time.Time) error
	pedal(p, v byte) error
	stats() stream.Stats
}

// State is what the bridge knows about the amp and the board
type State struct {
	Mode      string          `json:"mode"`
	Program   uint            `json:"program"`
	Title     string          `json:"title"`
	Effects   map[string]bool `json:"effects"`
	Tuner     bool            `json:"tuner"`
	DelayMs   int             `json:"delay_ms,omitempty"`
	Connected bool            `json:"fbv_connected"`
	Board     stream.Stats    `json:"fbv_stats"`
	Amp       stream.Stats    `json:"amp_stats"`
}

// Bridge connects a board to an amp. The polling loop and the HTTP API may
// call it from different goroutines.
type Bridge struct {
	mu    sync.Mutex
	board *fbv.Board
	amp   amp
	mode  string
	now   time.Time

	program uint
	title   string
	effects map[fbv.Key]bool
	tuner   bool
	delayMs int
}

func newBridge(mode string, board *fbv.Board) *Bridge {
	b := &Bridge{
		board:   board,
		mode:    mode,
		effects: make(map[fbv.Key]bool),
	}

	board.HandleKeyPressed(func(ev fbv.KeyPressed) { b.gesture(ev.Key, pressed) })
	board.HandleKeyReleased(func(ev fbv.KeyReleased) {
		if ev.WasHeld {
			b.gesture(ev.Key, releasedHeld)
		} else {
			b.gesture(ev.Key, released)
		}
	})
	board.HandleKeyHeld(func(ev fbv.KeyHeld) { b.gesture(ev.Key, held) })
	board.HandleCtrlChanged(func(ev fbv.CtrlChanged) {
		if err := b.amp.pedal(ev.Pedal, ev.Value); err != nil {
			log.Errorf("bridge: pedal %d: %v", ev.Pedal, err)
		}
	})
	board.HandleConnected(func() {
		log.Info("bridge: board connected, refreshing")
		b.refresh()
	})
	board.HandleDisconnected(func() {
		log.Warn("bridge: board disconnected")
	})
	return b
}

// gestures are dispatched from inside Poll, mu is held
func (b *Bridge) gesture(k fbv.Key, g gesture) {
	log.Debugf("bridge: %v %v", k, g)
	if err := b.amp.key(k, g, b.now); err != nil {
		log.Errorf("bridge: %v %v: %v", k, g, err)
	}
}

// Start sends the initial handshake to the amp and shows the state on the
// board
func (b *Bridge) Start(now time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.now = now
	b.refresh()
	if err := b.amp.start(now); err != nil {
		return fmt.Errorf("bridge: start %s: %w", b.mode, err)
	}
	return nil
}

// Poll reads both devices, runs the amp keepalive and updates the board UI.
// It is called from the polling loop and never waits for input.
func (b *Bridge) Poll(now time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.now = now
	var errs []error
	if _, err := b.board.Read(now); err != nil {
		errs = append(errs, err)
	}
	if err := b.amp.poll(now); err != nil {
		errs = append(errs, err)
	}
	if err := b.board.UpdateUI(now); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SelectProgram switches the amp to program n
func (b *Bridge) SelectProgram(n uint) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.amp.selectProgram(n)
}

// Press acts as if k was pressed and released on the board
func (b *Bridge) Press(k fbv.Key, now time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.now = now
	if err := b.amp.key(k, pressed, now); err != nil {
		return err
	}
	return b.amp.key(k, released, now)
}

// State returns a snapshot
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := State{
		Mode:      b.mode,
		Program:   b.program,
		Title:     b.title,
		Effects:   make(map[string]bool, len(b.effects)),
		Tuner:     b.tuner,
		DelayMs:   b.delayMs,
		Connected: b.board.Connected(),
		Board:     b.board.Stats(),
		Amp:       b.amp.stats(),
	}
	for k, on := range b.effects {
		s.Effects[k.String()] = on
	}
	return s
}

func (b *Bridge) setProgram(n uint) {
	b.program = n
	b.board.SetDisplayNumber(n)
}

func (b *Bridge) setTitle(t string) {
	b.title = t
	if !b.tuner {
		b.board.SetDisplayTitle(t)
	}
}

func (b *Bridge) setEffect(k fbv.Key, on bool) {
	b.effects[k] = on
	if err := b.board.SetLed(k, on); err != nil {
		log.Warn(err)
	}
}

func (b *Bridge) setTuner(on bool) {
	b.tuner = on
	if on {
		b.board.SetDisplayTitle("Tuner")
		b.board.SetDisplayFlash(500*time.Millisecond, 500*time.Millisecond)
		return
	}
	b.board.SetDisplayTitle(b.title)
}

// refresh pushes the whole known state onto the board
func (b *Bridge) refresh() {
	for k, on := range b.effects {
		if err := b.board.SetLed(k, on); err != nil {
			log.Warn(err)
		}
	}
	if b.delayMs > 0 {
		if err := b.board.SetLedFlash(fbv.KeyTap, time.Duration(b.delayMs)*time.Millisecond); err != nil {
			log.Warn(err)
		}
	}
	b.board.SetDisplayNumber(b.program)
	b.setTuner(b.tuner)
}
