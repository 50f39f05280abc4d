// Package kemper talks to a Kemper Profiling Amplifier over its MIDI port:
// program/control changes in both directions and the SysEx parameter
// protocol used to query rig and stomp state.
package kemper

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/speters/ampctl/pkg/link"
	"github.com/speters/ampctl/pkg/stream"
)

// KPA is a Kemper Profiling Amplifier attached to a Transport
type KPA struct {
	t      link.Transport
	parser *Parser
	events *stream.Dispatcher
}

// New returns a KPA driver reading from and writing to t
func New(t link.Transport) *KPA {
	return &KPA{
		t:      t,
		parser: NewParser(),
		events: stream.NewDispatcher(),
	}
}

// Handle registers h for events of kind k, replacing a previous handler
func (k *KPA) Handle(kind stream.Kind, h stream.Handler) {
	k.events.Register(kind, h)
}

func (k *KPA) HandleControlChange(cb func(ControlChange)) {
	k.Handle(KindControlChange, func(ev stream.Event) { cb(ev.(ControlChange)) })
}

func (k *KPA) HandleProgramChange(cb func(ProgramChange)) {
	k.Handle(KindProgramChange, func(ev stream.Event) { cb(ev.(ProgramChange)) })
}

func (k *KPA) HandleParamSingle(cb func(ParamSingle)) {
	k.Handle(KindParamSingle, func(ev stream.Event) { cb(ev.(ParamSingle)) })
}

func (k *KPA) HandleParamString(cb func(ParamString)) {
	k.Handle(KindParamString, func(ev stream.Event) { cb(ev.(ParamString)) })
}

// HandleSysEx registers the catch-all for SysEx frames, including parameter
// answers that have no handler of their own
func (k *KPA) HandleSysEx(cb func(SysEx)) {
	k.Handle(KindSysEx, func(ev stream.Event) { cb(ev.(SysEx)) })
}

// Stats returns the parser counters
func (k *KPA) Stats() stream.Stats { return k.parser.Stats }

// Read drains all bytes currently available on the transport and dispatches
// the decoded events. It never waits for input.
func (k *KPA) Read() (int, error) {
	n := 0
	for k.t.Available() > 0 {
		b, err := k.t.ReadByte()
		if err != nil {
			if errors.Is(err, link.ErrNoData) {
				break
			}
			return n, fmt.Errorf("kemper: read: %w", err)
		}
		n++
		k.feed(b)
	}
	return n, nil
}

// Decode feeds a batch of bytes as if they were read from the transport
func (k *KPA) Decode(b []byte) {
	for _, c := range b {
		k.feed(c)
	}
}

func (k *KPA) feed(b byte) {
	if ev, ok := k.parser.Feed(b); ok {
		k.dispatch(ev)
	}
}

func (k *KPA) dispatch(ev stream.Event) {
	if k.events.Dispatch(ev) {
		return
	}

	var raw []byte
	switch e := ev.(type) {
	case ParamSingle:
		raw = e.Raw
	case ParamString:
		raw = e.Raw
	}
	if raw != nil && k.events.Dispatch(SysEx{Data: raw}) {
		return
	}
	log.Debugf("kemper: no handler for %T", ev)
	k.parser.Stats.Unhandled++
}
