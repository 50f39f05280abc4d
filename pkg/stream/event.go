package stream

import "fmt"

// Kind tags the variant of a decoded Event. Each protocol package declares its
// own set of kinds; kinds of different protocols are never mixed in one
// Dispatcher.
type Kind uint8

// Event is a decoded protocol message. It only lives from the moment a frame
// completes until its handler returns.
type Event interface {
	Kind() Kind
}

// Handler is called synchronously for a dispatched Event
type Handler func(Event)

// Dispatcher holds at most one Handler per Kind
type Dispatcher struct {
	handlers map[Kind]Handler
}

// NewDispatcher returns an empty Dispatcher
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[Kind]Handler)}
}

// Register sets the handler for k, replacing any previous one. A nil handler
// removes the registration.
func (d *Dispatcher) Register(k Kind, h Handler) {
	if d.handlers == nil {
		d.handlers = make(map[Kind]Handler)
	}
	if h == nil {
		delete(d.handlers, k)
		return
	}
	d.handlers[k] = h
}

// Unregister removes the handler for k
func (d *Dispatcher) Unregister(k Kind) {
	delete(d.handlers, k)
}

// Has reports whether a handler is registered for k
func (d *Dispatcher) Has(k Kind) bool {
	_, ok := d.handlers[k]
	return ok
}

// Dispatch calls the handler registered for ev.Kind(). It returns false and
// drops the event when there is none.
func (d *Dispatcher) Dispatch(ev Event) bool {
	if ev == nil {
		return false
	}
	h, ok := d.handlers[ev.Kind()]
	if !ok {
		return false
	}
	h(ev)
	return true
}

// Verdict is the result of classifying the header bytes of a frame
type Verdict struct {
	// Expect is the total frame length once known, 0 while more header bytes
	// are needed
	Expect int
	Reject bool
}

var (
	NeedMore = Verdict{}
	Rejected = Verdict{Reject: true}
)

// Expect returns a Verdict announcing a frame of n bytes
func Expect(n int) Verdict { return Verdict{Expect: n} }

func (v Verdict) String() string {
	switch {
	case v.Reject:
		return "reject"
	case v.Expect > 0:
		return fmt.Sprintf("expect(%d)", v.Expect)
	default:
		return "need-more"
	}
}

// Stats counts what a parser did with its input. Malformed input is never
// surfaced as an error, so this is the only place it shows up.
type Stats struct {
	Frames    uint64 `json:"frames"`
	Events    uint64 `json:"events"`
	Rejected  uint64 `json:"rejected"`
	Overflows uint64 `json:"overflows"`
	Ignored   uint64 `json:"ignored"`
	Unhandled uint64 `json:"unhandled"`
}
