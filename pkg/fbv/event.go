package fbv

import "github.com/speters/ampctl/pkg/stream"

// Event kinds raised by the board
const (
	KindKeyPressed stream.Kind = iota + 1
	KindKeyReleased
	KindKeyHeld
	KindCtrlChanged
	KindHeartbeat
	KindDisconnected
	KindConnected
)

type KeyPressed struct {
	Key Key `json:"key"`
}

// KeyReleased reports whether the switch had been held before it went up
type KeyReleased struct {
	Key     Key  `json:"key"`
	WasHeld bool `json:"was_held"`
}

// KeyHeld is raised once per press when the hold time elapsed
type KeyHeld struct {
	Key Key `json:"key"`
}

// CtrlChanged is an expression pedal movement
type CtrlChanged struct {
	Pedal byte `json:"pedal"`
	Value byte `json:"value"`
}

// Heartbeat is F0 02 90 00 or F0 02 30 08
type Heartbeat struct {
	Code  byte `json:"code"`
	Value byte `json:"value"`
}

// Disconnected is raised once after ConnectionLostTime without a frame
type Disconnected struct{}

// Connected is raised by the first frame after start or after a Disconnected
type Connected struct{}

func (KeyPressed) Kind() stream.Kind   { return KindKeyPressed }
func (KeyReleased) Kind() stream.Kind  { return KindKeyReleased }
func (KeyHeld) Kind() stream.Kind      { return KindKeyHeld }
func (CtrlChanged) Kind() stream.Kind  { return KindCtrlChanged }
func (Heartbeat) Kind() stream.Kind    { return KindHeartbeat }
func (Disconnected) Kind() stream.Kind { return KindDisconnected }
func (Connected) Kind() stream.Kind    { return KindConnected }
