package vox

import (
	"fmt"

	"github.com/speters/ampctl/pkg/stream"
)

// Event kinds raised by the amp
const (
	KindReset stream.Kind = iota + 1
	KindProgramChanged
	KindStomp
	KindTunerOnOff
	KindTunerValue
	KindTunerSilent
	KindDelayTime
)

// Reset is the end of the amp's reset sequence (BF 79 xx), sent when it
// powers up or a program is stored
type Reset struct{}

type ProgramChanged struct {
	Program byte `json:"program"`
}

// Stomp is the on/off state of the four effect blocks
type Stomp struct {
	Pedal  bool `json:"pedal"`
	Mod    bool `json:"mod"`
	Delay  bool `json:"delay"`
	Reverb bool `json:"reverb"`
}

// TunerOnOff carries the value byte of the tuner switch, 0x00 is off
type TunerOnOff struct {
	Value byte `json:"value"`
}

func (t TunerOnOff) On() bool { return t.Value != 0x00 }

// TunerValue is the detected note and its deviation
type TunerValue struct {
	Note  byte `json:"note"`
	Cents byte `json:"cents"`
}

type TunerSilent struct{}

// DelayTime is the tapped delay time
type DelayTime struct {
	Ms int `json:"ms"`
}

func (Reset) Kind() stream.Kind          { return KindReset }
func (ProgramChanged) Kind() stream.Kind { return KindProgramChanged }
func (Stomp) Kind() stream.Kind          { return KindStomp }
func (TunerOnOff) Kind() stream.Kind     { return KindTunerOnOff }
func (TunerValue) Kind() stream.Kind     { return KindTunerValue }
func (TunerSilent) Kind() stream.Kind    { return KindTunerSilent }
func (DelayTime) Kind() stream.Kind      { return KindDelayTime }

// bits returns the stomp state as sent on the wire, without the 0x70 marker
func (s Stomp) bits() byte {
	var b byte
	if s.Pedal {
		b |= stompPedal
	}
	if s.Mod {
		b |= stompMod
	}
	if s.Delay {
		b |= stompDelay
	}
	if s.Reverb {
		b |= stompReverb
	}
	return b
}

func stompFromBits(b byte) Stomp {
	return Stomp{
		Pedal:  b&stompPedal != 0,
		Mod:    b&stompMod != 0,
		Delay:  b&stompDelay != 0,
		Reverb: b&stompReverb != 0,
	}
}

func (s Stomp) String() string {
	return fmt.Sprintf("Stomp(pedal=%t mod=%t delay=%t reverb=%t)", s.Pedal, s.Mod, s.Delay, s.Reverb)
}
