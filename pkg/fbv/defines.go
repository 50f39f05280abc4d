package fbv

import (
	"fmt"
	"time"
)

// Key is the code of a foot switch or LED on the board. Switches and their
// LEDs share the same code.
type Key byte

// Switch + LED
const (
	KeyFxLoop   Key = 0x02
	KeyStomp1   Key = 0x12
	KeyStomp2   Key = 0x22
	KeyStomp3   Key = 0x32
	KeyAmp1     Key = 0x01
	KeyAmp2     Key = 0x11
	KeyReverb   Key = 0x21
	KeyPitch    Key = 0x31
	KeyMod      Key = 0x41
	KeyDelay    Key = 0x51
	KeyTap      Key = 0x61
	KeyDown     Key = 0x00
	KeyUp       Key = 0x10
	KeyChannelA Key = 0x20
	KeyChannelB Key = 0x30
	KeyChannelC Key = 0x40
	KeyChannelD Key = 0x50
	KeyFavorite Key = 0x60
)

// Switch only
const (
	KeyPedal1Switch Key = 0x43
	KeyPedal2Switch Key = 0x53
)

// LED only
const (
	LedPedal1Red   Key = 0x03
	LedPedal1Green Key = 0x13
	LedPedal2Red   Key = 0x23
	LedPedal2Green Key = 0x33
	LedDisplay     Key = 0x0A
)

// KeyNone is never sent by the board
const KeyNone Key = 0xFF

// Pedals as reported by CtrlChanged
const (
	Pedal1 byte = 0x00 // wah
	Pedal2 byte = 0x01 // volume
)

var keyNames = map[Key]string{
	KeyFxLoop:       "fxloop",
	KeyStomp1:       "stomp1",
	KeyStomp2:       "stomp2",
	KeyStomp3:       "stomp3",
	KeyAmp1:         "amp1",
	KeyAmp2:         "amp2",
	KeyReverb:       "reverb",
	KeyPitch:        "pitch",
	KeyMod:          "mod",
	KeyDelay:        "delay",
	KeyTap:          "tap",
	KeyDown:         "down",
	KeyUp:           "up",
	KeyChannelA:     "channel_a",
	KeyChannelB:     "channel_b",
	KeyChannelC:     "channel_c",
	KeyChannelD:     "channel_d",
	KeyFavorite:     "favorite",
	KeyPedal1Switch: "pedal1_sw",
	KeyPedal2Switch: "pedal2_sw",
	LedPedal1Red:    "pedal1_red",
	LedPedal1Green:  "pedal1_green",
	LedPedal2Red:    "pedal2_red",
	LedPedal2Green:  "pedal2_green",
	LedDisplay:      "display",
}

func (k Key) String() string {
	if s, ok := keyNames[k]; ok {
		return s
	}
	return fmt.Sprintf("key(%#02x)", byte(k))
}

// ParseKey looks a key up by the name String returns
func ParseKey(name string) (Key, error) {
	for k, s := range keyNames {
		if s == name {
			return k, nil
		}
	}
	return KeyNone, fmt.Errorf("fbv: unknown key %q", name)
}

// slots in the order the board is refreshed
var slotKeys = [...]Key{
	KeyFxLoop, KeyStomp1, KeyStomp2, KeyStomp3,
	KeyAmp1, KeyAmp2, KeyReverb, KeyPitch, KeyMod, KeyDelay, KeyTap,
	KeyUp, KeyDown,
	KeyChannelA, KeyChannelB, KeyChannelC, KeyChannelD, KeyFavorite,
	LedPedal1Green, LedPedal1Red, LedPedal2Green, LedPedal2Red, LedDisplay,
	KeyPedal1Switch, KeyPedal2Switch,
}

const (
	// DefaultFlashTime is the LED on-time of a flashing LED
	DefaultFlashTime = 50 * time.Millisecond
	// DefaultHoldTime is how long a switch has to stay down to count as held
	DefaultHoldTime = 2000 * time.Millisecond
	// ConnectionLostTime is the silence after which the board counts as
	// disconnected. The board sends a heartbeat every 7 seconds.
	ConnectionLostTime = 8 * time.Second
)

// Frame bytes
const (
	frameStart byte = 0xF0

	catHeartbeat byte = 0x02
	catControl   byte = 0x03

	cmdSwitch     byte = 0x81
	cmdPedal      byte = 0x82
	cmdHeartbeat1 byte = 0x90
	cmdHeartbeat2 byte = 0x30

	cmdLed      byte = 0x04
	cmdDigits   byte = 0x08
	cmdFlat     byte = 0x20
	cmdTitle    byte = 0x10
	cmdBoard    byte = 0x01
	cmdPedalPos byte = 0x80

	heartbeatLen = 4
	controlLen   = 5
	maxFrame     = controlLen
)
