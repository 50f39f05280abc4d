package vox

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"gitlab.com/gomidi/midi/v2"
)

func (a *Amp) write(b []byte) error {
	if _, err := a.t.Write(b); err != nil {
		return fmt.Errorf("vox: write: %w", err)
	}
	return nil
}

// ResetFrames is All Notes Off, All Sound Off and Reset All Controllers on
// all 16 channels
func ResetFrames() []byte {
	b := make([]byte, 0, 3*3*16)
	for _, cc := range []byte{ccAllNotesOff, ccAllSoundOff, ccResetAllControllers} {
		for ch := uint8(0); ch < 16; ch++ {
			b = append(b, midi.ControlChange(ch, cc, 0x00)...)
		}
	}
	return b
}

// SendReset tells the amp a foot controller is attached
func (a *Amp) SendReset() error {
	return a.write(ResetFrames())
}

// SendProgramChange selects program p. The amp uses bank 0 only.
func (a *Amp) SendProgramChange(p byte) error {
	var b []byte
	b = append(b, midi.ControlChange(0, 0x00, 0x00)...)
	b = append(b, midi.ControlChange(0, 0x20, 0x00)...)
	b = append(b, midi.ProgramChange(0, p)...)
	log.Debugf("vox: program change %d", p)
	return a.write(b)
}

// SendControlChange sends a pedal value, num is CCVolume or CCWah
func (a *Amp) SendControlChange(num, val byte) error {
	return a.write(midi.ControlChange(0, num, val))
}

// SendDelayTime sets the delay time, for a tap tempo converted to
// milliseconds
func (a *Amp) SendDelayTime(ms int) error {
	if ms < 0 {
		ms = 0
	}
	return a.write([]byte{StatusDelay, byte(ms % 128), byte(ms / 128 % 128)})
}

// SwitchStompBoxes sets all four effect blocks in one frame
func (a *Amp) SwitchStompBoxes(pedal, mod, delay, reverb bool) error {
	s := Stomp{Pedal: pedal, Mod: mod, Delay: delay, Reverb: reverb}
	return a.write([]byte{StatusControl, CCStomp, stompMarker | s.bits()})
}

// SwitchTuner turns the tuner on or off. silent mutes the output while the
// tuner is on.
func (a *Amp) SwitchTuner(on, silent bool) error {
	if !on {
		return a.write([]byte{StatusTuner, 0x00, 0x00})
	}
	b := []byte{StatusTuner, 0x00, 0x7F}
	if silent {
		b = append(b, StatusSilent, 0x7F)
	}
	return a.write(b)
}
