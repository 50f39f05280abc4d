package kemper

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"gitlab.com/gomidi/midi/v2"
)

// channel 1
const midiChannel uint8 = 0

// programsPerBank is what the KPA counts per bank select step
const programsPerBank = 127

func (k *KPA) write(b []byte) error {
	_, err := k.t.Write(b)
	if err != nil {
		return fmt.Errorf("kemper: write: %w", err)
	}
	return nil
}

func controlChange(num, val byte) []byte {
	return midi.ControlChange(midiChannel, num, val)
}

// ProgramChangeFrames returns bank select (CC 0 and CC 32) followed by the
// program change for rig n. n is not range checked.
func ProgramChangeFrames(n uint) []byte {
	bank := byte(n / programsPerBank)
	prog := byte(n % programsPerBank)

	var b []byte
	b = append(b, controlChange(CCBankMSB, 0x00)...)
	b = append(b, controlChange(CCBankLSB, bank)...)
	b = append(b, midi.ProgramChange(midiChannel, prog)...)
	return b
}

// SendProgramChange selects rig n, bank change included
func (k *KPA) SendProgramChange(n uint) error {
	b := ProgramChangeFrames(n)
	log.Debugf("kemper: program change %d: '% x'", n, b)
	return k.write(b)
}

// SendControlChange sends a CC on channel 1, used for expression pedals and
// stomp switching
func (k *KPA) SendControlChange(num, val byte) error {
	msg := midi.ControlChange(midiChannel, num, val)
	log.Debugf("kemper: %v", msg)
	return k.write(msg)
}

// SendLooperCmd drives the looper through NRPN 0x7D/cmd. pressed tells
// whether the foot switch went down or up.
func (k *KPA) SendLooperCmd(cmd byte, pressed bool) error {
	var state byte
	if pressed {
		state = 0x01
	}
	var b []byte
	b = append(b, controlChange(CCNRPNParamH, looperNRPNPage)...)
	b = append(b, controlChange(CCNRPNParamL, cmd)...)
	b = append(b, controlChange(CCDataEntry, 0x00)...)
	b = append(b, controlChange(CCDataLSB, state)...)
	return k.write(b)
}

// ParamRequestFrame builds the 11 byte request
// F0 00 20 33 02 7F <fn> 00 <page> <param> F7
func ParamRequestFrame(fn, page, param byte) []byte {
	b := make([]byte, 0, 11)
	b = append(b, sysExHeader[:]...)
	b = append(b, fn, 0x00, page, param, StatusSysExEnd)
	return b
}

// SendParamRequest asks the KPA for a parameter value
func (k *KPA) SendParamRequest(fn, page, param byte) error {
	return k.SendSysEx(ParamRequestFrame(fn, page, param))
}

// RequestParam asks for a single parameter, answered by a ParamSingle event
func (k *KPA) RequestParam(id ParamID) error {
	return k.SendParamRequest(FnRequestParam, id.Page(), id.Number())
}

// RequestString asks for a string parameter, answered by a ParamString event
func (k *KPA) RequestString(id ParamID) error {
	return k.SendParamRequest(FnRequestString, id.Page(), id.Number())
}

var heartbeatFrame = []byte{0xF0, 0x00, 0x20, 0x33, 0x02, 0x7F, FnAck, 0x00, 0x40, 0x01, 0x36, 0x04, StatusSysExEnd}

// SendHeartbeat tells the KPA a bidirectional controller is attached. It has
// to be repeated while the connection is in use.
func (k *KPA) SendHeartbeat() error {
	return k.SendSysEx(heartbeatFrame)
}

// SendSysEx writes a complete SysEx frame
func (k *KPA) SendSysEx(b []byte) error {
	log.Debugf("kemper: sysex '% x'", b)
	return k.write(b)
}
