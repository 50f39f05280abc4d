package bridge

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/speters/ampctl/pkg/fbv"
	"github.com/speters/ampctl/pkg/kemper"
	"github.com/speters/ampctl/pkg/stream"
)

// KeepAlive is how often the KPA gets the bidirectional connect string
const KeepAlive = 5 * time.Second

// programsPerBank is the number of channel switches on the board
const programsPerBank = 4

type kemperEffect struct {
	cc    byte
	state kemper.ParamID
}

var kemperEffects = map[fbv.Key]kemperEffect{
	fbv.KeyStomp1: {kemper.CCStompA, kemper.ParamStompAState},
	fbv.KeyStomp2: {kemper.CCStompB, kemper.ParamStompBState},
	fbv.KeyStomp3: {kemper.CCStompC, kemper.ParamStompCState},
	fbv.KeyPitch:  {kemper.CCStompD, kemper.ParamStompDState},
	fbv.KeyAmp1:   {kemper.CCStompX, kemper.ParamStompXState},
	fbv.KeyMod:    {kemper.CCStompMod, kemper.ParamStompModState},
	fbv.KeyDelay:  {kemper.CCDelay, kemper.ParamDelayState},
	fbv.KeyReverb: {kemper.CCReverb, kemper.ParamReverbState},
}

var channelKeys = []fbv.Key{fbv.KeyChannelA, fbv.KeyChannelB, fbv.KeyChannelC, fbv.KeyChannelD}

type kemperAmp struct {
	b        *Bridge
	kpa      *kemper.KPA
	lastBeat time.Time
}

// NewKemper bridges board and kpa
func NewKemper(board *fbv.Board, kpa *kemper.KPA) *Bridge {
	b := newBridge(ModeKemper, board)
	k := &kemperAmp{b: b, kpa: kpa}
	b.amp = k

	kpa.HandleProgramChange(func(ev kemper.ProgramChange) {
		b.setProgram(uint(ev.Number))
		if err := k.requestState(); err != nil {
			log.Errorf("bridge: kemper state request: %v", err)
		}
	})
	kpa.HandleControlChange(func(ev kemper.ControlChange) {
		for key, e := range kemperEffects {
			if e.cc == ev.Number {
				b.setEffect(key, ev.Value != 0)
				return
			}
		}
		if ev.Number == kemper.CCTuner {
			b.setTuner(ev.Value != 0)
		}
	})
	kpa.HandleParamSingle(func(ev kemper.ParamSingle) {
		id := ev.ID()
		for key, e := range kemperEffects {
			if e.state == id {
				b.setEffect(key, ev.Value() != 0)
				return
			}
		}
		if id == kemper.ParamTunerState {
			b.setTuner(ev.Value() != 0)
		}
	})
	kpa.HandleParamString(func(ev kemper.ParamString) {
		if ev.ID() == kemper.StringRigName {
			b.setTitle(ev.String())
		}
	})
	kpa.HandleSysEx(func(ev kemper.SysEx) {
		log.Debugf("bridge: kemper sysex '% x'", ev.Data)
	})
	return b
}

func (k *kemperAmp) start(now time.Time) error {
	k.lastBeat = now
	if err := k.kpa.SendHeartbeat(); err != nil {
		return err
	}
	return k.requestState()
}

// requestState asks for the rig name and the state of every effect
func (k *kemperAmp) requestState() error {
	if err := k.kpa.RequestString(kemper.StringRigName); err != nil {
		return err
	}
	for _, e := range kemperEffects {
		if err := k.kpa.RequestParam(e.state); err != nil {
			return err
		}
	}
	return k.kpa.RequestParam(kemper.ParamTunerState)
}

func (k *kemperAmp) poll(now time.Time) error {
	if _, err := k.kpa.Read(); err != nil {
		return err
	}
	if now.Sub(k.lastBeat) >= KeepAlive {
		k.lastBeat = now
		return k.kpa.SendHeartbeat()
	}
	return nil
}

func (k *kemperAmp) selectProgram(n uint) error {
	if err := k.kpa.SendProgramChange(n); err != nil {
		return err
	}
	k.b.setProgram(n)
	return k.requestState()
}

func (k *kemperAmp) key(key fbv.Key, g gesture, now time.Time) error {
	if e, ok := kemperEffects[key]; ok {
		if g != pressed {
			return nil
		}
		on := !k.b.effects[key]
		if err := k.kpa.SendControlChange(e.cc, boolValue(on)); err != nil {
			return err
		}
		k.b.setEffect(key, on)
		return nil
	}

	switch key {
	case fbv.KeyTap:
		switch g {
		case pressed:
			if k.b.tuner {
				return k.tuner(false)
			}
			return k.kpa.SendControlChange(kemper.CCTap, 0x01)
		case released, releasedHeld:
			return k.kpa.SendControlChange(kemper.CCTap, 0x00)
		case held:
			return k.tuner(true)
		}
	case fbv.KeyUp:
		if g == pressed {
			return k.selectProgram(k.b.program + 1)
		}
	case fbv.KeyDown:
		if g == pressed && k.b.program > 0 {
			return k.selectProgram(k.b.program - 1)
		}
	case fbv.KeyFxLoop:
		switch g {
		case pressed:
			return k.kpa.SendLooperCmd(kemper.LooperRecPlay, true)
		case released, releasedHeld:
			return k.kpa.SendLooperCmd(kemper.LooperRecPlay, false)
		case held:
			return k.kpa.SendLooperCmd(kemper.LooperErase, true)
		}
	case fbv.KeyFavorite:
		switch g {
		case pressed:
			return k.kpa.SendLooperCmd(kemper.LooperStop, true)
		case released, releasedHeld:
			return k.kpa.SendLooperCmd(kemper.LooperStop, false)
		}
	default:
		for i, c := range channelKeys {
			if c == key && g == pressed {
				return k.selectProgram(k.b.program/programsPerBank*programsPerBank + uint(i))
			}
		}
	}
	return nil
}

func (k *kemperAmp) tuner(on bool) error {
	if err := k.kpa.SendControlChange(kemper.CCTuner, boolValue(on)); err != nil {
		return err
	}
	k.b.setTuner(on)
	return nil
}

func (k *kemperAmp) pedal(p, v byte) error {
	switch p {
	case fbv.Pedal1:
		return k.kpa.SendControlChange(kemper.CCWah, v)
	case fbv.Pedal2:
		return k.kpa.SendControlChange(kemper.CCVolume, v)
	}
	return nil
}

func (k *kemperAmp) stats() stream.Stats { return k.kpa.Stats() }

func boolValue(on bool) byte {
	if on {
		return 0x01
	}
	return 0x00
}
