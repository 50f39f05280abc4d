package bridge

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/speters/ampctl/pkg/fbv"
	"github.com/speters/ampctl/pkg/stream"
	"github.com/speters/ampctl/pkg/vox"
)

// MaxTap is the longest tap interval taken as a delay time
const MaxTap = 2000 * time.Millisecond

// effect blocks of the amp in wire order
var voxEffects = [...]fbv.Key{fbv.KeyStomp1, fbv.KeyMod, fbv.KeyDelay, fbv.KeyReverb}

type voxAmp struct {
	b       *Bridge
	amp     *vox.Amp
	lastTap time.Time
}

// NewVox bridges board and amp
func NewVox(board *fbv.Board, amp *vox.Amp) *Bridge {
	b := newBridge(ModeVox, board)
	v := &voxAmp{b: b, amp: amp}
	b.amp = v
	b.title = "AD60VT"

	amp.HandleProgramChanged(func(ev vox.ProgramChanged) {
		b.setProgram(uint(ev.Program))
	})
	amp.HandleStomp(func(ev vox.Stomp) {
		b.setEffect(fbv.KeyStomp1, ev.Pedal)
		b.setEffect(fbv.KeyMod, ev.Mod)
		b.setEffect(fbv.KeyDelay, ev.Delay)
		b.setEffect(fbv.KeyReverb, ev.Reverb)
	})
	amp.HandleTunerOnOff(func(ev vox.TunerOnOff) {
		b.setTuner(ev.On())
	})
	amp.HandleDelayTime(func(ev vox.DelayTime) {
		v.setDelay(ev.Ms)
	})
	amp.HandleReset(func() {
		log.Info("bridge: vox amp reset")
	})
	return b
}

func (v *voxAmp) start(time.Time) error {
	return v.amp.SendReset()
}

func (v *voxAmp) poll(time.Time) error {
	_, err := v.amp.Read()
	return err
}

func (v *voxAmp) selectProgram(n uint) error {
	n %= vox.Programs
	if err := v.amp.SendProgramChange(byte(n)); err != nil {
		return err
	}
	v.b.setProgram(n)
	return nil
}

func (v *voxAmp) switchEffects() error {
	e := v.b.effects
	return v.amp.SwitchStompBoxes(e[fbv.KeyStomp1], e[fbv.KeyMod], e[fbv.KeyDelay], e[fbv.KeyReverb])
}

func (v *voxAmp) setDelay(ms int) {
	v.b.delayMs = ms
	if err := v.b.board.SetLedFlash(fbv.KeyTap, time.Duration(ms)*time.Millisecond); err != nil {
		log.Warn(err)
	}
}

func (v *voxAmp) key(key fbv.Key, g gesture, now time.Time) error {
	for _, e := range voxEffects {
		if e != key {
			continue
		}
		if g != pressed {
			return nil
		}
		on := !v.b.effects[key]
		v.b.effects[key] = on
		if err := v.switchEffects(); err != nil {
			v.b.effects[key] = !on
			return err
		}
		v.b.setEffect(key, on)
		return nil
	}

	switch key {
	case fbv.KeyTap:
		switch g {
		case pressed:
			if v.b.tuner {
				return v.tuner(false)
			}
			return v.tap(now)
		case held:
			return v.tuner(true)
		}
	case fbv.KeyUp:
		if g == pressed {
			return v.selectProgram(v.b.program + 1)
		}
	case fbv.KeyDown:
		if g == pressed {
			return v.selectProgram(v.b.program + vox.Programs - 1)
		}
	default:
		for i, c := range channelKeys {
			if c == key && g == pressed {
				return v.selectProgram(v.b.program/programsPerBank*programsPerBank + uint(i))
			}
		}
	}
	return nil
}

// tap turns the time between two taps into a delay time
func (v *voxAmp) tap(now time.Time) error {
	last := v.lastTap
	v.lastTap = now
	if last.IsZero() {
		return nil
	}
	d := now.Sub(last)
	if d <= 0 || d > MaxTap {
		return nil
	}
	ms := int(d / time.Millisecond)
	if err := v.amp.SendDelayTime(ms); err != nil {
		return err
	}
	v.setDelay(ms)
	return nil
}

func (v *voxAmp) tuner(on bool) error {
	if err := v.amp.SwitchTuner(on, false); err != nil {
		return err
	}
	v.b.setTuner(on)
	return nil
}

func (v *voxAmp) pedal(p, val byte) error {
	switch p {
	case fbv.Pedal1:
		return v.amp.SendControlChange(vox.CCWah, val)
	case fbv.Pedal2:
		return v.amp.SendControlChange(vox.CCVolume, val)
	}
	return nil
}

func (v *voxAmp) stats() stream.Stats { return v.amp.Stats() }
