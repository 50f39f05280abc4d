package fbv

import (
	"fmt"
	"time"
)

type displayState struct {
	content Display

	show  bool // dirty
	hide  bool
	flash bool
	shown bool

	onTime  time.Duration
	offTime time.Duration
	wait    time.Duration
	last    time.Time
}

// SetLed switches an LED on or off with the next UpdateUI. A flashing LED
// stops flashing.
func (b *Board) SetLed(k Key, on bool) error {
	s := b.slot(k)
	if s == nil {
		return fmt.Errorf("%w %v", ErrUnknownKey, k)
	}
	s.flash = false
	s.setOn = on
	s.setOff = !on
	return nil
}

// SetFlashTime changes the on-time SetLedFlash uses
func (b *Board) SetFlashTime(d time.Duration) {
	b.flashTime = d
}

// SetLedFlash lets an LED flash once per period
func (b *Board) SetLedFlash(k Key, period time.Duration) error {
	return b.SetLedFlashOnTime(k, period, b.flashTime)
}

// SetLedFlashOnTime lets an LED flash once per period, lit for on. A period
// not longer than on is split evenly.
func (b *Board) SetLedFlashOnTime(k Key, period, on time.Duration) error {
	s := b.slot(k)
	if s == nil {
		return fmt.Errorf("%w %v", ErrUnknownKey, k)
	}
	s.setOn = false
	s.setOff = false
	s.flash = true
	s.isOn = false
	s.wait = 0
	s.last = time.Time{}
	if period > on {
		s.onTime = on
		s.offTime = period - on
	} else {
		s.onTime = period / 2
		s.offTime = period / 2
	}
	return nil
}

// SyncLedFlash restarts all flashing LEDs in phase
func (b *Board) SyncLedFlash() {
	for i := range b.slots {
		s := &b.slots[i]
		if s.flash {
			s.wait = 0
			s.isOn = false
			s.last = time.Time{}
		}
	}
}

// LedOn reports the last state sent for an LED
func (b *Board) LedOn(k Key) bool {
	if s := b.slot(k); s != nil {
		return s.isOn
	}
	return false
}

// Display returns the display content, which may not have been sent yet
func (b *Board) Display() Display { return b.display.content }

// DisplayDirty reports whether the display changed since the last send
func (b *Board) DisplayDirty() bool { return b.display.show }

func (b *Board) touchDisplay() {
	b.display.flash = false
	b.display.hide = false
	b.display.show = true
}

// SetDisplayTitle sets the 16 character title, padded with blanks
func (b *Board) SetDisplayTitle(title string) {
	t := &b.display.content.Title
	for i := range t {
		t[i] = ' '
	}
	copy(t[:], title)
	b.touchDisplay()
}

// SetDisplayDigit sets digit 0..2 of the number or, for i >= 3, the note
// digit. The number digits show '0'..'9' or a blank.
func (b *Board) SetDisplayDigit(i int, c byte) {
	if i < 0 {
		return
	}
	if i < len(b.display.content.Digits) {
		b.display.content.Digits[i] = c
	} else {
		b.display.content.Note = c
	}
	b.touchDisplay()
}

// SetDisplayDigits sets the three number digits and the note digit at once.
// Missing characters are blank.
func (b *Board) SetDisplayDigits(s string) {
	var d [4]byte
	for i := range d {
		d[i] = ' '
	}
	copy(d[:], s)
	copy(b.display.content.Digits[:], d[:3])
	b.display.content.Note = d[3]
	b.touchDisplay()
}

// SetDisplayNumber shows the last three decimal digits of n with leading
// zeros blanked
func (b *Board) SetDisplayNumber(n uint) {
	n %= 1000
	d := [3]byte{byte('0' + n/100), byte('0' + n/10%10), byte('0' + n%10)}
	if d[0] == '0' {
		d[0] = ' '
		if d[1] == '0' {
			d[1] = ' '
		}
	}
	b.display.content.Digits = d
	b.touchDisplay()
}

// SetDisplayFlat shows or hides the flat sign
func (b *Board) SetDisplayFlat(on bool) {
	b.display.content.Flat = on
	b.touchDisplay()
}

// SetDisplayFlash alternates between the content (on) and a blank display
// (off). on == 0 stops flashing and shows the content.
func (b *Board) SetDisplayFlash(on, off time.Duration) {
	if on == 0 {
		b.touchDisplay()
		return
	}
	b.display.flash = true
	b.display.show = false
	b.display.hide = false
	b.display.onTime = on
	b.display.offTime = off
	b.display.wait = 0
	b.display.last = time.Time{}
}

// ClearDisplay blanks the display with the next UpdateUI, keeping the
// content for a later show
func (b *Board) ClearDisplay() {
	b.display.flash = false
	b.display.show = false
	b.display.hide = true
}

// UpdateUI sends all pending LED and display changes and advances flashing
// LEDs and display at now. LED frames go out in one write.
func (b *Board) UpdateUI(now time.Time) error {
	var out []byte
	for i := range b.slots {
		s := &b.slots[i]
		switch {
		case s.setOn:
			s.setOn = false
			s.isOn = true
			out = append(out, LedFrame(s.key, true)...)
		case s.setOff:
			s.setOff = false
			s.isOn = false
			out = append(out, LedFrame(s.key, false)...)
		case s.flash:
			if now.Sub(s.last) < s.wait {
				continue
			}
			s.last = now
			if s.isOn {
				s.wait = s.offTime
			} else {
				s.wait = s.onTime
			}
			s.isOn = !s.isOn
			out = append(out, LedFrame(s.key, s.isOn)...)
		}
	}
	if len(out) > 0 {
		if err := b.write(out); err != nil {
			return err
		}
	}

	return b.updateDisplay(now)
}

func (b *Board) updateDisplay(now time.Time) error {
	d := &b.display
	switch {
	case d.show:
		if err := b.write(DisplayFrames(d.content)); err != nil {
			return err
		}
		d.show = false
		d.shown = true
	case d.hide:
		if err := b.write(DisplayFrames(BlankDisplay())); err != nil {
			return err
		}
		d.hide = false
		d.shown = false
	case d.flash:
		if now.Sub(d.last) < d.wait {
			return nil
		}
		d.last = now
		if d.shown {
			d.wait = d.offTime
		} else {
			d.wait = d.onTime
		}
		d.shown = !d.shown
		if d.shown {
			return b.write(DisplayFrames(d.content))
		}
		return b.write(DisplayFrames(BlankDisplay()))
	}
	return nil
}
