package fbv

import (
	"bytes"
	"errors"
	"fmt"
)

// Frames sent to the board are F0 <n> <cmd> <payload>, n counting the bytes
// after itself.

const titleLen = 16

var (
	ErrShortFrame = errors.New("fbv: short frame")
	ErrNoFrame    = errors.New("fbv: missing frame start")
)

var (
	requestBoardType = []byte{frameStart, 0x02, cmdBoard, 0x00}
	requestPedalPos  = []byte{frameStart, 0x02, cmdPedalPos, 0x00}
)

// Display is the content of the board's display: three number digits, the
// note/channel digit, the flat sign and the 16 character title.
type Display struct {
	Digits [3]byte
	Note   byte
	Flat   bool
	Title  [titleLen]byte
}

// BlankDisplay shows nothing
func BlankDisplay() Display {
	var d Display
	d.Digits = [3]byte{' ', ' ', ' '}
	d.Note = ' '
	for i := range d.Title {
		d.Title[i] = ' '
	}
	return d
}

// TitleString returns the title without trailing blanks and padding
func (d Display) TitleString() string {
	return string(bytes.TrimRight(d.Title[:], " \x00"))
}

// LedFrame switches one LED
func LedFrame(k Key, on bool) []byte {
	return []byte{frameStart, 0x03, cmdLed, byte(k), boolByte(on)}
}

// DisplayFrames encodes d as the digit, flat sign and title frames
func DisplayFrames(d Display) []byte {
	b := make([]byte, 0, 7+4+5+titleLen)
	b = append(b, frameStart, 0x05, cmdDigits, d.Digits[0], d.Digits[1], d.Digits[2], d.Note)
	b = append(b, frameStart, 0x02, cmdFlat, boolByte(d.Flat))
	b = append(b, frameStart, 0x13, cmdTitle, 0x00, titleLen)
	b = append(b, d.Title[:]...)
	return b
}

// DecodeDisplay reads display frames as produced by DisplayFrames back into
// a Display. Frames with other commands are skipped, fields not covered by
// any frame stay blank.
func DecodeDisplay(b []byte) (Display, error) {
	d := BlankDisplay()
	for len(b) > 0 {
		if b[0] != frameStart {
			return d, fmt.Errorf("%w at '% x'", ErrNoFrame, b)
		}
		if len(b) < 3 || len(b) < int(b[1])+2 {
			return d, fmt.Errorf("%w: '% x'", ErrShortFrame, b)
		}
		n := int(b[1]) + 2
		f := b[:n]
		b = b[n:]

		switch f[2] {
		case cmdDigits:
			if n != 7 {
				return d, fmt.Errorf("%w: digits '% x'", ErrShortFrame, f)
			}
			copy(d.Digits[:], f[3:6])
			d.Note = f[6]
		case cmdFlat:
			if n != 4 {
				return d, fmt.Errorf("%w: flat '% x'", ErrShortFrame, f)
			}
			d.Flat = f[3] != 0x00
		case cmdTitle:
			if n != 5+titleLen {
				return d, fmt.Errorf("%w: title '% x'", ErrShortFrame, f)
			}
			copy(d.Title[:], f[5:])
		}
	}
	return d, nil
}

func boolByte(v bool) byte {
	if v {
		return 0x01
	}
	return 0x00
}
