// Package linktest provides an in-memory link.Transport for driver tests.
package linktest

import (
	"bytes"

	"github.com/speters/ampctl/pkg/link"
)

// Pipe is a Transport whose input is fed by the test and whose output is
// collected for inspection.
type Pipe struct {
	In  bytes.Buffer
	Out bytes.Buffer

	// Err is returned by ReadByte once In is drained, ErrNoData otherwise
	Err error
	// WriteErr makes every Write fail
	WriteErr error
}

// Feed queues input bytes
func (p *Pipe) Feed(b ...byte) { p.In.Write(b) }

func (p *Pipe) Available() int { return p.In.Len() }

func (p *Pipe) ReadByte() (byte, error) {
	if p.In.Len() == 0 {
		if p.Err != nil {
			return 0, p.Err
		}
		return 0, link.ErrNoData
	}
	return p.In.ReadByte()
}

func (p *Pipe) Write(b []byte) (int, error) {
	if p.WriteErr != nil {
		return 0, p.WriteErr
	}
	return p.Out.Write(b)
}

// Take returns everything written so far and resets the output
func (p *Pipe) Take() []byte {
	b := append([]byte(nil), p.Out.Bytes()...)
	p.Out.Reset()
	return b
}
