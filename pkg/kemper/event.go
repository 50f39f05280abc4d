package kemper

import (
	"fmt"

	"github.com/speters/ampctl/pkg/stream"
)

// Event kinds raised by the KPA
const (
	KindControlChange stream.Kind = iota + 1
	KindProgramChange
	KindParamSingle
	KindParamString
	KindSysEx
)

// ControlChange is a received MIDI control change on channel 1
type ControlChange struct {
	Number byte `json:"number"`
	Value  byte `json:"value"`
}

// ProgramChange is a received MIDI program change on channel 1
type ProgramChange struct {
	Number byte `json:"number"`
}

// ParamSingle is the answer to a single parameter request
type ParamSingle struct {
	Page  byte `json:"page"`
	Param byte `json:"param"`
	MSB   byte `json:"msb"`
	LSB   byte `json:"lsb"`

	// Raw is the complete SysEx frame, handed to the SysEx handler when no
	// ParamSingle handler is registered
	Raw []byte `json:"-"`
}

// ParamString is the answer to a string parameter request
type ParamString struct {
	Page  byte   `json:"page"`
	Param byte   `json:"param"`
	Value []byte `json:"value"`

	Raw []byte `json:"-"`
}

// SysEx is any other complete SysEx frame, F0 and F7 included
type SysEx struct {
	Data []byte `json:"data"`
}

func (ControlChange) Kind() stream.Kind { return KindControlChange }
func (ProgramChange) Kind() stream.Kind { return KindProgramChange }
func (ParamSingle) Kind() stream.Kind   { return KindParamSingle }
func (ParamString) Kind() stream.Kind   { return KindParamString }
func (SysEx) Kind() stream.Kind         { return KindSysEx }

// ID returns the 14 bit parameter id of the answer
func (p ParamSingle) ID() ParamID { return NewParamID(p.Page, p.Param) }

// Value joins the two 7 bit halves of the parameter value
func (p ParamSingle) Value() uint16 { return uint16(p.MSB&0x7F)<<7 | uint16(p.LSB&0x7F) }

func (p ParamString) ID() ParamID { return NewParamID(p.Page, p.Param) }

func (p ParamString) String() string { return string(p.Value) }

func (c ControlChange) String() string {
	return fmt.Sprintf("ControlChange(%#02x, %#02x)", c.Number, c.Value)
}

func (p ProgramChange) String() string {
	return fmt.Sprintf("ProgramChange(%d)", p.Number)
}
