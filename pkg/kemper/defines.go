package kemper

// MIDI status bytes on channel 1 as used by the KPA
const (
	StatusControlChange byte = 0xB0
	StatusProgramChange byte = 0xC0
	StatusSysEx         byte = 0xF0
	StatusSysExEnd      byte = 0xF7
)

// SysExSize is the longest SysEx frame accepted, terminator included
const SysExSize = 128

// Offsets into a KPA SysEx frame F0 00 20 33 02 7F <fn> 00 <page> <param> [value...] F7
const (
	offFunction = 6
	offPage     = 8
	offParam    = 9
	offValue    = 10

	// shortest frame that carries a full single parameter answer
	minParamFrame = 13
)

// SysEx function codes
const (
	FnRequestParam     byte = 0x41
	FnRequestMultiParm byte = 0x42
	FnRequestString    byte = 0x43
	FnRequestExtParam  byte = 0x46
	FnRequestExtString byte = 0x47

	FnReturnParam     byte = 0x01
	FnReturnMultiParm byte = 0x02
	FnReturnString    byte = 0x03
	FnReturnExtParam  byte = 0x06
	FnReturnExtString byte = 0x07

	FnAck byte = 0x7E
)

var sysExHeader = [...]byte{0xF0, 0x00, 0x20, 0x33, 0x02, 0x7F}

// Continuous controller numbers
const (
	CCBankMSB byte = 0x00
	CCWah     byte = 0x01
	CCPitch   byte = 0x04
	CCVolume  byte = 0x07
	CCTap     byte = 0x1E
	CCBankLSB byte = 0x20
	CCGain    byte = 0x48

	CCStompA     byte = 0x11
	CCStompB     byte = 0x12
	CCStompC     byte = 0x13
	CCStompD     byte = 0x14
	CCStompX     byte = 0x16
	CCStompMod   byte = 0x18
	CCDelay      byte = 0x1B // keep tail, 0x1A cuts it
	CCReverb     byte = 0x1D // keep tail, 0x1C cuts it
	CCTuner      byte = 0x1F
	CCDataEntry  byte = 0x06
	CCDataLSB    byte = 0x26
	CCNRPNParamL byte = 0x62
	CCNRPNParamH byte = 0x63
)

// Looper commands, sent as NRPN 0x7D/<cmd>
const (
	LooperRecPlay  byte = 0x58
	LooperStop     byte = 0x59
	LooperTrigger  byte = 0x5A
	LooperReverse  byte = 0x5B
	LooperHalftime byte = 0x5C
	LooperUndoRedo byte = 0x5D
	LooperErase    byte = 0x5E
)

const looperNRPNPage byte = 0x7D

// ParamID is a 14 bit KPA parameter id: address page in the upper seven bits,
// parameter number in the lower seven.
type ParamID uint16

// NewParamID joins an address page and parameter number
func NewParamID(page, param byte) ParamID {
	return ParamID(page&0x7F)<<7 | ParamID(param&0x7F)
}

func (p ParamID) Page() byte   { return byte(p>>7) & 0x7F }
func (p ParamID) Number() byte { return byte(p) & 0x7F }

// Address pages
const (
	PageRig      byte = 0x04
	PageStompA   byte = 0x32
	PageStompB   byte = 0x33
	PageStompC   byte = 0x34
	PageStompD   byte = 0x35
	PageStompX   byte = 0x38
	PageStompMod byte = 0x3A
	PageDelay    byte = 0x4A
	PageReverb   byte = 0x4B
)

// Parameters
const (
	ParamTapEvent    ParamID = 0x3E00
	ParamCurrTuning  ParamID = 0x3E0F
	ParamCurrNote    ParamID = 0x3ED4
	ParamTunerState  ParamID = 0x3FFE
	ParamMode        ParamID = 0x3FFD
	ParamGainValue   ParamID = 0x0504
	ParamLooperState ParamID = 0x3E2A

	ParamStompAType    ParamID = 0x1900
	ParamStompAState   ParamID = 0x1903
	ParamStompBType    ParamID = 0x1980
	ParamStompBState   ParamID = 0x1983
	ParamStompCType    ParamID = 0x1A00
	ParamStompCState   ParamID = 0x1A03
	ParamStompDType    ParamID = 0x1A80
	ParamStompDState   ParamID = 0x1A83
	ParamStompXType    ParamID = 0x1C00
	ParamStompXState   ParamID = 0x1C03
	ParamStompModType  ParamID = 0x1D00
	ParamStompModState ParamID = 0x1D03
	ParamDelayType     ParamID = 0x2500
	ParamDelayState    ParamID = 0x2502
	ParamReverbType    ParamID = 0x2580
	ParamReverbState   ParamID = 0x2582
)

// String ids
const (
	StringRigName         ParamID = 0x0001
	StringPerfName        ParamID = 0x4000
	StringPerfNamePreview ParamID = 0x4010
	StringSlot1Name       ParamID = 0x4001
	StringSlot2Name       ParamID = 0x4002
	StringSlot3Name       ParamID = 0x4003
	StringSlot4Name       ParamID = 0x4004
	StringSlot5Name       ParamID = 0x4005
)

// Values of ParamMode
const (
	ModeBrowse  = 0x00
	ModePerform = 0x01
)
