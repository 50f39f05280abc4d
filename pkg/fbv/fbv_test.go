package fbv

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/speters/ampctl/pkg/link"
	"github.com/speters/ampctl/pkg/link/linktest"
	"github.com/speters/ampctl/pkg/stream"
)

var t0 = time.Date(2015, 10, 8, 20, 0, 0, 0, time.UTC)

func at(ms int) time.Time { return t0.Add(time.Duration(ms) * time.Millisecond) }

func TestClassify(t *testing.T) {
	tests := []struct {
		in   []byte
		want stream.Verdict
	}{
		{[]byte{0xF0}, stream.NeedMore},
		{[]byte{0x90}, stream.Rejected},
		{[]byte{0xF0, 0x02}, stream.NeedMore},
		{[]byte{0xF0, 0x03}, stream.NeedMore},
		{[]byte{0xF0, 0x04}, stream.Rejected},
		{[]byte{0xF0, 0x02, 0x90}, stream.Expect(4)},
		{[]byte{0xF0, 0x02, 0x30}, stream.Expect(4)},
		{[]byte{0xF0, 0x02, 0x81}, stream.Rejected},
		{[]byte{0xF0, 0x03, 0x81}, stream.Expect(5)},
		{[]byte{0xF0, 0x03, 0x82}, stream.Expect(5)},
		{[]byte{0xF0, 0x03, 0x90}, stream.Rejected},
	}
	for _, tc := range tests {
		if got := classify(tc.in); got != tc.want {
			t.Fatalf("classify(% x) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParserFrames(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want []stream.Event
	}{
		{"switch down", []byte{0xF0, 0x03, 0x81, 0x12, 0x01}, []stream.Event{KeyPressed{Key: KeyStomp1}}},
		{"switch up", []byte{0xF0, 0x03, 0x81, 0x12, 0x00}, []stream.Event{KeyReleased{Key: KeyStomp1}}},
		{"switch other state", []byte{0xF0, 0x03, 0x81, 0x12, 0x02}, nil},
		{"pedal", []byte{0xF0, 0x03, 0x82, 0x01, 0x40}, []stream.Event{CtrlChanged{Pedal: Pedal2, Value: 0x40}}},
		{"heartbeat", []byte{0xF0, 0x02, 0x90, 0x00}, []stream.Event{Heartbeat{Code: 0x90, Value: 0x00}}},
		{"heartbeat 2", []byte{0xF0, 0x02, 0x30, 0x08}, []stream.Event{Heartbeat{Code: 0x30, Value: 0x08}}},
		{"garbage first", []byte{0x00, 0x7F, 0x81, 0xF0, 0x03, 0x82, 0x00, 0x10}, []stream.Event{CtrlChanged{Pedal: Pedal1, Value: 0x10}}},
		{"bad category", []byte{0xF0, 0x05, 0x81, 0x12, 0x01}, nil},
		{"bad command", []byte{0xF0, 0x03, 0x04, 0x12, 0x01}, nil},
		{"restart on frame start", []byte{0xF0, 0x03, 0xF0, 0x03, 0x81, 0x61, 0x01}, []stream.Event{KeyPressed{Key: KeyTap}}},
		{
			"back to back",
			[]byte{0xF0, 0x02, 0x90, 0x00, 0xF0, 0x03, 0x81, 0x20, 0x01},
			[]stream.Event{Heartbeat{Code: 0x90}, KeyPressed{Key: KeyChannelA}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := NewParser()
			var got []stream.Event
			for _, c := range tc.in {
				if ev, ok := p.Feed(c); ok {
					got = append(got, ev)
				}
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %#v, want %#v", got, tc.want)
			}
			if p.Collecting() {
				t.Fatalf("parser left collecting")
			}
		})
	}
}

func record(b *Board) *[]stream.Event {
	var evs []stream.Event
	for k := KindKeyPressed; k <= KindConnected; k++ {
		b.Handle(k, func(ev stream.Event) { evs = append(evs, ev) })
	}
	return &evs
}

func TestIncrementalMatchesBatch(t *testing.T) {
	in := []byte{0xF0, 0x03, 0x82, 0x00, 0x22, 0xF0, 0x03, 0x81, 0x51, 0x01, 0xF0, 0x03, 0x81, 0x51, 0x00}

	one := New(&linktest.Pipe{})
	incremental := record(one)
	for _, c := range in {
		one.Decode([]byte{c}, t0)
	}

	pipe := &linktest.Pipe{}
	pipe.Feed(in...)
	all := New(pipe)
	batch := record(all)
	if _, err := all.Read(t0); err != nil {
		t.Fatalf("Read: %v", err)
	}

	if len(*incremental) != 4 || !reflect.DeepEqual(*incremental, *batch) {
		t.Fatalf("incremental %#v, batch %#v", *incremental, *batch)
	}
}

func TestHold(t *testing.T) {
	down := []byte{0xF0, 0x03, 0x81, 0x12, 0x01}
	up := []byte{0xF0, 0x03, 0x81, 0x12, 0x00}

	tests := []struct {
		name string
		upAt int
		want []stream.Event
	}{
		{
			"short press",
			1500,
			[]stream.Event{Connected{}, KeyPressed{Key: 0x12}, KeyReleased{Key: 0x12, WasHeld: false}},
		},
		{
			"held",
			2500,
			[]stream.Event{Connected{}, KeyPressed{Key: 0x12}, KeyHeld{Key: 0x12}, KeyReleased{Key: 0x12, WasHeld: true}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pipe := &linktest.Pipe{}
			b := New(pipe)
			evs := record(b)

			pipe.Feed(down...)
			b.Read(at(0))
			for ms := 100; ms < tc.upAt; ms += 100 {
				b.Read(at(ms))
			}
			pipe.Feed(up...)
			b.Read(at(tc.upAt))
			// more polling after release must not raise anything
			b.Read(at(tc.upAt + 3000))

			if !reflect.DeepEqual(*evs, tc.want) {
				t.Fatalf("got %#v, want %#v", *evs, tc.want)
			}
		})
	}
}

func TestHoldOncePerPress(t *testing.T) {
	b := New(&linktest.Pipe{})
	held := 0
	b.HandleKeyHeld(func(KeyHeld) { held++ })
	if err := b.SetHoldTime(KeyTap, 500*time.Millisecond); err != nil {
		t.Fatal(err)
	}

	b.Decode([]byte{0xF0, 0x03, 0x81, 0x61, 0x01}, at(0))
	for ms := 0; ms <= 3000; ms += 250 {
		b.Read(at(ms))
	}
	if held != 1 {
		t.Fatalf("held %d times", held)
	}

	if err := b.SetHoldTime(0x7E, time.Second); !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("SetHoldTime unknown key: %v", err)
	}
}

func TestConnection(t *testing.T) {
	pipe := &linktest.Pipe{}
	b := New(pipe)
	evs := record(b)

	pipe.Feed(0xF0, 0x02, 0x90, 0x00)
	b.Read(at(0))
	if !b.Connected() {
		t.Fatalf("not connected after heartbeat")
	}
	if got := pipe.Take(); !bytes.Equal(got, []byte{0xF0, 0x02, 0x01, 0x00}) {
		t.Fatalf("heartbeat answer % x", got)
	}

	b.Read(at(7999))
	b.Read(at(8000))
	b.Read(at(9000))
	b.Read(at(20000))
	if b.Connected() {
		t.Fatalf("still connected")
	}

	pipe.Feed(0xF0, 0x03, 0x82, 0x00, 0x01)
	b.Read(at(21000))

	want := []stream.Event{
		Connected{}, Heartbeat{Code: 0x90},
		Disconnected{},
		Connected{}, CtrlChanged{Pedal: Pedal1, Value: 0x01},
	}
	if !reflect.DeepEqual(*evs, want) {
		t.Fatalf("got %#v, want %#v", *evs, want)
	}
}

func TestReadError(t *testing.T) {
	pipe := &linktest.Pipe{Err: link.ErrClosed}
	b := New(pipe)
	if n, err := b.Read(t0); err != nil || n != 0 {
		t.Fatalf("idle read: n=%d err=%v", n, err)
	}
	pipe.WriteErr = link.ErrClosed
	if err := b.RequestPedalPos(); !errors.Is(err, link.ErrClosed) {
		t.Fatalf("write error = %v", err)
	}
}

func TestLed(t *testing.T) {
	pipe := &linktest.Pipe{}
	b := New(pipe)

	if err := b.SetLed(KeyStomp2, true); err != nil {
		t.Fatal(err)
	}
	if err := b.SetLed(KeyAmp1, false); err != nil {
		t.Fatal(err)
	}
	if err := b.UpdateUI(t0); err != nil {
		t.Fatal(err)
	}
	want := []byte{
		0xF0, 0x03, 0x04, 0x22, 0x01,
		0xF0, 0x03, 0x04, 0x01, 0x00,
	}
	if got := pipe.Take(); !bytes.Equal(got, want) {
		t.Fatalf("got % x, want % x", got, want)
	}
	if !b.LedOn(KeyStomp2) || b.LedOn(KeyAmp1) {
		t.Fatalf("led state not tracked")
	}

	if err := b.UpdateUI(at(10)); err != nil {
		t.Fatal(err)
	}
	if got := pipe.Take(); len(got) != 0 {
		t.Fatalf("nothing pending but sent % x", got)
	}

	if err := b.SetLed(0x7E, true); !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("unknown led: %v", err)
	}
}

func TestLedFlash(t *testing.T) {
	pipe := &linktest.Pipe{}
	b := New(pipe)
	if err := b.SetLedFlash(KeyTap, 500*time.Millisecond); err != nil {
		t.Fatal(err)
	}

	steps := []struct {
		ms   int
		want []byte
	}{
		{0, LedFrame(KeyTap, true)},
		{10, nil},
		{50, LedFrame(KeyTap, false)},
		{499, nil},
		{500, LedFrame(KeyTap, true)},
		{550, LedFrame(KeyTap, false)},
	}
	for _, s := range steps {
		if err := b.UpdateUI(at(s.ms)); err != nil {
			t.Fatal(err)
		}
		if got := pipe.Take(); !bytes.Equal(got, s.want) {
			t.Fatalf("at %dms got % x, want % x", s.ms, got, s.want)
		}
	}

	// short period splits evenly
	if err := b.SetLedFlashOnTime(KeyDelay, 40*time.Millisecond, 50*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	b.SyncLedFlash()
	b.UpdateUI(at(1000))
	pipe.Take()
	b.UpdateUI(at(1019))
	if got := pipe.Take(); len(got) != 0 {
		t.Fatalf("flipped early: % x", got)
	}
	b.UpdateUI(at(1020))
	if got, want := pipe.Take(), LedFrame(KeyDelay, false); !bytes.Equal(got, want) {
		t.Fatalf("at 1020ms got % x, want % x", got, want)
	}

	if err := b.SetLed(KeyTap, true); err != nil {
		t.Fatal(err)
	}
	b.UpdateUI(at(5000))
	want := append(LedFrame(KeyDelay, true), LedFrame(KeyTap, true)...)
	if got := pipe.Take(); !bytes.Equal(got, want) {
		t.Fatalf("SetLed did not stop flashing: % x", got)
	}
}

func TestDisplayRoundTrip(t *testing.T) {
	pipe := &linktest.Pipe{}
	b := New(pipe)

	b.SetDisplayNumber(7)
	b.SetDisplayDigit(3, 'C')
	b.SetDisplayFlat(true)
	b.SetDisplayTitle("Crunch Rig")
	if !b.DisplayDirty() {
		t.Fatalf("setters did not mark the display dirty")
	}
	if err := b.UpdateUI(t0); err != nil {
		t.Fatal(err)
	}
	if b.DisplayDirty() {
		t.Fatalf("dirty after send")
	}

	sent := pipe.Take()
	d, err := DecodeDisplay(sent)
	if err != nil {
		t.Fatalf("DecodeDisplay: %v", err)
	}
	if d != b.Display() {
		t.Fatalf("decoded %+v, want %+v", d, b.Display())
	}
	if d.Digits != [3]byte{' ', ' ', '7'} || d.Note != 'C' || !d.Flat || d.TitleString() != "Crunch Rig" {
		t.Fatalf("unexpected display %+v", d)
	}

	if err := b.UpdateUI(at(100)); err != nil {
		t.Fatal(err)
	}
	if got := pipe.Take(); len(got) != 0 {
		t.Fatalf("clean display sent again: % x", got)
	}
}

func TestDisplayFrames(t *testing.T) {
	d := BlankDisplay()
	d.Digits = [3]byte{'1', '2', '3'}
	d.Note = 'A'
	copy(d.Title[:], "ABCDEFGHIJKLMNOP")

	want := []byte{
		0xF0, 0x05, 0x08, '1', '2', '3', 'A',
		0xF0, 0x02, 0x20, 0x00,
		0xF0, 0x13, 0x10, 0x00, 0x10,
		'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I', 'J', 'K', 'L', 'M', 'N', 'O', 'P',
	}
	if got := DisplayFrames(d); !bytes.Equal(got, want) {
		t.Fatalf("got % x\nwant % x", got, want)
	}

	if _, err := DecodeDisplay(want[:20]); !errors.Is(err, ErrShortFrame) {
		t.Fatalf("truncated title: %v", err)
	}
	if _, err := DecodeDisplay([]byte{0x00, 0x01}); !errors.Is(err, ErrNoFrame) {
		t.Fatalf("garbage: %v", err)
	}
}

func TestDisplayNumber(t *testing.T) {
	tests := []struct {
		n    uint
		want [3]byte
	}{
		{0, [3]byte{' ', ' ', '0'}},
		{5, [3]byte{' ', ' ', '5'}},
		{42, [3]byte{' ', '4', '2'}},
		{105, [3]byte{'1', '0', '5'}},
		{1234, [3]byte{'2', '3', '4'}},
	}
	b := New(&linktest.Pipe{})
	for _, tc := range tests {
		b.SetDisplayNumber(tc.n)
		if got := b.Display().Digits; got != tc.want {
			t.Fatalf("SetDisplayNumber(%d) = %q, want %q", tc.n, got[:], tc.want[:])
		}
	}
}

func TestDisplayStaysDirtyOnWriteError(t *testing.T) {
	pipe := &linktest.Pipe{WriteErr: link.ErrClosed}
	b := New(pipe)
	b.SetDisplayTitle("x")
	if err := b.UpdateUI(t0); !errors.Is(err, link.ErrClosed) {
		t.Fatalf("UpdateUI: %v", err)
	}
	if !b.DisplayDirty() {
		t.Fatalf("dirty flag cleared by a failed send")
	}
	pipe.WriteErr = nil
	if err := b.UpdateUI(at(1)); err != nil {
		t.Fatal(err)
	}
	if b.DisplayDirty() {
		t.Fatalf("dirty after send")
	}
}

func TestDisplayFlash(t *testing.T) {
	pipe := &linktest.Pipe{}
	b := New(pipe)
	b.SetDisplayTitle("Tuner")
	b.SetDisplayFlash(200*time.Millisecond, 100*time.Millisecond)

	expect := func(ms int, want []byte) {
		t.Helper()
		if err := b.UpdateUI(at(ms)); err != nil {
			t.Fatal(err)
		}
		if got := pipe.Take(); !bytes.Equal(got, want) {
			t.Fatalf("at %dms got % x, want % x", ms, got, want)
		}
	}
	content := DisplayFrames(b.Display())
	blank := DisplayFrames(BlankDisplay())
	expect(0, content)
	expect(199, nil)
	expect(200, blank)
	expect(299, nil)
	expect(300, content)

	b.SetDisplayFlash(0, 0)
	expect(310, content)
	expect(1000, nil)
}

func TestKeyNames(t *testing.T) {
	for _, k := range slotKeys {
		got, err := ParseKey(k.String())
		if err != nil || got != k {
			t.Fatalf("ParseKey(%q) = %v, %v", k.String(), got, err)
		}
	}
	if _, err := ParseKey("nope"); err == nil {
		t.Fatalf("ParseKey accepted an unknown name")
	}
	if s := Key(0x7E).String(); s != "key(0x7e)" {
		t.Fatalf("unknown key string %q", s)
	}
}
