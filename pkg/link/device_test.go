package link

import (
	"bytes"
	"errors"
	"io"
	"net"
	"testing"
	"time"
)

func waitAvailable(t *testing.T, p *Port, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for p.Available() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d bytes, have %d", n, p.Available())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPortReadByteNeverBlocks(t *testing.T) {
	a, b := net.Pipe()
	defer b.Close()
	p := Attach(a)
	defer p.Close()

	if _, err := p.ReadByte(); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData on empty port, got %v", err)
	}

	go b.Write([]byte{0xF0, 0x02, 0x30, 0x08})
	waitAvailable(t, p, 4)

	var got []byte
	for p.Available() > 0 {
		c, err := p.ReadByte()
		if err != nil {
			t.Fatalf("read byte: %v", err)
		}
		got = append(got, c)
	}
	if !bytes.Equal(got, []byte{0xF0, 0x02, 0x30, 0x08}) {
		t.Fatalf("unexpected bytes % x", got)
	}
}

func TestPortWrite(t *testing.T) {
	a, b := net.Pipe()
	defer b.Close()
	p := Attach(a)
	defer p.Close()

	done := make(chan []byte)
	go func() {
		buf := make([]byte, 5)
		n, _ := io.ReadFull(b, buf)
		done <- buf[:n]
	}()

	if _, err := p.Write([]byte{0xF0, 0x03, 0x04, 0x12, 0x01}); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case got := <-done:
		if !bytes.Equal(got, []byte{0xF0, 0x03, 0x04, 0x12, 0x01}) {
			t.Fatalf("peer got % x", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("peer did not receive the write")
	}
}

func TestPortReportsReaderError(t *testing.T) {
	a, b := net.Pipe()
	p := Attach(a)
	defer p.Close()

	go func() {
		b.Write([]byte{0xC0})
		b.Close()
	}()
	waitAvailable(t, p, 1)

	if c, err := p.ReadByte(); err != nil || c != 0xC0 {
		t.Fatalf("expected buffered byte before the error, got %x %v", c, err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		_, err := p.ReadByte()
		if errors.Is(err, io.EOF) {
			break
		}
		if !errors.Is(err, ErrNoData) {
			t.Fatalf("unexpected error %v", err)
		}
		if time.Now().After(deadline) {
			t.Fatalf("reader error never surfaced")
		}
		time.Sleep(time.Millisecond)
	}
	if p.Connected() {
		t.Fatalf("port still connected after reader failure")
	}
}

func TestPortLost(t *testing.T) {
	a, b := net.Pipe()
	p := Attach(a)
	defer p.Close()

	select {
	case <-p.Lost():
		t.Fatalf("lost before any failure")
	default:
	}
	b.Close()
	select {
	case <-p.Lost():
	case <-time.After(2 * time.Second):
		t.Fatalf("reader failure not signalled")
	}
}

type failConn struct{ err error }

func (c *failConn) Read([]byte) (int, error) { return 0, c.err }
func (c *failConn) Write(b []byte) (int, error) { return len(b), nil }
func (c *failConn) Close() error { return nil }

func TestPortReaderFailureIsReported(t *testing.T) {
	broken := errors.New("device unplugged")
	p := Attach(&failConn{err: broken})
	defer p.Close()

	select {
	case <-p.Lost():
	case <-time.After(2 * time.Second):
		t.Fatalf("reader failure not signalled")
	}
	if p.Connected() {
		t.Fatalf("port still connected after reader failure")
	}
	if n := p.Available(); n != 1 {
		t.Fatalf("pending error not counted, available %d", n)
	}
	if _, err := p.ReadByte(); !errors.Is(err, broken) {
		t.Fatalf("first read: %v", err)
	}
	if n := p.Available(); n != 0 {
		t.Fatalf("available %d after the error was returned", n)
	}
	if _, err := p.ReadByte(); !errors.Is(err, ErrClosed) {
		t.Fatalf("second read: %v", err)
	}
	if _, err := p.Write([]byte{0x01}); !errors.Is(err, ErrClosed) {
		t.Fatalf("write after failure: %v", err)
	}
}

func TestPortClosed(t *testing.T) {
	a, b := net.Pipe()
	defer b.Close()
	p := Attach(a)

	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	select {
	case <-p.Lost():
	default:
		t.Fatalf("close did not mark the port lost")
	}
	if _, err := p.Write([]byte{0x01}); !errors.Is(err, ErrClosed) {
		t.Fatalf("write after close: %v", err)
	}
	if _, err := p.ReadByte(); !errors.Is(err, ErrClosed) {
		t.Fatalf("read after close: %v", err)
	}
	if err := p.Close(); !errors.Is(err, io.ErrClosedPipe) {
		t.Fatalf("second close: %v", err)
	}
}

func TestOpenTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("no loopback listener: %v", err)
	}
	defer ln.Close()

	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		c.Write([]byte{0xB0, 0x07, 0x40})
		time.Sleep(100 * time.Millisecond)
		c.Close()
	}()

	p, err := Open("tcp://"+ln.Addr().String(), MIDIBaud)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer p.Close()
	waitAvailable(t, p, 3)
}

func TestOpenRejectsUnknownScheme(t *testing.T) {
	if _, err := Open("ftp://example.com/x", MIDIBaud); err == nil {
		t.Fatalf("expected error for unknown scheme")
	}
}
