package link

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tarm/serial"
	bugst "go.bug.st/serial"
)

// Transport is the byte oriented collaborator the protocol drivers poll.
// Available and ReadByte must never block.
type Transport interface {
	Available() int
	ReadByte() (byte, error)
	Write(b []byte) (int, error)
}

var (
	// ErrNoData is returned by ReadByte when no input is buffered
	ErrNoData = errors.New("link: no data available")
	// ErrClosed is returned once the Port has been closed
	ErrClosed = errors.New("link: port closed")
)

// MIDIBaud is the baud rate of a MIDI DIN current loop
const MIDIBaud = 31250

const inBufferSize = 4096

// Port is a serial device or TCP socket whose blocking read side is drained by
// a background goroutine, so Available and ReadByte can be polled.
type Port struct {
	conn  io.ReadWriteCloser
	wlock sync.Mutex

	link string
	baud int

	mu        sync.Mutex
	connected bool
	err       error
	reported  bool
	Done      chan struct{}
	lost      chan struct{}
	markLost  func()

	in chan byte
}

// Open connects to link, see Port.Connect
func Open(link string, baud int) (*Port, error) {
	p := &Port{}
	if err := p.Connect(link, baud); err != nil {
		return nil, err
	}
	return p, nil
}

// Attach wraps an already open connection
func Attach(conn io.ReadWriteCloser) *Port {
	p := &Port{}
	p.start(conn)
	return p
}

// Connect attaches to a serial device or a tcp socket. Use
// socket://[host]:[port] or tcp://[host]:[port] for TCP, anything else is
// taken as a serial device name.
func (o *Port) Connect(link string, baud int) error {
	u, err := url.Parse(link)
	if err != nil {
		return err
	}

	var conn io.ReadWriteCloser
	switch u.Scheme {
	case "socket", "tcp":
		c, err := net.Dial("tcp", u.Host)
		if err != nil {
			return err
		}
		c.(*net.TCPConn).SetKeepAlive(true)
		c.(*net.TCPConn).SetKeepAlivePeriod(30 * time.Second)
		conn = c
	case "file", "":
		name := u.Path
		if name == "" {
			name = u.Opaque
		}
		conn, err = openSerial(name, baud)
		if err != nil {
			return fmt.Errorf("open %s at %d baud: %w", name, baud, err)
		}
	default:
		return fmt.Errorf("Can not find a valid connection string in \"%v\"", link)
	}

	o.link = link
	o.baud = baud
	o.start(conn)
	return nil
}

// standardBauds are the rates tarm/serial can program through termios
var standardBauds = map[int]bool{
	4800: true, 9600: true, 19200: true, 38400: true, 57600: true, 115200: true,
}

// openSerial uses tarm/serial for the termios rates USB serial MIDI bridges
// run at and go.bug.st/serial for everything else, most notably the 31250
// baud of a MIDI DIN port.
func openSerial(name string, baud int) (io.ReadWriteCloser, error) {
	if standardBauds[baud] {
		return serial.OpenPort(&serial.Config{Name: name, Baud: baud, Size: 8, Parity: serial.ParityNone, StopBits: serial.Stop1})
	}
	return bugst.Open(name, &bugst.Mode{BaudRate: baud, DataBits: 8, Parity: bugst.NoParity, StopBits: bugst.OneStopBit})
}

// ListPorts returns the names of the serial ports found on this machine
func ListPorts() ([]string, error) {
	return bugst.GetPortsList()
}

func (o *Port) start(conn io.ReadWriteCloser) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.conn = conn
	o.connected = true
	o.err = nil
	o.reported = false
	o.Done = make(chan struct{})
	o.in = make(chan byte, inBufferSize)

	lost := make(chan struct{})
	var once sync.Once
	o.lost = lost
	o.markLost = func() { once.Do(func() { close(lost) }) }

	go o.readLoop(conn, o.in, o.Done, o.markLost)
}

func (o *Port) readLoop(conn io.ReadWriteCloser, in chan<- byte, done <-chan struct{}, markLost func()) {
	b := make([]byte, 512)
	for {
		n, err := conn.Read(b)
		if n > 0 {
			log.Debugf("Read b='%# x', n=%v", b[0:n], n)
		}
		for i := 0; i < n; i++ {
			select {
			case in <- b[i]:
			case <-done:
				return
			}
		}
		if err != nil {
			select {
			case <-done:
				log.Debugf("Closing, returning from reading loop goroutine")
			default:
				log.Debugf("Read err=%v", err)
				o.fail(conn, err)
				markLost()
			}
			return
		}
	}
}

// fail marks the port disconnected after the reader of conn gave up. A reader
// left over from before a Reconnect changes nothing.
func (o *Port) fail(conn io.ReadWriteCloser, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.conn != conn {
		return
	}
	o.connected = false
	o.err = err
}

// Available returns the number of buffered input bytes. A reader error not
// yet returned by ReadByte counts as one more byte, so polling loops that
// read while Available is positive see it.
func (o *Port) Available() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.in == nil {
		return 0
	}
	n := len(o.in)
	if o.err != nil && !o.reported {
		n++
	}
	return n
}

// ReadByte returns the next buffered byte. It returns ErrNoData when nothing
// is buffered. Once the buffer is drained after a reader failure it returns
// the reader's error one time and ErrClosed after that.
func (o *Port) ReadByte() (byte, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.in == nil {
		return 0, ErrClosed
	}

	select {
	case b := <-o.in:
		return b, nil
	default:
	}

	if o.err != nil && !o.reported {
		o.reported = true
		return 0, o.err
	}
	if !o.connected {
		return 0, ErrClosed
	}
	return 0, ErrNoData
}

func (o *Port) Write(b []byte) (int, error) {
	o.wlock.Lock()
	defer o.wlock.Unlock()

	o.mu.Lock()
	conn, connected := o.conn, o.connected
	o.mu.Unlock()
	if !connected {
		return 0, ErrClosed
	}

	n, err := conn.Write(b)
	log.Debugf("Write b='%# x', n=%v, err=%v", b, n, err)
	return n, err
}

// Connected reports whether the port is open and its reader has not failed
func (o *Port) Connected() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.connected
}

// Close closes the underlying serial device or socket
func (o *Port) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.Done == nil {
		return ErrClosed
	}
	select {
	case <-o.Done:
		o.connected = false
		return io.ErrClosedPipe
	default:
	}
	close(o.Done)
	o.markLost()
	o.connected = false
	return o.conn.Close()
}

// Lost is closed once the reader fails or the port is closed. A new channel
// is returned after a successful Reconnect.
func (o *Port) Lost() <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lost
}

// Reconnect closes the port and opens the same link again
func (o *Port) Reconnect() error {
	if o.link == "" {
		return fmt.Errorf("link: no connection string to reconnect to")
	}
	o.Close()
	return o.Connect(o.link, o.baud)
}
