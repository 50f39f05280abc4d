package stream

// Accumulator is a fixed capacity buffer holding the bytes of the frame
// currently being received.
type Accumulator struct {
	buf  []byte
	size int
}

// NewAccumulator returns an empty Accumulator holding at most capacity bytes
func NewAccumulator(capacity int) *Accumulator {
	return &Accumulator{buf: make([]byte, capacity)}
}

// Push appends b. It returns false and leaves the buffer untouched when the
// accumulator is already full.
func (a *Accumulator) Push(b byte) bool {
	if a.size >= len(a.buf) {
		return false
	}
	a.buf[a.size] = b
	a.size++
	return true
}

func (a *Accumulator) Len() int { return a.size }

func (a *Accumulator) Cap() int { return len(a.buf) }

func (a *Accumulator) IsFull() bool { return a.size >= len(a.buf) }

func (a *Accumulator) IsEmpty() bool { return a.size == 0 }

// Clear drops all stored bytes, keeping the backing array
func (a *Accumulator) Clear() { a.size = 0 }

// At returns the i-th stored byte. Reading past Len returns 0.
func (a *Accumulator) At(i int) byte {
	if i < 0 || i >= a.size {
		return 0
	}
	return a.buf[i]
}

// Bytes returns a view of the stored bytes. The slice is only valid until the
// next Push or Clear; use Copy to keep the data.
func (a *Accumulator) Bytes() []byte { return a.buf[:a.size] }

// Copy returns a copy of the stored bytes
func (a *Accumulator) Copy() []byte {
	c := make([]byte, a.size)
	copy(c, a.buf[:a.size])
	return c
}
