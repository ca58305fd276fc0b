package core

// BufferLength is the size of the Wire receive and transmit rings
const BufferLength = 64

// ring is a fixed byte FIFO holding up to BufferLength bytes
type ring struct {
	buf  [BufferLength]byte
	head uint8 // next byte to read
	n    uint8 // bytes queued
}

func (r *ring) reset() {
	r.head, r.n = 0, 0
}

func (r *ring) len() int {
	return int(r.n)
}

func (r *ring) full() bool {
	return r.n == BufferLength
}

// put appends b, reporting false when the ring is full
func (r *ring) put(b byte) bool {
	if r.full() {
		return false
	}
	r.buf[(int(r.head)+int(r.n))%BufferLength] = b
	r.n++
	return true
}

// get removes the oldest byte
func (r *ring) get() (byte, bool) {
	if r.n == 0 {
		return 0, false
	}
	b := r.buf[r.head]
	r.head = uint8((int(r.head) + 1) % BufferLength)
	r.n--
	return b, true
}

// peek returns the oldest byte without removing it
func (r *ring) peek() (byte, bool) {
	if r.n == 0 {
		return 0, false
	}
	return r.buf[r.head], true
}
