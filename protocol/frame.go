package protocol

import "errors"

var (
	ErrNeedMore     = errors.New("incomplete frame")
	ErrFrameLength  = errors.New("invalid frame length")
	ErrFrameSeq     = errors.New("invalid frame sequence")
	ErrFrameSync    = errors.New("missing frame sync byte")
	ErrFrameCRC     = errors.New("frame CRC mismatch")
	ErrFrameTooLong = errors.New("payload does not fit in a frame")
)

// AppendFrame wraps payload in a frame and appends it to dst
func AppendFrame(dst []byte, seq uint8, payload []byte) ([]byte, error) {
	if len(payload) > MessagePayloadMax {
		return dst, ErrFrameTooLong
	}
	start := len(dst)
	dst = append(dst, uint8(len(payload)+MessageLengthMin), seq)
	dst = append(dst, payload...)
	crc := CRC16(dst[start:])
	return append(dst, uint8(crc>>8), uint8(crc), MessageValueSync), nil
}

// EncodeFrame assembles a frame in place: body writes the payload, then the
// length byte is patched and the trailer appended
func EncodeFrame(output OutputBuffer, seq uint8, body func(output OutputBuffer)) error {
	cursor := output.CurPosition()
	output.Output([]byte{0, seq})
	if body != nil {
		body(output)
	}
	n := len(output.DataSince(cursor)) + MessageTrailerSize
	if n > MessageLengthMax {
		return ErrFrameTooLong
	}
	output.Update(cursor, uint8(n))
	crc := CRC16(output.DataSince(cursor))
	output.Output([]byte{uint8(crc >> 8), uint8(crc), MessageValueSync})
	return nil
}

// ParseFrame decodes the frame at the front of data. n is the number of
// bytes the caller should drop: the frame itself on success, leading sync
// bytes with ErrNeedMore, or everything up to and including the next sync
// byte when the frame is corrupt.
func ParseFrame(data []byte) (f Frame, n int, err error) {
	for n < len(data) && data[n] == MessageValueSync {
		n++
	}
	d := data[n:]
	if len(d) < MessageLengthMin {
		return f, n, ErrNeedMore
	}

	msgLen := int(d[MessagePositionLen])
	if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
		return f, n + resync(d), ErrFrameLength
	}
	if len(d) < msgLen {
		return f, n, ErrNeedMore
	}
	if d[msgLen-1] != MessageValueSync {
		return f, n + resync(d), ErrFrameSync
	}
	body := d[:msgLen-MessageTrailerSize]
	want := uint16(d[msgLen-3])<<8 | uint16(d[msgLen-2])
	if CRC16(body) != want {
		return f, n + resync(d), ErrFrameCRC
	}

	f.Seq = d[MessagePositionSeq]
	f.Payload = body[MessageHeaderSize:]
	return f, n + msgLen, nil
}

// resync returns how many bytes of a corrupt frame to drop: through the next
// sync byte, or all of it
func resync(d []byte) int {
	for i, b := range d {
		if b == MessageValueSync {
			return i + 1
		}
	}
	return len(d)
}

// FrameHandler receives each good frame. Payload is only valid during the
// call.
type FrameHandler func(f Frame)

// Decoder reassembles frames from a byte stream. It is an io.Writer so a
// serial reader can be copied straight into it.
type Decoder struct {
	fifo    *FifoBuffer
	handler FrameHandler

	Frames  uint32 // good frames delivered
	Dropped uint32 // corrupt frames discarded
}

// NewDecoder returns a decoder that buffers up to two maximum-size frames
func NewDecoder(handler FrameHandler) *Decoder {
	return &Decoder{
		fifo:    NewFifoBuffer(2*MessageLengthMax + 1),
		handler: handler,
	}
}

// Write feeds received bytes and delivers every complete frame. It never
// fails; bytes that do not fit are retried after decoding frees room.
func (d *Decoder) Write(p []byte) (int, error) {
	total := len(p)
	for len(p) > 0 {
		n := d.fifo.Write(p)
		p = p[n:]
		d.drain()
		if n == 0 && d.fifo.Free() == 0 {
			// No frame can start here; drop the oldest byte to make progress
			d.fifo.Pop(1)
			d.Dropped++
		}
	}
	return total, nil
}

func (d *Decoder) drain() {
	for !d.fifo.IsEmpty() {
		f, n, err := ParseFrame(d.fifo.Data())
		d.fifo.Pop(n)
		switch {
		case err == ErrNeedMore:
			return
		case err != nil:
			d.Dropped++
		default:
			d.Frames++
			if d.handler != nil {
				d.handler(f)
			}
		}
	}
}

// Reset discards any partial frame
func (d *Decoder) Reset() {
	d.fifo.Reset()
}
