package sim

import "tivago/periph"

// Frame is one SSI frame as seen on the wire
type Frame struct {
	Width uint8
	Mode  uint32 // CR0 SPO|SPH at the time of the frame
	TX    uint16
	RX    uint16
}

// SSI models an SSI master: every frame written to DR is exchanged with Peer
// immediately and the reply lands in the receive FIFO. A nil Peer echoes the
// frame back (loopback).
type SSI struct {
	Regs   Regs
	Peer   func(tx uint16, width uint8) uint16
	Frames []Frame
	rx     []uint16
}

func newSSI() *SSI {
	return &SSI{Regs: Regs{}}
}

func (s *SSI) width() uint8 {
	return uint8(s.Regs[periph.SSICR0]&periph.SSICR0DSSMask) + 1
}

func (s *SSI) Load(off uint32) uint32 {
	switch off {
	case periph.SSISR:
		sr := uint32(periph.SSISRTNF | periph.SSISRTFE)
		if len(s.rx) > 0 {
			sr |= periph.SSISRRNE
		}
		return sr
	case periph.SSIDR:
		if len(s.rx) == 0 {
			return 0
		}
		v := s.rx[0]
		s.rx = s.rx[1:]
		return uint32(v)
	}
	return s.Regs[off]
}

func (s *SSI) Store(off uint32, v uint32) {
	if off != periph.SSIDR {
		s.Regs[off] = v
		return
	}
	w := s.width()
	tx := uint16(v & (1<<w - 1))
	rx := tx
	if s.Peer != nil {
		rx = s.Peer(tx, w) & uint16(1<<w-1)
	}
	s.rx = append(s.rx, rx)
	s.Frames = append(s.Frames, Frame{
		Width: w,
		Mode:  s.Regs[periph.SSICR0] & (periph.SSICR0SPO | periph.SSICR0SPH),
		TX:    tx,
		RX:    rx,
	})
}

// Enabled reports whether SSE is set
func (s *SSI) Enabled() bool {
	return s.Regs[periph.SSICR1]&periph.SSICR1SSE != 0
}

// Pending is the number of unread frames in the receive FIFO
func (s *SSI) Pending() int {
	return len(s.rx)
}

// SentBytes flattens the transmitted frames, high byte first for 16-bit frames
func (s *SSI) SentBytes() []byte {
	var out []byte
	for _, f := range s.Frames {
		if f.Width > 8 {
			out = append(out, byte(f.TX>>8))
		}
		out = append(out, byte(f.TX))
	}
	return out
}
