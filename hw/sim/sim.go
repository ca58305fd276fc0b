// Package sim is a register-level simulator for the drivers. A Sim is an
// hw.Bus made of a sparse register file plus peripheral models mapped over
// address windows; the models react to register traffic the way the silicon
// does closely enough to run the framework drivers off-target.
package sim

import (
	"sort"
	"sync"
)

// Device is a peripheral model mapped into a Sim. Offsets are relative to the
// window base.
type Device interface {
	Load(off uint32) uint32
	Store(off uint32, v uint32)
}

// Access is one traced bus cycle
type Access struct {
	Write bool
	Addr  uint32
	Value uint32
}

type window struct {
	base, size uint32
	dev        Device
}

// Sim is a simulated address space
type Sim struct {
	mu      sync.Mutex
	regs    map[uint32]uint32
	windows []window
	tracing bool
	trace   []Access
}

// New returns an empty address space
func New() *Sim {
	return &Sim{regs: make(map[uint32]uint32)}
}

// Attach maps dev over [base, base+size)
func (s *Sim) Attach(base, size uint32, dev Device) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows = append(s.windows, window{base: base, size: size, dev: dev})
	sort.Slice(s.windows, func(i, j int) bool { return s.windows[i].base < s.windows[j].base })
}

func (s *Sim) lookup(addr uint32) (Device, uint32) {
	for _, w := range s.windows {
		if addr >= w.base && addr-w.base < w.size {
			return w.dev, addr - w.base
		}
	}
	return nil, 0
}

// Load implements hw.Bus
func (s *Sim) Load(addr uint32) uint32 {
	s.mu.Lock()
	dev, off := s.lookup(addr)
	var v uint32
	if dev == nil {
		v = s.regs[addr]
	}
	s.mu.Unlock()

	if dev != nil {
		v = dev.Load(off)
	}
	s.record(Access{Addr: addr, Value: v})
	return v
}

// Store implements hw.Bus
func (s *Sim) Store(addr uint32, v uint32) {
	s.record(Access{Write: true, Addr: addr, Value: v})

	s.mu.Lock()
	dev, off := s.lookup(addr)
	if dev == nil {
		s.regs[addr] = v
	}
	s.mu.Unlock()

	if dev != nil {
		dev.Store(off, v)
	}
}

// Poke sets an unmapped register without tracing
func (s *Sim) Poke(addr, v uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regs[addr] = v
}

// Peek reads an unmapped register without tracing
func (s *Sim) Peek(addr uint32) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regs[addr]
}

func (s *Sim) record(a Access) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tracing {
		s.trace = append(s.trace, a)
	}
}

// StartTrace clears and enables the access trace
func (s *Sim) StartTrace() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trace = s.trace[:0]
	s.tracing = true
}

// StopTrace disables tracing and returns what was captured
func (s *Sim) StopTrace() []Access {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracing = false
	out := make([]Access, len(s.trace))
	copy(out, s.trace)
	return out
}

// Writes filters a trace down to stores inside [lo, hi)
func Writes(trace []Access, lo, hi uint32) []Access {
	var out []Access
	for _, a := range trace {
		if a.Write && a.Addr >= lo && a.Addr < hi {
			out = append(out, a)
		}
	}
	return out
}

// Regs is a plain register file for models to embed
type Regs map[uint32]uint32

func (r Regs) Load(off uint32) uint32     { return r[off] }
func (r Regs) Store(off uint32, v uint32) { r[off] = v }
