// Package hw is the register access layer shared by every peripheral driver.
//
// Drivers never dereference addresses themselves. They go through a Bus so the
// same code runs on silicon (MMIO) and against the register simulator in
// hw/sim.
package hw

// Bus is a 32-bit register address space.
type Bus interface {
	// Load reads the register at addr
	Load(addr uint32) uint32

	// Store writes v to the register at addr
	Store(addr uint32, v uint32)
}

// Set ORs mask into the register at addr
func Set(b Bus, addr, mask uint32) {
	b.Store(addr, b.Load(addr)|mask)
}

// Clear removes mask from the register at addr
func Clear(b Bus, addr, mask uint32) {
	b.Store(addr, b.Load(addr)&^mask)
}

// Modify clears clearMask then sets setMask in a single read-modify-write
func Modify(b Bus, addr, clearMask, setMask uint32) {
	b.Store(addr, (b.Load(addr)&^clearMask)|setMask)
}

// IsSet reports whether every bit of mask is set at addr
func IsSet(b Bus, addr, mask uint32) bool {
	return b.Load(addr)&mask == mask
}

// WaitSet spins until every bit of mask reads back set
func WaitSet(b Bus, addr, mask uint32) {
	for b.Load(addr)&mask != mask {
	}
}

// WaitClear spins until every bit of mask reads back clear
func WaitClear(b Bus, addr, mask uint32) {
	for b.Load(addr)&mask != 0 {
	}
}

// Field extracts the bit field (v & mask) >> shift
func Field(v, mask, shift uint32) uint32 {
	return (v & mask) >> shift
}
