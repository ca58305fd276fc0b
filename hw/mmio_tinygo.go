//go:build tinygo

package hw

import (
	"runtime/volatile"
	"unsafe"
)

// MMIO is the memory-mapped register space of the running chip
type MMIO struct{}

func (MMIO) Load(addr uint32) uint32 {
	return (*volatile.Register32)(unsafe.Pointer(uintptr(addr))).Get()
}

func (MMIO) Store(addr uint32, v uint32) {
	(*volatile.Register32)(unsafe.Pointer(uintptr(addr))).Set(v)
}
