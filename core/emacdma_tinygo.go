//go:build tinygo

package core

import "unsafe"

// Descriptor rings and buffers must sit in SRAM the DMA can reach
var dmaArena [emacArenaLen / 4]uint32

func dmaArenaBase() uint32 {
	return uint32(uintptr(unsafe.Pointer(&dmaArena[0])))
}
