//go:build !tinygo

package core

// Off-target the arena is a fixed SRAM window of the simulated chip
const simDMAArena = 0x20020000

func dmaArenaBase() uint32 {
	return simDMAArena
}
