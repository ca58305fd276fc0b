//go:build tinygo

// Package tiva is the main loop shared by the TM4C targets: console bring-up,
// the bridge and the timer poll.
package tiva

import (
	"time"

	"tivago/board"
	"tivago/core"
	"tivago/hw"
)

// Firmware is what a target's main loop serves
type Firmware struct {
	Console  *core.Console
	Bridge   *core.Bridge
	Ethernet *core.Ethernet

	// Resets counts main loop recoveries
	Resets uint32
}

// Start wires the chip's registers in, moves the system clock onto the PLL
// and opens the bridge on the console UART. eth may be nil.
func Start(v *board.Variant, eth *core.Ethernet) *Firmware {
	core.SetHardware(hw.MMIO{}, v)
	core.InitClock()
	con := core.OpenConsole(core.ConsoleBaud)
	core.SetDebugWriter(con.DebugWriter())
	return &Firmware{
		Console:  con,
		Ethernet: eth,
		Bridge:   core.NewBridge(con, eth),
	}
}

// Run polls the console and the timer list forever
func (f *Firmware) Run() {
	for {
		f.step()
		time.Sleep(50 * time.Microsecond)
	}
}

func (f *Firmware) step() {
	defer func() {
		if r := recover(); r != nil {
			f.Resets++
			f.Bridge.Decoder().Reset()
			core.DumpEvents()
		}
	}()
	f.Console.Poll(f.Bridge)
	core.ProcessTimers()
}
