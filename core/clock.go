package core

import "tivago/periph"

// InitClock moves the system clock from the reset oscillator onto the PLL at
// the board's SysClk. Every bit rate the drivers program assumes it has run.
func InitClock() {
	h := MustHardware()
	s := h.sysctl()
	switch h.Board.Clock {
	case periph.ClockRSCLK:
		s.ClockFreqSetRSCLK(h.Board.SysClk)
	default:
		s.ClockSetRCC2(h.Board.SysClk)
	}
	DebugPrintln("[CLK] " + utoa(h.Board.SysClk/1000000) + " MHz")
}
