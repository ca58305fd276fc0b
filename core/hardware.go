package core

import (
	"errors"

	"tivago/board"
	"tivago/hw"
	"tivago/periph"
)

var (
	ErrNoModule   = errors.New("no such peripheral module")
	ErrNoHardware = errors.New("board has no such peripheral")
	ErrTxLength   = errors.New("write and read buffers differ in length")
)

// Hardware is what the drivers run on: a register bus and the board tables
type Hardware struct {
	Bus   hw.Bus
	Board *board.Variant
}

// Global singleton used by the drivers
var hardware *Hardware

// SetHardware is called by target code (or a test) before any driver is used
func SetHardware(bus hw.Bus, v *board.Variant) {
	hardware = &Hardware{Bus: bus, Board: v}
}

// MustHardware returns the configured hardware or panics if missing
func MustHardware() *Hardware {
	if hardware == nil {
		panic("hardware not configured")
	}
	return hardware
}

func (h *Hardware) sysctl() periph.SysCtl {
	return periph.SysCtl{Bus: h.Bus}
}

func (h *Hardware) nvic() periph.NVIC {
	return periph.NVIC{Bus: h.Bus}
}

func (h *Hardware) gpio(port uint8) periph.GPIO {
	g, _ := h.Board.GPIO(h.Bus, port)
	return g
}

// configurePins clocks the ports, opens the commit register for locked
// pins and routes each pin's alternate function
func (h *Hardware) configurePins(muxes ...periph.PinMux) {
	for _, m := range muxes {
		h.sysctl().EnablePeripheral(periph.PeriphGPIO(m.Port))
		g := h.gpio(m.Port)
		if h.Board.IsLocked(m) {
			g.Unlock(m.Mask())
		}
		g.PinConfigure(m.Pin, m.Func)
	}
}

// padsByPort applies a pad configuration per port, so split-port peripherals
// get each of their ports configured
func (h *Hardware) padsByPort(pinType func(g periph.GPIO, pins uint8), muxes ...periph.PinMux) {
	ports, masks := board.GroupByPort(muxes...)
	for i, port := range ports {
		pinType(h.gpio(port), masks[i])
	}
}
