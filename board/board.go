// Package board holds the static per-variant tables the drivers index by
// peripheral instance: base addresses, clock gates, pin-mux selectors and the
// framework's digital pin numbering.
//
// The variant compiled in as Default is chosen by build tag (tm4c123,
// tm4c1294, tm4c129x); a plain build defaults to the TM4C123 LaunchPad.
package board

import (
	"tivago/hw"
	"tivago/periph"
)

// GPIO ports, numbered from 1 as the digital pin tables expect. 0 is "not a
// port".
const (
	NotAPort uint8 = iota
	PA
	PB
	PC
	PD
	PE
	PF
	PG
	PH
	PJ
	PK
	PL
	PM
	PN
	PP
	PQ
)

// Pin is a digital pin resolved to its port and bit mask
type Pin struct {
	Port uint8
	Mask uint8
}

// SSIConfig describes one selectable SSI instance. Pins are CLK, FSS, RX/DAT0
// and TX/DAT1 in that order.
type SSIConfig struct {
	Base   uint32
	Periph periph.Peripheral
	Pins   [4]periph.PinMux
}

// I2CConfig describes one I2C module
type I2CConfig struct {
	Base   uint32
	Periph periph.Peripheral
	SCL    periph.PinMux
	SDA    periph.PinMux
	IRQ    uint8
}

// TimerConfig describes the timer reserved for a driver
type TimerConfig struct {
	Base   uint32
	Periph periph.Peripheral
	IRQ    uint8
}

// UARTConfig describes a UART and its pins
type UARTConfig struct {
	Base   uint32
	Periph periph.Peripheral
	RX     periph.PinMux
	TX     periph.PinMux
}

// Variant is the full table set for one board
type Variant struct {
	Name   string
	Part   string
	SysClk uint32
	Clock  periph.ClockTree

	PortBases []uint32        // indexed by port-1
	Locked    map[uint8]uint8 // port -> commit-protected pins
	Pins      map[uint8]Pin   // digital pin number -> port/bit

	SSI         []SSIConfig
	I2C         []I2CConfig
	DefaultSPI  uint8
	DefaultWire uint8

	ServoTimer TimerConfig
	Console    UARTConfig

	HasEMAC     bool
	LinkLED     periph.PinMux
	ActivityLED periph.PinMux
}

// NumPorts is one past the highest port number
func (v *Variant) NumPorts() uint8 {
	return uint8(len(v.PortBases)) + 1
}

// PortBase returns the register base of a port
func (v *Variant) PortBase(port uint8) (uint32, bool) {
	if port == NotAPort || int(port) > len(v.PortBases) {
		return 0, false
	}
	return v.PortBases[port-1], true
}

// GPIO returns a register handle for port
func (v *Variant) GPIO(bus hw.Bus, port uint8) (periph.GPIO, bool) {
	base, ok := v.PortBase(port)
	return periph.GPIO{Bus: bus, Base: base}, ok
}

// DigitalPinToPort maps a digital pin number to its port, or NotAPort
func (v *Variant) DigitalPinToPort(pin uint8) uint8 {
	return v.Pins[pin].Port
}

// DigitalPinToBitMask maps a digital pin number to its bit mask, or 0
func (v *Variant) DigitalPinToBitMask(pin uint8) uint8 {
	return v.Pins[pin].Mask
}

// IsLocked reports whether a mux target needs its commit register opened
func (v *Variant) IsLocked(m periph.PinMux) bool {
	return v.Locked[m.Port]&m.Mask() != 0
}

// GroupByPort folds a set of pin-mux selectors into one mask per port, in
// first-seen order
func GroupByPort(muxes ...periph.PinMux) (ports []uint8, masks []uint8) {
	for _, m := range muxes {
		found := false
		for i, p := range ports {
			if p == m.Port {
				masks[i] |= m.Mask()
				found = true
				break
			}
		}
		if !found {
			ports = append(ports, m.Port)
			masks = append(masks, m.Mask())
		}
	}
	return ports, masks
}

func pin(port, bit uint8) Pin {
	return Pin{Port: port, Mask: 1 << bit}
}

func mux(port, bit, fn uint8) periph.PinMux {
	return periph.PinMux{Port: port, Pin: bit, Func: fn}
}
