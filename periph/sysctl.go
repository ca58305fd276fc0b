// Package periph holds the TM4C register maps and the small driver-library
// procedures (clock gating, pin muxing, SSI, I2C, GPTM, NVIC, flash, EMAC)
// that the framework drivers in core are built from.
//
// Offsets and bit masks come from the TM4C123GH6PM and TM4C1294NCPDT
// datasheets. Every type is a thin handle around an hw.Bus and a base address.
package periph

import "tivago/hw"

// System control block
const (
	SysCtlBase = 0x400FE000

	sysctlRCGCTimer = 0x604
	sysctlRCGCGPIO  = 0x608
	sysctlRCGCSSI   = 0x61C
	sysctlRCGCI2C   = 0x620
	sysctlRCGCEPHY  = 0x630
	sysctlRCGCEMAC  = 0x69C

	// Each PRxxx ready register sits 0x400 above its RCGCxxx gate
	sysctlPROffset = 0x400
)

// Peripheral names a run-mode clock gate bit
type Peripheral struct {
	Reg uint16 // RCGC register offset from SysCtlBase
	Bit uint8  // instance bit within the register
}

// Clock gates used by the drivers
var (
	PeriphSSI0 = Peripheral{sysctlRCGCSSI, 0}
	PeriphSSI1 = Peripheral{sysctlRCGCSSI, 1}
	PeriphSSI2 = Peripheral{sysctlRCGCSSI, 2}
	PeriphSSI3 = Peripheral{sysctlRCGCSSI, 3}

	PeriphTimer0 = Peripheral{sysctlRCGCTimer, 0}
	PeriphTimer1 = Peripheral{sysctlRCGCTimer, 1}
	PeriphTimer2 = Peripheral{sysctlRCGCTimer, 2}
	PeriphTimer3 = Peripheral{sysctlRCGCTimer, 3}

	PeriphEMAC0 = Peripheral{sysctlRCGCEMAC, 0}
	PeriphEPHY0 = Peripheral{sysctlRCGCEPHY, 0}
)

// PeriphI2C returns the clock gate of I2C module n
func PeriphI2C(n uint8) Peripheral {
	return Peripheral{sysctlRCGCI2C, n}
}

// PeriphGPIO returns the clock gate of a GPIO port. Ports are numbered from 1
// (port A) so they line up with the framework's digital pin tables.
func PeriphGPIO(port uint8) Peripheral {
	return Peripheral{sysctlRCGCGPIO, port - 1}
}

// RCGCAddr is the absolute address of the clock gate register
func (p Peripheral) RCGCAddr() uint32 {
	return SysCtlBase + uint32(p.Reg)
}

// PRAddr is the absolute address of the matching ready register
func (p Peripheral) PRAddr() uint32 {
	return SysCtlBase + uint32(p.Reg) + sysctlPROffset
}

// Mask is the instance bit mask
func (p Peripheral) Mask() uint32 {
	return 1 << p.Bit
}

// SysCtl drives peripheral clock gating
type SysCtl struct {
	Bus hw.Bus
}

// EnablePeripheral gates the clock on and waits for the ready bit. Nothing may
// touch the peripheral's registers before this returns.
func (s SysCtl) EnablePeripheral(p Peripheral) {
	hw.Set(s.Bus, p.RCGCAddr(), p.Mask())
	hw.WaitSet(s.Bus, p.PRAddr(), p.Mask())
}

// DisablePeripheral gates the clock off
func (s SysCtl) DisablePeripheral(p Peripheral) {
	hw.Clear(s.Bus, p.RCGCAddr(), p.Mask())
}

// PeripheralReady reports whether the peripheral may be accessed
func (s SysCtl) PeripheralReady(p Peripheral) bool {
	return hw.IsSet(s.Bus, p.PRAddr(), p.Mask())
}

// Clock tree registers
const (
	SysCtlRIS      = 0x050
	SysCtlRCC      = 0x060
	SysCtlRCC2     = 0x070
	SysCtlMOSCCTL  = 0x07C
	SysCtlRSCLKCFG = 0x0B0
	SysCtlMEMTIM0  = 0x0C0
	SysCtlPLLFREQ0 = 0x160
	SysCtlPLLFREQ1 = 0x164
	SysCtlPLLSTAT  = 0x168
)

// Clock tree bits
const (
	RISPLLL    = 0x00000040 // TM4C123 PLL lock
	RISMOSCPUP = 0x00000100 // TM4C129 main oscillator powered up

	RCCMOSCDIS   = 0x00000001
	RCCOSCSRCM   = 0x00000030
	RCCXTALM     = 0x000007C0
	RCCXTAL16MHz = 0x00000540
	RCCBypass    = 0x00000800
	RCCUseSysDiv = 0x00400000

	RCC2OSCSRC2M  = 0x00000070
	RCC2Bypass2   = 0x00000800
	RCC2PwrDn2    = 0x00002000
	RCC2SysDivM   = 0x1FC00000 // SYSDIV2 and SYSDIV2LSB
	RCC2SysDivPos = 22
	RCC2Div400    = 0x40000000
	RCC2UseRCC2   = 0x80000000

	MOSCCTLNoXtal = 0x00000004
	MOSCCTLPwrDn  = 0x00000008
	MOSCCTLOscRng = 0x00000010

	RSCLKPSysDivM  = 0x000003FF
	RSCLKOscSrcM   = 0x00F00000
	RSCLKOscMOSC   = 0x00300000
	RSCLKPLLSrcM   = 0x0F000000
	RSCLKPLLMOSC   = 0x03000000
	RSCLKUsePLL    = 0x10000000
	RSCLKNewFreq   = 0x40000000
	RSCLKMemTimU   = 0x80000000
	PLLFREQ0MIntM  = 0x000003FF
	PLLFREQ0PLLPwr = 0x00800000
	PLLFREQ1NM     = 0x0000001F
	PLLSTATLock    = 0x00000001
)

// Oscillator and PLL rates the board crystals give
const (
	pll400     = 400000000 // TM4C123 PLL with DIV400
	vco480     = 480000000 // TM4C129 VCO from a 25 MHz crystal, N=5 M=96
	pllN129    = 4         // PLLFREQ1.N is N-1
	pllMInt129 = 96
)

// ClockTree selects the clock bring-up procedure of a part
type ClockTree uint8

const (
	ClockRCC2  ClockTree = iota // TM4C123: RCC/RCC2 and a 400 MHz PLL
	ClockRSCLK                  // TM4C129: RSCLKCFG and a 480 MHz VCO
)

// ClockSetRCC2 runs a TM4C123 from its 16 MHz crystal through the PLL at
// sysClk, which must divide 400 MHz
func (s SysCtl) ClockSetRCC2(sysClk uint32) {
	b := s.Bus
	rcc := uint32(SysCtlBase + SysCtlRCC)
	rcc2 := uint32(SysCtlBase + SysCtlRCC2)

	hw.Set(b, rcc2, RCC2UseRCC2|RCC2Bypass2)
	hw.Modify(b, rcc, RCCUseSysDiv, RCCBypass)

	hw.Modify(b, rcc, RCCXTALM|RCCOSCSRCM|RCCMOSCDIS, RCCXTAL16MHz)
	hw.Clear(b, rcc2, RCC2OSCSRC2M|RCC2PwrDn2)

	div := pll400/sysClk - 1
	hw.Modify(b, rcc2, RCC2SysDivM, RCC2Div400|div<<RCC2SysDivPos)
	hw.Set(b, rcc, RCCUseSysDiv)

	hw.WaitSet(b, SysCtlBase+SysCtlRIS, RISPLLL)
	hw.Clear(b, rcc2, RCC2Bypass2)
}

// MemTiming returns the MEMTIM0 wait states for a system clock. Flash and
// EEPROM share the same timing.
func MemTiming(sysClk uint32) uint32 {
	var ws, bcht uint32
	switch {
	case sysClk <= 16000000:
		ws, bcht = 0, 0
	case sysClk <= 40000000:
		ws, bcht = 1, 2
	case sysClk <= 60000000:
		ws, bcht = 2, 3
	case sysClk <= 80000000:
		ws, bcht = 3, 4
	case sysClk <= 100000000:
		ws, bcht = 4, 5
	default:
		ws, bcht = 5, 6
	}
	half := ws | bcht<<6
	return half | half<<16
}

// ClockFreqSetRSCLK runs a TM4C129 from its 25 MHz crystal through the PLL at
// sysClk, which must divide 480 MHz
func (s SysCtl) ClockFreqSetRSCLK(sysClk uint32) {
	b := s.Bus

	hw.Modify(b, SysCtlBase+SysCtlMOSCCTL, MOSCCTLNoXtal|MOSCCTLPwrDn, MOSCCTLOscRng)
	hw.WaitSet(b, SysCtlBase+SysCtlRIS, RISMOSCPUP)

	cfg := uint32(SysCtlBase + SysCtlRSCLKCFG)
	hw.Modify(b, cfg, RSCLKOscSrcM|RSCLKPLLSrcM, RSCLKOscMOSC|RSCLKPLLMOSC)

	b.Store(SysCtlBase+SysCtlPLLFREQ1, pllN129)
	b.Store(SysCtlBase+SysCtlPLLFREQ0, pllMInt129|PLLFREQ0PLLPwr)
	hw.Set(b, cfg, RSCLKNewFreq)
	hw.WaitSet(b, SysCtlBase+SysCtlPLLSTAT, PLLSTATLock)

	b.Store(SysCtlBase+SysCtlMEMTIM0, MemTiming(sysClk))
	psysdiv := vco480/sysClk - 1
	b.Store(cfg, RSCLKMemTimU|RSCLKUsePLL|RSCLKOscMOSC|RSCLKPLLMOSC|psysdiv)
}
