package periph

import "tivago/hw"

// SSI module bases
const (
	SSI0Base = 0x40008000
	SSI1Base = 0x40009000
	SSI2Base = 0x4000A000
	SSI3Base = 0x4000B000
)

// SSI register offsets
const (
	SSICR0  = 0x000
	SSICR1  = 0x004
	SSIDR   = 0x008
	SSISR   = 0x00C
	SSICPSR = 0x010
	SSIIM   = 0x014
	SSICC   = 0xFC8
)

// SSI register bits
const (
	SSICR0SCRMask  = 0xFF00
	SSICR0SCRShift = 8
	SSICR0SPH      = 0x80
	SSICR0SPO      = 0x40
	SSICR0FRFMask  = 0x30
	SSICR0DSSMask  = 0x0F
	SSICR0DSS8     = 0x07
	SSICR0DSS16    = 0x0F

	SSICR1SOD = 0x08
	SSICR1MS  = 0x04
	SSICR1SSE = 0x02

	SSISRBSY = 0x10
	SSISRRFF = 0x08
	SSISRRNE = 0x04
	SSISRTNF = 0x02
	SSISRTFE = 0x01

	SSIClockSystem = 0x0
	SSIClockPIOSC  = 0x5
)

// Frame formats; the low two bits are SPH:SPO shifted into CR0 bits 7:6
const (
	SSIFrfMotoMode0 = 0x00
	SSIFrfMotoMode1 = 0x02
	SSIFrfMotoMode2 = 0x01
	SSIFrfMotoMode3 = 0x03
)

// Operating modes
const (
	SSIModeMaster = iota
	SSIModeSlave
	SSIModeSlaveOD
)

const (
	ssiMaxSCR    = 255
	ssiMaxPreDiv = 254
)

// SSIClockDivisors runs the prescaler search used by the driver library: the
// even predivider grows from 2 until the serial clock rate fits in 8 bits.
// Rates the hardware cannot reach are clamped to the nearest reachable one.
func SSIClockDivisors(sysClk, bitRate uint32) (preDiv, scr uint32) {
	if bitRate == 0 {
		return ssiMaxPreDiv, ssiMaxSCR
	}
	maxBitRate := sysClk / bitRate
	if maxBitRate < 2 {
		maxBitRate = 2
	}
	for {
		preDiv += 2
		scr = maxBitRate/preDiv - 1
		if scr <= ssiMaxSCR {
			return preDiv, scr
		}
		if preDiv >= ssiMaxPreDiv {
			return ssiMaxPreDiv, ssiMaxSCR
		}
	}
}

// SSIBitRate is the rate produced by a predivider and serial clock rate
func SSIBitRate(sysClk, preDiv, scr uint32) uint32 {
	return sysClk / (preDiv * (1 + scr))
}

// SSI is one synchronous serial module
type SSI struct {
	Bus  hw.Bus
	Base uint32
}

// Enable sets SSE
func (s SSI) Enable() {
	hw.Set(s.Bus, s.Base+SSICR1, SSICR1SSE)
}

// Disable clears SSE
func (s SSI) Disable() {
	hw.Clear(s.Bus, s.Base+SSICR1, SSICR1SSE)
}

// ClockSourceSet selects the baud clock source
func (s SSI) ClockSourceSet(src uint32) {
	s.Bus.Store(s.Base+SSICC, src)
}

// ConfigSetExpClk programs mode, frame format, bit rate and data width
func (s SSI) ConfigSetExpClk(sysClk, protocol, mode, bitRate, dataWidth uint32) {
	var cr1 uint32
	switch mode {
	case SSIModeSlaveOD:
		cr1 = SSICR1SOD | SSICR1MS
	case SSIModeSlave:
		cr1 = SSICR1MS
	}
	s.Bus.Store(s.Base+SSICR1, cr1)

	preDiv, scr := SSIClockDivisors(sysClk, bitRate)
	s.Bus.Store(s.Base+SSICPSR, preDiv)

	sphSpo := (protocol & 3) << 6
	frf := protocol & SSICR0FRFMask
	s.Bus.Store(s.Base+SSICR0, scr<<SSICR0SCRShift|sphSpo|frf|(dataWidth-1))
}

// DataPut waits for room in the transmit FIFO then queues v
func (s SSI) DataPut(v uint32) {
	hw.WaitSet(s.Bus, s.Base+SSISR, SSISRTNF)
	s.Bus.Store(s.Base+SSIDR, v)
}

// DataGet waits for a received frame and returns it
func (s SSI) DataGet() uint32 {
	hw.WaitSet(s.Bus, s.Base+SSISR, SSISRRNE)
	return s.Bus.Load(s.Base + SSIDR)
}

// DataGetNonBlocking returns a received frame if one is waiting
func (s SSI) DataGetNonBlocking() (uint32, bool) {
	if s.Bus.Load(s.Base+SSISR)&SSISRRNE == 0 {
		return 0, false
	}
	return s.Bus.Load(s.Base + SSIDR), true
}

// Busy reports whether a frame is still being shifted
func (s SSI) Busy() bool {
	return s.Bus.Load(s.Base+SSISR)&SSISRBSY != 0
}

// SetClockDivisors writes CPSR and the CR0 serial clock rate field
func (s SSI) SetClockDivisors(preDiv, scr uint32) {
	s.Bus.Store(s.Base+SSICPSR, preDiv)
	hw.Modify(s.Bus, s.Base+SSICR0, SSICR0SCRMask, (scr<<SSICR0SCRShift)&SSICR0SCRMask)
}

// SetDataWidth switches the frame size (4..16 bits)
func (s SSI) SetDataWidth(bits uint32) {
	hw.Modify(s.Bus, s.Base+SSICR0, SSICR0DSSMask, (bits-1)&SSICR0DSSMask)
}

// SetPhasePolarity replaces the SPO/SPH bits with mode
func (s SSI) SetPhasePolarity(mode uint32) {
	hw.Modify(s.Bus, s.Base+SSICR0, SSICR0SPO|SSICR0SPH, mode&(SSICR0SPO|SSICR0SPH))
}
