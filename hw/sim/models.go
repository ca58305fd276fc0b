package sim

import (
	"tivago/hw"
	"tivago/periph"
)

// Models are driven from a single goroutine: a test, or the interrupt
// handler the test invokes.

// SysCtl mirrors every clock gate write into the matching ready register, so
// peripherals come up on the next poll. The flash user registers live in the
// same window and start erased.
type SysCtl struct {
	Regs Regs
}

const (
	sysctlGateLo = 0x600
	sysctlGateHi = 0x700
	sysctlPR     = 0x400
)

func newSysCtl() *SysCtl {
	s := &SysCtl{Regs: Regs{
		periph.SysCtlRCC:     0x078E3AD1, // reset values
		periph.SysCtlRCC2:    0x07C06810,
		periph.SysCtlMOSCCTL: periph.MOSCCTLPwrDn | periph.MOSCCTLNoXtal,
	}}
	s.SetUserRegs(periph.FlashUserErased, periph.FlashUserErased)
	return s
}

func (s *SysCtl) Load(off uint32) uint32 { return s.Regs[off] }

// The PLL locks and the main oscillator powers up as soon as they are
// switched on.
func (s *SysCtl) Store(off uint32, v uint32) {
	s.Regs[off] = v
	switch {
	case off >= sysctlGateLo && off < sysctlGateHi:
		s.Regs[off+sysctlPR] = v
	case off == periph.SysCtlRCC2 && v&periph.RCC2PwrDn2 == 0:
		s.Regs[periph.SysCtlRIS] |= periph.RISPLLL
	case off == periph.SysCtlMOSCCTL && v&periph.MOSCCTLPwrDn == 0:
		s.Regs[periph.SysCtlRIS] |= periph.RISMOSCPUP
	case off == periph.SysCtlPLLFREQ0:
		s.Regs[periph.SysCtlPLLSTAT] = 0
		if v&periph.PLLFREQ0PLLPwr != 0 {
			s.Regs[periph.SysCtlPLLSTAT] = periph.PLLSTATLock
		}
	}
}

// SetUserRegs programs USER_REG0 and USER_REG1
func (s *SysCtl) SetUserRegs(u0, u1 uint32) {
	s.Regs[periph.FlashUserReg0-periph.SysCtlBase] = u0
	s.Regs[periph.FlashUserReg1-periph.SysCtlBase] = u1
}

// Enabled reports whether a clock gate is on
func (s *SysCtl) Enabled(p periph.Peripheral) bool {
	return s.Regs[uint32(p.Reg)]&p.Mask() != 0
}

// GPIOPort models the address-masked data register. Pins configured as
// outputs read back what was written; inputs read the level set with Drive.
type GPIOPort struct {
	Regs   Regs
	out    uint8
	inputs uint8
}

func newGPIOPort() *GPIOPort {
	return &GPIOPort{Regs: Regs{}}
}

func (g *GPIOPort) Load(off uint32) uint32 {
	if off < periph.GPIODir {
		mask := uint8(off >> 2)
		dir := uint8(g.Regs[periph.GPIODir])
		return uint32((g.out&dir | g.inputs&^dir) & mask)
	}
	if off == periph.GPIOMIS {
		return g.Regs[periph.GPIORIS] & g.Regs[periph.GPIOIM]
	}
	return g.Regs[off]
}

func (g *GPIOPort) Store(off uint32, v uint32) {
	switch {
	case off < periph.GPIODir:
		mask := uint8(off >> 2)
		g.out = g.out&^mask | uint8(v)&mask
	case off == periph.GPIOICR:
		g.Regs[periph.GPIORIS] &^= v
	case off == periph.GPIOCR && g.Regs[periph.GPIOLock] != periph.GPIOLockKey:
		// commit register is read-only while locked
	default:
		g.Regs[off] = v
	}
}

// Out is the output latch
func (g *GPIOPort) Out() uint8 { return g.out }

// Drive sets the external level seen on pins
func (g *GPIOPort) Drive(pins, level uint8) {
	g.inputs = g.inputs&^pins | level&pins
}

// NVIC models the set/clear-enable pairs and the priority bytes
type NVIC struct {
	enabled [8]uint32
	prio    Regs
}

const (
	nvicWindow = 0x400
	nvicEn     = 0x000
	nvicDis    = 0x080
	nvicPri    = 0x300
)

func newNVIC() *NVIC {
	return &NVIC{prio: Regs{}}
}

func (n *NVIC) Load(off uint32) uint32 {
	switch {
	case off >= nvicPri:
		return n.prio[off]
	case off >= nvicDis && off < nvicDis+32:
		return n.enabled[(off-nvicDis)/4]
	case off < 32:
		return n.enabled[off/4]
	}
	return 0
}

func (n *NVIC) Store(off uint32, v uint32) {
	switch {
	case off >= nvicPri:
		n.prio[off] = v
	case off >= nvicDis && off < nvicDis+32:
		n.enabled[(off-nvicDis)/4] &^= v
	case off < 32:
		n.enabled[off/4] |= v
	}
}

// Enabled reports whether irq is unmasked
func (n *NVIC) Enabled(irq uint8) bool {
	return n.enabled[irq/32]&(1<<(irq%32)) != 0
}

// Timer models GPTM timer A: interrupt status plus a log of reload values
type Timer struct {
	Regs  Regs
	Loads []uint32
}

func newTimer() *Timer {
	return &Timer{Regs: Regs{}}
}

func (t *Timer) Load(off uint32) uint32 {
	if off == periph.TimerMIS {
		return t.Regs[periph.TimerRIS] & t.Regs[periph.TimerIMR]
	}
	return t.Regs[off]
}

func (t *Timer) Store(off uint32, v uint32) {
	switch off {
	case periph.TimerICR:
		t.Regs[periph.TimerRIS] &^= v
	case periph.TimerTAILR:
		t.Loads = append(t.Loads, v)
		t.Regs[off] = v
	default:
		t.Regs[off] = v
	}
}

// Timeout raises the time-out flag and returns the period that just elapsed
func (t *Timer) Timeout() uint32 {
	t.Regs[periph.TimerRIS] |= periph.TimerTATimeout
	return t.Regs[periph.TimerTAILR]
}

// Running reports whether TAEN is set
func (t *Timer) Running() bool {
	return t.Regs[periph.TimerCTL]&periph.TimerCTLTAEN != 0
}

// UART captures transmitted bytes and feeds queued receive bytes
type UART struct {
	Regs Regs
	TX   []byte
	rx   []byte
}

func newUART() *UART {
	return &UART{Regs: Regs{}}
}

func (u *UART) Load(off uint32) uint32 {
	switch off {
	case periph.UARTFR:
		if len(u.rx) == 0 {
			return periph.UARTFRRXFE
		}
		return 0
	case periph.UARTDR:
		if len(u.rx) == 0 {
			return 0
		}
		b := u.rx[0]
		u.rx = u.rx[1:]
		return uint32(b)
	}
	return u.Regs[off]
}

func (u *UART) Store(off uint32, v uint32) {
	if off == periph.UARTDR {
		u.TX = append(u.TX, byte(v))
		return
	}
	u.Regs[off] = v
}

// Inject queues bytes on the receive line
func (u *UART) Inject(p []byte) {
	u.rx = append(u.rx, p...)
}

// EMAC models the MAC address filter, the DMA reset, the MII management
// port in front of the internal PHY and the descriptor-chained DMA. The DMA
// reaches descriptors and buffers through mem, the chip's own address space.
type EMAC struct {
	Regs Regs
	PHY  map[uint8]uint16

	// Sent holds every transmitted frame
	Sent [][]byte
	// OnTransmit, when set, sees each frame as it leaves
	OnTransmit func(frame []byte)

	mem   hw.Bus
	txCur uint32
	rxCur uint32
}

func newEMAC(mem hw.Bus) *EMAC {
	return &EMAC{Regs: Regs{}, PHY: map[uint8]uint16{}, mem: mem}
}

func (e *EMAC) Load(off uint32) uint32 { return e.Regs[off] }

func (e *EMAC) Store(off uint32, v uint32) {
	switch off {
	case periph.EMACDMABusMod:
		if v&periph.EMACDMABusModSWR != 0 {
			for _, r := range []uint32{periph.EMACTxDLAddr, periph.EMACRxDLAddr, periph.EMACDMAOpMode} {
				delete(e.Regs, r)
			}
			e.txCur, e.rxCur = 0, 0
		}
		e.Regs[off] = v &^ periph.EMACDMABusModSWR
	case periph.EMACMIIAddr:
		if v&periph.EMACMIIAddrMIIB != 0 {
			reg := uint8(v>>periph.EMACMIIAddrMIIShift) & 0x1F
			if v&periph.EMACMIIAddrMIIW != 0 {
				e.PHY[reg] = uint16(e.Regs[periph.EMACMIIData])
			} else {
				e.Regs[periph.EMACMIIData] = uint32(e.PHY[reg])
			}
		}
		e.Regs[off] = v &^ periph.EMACMIIAddrMIIB
	case periph.EMACTxDLAddr:
		e.Regs[off] = v
		e.txCur = v
	case periph.EMACRxDLAddr:
		e.Regs[off] = v
		e.rxCur = v
	case periph.EMACTxPollD:
		e.transmit()
	case periph.EMACRxPollD:
	default:
		e.Regs[off] = v
	}
}

func (e *EMAC) running(bit uint32) bool {
	return e.Regs[periph.EMACDMAOpMode]&bit != 0
}

// transmit sends every frame the driver has handed over, in list order
func (e *EMAC) transmit() {
	if !e.running(periph.EMACDMAOpModeST) {
		return
	}
	for e.txCur != 0 {
		d := e.txCur
		des0 := e.mem.Load(d + periph.EMACDes0)
		if des0&periph.EMACDescOwn == 0 {
			return
		}
		n := int(e.mem.Load(d+periph.EMACDes1) & periph.EMACDesBufMask)
		frame := periph.ReadMem(e.mem, e.mem.Load(d+periph.EMACDes2), n)
		e.mem.Store(d+periph.EMACDes0, des0&^periph.EMACDescOwn)
		e.txCur = e.mem.Load(d + periph.EMACDes3)

		e.Sent = append(e.Sent, frame)
		if e.OnTransmit != nil {
			e.OnTransmit(frame)
		}
	}
}

// Inject delivers a received frame into the next receive descriptor. It
// reports false, dropping the frame, when the receiver is stopped or the
// driver owns the descriptor.
func (e *EMAC) Inject(frame []byte) bool {
	if !e.running(periph.EMACDMAOpModeSR) || e.rxCur == 0 {
		return false
	}
	d := e.rxCur
	if e.mem.Load(d+periph.EMACDes0)&periph.EMACDescOwn == 0 {
		return false
	}
	size := int(e.mem.Load(d+periph.EMACDes1) & periph.EMACDesBufMask)
	withFCS := append(append([]byte{}, frame...), 0, 0, 0, 0)
	if len(withFCS) > size {
		return false
	}
	periph.WriteMem(e.mem, e.mem.Load(d+periph.EMACDes2), withFCS)
	e.mem.Store(d+periph.EMACDes0,
		uint32(len(withFCS))<<periph.EMACRDes0FLShift|periph.EMACRDes0FS|periph.EMACRDes0LS)
	e.rxCur = e.mem.Load(d + periph.EMACDes3)
	return true
}

// SetLink raises or drops the PHY link status bit
func (e *EMAC) SetLink(up bool) {
	if up {
		e.PHY[periph.PHYBMSR] |= periph.PHYBMSRLinkStat
	} else {
		e.PHY[periph.PHYBMSR] &^= periph.PHYBMSRLinkStat
	}
}
