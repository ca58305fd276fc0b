// SPI master on the SSI modules, with the framework's transaction and
// interrupt-masking semantics
package core

import (
	"math/bits"

	"tinygo.org/x/drivers"

	"tivago/board"
	"tivago/periph"
)

// BitOrder selects which end of each byte is shifted first
type BitOrder uint8

const (
	LSBFirst BitOrder = 0
	MSBFirst BitOrder = 1
)

// DataMode is the CR0 SPH|SPO pattern of an SPI mode
type DataMode uint32

const (
	Mode0 DataMode = 0x00
	Mode1 DataMode = 0x80 // SPH
	Mode2 DataMode = 0x40 // SPO
	Mode3 DataMode = 0xC0 // SPO|SPH
)

// Clock dividers for SetClockDivider, relative to a 16 MHz reference
const (
	ClockDiv2   = 2
	ClockDiv4   = 4
	ClockDiv8   = 8
	ClockDiv16  = 16
	ClockDiv32  = 32
	ClockDiv64  = 64
	ClockDiv128 = 128

	spiDividerRef = 16000000
	spiBeginRate  = 4000000
)

// NoModule asks Begin to use the board's default module
const NoModule = 0xFF

// Interrupt masking modes
const (
	spiIntNone   = 0
	spiIntPerPin = 1
	spiIntGlobal = 2
)

const (
	maxPorts      = 16
	maxSSIModules = 8
)

// SPISettings is applied by BeginTransaction
type SPISettings struct {
	Clock    uint32 // Hz
	BitOrder BitOrder
	DataMode DataMode
}

// DefaultSettings is 4 MHz, MSB first, mode 0
func DefaultSettings() SPISettings {
	return SPISettings{Clock: spiBeginRate, BitOrder: MSBFirst, DataMode: Mode0}
}

// State shared by every SPI instance: the per-module reference counts and
// the set of pin interrupts that transactions must mask
var spiShared struct {
	refs          [maxSSIModules]uint8
	interruptMode uint8
	interruptMask [maxPorts]uint8
	interruptSave [maxPorts]uint8
	txnMode       uint8
	globalSave    interruptState
}

// SPI is one SSI module used as an SPI master
type SPI struct {
	module   uint8
	bitOrder BitOrder
	held     uint8 // references this instance holds on module
}

// NewSPI returns the SPI on module, or on the board default when module is
// NoModule
func NewSPI(module uint8) *SPI {
	return &SPI{module: module, bitOrder: MSBFirst}
}

// Module returns the selected SSI table index
func (s *SPI) Module() uint8 {
	return s.module
}

func (s *SPI) config() (board.SSIConfig, error) {
	h := MustHardware()
	if int(s.module) >= len(h.Board.SSI) || s.module >= maxSSIModules {
		return board.SSIConfig{}, ErrNoModule
	}
	return h.Board.SSI[s.module], nil
}

// ssi returns the module's registers, or false when the module is invalid
// or nobody has brought it up
func (s *SPI) ssi() (periph.SSI, bool) {
	cfg, err := s.config()
	if err != nil || spiShared.refs[s.module] == 0 {
		return periph.SSI{}, false
	}
	return periph.SSI{Bus: MustHardware().Bus, Base: cfg.Base}, true
}

// Begin brings the module up the first time any SPI user calls it on that
// module: clock gate, pin mux, mode 0 master at 4 MHz with 8-bit frames, RX
// FIFO drained. Later calls only take a reference.
func (s *SPI) Begin() error {
	h := MustHardware()
	if s.module == NoModule {
		s.module = h.Board.DefaultSPI
	}
	cfg, err := s.config()
	if err != nil {
		return err
	}
	if spiShared.refs[s.module] == 0 {
		h.sysctl().EnablePeripheral(cfg.Periph)
		ssi := periph.SSI{Bus: h.Bus, Base: cfg.Base}
		ssi.Disable()

		h.configurePins(cfg.Pins[:]...)
		h.padsByPort(periph.GPIO.PinTypeSSI, cfg.Pins[:]...)

		ssi.ClockSourceSet(periph.SSIClockSystem)
		ssi.ConfigSetExpClk(h.Board.SysClk, periph.SSIFrfMotoMode0, periph.SSIModeMaster, spiBeginRate, 8)
		ssi.Enable()

		for {
			if _, ok := ssi.DataGetNonBlocking(); !ok {
				break
			}
		}
		RecordEvent(EvtSPIBegin, s.module, spiBeginRate, 0)
	}
	spiShared.refs[s.module]++
	s.held++
	return nil
}

// End drops one of this instance's references. The last reference on a
// module disables it; once no module is in use the registered interrupts
// are forgotten.
func (s *SPI) End() {
	if s.held == 0 {
		return
	}
	s.held--
	ssi, _ := s.ssi()
	spiShared.refs[s.module]--
	if spiShared.refs[s.module] == 0 {
		ssi.Disable()
		RecordEvent(EvtSPIEnd, s.module, 0, 0)
	}
	if spiInUse() {
		return
	}
	spiShared.interruptMode = spiIntNone
}

func spiInUse() bool {
	for _, n := range spiShared.refs {
		if n != 0 {
			return true
		}
	}
	return false
}

// SetModule switches to another SSI module and brings it up. References
// held on the previous module are released first. An invalid module leaves
// the instance unattached.
func (s *SPI) SetModule(module uint8) error {
	if module != s.module {
		for s.held > 0 {
			s.End()
		}
	}
	s.module = module
	return s.Begin()
}

// UsingInterrupt registers a pin whose interrupt must not fire during a
// transaction. A pin without a port falls back to masking everything.
func (s *SPI) UsingInterrupt(pin uint8) {
	h := MustHardware()
	state := disableInterrupts()
	port := h.Board.DigitalPinToPort(pin)
	bit := h.Board.DigitalPinToBitMask(pin)
	if port == board.NotAPort || bit == 0 || port >= maxPorts {
		spiShared.interruptMode = spiIntGlobal
	} else {
		if spiShared.interruptMode == spiIntNone {
			spiShared.interruptMode = spiIntPerPin
		}
		spiShared.interruptMask[port] |= bit
	}
	restoreInterrupts(state)
}

// NotUsingInterrupt removes a pin registered with UsingInterrupt. Global
// masking, once selected, stays until End.
func (s *SPI) NotUsingInterrupt(pin uint8) {
	if spiShared.interruptMode == spiIntGlobal {
		return
	}
	h := MustHardware()
	state := disableInterrupts()
	port := h.Board.DigitalPinToPort(pin)
	if port < maxPorts {
		spiShared.interruptMask[port] &^= h.Board.DigitalPinToBitMask(pin)
	}
	masked := false
	for _, m := range spiShared.interruptMask {
		if m != 0 {
			masked = true
			break
		}
	}
	if !masked {
		spiShared.interruptMode = spiIntNone
	}
	restoreInterrupts(state)
}

// BeginTransaction masks the registered interrupts then applies settings
func (s *SPI) BeginTransaction(settings SPISettings) {
	h := MustHardware()
	spiShared.txnMode = spiShared.interruptMode
	switch spiShared.txnMode {
	case spiIntPerPin:
		for port := uint8(1); port < h.Board.NumPorts() && port < maxPorts; port++ {
			if spiShared.interruptMask[port] == 0 {
				continue
			}
			g := h.gpio(port)
			spiShared.interruptSave[port] = g.IntMask()
			g.IntDisable(spiShared.interruptMask[port])
		}
	case spiIntGlobal:
		spiShared.globalSave = disableInterrupts()
	}
	s.SetBitOrder(settings.BitOrder)
	s.SetDataMode(settings.DataMode)
	s.SetClock(settings.Clock)
}

// EndTransaction restores what BeginTransaction masked
func (s *SPI) EndTransaction() {
	h := MustHardware()
	switch spiShared.txnMode {
	case spiIntPerPin:
		state := disableInterrupts()
		for port := uint8(1); port < h.Board.NumPorts() && port < maxPorts; port++ {
			if spiShared.interruptSave[port] != 0 {
				h.gpio(port).IntEnable(spiShared.interruptSave[port])
				spiShared.interruptSave[port] = 0
			}
		}
		restoreInterrupts(state)
	case spiIntGlobal:
		restoreInterrupts(spiShared.globalSave)
	}
	spiShared.txnMode = spiIntNone
}

// SetBitOrder selects MSB- or LSB-first shifting
func (s *SPI) SetBitOrder(order BitOrder) {
	s.bitOrder = order
}

// SetDataMode replaces the clock polarity and phase
func (s *SPI) SetDataMode(mode DataMode) {
	if ssi, ok := s.ssi(); ok {
		ssi.SetPhasePolarity(uint32(mode))
	}
}

// SetClockDivider sets the bit rate to 16 MHz / div. A zero divider is
// treated as 1.
func (s *SPI) SetClockDivider(div uint8) {
	if div == 0 {
		div = 1
	}
	s.SetClock(spiDividerRef / uint32(div))
}

// SetClock programs the slowest bit rate at or above hz that the divisors
// can reach
func (s *SPI) SetClock(hz uint32) {
	ssi, ok := s.ssi()
	if !ok {
		return
	}
	preDiv, scr := periph.SSIClockDivisors(MustHardware().Board.SysClk, hz)
	ssi.SetClockDivisors(preDiv, scr)
}

func (s *SPI) exchange(ssi periph.SSI, v uint32) uint32 {
	ssi.DataPut(v)
	for ssi.Busy() {
	}
	return ssi.DataGet()
}

// Transfer shifts one byte out and returns the byte shifted in. A module
// that is not up returns 0.
func (s *SPI) Transfer(b byte) byte {
	ssi, ok := s.ssi()
	if !ok {
		return 0
	}
	if s.bitOrder == LSBFirst {
		b = bits.Reverse8(b)
	}
	r := byte(s.exchange(ssi, uint32(b)))
	if s.bitOrder == LSBFirst {
		r = bits.Reverse8(r)
	}
	return r
}

// Transfer16 shifts one 16-bit frame. LSB first sends bit 0 of w first.
func (s *SPI) Transfer16(w uint16) uint16 {
	ssi, ok := s.ssi()
	if !ok {
		return 0
	}
	ssi.SetDataWidth(16)
	if s.bitOrder == LSBFirst {
		w = bits.Reverse16(w)
	}
	r := uint16(s.exchange(ssi, uint32(w)))
	if s.bitOrder == LSBFirst {
		r = bits.Reverse16(r)
	}
	ssi.SetDataWidth(8)
	return r
}

// reverseBytes16 bit-reverses each byte of w in place
func reverseBytes16(w uint16) uint16 {
	return uint16(bits.Reverse8(uint8(w>>8)))<<8 | uint16(bits.Reverse8(uint8(w)))
}

// TransferBuffer exchanges buf in place, two bytes per 16-bit frame with an
// 8-bit frame for an odd tail. Bytes go out in buffer order.
func (s *SPI) TransferBuffer(buf []byte) {
	ssi, ok := s.ssi()
	if !ok {
		return
	}
	i := 0
	if len(buf) > 1 {
		ssi.SetDataWidth(16)
		for ; i+1 < len(buf); i += 2 {
			w := uint16(buf[i])<<8 | uint16(buf[i+1])
			if s.bitOrder == LSBFirst {
				w = reverseBytes16(w)
			}
			r := uint16(s.exchange(ssi, uint32(w)))
			if s.bitOrder == LSBFirst {
				r = reverseBytes16(r)
			}
			buf[i], buf[i+1] = byte(r>>8), byte(r)
		}
		ssi.SetDataWidth(8)
	}
	if i < len(buf) {
		buf[i] = s.Transfer(buf[i])
	}
}

// Driver adapts s to the tinygo.org/x/drivers SPI interface
func (s *SPI) Driver() drivers.SPI {
	return spiDriver{s}
}

type spiDriver struct {
	s *SPI
}

var _ drivers.SPI = spiDriver{}

// Tx sends w and fills r. Either may be nil; when both are set they must be
// the same length.
func (d spiDriver) Tx(w, r []byte) error {
	switch {
	case w == nil && r == nil:
		return nil
	case w == nil:
		for i := range r {
			r[i] = d.s.Transfer(0)
		}
	case r == nil:
		for _, b := range w {
			d.s.Transfer(b)
		}
	default:
		if len(w) != len(r) {
			return ErrTxLength
		}
		for i, b := range w {
			r[i] = d.s.Transfer(b)
		}
	}
	return nil
}

func (d spiDriver) Transfer(b byte) (byte, error) {
	return d.s.Transfer(b), nil
}
