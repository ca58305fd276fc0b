package periph

import "tivago/hw"

// GPIO register offsets
const (
	GPIOData  = 0x000 // masked by address bits [9:2]
	GPIODir   = 0x400
	GPIOIS    = 0x404
	GPIOIBE   = 0x408
	GPIOIEV   = 0x40C
	GPIOIM    = 0x410
	GPIORIS   = 0x414
	GPIOMIS   = 0x418
	GPIOICR   = 0x41C
	GPIOAFSEL = 0x420
	GPIODR2R  = 0x500
	GPIODR4R  = 0x504
	GPIODR8R  = 0x508
	GPIOODR   = 0x50C
	GPIOPUR   = 0x510
	GPIOPDR   = 0x514
	GPIOSLR   = 0x518
	GPIODEN   = 0x51C
	GPIOLock  = 0x520
	GPIOCR    = 0x524
	GPIOAMSEL = 0x528
	GPIOPCTL  = 0x52C

	GPIOLockKey = 0x4C4F434B
)

// Pin masks
const (
	Pin0 uint8 = 1 << iota
	Pin1
	Pin2
	Pin3
	Pin4
	Pin5
	Pin6
	Pin7
)

// PinMux selects the alternate function driving one pin. It is the Go form of
// the driver library's GPIO_Pxn_FUNC selectors.
type PinMux struct {
	Port uint8 // 1 = port A
	Pin  uint8 // 0..7
	Func uint8 // PCTL function nibble
}

// Mask returns the single-bit pin mask
func (m PinMux) Mask() uint8 {
	return 1 << m.Pin
}

// GPIO is one GPIO port
type GPIO struct {
	Bus  hw.Bus
	Base uint32
}

// Unlock opens the commit register for pins that are locked out of reset
// (NMI and JTAG capable pins)
func (g GPIO) Unlock(pins uint8) {
	g.Bus.Store(g.Base+GPIOLock, GPIOLockKey)
	hw.Set(g.Bus, g.Base+GPIOCR, uint32(pins))
	g.Bus.Store(g.Base+GPIOLock, 0)
}

// PinConfigure routes the alternate function fn to pin
func (g GPIO) PinConfigure(pin, fn uint8) {
	shift := uint32(pin) * 4
	hw.Modify(g.Bus, g.Base+GPIOPCTL, 0xF<<shift, uint32(fn&0xF)<<shift)
}

// Pad drive types
type padType uint8

const (
	padStd padType = iota
	padOD
)

func (g GPIO) dirModeHW(pins uint8) {
	hw.Set(g.Bus, g.Base+GPIOAFSEL, uint32(pins))
}

func (g GPIO) dirModeOut(pins uint8) {
	hw.Set(g.Bus, g.Base+GPIODir, uint32(pins))
	hw.Clear(g.Bus, g.Base+GPIOAFSEL, uint32(pins))
}

func (g GPIO) padConfig(pins uint8, drive uint32, pt padType) {
	p := uint32(pins)
	for _, r := range [...]uint32{GPIODR2R, GPIODR4R, GPIODR8R} {
		if r == drive {
			hw.Set(g.Bus, g.Base+r, p)
		} else {
			hw.Clear(g.Bus, g.Base+r, p)
		}
	}
	if pt == padOD {
		hw.Set(g.Bus, g.Base+GPIOODR, p)
	} else {
		hw.Clear(g.Bus, g.Base+GPIOODR, p)
	}
	hw.Clear(g.Bus, g.Base+GPIOPUR, p)
	hw.Clear(g.Bus, g.Base+GPIOPDR, p)
	hw.Set(g.Bus, g.Base+GPIODEN, p)
	hw.Clear(g.Bus, g.Base+GPIOAMSEL, p)
}

// PinTypeSSI hands pins to the SSI peripheral
func (g GPIO) PinTypeSSI(pins uint8) {
	g.dirModeHW(pins)
	g.padConfig(pins, GPIODR2R, padStd)
}

// PinTypeI2C hands SDA pins to the I2C peripheral as open drain
func (g GPIO) PinTypeI2C(pins uint8) {
	g.dirModeHW(pins)
	g.padConfig(pins, GPIODR2R, padOD)
}

// PinTypeI2CSCL hands SCL pins to the I2C peripheral as push-pull
func (g GPIO) PinTypeI2CSCL(pins uint8) {
	g.dirModeHW(pins)
	g.padConfig(pins, GPIODR2R, padStd)
}

// PinTypeUART hands RX and TX pins to a UART
func (g GPIO) PinTypeUART(pins uint8) {
	g.dirModeHW(pins)
	g.padConfig(pins, GPIODR2R, padStd)
}

// PinTypeEthernetLED hands LED pins to the EMAC
func (g GPIO) PinTypeEthernetLED(pins uint8) {
	g.dirModeHW(pins)
	g.padConfig(pins, GPIODR2R, padStd)
}

// PinTypeOutput makes pins push-pull software outputs
func (g GPIO) PinTypeOutput(pins uint8) {
	g.dirModeOut(pins)
	g.padConfig(pins, GPIODR2R, padStd)
}

// Write drives the masked pins to val
func (g GPIO) Write(pins, val uint8) {
	g.Bus.Store(g.Base+GPIOData+uint32(pins)<<2, uint32(val))
}

// Read samples the masked pins
func (g GPIO) Read(pins uint8) uint8 {
	return uint8(g.Bus.Load(g.Base + GPIOData + uint32(pins)<<2))
}

// IntMask returns the pins whose interrupts are unmasked
func (g GPIO) IntMask() uint8 {
	return uint8(g.Bus.Load(g.Base + GPIOIM))
}

// IntEnable unmasks the pin interrupts
func (g GPIO) IntEnable(pins uint8) {
	hw.Set(g.Bus, g.Base+GPIOIM, uint32(pins))
}

// IntDisable masks the pin interrupts
func (g GPIO) IntDisable(pins uint8) {
	hw.Clear(g.Bus, g.Base+GPIOIM, uint32(pins))
}
