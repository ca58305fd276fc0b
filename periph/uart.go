package periph

import "tivago/hw"

// UART module bases
const (
	UART0Base = 0x4000C000
	UART1Base = 0x4000D000
)

// UART register offsets
const (
	UARTDR   = 0x000
	UARTFR   = 0x018
	UARTIBRD = 0x024
	UARTFBRD = 0x028
	UARTLCRH = 0x02C
	UARTCTL  = 0x030
	UARTCC   = 0xFC8
)

// UART bits
const (
	UARTFRTXFF = 0x20
	UARTFRRXFE = 0x10
	UARTFRBusy = 0x08

	UARTLCRHWLen8 = 0x60
	UARTLCRHFEN   = 0x10

	UARTCTLEn  = 0x001
	UARTCTLTXE = 0x100
	UARTCTLRXE = 0x200
)

const sysctlRCGCUART = 0x618

// PeriphUART returns the clock gate of UART module n
func PeriphUART(n uint8) Peripheral {
	return Peripheral{sysctlRCGCUART, n}
}

// UARTDivisors returns the integer and fractional baud divisors for 16x
// oversampling
func UARTDivisors(sysClk, baud uint32) (ibrd, fbrd uint32) {
	div := ((uint64(sysClk)*8)/uint64(baud) + 1) / 2
	return uint32(div / 64), uint32(div % 64)
}

// UART is one UART module in 8N1 FIFO mode
type UART struct {
	Bus  hw.Bus
	Base uint32
}

// ConfigSetExpClk programs baud rate and 8N1 framing, then enables the UART
func (u UART) ConfigSetExpClk(sysClk, baud uint32) {
	hw.Clear(u.Bus, u.Base+UARTCTL, UARTCTLEn)
	ibrd, fbrd := UARTDivisors(sysClk, baud)
	u.Bus.Store(u.Base+UARTIBRD, ibrd)
	u.Bus.Store(u.Base+UARTFBRD, fbrd)
	u.Bus.Store(u.Base+UARTLCRH, UARTLCRHWLen8|UARTLCRHFEN)
	u.Bus.Store(u.Base+UARTCTL, UARTCTLEn|UARTCTLTXE|UARTCTLRXE)
}

// CharPut waits for FIFO room and sends b
func (u UART) CharPut(b byte) {
	hw.WaitClear(u.Bus, u.Base+UARTFR, UARTFRTXFF)
	u.Bus.Store(u.Base+UARTDR, uint32(b))
}

// CharGetNonBlocking returns a received byte if one is waiting
func (u UART) CharGetNonBlocking() (byte, bool) {
	if u.Bus.Load(u.Base+UARTFR)&UARTFRRXFE != 0 {
		return 0, false
	}
	return byte(u.Bus.Load(u.Base + UARTDR)), true
}

// Write sends p, blocking on FIFO space
func (u UART) Write(p []byte) (int, error) {
	for _, b := range p {
		u.CharPut(b)
	}
	return len(p), nil
}
