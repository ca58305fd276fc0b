package core

import (
	"tivago/periph"
)

// ConsoleBaud is the bridge link rate on the console UART
const ConsoleBaud = 115200

// Console is the board's console UART. It carries the bridge and, when
// enabled, debug output.
type Console struct {
	uart periph.UART
	buf  [16]byte
}

// OpenConsole clocks and muxes the console UART and sets it to baud 8N1
func OpenConsole(baud uint32) *Console {
	h := MustHardware()
	cfg := h.Board.Console
	h.sysctl().EnablePeripheral(cfg.Periph)
	h.configurePins(cfg.RX, cfg.TX)
	h.padsByPort(periph.GPIO.PinTypeUART, cfg.RX, cfg.TX)

	u := periph.UART{Bus: h.Bus, Base: cfg.Base}
	u.ConfigSetExpClk(h.Board.SysClk, baud)
	return &Console{uart: u}
}

func (c *Console) Write(p []byte) (int, error) {
	return c.uart.Write(p)
}

// Poll moves every byte waiting in the receive FIFO into b and reports
// how many were delivered
func (c *Console) Poll(b *Bridge) int {
	total := 0
	for {
		n := 0
		for n < len(c.buf) {
			ch, ok := c.uart.CharGetNonBlocking()
			if !ok {
				break
			}
			c.buf[n] = ch
			n++
		}
		if n == 0 {
			return total
		}
		b.Write(c.buf[:n])
		total += n
	}
}

// DebugWriter returns a writer for SetDebugWriter that prints lines on
// the console
func (c *Console) DebugWriter() DebugWriter {
	return func(s string) {
		c.uart.Write([]byte(s))
		c.uart.Write([]byte("\r\n"))
	}
}
