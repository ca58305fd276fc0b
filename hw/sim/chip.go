package sim

import (
	"tivago/board"
	"tivago/periph"
)

const (
	blockSize  = 0x1000
	nvicBase   = periph.NVICEn0
	timerCount = 4
)

// Chip is a Sim populated with every peripheral a board variant exposes
type Chip struct {
	*Sim
	Variant *board.Variant

	SysCtl *SysCtl
	NVIC   *NVIC
	Ports  map[uint8]*GPIOPort
	SSI    map[uint32]*SSI
	I2C    map[uint32]*I2C
	Timers map[uint32]*Timer
	UART   *UART
	EMAC   *EMAC
}

// NewChip builds the simulated address space for v
func NewChip(v *board.Variant) *Chip {
	c := &Chip{
		Sim:     New(),
		Variant: v,
		SysCtl:  newSysCtl(),
		NVIC:    newNVIC(),
		Ports:   map[uint8]*GPIOPort{},
		SSI:     map[uint32]*SSI{},
		I2C:     map[uint32]*I2C{},
		Timers:  map[uint32]*Timer{},
		UART:    newUART(),
	}
	c.Attach(periph.SysCtlBase, blockSize, c.SysCtl)
	c.Attach(nvicBase, nvicWindow, c.NVIC)

	for i, base := range v.PortBases {
		p := newGPIOPort()
		c.Ports[uint8(i+1)] = p
		c.Attach(base, blockSize, p)
	}
	for _, cfg := range v.SSI {
		if _, ok := c.SSI[cfg.Base]; ok {
			continue
		}
		s := newSSI()
		c.SSI[cfg.Base] = s
		c.Attach(cfg.Base, blockSize, s)
	}
	for _, cfg := range v.I2C {
		m := newI2C()
		c.I2C[cfg.Base] = m
		c.Attach(cfg.Base, blockSize, m)
	}
	for n := uint32(0); n < timerCount; n++ {
		base := periph.Timer0Base + n*blockSize
		t := newTimer()
		c.Timers[base] = t
		c.Attach(base, blockSize, t)
	}
	c.Attach(v.Console.Base, blockSize, c.UART)
	if v.HasEMAC {
		c.EMAC = newEMAC(c.Sim)
		c.Attach(periph.EMAC0Base, blockSize, c.EMAC)
	}
	return c
}

// Port returns the model behind a digital pin
func (c *Chip) Port(pin uint8) (*GPIOPort, uint8) {
	p := c.Variant.Pins[pin]
	return c.Ports[p.Port], p.Mask
}
