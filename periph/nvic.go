package periph

import "tivago/hw"

// NVIC registers, indexed by IRQ number (vector number - 16)
const (
	NVICEn0  = 0xE000E100
	NVICDis0 = 0xE000E180
	NVICPri0 = 0xE000E400
)

// IRQ numbers shared by every supported part
const (
	IRQI2C0   = 8
	IRQTimer2 = 23
	IRQI2C1   = 37
	IRQEMAC0  = 40
)

// NVIC is the Cortex-M interrupt controller
type NVIC struct {
	Bus hw.Bus
}

func nvicWord(base uint32, irq uint8) (addr, mask uint32) {
	return base + uint32(irq/32)*4, 1 << (irq % 32)
}

// IntEnable unmasks irq. The set-enable registers ignore zero bits.
func (n NVIC) IntEnable(irq uint8) {
	addr, mask := nvicWord(NVICEn0, irq)
	n.Bus.Store(addr, mask)
}

// IntDisable masks irq
func (n NVIC) IntDisable(irq uint8) {
	addr, mask := nvicWord(NVICDis0, irq)
	n.Bus.Store(addr, mask)
}

// IntPrioritySet writes the 8-bit priority of irq
func (n NVIC) IntPrioritySet(irq uint8, prio uint8) {
	addr := NVICPri0 + uint32(irq/4)*4
	shift := uint32(irq%4) * 8
	hw.Modify(n.Bus, addr, 0xFF<<shift, uint32(prio)<<shift)
}

// IntPriority reads back the priority of irq
func (n NVIC) IntPriority(irq uint8) uint8 {
	addr := NVICPri0 + uint32(irq/4)*4
	return uint8(n.Bus.Load(addr) >> (uint32(irq%4) * 8))
}
