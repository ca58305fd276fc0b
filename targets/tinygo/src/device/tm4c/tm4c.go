//go:build tm4c

// Package tm4c is the interrupt and register surface the runtime needs on
// the TM4C123 and TM4C129. Both parts share the vector numbers below.
package tm4c

import _ "unsafe"

const (
	SysTickCtrl    = 0xE000E010
	SysTickLoad    = 0xE000E014
	SysTickCurrent = 0xE000E018
	SCBICSR        = 0xE000ED04

	SysCtlRCGCUART = 0x400FE618

	UART0Base = 0x4000C000
	UARTDR    = 0x000
	UARTFR    = 0x018
	UARTCTL   = 0x030
)

// Interrupt numbers
const (
	IRQ_UART0   = 5
	IRQ_I2C0    = 8
	IRQ_TIMER2A = 23
	IRQ_I2C1    = 37
	IRQ_EMAC0   = 40
	IRQ_max     = 40
)

// Replaced by the compiler with the handlers registered through interrupt.New
//
//go:linkname callHandlers runtime/interrupt.callHandlers
func callHandlers(num int)

//export UART0_IRQHandler
func interruptUART0() {
	callHandlers(IRQ_UART0)
}

//export I2C0_IRQHandler
func interruptI2C0() {
	callHandlers(IRQ_I2C0)
}

//export TIMER2A_IRQHandler
func interruptTIMER2A() {
	callHandlers(IRQ_TIMER2A)
}

//export I2C1_IRQHandler
func interruptI2C1() {
	callHandlers(IRQ_I2C1)
}

//export EMAC0_IRQHandler
func interruptEMAC0() {
	callHandlers(IRQ_EMAC0)
}
