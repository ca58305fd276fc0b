//go:build tm4c

// Runtime support for the TM4C123 and TM4C129 parts. SysTick runs from
// PIOSC/4, a fixed 4 MHz whatever the PLL is set to, so the application may
// move the system clock after boot without skewing time.

package runtime

import (
	"device/arm"
	"device/tm4c"
	"runtime/volatile"
	"unsafe"
)

type timeUnit int64

const (
	systickHz   = 4000000 // PIOSC / 4
	tickMicros  = 1000
	systickLoad = systickHz/tickMicros - 1

	stctrlEnable = 0x1
	stctrlIntEn  = 0x2

	icsrPendSTSet = 1 << 26

	uartFRTXFF = 0x20
	uartFRRXFE = 0x10
	uartCTLEn  = 0x1
)

func reg(addr uintptr) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(addr))
}

//export Reset_Handler
func main() {
	preinit()
	run()
	exit(0)
}

func init() {
	reg(tm4c.SysTickLoad).Set(systickLoad)
	reg(tm4c.SysTickCurrent).Set(0)
	reg(tm4c.SysTickCtrl).Set(stctrlEnable | stctrlIntEn)
}

// The console UART belongs to the application; output is dropped until it
// has been clocked and enabled.
func uartReady() bool {
	return reg(tm4c.SysCtlRCGCUART).Get()&1 != 0 &&
		reg(tm4c.UART0Base+tm4c.UARTCTL).Get()&uartCTLEn != 0
}

func putchar(c byte) {
	if !uartReady() {
		return
	}
	for reg(tm4c.UART0Base+tm4c.UARTFR).Get()&uartFRTXFF != 0 {
	}
	reg(tm4c.UART0Base + tm4c.UARTDR).Set(uint32(c))
}

func getchar() byte {
	for buffered() == 0 {
		Gosched()
	}
	return byte(reg(tm4c.UART0Base + tm4c.UARTDR).Get())
}

func buffered() int {
	if !uartReady() || reg(tm4c.UART0Base+tm4c.UARTFR).Get()&uartFRRXFE != 0 {
		return 0
	}
	return 1
}

var tickMilliCount uint32

//export SysTick_Handler
func tickHandler() {
	volatile.StoreUint32(&tickMilliCount, volatile.LoadUint32(&tickMilliCount)+1)
}

// ticks are microseconds since boot
func ticks() timeUnit {
	mask := arm.DisableInterrupts()
	current := reg(tm4c.SysTickCurrent).Get()
	count := volatile.LoadUint32(&tickMilliCount)
	pending := reg(tm4c.SCBICSR).Get()&icsrPendSTSet != 0
	arm.EnableInterrupts(mask)

	// The counter wrapped after the interrupt was masked
	if pending && current > systickLoad/2 {
		count++
	}
	elapsed := (systickLoad - current) * tickMicros / (systickLoad + 1)
	return timeUnit(count)*tickMicros + timeUnit(elapsed)
}

func sleepTicks(d timeUnit) {
	end := ticks() + d
	for ticks() < end {
		arm.Asm("wfi")
	}
}

func ticksToNanoseconds(ticks timeUnit) int64 {
	return int64(ticks) * 1000
}

func nanosecondsToTicks(ns int64) timeUnit {
	return timeUnit(ns / 1000)
}
