//go:build tinygo && tm4c123

package main

import (
	"runtime/interrupt"

	"tivago/board"
	"tivago/core"
	"tivago/periph"
	"tivago/targets/tiva"
)

func main() {
	fw := tiva.Start(board.EKTM4C123GXL, nil)

	interrupt.New(periph.IRQTimer2, func(interrupt.Interrupt) {
		core.HandleServoInterrupt()
	}).Enable()
	interrupt.New(periph.IRQI2C0, func(interrupt.Interrupt) {
		core.HandleWireInterrupt(0)
	}).Enable()
	interrupt.New(periph.IRQI2C1, func(interrupt.Interrupt) {
		core.HandleWireInterrupt(1)
	}).Enable()

	core.DebugPrintln("[BOOT] " + board.EKTM4C123GXL.Name)
	fw.Run()
}
