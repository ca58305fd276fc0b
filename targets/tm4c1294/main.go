//go:build tinygo && tm4c1294

package main

import (
	"context"
	"runtime/interrupt"
	"time"

	"tivago/board"
	"tivago/core"
	"tivago/periph"
	"tivago/targets/tiva"
)

// Used when the user registers hold no factory MAC
var fallbackMAC = [6]byte{0x00, 0x1A, 0xB6, 0x00, 0x00, 0x01}

// Address taken when DHCP does not answer
var fallbackIP = core.IPAddress{192, 168, 1, 50}

const dhcpTimeout = 10 * time.Second

func main() {
	eth := core.NewEthernet(core.NewEMACNetIf())
	fw := tiva.Start(board.EKTM4C1294XL, eth)

	interrupt.New(periph.IRQTimer2, func(interrupt.Interrupt) {
		core.HandleServoInterrupt()
	}).Enable()
	interrupt.New(periph.IRQI2C0, func(interrupt.Interrupt) {
		core.HandleWireInterrupt(0)
	}).Enable()
	interrupt.New(periph.IRQI2C1, func(interrupt.Interrupt) {
		core.HandleWireInterrupt(1)
	}).Enable()

	ctx, cancel := context.WithTimeout(context.Background(), dhcpTimeout)
	if eth.BeginDHCP(ctx, fallbackMAC) == 0 {
		if err := eth.BeginStatic(fallbackMAC, fallbackIP, core.IPAddress{}, core.IPAddress{}, core.IPAddress{}); err != nil {
			core.DebugPrintln("[ETH] " + err.Error())
		}
	}
	cancel()
	eth.EnableLinkLED()
	eth.EnableActivityLED()

	core.DebugPrintln("[BOOT] " + board.EKTM4C1294XL.Name + " " + eth.LocalIP().String())
	fw.Run()
}
