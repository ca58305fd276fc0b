package board

import "tivago/periph"

// EKTM4C123GXL is the Tiva C LaunchPad (also covers the EK-LM4F120XL)
var EKTM4C123GXL = &Variant{
	Name:   "EK-TM4C123GXL",
	Part:   "TM4C123GH6PM",
	SysClk: 80000000,
	Clock:  periph.ClockRCC2,

	PortBases: []uint32{
		0x40004000, // A
		0x40005000, // B
		0x40006000, // C
		0x40007000, // D
		0x40024000, // E
		0x40025000, // F
	},
	Locked: map[uint8]uint8{
		PD: periph.Pin7,
		PF: periph.Pin0,
	},
	Pins: map[uint8]Pin{
		2:  pin(PB, 5),
		3:  pin(PB, 0),
		4:  pin(PB, 1),
		5:  pin(PE, 4),
		6:  pin(PE, 5),
		7:  pin(PB, 4),
		8:  pin(PA, 5),
		9:  pin(PA, 6),
		10: pin(PA, 7),
		11: pin(PA, 2),
		12: pin(PA, 3),
		13: pin(PA, 4),
		14: pin(PB, 6),
		15: pin(PB, 7),
		17: pin(PF, 0),
		18: pin(PE, 0),
		19: pin(PB, 2),
		23: pin(PD, 0),
		24: pin(PD, 1),
		25: pin(PD, 2),
		26: pin(PD, 3),
		27: pin(PE, 1),
		28: pin(PE, 2),
		29: pin(PE, 3),
		30: pin(PF, 1), // RED_LED
		31: pin(PF, 4), // PUSH1
		32: pin(PD, 7),
		33: pin(PD, 6),
		34: pin(PC, 7),
		35: pin(PC, 6),
		36: pin(PC, 5),
		37: pin(PC, 4),
		38: pin(PB, 3),
		39: pin(PF, 3), // GREEN_LED
		40: pin(PF, 2), // BLUE_LED
	},

	SSI: []SSIConfig{
		{periph.SSI0Base, periph.PeriphSSI0, [4]periph.PinMux{mux(PA, 2, 2), mux(PA, 3, 2), mux(PA, 4, 2), mux(PA, 5, 2)}},
		{periph.SSI1Base, periph.PeriphSSI1, [4]periph.PinMux{mux(PF, 2, 2), mux(PF, 3, 2), mux(PF, 0, 2), mux(PF, 1, 2)}},
		{periph.SSI2Base, periph.PeriphSSI2, [4]periph.PinMux{mux(PB, 4, 2), mux(PB, 5, 2), mux(PB, 6, 2), mux(PB, 7, 2)}},
		{periph.SSI3Base, periph.PeriphSSI3, [4]periph.PinMux{mux(PD, 0, 1), mux(PD, 1, 1), mux(PD, 2, 1), mux(PD, 3, 1)}},
	},
	I2C: []I2CConfig{
		{periph.I2C0Base, periph.PeriphI2C(0), mux(PB, 2, 3), mux(PB, 3, 3), periph.IRQI2C0},
		{periph.I2C1Base, periph.PeriphI2C(1), mux(PA, 6, 3), mux(PA, 7, 3), periph.IRQI2C1},
		{periph.I2C2Base, periph.PeriphI2C(2), mux(PE, 4, 3), mux(PE, 5, 3), 68},
		{periph.I2C3Base, periph.PeriphI2C(3), mux(PD, 0, 3), mux(PD, 1, 3), 69},
	},
	DefaultSPI:  2,
	DefaultWire: 1,

	ServoTimer: TimerConfig{periph.Timer2Base, periph.PeriphTimer2, periph.IRQTimer2},
	Console:    UARTConfig{periph.UART0Base, periph.PeriphUART(0), mux(PA, 0, 1), mux(PA, 1, 1)},
}
