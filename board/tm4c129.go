package board

import "tivago/periph"

// AHB port apertures A..Q on the TM4C129 parts
var tm4c129PortBases = []uint32{
	0x40058000, // A
	0x40059000, // B
	0x4005A000, // C
	0x4005B000, // D
	0x4005C000, // E
	0x4005D000, // F
	0x4005E000, // G
	0x4005F000, // H
	0x40060000, // J
	0x40061000, // K
	0x40062000, // L
	0x40063000, // M
	0x40064000, // N
	0x40065000, // P
	0x40066000, // Q
}

var tm4c129Locked = map[uint8]uint8{
	PD: periph.Pin7,
	PE: periph.Pin7,
}

var tm4c129I2C = []I2CConfig{
	{periph.I2C0Base, periph.PeriphI2C(0), mux(PB, 2, 2), mux(PB, 3, 2), periph.IRQI2C0},
	{periph.I2C1Base, periph.PeriphI2C(1), mux(PG, 0, 2), mux(PG, 1, 2), periph.IRQI2C1},
	{periph.I2C2Base, periph.PeriphI2C(2), mux(PL, 1, 2), mux(PL, 0, 2), 61},
	{periph.I2C3Base, periph.PeriphI2C(3), mux(PK, 4, 2), mux(PK, 5, 2), 62},
}

// SSI0..SSI3 are common to both 129 packages. SSI1 is split across B and E.
var tm4c129SSI = []SSIConfig{
	{periph.SSI0Base, periph.PeriphSSI0, [4]periph.PinMux{mux(PA, 2, 15), mux(PA, 3, 15), mux(PA, 4, 15), mux(PA, 5, 15)}},
	{periph.SSI1Base, periph.PeriphSSI1, [4]periph.PinMux{mux(PB, 5, 15), mux(PB, 4, 15), mux(PE, 4, 15), mux(PE, 5, 15)}},
	{periph.SSI2Base, periph.PeriphSSI2, [4]periph.PinMux{mux(PD, 3, 15), mux(PD, 2, 15), mux(PD, 1, 15), mux(PD, 0, 15)}},
	{periph.SSI3Base, periph.PeriphSSI3, [4]periph.PinMux{mux(PF, 3, 14), mux(PF, 2, 14), mux(PF, 1, 14), mux(PF, 0, 14)}},
}

var ssi3OnPQ = SSIConfig{periph.SSI3Base, periph.PeriphSSI3, [4]periph.PinMux{mux(PQ, 0, 14), mux(PQ, 1, 14), mux(PQ, 2, 14), mux(PQ, 3, 14)}}
var ssi2OnPG = SSIConfig{periph.SSI2Base, periph.PeriphSSI2, [4]periph.PinMux{mux(PG, 7, 15), mux(PG, 6, 15), mux(PG, 5, 15), mux(PG, 4, 15)}}

func appendSSI(extra ...SSIConfig) []SSIConfig {
	out := make([]SSIConfig, 0, len(tm4c129SSI)+len(extra))
	out = append(out, tm4c129SSI...)
	return append(out, extra...)
}

// EKTM4C1294XL is the Connected LaunchPad
var EKTM4C1294XL = &Variant{
	Name:   "EK-TM4C1294XL",
	Part:   "TM4C1294NCPDT",
	SysClk: 120000000,
	Clock:  periph.ClockRSCLK,

	PortBases: tm4c129PortBases,
	Locked:    tm4c129Locked,
	Pins: map[uint8]Pin{
		2:  pin(PE, 4),
		3:  pin(PC, 4),
		4:  pin(PC, 5),
		5:  pin(PC, 6),
		6:  pin(PE, 5),
		7:  pin(PD, 3),
		8:  pin(PC, 7),
		9:  pin(PB, 2),
		10: pin(PB, 3),
		11: pin(PP, 2),
		12: pin(PN, 3),
		13: pin(PN, 2),
		14: pin(PD, 0),
		15: pin(PD, 1),
		17: pin(PH, 3),
		18: pin(PH, 2),
		19: pin(PM, 3),
		23: pin(PE, 0),
		24: pin(PE, 1),
		25: pin(PE, 2),
		26: pin(PE, 3),
		27: pin(PD, 7),
		28: pin(PA, 6),
		29: pin(PM, 4),
		30: pin(PM, 5),
		31: pin(PL, 3),
		32: pin(PL, 2),
		33: pin(PL, 1),
		34: pin(PL, 0),
		35: pin(PL, 5),
		36: pin(PL, 4),
		37: pin(PG, 0),
		38: pin(PF, 3),
		39: pin(PF, 2),
		40: pin(PF, 1),
		81: pin(PN, 1), // D1
		82: pin(PN, 0), // D2
		83: pin(PF, 4), // D3
		84: pin(PF, 0), // D4
	},

	SSI:         appendSSI(ssi3OnPQ),
	I2C:         tm4c129I2C,
	DefaultSPI:  2,
	DefaultWire: 0,

	ServoTimer: TimerConfig{periph.Timer2Base, periph.PeriphTimer2, periph.IRQTimer2},
	Console:    UARTConfig{periph.UART0Base, periph.PeriphUART(0), mux(PA, 0, 1), mux(PA, 1, 1)},

	HasEMAC:     true,
	LinkLED:     mux(PF, 0, 5),
	ActivityLED: mux(PF, 4, 5),
}

// DKTM4C129X is the TM4C129X development kit
var DKTM4C129X = &Variant{
	Name:   "DK-TM4C129X",
	Part:   "TM4C129XNCZAD",
	SysClk: 120000000,
	Clock:  periph.ClockRSCLK,

	PortBases: tm4c129PortBases,
	Locked:    tm4c129Locked,
	Pins: map[uint8]Pin{
		2: pin(PA, 2),
		3: pin(PA, 3),
		4: pin(PA, 4),
		5: pin(PA, 5),
		6: pin(PQ, 7), // red LED
		7: pin(PN, 5), // green LED
		8: pin(PQ, 4), // blue LED
	},

	SSI:         appendSSI(ssi2OnPG, ssi3OnPQ),
	I2C:         tm4c129I2C,
	DefaultSPI:  2,
	DefaultWire: 0,

	ServoTimer: TimerConfig{periph.Timer2Base, periph.PeriphTimer2, periph.IRQTimer2},
	Console:    UARTConfig{periph.UART0Base, periph.PeriphUART(0), mux(PA, 0, 1), mux(PA, 1, 1)},

	HasEMAC:     true,
	LinkLED:     mux(PK, 4, 5),
	ActivityLED: mux(PK, 6, 5),
}
