package board

import (
	"testing"

	"tivago/periph"
)

var variants = []*Variant{EKTM4C123GXL, EKTM4C1294XL, DKTM4C129X}

func TestSSITableSizes(t *testing.T) {
	want := map[string]int{
		"EK-TM4C123GXL": 4,
		"EK-TM4C1294XL": 5,
		"DK-TM4C129X":   6,
	}
	for _, v := range variants {
		if got := len(v.SSI); got != want[v.Name] {
			t.Errorf("%s: expected %d SSI entries, got %d", v.Name, want[v.Name], got)
		}
		if int(v.DefaultSPI) >= len(v.SSI) {
			t.Errorf("%s: default SPI %d out of range", v.Name, v.DefaultSPI)
		}
		if int(v.DefaultWire) >= len(v.I2C) {
			t.Errorf("%s: default Wire %d out of range", v.Name, v.DefaultWire)
		}
	}
}

func TestEveryMuxTargetsARealPort(t *testing.T) {
	for _, v := range variants {
		check := func(what string, m periph.PinMux) {
			if _, ok := v.PortBase(m.Port); !ok {
				t.Errorf("%s: %s uses port %d which does not exist", v.Name, what, m.Port)
			}
			if m.Pin > 7 {
				t.Errorf("%s: %s uses pin %d", v.Name, what, m.Pin)
			}
		}
		for i, s := range v.SSI {
			for _, m := range s.Pins {
				check("SSI"+string(rune('0'+i)), m)
			}
		}
		for i, c := range v.I2C {
			check("I2C"+string(rune('0'+i))+" SCL", c.SCL)
			check("I2C"+string(rune('0'+i))+" SDA", c.SDA)
		}
		for n, p := range v.Pins {
			if _, ok := v.PortBase(p.Port); !ok {
				t.Errorf("%s: digital pin %d on missing port %d", v.Name, n, p.Port)
			}
		}
	}
}

func TestSplitPortGrouping(t *testing.T) {
	ports, masks := GroupByPort(EKTM4C1294XL.SSI[1].Pins[:]...)
	if len(ports) != 2 {
		t.Fatalf("expected SSI1 to span 2 ports, got %d", len(ports))
	}
	if ports[0] != PB || masks[0] != periph.Pin4|periph.Pin5 {
		t.Errorf("expected port B pins 4|5, got port %d mask 0x%X", ports[0], masks[0])
	}
	if ports[1] != PE || masks[1] != periph.Pin4|periph.Pin5 {
		t.Errorf("expected port E pins 4|5, got port %d mask 0x%X", ports[1], masks[1])
	}

	ports, masks = GroupByPort(EKTM4C123GXL.SSI[2].Pins[:]...)
	if len(ports) != 1 || masks[0] != 0xF0 {
		t.Errorf("expected SSI2 on one port with mask 0xF0, got %v %v", ports, masks)
	}
}

func TestDigitalPinLookup(t *testing.T) {
	v := EKTM4C123GXL
	if v.DigitalPinToPort(30) != PF || v.DigitalPinToBitMask(30) != periph.Pin1 {
		t.Errorf("pin 30 should be PF1")
	}
	// Power pins resolve to no port
	if v.DigitalPinToPort(1) != NotAPort || v.DigitalPinToBitMask(1) != 0 {
		t.Errorf("pin 1 should not map to a port")
	}
}

func TestLockedPins(t *testing.T) {
	if !EKTM4C123GXL.IsLocked(EKTM4C123GXL.SSI[1].Pins[2]) {
		t.Error("PF0 must be commit-protected on TM4C123")
	}
	if EKTM4C123GXL.IsLocked(EKTM4C123GXL.SSI[2].Pins[0]) {
		t.Error("PB4 is not commit-protected")
	}
}

func TestPortBaseBounds(t *testing.T) {
	if _, ok := EKTM4C123GXL.PortBase(PG); ok {
		t.Error("TM4C123 has no port G")
	}
	if base, ok := EKTM4C1294XL.PortBase(PQ); !ok || base != 0x40066000 {
		t.Errorf("expected PQ at 0x40066000, got 0x%X", base)
	}
	if EKTM4C123GXL.NumPorts() != 7 {
		t.Errorf("expected NumPorts 7, got %d", EKTM4C123GXL.NumPorts())
	}
}
