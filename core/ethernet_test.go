package core

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"tivago/board"
	"tivago/hw/sim"
	"tivago/periph"
)

var testMAC = [6]byte{0x02, 0x00, 0x00, 0xAA, 0xBB, 0xCC}

func setupEthernet(t *testing.T) (*Ethernet, *StaticNetIf, *sim.Chip) {
	t.Helper()
	c := newTestChip(t, board.EKTM4C1294XL)
	n := &StaticNetIf{}
	return NewEthernet(n), n, c
}

func TestEthernetBeginStatic(t *testing.T) {
	e, n, c := setupEthernet(t)

	local := IPAddress{192, 168, 1, 50}
	if err := e.BeginStatic(testMAC, local, IPAddress{}, IPAddress{}, IPAddress{}); err != nil {
		t.Fatalf("BeginStatic failed: %v", err)
	}

	want := NetConfig{
		Local:   local,
		Gateway: IPAddress{192, 168, 1, 1},
		Subnet:  IPAddress{255, 255, 255, 0},
		DNS:     IPAddress{192, 168, 1, 1},
		MAC:     testMAC,
	}
	if diff := cmp.Diff(want, n.Config); diff != "" {
		t.Errorf("Interface config mismatch (-want +got):\n%s", diff)
	}

	if !c.SysCtl.Enabled(periph.PeriphEMAC0) || !c.SysCtl.Enabled(periph.PeriphEPHY0) {
		t.Error("EMAC and PHY clocks not enabled")
	}
	if got := (periph.EMAC{Bus: c, Base: periph.EMAC0Base}).Addr(); got != testMAC {
		t.Errorf("Expected station address %v, got %v", testMAC, got)
	}
	if got := (periph.NVIC{Bus: c}).IntPriority(periph.IRQEMAC0); got != 0xC0 {
		t.Errorf("Expected EMAC priority 0xC0, got %#x", got)
	}
	if !c.NVIC.Enabled(periph.IRQEMAC0) {
		t.Error("EMAC interrupt not enabled")
	}

	if e.LocalIP() != local || e.GatewayIP() != want.Gateway || e.SubnetMask() != want.Subnet || e.DNSServerIP() != want.DNS {
		t.Error("Accessors disagree with the configuration")
	}
}

func TestEthernetFlashMAC(t *testing.T) {
	e, n, c := setupEthernet(t)
	c.SysCtl.SetUserRegs(0x001AB600, 0x0082E4C5)

	if err := e.BeginStatic(testMAC, IPAddress{10, 0, 0, 5}, IPAddress{}, IPAddress{}, IPAddress{}); err != nil {
		t.Fatal(err)
	}
	want := [6]byte{0x00, 0xB6, 0x1A, 0xC5, 0xE4, 0x82}
	if n.Config.MAC != want {
		t.Errorf("Expected flash MAC %v, got %v", want, n.Config.MAC)
	}

	buf := make([]byte, 6)
	e.MACAddress(buf)
	if diff := cmp.Diff(want[:], buf); diff != "" {
		t.Errorf("MACAddress mismatch (-want +got):\n%s", diff)
	}
	short := []byte{1, 2, 3}
	e.MACAddress(short)
	if diff := cmp.Diff([]byte{1, 2, 3}, short); diff != "" {
		t.Errorf("Short buffer was modified (-want +got):\n%s", diff)
	}
}

func TestClassfulMask(t *testing.T) {
	tests := []struct {
		ip   IPAddress
		want IPAddress
	}{
		{IPAddress{10, 0, 0, 5}, IPAddress{255, 0, 0, 0}},
		{IPAddress{172, 16, 0, 9}, IPAddress{255, 255, 0, 0}},
		{IPAddress{192, 168, 1, 2}, IPAddress{255, 255, 255, 0}},
	}
	for _, tt := range tests {
		if got := ClassfulMask(tt.ip); got != tt.want {
			t.Errorf("ClassfulMask(%v) = %v, expected %v", tt.ip, got, tt.want)
		}
	}
}

func TestEthernetStackTimer(t *testing.T) {
	e, n, c := setupEthernet(t)
	if err := e.BeginStatic(testMAC, IPAddress{192, 168, 1, 50}, IPAddress{}, IPAddress{}, IPAddress{}); err != nil {
		t.Fatal(err)
	}

	SetTime(StackTickMS)
	ProcessTimers()
	if n.Ticks != 1 {
		t.Errorf("Expected 1 stack tick, got %d", n.Ticks)
	}

	c.EMAC.SetLink(true)
	SetTime(StackTickMS*3 + 5)
	ProcessTimers()
	if n.Ticks != 3 {
		t.Errorf("Expected 3 stack ticks, got %d", n.Ticks)
	}
	if !e.LinkUp() {
		t.Error("Expected link up")
	}
	if evt, ok := lastEvent(EvtEthLink); !ok || evt.Value1 != 1 {
		t.Errorf("Expected link-up event, got %+v", evt)
	}

	// a second Begin keeps a single timer
	if err := e.BeginStatic(testMAC, IPAddress{192, 168, 1, 51}, IPAddress{}, IPAddress{}, IPAddress{}); err != nil {
		t.Fatal(err)
	}
	SetTime(StackTickMS * 4)
	ProcessTimers()
	if n.Ticks != 4 {
		t.Errorf("Expected 4 stack ticks, got %d", n.Ticks)
	}

	e.End()
	if Scheduled(&e.timer) {
		t.Error("Stack timer still scheduled after End")
	}
}

func TestEthernetSetStaticIP(t *testing.T) {
	e, n, _ := setupEthernet(t)
	if err := e.BeginStatic(testMAC, IPAddress{192, 168, 1, 50}, IPAddress{}, IPAddress{}, IPAddress{}); err != nil {
		t.Fatal(err)
	}

	if r := e.SetStaticIP(IPAddress{10, 1, 2, 3}, IPAddress{10, 1, 2, 254}, IPAddress{255, 255, 0, 0}); r != 1 {
		t.Fatalf("Expected SetStaticIP to return 1, got %d", r)
	}
	if n.Config.Local != (IPAddress{10, 1, 2, 3}) || e.GatewayIP() != (IPAddress{10, 1, 2, 254}) {
		t.Errorf("Static address not applied: %+v", n.Config)
	}
	if e.Maintain() != DHCPCheckNone {
		t.Error("Expected Maintain to report no change")
	}
}

type rejectNet struct {
	StaticNetIf
	reject bool
}

func (n *rejectNet) Configure(cfg NetConfig) error {
	if n.reject {
		return errors.New("address in use")
	}
	return n.StaticNetIf.Configure(cfg)
}

func TestEthernetSetStaticIPRejected(t *testing.T) {
	newTestChip(t, board.EKTM4C1294XL)
	n := &rejectNet{}
	e := NewEthernet(n)
	if err := e.BeginStatic(testMAC, IPAddress{192, 168, 1, 50}, IPAddress{}, IPAddress{}, IPAddress{}); err != nil {
		t.Fatal(err)
	}
	defer e.End()

	n.reject = true
	if r := e.SetStaticIP(IPAddress{10, 1, 2, 3}, IPAddress{10, 1, 2, 254}, IPAddress{255, 255, 0, 0}); r != 0 {
		t.Errorf("Expected SetStaticIP to return 0 when the stack refuses, got %d", r)
	}
	if e.LocalIP() != (IPAddress{192, 168, 1, 50}) {
		t.Errorf("Expected the previous address kept, got %v", e.LocalIP())
	}
}

func TestEthernetLEDs(t *testing.T) {
	e, _, c := setupEthernet(t)
	if err := e.EnableLinkLED(); err != nil {
		t.Fatal(err)
	}
	if err := e.EnableActivityLED(); err != nil {
		t.Fatal(err)
	}

	for _, m := range []periph.PinMux{board.EKTM4C1294XL.LinkLED, board.EKTM4C1294XL.ActivityLED} {
		p := c.Ports[m.Port]
		if got := uint8(p.Regs[periph.GPIOPCTL]>>(4*m.Pin)) & 0xF; got != m.Func {
			t.Errorf("Pin %d: expected function %d, got %d", m.Pin, m.Func, got)
		}
		if p.Regs[periph.GPIOAFSEL]&uint32(m.Mask()) == 0 {
			t.Errorf("Pin %d not handed to the EMAC", m.Pin)
		}
	}
}

func TestEthernetWithoutEMAC(t *testing.T) {
	newTestChip(t, board.EKTM4C123GXL)
	e := NewEthernet(&StaticNetIf{})

	if err := e.BeginStatic(testMAC, IPAddress{192, 168, 1, 50}, IPAddress{}, IPAddress{}, IPAddress{}); err != ErrNoHardware {
		t.Errorf("Expected ErrNoHardware, got %v", err)
	}
	if r := e.BeginDHCP(context.Background(), testMAC); r != 0 {
		t.Errorf("Expected BeginDHCP to fail, got %d", r)
	}
	if e.LinkUp() {
		t.Error("Expected no link without an EMAC")
	}
	if err := e.EnableLinkLED(); err != ErrNoHardware {
		t.Errorf("Expected ErrNoHardware, got %v", err)
	}
}
