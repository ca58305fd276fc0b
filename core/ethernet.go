// Ethernet bring-up on the TM4C129 EMAC and internal PHY. The packet stack
// itself sits behind NetIf; this file owns the hardware, the addressing and
// the stack's periodic tick.
package core

import (
	"context"
	"errors"

	"tivago/periph"
)

const (
	// StackTickMS is the period of the network stack timer
	StackTickMS = 10

	emacPriority = 0xC0

	DHCPCheckNone = 0
)

var ErrNoTransport = errors.New("network interface has no packet transport")

// IPAddress is an IPv4 address, most significant octet first
type IPAddress [4]byte

func (a IPAddress) IsZero() bool {
	return a == IPAddress{}
}

func (a IPAddress) String() string {
	return formatIP(a)
}

// NetConfig is what the network interface is configured with. Local is zero
// while DHCP is pending.
type NetConfig struct {
	Local   IPAddress
	Gateway IPAddress
	Subnet  IPAddress
	DNS     IPAddress
	MAC     [6]byte
	DHCP    bool
}

// NetIf is the packet side of the port: the IP stack, or a fake in tests
type NetIf interface {
	Configure(cfg NetConfig) error
	// Tick runs the stack's timers; now is GetTime
	Tick(now uint32)
	SendDHCP(ctx context.Context, p []byte) error
	ReceiveDHCP(ctx context.Context) ([]byte, error)
}

// StaticNetIf records the configuration and has no DHCP transport. Targets
// without a packet stack use it.
type StaticNetIf struct {
	Config NetConfig
	Ticks  uint32
}

func (n *StaticNetIf) Configure(cfg NetConfig) error {
	n.Config = cfg
	return nil
}

func (n *StaticNetIf) Tick(uint32) {
	n.Ticks++
}

func (n *StaticNetIf) SendDHCP(context.Context, []byte) error {
	return ErrNoTransport
}

func (n *StaticNetIf) ReceiveDHCP(context.Context) ([]byte, error) {
	return nil, ErrNoTransport
}

// Ethernet is the single Ethernet port
type Ethernet struct {
	netif NetIf
	cfg   NetConfig
	lease *Lease
	timer Timer
	link  bool
}

// NewEthernet returns a port that hands its configuration to netif
func NewEthernet(netif NetIf) *Ethernet {
	return &Ethernet{netif: netif}
}

func (e *Ethernet) emac() periph.EMAC {
	return periph.EMAC{Bus: MustHardware().Bus, Base: periph.EMAC0Base}
}

// flashMAC reads the factory MAC from the user registers, 24 bits in each.
// Erased registers fall back to mac.
func flashMAC(h *Hardware, mac [6]byte) [6]byte {
	u0, u1 := periph.Flash{Bus: h.Bus}.UserGet()
	if u0 == periph.FlashUserErased || u1 == periph.FlashUserErased {
		return mac
	}
	return [6]byte{
		byte(u0), byte(u0 >> 8), byte(u0 >> 16),
		byte(u1), byte(u1 >> 8), byte(u1 >> 16),
	}
}

// bringUp starts the stack timer and the controller. It does not touch the
// network interface.
func (e *Ethernet) bringUp(mac [6]byte) error {
	h := MustHardware()
	if !h.Board.HasEMAC {
		return ErrNoHardware
	}

	if !Scheduled(&e.timer) {
		e.timer = Timer{WakeTime: GetTime() + StackTickMS, Handler: e.stackTick}
		ScheduleTimer(&e.timer)
	}

	e.cfg.MAC = flashMAC(h, mac)

	h.nvic().IntPrioritySet(periph.IRQEMAC0, emacPriority)
	s := h.sysctl()
	s.EnablePeripheral(periph.PeriphEMAC0)
	s.EnablePeripheral(periph.PeriphEPHY0)

	m := e.emac()
	m.PHYConfigInternal()
	m.Reset()
	m.SetMIIClock(h.Board.SysClk)
	m.AddrSet(e.cfg.MAC)
	m.TxRxEnable()
	h.nvic().IntEnable(periph.IRQEMAC0)
	DebugPrintln("[ETH] up, mac " + formatMAC(e.cfg.MAC))
	return nil
}

func (e *Ethernet) stackTick(t *Timer) uint8 {
	e.netif.Tick(t.WakeTime)
	if up := e.LinkUp(); up != e.link {
		e.link = up
		var v uint32
		if up {
			v = 1
		}
		RecordEvent(EvtEthLink, 0, v, 0)
	}
	t.WakeTime += StackTickMS
	return SF_RESCHEDULE
}

// BeginDHCP brings the port up and leases an address. It returns 1 on
// success and 0 when ctx ends first or the board has no EMAC.
func (e *Ethernet) BeginDHCP(ctx context.Context, mac [6]byte) int {
	if err := e.bringUp(mac); err != nil {
		return 0
	}
	e.cfg.DHCP = true
	e.cfg.Local, e.cfg.Gateway, e.cfg.Subnet, e.cfg.DNS = IPAddress{}, IPAddress{}, IPAddress{}, IPAddress{}
	if err := e.netif.Configure(e.cfg); err != nil {
		return 0
	}

	lease, err := e.runDHCP(ctx)
	if err != nil {
		DebugPrintln("[ETH] dhcp failed: " + err.Error())
		return 0
	}
	e.lease = lease
	e.cfg.Local, e.cfg.Subnet, e.cfg.Gateway, e.cfg.DNS = lease.IP, lease.Subnet, lease.Router, lease.DNS
	if err := e.netif.Configure(e.cfg); err != nil {
		return 0
	}
	DebugPrintln("[ETH] leased " + lease.IP.String())
	return 1
}

// ClassfulMask is the historical class A, B or C netmask of ip
func ClassfulMask(ip IPAddress) IPAddress {
	switch {
	case ip[0] < 128:
		return IPAddress{255, 0, 0, 0}
	case ip[0] < 192:
		return IPAddress{255, 255, 0, 0}
	}
	return IPAddress{255, 255, 255, 0}
}

func withHost(ip IPAddress, host byte) IPAddress {
	ip[3] = host
	return ip
}

// BeginStatic brings the port up with a fixed address. A zero DNS server or
// gateway becomes local with the last octet set to 1; a zero subnet becomes
// the classful mask.
func (e *Ethernet) BeginStatic(mac [6]byte, local, dns, gateway, subnet IPAddress) error {
	if err := e.bringUp(mac); err != nil {
		return err
	}
	if dns.IsZero() {
		dns = withHost(local, 1)
	}
	if gateway.IsZero() {
		gateway = withHost(local, 1)
	}
	if subnet.IsZero() {
		subnet = ClassfulMask(local)
	}
	e.lease = nil
	e.cfg.DHCP = local.IsZero()
	e.cfg.Local, e.cfg.DNS, e.cfg.Gateway, e.cfg.Subnet = local, dns, gateway, subnet
	return e.netif.Configure(e.cfg)
}

// Maintain would renew a DHCP lease; renewal is left to the stack
func (e *Ethernet) Maintain() int {
	return DHCPCheckNone
}

// SetStaticIP reconfigures the interface, returning 1 on success
func (e *Ethernet) SetStaticIP(local, gateway, subnet IPAddress) int {
	cfg := e.cfg
	cfg.Local, cfg.Gateway, cfg.Subnet = local, gateway, subnet
	cfg.DHCP = false
	if err := e.netif.Configure(cfg); err != nil {
		return 0
	}
	e.cfg = cfg
	e.lease = nil
	return 1
}

func (e *Ethernet) LocalIP() IPAddress     { return e.cfg.Local }
func (e *Ethernet) GatewayIP() IPAddress   { return e.cfg.Gateway }
func (e *Ethernet) SubnetMask() IPAddress  { return e.cfg.Subnet }
func (e *Ethernet) DNSServerIP() IPAddress { return e.cfg.DNS }

// Lease returns the current DHCP lease, or nil for a static address
func (e *Ethernet) Lease() *Lease {
	return e.lease
}

// MACAddress copies the station address into buf. Short buffers are left
// alone.
func (e *Ethernet) MACAddress(buf []byte) {
	if len(buf) < 6 {
		return
	}
	copy(buf, e.cfg.MAC[:])
}

func (e *Ethernet) ledPin(m periph.PinMux) error {
	h := MustHardware()
	if !h.Board.HasEMAC {
		return ErrNoHardware
	}
	h.configurePins(m)
	h.padsByPort(periph.GPIO.PinTypeEthernetLED, m)
	return nil
}

// EnableLinkLED hands the board's link LED pin to the EMAC
func (e *Ethernet) EnableLinkLED() error {
	return e.ledPin(MustHardware().Board.LinkLED)
}

// EnableActivityLED hands the board's activity LED pin to the EMAC
func (e *Ethernet) EnableActivityLED() error {
	return e.ledPin(MustHardware().Board.ActivityLED)
}

// LinkUp reads the link status from the internal PHY
func (e *Ethernet) LinkUp() bool {
	if !MustHardware().Board.HasEMAC {
		return false
	}
	return e.emac().PHYRead(periph.PHYAddrInternal, periph.PHYBMSR)&periph.PHYBMSRLinkStat != 0
}

// End stops the stack timer and the MAC
func (e *Ethernet) End() {
	CancelTimer(&e.timer)
	if MustHardware().Board.HasEMAC {
		e.emac().TxRxDisable()
	}
}
