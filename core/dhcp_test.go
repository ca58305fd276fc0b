package core

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/d2g/dhcp4"
	"github.com/google/go-cmp/cmp"

	"tivago/board"
)

// fakeNet answers DHCP requests from a single server at 192.168.1.1
type fakeNet struct {
	StaticNetIf
	configs []NetConfig
	replies chan []byte
	nak     bool
	stray   bool
	offered net.IP
}

func newFakeNet() *fakeNet {
	return &fakeNet{replies: make(chan []byte, 4), offered: net.IPv4(192, 168, 1, 77).To4()}
}

func (f *fakeNet) Configure(cfg NetConfig) error {
	f.configs = append(f.configs, cfg)
	return f.StaticNetIf.Configure(cfg)
}

func (f *fakeNet) SendDHCP(ctx context.Context, p []byte) error {
	req := dhcp4.Packet(p)
	server := net.IPv4(192, 168, 1, 1).To4()
	opts := []dhcp4.Option{
		{Code: dhcp4.OptionSubnetMask, Value: []byte{255, 255, 255, 0}},
		{Code: dhcp4.OptionRouter, Value: []byte{192, 168, 1, 254}},
		{Code: dhcp4.OptionDomainNameServer, Value: []byte{8, 8, 8, 8}},
	}

	if f.stray {
		other := dhcp4.RequestPacket(dhcp4.Discover, req.CHAddr(), nil, []byte{1, 2, 3, 4}, true, nil)
		f.replies <- dhcp4.ReplyPacket(other, dhcp4.Offer, server, net.IPv4(10, 0, 0, 9).To4(), time.Hour, opts)
	}

	switch dhcp4.MessageType(req.ParseOptions()[dhcp4.OptionDHCPMessageType][0]) {
	case dhcp4.Discover:
		f.replies <- dhcp4.ReplyPacket(req, dhcp4.Offer, server, f.offered, time.Hour, opts)
	case dhcp4.Request:
		if f.nak {
			f.replies <- dhcp4.ReplyPacket(req, dhcp4.NAK, server, nil, 0, nil)
			return nil
		}
		f.replies <- dhcp4.ReplyPacket(req, dhcp4.ACK, server, f.offered, time.Hour, opts)
	}
	return nil
}

func (f *fakeNet) ReceiveDHCP(ctx context.Context) ([]byte, error) {
	select {
	case p := <-f.replies:
		return p, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestBeginDHCP(t *testing.T) {
	newTestChip(t, board.EKTM4C1294XL)
	f := newFakeNet()
	f.stray = true
	e := NewEthernet(f)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if r := e.BeginDHCP(ctx, testMAC); r != 1 {
		t.Fatalf("Expected BeginDHCP to return 1, got %d", r)
	}

	if len(f.configs) != 2 {
		t.Fatalf("Expected 2 configurations, got %d", len(f.configs))
	}
	if !f.configs[0].DHCP || !f.configs[0].Local.IsZero() {
		t.Errorf("Expected a pending DHCP config first, got %+v", f.configs[0])
	}

	want := Lease{
		IP:       IPAddress{192, 168, 1, 77},
		Subnet:   IPAddress{255, 255, 255, 0},
		Router:   IPAddress{192, 168, 1, 254},
		DNS:      IPAddress{8, 8, 8, 8},
		Server:   IPAddress{192, 168, 1, 1},
		Duration: time.Hour,
	}
	if diff := cmp.Diff(&want, e.Lease()); diff != "" {
		t.Errorf("Lease mismatch (-want +got):\n%s", diff)
	}
	if e.LocalIP() != want.IP || e.GatewayIP() != want.Router || e.DNSServerIP() != want.DNS {
		t.Errorf("Addresses not taken from the lease: %+v", f.Config)
	}
	if evt, ok := lastEvent(EvtDHCP); !ok || evt.Value2 != 1 {
		t.Errorf("Expected a successful DHCP event, got %+v", evt)
	}

	e.End()
}

func TestBeginDHCPDeclined(t *testing.T) {
	newTestChip(t, board.EKTM4C1294XL)
	f := newFakeNet()
	f.nak = true
	e := NewEthernet(f)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if r := e.BeginDHCP(ctx, testMAC); r != 0 {
		t.Errorf("Expected BeginDHCP to return 0, got %d", r)
	}
	if e.Lease() != nil {
		t.Error("Expected no lease")
	}
	if evt, ok := lastEvent(EvtDHCP); !ok || evt.Value2 != 0 {
		t.Errorf("Expected a failed DHCP event, got %+v", evt)
	}
	e.End()
}

func TestBeginDHCPWithoutTransport(t *testing.T) {
	newTestChip(t, board.EKTM4C1294XL)
	e := NewEthernet(&StaticNetIf{})

	if r := e.BeginDHCP(context.Background(), testMAC); r != 0 {
		t.Errorf("Expected BeginDHCP to return 0, got %d", r)
	}
	e.End()
}
