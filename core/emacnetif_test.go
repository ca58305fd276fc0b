package core

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/d2g/dhcp4"

	"tivago/board"
	"tivago/hw/sim"
	"tivago/periph"
)

var (
	serverMAC = [6]byte{0x02, 0x00, 0x00, 0x11, 0x22, 0x33}
	serverIP  = IPAddress{192, 168, 1, 1}
)

func setupEMACNetIf(t *testing.T) (*EMACNetIf, *sim.Chip) {
	t.Helper()
	c := newTestChip(t, board.EKTM4C1294XL)
	n := NewEMACNetIf()
	if err := n.Configure(NetConfig{MAC: testMAC, DHCP: true}); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	return n, c
}

// serverPayload unwraps a datagram sent to the DHCP server port
func serverPayload(t *testing.T, f []byte) []byte {
	t.Helper()
	if len(f) < 42 || binary.BigEndian.Uint16(f[12:]) != etherTypeIPv4 {
		t.Fatalf("Not an IPv4 frame: % x", f)
	}
	if ipChecksum(f[14:34]) != 0 {
		t.Errorf("Bad IPv4 header checksum")
	}
	if sport, dport := binary.BigEndian.Uint16(f[34:]), binary.BigEndian.Uint16(f[36:]); sport != 68 || dport != 67 {
		t.Errorf("Expected ports 68->67, got %d->%d", sport, dport)
	}
	return f[42:]
}

func clientFrame(p []byte) []byte {
	return udpFrame(serverMAC, testMAC, serverIP, broadcastIP, dhcpServerPort, dhcpClientPort, 1, p)
}

func TestEMACNetIfLeasesOverDMA(t *testing.T) {
	c := newTestChip(t, board.EKTM4C1294XL)
	e := NewEthernet(NewEMACNetIf())

	offered := net.IPv4(192, 168, 1, 77).To4()
	opts := []dhcp4.Option{
		{Code: dhcp4.OptionSubnetMask, Value: []byte{255, 255, 255, 0}},
		{Code: dhcp4.OptionRouter, Value: []byte{192, 168, 1, 254}},
	}
	c.EMAC.OnTransmit = func(f []byte) {
		req := dhcp4.Packet(serverPayload(t, f))
		server := net.IP(serverIP[:])
		var reply dhcp4.Packet
		switch dhcp4.MessageType(req.ParseOptions()[dhcp4.OptionDHCPMessageType][0]) {
		case dhcp4.Discover:
			reply = dhcp4.ReplyPacket(req, dhcp4.Offer, server, offered, time.Hour, opts)
		case dhcp4.Request:
			reply = dhcp4.ReplyPacket(req, dhcp4.ACK, server, offered, time.Hour, opts)
		}
		if !c.EMAC.Inject(clientFrame(reply)) {
			t.Error("Receive ring full")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if r := e.BeginDHCP(ctx, testMAC); r != 1 {
		t.Fatalf("Expected BeginDHCP to return 1, got %d", r)
	}
	if got := e.LocalIP(); got != (IPAddress{192, 168, 1, 77}) {
		t.Errorf("Expected 192.168.1.77, got %s", got)
	}

	if len(c.EMAC.Sent) != 2 {
		t.Fatalf("Expected discover and request on the wire, got %d frames", len(c.EMAC.Sent))
	}
	f := c.EMAC.Sent[0]
	if !bytes.Equal(f[0:6], broadcastMAC[:]) || !bytes.Equal(f[6:12], testMAC[:]) {
		t.Errorf("Bad Ethernet addresses: % x", f[:12])
	}
	if !bytes.Equal(f[26:30], []byte{0, 0, 0, 0}) || !bytes.Equal(f[30:34], []byte{255, 255, 255, 255}) {
		t.Errorf("Expected 0.0.0.0 -> 255.255.255.255, got % x", f[26:34])
	}
	e.End()
}

func TestEMACNetIfSkipsOtherTraffic(t *testing.T) {
	n, c := setupEMACNetIf(t)

	arp := make([]byte, 60)
	copy(arp, broadcastMAC[:])
	binary.BigEndian.PutUint16(arp[12:], 0x0806)

	dns := udpFrame(serverMAC, testMAC, serverIP, broadcastIP, 53, 53, 2, []byte("dns"))

	corrupt := clientFrame([]byte("corrupt"))
	corrupt[14+10] ^= 0xFF

	for _, f := range [][]byte{arp, dns, corrupt, clientFrame([]byte("lease"))} {
		if !c.EMAC.Inject(f) {
			t.Fatal("Receive ring full")
		}
	}
	got, err := n.ReceiveDHCP(context.Background())
	if err != nil || string(got) != "lease" {
		t.Fatalf("ReceiveDHCP = %q, %v", got, err)
	}

	// Every descriptor went back to the DMA, so the ring takes more
	for i := 0; i < emacRxDescs; i++ {
		if !c.EMAC.Inject(clientFrame([]byte{byte(i)})) {
			t.Fatalf("Descriptor %d not returned", i)
		}
	}
	for i := 0; i < emacRxDescs; i++ {
		got, err := n.ReceiveDHCP(context.Background())
		if err != nil || len(got) != 1 || got[0] != byte(i) {
			t.Errorf("Frame %d: got %v, %v", i, got, err)
		}
	}
}

func TestEMACNetIfReceiveTimeout(t *testing.T) {
	n, _ := setupEMACNetIf(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if _, err := n.ReceiveDHCP(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestEMACNetIfTransmitRingWraps(t *testing.T) {
	n, c := setupEMACNetIf(t)
	for i := 0; i < emacTxDescs+1; i++ {
		if err := n.SendDHCP(context.Background(), []byte{byte(i)}); err != nil {
			t.Fatalf("SendDHCP %d: %v", i, err)
		}
	}
	if len(c.EMAC.Sent) != emacTxDescs+1 {
		t.Fatalf("Expected %d frames, got %d", emacTxDescs+1, len(c.EMAC.Sent))
	}
	for i, f := range c.EMAC.Sent {
		if id := binary.BigEndian.Uint16(f[18:]); id != uint16(i+1) {
			t.Errorf("Frame %d: IP id %d", i, id)
		}
		if p := serverPayload(t, f); len(p) != 1 || p[0] != byte(i) {
			t.Errorf("Frame %d: payload %v", i, p)
		}
	}
}

func TestEMACNetIfFrameTooLong(t *testing.T) {
	n, c := setupEMACNetIf(t)
	if err := n.SendDHCP(context.Background(), make([]byte, emacBufSize)); !errors.Is(err, ErrFrameTooLong) {
		t.Errorf("Expected ErrFrameTooLong, got %v", err)
	}
	if len(c.EMAC.Sent) != 0 {
		t.Error("Oversized frame reached the wire")
	}
}

func TestEMACNetIfRestartsAfterReset(t *testing.T) {
	n, c := setupEMACNetIf(t)
	m := periph.EMAC{Bus: c, Base: periph.EMAC0Base}
	m.Reset()
	if c.Load(periph.EMAC0Base+periph.EMACRxDLAddr) != 0 {
		t.Fatal("Reset kept the receive list")
	}
	if err := n.Configure(NetConfig{MAC: testMAC}); err != nil {
		t.Fatal(err)
	}
	if got := c.Load(periph.EMAC0Base + periph.EMACRxDLAddr); got != n.rxDesc(0) {
		t.Errorf("Receive list = %#x, want %#x", got, n.rxDesc(0))
	}
	if !c.EMAC.Inject(clientFrame([]byte("x"))) {
		t.Error("Receiver not restarted")
	}
}

func TestEMACNetIfWithoutEMAC(t *testing.T) {
	newTestChip(t, board.EKTM4C123GXL)
	if err := NewEMACNetIf().Configure(NetConfig{}); !errors.Is(err, ErrNoHardware) {
		t.Errorf("Expected ErrNoHardware, got %v", err)
	}
}
