package core

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math/rand"
	"net"
	"time"

	"github.com/d2g/dhcp4"
	"github.com/jpillora/backoff"
)

const (
	dhcpRetryMin       = 500 * time.Millisecond
	dhcpRetryMax       = 8 * time.Second
	dhcpAttemptTimeout = 4 * time.Second

	dhcpMinPacket = 240 // fixed header plus magic cookie
)

var ErrDHCPNak = errors.New("dhcp: request declined by server")

// Lease is the result of a completed DORA exchange
type Lease struct {
	IP       IPAddress
	Subnet   IPAddress
	Router   IPAddress
	DNS      IPAddress
	Server   IPAddress
	Duration time.Duration
}

func ipFrom(b []byte) IPAddress {
	var a IPAddress
	if len(b) >= 4 {
		copy(a[:], b[:4])
	}
	return a
}

func newXID() []byte {
	xid := make([]byte, 4)
	binary.BigEndian.PutUint32(xid, rand.Uint32())
	return xid
}

// awaitReply waits for a reply to xid of type want. A NAK ends the wait.
func awaitReply(ctx context.Context, nif NetIf, xid []byte, want dhcp4.MessageType) (dhcp4.Packet, error) {
	for {
		b, err := nif.ReceiveDHCP(ctx)
		if err != nil {
			return nil, err
		}
		p := dhcp4.Packet(b)
		if len(p) < dhcpMinPacket || p.OpCode() != dhcp4.BootReply || !bytes.Equal(p.XId(), xid) {
			continue
		}
		mt := p.ParseOptions()[dhcp4.OptionDHCPMessageType]
		if len(mt) != 1 {
			continue
		}
		switch dhcp4.MessageType(mt[0]) {
		case want:
			return p, nil
		case dhcp4.NAK:
			return nil, ErrDHCPNak
		}
	}
}

// dhcpExchange runs one Discover, Offer, Request, ACK round
func dhcpExchange(ctx context.Context, nif NetIf, mac [6]byte, xid []byte) (*Lease, error) {
	chaddr := net.HardwareAddr(mac[:])

	discover := dhcp4.RequestPacket(dhcp4.Discover, chaddr, nil, xid, true, nil)
	if err := nif.SendDHCP(ctx, discover); err != nil {
		return nil, err
	}
	offer, err := awaitReply(ctx, nif, xid, dhcp4.Offer)
	if err != nil {
		return nil, err
	}

	server := offer.ParseOptions()[dhcp4.OptionServerIdentifier]
	request := dhcp4.RequestPacket(dhcp4.Request, chaddr, nil, xid, true, []dhcp4.Option{
		{Code: dhcp4.OptionRequestedIPAddress, Value: offer.YIAddr().To4()},
		{Code: dhcp4.OptionServerIdentifier, Value: server},
	})
	if err := nif.SendDHCP(ctx, request); err != nil {
		return nil, err
	}
	ack, err := awaitReply(ctx, nif, xid, dhcp4.ACK)
	if err != nil {
		return nil, err
	}

	opts := ack.ParseOptions()
	lease := &Lease{
		IP:     ipFrom(ack.YIAddr().To4()),
		Subnet: ipFrom(opts[dhcp4.OptionSubnetMask]),
		Router: ipFrom(opts[dhcp4.OptionRouter]),
		DNS:    ipFrom(opts[dhcp4.OptionDomainNameServer]),
		Server: ipFrom(opts[dhcp4.OptionServerIdentifier]),
	}
	if lt := opts[dhcp4.OptionIPAddressLeaseTime]; len(lt) == 4 {
		lease.Duration = time.Duration(binary.BigEndian.Uint32(lt)) * time.Second
	}
	return lease, nil
}

// runDHCP retries the exchange with backoff until a lease arrives or ctx
// ends
func (e *Ethernet) runDHCP(ctx context.Context) (*Lease, error) {
	b := &backoff.Backoff{Min: dhcpRetryMin, Max: dhcpRetryMax, Factor: 2, Jitter: true}
	for {
		attempt, cancel := context.WithTimeout(ctx, dhcpAttemptTimeout)
		lease, err := dhcpExchange(attempt, e.netif, e.cfg.MAC, newXID())
		cancel()
		if err == nil {
			RecordEvent(EvtDHCP, 0, uint32(b.Attempt()), 1)
			return lease, nil
		}
		RecordEvent(EvtDHCP, 0, uint32(b.Attempt()), 0)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, ErrNoTransport) {
			return nil, err
		}

		wait := time.NewTimer(b.Duration())
		select {
		case <-ctx.Done():
			wait.Stop()
			return nil, ctx.Err()
		case <-wait.C:
		}
	}
}
