package core

import (
	"context"
	"encoding/binary"
	"errors"
	"time"

	"tivago/periph"
)

// Descriptor rings and frame buffers, laid out in the DMA arena as
// rx descriptors, tx descriptors, rx buffers, tx buffers
const (
	emacRxDescs  = 4
	emacTxDescs  = 2
	emacBufSize  = 1536
	emacRxDesc0  = 0
	emacTxDesc0  = emacRxDesc0 + emacRxDescs*periph.EMACDescSize
	emacRxBuf0   = emacTxDesc0 + emacTxDescs*periph.EMACDescSize
	emacTxBuf0   = emacRxBuf0 + emacRxDescs*emacBufSize
	emacArenaLen = emacTxBuf0 + emacTxDescs*emacBufSize

	rxPollInterval = time.Millisecond
)

// Ethernet, IPv4 and UDP framing of DHCP
const (
	etherHeaderLen = 14
	etherTypeIPv4  = 0x0800
	ipv4HeaderLen  = 20
	ipProtoUDP     = 17
	ipTTL          = 64
	udpHeaderLen   = 8
	dhcpServerPort = 67
	dhcpClientPort = 68
)

var (
	ErrFrameTooLong = errors.New("frame does not fit a DMA buffer")

	broadcastMAC = [6]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	broadcastIP  = IPAddress{255, 255, 255, 255}
)

// EMACNetIf carries DHCP over the EMAC's DMA. It is enough to lease an
// address; other traffic is dropped.
type EMACNetIf struct {
	Config NetConfig
	Ticks  uint32

	base   uint32
	rxNext uint8
	txNext uint8
	ipID   uint16
}

// NewEMACNetIf places the descriptor rings in the DMA arena
func NewEMACNetIf() *EMACNetIf {
	return &EMACNetIf{base: dmaArenaBase()}
}

func (n *EMACNetIf) rxDesc(i uint8) uint32 { return n.base + emacRxDesc0 + uint32(i)*periph.EMACDescSize }
func (n *EMACNetIf) txDesc(i uint8) uint32 { return n.base + emacTxDesc0 + uint32(i)*periph.EMACDescSize }
func (n *EMACNetIf) rxBuf(i uint8) uint32  { return n.base + emacRxBuf0 + uint32(i)*emacBufSize }
func (n *EMACNetIf) txBuf(i uint8) uint32  { return n.base + emacTxBuf0 + uint32(i)*emacBufSize }

// Configure records cfg and (re)starts the DMA when a controller reset has
// dropped the descriptor lists
func (n *EMACNetIf) Configure(cfg NetConfig) error {
	n.Config = cfg
	h := MustHardware()
	if !h.Board.HasEMAC {
		return ErrNoHardware
	}
	m := periph.EMAC{Bus: h.Bus, Base: periph.EMAC0Base}
	if h.Bus.Load(periph.EMAC0Base+periph.EMACRxDLAddr) != n.rxDesc(0) {
		n.initRings()
		m.DMAInit(n.txDesc(0), n.rxDesc(0))
		m.RxPollDemand()
	}
	return nil
}

func (n *EMACNetIf) initRings() {
	b := MustHardware().Bus
	for i := uint8(0); i < emacRxDescs; i++ {
		d := n.rxDesc(i)
		b.Store(d+periph.EMACDes1, periph.EMACRDes1RCH|emacBufSize)
		b.Store(d+periph.EMACDes2, n.rxBuf(i))
		b.Store(d+periph.EMACDes3, n.rxDesc((i+1)%emacRxDescs))
		b.Store(d+periph.EMACDes0, periph.EMACDescOwn)
	}
	for i := uint8(0); i < emacTxDescs; i++ {
		d := n.txDesc(i)
		b.Store(d+periph.EMACDes0, periph.EMACTDes0TCH)
		b.Store(d+periph.EMACDes1, 0)
		b.Store(d+periph.EMACDes2, n.txBuf(i))
		b.Store(d+periph.EMACDes3, n.txDesc((i+1)%emacTxDescs))
	}
	n.rxNext, n.txNext = 0, 0
}

func (n *EMACNetIf) Tick(uint32) {
	n.Ticks++
}

// SendDHCP broadcasts p from the client port to the server port
func (n *EMACNetIf) SendDHCP(ctx context.Context, p []byte) error {
	n.ipID++
	frame := udpFrame(n.Config.MAC, broadcastMAC, n.Config.Local, broadcastIP,
		dhcpClientPort, dhcpServerPort, n.ipID, p)
	return n.transmit(ctx, frame)
}

func (n *EMACNetIf) transmit(ctx context.Context, frame []byte) error {
	if len(frame) > emacBufSize {
		return ErrFrameTooLong
	}
	h := MustHardware()
	d := n.txDesc(n.txNext)
	for h.Bus.Load(d+periph.EMACDes0)&periph.EMACDescOwn != 0 {
		if err := waitPoll(ctx); err != nil {
			return err
		}
	}
	periph.WriteMem(h.Bus, n.txBuf(n.txNext), frame)
	h.Bus.Store(d+periph.EMACDes1, uint32(len(frame)))
	h.Bus.Store(d+periph.EMACDes0,
		periph.EMACDescOwn|periph.EMACTDes0IC|periph.EMACTDes0FS|periph.EMACTDes0LS|periph.EMACTDes0TCH)
	n.txNext = (n.txNext + 1) % emacTxDescs
	periph.EMAC{Bus: h.Bus, Base: periph.EMAC0Base}.TxPollDemand()
	return nil
}

// ReceiveDHCP returns the payload of the next UDP datagram for the client
// port. Other frames are handed back to the DMA unread.
func (n *EMACNetIf) ReceiveDHCP(ctx context.Context) ([]byte, error) {
	for {
		frame, ok := n.receive()
		if !ok {
			if err := waitPoll(ctx); err != nil {
				return nil, err
			}
			continue
		}
		if p, ok := dhcpPayload(frame); ok {
			return p, nil
		}
	}
}

// receive takes the next completed frame off the ring, less its FCS
func (n *EMACNetIf) receive() ([]byte, bool) {
	h := MustHardware()
	d := n.rxDesc(n.rxNext)
	des0 := h.Bus.Load(d + periph.EMACDes0)
	if des0&periph.EMACDescOwn != 0 {
		return nil, false
	}

	var frame []byte
	whole := uint32(periph.EMACRDes0FS | periph.EMACRDes0LS)
	if des0&whole == whole && des0&periph.EMACRDes0ES == 0 {
		fl := int((des0 & periph.EMACRDes0FLMask) >> periph.EMACRDes0FLShift)
		if fl >= 4 {
			frame = periph.ReadMem(h.Bus, h.Bus.Load(d+periph.EMACDes2), fl-4)
		}
	}
	h.Bus.Store(d+periph.EMACDes0, periph.EMACDescOwn)
	n.rxNext = (n.rxNext + 1) % emacRxDescs
	periph.EMAC{Bus: h.Bus, Base: periph.EMAC0Base}.RxPollDemand()
	return frame, true
}

func waitPoll(ctx context.Context) error {
	t := time.NewTimer(rxPollInterval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func ipChecksum(hdr []byte) uint16 {
	var sum uint32
	for i := 0; i+1 < len(hdr); i += 2 {
		sum += uint32(binary.BigEndian.Uint16(hdr[i:]))
	}
	for sum > 0xFFFF {
		sum = sum&0xFFFF + sum>>16
	}
	return ^uint16(sum)
}

// udpFrame wraps p in Ethernet, IPv4 and UDP headers. The UDP checksum is
// left zero, which IPv4 allows.
func udpFrame(srcMAC, dstMAC [6]byte, src, dst IPAddress, sport, dport, id uint16, p []byte) []byte {
	f := make([]byte, etherHeaderLen+ipv4HeaderLen+udpHeaderLen+len(p))
	copy(f[0:], dstMAC[:])
	copy(f[6:], srcMAC[:])
	binary.BigEndian.PutUint16(f[12:], etherTypeIPv4)

	ip := f[etherHeaderLen : etherHeaderLen+ipv4HeaderLen]
	ip[0] = 0x45
	binary.BigEndian.PutUint16(ip[2:], uint16(ipv4HeaderLen+udpHeaderLen+len(p)))
	binary.BigEndian.PutUint16(ip[4:], id)
	ip[8] = ipTTL
	ip[9] = ipProtoUDP
	copy(ip[12:], src[:])
	copy(ip[16:], dst[:])
	binary.BigEndian.PutUint16(ip[10:], ipChecksum(ip))

	udp := f[etherHeaderLen+ipv4HeaderLen:]
	binary.BigEndian.PutUint16(udp[0:], sport)
	binary.BigEndian.PutUint16(udp[2:], dport)
	binary.BigEndian.PutUint16(udp[4:], uint16(udpHeaderLen+len(p)))
	copy(udp[udpHeaderLen:], p)
	return f
}

// dhcpPayload unwraps a UDP datagram addressed to the client port
func dhcpPayload(f []byte) ([]byte, bool) {
	if len(f) < etherHeaderLen+ipv4HeaderLen+udpHeaderLen ||
		binary.BigEndian.Uint16(f[12:]) != etherTypeIPv4 {
		return nil, false
	}
	ip := f[etherHeaderLen:]
	ihl := int(ip[0]&0x0F) * 4
	if ip[0]>>4 != 4 || ihl < ipv4HeaderLen || ip[9] != ipProtoUDP || len(ip) < ihl+udpHeaderLen {
		return nil, false
	}
	if ipChecksum(ip[:ihl]) != 0 {
		return nil, false
	}
	udp := ip[ihl:]
	if binary.BigEndian.Uint16(udp[2:]) != dhcpClientPort {
		return nil, false
	}
	n := int(binary.BigEndian.Uint16(udp[4:]))
	if n < udpHeaderLen || n > len(udp) {
		return nil, false
	}
	return udp[udpHeaderLen:n], true
}
