package bridge

import (
	"context"
	"fmt"
	"net"

	"tivago/protocol"
)

// EthInfo is the eth_info reply
type EthInfo struct {
	Link    bool
	MAC     net.HardwareAddr
	IP      net.IP
	Gateway net.IP
	Subnet  net.IPMask
	DNS     net.IP
}

type replyReader struct {
	name string
	data []byte
	err  error
}

func (r *replyReader) uint() uint32 {
	if r.err != nil {
		return 0
	}
	v, err := protocol.DecodeVLQUint(&r.data)
	if err != nil {
		r.err = fmt.Errorf("%s: %w", r.name, ErrMalformedReply)
	}
	return v
}

func (r *replyReader) bytes() []byte {
	if r.err != nil {
		return nil
	}
	p, err := protocol.DecodeVLQBytes(&r.data)
	if err != nil {
		r.err = fmt.Errorf("%s: %w", r.name, ErrMalformedReply)
		return nil
	}
	return append([]byte(nil), p...)
}

func (c *Client) read(ctx context.Context, name string, args func(out protocol.OutputBuffer)) (*replyReader, error) {
	data, err := c.Call(ctx, name, args)
	if err != nil {
		return nil, err
	}
	return &replyReader{name: name, data: data}, nil
}

func vlqArgs(vs ...uint32) func(out protocol.OutputBuffer) {
	return func(out protocol.OutputBuffer) {
		for _, v := range vs {
			protocol.EncodeVLQUint(out, v)
		}
	}
}

// SPIConfig sets the clock in Hz, data mode and bit order used by later
// transfers on module
func (c *Client) SPIConfig(ctx context.Context, module uint8, clock uint32, mode, order uint8) error {
	_, err := c.Call(ctx, "spi_config", vlqArgs(uint32(module), clock, uint32(mode), uint32(order)))
	return err
}

// SPITransfer clocks data out on module and returns what was clocked in
func (c *Client) SPITransfer(ctx context.Context, module uint8, data []byte) ([]byte, error) {
	r, err := c.read(ctx, "spi_transfer", func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, uint32(module))
		protocol.EncodeVLQBytes(out, data)
	})
	if err != nil {
		return nil, err
	}
	rx := r.bytes()
	return rx, r.err
}

// I2CWrite writes data to addr with a stop and returns the bus status
// (0 success, 2 address NACK, 3 data NACK, 4 other)
func (c *Client) I2CWrite(ctx context.Context, module, addr uint8, data []byte) (uint8, error) {
	r, err := c.read(ctx, "i2c_write", func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, uint32(module))
		protocol.EncodeVLQUint(out, uint32(addr))
		protocol.EncodeVLQBytes(out, data)
	})
	if err != nil {
		return 0, err
	}
	status := r.uint()
	return uint8(status), r.err
}

// I2CRead reads up to count bytes from addr. A short result means the
// device did not answer.
func (c *Client) I2CRead(ctx context.Context, module, addr, count uint8) ([]byte, error) {
	r, err := c.read(ctx, "i2c_read", vlqArgs(uint32(module), uint32(addr), uint32(count)))
	if err != nil {
		return nil, err
	}
	data := r.bytes()
	return data, r.err
}

// ServoAttach attaches a servo to pin. Zero bounds select the defaults. The
// firmware answers 255 when no slot or pin is available.
func (c *Client) ServoAttach(ctx context.Context, pin uint8, minUS, maxUS uint32) (uint8, error) {
	r, err := c.read(ctx, "servo_attach", vlqArgs(uint32(pin), minUS, maxUS))
	if err != nil {
		return 0, err
	}
	idx := r.uint()
	return uint8(idx), r.err
}

// ServoWrite sets an angle (below 544) or a pulse width in microseconds and
// returns the resulting pulse width
func (c *Client) ServoWrite(ctx context.Context, index uint8, value uint32) (uint32, error) {
	r, err := c.read(ctx, "servo_write", vlqArgs(uint32(index), value))
	if err != nil {
		return 0, err
	}
	us := r.uint()
	return us, r.err
}

func (c *Client) ServoDetach(ctx context.Context, index uint8) error {
	_, err := c.Call(ctx, "servo_detach", vlqArgs(uint32(index)))
	return err
}

// EthInfo reads the link state and addressing of the Ethernet port
func (c *Client) EthInfo(ctx context.Context) (*EthInfo, error) {
	r, err := c.read(ctx, "eth_info", nil)
	if err != nil {
		return nil, err
	}
	info := &EthInfo{Link: r.uint() != 0}
	info.MAC = net.HardwareAddr(r.bytes())
	info.IP = net.IP(r.bytes())
	info.Gateway = net.IP(r.bytes())
	info.Subnet = net.IPMask(r.bytes())
	info.DNS = net.IP(r.bytes())
	if r.err != nil {
		return nil, r.err
	}
	return info, nil
}
