package core

import (
	"errors"
	"io"

	"tivago/protocol"
)

// Response status, the first field after the command ID
const (
	StatusOK    = 0
	StatusError = 1
)

const (
	identifyChunkMax = 40
	errorTextMax     = 40
)

var (
	ErrNoEthernet   = errors.New("no ethernet port")
	ErrServoInvalid = errors.New("no such servo")
)

// Bridge serves the peripheral commands over a framed byte stream. Feed it
// received bytes with Write; replies go to the writer given to NewBridge.
type Bridge struct {
	reg  *CommandRegistry
	dict *Dictionary
	out  io.Writer
	dec  *protocol.Decoder

	body  protocol.ScratchOutput
	frame protocol.ScratchOutput

	spi         *SPI
	spiSettings SPISettings
	wires       map[uint8]*Wire
	servos      [MaxServos]*Servo
	eth         *Ethernet

	Errors uint32
}

// NewBridge registers the bridge commands. eth may be nil on boards without
// Ethernet.
func NewBridge(out io.Writer, eth *Ethernet) *Bridge {
	h := MustHardware()
	b := &Bridge{
		reg:         NewCommandRegistry(),
		out:         out,
		spiSettings: DefaultSettings(),
		wires:       make(map[uint8]*Wire),
		eth:         eth,
	}
	b.dec = protocol.NewDecoder(b.handleFrame)
	b.dict = NewDictionary(b.reg, protocol.Version, h.Board.Name)
	b.dict.AddConstant("SYSCLK", utoa(h.Board.SysClk))
	b.dict.AddConstant("SSI_MODULES", itoa(len(h.Board.SSI)))
	b.dict.AddConstant("I2C_MODULES", itoa(len(h.Board.I2C)))
	b.dict.AddConstant("BUFFER_LENGTH", itoa(BufferLength))
	b.dict.AddConstant("MAX_SERVOS", itoa(MaxServos))
	b.dict.AddConstant("FRAME_MAX", itoa(protocol.MessageLengthMax))

	// identify must stay first: the host finds it at ID 0 before it has
	// read the dictionary
	b.reg.Register("identify", "offset=%u count=%c", "offset=%u data=%*s", b.handleIdentify)
	b.reg.Register("spi_config", "module=%c clock=%u mode=%c order=%c", "", b.handleSPIConfig)
	b.reg.Register("spi_transfer", "module=%c data=%*s", "data=%*s", b.handleSPITransfer)
	b.reg.Register("i2c_write", "module=%c addr=%c data=%*s", "status=%c", b.handleI2CWrite)
	b.reg.Register("i2c_read", "module=%c addr=%c count=%c", "data=%*s", b.handleI2CRead)
	b.reg.Register("servo_attach", "pin=%c min=%u max=%u", "index=%c", b.handleServoAttach)
	b.reg.Register("servo_write", "index=%c value=%u", "us=%u", b.handleServoWrite)
	b.reg.Register("servo_detach", "index=%c", "", b.handleServoDetach)
	b.reg.Register("eth_info", "", "link=%c mac=%*s ip=%*s gateway=%*s subnet=%*s dns=%*s", b.handleEthInfo)
	return b
}

// Registry exposes the command table
func (b *Bridge) Registry() *CommandRegistry {
	return b.reg
}

// Dictionary exposes the identify data
func (b *Bridge) Dictionary() *Dictionary {
	return b.dict
}

// Write feeds bytes received from the host
func (b *Bridge) Write(p []byte) (int, error) {
	return b.dec.Write(p)
}

// Decoder exposes the frame statistics
func (b *Bridge) Decoder() *protocol.Decoder {
	return b.dec
}

func (b *Bridge) handleFrame(f protocol.Frame) {
	data := f.Payload
	id, err := protocol.DecodeVLQUint(&data)
	b.body.Reset()
	if err == nil {
		err = b.reg.Dispatch(uint16(id), &data, &b.body)
	}
	if err == nil && b.body.Overflow() {
		err = protocol.ErrFrameTooLong
	}
	if b.encodeReply(f.Seq, id, err) != nil {
		// the reply did not fit a frame
		b.encodeReply(f.Seq, id, protocol.ErrFrameTooLong)
	}
	RecordEvent(EvtBridgeFrame, uint8(id), uint32(f.Seq), uint32(len(f.Payload)))
	if _, err := b.out.Write(b.frame.Result()); err != nil {
		DebugPrintln("[BRIDGE] write failed: " + err.Error())
	}
}

// encodeReply frames the reply to command id: the status, then either the
// handler's fields or the error text
func (b *Bridge) encodeReply(seq uint8, id uint32, herr error) error {
	b.frame.Reset()
	return protocol.EncodeFrame(&b.frame, seq, func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, id)
		if herr != nil {
			b.Errors++
			RecordEvent(EvtBridgeError, uint8(id), b.Errors, 0)
			msg := herr.Error()
			if len(msg) > errorTextMax {
				msg = msg[:errorTextMax]
			}
			protocol.EncodeVLQUint(out, StatusError)
			protocol.EncodeVLQString(out, msg)
			return
		}
		protocol.EncodeVLQUint(out, StatusOK)
		out.Output(b.body.Result())
	})
}

func decodeArgs(data *[]byte, args ...*uint32) error {
	for _, a := range args {
		v, err := protocol.DecodeVLQUint(data)
		if err != nil {
			return err
		}
		*a = v
	}
	return nil
}

func (b *Bridge) handleIdentify(data *[]byte, out protocol.OutputBuffer) error {
	var offset, count uint32
	if err := decodeArgs(data, &offset, &count); err != nil {
		return err
	}
	if count > identifyChunkMax {
		count = identifyChunkMax
	}
	protocol.EncodeVLQUint(out, offset)
	protocol.EncodeVLQBytes(out, b.dict.Chunk(offset, uint8(count)))
	return nil
}

// spiModule returns the SPI on module. Only one module is active at a time;
// switching releases the previous one.
func (b *Bridge) spiModule(module uint8) (*SPI, error) {
	if b.spi != nil && b.spi.Module() == module {
		return b.spi, nil
	}
	if b.spi != nil {
		b.spi.End()
		b.spi = nil
	}
	s := NewSPI(module)
	if err := s.Begin(); err != nil {
		return nil, err
	}
	b.spi = s
	return s, nil
}

func (b *Bridge) handleSPIConfig(data *[]byte, out protocol.OutputBuffer) error {
	var module, clock, mode, order uint32
	if err := decodeArgs(data, &module, &clock, &mode, &order); err != nil {
		return err
	}
	if _, err := b.spiModule(uint8(module)); err != nil {
		return err
	}
	b.spiSettings = SPISettings{Clock: clock, DataMode: DataMode(mode), BitOrder: BitOrder(order)}
	return nil
}

func (b *Bridge) handleSPITransfer(data *[]byte, out protocol.OutputBuffer) error {
	var module uint32
	if err := decodeArgs(data, &module); err != nil {
		return err
	}
	tx, err := protocol.DecodeVLQBytes(data)
	if err != nil {
		return err
	}
	s, err := b.spiModule(uint8(module))
	if err != nil {
		return err
	}
	buf := append([]byte(nil), tx...)
	s.BeginTransaction(b.spiSettings)
	s.TransferBuffer(buf)
	s.EndTransaction()
	protocol.EncodeVLQBytes(out, buf)
	return nil
}

func (b *Bridge) wire(module uint8) (*Wire, error) {
	if w, ok := b.wires[module]; ok {
		return w, nil
	}
	w := NewWire(module)
	if err := w.Begin(); err != nil {
		return nil, err
	}
	b.wires[module] = w
	return w, nil
}

func (b *Bridge) handleI2CWrite(data *[]byte, out protocol.OutputBuffer) error {
	var module, addr uint32
	if err := decodeArgs(data, &module, &addr); err != nil {
		return err
	}
	p, err := protocol.DecodeVLQBytes(data)
	if err != nil {
		return err
	}
	w, err := b.wire(uint8(module))
	if err != nil {
		return err
	}
	w.BeginTransmission(uint8(addr))
	w.WriteBytes(p)
	protocol.EncodeVLQUint(out, uint32(w.EndTransmission(true)))
	return nil
}

func (b *Bridge) handleI2CRead(data *[]byte, out protocol.OutputBuffer) error {
	var module, addr, count uint32
	if err := decodeArgs(data, &module, &addr, &count); err != nil {
		return err
	}
	w, err := b.wire(uint8(module))
	if err != nil {
		return err
	}
	n := w.RequestFrom(uint8(addr), int(count), true)
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(w.Read())
	}
	protocol.EncodeVLQBytes(out, buf)
	return nil
}

func (b *Bridge) handleServoAttach(data *[]byte, out protocol.OutputBuffer) error {
	var pin, minUS, maxUS uint32
	if err := decodeArgs(data, &pin, &minUS, &maxUS); err != nil {
		return err
	}
	if minUS == 0 {
		minUS = MinServoPulse
	}
	if maxUS == 0 {
		maxUS = MaxServoPulse
	}
	s := NewServo()
	idx := s.AttachRange(uint8(pin), minUS, maxUS)
	if idx != InvalidServo {
		b.servos[idx] = s
	}
	protocol.EncodeVLQUint(out, uint32(idx))
	return nil
}

func (b *Bridge) servo(data *[]byte) (*Servo, error) {
	idx, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return nil, err
	}
	if idx >= MaxServos || b.servos[idx] == nil {
		return nil, ErrServoInvalid
	}
	return b.servos[idx], nil
}

func (b *Bridge) handleServoWrite(data *[]byte, out protocol.OutputBuffer) error {
	s, err := b.servo(data)
	if err != nil {
		return err
	}
	v, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	s.Write(v)
	protocol.EncodeVLQUint(out, s.ReadMicroseconds())
	return nil
}

func (b *Bridge) handleServoDetach(data *[]byte, out protocol.OutputBuffer) error {
	s, err := b.servo(data)
	if err != nil {
		return err
	}
	s.Detach()
	b.servos[s.Index()] = nil
	return nil
}

func (b *Bridge) handleEthInfo(data *[]byte, out protocol.OutputBuffer) error {
	if b.eth == nil {
		return ErrNoEthernet
	}
	var link uint32
	if b.eth.LinkUp() {
		link = 1
	}
	mac := make([]byte, 6)
	b.eth.MACAddress(mac)
	ip, gw, mask, dns := b.eth.LocalIP(), b.eth.GatewayIP(), b.eth.SubnetMask(), b.eth.DNSServerIP()
	protocol.EncodeVLQUint(out, link)
	protocol.EncodeVLQBytes(out, mac)
	protocol.EncodeVLQBytes(out, ip[:])
	protocol.EncodeVLQBytes(out, gw[:])
	protocol.EncodeVLQBytes(out, mask[:])
	protocol.EncodeVLQBytes(out, dns[:])
	return nil
}
