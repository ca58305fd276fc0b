// Two-wire master and slave on the I2C modules. Master transfers complete
// synchronously; the slave half runs from the module's interrupt.
package core

import (
	"errors"

	"tinygo.org/x/drivers"

	"tivago/board"
	"tivago/periph"
)

// Wire states
const (
	WireIdle uint8 = iota
	WireMasterTX
	WireMasterRX
	WireSlaveRX
	WireSlaveTX
)

// EndTransmission status codes
const (
	WireSuccess     uint8 = 0
	WireDataTooLong uint8 = 1
	WireAddrNack    uint8 = 2
	WireDataNack    uint8 = 3
	WireOtherError  uint8 = 4
)

var (
	ErrWireDataTooLong = errors.New("i2c: data too long")
	ErrWireAddrNack    = errors.New("i2c: address not acknowledged")
	ErrWireDataNack    = errors.New("i2c: data not acknowledged")
	ErrWireBus         = errors.New("i2c: bus error")
)

// WireStatusError maps an EndTransmission status to an error
func WireStatusError(status uint8) error {
	switch status {
	case WireSuccess:
		return nil
	case WireDataTooLong:
		return ErrWireDataTooLong
	case WireAddrNack:
		return ErrWireAddrNack
	case WireDataNack:
		return ErrWireDataNack
	}
	return ErrWireBus
}

// Wire is one I2C module
type Wire struct {
	module uint8
	state  uint8

	txAddr     uint8
	writeError bool
	highSpeed  bool

	rx ring
	tx ring

	slaveSent uint32
	onReceive func(n int)
	onRequest func()
}

// NewWire returns the Wire on module, or the board default for NoModule
func NewWire(module uint8) *Wire {
	return &Wire{module: module}
}

// Module returns the selected I2C table index
func (w *Wire) Module() uint8 {
	return w.module
}

// State returns the current transfer state
func (w *Wire) State() uint8 {
	return w.state
}

func (w *Wire) config() (board.I2CConfig, error) {
	h := MustHardware()
	if int(w.module) >= len(h.Board.I2C) {
		return board.I2CConfig{}, ErrNoModule
	}
	return h.Board.I2C[w.module], nil
}

// i2c returns the module's registers, or false when the module is invalid
func (w *Wire) i2c() (periph.I2C, bool) {
	cfg, err := w.config()
	if err != nil {
		return periph.I2C{}, false
	}
	return periph.I2C{Bus: MustHardware().Bus, Base: cfg.Base}, true
}

// Begin enables the module as a 100 kHz master
func (w *Wire) Begin() error {
	h := MustHardware()
	if w.module == NoModule {
		w.module = h.Board.DefaultWire
	}
	cfg, err := w.config()
	if err != nil {
		return err
	}
	h.sysctl().EnablePeripheral(cfg.Periph)
	h.configurePins(cfg.SCL, cfg.SDA)
	h.padsByPort(periph.GPIO.PinTypeI2CSCL, cfg.SCL)
	h.padsByPort(periph.GPIO.PinTypeI2C, cfg.SDA)

	i2c := periph.I2C{Bus: h.Bus, Base: cfg.Base}
	i2c.MasterInitExpClk(h.Board.SysClk, periph.I2CStandardMode)
	w.highSpeed = false
	w.state = WireIdle
	w.rx.reset()
	w.tx.reset()
	return nil
}

// BeginSlave also answers as a target at addr, with data, start and stop
// interrupts routed to HandleInterrupt
func (w *Wire) BeginSlave(addr uint8) error {
	if err := w.Begin(); err != nil {
		return err
	}
	cfg, _ := w.config()
	i, _ := w.i2c()
	i.SlaveInit(addr)
	i.SlaveIntEnableEx(periph.I2CSlaveIntData | periph.I2CSlaveIntStart | periph.I2CSlaveIntStop)
	if int(w.module) < len(wireSlaves) {
		wireSlaves[w.module] = w
	}
	MustHardware().nvic().IntEnable(cfg.IRQ)
	return nil
}

// wireSlaves are the modules answering as targets, by module index
var wireSlaves [4]*Wire

// HandleWireInterrupt routes an I2C module's ISR to the Wire that called
// BeginSlave on it. Interrupts on other modules are ignored.
func HandleWireInterrupt(module uint8) {
	if int(module) >= len(wireSlaves) || wireSlaves[module] == nil {
		return
	}
	wireSlaves[module].HandleInterrupt()
}

// SetModule switches to another I2C module and brings it up
func (w *Wire) SetModule(module uint8) error {
	w.module = module
	return w.Begin()
}

// SetClock picks the nearest supported bus speed not above hz
func (w *Wire) SetClock(hz uint32) {
	speed := uint32(periph.I2CStandardMode)
	switch {
	case hz >= periph.I2CHighSpeed:
		speed = periph.I2CHighSpeed
	case hz >= periph.I2CFastModePlus:
		speed = periph.I2CFastModePlus
	case hz >= periph.I2CFastMode:
		speed = periph.I2CFastMode
	}
	i, ok := w.i2c()
	if !ok {
		return
	}
	w.highSpeed = speed == periph.I2CHighSpeed
	i.SetSpeed(MustHardware().Board.SysClk, speed)
}

// BeginTransmission starts queueing bytes for addr
func (w *Wire) BeginTransmission(addr uint8) {
	w.txAddr = addr
	w.state = WireMasterTX
	w.writeError = false
	w.tx.reset()
}

// Write queues b, or in slave transmit mode queues the reply. It returns 0
// and latches an error when the buffer is full.
func (w *Wire) Write(b byte) int {
	if !w.tx.put(b) {
		w.writeError = true
		return 0
	}
	return 1
}

// WriteBytes queues p and returns how many bytes fit
func (w *Wire) WriteBytes(p []byte) int {
	n := 0
	for _, b := range p {
		if w.Write(b) == 0 {
			break
		}
		n++
	}
	return n
}

func (w *Wire) startFlag() uint32 {
	if w.highSpeed {
		return periph.I2CMCSHS
	}
	return 0
}

// fail aborts a burst and maps the controller error to a status code
func (w *Wire) fail(i periph.I2C, err uint32) uint8 {
	i.MasterControl(periph.I2CMasterCmdBurstSendErrorStop)
	i.MasterWait()
	status := WireOtherError
	switch {
	case err&periph.I2CMasterErrAddrAck != 0:
		status = WireAddrNack
	case err&periph.I2CMasterErrDataAck != 0:
		status = WireDataNack
	}
	RecordEvent(EvtWireNack, w.module, uint32(status), uint32(w.txAddr))
	return status
}

// EndTransmission sends the queued bytes. With nothing queued it sends only the
// address, a quick command. The stop condition is omitted when sendStop
// is false so a repeated start can follow.
func (w *Wire) EndTransmission(sendStop bool) uint8 {
	defer func() { w.state = WireIdle }()
	if w.writeError {
		w.writeError = false
		w.tx.reset()
		return WireDataTooLong
	}

	i, ok := w.i2c()
	if !ok {
		w.tx.reset()
		return WireOtherError
	}
	i.MasterSlaveAddrSet(w.txAddr, false)
	n := w.tx.len()
	if n == 0 {
		i.MasterControl(periph.I2CMasterCmdQuickCommand | w.startFlag())
		i.MasterWait()
		if err := i.MasterErr(); err != periph.I2CMasterErrNone {
			return w.fail(i, err)
		}
		return WireSuccess
	}

	for k := 0; k < n; k++ {
		b, _ := w.tx.get()
		i.MasterDataPut(b)
		cmd := uint32(periph.I2CMCSRun)
		if k == 0 {
			cmd |= periph.I2CMCSStart | w.startFlag()
		}
		if k == n-1 && sendStop {
			cmd |= periph.I2CMCSStop
		}
		i.MasterControl(cmd)
		i.MasterWait()
		if err := i.MasterErr(); err != periph.I2CMasterErrNone {
			w.tx.reset()
			return w.fail(i, err)
		}
	}
	return WireSuccess
}

// RequestFrom reads up to BufferLength bytes from addr into the receive
// buffer and returns how many arrived
func (w *Wire) RequestFrom(addr uint8, qty int, sendStop bool) int {
	if qty <= 0 {
		return 0
	}
	if qty > BufferLength {
		qty = BufferLength
	}
	w.state = WireMasterRX
	defer func() { w.state = WireIdle }()
	w.rx.reset()
	w.txAddr = addr

	i, ok := w.i2c()
	if !ok {
		return 0
	}
	i.MasterSlaveAddrSet(addr, true)
	for k := 0; k < qty; k++ {
		var cmd uint32
		switch {
		case qty == 1 && sendStop:
			cmd = periph.I2CMasterCmdSingleReceive
		case qty == 1:
			cmd = periph.I2CMCSRun | periph.I2CMCSStart
		case k == 0:
			cmd = periph.I2CMasterCmdBurstReceiveStart
		case k < qty-1:
			cmd = periph.I2CMasterCmdBurstReceiveCont
		case sendStop:
			cmd = periph.I2CMasterCmdBurstReceiveFinish
		default:
			cmd = periph.I2CMCSRun
		}
		if k == 0 {
			cmd |= w.startFlag()
		}
		i.MasterControl(cmd)
		i.MasterWait()
		if err := i.MasterErr(); err != periph.I2CMasterErrNone {
			w.fail(i, err)
			w.rx.reset()
			return 0
		}
		w.rx.put(i.MasterDataGet())
	}
	return w.rx.len()
}

// Available is the number of received bytes not yet read
func (w *Wire) Available() int {
	return w.rx.len()
}

// Read returns the next received byte or -1
func (w *Wire) Read() int {
	b, ok := w.rx.get()
	if !ok {
		return -1
	}
	return int(b)
}

// Peek returns the next received byte without consuming it, or -1
func (w *Wire) Peek() int {
	b, ok := w.rx.peek()
	if !ok {
		return -1
	}
	return int(b)
}

// Flush is a no-op: transmissions finish before EndTransmission returns
func (w *Wire) Flush() {}

// OnReceive registers the callback run with the byte count when a remote
// master finishes writing to us
func (w *Wire) OnReceive(fn func(n int)) {
	w.onReceive = fn
}

// OnRequest registers the callback that queues the reply to a remote read
func (w *Wire) OnRequest(fn func()) {
	w.onRequest = fn
}

func (w *Wire) deliverReceive() {
	RecordEvent(EvtWireSlaveRx, w.module, uint32(w.rx.len()), 0)
	if w.onReceive != nil {
		w.onReceive(w.rx.len())
	}
}

// HandleInterrupt services the slave half; target code calls it from the
// module's ISR
func (w *Wire) HandleInterrupt() {
	i, ok := w.i2c()
	if !ok {
		return
	}
	status := i.SlaveIntStatusEx(true)
	i.SlaveIntClearEx(status)

	if status&periph.I2CSlaveIntStart != 0 {
		// repeated start ends the previous transfer
		switch w.state {
		case WireSlaveRX:
			w.deliverReceive()
		case WireSlaveTX:
			w.endSlaveTX()
		}
		w.state = WireIdle
	}

	if status&periph.I2CSlaveIntData != 0 {
		scsr := i.SlaveStatus()
		switch {
		case scsr&periph.I2CSCSRRReq != 0:
			if w.state != WireSlaveRX {
				w.state = WireSlaveRX
				w.rx.reset()
			}
			w.rx.put(i.SlaveDataGet())
		case scsr&periph.I2CSCSRTReq != 0:
			if w.state != WireSlaveTX {
				w.state = WireSlaveTX
				w.slaveSent = 0
				if w.onRequest != nil {
					w.onRequest()
				}
			}
			b, ok := w.tx.get()
			if !ok {
				b = 0xFF
			}
			i.SlaveDataPut(b)
			w.slaveSent++
		}
	}

	if status&periph.I2CSlaveIntStop != 0 {
		switch w.state {
		case WireSlaveRX:
			w.deliverReceive()
		case WireSlaveTX:
			w.endSlaveTX()
		}
		w.state = WireIdle
	}
}

// endSlaveTX drops whatever the master did not read; the next read starts
// from an empty response
func (w *Wire) endSlaveTX() {
	RecordEvent(EvtWireSlaveTx, w.module, w.slaveSent, 0)
	w.tx.reset()
}

// Driver adapts w to the tinygo.org/x/drivers I2C interface
func (w *Wire) Driver() drivers.I2C {
	return wireDriver{w}
}

type wireDriver struct {
	w *Wire
}

var _ drivers.I2C = wireDriver{}

// Tx writes wbuf then reads into rbuf with a repeated start between them
func (d wireDriver) Tx(addr uint16, wbuf, rbuf []byte) error {
	w := d.w
	if len(wbuf) > BufferLength || len(rbuf) > BufferLength {
		return ErrWireDataTooLong
	}
	if len(wbuf) > 0 || len(rbuf) == 0 {
		w.BeginTransmission(uint8(addr))
		w.WriteBytes(wbuf)
		if err := WireStatusError(w.EndTransmission(len(rbuf) == 0)); err != nil {
			return err
		}
	}
	if len(rbuf) == 0 {
		return nil
	}
	if w.RequestFrom(uint8(addr), len(rbuf), true) != len(rbuf) {
		if len(wbuf) == 0 {
			return ErrWireAddrNack
		}
		return ErrWireBus
	}
	for k := range rbuf {
		rbuf[k] = byte(w.Read())
	}
	return nil
}

// ReadRegister reads len(buf) bytes starting at register r
func (d wireDriver) ReadRegister(addr uint8, r uint8, buf []byte) error {
	return d.Tx(uint16(addr), []byte{r}, buf)
}

// WriteRegister writes buf starting at register r
func (d wireDriver) WriteRegister(addr uint8, r uint8, buf []byte) error {
	data := make([]byte, 0, len(buf)+1)
	data = append(data, r)
	data = append(data, buf...)
	return d.Tx(uint16(addr), data, nil)
}
