package sim

import "tivago/periph"

// Target is a device on the simulated bus, addressed by the master half of an
// I2C model
type Target interface {
	// Start is the address phase; false leaves the address unacknowledged
	Start(read bool) bool
	// Write receives one byte; false leaves it unacknowledged
	Write(b byte) bool
	// Read supplies the next byte
	Read() byte
	Stop()
}

// I2C models one I2C module. The master half completes each command
// instantly against the attached Targets. The slave half is exercised by
// MasterWrites and MasterReads, which play a remote master and call Handler
// whenever an unmasked slave interrupt is raised.
type I2C struct {
	Regs    Regs
	Targets map[uint8]Target
	Handler func()

	// Commands logs every MCS write
	Commands []uint32

	active  Target
	reading bool
	status  uint32

	sdrIn  uint8
	sdrOut uint8
	scsr   uint32
	sris   uint32
}

const i2cQuickCommand = 0x20

func newI2C() *I2C {
	return &I2C{Regs: Regs{}, Targets: map[uint8]Target{}}
}

func (i *I2C) Load(off uint32) uint32 {
	switch off {
	case periph.I2CMCS:
		st := i.status
		if i.active == nil {
			st |= periph.I2CMCSIdle
		} else {
			st |= periph.I2CMCSBusBsy
		}
		return st
	case periph.I2CSCSR:
		return i.scsr
	case periph.I2CSDR:
		return uint32(i.sdrIn)
	case periph.I2CSRIS:
		return i.sris
	case periph.I2CSMIS:
		return i.sris & i.Regs[periph.I2CSIMR]
	}
	return i.Regs[off]
}

func (i *I2C) Store(off uint32, v uint32) {
	switch off {
	case periph.I2CMCS:
		i.command(v)
	case periph.I2CSDR:
		i.sdrOut = uint8(v)
	case periph.I2CSICR:
		i.sris &^= v
	default:
		i.Regs[off] = v
	}
}

func (i *I2C) command(cmd uint32) {
	i.Commands = append(i.Commands, cmd)
	i.status = 0

	if cmd&periph.I2CMCSRun == 0 {
		if cmd&periph.I2CMCSStop != 0 {
			i.stop()
		}
		return
	}

	if cmd&periph.I2CMCSStart != 0 {
		if i.active != nil {
			i.active.Stop()
			i.active = nil
		}
		msa := i.Regs[periph.I2CMSA]
		t := i.Targets[uint8(msa>>1)]
		read := msa&1 != 0
		if t == nil || !t.Start(read) {
			i.status = periph.I2CMCSError | periph.I2CMCSAdrAck
			return
		}
		i.active, i.reading = t, read
	}
	if i.active == nil {
		i.status = periph.I2CMCSError
		return
	}

	if cmd&i2cQuickCommand == 0 {
		if i.reading {
			i.Regs[periph.I2CMDR] = uint32(i.active.Read())
		} else if !i.active.Write(uint8(i.Regs[periph.I2CMDR])) {
			i.status = periph.I2CMCSError | periph.I2CMCSDatAck
		}
	}

	if cmd&periph.I2CMCSStop != 0 {
		i.stop()
	}
}

func (i *I2C) stop() {
	if i.active != nil {
		i.active.Stop()
		i.active = nil
	}
}

func (i *I2C) raise(bits uint32) {
	i.sris |= bits
	if i.sris&i.Regs[periph.I2CSIMR] != 0 && i.Handler != nil {
		i.Handler()
	}
}

// MasterWrites plays a remote master writing data to the slave half
func (i *I2C) MasterWrites(data []byte) {
	i.raise(periph.I2CSlaveIntStart)
	i.slaveReceive(data)
	i.scsr = 0
	i.raise(periph.I2CSlaveIntStop)
}

// MasterReads plays a remote master reading n bytes from the slave half
func (i *I2C) MasterReads(n int) []byte {
	i.raise(periph.I2CSlaveIntStart)
	out := i.slaveTransmit(n)
	i.scsr = 0
	i.raise(periph.I2CSlaveIntStop)
	return out
}

// MasterWriteRead plays a register read: data written, a repeated start,
// then n bytes read before the stop
func (i *I2C) MasterWriteRead(data []byte, n int) []byte {
	i.raise(periph.I2CSlaveIntStart)
	i.slaveReceive(data)
	i.scsr = 0
	i.raise(periph.I2CSlaveIntStart)
	out := i.slaveTransmit(n)
	i.scsr = 0
	i.raise(periph.I2CSlaveIntStop)
	return out
}

func (i *I2C) slaveReceive(data []byte) {
	for n, b := range data {
		i.sdrIn = b
		i.scsr = periph.I2CSCSRRReq
		if n == 0 {
			i.scsr |= periph.I2CSCSRFBR
		}
		i.raise(periph.I2CSlaveIntData)
	}
}

func (i *I2C) slaveTransmit(n int) []byte {
	out := make([]byte, 0, n)
	for k := 0; k < n; k++ {
		i.scsr = periph.I2CSCSRTReq
		i.raise(periph.I2CSlaveIntData)
		out = append(out, i.sdrOut)
	}
	return out
}

// SlaveAddr is the programmed own address
func (i *I2C) SlaveAddr() uint8 {
	return uint8(i.Regs[periph.I2CSOAR])
}

// Memory is a register-pointer target: the first byte written after a start
// selects a register, further bytes are stored and auto-increment; reads
// continue from the pointer.
type Memory struct {
	Mem    [256]byte
	ptr    uint8
	first  bool
	Writes [][]byte // one entry per write transaction
	cur    []byte
	// ReadOnly NACKs every data byte written
	ReadOnly bool
}

func (m *Memory) Start(read bool) bool {
	if !read {
		m.first = true
		m.cur = nil
	}
	return true
}

func (m *Memory) Write(b byte) bool {
	if m.ReadOnly {
		return false
	}
	m.cur = append(m.cur, b)
	if m.first {
		m.ptr = b
		m.first = false
		return true
	}
	m.Mem[m.ptr] = b
	m.ptr++
	return true
}

func (m *Memory) Read() byte {
	b := m.Mem[m.ptr]
	m.ptr++
	return b
}

func (m *Memory) Stop() {
	if m.cur != nil {
		m.Writes = append(m.Writes, m.cur)
		m.cur = nil
	}
}
