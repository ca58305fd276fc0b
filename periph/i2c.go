package periph

import "tivago/hw"

// I2C module bases
const (
	I2C0Base = 0x40020000
	I2C1Base = 0x40021000
	I2C2Base = 0x40022000
	I2C3Base = 0x40023000
	I2C4Base = 0x400C0000
	I2C5Base = 0x400C1000
	I2C6Base = 0x400C2000
	I2C7Base = 0x400C3000
	I2C8Base = 0x400B8000
	I2C9Base = 0x400B9000
)

// I2C master register offsets
const (
	I2CMSA   = 0x000
	I2CMCS   = 0x004
	I2CMDR   = 0x008
	I2CMTPR  = 0x00C
	I2CMIMR  = 0x010
	I2CMRIS  = 0x014
	I2CMMIS  = 0x018
	I2CMICR  = 0x01C
	I2CMCR   = 0x020
	I2CMBMON = 0x02C
)

// I2C slave register offsets
const (
	I2CSOAR = 0x800
	I2CSCSR = 0x804
	I2CSDR  = 0x808
	I2CSIMR = 0x80C
	I2CSRIS = 0x810
	I2CSMIS = 0x814
	I2CSICR = 0x818
	I2CPP   = 0xFC0
)

// MCS bits as written
const (
	I2CMCSRun   = 0x01
	I2CMCSStart = 0x02
	I2CMCSStop  = 0x04
	I2CMCSAck   = 0x08
	I2CMCSHS    = 0x10
)

// MCS bits as read
const (
	I2CMCSBusy   = 0x01
	I2CMCSError  = 0x02
	I2CMCSAdrAck = 0x04 // set when the address was not acknowledged
	I2CMCSDatAck = 0x08 // set when data was not acknowledged
	I2CMCSArbLst = 0x10
	I2CMCSIdle   = 0x20
	I2CMCSBusBsy = 0x40
	I2CMCSClkTO  = 0x80
)

// Master commands
const (
	I2CMasterCmdSingleSend         = 0x07
	I2CMasterCmdSingleReceive      = 0x07
	I2CMasterCmdBurstSendStart     = 0x03
	I2CMasterCmdBurstSendCont      = 0x01
	I2CMasterCmdBurstSendFinish    = 0x05
	I2CMasterCmdBurstSendErrorStop = 0x04
	I2CMasterCmdBurstReceiveStart  = 0x0B
	I2CMasterCmdBurstReceiveCont   = 0x09
	I2CMasterCmdBurstReceiveFinish = 0x05
	I2CMasterCmdQuickCommand       = 0x27
)

// Master errors as returned by MasterErr
const (
	I2CMasterErrNone    = 0
	I2CMasterErrAddrAck = I2CMCSAdrAck
	I2CMasterErrDataAck = I2CMCSDatAck
	I2CMasterErrArbLost = I2CMCSArbLst
	I2CMasterErrClkTO   = I2CMCSClkTO
)

// MCR bits
const (
	I2CMCRLoopback = 0x01
	I2CMCRMFE      = 0x10
	I2CMCRSFE      = 0x20
)

// MTPR bits
const (
	I2CMTPRHS      = 0x80
	I2CMTPRTPRMask = 0x7F
)

// Slave status (SCSR read) and control (SCSR write) bits
const (
	I2CSCSRRReq    = 0x01
	I2CSCSRTReq    = 0x02
	I2CSCSRFBR     = 0x04
	I2CSCSROAR2Sel = 0x08

	I2CSCSRDA = 0x01
)

// Slave interrupt bits (SIMR, SRIS, SMIS, SICR)
const (
	I2CSlaveIntData  = 0x01
	I2CSlaveIntStart = 0x02
	I2CSlaveIntStop  = 0x04
)

// Bus speeds
const (
	I2CStandardMode = 100000
	I2CFastMode     = 400000
	I2CFastModePlus = 1000000
	I2CHighSpeed    = 3330000
)

// SCL low + high period in timer ticks: 6+4 in standard/fast modes and 2+1 in
// high-speed mode.
const (
	i2cSCLPeriod   = 10
	i2cSCLPeriodHS = 3
)

// I2CTimerPeriod computes the MTPR value for an SCL frequency, rounded so the
// bus never runs faster than asked.
func I2CTimerPeriod(sysClk, sclHz uint32) (tpr uint32, highSpeed bool) {
	period := uint32(i2cSCLPeriod)
	if sclHz > I2CFastModePlus {
		period = i2cSCLPeriodHS
		highSpeed = true
	}
	if sclHz == 0 {
		sclHz = I2CStandardMode
	}
	div := 2 * period * sclHz
	tpr = (sysClk+div-1)/div - 1
	if tpr < 1 {
		tpr = 1
	}
	if tpr > I2CMTPRTPRMask {
		tpr = I2CMTPRTPRMask
	}
	return tpr, highSpeed
}

// I2C is one I2C module, master and slave halves
type I2C struct {
	Bus  hw.Bus
	Base uint32
}

// MasterInitExpClk enables the master and programs the SCL rate
func (i I2C) MasterInitExpClk(sysClk, sclHz uint32) {
	hw.Set(i.Bus, i.Base+I2CMCR, I2CMCRMFE)
	i.SetSpeed(sysClk, sclHz)
}

// SetSpeed programs MTPR for sclHz
func (i I2C) SetSpeed(sysClk, sclHz uint32) {
	tpr, hs := I2CTimerPeriod(sysClk, sclHz)
	if hs {
		tpr |= I2CMTPRHS
	}
	i.Bus.Store(i.Base+I2CMTPR, tpr)
}

// MasterDisable turns the master function off
func (i I2C) MasterDisable() {
	hw.Clear(i.Bus, i.Base+I2CMCR, I2CMCRMFE)
}

// MasterSlaveAddrSet loads the target address and direction
func (i I2C) MasterSlaveAddrSet(addr uint8, receive bool) {
	v := uint32(addr) << 1
	if receive {
		v |= 1
	}
	i.Bus.Store(i.Base+I2CMSA, v)
}

// MasterDataPut loads the next byte to send
func (i I2C) MasterDataPut(b uint8) {
	i.Bus.Store(i.Base+I2CMDR, uint32(b))
}

// MasterDataGet returns the last byte received
func (i I2C) MasterDataGet() uint8 {
	return uint8(i.Bus.Load(i.Base + I2CMDR))
}

// MasterControl issues a master command
func (i I2C) MasterControl(cmd uint32) {
	i.Bus.Store(i.Base+I2CMCS, cmd)
}

// MasterBusy reports whether the master is mid-operation
func (i I2C) MasterBusy() bool {
	return i.Bus.Load(i.Base+I2CMCS)&I2CMCSBusy != 0
}

// MasterBusBusy reports whether another master holds the bus
func (i I2C) MasterBusBusy() bool {
	return i.Bus.Load(i.Base+I2CMCS)&I2CMCSBusBsy != 0
}

// MasterErr returns the error of the last operation, or I2CMasterErrNone
func (i I2C) MasterErr() uint32 {
	mcs := i.Bus.Load(i.Base + I2CMCS)
	if mcs&I2CMCSBusy != 0 {
		return I2CMasterErrNone
	}
	if mcs&(I2CMCSError|I2CMCSArbLst|I2CMCSClkTO) != 0 {
		return mcs & (I2CMCSArbLst | I2CMCSDatAck | I2CMCSAdrAck | I2CMCSClkTO)
	}
	return I2CMasterErrNone
}

// MasterWait spins until the master finishes the current command
func (i I2C) MasterWait() {
	hw.WaitClear(i.Bus, i.Base+I2CMCS, I2CMCSBusy)
}

// SlaveInit enables the slave function at addr
func (i I2C) SlaveInit(addr uint8) {
	hw.Set(i.Bus, i.Base+I2CMCR, I2CMCRSFE)
	i.Bus.Store(i.Base+I2CSOAR, uint32(addr))
	i.Bus.Store(i.Base+I2CSCSR, I2CSCSRDA)
}

// SlaveStatus returns the SCSR request bits
func (i I2C) SlaveStatus() uint32 {
	return i.Bus.Load(i.Base + I2CSCSR)
}

// SlaveDataPut loads the byte returned on the next transmit request
func (i I2C) SlaveDataPut(b uint8) {
	i.Bus.Store(i.Base+I2CSDR, uint32(b))
}

// SlaveDataGet returns the byte the master just wrote
func (i I2C) SlaveDataGet() uint8 {
	return uint8(i.Bus.Load(i.Base + I2CSDR))
}

// SlaveIntEnableEx unmasks slave interrupt sources
func (i I2C) SlaveIntEnableEx(mask uint32) {
	hw.Set(i.Bus, i.Base+I2CSIMR, mask)
}

// SlaveIntStatusEx returns the masked (or raw) slave interrupt status
func (i I2C) SlaveIntStatusEx(masked bool) uint32 {
	if masked {
		return i.Bus.Load(i.Base + I2CSMIS)
	}
	return i.Bus.Load(i.Base + I2CSRIS)
}

// SlaveIntClearEx acknowledges slave interrupt sources
func (i I2C) SlaveIntClearEx(mask uint32) {
	i.Bus.Store(i.Base+I2CSICR, mask)
}
