package periph

import "tivago/hw"

// Ethernet MAC (TM4C129 only)
const (
	EMAC0Base = 0x400EC000
)

// EMAC register offsets
const (
	EMACCFG       = 0x000
	EMACFrameFltr = 0x004
	EMACMIIAddr   = 0x010
	EMACMIIData   = 0x014
	EMACAddr0H    = 0x040
	EMACAddr0L    = 0x044
	EMACDMABusMod = 0xC00
	EMACTxPollD   = 0xC04
	EMACRxPollD   = 0xC08
	EMACRxDLAddr  = 0xC0C
	EMACTxDLAddr  = 0xC10
	EMACDMAOpMode = 0xC18
	EMACPC        = 0xFC4
	EMACCC        = 0xFC8
)

// EMAC bits
const (
	EMACCFGRE  = 0x00000004
	EMACCFGTE  = 0x00000008
	EMACCFGDM  = 0x00000800
	EMACCFGFES = 0x00004000
	EMACCFGPS  = 0x00008000

	EMACMIIAddrMIIB     = 0x01
	EMACMIIAddrMIIW     = 0x02
	EMACMIIAddrCRMask   = 0x3C
	EMACMIIAddrMIIShift = 6
	EMACMIIAddrPLAShift = 11

	EMACDMABusModSWR = 0x01

	EMACDMAOpModeSR  = 0x00000002
	EMACDMAOpModeST  = 0x00002000
	EMACDMAOpModeTSF = 0x00200000

	EMACPCPHYExt  = 0x80000000
	EMACPCMDIXEn  = 0x00040000
	EMACPCANMode  = 0x00000006 // 10/100 full and half duplex
	EMACPCANEn    = 0x00000008
	EMACPCPHYHold = 0x00000001

	// MII clock ranges
	EMACMIICR60To100  = 0x00
	EMACMIICR100To150 = 0x04
	EMACMIICR20To35   = 0x08
	EMACMIICR35To60   = 0x0C
)

// Internal PHY address and the IEEE 802.3 registers used at bring-up
const (
	PHYAddrInternal = 0

	PHYBMCR = 0x00
	PHYBMSR = 0x01

	PHYBMCRReset  = 0x8000
	PHYBMCRANEn   = 0x1000
	PHYBMCRRestAN = 0x0200

	PHYBMSRLinkStat = 0x0004
	PHYBMSRANC      = 0x0020
)

// EMACMIIClockRange picks the MDC divider for the system clock
func EMACMIIClockRange(sysClk uint32) uint32 {
	switch {
	case sysClk < 35000000:
		return EMACMIICR20To35
	case sysClk < 60000000:
		return EMACMIICR35To60
	case sysClk < 100000000:
		return EMACMIICR60To100
	default:
		return EMACMIICR100To150
	}
}

// EMAC is the Ethernet controller and its MII management port
type EMAC struct {
	Bus  hw.Bus
	Base uint32
}

// Reset issues a DMA software reset and waits for it to finish
func (e EMAC) Reset() {
	hw.Set(e.Bus, e.Base+EMACDMABusMod, EMACDMABusModSWR)
	hw.WaitClear(e.Bus, e.Base+EMACDMABusMod, EMACDMABusModSWR)
}

// PHYConfigInternal selects the internal PHY with auto-negotiation and auto-MDIX
func (e EMAC) PHYConfigInternal() {
	e.Bus.Store(e.Base+EMACPC, EMACPCMDIXEn|EMACPCANEn|EMACPCANMode)
}

// SetMIIClock programs the MDC divider
func (e EMAC) SetMIIClock(sysClk uint32) {
	hw.Modify(e.Bus, e.Base+EMACMIIAddr, EMACMIIAddrCRMask, EMACMIIClockRange(sysClk))
}

// AddrSet programs the station address filter
func (e EMAC) AddrSet(mac [6]byte) {
	e.Bus.Store(e.Base+EMACAddr0H, uint32(mac[5])<<8|uint32(mac[4]))
	e.Bus.Store(e.Base+EMACAddr0L,
		uint32(mac[3])<<24|uint32(mac[2])<<16|uint32(mac[1])<<8|uint32(mac[0]))
}

// Addr reads back the station address
func (e EMAC) Addr() [6]byte {
	hi := e.Bus.Load(e.Base + EMACAddr0H)
	lo := e.Bus.Load(e.Base + EMACAddr0L)
	return [6]byte{byte(lo), byte(lo >> 8), byte(lo >> 16), byte(lo >> 24), byte(hi), byte(hi >> 8)}
}

func (e EMAC) miiCommand(phy, reg uint8, write bool) {
	hw.WaitClear(e.Bus, e.Base+EMACMIIAddr, EMACMIIAddrMIIB)
	v := e.Bus.Load(e.Base+EMACMIIAddr) & EMACMIIAddrCRMask
	v |= uint32(phy)<<EMACMIIAddrPLAShift | uint32(reg)<<EMACMIIAddrMIIShift | EMACMIIAddrMIIB
	if write {
		v |= EMACMIIAddrMIIW
	}
	e.Bus.Store(e.Base+EMACMIIAddr, v)
	hw.WaitClear(e.Bus, e.Base+EMACMIIAddr, EMACMIIAddrMIIB)
}

// PHYRead reads a PHY register over MII
func (e EMAC) PHYRead(phy, reg uint8) uint16 {
	e.miiCommand(phy, reg, false)
	return uint16(e.Bus.Load(e.Base + EMACMIIData))
}

// PHYWrite writes a PHY register over MII
func (e EMAC) PHYWrite(phy, reg uint8, v uint16) {
	e.Bus.Store(e.Base+EMACMIIData, uint32(v))
	e.miiCommand(phy, reg, true)
}

// TxRxEnable starts the MAC transmitter and receiver at 100 Mbit full duplex
func (e EMAC) TxRxEnable() {
	hw.Set(e.Bus, e.Base+EMACCFG, EMACCFGTE|EMACCFGRE|EMACCFGDM|EMACCFGFES)
}

// TxRxDisable stops the MAC
func (e EMAC) TxRxDisable() {
	hw.Clear(e.Bus, e.Base+EMACCFG, EMACCFGTE|EMACCFGRE)
}

// DMA descriptors are four words (ATDS clear): status, control, buffer and
// next descriptor, chained through the fourth word
const (
	EMACDescSize = 16

	EMACDes0 = 0x0
	EMACDes1 = 0x4
	EMACDes2 = 0x8
	EMACDes3 = 0xC

	EMACDescOwn = 0x80000000 // DES0: owned by the DMA

	EMACTDes0IC  = 0x40000000
	EMACTDes0LS  = 0x20000000
	EMACTDes0FS  = 0x10000000
	EMACTDes0TCH = 0x00100000
	EMACTDes0ES  = 0x00008000

	EMACRDes0FLMask  = 0x3FFF0000
	EMACRDes0FLShift = 16
	EMACRDes0ES      = 0x00008000
	EMACRDes0FS      = 0x00000200
	EMACRDes0LS      = 0x00000100
	EMACRDes1RCH     = 0x00004000

	EMACDesBufMask = 0x1FFF // DES1 buffer 1 size
)

// DMAInit hands the descriptor lists to the DMA and starts both engines
func (e EMAC) DMAInit(txList, rxList uint32) {
	e.Bus.Store(e.Base+EMACTxDLAddr, txList)
	e.Bus.Store(e.Base+EMACRxDLAddr, rxList)
	hw.Set(e.Bus, e.Base+EMACDMAOpMode, EMACDMAOpModeTSF|EMACDMAOpModeST|EMACDMAOpModeSR)
}

// TxPollDemand makes the DMA re-read the transmit list
func (e EMAC) TxPollDemand() {
	e.Bus.Store(e.Base+EMACTxPollD, 1)
}

// RxPollDemand makes the DMA re-read the receive list
func (e EMAC) RxPollDemand() {
	e.Bus.Store(e.Base+EMACRxPollD, 1)
}

// WriteMem copies p to memory at addr, a word at a time. addr is word
// aligned; the tail of the last word is zeroed.
func WriteMem(b hw.Bus, addr uint32, p []byte) {
	for i := 0; i < len(p); i += 4 {
		var w uint32
		for j := 0; j < 4 && i+j < len(p); j++ {
			w |= uint32(p[i+j]) << (8 * j)
		}
		b.Store(addr+uint32(i), w)
	}
}

// ReadMem copies n bytes from memory at addr
func ReadMem(b hw.Bus, addr uint32, n int) []byte {
	p := make([]byte, n)
	for i := 0; i < n; i += 4 {
		w := b.Load(addr + uint32(i))
		for j := 0; j < 4 && i+j < n; j++ {
			p[i+j] = byte(w >> (8 * j))
		}
	}
	return p
}
