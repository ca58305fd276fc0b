package periph_test

import (
	"testing"

	"tivago/board"
	"tivago/hw/sim"
	"tivago/periph"
)

func TestSSIClockDivisors(t *testing.T) {
	tests := []struct {
		sysClk, rate uint32
		preDiv, scr  uint32
	}{
		{80000000, 4000000, 2, 9},
		{80000000, 100000, 4, 199},
		{120000000, 4000000, 2, 14},
		{80000000, 0, 254, 255},
		{80000000, 1000, 254, 255}, // slower than the hardware can go
		{16000000, 32000000, 2, 0}, // faster than the hardware can go
	}
	for _, tt := range tests {
		pre, scr := periph.SSIClockDivisors(tt.sysClk, tt.rate)
		if pre != tt.preDiv || scr != tt.scr {
			t.Errorf("SSIClockDivisors(%d, %d) = (%d, %d), want (%d, %d)",
				tt.sysClk, tt.rate, pre, scr, tt.preDiv, tt.scr)
		}
	}
	if got := periph.SSIBitRate(80000000, 2, 9); got != 4000000 {
		t.Errorf("SSIBitRate = %d, want 4000000", got)
	}
}

func TestI2CTimerPeriod(t *testing.T) {
	tests := []struct {
		sysClk, scl uint32
		tpr         uint32
		hs          bool
	}{
		{80000000, periph.I2CStandardMode, 39, false},
		{80000000, periph.I2CFastMode, 9, false},
		{120000000, periph.I2CStandardMode, 59, false},
		{80000000, periph.I2CHighSpeed, 4, true},
		{1000000, periph.I2CFastModePlus, 1, false},
		{120000000, 10000, 127, false},
	}
	for _, tt := range tests {
		tpr, hs := periph.I2CTimerPeriod(tt.sysClk, tt.scl)
		if tpr != tt.tpr || hs != tt.hs {
			t.Errorf("I2CTimerPeriod(%d, %d) = (%d, %v), want (%d, %v)",
				tt.sysClk, tt.scl, tpr, hs, tt.tpr, tt.hs)
		}
	}
}

func TestUARTDivisors(t *testing.T) {
	ibrd, fbrd := periph.UARTDivisors(80000000, 115200)
	if ibrd != 43 || fbrd != 26 {
		t.Errorf("UARTDivisors(80MHz, 115200) = (%d, %d), want (43, 26)", ibrd, fbrd)
	}
}

func TestEMACMIIClockRange(t *testing.T) {
	if got := periph.EMACMIIClockRange(120000000); got != periph.EMACMIICR100To150 {
		t.Errorf("120MHz range = %#x", got)
	}
	if got := periph.EMACMIIClockRange(80000000); got != periph.EMACMIICR60To100 {
		t.Errorf("80MHz range = %#x", got)
	}
	if got := periph.EMACMIIClockRange(25000000); got != periph.EMACMIICR20To35 {
		t.Errorf("25MHz range = %#x", got)
	}
}

func TestNVICPriorityLanes(t *testing.T) {
	c := sim.NewChip(board.EKTM4C1294XL)
	n := periph.NVIC{Bus: c}
	n.IntPrioritySet(periph.IRQEMAC0, 0xC0)
	n.IntPrioritySet(periph.IRQEMAC0+1, 0x20)
	if got := n.IntPriority(periph.IRQEMAC0); got != 0xC0 {
		t.Errorf("EMAC priority = %#x, want 0xc0", got)
	}
	if got := n.IntPriority(periph.IRQEMAC0 + 1); got != 0x20 {
		t.Errorf("neighbour priority = %#x, want 0x20", got)
	}
}

func TestPinConfigureReplacesNibble(t *testing.T) {
	c := sim.NewChip(board.EKTM4C123GXL)
	g, _ := board.EKTM4C123GXL.GPIO(c, board.PB)
	pctl, _ := board.EKTM4C123GXL.PortBase(board.PB)
	c.Store(pctl+periph.GPIOPCTL, 0xFFFFFFFF)

	g.PinConfigure(4, 2)
	if got := c.Load(pctl + periph.GPIOPCTL); got != 0xFFF2FFFF {
		t.Errorf("PCTL = %#08x, want 0xfff2ffff", got)
	}
}

func TestUnlockOpensCommitRegister(t *testing.T) {
	c := sim.NewChip(board.EKTM4C123GXL)
	base, _ := board.EKTM4C123GXL.PortBase(board.PF)
	g := periph.GPIO{Bus: c, Base: base}

	c.Store(base+periph.GPIOCR, uint32(periph.Pin0))
	if c.Load(base+periph.GPIOCR) != 0 {
		t.Fatal("commit register writable while locked")
	}
	g.Unlock(periph.Pin0)
	if c.Load(base+periph.GPIOCR)&uint32(periph.Pin0) == 0 {
		t.Error("PF0 not committed after Unlock")
	}
}

func TestSSIConfigSetExpClk(t *testing.T) {
	c := sim.NewChip(board.EKTM4C123GXL)
	s := periph.SSI{Bus: c, Base: periph.SSI0Base}
	s.ConfigSetExpClk(80000000, periph.SSIFrfMotoMode3, periph.SSIModeMaster, 4000000, 8)

	cr0 := c.Load(periph.SSI0Base + periph.SSICR0)
	if scr := (cr0 & periph.SSICR0SCRMask) >> periph.SSICR0SCRShift; scr != 9 {
		t.Errorf("SCR = %d, want 9", scr)
	}
	if cr0&(periph.SSICR0SPO|periph.SSICR0SPH) != periph.SSICR0SPO|periph.SSICR0SPH {
		t.Errorf("CR0 = %#x, want SPO|SPH for mode 3", cr0)
	}
	if c.Load(periph.SSI0Base+periph.SSICPSR) != 2 {
		t.Error("CPSR not 2")
	}

	s.SetDataWidth(16)
	if got := c.Load(periph.SSI0Base+periph.SSICR0) & periph.SSICR0DSSMask; got != periph.SSICR0DSS16 {
		t.Errorf("DSS = %#x, want 16-bit", got)
	}
	s.SetPhasePolarity(periph.SSICR0SPH)
	if got := c.Load(periph.SSI0Base+periph.SSICR0) & (periph.SSICR0SPO | periph.SSICR0SPH); got != periph.SSICR0SPH {
		t.Errorf("phase/polarity = %#x", got)
	}
}

func TestEMACAddrRoundTrip(t *testing.T) {
	c := sim.NewChip(board.EKTM4C1294XL)
	e := periph.EMAC{Bus: c, Base: periph.EMAC0Base}
	mac := [6]byte{0x00, 0x1A, 0xB6, 0x02, 0xF3, 0x44}
	e.AddrSet(mac)
	if got := e.Addr(); got != mac {
		t.Errorf("Addr = %x, want %x", got, mac)
	}
	if hi := c.Load(periph.EMAC0Base + periph.EMACAddr0H); hi != 0x44F3 {
		t.Errorf("ADDR0H = %#x, want 0x44f3", hi)
	}
}

func TestTimerPeriodic(t *testing.T) {
	c := sim.NewChip(board.EKTM4C123GXL)
	tm := periph.Timer{Bus: c, Base: periph.Timer2Base}
	tm.ConfigurePeriodic()
	tm.LoadSet(1234)
	tm.IntEnable(periph.TimerTATimeout)
	tm.Enable()

	model := c.Timers[periph.Timer2Base]
	if !model.Running() || tm.Load() != 1234 {
		t.Fatalf("timer not running with load 1234")
	}
	model.Timeout()
	if c.Load(periph.Timer2Base+periph.TimerMIS) != periph.TimerTATimeout {
		t.Error("timeout not pending")
	}
	tm.IntClear(periph.TimerTATimeout)
	if c.Load(periph.Timer2Base+periph.TimerMIS) != 0 {
		t.Error("timeout not cleared")
	}
}

func TestUARTWrite(t *testing.T) {
	c := sim.NewChip(board.EKTM4C123GXL)
	u := periph.UART{Bus: c, Base: periph.UART0Base}
	u.ConfigSetExpClk(80000000, 115200)
	if _, err := u.Write([]byte("ok")); err != nil {
		t.Fatal(err)
	}
	if string(c.UART.TX) != "ok" {
		t.Errorf("TX = %q", c.UART.TX)
	}
	if _, ok := u.CharGetNonBlocking(); ok {
		t.Error("unexpected receive byte")
	}
	c.UART.Inject([]byte{'x'})
	if b, ok := u.CharGetNonBlocking(); !ok || b != 'x' {
		t.Errorf("CharGetNonBlocking = %q, %v", b, ok)
	}
}

func TestClockSetRCC2(t *testing.T) {
	c := sim.NewChip(board.EKTM4C123GXL)
	periph.SysCtl{Bus: c}.ClockSetRCC2(80000000)

	rcc := c.Load(periph.SysCtlBase + periph.SysCtlRCC)
	rcc2 := c.Load(periph.SysCtlBase + periph.SysCtlRCC2)
	if rcc&periph.RCCXTALM != periph.RCCXTAL16MHz {
		t.Errorf("XTAL = %#x, want 16 MHz", rcc&periph.RCCXTALM)
	}
	if rcc&periph.RCCUseSysDiv == 0 {
		t.Error("system divider not in use")
	}
	if rcc2&periph.RCC2UseRCC2 == 0 || rcc2&periph.RCC2Div400 == 0 {
		t.Errorf("RCC2 = %#x, want USERCC2 and DIV400", rcc2)
	}
	if rcc2&(periph.RCC2Bypass2|periph.RCC2PwrDn2) != 0 {
		t.Errorf("RCC2 = %#x, PLL still bypassed or powered down", rcc2)
	}
	if div := (rcc2 & periph.RCC2SysDivM) >> periph.RCC2SysDivPos; div != 4 {
		t.Errorf("SYSDIV2 = %d, want 4 (400 MHz / 5)", div)
	}
}

func TestClockFreqSetRSCLK(t *testing.T) {
	c := sim.NewChip(board.EKTM4C1294XL)
	periph.SysCtl{Bus: c}.ClockFreqSetRSCLK(120000000)

	if m := c.Load(periph.SysCtlBase + periph.SysCtlMOSCCTL); m&(periph.MOSCCTLPwrDn|periph.MOSCCTLNoXtal) != 0 {
		t.Errorf("MOSCCTL = %#x, oscillator still off", m)
	}
	cfg := c.Load(periph.SysCtlBase + periph.SysCtlRSCLKCFG)
	if cfg&periph.RSCLKUsePLL == 0 || cfg&periph.RSCLKMemTimU == 0 {
		t.Errorf("RSCLKCFG = %#x, want USEPLL and MEMTIMU", cfg)
	}
	if cfg&periph.RSCLKPLLSrcM != periph.RSCLKPLLMOSC {
		t.Errorf("PLL source = %#x, want MOSC", cfg&periph.RSCLKPLLSrcM)
	}
	if d := cfg & periph.RSCLKPSysDivM; d != 3 {
		t.Errorf("PSYSDIV = %d, want 3 (480 MHz / 4)", d)
	}
	if f0 := c.Load(periph.SysCtlBase + periph.SysCtlPLLFREQ0); f0&periph.PLLFREQ0MIntM != 96 {
		t.Errorf("MINT = %d, want 96", f0&periph.PLLFREQ0MIntM)
	}
	if got := c.Load(periph.SysCtlBase + periph.SysCtlMEMTIM0); got != 0x01850185 {
		t.Errorf("MEMTIM0 = %#x, want 0x01850185", got)
	}
}

func TestMemTiming(t *testing.T) {
	tests := []struct {
		sysClk uint32
		want   uint32
	}{
		{16000000, 0},
		{40000000, 0x00810081},
		{80000000, 0x01030103},
		{120000000, 0x01850185},
	}
	for _, tt := range tests {
		if got := periph.MemTiming(tt.sysClk); got != tt.want {
			t.Errorf("MemTiming(%d) = %#x, want %#x", tt.sysClk, got, tt.want)
		}
	}
}
