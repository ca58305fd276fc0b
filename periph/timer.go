package periph

import "tivago/hw"

// General-purpose timer bases
const (
	Timer0Base = 0x40030000
	Timer1Base = 0x40031000
	Timer2Base = 0x40032000
	Timer3Base = 0x40033000
)

// GPTM register offsets
const (
	TimerCFG   = 0x000
	TimerTAMR  = 0x004
	TimerCTL   = 0x00C
	TimerIMR   = 0x018
	TimerRIS   = 0x01C
	TimerMIS   = 0x020
	TimerICR   = 0x024
	TimerTAILR = 0x028
	TimerTAV   = 0x050
)

// GPTM bits
const (
	TimerCFG32Bit    = 0x0
	TimerTAMROneShot = 0x1
	TimerTAMRPeriod  = 0x2
	TimerCTLTAEN     = 0x01
	TimerCTLTASTALL  = 0x02
	TimerTATimeout   = 0x01
)

// Timer is timer A of one GPTM block used as a full-width timer
type Timer struct {
	Bus  hw.Bus
	Base uint32
}

// ConfigurePeriodic stops the timer and sets full-width periodic count-down
func (t Timer) ConfigurePeriodic() {
	hw.Clear(t.Bus, t.Base+TimerCTL, TimerCTLTAEN)
	t.Bus.Store(t.Base+TimerCFG, TimerCFG32Bit)
	t.Bus.Store(t.Base+TimerTAMR, TimerTAMRPeriod)
}

// LoadSet sets the reload value used at the next timeout
func (t Timer) LoadSet(ticks uint32) {
	t.Bus.Store(t.Base+TimerTAILR, ticks)
}

// Load returns the reload value
func (t Timer) Load() uint32 {
	return t.Bus.Load(t.Base + TimerTAILR)
}

// Enable starts counting
func (t Timer) Enable() {
	hw.Set(t.Bus, t.Base+TimerCTL, TimerCTLTAEN)
}

// Disable stops counting
func (t Timer) Disable() {
	hw.Clear(t.Bus, t.Base+TimerCTL, TimerCTLTAEN)
}

// Enabled reports whether the timer is counting
func (t Timer) Enabled() bool {
	return t.Bus.Load(t.Base+TimerCTL)&TimerCTLTAEN != 0
}

// IntEnable unmasks timer interrupt sources
func (t Timer) IntEnable(mask uint32) {
	hw.Set(t.Bus, t.Base+TimerIMR, mask)
}

// IntClear acknowledges timer interrupt sources
func (t Timer) IntClear(mask uint32) {
	t.Bus.Store(t.Base+TimerICR, mask)
}
