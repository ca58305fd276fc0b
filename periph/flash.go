package periph

import "tivago/hw"

// Non-volatile user registers; the LaunchPad factory image stores the MAC
// address in the low 24 bits of the first two.
const (
	FlashUserReg0 = 0x400FE1E0
	FlashUserReg1 = 0x400FE1E4

	FlashUserErased = 0xFFFFFFFF
)

// Flash reads the user registers
type Flash struct {
	Bus hw.Bus
}

// UserGet returns USER_REG0 and USER_REG1
func (f Flash) UserGet() (user0, user1 uint32) {
	return f.Bus.Load(FlashUserReg0), f.Bus.Load(FlashUserReg1)
}
