// Software-timed servo pulses. One hardware timer walks the attached slots
// in turn: each interrupt ends the previous pulse, starts the next and loads
// its width; after the last slot the timer waits out the rest of the frame.
package core

import (
	"tivago/periph"
)

const (
	MinServoPulse     = 544   // µs
	MaxServoPulse     = 2400  // µs
	DefaultServoPulse = 1500  // µs
	ServoFrame        = 20000 // µs
	MaxServos         = 8
	InvalidServo      = 255
)

type servoSlot struct {
	port    uint8
	mask    uint8
	us      uint32
	enabled bool
}

// Timer state shared by all servos
var servoShared struct {
	assigned   uint8 // bit per claimed slot
	slots      [MaxServos]servoSlot
	current    int
	frameTicks uint32
	started    bool
}

func init() {
	servoShared.current = -1
}

// Servo is one claimed slot
type Servo struct {
	index uint8
	min   uint32
	max   uint32
}

// NewServo claims the lowest free slot. Index returns InvalidServo when all
// are taken.
func NewServo() *Servo {
	s := &Servo{index: InvalidServo, min: MinServoPulse, max: MaxServoPulse}
	state := disableInterrupts()
	for i := uint8(0); i < MaxServos; i++ {
		if servoShared.assigned&(1<<i) == 0 {
			servoShared.assigned |= 1 << i
			servoShared.slots[i] = servoSlot{us: DefaultServoPulse}
			s.index = i
			break
		}
	}
	restoreInterrupts(state)
	return s
}

// Index is the slot number or InvalidServo
func (s *Servo) Index() uint8 {
	return s.index
}

func ticksPerMicro() uint32 {
	return MustHardware().Board.SysClk / 1000000
}

func servoTimer() periph.Timer {
	h := MustHardware()
	return periph.Timer{Bus: h.Bus, Base: h.Board.ServoTimer.Base}
}

// startServoTimer configures the frame timer on first use
func startServoTimer() {
	if servoShared.started {
		return
	}
	h := MustHardware()
	cfg := h.Board.ServoTimer
	h.sysctl().EnablePeripheral(cfg.Periph)
	t := servoTimer()
	t.ConfigurePeriodic()
	t.LoadSet(ServoFrame * ticksPerMicro())
	h.nvic().IntEnable(cfg.IRQ)
	t.IntEnable(periph.TimerTATimeout)
	servoShared.current = -1
	servoShared.frameTicks = 0
	servoShared.started = true
	t.Enable()
}

// Attach drives pin with the default 544..2400 µs range
func (s *Servo) Attach(pin uint8) uint8 {
	return s.AttachRange(pin, MinServoPulse, MaxServoPulse)
}

// AttachRange drives pin and sets the pulse range used by Write and Read.
// It returns the slot index, or InvalidServo if no slot or pin is
// available.
func (s *Servo) AttachRange(pin uint8, minUS, maxUS uint32) uint8 {
	h := MustHardware()
	port := h.Board.DigitalPinToPort(pin)
	mask := h.Board.DigitalPinToBitMask(pin)
	if mask == 0 {
		return InvalidServo
	}

	if s.index == InvalidServo {
		*s = *NewServo()
		if s.index == InvalidServo {
			return InvalidServo
		}
	}
	state := disableInterrupts()
	servoShared.assigned |= 1 << s.index
	restoreInterrupts(state)
	s.min, s.max = minUS, maxUS

	h.sysctl().EnablePeripheral(periph.PeriphGPIO(port))
	g := h.gpio(port)
	g.PinTypeOutput(mask)
	g.Write(mask, 0)

	startServoTimer()

	state = disableInterrupts()
	endPulse(s.index)
	slot := &servoShared.slots[s.index]
	slot.port, slot.mask = port, mask
	if slot.us == 0 {
		slot.us = DefaultServoPulse
	}
	slot.enabled = true
	restoreInterrupts(state)
	RecordEvent(EvtServoAttach, s.index, uint32(pin), slot.us)
	return s.index
}

// Detach stops pulses on the slot and frees it
func (s *Servo) Detach() {
	if s.index == InvalidServo {
		return
	}
	state := disableInterrupts()
	endPulse(s.index)
	servoShared.slots[s.index].enabled = false
	servoShared.assigned &^= 1 << s.index
	restoreInterrupts(state)
}

// endPulse drives the slot's pin low if its pulse is in progress, so the
// pin is never left high when the slot changes hands. Interrupts must be
// masked.
func endPulse(index uint8) {
	if servoShared.current != int(index) {
		return
	}
	slot := servoShared.slots[index]
	if slot.mask != 0 {
		MustHardware().gpio(slot.port).Write(slot.mask, 0)
	}
}

// Write sets the position: values below MinServoPulse are angles in degrees,
// anything else is a pulse width in microseconds
func (s *Servo) Write(v uint32) {
	if v < MinServoPulse {
		if v > 180 {
			v = 180
		}
		v = s.min + v*(s.max-s.min)/180
	}
	s.WriteMicroseconds(v)
}

// WriteMicroseconds sets the pulse width, clamped to the attach range
func (s *Servo) WriteMicroseconds(us uint32) {
	if s.index == InvalidServo {
		return
	}
	if us < s.min {
		us = s.min
	}
	if us > s.max {
		us = s.max
	}
	state := disableInterrupts()
	servoShared.slots[s.index].us = us
	restoreInterrupts(state)
}

// ReadMicroseconds returns the pulse width, or 0 for an unclaimed servo
func (s *Servo) ReadMicroseconds() uint32 {
	if s.index == InvalidServo {
		return 0
	}
	return servoShared.slots[s.index].us
}

// Read returns the position in degrees
func (s *Servo) Read() uint32 {
	us := s.ReadMicroseconds()
	if us == 0 || s.max <= s.min {
		return 0
	}
	return mapRange(us+1, s.min, s.max, 0, 180)
}

// Attached reports whether the slot is producing pulses
func (s *Servo) Attached() bool {
	return s.index != InvalidServo && servoShared.slots[s.index].enabled
}

func mapRange(x, inMin, inMax, outMin, outMax uint32) uint32 {
	if x < inMin {
		x = inMin
	}
	return (x-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}

// HandleServoInterrupt is the servo timer ISR
func HandleServoInterrupt() {
	h := MustHardware()
	t := servoTimer()
	t.IntClear(periph.TimerTATimeout)
	tpu := ticksPerMicro()

	if c := servoShared.current; c >= 0 {
		if prev := servoShared.slots[c]; prev.mask != 0 {
			h.gpio(prev.port).Write(prev.mask, 0)
		}
	}

	next := servoShared.current + 1
	for next < MaxServos && !servoShared.slots[next].enabled {
		next++
	}

	if next < MaxServos {
		slot := servoShared.slots[next]
		h.gpio(slot.port).Write(slot.mask, slot.mask)
		ticks := slot.us * tpu
		t.LoadSet(ticks)
		servoShared.frameTicks += ticks
		servoShared.current = next
		return
	}

	// all pulses sent; wait out the rest of the frame
	frame := uint32(ServoFrame) * tpu
	remaining := uint32(MinServoPulse) * tpu
	if servoShared.frameTicks+remaining < frame {
		remaining = frame - servoShared.frameTicks
		RecordEvent(EvtServoFrame, 0, servoShared.frameTicks, remaining)
	} else {
		RecordEvent(EvtServoOverrun, 0, servoShared.frameTicks, remaining)
	}
	t.LoadSet(remaining)
	servoShared.frameTicks = 0
	servoShared.current = -1
}

// resetServos forgets every slot and the timer state
func resetServos() {
	servoShared.assigned = 0
	servoShared.slots = [MaxServos]servoSlot{}
	servoShared.current = -1
	servoShared.frameTicks = 0
	servoShared.started = false
}
