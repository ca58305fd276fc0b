package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// Event is one driver event kept for post-mortem analysis
type Event struct {
	Kind   uint8 // Evt* code
	Module uint8 // peripheral instance or servo slot
	Value1 uint32
	Value2 uint32
}

// Event kinds
const (
	EvtSPIBegin     = 1 // SPI module brought up (Value1 = bit rate)
	EvtSPIEnd       = 2 // last SPI user released the module
	EvtWireNack     = 3 // master transfer failed (Value1 = status code, Value2 = address)
	EvtWireSlaveRx  = 4 // slave receive delivered (Value1 = byte count)
	EvtWireSlaveTx  = 5 // slave transmit ended (Value1 = bytes sent)
	EvtServoAttach  = 6 // servo slot enabled (Value1 = pin)
	EvtServoFrame   = 7 // servo refresh frame restarted (Value1 = pulse ticks, Value2 = idle ticks)
	EvtEthLink      = 8 // PHY link changed (Value1 = 1 when up)
	EvtDHCP         = 9 // DHCP attempt ended (Value1 = attempt, Value2 = 1 when leased)
	EvtBridgeError  = 10
	EvtBridgeFrame  = 11
	EvtServoOverrun = 12 // pulses exceeded the refresh interval
)

// EventRingSize is the number of events kept
const EventRingSize = 32

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {}

	// debugEnabled gates DebugPrintln; events are always recorded
	debugEnabled bool

	eventRing     [EventRingSize]Event
	eventRingHead uint8
)

// SetDebugWriter sets the platform-specific debug output function
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordEvent stores an event in the ring. Safe from interrupt context.
func RecordEvent(kind, module uint8, value1, value2 uint32) {
	state := disableInterrupts()
	idx := eventRingHead
	eventRing[idx] = Event{Kind: kind, Module: module, Value1: value1, Value2: value2}
	eventRingHead = (idx + 1) % EventRingSize
	restoreInterrupts(state)
}

// Events returns the recorded events, oldest first
func Events() []Event {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	out := make([]Event, 0, EventRingSize)
	for i := uint8(0); i < EventRingSize; i++ {
		evt := eventRing[(eventRingHead+i)%EventRingSize]
		if evt.Kind != 0 {
			out = append(out, evt)
		}
	}
	return out
}

func eventName(kind uint8) string {
	switch kind {
	case EvtSPIBegin:
		return "SPI_BEGIN"
	case EvtSPIEnd:
		return "SPI_END"
	case EvtWireNack:
		return "WIRE_NACK"
	case EvtWireSlaveRx:
		return "WIRE_SLAVE_RX"
	case EvtWireSlaveTx:
		return "WIRE_SLAVE_TX"
	case EvtServoAttach:
		return "SERVO_ATTACH"
	case EvtServoFrame:
		return "SERVO_FRAME"
	case EvtServoOverrun:
		return "SERVO_OVERRUN!"
	case EvtEthLink:
		return "ETH_LINK"
	case EvtDHCP:
		return "DHCP"
	case EvtBridgeError:
		return "BRIDGE_ERR"
	case EvtBridgeFrame:
		return "BRIDGE_FRAME"
	}
	return "UNKNOWN"
}

// DumpEvents writes the ring through the debug writer regardless of
// SetDebugEnabled (call on fault or from a bridge command)
func DumpEvents() {
	if debugPrintln == nil {
		return
	}
	debugPrintln("[EVENTS] === Event Ring Dump ===")
	for _, evt := range Events() {
		debugPrintln("[EVENTS] " + eventName(evt.Kind) +
			" module=" + itoa(int(evt.Module)) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[EVENTS] === End Dump ===")
}

// ClearEvents empties the ring
func ClearEvents() {
	state := disableInterrupts()
	for i := range eventRing {
		eventRing[i] = Event{}
	}
	eventRingHead = 0
	restoreInterrupts(state)
}
