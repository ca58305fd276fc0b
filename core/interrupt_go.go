//go:build !tinygo

package core

import "sync/atomic"

// interruptState stands in for the saved PRIMASK on regular Go
type interruptState uintptr

// maskDepth counts open critical sections so tests can check they balance
var maskDepth int32

// disableInterrupts is a counting no-op on regular Go (for testing)
func disableInterrupts() interruptState {
	atomic.AddInt32(&maskDepth, 1)
	return 0
}

// restoreInterrupts closes a section opened by disableInterrupts
func restoreInterrupts(state interruptState) {
	atomic.AddInt32(&maskDepth, -1)
}
