//go:build !tinygo

package core

import "sync/atomic"

// On the host the clock only moves when a test sets it
var systemTicks atomic.Uint32

func getSystemTicks() uint32 {
	return systemTicks.Load()
}

func setSystemTicks(ms uint32) {
	systemTicks.Store(ms)
}
